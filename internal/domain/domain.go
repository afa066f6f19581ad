package domain

import (
	"github.com/yungbote/shapemate-backend/internal/domain/auth"
	"github.com/yungbote/shapemate-backend/internal/domain/chat"
	"github.com/yungbote/shapemate-backend/internal/domain/diet"
	"github.com/yungbote/shapemate-backend/internal/domain/user"
)

type (
	User        = user.User
	UserProfile = user.UserProfile
	UserToken   = auth.UserToken

	Diet          = diet.Diet
	ShoppingList  = diet.ShoppingList
	InventoryItem = diet.InventoryItem

	ChatSession = chat.ChatSession
	ChatMessage = chat.ChatMessage
)

const (
	DietSourceNutritionist = diet.SourceNutritionist
	DietSourceConsultation = diet.SourceConsultation

	ChatSessionActive = chat.SessionStatusActive
	ChatSessionEnded  = chat.SessionStatusEnded
)

// AllModels lists every persisted model in migration order.
func AllModels() []any {
	return []any{
		&User{},
		&UserToken{},
		&UserProfile{},
		&Diet{},
		&ShoppingList{},
		&InventoryItem{},
		&ChatSession{},
		&ChatMessage{},
	}
}

// EncodeList stores a string list in a JSON column.
var EncodeList = user.EncodeList
