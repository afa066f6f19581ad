package repos

import (
	"gorm.io/gorm"

	"github.com/yungbote/shapemate-backend/internal/data/repos/auth"
	"github.com/yungbote/shapemate-backend/internal/data/repos/chat"
	"github.com/yungbote/shapemate-backend/internal/data/repos/diet"
	"github.com/yungbote/shapemate-backend/internal/data/repos/user"
	"github.com/yungbote/shapemate-backend/internal/platform/logger"
)

type UserRepo = user.UserRepo
type UserProfileRepo = user.UserProfileRepo
type UserTokenRepo = auth.UserTokenRepo

type DietRepo = diet.DietRepo
type ShoppingListRepo = diet.ShoppingListRepo
type InventoryRepo = diet.InventoryRepo

type ChatSessionRepo = chat.ChatSessionRepo
type ChatMessageRepo = chat.ChatMessageRepo

type Repos struct {
	User         UserRepo
	UserProfile  UserProfileRepo
	UserToken    UserTokenRepo
	Diet         DietRepo
	ShoppingList ShoppingListRepo
	Inventory    InventoryRepo
	ChatSession  ChatSessionRepo
	ChatMessage  ChatMessageRepo
}

func New(db *gorm.DB, log *logger.Logger) Repos {
	return Repos{
		User:         user.NewUserRepo(db, log),
		UserProfile:  user.NewUserProfileRepo(db, log),
		UserToken:    auth.NewUserTokenRepo(db, log),
		Diet:         diet.NewDietRepo(db, log),
		ShoppingList: diet.NewShoppingListRepo(db, log),
		Inventory:    diet.NewInventoryRepo(db, log),
		ChatSession:  chat.NewChatSessionRepo(db, log),
		ChatMessage:  chat.NewChatMessageRepo(db, log),
	}
}
