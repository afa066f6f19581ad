package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/yungbote/shapemate-backend/internal/http/response"
	"github.com/yungbote/shapemate-backend/internal/services"
)

type ChatSessionHandler struct {
	sessions services.ChatSessionService
}

func NewChatSessionHandler(sessions services.ChatSessionService) *ChatSessionHandler {
	return &ChatSessionHandler{sessions: sessions}
}

// POST /chat-sessions
// body: { "consultation_id": "..." } (optional)
func (h *ChatSessionHandler) Create(c *gin.Context) {
	var req struct {
		ConsultationID string `json:"consultation_id"`
	}
	if c.Request.ContentLength > 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			response.RespondError(c, http.StatusBadRequest, "invalid_request", err)
			return
		}
	}
	sess, err := h.sessions.Create(c.Request.Context(), req.ConsultationID)
	if err != nil {
		response.RespondErr(c, err)
		return
	}
	response.RespondCreated(c, gin.H{"session": sess})
}

// POST /chat-sessions/:id/end
func (h *ChatSessionHandler) End(c *gin.Context) {
	sess, err := h.sessions.End(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.RespondErr(c, err)
		return
	}
	response.RespondOK(c, gin.H{"session": sess})
}

// GET /chat-sessions/:id?messages=true
func (h *ChatSessionHandler) Stats(c *gin.Context) {
	stats, err := h.sessions.Stats(c.Request.Context(), c.Param("id"), c.Query("messages") == "true")
	if err != nil {
		response.RespondErr(c, err)
		return
	}
	response.RespondOK(c, stats)
}
