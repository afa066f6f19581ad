package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/yungbote/shapemate-backend/internal/http/response"
	"github.com/yungbote/shapemate-backend/internal/services"
)

type AssistantHandler struct {
	assistant services.AssistantService
}

func NewAssistantHandler(assistant services.AssistantService) *AssistantHandler {
	return &AssistantHandler{assistant: assistant}
}

// POST /assistant/messages
// body: { "message": "posso trocar o arroz?", "history": [...], "chat_session_id": "..." }
func (h *AssistantHandler) Ask(c *gin.Context) {
	var req services.AssistantInput
	if err := c.ShouldBindJSON(&req); err != nil {
		response.RespondError(c, http.StatusBadRequest, "invalid_request", err)
		return
	}
	out, err := h.assistant.Ask(c.Request.Context(), req)
	if err != nil {
		response.RespondErr(c, err)
		return
	}
	response.RespondOK(c, out)
}
