package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/yungbote/shapemate-backend/internal/http/response"
	"github.com/yungbote/shapemate-backend/internal/services"
)

type ConsultationHandler struct {
	consultations services.ConsultationService
}

func NewConsultationHandler(consultations services.ConsultationService) *ConsultationHandler {
	return &ConsultationHandler{consultations: consultations}
}

// POST /consultations
func (h *ConsultationHandler) Start(c *gin.Context) {
	st, err := h.consultations.Start(c.Request.Context())
	if err != nil {
		response.RespondErr(c, err)
		return
	}
	response.RespondCreated(c, gin.H{"consultation": st, "reply": st.LastAssistantMessage()})
}

// GET /consultations/:id
func (h *ConsultationHandler) Get(c *gin.Context) {
	st, err := h.consultations.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.RespondErr(c, err)
		return
	}
	response.RespondOK(c, gin.H{"consultation": st})
}

// POST /consultations/:id/messages
// body: { "message": "..." }
func (h *ConsultationHandler) SendMessage(c *gin.Context) {
	var req struct {
		Message string `json:"message"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		response.RespondError(c, http.StatusBadRequest, "invalid_request", err)
		return
	}
	res, err := h.consultations.SendMessage(c.Request.Context(), c.Param("id"), req.Message)
	if err != nil {
		response.RespondErr(c, err)
		return
	}
	response.RespondOK(c, gin.H{
		"consultation": res.State,
		"reply":        res.Reply,
		"failed":       res.Failed,
	})
}

// POST /consultations/:id/reset
func (h *ConsultationHandler) Reset(c *gin.Context) {
	st, err := h.consultations.Reset(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.RespondErr(c, err)
		return
	}
	response.RespondOK(c, gin.H{"consultation": st, "reply": st.LastAssistantMessage()})
}

// POST /consultations/:id/finalize
func (h *ConsultationHandler) Finalize(c *gin.Context) {
	res, err := h.consultations.Finalize(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.RespondErr(c, err)
		return
	}
	response.RespondOK(c, gin.H{
		"diet_id":      res.DietID,
		"pdf_url":      "/api/diets/" + res.DietID + "/pdf",
		"diet":         res.Diet,
		"consultation": res.State,
		"reply":        res.State.LastAssistantMessage(),
	})
}
