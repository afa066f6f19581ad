package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/yungbote/shapemate-backend/internal/http/response"
	"github.com/yungbote/shapemate-backend/internal/nutrition/lookup"
	"github.com/yungbote/shapemate-backend/internal/services"
)

type FoodHandler struct {
	foods services.FoodService
}

func NewFoodHandler(foods services.FoodService) *FoodHandler {
	return &FoodHandler{foods: foods}
}

// GET /foods/search?q=
func (h *FoodHandler) Search(c *gin.Context) {
	rec, err := h.foods.Search(c.Request.Context(), c.Query("q"))
	if err != nil {
		response.RespondErr(c, err)
		return
	}
	response.RespondOK(c, gin.H{"food": rec})
}

// POST /foods/meal
// body: { "items": [{ "food": "rice", "quantity_g": 150 }] }
func (h *FoodHandler) MealNutrition(c *gin.Context) {
	var req struct {
		Items []lookup.MealItem `json:"items"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		response.RespondError(c, http.StatusBadRequest, "invalid_request", err)
		return
	}
	meal, err := h.foods.MealNutrition(c.Request.Context(), req.Items)
	if err != nil {
		response.RespondErr(c, err)
		return
	}
	response.RespondOK(c, meal)
}

// GET /foods/alternatives?q=
func (h *FoodHandler) Alternatives(c *gin.Context) {
	alts, err := h.foods.Alternatives(c.Request.Context(), c.Query("q"))
	if err != nil {
		response.RespondErr(c, err)
		return
	}
	response.RespondOK(c, gin.H{"food": c.Query("q"), "alternatives": alts})
}
