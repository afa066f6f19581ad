package handlers

import (
	"io"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/yungbote/shapemate-backend/internal/http/response"
	"github.com/yungbote/shapemate-backend/internal/services"
)

type DietHandler struct {
	diets services.DietService
}

func NewDietHandler(diets services.DietService) *DietHandler {
	return &DietHandler{diets: diets}
}

// GET /diets?limit=
func (h *DietHandler) List(c *gin.Context) {
	rows, err := h.diets.List(c.Request.Context(), queryInt(c, "limit"))
	if err != nil {
		response.RespondErr(c, err)
		return
	}
	response.RespondOK(c, gin.H{"diets": rows})
}

// GET /diets/active
func (h *DietHandler) GetActive(c *gin.Context) {
	d, err := h.diets.GetActive(c.Request.Context())
	if err != nil {
		response.RespondErr(c, err)
		return
	}
	response.RespondOK(c, gin.H{"diet": d})
}

// GET /diets/:id
func (h *DietHandler) Get(c *gin.Context) {
	d, err := h.diets.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.RespondErr(c, err)
		return
	}
	response.RespondOK(c, gin.H{"diet": d})
}

// POST /diets/:id/activate
func (h *DietHandler) Activate(c *gin.Context) {
	if err := h.diets.Activate(c.Request.Context(), c.Param("id")); err != nil {
		response.RespondErr(c, err)
		return
	}
	response.RespondOK(c, gin.H{"ok": true})
}

// GET /diets/:id/pdf
func (h *DietHandler) PDF(c *gin.Context) {
	pdf, err := h.diets.OpenPDF(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.RespondErr(c, err)
		return
	}
	defer pdf.Body.Close()

	c.Header("Content-Type", "application/pdf")
	c.Header("Content-Disposition", `attachment; filename="`+pdf.FileName+`"`)
	c.Status(http.StatusOK)
	if _, err := io.Copy(c.Writer, pdf.Body); err != nil {
		_ = c.Error(err)
	}
}

// POST /diets/:id/shopping-list
// body: { "name": "..." } (optional)
func (h *DietHandler) CreateShoppingList(c *gin.Context) {
	var req struct {
		Name string `json:"name"`
	}
	if c.Request.ContentLength > 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			response.RespondError(c, http.StatusBadRequest, "invalid_request", err)
			return
		}
	}
	list, err := h.diets.CreateShoppingList(c.Request.Context(), c.Param("id"), req.Name)
	if err != nil {
		response.RespondErr(c, err)
		return
	}
	response.RespondCreated(c, gin.H{"shopping_list": list})
}

// GET /shopping-lists?limit=
func (h *DietHandler) ListShoppingLists(c *gin.Context) {
	lists, err := h.diets.ListShoppingLists(c.Request.Context(), queryInt(c, "limit"))
	if err != nil {
		response.RespondErr(c, err)
		return
	}
	response.RespondOK(c, gin.H{"shopping_lists": lists})
}

// POST /shopping-lists/:id/complete
// body: { "completed": true }
func (h *DietHandler) CompleteShoppingList(c *gin.Context) {
	req := struct {
		Completed *bool `json:"completed"`
	}{}
	if c.Request.ContentLength > 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			response.RespondError(c, http.StatusBadRequest, "invalid_request", err)
			return
		}
	}
	completed := req.Completed == nil || *req.Completed
	if err := h.diets.SetShoppingListCompleted(c.Request.Context(), c.Param("id"), completed); err != nil {
		response.RespondErr(c, err)
		return
	}
	response.RespondOK(c, gin.H{"ok": true, "completed": completed})
}

// GET /inventory
func (h *DietHandler) ListInventory(c *gin.Context) {
	items, err := h.diets.ListInventory(c.Request.Context())
	if err != nil {
		response.RespondErr(c, err)
		return
	}
	response.RespondOK(c, gin.H{"items": items})
}

// PUT /inventory
// body: { "items": [{ "item_name": "arroz", "quantity": 2, "unit": "kg" }] }
func (h *DietHandler) UpsertInventory(c *gin.Context) {
	var req struct {
		Items []services.InventoryInput `json:"items"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		response.RespondError(c, http.StatusBadRequest, "invalid_request", err)
		return
	}
	items, err := h.diets.UpsertInventory(c.Request.Context(), req.Items)
	if err != nil {
		response.RespondErr(c, err)
		return
	}
	response.RespondOK(c, gin.H{"items": items})
}

// GET /inventory/expiring?days=
func (h *DietHandler) ExpiringInventory(c *gin.Context) {
	within := time.Duration(queryInt(c, "days")) * 24 * time.Hour
	items, err := h.diets.ExpiringInventory(c.Request.Context(), within)
	if err != nil {
		response.RespondErr(c, err)
		return
	}
	response.RespondOK(c, gin.H{"items": items})
}

func queryInt(c *gin.Context, key string) int {
	v, err := strconv.Atoi(c.Query(key))
	if err != nil || v < 0 {
		return 0
	}
	return v
}
