package handlers

import (
	"github.com/gin-gonic/gin"

	"mise/internal/domain/catalogs/ingredient"
	"mise/internal/infrastructure/http/v1/dto"
)

// IngredientHandler handles HTTP requests for the ingredient catalog.
type IngredientHandler struct {
	*BaseHandler
	service *ingredient.Service
}

// NewIngredientHandler creates a new ingredient handler.
func NewIngredientHandler(base *BaseHandler, service *ingredient.Service) *IngredientHandler {
	return &IngredientHandler{BaseHandler: base, service: service}
}

// Create handles POST /ingredients
func (h *IngredientHandler) Create(c *gin.Context) {
	var req dto.CreateIngredientRequest
	if !h.BindJSON(c, &req) {
		return
	}

	ing := req.ToEntity(h.TenantID(c))
	if err := h.service.Create(c.Request.Context(), ing); err != nil {
		h.Error(c, err)
		return
	}
	h.Created(c, ing)
}

// Get handles GET /ingredients/:id
func (h *IngredientHandler) Get(c *gin.Context) {
	ingredientID, ok := h.ParseIDParam(c, "id")
	if !ok {
		return
	}

	ing, err := h.service.GetByID(c.Request.Context(), h.TenantID(c), ingredientID)
	if err != nil {
		h.Error(c, err)
		return
	}
	h.OK(c, ing)
}

// Update handles PUT /ingredients/:id
func (h *IngredientHandler) Update(c *gin.Context) {
	ingredientID, ok := h.ParseIDParam(c, "id")
	if !ok {
		return
	}

	var req dto.UpdateIngredientRequest
	if !h.BindJSON(c, &req) {
		return
	}

	ing, err := h.service.GetByID(c.Request.Context(), h.TenantID(c), ingredientID)
	if err != nil {
		h.Error(c, err)
		return
	}
	req.ApplyTo(ing)

	if err := h.service.Update(c.Request.Context(), ing); err != nil {
		h.Error(c, err)
		return
	}
	h.OK(c, ing)
}

// Delete handles DELETE /ingredients/:id
func (h *IngredientHandler) Delete(c *gin.Context) {
	ingredientID, ok := h.ParseIDParam(c, "id")
	if !ok {
		return
	}

	if err := h.service.Delete(c.Request.Context(), h.TenantID(c), ingredientID); err != nil {
		h.Error(c, err)
		return
	}
	c.Status(204)
}

// List handles GET /ingredients
func (h *IngredientHandler) List(c *gin.Context) {
	filter := ingredient.ListFilter{
		Search:         c.Query("search"),
		Category:       c.Query("category"),
		IncludeDeleted: c.Query("includeDeleted") == "true",
		Limit:          h.ParseIntQuery(c, "limit", 50),
		Offset:         h.ParseIntQuery(c, "offset", 0),
	}

	list, err := h.service.List(c.Request.Context(), h.TenantID(c), filter)
	if err != nil {
		h.Error(c, err)
		return
	}
	h.OK(c, dto.NewListResponse(list))
}
