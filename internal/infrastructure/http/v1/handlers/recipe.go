package handlers

import (
	"github.com/gin-gonic/gin"

	"mise/internal/core/apperror"
	"mise/internal/domain/catalogs/recipe"
	"mise/internal/domain/costing"
	"mise/internal/infrastructure/http/v1/dto"
)

// RecipeHandler handles HTTP requests for recipes and their costing.
type RecipeHandler struct {
	*BaseHandler
	service *recipe.Service
	engine  *costing.Engine
}

// NewRecipeHandler creates a new recipe handler.
func NewRecipeHandler(base *BaseHandler, service *recipe.Service, engine *costing.Engine) *RecipeHandler {
	return &RecipeHandler{BaseHandler: base, service: service, engine: engine}
}

// Create handles POST /recipes
func (h *RecipeHandler) Create(c *gin.Context) {
	var req dto.CreateRecipeRequest
	if !h.BindJSON(c, &req) {
		return
	}

	rec, err := req.ToEntity(h.TenantID(c))
	if err != nil {
		h.Error(c, err)
		return
	}

	if err := h.service.Create(c.Request.Context(), rec); err != nil {
		h.Error(c, err)
		return
	}
	h.Created(c, rec)
}

// Get handles GET /recipes/:id
func (h *RecipeHandler) Get(c *gin.Context) {
	recipeID, ok := h.ParseIDParam(c, "id")
	if !ok {
		return
	}

	rec, err := h.service.GetByID(c.Request.Context(), h.TenantID(c), recipeID)
	if err != nil {
		h.Error(c, err)
		return
	}
	h.OK(c, rec)
}

// Update handles PUT /recipes/:id
func (h *RecipeHandler) Update(c *gin.Context) {
	recipeID, ok := h.ParseIDParam(c, "id")
	if !ok {
		return
	}

	var req dto.UpdateRecipeRequest
	if !h.BindJSON(c, &req) {
		return
	}

	rec, err := h.service.GetByID(c.Request.Context(), h.TenantID(c), recipeID)
	if err != nil {
		h.Error(c, err)
		return
	}
	if err := req.ApplyTo(rec); err != nil {
		h.Error(c, err)
		return
	}

	if err := h.service.Update(c.Request.Context(), rec); err != nil {
		h.Error(c, err)
		return
	}
	h.OK(c, rec)
}

// Delete handles DELETE /recipes/:id
func (h *RecipeHandler) Delete(c *gin.Context) {
	recipeID, ok := h.ParseIDParam(c, "id")
	if !ok {
		return
	}

	if err := h.service.Delete(c.Request.Context(), h.TenantID(c), recipeID); err != nil {
		h.Error(c, err)
		return
	}
	c.Status(204)
}

// List handles GET /recipes
func (h *RecipeHandler) List(c *gin.Context) {
	filter := recipe.ListFilter{
		Search:         c.Query("search"),
		IncludeDeleted: c.Query("includeDeleted") == "true",
		Limit:          h.ParseIntQuery(c, "limit", 50),
		Offset:         h.ParseIntQuery(c, "offset", 0),
	}
	if s := c.Query("type"); s != "" {
		recipeType := recipe.Type(s)
		filter.Type = &recipeType
	}

	list, err := h.service.List(c.Request.Context(), h.TenantID(c), filter)
	if err != nil {
		h.Error(c, err)
		return
	}
	h.OK(c, dto.NewListResponse(list))
}

// Cost handles GET /recipes/:id/cost
func (h *RecipeHandler) Cost(c *gin.Context) {
	recipeID, ok := h.ParseIDParam(c, "id")
	if !ok {
		return
	}

	cost, err := h.engine.CalculateCost(c.Request.Context(), h.TenantID(c), recipeID)
	if err != nil {
		// A recipe whose ingredients have no stock yet is not a client
		// error: the cost is simply unknown until goods are received.
		if apperror.IsNoStockAvailable(err) {
			h.OK(c, dto.NewRecipeCostUnknown(recipeID, err))
			return
		}
		h.Error(c, err)
		return
	}
	h.OK(c, dto.NewRecipeCostKnown(cost))
}

// CostBreakdown handles GET /recipes/:id/cost/breakdown
func (h *RecipeHandler) CostBreakdown(c *gin.Context) {
	recipeID, ok := h.ParseIDParam(c, "id")
	if !ok {
		return
	}

	breakdown, err := h.engine.CostBreakdown(c.Request.Context(), h.TenantID(c), recipeID)
	if err != nil {
		if apperror.IsNoStockAvailable(err) {
			h.OK(c, dto.NewRecipeCostUnknown(recipeID, err))
			return
		}
		h.Error(c, err)
		return
	}
	h.OK(c, breakdown)
}
