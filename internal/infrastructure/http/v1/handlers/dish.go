package handlers

import (
	"github.com/gin-gonic/gin"

	"mise/internal/domain/dish"
	"mise/internal/domain/sales"
	"mise/internal/infrastructure/http/v1/dto"
)

// DishHandler handles HTTP requests for dishes, their profitability
// and sales.
type DishHandler struct {
	*BaseHandler
	service *dish.Service
	sales   *sales.Service
}

// NewDishHandler creates a new dish handler.
func NewDishHandler(base *BaseHandler, service *dish.Service, salesService *sales.Service) *DishHandler {
	return &DishHandler{BaseHandler: base, service: service, sales: salesService}
}

// Create handles POST /dishes
func (h *DishHandler) Create(c *gin.Context) {
	var req dto.CreateDishRequest
	if !h.BindJSON(c, &req) {
		return
	}

	d, err := req.ToEntity(h.TenantID(c))
	if err != nil {
		h.Error(c, err)
		return
	}

	if err := h.service.Create(c.Request.Context(), d); err != nil {
		h.Error(c, err)
		return
	}
	h.Created(c, d)
}

// Get handles GET /dishes/:id
func (h *DishHandler) Get(c *gin.Context) {
	dishID, ok := h.ParseIDParam(c, "id")
	if !ok {
		return
	}

	d, err := h.service.GetByID(c.Request.Context(), h.TenantID(c), dishID)
	if err != nil {
		h.Error(c, err)
		return
	}
	h.OK(c, d)
}

// Update handles PUT /dishes/:id
func (h *DishHandler) Update(c *gin.Context) {
	dishID, ok := h.ParseIDParam(c, "id")
	if !ok {
		return
	}

	var req dto.UpdateDishRequest
	if !h.BindJSON(c, &req) {
		return
	}

	d, err := h.service.GetByID(c.Request.Context(), h.TenantID(c), dishID)
	if err != nil {
		h.Error(c, err)
		return
	}
	if err := req.ApplyTo(d); err != nil {
		h.Error(c, err)
		return
	}

	if err := h.service.Update(c.Request.Context(), d); err != nil {
		h.Error(c, err)
		return
	}
	h.OK(c, d)
}

// Delete handles DELETE /dishes/:id
func (h *DishHandler) Delete(c *gin.Context) {
	dishID, ok := h.ParseIDParam(c, "id")
	if !ok {
		return
	}

	if err := h.service.Delete(c.Request.Context(), h.TenantID(c), dishID); err != nil {
		h.Error(c, err)
		return
	}
	c.Status(204)
}

// List handles GET /dishes
func (h *DishHandler) List(c *gin.Context) {
	filter := dish.ListFilter{
		Search:         c.Query("search"),
		ActiveOnly:     c.Query("activeOnly") == "true",
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

// Analyze handles GET /dishes/:id/profitability
func (h *DishHandler) Analyze(c *gin.Context) {
	dishID, ok := h.ParseIDParam(c, "id")
	if !ok {
		return
	}

	financials, err := h.service.Analyze(c.Request.Context(), h.TenantID(c), dishID)
	if err != nil {
		h.Error(c, err)
		return
	}
	h.OK(c, financials)
}

// RecordSale handles POST /sales
func (h *DishHandler) RecordSale(c *gin.Context) {
	var req dto.RecordSaleRequest
	if !h.BindJSON(c, &req) {
		return
	}

	domainReq, err := req.ToRequest(h.TenantID(c))
	if err != nil {
		h.Error(c, err)
		return
	}

	result, err := h.sales.RecordSale(c.Request.Context(), domainReq)
	if err != nil {
		h.Error(c, err)
		return
	}
	h.Created(c, result)
}
