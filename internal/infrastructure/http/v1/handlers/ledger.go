package handlers

import (
	"time"

	"github.com/gin-gonic/gin"

	"mise/internal/core/apperror"
	"mise/internal/core/entity"
	"mise/internal/core/id"
	"mise/internal/core/types"
	"mise/internal/domain/ledger"
	"mise/internal/infrastructure/http/v1/dto"
)

// LedgerHandler handles HTTP requests for the batch ledger.
type LedgerHandler struct {
	*BaseHandler
	service *ledger.Service
}

// NewLedgerHandler creates a new ledger handler.
func NewLedgerHandler(base *BaseHandler, service *ledger.Service) *LedgerHandler {
	return &LedgerHandler{BaseHandler: base, service: service}
}

// Receive handles POST /ledger/batches
func (h *LedgerHandler) Receive(c *gin.Context) {
	var req dto.ReceiveBatchRequest
	if !h.BindJSON(c, &req) {
		return
	}

	domainReq, err := req.ToRequest(h.TenantID(c))
	if err != nil {
		h.Error(c, err)
		return
	}

	batch, err := h.service.Receive(c.Request.Context(), domainReq)
	if err != nil {
		h.Error(c, err)
		return
	}
	h.Created(c, batch)
}

// Consume handles POST /ledger/consume
func (h *LedgerHandler) Consume(c *gin.Context) {
	var req dto.ConsumeStockRequest
	if !h.BindJSON(c, &req) {
		return
	}

	ingredientID, err := id.Parse(req.IngredientID)
	if err != nil {
		h.Error(c, apperror.NewValidation("invalid ingredientId format"))
		return
	}
	qty, err := types.ParseQuantity(req.Quantity)
	if err != nil {
		h.Error(c, apperror.NewInvalidQuantity("quantity", req.Quantity))
		return
	}

	result, err := h.service.Consume(c.Request.Context(), ledger.ConsumeRequest{
		TenantID:     h.TenantID(c),
		IngredientID: ingredientID,
		Quantity:     qty,
		Type:         entity.MovementType(req.Type),
	})
	if err != nil {
		h.Error(c, err)
		return
	}
	h.OK(c, result)
}

// GetBatch handles GET /ledger/batches/:id
func (h *LedgerHandler) GetBatch(c *gin.Context) {
	batchID, ok := h.ParseIDParam(c, "id")
	if !ok {
		return
	}

	batch, err := h.service.GetBatch(c.Request.Context(), h.TenantID(c), batchID)
	if err != nil {
		h.Error(c, err)
		return
	}
	h.OK(c, batch)
}

// ListBatches handles GET /ledger/batches
func (h *LedgerHandler) ListBatches(c *gin.Context) {
	filter := ledger.BatchFilter{
		Limit:  h.ParseIntQuery(c, "limit", 50),
		Offset: h.ParseIntQuery(c, "offset", 0),
	}

	if s := c.Query("ingredientId"); s != "" {
		parsed, err := id.Parse(s)
		if err != nil {
			h.Error(c, apperror.NewValidation("invalid ingredientId format"))
			return
		}
		filter.IngredientID = &parsed
	}
	if s := c.Query("status"); s != "" {
		status := entity.BatchStatus(s)
		filter.Status = &status
	}
	if s := c.Query("expiresUntil"); s != "" {
		parsed, err := time.Parse(time.RFC3339, s)
		if err != nil {
			h.Error(c, apperror.NewValidation("invalid expiresUntil format"))
			return
		}
		filter.ExpiresUntil = &parsed
	}

	batches, err := h.service.ListBatches(c.Request.Context(), h.TenantID(c), filter)
	if err != nil {
		h.Error(c, err)
		return
	}
	h.OK(c, dto.NewListResponse(batches))
}

// Adjust handles POST /ledger/batches/:id/adjust
func (h *LedgerHandler) Adjust(c *gin.Context) {
	batchID, ok := h.ParseIDParam(c, "id")
	if !ok {
		return
	}

	var req dto.AdjustBatchRequest
	if !h.BindJSON(c, &req) {
		return
	}

	delta, err := types.ParseQuantity(req.Delta)
	if err != nil {
		h.Error(c, apperror.NewInvalidQuantity("delta", req.Delta))
		return
	}

	batch, err := h.service.Adjust(c.Request.Context(), ledger.AdjustRequest{
		TenantID: h.TenantID(c),
		BatchID:  batchID,
		Delta:    delta,
		Reason:   req.Reason,
	})
	if err != nil {
		h.Error(c, err)
		return
	}
	h.OK(c, batch)
}

// Archive handles POST /ledger/batches/:id/archive
func (h *LedgerHandler) Archive(c *gin.Context) {
	batchID, ok := h.ParseIDParam(c, "id")
	if !ok {
		return
	}

	batch, err := h.service.Archive(c.Request.Context(), h.TenantID(c), batchID)
	if err != nil {
		h.Error(c, err)
		return
	}
	h.OK(c, batch)
}

// WriteOffExpired handles POST /ledger/write-off-expired
func (h *LedgerHandler) WriteOffExpired(c *gin.Context) {
	result, err := h.service.WriteOffExpired(c.Request.Context(), h.TenantID(c))
	if err != nil {
		h.Error(c, err)
		return
	}
	h.OK(c, result)
}

// ExpiryOverview handles GET /ledger/expiry
func (h *LedgerHandler) ExpiryOverview(c *gin.Context) {
	overview, err := h.service.ExpiryOverview(c.Request.Context(), h.TenantID(c))
	if err != nil {
		h.Error(c, err)
		return
	}
	h.OK(c, dto.NewListResponse(overview))
}

// Movements handles GET /ledger/movements?ingredientId=...
func (h *LedgerHandler) Movements(c *gin.Context) {
	ingredientIDStr := c.Query("ingredientId")
	if ingredientIDStr == "" {
		h.Error(c, apperror.NewValidation("ingredientId is required"))
		return
	}
	ingredientID, err := id.Parse(ingredientIDStr)
	if err != nil {
		h.Error(c, apperror.NewValidation("invalid ingredientId format"))
		return
	}

	filter := ledger.MovementFilter{
		Limit:  h.ParseIntQuery(c, "limit", 100),
		Offset: h.ParseIntQuery(c, "offset", 0),
	}
	if s := c.Query("type"); s != "" {
		movType := entity.MovementType(s)
		filter.Type = &movType
	}
	if s := c.Query("fromDate"); s != "" {
		if parsed, err := time.Parse(time.RFC3339, s); err == nil {
			filter.FromDate = &parsed
		}
	}
	if s := c.Query("toDate"); s != "" {
		if parsed, err := time.Parse(time.RFC3339, s); err == nil {
			filter.ToDate = &parsed
		}
	}

	movements, err := h.service.MovementHistory(c.Request.Context(), h.TenantID(c), ingredientID, filter)
	if err != nil {
		h.Error(c, err)
		return
	}
	h.OK(c, dto.NewListResponse(movements))
}

// BatchMovements handles GET /ledger/batches/:id/movements
func (h *LedgerHandler) BatchMovements(c *gin.Context) {
	batchID, ok := h.ParseIDParam(c, "id")
	if !ok {
		return
	}

	movements, err := h.service.BatchMovements(c.Request.Context(), h.TenantID(c), batchID)
	if err != nil {
		h.Error(c, err)
		return
	}
	h.OK(c, dto.NewListResponse(movements))
}
