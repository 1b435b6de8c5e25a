package dto

import (
	"time"

	"mise/internal/core/apperror"
	"mise/internal/core/id"
	"mise/internal/core/types"
	"mise/internal/domain/ledger"
)

// ReceiveBatchRequest is the request body for recording a receipt.
type ReceiveBatchRequest struct {
	IngredientID string    `json:"ingredientId" binding:"required"`
	Quantity     string    `json:"quantity" binding:"required"`
	UnitCost     int64     `json:"unitCost"`
	ReceivedAt   time.Time `json:"receivedAt"`
	ExpiresAt    time.Time `json:"expiresAt" binding:"required"`
	SupplierRef  *string   `json:"supplierRef"`
}

// ToRequest converts the DTO to a domain request.
func (r *ReceiveBatchRequest) ToRequest(tenantID id.ID) (ledger.ReceiveRequest, error) {
	ingredientID, err := id.Parse(r.IngredientID)
	if err != nil {
		return ledger.ReceiveRequest{}, apperror.NewValidation("invalid ingredientId format")
	}
	qty, err := types.ParseQuantity(r.Quantity)
	if err != nil {
		return ledger.ReceiveRequest{}, apperror.NewInvalidQuantity("quantity", r.Quantity)
	}
	return ledger.ReceiveRequest{
		TenantID:     tenantID,
		IngredientID: ingredientID,
		Quantity:     qty,
		UnitCost:     types.MinorUnits(r.UnitCost),
		ReceivedAt:   r.ReceivedAt,
		ExpiresAt:    r.ExpiresAt,
		SupplierRef:  r.SupplierRef,
	}, nil
}

// ConsumeStockRequest is the request body for manual consumption.
type ConsumeStockRequest struct {
	IngredientID string `json:"ingredientId" binding:"required"`
	Quantity     string `json:"quantity" binding:"required"`
	// Type is "out_sale" (default) or "out_expire".
	Type string `json:"type"`
}

// AdjustBatchRequest is the request body for a batch correction.
type AdjustBatchRequest struct {
	// Delta is signed: positive restores stock, negative removes it.
	Delta  string `json:"delta" binding:"required"`
	Reason string `json:"reason" binding:"required"`
}
