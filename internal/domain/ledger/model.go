package ledger

import (
	"time"

	"mise/internal/core/entity"
	"mise/internal/core/id"
	"mise/internal/core/types"
)

// ReceiveRequest records one physical receipt of an ingredient.
type ReceiveRequest struct {
	TenantID     id.ID
	IngredientID id.ID
	Quantity     types.Quantity
	UnitCost     types.MinorUnits
	ReceivedAt   time.Time
	ExpiresAt    time.Time
	// SupplierRef is the supplier/invoice reference. When absent a lot
	// code is generated instead.
	SupplierRef *string
}

// ConsumeRequest removes stock for a sale or write-off.
type ConsumeRequest struct {
	TenantID     id.ID
	IngredientID id.ID
	Quantity     types.Quantity
	// Type must be an outbound movement type (OutSale or OutExpire).
	Type      entity.MovementType
	Reference *entity.MovementReference
}

// ConsumptionResult reports what a consumption actually drew.
type ConsumptionResult struct {
	IngredientID id.ID            `json:"ingredientId"`
	Requested    types.Quantity   `json:"requested"`
	Draws        []BatchDraw      `json:"draws"`
	TotalCost    types.MinorUnits `json:"totalCost"`
	// WeightedUnitCost is informational: total cost over quantity, full
	// precision.
	WeightedUnitCost types.Money `json:"weightedUnitCost"`
}

// AdjustRequest corrects a specific batch by a signed delta.
type AdjustRequest struct {
	TenantID id.ID
	BatchID  id.ID
	// Delta is positive to restore stock, negative to remove it.
	Delta  types.Quantity
	Reason string
}

// BatchExpiry pairs a batch with its expiry classification.
type BatchExpiry struct {
	Batch  *entity.InventoryBatch `json:"batch"`
	Status entity.ExpiryStatus    `json:"status"`
}

// WriteOffResult summarizes an expired-stock write-off run.
type WriteOffResult struct {
	BatchesWrittenOff int              `json:"batchesWrittenOff"`
	TotalQuantity     types.Quantity   `json:"totalQuantity"`
	TotalCost         types.MinorUnits `json:"totalCost"`
}
