package entity

import (
	"time"

	"mise/internal/core/apperror"
	"mise/internal/core/id"
	"mise/internal/core/types"
)

// MovementType is a closed set of ledger movement kinds. Adding a new
// kind must update every exhaustive switch over this type.
type MovementType string

const (
	// MovementIn records a batch receipt.
	MovementIn MovementType = "in"
	// MovementOutSale records consumption against a sale.
	MovementOutSale MovementType = "out_sale"
	// MovementOutExpire records a write-off of expired stock.
	MovementOutExpire MovementType = "out_expire"
	// MovementAdjustment records a manual correction, either direction.
	MovementAdjustment MovementType = "adjustment"
)

// IsValid reports whether t is a known movement type.
func (t MovementType) IsValid() bool {
	switch t {
	case MovementIn, MovementOutSale, MovementOutExpire, MovementAdjustment:
		return true
	}
	return false
}

// IsOutbound reports whether the type removes stock.
func (t MovementType) IsOutbound() bool {
	return t == MovementOutSale || t == MovementOutExpire
}

// InventoryMovement is one append-only audit entry per quantity change.
// Quantity is the signed delta applied to the batch: positive for In
// and restoring Adjustments, negative for OutSale/OutExpire and
// draining Adjustments. Movements are immutable once written.
type InventoryMovement struct {
	ID            id.ID            `db:"id" json:"id"`
	TenantID      id.ID            `db:"tenant_id" json:"tenantId"`
	BatchID       id.ID            `db:"batch_id" json:"batchId"`
	IngredientID  id.ID            `db:"ingredient_id" json:"ingredientId"`
	Type          MovementType     `db:"type" json:"type"`
	Quantity      types.Quantity   `db:"quantity" json:"quantity"`
	UnitCost      types.MinorUnits `db:"unit_cost" json:"unitCost"`
	TotalCost     types.MinorUnits `db:"total_cost" json:"totalCost"`
	ReferenceType *string          `db:"reference_type" json:"referenceType,omitempty"`
	ReferenceID   *id.ID           `db:"reference_id" json:"referenceId,omitempty"`
	Reason        *string          `db:"reason" json:"reason,omitempty"`
	CreatedAt     time.Time        `db:"created_at" json:"createdAt"`
}

// MovementReference ties a movement to the operation that caused it
// (e.g. a sale id).
type MovementReference struct {
	Type string
	ID   id.ID
}

// NewInventoryMovement creates a movement with the cost it carried at
// the time of the change. TotalCost is the rounded cents for this
// single delta; cost aggregation across draws stays decimal upstream.
func NewInventoryMovement(
	tenantID, batchID, ingredientID id.ID,
	movType MovementType,
	quantity types.Quantity,
	unitCost types.MinorUnits,
	ref *MovementReference,
	reason *string,
) InventoryMovement {
	m := InventoryMovement{
		ID:           id.New(),
		TenantID:     tenantID,
		BatchID:      batchID,
		IngredientID: ingredientID,
		Type:         movType,
		Quantity:     quantity,
		UnitCost:     unitCost,
		TotalCost:    types.NewMinorUnitsFromDecimal(quantity.Abs().Decimal().Mul(unitCost.Decimal())),
		Reason:       reason,
		CreatedAt:    time.Now().UTC(),
	}
	if ref != nil {
		m.ReferenceType = &ref.Type
		m.ReferenceID = &ref.ID
	}
	return m
}

// Validate checks the sign discipline per movement type.
func (m *InventoryMovement) Validate() error {
	if !m.Type.IsValid() {
		return apperror.NewValidation("unknown movement type").
			WithDetail("field", "type").
			WithDetail("value", string(m.Type))
	}
	switch m.Type {
	case MovementIn:
		if !m.Quantity.IsPositive() {
			return apperror.NewInvalidQuantity("quantity", m.Quantity.String())
		}
	case MovementOutSale, MovementOutExpire:
		if !m.Quantity.IsNegative() {
			return apperror.NewValidation("outbound movement requires negative delta").
				WithDetail("field", "quantity").
				WithDetail("value", m.Quantity.String())
		}
	case MovementAdjustment:
		if m.Quantity.IsZero() {
			return apperror.NewInvalidQuantity("quantity", m.Quantity.String())
		}
		if m.Reason == nil || *m.Reason == "" {
			return apperror.NewValidation("adjustment requires a reason").
				WithDetail("field", "reason")
		}
	}
	return nil
}
