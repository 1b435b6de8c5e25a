// Package entity provides core domain entities.
package entity

import (
	"context"
	"fmt"
	"time"

	"mise/internal/core/apperror"
	"mise/internal/core/id"
	"mise/internal/core/types"
)

// BatchStatus is the lifecycle state of an inventory batch.
type BatchStatus string

const (
	// BatchActive holds stock available for consumption.
	BatchActive BatchStatus = "active"
	// BatchExhausted has zero remaining quantity. Kept for audit and
	// historical costing, never deleted.
	BatchExhausted BatchStatus = "exhausted"
	// BatchArchived was retired by explicit administrative action
	// (e.g. past-expiry cleanup). Never set silently.
	BatchArchived BatchStatus = "archived"
)

// ExpiryStatus classifies a batch against "today".
type ExpiryStatus string

const (
	ExpiryExpired      ExpiryStatus = "expired"
	ExpiryExpiresToday ExpiryStatus = "expires_today"
	ExpiryExpiringSoon ExpiryStatus = "expiring_soon"
	ExpiryFresh        ExpiryStatus = "fresh"
)

// expiringSoonWindow is the lookahead for the ExpiringSoon class.
const expiringSoonWindow = 2 * 24 * time.Hour

// InventoryBatch is one physical receipt of an ingredient for a tenant.
// Unit cost is fixed at receipt time; remaining quantity only ever
// decreases through consumption or negative adjustments.
type InventoryBatch struct {
	ID           id.ID            `db:"id" json:"id"`
	TenantID     id.ID            `db:"tenant_id" json:"tenantId"`
	IngredientID id.ID            `db:"ingredient_id" json:"ingredientId"`
	LotCode      string           `db:"lot_code" json:"lotCode"`
	UnitCost     types.MinorUnits `db:"unit_cost" json:"unitCost"`
	InitialQty   types.Quantity   `db:"initial_qty" json:"initialQty"`
	RemainingQty types.Quantity   `db:"remaining_qty" json:"remainingQty"`
	ReceivedAt   time.Time        `db:"received_at" json:"receivedAt"`
	ExpiresAt    time.Time        `db:"expires_at" json:"expiresAt"`
	SupplierRef  *string          `db:"supplier_ref" json:"supplierRef,omitempty"`
	Status       BatchStatus      `db:"status" json:"status"`
	CreatedAt    time.Time        `db:"created_at" json:"createdAt"`
	UpdatedAt    time.Time        `db:"updated_at" json:"updatedAt"`
}

// NewInventoryBatch creates an Active batch for a receipt.
func NewInventoryBatch(
	tenantID, ingredientID id.ID,
	quantity types.Quantity,
	unitCost types.MinorUnits,
	receivedAt, expiresAt time.Time,
) *InventoryBatch {
	now := time.Now().UTC()
	return &InventoryBatch{
		ID:           id.New(),
		TenantID:     tenantID,
		IngredientID: ingredientID,
		UnitCost:     unitCost,
		InitialQty:   quantity,
		RemainingQty: quantity,
		ReceivedAt:   receivedAt,
		ExpiresAt:    expiresAt,
		Status:       BatchActive,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
}

// Validate implements Validatable.
func (b *InventoryBatch) Validate(ctx context.Context) error {
	if id.IsNil(b.TenantID) {
		return apperror.NewValidation("tenant is required").
			WithDetail("field", "tenantId")
	}
	if id.IsNil(b.IngredientID) {
		return apperror.NewValidation("ingredient is required").
			WithDetail("field", "ingredientId")
	}
	if !b.InitialQty.IsPositive() {
		return apperror.NewInvalidQuantity("initialQty", b.InitialQty.String())
	}
	if b.UnitCost.IsNegative() {
		return apperror.NewInvalidPrice("unitCost", int64(b.UnitCost))
	}
	if b.ExpiresAt.IsZero() {
		return apperror.NewValidation("expiry date is required").
			WithDetail("field", "expiresAt")
	}
	if b.RemainingQty.IsNegative() || b.RemainingQty > b.InitialQty {
		return apperror.NewValidation("remaining quantity out of range").
			WithDetail("field", "remainingQty").
			WithDetail("value", b.RemainingQty.String())
	}
	return nil
}

// Draw removes quantity from the batch. The batch transitions to
// Exhausted when remaining quantity reaches zero. Overdraw is a
// programming error upstream (FIFO planning caps draws) and is
// rejected, never clamped.
func (b *InventoryBatch) Draw(quantity types.Quantity) error {
	if !quantity.IsPositive() {
		return apperror.NewInvalidQuantity("quantity", quantity.String())
	}
	if b.Status != BatchActive {
		return apperror.NewBusinessRule(apperror.CodeBusinessRule,
			fmt.Sprintf("cannot draw from %s batch", b.Status)).
			WithDetail("batch_id", b.ID.String())
	}
	if quantity > b.RemainingQty {
		return apperror.NewBusinessRule(apperror.CodeBusinessRule, "draw exceeds remaining quantity").
			WithDetail("batch_id", b.ID.String()).
			WithDetail("remaining", b.RemainingQty.String()).
			WithDetail("requested", quantity.String())
	}
	b.RemainingQty -= quantity
	if b.RemainingQty.IsZero() {
		b.Status = BatchExhausted
	}
	b.UpdatedAt = time.Now().UTC()
	return nil
}

// Restore puts quantity back (positive adjustment). Remaining quantity
// may never exceed the initial receipt.
func (b *InventoryBatch) Restore(quantity types.Quantity) error {
	if !quantity.IsPositive() {
		return apperror.NewInvalidQuantity("quantity", quantity.String())
	}
	if b.Status == BatchArchived {
		return apperror.NewBusinessRule(apperror.CodeBusinessRule, "cannot adjust archived batch").
			WithDetail("batch_id", b.ID.String())
	}
	if b.RemainingQty+quantity > b.InitialQty {
		return apperror.NewBusinessRule(apperror.CodeBusinessRule, "adjustment exceeds initial quantity").
			WithDetail("batch_id", b.ID.String()).
			WithDetail("initial", b.InitialQty.String())
	}
	b.RemainingQty += quantity
	if b.Status == BatchExhausted && b.RemainingQty.IsPositive() {
		b.Status = BatchActive
	}
	b.UpdatedAt = time.Now().UTC()
	return nil
}

// Archive retires the batch. Only Active or Exhausted batches can be
// archived, and only through an explicit administrative call.
func (b *InventoryBatch) Archive() error {
	if b.Status == BatchArchived {
		return apperror.NewConflict("batch already archived").
			WithDetail("batch_id", b.ID.String())
	}
	b.Status = BatchArchived
	b.UpdatedAt = time.Now().UTC()
	return nil
}

// ExpiryStatusAt classifies the batch expiry against the given "today".
// Pure function: comparison is by calendar date, not instant.
func (b *InventoryBatch) ExpiryStatusAt(today time.Time) ExpiryStatus {
	expiry := dateOf(b.ExpiresAt)
	now := dateOf(today)

	switch {
	case expiry.Before(now):
		return ExpiryExpired
	case expiry.Equal(now):
		return ExpiryExpiresToday
	case !expiry.After(now.Add(expiringSoonWindow)):
		return ExpiryExpiringSoon
	default:
		return ExpiryFresh
	}
}

func dateOf(t time.Time) time.Time {
	y, m, d := t.UTC().Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}
