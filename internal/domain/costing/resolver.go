// Package costing computes what a recipe costs to produce right now,
// priced off the live FIFO batch ledger.
package costing

import (
	"context"

	"github.com/shopspring/decimal"

	"mise/internal/core/apperror"
	"mise/internal/core/entity"
	"mise/internal/core/id"
	"mise/internal/core/types"
)

// BatchSource is the read-only slice of the ledger the resolver needs.
// Implementations return Active batches ordered received_at ascending
// and take no locks.
type BatchSource interface {
	ActiveBatchesFIFO(ctx context.Context, tenantID, ingredientID id.ID) ([]*entity.InventoryBatch, error)
}

// Resolver prices an ingredient quantity by simulating the FIFO draw a
// real consumption would perform. Nothing is mutated; the result is a
// snapshot that a concurrent sale can invalidate.
type Resolver struct {
	batches BatchSource
}

// NewResolver creates a resolver over the given batch source.
func NewResolver(batches BatchSource) *Resolver {
	return &Resolver{batches: batches}
}

// ResolveCost returns the exact decimal cost of drawing quantity of
// the ingredient from current stock, oldest batches first.
//
// With no active stock at all the ingredient is unpriceable and
// NO_STOCK_AVAILABLE is returned. When stock covers only part of the
// quantity, the shortfall is priced at the newest batch's unit cost:
// costing is an estimate for menus and margins, not a reservation, so
// a thin ledger should degrade to a best guess rather than an error.
func (r *Resolver) ResolveCost(ctx context.Context, tenantID, ingredientID id.ID, quantity types.Quantity) (decimal.Decimal, error) {
	if !quantity.IsPositive() {
		return decimal.Zero, apperror.NewInvalidQuantity("quantity", quantity.String())
	}

	batches, err := r.batches.ActiveBatchesFIFO(ctx, tenantID, ingredientID)
	if err != nil {
		return decimal.Zero, err
	}

	cost := decimal.Zero
	remaining := quantity
	var lastUnitCost types.MinorUnits
	priced := false

	for _, b := range batches {
		if b.Status != entity.BatchActive || !b.RemainingQty.IsPositive() {
			continue
		}
		priced = true
		lastUnitCost = b.UnitCost
		if remaining.IsZero() {
			continue
		}
		draw := remaining.Min(b.RemainingQty)
		cost = cost.Add(draw.Decimal().Mul(b.UnitCost.Decimal()))
		remaining -= draw
	}

	if !priced {
		return decimal.Zero, apperror.NewNoStockAvailable(ingredientID.String())
	}
	if !remaining.IsZero() {
		cost = cost.Add(remaining.Decimal().Mul(lastUnitCost.Decimal()))
	}
	return cost, nil
}
