package ledger

import (
	"sort"

	"github.com/shopspring/decimal"

	"mise/internal/core/entity"
	"mise/internal/core/id"
	"mise/internal/core/types"
)

// BatchDraw is one batch/quantity pair drawn by a consumption.
type BatchDraw struct {
	BatchID  id.ID            `json:"batchId"`
	LotCode  string           `json:"lotCode"`
	Quantity types.Quantity   `json:"quantity"`
	UnitCost types.MinorUnits `json:"unitCost"`
}

// fifoPlan is the outcome of walking the batch list for a requested
// quantity. TotalCost stays decimal so callers round exactly once.
type fifoPlan struct {
	Draws     []BatchDraw
	TotalCost decimal.Decimal
	Available types.Quantity
	Satisfied bool
}

// planFIFO walks Active batches oldest-received first, draining
// min(remaining_needed, batch.remaining) from each until the request is
// satisfied or stock runs out. Cost is weighted by draw: each batch
// contributes quantity_drawn × its own unit cost, so a consumption
// straddling batches bought at different prices charges the true mix,
// not a flat average.
//
// Pure function: batches are not mutated. Callers apply draws after
// checking Satisfied; an unsatisfiable request must be a no-op.
func planFIFO(batches []*entity.InventoryBatch, requested types.Quantity) fifoPlan {
	ordered := make([]*entity.InventoryBatch, 0, len(batches))
	for _, b := range batches {
		if b.Status == entity.BatchActive && b.RemainingQty.IsPositive() {
			ordered = append(ordered, b)
		}
	}
	sort.SliceStable(ordered, func(i, j int) bool {
		return ordered[i].ReceivedAt.Before(ordered[j].ReceivedAt)
	})

	plan := fifoPlan{TotalCost: decimal.Zero}
	remaining := requested

	for _, b := range ordered {
		plan.Available += b.RemainingQty
		if remaining.IsZero() {
			continue
		}

		draw := remaining.Min(b.RemainingQty)
		plan.Draws = append(plan.Draws, BatchDraw{
			BatchID:  b.ID,
			LotCode:  b.LotCode,
			Quantity: draw,
			UnitCost: b.UnitCost,
		})
		plan.TotalCost = plan.TotalCost.Add(draw.Decimal().Mul(b.UnitCost.Decimal()))
		remaining -= draw
	}

	plan.Satisfied = remaining.IsZero()
	return plan
}

// weightedUnitCost is total cost divided by quantity, as an exact
// decimal. Informational only; the charged amount is the total.
func weightedUnitCost(totalCost decimal.Decimal, quantity types.Quantity) decimal.Decimal {
	if quantity.IsZero() {
		return decimal.Zero
	}
	return totalCost.Div(quantity.Decimal())
}
