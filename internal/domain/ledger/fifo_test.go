package ledger

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"mise/internal/core/entity"
	"mise/internal/core/id"
	"mise/internal/core/types"
)

func mustQty(t *testing.T, s string) types.Quantity {
	t.Helper()
	q, err := types.ParseQuantity(s)
	if err != nil {
		t.Fatalf("parse quantity %q: %v", s, err)
	}
	return q
}

func testBatch(t *testing.T, lot string, receivedAt time.Time, remaining string, unitCost int64) *entity.InventoryBatch {
	t.Helper()
	qty := mustQty(t, remaining)
	b := entity.NewInventoryBatch(
		id.New(), id.New(),
		qty,
		types.MinorUnits(unitCost),
		receivedAt,
		receivedAt.Add(7*24*time.Hour),
	)
	b.LotCode = lot
	return b
}

func TestPlanFIFO_DrainsOldestFirst(t *testing.T) {
	base := time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)

	// Input deliberately out of receipt order.
	newer := testBatch(t, "LOT-2", base.Add(24*time.Hour), "5", 250)
	older := testBatch(t, "LOT-1", base, "10", 200)
	batches := []*entity.InventoryBatch{newer, older}

	plan := planFIFO(batches, mustQty(t, "12"))

	if !plan.Satisfied {
		t.Fatal("expected plan to be satisfied")
	}
	if len(plan.Draws) != 2 {
		t.Fatalf("expected 2 draws, got %d", len(plan.Draws))
	}
	if plan.Draws[0].LotCode != "LOT-1" {
		t.Errorf("first draw should hit the oldest batch, got %s", plan.Draws[0].LotCode)
	}
	if got := plan.Draws[0].Quantity.String(); got != "10.0000" {
		t.Errorf("first draw quantity: want 10.0000, got %s", got)
	}
	if got := plan.Draws[1].Quantity.String(); got != "2.0000" {
		t.Errorf("second draw quantity: want 2.0000, got %s", got)
	}

	// 10 x 200 + 2 x 250 = 2500
	if !plan.TotalCost.Equal(decimal.NewFromInt(2500)) {
		t.Errorf("total cost: want 2500, got %s", plan.TotalCost)
	}
	if got := plan.Available.String(); got != "15.0000" {
		t.Errorf("available: want 15.0000, got %s", got)
	}
}

func TestPlanFIFO_WeightedCostAcrossBatches(t *testing.T) {
	base := time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)
	batches := []*entity.InventoryBatch{
		testBatch(t, "LOT-1", base, "6", 100),
		testBatch(t, "LOT-2", base.Add(time.Hour), "4", 150),
	}

	plan := planFIFO(batches, mustQty(t, "10"))

	if !plan.Satisfied {
		t.Fatal("expected plan to be satisfied")
	}
	// 6 x 100 + 4 x 150 = 1200
	if !plan.TotalCost.Equal(decimal.NewFromInt(1200)) {
		t.Errorf("total cost: want 1200, got %s", plan.TotalCost)
	}

	unit := weightedUnitCost(plan.TotalCost, mustQty(t, "10"))
	if !unit.Equal(decimal.NewFromInt(120)) {
		t.Errorf("weighted unit cost: want 120, got %s", unit)
	}
}

func TestPlanFIFO_InsufficientStock(t *testing.T) {
	base := time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)
	batches := []*entity.InventoryBatch{
		testBatch(t, "LOT-1", base, "3", 100),
	}

	plan := planFIFO(batches, mustQty(t, "5"))

	if plan.Satisfied {
		t.Fatal("expected plan to be unsatisfied")
	}
	if got := plan.Available.String(); got != "3.0000" {
		t.Errorf("available: want 3.0000, got %s", got)
	}
}

func TestPlanFIFO_SkipsNonActiveBatches(t *testing.T) {
	base := time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)

	exhausted := testBatch(t, "LOT-GONE", base, "4", 100)
	if err := exhausted.Draw(mustQty(t, "4")); err != nil {
		t.Fatalf("draw: %v", err)
	}
	archived := testBatch(t, "LOT-OLD", base, "4", 100)
	if err := archived.Archive(); err != nil {
		t.Fatalf("archive: %v", err)
	}
	active := testBatch(t, "LOT-OK", base.Add(time.Hour), "4", 200)

	plan := planFIFO([]*entity.InventoryBatch{exhausted, archived, active}, mustQty(t, "2"))

	if !plan.Satisfied {
		t.Fatal("expected plan to be satisfied")
	}
	if len(plan.Draws) != 1 || plan.Draws[0].LotCode != "LOT-OK" {
		t.Fatalf("expected a single draw from LOT-OK, got %+v", plan.Draws)
	}
	if got := plan.Available.String(); got != "4.0000" {
		t.Errorf("available should count only active stock: want 4.0000, got %s", got)
	}
}

func TestPlanFIFO_NoStock(t *testing.T) {
	plan := planFIFO(nil, mustQty(t, "1"))

	if plan.Satisfied {
		t.Fatal("expected plan to be unsatisfied")
	}
	if len(plan.Draws) != 0 {
		t.Errorf("expected no draws, got %d", len(plan.Draws))
	}
	if !plan.Available.IsZero() {
		t.Errorf("available: want 0, got %s", plan.Available)
	}
}

func TestPlanFIFO_FractionalQuantities(t *testing.T) {
	base := time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)
	batches := []*entity.InventoryBatch{
		testBatch(t, "LOT-1", base, "0.5", 333),
		testBatch(t, "LOT-2", base.Add(time.Hour), "1", 333),
	}

	plan := planFIFO(batches, mustQty(t, "0.75"))

	if !plan.Satisfied {
		t.Fatal("expected plan to be satisfied")
	}
	// 0.75 x 333 = 249.75, exact in decimal
	want := decimal.RequireFromString("249.75")
	if !plan.TotalCost.Equal(want) {
		t.Errorf("total cost: want %s, got %s", want, plan.TotalCost)
	}
}
