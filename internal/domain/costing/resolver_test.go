package costing

import (
	"context"
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"mise/internal/core/apperror"
	"mise/internal/core/entity"
	"mise/internal/core/id"
	"mise/internal/core/types"
)

type staticBatches struct {
	batches []*entity.InventoryBatch
}

func (s *staticBatches) ActiveBatchesFIFO(ctx context.Context, tenantID, ingredientID id.ID) ([]*entity.InventoryBatch, error) {
	return s.batches, nil
}

func stockBatch(t *testing.T, remaining string, unitCost int64, receivedAt time.Time) *entity.InventoryBatch {
	t.Helper()
	return entity.NewInventoryBatch(
		id.New(), id.New(),
		parseQty(t, remaining),
		types.MinorUnits(unitCost),
		receivedAt,
		receivedAt.Add(7*24*time.Hour),
	)
}

func TestResolver_ResolveCost_FIFO(t *testing.T) {
	base := time.Date(2026, 3, 1, 8, 0, 0, 0, time.UTC)
	source := &staticBatches{batches: []*entity.InventoryBatch{
		stockBatch(t, "10", 200, base),
		stockBatch(t, "5", 250, base.Add(time.Hour)),
	}}
	resolver := NewResolver(source)

	cost, err := resolver.ResolveCost(context.Background(), id.New(), id.New(), parseQty(t, "12"))
	if err != nil {
		t.Fatalf("resolve: %v", err)
	}

	// 10 x 200 + 2 x 250 = 2500
	if !cost.Equal(decimal.NewFromInt(2500)) {
		t.Errorf("cost: want 2500, got %s", cost)
	}
}

func TestResolver_ResolveCost_ShortfallAtNewestPrice(t *testing.T) {
	base := time.Date(2026, 3, 1, 8, 0, 0, 0, time.UTC)
	source := &staticBatches{batches: []*entity.InventoryBatch{
		stockBatch(t, "4", 100, base),
		stockBatch(t, "2", 180, base.Add(time.Hour)),
	}}
	resolver := NewResolver(source)

	cost, err := resolver.ResolveCost(context.Background(), id.New(), id.New(), parseQty(t, "10"))
	if err != nil {
		t.Fatalf("resolve: %v", err)
	}

	// 4 x 100 + 2 x 180 in stock, 4 short priced at the newest 180:
	// 400 + 360 + 720 = 1480
	if !cost.Equal(decimal.NewFromInt(1480)) {
		t.Errorf("cost: want 1480, got %s", cost)
	}
}

func TestResolver_ResolveCost_NoStock(t *testing.T) {
	resolver := NewResolver(&staticBatches{})

	_, err := resolver.ResolveCost(context.Background(), id.New(), id.New(), parseQty(t, "1"))
	if !apperror.IsNoStockAvailable(err) {
		t.Fatalf("expected NO_STOCK_AVAILABLE, got %v", err)
	}
}

func TestResolver_ResolveCost_RejectsNonPositiveQuantity(t *testing.T) {
	resolver := NewResolver(&staticBatches{})

	_, err := resolver.ResolveCost(context.Background(), id.New(), id.New(), parseQty(t, "0"))
	if err == nil {
		t.Fatal("expected zero quantity to be rejected")
	}
}
