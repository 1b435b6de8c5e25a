package ledger

import (
	"context"
	"sort"
	"testing"
	"time"

	"mise/internal/core/apperror"
	"mise/internal/core/clock"
	"mise/internal/core/entity"
	"mise/internal/core/id"
	"mise/internal/core/types"
	"mise/internal/domain/audit"
)

// passthroughTxm runs the callback directly. Transactional behavior is
// covered by the postgres implementation; domain tests assert on the
// calls the service makes.
type passthroughTxm struct{}

func (passthroughTxm) RunInTransaction(ctx context.Context, fn func(ctx context.Context) error) error {
	return fn(ctx)
}

type stubLots struct {
	next int
}

func (s *stubLots) NextLotCode(ctx context.Context) (string, error) {
	s.next++
	return "LOT-2026-0000" + string(rune('0'+s.next)), nil
}

// memRepo is an in-memory Repository. onLock, when set, runs once at
// the first locking read, standing in for a concurrent writer whose
// transaction committed while this one waited on the row lock.
type memRepo struct {
	batches   map[id.ID]*entity.InventoryBatch
	movements []entity.InventoryMovement
	onLock    func()
}

func (r *memRepo) lockAcquired() {
	if r.onLock != nil {
		fn := r.onLock
		r.onLock = nil
		fn()
	}
}

func newMemRepo() *memRepo {
	return &memRepo{batches: make(map[id.ID]*entity.InventoryBatch)}
}

func (r *memRepo) CreateBatch(ctx context.Context, batch *entity.InventoryBatch) error {
	r.batches[batch.ID] = batch
	return nil
}

func (r *memRepo) GetBatch(ctx context.Context, tenantID, batchID id.ID) (*entity.InventoryBatch, error) {
	b, ok := r.batches[batchID]
	if !ok || b.TenantID != tenantID {
		return nil, apperror.NewNotFound("batch", batchID)
	}
	return b, nil
}

func (r *memRepo) ActiveBatchesFIFO(ctx context.Context, tenantID, ingredientID id.ID) ([]*entity.InventoryBatch, error) {
	var out []*entity.InventoryBatch
	for _, b := range r.batches {
		if b.TenantID == tenantID && b.IngredientID == ingredientID &&
			b.Status == entity.BatchActive && b.RemainingQty.IsPositive() {
			out = append(out, b)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ReceivedAt.Before(out[j].ReceivedAt) })
	return out, nil
}

func (r *memRepo) ActiveBatchesFIFOForUpdate(ctx context.Context, tenantID, ingredientID id.ID) ([]*entity.InventoryBatch, error) {
	r.lockAcquired()
	return r.ActiveBatchesFIFO(ctx, tenantID, ingredientID)
}

func (r *memRepo) GetBatchForUpdate(ctx context.Context, tenantID, batchID id.ID) (*entity.InventoryBatch, error) {
	r.lockAcquired()
	return r.GetBatch(ctx, tenantID, batchID)
}

func (r *memRepo) ExpiredBatchesForUpdate(ctx context.Context, tenantID id.ID, before time.Time) ([]*entity.InventoryBatch, error) {
	r.lockAcquired()
	var out []*entity.InventoryBatch
	for _, b := range r.batches {
		if b.TenantID == tenantID && b.Status == entity.BatchActive &&
			b.RemainingQty.IsPositive() && b.ExpiresAt.Before(before) {
			out = append(out, b)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ReceivedAt.Before(out[j].ReceivedAt) })
	return out, nil
}

func (r *memRepo) UpdateBatchState(ctx context.Context, batch *entity.InventoryBatch) error {
	if _, ok := r.batches[batch.ID]; !ok {
		return apperror.NewNotFound("batch", batch.ID)
	}
	r.batches[batch.ID] = batch
	return nil
}

func (r *memRepo) ListBatches(ctx context.Context, tenantID id.ID, filter BatchFilter) ([]*entity.InventoryBatch, error) {
	var out []*entity.InventoryBatch
	for _, b := range r.batches {
		if b.TenantID != tenantID {
			continue
		}
		if filter.Status != nil && b.Status != *filter.Status {
			continue
		}
		if filter.IngredientID != nil && b.IngredientID != *filter.IngredientID {
			continue
		}
		out = append(out, b)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ReceivedAt.Before(out[j].ReceivedAt) })
	return out, nil
}

func (r *memRepo) CreateMovements(ctx context.Context, movements []entity.InventoryMovement) error {
	r.movements = append(r.movements, movements...)
	return nil
}

func (r *memRepo) MovementsByBatch(ctx context.Context, tenantID, batchID id.ID) ([]entity.InventoryMovement, error) {
	var out []entity.InventoryMovement
	for _, m := range r.movements {
		if m.TenantID == tenantID && m.BatchID == batchID {
			out = append(out, m)
		}
	}
	return out, nil
}

func (r *memRepo) MovementsByIngredient(ctx context.Context, tenantID, ingredientID id.ID, filter MovementFilter) ([]entity.InventoryMovement, error) {
	var out []entity.InventoryMovement
	for _, m := range r.movements {
		if m.TenantID == tenantID && m.IngredientID == ingredientID {
			out = append(out, m)
		}
	}
	return out, nil
}

func newTestService(repo *memRepo, now time.Time) *Service {
	return NewService(repo, passthroughTxm{}, audit.Noop{}, &stubLots{}, clock.At(now))
}

func TestService_Receive(t *testing.T) {
	now := time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)
	repo := newMemRepo()
	svc := newTestService(repo, now)
	tenantID, ingredientID := id.New(), id.New()

	batch, err := svc.Receive(context.Background(), ReceiveRequest{
		TenantID:     tenantID,
		IngredientID: ingredientID,
		Quantity:     mustQty(t, "10"),
		UnitCost:     200,
		ExpiresAt:    now.Add(7 * 24 * time.Hour),
	})
	if err != nil {
		t.Fatalf("receive: %v", err)
	}

	if batch.LotCode == "" {
		t.Error("expected a generated lot code")
	}
	if !batch.ReceivedAt.Equal(now) {
		t.Errorf("receivedAt should default to now: got %s", batch.ReceivedAt)
	}
	if batch.Status != entity.BatchActive {
		t.Errorf("new batch status: want active, got %s", batch.Status)
	}

	movements, _ := repo.MovementsByBatch(context.Background(), tenantID, batch.ID)
	if len(movements) != 1 {
		t.Fatalf("expected 1 receipt movement, got %d", len(movements))
	}
	if movements[0].Type != entity.MovementIn {
		t.Errorf("movement type: want in, got %s", movements[0].Type)
	}
	if !movements[0].Quantity.IsPositive() {
		t.Errorf("receipt movement delta must be positive, got %s", movements[0].Quantity)
	}
}

func TestService_Receive_SupplierRefBecomesLotCode(t *testing.T) {
	now := time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)
	svc := newTestService(newMemRepo(), now)
	ref := "INV-4711"

	batch, err := svc.Receive(context.Background(), ReceiveRequest{
		TenantID:     id.New(),
		IngredientID: id.New(),
		Quantity:     mustQty(t, "1"),
		UnitCost:     100,
		ExpiresAt:    now.Add(24 * time.Hour),
		SupplierRef:  &ref,
	})
	if err != nil {
		t.Fatalf("receive: %v", err)
	}
	if batch.LotCode != ref {
		t.Errorf("lot code: want %s, got %s", ref, batch.LotCode)
	}
}

func TestService_Receive_RejectsBadInput(t *testing.T) {
	now := time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)
	svc := newTestService(newMemRepo(), now)

	_, err := svc.Receive(context.Background(), ReceiveRequest{
		TenantID:     id.New(),
		IngredientID: id.New(),
		Quantity:     mustQty(t, "0"),
		UnitCost:     100,
		ExpiresAt:    now,
	})
	if err == nil {
		t.Error("expected zero quantity to be rejected")
	}

	_, err = svc.Receive(context.Background(), ReceiveRequest{
		TenantID:     id.New(),
		IngredientID: id.New(),
		Quantity:     mustQty(t, "1"),
		UnitCost:     -5,
		ExpiresAt:    now,
	})
	if err == nil {
		t.Error("expected negative unit cost to be rejected")
	}

	_, err = svc.Receive(context.Background(), ReceiveRequest{
		TenantID:     id.New(),
		IngredientID: id.New(),
		Quantity:     mustQty(t, "1"),
		UnitCost:     0,
		ExpiresAt:    now,
	})
	if appErr, ok := apperror.AsAppError(err); !ok || appErr.Code != apperror.CodeInvalidPrice {
		t.Errorf("expected zero unit cost to be rejected as INVALID_PRICE, got %v", err)
	}
}

func TestService_Consume_FIFOAcrossBatches(t *testing.T) {
	now := time.Date(2026, 3, 10, 12, 0, 0, 0, time.UTC)
	repo := newMemRepo()
	svc := newTestService(repo, now)
	tenantID, ingredientID := id.New(), id.New()

	receive := func(qty string, cost int64, receivedAt time.Time) *entity.InventoryBatch {
		t.Helper()
		b, err := svc.Receive(context.Background(), ReceiveRequest{
			TenantID:     tenantID,
			IngredientID: ingredientID,
			Quantity:     mustQty(t, qty),
			UnitCost:     types.MinorUnits(cost),
			ReceivedAt:   receivedAt,
			ExpiresAt:    receivedAt.Add(14 * 24 * time.Hour),
		})
		if err != nil {
			t.Fatalf("receive: %v", err)
		}
		return b
	}

	first := receive("10", 200, now.Add(-48*time.Hour))
	second := receive("5", 250, now.Add(-24*time.Hour))

	result, err := svc.Consume(context.Background(), ConsumeRequest{
		TenantID:     tenantID,
		IngredientID: ingredientID,
		Quantity:     mustQty(t, "12"),
		Type:         entity.MovementOutSale,
	})
	if err != nil {
		t.Fatalf("consume: %v", err)
	}

	// 10 x 200 + 2 x 250 = 2500 cents
	if result.TotalCost != 2500 {
		t.Errorf("total cost: want 2500, got %d", result.TotalCost)
	}
	if len(result.Draws) != 2 {
		t.Fatalf("expected 2 draws, got %d", len(result.Draws))
	}

	if first.Status != entity.BatchExhausted {
		t.Errorf("first batch: want exhausted, got %s", first.Status)
	}
	if got := second.RemainingQty.String(); got != "3.0000" {
		t.Errorf("second batch remaining: want 3.0000, got %s", got)
	}

	// One negative out_sale movement per drawn batch, plus the receipts.
	movements, _ := repo.MovementsByIngredient(context.Background(), tenantID, ingredientID, MovementFilter{})
	var outbound int
	for _, m := range movements {
		if m.Type != entity.MovementOutSale {
			continue
		}
		outbound++
		if !m.Quantity.IsNegative() {
			t.Errorf("outbound movement delta must be negative, got %s", m.Quantity)
		}
	}
	if outbound != 2 {
		t.Errorf("expected 2 outbound movements, got %d", outbound)
	}
}

func TestService_Consume_InsufficientStockIsNoOp(t *testing.T) {
	now := time.Date(2026, 3, 10, 12, 0, 0, 0, time.UTC)
	repo := newMemRepo()
	svc := newTestService(repo, now)
	tenantID, ingredientID := id.New(), id.New()

	batch, err := svc.Receive(context.Background(), ReceiveRequest{
		TenantID:     tenantID,
		IngredientID: ingredientID,
		Quantity:     mustQty(t, "3"),
		UnitCost:     100,
		ExpiresAt:    now.Add(24 * time.Hour),
	})
	if err != nil {
		t.Fatalf("receive: %v", err)
	}

	_, err = svc.Consume(context.Background(), ConsumeRequest{
		TenantID:     tenantID,
		IngredientID: ingredientID,
		Quantity:     mustQty(t, "5"),
	})
	if !apperror.IsInsufficientStock(err) {
		t.Fatalf("expected INSUFFICIENT_STOCK, got %v", err)
	}

	if got := batch.RemainingQty.String(); got != "3.0000" {
		t.Errorf("failed consume must not touch stock: remaining %s", got)
	}
	movements, _ := repo.MovementsByBatch(context.Background(), tenantID, batch.ID)
	if len(movements) != 1 {
		t.Errorf("expected only the receipt movement, got %d", len(movements))
	}
}

func TestService_Consume_EmptyLedger(t *testing.T) {
	now := time.Date(2026, 3, 10, 12, 0, 0, 0, time.UTC)
	svc := newTestService(newMemRepo(), now)

	_, err := svc.Consume(context.Background(), ConsumeRequest{
		TenantID:     id.New(),
		IngredientID: id.New(),
		Quantity:     mustQty(t, "1"),
	})
	// Zero stock is the degenerate shortfall, not a separate error:
	// callers branch on one code for every unsatisfiable consumption.
	if !apperror.IsInsufficientStock(err) {
		t.Fatalf("expected INSUFFICIENT_STOCK, got %v", err)
	}
	if apperror.IsNoStockAvailable(err) {
		t.Error("consumption must not report the costing-only NO_STOCK_AVAILABLE code")
	}
	appErr, _ := apperror.AsAppError(err)
	if got := appErr.Details["available"]; got != "0.0000" {
		t.Errorf("available detail: want 0.0000, got %v", got)
	}
}

func TestService_Consume_RejectsInboundType(t *testing.T) {
	now := time.Date(2026, 3, 10, 12, 0, 0, 0, time.UTC)
	svc := newTestService(newMemRepo(), now)

	_, err := svc.Consume(context.Background(), ConsumeRequest{
		TenantID:     id.New(),
		IngredientID: id.New(),
		Quantity:     mustQty(t, "1"),
		Type:         entity.MovementIn,
	})
	if err == nil {
		t.Fatal("expected inbound movement type to be rejected")
	}
}

func TestService_Adjust(t *testing.T) {
	now := time.Date(2026, 3, 10, 12, 0, 0, 0, time.UTC)
	repo := newMemRepo()
	svc := newTestService(repo, now)
	tenantID, ingredientID := id.New(), id.New()

	batch, err := svc.Receive(context.Background(), ReceiveRequest{
		TenantID:     tenantID,
		IngredientID: ingredientID,
		Quantity:     mustQty(t, "10"),
		UnitCost:     150,
		ExpiresAt:    now.Add(24 * time.Hour),
	})
	if err != nil {
		t.Fatalf("receive: %v", err)
	}

	adjusted, err := svc.Adjust(context.Background(), AdjustRequest{
		TenantID: tenantID,
		BatchID:  batch.ID,
		Delta:    mustQty(t, "-2.5"),
		Reason:   "spillage",
	})
	if err != nil {
		t.Fatalf("adjust: %v", err)
	}
	if got := adjusted.RemainingQty.String(); got != "7.5000" {
		t.Errorf("remaining after adjust: want 7.5000, got %s", got)
	}

	movements, _ := repo.MovementsByBatch(context.Background(), tenantID, batch.ID)
	last := movements[len(movements)-1]
	if last.Type != entity.MovementAdjustment {
		t.Errorf("movement type: want adjustment, got %s", last.Type)
	}
	if last.Reason == nil || *last.Reason != "spillage" {
		t.Error("adjustment movement must carry the reason")
	}
	if got := last.Quantity.String(); got != "-2.5000" {
		t.Errorf("adjustment delta: want -2.5000, got %s", got)
	}

	// Missing reason is rejected.
	_, err = svc.Adjust(context.Background(), AdjustRequest{
		TenantID: tenantID,
		BatchID:  batch.ID,
		Delta:    mustQty(t, "1"),
	})
	if err == nil {
		t.Error("expected adjustment without reason to be rejected")
	}
}

func TestService_WriteOffExpired(t *testing.T) {
	now := time.Date(2026, 3, 10, 12, 0, 0, 0, time.UTC)
	repo := newMemRepo()
	svc := newTestService(repo, now)
	tenantID, ingredientID := id.New(), id.New()

	receive := func(qty string, cost int64, expiresAt time.Time) *entity.InventoryBatch {
		t.Helper()
		b, err := svc.Receive(context.Background(), ReceiveRequest{
			TenantID:     tenantID,
			IngredientID: ingredientID,
			Quantity:     mustQty(t, qty),
			UnitCost:     types.MinorUnits(cost),
			ReceivedAt:   now.Add(-72 * time.Hour),
			ExpiresAt:    expiresAt,
		})
		if err != nil {
			t.Fatalf("receive: %v", err)
		}
		return b
	}

	expired := receive("4", 100, now.Add(-24*time.Hour))
	fresh := receive("6", 100, now.Add(96*time.Hour))

	result, err := svc.WriteOffExpired(context.Background(), tenantID)
	if err != nil {
		t.Fatalf("write off: %v", err)
	}

	if result.BatchesWrittenOff != 1 {
		t.Errorf("batches written off: want 1, got %d", result.BatchesWrittenOff)
	}
	if got := result.TotalQuantity.String(); got != "4.0000" {
		t.Errorf("quantity written off: want 4.0000, got %s", got)
	}
	if result.TotalCost != 400 {
		t.Errorf("cost written off: want 400, got %d", result.TotalCost)
	}

	if expired.Status != entity.BatchExhausted {
		t.Errorf("expired batch: want exhausted, got %s", expired.Status)
	}
	if fresh.Status != entity.BatchActive {
		t.Errorf("fresh batch must stay active, got %s", fresh.Status)
	}

	movements, _ := repo.MovementsByBatch(context.Background(), tenantID, expired.ID)
	last := movements[len(movements)-1]
	if last.Type != entity.MovementOutExpire {
		t.Errorf("movement type: want out_expire, got %s", last.Type)
	}
}

// sumOutbound totals the absolute outbound movement quantities of a
// batch. Conservation requires initial = remaining + this sum.
func sumOutbound(t *testing.T, repo *memRepo, tenantID, batchID id.ID) types.Quantity {
	t.Helper()
	movements, _ := repo.MovementsByBatch(context.Background(), tenantID, batchID)
	var out types.Quantity
	for _, m := range movements {
		if m.Quantity.IsNegative() {
			out += m.Quantity.Abs()
		}
	}
	return out
}

func TestService_WriteOffExpired_SerializesWithConsume(t *testing.T) {
	now := time.Date(2026, 3, 10, 12, 0, 0, 0, time.UTC)
	repo := newMemRepo()
	svc := newTestService(repo, now)
	tenantID, ingredientID := id.New(), id.New()

	batch, err := svc.Receive(context.Background(), ReceiveRequest{
		TenantID:     tenantID,
		IngredientID: ingredientID,
		Quantity:     mustQty(t, "10"),
		UnitCost:     100,
		ReceivedAt:   now.Add(-72 * time.Hour),
		ExpiresAt:    now.Add(-24 * time.Hour),
	})
	if err != nil {
		t.Fatalf("receive: %v", err)
	}

	// A consumer drains 4 units and commits before the write-off gets
	// its row locks. The write-off must see that state, not a stale one.
	repo.onLock = func() {
		if err := batch.Draw(mustQty(t, "4")); err != nil {
			t.Fatalf("concurrent draw: %v", err)
		}
		repo.movements = append(repo.movements, entity.NewInventoryMovement(
			tenantID, batch.ID, ingredientID,
			entity.MovementOutSale, mustQty(t, "4").Neg(), 100,
			nil, nil,
		))
	}

	result, err := svc.WriteOffExpired(context.Background(), tenantID)
	if err != nil {
		t.Fatalf("write off: %v", err)
	}

	if got := result.TotalQuantity.String(); got != "6.0000" {
		t.Errorf("write-off quantity: want the post-consume 6.0000, got %s", got)
	}
	if !batch.RemainingQty.IsZero() {
		t.Errorf("remaining after write-off: want 0, got %s", batch.RemainingQty)
	}
	if out := sumOutbound(t, repo, tenantID, batch.ID); out != batch.InitialQty {
		t.Errorf("conservation broken: initial %s != remaining 0 + outbound %s",
			batch.InitialQty, out)
	}
}

func TestService_Adjust_SerializesWithConsume(t *testing.T) {
	now := time.Date(2026, 3, 10, 12, 0, 0, 0, time.UTC)
	repo := newMemRepo()
	svc := newTestService(repo, now)
	tenantID, ingredientID := id.New(), id.New()

	batch, err := svc.Receive(context.Background(), ReceiveRequest{
		TenantID:     tenantID,
		IngredientID: ingredientID,
		Quantity:     mustQty(t, "10"),
		UnitCost:     100,
		ExpiresAt:    now.Add(7 * 24 * time.Hour),
	})
	if err != nil {
		t.Fatalf("receive: %v", err)
	}

	repo.onLock = func() {
		if err := batch.Draw(mustQty(t, "4")); err != nil {
			t.Fatalf("concurrent draw: %v", err)
		}
		repo.movements = append(repo.movements, entity.NewInventoryMovement(
			tenantID, batch.ID, ingredientID,
			entity.MovementOutSale, mustQty(t, "4").Neg(), 100,
			nil, nil,
		))
	}

	adjusted, err := svc.Adjust(context.Background(), AdjustRequest{
		TenantID: tenantID,
		BatchID:  batch.ID,
		Delta:    mustQty(t, "-2.5"),
		Reason:   "spoilage",
	})
	if err != nil {
		t.Fatalf("adjust: %v", err)
	}

	if got := adjusted.RemainingQty.String(); got != "3.5000" {
		t.Errorf("remaining: want 10 - 4 - 2.5 = 3.5000, got %s", got)
	}
	out := sumOutbound(t, repo, tenantID, batch.ID)
	if adjusted.RemainingQty+out != adjusted.InitialQty {
		t.Errorf("conservation broken: initial %s != remaining %s + outbound %s",
			adjusted.InitialQty, adjusted.RemainingQty, out)
	}
}

func TestService_ExpiryOverview(t *testing.T) {
	now := time.Date(2026, 3, 10, 12, 0, 0, 0, time.UTC)
	repo := newMemRepo()
	svc := newTestService(repo, now)
	tenantID, ingredientID := id.New(), id.New()

	receive := func(expiresAt time.Time) {
		t.Helper()
		_, err := svc.Receive(context.Background(), ReceiveRequest{
			TenantID:     tenantID,
			IngredientID: ingredientID,
			Quantity:     mustQty(t, "1"),
			UnitCost:     100,
			ExpiresAt:    expiresAt,
		})
		if err != nil {
			t.Fatalf("receive: %v", err)
		}
	}

	receive(now.Add(-24 * time.Hour))     // expired
	receive(now.Add(2 * time.Hour))       // expires today
	receive(now.Add(36 * time.Hour))      // expiring soon
	receive(now.Add(30 * 24 * time.Hour)) // fresh, omitted

	overview, err := svc.ExpiryOverview(context.Background(), tenantID)
	if err != nil {
		t.Fatalf("expiry overview: %v", err)
	}
	if len(overview) != 3 {
		t.Fatalf("expected 3 entries (fresh omitted), got %d", len(overview))
	}

	seen := map[entity.ExpiryStatus]int{}
	for _, e := range overview {
		seen[e.Status]++
	}
	if seen[entity.ExpiryExpired] != 1 || seen[entity.ExpiryExpiresToday] != 1 || seen[entity.ExpiryExpiringSoon] != 1 {
		t.Errorf("unexpected status distribution: %v", seen)
	}
}
