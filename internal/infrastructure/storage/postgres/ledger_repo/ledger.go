// Package ledger_repo provides the PostgreSQL implementation of the
// batch ledger repository.
package ledger_repo

import (
	"context"
	"fmt"
	"time"

	"github.com/Masterminds/squirrel"
	"github.com/georgysavva/scany/v2/pgxscan"

	"mise/internal/core/apperror"
	"mise/internal/core/entity"
	"mise/internal/core/id"
	"mise/internal/domain/ledger"
	"mise/internal/infrastructure/storage/postgres"
)

const (
	batchesTable   = "inv_batches"
	movementsTable = "inv_movements"
)

var batchColumns = []string{
	"id", "tenant_id", "ingredient_id", "lot_code",
	"unit_cost", "initial_qty", "remaining_qty",
	"received_at", "expires_at", "supplier_ref", "status",
	"created_at", "updated_at",
}

var movementColumns = []string{
	"id", "tenant_id", "batch_id", "ingredient_id", "type",
	"quantity", "unit_cost", "total_cost",
	"reference_type", "reference_id", "reason", "created_at",
}

// LedgerRepo implements ledger.Repository.
type LedgerRepo struct {
	txm     *postgres.TxManager
	builder squirrel.StatementBuilderType
}

var _ ledger.Repository = (*LedgerRepo)(nil)

// NewLedgerRepo creates a new ledger repository.
func NewLedgerRepo(txm *postgres.TxManager) *LedgerRepo {
	return &LedgerRepo{
		txm:     txm,
		builder: squirrel.StatementBuilder.PlaceholderFormat(squirrel.Dollar),
	}
}

// CreateBatch inserts a batch row.
func (r *LedgerRepo) CreateBatch(ctx context.Context, b *entity.InventoryBatch) error {
	q := r.builder.Insert(batchesTable).
		Columns(batchColumns...).
		Values(
			b.ID, b.TenantID, b.IngredientID, b.LotCode,
			b.UnitCost, b.InitialQty, b.RemainingQty,
			b.ReceivedAt, b.ExpiresAt, b.SupplierRef, b.Status,
			b.CreatedAt, b.UpdatedAt,
		)

	sql, args, err := q.ToSql()
	if err != nil {
		return fmt.Errorf("build insert: %w", err)
	}

	if _, err := r.txm.GetQuerier(ctx).Exec(ctx, sql, args...); err != nil {
		return fmt.Errorf("insert batch: %w", err)
	}
	return nil
}

// GetBatch retrieves a single batch.
func (r *LedgerRepo) GetBatch(ctx context.Context, tenantID, batchID id.ID) (*entity.InventoryBatch, error) {
	q := r.builder.Select(batchColumns...).
		From(batchesTable).
		Where(squirrel.Eq{"tenant_id": tenantID, "id": batchID})

	sql, args, err := q.ToSql()
	if err != nil {
		return nil, fmt.Errorf("build query: %w", err)
	}

	var b entity.InventoryBatch
	if err := pgxscan.Get(ctx, r.txm.GetQuerier(ctx), &b, sql, args...); err != nil {
		if pgxscan.NotFound(err) {
			return nil, apperror.NewNotFound("batch", batchID)
		}
		return nil, fmt.Errorf("get batch: %w", err)
	}
	return &b, nil
}

// GetBatchForUpdate retrieves a batch with a row lock. Serializes
// against FIFO consumption touching the same row.
func (r *LedgerRepo) GetBatchForUpdate(ctx context.Context, tenantID, batchID id.ID) (*entity.InventoryBatch, error) {
	if r.txm.GetTx(ctx) == nil {
		return nil, fmt.Errorf("GetBatchForUpdate requires transaction context")
	}

	q := r.builder.Select(batchColumns...).
		From(batchesTable).
		Where(squirrel.Eq{"tenant_id": tenantID, "id": batchID}).
		Suffix("FOR UPDATE")

	sql, args, err := q.ToSql()
	if err != nil {
		return nil, fmt.Errorf("build query: %w", err)
	}

	var b entity.InventoryBatch
	if err := pgxscan.Get(ctx, r.txm.GetQuerier(ctx), &b, sql, args...); err != nil {
		if pgxscan.NotFound(err) {
			return nil, apperror.NewNotFound("batch", batchID)
		}
		return nil, fmt.Errorf("get batch for update: %w", err)
	}
	return &b, nil
}

// ActiveBatchesFIFO returns active batches oldest-received first.
func (r *LedgerRepo) ActiveBatchesFIFO(ctx context.Context, tenantID, ingredientID id.ID) ([]*entity.InventoryBatch, error) {
	return r.activeBatches(ctx, tenantID, ingredientID, false)
}

// ActiveBatchesFIFOForUpdate locks the rows for the duration of the
// surrounding transaction. Concurrent consumers of the same ingredient
// queue here.
func (r *LedgerRepo) ActiveBatchesFIFOForUpdate(ctx context.Context, tenantID, ingredientID id.ID) ([]*entity.InventoryBatch, error) {
	if r.txm.GetTx(ctx) == nil {
		return nil, fmt.Errorf("ActiveBatchesFIFOForUpdate requires transaction context")
	}
	return r.activeBatches(ctx, tenantID, ingredientID, true)
}

func (r *LedgerRepo) activeBatches(ctx context.Context, tenantID, ingredientID id.ID, lock bool) ([]*entity.InventoryBatch, error) {
	q := r.builder.Select(batchColumns...).
		From(batchesTable).
		Where(squirrel.Eq{
			"tenant_id":     tenantID,
			"ingredient_id": ingredientID,
			"status":        entity.BatchActive,
		}).
		Where(squirrel.Gt{"remaining_qty": int64(0)}).
		OrderBy("received_at", "id")
	if lock {
		q = q.Suffix("FOR UPDATE")
	}

	sql, args, err := q.ToSql()
	if err != nil {
		return nil, fmt.Errorf("build query: %w", err)
	}

	var batches []*entity.InventoryBatch
	if err := pgxscan.Select(ctx, r.txm.GetQuerier(ctx), &batches, sql, args...); err != nil {
		return nil, fmt.Errorf("select batches: %w", err)
	}
	return batches, nil
}

// ExpiredBatchesForUpdate locks active batches whose expiry falls
// before the cutoff. Write-off drains these rows, so they must not be
// drained concurrently.
func (r *LedgerRepo) ExpiredBatchesForUpdate(ctx context.Context, tenantID id.ID, before time.Time) ([]*entity.InventoryBatch, error) {
	if r.txm.GetTx(ctx) == nil {
		return nil, fmt.Errorf("ExpiredBatchesForUpdate requires transaction context")
	}

	q := r.builder.Select(batchColumns...).
		From(batchesTable).
		Where(squirrel.Eq{
			"tenant_id": tenantID,
			"status":    entity.BatchActive,
		}).
		Where(squirrel.Gt{"remaining_qty": int64(0)}).
		Where(squirrel.Lt{"expires_at": before}).
		OrderBy("received_at", "id").
		Suffix("FOR UPDATE")

	sql, args, err := q.ToSql()
	if err != nil {
		return nil, fmt.Errorf("build query: %w", err)
	}

	var batches []*entity.InventoryBatch
	if err := pgxscan.Select(ctx, r.txm.GetQuerier(ctx), &batches, sql, args...); err != nil {
		return nil, fmt.Errorf("select expired batches: %w", err)
	}
	return batches, nil
}

// UpdateBatchState persists remaining quantity and status.
func (r *LedgerRepo) UpdateBatchState(ctx context.Context, b *entity.InventoryBatch) error {
	q := r.builder.Update(batchesTable).
		Set("remaining_qty", b.RemainingQty).
		Set("status", b.Status).
		Set("updated_at", b.UpdatedAt).
		Where(squirrel.Eq{"tenant_id": b.TenantID, "id": b.ID})

	sql, args, err := q.ToSql()
	if err != nil {
		return fmt.Errorf("build update: %w", err)
	}

	tag, err := r.txm.GetQuerier(ctx).Exec(ctx, sql, args...)
	if err != nil {
		return fmt.Errorf("update batch: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return apperror.NewNotFound("batch", b.ID)
	}
	return nil
}

// ListBatches returns batches matching the filter.
func (r *LedgerRepo) ListBatches(ctx context.Context, tenantID id.ID, filter ledger.BatchFilter) ([]*entity.InventoryBatch, error) {
	q := r.builder.Select(batchColumns...).
		From(batchesTable).
		Where(squirrel.Eq{"tenant_id": tenantID})

	if filter.IngredientID != nil {
		q = q.Where(squirrel.Eq{"ingredient_id": *filter.IngredientID})
	}
	if filter.Status != nil {
		q = q.Where(squirrel.Eq{"status": *filter.Status})
	}
	if filter.ExpiresUntil != nil {
		q = q.Where(squirrel.LtOrEq{"expires_at": *filter.ExpiresUntil})
	}

	q = q.OrderBy("received_at", "id")
	if filter.Limit > 0 {
		q = q.Limit(uint64(filter.Limit))
	}
	if filter.Offset > 0 {
		q = q.Offset(uint64(filter.Offset))
	}

	sql, args, err := q.ToSql()
	if err != nil {
		return nil, fmt.Errorf("build query: %w", err)
	}

	var batches []*entity.InventoryBatch
	if err := pgxscan.Select(ctx, r.txm.GetQuerier(ctx), &batches, sql, args...); err != nil {
		return nil, fmt.Errorf("select batches: %w", err)
	}
	return batches, nil
}

// CreateMovements batch-inserts movements. Uses COPY when inside a
// transaction, which is the normal path.
func (r *LedgerRepo) CreateMovements(ctx context.Context, movements []entity.InventoryMovement) error {
	if len(movements) == 0 {
		return nil
	}

	if tx := r.txm.GetTx(ctx); tx != nil {
		inserter := postgres.NewBatchInserter(r.txm)
		rows := make([][]any, 0, len(movements))
		for _, m := range movements {
			rows = append(rows, []any{
				m.ID, m.TenantID, m.BatchID, m.IngredientID, m.Type,
				m.Quantity, m.UnitCost, m.TotalCost,
				m.ReferenceType, m.ReferenceID, m.Reason, m.CreatedAt,
			})
		}
		if _, err := inserter.CopyFromSlice(ctx, movementsTable, movementColumns, rows); err != nil {
			return fmt.Errorf("copy movements: %w", err)
		}
		return nil
	}

	q := r.builder.Insert(movementsTable).Columns(movementColumns...)
	for _, m := range movements {
		q = q.Values(
			m.ID, m.TenantID, m.BatchID, m.IngredientID, m.Type,
			m.Quantity, m.UnitCost, m.TotalCost,
			m.ReferenceType, m.ReferenceID, m.Reason, m.CreatedAt,
		)
	}

	sql, args, err := q.ToSql()
	if err != nil {
		return fmt.Errorf("build insert: %w", err)
	}
	if _, err := r.txm.GetQuerier(ctx).Exec(ctx, sql, args...); err != nil {
		return fmt.Errorf("insert movements: %w", err)
	}
	return nil
}

// MovementsByBatch returns a batch's history, oldest first.
func (r *LedgerRepo) MovementsByBatch(ctx context.Context, tenantID, batchID id.ID) ([]entity.InventoryMovement, error) {
	q := r.builder.Select(movementColumns...).
		From(movementsTable).
		Where(squirrel.Eq{"tenant_id": tenantID, "batch_id": batchID}).
		OrderBy("created_at", "id")

	sql, args, err := q.ToSql()
	if err != nil {
		return nil, fmt.Errorf("build query: %w", err)
	}

	var movements []entity.InventoryMovement
	if err := pgxscan.Select(ctx, r.txm.GetQuerier(ctx), &movements, sql, args...); err != nil {
		return nil, fmt.Errorf("select movements: %w", err)
	}
	return movements, nil
}

// MovementsByIngredient returns movement history for an ingredient.
func (r *LedgerRepo) MovementsByIngredient(ctx context.Context, tenantID, ingredientID id.ID, filter ledger.MovementFilter) ([]entity.InventoryMovement, error) {
	q := r.builder.Select(movementColumns...).
		From(movementsTable).
		Where(squirrel.Eq{"tenant_id": tenantID, "ingredient_id": ingredientID})

	if filter.Type != nil {
		q = q.Where(squirrel.Eq{"type": *filter.Type})
	}
	if filter.FromDate != nil {
		q = q.Where(squirrel.GtOrEq{"created_at": *filter.FromDate})
	}
	if filter.ToDate != nil {
		q = q.Where(squirrel.Lt{"created_at": *filter.ToDate})
	}

	q = q.OrderBy("created_at", "id")
	if filter.Limit > 0 {
		q = q.Limit(uint64(filter.Limit))
	}
	if filter.Offset > 0 {
		q = q.Offset(uint64(filter.Offset))
	}

	sql, args, err := q.ToSql()
	if err != nil {
		return nil, fmt.Errorf("build query: %w", err)
	}

	var movements []entity.InventoryMovement
	if err := pgxscan.Select(ctx, r.txm.GetQuerier(ctx), &movements, sql, args...); err != nil {
		return nil, fmt.Errorf("select movements: %w", err)
	}
	return movements, nil
}
