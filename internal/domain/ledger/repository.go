// Package ledger owns physical stock: immutable receipt batches plus
// an append-only movement log, with atomic FIFO consumption.
package ledger

import (
	"context"
	"time"

	"mise/internal/core/entity"
	"mise/internal/core/id"
)

// Repository defines persistence operations for the batch ledger.
// Every method is tenant-scoped; implementations filter unconditionally.
type Repository interface {
	// Batch operations

	// CreateBatch inserts a new batch row.
	CreateBatch(ctx context.Context, batch *entity.InventoryBatch) error

	// GetBatch retrieves a single batch.
	GetBatch(ctx context.Context, tenantID, batchID id.ID) (*entity.InventoryBatch, error)

	// GetBatchForUpdate retrieves a batch with a row lock (FOR UPDATE).
	// Must be called inside a transaction. Every read-modify-write on a
	// single batch goes through here so a concurrent FIFO drain cannot
	// land between the read and the state write.
	GetBatchForUpdate(ctx context.Context, tenantID, batchID id.ID) (*entity.InventoryBatch, error)

	// ActiveBatchesFIFO returns Active batches for an ingredient ordered
	// by received_at ascending. Read path for cost simulation; takes no
	// locks.
	ActiveBatchesFIFO(ctx context.Context, tenantID, ingredientID id.ID) ([]*entity.InventoryBatch, error)

	// ActiveBatchesFIFOForUpdate is the same ordering with row locks
	// (FOR UPDATE). Must be called inside a transaction; serializes
	// concurrent consumers of the same (tenant, ingredient).
	ActiveBatchesFIFOForUpdate(ctx context.Context, tenantID, ingredientID id.ID) ([]*entity.InventoryBatch, error)

	// UpdateBatchState persists remaining quantity and status after a
	// draw or adjustment.
	UpdateBatchState(ctx context.Context, batch *entity.InventoryBatch) error

	// ExpiredBatchesForUpdate returns Active batches with stock whose
	// expiry date is before the cutoff, with row locks (FOR UPDATE).
	// Must be called inside a transaction.
	ExpiredBatchesForUpdate(ctx context.Context, tenantID id.ID, before time.Time) ([]*entity.InventoryBatch, error)

	// ListBatches returns batches matching the filter.
	ListBatches(ctx context.Context, tenantID id.ID, filter BatchFilter) ([]*entity.InventoryBatch, error)

	// Movement operations

	// CreateMovements batch-inserts movements. Movements are immutable;
	// there is no update or delete.
	CreateMovements(ctx context.Context, movements []entity.InventoryMovement) error

	// MovementsByBatch returns the full movement history of a batch,
	// oldest first.
	MovementsByBatch(ctx context.Context, tenantID, batchID id.ID) ([]entity.InventoryMovement, error)

	// MovementsByIngredient returns movement history for an ingredient.
	MovementsByIngredient(ctx context.Context, tenantID, ingredientID id.ID, filter MovementFilter) ([]entity.InventoryMovement, error)
}

// BatchFilter narrows batch listings.
type BatchFilter struct {
	IngredientID *id.ID
	Status       *entity.BatchStatus
	ExpiresUntil *time.Time
	Limit        int
	Offset       int
}

// MovementFilter narrows movement history queries.
type MovementFilter struct {
	Type     *entity.MovementType
	FromDate *time.Time
	ToDate   *time.Time
	Limit    int
	Offset   int
}
