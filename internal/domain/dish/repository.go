package dish

import (
	"context"

	"mise/internal/core/id"
)

// ListFilter narrows dish listings.
type ListFilter struct {
	Search         string
	ActiveOnly     bool
	IncludeDeleted bool
	Limit          int
	Offset         int
}

// Repository defines persistence operations for dishes and their
// sales.
type Repository interface {
	Create(ctx context.Context, d *Dish) error
	GetByID(ctx context.Context, tenantID, dishID id.ID) (*Dish, error)
	GetByCode(ctx context.Context, tenantID id.ID, code string) (*Dish, error)
	Update(ctx context.Context, d *Dish) error
	Delete(ctx context.Context, tenantID, dishID id.ID) error
	List(ctx context.Context, tenantID id.ID, filter ListFilter) ([]*Dish, error)
	ExistsByCode(ctx context.Context, tenantID id.ID, code string) (bool, error)

	// CreateSale appends a sale row. Sales are immutable.
	CreateSale(ctx context.Context, sale *Sale) error
}
