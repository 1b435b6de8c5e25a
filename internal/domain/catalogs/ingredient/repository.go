package ingredient

import (
	"context"

	"mise/internal/core/id"
)

// ListFilter narrows ingredient listings.
type ListFilter struct {
	Search         string
	Category       string
	IncludeDeleted bool
	Limit          int
	Offset         int
}

// Repository defines persistence operations for ingredients.
type Repository interface {
	Create(ctx context.Context, ing *Ingredient) error
	GetByID(ctx context.Context, tenantID, ingredientID id.ID) (*Ingredient, error)
	GetByCode(ctx context.Context, tenantID id.ID, code string) (*Ingredient, error)
	Update(ctx context.Context, ing *Ingredient) error

	// Delete soft-deletes (sets deletion_mark). Batches keep referencing
	// the row; hard deletes would break historical costing.
	Delete(ctx context.Context, tenantID, ingredientID id.ID) error

	List(ctx context.Context, tenantID id.ID, filter ListFilter) ([]*Ingredient, error)
	ExistsByCode(ctx context.Context, tenantID id.ID, code string) (bool, error)
}
