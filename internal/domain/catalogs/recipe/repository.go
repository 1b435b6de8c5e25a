package recipe

import (
	"context"

	"mise/internal/core/id"
)

// ListFilter narrows recipe listings.
type ListFilter struct {
	Search         string
	Type           *Type
	IncludeDeleted bool
	Limit          int
	Offset         int
}

// Repository defines persistence operations for recipes. Saving a
// recipe replaces its lines wholesale; header and lines go in one
// transaction.
type Repository interface {
	Create(ctx context.Context, r *Recipe) error
	GetByID(ctx context.Context, tenantID, recipeID id.ID) (*Recipe, error)
	GetByCode(ctx context.Context, tenantID id.ID, code string) (*Recipe, error)
	Update(ctx context.Context, r *Recipe) error

	// ReplaceLines deletes and reinserts the ingredient and component
	// lines of a recipe. Called inside the update transaction.
	ReplaceLines(ctx context.Context, r *Recipe) error

	// Delete soft-deletes. Recipes referenced by dishes or other
	// recipes keep resolving for historical costing.
	Delete(ctx context.Context, tenantID, recipeID id.ID) error

	List(ctx context.Context, tenantID id.ID, filter ListFilter) ([]*Recipe, error)
	ExistsByCode(ctx context.Context, tenantID id.ID, code string) (bool, error)

	// UsedAsComponent reports whether any recipe references recipeID as
	// a component.
	UsedAsComponent(ctx context.Context, tenantID, recipeID id.ID) (bool, error)
}
