// Package dish prices menu items: a dish joins a sellable recipe with
// a selling price, and its financials come from the live recipe cost.
package dish

import (
	"context"
	"time"

	"mise/internal/core/apperror"
	"mise/internal/core/entity"
	"mise/internal/core/id"
	"mise/internal/core/types"
)

// Dish is a sellable menu item backed by a Final recipe.
type Dish struct {
	entity.Catalog
	RecipeID     id.ID            `db:"recipe_id" json:"recipeId"`
	SellingPrice types.MinorUnits `db:"selling_price" json:"sellingPrice"`
	// Active controls menu visibility. Inactive dishes keep their sales
	// history and stay analyzable.
	Active bool `db:"active" json:"active"`
}

// New creates an active dish.
func New(tenantID id.ID, code, name string, recipeID id.ID, sellingPrice types.MinorUnits) *Dish {
	return &Dish{
		Catalog:      entity.NewCatalog(tenantID, code, name),
		RecipeID:     recipeID,
		SellingPrice: sellingPrice,
		Active:       true,
	}
}

// Validate implements entity.Validatable.
func (d *Dish) Validate(ctx context.Context) error {
	if err := d.Catalog.Validate(ctx); err != nil {
		return err
	}
	if id.IsNil(d.RecipeID) {
		return apperror.NewValidation("recipe is required").
			WithDetail("field", "recipeId")
	}
	if !d.SellingPrice.IsPositive() {
		return apperror.NewInvalidPrice("sellingPrice", int64(d.SellingPrice))
	}
	return nil
}

// Sale is one recorded sale of a dish. UnitCost is the recipe cost per
// serving snapshotted at sale time; later price changes never rewrite
// history.
type Sale struct {
	ID        id.ID            `db:"id" json:"id"`
	TenantID  id.ID            `db:"tenant_id" json:"tenantId"`
	DishID    id.ID            `db:"dish_id" json:"dishId"`
	Quantity  int64            `db:"quantity" json:"quantity"`
	UnitPrice types.MinorUnits `db:"unit_price" json:"unitPrice"`
	UnitCost  types.MinorUnits `db:"unit_cost" json:"unitCost"`
	SoldAt    time.Time        `db:"sold_at" json:"soldAt"`
	CreatedAt time.Time        `db:"created_at" json:"createdAt"`
}
