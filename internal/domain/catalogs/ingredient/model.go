// Package ingredient provides the ingredient master-data catalog.
// Ingredient records are read-only foreign references from the batch
// ledger's perspective: once a batch references an ingredient, only
// non-critical metadata may change.
package ingredient

import (
	"context"

	"mise/internal/core/apperror"
	"mise/internal/core/entity"
	"mise/internal/core/id"
)

// Unit is the canonical unit of measure for an ingredient.
type Unit string

const (
	UnitGram       Unit = "g"
	UnitKilogram   Unit = "kg"
	UnitMilliliter Unit = "ml"
	UnitLiter      Unit = "l"
	UnitPiece      Unit = "pcs"
)

// IsValid reports whether u is a known unit.
func (u Unit) IsValid() bool {
	switch u {
	case UnitGram, UnitKilogram, UnitMilliliter, UnitLiter, UnitPiece:
		return true
	}
	return false
}

// Ingredient is master data for a purchasable stock item.
type Ingredient struct {
	entity.Catalog

	// Unit is the canonical unit of measure. Batches and recipe lines
	// are always expressed in this unit.
	Unit Unit `db:"unit" json:"unit"`

	// Category groups ingredients for reporting (e.g. "dairy").
	Category string `db:"category" json:"category,omitempty"`

	// ShelfLifeDays hints the default expiry horizon at receipt.
	ShelfLifeDays *int `db:"shelf_life_days" json:"shelfLifeDays,omitempty"`

	// Allergens lists declared allergen codes.
	Allergens []string `db:"allergens" json:"allergens,omitempty"`
}

// New creates an ingredient with required fields.
func New(tenantID id.ID, code, name string, unit Unit) *Ingredient {
	return &Ingredient{
		Catalog: entity.NewCatalog(tenantID, code, name),
		Unit:    unit,
	}
}

// Validate implements entity.Validatable.
func (i *Ingredient) Validate(ctx context.Context) error {
	if err := i.Catalog.Validate(ctx); err != nil {
		return err
	}

	if !i.Unit.IsValid() {
		return apperror.NewValidation("invalid unit of measure").
			WithDetail("field", "unit").
			WithDetail("value", string(i.Unit))
	}

	if i.ShelfLifeDays != nil && *i.ShelfLifeDays <= 0 {
		return apperror.NewValidation("shelf life must be positive").
			WithDetail("field", "shelfLifeDays")
	}

	return nil
}
