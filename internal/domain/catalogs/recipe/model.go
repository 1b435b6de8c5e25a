// Package recipe defines recipes: ingredient lines plus references to
// other recipes used as components (preparations).
package recipe

import (
	"context"

	"mise/internal/core/apperror"
	"mise/internal/core/entity"
	"mise/internal/core/id"
	"mise/internal/core/types"
	"mise/internal/domain/catalogs/ingredient"
)

// Type distinguishes sellable recipes from intermediate preparations.
type Type string

const (
	// TypePreparation is an intermediate (sauce, stock, dough) used as a
	// component of other recipes. Not sellable directly.
	TypePreparation Type = "preparation"
	// TypeFinal is a finished recipe a dish can be priced on.
	TypeFinal Type = "final"
)

// IsValid reports whether t is a known recipe type.
func (t Type) IsValid() bool {
	return t == TypePreparation || t == TypeFinal
}

// Ingredient is one raw-ingredient line of a recipe. Quantity is per
// full recipe yield (all servings), in the ingredient's base unit.
type Ingredient struct {
	RecipeID     id.ID           `db:"recipe_id" json:"-"`
	LineNo       int             `db:"line_no" json:"lineNo"`
	IngredientID id.ID           `db:"ingredient_id" json:"ingredientId"`
	Quantity     types.Quantity  `db:"quantity" json:"quantity"`
	Unit         ingredient.Unit `db:"unit" json:"unit"`
}

// Component references another recipe used as an input. Fraction is
// the share of the component recipe's full yield this recipe consumes
// (1.0 = the whole batch).
type Component struct {
	RecipeID    id.ID          `db:"recipe_id" json:"-"`
	LineNo      int            `db:"line_no" json:"lineNo"`
	ComponentID id.ID          `db:"component_id" json:"componentId"`
	Fraction    types.Quantity `db:"fraction" json:"fraction"`
}

// Recipe is a costed production formula.
type Recipe struct {
	entity.Catalog
	Type     Type `db:"type" json:"type"`
	Servings int  `db:"servings" json:"servings"`

	Ingredients []Ingredient `db:"-" json:"ingredients"`
	Components  []Component  `db:"-" json:"components"`
}

// New creates a recipe with defaults.
func New(tenantID id.ID, code, name string, recipeType Type, servings int) *Recipe {
	r := &Recipe{
		Catalog:  entity.NewCatalog(tenantID, code, name),
		Type:     recipeType,
		Servings: servings,
	}
	return r
}

// Validate implements entity.Validatable.
func (r *Recipe) Validate(ctx context.Context) error {
	if err := r.Catalog.Validate(ctx); err != nil {
		return err
	}
	if !r.Type.IsValid() {
		return apperror.NewValidation("unknown recipe type").
			WithDetail("field", "type").
			WithDetail("value", string(r.Type))
	}
	if r.Servings <= 0 {
		return apperror.NewValidation("servings must be positive").
			WithDetail("field", "servings").
			WithDetail("value", r.Servings)
	}
	if len(r.Ingredients) == 0 && len(r.Components) == 0 {
		return apperror.NewValidation("recipe requires at least one ingredient or component")
	}
	for i, line := range r.Ingredients {
		if id.IsNil(line.IngredientID) {
			return apperror.NewValidation("ingredient line requires an ingredient").
				WithDetail("line", i+1)
		}
		if !line.Quantity.IsPositive() {
			return apperror.NewInvalidQuantity("quantity", line.Quantity.String()).
				WithDetail("line", i+1)
		}
		if !line.Unit.IsValid() {
			return apperror.NewValidation("unknown unit").
				WithDetail("line", i+1).
				WithDetail("value", string(line.Unit))
		}
	}
	for i, comp := range r.Components {
		if id.IsNil(comp.ComponentID) {
			return apperror.NewValidation("component line requires a recipe").
				WithDetail("line", i+1)
		}
		if comp.ComponentID == r.ID {
			return apperror.NewCircularRecipeReference([]string{r.Name, r.Name})
		}
		if !comp.Fraction.IsPositive() {
			return apperror.NewInvalidQuantity("fraction", comp.Fraction.String()).
				WithDetail("line", i+1)
		}
	}
	return nil
}

// normalizeLines assigns sequential line numbers and the parent id so
// storage never depends on caller-provided ordering fields.
func (r *Recipe) normalizeLines() {
	for i := range r.Ingredients {
		r.Ingredients[i].RecipeID = r.ID
		r.Ingredients[i].LineNo = i + 1
	}
	for i := range r.Components {
		r.Components[i].RecipeID = r.ID
		r.Components[i].LineNo = i + 1
	}
}
