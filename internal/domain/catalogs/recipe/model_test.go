package recipe

import (
	"testing"

	"mise/internal/core/apperror"
	"mise/internal/core/id"
	"mise/internal/core/types"
	"mise/internal/domain/catalogs/ingredient"
)

func q(t *testing.T, s string) types.Quantity {
	t.Helper()
	v, err := types.ParseQuantity(s)
	if err != nil {
		t.Fatalf("parse quantity %q: %v", s, err)
	}
	return v
}

func validRecipe(t *testing.T) *Recipe {
	t.Helper()
	r := New(id.New(), "R-001", "Tomato Sauce", TypePreparation, 4)
	r.Ingredients = []Ingredient{
		{IngredientID: id.New(), Quantity: q(t, "2"), Unit: ingredient.UnitKilogram},
	}
	return r
}

func TestRecipe_Validate(t *testing.T) {
	if err := validRecipe(t).Validate(t.Context()); err != nil {
		t.Fatalf("valid recipe rejected: %v", err)
	}
}

func TestRecipe_Validate_Rejections(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(t *testing.T, r *Recipe)
	}{
		{"zero servings", func(t *testing.T, r *Recipe) { r.Servings = 0 }},
		{"unknown type", func(t *testing.T, r *Recipe) { r.Type = "snack" }},
		{"no lines", func(t *testing.T, r *Recipe) { r.Ingredients = nil }},
		{"zero quantity line", func(t *testing.T, r *Recipe) {
			r.Ingredients[0].Quantity = q(t, "0")
		}},
		{"nil ingredient", func(t *testing.T, r *Recipe) {
			r.Ingredients[0].IngredientID = id.ID{}
		}},
		{"zero fraction component", func(t *testing.T, r *Recipe) {
			r.Components = []Component{{ComponentID: id.New(), Fraction: q(t, "0")}}
		}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := validRecipe(t)
			tt.mutate(t, r)
			if err := r.Validate(t.Context()); err == nil {
				t.Error("expected validation to fail")
			}
		})
	}
}

func TestRecipe_Validate_SelfReference(t *testing.T) {
	r := validRecipe(t)
	r.Components = []Component{{ComponentID: r.ID, Fraction: q(t, "1")}}

	err := r.Validate(t.Context())
	appErr, ok := apperror.AsAppError(err)
	if !ok || appErr.Code != apperror.CodeCircularRecipe {
		t.Fatalf("expected CIRCULAR_RECIPE_REFERENCE, got %v", err)
	}
}

func TestRecipe_NormalizeLines(t *testing.T) {
	r := validRecipe(t)
	r.Ingredients = append(r.Ingredients, Ingredient{
		IngredientID: id.New(), Quantity: q(t, "1"), Unit: ingredient.UnitLiter,
	})
	r.Components = []Component{{ComponentID: id.New(), Fraction: q(t, "0.5")}}

	r.normalizeLines()

	for i, line := range r.Ingredients {
		if line.LineNo != i+1 {
			t.Errorf("ingredient line %d: want line_no %d, got %d", i, i+1, line.LineNo)
		}
		if line.RecipeID != r.ID {
			t.Errorf("ingredient line %d: recipe id not assigned", i)
		}
	}
	if r.Components[0].LineNo != 1 || r.Components[0].RecipeID != r.ID {
		t.Errorf("component line not normalized: %+v", r.Components[0])
	}
}
