package dto

import (
	"mise/internal/core/apperror"
	"mise/internal/core/id"
	"mise/internal/core/types"
	"mise/internal/domain/catalogs/ingredient"
	"mise/internal/domain/catalogs/recipe"
	"mise/internal/domain/costing"
)

// RecipeIngredientLine is one ingredient line in a recipe request.
type RecipeIngredientLine struct {
	IngredientID string          `json:"ingredientId" binding:"required"`
	Quantity     string          `json:"quantity" binding:"required"`
	Unit         ingredient.Unit `json:"unit" binding:"required"`
}

// RecipeComponentLine is one component line in a recipe request.
type RecipeComponentLine struct {
	ComponentID string `json:"componentId" binding:"required"`
	Fraction    string `json:"fraction" binding:"required"`
}

// CreateRecipeRequest is the request body for creating a recipe.
type CreateRecipeRequest struct {
	Code        string                 `json:"code"`
	Name        string                 `json:"name" binding:"required"`
	Type        recipe.Type            `json:"type" binding:"required"`
	Servings    int                    `json:"servings" binding:"required"`
	Ingredients []RecipeIngredientLine `json:"ingredients"`
	Components  []RecipeComponentLine  `json:"components"`
}

// ToEntity converts DTO to domain entity.
func (r *CreateRecipeRequest) ToEntity(tenantID id.ID) (*recipe.Recipe, error) {
	rec := recipe.New(tenantID, r.Code, r.Name, r.Type, r.Servings)

	ingredients, components, err := convertLines(r.Ingredients, r.Components)
	if err != nil {
		return nil, err
	}
	rec.Ingredients = ingredients
	rec.Components = components
	return rec, nil
}

// UpdateRecipeRequest is the request body for updating a recipe.
type UpdateRecipeRequest struct {
	Name        string                 `json:"name" binding:"required"`
	Type        recipe.Type            `json:"type" binding:"required"`
	Servings    int                    `json:"servings" binding:"required"`
	Ingredients []RecipeIngredientLine `json:"ingredients"`
	Components  []RecipeComponentLine  `json:"components"`
	Version     int                    `json:"version" binding:"required"`
}

// ApplyTo applies update DTO to existing entity.
func (r *UpdateRecipeRequest) ApplyTo(rec *recipe.Recipe) error {
	ingredients, components, err := convertLines(r.Ingredients, r.Components)
	if err != nil {
		return err
	}
	rec.Name = r.Name
	rec.Type = r.Type
	rec.Servings = r.Servings
	rec.Ingredients = ingredients
	rec.Components = components
	rec.Version = r.Version
	return nil
}

// RecipeCostResponse is the costing payload. CostKnown is false when
// no stock exists yet for an ingredient of the recipe: the recipe
// itself is fine, its cost just cannot be priced until a receipt.
type RecipeCostResponse struct {
	RecipeID  string              `json:"recipeId"`
	CostKnown bool                `json:"costKnown"`
	Cost      *costing.RecipeCost `json:"cost,omitempty"`
	Reason    string              `json:"reason,omitempty"`
}

// NewRecipeCostKnown wraps a priced result.
func NewRecipeCostKnown(cost *costing.RecipeCost) RecipeCostResponse {
	return RecipeCostResponse{
		RecipeID:  cost.RecipeID.String(),
		CostKnown: true,
		Cost:      cost,
	}
}

// NewRecipeCostUnknown reports an unpriceable recipe.
func NewRecipeCostUnknown(recipeID id.ID, err error) RecipeCostResponse {
	reason := "no stock available"
	if appErr, ok := apperror.AsAppError(err); ok {
		reason = appErr.Message
	}
	return RecipeCostResponse{
		RecipeID: recipeID.String(),
		Reason:   reason,
	}
}

func convertLines(ingredientLines []RecipeIngredientLine, componentLines []RecipeComponentLine) ([]recipe.Ingredient, []recipe.Component, error) {
	ingredients := make([]recipe.Ingredient, 0, len(ingredientLines))
	for _, line := range ingredientLines {
		ingredientID, err := id.Parse(line.IngredientID)
		if err != nil {
			return nil, nil, apperror.NewValidation("invalid ingredientId format").
				WithDetail("value", line.IngredientID)
		}
		qty, err := types.ParseQuantity(line.Quantity)
		if err != nil {
			return nil, nil, apperror.NewInvalidQuantity("quantity", line.Quantity)
		}
		ingredients = append(ingredients, recipe.Ingredient{
			IngredientID: ingredientID,
			Quantity:     qty,
			Unit:         line.Unit,
		})
	}

	components := make([]recipe.Component, 0, len(componentLines))
	for _, line := range componentLines {
		componentID, err := id.Parse(line.ComponentID)
		if err != nil {
			return nil, nil, apperror.NewValidation("invalid componentId format").
				WithDetail("value", line.ComponentID)
		}
		fraction, err := types.ParseQuantity(line.Fraction)
		if err != nil {
			return nil, nil, apperror.NewInvalidQuantity("fraction", line.Fraction)
		}
		components = append(components, recipe.Component{
			ComponentID: componentID,
			Fraction:    fraction,
		})
	}
	return ingredients, components, nil
}
