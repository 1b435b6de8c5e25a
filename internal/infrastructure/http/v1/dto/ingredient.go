package dto

import (
	"mise/internal/core/id"
	"mise/internal/domain/catalogs/ingredient"
)

// CreateIngredientRequest is the request body for creating an ingredient.
type CreateIngredientRequest struct {
	Code          string          `json:"code"`
	Name          string          `json:"name" binding:"required"`
	Unit          ingredient.Unit `json:"unit" binding:"required"`
	Category      string          `json:"category"`
	ShelfLifeDays *int            `json:"shelfLifeDays"`
	Allergens     []string        `json:"allergens"`
}

// ToEntity converts DTO to domain entity.
func (r *CreateIngredientRequest) ToEntity(tenantID id.ID) *ingredient.Ingredient {
	ing := ingredient.New(tenantID, r.Code, r.Name, r.Unit)
	ing.Category = r.Category
	ing.ShelfLifeDays = r.ShelfLifeDays
	ing.Allergens = r.Allergens
	return ing
}

// UpdateIngredientRequest is the request body for updating an ingredient.
type UpdateIngredientRequest struct {
	Name          string          `json:"name" binding:"required"`
	Unit          ingredient.Unit `json:"unit" binding:"required"`
	Category      string          `json:"category"`
	ShelfLifeDays *int            `json:"shelfLifeDays"`
	Allergens     []string        `json:"allergens"`
	Version       int             `json:"version" binding:"required"`
}

// ApplyTo applies update DTO to existing entity.
func (r *UpdateIngredientRequest) ApplyTo(ing *ingredient.Ingredient) {
	ing.Name = r.Name
	ing.Unit = r.Unit
	ing.Category = r.Category
	ing.ShelfLifeDays = r.ShelfLifeDays
	ing.Allergens = r.Allergens
	ing.Version = r.Version
}
