package dto

import (
	"time"

	"mise/internal/core/apperror"
	"mise/internal/core/id"
	"mise/internal/core/types"
	"mise/internal/domain/dish"
	"mise/internal/domain/sales"
)

// CreateDishRequest is the request body for creating a dish.
type CreateDishRequest struct {
	Code     string `json:"code"`
	Name     string `json:"name" binding:"required"`
	RecipeID string `json:"recipeId" binding:"required"`
	// SellingPrice is in minor units (cents).
	SellingPrice int64 `json:"sellingPrice" binding:"required"`
}

// ToEntity converts DTO to domain entity.
func (r *CreateDishRequest) ToEntity(tenantID id.ID) (*dish.Dish, error) {
	recipeID, err := id.Parse(r.RecipeID)
	if err != nil {
		return nil, apperror.NewValidation("invalid recipeId format")
	}
	return dish.New(tenantID, r.Code, r.Name, recipeID, types.MinorUnits(r.SellingPrice)), nil
}

// UpdateDishRequest is the request body for updating a dish.
type UpdateDishRequest struct {
	Name         string `json:"name" binding:"required"`
	RecipeID     string `json:"recipeId" binding:"required"`
	SellingPrice int64  `json:"sellingPrice" binding:"required"`
	Active       *bool  `json:"active"`
	Version      int    `json:"version" binding:"required"`
}

// ApplyTo applies update DTO to existing entity.
func (r *UpdateDishRequest) ApplyTo(d *dish.Dish) error {
	recipeID, err := id.Parse(r.RecipeID)
	if err != nil {
		return apperror.NewValidation("invalid recipeId format")
	}
	d.Name = r.Name
	d.RecipeID = recipeID
	d.SellingPrice = types.MinorUnits(r.SellingPrice)
	if r.Active != nil {
		d.Active = *r.Active
	}
	d.Version = r.Version
	return nil
}

// RecordSaleRequest is the request body for recording a sale.
type RecordSaleRequest struct {
	DishID   string    `json:"dishId" binding:"required"`
	Quantity int64     `json:"quantity" binding:"required"`
	SoldAt   time.Time `json:"soldAt"`
}

// ToRequest converts the DTO to a domain request.
func (r *RecordSaleRequest) ToRequest(tenantID id.ID) (sales.RecordSaleRequest, error) {
	dishID, err := id.Parse(r.DishID)
	if err != nil {
		return sales.RecordSaleRequest{}, apperror.NewValidation("invalid dishId format")
	}
	return sales.RecordSaleRequest{
		TenantID: tenantID,
		DishID:   dishID,
		Quantity: r.Quantity,
		SoldAt:   r.SoldAt,
	}, nil
}
