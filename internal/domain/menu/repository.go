package menu

import (
	"context"

	"mise/internal/core/id"
)

// Repository aggregates sales for classification.
type Repository interface {
	// SalesByDish sums quantity and revenue per dish over the period,
	// for dishes that sold at least once.
	SalesByDish(ctx context.Context, tenantID id.ID, period Period) ([]SalesRow, error)
}
