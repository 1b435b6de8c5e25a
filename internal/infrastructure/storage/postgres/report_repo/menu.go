// Package report_repo provides PostgreSQL implementations for
// reporting repositories.
package report_repo

import (
	"context"
	"fmt"

	"github.com/georgysavva/scany/v2/pgxscan"

	"mise/internal/core/id"
	"mise/internal/domain/menu"
	"mise/internal/infrastructure/storage/postgres"
)

// MenuRepo implements menu.Repository.
type MenuRepo struct {
	txm *postgres.TxManager
}

var _ menu.Repository = (*MenuRepo)(nil)

// NewMenuRepo creates a new menu report repository.
func NewMenuRepo(txm *postgres.TxManager) *MenuRepo {
	return &MenuRepo{txm: txm}
}

// salesByDishSQL aggregates quantity and revenue per dish over a
// period. Only active, non-deleted dishes participate: a deactivated
// dish with historical sales must not shift the classification
// averages of the rest of the menu. Revenue uses the price each sale
// was actually recorded at, not the dish's current price.
const salesByDishSQL = `
	SELECT
		s.dish_id,
		d.name AS dish_name,
		d.selling_price,
		SUM(s.quantity) AS volume,
		SUM(s.quantity * s.unit_price) AS revenue
	FROM doc_dish_sales s
	JOIN cat_dishes d ON d.id = s.dish_id
	WHERE s.tenant_id = $1
	  AND s.sold_at >= $2
	  AND s.sold_at < $3
	  AND d.active = true
	  AND d.deletion_mark = false
	GROUP BY s.dish_id, d.name, d.selling_price
	ORDER BY revenue DESC
`

// SalesByDish returns the per-dish sales aggregate for the period.
func (r *MenuRepo) SalesByDish(ctx context.Context, tenantID id.ID, period menu.Period) ([]menu.SalesRow, error) {
	var rows []menu.SalesRow
	querier := r.txm.GetQuerier(ctx)
	if err := pgxscan.Select(ctx, querier, &rows, salesByDishSQL, tenantID, period.From, period.To); err != nil {
		return nil, fmt.Errorf("aggregate sales: %w", err)
	}
	return rows, nil
}
