package menu

import (
	"context"
	"fmt"

	"mise/internal/core/apperror"
	"mise/internal/core/id"
	"mise/internal/domain/dish"
	"mise/pkg/logger"
)

// MarginSource prices a dish's current margin. Satisfied by
// *dish.Service.
type MarginSource interface {
	Analyze(ctx context.Context, tenantID, dishID id.ID) (*dish.Financials, error)
}

// Service runs menu engineering classification.
type Service struct {
	repo    Repository
	margins MarginSource
	cfg     ClassifierConfig
}

// NewService creates a menu service.
func NewService(repo Repository, margins MarginSource, cfg ClassifierConfig) *Service {
	return &Service{repo: repo, margins: margins, cfg: cfg}
}

// Classify ranks every dish sold in the period. Margins use current
// recipe costs; a dish whose cost cannot be resolved (no stock of an
// ingredient) is skipped with a warning rather than failing the whole
// report.
func (s *Service) Classify(ctx context.Context, tenantID id.ID, period Period) ([]DishPerformance, error) {
	if !period.From.Before(period.To) {
		return nil, apperror.NewValidation("period start must precede its end")
	}

	rows, err := s.repo.SalesByDish(ctx, tenantID, period)
	if err != nil {
		return nil, fmt.Errorf("aggregate sales: %w", err)
	}

	metrics := make([]dishMetrics, 0, len(rows))
	for _, row := range rows {
		f, err := s.margins.Analyze(ctx, tenantID, row.DishID)
		if err != nil {
			if apperror.IsNoStockAvailable(err) || apperror.IsNotFound(err) {
				logger.Warn(ctx, "dish skipped in classification",
					"dish_id", row.DishID, "reason", err.Error())
				continue
			}
			return nil, err
		}
		metrics = append(metrics, dishMetrics{row: row, margin: f.ProfitMarginPercent})
	}

	return rank(metrics, s.cfg), nil
}
