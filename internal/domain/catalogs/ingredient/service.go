package ingredient

import (
	"context"
	"fmt"

	"mise/internal/core/apperror"
	"mise/internal/core/id"
	"mise/pkg/logger"
)

// Service provides business operations for the ingredient catalog.
type Service struct {
	repo Repository
}

// NewService creates a new ingredient service.
func NewService(repo Repository) *Service {
	return &Service{repo: repo}
}

// Create validates and stores a new ingredient.
func (s *Service) Create(ctx context.Context, ing *Ingredient) error {
	if err := ing.Validate(ctx); err != nil {
		return err
	}

	if ing.Code != "" {
		exists, err := s.repo.ExistsByCode(ctx, ing.TenantID, ing.Code)
		if err != nil {
			return fmt.Errorf("check code: %w", err)
		}
		if exists {
			return apperror.NewDuplicate("ingredient", "code", ing.Code)
		}
	}

	if err := s.repo.Create(ctx, ing); err != nil {
		return fmt.Errorf("create ingredient: %w", err)
	}

	logger.Info(ctx, "ingredient created", "id", ing.ID, "code", ing.Code)
	return nil
}

// GetByID retrieves an ingredient.
func (s *Service) GetByID(ctx context.Context, tenantID, ingredientID id.ID) (*Ingredient, error) {
	return s.repo.GetByID(ctx, tenantID, ingredientID)
}

// Update modifies non-critical metadata. The canonical unit is frozen:
// batches and recipe lines already reference it.
func (s *Service) Update(ctx context.Context, ing *Ingredient) error {
	if err := ing.Validate(ctx); err != nil {
		return err
	}

	current, err := s.repo.GetByID(ctx, ing.TenantID, ing.ID)
	if err != nil {
		return err
	}
	if current.Unit != ing.Unit {
		return apperror.NewBusinessRule(apperror.CodeBusinessRule,
			"unit of measure cannot change once the ingredient is in use").
			WithDetail("ingredient_id", ing.ID.String())
	}

	ing.Touch()
	return s.repo.Update(ctx, ing)
}

// Delete soft-deletes an ingredient.
func (s *Service) Delete(ctx context.Context, tenantID, ingredientID id.ID) error {
	return s.repo.Delete(ctx, tenantID, ingredientID)
}

// List retrieves ingredients with filtering.
func (s *Service) List(ctx context.Context, tenantID id.ID, filter ListFilter) ([]*Ingredient, error) {
	if filter.Limit <= 0 {
		filter.Limit = 50
	}
	if filter.Limit > 500 {
		filter.Limit = 500
	}
	return s.repo.List(ctx, tenantID, filter)
}
