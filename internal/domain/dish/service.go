package dish

import (
	"context"
	"fmt"

	"mise/internal/core/apperror"
	"mise/internal/core/id"
	"mise/internal/domain/catalogs/recipe"
	"mise/internal/domain/costing"
	"mise/pkg/logger"
)

// Service provides dish catalog operations and profitability analysis.
type Service struct {
	repo       Repository
	recipes    recipe.Repository
	engine     *costing.Engine
	thresholds Thresholds
}

// NewService creates a dish service.
func NewService(repo Repository, recipes recipe.Repository, engine *costing.Engine, thresholds Thresholds) *Service {
	return &Service{
		repo:       repo,
		recipes:    recipes,
		engine:     engine,
		thresholds: thresholds,
	}
}

// Create validates and stores a dish. Only Final recipes are sellable.
func (s *Service) Create(ctx context.Context, d *Dish) error {
	if err := d.Validate(ctx); err != nil {
		return err
	}
	if err := s.checkRecipe(ctx, d); err != nil {
		return err
	}

	if d.Code != "" {
		exists, err := s.repo.ExistsByCode(ctx, d.TenantID, d.Code)
		if err != nil {
			return fmt.Errorf("check code: %w", err)
		}
		if exists {
			return apperror.NewDuplicate("dish", "code", d.Code)
		}
	}

	if err := s.repo.Create(ctx, d); err != nil {
		return fmt.Errorf("create dish: %w", err)
	}

	logger.Info(ctx, "dish created", "id", d.ID, "code", d.Code, "recipe_id", d.RecipeID)
	return nil
}

// GetByID retrieves a dish.
func (s *Service) GetByID(ctx context.Context, tenantID, dishID id.ID) (*Dish, error) {
	return s.repo.GetByID(ctx, tenantID, dishID)
}

// Update modifies a dish.
func (s *Service) Update(ctx context.Context, d *Dish) error {
	if err := d.Validate(ctx); err != nil {
		return err
	}
	if err := s.checkRecipe(ctx, d); err != nil {
		return err
	}

	current, err := s.repo.GetByID(ctx, d.TenantID, d.ID)
	if err != nil {
		return err
	}
	if current.Version != d.Version {
		return apperror.NewConcurrentModification("dish", d.ID)
	}

	d.Touch()
	return s.repo.Update(ctx, d)
}

// Delete soft-deletes a dish. Sales history stays.
func (s *Service) Delete(ctx context.Context, tenantID, dishID id.ID) error {
	return s.repo.Delete(ctx, tenantID, dishID)
}

// List retrieves dishes with filtering.
func (s *Service) List(ctx context.Context, tenantID id.ID, filter ListFilter) ([]*Dish, error) {
	if filter.Limit <= 0 {
		filter.Limit = 50
	}
	if filter.Limit > 500 {
		filter.Limit = 500
	}
	return s.repo.List(ctx, tenantID, filter)
}

// Analyze prices the dish against its recipe's current cost and
// derives profit, margin and food cost with advisory warnings.
func (s *Service) Analyze(ctx context.Context, tenantID, dishID id.ID) (*Financials, error) {
	d, err := s.repo.GetByID(ctx, tenantID, dishID)
	if err != nil {
		return nil, err
	}

	cost, err := s.engine.CalculateCost(ctx, tenantID, d.RecipeID)
	if err != nil {
		return nil, err
	}

	f := computeFinancials(d.ID, d.Name, d.SellingPrice, cost.CostPerServing, s.thresholds)
	return &f, nil
}

func (s *Service) checkRecipe(ctx context.Context, d *Dish) error {
	r, err := s.recipes.GetByID(ctx, d.TenantID, d.RecipeID)
	if err != nil {
		if apperror.IsNotFound(err) {
			return apperror.NewValidation("recipe does not exist").
				WithDetail("recipe_id", d.RecipeID.String())
		}
		return err
	}
	if r.Type != recipe.TypeFinal {
		return apperror.NewBusinessRule(apperror.CodeBusinessRule,
			"dish requires a final recipe, not a preparation").
			WithDetail("recipe_id", d.RecipeID.String()).
			WithDetail("recipe_type", string(r.Type))
	}
	return nil
}
