package recipe

import (
	"context"
	"fmt"

	"mise/internal/core/apperror"
	"mise/internal/core/id"
	"mise/internal/core/tx"
	"mise/internal/domain/catalogs/ingredient"
	"mise/pkg/logger"
)

// Service provides business operations for the recipe catalog.
type Service struct {
	repo        Repository
	ingredients ingredient.Repository
	txm         tx.Manager
}

// NewService creates a new recipe service.
func NewService(repo Repository, ingredients ingredient.Repository, txm tx.Manager) *Service {
	return &Service{repo: repo, ingredients: ingredients, txm: txm}
}

// Create validates and stores a recipe with its lines.
func (s *Service) Create(ctx context.Context, r *Recipe) error {
	if err := r.Validate(ctx); err != nil {
		return err
	}
	if err := s.checkReferences(ctx, r); err != nil {
		return err
	}

	if r.Code != "" {
		exists, err := s.repo.ExistsByCode(ctx, r.TenantID, r.Code)
		if err != nil {
			return fmt.Errorf("check code: %w", err)
		}
		if exists {
			return apperror.NewDuplicate("recipe", "code", r.Code)
		}
	}

	r.normalizeLines()
	if err := s.txm.RunInTransaction(ctx, func(ctx context.Context) error {
		return s.repo.Create(ctx, r)
	}); err != nil {
		return fmt.Errorf("create recipe: %w", err)
	}

	logger.Info(ctx, "recipe created",
		"id", r.ID, "code", r.Code, "type", string(r.Type),
		"ingredients", len(r.Ingredients), "components", len(r.Components),
	)
	return nil
}

// GetByID retrieves a recipe with its lines.
func (s *Service) GetByID(ctx context.Context, tenantID, recipeID id.ID) (*Recipe, error) {
	return s.repo.GetByID(ctx, tenantID, recipeID)
}

// Update replaces the recipe header and lines atomically.
func (s *Service) Update(ctx context.Context, r *Recipe) error {
	if err := r.Validate(ctx); err != nil {
		return err
	}
	if err := s.checkReferences(ctx, r); err != nil {
		return err
	}

	current, err := s.repo.GetByID(ctx, r.TenantID, r.ID)
	if err != nil {
		return err
	}
	if current.Version != r.Version {
		return apperror.NewConcurrentModification("recipe", r.ID)
	}

	r.normalizeLines()
	r.Touch()
	return s.txm.RunInTransaction(ctx, func(ctx context.Context) error {
		if err := s.repo.Update(ctx, r); err != nil {
			return fmt.Errorf("update recipe: %w", err)
		}
		return s.repo.ReplaceLines(ctx, r)
	})
}

// Delete soft-deletes a recipe unless another recipe still uses it as
// a component.
func (s *Service) Delete(ctx context.Context, tenantID, recipeID id.ID) error {
	used, err := s.repo.UsedAsComponent(ctx, tenantID, recipeID)
	if err != nil {
		return fmt.Errorf("check component usage: %w", err)
	}
	if used {
		return apperror.NewBusinessRule(apperror.CodeBusinessRule,
			"recipe is used as a component of another recipe").
			WithDetail("recipe_id", recipeID.String())
	}
	return s.repo.Delete(ctx, tenantID, recipeID)
}

// List retrieves recipes with filtering.
func (s *Service) List(ctx context.Context, tenantID id.ID, filter ListFilter) ([]*Recipe, error) {
	if filter.Limit <= 0 {
		filter.Limit = 50
	}
	if filter.Limit > 500 {
		filter.Limit = 500
	}
	return s.repo.List(ctx, tenantID, filter)
}

// checkReferences verifies every ingredient and component line points
// at an existing row of the same tenant. Deep cycle detection happens
// at costing time; here only self-reference and dangling ids are
// rejected.
func (s *Service) checkReferences(ctx context.Context, r *Recipe) error {
	for _, line := range r.Ingredients {
		if _, err := s.ingredients.GetByID(ctx, r.TenantID, line.IngredientID); err != nil {
			if apperror.IsNotFound(err) {
				return apperror.NewValidation("ingredient does not exist").
					WithDetail("ingredient_id", line.IngredientID.String())
			}
			return err
		}
	}
	for _, comp := range r.Components {
		if _, err := s.repo.GetByID(ctx, r.TenantID, comp.ComponentID); err != nil {
			if apperror.IsNotFound(err) {
				return apperror.NewValidation("component recipe does not exist").
					WithDetail("component_id", comp.ComponentID.String())
			}
			return err
		}
	}
	return nil
}
