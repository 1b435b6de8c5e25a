// Package catalog_repo provides PostgreSQL implementations for the
// master-data catalogs (ingredients, recipes, dishes).
package catalog_repo

import (
	"context"
	"errors"
	"fmt"

	"github.com/Masterminds/squirrel"
	"github.com/georgysavva/scany/v2/pgxscan"
	"github.com/jackc/pgx/v5"

	"mise/internal/core/apperror"
	"mise/internal/core/id"
	"mise/internal/domain/catalogs/ingredient"
	"mise/internal/infrastructure/storage/postgres"
)

const ingredientsTable = "cat_ingredients"

var ingredientColumns = []string{
	"id", "tenant_id", "code", "name", "deletion_mark", "version",
	"created_at", "updated_at",
	"unit", "category", "shelf_life_days", "allergens",
}

// IngredientRepo implements ingredient.Repository.
type IngredientRepo struct {
	txm     *postgres.TxManager
	builder squirrel.StatementBuilderType
}

var _ ingredient.Repository = (*IngredientRepo)(nil)

// NewIngredientRepo creates a new ingredient repository.
func NewIngredientRepo(txm *postgres.TxManager) *IngredientRepo {
	return &IngredientRepo{
		txm:     txm,
		builder: squirrel.StatementBuilder.PlaceholderFormat(squirrel.Dollar),
	}
}

// Create inserts an ingredient.
func (r *IngredientRepo) Create(ctx context.Context, ing *ingredient.Ingredient) error {
	q := r.builder.Insert(ingredientsTable).
		Columns(ingredientColumns...).
		Values(
			ing.ID, ing.TenantID, ing.Code, ing.Name, ing.DeletionMark, ing.Version,
			ing.CreatedAt, ing.UpdatedAt,
			ing.Unit, ing.Category, ing.ShelfLifeDays, ing.Allergens,
		)

	sql, args, err := q.ToSql()
	if err != nil {
		return fmt.Errorf("build insert: %w", err)
	}
	if _, err := r.txm.GetQuerier(ctx).Exec(ctx, sql, args...); err != nil {
		return fmt.Errorf("insert ingredient: %w", err)
	}
	return nil
}

// GetByID retrieves an ingredient.
func (r *IngredientRepo) GetByID(ctx context.Context, tenantID, ingredientID id.ID) (*ingredient.Ingredient, error) {
	return r.getOne(ctx, squirrel.Eq{"tenant_id": tenantID, "id": ingredientID}, ingredientID)
}

// GetByCode retrieves an ingredient by its tenant-unique code.
func (r *IngredientRepo) GetByCode(ctx context.Context, tenantID id.ID, code string) (*ingredient.Ingredient, error) {
	return r.getOne(ctx, squirrel.Eq{"tenant_id": tenantID, "code": code}, code)
}

func (r *IngredientRepo) getOne(ctx context.Context, where squirrel.Eq, key any) (*ingredient.Ingredient, error) {
	q := r.builder.Select(ingredientColumns...).
		From(ingredientsTable).
		Where(where)

	sql, args, err := q.ToSql()
	if err != nil {
		return nil, fmt.Errorf("build query: %w", err)
	}

	var ing ingredient.Ingredient
	if err := pgxscan.Get(ctx, r.txm.GetQuerier(ctx), &ing, sql, args...); err != nil {
		if pgxscan.NotFound(err) {
			return nil, apperror.NewNotFound("ingredient", key)
		}
		return nil, fmt.Errorf("get ingredient: %w", err)
	}
	return &ing, nil
}

// Update persists an ingredient with optimistic version check.
func (r *IngredientRepo) Update(ctx context.Context, ing *ingredient.Ingredient) error {
	q := r.builder.Update(ingredientsTable).
		Set("name", ing.Name).
		Set("category", ing.Category).
		Set("shelf_life_days", ing.ShelfLifeDays).
		Set("allergens", ing.Allergens).
		Set("deletion_mark", ing.DeletionMark).
		Set("version", ing.Version).
		Set("updated_at", ing.UpdatedAt).
		Where(squirrel.Eq{"tenant_id": ing.TenantID, "id": ing.ID}).
		Where(squirrel.Lt{"version": ing.Version})

	sql, args, err := q.ToSql()
	if err != nil {
		return fmt.Errorf("build update: %w", err)
	}

	tag, err := r.txm.GetQuerier(ctx).Exec(ctx, sql, args...)
	if err != nil {
		return fmt.Errorf("update ingredient: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return apperror.NewConcurrentModification("ingredient", ing.ID)
	}
	return nil
}

// Delete soft-deletes.
func (r *IngredientRepo) Delete(ctx context.Context, tenantID, ingredientID id.ID) error {
	q := r.builder.Update(ingredientsTable).
		Set("deletion_mark", true).
		Where(squirrel.Eq{"tenant_id": tenantID, "id": ingredientID})

	sql, args, err := q.ToSql()
	if err != nil {
		return fmt.Errorf("build delete: %w", err)
	}

	tag, err := r.txm.GetQuerier(ctx).Exec(ctx, sql, args...)
	if err != nil {
		return fmt.Errorf("delete ingredient: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return apperror.NewNotFound("ingredient", ingredientID)
	}
	return nil
}

// List retrieves ingredients with filtering.
func (r *IngredientRepo) List(ctx context.Context, tenantID id.ID, filter ingredient.ListFilter) ([]*ingredient.Ingredient, error) {
	q := r.builder.Select(ingredientColumns...).
		From(ingredientsTable).
		Where(squirrel.Eq{"tenant_id": tenantID})

	if !filter.IncludeDeleted {
		q = q.Where(squirrel.Eq{"deletion_mark": false})
	}
	if filter.Category != "" {
		q = q.Where(squirrel.Eq{"category": filter.Category})
	}
	if filter.Search != "" {
		pattern := "%" + filter.Search + "%"
		q = q.Where(squirrel.Or{
			squirrel.ILike{"name": pattern},
			squirrel.ILike{"code": pattern},
		})
	}

	q = q.OrderBy("name")
	if filter.Limit > 0 {
		q = q.Limit(uint64(filter.Limit))
	}
	if filter.Offset > 0 {
		q = q.Offset(uint64(filter.Offset))
	}

	sql, args, err := q.ToSql()
	if err != nil {
		return nil, fmt.Errorf("build query: %w", err)
	}

	var list []*ingredient.Ingredient
	if err := pgxscan.Select(ctx, r.txm.GetQuerier(ctx), &list, sql, args...); err != nil {
		return nil, fmt.Errorf("select ingredients: %w", err)
	}
	return list, nil
}

// ExistsByCode reports whether a code is taken within the tenant.
func (r *IngredientRepo) ExistsByCode(ctx context.Context, tenantID id.ID, code string) (bool, error) {
	q := r.builder.Select("1").
		From(ingredientsTable).
		Where(squirrel.Eq{"tenant_id": tenantID, "code": code}).
		Limit(1)

	sql, args, err := q.ToSql()
	if err != nil {
		return false, fmt.Errorf("build query: %w", err)
	}

	var one int
	err = r.txm.GetQuerier(ctx).QueryRow(ctx, sql, args...).Scan(&one)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return false, nil
		}
		return false, fmt.Errorf("check code: %w", err)
	}
	return true, nil
}
