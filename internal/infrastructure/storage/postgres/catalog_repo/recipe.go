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
	"mise/internal/domain/catalogs/recipe"
	"mise/internal/infrastructure/storage/postgres"
)

const (
	recipesTable           = "cat_recipes"
	recipeIngredientsTable = "cat_recipe_ingredients"
	recipeComponentsTable  = "cat_recipe_components"
)

var recipeColumns = []string{
	"id", "tenant_id", "code", "name", "deletion_mark", "version",
	"created_at", "updated_at",
	"type", "servings",
}

// RecipeRepo implements recipe.Repository. The header and both line
// tables are written together; callers wrap mutations in a
// transaction.
type RecipeRepo struct {
	txm     *postgres.TxManager
	builder squirrel.StatementBuilderType
}

var _ recipe.Repository = (*RecipeRepo)(nil)

// NewRecipeRepo creates a new recipe repository.
func NewRecipeRepo(txm *postgres.TxManager) *RecipeRepo {
	return &RecipeRepo{
		txm:     txm,
		builder: squirrel.StatementBuilder.PlaceholderFormat(squirrel.Dollar),
	}
}

// Create inserts the header and lines.
func (r *RecipeRepo) Create(ctx context.Context, rec *recipe.Recipe) error {
	q := r.builder.Insert(recipesTable).
		Columns(recipeColumns...).
		Values(
			rec.ID, rec.TenantID, rec.Code, rec.Name, rec.DeletionMark, rec.Version,
			rec.CreatedAt, rec.UpdatedAt,
			rec.Type, rec.Servings,
		)

	sql, args, err := q.ToSql()
	if err != nil {
		return fmt.Errorf("build insert: %w", err)
	}
	if _, err := r.txm.GetQuerier(ctx).Exec(ctx, sql, args...); err != nil {
		return fmt.Errorf("insert recipe: %w", err)
	}

	return r.insertLines(ctx, rec)
}

// GetByID retrieves a recipe with its lines.
func (r *RecipeRepo) GetByID(ctx context.Context, tenantID, recipeID id.ID) (*recipe.Recipe, error) {
	return r.getOne(ctx, squirrel.Eq{"tenant_id": tenantID, "id": recipeID}, recipeID)
}

// GetByCode retrieves a recipe by its tenant-unique code.
func (r *RecipeRepo) GetByCode(ctx context.Context, tenantID id.ID, code string) (*recipe.Recipe, error) {
	return r.getOne(ctx, squirrel.Eq{"tenant_id": tenantID, "code": code}, code)
}

func (r *RecipeRepo) getOne(ctx context.Context, where squirrel.Eq, key any) (*recipe.Recipe, error) {
	q := r.builder.Select(recipeColumns...).
		From(recipesTable).
		Where(where)

	sql, args, err := q.ToSql()
	if err != nil {
		return nil, fmt.Errorf("build query: %w", err)
	}

	var rec recipe.Recipe
	if err := pgxscan.Get(ctx, r.txm.GetQuerier(ctx), &rec, sql, args...); err != nil {
		if pgxscan.NotFound(err) {
			return nil, apperror.NewNotFound("recipe", key)
		}
		return nil, fmt.Errorf("get recipe: %w", err)
	}

	if err := r.loadLines(ctx, &rec); err != nil {
		return nil, err
	}
	return &rec, nil
}

func (r *RecipeRepo) loadLines(ctx context.Context, rec *recipe.Recipe) error {
	q := r.builder.Select("recipe_id", "line_no", "ingredient_id", "quantity", "unit").
		From(recipeIngredientsTable).
		Where(squirrel.Eq{"recipe_id": rec.ID}).
		OrderBy("line_no")

	sql, args, err := q.ToSql()
	if err != nil {
		return fmt.Errorf("build query: %w", err)
	}
	if err := pgxscan.Select(ctx, r.txm.GetQuerier(ctx), &rec.Ingredients, sql, args...); err != nil {
		return fmt.Errorf("select ingredient lines: %w", err)
	}

	q = r.builder.Select("recipe_id", "line_no", "component_id", "fraction").
		From(recipeComponentsTable).
		Where(squirrel.Eq{"recipe_id": rec.ID}).
		OrderBy("line_no")

	sql, args, err = q.ToSql()
	if err != nil {
		return fmt.Errorf("build query: %w", err)
	}
	if err := pgxscan.Select(ctx, r.txm.GetQuerier(ctx), &rec.Components, sql, args...); err != nil {
		return fmt.Errorf("select component lines: %w", err)
	}
	return nil
}

// Update persists the header with optimistic version check.
func (r *RecipeRepo) Update(ctx context.Context, rec *recipe.Recipe) error {
	q := r.builder.Update(recipesTable).
		Set("name", rec.Name).
		Set("type", rec.Type).
		Set("servings", rec.Servings).
		Set("deletion_mark", rec.DeletionMark).
		Set("version", rec.Version).
		Set("updated_at", rec.UpdatedAt).
		Where(squirrel.Eq{"tenant_id": rec.TenantID, "id": rec.ID}).
		Where(squirrel.Lt{"version": rec.Version})

	sql, args, err := q.ToSql()
	if err != nil {
		return fmt.Errorf("build update: %w", err)
	}

	tag, err := r.txm.GetQuerier(ctx).Exec(ctx, sql, args...)
	if err != nil {
		return fmt.Errorf("update recipe: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return apperror.NewConcurrentModification("recipe", rec.ID)
	}
	return nil
}

// ReplaceLines deletes and reinserts the recipe's lines.
func (r *RecipeRepo) ReplaceLines(ctx context.Context, rec *recipe.Recipe) error {
	for _, table := range []string{recipeIngredientsTable, recipeComponentsTable} {
		q := r.builder.Delete(table).Where(squirrel.Eq{"recipe_id": rec.ID})
		sql, args, err := q.ToSql()
		if err != nil {
			return fmt.Errorf("build delete: %w", err)
		}
		if _, err := r.txm.GetQuerier(ctx).Exec(ctx, sql, args...); err != nil {
			return fmt.Errorf("delete lines: %w", err)
		}
	}
	return r.insertLines(ctx, rec)
}

func (r *RecipeRepo) insertLines(ctx context.Context, rec *recipe.Recipe) error {
	if len(rec.Ingredients) > 0 {
		q := r.builder.Insert(recipeIngredientsTable).
			Columns("recipe_id", "line_no", "ingredient_id", "quantity", "unit")
		for _, line := range rec.Ingredients {
			q = q.Values(rec.ID, line.LineNo, line.IngredientID, line.Quantity, line.Unit)
		}
		sql, args, err := q.ToSql()
		if err != nil {
			return fmt.Errorf("build insert: %w", err)
		}
		if _, err := r.txm.GetQuerier(ctx).Exec(ctx, sql, args...); err != nil {
			return fmt.Errorf("insert ingredient lines: %w", err)
		}
	}

	if len(rec.Components) > 0 {
		q := r.builder.Insert(recipeComponentsTable).
			Columns("recipe_id", "line_no", "component_id", "fraction")
		for _, comp := range rec.Components {
			q = q.Values(rec.ID, comp.LineNo, comp.ComponentID, comp.Fraction)
		}
		sql, args, err := q.ToSql()
		if err != nil {
			return fmt.Errorf("build insert: %w", err)
		}
		if _, err := r.txm.GetQuerier(ctx).Exec(ctx, sql, args...); err != nil {
			return fmt.Errorf("insert component lines: %w", err)
		}
	}
	return nil
}

// Delete soft-deletes the header. Lines stay for historical loads.
func (r *RecipeRepo) Delete(ctx context.Context, tenantID, recipeID id.ID) error {
	q := r.builder.Update(recipesTable).
		Set("deletion_mark", true).
		Where(squirrel.Eq{"tenant_id": tenantID, "id": recipeID})

	sql, args, err := q.ToSql()
	if err != nil {
		return fmt.Errorf("build delete: %w", err)
	}

	tag, err := r.txm.GetQuerier(ctx).Exec(ctx, sql, args...)
	if err != nil {
		return fmt.Errorf("delete recipe: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return apperror.NewNotFound("recipe", recipeID)
	}
	return nil
}

// List retrieves recipe headers with filtering. Lines are not loaded;
// use GetByID for the full recipe.
func (r *RecipeRepo) List(ctx context.Context, tenantID id.ID, filter recipe.ListFilter) ([]*recipe.Recipe, error) {
	q := r.builder.Select(recipeColumns...).
		From(recipesTable).
		Where(squirrel.Eq{"tenant_id": tenantID})

	if !filter.IncludeDeleted {
		q = q.Where(squirrel.Eq{"deletion_mark": false})
	}
	if filter.Type != nil {
		q = q.Where(squirrel.Eq{"type": *filter.Type})
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

	var list []*recipe.Recipe
	if err := pgxscan.Select(ctx, r.txm.GetQuerier(ctx), &list, sql, args...); err != nil {
		return nil, fmt.Errorf("select recipes: %w", err)
	}
	return list, nil
}

// ExistsByCode reports whether a code is taken within the tenant.
func (r *RecipeRepo) ExistsByCode(ctx context.Context, tenantID id.ID, code string) (bool, error) {
	q := r.builder.Select("1").
		From(recipesTable).
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

// UsedAsComponent reports whether another recipe references recipeID.
func (r *RecipeRepo) UsedAsComponent(ctx context.Context, tenantID, recipeID id.ID) (bool, error) {
	sql := `
		SELECT 1
		FROM cat_recipe_components c
		JOIN cat_recipes r ON r.id = c.recipe_id
		WHERE r.tenant_id = $1 AND c.component_id = $2 AND r.deletion_mark = false
		LIMIT 1
	`
	var one int
	err := r.txm.GetQuerier(ctx).QueryRow(ctx, sql, tenantID, recipeID).Scan(&one)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return false, nil
		}
		return false, fmt.Errorf("check component usage: %w", err)
	}
	return true, nil
}
