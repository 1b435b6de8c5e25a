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
	"mise/internal/domain/dish"
	"mise/internal/infrastructure/storage/postgres"
)

const (
	dishesTable = "cat_dishes"
	salesTable  = "doc_dish_sales"
)

var dishColumns = []string{
	"id", "tenant_id", "code", "name", "deletion_mark", "version",
	"created_at", "updated_at",
	"recipe_id", "selling_price", "active",
}

// DishRepo implements dish.Repository.
type DishRepo struct {
	txm     *postgres.TxManager
	builder squirrel.StatementBuilderType
}

var _ dish.Repository = (*DishRepo)(nil)

// NewDishRepo creates a new dish repository.
func NewDishRepo(txm *postgres.TxManager) *DishRepo {
	return &DishRepo{
		txm:     txm,
		builder: squirrel.StatementBuilder.PlaceholderFormat(squirrel.Dollar),
	}
}

// Create inserts a dish.
func (r *DishRepo) Create(ctx context.Context, d *dish.Dish) error {
	q := r.builder.Insert(dishesTable).
		Columns(dishColumns...).
		Values(
			d.ID, d.TenantID, d.Code, d.Name, d.DeletionMark, d.Version,
			d.CreatedAt, d.UpdatedAt,
			d.RecipeID, d.SellingPrice, d.Active,
		)

	sql, args, err := q.ToSql()
	if err != nil {
		return fmt.Errorf("build insert: %w", err)
	}
	if _, err := r.txm.GetQuerier(ctx).Exec(ctx, sql, args...); err != nil {
		return fmt.Errorf("insert dish: %w", err)
	}
	return nil
}

// GetByID retrieves a dish.
func (r *DishRepo) GetByID(ctx context.Context, tenantID, dishID id.ID) (*dish.Dish, error) {
	return r.getOne(ctx, squirrel.Eq{"tenant_id": tenantID, "id": dishID}, dishID)
}

// GetByCode retrieves a dish by its tenant-unique code.
func (r *DishRepo) GetByCode(ctx context.Context, tenantID id.ID, code string) (*dish.Dish, error) {
	return r.getOne(ctx, squirrel.Eq{"tenant_id": tenantID, "code": code}, code)
}

func (r *DishRepo) getOne(ctx context.Context, where squirrel.Eq, key any) (*dish.Dish, error) {
	q := r.builder.Select(dishColumns...).
		From(dishesTable).
		Where(where)

	sql, args, err := q.ToSql()
	if err != nil {
		return nil, fmt.Errorf("build query: %w", err)
	}

	var d dish.Dish
	if err := pgxscan.Get(ctx, r.txm.GetQuerier(ctx), &d, sql, args...); err != nil {
		if pgxscan.NotFound(err) {
			return nil, apperror.NewNotFound("dish", key)
		}
		return nil, fmt.Errorf("get dish: %w", err)
	}
	return &d, nil
}

// Update persists a dish with optimistic version check.
func (r *DishRepo) Update(ctx context.Context, d *dish.Dish) error {
	q := r.builder.Update(dishesTable).
		Set("name", d.Name).
		Set("recipe_id", d.RecipeID).
		Set("selling_price", d.SellingPrice).
		Set("active", d.Active).
		Set("deletion_mark", d.DeletionMark).
		Set("version", d.Version).
		Set("updated_at", d.UpdatedAt).
		Where(squirrel.Eq{"tenant_id": d.TenantID, "id": d.ID}).
		Where(squirrel.Lt{"version": d.Version})

	sql, args, err := q.ToSql()
	if err != nil {
		return fmt.Errorf("build update: %w", err)
	}

	tag, err := r.txm.GetQuerier(ctx).Exec(ctx, sql, args...)
	if err != nil {
		return fmt.Errorf("update dish: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return apperror.NewConcurrentModification("dish", d.ID)
	}
	return nil
}

// Delete soft-deletes a dish.
func (r *DishRepo) Delete(ctx context.Context, tenantID, dishID id.ID) error {
	q := r.builder.Update(dishesTable).
		Set("deletion_mark", true).
		Set("active", false).
		Where(squirrel.Eq{"tenant_id": tenantID, "id": dishID})

	sql, args, err := q.ToSql()
	if err != nil {
		return fmt.Errorf("build delete: %w", err)
	}

	tag, err := r.txm.GetQuerier(ctx).Exec(ctx, sql, args...)
	if err != nil {
		return fmt.Errorf("delete dish: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return apperror.NewNotFound("dish", dishID)
	}
	return nil
}

// List retrieves dishes with filtering.
func (r *DishRepo) List(ctx context.Context, tenantID id.ID, filter dish.ListFilter) ([]*dish.Dish, error) {
	q := r.builder.Select(dishColumns...).
		From(dishesTable).
		Where(squirrel.Eq{"tenant_id": tenantID})

	if !filter.IncludeDeleted {
		q = q.Where(squirrel.Eq{"deletion_mark": false})
	}
	if filter.ActiveOnly {
		q = q.Where(squirrel.Eq{"active": true})
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

	var list []*dish.Dish
	if err := pgxscan.Select(ctx, r.txm.GetQuerier(ctx), &list, sql, args...); err != nil {
		return nil, fmt.Errorf("select dishes: %w", err)
	}
	return list, nil
}

// ExistsByCode reports whether a code is taken within the tenant.
func (r *DishRepo) ExistsByCode(ctx context.Context, tenantID id.ID, code string) (bool, error) {
	q := r.builder.Select("1").
		From(dishesTable).
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

// CreateSale appends a sale row.
func (r *DishRepo) CreateSale(ctx context.Context, sale *dish.Sale) error {
	q := r.builder.Insert(salesTable).
		Columns("id", "tenant_id", "dish_id", "quantity",
			"unit_price", "unit_cost", "sold_at", "created_at").
		Values(
			sale.ID, sale.TenantID, sale.DishID, sale.Quantity,
			sale.UnitPrice, sale.UnitCost, sale.SoldAt, sale.CreatedAt,
		)

	sql, args, err := q.ToSql()
	if err != nil {
		return fmt.Errorf("build insert: %w", err)
	}
	if _, err := r.txm.GetQuerier(ctx).Exec(ctx, sql, args...); err != nil {
		return fmt.Errorf("insert sale: %w", err)
	}
	return nil
}
