// Package sales records dish sales: each sale consumes ingredients
// from the ledger FIFO and snapshots the recipe cost it was served at.
package sales

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/shopspring/decimal"

	"mise/internal/core/apperror"
	"mise/internal/core/clock"
	"mise/internal/core/id"
	"mise/internal/core/tx"
	"mise/internal/core/entity"
	"mise/internal/core/types"
	"mise/internal/domain/costing"
	"mise/internal/domain/dish"
	"mise/internal/domain/ledger"
	"mise/pkg/logger"
)

const maxFlattenDepth = 32

// StockConsumer is the ledger write operation a sale needs.
type StockConsumer interface {
	Consume(ctx context.Context, req ledger.ConsumeRequest) (*ledger.ConsumptionResult, error)
}

// RecordSaleRequest registers quantity units of a dish sold.
type RecordSaleRequest struct {
	TenantID id.ID
	DishID   id.ID
	Quantity int64
	// SoldAt defaults to now when zero.
	SoldAt time.Time
}

// RecordSaleResult reports the sale row and the stock it consumed.
type RecordSaleResult struct {
	Sale         *dish.Sale                 `json:"sale"`
	Consumptions []ledger.ConsumptionResult `json:"consumptions"`
}

// Service records sales.
type Service struct {
	dishes  dish.Repository
	recipes costing.RecipeSource
	engine  *costing.Engine
	stock   StockConsumer
	txm     tx.Manager
	clk     clock.Clock
}

// NewService creates a sales service.
func NewService(
	dishes dish.Repository,
	recipes costing.RecipeSource,
	engine *costing.Engine,
	stock StockConsumer,
	txm tx.Manager,
	clk clock.Clock,
) *Service {
	return &Service{
		dishes:  dishes,
		recipes: recipes,
		engine:  engine,
		stock:   stock,
		txm:     txm,
		clk:     clk,
	}
}

// RecordSale consumes the dish's flattened ingredient requirements
// from the ledger and writes the sale row, all in one transaction: a
// sale that cannot be fully stocked records nothing.
func (s *Service) RecordSale(ctx context.Context, req RecordSaleRequest) (*RecordSaleResult, error) {
	if req.Quantity <= 0 {
		return nil, apperror.NewInvalidQuantity("quantity", fmt.Sprintf("%d", req.Quantity))
	}

	d, err := s.dishes.GetByID(ctx, req.TenantID, req.DishID)
	if err != nil {
		return nil, err
	}
	if !d.Active {
		return nil, apperror.NewBusinessRule(apperror.CodeBusinessRule, "dish is not active").
			WithDetail("dish_id", d.ID.String())
	}

	r, err := s.recipes.GetByID(ctx, req.TenantID, d.RecipeID)
	if err != nil {
		return nil, err
	}

	// Cost snapshot before stock moves: the sale is priced at the cost
	// of the batches it is about to consume.
	cost, err := s.engine.CalculateCost(ctx, req.TenantID, d.RecipeID)
	if err != nil {
		return nil, err
	}

	// servings of the recipe yield; a sale of N units needs N/servings
	// of the full batch.
	multiplier := decimal.NewFromInt(req.Quantity).
		Div(decimal.NewFromInt(int64(r.Servings)))

	requirements := make(map[id.ID]decimal.Decimal)
	if err := s.flatten(ctx, req.TenantID, d.RecipeID, multiplier, 0, map[id.ID]bool{}, requirements); err != nil {
		return nil, err
	}

	soldAt := req.SoldAt
	if soldAt.IsZero() {
		soldAt = s.clk.Now()
	}

	sale := &dish.Sale{
		ID:        id.New(),
		TenantID:  req.TenantID,
		DishID:    d.ID,
		Quantity:  req.Quantity,
		UnitPrice: d.SellingPrice,
		UnitCost:  cost.CostPerServing,
		SoldAt:    soldAt,
		CreatedAt: s.clk.Now(),
	}

	ref := &entity.MovementReference{Type: "sale", ID: sale.ID}

	// Deterministic consumption order keeps lock acquisition stable
	// across concurrent sales of overlapping recipes.
	ingredientIDs := make([]id.ID, 0, len(requirements))
	for ingID := range requirements {
		ingredientIDs = append(ingredientIDs, ingID)
	}
	sort.Slice(ingredientIDs, func(i, j int) bool {
		return ingredientIDs[i].String() < ingredientIDs[j].String()
	})

	var result *RecordSaleResult
	err = s.txm.RunInTransaction(ctx, func(ctx context.Context) error {
		consumptions := make([]ledger.ConsumptionResult, 0, len(ingredientIDs))
		for _, ingID := range ingredientIDs {
			qty := types.NewQuantityFromDecimal(requirements[ingID])
			if !qty.IsPositive() {
				continue
			}
			cr, err := s.stock.Consume(ctx, ledger.ConsumeRequest{
				TenantID:     req.TenantID,
				IngredientID: ingID,
				Quantity:     qty,
				Type:         entity.MovementOutSale,
				Reference:    ref,
			})
			if err != nil {
				return err
			}
			consumptions = append(consumptions, *cr)
		}

		if err := s.dishes.CreateSale(ctx, sale); err != nil {
			return fmt.Errorf("create sale: %w", err)
		}
		result = &RecordSaleResult{Sale: sale, Consumptions: consumptions}
		return nil
	})
	if err != nil {
		return nil, err
	}

	logger.Info(ctx, "sale recorded",
		"sale_id", sale.ID,
		"dish_id", d.ID,
		"quantity", req.Quantity,
		"unit_cost", int64(sale.UnitCost),
	)
	return result, nil
}

// flatten resolves a recipe to base ingredient quantities, scaling by
// multiplier (the share of the recipe's full yield required). Guards
// against cycles and runaway nesting independently of the cost engine;
// the ledger must never consume on a malformed graph.
func (s *Service) flatten(
	ctx context.Context,
	tenantID, recipeID id.ID,
	multiplier decimal.Decimal,
	depth int,
	visited map[id.ID]bool,
	acc map[id.ID]decimal.Decimal,
) error {
	if depth > maxFlattenDepth {
		return apperror.NewBusinessRule(apperror.CodeRecipeTooDeep,
			"recipe nesting exceeds maximum depth").
			WithDetail("recipe_id", recipeID.String())
	}
	if visited[recipeID] {
		return apperror.NewCircularRecipeReference([]string{recipeID.String()})
	}
	visited[recipeID] = true
	defer delete(visited, recipeID)

	r, err := s.recipes.GetByID(ctx, tenantID, recipeID)
	if err != nil {
		return err
	}

	for _, line := range r.Ingredients {
		acc[line.IngredientID] = acc[line.IngredientID].
			Add(line.Quantity.Decimal().Mul(multiplier))
	}
	for _, comp := range r.Components {
		if err := s.flatten(ctx, tenantID, comp.ComponentID,
			multiplier.Mul(comp.Fraction.Decimal()), depth+1, visited, acc); err != nil {
			return err
		}
	}
	return nil
}
