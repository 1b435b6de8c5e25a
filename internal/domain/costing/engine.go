package costing

import (
	"context"

	"github.com/shopspring/decimal"

	"mise/internal/core/apperror"
	"mise/internal/core/id"
	"mise/internal/core/types"
	"mise/internal/domain/catalogs/recipe"
)

// maxRecipeDepth bounds component nesting. Real menus nest two or
// three levels; anything past this is a modelling mistake.
const maxRecipeDepth = 32

// RecipeSource loads recipes with their lines.
type RecipeSource interface {
	GetByID(ctx context.Context, tenantID, recipeID id.ID) (*recipe.Recipe, error)
}

// IngredientCoster prices a quantity of one ingredient. Satisfied by
// *Resolver.
type IngredientCoster interface {
	ResolveCost(ctx context.Context, tenantID, ingredientID id.ID, quantity types.Quantity) (decimal.Decimal, error)
}

// RecipeCost is the priced result for one recipe's full yield.
type RecipeCost struct {
	RecipeID       id.ID            `json:"recipeId"`
	Name           string           `json:"name"`
	Servings       int              `json:"servings"`
	TotalCost      types.MinorUnits `json:"totalCost"`
	CostPerServing types.MinorUnits `json:"costPerServing"`
}

// BreakdownLine is one input's contribution to a recipe cost.
type BreakdownLine struct {
	Kind         string           `json:"kind"` // "ingredient" or "component"
	IngredientID *id.ID           `json:"ingredientId,omitempty"`
	ComponentID  *id.ID           `json:"componentId,omitempty"`
	Quantity     *types.Quantity  `json:"quantity,omitempty"`
	Fraction     *types.Quantity  `json:"fraction,omitempty"`
	Cost         types.MinorUnits `json:"cost"`
}

// CostBreakdown is a RecipeCost with per-line detail for recipe cards.
type CostBreakdown struct {
	RecipeCost
	Lines []BreakdownLine `json:"lines"`
}

// Engine computes recipe costs recursively: direct ingredient lines
// priced by the resolver, component lines priced as a fraction of the
// component recipe's own full-yield cost.
type Engine struct {
	recipes RecipeSource
	coster  IngredientCoster
}

// NewEngine creates a costing engine.
func NewEngine(recipes RecipeSource, coster IngredientCoster) *Engine {
	return &Engine{recipes: recipes, coster: coster}
}

// CalculateCost prices a recipe. The whole traversal accumulates in
// decimal; rounding to cents happens exactly once for the total and
// once for the per-serving figure.
func (e *Engine) CalculateCost(ctx context.Context, tenantID, recipeID id.ID) (*RecipeCost, error) {
	walk := newWalk()
	total, r, err := e.costRecipe(ctx, tenantID, recipeID, walk)
	if err != nil {
		return nil, err
	}
	return e.result(r, total), nil
}

// CostBreakdown prices a recipe and reports each line's share. Same
// traversal and rounding as CalculateCost; only the top level is
// itemized.
func (e *Engine) CostBreakdown(ctx context.Context, tenantID, recipeID id.ID) (*CostBreakdown, error) {
	r, err := e.recipes.GetByID(ctx, tenantID, recipeID)
	if err != nil {
		return nil, err
	}

	walk := newWalk()
	walk.enter(r)

	total := decimal.Zero
	lines := make([]BreakdownLine, 0, len(r.Ingredients)+len(r.Components))

	for _, line := range r.Ingredients {
		cost, err := e.coster.ResolveCost(ctx, tenantID, line.IngredientID, line.Quantity)
		if err != nil {
			return nil, err
		}
		total = total.Add(cost)
		ingID, qty := line.IngredientID, line.Quantity
		lines = append(lines, BreakdownLine{
			Kind:         "ingredient",
			IngredientID: &ingID,
			Quantity:     &qty,
			Cost:         types.NewMinorUnitsFromDecimal(cost),
		})
	}
	for _, comp := range r.Components {
		compTotal, _, err := e.costRecipe(ctx, tenantID, comp.ComponentID, walk)
		if err != nil {
			return nil, err
		}
		cost := compTotal.Mul(comp.Fraction.Decimal())
		total = total.Add(cost)
		compID, fraction := comp.ComponentID, comp.Fraction
		lines = append(lines, BreakdownLine{
			Kind:        "component",
			ComponentID: &compID,
			Fraction:    &fraction,
			Cost:        types.NewMinorUnitsFromDecimal(cost),
		})
	}

	return &CostBreakdown{RecipeCost: *e.result(r, total), Lines: lines}, nil
}

func (e *Engine) result(r *recipe.Recipe, total decimal.Decimal) *RecipeCost {
	totalCost := types.NewMinorUnitsFromDecimal(total)
	return &RecipeCost{
		RecipeID:       r.ID,
		Name:           r.Name,
		Servings:       r.Servings,
		TotalCost:      totalCost,
		CostPerServing: totalCost.DivRoundHalfUp(int64(r.Servings)),
	}
}

// walkState carries per-request traversal bookkeeping: the path for
// cycle reporting, a visited set, and a memo so diamond-shaped
// component graphs price each recipe once.
type walkState struct {
	chain   []string
	visited map[id.ID]bool
	memo    map[id.ID]decimal.Decimal
}

func newWalk() *walkState {
	return &walkState{
		visited: make(map[id.ID]bool),
		memo:    make(map[id.ID]decimal.Decimal),
	}
}

func (w *walkState) enter(r *recipe.Recipe) {
	w.visited[r.ID] = true
	w.chain = append(w.chain, r.Name)
}

func (w *walkState) leave(r *recipe.Recipe) {
	delete(w.visited, r.ID)
	w.chain = w.chain[:len(w.chain)-1]
}

// costRecipe returns the exact decimal cost of the recipe's full yield.
func (e *Engine) costRecipe(ctx context.Context, tenantID, recipeID id.ID, walk *walkState) (decimal.Decimal, *recipe.Recipe, error) {
	r, err := e.recipes.GetByID(ctx, tenantID, recipeID)
	if err != nil {
		return decimal.Zero, nil, err
	}

	if walk.visited[recipeID] {
		return decimal.Zero, nil, apperror.NewCircularRecipeReference(append(walk.chain, r.Name))
	}
	if len(walk.chain) >= maxRecipeDepth {
		return decimal.Zero, nil, apperror.NewBusinessRule(apperror.CodeRecipeTooDeep,
			"recipe nesting exceeds maximum depth").
			WithDetail("recipe_id", recipeID.String()).
			WithDetail("max_depth", maxRecipeDepth)
	}
	if cached, ok := walk.memo[recipeID]; ok {
		return cached, r, nil
	}

	walk.enter(r)
	defer walk.leave(r)

	total := decimal.Zero
	for _, line := range r.Ingredients {
		cost, err := e.coster.ResolveCost(ctx, tenantID, line.IngredientID, line.Quantity)
		if err != nil {
			return decimal.Zero, nil, err
		}
		total = total.Add(cost)
	}
	for _, comp := range r.Components {
		compTotal, _, err := e.costRecipe(ctx, tenantID, comp.ComponentID, walk)
		if err != nil {
			return decimal.Zero, nil, err
		}
		total = total.Add(compTotal.Mul(comp.Fraction.Decimal()))
	}

	walk.memo[recipeID] = total
	return total, r, nil
}
