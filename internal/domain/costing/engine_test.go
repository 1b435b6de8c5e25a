package costing

import (
	"context"
	"testing"

	"github.com/shopspring/decimal"

	"mise/internal/core/apperror"
	"mise/internal/core/id"
	"mise/internal/core/types"
	"mise/internal/domain/catalogs/recipe"
)

type recipeStore struct {
	recipes map[id.ID]*recipe.Recipe
}

func (s *recipeStore) GetByID(ctx context.Context, tenantID, recipeID id.ID) (*recipe.Recipe, error) {
	r, ok := s.recipes[recipeID]
	if !ok {
		return nil, apperror.NewNotFound("recipe", recipeID)
	}
	return r, nil
}

func (s *recipeStore) add(r *recipe.Recipe) {
	if s.recipes == nil {
		s.recipes = make(map[id.ID]*recipe.Recipe)
	}
	s.recipes[r.ID] = r
}

// priceList prices every ingredient at a flat per-unit cost and counts
// resolver calls.
type priceList struct {
	prices map[id.ID]int64
	calls  int
}

func (p *priceList) ResolveCost(ctx context.Context, tenantID, ingredientID id.ID, quantity types.Quantity) (decimal.Decimal, error) {
	p.calls++
	price, ok := p.prices[ingredientID]
	if !ok {
		return decimal.Zero, apperror.NewNoStockAvailable(ingredientID.String())
	}
	return quantity.Decimal().Mul(decimal.NewFromInt(price)), nil
}

func parseQty(t *testing.T, s string) types.Quantity {
	t.Helper()
	q, err := types.ParseQuantity(s)
	if err != nil {
		t.Fatalf("parse quantity %q: %v", s, err)
	}
	return q
}

func TestEngine_CalculateCost_DirectIngredients(t *testing.T) {
	tenantID := id.New()
	onion, beef := id.New(), id.New()

	soup := recipe.New(tenantID, "R-SOUP", "Beef Soup", recipe.TypeFinal, 2)
	soup.Ingredients = []recipe.Ingredient{
		{IngredientID: onion, Quantity: parseQty(t, "0.5")},
		{IngredientID: beef, Quantity: parseQty(t, "1.5")},
	}

	store := &recipeStore{}
	store.add(soup)
	coster := &priceList{prices: map[id.ID]int64{onion: 100, beef: 200}}
	engine := NewEngine(store, coster)

	cost, err := engine.CalculateCost(context.Background(), tenantID, soup.ID)
	if err != nil {
		t.Fatalf("calculate cost: %v", err)
	}

	// 0.5 x 100 + 1.5 x 200 = 350
	if cost.TotalCost != 350 {
		t.Errorf("total cost: want 350, got %d", cost.TotalCost)
	}
	if cost.CostPerServing != 175 {
		t.Errorf("cost per serving: want 175, got %d", cost.CostPerServing)
	}
	if cost.Servings != 2 {
		t.Errorf("servings: want 2, got %d", cost.Servings)
	}
}

func TestEngine_CalculateCost_ComponentFraction(t *testing.T) {
	tenantID := id.New()
	flour, sauceBase := id.New(), id.New()

	sauce := recipe.New(tenantID, "R-SAUCE", "Tomato Sauce", recipe.TypePreparation, 1)
	sauce.Ingredients = []recipe.Ingredient{
		{IngredientID: sauceBase, Quantity: parseQty(t, "2")},
	}

	pasta := recipe.New(tenantID, "R-PASTA", "Pasta", recipe.TypeFinal, 4)
	pasta.Ingredients = []recipe.Ingredient{
		{IngredientID: flour, Quantity: parseQty(t, "1")},
	}
	pasta.Components = []recipe.Component{
		{ComponentID: sauce.ID, Fraction: parseQty(t, "0.5")},
	}

	store := &recipeStore{}
	store.add(sauce)
	store.add(pasta)
	coster := &priceList{prices: map[id.ID]int64{flour: 80, sauceBase: 150}}
	engine := NewEngine(store, coster)

	cost, err := engine.CalculateCost(context.Background(), tenantID, pasta.ID)
	if err != nil {
		t.Fatalf("calculate cost: %v", err)
	}

	// flour 1 x 80 + half of the sauce batch (2 x 150) = 80 + 150 = 230
	if cost.TotalCost != 230 {
		t.Errorf("total cost: want 230, got %d", cost.TotalCost)
	}

	// A full-batch fraction must reproduce the component's own cost.
	pasta.Components[0].Fraction = parseQty(t, "1")
	full, err := engine.CalculateCost(context.Background(), tenantID, pasta.ID)
	if err != nil {
		t.Fatalf("calculate cost: %v", err)
	}
	if full.TotalCost != 380 {
		t.Errorf("full-fraction total: want 380, got %d", full.TotalCost)
	}
}

func TestEngine_CalculateCost_CycleDetected(t *testing.T) {
	tenantID := id.New()

	a := recipe.New(tenantID, "R-A", "Mother Sauce", recipe.TypePreparation, 1)
	b := recipe.New(tenantID, "R-B", "Derived Sauce", recipe.TypePreparation, 1)
	a.Components = []recipe.Component{{ComponentID: b.ID, Fraction: parseQty(t, "1")}}
	b.Components = []recipe.Component{{ComponentID: a.ID, Fraction: parseQty(t, "1")}}

	store := &recipeStore{}
	store.add(a)
	store.add(b)
	engine := NewEngine(store, &priceList{})

	_, err := engine.CalculateCost(context.Background(), tenantID, a.ID)
	if err == nil {
		t.Fatal("expected cycle to be detected")
	}
	appErr, ok := apperror.AsAppError(err)
	if !ok || appErr.Code != apperror.CodeCircularRecipe {
		t.Fatalf("expected CIRCULAR_RECIPE_REFERENCE, got %v", err)
	}
	if appErr.Details["chain"] == nil {
		t.Error("cycle error should report the reference chain")
	}
}

func TestEngine_CalculateCost_DepthLimit(t *testing.T) {
	tenantID := id.New()
	store := &recipeStore{}

	leafIngredient := id.New()
	prev := recipe.New(tenantID, "R-0", "Level 0", recipe.TypePreparation, 1)
	prev.Ingredients = []recipe.Ingredient{{IngredientID: leafIngredient, Quantity: parseQty(t, "1")}}
	store.add(prev)

	var top *recipe.Recipe
	for i := 1; i <= maxRecipeDepth+1; i++ {
		r := recipe.New(tenantID, "R-N", "Level N", recipe.TypePreparation, 1)
		r.Components = []recipe.Component{{ComponentID: prev.ID, Fraction: parseQty(t, "1")}}
		store.add(r)
		prev = r
		top = r
	}

	engine := NewEngine(store, &priceList{prices: map[id.ID]int64{leafIngredient: 10}})

	_, err := engine.CalculateCost(context.Background(), tenantID, top.ID)
	if err == nil {
		t.Fatal("expected depth limit to trip")
	}
	appErr, ok := apperror.AsAppError(err)
	if !ok || appErr.Code != apperror.CodeRecipeTooDeep {
		t.Fatalf("expected RECIPE_DEPTH_EXCEEDED, got %v", err)
	}
}

func TestEngine_CalculateCost_DiamondPricedOnce(t *testing.T) {
	tenantID := id.New()
	stockBone := id.New()

	stock := recipe.New(tenantID, "R-STOCK", "Stock", recipe.TypePreparation, 1)
	stock.Ingredients = []recipe.Ingredient{{IngredientID: stockBone, Quantity: parseQty(t, "1")}}

	left := recipe.New(tenantID, "R-L", "Left", recipe.TypePreparation, 1)
	left.Components = []recipe.Component{{ComponentID: stock.ID, Fraction: parseQty(t, "1")}}
	right := recipe.New(tenantID, "R-R", "Right", recipe.TypePreparation, 1)
	right.Components = []recipe.Component{{ComponentID: stock.ID, Fraction: parseQty(t, "1")}}

	top := recipe.New(tenantID, "R-T", "Top", recipe.TypeFinal, 1)
	top.Components = []recipe.Component{
		{ComponentID: left.ID, Fraction: parseQty(t, "1")},
		{ComponentID: right.ID, Fraction: parseQty(t, "1")},
	}

	store := &recipeStore{}
	store.add(stock)
	store.add(left)
	store.add(right)
	store.add(top)
	coster := &priceList{prices: map[id.ID]int64{stockBone: 500}}
	engine := NewEngine(store, coster)

	cost, err := engine.CalculateCost(context.Background(), tenantID, top.ID)
	if err != nil {
		t.Fatalf("calculate cost: %v", err)
	}

	// Both branches consume the full stock batch.
	if cost.TotalCost != 1000 {
		t.Errorf("total cost: want 1000, got %d", cost.TotalCost)
	}
	if coster.calls != 1 {
		t.Errorf("shared component should be priced once, resolver called %d times", coster.calls)
	}
}

func TestEngine_CostBreakdown(t *testing.T) {
	tenantID := id.New()
	flour, sauceBase := id.New(), id.New()

	sauce := recipe.New(tenantID, "R-SAUCE", "Sauce", recipe.TypePreparation, 1)
	sauce.Ingredients = []recipe.Ingredient{{IngredientID: sauceBase, Quantity: parseQty(t, "2")}}

	pasta := recipe.New(tenantID, "R-PASTA", "Pasta", recipe.TypeFinal, 4)
	pasta.Ingredients = []recipe.Ingredient{{IngredientID: flour, Quantity: parseQty(t, "1")}}
	pasta.Components = []recipe.Component{{ComponentID: sauce.ID, Fraction: parseQty(t, "0.5")}}

	store := &recipeStore{}
	store.add(sauce)
	store.add(pasta)
	engine := NewEngine(store, &priceList{prices: map[id.ID]int64{flour: 80, sauceBase: 150}})

	breakdown, err := engine.CostBreakdown(context.Background(), tenantID, pasta.ID)
	if err != nil {
		t.Fatalf("cost breakdown: %v", err)
	}

	if len(breakdown.Lines) != 2 {
		t.Fatalf("expected 2 lines, got %d", len(breakdown.Lines))
	}
	if breakdown.Lines[0].Kind != "ingredient" || breakdown.Lines[0].Cost != 80 {
		t.Errorf("ingredient line: %+v", breakdown.Lines[0])
	}
	if breakdown.Lines[1].Kind != "component" || breakdown.Lines[1].Cost != 150 {
		t.Errorf("component line: %+v", breakdown.Lines[1])
	}

	var sum types.MinorUnits
	for _, line := range breakdown.Lines {
		sum += line.Cost
	}
	if sum != breakdown.TotalCost {
		t.Errorf("line costs should sum to the total: %d vs %d", sum, breakdown.TotalCost)
	}
}
