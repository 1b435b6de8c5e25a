package dish

import (
	"github.com/shopspring/decimal"

	"mise/internal/core/id"
	"mise/internal/core/types"
)

// Warning is an advisory raised by the financial analysis. Warnings
// never fail the analysis; they flag dishes worth a pricing review.
type Warning string

const (
	// LowMarginWarning fires when the profit margin falls below the
	// configured floor.
	LowMarginWarning Warning = "LOW_MARGIN"
	// HighFoodCostWarning fires when food cost exceeds the configured
	// ceiling. The boundary itself does not fire.
	HighFoodCostWarning Warning = "HIGH_FOOD_COST"
)

// Thresholds configure warning boundaries, in percent.
type Thresholds struct {
	LowMargin    types.Money
	HighFoodCost types.Money
}

// DefaultThresholds are the conventional restaurant targets: margins
// under 60% and food cost over 35% both warrant a look.
func DefaultThresholds() Thresholds {
	return Thresholds{
		LowMargin:    decimal.NewFromInt(60),
		HighFoodCost: decimal.NewFromInt(35),
	}
}

// Financials is the profitability picture of one dish.
type Financials struct {
	DishID              id.ID            `json:"dishId"`
	Name                string           `json:"name"`
	SellingPrice        types.MinorUnits `json:"sellingPrice"`
	RecipeCost          types.MinorUnits `json:"recipeCost"`
	Profit              types.MinorUnits `json:"profit"`
	ProfitMarginPercent types.Money      `json:"profitMarginPercent"`
	FoodCostPercent     types.Money      `json:"foodCostPercent"`
	Warnings            []Warning        `json:"warnings,omitempty"`
}

var hundred = decimal.NewFromInt(100)

// computeFinancials derives profit, margin and food cost from selling
// price and recipe cost. Both percentages come from the same division,
// so margin + food cost is exactly 100 before any display rounding.
// Pure function over its inputs.
func computeFinancials(dishID id.ID, name string, sellingPrice, recipeCost types.MinorUnits, t Thresholds) Financials {
	f := Financials{
		DishID:       dishID,
		Name:         name,
		SellingPrice: sellingPrice,
		RecipeCost:   recipeCost,
		Profit:       sellingPrice - recipeCost,
	}

	foodCost := recipeCost.Decimal().Mul(hundred).Div(sellingPrice.Decimal())
	f.FoodCostPercent = foodCost
	f.ProfitMarginPercent = hundred.Sub(foodCost)

	if f.ProfitMarginPercent.LessThan(t.LowMargin) {
		f.Warnings = append(f.Warnings, LowMarginWarning)
	}
	if f.FoodCostPercent.GreaterThan(t.HighFoodCost) {
		f.Warnings = append(f.Warnings, HighFoodCostWarning)
	}
	return f
}
