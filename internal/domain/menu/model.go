// Package menu classifies dishes by sales performance: the classic
// four-quadrant menu engineering matrix crossed with an independent
// ABC revenue ranking.
package menu

import (
	"time"

	"github.com/shopspring/decimal"

	"mise/internal/core/id"
	"mise/internal/core/types"
)

// Quadrant is the profitability × popularity class of a dish.
type Quadrant string

const (
	// QuadrantStar is high margin, high popularity.
	QuadrantStar Quadrant = "star"
	// QuadrantPlowhorse is low margin, high popularity.
	QuadrantPlowhorse Quadrant = "plowhorse"
	// QuadrantPuzzle is high margin, low popularity.
	QuadrantPuzzle Quadrant = "puzzle"
	// QuadrantDog is low margin, low popularity.
	QuadrantDog Quadrant = "dog"
)

// ABCClass is the Pareto revenue-contribution class.
type ABCClass string

const (
	ClassA ABCClass = "A"
	ClassB ABCClass = "B"
	ClassC ABCClass = "C"
)

// Period is a half-open sales window [From, To).
type Period struct {
	From time.Time
	To   time.Time
}

// ClassifierConfig holds the tunable cutoffs. Values at exactly the
// average go to the high branch of the quadrant matrix; that tie rule
// is fixed, only the ABC shares move.
type ClassifierConfig struct {
	// AShare is the cumulative revenue share up to which dishes class A.
	AShare types.Money
	// BShare is the cumulative revenue share up to which dishes class B.
	BShare types.Money
}

// DefaultClassifierConfig uses the conventional 80/95 Pareto cutoffs.
func DefaultClassifierConfig() ClassifierConfig {
	return ClassifierConfig{
		AShare: decimal.NewFromFloat(0.80),
		BShare: decimal.NewFromFloat(0.95),
	}
}

// SalesRow is the aggregated sales of one dish over a period.
type SalesRow struct {
	DishID       id.ID            `db:"dish_id" json:"dishId"`
	DishName     string           `db:"dish_name" json:"dishName"`
	SellingPrice types.MinorUnits `db:"selling_price" json:"sellingPrice"`
	Volume       int64            `db:"volume" json:"volume"`
	Revenue      types.MinorUnits `db:"revenue" json:"revenue"`
}

// DishPerformance is the classifier output for one dish.
type DishPerformance struct {
	DishID              id.ID            `json:"dishId"`
	Name                string           `json:"name"`
	Quadrant            Quadrant         `json:"quadrant"`
	ABCClass            ABCClass         `json:"abcClass"`
	ProfitMarginPercent types.Money      `json:"profitMarginPercent"`
	SalesVolume         int64            `json:"salesVolume"`
	Revenue             types.MinorUnits `json:"revenue"`
	RevenueShare        types.Money      `json:"revenueShare"`
	Recommendation      string           `json:"recommendation"`
}
