package menu

import (
	"sort"

	"github.com/shopspring/decimal"

	"mise/internal/core/types"
)

// dishMetrics is one dish's inputs to the ranking.
type dishMetrics struct {
	row    SalesRow
	margin types.Money
}

// rank assigns quadrants and ABC classes. Pure function over the
// collected metrics; both axes are computed within the given set only.
func rank(metrics []dishMetrics, cfg ClassifierConfig) []DishPerformance {
	if len(metrics) == 0 {
		return []DishPerformance{}
	}

	n := decimal.NewFromInt(int64(len(metrics)))
	sumMargin := decimal.Zero
	sumVolume := decimal.Zero
	totalRevenue := decimal.Zero
	for _, m := range metrics {
		sumMargin = sumMargin.Add(m.margin)
		sumVolume = sumVolume.Add(decimal.NewFromInt(m.row.Volume))
		totalRevenue = totalRevenue.Add(m.row.Revenue.Decimal())
	}
	avgMargin := sumMargin.Div(n)
	avgVolume := sumVolume.Div(n)

	out := make([]DishPerformance, len(metrics))
	for i, m := range metrics {
		highMargin := m.margin.GreaterThanOrEqual(avgMargin)
		highVolume := decimal.NewFromInt(m.row.Volume).GreaterThanOrEqual(avgVolume)

		var q Quadrant
		switch {
		case highMargin && highVolume:
			q = QuadrantStar
		case !highMargin && highVolume:
			q = QuadrantPlowhorse
		case highMargin && !highVolume:
			q = QuadrantPuzzle
		default:
			q = QuadrantDog
		}

		out[i] = DishPerformance{
			DishID:              m.row.DishID,
			Name:                m.row.DishName,
			Quadrant:            q,
			ProfitMarginPercent: m.margin,
			SalesVolume:         m.row.Volume,
			Revenue:             m.row.Revenue,
		}
	}

	assignABC(out, totalRevenue, cfg)
	for i := range out {
		out[i].Recommendation = recommend(out[i].Quadrant, out[i].ABCClass)
	}
	return out
}

// assignABC classes dishes by cumulative revenue share, highest
// earners first. Indexing into out follows the sorted order but out
// itself keeps the caller's ordering.
func assignABC(out []DishPerformance, totalRevenue decimal.Decimal, cfg ClassifierConfig) {
	order := make([]int, len(out))
	for i := range order {
		order[i] = i
	}
	sort.SliceStable(order, func(a, b int) bool {
		return out[order[a]].Revenue > out[order[b]].Revenue
	})

	cumulative := decimal.Zero
	for _, idx := range order {
		share := decimal.Zero
		if totalRevenue.IsPositive() {
			share = out[idx].Revenue.Decimal().Div(totalRevenue)
		}
		cumulative = cumulative.Add(share)
		out[idx].RevenueShare = share

		switch {
		case cumulative.LessThanOrEqual(cfg.AShare):
			out[idx].ABCClass = ClassA
		case cumulative.LessThanOrEqual(cfg.BShare):
			out[idx].ABCClass = ClassB
		default:
			out[idx].ABCClass = ClassC
		}
	}
}

// recommend maps (quadrant, ABC) to a menu strategy line.
func recommend(q Quadrant, c ABCClass) string {
	switch q {
	case QuadrantStar:
		switch c {
		case ClassA:
			return "protect and promote: flagship item, keep quality and visibility high"
		case ClassB:
			return "promote harder: performing well, room to grow revenue share"
		default:
			return "solid performer with small revenue: consider upselling or bundling"
		}
	case QuadrantPlowhorse:
		switch c {
		case ClassA:
			return "reprice carefully or rework the recipe to lift margin without losing volume"
		case ClassB:
			return "trim portion cost or nudge the price: volume is there, margin is not"
		default:
			return "low margin and modest revenue: rework the recipe or reposition"
		}
	case QuadrantPuzzle:
		switch c {
		case ClassA:
			return "high margin, underexposed: reposition on the menu and train upsell"
		case ClassB:
			return "test placement and presentation changes to build popularity"
		default:
			return "profitable but unnoticed: promote or fold into a combo before cutting"
		}
	default: // Dog
		switch c {
		case ClassA:
			return "weak on both axes yet revenue-heavy: investigate before touching"
		case ClassB:
			return "candidate for replacement: redesign or retire at next menu revision"
		default:
			return "consider removing from the menu"
		}
	}
}
