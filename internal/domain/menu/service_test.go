package menu

import (
	"context"
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"mise/internal/core/apperror"
	"mise/internal/core/id"
	"mise/internal/domain/dish"
)

type staticSales struct {
	rows []SalesRow
}

func (s *staticSales) SalesByDish(ctx context.Context, tenantID id.ID, period Period) ([]SalesRow, error) {
	return s.rows, nil
}

type staticMargins struct {
	margins map[id.ID]int64
	errs    map[id.ID]error
}

func (s *staticMargins) Analyze(ctx context.Context, tenantID, dishID id.ID) (*dish.Financials, error) {
	if err, ok := s.errs[dishID]; ok {
		return nil, err
	}
	return &dish.Financials{
		DishID:              dishID,
		ProfitMarginPercent: decimal.NewFromInt(s.margins[dishID]),
	}, nil
}

func testPeriod() Period {
	return Period{
		From: time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC),
		To:   time.Date(2026, 4, 1, 0, 0, 0, 0, time.UTC),
	}
}

func TestClassify(t *testing.T) {
	burger, salad := id.New(), id.New()
	repo := &staticSales{rows: []SalesRow{
		{DishID: burger, DishName: "Burger", Volume: 100, Revenue: 1000000},
		{DishID: salad, DishName: "Salad", Volume: 10, Revenue: 50000},
	}}
	margins := &staticMargins{margins: map[id.ID]int64{burger: 70, salad: 40}}

	svc := NewService(repo, margins, DefaultClassifierConfig())

	out, err := svc.Classify(context.Background(), id.New(), testPeriod())
	if err != nil {
		t.Fatalf("classify: %v", err)
	}
	if len(out) != 2 {
		t.Fatalf("expected 2 results, got %d", len(out))
	}

	got := byName(out)
	if got["Burger"].Quadrant != QuadrantStar {
		t.Errorf("Burger: want star, got %s", got["Burger"].Quadrant)
	}
	if got["Salad"].Quadrant != QuadrantDog {
		t.Errorf("Salad: want dog, got %s", got["Salad"].Quadrant)
	}
}

func TestClassify_SkipsUnpriceableDishes(t *testing.T) {
	priced, unpriced := id.New(), id.New()
	repo := &staticSales{rows: []SalesRow{
		{DishID: priced, DishName: "Priced", Volume: 50, Revenue: 500000},
		{DishID: unpriced, DishName: "Unpriced", Volume: 40, Revenue: 400000},
	}}
	margins := &staticMargins{
		margins: map[id.ID]int64{priced: 65},
		errs:    map[id.ID]error{unpriced: apperror.NewNoStockAvailable("flour")},
	}

	svc := NewService(repo, margins, DefaultClassifierConfig())

	out, err := svc.Classify(context.Background(), id.New(), testPeriod())
	if err != nil {
		t.Fatalf("classify: %v", err)
	}
	if len(out) != 1 {
		t.Fatalf("unpriceable dish should be skipped, got %d results", len(out))
	}
	if out[0].Name != "Priced" {
		t.Errorf("surviving dish: want Priced, got %s", out[0].Name)
	}
}

func TestClassify_PropagatesOtherErrors(t *testing.T) {
	broken := id.New()
	repo := &staticSales{rows: []SalesRow{
		{DishID: broken, DishName: "Broken", Volume: 1, Revenue: 1000},
	}}
	margins := &staticMargins{
		errs: map[id.ID]error{broken: apperror.NewInternal(nil)},
	}

	svc := NewService(repo, margins, DefaultClassifierConfig())

	if _, err := svc.Classify(context.Background(), id.New(), testPeriod()); err == nil {
		t.Fatal("non-skippable analysis errors must fail the report")
	}
}

func TestClassify_RejectsInvalidPeriod(t *testing.T) {
	svc := NewService(&staticSales{}, &staticMargins{}, DefaultClassifierConfig())

	p := testPeriod()
	p.From, p.To = p.To, p.From
	if _, err := svc.Classify(context.Background(), id.New(), p); err == nil {
		t.Fatal("expected inverted period to be rejected")
	}

	p.To = p.From
	if _, err := svc.Classify(context.Background(), id.New(), p); err == nil {
		t.Fatal("expected empty period to be rejected")
	}
}
