package postgres

import (
	"context"

	"mise/internal/core/clock"
	"mise/internal/domain/ledger"
	"mise/pkg/numerator"
)

// LotNumerator adapts the numerator service to the ledger's lot code
// source. Codes are sequential per tenant deployment, reset yearly:
// LOT-2026-00001.
type LotNumerator struct {
	svc *numerator.Service
	cfg numerator.Config
	clk clock.Clock
}

var _ ledger.LotSource = (*LotNumerator)(nil)

// NewLotNumerator creates a lot code source over the pool.
func NewLotNumerator(pool *Pool, clk clock.Clock) *LotNumerator {
	return &LotNumerator{
		svc: numerator.New(pool),
		cfg: numerator.DefaultConfig("LOT"),
		clk: clk,
	}
}

// NextLotCode implements ledger.LotSource.
func (l *LotNumerator) NextLotCode(ctx context.Context) (string, error) {
	return l.svc.GetNextNumber(ctx, l.cfg, nil, l.clk.Now())
}
