// cmd/backtestd is the HTTP surface for triggering and retrieving backtest
// runs (SPEC_FULL.md Part C.3), grounded on cmd/research's handler style:
// a small xxxDeps struct holding a handler's wired collaborators, a
// newXxxDeps constructor, and a handleXxx(deps) constructor returning the
// http.HandlerFunc closed over it.
package main

import (
	"context"
	"time"

	"github.com/go-playground/validator/v10"

	"github.com/algosenses/xBacktest-sub001/internal/backtest"
	"github.com/algosenses/xBacktest-sub001/internal/bar"
	"github.com/algosenses/xBacktest-sub001/internal/contract"
	"github.com/algosenses/xBacktest-sub001/internal/metrics"
	"github.com/algosenses/xBacktest-sub001/internal/observability"
	"github.com/algosenses/xBacktest-sub001/internal/session"
	"github.com/algosenses/xBacktest-sub001/libs/strategies"
)

// barFetcher retrieves instrument's bars over [from, to) from whichever
// market data provider the server was configured with. Swapping providers
// (Polygon, Alpaca, a canned fixture in tests) only means supplying a
// different barFetcher.
type barFetcher func(ctx context.Context, instrument string, from, to time.Time) ([]bar.Bar, error)

// runStore is the subset of *store.Store the /runs handlers need, kept as
// an interface so handler tests can substitute an in-memory fake instead of
// a live Postgres connection.
type runStore interface {
	SaveRun(ctx context.Context, instrument string, result backtest.Result) error
	GetRun(ctx context.Context, runID string) (backtest.Result, error)
}

// runsDeps bundles the collaborators both /runs handlers need.
type runsDeps struct {
	store       runStore
	metrics     *metrics.Registry
	logger      *observability.Logger
	fetchBars   barFetcher
	strategies  *strategies.Registry
	validate    *validator.Validate
	sessionGate *session.SessionGate // nil means runs are never blackout-gated
}

func newRunsDeps(st runStore, reg *metrics.Registry, logger *observability.Logger, fetchBars barFetcher, stratReg *strategies.Registry, gate *session.SessionGate) *runsDeps {
	return &runsDeps{
		store:       st,
		metrics:     reg,
		logger:      logger,
		fetchBars:   fetchBars,
		strategies:  stratReg,
		validate:    validator.New(),
		sessionGate: gate,
	}
}

// defaultContract builds a contract.Registry entry from a request's
// contract block, independent of whatever instruments a prior run touched:
// each request is self-contained (SPEC_FULL.md Part C.3, "contract config"
// travels with the request, not as shared server state).
func defaultContract(instrument string, req contractRequest) *contract.Registry {
	reg := contract.NewRegistry()
	reg.Register(contract.Contract{
		Instrument: instrument,
		Multiplier: req.Multiplier,
		TickSize:   req.TickSize,
		Commission: contract.PerShare{Rate: req.Commission},
		Slippage:   contract.VolumeShare{PriceImpact: req.Slippage},
	})
	return reg
}
