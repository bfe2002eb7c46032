package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"time"

	polygon "github.com/polygon-io/client-go/rest"
	"github.com/polygon-io/client-go/rest/models"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/algosenses/xBacktest-sub001/internal/bar"
	appconfig "github.com/algosenses/xBacktest-sub001/internal/config"
	"github.com/algosenses/xBacktest-sub001/internal/datafeed"
	"github.com/algosenses/xBacktest-sub001/internal/metrics"
	"github.com/algosenses/xBacktest-sub001/internal/observability"
	"github.com/algosenses/xBacktest-sub001/internal/session"
	"github.com/algosenses/xBacktest-sub001/internal/store"
	"github.com/algosenses/xBacktest-sub001/libs/auth"
	"github.com/algosenses/xBacktest-sub001/libs/calendar"
	"github.com/algosenses/xBacktest-sub001/libs/eventtrader"
	"github.com/algosenses/xBacktest-sub001/libs/strategies"
)

func main() {
	cfg, err := appconfig.FromEnv()
	if err != nil {
		log.Fatalf("backtestd: config: %v", err)
	}

	logger := observability.New(os.Stdout)
	reg := metrics.NewRegistry(prometheus.DefaultRegisterer)

	ctx := context.Background()
	st, err := store.Connect(ctx, store.Config{DSN: cfg.DatabaseURL})
	if err != nil {
		log.Fatalf("backtestd: store connect: %v", err)
	}
	defer st.Close()

	jwtManager, err := auth.NewJWTManager(auth.Config{Secret: []byte(cfg.JWTSecret)})
	if err != nil {
		log.Fatalf("backtestd: jwt manager: %v", err)
	}

	stratReg := strategies.NewRegistry()
	registerStrategy(stratReg, strategies.NewMACrossoverStrategy())
	registerStrategy(stratReg, strategies.NewMACDCrossoverStrategy())
	registerStrategy(stratReg, strategies.NewRSIMomentumStrategy())

	fetchBars := newPolygonBarFetcher()
	gate := newSessionGate()

	deps := newRunsDeps(st, reg, logger, fetchBars, stratReg, gate)

	mux := http.NewServeMux()
	mux.Handle("POST /runs", jwtManager.MiddlewareFunc(handleCreateRun(deps)))
	mux.Handle("GET /runs/{id}", jwtManager.MiddlewareFunc(handleGetRun(deps)))
	mux.Handle("GET /metrics", promhttp.Handler())

	log.Printf("backtestd: listening on %s", cfg.ListenAddr)
	if err := http.ListenAndServe(cfg.ListenAddr, mux); err != nil {
		log.Fatalf("backtestd: serve: %v", err)
	}
}

// registerStrategy registers s under its own metadata, deriving the
// registry entry straight from GetMetadata so the server never hand-copies
// strategy identity in two places.
func registerStrategy(reg *strategies.Registry, s interface {
	strategies.Strategy
	GetMetadata() strategies.StrategyMetadata
}) {
	if err := reg.Register(s, s.GetMetadata()); err != nil {
		log.Fatalf("backtestd: register strategy %s: %v", s.ID(), err)
	}
}

// newPolygonBarFetcher wires a cached, circuit-broken Polygon aggregates
// fetch as the server's default barFetcher (SPEC_FULL.md Part C.1). The
// redis cache is optional: POLYGON_REDIS_ADDR unset means run uncached.
func newPolygonBarFetcher() barFetcher {
	client := polygon.New(os.Getenv("POLYGON_API_KEY"))

	var cache *datafeed.Cache
	if addr := os.Getenv("POLYGON_REDIS_ADDR"); addr != "" {
		c, err := datafeed.NewCache(context.Background(), addr)
		if err != nil {
			log.Printf("backtestd: redis cache unavailable, running uncached: %v", err)
		} else {
			cache = c
		}
	}

	return func(ctx context.Context, instrument string, from, to time.Time) ([]bar.Bar, error) {
		return datafeed.FetchPolygonBars(ctx, client, cache, instrument, from, to, 1, models.Day)
	}
}

// newSessionGate wires an optional pre-event blackout gate every
// signalstrategy.Adapter consults before acting on a signal
// (SPEC_FULL.md Part C.5). BACKTEST_CALENDAR_DIR unset means runs are
// never blackout-gated, the same opt-in pattern newPolygonBarFetcher
// uses for its redis cache.
func newSessionGate() *session.SessionGate {
	dir := os.Getenv("BACKTEST_CALENDAR_DIR")
	if dir == "" {
		return nil
	}
	calStore, err := calendar.OpenStore(dir)
	if err != nil {
		log.Printf("backtestd: calendar store unavailable, running ungated: %v", err)
		return nil
	}
	return session.NewSessionGate(calStore, eventtrader.DefaultPhaseDetectorConfig(), eventtrader.DefaultEventGateConfig())
}
