package main

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/algosenses/xBacktest-sub001/internal/backtest"
	"github.com/algosenses/xBacktest-sub001/internal/observability"
	"github.com/algosenses/xBacktest-sub001/internal/signalstrategy"
	"github.com/algosenses/xBacktest-sub001/internal/store"
)

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}

func writeError(w http.ResponseWriter, status int, err error) {
	writeJSON(w, status, errorResponse{Error: err.Error()})
}

// handleCreateRun returns the POST /runs handler: validate, fetch bars, run
// the engine synchronously, persist, respond. Backtests are CPU-bound and
// finite, so there is no async job queue in front of Engine.Run (SPEC_FULL.md
// Part C.3).
func handleCreateRun(deps *runsDeps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req createRunRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeError(w, http.StatusBadRequest, err)
			return
		}
		if err := deps.validate.Struct(req); err != nil {
			writeError(w, http.StatusBadRequest, err)
			return
		}

		inner, err := deps.strategies.Get(req.StrategyID)
		if err != nil {
			writeError(w, http.StatusBadRequest, err)
			return
		}

		ctx := r.Context()
		bars, err := deps.fetchBars(ctx, req.Instrument, req.From, req.To)
		if err != nil {
			writeError(w, http.StatusBadGateway, err)
			return
		}
		if len(bars) == 0 {
			writeError(w, http.StatusUnprocessableEntity, errors.New("backtestd: no bars for the requested instrument and date range"))
			return
		}

		adapter := signalstrategy.New(req.Instrument, inner, req.Quantity)
		adapter.UseSessionGate(deps.sessionGate)
		contracts := defaultContract(req.Instrument, req.Contract)

		engine := backtest.New(backtest.Config{
			InitialCash: req.InitialCash,
			DailySharpe: true,
		}, contracts, adapter)
		adapter.BindActions(engine.Actions())
		engine.AddSeries(req.Instrument, bars)

		start := time.Now()
		result, err := engine.Run()
		duration := time.Since(start)
		if err != nil {
			writeError(w, http.StatusUnprocessableEntity, err)
			return
		}

		deps.metrics.ObserveRun(duration.Seconds(), result.SharpeRatio)
		deps.logger.LogEvent(ctx, observability.Info, "run_complete", map[string]any{
			"run_id":       result.RunID,
			"instrument":   req.Instrument,
			"trade_count":  result.TotalTradeNum,
			"sharpe_ratio": result.SharpeRatio,
		})

		if err := deps.store.SaveRun(ctx, req.Instrument, result); err != nil {
			writeError(w, http.StatusInternalServerError, err)
			return
		}

		writeJSON(w, http.StatusCreated, toRunResponse(result))
	}
}

// handleGetRun returns the GET /runs/{id} handler.
func handleGetRun(deps *runsDeps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		runID := r.PathValue("id")
		if runID == "" {
			writeError(w, http.StatusBadRequest, errors.New("backtestd: missing run id"))
			return
		}

		result, err := deps.store.GetRun(r.Context(), runID)
		if err != nil {
			if errors.Is(err, store.ErrRunNotFound) {
				writeError(w, http.StatusNotFound, err)
				return
			}
			writeError(w, http.StatusInternalServerError, err)
			return
		}

		writeJSON(w, http.StatusOK, toRunResponse(result))
	}
}
