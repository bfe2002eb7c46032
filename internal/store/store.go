// Package store persists completed backtest runs to Postgres (SPEC_FULL.md
// Part C.2): the run's headline metrics, its daily metric series and its
// closed trades. Grounded on libs/database/connection.go's
// connect-with-retry pattern, adapted from database/sql + the teacher's
// driver (github.com/jackc/pgx/v5/stdlib) to pgxpool's native interface,
// since a reporting store only ever needs pgx's own connection pool, not
// database/sql's generic abstraction.
package store

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"

	"github.com/algosenses/xBacktest-sub001/internal/analyzer"
	"github.com/algosenses/xBacktest-sub001/internal/backtest"
)

// Config is the store's connection configuration, mirroring the retry and
// pool-sizing knobs libs/database.Config exposes for the same purpose.
type Config struct {
	DSN           string
	MaxConns      int32
	RetryAttempts int
	RetryDelay    time.Duration
}

// DefaultConfig returns the same production defaults libs/database.DefaultConfig uses.
func DefaultConfig() Config {
	return Config{
		MaxConns:      25,
		RetryAttempts: 3,
		RetryDelay:    time.Second,
	}
}

// Store wraps a pgx connection pool with the result-persistence operations
// a backtest run needs.
type Store struct {
	pool *pgxpool.Pool
}

// Connect opens a pool against cfg.DSN with exponential-backoff retry, the
// same shape as libs/database/connection.go's Connect.
func Connect(ctx context.Context, cfg Config) (*Store, error) {
	if cfg.DSN == "" {
		return nil, fmt.Errorf("store: empty DSN")
	}

	poolCfg, err := pgxpool.ParseConfig(cfg.DSN)
	if err != nil {
		return nil, fmt.Errorf("store: parse DSN: %w", err)
	}
	if cfg.MaxConns > 0 {
		poolCfg.MaxConns = cfg.MaxConns
	}

	delay := cfg.RetryDelay
	if delay <= 0 {
		delay = time.Second
	}

	var pool *pgxpool.Pool
	attempts := cfg.RetryAttempts
	if attempts <= 0 {
		attempts = 3
	}

	for attempt := 0; attempt <= attempts; attempt++ {
		if attempt > 0 {
			select {
			case <-ctx.Done():
				return nil, ctx.Err()
			case <-time.After(delay):
				delay *= 2
			}
		}

		pool, err = pgxpool.NewWithConfig(ctx, poolCfg)
		if err != nil {
			continue
		}
		if err = pool.Ping(ctx); err != nil {
			pool.Close()
			continue
		}
		return &Store{pool: pool}, nil
	}
	return nil, fmt.Errorf("store: connect after %d attempts: %w", attempts+1, err)
}

// Close releases the pool.
func (s *Store) Close() {
	s.pool.Close()
}

// SaveRun persists a completed run's headline metrics, daily metrics and
// closed trades in one transaction.
func (s *Store) SaveRun(ctx context.Context, instrument string, result backtest.Result) error {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("store: begin tx: %w", err)
	}
	defer tx.Rollback(ctx)

	_, err = tx.Exec(ctx, `
		INSERT INTO runs (run_id, instrument, final_equity, final_cash, max_drawdown, max_drawdown_pct, sharpe_ratio, total_trade_num, total_net_profits, total_traded_volume, total_trade_cost, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, now())
		ON CONFLICT (run_id) DO UPDATE SET
			final_equity = EXCLUDED.final_equity,
			final_cash = EXCLUDED.final_cash,
			max_drawdown = EXCLUDED.max_drawdown,
			max_drawdown_pct = EXCLUDED.max_drawdown_pct,
			sharpe_ratio = EXCLUDED.sharpe_ratio,
			total_trade_num = EXCLUDED.total_trade_num,
			total_net_profits = EXCLUDED.total_net_profits,
			total_traded_volume = EXCLUDED.total_traded_volume,
			total_trade_cost = EXCLUDED.total_trade_cost`,
		result.RunID, instrument,
		toDecimal(result.FinalEquity), toDecimal(result.FinalCash),
		toDecimal(result.MaxDrawdown), toDecimal(result.MaxDrawdownPct),
		toDecimal(result.SharpeRatio), result.TotalTradeNum,
		toDecimal(result.TotalNetProfits), toDecimal(result.TotalTradedVolume), toDecimal(result.TotalTradeCost),
	)
	if err != nil {
		return fmt.Errorf("store: insert run: %w", err)
	}

	for _, dm := range result.DailyMetrics {
		if err := s.insertDailyMetric(ctx, tx, result.RunID, dm); err != nil {
			return err
		}
	}

	categorized := []struct {
		category string
		trades   []analyzer.ClosePosTrade
	}{
		{"profit", result.Profits},
		{"loss", result.Losses},
		{"even", result.EvenTrades},
	}
	for _, group := range categorized {
		for _, trade := range group.trades {
			if err := s.insertClosedTrade(ctx, tx, result.RunID, group.category, trade); err != nil {
				return err
			}
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("store: commit tx: %w", err)
	}
	return nil
}

func (s *Store) insertDailyMetric(ctx context.Context, tx pgx.Tx, runID string, dm analyzer.DailyMetrics) error {
	_, err := tx.Exec(ctx, `
		INSERT INTO daily_metrics (run_id, date, equity, realized_pnl, trade_count)
		VALUES ($1, $2, $3, $4, $5)`,
		runID, dm.Date, toDecimal(dm.Equity), toDecimal(dm.RealizedPnL), dm.TradeCount,
	)
	if err != nil {
		return fmt.Errorf("store: insert daily metric: %w", err)
	}
	return nil
}

func (s *Store) insertClosedTrade(ctx context.Context, tx pgx.Tx, runID, category string, trade analyzer.ClosePosTrade) error {
	_, err := tx.Exec(ctx, `
		INSERT INTO closed_trades (run_id, instrument, realized_profit, traded_volume, commissions, slippages, category)
		VALUES ($1, $2, $3, $4, $5, $6, $7)`,
		runID, trade.Instrument, toDecimal(trade.RealizedProfit), toDecimal(trade.TradedVolume),
		toDecimal(trade.Commissions), toDecimal(trade.Slippages), category,
	)
	if err != nil {
		return fmt.Errorf("store: insert closed trade: %w", err)
	}
	return nil
}

// ErrRunNotFound is returned by GetRun when no run with the given id exists.
var ErrRunNotFound = fmt.Errorf("store: run not found")

// GetRun reconstructs a previously saved backtest.Result from its run_id.
func (s *Store) GetRun(ctx context.Context, runID string) (backtest.Result, error) {
	var result backtest.Result
	var finalEquity, finalCash, maxDrawdown, maxDrawdownPct, sharpeRatio decimal.Decimal
	var totalNetProfits, totalTradedVolume, totalTradeCost decimal.Decimal

	row := s.pool.QueryRow(ctx, `
		SELECT run_id, final_equity, final_cash, max_drawdown, max_drawdown_pct, sharpe_ratio,
		       total_trade_num, total_net_profits, total_traded_volume, total_trade_cost
		FROM runs WHERE run_id = $1`, runID)
	if err := row.Scan(&result.RunID, &finalEquity, &finalCash, &maxDrawdown, &maxDrawdownPct, &sharpeRatio,
		&result.TotalTradeNum, &totalNetProfits, &totalTradedVolume, &totalTradeCost); err != nil {
		if err == pgx.ErrNoRows {
			return backtest.Result{}, ErrRunNotFound
		}
		return backtest.Result{}, fmt.Errorf("store: query run: %w", err)
	}
	result.FinalEquity, _ = finalEquity.Float64()
	result.FinalCash, _ = finalCash.Float64()
	result.MaxDrawdown, _ = maxDrawdown.Float64()
	result.MaxDrawdownPct, _ = maxDrawdownPct.Float64()
	result.SharpeRatio, _ = sharpeRatio.Float64()
	result.TotalNetProfits, _ = totalNetProfits.Float64()
	result.TotalTradedVolume, _ = totalTradedVolume.Float64()
	result.TotalTradeCost, _ = totalTradeCost.Float64()

	dmRows, err := s.pool.Query(ctx, `
		SELECT date, equity, realized_pnl, trade_count FROM daily_metrics WHERE run_id = $1 ORDER BY date`, runID)
	if err != nil {
		return backtest.Result{}, fmt.Errorf("store: query daily metrics: %w", err)
	}
	defer dmRows.Close()
	for dmRows.Next() {
		var dm analyzer.DailyMetrics
		var equity, realizedPnL decimal.Decimal
		if err := dmRows.Scan(&dm.Date, &equity, &realizedPnL, &dm.TradeCount); err != nil {
			return backtest.Result{}, fmt.Errorf("store: scan daily metric: %w", err)
		}
		dm.Equity, _ = equity.Float64()
		dm.RealizedPnL, _ = realizedPnL.Float64()
		result.DailyMetrics = append(result.DailyMetrics, dm)
	}
	if err := dmRows.Err(); err != nil {
		return backtest.Result{}, fmt.Errorf("store: iterate daily metrics: %w", err)
	}

	tradeRows, err := s.pool.Query(ctx, `
		SELECT instrument, realized_profit, traded_volume, commissions, slippages, category
		FROM closed_trades WHERE run_id = $1 ORDER BY id`, runID)
	if err != nil {
		return backtest.Result{}, fmt.Errorf("store: query closed trades: %w", err)
	}
	defer tradeRows.Close()
	for tradeRows.Next() {
		var trade analyzer.ClosePosTrade
		var realizedProfit, tradedVolume, commissions, slippages decimal.Decimal
		var category string
		if err := tradeRows.Scan(&trade.Instrument, &realizedProfit, &tradedVolume, &commissions, &slippages, &category); err != nil {
			return backtest.Result{}, fmt.Errorf("store: scan closed trade: %w", err)
		}
		trade.RealizedProfit, _ = realizedProfit.Float64()
		trade.TradedVolume, _ = tradedVolume.Float64()
		trade.Commissions, _ = commissions.Float64()
		trade.Slippages, _ = slippages.Float64()
		switch category {
		case "profit":
			result.Profits = append(result.Profits, trade)
		case "loss":
			result.Losses = append(result.Losses, trade)
		default:
			result.EvenTrades = append(result.EvenTrades, trade)
		}
	}
	if err := tradeRows.Err(); err != nil {
		return backtest.Result{}, fmt.Errorf("store: iterate closed trades: %w", err)
	}

	return result, nil
}

// toDecimal converts a kernel float64 into the persisted decimal
// representation, so stored ledgers do not accumulate float round-off
// across repeated read-modify-write cycles. The simulation kernel itself
// stays on float64 throughout, per spec.md's DateTime/Bar model.
func toDecimal(f float64) decimal.Decimal {
	return decimal.NewFromFloat(f)
}
