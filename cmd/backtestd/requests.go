package main

import "time"

// createRunRequest is the POST /runs request body (SPEC_FULL.md Part C.3):
// strategy, instrument, date range and contract config.
type createRunRequest struct {
	StrategyID  string          `json:"strategy_id" validate:"required"`
	Instrument  string          `json:"instrument" validate:"required"`
	From        time.Time       `json:"from" validate:"required"`
	To          time.Time       `json:"to" validate:"required,gtfield=From"`
	InitialCash float64         `json:"initial_cash" validate:"gt=0"`
	Quantity    float64         `json:"quantity" validate:"gt=0"`
	Contract    contractRequest `json:"contract" validate:"required"`
}

// contractRequest is the per-instrument economics a run is priced against.
type contractRequest struct {
	Multiplier float64 `json:"multiplier" validate:"gt=0"`
	TickSize   float64 `json:"tick_size" validate:"gt=0"`
	Commission float64 `json:"commission" validate:"gte=0"`
	Slippage   float64 `json:"slippage" validate:"gte=0"`
}

// closedTradeResponse mirrors analyzer.ClosePosTrade for the wire, without
// exposing the full per-fill TradeRecord slice a client rarely needs.
type closedTradeResponse struct {
	Instrument     string  `json:"instrument"`
	RealizedProfit float64 `json:"realized_profit"`
	TradedVolume   float64 `json:"traded_volume"`
	Commissions    float64 `json:"commissions"`
	Slippages      float64 `json:"slippages"`
}

// dailyMetricResponse mirrors analyzer.DailyMetrics.
type dailyMetricResponse struct {
	Date        time.Time `json:"date"`
	Equity      float64   `json:"equity"`
	RealizedPnL float64   `json:"realized_pnl"`
	TradeCount  int       `json:"trade_count"`
}

// runResponse is the body both POST /runs and GET /runs/{id} return.
type runResponse struct {
	RunID             string                `json:"run_id"`
	FinalEquity       float64               `json:"final_equity"`
	FinalCash         float64               `json:"final_cash"`
	MaxDrawdown       float64               `json:"max_drawdown"`
	MaxDrawdownPct    float64               `json:"max_drawdown_pct"`
	SharpeRatio       float64               `json:"sharpe_ratio"`
	TotalTradeNum     int                   `json:"total_trade_num"`
	TotalNetProfits   float64               `json:"total_net_profits"`
	TotalTradedVolume float64               `json:"total_traded_volume"`
	TotalTradeCost    float64               `json:"total_trade_cost"`
	Profits           []closedTradeResponse `json:"profits"`
	Losses            []closedTradeResponse `json:"losses"`
	EvenTrades        []closedTradeResponse `json:"even_trades"`
	DailyMetrics      []dailyMetricResponse `json:"daily_metrics"`
}

// errorResponse is the uniform error envelope for non-2xx responses.
type errorResponse struct {
	Error string `json:"error"`
}
