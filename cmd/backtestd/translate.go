package main

import (
	"github.com/algosenses/xBacktest-sub001/internal/analyzer"
	"github.com/algosenses/xBacktest-sub001/internal/backtest"
)

func toRunResponse(result backtest.Result) runResponse {
	return runResponse{
		RunID:             result.RunID,
		FinalEquity:       result.FinalEquity,
		FinalCash:         result.FinalCash,
		MaxDrawdown:       result.MaxDrawdown,
		MaxDrawdownPct:    result.MaxDrawdownPct,
		SharpeRatio:       result.SharpeRatio,
		TotalTradeNum:     result.TotalTradeNum,
		TotalNetProfits:   result.TotalNetProfits,
		TotalTradedVolume: result.TotalTradedVolume,
		TotalTradeCost:    result.TotalTradeCost,
		Profits:           toClosedTrades(result.Profits),
		Losses:            toClosedTrades(result.Losses),
		EvenTrades:        toClosedTrades(result.EvenTrades),
		DailyMetrics:      toDailyMetrics(result.DailyMetrics),
	}
}

func toClosedTrades(trades []analyzer.ClosePosTrade) []closedTradeResponse {
	out := make([]closedTradeResponse, 0, len(trades))
	for _, t := range trades {
		out = append(out, closedTradeResponse{
			Instrument:     t.Instrument,
			RealizedProfit: t.RealizedProfit,
			TradedVolume:   t.TradedVolume,
			Commissions:    t.Commissions,
			Slippages:      t.Slippages,
		})
	}
	return out
}

func toDailyMetrics(metrics []analyzer.DailyMetrics) []dailyMetricResponse {
	out := make([]dailyMetricResponse, 0, len(metrics))
	for _, dm := range metrics {
		out = append(out, dailyMetricResponse{
			Date:        dm.Date,
			Equity:      dm.Equity,
			RealizedPnL: dm.RealizedPnL,
			TradeCount:  dm.TradeCount,
		})
	}
	return out
}
