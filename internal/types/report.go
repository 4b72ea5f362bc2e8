package types

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// BuyHoldComparison compares a strategy's total return against the
// buy-and-hold return over the same window.
type BuyHoldComparison struct {
	StrategyReturn    float64 `yaml:"strategy_return" json:"strategy_return"`
	BuyHoldReturn     float64 `yaml:"buy_hold_return" json:"buy_hold_return"`
	Outperformance    float64 `yaml:"outperformance" json:"outperformance"`
	OutperformancePct float64 `yaml:"outperformance_pct" json:"outperformance_pct"`
	BeatsBuyHold      bool    `yaml:"beats_buy_hold" json:"beats_buy_hold"`
}

// PerformanceReport is the composed set of risk-adjusted performance metrics
// for one backtest run. All percentage fields are expressed as percentages,
// not fractions.
type PerformanceReport struct {
	// TotalReturn is the percentage change of the portfolio value series.
	TotalReturn float64 `yaml:"total_return" json:"total_return"`
	// SharpeRatio is annualized over 252 trading days.
	SharpeRatio float64 `yaml:"sharpe_ratio" json:"sharpe_ratio"`
	// MaxDrawdown is the worst peak-to-trough decline. Always <= 0.
	MaxDrawdown float64 `yaml:"max_drawdown" json:"max_drawdown"`
	// WinRate counts winning trades against ALL trades (BUY and SELL).
	// Kept for output compatibility with the historical report format even
	// though only SELL trades can win; see WinRatePerRoundTrip.
	WinRate float64 `yaml:"win_rate" json:"win_rate"`
	// WinRatePerRoundTrip counts winning trades against SELL trades only.
	WinRatePerRoundTrip float64 `yaml:"win_rate_per_round_trip" json:"win_rate_per_round_trip"`
	// TotalTrades is the count of all executed trades.
	TotalTrades int `yaml:"total_trades" json:"total_trades"`
	// AvgGain is the mean profit across profitable trades.
	AvgGain float64 `yaml:"avg_gain" json:"avg_gain"`
	// AvgLoss is the mean absolute loss across losing trades.
	AvgLoss float64 `yaml:"avg_loss" json:"avg_loss"`
	// ProfitFactor is AvgGain / AvgLoss, 0 when there are no losses.
	ProfitFactor float64 `yaml:"profit_factor" json:"profit_factor"`
	// VsBuyHold is present when a buy-and-hold comparison was requested.
	VsBuyHold *BuyHoldComparison `yaml:"vs_buy_hold,omitempty" json:"vs_buy_hold,omitempty"`
}

type RunStatus string

const (
	RunStatusSuccess RunStatus = "success"
	RunStatusError   RunStatus = "error"
)

// BacktestResult is the final immutable report of one backtest run. Callers
// must treat Status as authoritative: when Status is RunStatusError, Message
// carries the human-readable cause and Metrics is nil.
type BacktestResult struct {
	// ID is the unique identifier for this backtest run.
	ID string `yaml:"id" json:"id"`
	// Timestamp is when this backtest run was executed.
	Timestamp time.Time `yaml:"timestamp" json:"timestamp"`
	Ticker    string    `yaml:"ticker" json:"ticker"`
	Strategy  string    `yaml:"strategy" json:"strategy"`
	StartDate Date      `yaml:"start_date" json:"start_date"`
	EndDate   Date      `yaml:"end_date" json:"end_date"`

	InitialCapital float64            `yaml:"initial_capital" json:"initial_capital"`
	FinalValue     float64            `yaml:"final_value" json:"final_value"`
	Metrics        *PerformanceReport `yaml:"metrics,omitempty" json:"metrics,omitempty"`
	NumTrades      int                `yaml:"num_trades" json:"num_trades"`

	Status  RunStatus `yaml:"status" json:"status"`
	Message string    `yaml:"message,omitempty" json:"message,omitempty"`
}

// WriteBacktestResult writes a backtest result to a YAML file.
func WriteBacktestResult(path string, result BacktestResult) error {
	data, err := yaml.Marshal(result)
	if err != nil {
		return fmt.Errorf("failed to marshal backtest result to YAML: %w", err)
	}

	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write backtest result to file: %w", err)
	}

	return nil
}
