// Package strategy implements the bar-by-bar replay policies. Each executor
// walks a price series in chronological order and issues buy/sell calls to a
// virtual portfolio according to its state machine. Strategies are a closed
// set dispatched by enum, not by arbitrary string matching.
package strategy

import (
	"github.com/quantdesk-lab/quantsim/internal/logger"
	"github.com/quantdesk-lab/quantsim/internal/portfolio"
	"github.com/quantdesk-lab/quantsim/internal/types"
	"github.com/quantdesk-lab/quantsim/pkg/errors"
)

// Strategy identifies one of the supported replay policies.
type Strategy string

const (
	StrategyBuyAndHold  Strategy = "buy_and_hold"
	StrategyRSI         Strategy = "rsi_strategy"
	StrategyMACrossover Strategy = "ma_crossover"
)

// All returns every supported strategy.
func All() []Strategy {
	return []Strategy{StrategyBuyAndHold, StrategyRSI, StrategyMACrossover}
}

// Parse validates a strategy name. Unknown names return a coded error so the
// engine can surface a structured result instead of failing the process.
func Parse(name string) (Strategy, error) {
	s := Strategy(name)
	switch s {
	case StrategyBuyAndHold, StrategyRSI, StrategyMACrossover:
		return s, nil
	default:
		return "", errors.Newf(errors.ErrCodeUnknownStrategy, "unknown strategy: %s", name)
	}
}

// Executor replays one policy over a price series, mutating the portfolio in
// place. A series shorter than the executor's warm-up window executes no
// trades and leaves the portfolio untouched; that is a defined degenerate
// case, not an error.
type Executor interface {
	Name() Strategy
	Run(series types.PriceSeries, p *portfolio.VirtualPortfolio) error
}

// NewExecutor constructs the executor for a strategy. The switch is
// exhaustive over the closed enum.
func NewExecutor(s Strategy, log *logger.Logger) (Executor, error) {
	switch s {
	case StrategyBuyAndHold:
		return NewBuyAndHold(log), nil
	case StrategyRSI:
		return NewRSIReversion(log), nil
	case StrategyMACrossover:
		return NewMACrossover(log), nil
	default:
		return nil, errors.Newf(errors.ErrCodeUnknownStrategy, "unknown strategy: %s", s)
	}
}
