// Package backtest wires the data loader, portfolio, strategies, and metrics
// into a single run pipeline. Engines are plain constructed values; callers
// that need isolation create separate engines with separate configs.
package backtest

import (
	"context"
	"fmt"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"github.com/moznion/go-optional"
	"github.com/quantdesk-lab/quantsim/internal/dataloader"
	"github.com/quantdesk-lab/quantsim/internal/logger"
	"github.com/quantdesk-lab/quantsim/internal/metrics"
	"github.com/quantdesk-lab/quantsim/internal/portfolio"
	"github.com/quantdesk-lab/quantsim/internal/strategy"
	"github.com/quantdesk-lab/quantsim/internal/types"
	"github.com/quantdesk-lab/quantsim/pkg/dataprovider"
	"github.com/quantdesk-lab/quantsim/pkg/errors"
	"go.uber.org/zap"
)

// RunParams are the per-run inputs of one backtest.
type RunParams struct {
	Ticker   string `validate:"required"`
	Strategy string `validate:"required"`
	// StartDate and EndDate bound the simulated window. When absent the
	// engine falls back to the config window, then to the loader's default
	// five-year history.
	StartDate optional.Option[time.Time]
	EndDate   optional.Option[time.Time]
	// InitialCapital overrides the configured capital when positive.
	InitialCapital float64 `validate:"gte=0"`
}

var runParamsValidator = validator.New()

// Validate checks the run parameters.
func (p *RunParams) Validate() error {
	if err := runParamsValidator.Struct(p); err != nil {
		return errors.Wrap(errors.ErrCodeInvalidRunParams, "invalid run parameters", err)
	}

	if p.StartDate.IsSome() && p.EndDate.IsSome() && p.EndDate.Unwrap().Before(p.StartDate.Unwrap()) {
		return errors.Newf(errors.ErrCodeInvalidRunParams,
			"end date %s is before start date %s",
			p.EndDate.Unwrap().Format(types.DateLayout),
			p.StartDate.Unwrap().Format(types.DateLayout))
	}

	return nil
}

// Engine runs backtests against a configured data source. It holds no
// per-run state: every RunBacktest call builds a fresh portfolio, so one
// engine can serve sequential runs without leakage between them.
type Engine struct {
	config Config
	loader *dataloader.Loader
	log    *logger.Logger
}

// NewEngine wires an engine from its config, constructing the market data
// provider and cache-backed loader.
func NewEngine(config Config, log *logger.Logger) (*Engine, error) {
	if err := config.Validate(); err != nil {
		return nil, err
	}

	provider, err := dataprovider.New(config.Provider, config.ProviderConfig)
	if err != nil {
		return nil, err
	}

	loader, err := dataloader.NewLoader(provider, config.CacheDir, log)
	if err != nil {
		return nil, err
	}

	return &Engine{
		config: config,
		loader: loader,
		log:    log,
	}, nil
}

// Loader exposes the engine's data loader for point-in-time price lookups.
func (e *Engine) Loader() *dataloader.Loader {
	return e.loader
}

// RunBacktest executes one backtest and always returns a structured result:
// bad inputs, missing data, and even a panicking strategy produce a result
// with Status error rather than failing the caller.
func (e *Engine) RunBacktest(ctx context.Context, params RunParams) (result types.BacktestResult) {
	result = types.BacktestResult{
		ID:        uuid.New().String(),
		Timestamp: time.Now(),
		Ticker:    params.Ticker,
		Strategy:  params.Strategy,
		Status:    types.RunStatusSuccess,
	}

	defer func() {
		if r := recover(); r != nil {
			e.log.Error("Backtest panicked",
				zap.String("ticker", params.Ticker),
				zap.Any("panic", r),
			)
			result = e.errorResult(result, fmt.Sprintf("backtest panicked: %v", r))
		}
	}()

	if err := params.Validate(); err != nil {
		return e.errorResult(result, err.Error())
	}

	strategyName, err := strategy.Parse(params.Strategy)
	if err != nil {
		return e.errorResult(result, err.Error())
	}

	initialCapital := e.config.InitialCapital
	if params.InitialCapital > 0 {
		initialCapital = params.InitialCapital
	}
	result.InitialCapital = initialCapital

	start := params.StartDate
	if start.IsNone() {
		start = e.config.StartTime
	}
	end := params.EndDate
	if end.IsNone() {
		end = e.config.EndTime
	}

	series, err := e.loader.GetData(ctx, params.Ticker, start, end, e.config.UseCache)
	if err != nil {
		if errors.IsDataFetchError(err) {
			return e.errorResult(result, fmt.Sprintf("No data available for %s", params.Ticker))
		}
		return e.errorResult(result, err.Error())
	}

	if len(series) == 0 {
		return e.errorResult(result, fmt.Sprintf("No data available for %s", params.Ticker))
	}

	result.StartDate = series[0].Date
	result.EndDate = series[len(series)-1].Date

	e.log.Info("Running backtest",
		zap.String("ticker", params.Ticker),
		zap.String("strategy", string(strategyName)),
		zap.Int("bars", len(series)),
		zap.Float64("initial_capital", initialCapital),
	)

	executor, err := strategy.NewExecutor(strategyName, e.log)
	if err != nil {
		return e.errorResult(result, err.Error())
	}

	p := portfolio.New(initialCapital, e.log)
	if err := executor.Run(series, p); err != nil {
		return e.errorResult(result, err.Error())
	}

	// Buy-and-hold benchmark from the raw closes, independent of the
	// strategy's own fills.
	buyHoldReturn := optional.None[float64]()
	if first := series[0].Close; first > 0 {
		buyHoldReturn = optional.Some((series[len(series)-1].Close - first) / first * 100)
	}

	report := metrics.GenerateReport(
		p.PortfolioValues(),
		p.Trades(),
		p.DailyReturns(),
		e.config.RiskFreeRate,
		buyHoldReturn,
	)

	values := p.PortfolioValues()
	result.FinalValue = values[len(values)-1]
	result.Metrics = &report
	result.NumTrades = len(p.Trades())

	e.log.Info("Backtest complete",
		zap.String("ticker", params.Ticker),
		zap.String("strategy", string(strategyName)),
		zap.Float64("final_value", result.FinalValue),
		zap.Float64("total_return", report.TotalReturn),
		zap.Int("trades", result.NumTrades),
	)

	return result
}

func (e *Engine) errorResult(result types.BacktestResult, message string) types.BacktestResult {
	result.Status = types.RunStatusError
	result.Message = message
	result.Metrics = nil

	return result
}
