package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"time"

	"github.com/moznion/go-optional"
	"github.com/quantdesk-lab/quantsim/internal/backtest"
	"github.com/quantdesk-lab/quantsim/internal/logger"
	"github.com/quantdesk-lab/quantsim/internal/strategy"
	"github.com/quantdesk-lab/quantsim/internal/types"
	"github.com/quantdesk-lab/quantsim/pkg/dataprovider"
	"github.com/urfave/cli/v3"
	"gopkg.in/yaml.v3"
)

// backtestAction is the core logic executed by the CLI command.
// It assembles the engine configuration, runs the backtest, and prints the
// result as YAML.
func backtestAction(ctx context.Context, cmd *cli.Command) error {
	config := backtest.DefaultConfig()

	if configPath := cmd.String("config"); configPath != "" {
		parsed, err := backtest.ParseConfigFile(configPath)
		if err != nil {
			return err
		}
		config = parsed
	}

	if cmd.IsSet("capital") {
		config.InitialCapital = cmd.Float("capital")
	}
	if cmd.IsSet("provider") {
		config.Provider = dataprovider.Type(cmd.String("provider"))
	}
	if cmd.IsSet("cache") {
		config.CacheDir = cmd.String("cache")
	}
	if cmd.Bool("no-cache") {
		config.UseCache = false
	}
	config.ProviderConfig = dataprovider.Config{
		PolygonAPIKey: os.Getenv("POLYGON_API_KEY"),
		BinanceAPIKey: os.Getenv("BINANCE_API_KEY"),
		BinanceSecret: os.Getenv("BINANCE_SECRET"),
	}

	appLogger, err := logger.NewLogger()
	if err != nil {
		return fmt.Errorf("failed to create logger: %w", err)
	}
	defer appLogger.Sync()

	engine, err := backtest.NewEngine(config, appLogger)
	if err != nil {
		return fmt.Errorf("failed to create backtest engine: %w", err)
	}

	params := backtest.RunParams{
		Ticker:   cmd.String("ticker"),
		Strategy: cmd.String("strategy"),
	}
	if start := cmd.Timestamp("start"); !start.IsZero() {
		params.StartDate = optional.Some(start)
	}
	if end := cmd.Timestamp("end"); !end.IsZero() {
		params.EndDate = optional.Some(end)
	}

	result := engine.RunBacktest(ctx, params)

	resultYAML, err := yaml.Marshal(result)
	if err != nil {
		return fmt.Errorf("failed to marshal result: %w", err)
	}
	fmt.Print(string(resultYAML))

	if outputPath := cmd.String("output"); outputPath != "" {
		if err := types.WriteBacktestResult(outputPath, result); err != nil {
			return err
		}
		log.Printf("Result written to %s", outputPath)
	}

	if result.Status == types.RunStatusError {
		return cli.Exit(fmt.Sprintf("backtest failed: %s", result.Message), 1)
	}

	return nil
}

func main() {
	cmd := &cli.Command{
		Name:  "backtest",
		Usage: "Run a historical strategy backtest on daily market data",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:     "ticker",
				Aliases:  []string{"t"},
				Usage:    "Stock ticker symbol",
				Required: true,
			},
			&cli.StringFlag{
				Name:     "strategy",
				Aliases:  []string{"s"},
				Usage:    fmt.Sprintf("Strategy to run (one of %v)", strategy.All()),
				Value:    string(strategy.StrategyBuyAndHold),
				Required: false,
			},
			&cli.TimestampFlag{
				Name:  "start",
				Usage: "Start date in `YYYY-MM-DD` format. Defaults to five years before the end date.",
				Config: cli.TimestampConfig{
					Layouts: []string{"2006-01-02"},
				},
				Required: false,
			},
			&cli.TimestampFlag{
				Name:  "end",
				Usage: "End date in `YYYY-MM-DD` format. Defaults to today.",
				Value: time.Now(),
				Config: cli.TimestampConfig{
					Layouts: []string{"2006-01-02"},
				},
				Required: false,
			},
			&cli.FloatFlag{
				Name:     "capital",
				Usage:    "Initial capital in USD",
				Required: false,
			},
			&cli.StringFlag{
				Name:     "provider",
				Aliases:  []string{"p"},
				Usage:    fmt.Sprintf("Market data provider (one of %v)", dataprovider.AllTypes()),
				Required: false,
			},
			&cli.StringFlag{
				Name:     "cache",
				Usage:    "Directory for the per-ticker CSV price cache",
				Required: false,
			},
			&cli.BoolFlag{
				Name:     "no-cache",
				Usage:    "Bypass the local price cache and always fetch from the provider",
				Required: false,
			},
			&cli.StringFlag{
				Name:     "config",
				Aliases:  []string{"c"},
				Usage:    "Path to a YAML engine config file",
				Required: false,
			},
			&cli.StringFlag{
				Name:     "output",
				Aliases:  []string{"o"},
				Usage:    "Write the result to this YAML file in addition to stdout",
				Required: false,
			},
		},
		Action: backtestAction,
	}

	if err := cmd.Run(context.Background(), os.Args); err != nil {
		log.Fatal(err)
	}
}
