package backtest

import (
	"encoding/json"
	"os"
	"reflect"
	"strings"
	"time"

	"github.com/invopop/jsonschema"
	"github.com/moznion/go-optional"
	"github.com/quantdesk-lab/quantsim/internal/metrics"
	"github.com/quantdesk-lab/quantsim/pkg/dataprovider"
	"github.com/quantdesk-lab/quantsim/pkg/errors"
	"gopkg.in/yaml.v3"
)

// Config holds engine-level settings shared across runs. Per-run inputs
// (ticker, strategy, dates) live in RunParams.
type Config struct {
	InitialCapital float64                    `yaml:"initial_capital" json:"initial_capital" jsonschema:"title=Initial Capital,description=Default starting capital for a backtest in USD,minimum=0"`
	RiskFreeRate   float64                    `yaml:"risk_free_rate" json:"risk_free_rate" jsonschema:"title=Risk Free Rate,description=Annual risk-free rate used by the Sharpe ratio"`
	CacheDir       string                     `yaml:"cache_dir" json:"cache_dir" jsonschema:"title=Cache Directory,description=Directory holding per-ticker CSV price caches"`
	UseCache       bool                       `yaml:"use_cache" json:"use_cache" jsonschema:"title=Use Cache,description=Serve repeat requests from the local CSV cache"`
	Provider       dataprovider.Type          `yaml:"provider" json:"provider" jsonschema:"title=Data Provider,description=Market data source to fetch daily bars from"`
	ProviderConfig dataprovider.Config        `yaml:"-" json:"-"`
	StartTime      optional.Option[time.Time] `yaml:"start_time" json:"start_time" jsonschema:"title=Start Time,description=Optional default start of the backtest period"`
	EndTime        optional.Option[time.Time] `yaml:"end_time" json:"end_time" jsonschema:"title=End Time,description=Optional default end of the backtest period"`
}

// DefaultConfig returns the configuration used when no config file is given.
func DefaultConfig() Config {
	return Config{
		InitialCapital: 100000,
		RiskFreeRate:   metrics.DefaultRiskFreeRate,
		CacheDir:       "data_cache",
		UseCache:       true,
		Provider:       dataprovider.TypeSimulated,
		StartTime:      optional.None[time.Time](),
		EndTime:        optional.None[time.Time](),
	}
}

// UnmarshalYAML implements custom unmarshaling for Config
func (c *Config) UnmarshalYAML(unmarshal func(interface{}) error) error {
	type plainConfig struct {
		InitialCapital float64           `yaml:"initial_capital"`
		RiskFreeRate   float64           `yaml:"risk_free_rate"`
		CacheDir       string            `yaml:"cache_dir"`
		UseCache       *bool             `yaml:"use_cache"`
		Provider       dataprovider.Type `yaml:"provider"`
		StartTime      *time.Time        `yaml:"start_time"`
		EndTime        *time.Time        `yaml:"end_time"`
	}

	var config plainConfig
	if err := unmarshal(&config); err != nil {
		return err
	}

	defaults := DefaultConfig()

	c.InitialCapital = config.InitialCapital
	if c.InitialCapital == 0 {
		c.InitialCapital = defaults.InitialCapital
	}
	c.RiskFreeRate = config.RiskFreeRate
	if c.RiskFreeRate == 0 {
		c.RiskFreeRate = defaults.RiskFreeRate
	}
	c.CacheDir = config.CacheDir
	if c.CacheDir == "" {
		c.CacheDir = defaults.CacheDir
	}
	c.UseCache = defaults.UseCache
	if config.UseCache != nil {
		c.UseCache = *config.UseCache
	}
	c.Provider = config.Provider
	if c.Provider == "" {
		c.Provider = defaults.Provider
	}
	if config.StartTime != nil {
		c.StartTime = optional.Some(*config.StartTime)
	}
	if config.EndTime != nil {
		c.EndTime = optional.Some(*config.EndTime)
	}

	return nil
}

// MarshalYAML renders optional times as plain timestamps, omitting them
// when unset.
func (c Config) MarshalYAML() (any, error) {
	type plainConfig struct {
		InitialCapital float64           `yaml:"initial_capital"`
		RiskFreeRate   float64           `yaml:"risk_free_rate"`
		CacheDir       string            `yaml:"cache_dir"`
		UseCache       bool              `yaml:"use_cache"`
		Provider       dataprovider.Type `yaml:"provider"`
		StartTime      *time.Time        `yaml:"start_time,omitempty"`
		EndTime        *time.Time        `yaml:"end_time,omitempty"`
	}

	config := plainConfig{
		InitialCapital: c.InitialCapital,
		RiskFreeRate:   c.RiskFreeRate,
		CacheDir:       c.CacheDir,
		UseCache:       c.UseCache,
		Provider:       c.Provider,
	}
	if c.StartTime.IsSome() {
		start := c.StartTime.Unwrap()
		config.StartTime = &start
	}
	if c.EndTime.IsSome() {
		end := c.EndTime.Unwrap()
		config.EndTime = &end
	}

	return config, nil
}

// Validate checks the configuration for values the engine cannot run with.
func (c *Config) Validate() error {
	if c.InitialCapital <= 0 {
		return errors.Newf(errors.ErrCodeInvalidConfiguration, "initial capital must be positive, got %f", c.InitialCapital)
	}
	if c.CacheDir == "" {
		return errors.New(errors.ErrCodeInvalidConfiguration, "cache directory must not be empty")
	}

	valid := false
	for _, t := range dataprovider.AllTypes() {
		if c.Provider == t {
			valid = true
			break
		}
	}
	if !valid {
		return errors.Newf(errors.ErrCodeInvalidConfiguration, "unsupported market data provider: %s", c.Provider)
	}

	if c.StartTime.IsSome() && c.EndTime.IsSome() {
		start := c.StartTime.Unwrap()
		end := c.EndTime.Unwrap()
		if end.Before(start) {
			return errors.Newf(errors.ErrCodeInvalidDateRange, "end time %s is before start time %s", end, start)
		}
	}

	return nil
}

// ParseConfigFile reads a YAML config file, applying defaults for omitted
// fields.
func ParseConfigFile(path string) (Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Config{}, errors.Wrapf(errors.ErrCodeInvalidConfiguration, err, "failed to read config file %s", path)
	}

	var config Config
	if err := yaml.Unmarshal(data, &config); err != nil {
		return Config{}, errors.Wrapf(errors.ErrCodeInvalidConfiguration, err, "failed to parse config file %s", path)
	}

	if err := config.Validate(); err != nil {
		return Config{}, err
	}

	return config, nil
}

// GenerateSchema generates a JSON schema for the Config
func (c *Config) GenerateSchema() (*jsonschema.Schema, error) {
	reflector := jsonschema.Reflector{
		RequiredFromJSONSchemaTags: true,
		ExpandedStruct:             true,
		AllowAdditionalProperties:  false,
		Mapper: func(t reflect.Type) *jsonschema.Schema {
			if t.String() == "optional.Option[time.Time]" {
				return &jsonschema.Schema{
					Type:   "string",
					Format: "date-time",
				}
			}
			if strings.Contains(t.String(), "dataprovider.Type") {
				enum := make([]any, 0, len(dataprovider.AllTypes()))
				for _, providerType := range dataprovider.AllTypes() {
					enum = append(enum, string(providerType))
				}
				return &jsonschema.Schema{
					Type: "string",
					Enum: enum,
				}
			}
			return nil
		},
	}

	schema := reflector.Reflect(c)

	schema.Title = "backtest-engine-config"
	schema.Description = "Configuration schema for the backtest engine"
	schema.Version = "http://json-schema.org/draft-07/schema#"

	return schema, nil
}

// GenerateSchemaJSON generates a JSON schema string for the Config
func (c *Config) GenerateSchemaJSON() (string, error) {
	schema, err := c.GenerateSchema()
	if err != nil {
		return "", err
	}

	schemaBytes, err := json.MarshalIndent(schema, "", "  ")
	if err != nil {
		return "", err
	}

	return string(schemaBytes), nil
}
