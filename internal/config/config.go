// Package config loads the pipeline configuration from YAML.
//
// Environment variables referenced as ${VAR} in the file are expanded
// before parsing, so credentials never need to live in the file itself.
package config

import (
	"os"
	"time"

	"github.com/creasty/defaults"
	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"

	"github.com/marketscan-lab/marketscan/internal/types"
	"github.com/marketscan-lab/marketscan/pkg/errors"
)

// CredentialConfig is one entry of the upstream credential/proxy pool.
type CredentialConfig struct {
	// Cookie is sent as the Cookie header by HTTP providers.
	Cookie string `yaml:"cookie"`
	// APIKey is used by providers that authenticate with a key.
	APIKey string `yaml:"api_key"`
	// ProxyURL routes this credential's requests through a proxy.
	ProxyURL string `yaml:"proxy_url"`
}

// FetchConfig bounds the fetcher's concurrency and retry policy.
type FetchConfig struct {
	Workers        int           `yaml:"workers" default:"8" validate:"min=1"`
	MaxAttempts    int           `yaml:"max_attempts" default:"4" validate:"min=1"`
	RequestTimeout time.Duration `yaml:"request_timeout" default:"10s"`
	BackoffInitial time.Duration `yaml:"backoff_initial" default:"500ms"`
	BackoffMax     time.Duration `yaml:"backoff_max" default:"8s"`
	// RateCapacity and RateRefill parameterize the per-credential token
	// bucket: burst size and tokens per second.
	RateCapacity float64 `yaml:"rate_capacity" default:"5"`
	RateRefill   float64 `yaml:"rate_refill" default:"2"`
}

// PoolConfig controls credential rotation on repeated rate limiting.
type PoolConfig struct {
	// Strikes is how many rate-limit signals a credential absorbs before
	// it is cooled down.
	Strikes  int           `yaml:"strikes" default:"3" validate:"min=1"`
	Cooldown time.Duration `yaml:"cooldown" default:"5m"`
}

// ProviderConfig selects and parameterizes the upstream data source.
type ProviderConfig struct {
	Name    string        `yaml:"name" default:"eastmoney" validate:"oneof=eastmoney polygon"`
	BaseURL string        `yaml:"base_url" default:"https://push2his.eastmoney.com"`
	Timeout time.Duration `yaml:"timeout" default:"10s"`
}

// JobConfig controls the orchestrator.
type JobConfig struct {
	// LookbackBars is how many prior bars are loaded from the store to
	// prime indicator and strategy windows. It is a floor: the runner
	// raises it when a registered window needs more bars.
	LookbackBars int `yaml:"lookback_bars" default:"300" validate:"min=1"`
	// CommitRetries bounds re-attempts of a failed (idempotent) commit.
	CommitRetries int `yaml:"commit_retries" default:"2" validate:"min=0"`
	// CommitInOrder forces range runs to commit dates in ascending
	// order, for consumers that assume monotonic availability.
	CommitInOrder bool `yaml:"commit_in_order" default:"true"`
}

// StoreConfig locates the persistence layer.
type StoreConfig struct {
	Path string `yaml:"path" default:"data/marketscan.duckdb"`
}

// ServerConfig configures the read-only query API.
type ServerConfig struct {
	Listen string `yaml:"listen" default:":8080"`
}

// CalendarConfig lists market holidays (weekends are always closed).
type CalendarConfig struct {
	Holidays  []string `yaml:"holidays"`
	CloseHour int      `yaml:"close_hour" default:"15" validate:"min=0,max=23"`
}

// Config is the root configuration document.
type Config struct {
	LogLevel    string             `yaml:"log_level" default:"info"`
	Provider    ProviderConfig     `yaml:"provider"`
	Credentials []CredentialConfig `yaml:"credentials"`
	Fetch       FetchConfig        `yaml:"fetch"`
	Pool        PoolConfig         `yaml:"pool"`
	Job         JobConfig          `yaml:"job"`
	Store       StoreConfig        `yaml:"store"`
	Server      ServerConfig       `yaml:"server"`
	Calendar    CalendarConfig     `yaml:"calendar"`
	Universe    []types.Instrument `yaml:"universe" validate:"min=1,dive"`
	// Strategies restricts the enabled strategy set; empty enables all
	// registered strategies.
	Strategies []string `yaml:"strategies"`
}

// Load reads, expands, defaults and validates a configuration file.
func Load(path string) (*Config, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Wrapf(errors.ErrCodeInvalidConfiguration, err, "read config %s", path)
	}

	return Parse([]byte(os.ExpandEnv(string(raw))))
}

// Parse decodes a configuration document from YAML bytes.
func Parse(raw []byte) (*Config, error) {
	cfg := &Config{}
	if err := yaml.Unmarshal(raw, cfg); err != nil {
		return nil, errors.Wrap(errors.ErrCodeInvalidConfiguration, "parse config", err)
	}

	if err := defaults.Set(cfg); err != nil {
		return nil, errors.Wrap(errors.ErrCodeInvalidConfiguration, "apply config defaults", err)
	}

	if err := validator.New().Struct(cfg); err != nil {
		return nil, errors.Wrap(errors.ErrCodeInvalidConfiguration, "validate config", err)
	}

	return cfg, nil
}

// HolidayDates parses the configured holiday strings.
func (c *Config) HolidayDates() ([]types.TradingDate, error) {
	dates := make([]types.TradingDate, 0, len(c.Calendar.Holidays))

	for _, s := range c.Calendar.Holidays {
		d, err := types.ParseTradingDate(s)
		if err != nil {
			return nil, err
		}

		dates = append(dates, d)
	}

	return dates, nil
}
