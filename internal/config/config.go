// Package config loads the relay's deployment configuration: a YAML file for
// everything declarative, with FXRELAY_* environment variables layered on top
// for secrets and per-host overrides.
package config

import (
	"os"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
	"github.com/shopspring/decimal"
	"github.com/tradewire-lab/fxrelay/internal/broker"
	"github.com/tradewire-lab/fxrelay/internal/coordinator"
	"github.com/tradewire-lab/fxrelay/internal/instrument"
	"github.com/tradewire-lab/fxrelay/pkg/errors"
	"gopkg.in/yaml.v3"
)

// Default server settings.
const (
	DefaultListenAddr      = ":8080"
	DefaultReadTimeout     = 10 * time.Second
	DefaultWriteTimeout    = 30 * time.Second
	DefaultShutdownTimeout = 15 * time.Second

	DefaultHealthProbeSymbol = "EUR_USD"
)

// ServerConfig holds the webhook HTTP server settings.
type ServerConfig struct {
	// ListenAddr is the address the webhook server binds to
	ListenAddr string `yaml:"listen_addr" json:"listen_addr" jsonschema:"title=Listen Address,description=Address the webhook server binds to"`
	// ReadTimeout bounds reading one request including the body
	ReadTimeout time.Duration `yaml:"read_timeout" json:"read_timeout" jsonschema:"title=Read Timeout,description=Per-request read timeout"`
	// WriteTimeout bounds one response. It must cover a full signal run,
	// including reversal settle polling.
	WriteTimeout time.Duration `yaml:"write_timeout" json:"write_timeout" jsonschema:"title=Write Timeout,description=Per-request write timeout"`
	// ShutdownTimeout bounds the drain of in-flight requests on shutdown
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout" json:"shutdown_timeout" jsonschema:"title=Shutdown Timeout,description=Graceful shutdown drain window"`
	// HealthProbeSymbol is the instrument used for the venue connectivity
	// check on the health endpoint
	HealthProbeSymbol string `yaml:"health_probe_symbol" json:"health_probe_symbol" jsonschema:"title=Health Probe Symbol,description=Instrument used for the venue connectivity probe"`
}

// InstrumentSpec is the YAML shape of one instrument override. Prices are
// strings so they survive the YAML float round-trip exactly.
type InstrumentSpec struct {
	Precision        int32  `yaml:"precision" json:"precision" jsonschema:"title=Precision,description=Decimal places the venue accepts"`
	PriceEpsilon     string `yaml:"price_epsilon" json:"price_epsilon" jsonschema:"title=Price Epsilon,description=Duplicate-order price tolerance"`
	MinEntryDistance string `yaml:"min_entry_distance" json:"min_entry_distance" jsonschema:"title=Min Entry Distance,description=Minimum pending entry distance from mid"`
}

// Config is the full relay configuration.
type Config struct {
	Server      ServerConfig              `yaml:"server" json:"server"`
	Broker      broker.Config             `yaml:"broker" json:"broker"`
	Coordinator coordinator.Config        `yaml:"coordinator" json:"coordinator"`
	Instruments map[string]InstrumentSpec `yaml:"instruments" json:"instruments,omitempty" jsonschema:"title=Instruments,description=Per-symbol overrides"`
	// LogLevel is one of debug, info, warn, error
	LogLevel string `yaml:"log_level" json:"log_level" jsonschema:"title=Log Level" validate:"omitempty,oneof=debug info warn error"`
}

// Load reads the YAML file at path, loads a .env file if one is present,
// applies FXRELAY_* environment overrides, and fills defaults. The returned
// config is validated.
func Load(path string) (*Config, error) {
	var cfg Config

	if path != "" {
		content, err := os.ReadFile(path)
		if err != nil {
			return nil, errors.Wrap(errors.ErrCodeInvalidConfiguration, "failed to read config file", err)
		}

		if err := yaml.Unmarshal(content, &cfg); err != nil {
			return nil, errors.Wrap(errors.ErrCodeInvalidConfiguration, "failed to parse config file", err)
		}
	}

	// Best-effort: a missing .env file is not an error.
	_ = godotenv.Load()

	applyEnvOverrides(&cfg)
	cfg.fillDefaults()

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return &cfg, nil
}

// applyEnvOverrides layers FXRELAY_* variables on top of the file. The venue
// token has no YAML field at all; the environment is its only source.
func applyEnvOverrides(cfg *Config) {
	setStr(&cfg.Broker.Token, "FXRELAY_OANDA_TOKEN")
	setStr(&cfg.Broker.AccountID, "FXRELAY_OANDA_ACCOUNT_ID")
	setStr(&cfg.Broker.BaseURL, "FXRELAY_OANDA_BASE_URL")
	setStr(&cfg.Server.ListenAddr, "FXRELAY_LISTEN_ADDR")
	setStr(&cfg.LogLevel, "FXRELAY_LOG_LEVEL")
}

func setStr(dst *string, key string) {
	if v := os.Getenv(key); v != "" {
		*dst = v
	}
}

func (c *Config) fillDefaults() {
	if c.Server.ListenAddr == "" {
		c.Server.ListenAddr = DefaultListenAddr
	}

	if c.Server.ReadTimeout <= 0 {
		c.Server.ReadTimeout = DefaultReadTimeout
	}

	if c.Server.WriteTimeout <= 0 {
		c.Server.WriteTimeout = DefaultWriteTimeout
	}

	if c.Server.ShutdownTimeout <= 0 {
		c.Server.ShutdownTimeout = DefaultShutdownTimeout
	}

	if c.Server.HealthProbeSymbol == "" {
		c.Server.HealthProbeSymbol = DefaultHealthProbeSymbol
	}
}

// Validate validates the Config struct and its sections.
func (c *Config) Validate() error {
	validate := validator.New()
	if err := validate.Struct(c); err != nil {
		return errors.Wrap(errors.ErrCodeInvalidConfiguration, "invalid config", err)
	}

	if err := c.Broker.Validate(); err != nil {
		return err
	}

	if err := c.Coordinator.Validate(); err != nil {
		return err
	}

	if _, err := c.InstrumentTable(); err != nil {
		return err
	}

	return nil
}

// InstrumentTable converts the YAML instrument overrides into a lookup table.
func (c *Config) InstrumentTable() (*instrument.Table, error) {
	overrides := make(map[string]instrument.Spec, len(c.Instruments))

	for symbol, raw := range c.Instruments {
		epsilon, err := decimal.NewFromString(raw.PriceEpsilon)
		if err != nil {
			return nil, errors.Newf(errors.ErrCodeInvalidConfiguration, "instrument %s: bad price_epsilon %q", symbol, raw.PriceEpsilon)
		}

		minDistance, err := decimal.NewFromString(raw.MinEntryDistance)
		if err != nil {
			return nil, errors.Newf(errors.ErrCodeInvalidConfiguration, "instrument %s: bad min_entry_distance %q", symbol, raw.MinEntryDistance)
		}

		if raw.Precision < 0 {
			return nil, errors.Newf(errors.ErrCodeInvalidConfiguration, "instrument %s: negative precision", symbol)
		}

		overrides[symbol] = instrument.Spec{
			Precision:        raw.Precision,
			PriceEpsilon:     epsilon,
			MinEntryDistance: minDistance,
		}
	}

	return instrument.NewTable(overrides), nil
}
