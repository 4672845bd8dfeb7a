// Package config loads the service and terminal configuration from a .env
// file, an optional YAML file and environment variables, in that order of
// increasing priority.
package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"

	"countonme/internal/expression"
	"countonme/internal/messages"
)

// Environment variables understood by Load.
const (
	EnvConfigFile     = "COUNTONME_CONFIG"
	EnvAddr           = "COUNTONME_ADDR"
	EnvPrecision      = "COUNTONME_PRECISION"
	EnvMaxWholeDigits = "COUNTONME_MAX_WHOLE_DIGITS"
	EnvStrategy       = "COUNTONME_STRATEGY"
	EnvSessionTTL     = "COUNTONME_SESSION_TTL"
	EnvMaxSessions    = "COUNTONME_MAX_SESSIONS"
	EnvMaxKeys        = "COUNTONME_MAX_KEYS"
	EnvLanguage       = "COUNTONME_LANGUAGE"
	EnvTelemetry      = "COUNTONME_TELEMETRY"
	EnvDevelopment    = "COUNTONME_DEVELOPMENT"
	EnvLogFile        = "COUNTONME_LOG_FILE"
	EnvServiceName    = "OTEL_SERVICE_NAME"
)

var ErrInvalid = errors.New("invalid configuration")

type Config struct {
	Addr        string `yaml:"addr"`
	ServiceName string `yaml:"service_name"`
	// Language is the fallback for error messages when a client does not
	// ask for one.
	Language    string `yaml:"language"`
	Telemetry   bool   `yaml:"telemetry"`
	Development bool   `yaml:"development"`
	LogFile     string `yaml:"log_file"`

	Engine   Engine   `yaml:"engine"`
	Sessions Sessions `yaml:"sessions"`
}

type Engine struct {
	Precision      int    `yaml:"precision"`
	MaxWholeDigits int    `yaml:"max_whole_digits"`
	Strategy       string `yaml:"strategy"`
}

type Sessions struct {
	TTL time.Duration `yaml:"ttl"`
	Max int           `yaml:"max"`
	// MaxKeys caps the keys replayed by one evaluate call and the number of
	// elements a session expression may grow to.
	MaxKeys int `yaml:"max_keys"`
}

func Default() Config {
	def := expression.DefaultConfig()
	return Config{
		Addr:        ":8080",
		ServiceName: "countonme",
		Language:    messages.Default,
		Telemetry:   true,
		Engine: Engine{
			Precision:      def.Precision,
			MaxWholeDigits: def.MaxWholeDigits,
			Strategy:       def.Strategy.String(),
		},
		Sessions: Sessions{
			TTL:     30 * time.Minute,
			Max:     10000,
			MaxKeys: 1024,
		},
	}
}

// Load builds the configuration: defaults, then .env, then the YAML file
// named by COUNTONME_CONFIG, then environment variables.
func Load() (Config, error) {
	if err := loadDotEnv(); err != nil {
		return Config{}, err
	}

	cfg := Default()

	if path := os.Getenv(EnvConfigFile); path != "" {
		if err := cfg.loadFile(path); err != nil {
			return Config{}, err
		}
	}

	if err := cfg.applyEnv(); err != nil {
		return Config{}, err
	}

	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}

	return cfg, nil
}

func (c *Config) loadFile(path string) error {
	f, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("open config file: %w", err)
	}
	defer f.Close()

	dec := yaml.NewDecoder(f)
	dec.KnownFields(true)
	if err := dec.Decode(c); err != nil {
		return fmt.Errorf("decode config file %s: %w", path, err)
	}
	return nil
}

func (c *Config) applyEnv() error {
	setString(&c.Addr, EnvAddr)
	setString(&c.ServiceName, EnvServiceName)
	setString(&c.Language, EnvLanguage)
	setString(&c.Engine.Strategy, EnvStrategy)
	setString(&c.LogFile, EnvLogFile)

	if err := setInt(&c.Engine.Precision, EnvPrecision); err != nil {
		return err
	}
	if err := setInt(&c.Engine.MaxWholeDigits, EnvMaxWholeDigits); err != nil {
		return err
	}
	if err := setInt(&c.Sessions.Max, EnvMaxSessions); err != nil {
		return err
	}
	if err := setInt(&c.Sessions.MaxKeys, EnvMaxKeys); err != nil {
		return err
	}
	if err := setBool(&c.Telemetry, EnvTelemetry); err != nil {
		return err
	}
	if err := setBool(&c.Development, EnvDevelopment); err != nil {
		return err
	}

	if v := os.Getenv(EnvSessionTTL); v != "" {
		d, err := time.ParseDuration(v)
		if err != nil {
			return fmt.Errorf("%w: %s: %v", ErrInvalid, EnvSessionTTL, err)
		}
		c.Sessions.TTL = d
	}

	return nil
}

func (c Config) Validate() error {
	if c.Addr == "" {
		return fmt.Errorf("%w: empty listen address", ErrInvalid)
	}
	if !messages.Supported(c.Language) {
		return fmt.Errorf("%w: unsupported language %q", ErrInvalid, c.Language)
	}
	if c.Sessions.TTL <= 0 {
		return fmt.Errorf("%w: session ttl must be positive", ErrInvalid)
	}
	if c.Sessions.Max < 1 {
		return fmt.Errorf("%w: max sessions must be positive", ErrInvalid)
	}
	if c.Sessions.MaxKeys < 1 {
		return fmt.Errorf("%w: max keys must be positive", ErrInvalid)
	}
	if _, err := c.Engine.Expression(); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalid, err)
	}
	return nil
}

// Expression converts the engine section into an expression.Config.
func (e Engine) Expression() (expression.Config, error) {
	strategy, err := expression.ParseStrategy(e.Strategy)
	if err != nil {
		return expression.Config{}, err
	}
	cfg := expression.Config{
		Precision:      e.Precision,
		MaxWholeDigits: e.MaxWholeDigits,
		Strategy:       strategy,
	}
	return cfg, cfg.Validate()
}

func setString(dst *string, key string) {
	if v := os.Getenv(key); v != "" {
		*dst = v
	}
}

func setInt(dst *int, key string) error {
	v := os.Getenv(key)
	if v == "" {
		return nil
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return fmt.Errorf("%w: %s: %v", ErrInvalid, key, err)
	}
	*dst = n
	return nil
}

func setBool(dst *bool, key string) error {
	v := os.Getenv(key)
	if v == "" {
		return nil
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		return fmt.Errorf("%w: %s: %v", ErrInvalid, key, err)
	}
	*dst = b
	return nil
}
