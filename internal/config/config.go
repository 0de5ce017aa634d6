// Package config loads healthd configuration from a YAML file, an optional
// .env file and HEALTHD_ environment variables.
//
// Check targets, passwords, the JWT secret and API keys may reference the
// environment (${VAR}) or secrets (secretref:env:NAME, secretref:file:PATH).
package config

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"

	"github.com/jonwraymond/healthops/observe"
	"github.com/jonwraymond/healthops/secret"
)

// EnvPrefix prefixes every environment override, e.g. HEALTHD_SERVER_ADDR.
const EnvPrefix = "HEALTHD"

var (
	ErrNoChecks          = errors.New("config: no checks configured")
	ErrInvalidCheck      = errors.New("config: invalid check")
	ErrUnknownCheckType  = errors.New("config: unknown check type")
	ErrInvalidServer     = errors.New("config: invalid server settings")
	ErrInvalidAuth       = errors.New("config: invalid auth settings")
	ErrConfigFileMissing = errors.New("config: config file not found")
)

// Config is the complete healthd configuration.
type Config struct {
	Server    ServerConfig    `mapstructure:"server"`
	Auth      AuthConfig      `mapstructure:"auth"`
	Logging   LoggingConfig   `mapstructure:"logging"`
	Telemetry TelemetryConfig `mapstructure:"telemetry"`
	Checks    []CheckConfig   `mapstructure:"checks"`
}

// ServerConfig configures the HTTP listener.
type ServerConfig struct {
	Addr            string        `mapstructure:"addr"`
	CheckTimeout    time.Duration `mapstructure:"check_timeout"`
	MaxConcurrent   int64         `mapstructure:"max_concurrent"`
	ReadinessTags   []string      `mapstructure:"readiness_tags"`
	ShutdownTimeout time.Duration `mapstructure:"shutdown_timeout"`
	MetricsPath     string        `mapstructure:"metrics_path"`
}

// AuthConfig protects the detailed endpoints. Auth is off when neither a JWT
// secret nor API keys are set.
type AuthConfig struct {
	JWTSecret    string         `mapstructure:"jwt_secret"`
	Issuer       string         `mapstructure:"issuer"`
	Audience     string         `mapstructure:"audience"`
	RequiredRole string         `mapstructure:"required_role"`
	APIKeys      []APIKeyConfig `mapstructure:"api_keys"`
}

// Enabled reports whether any authenticator is configured.
func (a AuthConfig) Enabled() bool {
	return a.JWTSecret != "" || len(a.APIKeys) > 0
}

// APIKeyConfig declares one accepted API key.
type APIKeyConfig struct {
	ID        string   `mapstructure:"id"`
	Key       string   `mapstructure:"key"`
	Principal string   `mapstructure:"principal"`
	Roles     []string `mapstructure:"roles"`
}

// LoggingConfig configures the zap logger and file rotation.
type LoggingConfig struct {
	Level      string `mapstructure:"level"`
	Format     string `mapstructure:"format"` // json|console
	File       string `mapstructure:"file"`
	MaxSizeMB  int    `mapstructure:"max_size_mb"`
	MaxBackups int    `mapstructure:"max_backups"`
	MaxAgeDays int    `mapstructure:"max_age_days"`
	Compress   bool   `mapstructure:"compress"`
}

// TelemetryConfig maps onto observe.Config.
type TelemetryConfig struct {
	ServiceName string  `mapstructure:"service_name"`
	Version     string  `mapstructure:"version"`
	Tracing     bool    `mapstructure:"tracing"`
	TraceExport string  `mapstructure:"trace_exporter"`
	SamplePct   float64 `mapstructure:"sample_pct"`
	Metrics     bool    `mapstructure:"metrics"`
	MetricsExp  string  `mapstructure:"metrics_exporter"`
}

// Observe converts the settings into an observe.Config.
func (t TelemetryConfig) Observe() observe.Config {
	return observe.Config{
		ServiceName: t.ServiceName,
		Version:     t.Version,
		Tracing: observe.TracingConfig{
			Enabled:   t.Tracing,
			Exporter:  t.TraceExport,
			SamplePct: t.SamplePct,
		},
		Metrics: observe.MetricsConfig{
			Enabled:  t.Metrics,
			Exporter: t.MetricsExp,
		},
	}
}

// CheckConfig declares one probe.
type CheckConfig struct {
	Name     string   `mapstructure:"name"`
	Type     string   `mapstructure:"type"` // http|tcp|postgres|redis|grpc|memory
	Tags     []string `mapstructure:"tags"`
	Fallback string   `mapstructure:"fallback"`

	// Target is the URL, address or DSN, depending on Type.
	Target string `mapstructure:"target"`

	Timeout        time.Duration `mapstructure:"timeout"`
	SlowThreshold  time.Duration `mapstructure:"slow_threshold"`
	ExpectedStatus int           `mapstructure:"expected_status"`
	Query          string        `mapstructure:"query"`
	HealthService  string        `mapstructure:"health_service"`
	Password       string        `mapstructure:"password"`
	DB             int           `mapstructure:"db"`

	// MaxAllocMB is the heap budget for memory checks.
	MaxAllocMB uint64 `mapstructure:"max_alloc_mb"`

	// Retries re-runs an unhealthy probe up to this many extra times.
	Retries    int           `mapstructure:"retries"`
	RetryDelay time.Duration `mapstructure:"retry_delay"`
}

var checkTypes = map[string]bool{
	"http":     true,
	"tcp":      true,
	"postgres": true,
	"redis":    true,
	"grpc":     true,
	"memory":   true,
}

// Validate validates the configuration.
func (c *Config) Validate() error {
	if len(c.Checks) == 0 {
		return ErrNoChecks
	}
	for i, chk := range c.Checks {
		if strings.TrimSpace(chk.Name) == "" {
			return fmt.Errorf("%w: checks[%d] has no name", ErrInvalidCheck, i)
		}
		if !checkTypes[chk.Type] {
			return fmt.Errorf("%w: %q for check %q", ErrUnknownCheckType, chk.Type, chk.Name)
		}
		if chk.Type != "memory" && chk.Target == "" {
			return fmt.Errorf("%w: check %q requires a target", ErrInvalidCheck, chk.Name)
		}
		if chk.Timeout < 0 || chk.SlowThreshold < 0 || chk.RetryDelay < 0 {
			return fmt.Errorf("%w: check %q has a negative duration", ErrInvalidCheck, chk.Name)
		}
		if chk.Retries < 0 {
			return fmt.Errorf("%w: check %q has negative retries", ErrInvalidCheck, chk.Name)
		}
	}
	if c.Server.Addr == "" {
		return fmt.Errorf("%w: addr is required", ErrInvalidServer)
	}
	if c.Server.MaxConcurrent < 0 || c.Server.CheckTimeout < 0 {
		return fmt.Errorf("%w: limits must be non-negative", ErrInvalidServer)
	}
	for i, k := range c.Auth.APIKeys {
		if k.Key == "" || k.Principal == "" {
			return fmt.Errorf("%w: api_keys[%d] requires key and principal", ErrInvalidAuth, i)
		}
	}
	if c.Telemetry.Tracing || c.Telemetry.Metrics {
		obs := c.Telemetry.Observe()
		if err := obs.Validate(); err != nil {
			return err
		}
	}
	return nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("server.addr", ":8080")
	v.SetDefault("server.check_timeout", 10*time.Second)
	v.SetDefault("server.shutdown_timeout", 5*time.Second)
	v.SetDefault("server.metrics_path", "/metrics")
	v.SetDefault("server.max_concurrent", 0)
	v.SetDefault("auth.jwt_secret", "")
	v.SetDefault("auth.issuer", "")
	v.SetDefault("auth.audience", "")
	v.SetDefault("auth.required_role", "")
	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.file", "")
	v.SetDefault("logging.format", "json")
	v.SetDefault("logging.max_size_mb", 100)
	v.SetDefault("logging.max_backups", 3)
	v.SetDefault("logging.max_age_days", 28)
	v.SetDefault("telemetry.service_name", "healthd")
	v.SetDefault("telemetry.tracing", false)
	v.SetDefault("telemetry.metrics", false)
	v.SetDefault("telemetry.trace_exporter", "stdout")
	v.SetDefault("telemetry.sample_pct", 1.0)
	v.SetDefault("telemetry.metrics_exporter", "prometheus")
}

// Load reads path (YAML) and applies environment overrides. When envFile is
// set its variables are loaded first; a missing envFile is ignored only when
// it is the default ".env".
func Load(path, envFile string) (*Config, error) {
	if envFile != "" {
		if err := godotenv.Load(envFile); err != nil && !(envFile == ".env" && errors.Is(err, os.ErrNotExist)) {
			return nil, fmt.Errorf("config: load env file %s: %w", envFile, err)
		}
	}

	v := viper.New()
	setDefaults(v)
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if path != "" {
		v.SetConfigFile(path)
		v.SetConfigType("yaml")
		if err := v.ReadInConfig(); err != nil {
			if errors.Is(err, os.ErrNotExist) {
				return nil, fmt.Errorf("%w: %s", ErrConfigFileMissing, path)
			}
			return nil, fmt.Errorf("config: read %s: %w", path, err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("config: decode: %w", err)
	}
	if err := cfg.resolveSecrets(context.Background(), secret.NewResolver()); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// resolveSecrets expands credentials and targets through r.
func (c *Config) resolveSecrets(ctx context.Context, r *secret.Resolver) error {
	values := []*string{&c.Auth.JWTSecret}
	for i := range c.Auth.APIKeys {
		values = append(values, &c.Auth.APIKeys[i].Key)
	}
	for i := range c.Checks {
		values = append(values, &c.Checks[i].Target, &c.Checks[i].Password)
	}
	if err := r.ResolveAll(ctx, values...); err != nil {
		return fmt.Errorf("config: resolve secrets: %w", err)
	}
	return nil
}
