// Package config loads recap settings from RECAP_* environment variables,
// after reading an optional .env file from the working directory.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strings"
	"time"

	"github.com/caarlos0/env/v10"
	"github.com/joho/godotenv"

	"github.com/crimson-sun/recap/internal/connector"
	"github.com/crimson-sun/recap/internal/engine"
	"github.com/crimson-sun/recap/internal/engine/classifier"
	"github.com/crimson-sun/recap/internal/engine/limiter"
	"github.com/crimson-sun/recap/internal/engine/taxonomy"
)

// Version is the binary version, overridden at build time via -ldflags.
var Version = "0.1.0-dev"

// Prefix is prepended to every environment variable name.
const Prefix = "RECAP_"

// Config holds all recap configuration.
type Config struct {
	Connector       ConnectorConfig
	Engine          EngineConfig
	Output          OutputConfig
	Server          ServerConfig
	LogLevel        string        `env:"LOG_LEVEL" envDefault:"info"`
	ShutdownTimeout time.Duration `env:"SHUTDOWN_TIMEOUT" envDefault:"10s"`
}

// ConnectorConfig selects and configures the recording source.
type ConnectorConfig struct {
	Provider     string        `env:"CONNECTOR" envDefault:"file"`
	APIKey       string        `env:"API_KEY"`
	Endpoint     string        `env:"ENDPOINT"`
	PollInterval time.Duration `env:"POLL_INTERVAL"`
	Debounce     time.Duration `env:"DEBOUNCE"`
	Timeout      time.Duration `env:"HTTP_TIMEOUT"`
}

// EngineConfig holds summarizer settings.
type EngineConfig struct {
	Verbosity        string `env:"VERBOSITY" envDefault:"standard"` // minimal, standard, full
	MaxStringLength  int    `env:"MAX_STRING_LENGTH"`               // 0 keeps the verbosity's limit
	MaxContainerSize int    `env:"MAX_CONTAINER_SIZE"`              // 0 keeps the verbosity's limit
	SpanMode         string `env:"SPAN_MODE" envDefault:"per_gesture"`
	Policy           string `env:"POLICY" envDefault:"default"` // default, verbose
	PolicyFile       string `env:"POLICY_FILE"`
	TrackWindows     bool   `env:"TRACK_WINDOWS"`
	Workers          int    `env:"WORKERS" envDefault:"4"`
}

// OutputConfig holds output destination settings.
type OutputConfig struct {
	Format         string            `env:"OUTPUT" envDefault:"stdout"` // stdout, text, file, webhook
	File           string            `env:"OUTPUT_FILE"`
	FileMaxSize    int64             `env:"OUTPUT_FILE_MAX_SIZE"`
	Pretty         bool              `env:"OUTPUT_PRETTY"`
	WebhookURL     string            `env:"WEBHOOK_URL"`
	WebhookRPS     float64           `env:"WEBHOOK_RPS"`
	WebhookHeaders map[string]string `env:"WEBHOOK_HEADERS"` // k1:v1,k2:v2
}

// ServerConfig holds HTTP settings for serve and watch.
type ServerConfig struct {
	Addr         string `env:"SERVER_ADDR" envDefault:":8080"`
	MetricsAddr  string `env:"METRICS_ADDR"`
	MaxBodyBytes int64  `env:"MAX_BODY_BYTES" envDefault:"33554432"` // 32MB
}

var (
	verbosities = []string{"minimal", "standard", "full"}
	formats     = []string{"stdout", "text", "file", "webhook"}
	presets     = []string{"default", "verbose"}
)

// Load reads configuration from the process environment and a .env file in
// the working directory.
func Load() (Config, error) {
	return LoadFile(".env")
}

// LoadFile reads configuration from the process environment plus the dotenv
// file at path. A missing file is not an error; variables already set in the
// process win over the file.
func LoadFile(path string) (Config, error) {
	environ := make(map[string]string)
	for _, kv := range os.Environ() {
		if k, v, ok := strings.Cut(kv, "="); ok {
			environ[k] = v
		}
	}
	vars, err := godotenv.Read(path)
	if err != nil && !errors.Is(err, fs.ErrNotExist) {
		return Config{}, fmt.Errorf("config: failed to read %s: %w", path, err)
	}
	for k, v := range vars {
		if _, ok := environ[k]; !ok {
			environ[k] = v
		}
	}
	return parse(env.Options{Prefix: Prefix, Environment: environ})
}

// Parse reads configuration from environ instead of the process environment.
// Keys carry the RECAP_ prefix.
func Parse(environ map[string]string) (Config, error) {
	return parse(env.Options{Prefix: Prefix, Environment: environ})
}

func parse(opts env.Options) (Config, error) {
	var cfg Config
	if err := env.ParseWithOptions(&cfg, opts); err != nil {
		return Config{}, fmt.Errorf("config: %w", err)
	}
	return cfg, nil
}

// Validate checks the configuration for errors. Returns all problems at once
// via errors.Join.
func (c Config) Validate() error {
	var errs []error

	if !oneOf(c.Engine.Verbosity, verbosities) {
		errs = append(errs, fmt.Errorf("%sVERBOSITY: invalid verbosity %q (want %s)", Prefix, c.Engine.Verbosity, strings.Join(verbosities, ", ")))
	}
	if _, err := classifier.ParseSpanMode(c.Engine.SpanMode); err != nil {
		errs = append(errs, fmt.Errorf("%sSPAN_MODE: %w", Prefix, err))
	}
	if c.Engine.PolicyFile != "" {
		if _, err := os.Stat(c.Engine.PolicyFile); err != nil {
			errs = append(errs, fmt.Errorf("%sPOLICY_FILE: policy file not found: %s", Prefix, c.Engine.PolicyFile))
		}
	} else if !oneOf(c.Engine.Policy, presets) {
		errs = append(errs, fmt.Errorf("%sPOLICY: unknown policy preset %q", Prefix, c.Engine.Policy))
	}
	if c.Engine.MaxStringLength < 0 || c.Engine.MaxContainerSize < 0 {
		errs = append(errs, fmt.Errorf("%sMAX_STRING_LENGTH/%sMAX_CONTAINER_SIZE: limits must be >= 0", Prefix, Prefix))
	}
	if c.Engine.Workers < 1 {
		errs = append(errs, fmt.Errorf("%sWORKERS: workers must be >= 1, got %d", Prefix, c.Engine.Workers))
	}

	switch {
	case !oneOf(c.Output.Format, formats):
		errs = append(errs, fmt.Errorf("%sOUTPUT: invalid output %q (want %s)", Prefix, c.Output.Format, strings.Join(formats, ", ")))
	case c.Output.Format == "file" && c.Output.File == "":
		errs = append(errs, fmt.Errorf("%sOUTPUT_FILE: required when %sOUTPUT=file", Prefix, Prefix))
	case c.Output.Format == "webhook" && c.Output.WebhookURL == "":
		errs = append(errs, fmt.Errorf("%sWEBHOOK_URL: required when %sOUTPUT=webhook", Prefix, Prefix))
	}
	if c.Output.WebhookRPS < 0 {
		errs = append(errs, fmt.Errorf("%sWEBHOOK_RPS: rate must be >= 0", Prefix))
	}

	if c.Connector.Provider == "" {
		errs = append(errs, fmt.Errorf("%sCONNECTOR: provider must not be empty", Prefix))
	}
	if c.ShutdownTimeout < 0 {
		errs = append(errs, fmt.Errorf("%sSHUTDOWN_TIMEOUT: must be >= 0", Prefix))
	}

	return errors.Join(errs...)
}

// VerbosityLevel returns the parsed verbosity level.
func (e EngineConfig) VerbosityLevel() limiter.Verbosity {
	return limiter.ParseVerbosity(e.Verbosity)
}

// Limits returns the limiter policy for the verbosity level with any explicit
// size overrides applied.
func (e EngineConfig) Limits() limiter.Policy {
	p := e.VerbosityLevel().Policy()
	if e.MaxStringLength > 0 {
		p.MaxStringLength = e.MaxStringLength
	}
	if e.MaxContainerSize > 0 {
		p.MaxContainerSize = e.MaxContainerSize
	}
	return p
}

// Options resolves the engine options: policy table, limits and span mode.
func (e EngineConfig) Options() (engine.Options, error) {
	table, err := taxonomy.Load(e.Policy, e.PolicyFile)
	if err != nil {
		return engine.Options{}, fmt.Errorf("config: %w", err)
	}
	mode, err := classifier.ParseSpanMode(e.SpanMode)
	if err != nil {
		return engine.Options{}, fmt.Errorf("config: %w", err)
	}
	return engine.Options{
		Table:        table,
		Limits:       e.Limits(),
		SpanMode:     mode,
		TrackWindows: e.TrackWindows,
	}, nil
}

// Build converts the settings into a connector.ConnectorConfig. Durations
// travel in Extra under the keys the connectors read.
func (c ConnectorConfig) Build() connector.ConnectorConfig {
	out := connector.ConnectorConfig{
		Provider: c.Provider,
		APIKey:   c.APIKey,
		Endpoint: c.Endpoint,
	}
	for key, d := range map[string]time.Duration{
		"poll_interval": c.PollInterval,
		"debounce":      c.Debounce,
		"timeout":       c.Timeout,
	} {
		if d <= 0 {
			continue
		}
		if out.Extra == nil {
			out.Extra = make(map[string]string)
		}
		out.Extra[key] = d.String()
	}
	return out
}

func oneOf(s string, allowed []string) bool {
	for _, a := range allowed {
		if s == a {
			return true
		}
	}
	return false
}
