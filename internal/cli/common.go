package cli

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/crimson-sun/recap/internal/config"
	"github.com/crimson-sun/recap/internal/engine"
	"github.com/crimson-sun/recap/internal/engine/limiter"
	"github.com/crimson-sun/recap/internal/output"
	"github.com/crimson-sun/recap/internal/output/async"
	"github.com/crimson-sun/recap/internal/output/file"
	"github.com/crimson-sun/recap/internal/output/multi"
	"github.com/crimson-sun/recap/internal/output/stdout"
	"github.com/crimson-sun/recap/internal/output/text"
	"github.com/crimson-sun/recap/internal/output/webhook"
)

// loadConfig reads the environment, lets apply override it from flags and
// validates the result.
func loadConfig(apply func(*config.Config)) (config.Config, error) {
	cfg, err := config.Load()
	if err != nil {
		return config.Config{}, err
	}
	if apply != nil {
		apply(&cfg)
	}
	if err := cfg.Validate(); err != nil {
		return config.Config{}, fmt.Errorf("invalid configuration:\n%w", err)
	}
	return cfg, nil
}

func buildEngine(cfg config.EngineConfig) (*engine.Engine, error) {
	opts, err := cfg.Options()
	if err != nil {
		return nil, err
	}
	return engine.Build(opts), nil
}

// buildOutput creates the configured output writing to w. A webhook URL
// next to a non-webhook format adds the webhook as a second destination.
// textOpts apply to the text format only.
func buildOutput(cfg config.OutputConfig, v limiter.Verbosity, w io.Writer, textOpts ...text.Option) (output.Output, error) {
	var primary output.Output
	switch cfg.Format {
	case "text":
		primary = text.NewWriter(w, v, append([]text.Option{text.WithHeader()}, textOpts...)...)
	case "file":
		f, err := file.New(cfg.File, v, file.WithMaxSize(cfg.FileMaxSize))
		if err != nil {
			return nil, err
		}
		primary = f
	case "webhook":
		return newWebhook(cfg, v), nil
	default:
		primary = stdout.NewWriter(w, v, cfg.Pretty)
	}
	if cfg.WebhookURL == "" {
		return primary, nil
	}
	return multi.New(primary, newWebhook(cfg, v)), nil
}

// newWebhook batches summaries to the webhook behind an async buffer so a
// slow endpoint does not hold up summarizing.
func newWebhook(cfg config.OutputConfig, v limiter.Verbosity) output.Output {
	hook := webhook.New(cfg.WebhookURL,
		webhook.WithHeaders(cfg.WebhookHeaders),
		webhook.WithRate(cfg.WebhookRPS),
		webhook.WithVerbosity(v),
	)
	return async.New(hook)
}

// signalContext is cancelled on SIGINT or SIGTERM.
func signalContext(parent context.Context) (context.Context, context.CancelFunc) {
	return signal.NotifyContext(parent, os.Interrupt, syscall.SIGTERM)
}
