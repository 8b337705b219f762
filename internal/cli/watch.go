package cli

import (
	"context"
	"errors"
	"log/slog"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/spf13/cobra"

	"github.com/crimson-sun/recap/internal/config"
	"github.com/crimson-sun/recap/internal/connector"
	"github.com/crimson-sun/recap/internal/pipeline"
	"github.com/crimson-sun/recap/internal/server"
)

type watchFlags struct {
	format      string
	verbosity   string
	metricsAddr string
	existing    bool
}

func newWatchCmd() *cobra.Command {
	var f watchFlags

	cmd := &cobra.Command{
		Use:   "watch <dir>",
		Short: "Summarize recordings as they appear in a directory",
		Long: `Watch a directory and summarize every .json recording written to it.
Runs until interrupted. Files that cannot be decoded are logged and skipped.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runWatch(cmd, args[0], f)
		},
	}

	fl := cmd.Flags()
	fl.StringVar(&f.format, "format", "", "Output format: json or text (default $RECAP_OUTPUT or json)")
	fl.StringVar(&f.verbosity, "verbosity", "", "Verbosity: minimal, standard or full (default $RECAP_VERBOSITY)")
	fl.StringVar(&f.metricsAddr, "metrics-addr", "", "Serve /metrics and /healthz on this address (default $RECAP_METRICS_ADDR)")
	fl.BoolVar(&f.existing, "existing", false, "Also summarize recordings already in the directory")
	return cmd
}

func runWatch(cmd *cobra.Command, dir string, f watchFlags) error {
	cfg, err := loadConfig(func(cfg *config.Config) {
		cfg.Connector.Provider = "watch"
		cfg.Connector.Endpoint = dir
		switch f.format {
		case "json":
			cfg.Output.Format = "stdout"
		case "text":
			cfg.Output.Format = "text"
		}
		if f.verbosity != "" {
			cfg.Engine.Verbosity = f.verbosity
		}
		if f.metricsAddr != "" {
			cfg.Server.MetricsAddr = f.metricsAddr
		}
	})
	if err != nil {
		return err
	}

	eng, err := buildEngine(cfg.Engine)
	if err != nil {
		return err
	}
	out, err := buildOutput(cfg.Output, cfg.Engine.VerbosityLevel(), cmd.OutOrStdout())
	if err != nil {
		return err
	}
	ctor, err := connector.Get(cfg.Connector.Provider)
	if err != nil {
		_ = out.Close()
		return err
	}

	reg := prometheus.NewRegistry()
	p := pipeline.New(ctor(), eng, out, pipeline.WithMetrics(pipeline.NewMetrics(reg)))

	ctx, stop := signalContext(cmd.Context())
	defer stop()

	var srv *server.Server
	if cfg.Server.MetricsAddr != "" {
		srv = server.New(nil, server.Options{Version: config.Version, Registry: reg})
		go func() {
			if err := srv.Start(cfg.Server.MetricsAddr); err != nil {
				slog.Error("metrics server failed", "addr", cfg.Server.MetricsAddr, "error", err)
			}
		}()
	}

	connCfg := cfg.Connector.Build()
	if f.existing {
		if connCfg.Extra == nil {
			connCfg.Extra = make(map[string]string)
		}
		connCfg.Extra["existing"] = "true"
	}

	slog.Info("watching for recordings", "dir", dir)
	runErr := p.Stream(ctx, connCfg)
	if errors.Is(runErr, context.Canceled) {
		runErr = nil
	}

	var shutdownErr error
	if srv != nil {
		sctx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
		shutdownErr = srv.Shutdown(sctx)
		cancel()
	}
	return errors.Join(runErr, p.Close(), shutdownErr)
}
