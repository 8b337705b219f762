package cli

import (
	"context"
	"errors"
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/crimson-sun/recap/internal/config"
	"github.com/crimson-sun/recap/internal/server"
)

func newServeCmd() *cobra.Command {
	var addr string

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve summaries over HTTP",
		Long: `Start an HTTP server. POST a recording to /v1/summaries to get its
summary back; ?verbosity= and ?format=text adjust the response.
/healthz and /metrics are served alongside.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServe(cmd, addr)
		},
	}
	cmd.Flags().StringVar(&addr, "addr", "", "Listen address (default $RECAP_SERVER_ADDR or :8080)")
	return cmd
}

func runServe(cmd *cobra.Command, addr string) error {
	cfg, err := loadConfig(func(cfg *config.Config) {
		if addr != "" {
			cfg.Server.Addr = addr
		}
	})
	if err != nil {
		return err
	}
	eng, err := buildEngine(cfg.Engine)
	if err != nil {
		return err
	}

	srv := server.New(eng, server.Options{
		MaxBodyBytes: cfg.Server.MaxBodyBytes,
		Verbosity:    cfg.Engine.VerbosityLevel(),
		Version:      config.Version,
	})

	ctx, stop := signalContext(cmd.Context())
	defer stop()

	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.Start(cfg.Server.Addr)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	slog.Info("shutting down http server")
	sctx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()
	return errors.Join(srv.Shutdown(sctx), <-errCh)
}
