package cli

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/crimson-sun/recap/internal/config"
	"github.com/crimson-sun/recap/internal/connector"
	"github.com/crimson-sun/recap/internal/output/text"
	"github.com/crimson-sun/recap/internal/pipeline"
)

type summarizeFlags struct {
	format    string
	pretty    bool
	expanded  bool
	verbosity string
	policy    string
	output    string
	url       string
	workers   int
}

func newSummarizeCmd() *cobra.Command {
	var f summarizeFlags

	cmd := &cobra.Command{
		Use:   "summarize [paths...]",
		Short: "Summarize recording files or URLs",
		Long: `Summarize one or more recordings and print one summary per recording,
in argument order. Paths may be files, directories or glob patterns; "-"
reads standard input. With --url, arguments are resolved against that URL
and fetched over HTTP.`,
		Example: `  recap summarize session.json
  recap summarize --format text --verbosity full recordings/
  recap summarize --url https://example.com/exports/ a.json b.json`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runSummarize(cmd, args, f)
		},
	}

	fl := cmd.Flags()
	fl.StringVar(&f.format, "format", "", "Output format: json or text (default $RECAP_OUTPUT or json)")
	fl.BoolVar(&f.pretty, "pretty", false, "Indent JSON output")
	fl.BoolVar(&f.expanded, "expanded", false, "Show full details in text output")
	fl.StringVar(&f.verbosity, "verbosity", "", "Verbosity: minimal, standard or full (default $RECAP_VERBOSITY)")
	fl.StringVar(&f.policy, "policy", "", "Policy preset (default, verbose) or path to a YAML policy file")
	fl.StringVarP(&f.output, "output", "o", "", "Append NDJSON summaries to this file instead of stdout")
	fl.StringVar(&f.url, "url", "", "Fetch recordings over HTTP from this URL")
	fl.IntVar(&f.workers, "workers", 0, "Recordings summarized concurrently (default $RECAP_WORKERS)")
	return cmd
}

func runSummarize(cmd *cobra.Command, args []string, f summarizeFlags) error {
	if f.format != "" && f.format != "json" && f.format != "text" {
		return fmt.Errorf("invalid --format %q (want json or text)", f.format)
	}

	cfg, err := loadConfig(func(cfg *config.Config) {
		applySummarizeFlags(cfg, f)
	})
	if err != nil {
		return err
	}
	if len(args) == 0 && cfg.Connector.Endpoint == "" {
		return errors.New("no recordings given")
	}

	eng, err := buildEngine(cfg.Engine)
	if err != nil {
		return err
	}

	var textOpts []text.Option
	if f.expanded {
		textOpts = append(textOpts, text.WithExpanded())
	}
	out, err := buildOutput(cfg.Output, cfg.Engine.VerbosityLevel(), cmd.OutOrStdout(), textOpts...)
	if err != nil {
		return err
	}

	ctor, err := connector.Get(cfg.Connector.Provider)
	if err != nil {
		_ = out.Close()
		return err
	}

	p := pipeline.New(ctor(), eng, out, pipeline.WithWorkers(cfg.Engine.Workers))

	ctx, stop := signalContext(cmd.Context())
	defer stop()

	runErr := p.Query(ctx, cfg.Connector.Build(), connector.QueryParams{Targets: args})
	return errors.Join(runErr, p.Close())
}

// applySummarizeFlags layers explicitly set flags over the environment.
func applySummarizeFlags(cfg *config.Config, f summarizeFlags) {
	switch {
	case f.output != "":
		cfg.Output.Format = "file"
		cfg.Output.File = f.output
	case f.format == "text":
		cfg.Output.Format = "text"
	case f.format == "json":
		cfg.Output.Format = "stdout"
	}
	if f.pretty {
		cfg.Output.Pretty = true
	}
	if f.verbosity != "" {
		cfg.Engine.Verbosity = f.verbosity
	}
	switch f.policy {
	case "":
	case "default", "verbose":
		cfg.Engine.Policy = f.policy
		cfg.Engine.PolicyFile = ""
	default:
		cfg.Engine.PolicyFile = f.policy
	}
	if f.url != "" {
		cfg.Connector.Provider = "http"
		cfg.Connector.Endpoint = f.url
	}
	if f.workers > 0 {
		cfg.Engine.Workers = f.workers
	}
}
