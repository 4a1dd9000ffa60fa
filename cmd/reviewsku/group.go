package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/MakeNowJust/heredoc/v2"
	"github.com/spf13/cobra"

	"github.com/nao1215/reviewsku/internal/cache"
	"github.com/nao1215/reviewsku/internal/config"
	"github.com/nao1215/reviewsku/internal/export"
	"github.com/nao1215/reviewsku/internal/log"
	"github.com/nao1215/reviewsku/internal/model"
	"github.com/nao1215/reviewsku/internal/pipeline"
	"github.com/nao1215/reviewsku/internal/report"
	"github.com/nao1215/reviewsku/internal/shopify"
)

// NewGroupCmd creates the group command.
func NewGroupCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "group <export.csv>",
		Short: "Group the reviews of an export by purchased variant",
		Long: heredoc.Doc(`
			Group reads a review export, looks up the order of every review that
			carries an order number and prints which reviews belong to which SKU.

			Reviews without an order number are skipped. Orders that hold no line
			item of the reviewed product add nothing to the report. A failed lookup
			is reported on stderr and the remaining reviews are still processed.

			Examples:
			  # Print a text report
			  SHOP_NAME=my-store API_KEY=shpat_xxx reviewsku group reviews.csv

			  # Write a JSON report using four concurrent lookups
			  reviewsku group --json -n 4 -o report.json reviews.csv

			  # Reuse looked up orders from earlier runs
			  reviewsku group --cache reviews.csv
		`),
		Args: cobra.ExactArgs(1),
		RunE: runGroupCmd,
	}

	// Lookup flags
	cmd.Flags().DurationP("timeout", "t", config.DefaultTimeout,
		"Time limit of a single order lookup")
	cmd.Flags().IntP("concurrency", "n", config.DefaultConcurrency,
		"Number of concurrent order lookups")
	cmd.Flags().Int("max-retries", config.DefaultMaxRetries,
		"Retries of a throttled order lookup")
	cmd.Flags().String("suffix", config.DefaultOrderNameSuffix,
		"Suffix the store appends to order numbers")
	cmd.Flags().String("api-version", config.DefaultAPIVersion,
		"Shopify Admin API version")
	cmd.Flags().String("endpoint", "",
		"GraphQL endpoint URL (default: derived from SHOP_NAME and --api-version)")
	cmd.Flags().StringP("proxy", "x", "",
		"SOCKS5 proxy for API traffic (host:port)")

	// Cache flags
	cmd.Flags().Bool("cache", false,
		"Cache looked up orders between runs")
	cmd.Flags().String("cache-dir", config.XDGCacheDir(),
		"Directory of the order cache")

	// Configuration file
	cmd.Flags().StringP("config", "c", "",
		"Configuration file path (default: .reviewsku in current or home directory)")

	// Report flags
	cmd.Flags().BoolP("json", "j", false,
		"Output JSON report (mutually exclusive with --markdown)")
	cmd.Flags().BoolP("markdown", "m", false,
		"Output Markdown report (mutually exclusive with --json)")
	cmd.Flags().StringP("output", "o", "",
		"Write report to specified file path (creates directories if needed)")

	return cmd
}

// runGroupCmd executes the group command.
func runGroupCmd(cmd *cobra.Command, args []string) error {
	cfg, err := buildConfig(cmd, args)
	if err != nil {
		return err
	}
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("configuration error: %w", err)
	}
	if err := cfg.LoadCredentials(os.Getenv); err != nil {
		return err
	}

	logger := newLogger(cmd.ErrOrStderr(), cfg)
	slog.SetDefault(logger)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
	defer signal.Stop(sigCh)
	go func() {
		select {
		case <-sigCh:
			logger.Info("received shutdown signal, cancelling...")
			cancel()
		case <-ctx.Done():
		}
	}()

	return runGroup(ctx, cfg, cmd.OutOrStdout(), cmd.ErrOrStderr(), logger)
}

// getVerboseFlag retrieves the verbose flag from the command or its parent.
func getVerboseFlag(cmd *cobra.Command) bool {
	verbose, err := cmd.Flags().GetBool("verbose")
	if err != nil {
		verbose, err = cmd.Root().PersistentFlags().GetBool("verbose")
		if err != nil {
			return false
		}
	}
	return verbose
}

// getLogFormatFlag retrieves the log format from the command or its parent.
func getLogFormatFlag(cmd *cobra.Command) string {
	format, err := cmd.Flags().GetString("log-format")
	if err != nil {
		format, err = cmd.Root().PersistentFlags().GetString("log-format")
		if err != nil {
			return config.LogFormatText
		}
	}
	return format
}

// newLogger builds the run logger in the configured format. The access token
// is masked wherever it appears.
func newLogger(w io.Writer, cfg *config.Config) *slog.Logger {
	secrets := log.WithSecrets(cfg.APIKey)
	if cfg.LogFormat == config.LogFormatJSON {
		return log.WithRunID(log.NewSecureJSONLogger(w, cfg.Verbose, secrets))
	}
	return log.WithRunID(log.NewSecureLogger(w, cfg.Verbose, secrets))
}

// buildConfig creates a Config from defaults, the configuration file and the
// flags the user set, in increasing priority.
func buildConfig(cmd *cobra.Command, args []string) (*config.Config, error) {
	cfg := config.NewConfig()
	flags := cmd.Flags()

	var err error
	cfg.ConfigFilePath, err = flags.GetString("config")
	if err != nil {
		return nil, err
	}

	// An explicitly given file must exist. Otherwise a missing file is fine.
	explicitConfigPath := cfg.ConfigFilePath != ""
	configPath := config.FindConfigFile(cfg.ConfigFilePath)
	if configPath != "" {
		file, err := config.LoadConfigFile(configPath)
		if err != nil {
			return nil, fmt.Errorf("failed to load config file %s: %w", configPath, err)
		}
		file.Apply(cfg)
	} else if explicitConfigPath {
		return nil, fmt.Errorf("%w: %s", config.ErrConfigNotFound, cfg.ConfigFilePath)
	}

	if flags.Changed("timeout") {
		if cfg.Timeout, err = flags.GetDuration("timeout"); err != nil {
			return nil, err
		}
	}
	if flags.Changed("concurrency") {
		if cfg.Concurrency, err = flags.GetInt("concurrency"); err != nil {
			return nil, err
		}
	}
	if flags.Changed("max-retries") {
		if cfg.MaxRetries, err = flags.GetInt("max-retries"); err != nil {
			return nil, err
		}
	}
	if flags.Changed("suffix") {
		if cfg.OrderNameSuffix, err = flags.GetString("suffix"); err != nil {
			return nil, err
		}
	}
	if flags.Changed("api-version") {
		if cfg.APIVersion, err = flags.GetString("api-version"); err != nil {
			return nil, err
		}
	}
	if flags.Changed("endpoint") {
		if cfg.Endpoint, err = flags.GetString("endpoint"); err != nil {
			return nil, err
		}
	}
	if flags.Changed("proxy") {
		if cfg.ProxyAddress, err = flags.GetString("proxy"); err != nil {
			return nil, err
		}
	}
	if flags.Changed("cache") {
		if cfg.UseCache, err = flags.GetBool("cache"); err != nil {
			return nil, err
		}
	}
	if flags.Changed("cache-dir") {
		if cfg.CacheDir, err = flags.GetString("cache-dir"); err != nil {
			return nil, err
		}
	}

	if cfg.JSONReport, err = flags.GetBool("json"); err != nil {
		return nil, err
	}
	if cfg.MarkdownReport, err = flags.GetBool("markdown"); err != nil {
		return nil, err
	}
	if cfg.ReportFile, err = flags.GetString("output"); err != nil {
		return nil, err
	}

	cfg.Verbose = getVerboseFlag(cmd)
	cfg.LogFormat = getLogFormatFlag(cmd)
	if len(args) > 0 {
		cfg.ExportPath = args[0]
	}
	return cfg, nil
}

// exportLayout applies the configured column overrides to the default layout.
func exportLayout(cols config.Columns) (export.Layout, error) {
	layout := export.DefaultLayout()

	positions := []struct {
		field export.Field
		pos   *int
	}{
		{export.FieldReviewID, cols.ReviewID},
		{export.FieldTitle, cols.Title},
		{export.FieldContent, cols.Content},
		{export.FieldOrderNumber, cols.OrderNumber},
		{export.FieldProductID, cols.ProductID},
	}
	for _, p := range positions {
		if p.pos == nil {
			continue
		}
		if err := layout.SetPosition(p.field, *p.pos); err != nil {
			return export.Layout{}, err
		}
	}

	for name, header := range cols.Headers {
		if err := layout.SetHeader(export.Field(name), header); err != nil {
			return export.Layout{}, fmt.Errorf("configuration error: %w", err)
		}
	}
	return layout, nil
}

// newResolver builds the order resolver: the Admin API client, optionally
// behind the order cache. The returned function releases the cache.
func newResolver(ctx context.Context, cfg *config.Config, logger *slog.Logger) (pipeline.Resolver, func(), error) {
	client, err := shopify.NewClient(cfg.ShopName, cfg.APIKey, cfg.APIVersion,
		shopify.WithEndpoint(cfg.Endpoint),
		shopify.WithOrderNameSuffix(cfg.OrderNameSuffix),
		shopify.WithProxy(cfg.ProxyAddress),
		shopify.WithMaxRetries(cfg.MaxRetries),
		shopify.WithRetryDelay(cfg.RetryDelay),
		shopify.WithLogger(logger),
	)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to create Shopify client: %w", err)
	}

	if !cfg.UseCache {
		return client, func() {}, nil
	}

	store, err := cache.Open(cfg.CacheDir, cache.DefaultOptions())
	if err != nil {
		return nil, nil, fmt.Errorf("failed to open order cache: %w", err)
	}
	if removed, err := store.Prune(ctx); err != nil {
		logger.Warn("failed to prune order cache", "error", err)
	} else if removed > 0 {
		logger.Debug("pruned order cache", "removed", removed)
	}
	if stats, err := store.Stats(ctx); err != nil {
		logger.Warn("failed to read order cache stats", "error", err)
	} else {
		logger.Debug("order cache opened", "path", store.Path(),
			"orders", stats.Orders, "line_items", stats.LineItems)
	}

	resolver := cache.NewResolver(store, client,
		cache.ShopKey(cfg.ShopName, cfg.OrderNameSuffix),
		cache.WithLogger(logger),
	)
	release := func() {
		if err := store.Close(); err != nil {
			logger.Warn("failed to close order cache", "error", err)
		}
	}
	return resolver, release, nil
}

// runGroup runs the pipeline and writes the report.
func runGroup(ctx context.Context, cfg *config.Config, stdout, stderr io.Writer, logger *slog.Logger) error {
	layout, err := exportLayout(cfg.Columns)
	if err != nil {
		return err
	}

	resolver, release, err := newResolver(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer release()

	p := pipeline.DefaultPipeline(
		export.NewExtractor(layout, export.WithLogger(logger)),
		resolver,
		[]pipeline.Option{pipeline.WithLogger(logger)},
		pipeline.WithPipelineConcurrency(cfg.Concurrency),
		pipeline.WithPipelineCallTimeout(cfg.Timeout),
		pipeline.WithPipelineFailureHandler(func(f model.ResolutionFailure) {
			fmt.Fprintf(stderr, "warning: %s\n", f.Cause)
		}),
	)

	run := model.NewRun(cfg.ExportPath)
	if err := p.Execute(ctx, run); err != nil {
		return err
	}

	if run.Summary.Cancelled {
		fmt.Fprintf(stderr, "interrupted: report covers %d of %d reviews\n",
			run.Summary.Handled(), run.Summary.Reviews)
	}
	return outputReport(cfg, run, stdout)
}

// outputReport writes the report in the requested format.
func outputReport(cfg *config.Config, run *model.Run, stdout io.Writer) error {
	output := stdout
	if cfg.ReportFile != "" {
		dir := filepath.Dir(cfg.ReportFile)
		if dir != "" && dir != "." {
			if err := os.MkdirAll(dir, 0750); err != nil {
				return fmt.Errorf("failed to create output directory: %w", err)
			}
		}

		f, err := os.OpenFile(cfg.ReportFile, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0600)
		if err != nil {
			return fmt.Errorf("failed to create output file: %w", err)
		}
		defer f.Close()
		output = f
	}

	var w report.Writer
	switch {
	case cfg.JSONReport:
		w = report.NewFullJSONWriter(output, getVersion(), report.WithPrettyPrint())
	case cfg.MarkdownReport:
		w = report.NewMarkdownWriter(output)
	default:
		w = report.NewSimpleWriter(output, report.WithVerbose(cfg.Verbose))
	}

	if _, err := w.Write(run); err != nil {
		return fmt.Errorf("failed to write report: %w", err)
	}
	return nil
}
