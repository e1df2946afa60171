package main

import (
	"context"
	"fmt"
	"math/rand/v2"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/Sternrassler/notion-picker/internal/config"
	"github.com/Sternrassler/notion-picker/internal/picker"
	"github.com/Sternrassler/notion-picker/pkg/collector"
	"github.com/Sternrassler/notion-picker/pkg/logging"
	"github.com/Sternrassler/notion-picker/pkg/metrics"
	"github.com/Sternrassler/notion-picker/pkg/notion"
)

// Collector labels used in logs and metrics.
const (
	collectorDatabaseByName  = "database_by_name"
	collectorDatabaseEntries = "database_entries"
)

type rootOptions struct {
	configPath string
	logLevel   string
	pretty     bool
	metrics    bool

	// rng is nil outside tests.
	rng *rand.Rand
}

func newRootCmd() *cobra.Command {
	return newRootCmdWithOptions(&rootOptions{})
}

func newRootCmdWithOptions(opts *rootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "notion-picker <database>",
		Short: "Pick a random in-progress entry from a Notion database",
		Long: `notion-picker searches the workspace for the named database, reads all of
its entries and prints the title of one whose status is pickable.

The integration token is read from NOTION_SECRET (a .env file is honoured).`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cmd.SilenceUsage = true

			cfg, err := config.Load(opts.configPath)
			if err != nil {
				return fmt.Errorf("loading config: %w", err)
			}
			if cmd.Flags().Changed("log-level") {
				cfg.LogLevel = opts.logLevel
			}
			if opts.pretty {
				cfg.LogPretty = true
			}

			logger := logging.Setup(logging.Config{
				Level:  logging.LogLevel(cfg.LogLevel),
				Pretty: cfg.LogPretty,
				Output: cmd.ErrOrStderr(),
			}).With().Str("component", "cli").Logger()

			if opts.metrics {
				defer func() {
					if err := metrics.WriteText(cmd.ErrOrStderr(), metrics.Gatherer, metrics.Prefixes...); err != nil {
						logger.Warn().Err(err).Msg("Failed to write metrics")
					}
				}()
			}

			title, err := run(cmd.Context(), cfg, args[0], opts.rng, logger)
			if err != nil {
				return err
			}

			_, err = fmt.Fprintln(cmd.OutOrStdout(), title)
			return err
		},
	}

	flags := cmd.Flags()
	flags.StringVarP(&opts.configPath, "config", "c", "", "path to a YAML config file")
	flags.StringVar(&opts.logLevel, "log-level", "info", "log level (debug, info, warn, error, disabled)")
	flags.BoolVar(&opts.pretty, "pretty", false, "human-readable log output")
	flags.BoolVar(&opts.metrics, "metrics", false, "write collected metrics to stderr after the run")

	return cmd
}

// run resolves the database by name, collects its entries and picks one.
func run(ctx context.Context, cfg *config.Config, name string, rng *rand.Rand, logger zerolog.Logger) (string, error) {
	clientCfg := notion.DefaultConfig(cfg.Token)
	clientCfg.BaseURL = cfg.APIURL
	clientCfg.Version = cfg.NotionVersion

	client, err := notion.New(clientCfg)
	if err != nil {
		return "", fmt.Errorf("creating notion client: %w", err)
	}

	database, err := collector.Collect(ctx,
		notion.NewDatabaseByNameCollector(client, name),
		collector.WithName(collectorDatabaseByName))
	if err != nil {
		return "", fmt.Errorf("searching for database: %w", err)
	}
	if database == nil {
		return "", fmt.Errorf("database %q not found", name)
	}
	logger.Info().
		Str("database", database.PlainTitle()).
		Str("id", database.ID.String()).
		Msg("Database resolved")

	pages, err := collector.Collect(ctx,
		notion.NewDatabaseEntriesCollector(client, database.ID),
		collector.WithName(collectorDatabaseEntries))
	if err != nil {
		return "", fmt.Errorf("reading entries of %q: %w", name, err)
	}

	candidates := picker.Candidates(pages, cfg.StatusProperty, cfg.Statuses)
	logger.Debug().
		Int("entries", len(pages)).
		Int("candidates", len(candidates)).
		Msg("Filtered entries by status")

	title, err := picker.Pick(candidates, rng)
	if err != nil {
		return "", fmt.Errorf("picking from %q: %w", name, err)
	}
	return title, nil
}
