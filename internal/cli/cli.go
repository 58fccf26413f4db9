// Package cli implements the stacknotice command-line interface.
package cli

import (
	"context"
	"io"
	"os"

	"github.com/charmbracelet/log"
	"github.com/spf13/cobra"

	"github.com/matzehuels/stacknotice/pkg/aggregate"
	"github.com/matzehuels/stacknotice/pkg/artifact"
	"github.com/matzehuels/stacknotice/pkg/buildinfo"
	"github.com/matzehuels/stacknotice/pkg/cache"
	"github.com/matzehuels/stacknotice/pkg/config"
	"github.com/matzehuels/stacknotice/pkg/integrations/clearlydefined"
	"github.com/matzehuels/stacknotice/pkg/integrations/github"
	"github.com/matzehuels/stacknotice/pkg/notice"
	"github.com/matzehuels/stacknotice/pkg/observability"
	"github.com/matzehuels/stacknotice/pkg/pipeline"
)

// =============================================================================
// Constants
// =============================================================================

// appName is the application name used for display.
const appName = "stacknotice"

// Log levels exported for use in main.go.
const (
	LogDebug = log.DebugLevel
	LogInfo  = log.InfoLevel
)

// =============================================================================
// CLI - Central CLI State
// =============================================================================

// CLI holds shared state for all commands.
type CLI struct {
	Logger *log.Logger

	// Getenv replaces os.Getenv for configuration and Actions detection.
	Getenv func(string) string

	configPath string
	logFormat  string
}

// New creates a new CLI instance with a default logger.
func New(w io.Writer, level log.Level) *CLI {
	return &CLI{
		Logger: newLogger(w, level),
		Getenv: os.Getenv,
	}
}

// SetLogLevel updates the logger's level.
func (c *CLI) SetLogLevel(level log.Level) {
	c.Logger.SetLevel(level)
}

// RootCommand creates the root cobra command with all subcommands registered.
func (c *CLI) RootCommand() *cobra.Command {
	root := &cobra.Command{
		Use:   appName,
		Short: "Stacknotice generates third-party license notices from GitHub dependency graphs",
		Long: `Stacknotice reads a repository's dependency graph from GitHub, maps every
dependency to a ClearlyDefined coordinate and renders a third-party notice
file from the ClearlyDefined license data.`,
		Version:      buildinfo.Version,
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if err := setLogFormat(c.Logger, c.logFormat); err != nil {
				return err
			}
			cmd.SetContext(withLogger(cmd.Context(), c.Logger))
			return nil
		},
	}

	root.SetVersionTemplate(buildinfo.Template())
	root.PersistentFlags().StringVar(&c.configPath, "config", "", "config file (default ./"+config.DefaultFile+" if present)")
	root.PersistentFlags().StringVar(&c.logFormat, "log-format", "text", "log output: text, logfmt or json")

	root.AddCommand(c.generateCommand())
	root.AddCommand(c.coordinatesCommand())
	root.AddCommand(c.serveCommand())
	root.AddCommand(c.cacheCommand())
	root.AddCommand(c.completionCommand())

	return root
}

// loadConfig reads the layered configuration for a command.
func (c *CLI) loadConfig() (config.Config, error) {
	return config.Load(config.LoadOptions{Path: c.configPath, Getenv: c.Getenv})
}

// =============================================================================
// Runner Factory
// =============================================================================

// runnerOptions selects which sinks a runner gets.
type runnerOptions struct {
	fileSink bool
	sinks    bool
}

// newRunner wires the GitHub and ClearlyDefined clients, the notice cache
// and the artifact sinks into a pipeline runner. The returned function
// releases the cache and database connections.
func (c *CLI) newRunner(ctx context.Context, cfg config.Config, ro runnerOptions) (*pipeline.Runner, func(), error) {
	var closers []func()
	cleanup := func() {
		for i := len(closers) - 1; i >= 0; i-- {
			closers[i]()
		}
	}

	gh := github.NewClient(cfg.Token, cfg.Timeout).WithBaseURL(cfg.GitHubURL)
	agg := aggregate.New(gh, aggregate.WithConcurrency(cfg.Concurrency))

	var notices notice.Requester = clearlydefined.NewClient(cfg.Timeout).WithBaseURL(cfg.ClearlyDefinedURL)
	if cfg.Cache.Backend != "" && cfg.Cache.Backend != cache.BackendNone {
		store, err := cache.Open(ctx, cfg.Cache.Options())
		if err != nil {
			return nil, cleanup, err
		}
		closers = append(closers, func() { _ = store.Close() })
		notices = notice.NewCached(notices, store, cfg.Cache.TTL)
		c.Logger.Debug("notice cache enabled", "backend", cfg.Cache.Backend)
	}

	var sinks []artifact.Sink
	if ro.fileSink {
		sinks = append(sinks, artifact.NewFileSink(cfg.OutputDir))
	}
	if ro.sinks && cfg.S3.Enabled() {
		s3, err := artifact.NewS3Sink(cfg.S3)
		if err != nil {
			cleanup()
			return nil, func() {}, err
		}
		sinks = append(sinks, s3)
	}
	if ro.sinks && cfg.Mongo.Enabled() {
		mongo, err := artifact.NewMongoSink(ctx, cfg.Mongo)
		if err != nil {
			cleanup()
			return nil, func() {}, err
		}
		closers = append(closers, func() { _ = mongo.Close(context.Background()) })
		sinks = append(sinks, mongo)
	}

	return pipeline.NewRunner(agg, notices, sinks, c.Logger), cleanup, nil
}

// installHooks routes observability hooks to the debug log and returns a
// function restoring the no-op hooks.
func (c *CLI) installHooks() func() {
	h := logHooks{fallback: c.Logger}
	observability.SetAggregateHooks(h)
	observability.SetHTTPHooks(h)
	observability.SetCacheHooks(h)
	return observability.Reset
}
