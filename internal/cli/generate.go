package cli

import (
	"context"
	"fmt"
	"maps"
	"slices"

	"github.com/spf13/cobra"

	"github.com/matzehuels/stacknotice/pkg/config"
	"github.com/matzehuels/stacknotice/pkg/pipeline"
)

func (c *CLI) generateCommand() *cobra.Command {
	var flags runFlags
	cmd := &cobra.Command{
		Use:   "generate [owner/repo]",
		Short: "Generate a third-party notice file for a repository",
		Long: `Generate reads the dependency graph of a GitHub repository, maps every
dependency to a ClearlyDefined coordinate and writes the rendered notice to
<output-dir>/<filename>.

The repository defaults to $GITHUB_REPOSITORY, so inside a workflow the
command needs no arguments. If the full dependency graph query times out,
the run is retried once with a bounded query and a warning is emitted.

Inside GitHub Actions the notice location is published as the notice-path
step output, ready for an actions/upload-artifact step.`,
		Example: `  stacknotice generate octo/widgets
  stacknotice generate octo/widgets --format markdown --filename THIRD_PARTY.md
  stacknotice generate --limited --max-manifests 10`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := c.loadConfig()
			if err != nil {
				return err
			}
			flags.apply(cmd, &cfg)
			applyRepo(&cfg, args)
			return c.runGenerate(cmd.Context(), cfg)
		},
	}
	flags.register(cmd, true)
	return cmd
}

func (c *CLI) runGenerate(ctx context.Context, cfg config.Config) error {
	rep := c.newReporter(nil)
	rep.mask(cfg.Token)
	if err := cfg.Validate(); err != nil {
		rep.fatal(err)
		return err
	}
	defer c.installHooks()()

	runner, cleanup, err := c.newRunner(ctx, cfg, runnerOptions{fileSink: true, sinks: true})
	if err != nil {
		rep.fatal(err)
		return err
	}
	defer cleanup()

	prog := newProgress(c.Logger)
	res, err := runner.Execute(ctx, pipeline.Options{
		Owner:    cfg.Owner(),
		Repo:     cfg.Name(),
		Format:   cfg.Format,
		Filename: cfg.Filename,
		Limited:  cfg.Limited,
		Limits:   cfg.Limits,
		Logger:   c.Logger,
	})
	if err != nil {
		rep.fatal(err)
		return err
	}
	warnings := rep.report(res.Warnings)
	prog.done("notice generated", "repo", res.Repository, "format", cfg.Format, "mode", res.Mode)

	printSuccess("Notice for %s", StyleHighlight.Render(res.Repository))
	printStats(
		fmt.Sprintf("%d manifests", res.Stats.ManifestCount),
		fmt.Sprintf("%d dependencies", res.Stats.DependencyCount),
		fmt.Sprintf("%d packages", res.Stats.CoordinateCount),
		res.Mode.String(),
	)
	printKeyValue("Run ID", res.RunID)
	for _, name := range slices.Sorted(maps.Keys(res.Locations)) {
		printFile(res.Locations[name])
	}
	if warnings > 0 {
		printWarning("%d warning(s), see the log above", warnings)
	}

	rep.output("notice-path", res.Locations["file"])
	rep.output("run-id", res.RunID)
	return nil
}
