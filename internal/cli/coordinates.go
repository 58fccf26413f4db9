package cli

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/matzehuels/stacknotice/pkg/coordinate"
	"github.com/matzehuels/stacknotice/pkg/diag"
	"github.com/matzehuels/stacknotice/pkg/pipeline"
)

func (c *CLI) coordinatesCommand() *cobra.Command {
	var (
		flags  runFlags
		asJSON bool
	)
	cmd := &cobra.Command{
		Use:   "coordinates [owner/repo]",
		Short: "Print the ClearlyDefined coordinates of a repository's dependencies",
		Long: `Coordinates fetches the dependency graph and prints one ClearlyDefined
coordinate per line, without requesting a notice. Dependencies from
unsupported ecosystems are skipped with a warning.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := c.loadConfig()
			if err != nil {
				return err
			}
			flags.apply(cmd, &cfg)
			applyRepo(&cfg, args)
			if err := cfg.ValidateService(); err != nil {
				return err
			}
			defer c.installHooks()()

			runner, cleanup, err := c.newRunner(cmd.Context(), cfg, runnerOptions{})
			if err != nil {
				return err
			}
			defer cleanup()

			res, err := runner.Coordinates(cmd.Context(), pipeline.Options{
				Owner:   cfg.Owner(),
				Repo:    cfg.Name(),
				Limited: cfg.Limited,
				Limits:  cfg.Limits,
				Logger:  c.Logger,
			})
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			if asJSON {
				enc := json.NewEncoder(out)
				enc.SetIndent("", "  ")
				return enc.Encode(struct {
					Repository  string         `json:"repository"`
					Mode        string         `json:"mode"`
					Coordinates []string       `json:"coordinates"`
					Ecosystems  map[string]int `json:"ecosystems"`
					Warnings    []diag.Warning `json:"warnings"`
				}{
					res.Repository,
					res.Mode.String(),
					nonNil(res.Coordinates),
					coordinate.CountByType(res.Coordinates),
					nonNil(res.Warnings.Warnings()),
				})
			}

			c.newReporter(nil).report(res.Warnings)
			for _, coord := range res.Coordinates {
				fmt.Fprintln(out, coord)
			}
			return nil
		},
	}
	flags.register(cmd, false)
	cmd.Flags().BoolVar(&asJSON, "json", false, "print coordinates and warnings as JSON")
	return cmd
}

func nonNil[T any](s []T) []T {
	if s == nil {
		return []T{}
	}
	return s
}
