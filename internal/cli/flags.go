package cli

import (
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/matzehuels/stacknotice/pkg/config"
	"github.com/matzehuels/stacknotice/pkg/notice"
)

// runFlags are the command-line overrides shared by generate, coordinates
// and serve. Only flags the user set are applied over the configuration.
type runFlags struct {
	token             string
	format            string
	filename          string
	outputDir         string
	limited           bool
	maxManifests      int
	maxDependencies   int
	timeout           time.Duration
	concurrency       int
	cacheBackend      string
	githubURL         string
	clearlyDefinedURL string
}

func (f *runFlags) register(cmd *cobra.Command, withNotice bool) {
	fs := cmd.Flags()
	fs.StringVar(&f.token, "token", "", "GitHub token (default $GITHUB_TOKEN)")
	fs.BoolVar(&f.limited, "limited", false, "skip the full query and fetch a bounded graph")
	fs.IntVar(&f.maxManifests, "max-manifests", 0, "manifest bound for limited queries (default 15)")
	fs.IntVar(&f.maxDependencies, "max-dependencies", 0, "per-manifest dependency bound for limited queries (default 30)")
	fs.DurationVar(&f.timeout, "timeout", 0, "per-request timeout, 0 for none (default 30s)")
	fs.IntVar(&f.concurrency, "concurrency", 0, "manifests whose dependencies are paged concurrently (default 4)")
	fs.StringVar(&f.githubURL, "github-url", "", "GitHub API root")
	if !withNotice {
		return
	}
	fs.StringVarP(&f.format, "format", "f", "", "notice format: "+formatList())
	fs.StringVar(&f.filename, "filename", "", "notice file name (default NOTICE)")
	fs.StringVarP(&f.outputDir, "output-dir", "o", "", "directory for the notice file (default $GITHUB_WORKSPACE or .)")
	fs.StringVar(&f.cacheBackend, "cache", "", "notice cache: none, file, memory or redis")
	fs.StringVar(&f.clearlyDefinedURL, "clearlydefined-url", "", "ClearlyDefined API root")
}

func (f *runFlags) apply(cmd *cobra.Command, cfg *config.Config) {
	changed := cmd.Flags().Changed
	set := func(name string, dst *string, v string) {
		if changed(name) {
			*dst = v
		}
	}
	set("token", &cfg.Token, f.token)
	set("filename", &cfg.Filename, f.filename)
	set("output-dir", &cfg.OutputDir, f.outputDir)
	set("cache", &cfg.Cache.Backend, f.cacheBackend)
	set("github-url", &cfg.GitHubURL, f.githubURL)
	set("clearlydefined-url", &cfg.ClearlyDefinedURL, f.clearlyDefinedURL)
	if changed("format") {
		cfg.Format = notice.Format(f.format)
	}
	if changed("limited") {
		cfg.Limited = f.limited
	}
	if changed("max-manifests") {
		cfg.Limits.MaxManifests = f.maxManifests
	}
	if changed("max-dependencies") {
		cfg.Limits.MaxDependencies = f.maxDependencies
	}
	if changed("timeout") {
		cfg.Timeout = f.timeout
	}
	if changed("concurrency") {
		cfg.Concurrency = f.concurrency
	}
}

// applyRepo takes the repository from the first argument, if given.
func applyRepo(cfg *config.Config, args []string) {
	if len(args) > 0 {
		cfg.Repository = strings.TrimSpace(args[0])
	}
}

func formatList() string {
	names := make([]string, len(notice.Formats))
	for i, f := range notice.Formats {
		names[i] = string(f)
	}
	return strings.Join(names, ", ")
}
