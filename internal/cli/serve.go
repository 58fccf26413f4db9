package cli

import (
	"github.com/spf13/cobra"

	"github.com/matzehuels/stacknotice/pkg/cache"
	"github.com/matzehuels/stacknotice/pkg/server"
)

func (c *CLI) serveCommand() *cobra.Command {
	var (
		flags  runFlags
		listen string
	)
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the notice HTTP service",
		Long: `Serve exposes coordinate mapping and notice generation over HTTP:

  GET  /healthz
  GET  /v1/repos/{owner}/{repo}/coordinates
  POST /v1/repos/{owner}/{repo}/notice?format=text

Notices are cached in memory unless another cache backend is configured.
Configured S3 and MongoDB sinks receive every generated notice.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := c.loadConfig()
			if err != nil {
				return err
			}
			flags.apply(cmd, &cfg)
			if cmd.Flags().Changed("listen") {
				cfg.Listen = listen
			}
			if !cmd.Flags().Changed("cache") && (cfg.Cache.Backend == "" || cfg.Cache.Backend == cache.BackendNone) {
				cfg.Cache.Backend = cache.BackendMemory
			}
			if err := cfg.ValidateService(); err != nil {
				return err
			}
			defer c.installHooks()()

			runner, cleanup, err := c.newRunner(cmd.Context(), cfg, runnerOptions{sinks: true})
			if err != nil {
				return err
			}
			defer cleanup()

			printInfo("Serving on %s", StyleHighlight.Render(cfg.Listen))
			printNextStep("Check health", "curl http://localhost"+portOf(cfg.Listen)+"/healthz")
			return server.New(runner, c.Logger).ListenAndServe(cmd.Context(), cfg.Listen)
		},
	}
	flags.register(cmd, false)
	cmd.Flags().StringVar(&flags.cacheBackend, "cache", "", "notice cache: memory, file, redis or none (default memory)")
	cmd.Flags().StringVar(&flags.clearlyDefinedURL, "clearlydefined-url", "", "ClearlyDefined API root")
	cmd.Flags().StringVar(&listen, "listen", "", "listen address (default :8080)")
	return cmd
}

func portOf(addr string) string {
	for i := len(addr) - 1; i >= 0; i-- {
		if addr[i] == ':' {
			return addr[i:]
		}
	}
	return ""
}
