package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/matzehuels/sexpfmt/pkg/cache"
)

// cacheCommand creates the cache management command.
func (c *CLI) cacheCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "cache",
		Short: "Manage the formatted output cache",
	}

	cmd.AddCommand(c.cacheClearCommand())
	cmd.AddCommand(c.cachePathCommand())

	return cmd
}

// cacheClearCommand creates the "cache clear" subcommand.
func (c *CLI) cacheClearCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "clear",
		Short: "Remove all cached output",
		RunE: func(cmd *cobra.Command, args []string) error {
			store, err := c.newCache(cmd.Context(), false)
			if err != nil {
				return fmt.Errorf("open cache: %w", err)
			}
			defer store.Close()

			clearer, ok := store.(cache.Clearer)
			if !ok {
				printInfo("Cache backend %q has nothing to clear", c.backendName())
				return nil
			}
			count, err := clearer.Clear(cmd.Context())
			if err != nil {
				return fmt.Errorf("clear cache: %w", err)
			}
			if count == 0 {
				printInfo("Cache is empty")
				return nil
			}
			printSuccess("Cleared %d cached entries", count)
			printDetail("Backend: %s", c.backendName())
			return nil
		},
	}
}

// cachePathCommand creates the "cache path" subcommand.
func (c *CLI) cachePathCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "path",
		Short: "Print where cached output is stored",
		RunE: func(cmd *cobra.Command, args []string) error {
			dir, err := cacheDir()
			if err != nil {
				dir = ""
			}
			opts := c.Config.CacheOptions(dir)
			out := cmd.OutOrStdout()
			switch c.backendName() {
			case cache.BackendFile:
				if opts.Dir == "" {
					return fmt.Errorf("get cache dir: no home directory")
				}
				fmt.Fprintln(out, opts.Dir)
			case cache.BackendRedis:
				fmt.Fprintln(out, opts.RedisURL)
			case cache.BackendMongo:
				fmt.Fprintf(out, "%s (database %s)\n", opts.MongoURI, opts.MongoDatabase)
			default:
				fmt.Fprintln(out, "caching disabled")
			}
			return nil
		},
	}
}

// cacheLabel names the backend a runner will use.
func (c *CLI) cacheLabel(noCache bool) string {
	if noCache {
		return "disabled"
	}
	return c.backendName()
}

// backendName returns the configured backend, resolving the empty default.
func (c *CLI) backendName() string {
	if c.Config.Cache.Backend == "" {
		return cache.BackendFile
	}
	return c.Config.Cache.Backend
}
