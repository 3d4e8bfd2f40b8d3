package cli

import (
	"github.com/spf13/cobra"

	"github.com/matzehuels/sexpfmt/pkg/buildinfo"
	"github.com/matzehuels/sexpfmt/pkg/observability"
)

// RootCommand creates the root cobra command with all subcommands registered.
//
// Every command supports --verbose (-v) for debug-level logging and
// --config to name a configuration file instead of discovering one. The
// logger is attached to the command context and reachable through
// loggerFromContext.
func (c *CLI) RootCommand() *cobra.Command {
	root := &cobra.Command{
		Use:   appName,
		Short: "sexpfmt lays out s-expressions to fit a line width",
		Long: `sexpfmt is a pretty-printer for s-expression source. It breaks special forms
(definitions, bindings, control flow) the conventional way and splits any
other list that does not fit the line width.`,
		Version:      buildinfo.Version,
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			level := LogInfo
			if c.verbose {
				level = LogDebug
			}
			c.SetLogLevel(level)
			if c.verbose {
				observability.NewLogHooks(c.Logger).Install()
			}
			cmd.SetContext(withLogger(cmd.Context(), c.Logger))

			if err := c.loadConfig(); err != nil {
				return err
			}
			if c.Config.Path != "" {
				c.Logger.Debug("loaded config", "path", c.Config.Path)
			}
			return nil
		},
	}

	root.SetVersionTemplate(buildinfo.Template())
	root.PersistentFlags().BoolVarP(&c.verbose, "verbose", "v", false, "enable verbose logging")
	root.PersistentFlags().StringVar(&c.configPath, "config", "", "configuration file (default: discover .sexpfmt.toml)")

	// Register all subcommands
	root.AddCommand(c.formatCommand())
	root.AddCommand(c.checkCommand())
	root.AddCommand(c.graphCommand())
	root.AddCommand(c.previewCommand())
	root.AddCommand(c.formsCommand())
	root.AddCommand(c.serveCommand())
	root.AddCommand(c.cacheCommand())
	root.AddCommand(c.completionCommand())

	return root
}
