// Package cli implements the sexpfmt command-line interface.
package cli

import (
	"context"
	"io"
	"os"
	"path/filepath"

	"github.com/charmbracelet/log"
	"github.com/spf13/cobra"

	"github.com/matzehuels/sexpfmt/pkg/cache"
	"github.com/matzehuels/sexpfmt/pkg/config"
	"github.com/matzehuels/sexpfmt/pkg/pipeline"
)

// =============================================================================
// Constants
// =============================================================================

const (
	// appName is the application name used for directories and display.
	appName = "sexpfmt"
)

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

	// Config is loaded before any command runs. Flags override it.
	Config *config.Config

	configPath string
	verbose    bool
}

// New creates a new CLI instance with a default logger.
func New(w io.Writer, level log.Level) *CLI {
	return &CLI{
		Logger: newLogger(w, level),
		Config: config.Default(),
	}
}

// SetLogLevel updates the logger's level.
func (c *CLI) SetLogLevel(level log.Level) {
	c.Logger.SetLevel(level)
}

// loadConfig reads the file named by --config, or discovers one from the
// working directory.
func (c *CLI) loadConfig() error {
	if c.configPath != "" {
		cfg, err := config.Load(c.configPath)
		if err != nil {
			return err
		}
		c.Config = cfg
		return nil
	}
	wd, err := os.Getwd()
	if err != nil {
		return err
	}
	cfg, err := config.Discover(wd)
	if err != nil {
		return err
	}
	c.Config = cfg
	return nil
}

// =============================================================================
// Runner Factory
// =============================================================================

// newRunner creates a pipeline runner for CLI use.
func (c *CLI) newRunner(ctx context.Context, noCache bool) (*pipeline.Runner, error) {
	cache, err := c.newCache(ctx, noCache)
	if err != nil {
		return nil, err
	}
	return pipeline.NewRunner(cache, nil, c.Logger), nil
}

// newCache opens the configured backend. A file cache that cannot find a
// home directory degrades to no cache; remote backends must connect.
func (c *CLI) newCache(ctx context.Context, noCache bool) (cache.Cache, error) {
	if noCache {
		return cache.NewNullCache(), nil
	}
	dir, err := cacheDir()
	if err != nil {
		dir = ""
	}
	opts := c.Config.CacheOptions(dir)
	if (opts.Backend == "" || opts.Backend == cache.BackendFile) && opts.Dir == "" {
		c.Logger.Warn("no cache directory, caching disabled")
		return cache.NewNullCache(), nil
	}
	return cache.Open(ctx, opts)
}

// =============================================================================
// Paths
// =============================================================================

// cacheDir returns the cache directory using XDG standard (~/.cache/sexpfmt/).
func cacheDir() (string, error) {
	if cacheHome := os.Getenv("XDG_CACHE_HOME"); cacheHome != "" {
		return filepath.Join(cacheHome, appName), nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, ".cache", appName), nil
}

// =============================================================================
// Options Helpers
// =============================================================================

// layoutFlags are the flags shared by every command that lays out source.
type layoutFlags struct {
	width  int
	floats []string
}

func (f *layoutFlags) register(cmd *cobra.Command) {
	cmd.Flags().IntVarP(&f.width, "width", "W", pipeline.DefaultWidth, "maximum line width")
	cmd.Flags().StringSliceVar(&f.floats, "reinterpret-float", nil, "print the float with these bits as (the-as float #x...) (repeatable)")
}

// pipelineOptions merges the configuration file with the flags that were
// set on cmd.
func (c *CLI) pipelineOptions(cmd *cobra.Command, f *layoutFlags) (pipeline.Options, error) {
	opts, err := c.Config.PipelineOptions()
	if err != nil {
		return pipeline.Options{}, err
	}
	if cmd.Flags().Changed("width") {
		opts.Width = f.width
	}
	for _, s := range f.floats {
		bits, err := config.ParseFloatBits(s)
		if err != nil {
			return pipeline.Options{}, err
		}
		opts.ReinterpretFloats = append(opts.ReinterpretFloats, bits)
	}
	opts.Logger = c.Logger
	return opts, nil
}
