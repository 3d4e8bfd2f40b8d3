package cli

import (
	"context"
	"fmt"
	"io"

	"github.com/spf13/cobra"

	errs "github.com/matzehuels/sexpfmt/pkg/errors"
	pkgio "github.com/matzehuels/sexpfmt/pkg/io"
	"github.com/matzehuels/sexpfmt/pkg/pipeline"
	"github.com/matzehuels/sexpfmt/pkg/sexp"
)

// formatOpts holds the command-line flags for the format command.
type formatOpts struct {
	layoutFlags
	write   bool // rewrite files in place
	force   bool // rewrite even when comments or shorthands would be lost
	list    bool // list files whose formatting differs
	noCache bool // disable the output cache
	refresh bool // ignore cached output but store the new result
}

// formatCommand creates the format command.
//
// With no file arguments the source is read from stdin and the result is
// written to stdout. With files, the result is printed unless --write or
// --list is given. The layout keeps neither comments nor the 'x and #x
// shorthands, so --write refuses a file that has them unless --force is
// given.
func (c *CLI) formatCommand() *cobra.Command {
	var opts formatOpts

	cmd := &cobra.Command{
		Use:   "format [files...]",
		Short: "Lay out s-expression source",
		Example: `  sexpfmt format init.gc
  sexpfmt format -w --width 100 src/*.gc
  echo '(defun foo () 1)' | sexpfmt format`,
		RunE: func(cmd *cobra.Command, args []string) error {
			if opts.write && opts.list {
				return fmt.Errorf("--write and --list are mutually exclusive")
			}
			if opts.write && len(args) == 0 {
				return fmt.Errorf("--write needs at least one file")
			}
			if opts.force && !opts.write {
				return fmt.Errorf("--force only applies to --write")
			}
			popts, err := c.pipelineOptions(cmd, &opts.layoutFlags)
			if err != nil {
				return err
			}
			popts.Refresh = opts.refresh

			runner, err := c.newRunner(cmd.Context(), opts.noCache)
			if err != nil {
				return err
			}
			defer runner.Close()

			if len(args) == 0 {
				args = []string{pkgio.StdinPath}
			}
			return c.runFormat(cmd.Context(), runner, args, popts, &opts, cmd.InOrStdin(), cmd.OutOrStdout())
		},
	}

	opts.register(cmd)
	cmd.Flags().BoolVarP(&opts.write, "write", "w", false, "write result to the source files instead of stdout")
	cmd.Flags().BoolVar(&opts.force, "force", false, "with --write, rewrite files even if comments would be lost")
	cmd.Flags().BoolVarP(&opts.list, "list", "l", false, "list files whose formatting differs")
	cmd.Flags().BoolVar(&opts.noCache, "no-cache", false, "disable the output cache")
	cmd.Flags().BoolVar(&opts.refresh, "refresh", false, "recompute cached output")

	return cmd
}

// runFormat formats every path in order and stops at the first error.
func (c *CLI) runFormat(ctx context.Context, runner *pipeline.Runner, paths []string, popts pipeline.Options, opts *formatOpts, stdin io.Reader, stdout io.Writer) error {
	logger := loggerFromContext(ctx)
	tally := newFormatTally(logger)

	var spin *spinner
	if (opts.write || opts.list) && len(paths) >= spinnerMinSources {
		spin = startSpinner(ctx, fmt.Sprintf("Formatting %d sources...", len(paths)))
	}
	defer spin.Stop()

	for i, path := range paths {
		spin.Update("Formatting %s (%d/%d)", displayName(path), i+1, len(paths))
		src, err := pkgio.ReadSource(path, stdin)
		if err != nil {
			return err
		}
		res, err := runner.Execute(ctx, src, popts)
		if err != nil {
			return fmt.Errorf("%s: %w", displayName(path), err)
		}
		logger.Debug("formatted", "file", displayName(path), "lines", res.Stats.Lines, "cached", res.CacheHit)
		if res.Stats.Overlong > 0 {
			spin.Above(func() {
				printWarning("%s: %d lines exceed width %d", displayName(path), res.Stats.Overlong, popts.Width)
			})
		}

		differs := res.Text != string(src)
		tally.add(differs, res.CacheHit)

		switch {
		case opts.list:
			if differs {
				fmt.Fprintln(stdout, displayName(path))
			}
		case opts.write:
			if !differs {
				continue
			}
			if err := checkLossless(path, src, opts.force, spin); err != nil {
				return err
			}
			if err := pkgio.WriteFile(path, []byte(res.Text)); err != nil {
				return err
			}
			spin.Above(func() {
				printFile(path)
				printStats(res.Stats.Lines, res.Stats.Overlong, res.CacheHit)
			})
		default:
			if _, err := io.WriteString(stdout, res.Text); err != nil {
				return err
			}
		}
	}
	spin.Stop()

	if opts.write {
		if tally.changed == 0 {
			printSuccess("All %d files already formatted", len(paths))
		} else {
			printSuccess("Formatted %d of %d files", tally.changed, len(paths))
		}
	}
	if opts.write || opts.list {
		tally.finish("processed sources")
	}
	return nil
}

// checkLossless refuses to overwrite path when its source holds text the
// formatted output drops. With force the loss is only reported.
func checkLossless(path string, src []byte, force bool, spin *spinner) error {
	_, dropped, err := sexp.ReadDiscarded(string(src))
	if err != nil || !dropped.Any() {
		return err
	}
	if !force {
		return errs.New(errs.ErrCodeInvalidInput,
			"%s: rewriting would drop %d comments and expand %d shorthands; rerun with --force to write anyway",
			path, dropped.Comments, dropped.Shorthands)
	}
	spin.Above(func() {
		printWarning("%s: dropped %d comments, expanded %d shorthands", path, dropped.Comments, dropped.Shorthands)
	})
	return nil
}

// displayName names a path in messages.
func displayName(path string) string {
	if path == pkgio.StdinPath {
		return "<stdin>"
	}
	return path
}
