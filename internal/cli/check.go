package cli

import (
	"context"
	"fmt"
	"io"
	"strconv"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
	"github.com/spf13/cobra"

	pkgio "github.com/matzehuels/sexpfmt/pkg/io"
	"github.com/matzehuels/sexpfmt/pkg/pipeline"
)

// checkOpts holds the command-line flags for the check command.
type checkOpts struct {
	layoutFlags
	noCache bool
	strict  bool // overlong lines fail the check too
}

// checkRow is one line of the check report.
type checkRow struct {
	path      string
	formatted bool
	firstDiff int
	overlong  []pipeline.OverlongLine
}

func (r checkRow) ok(strict bool) bool {
	return r.formatted && (!strict || len(r.overlong) == 0)
}

// checkCommand creates the check command. It exits with an error when any
// source is not formatted.
func (c *CLI) checkCommand() *cobra.Command {
	var opts checkOpts

	cmd := &cobra.Command{
		Use:   "check [files...]",
		Short: "Report sources that are not formatted",
		RunE: func(cmd *cobra.Command, args []string) error {
			popts, err := c.pipelineOptions(cmd, &opts.layoutFlags)
			if err != nil {
				return err
			}
			runner, err := c.newRunner(cmd.Context(), opts.noCache)
			if err != nil {
				return err
			}
			defer runner.Close()

			if len(args) == 0 {
				args = []string{pkgio.StdinPath}
			}
			rows, err := runCheck(cmd.Context(), runner, args, popts, cmd.InOrStdin())
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), renderCheckTable(rows, opts.strict))

			failed := 0
			for _, r := range rows {
				if !r.ok(opts.strict) {
					failed++
				}
			}
			if failed > 0 {
				printNextStep("Fix with", "sexpfmt format -w <files>")
				return fmt.Errorf("%d of %d sources need formatting", failed, len(rows))
			}
			printSuccess("All %d sources formatted", len(rows))
			return nil
		},
	}

	opts.register(cmd)
	cmd.Flags().BoolVar(&opts.noCache, "no-cache", false, "disable the output cache")
	cmd.Flags().BoolVar(&opts.strict, "strict", false, "also fail on lines wider than --width")

	return cmd
}

func runCheck(ctx context.Context, runner *pipeline.Runner, paths []string, popts pipeline.Options, stdin io.Reader) ([]checkRow, error) {
	rows := make([]checkRow, 0, len(paths))
	for _, path := range paths {
		src, err := pkgio.ReadSource(path, stdin)
		if err != nil {
			return nil, err
		}
		cr, err := runner.Check(ctx, src, popts)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", displayName(path), err)
		}
		rows = append(rows, checkRow{
			path:      displayName(path),
			formatted: cr.Formatted,
			firstDiff: cr.FirstDiff,
			overlong:  cr.Overlong,
		})
	}
	return rows, nil
}

// renderCheckTable draws the report with one row per source.
func renderCheckTable(rows []checkRow, strict bool) string {
	data := make([][]string, len(rows))
	for i, r := range rows {
		status := iconSuccess + " formatted"
		if !r.formatted {
			status = iconError + " differs"
		} else if !r.ok(strict) {
			status = iconWarning + " overlong"
		}
		diff := "—"
		if r.firstDiff > 0 {
			diff = "line " + strconv.Itoa(r.firstDiff)
		}
		overlong := "—"
		if n := len(r.overlong); n > 0 {
			overlong = fmt.Sprintf("%d (first at line %d)", n, r.overlong[0].Number)
		}
		data[i] = []string{r.path, status, diff, overlong}
	}

	headerStyle := lipgloss.NewStyle().Foreground(colorGray).Bold(true)
	t := table.New().
		Border(lipgloss.RoundedBorder()).
		BorderStyle(lipgloss.NewStyle().Foreground(colorDim)).
		Headers("Source", "Status", "First difference", "Overlong").
		Rows(data...).
		StyleFunc(func(row, col int) lipgloss.Style {
			base := lipgloss.NewStyle().Padding(0, 1)
			if row == -1 {
				return headerStyle.Padding(0, 1)
			}
			if col != 1 || row < 0 || row >= len(rows) {
				return base
			}
			switch r := rows[row]; {
			case !r.formatted:
				return base.Foreground(colorRed)
			case !r.ok(strict):
				return base.Foreground(colorYellow)
			default:
				return base.Foreground(colorGreen)
			}
		})
	return t.Render()
}
