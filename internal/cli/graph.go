package cli

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	pkgio "github.com/matzehuels/sexpfmt/pkg/io"
	"github.com/matzehuels/sexpfmt/pkg/pretty"
	"github.com/matzehuels/sexpfmt/pkg/render"
	"github.com/matzehuels/sexpfmt/pkg/render/nodegraph"
	"github.com/matzehuels/sexpfmt/pkg/sexp"
)

const formatJSON = "json"

// graphOpts holds the command-line flags for the graph command.
type graphOpts struct {
	layoutFlags
	output   string // output file (stdout if empty)
	format   string // dot, svg, pdf, png or json
	form     int    // 1-based index of the top-level form
	detailed bool   // offsets and indentation in labels
	partners bool   // dashed edges between matching parentheses
}

// graphCommand creates the graph command, a debugging view of how one
// top-level form was laid out.
func (c *CLI) graphCommand() *cobra.Command {
	opts := graphOpts{format: "svg", form: 1, partners: true}

	cmd := &cobra.Command{
		Use:   "graph [file]",
		Short: "Draw the layout node sequence of a form",
		Long: `Draw the node sequence the layout engine produced for one top-level form.
Each output line is a cluster; dashed edges join matching parentheses.
The json format writes the raw trace instead of a diagram.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if opts.format != formatJSON && !render.ValidFormat(opts.format) {
				return fmt.Errorf("invalid format: %s (must be dot, svg, pdf, png or json)", opts.format)
			}
			path := pkgio.StdinPath
			if len(args) == 1 {
				path = args[0]
			}
			popts, err := c.pipelineOptions(cmd, &opts.layoutFlags)
			if err != nil {
				return err
			}
			if err := popts.ValidateAndSetDefaults(); err != nil {
				return err
			}
			src, err := pkgio.ReadSource(path, cmd.InOrStdin())
			if err != nil {
				return err
			}
			layoutOpts := popts.PrettyOptions()
			layoutOpts.Trace = true
			return runGraph(cmd.Context(), src, layoutOpts, &opts, cmd.OutOrStdout())
		},
	}

	opts.register(cmd)
	cmd.Flags().StringVarP(&opts.output, "output", "o", "", "output file (stdout if empty)")
	cmd.Flags().StringVarP(&opts.format, "format", "f", opts.format, "output format: svg (default), dot, pdf, png, json")
	cmd.Flags().IntVar(&opts.form, "form", opts.form, "which top-level form to draw (1-based)")
	cmd.Flags().BoolVar(&opts.detailed, "detailed", false, "show offsets and indentation in labels")
	cmd.Flags().BoolVar(&opts.partners, "partners", opts.partners, "draw edges between matching parentheses")

	return cmd
}

func runGraph(ctx context.Context, src []byte, layoutOpts pretty.Options, opts *graphOpts, stdout io.Writer) error {
	logger := loggerFromContext(ctx)

	forms, err := sexp.Read(string(src))
	if err != nil {
		return err
	}
	if opts.form < 1 || opts.form > len(forms) {
		return fmt.Errorf("form %d out of range: source has %d top-level forms", opts.form, len(forms))
	}
	res, err := pretty.Layout(forms[opts.form-1], layoutOpts)
	if err != nil {
		return err
	}
	logger.Debug("laid out form", "form", opts.form, "nodes", len(res.Nodes), "lines", res.Lines)

	var data []byte
	if opts.format == formatJSON {
		var buf bytes.Buffer
		if err := pkgio.WriteJSON(res, layoutOpts.Width, &buf); err != nil {
			return err
		}
		data = buf.Bytes()
	} else {
		var spin *spinner
		if opts.output != "" {
			spin = startSpinner(ctx, "Rendering "+opts.format+"...")
		}
		data, err = nodegraph.Render(ctx, res, opts.format, nodegraph.Options{
			Detailed: opts.detailed,
			Partners: opts.partners,
		})
		if err != nil {
			if spin != nil {
				spin.Fail("Rendering failed")
			}
			return err
		}
		spin.Stop()
	}

	if opts.output == "" {
		_, err := stdout.Write(data)
		return err
	}
	if err := os.WriteFile(opts.output, data, 0o644); err != nil {
		return fmt.Errorf("write %s: %w", opts.output, err)
	}
	printSuccess("Rendered form %d as %s", opts.form, opts.format)
	printFile(opts.output)
	return nil
}
