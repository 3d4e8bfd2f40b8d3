package nodegraph

import (
	"bytes"
	"context"
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"github.com/goccy/go-graphviz"

	"github.com/matzehuels/sexpfmt/pkg/pretty"
	"github.com/matzehuels/sexpfmt/pkg/render"
)

// Options configures diagram generation.
type Options struct {
	// Detailed adds offset and indentation to token labels.
	Detailed bool

	// Partners draws dashed edges between matching parentheses.
	Partners bool
}

// kindColors fills token boxes by kind.
var kindColors = map[string]string{
	"atom":         "white",
	"open":         "lightblue",
	"close":        "lightblue",
	"empty":        "lightyellow",
	"dot":          "lightgrey",
	"whitespace":   "whitesmoke",
	"pre-rendered": "lightpink",
}

// ToDOT converts the node sequence of res to Graphviz DOT. res must come
// from a layout with pretty.Options.Trace set; otherwise the graph is empty.
func ToDOT(res *pretty.Result, opts Options) string {
	var buf bytes.Buffer
	buf.WriteString("digraph G {\n")
	buf.WriteString("  rankdir=TB;\n")
	buf.WriteString("  bgcolor=\"transparent\";\n")
	buf.WriteString("  node [shape=box, style=\"rounded,filled\", fillcolor=white, fontname=\"monospace\", fontsize=14];\n")
	buf.WriteString("  ranksep=0.4;\n")
	buf.WriteString("  nodesep=0.15;\n")

	line := 0
	open := false
	for i, n := range res.Nodes {
		if n.Separator {
			if open {
				buf.WriteString("  }\n")
				open = false
			}
			fmt.Fprintf(&buf, "  n%d [shape=point, width=0.08, label=\"\"];\n", i)
			line++
			continue
		}
		if !open {
			fmt.Fprintf(&buf, "\n  subgraph cluster_line%d {\n", line)
			fmt.Fprintf(&buf, "    label=%q;\n", fmt.Sprintf("line %d", line+1))
			buf.WriteString("    style=dashed;\n    color=grey;\n    rank=same;\n")
			open = true
		}
		fmt.Fprintf(&buf, "    n%d [%s];\n", i, strings.Join(fmtAttrs(n, opts.Detailed), ", "))
	}
	if open {
		buf.WriteString("  }\n")
	}

	buf.WriteString("\n")
	for i := 1; i < len(res.Nodes); i++ {
		fmt.Fprintf(&buf, "  n%d -> n%d;\n", i-1, i)
	}
	if opts.Partners {
		for i, n := range res.Nodes {
			if n.Kind == "open" && n.Partner > i {
				fmt.Fprintf(&buf, "  n%d -> n%d [style=dashed, color=steelblue, constraint=false, arrowhead=none];\n", i, n.Partner)
			}
		}
	}

	buf.WriteString("}\n")
	return buf.String()
}

func fmtLabel(n pretty.NodeInfo, detailed bool) string {
	text := n.Text
	if n.Kind == "whitespace" {
		text = "␣"
	}
	if !detailed {
		return text
	}
	return fmt.Sprintf("%s\noffset: %d\nindent: %d", text, n.Offset, n.Indent)
}

func fmtAttrs(n pretty.NodeInfo, detailed bool) []string {
	attrs := []string{fmt.Sprintf("label=%q", fmtLabel(n, detailed))}
	if c, ok := kindColors[n.Kind]; ok && c != "white" {
		attrs = append(attrs, "fillcolor="+c)
	}
	if n.IndentDelta != 0 {
		attrs = append(attrs, "penwidth=2")
	}
	return attrs
}

// RenderSVG renders a DOT graph to SVG using Graphviz.
// Returns the SVG bytes ready for display or further conversion with [render.ToPDF] or [render.ToPNG].
func RenderSVG(ctx context.Context, dot string) ([]byte, error) {
	gv, err := graphviz.New(ctx)
	if err != nil {
		return nil, fmt.Errorf("init graphviz: %w", err)
	}
	defer gv.Close()

	g, err := graphviz.ParseBytes([]byte(dot))
	if err != nil {
		return nil, fmt.Errorf("parse DOT: %w", err)
	}
	defer g.Close()

	var buf bytes.Buffer
	if err := gv.Render(ctx, g, graphviz.SVG, &buf); err != nil {
		return nil, fmt.Errorf("render: %w", err)
	}
	return normalizeViewBox(buf.Bytes()), nil
}

var (
	svgTagRe  = regexp.MustCompile(`<svg[^>]*>`)
	viewBoxRe = regexp.MustCompile(`viewBox="([0-9.]+)\s+([0-9.]+)\s+([0-9.]+)\s+([0-9.]+)"`)
)

// normalizeViewBox rewrites the root element to a zero-origin viewBox with
// matching pixel size.
func normalizeViewBox(svg []byte) []byte {
	match := viewBoxRe.FindSubmatch(svg)
	if match == nil {
		return svg
	}

	w, _ := strconv.ParseFloat(string(match[3]), 64)
	h, _ := strconv.ParseFloat(string(match[4]), 64)
	if w == 0 || h == 0 {
		return svg
	}

	newSvg := fmt.Sprintf(`<svg xmlns="http://www.w3.org/2000/svg" viewBox="0 0 %.2f %.2f" width="%.0f" height="%.0f">`,
		w, h, w, h)

	return svgTagRe.ReplaceAll(svg, []byte(newSvg))
}

// Render produces the diagram of res in format, one of render.Formats.
func Render(ctx context.Context, res *pretty.Result, format string, opts Options) ([]byte, error) {
	dot := ToDOT(res, opts)
	switch format {
	case "dot":
		return []byte(dot), nil
	case "svg":
		return RenderSVG(ctx, dot)
	case "pdf":
		svg, err := RenderSVG(ctx, dot)
		if err != nil {
			return nil, err
		}
		return render.ToPDF(ctx, svg)
	case "png":
		svg, err := RenderSVG(ctx, dot)
		if err != nil {
			return nil, err
		}
		return render.ToPNG(ctx, svg, 2.0)
	default:
		return nil, fmt.Errorf("unknown format %q (want one of %s)", format, strings.Join(render.Formats, ", "))
	}
}
