// Package render converts rendered layout diagrams between output formats.
//
// The [nodegraph] subpackage draws the node sequence of a traced layout with
// Graphviz. Its SVG output can be converted here:
//
//	svg, err := nodegraph.RenderSVG(ctx, dot)
//	pdf, err := render.ToPDF(ctx, svg)
//	png, err := render.ToPNG(ctx, svg, 2.0) // 2x scale
//
// Conversion shells out to rsvg-convert from librsvg.
//
// [nodegraph]: github.com/matzehuels/sexpfmt/pkg/render/nodegraph
package render
