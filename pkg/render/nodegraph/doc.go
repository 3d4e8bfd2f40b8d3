// Package nodegraph draws the node sequence of a traced layout.
//
// # Overview
//
// The layout engine keeps its output as one sequence of tokens and line
// separators. This package turns a traced [pretty.Result] into a Graphviz
// diagram of that sequence, which makes line-breaking decisions visible:
//
//   - every output line is a cluster, its tokens on one rank
//   - solid edges follow the sequence, separators are drawn as small points
//   - dashed edges join matching parentheses
//
// # Usage
//
//	res, err := pretty.Layout(obj, pretty.Options{Width: 80, Trace: true})
//	dot := nodegraph.ToDOT(res, nodegraph.Options{})
//	svg, err := nodegraph.RenderSVG(ctx, dot)
//
// With [Options.Detailed] every label also shows the offset and indentation
// the engine computed for the token.
//
// # Dependencies
//
// This package uses [github.com/goccy/go-graphviz] for in-process SVG
// rendering. PDF and PNG conversion requires librsvg (rsvg-convert).
package nodegraph
