package pretty

import (
	"context"
	"strings"

	"github.com/mattn/go-runewidth"

	errs "github.com/matzehuels/sexpfmt/pkg/errors"
	"github.com/matzehuels/sexpfmt/pkg/sexp"
)

// DefaultWidth is the line width used by callers that do not choose one.
const DefaultWidth = 80

// Options configures a layout.
type Options struct {
	// Width is the maximum rendered line width. Lines holding a single
	// token wider than this are allowed to exceed it.
	Width int

	// ReinterpretFloats lists 32-bit float patterns that are printed as
	// (the-as float #x<bits>) instead of a decimal literal.
	ReinterpretFloats map[uint32]bool

	// Forms overrides the special-form table. Nil means DefaultForms.
	Forms *FormTable

	// Trace records the final node sequence in Result.Nodes.
	Trace bool
}

// Result is the outcome of a layout.
type Result struct {
	Text     string
	Lines    int
	Overlong int // lines wider than Width
	Stats    Stats
	Nodes    []NodeInfo // only with Options.Trace
}

// NodeInfo is a snapshot of one node of the final layout sequence.
type NodeInfo struct {
	Separator   bool   `json:"separator,omitempty"`
	Kind        string `json:"kind"`
	Text        string `json:"text,omitempty"`
	Line        int    `json:"line"`
	Offset      int    `json:"offset"`
	Indent      int    `json:"indent,omitempty"`
	IndentDelta int    `json:"indent_delta,omitempty"`
	Partner     int    `json:"partner"` // index into Result.Nodes, or -1
}

// Format lays out obj and returns the text.
func Format(obj sexp.Object, opts Options) (string, error) {
	res, err := Layout(obj, opts)
	if err != nil {
		return "", err
	}
	return res.Text, nil
}

// Layout lays out obj.
//
// The tree is flattened to tokens, special forms are broken according to
// the form table, and lists on over-long lines are split until every line
// fits or holds nothing that can be split. Layout is deterministic and safe
// for concurrent use.
func Layout(obj sexp.Object, opts Options) (*Result, error) {
	return LayoutContext(context.Background(), obj, opts)
}

// LayoutContext is Layout with a context that bounds the width resolution.
// Once ctx is done the layout stops with an ErrCodeTimeout error that wraps
// ctx.Err().
func LayoutContext(ctx context.Context, obj sexp.Object, opts Options) (*Result, error) {
	if err := errs.ValidateWidth(opts.Width); err != nil {
		return nil, err
	}
	forms := opts.Forms
	if forms == nil {
		forms = defaultForms
	}

	tokens, err := tokenize(obj, opts.ReinterpretFloats)
	if err != nil {
		return nil, err
	}
	g, err := build(tokens)
	if err != nil {
		return nil, err
	}
	g.ctx = ctx
	g.insertSpecialBreaks(forms)

	st := Stats{Tokens: len(tokens)}
	if err := g.resolve(opts.Width, &st); err != nil {
		return nil, err
	}
	st.Breaks = len(g.nodes) - len(tokens)

	res := &Result{Text: g.render(), Stats: st}
	for _, line := range strings.Split(res.Text, "\n") {
		res.Lines++
		if runewidth.StringWidth(line) > opts.Width {
			res.Overlong++
		}
	}
	if opts.Trace {
		res.Nodes = g.snapshot()
	}
	return res, nil
}

// snapshot lists the nodes in sequence order.
func (g *graph) snapshot() []NodeInfo {
	index := make(map[nodeID]int, len(g.nodes))
	for id, i := g.head, 0; id != none; id, i = g.next(id), i+1 {
		index[id] = i
	}
	out := make([]NodeInfo, 0, len(g.nodes))
	for id := g.head; id != none; id = g.next(id) {
		n := g.nodes[id]
		info := NodeInfo{
			Offset:      n.offset,
			Line:        n.line,
			IndentDelta: n.indentDelta,
			Partner:     -1,
		}
		if g.isSep(id) {
			info.Separator = true
			info.Kind = "separator"
		} else {
			tok := g.token(id)
			info.Kind = tok.kind.String()
			info.Text = tok.text
			info.Indent = n.lineIndent
			if n.partner != none {
				info.Partner = index[n.partner]
			}
		}
		out = append(out, info)
	}
	return out
}
