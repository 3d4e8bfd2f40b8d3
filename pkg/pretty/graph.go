package pretty

import (
	"context"

	errs "github.com/matzehuels/sexpfmt/pkg/errors"
)

// nodeID indexes graph.nodes. Nodes are never removed, so IDs stay valid for
// the lifetime of a layout.
type nodeID int32

const none nodeID = -1

// node is one element of the layout sequence: either a token or a line
// separator. Separators have tok == -1.
type node struct {
	tok int32

	line        int
	offset      int // column the token starts at
	end         int // rendered column just past the token
	lineIndent  int // leading spaces, for the first token of a line
	indentDelta int // extra indentation contributed by a separator

	prev, next nodeID
	partner    nodeID // matching paren, for open and close parens
	parent     nodeID // innermost enclosing open paren
}

// graph is the doubly linked node sequence the layout passes operate on.
// All nodes live in a single arena; links are indices into it.
type graph struct {
	tokens []token
	nodes  []node
	head   nodeID
	stack  []int // scratch indentation stack reused across passes

	ctx context.Context // checked between passes; nil never stops

	// visit, when set, sees every line the resolver works on. retired is
	// true when the line is given up on.
	visit func(line nodeID, retired bool)
}

// interrupted returns a TIMEOUT error once the layout's context is done.
func (g *graph) interrupted(st *Stats) error {
	if g.ctx == nil {
		return nil
	}
	if err := g.ctx.Err(); err != nil {
		return errs.Wrap(errs.ErrCodeTimeout, err, "layout stopped after %d passes", st.Passes)
	}
	return nil
}

// build creates one node per token, links them in order, assigns every
// token a single-line offset and matches parentheses.
func build(tokens []token) (*graph, error) {
	if len(tokens) == 0 {
		return nil, errs.New(errs.ErrCodeInternal, "empty token sequence")
	}
	g := &graph{
		tokens: tokens,
		nodes:  make([]node, len(tokens), len(tokens)+len(tokens)/2),
	}
	offset := 0
	for i := range tokens {
		g.nodes[i] = node{
			tok:     int32(i),
			offset:  offset,
			prev:    nodeID(i - 1),
			next:    nodeID(i + 1),
			partner: none,
			parent:  none,
		}
		offset += tokens[i].width
		g.nodes[i].end = offset
	}
	g.nodes[len(tokens)-1].next = none

	parens := []nodeID{none}
	for i := range g.nodes {
		id := nodeID(i)
		top := parens[len(parens)-1]
		switch tokens[i].kind {
		case tokOpen:
			g.nodes[id].parent = top
			parens = append(parens, id)
		case tokClose:
			if top == none {
				return nil, errs.New(errs.ErrCodeInternal, "unbalanced close paren at token %d", i)
			}
			parens = parens[:len(parens)-1]
			g.nodes[id].partner = top
			g.nodes[top].partner = id
			g.nodes[id].parent = parens[len(parens)-1]
		default:
			g.nodes[id].parent = top
		}
	}
	if len(parens) != 1 {
		return nil, errs.New(errs.ErrCodeInternal, "%d unclosed parens", len(parens)-1)
	}
	return g, nil
}

func (g *graph) isSep(id nodeID) bool { return g.nodes[id].tok < 0 }

// kind must not be called on a separator.
func (g *graph) kind(id nodeID) tokenKind { return g.tokens[g.nodes[id].tok].kind }

func (g *graph) token(id nodeID) *token { return &g.tokens[g.nodes[id].tok] }

func (g *graph) is(id nodeID, kinds ...tokenKind) bool {
	if id == none || g.isSep(id) {
		return false
	}
	k := g.kind(id)
	for _, want := range kinds {
		if k == want {
			return true
		}
	}
	return false
}

func (g *graph) next(id nodeID) nodeID    { return g.nodes[id].next }
func (g *graph) prev(id nodeID) nodeID    { return g.nodes[id].prev }
func (g *graph) partner(id nodeID) nodeID { return g.nodes[id].partner }
func (g *graph) parent(id nodeID) nodeID  { return g.nodes[id].parent }

func (g *graph) newSeparator(delta int) nodeID {
	g.nodes = append(g.nodes, node{
		tok:         -1,
		indentDelta: delta,
		prev:        none,
		next:        none,
		partner:     none,
		parent:      none,
	})
	return nodeID(len(g.nodes) - 1)
}

// insertAfter links a separator after id unless id is the last node or
// is already followed by a separator. It reports whether a separator was
// inserted.
func (g *graph) insertAfter(id nodeID, delta int) bool {
	nxt := g.next(id)
	if nxt == none || g.isSep(nxt) {
		return false
	}
	sep := g.newSeparator(delta)
	g.nodes[sep].prev = id
	g.nodes[sep].next = nxt
	g.nodes[id].next = sep
	g.nodes[nxt].prev = sep
	return true
}

// insertBefore links a separator before id unless id is the first node or
// is already preceded by a separator.
func (g *graph) insertBefore(id nodeID, delta int) bool {
	prv := g.prev(id)
	if prv == none || g.isSep(prv) {
		return false
	}
	sep := g.newSeparator(delta)
	g.nodes[sep].prev = prv
	g.nodes[sep].next = id
	g.nodes[prv].next = sep
	g.nodes[id].prev = sep
	return true
}

// skipBlank returns the first node at or after id that is neither a
// separator nor whitespace.
func (g *graph) skipBlank(id nodeID) nodeID {
	for id != none && (g.isSep(id) || g.kind(id) == tokWhitespace) {
		id = g.next(id)
	}
	return id
}

// skipBlankBack is skipBlank walking backwards.
func (g *graph) skipBlankBack(id nodeID) nodeID {
	for id != none && (g.isSep(id) || g.kind(id) == tokWhitespace) {
		id = g.prev(id)
	}
	return id
}

// nextOnLine returns the first node after id, on the same line, whose kind
// is one of kinds.
func (g *graph) nextOnLine(id nodeID, kinds ...tokenKind) nodeID {
	return g.firstOnLine(g.next(id), kinds...)
}

// firstOnLine is nextOnLine including id itself.
func (g *graph) firstOnLine(id nodeID, kinds ...tokenKind) nodeID {
	for ; id != none && !g.isSep(id); id = g.next(id) {
		if g.is(id, kinds...) {
			return id
		}
	}
	return none
}

// nextLine returns the first node of the line following the one id is on.
func (g *graph) nextLine(id nodeID) nodeID {
	for id != none && !g.isSep(id) {
		id = g.next(id)
	}
	for id != none && g.isSep(id) {
		id = g.next(id)
	}
	return id
}

// lastOf returns the final node of the element starting at id: its partner
// for an open paren, id itself otherwise.
func (g *graph) lastOf(id nodeID) nodeID {
	if g.is(id, tokOpen) {
		return g.partner(id)
	}
	return id
}
