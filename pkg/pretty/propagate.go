package pretty

import (
	errs "github.com/matzehuels/sexpfmt/pkg/errors"
)

// propagate recomputes line numbers, offsets and indentation for the whole
// sequence. A close paren that ends a multi-line list is first moved onto
// a line of its own.
//
// Offsets count the leading whitespace token of a line even though the
// renderer drops it; end holds the rendered column. It returns the first
// line, by its first node, whose rendered width exceeds width.
func (g *graph) propagate(width int) (nodeID, error) {
	line := 0
	for id := g.head; id != none; id = g.next(id) {
		if g.isSep(id) {
			line++
			continue
		}
		g.nodes[id].line = line
		if g.kind(id) != tokClose || g.nodes[g.partner(id)].line == line {
			continue
		}
		if g.insertBefore(id, 0) {
			line++
			g.nodes[id].line = line
		}
		g.insertAfter(id, 0)
	}

	stack := append(g.stack[:0], 0)
	defer func() { g.stack = stack[:0] }()

	var (
		offset    int
		lead      int
		bad       = none
		lineStart = g.head
		afterSep  bool
	)
	for id := g.head; id != none; id = g.next(id) {
		if g.isSep(id) {
			offset = max(0, stack[len(stack)-1]+g.nodes[id].indentDelta)
			afterSep = true
			continue
		}
		tok := g.token(id)
		if afterSep {
			afterSep = false
			lineStart = id
			g.nodes[id].lineIndent = offset
			lead = 0
			if tok.kind == tokWhitespace {
				lead = 1
			}
		}
		n := &g.nodes[id]
		n.offset = offset
		offset += tok.width
		n.end = offset - lead
		if n.end > width && bad == none {
			bad = lineStart
		}

		switch tok.kind {
		case tokOpen:
			if n.prev == none || g.isSep(n.prev) {
				stack = append(stack, offset+1)
			} else {
				stack = append(stack, offset-1)
			}
		case tokClose:
			if len(stack) <= 1 {
				return none, errs.New(errs.ErrCodeInternal, "indentation stack underflow")
			}
			stack = stack[:len(stack)-1]
		}
	}
	if len(stack) != 1 {
		return none, errs.New(errs.ErrCodeInternal, "indentation stack holds %d entries after layout", len(stack))
	}
	return bad, nil
}

// firstBadLine returns the first node of the first line at or after start
// whose rendered width exceeds width, using the results of the last
// propagate.
func (g *graph) firstBadLine(start nodeID, width int) nodeID {
	lineStart := start
	afterSep := false
	for id := start; id != none; id = g.next(id) {
		if g.isSep(id) {
			afterSep = true
			continue
		}
		if afterSep {
			afterSep = false
			lineStart = id
		}
		if g.nodes[id].end > width {
			return lineStart
		}
	}
	return none
}
