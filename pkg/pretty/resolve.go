package pretty

// Stats describes the work done by one layout.
type Stats struct {
	Tokens  int // tokens in the flattened tree
	Breaks  int // line separators in the final layout
	Passes  int // propagation passes
	Splits  int // lists split by the width resolver
	Retired int // lines the resolver gave up on
}

// resolve splits lists until every line fits in width or cannot be made to
// fit. Lines are handled front to back. A line that is still too long after
// an attempt is retired and the search continues after it, so the loop
// terminates: every attempt either adds a separator or retires a line. The
// graph's context is checked before every pass.
func (g *graph) resolve(width int, st *Stats) error {
	last, search := none, g.head
	for {
		if err := g.interrupted(st); err != nil {
			return err
		}
		if _, err := g.propagate(width); err != nil {
			return err
		}
		st.Passes++

		cand := g.firstBadLine(search, width)
		if cand != none && cand == last {
			st.Retired++
			if g.visit != nil {
				g.visit(cand, true)
			}
			cand = none
			if next := g.nextLine(search); next != none {
				cand = g.firstBadLine(next, width)
			}
		}
		if cand == none {
			return nil
		}
		if g.visit != nil {
			g.visit(cand, false)
		}
		if err := g.fixLine(cand, width, st); err != nil {
			return err
		}
		last, search = cand, cand
	}
}

// fixLine splits the lists on the line at start, left to right, until the
// line changes. If none of them helps, the list enclosing the line's first
// element is split instead.
func (g *graph) fixLine(start nodeID, width int, st *Stats) error {
	for form := g.firstOnLine(start, tokOpen); form != none; form = g.nextOnLine(form, tokOpen) {
		if g.breakList(form, none, 0) > 0 {
			st.Splits++
		}
		if err := g.interrupted(st); err != nil {
			return err
		}
		if _, err := g.propagate(width); err != nil {
			return err
		}
		st.Passes++
		if g.firstBadLine(start, width) != start {
			return nil
		}
	}

	first := g.skipBlank(start)
	if first == none || g.kind(first) == tokClose {
		return nil
	}
	if enclosing := g.parent(first); enclosing != none && g.breakList(enclosing, none, 0) > 0 {
		st.Splits++
	}
	return nil
}
