package pretty

// breakList puts the elements of the list opened at lp on separate lines,
// starting with the element from (or with the first element when from is
// none). The dot of an improper list gets a line of its own, so a long
// tail can move off the dot's line. It returns the number of separators
// inserted.
func (g *graph) breakList(lp, from nodeID, delta int) int {
	inserted := 0
	breaking := from == none
	end := g.partner(lp)
	for n := g.next(lp); n != none && n != end; n = g.next(n) {
		if n == from {
			breaking = true
		}
		if g.isSep(n) {
			continue
		}
		switch g.kind(n) {
		case tokWhitespace:
		case tokOpen:
			n = g.partner(n)
			if breaking && g.insertAfter(n, delta) {
				inserted++
			}
		default:
			if breaking && g.insertAfter(n, delta) {
				inserted++
			}
		}
	}
	return inserted
}

// headsList reports whether the atom at id is the first element of a list.
func (g *graph) headsList(id nodeID) bool {
	p := g.prev(id)
	return p != none && p == g.parent(id) && g.is(p, tokOpen)
}

// insertSpecialBreaks applies the form table to every list whose head names
// a special form.
func (g *graph) insertSpecialBreaks(forms *FormTable) {
	if forms.Len() == 0 {
		return
	}
	for id := g.head; id != none; id = g.next(id) {
		if !g.is(id, tokAtom) {
			continue
		}
		rule, ok := forms.Lookup(g.token(id).text)
		if !ok || !g.headsList(id) {
			continue
		}
		lp, d := g.parent(id), rule.IndentDelta
		switch rule.Strategy {
		case StrategyTypeDeclaration:
			if p := g.nextOnLine(id, tokOpen); p != none {
				g.insertAfter(g.partner(p), d)
			}
		case StrategyBlock:
			g.breakList(lp, none, d)
		case StrategyDefinition, StrategyBindingList:
			first := g.nextOnLine(id, tokOpen, tokEmpty)
			if first == none {
				continue
			}
			g.insertAfter(g.lastOf(first), d)
			g.breakList(lp, first, d)
			if rule.Strategy == StrategyBindingList && g.is(first, tokOpen) && !g.singleBinding(first) {
				g.breakList(first, none, d)
			}
			g.ownLine(lp, d)
		case StrategyControlFlow:
			cond := g.nextOnLine(id, tokAtom, tokOpen, tokEmpty, tokPreRendered)
			if cond == none {
				continue
			}
			g.insertAfter(g.lastOf(cond), d)
			g.breakList(lp, cond, d)
			g.ownLine(lp, d)
		case StrategyMultiClause:
			clause := g.nextOnLine(id, tokOpen)
			for clause != none {
				g.breakList(clause, none, d)
				n := g.skipBlank(g.next(g.partner(clause)))
				if !g.is(n, tokOpen) {
					break
				}
				clause = n
			}
			g.breakList(lp, none, d)
		}
	}
}

// singleBinding reports whether the binding list opened at lp holds exactly
// one binding.
func (g *graph) singleBinding(lp nodeID) bool {
	b := g.skipBlank(g.next(lp))
	if !g.is(b, tokOpen) {
		return false
	}
	return g.skipBlank(g.next(g.partner(b))) == g.partner(lp)
}

// ownLine starts the form opened at lp on a fresh line, along with every
// sibling after it, unless the form heads its enclosing list.
func (g *graph) ownLine(lp nodeID, delta int) {
	enclosing := g.parent(lp)
	if enclosing == none || g.prev(lp) == enclosing {
		return
	}
	if before := g.skipBlankBack(g.prev(lp)); before != none && before != enclosing {
		g.insertAfter(before, delta)
	}
	g.breakList(enclosing, lp, delta)
}
