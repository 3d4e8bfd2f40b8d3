package pretty

import (
	"strings"
)

// render writes the laid out sequence. A separator becomes a newline; the
// first token of every line is preceded by its indentation, and a leading
// whitespace token is dropped.
func (g *graph) render() string {
	var b strings.Builder
	b.Grow(g.nodes[len(g.tokens)-1].end + len(g.nodes))
	lineStart := true
	for id := g.head; id != none; id = g.next(id) {
		if g.isSep(id) {
			b.WriteByte('\n')
			lineStart = true
			continue
		}
		tok := g.token(id)
		if lineStart {
			lineStart = false
			b.WriteString(strings.Repeat(" ", g.nodes[id].lineIndent))
			if tok.kind == tokWhitespace {
				continue
			}
		}
		b.WriteString(tok.text)
	}
	return b.String()
}

// RenderNodes rebuilds the text of a traced layout from its node snapshot.
// For the nodes of a Result it returns the Result's Text.
func RenderNodes(nodes []NodeInfo) string {
	var b strings.Builder
	lineStart := true
	for _, n := range nodes {
		if n.Separator {
			b.WriteByte('\n')
			lineStart = true
			continue
		}
		if lineStart {
			lineStart = false
			b.WriteString(strings.Repeat(" ", n.Indent))
			if n.Kind == tokWhitespace.String() {
				continue
			}
		}
		b.WriteString(n.Text)
	}
	return b.String()
}
