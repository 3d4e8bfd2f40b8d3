package sexp

import (
	"fmt"
	"math"
	"strconv"
	"strings"
)

var charNames = map[rune]string{
	' ':  "space",
	'\n': "newline",
	'\t': "tab",
	'\r': "return",
	0:    "nul",
}

// PrintAtom returns the canonical printed form of a leaf value. The second
// result is false when o is not a printable leaf.
func PrintAtom(o Object) (string, bool) {
	switch v := o.(type) {
	case EmptyList:
		return "()", true
	case Integer:
		return strconv.FormatInt(int64(v), 10), true
	case Float:
		return FormatFloat(float64(v)), true
	case Char:
		if name, ok := charNames[rune(v)]; ok {
			return `#\` + name, true
		}
		return `#\` + string(rune(v)), true
	case Symbol:
		return string(v), true
	case String:
		return Quote(string(v)), true
	}
	return "", false
}

// FormatFloat renders f as the shortest decimal that reads back to the same
// value, always including a decimal point so it cannot be mistaken for an
// integer.
func FormatFloat(f float64) string {
	if math.IsInf(f, 0) || math.IsNaN(f) {
		return strconv.FormatFloat(f, 'g', -1, 64)
	}
	s := strconv.FormatFloat(f, 'f', -1, 64)
	if !strings.ContainsRune(s, '.') {
		s += ".0"
	}
	return s
}

// Quote returns s as a double-quoted string literal.
func Quote(s string) string {
	var b strings.Builder
	b.Grow(len(s) + 2)
	b.WriteByte('"')
	for _, r := range s {
		switch r {
		case '"':
			b.WriteString(`\"`)
		case '\\':
			b.WriteString(`\\`)
		case '\n':
			b.WriteString(`\n`)
		case '\t':
			b.WriteString(`\t`)
		default:
			b.WriteRune(r)
		}
	}
	b.WriteByte('"')
	return b.String()
}

// Print renders o on a single line. Values without reader syntax are
// rendered as #<kind> placeholders.
func Print(o Object) string {
	var b strings.Builder
	writeObject(&b, o)
	return b.String()
}

func writeObject(b *strings.Builder, o Object) {
	if s, ok := PrintAtom(o); ok {
		b.WriteString(s)
		return
	}
	switch v := o.(type) {
	case *Pair:
		b.WriteByte('(')
		for {
			writeObject(b, v.Car)
			switch next := v.Cdr.(type) {
			case EmptyList:
				b.WriteByte(')')
				return
			case *Pair:
				b.WriteByte(' ')
				v = next
			default:
				b.WriteString(" . ")
				writeObject(b, next)
				b.WriteByte(')')
				return
			}
		}
	case *Array:
		b.WriteString("#(")
		for i, e := range v.Elems {
			if i > 0 {
				b.WriteByte(' ')
			}
			writeObject(b, e)
		}
		b.WriteByte(')')
	case nil:
		b.WriteString("#<nil>")
	default:
		fmt.Fprintf(b, "#<%s>", o.Kind())
	}
}
