package pretty

import (
	"math"

	"github.com/mattn/go-runewidth"

	errs "github.com/matzehuels/sexpfmt/pkg/errors"
	"github.com/matzehuels/sexpfmt/pkg/sexp"
)

// tokenKind classifies a layout token.
type tokenKind uint8

const (
	tokWhitespace tokenKind = iota
	tokAtom
	tokOpen
	tokClose
	tokDot
	tokEmpty
	tokPreRendered // rendered verbatim, never treated as a form head
)

var tokenKindNames = [...]string{
	tokWhitespace:  "whitespace",
	tokAtom:        "atom",
	tokOpen:        "open",
	tokClose:       "close",
	tokDot:         "dot",
	tokEmpty:       "empty",
	tokPreRendered: "pre-rendered",
}

func (k tokenKind) String() string { return tokenKindNames[k] }

// token is an indivisible unit of output. It is never split across lines.
type token struct {
	kind  tokenKind
	text  string
	width int // display columns
}

func newToken(kind tokenKind, text string) token {
	switch kind {
	case tokWhitespace:
		text = " "
	case tokOpen:
		text = "("
	case tokClose:
		text = ")"
	case tokDot:
		text = "."
	case tokEmpty:
		text = "()"
	}
	return token{kind: kind, text: text, width: runewidth.StringWidth(text)}
}

// tokenizer flattens an expression tree into layout tokens.
type tokenizer struct {
	tokens      []token
	reinterpret map[uint32]bool
}

// tokenize returns the token sequence for o. Floats whose 32-bit pattern is
// in reinterpret are emitted as (the-as float #x<bits>).
func tokenize(o sexp.Object, reinterpret map[uint32]bool) ([]token, error) {
	t := &tokenizer{reinterpret: reinterpret}
	if err := t.add(o); err != nil {
		return nil, err
	}
	return t.tokens, nil
}

func (t *tokenizer) emit(kind tokenKind, text string) {
	t.tokens = append(t.tokens, newToken(kind, text))
}

func (t *tokenizer) add(o sexp.Object) error {
	switch v := o.(type) {
	case nil:
		return errs.New(errs.ErrCodeUnsupportedKind, "cannot lay out a nil object")
	case sexp.EmptyList:
		t.emit(tokEmpty, "")
	case sexp.Float:
		if bits := math.Float32bits(float32(v)); t.reinterpret[bits] {
			t.emit(tokOpen, "")
			t.emit(tokAtom, "the-as")
			t.emit(tokWhitespace, "")
			t.emit(tokAtom, "float")
			t.emit(tokWhitespace, "")
			t.emit(tokPreRendered, sexp.FloatBitsLiteral(bits))
			t.emit(tokClose, "")
			return nil
		}
		t.emit(tokAtom, sexp.FormatFloat(float64(v)))
	case sexp.Integer, sexp.Char, sexp.Symbol, sexp.String:
		text, _ := sexp.PrintAtom(v)
		t.emit(tokAtom, text)
	case *sexp.Pair:
		t.emit(tokOpen, "")
		for {
			if err := t.add(v.Car); err != nil {
				return err
			}
			switch next := v.Cdr.(type) {
			case sexp.EmptyList:
				t.emit(tokClose, "")
				return nil
			case *sexp.Pair:
				t.emit(tokWhitespace, "")
				v = next
			default:
				t.emit(tokWhitespace, "")
				t.emit(tokDot, "")
				t.emit(tokWhitespace, "")
				if err := t.add(next); err != nil {
					return err
				}
				t.emit(tokClose, "")
				return nil
			}
		}
	default:
		return errs.New(errs.ErrCodeUnsupportedKind, "cannot lay out a value of kind %s", o.Kind())
	}
	return nil
}
