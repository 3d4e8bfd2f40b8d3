package sexp

import (
	"strconv"
	"strings"
	"unicode"
	"unicode/utf8"

	errs "github.com/matzehuels/sexpfmt/pkg/errors"
)

// Read parses every top-level form in src.
func Read(src string) ([]Object, error) {
	r := &reader{src: src, line: 1, col: 1}
	return r.readAll()
}

// Discarded counts source text that the tree does not keep. Printing the
// forms of a source with any of it does not reproduce that text.
type Discarded struct {
	Comments   int // ; comments
	Shorthands int // 'x quotes and #x / #b literals, printed in long form
}

// Any reports whether anything was discarded.
func (d Discarded) Any() bool {
	return d.Comments > 0 || d.Shorthands > 0
}

// ReadDiscarded parses src like Read and reports what reading dropped.
func ReadDiscarded(src string) ([]Object, Discarded, error) {
	r := &reader{src: src, line: 1, col: 1}
	forms, err := r.readAll()
	return forms, r.dropped, err
}

func (r *reader) readAll() ([]Object, error) {
	var forms []Object
	for {
		r.skipAtmosphere()
		if r.eof() {
			return forms, nil
		}
		o, err := r.read()
		if err != nil {
			return nil, err
		}
		forms = append(forms, o)
	}
}

// ReadOne parses src, which must hold exactly one form.
func ReadOne(src string) (Object, error) {
	forms, err := Read(src)
	if err != nil {
		return nil, err
	}
	if len(forms) != 1 {
		return nil, errs.New(errs.ErrCodeParse, "expected exactly one form, got %d", len(forms))
	}
	return forms[0], nil
}

type reader struct {
	src       string
	pos       int
	line, col int
	dropped   Discarded
}

func (r *reader) eof() bool { return r.pos >= len(r.src) }

func (r *reader) peek() rune {
	if r.eof() {
		return utf8.RuneError
	}
	c, _ := utf8.DecodeRuneInString(r.src[r.pos:])
	return c
}

func (r *reader) next() rune {
	c, n := utf8.DecodeRuneInString(r.src[r.pos:])
	r.pos += n
	if c == '\n' {
		r.line++
		r.col = 1
	} else {
		r.col++
	}
	return c
}

func (r *reader) errorf(format string, args ...any) error {
	e := errs.New(errs.ErrCodeParse, format, args...)
	e.Message = strconv.Itoa(r.line) + ":" + strconv.Itoa(r.col) + ": " + e.Message
	return e
}

// skipAtmosphere skips whitespace and ; comments.
func (r *reader) skipAtmosphere() {
	for !r.eof() {
		c := r.peek()
		switch {
		case unicode.IsSpace(c):
			r.next()
		case c == ';':
			r.dropped.Comments++
			for !r.eof() && r.peek() != '\n' {
				r.next()
			}
		default:
			return
		}
	}
}

func (r *reader) read() (Object, error) {
	r.skipAtmosphere()
	if r.eof() {
		return nil, r.errorf("unexpected end of input")
	}
	switch c := r.peek(); c {
	case '(':
		r.next()
		return r.readList()
	case ')':
		return nil, r.errorf("unexpected ')'")
	case '\'':
		r.next()
		r.dropped.Shorthands++
		quoted, err := r.read()
		if err != nil {
			return nil, err
		}
		return List(Symbol("quote"), quoted), nil
	case '"':
		r.next()
		return r.readString()
	case '#':
		return r.readHash()
	default:
		return r.readAtom()
	}
}

func (r *reader) readList() (Object, error) {
	var elems []Object
	var tail Object = Nil
	for {
		r.skipAtmosphere()
		if r.eof() {
			return nil, r.errorf("unterminated list")
		}
		if r.peek() == ')' {
			r.next()
			break
		}
		if r.peek() == '.' && r.isDelimiter(r.pos+1) {
			if len(elems) == 0 {
				return nil, r.errorf("dot at start of list")
			}
			r.next()
			t, err := r.read()
			if err != nil {
				return nil, err
			}
			tail = t
			r.skipAtmosphere()
			if r.eof() || r.peek() != ')' {
				return nil, r.errorf("expected ')' after dotted tail")
			}
			r.next()
			break
		}
		o, err := r.read()
		if err != nil {
			return nil, err
		}
		elems = append(elems, o)
	}
	out := tail
	for i := len(elems) - 1; i >= 0; i-- {
		out = Cons(elems[i], out)
	}
	return out, nil
}

func (r *reader) readString() (Object, error) {
	var b strings.Builder
	for {
		if r.eof() {
			return nil, r.errorf("unterminated string")
		}
		c := r.next()
		switch c {
		case '"':
			return String(b.String()), nil
		case '\\':
			if r.eof() {
				return nil, r.errorf("unterminated string escape")
			}
			switch e := r.next(); e {
			case 'n':
				b.WriteByte('\n')
			case 't':
				b.WriteByte('\t')
			case '\\', '"':
				b.WriteRune(e)
			default:
				return nil, r.errorf("unknown string escape \\%c", e)
			}
		default:
			b.WriteRune(c)
		}
	}
}

func (r *reader) readHash() (Object, error) {
	r.next()
	if r.eof() {
		return nil, r.errorf("unexpected end of input after '#'")
	}
	switch r.peek() {
	case '\\':
		r.next()
		if r.eof() {
			return nil, r.errorf("unexpected end of input in character")
		}
		first := r.next()
		name := string(first) + r.token()
		if utf8.RuneCountInString(name) == 1 {
			return Char(first), nil
		}
		for c, n := range charNames {
			if n == name {
				return Char(c), nil
			}
		}
		return nil, r.errorf("unknown character name %q", name)
	case '(':
		r.next()
		l, err := r.readList()
		if err != nil {
			return nil, err
		}
		elems, tail := Slice(l)
		if !IsEmptyList(tail) {
			return nil, r.errorf("dotted array literal")
		}
		return &Array{Elems: elems}, nil
	case 'x', 'X':
		r.next()
		return r.readRadix("#x", 16)
	case 'b', 'B':
		r.next()
		return r.readRadix("#b", 2)
	default:
		// #t, #f and friends read as symbols.
		return Symbol("#" + r.token()), nil
	}
}

func (r *reader) readRadix(prefix string, base int) (Object, error) {
	r.dropped.Shorthands++
	tok := r.token()
	n, err := strconv.ParseInt(tok, base, 64)
	if err != nil {
		u, uerr := strconv.ParseUint(tok, base, 64)
		if uerr != nil {
			return nil, r.errorf("invalid %s literal %q", prefix, tok)
		}
		n = int64(u)
	}
	return Integer(n), nil
}

func (r *reader) readAtom() (Object, error) {
	tok := r.token()
	if tok == "" {
		return nil, r.errorf("unexpected character %q", r.peek())
	}
	if n, err := strconv.ParseInt(tok, 10, 64); err == nil {
		return Integer(n), nil
	}
	if looksLikeFloat(tok) {
		if f, err := strconv.ParseFloat(tok, 64); err == nil {
			return Float(f), nil
		}
	}
	return Symbol(tok), nil
}

// token consumes characters up to the next delimiter.
func (r *reader) token() string {
	start := r.pos
	for !r.eof() && !r.isDelimiter(r.pos) {
		r.next()
	}
	return r.src[start:r.pos]
}

func (r *reader) isDelimiter(pos int) bool {
	if pos >= len(r.src) {
		return true
	}
	c, _ := utf8.DecodeRuneInString(r.src[pos:])
	return unicode.IsSpace(c) || strings.ContainsRune(`()";'`, c)
}

// looksLikeFloat accepts [+-]digits[.digits][e[+-]digits] with at least one
// digit, so that symbols such as "inf" or "e" stay symbols.
func looksLikeFloat(tok string) bool {
	digits := 0
	for i, c := range tok {
		switch {
		case c >= '0' && c <= '9':
			digits++
		case c == '.' || c == 'e' || c == 'E':
		case (c == '+' || c == '-') && (i == 0 || tok[i-1] == 'e' || tok[i-1] == 'E'):
		default:
			return false
		}
	}
	return digits > 0
}
