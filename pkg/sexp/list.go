package sexp

import (
	"fmt"
	"math"

	errs "github.com/matzehuels/sexpfmt/pkg/errors"
)

// List builds a proper list from objs. With no arguments it returns [Nil].
func List(objs ...Object) Object {
	var out Object = Nil
	for i := len(objs) - 1; i >= 0; i-- {
		out = Cons(objs[i], out)
	}
	return out
}

// Symbols builds a proper list of symbols.
func Symbols(names ...string) Object {
	objs := make([]Object, len(names))
	for i, n := range names {
		objs[i] = Symbol(n)
	}
	return List(objs...)
}

// Append destructively replaces the terminating empty list of the proper,
// non-empty list l with tail.
func Append(l Object, tail Object) error {
	p, ok := l.(*Pair)
	if !ok {
		return errs.New(errs.ErrCodeInvalidInput, "append: not a non-empty list: %s", Print(l))
	}
	for {
		switch next := p.Cdr.(type) {
		case EmptyList:
			p.Cdr = tail
			return nil
		case *Pair:
			p = next
		default:
			return errs.New(errs.ErrCodeInvalidInput, "append: improper list: %s", Print(l))
		}
	}
}

// Slice returns the elements of a list and its terminator. The terminator
// is [Nil] for proper lists.
func Slice(l Object) ([]Object, Object) {
	var elems []Object
	for {
		p, ok := l.(*Pair)
		if !ok {
			return elems, l
		}
		elems = append(elems, p.Car)
		l = p.Cdr
	}
}

// Len returns the number of elements of a proper list, or -1 if l is not a
// proper list.
func Len(l Object) int {
	elems, tail := Slice(l)
	if !IsEmptyList(tail) {
		return -1
	}
	return len(elems)
}

// Equal reports whether a and b are structurally equal. Floats compare by
// bit pattern so that NaN equals itself.
func Equal(a, b Object) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	if a.Kind() != b.Kind() {
		return false
	}
	switch x := a.(type) {
	case EmptyList:
		return true
	case Integer, Char, Symbol, String:
		return a == b
	case Float:
		return math.Float64bits(float64(x)) == math.Float64bits(float64(b.(Float)))
	case *Pair:
		y := b.(*Pair)
		for {
			if !Equal(x.Car, y.Car) {
				return false
			}
			xn, xok := x.Cdr.(*Pair)
			yn, yok := y.Cdr.(*Pair)
			if !xok || !yok {
				return Equal(x.Cdr, y.Cdr)
			}
			x, y = xn, yn
		}
	case *Array:
		y := b.(*Array)
		if len(x.Elems) != len(y.Elems) {
			return false
		}
		for i := range x.Elems {
			if !Equal(x.Elems[i], y.Elems[i]) {
				return false
			}
		}
		return true
	}
	return a == b
}

// FloatRepresentation returns the value to print for v. If the 32-bit
// pattern of v is in reinterpret, the result is the form
// (the-as float #x<bits>), which reads back to exactly those bits; otherwise
// it is Float(v).
func FloatRepresentation(v float32, reinterpret map[uint32]bool) Object {
	bits := math.Float32bits(v)
	if !reinterpret[bits] {
		return Float(v)
	}
	return Symbols("the-as", "float", FloatBitsLiteral(bits))
}

// FloatBitsLiteral formats a 32-bit pattern as a #x hex literal.
func FloatBitsLiteral(bits uint32) string {
	return fmt.Sprintf("#x%x", bits)
}
