package sexp

// Kind identifies the concrete type of an [Object].
type Kind int

// Expression kinds. The first seven are printable; the rest are runtime
// values that have no reader syntax the layout engine accepts.
const (
	KindEmptyList Kind = iota
	KindInteger
	KindFloat
	KindChar
	KindSymbol
	KindString
	KindPair
	KindArray
	KindLambda
	KindMacro
	KindEnvironment
)

var kindNames = [...]string{
	KindEmptyList:   "empty-list",
	KindInteger:     "integer",
	KindFloat:       "float",
	KindChar:        "char",
	KindSymbol:      "symbol",
	KindString:      "string",
	KindPair:        "pair",
	KindArray:       "array",
	KindLambda:      "lambda",
	KindMacro:       "macro",
	KindEnvironment: "environment",
}

// String returns the lowercase kind name, e.g. "empty-list" or "lambda".
func (k Kind) String() string {
	if k < 0 || int(k) >= len(kindNames) {
		return "unknown"
	}
	return kindNames[k]
}

// Object is a node of an expression tree.
type Object interface {
	Kind() Kind
}

// EmptyList is the list terminator, printed as "()".
type EmptyList struct{}

// Integer is a signed integer atom.
type Integer int64

// Float is a floating-point atom.
type Float float64

// Char is a character atom, printed as #\c.
type Char rune

// Symbol is a symbol atom.
type Symbol string

// String is a string atom.
type String string

// Pair is a cons cell. Cdr chains to the rest of a list.
type Pair struct {
	Car Object
	Cdr Object
}

// Array is a vector value.
type Array struct {
	Elems []Object
}

// Lambda is a closure value.
type Lambda struct {
	Params Object
	Body   Object
}

// Macro is a macro value.
type Macro struct {
	Params Object
	Body   Object
}

// Environment is a variable environment.
type Environment struct {
	Name string
	Vars map[Symbol]Object
}

func (EmptyList) Kind() Kind    { return KindEmptyList }
func (Integer) Kind() Kind      { return KindInteger }
func (Float) Kind() Kind        { return KindFloat }
func (Char) Kind() Kind         { return KindChar }
func (Symbol) Kind() Kind       { return KindSymbol }
func (String) Kind() Kind       { return KindString }
func (*Pair) Kind() Kind        { return KindPair }
func (*Array) Kind() Kind       { return KindArray }
func (*Lambda) Kind() Kind      { return KindLambda }
func (*Macro) Kind() Kind       { return KindMacro }
func (*Environment) Kind() Kind { return KindEnvironment }

// Nil is the shared empty list value.
var Nil Object = EmptyList{}

// IsEmptyList reports whether o is the empty list.
func IsEmptyList(o Object) bool {
	_, ok := o.(EmptyList)
	return ok
}

// Cons returns a new pair.
func Cons(car, cdr Object) *Pair {
	return &Pair{Car: car, Cdr: cdr}
}
