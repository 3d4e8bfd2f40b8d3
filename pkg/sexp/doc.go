// Package sexp provides the symbolic-expression tree consumed by the
// sexpfmt layout engine, plus a reader that builds trees from source text.
//
// # Overview
//
// An expression is one of a small, closed set of kinds. Leaves are
// [Integer], [Float], [Char], [Symbol] and [String]. Lists are right chains
// of [*Pair] values terminated by [EmptyList]; a chain that ends in any other
// value is an improper (dotted) list.
//
// Four further kinds exist so that trees handed over from an evaluator can be
// represented faithfully: [*Array], [*Lambda], [*Macro] and [*Environment].
// None of them can be produced by plain reader syntax other than arrays, and
// the layout engine refuses all four.
//
// # Building Trees
//
// Trees are usually built by a code generator. The helpers mirror how such a
// generator assembles forms:
//
//	form := sexp.List(sexp.Symbol("set!"), sexp.Symbol("x"), sexp.Integer(1))
//	body := sexp.Symbols("begin", "a", "b")
//	sexp.Append(body, sexp.List(sexp.Symbol("c")))
//
// [Print] renders the canonical single-line form of any printable value. It
// is the text the layout engine uses for every atom.
//
// # Reading
//
// [Read] parses all top-level forms in a string, [ReadOne] exactly one:
//
//	forms, err := sexp.Read("(foo 1 2) (bar 'x)")
//
// The reader drops comments and expands the 'x and #x shorthands.
// [ReadDiscarded] counts both so that callers can refuse to overwrite source
// that would lose them. Parse failures are *errors.Error values with
// code errors.ErrCodeParse and a line:column position.
package sexp
