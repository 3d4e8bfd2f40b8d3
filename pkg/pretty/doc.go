// Package pretty lays out s-expressions as indented multi-line text within a
// maximum line width.
//
// # Overview
//
// A tree is flattened into tokens (atoms, parens, dots and single spaces),
// each held in a node of a doubly linked sequence. Line breaks are extra
// separator nodes spliced into that sequence; tokens themselves are never
// split or reordered, so the output always reads back as the input tree.
//
// Layout runs in three stages:
//
//  1. Special forms. Lists headed by a name in the FormTable (begin, let,
//     defun, if, cond and so on) are broken in a fixed shape regardless of
//     width.
//  2. Width resolution. The first line wider than the limit has its lists
//     split into one element per line, leftmost first, until the line
//     changes. Lines that cannot be shortened are left as they are.
//  3. Rendering. Separators become newlines and each line is indented to
//     the column of the enclosing list's first element.
//
// A close paren whose list spans more than one line always gets a line of
// its own, aligned with the list's elements:
//
//	(begin
//	  (foo)
//	  (bar)
//	  )
//
// # Floats
//
// Decompiled code often holds integers that were stored in float registers.
// Options.ReinterpretFloats names 32-bit patterns that should print as
// (the-as float #x<bits>) instead of a decimal literal.
//
// # Usage
//
//	obj, _ := sexp.ReadOne(src)
//	text, err := pretty.Format(obj, pretty.Options{Width: 80})
package pretty
