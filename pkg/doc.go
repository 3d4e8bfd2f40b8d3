// Package pkg provides the libraries behind sexpfmt, a width-aware
// pretty-printer for s-expression source.
//
// # Overview
//
// Source text is read into objects, each top-level form is laid out to fit
// a line width, and the results are joined back into text. The pkg
// directory is organized into four areas:
//
//  1. Core: [sexp] (objects, reader, atom printing) and [pretty] (the
//     layout engine and its special-form table)
//  2. Orchestration: [pipeline] (read, format, cache, check)
//  3. Infrastructure: [cache], [config], [errors], [observability], [io]
//  4. Surfaces: [server] (HTTP API) and [render] (layout diagrams)
//
// # Architecture
//
//	source text
//	     ↓
//	[sexp] Read
//	     ↓
//	[pretty] Layout (one per top-level form, concurrently)
//	     ↓
//	formatted text, stats, optional node trace
//
// # Quick Start
//
// Format one form:
//
//	obj, _ := sexp.ReadOne("(defun foo (x) (if x (bar x) (baz)))")
//	text, _ := pretty.Format(obj, pretty.Options{Width: 40})
//
// Format a whole file with caching:
//
//	c, _ := cache.NewFileCache(dir)
//	runner := pipeline.NewRunner(c, nil, logger)
//	res, _ := runner.Execute(ctx, src, pipeline.Options{Width: 100})
//	fmt.Print(res.Text)
//
// # Testing
//
//	go test ./pkg/...
//
// [sexp]: https://pkg.go.dev/github.com/matzehuels/sexpfmt/pkg/sexp
// [pretty]: https://pkg.go.dev/github.com/matzehuels/sexpfmt/pkg/pretty
// [pipeline]: https://pkg.go.dev/github.com/matzehuels/sexpfmt/pkg/pipeline
// [cache]: https://pkg.go.dev/github.com/matzehuels/sexpfmt/pkg/cache
// [config]: https://pkg.go.dev/github.com/matzehuels/sexpfmt/pkg/config
// [errors]: https://pkg.go.dev/github.com/matzehuels/sexpfmt/pkg/errors
// [observability]: https://pkg.go.dev/github.com/matzehuels/sexpfmt/pkg/observability
// [io]: https://pkg.go.dev/github.com/matzehuels/sexpfmt/pkg/io
// [server]: https://pkg.go.dev/github.com/matzehuels/sexpfmt/pkg/server
// [render]: https://pkg.go.dev/github.com/matzehuels/sexpfmt/pkg/render
package pkg
