// Package io reads sources and writes formatted output and layout traces.
//
// # Sources
//
// [ReadSource] reads a file, or standard input when the path is "-":
//
//	src, err := io.ReadSource("init.gc", os.Stdin)
//
// [WriteFile] replaces a file atomically, keeping its permissions, so a
// failed write never leaves a half-formatted source behind.
//
// # Traces
//
// A trace is the final node sequence of a layout together with its width
// and statistics. It is useful for debugging line-breaking decisions and
// for external tools:
//
//	{
//	  "width": 80,
//	  "lines": 3,
//	  "overlong": 0,
//	  "stats": {"tokens": 9, "breaks": 2, "passes": 1, "splits": 0, "retired": 0},
//	  "nodes": [
//	    {"kind": "open", "text": "(", "line": 0, "offset": 0, "partner": 12},
//	    ...
//	  ]
//	}
//
// Use [WriteJSON] or [ExportJSON] to write a trace and [ReadJSON] or
// [ImportJSON] to read it back. The layout must have been computed with
// pretty.Options.Trace set, otherwise the node list is empty.
package io
