package io

import (
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/matzehuels/sexpfmt/pkg/pretty"
)

// Trace is the serialized form of a traced layout.
type Trace struct {
	Width    int               `json:"width"`
	Lines    int               `json:"lines"`
	Overlong int               `json:"overlong"`
	Stats    stats             `json:"stats"`
	Nodes    []pretty.NodeInfo `json:"nodes"`
}

type stats struct {
	Tokens  int `json:"tokens"`
	Breaks  int `json:"breaks"`
	Passes  int `json:"passes"`
	Splits  int `json:"splits"`
	Retired int `json:"retired"`
}

// NewTrace captures res, laid out at width.
func NewTrace(res *pretty.Result, width int) *Trace {
	nodes := res.Nodes
	if nodes == nil {
		nodes = []pretty.NodeInfo{}
	}
	return &Trace{
		Width:    width,
		Lines:    res.Lines,
		Overlong: res.Overlong,
		Stats: stats{
			Tokens:  res.Stats.Tokens,
			Breaks:  res.Stats.Breaks,
			Passes:  res.Stats.Passes,
			Splits:  res.Stats.Splits,
			Retired: res.Stats.Retired,
		},
		Nodes: nodes,
	}
}

// Result converts the trace back to a layout result. Text is rebuilt from
// the nodes, so it matches the original output.
func (t *Trace) Result() *pretty.Result {
	return &pretty.Result{
		Text:     pretty.RenderNodes(t.Nodes),
		Lines:    t.Lines,
		Overlong: t.Overlong,
		Stats: pretty.Stats{
			Tokens:  t.Stats.Tokens,
			Breaks:  t.Stats.Breaks,
			Passes:  t.Stats.Passes,
			Splits:  t.Stats.Splits,
			Retired: t.Stats.Retired,
		},
		Nodes: t.Nodes,
	}
}

// WriteJSON encodes the trace of res as indented JSON and writes it to w.
// This format can be re-imported with [ReadJSON].
func WriteJSON(res *pretty.Result, width int, w io.Writer) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(NewTrace(res, width)); err != nil {
		return fmt.Errorf("encode: %w", err)
	}
	return nil
}

// ExportJSON writes the trace of res to a JSON file at path.
func ExportJSON(res *pretty.Result, width int, path string) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create %s: %w", path, err)
	}
	defer f.Close()
	return WriteJSON(res, width, f)
}

// ReadJSON decodes a trace from r and checks that every partner index is
// in range and symmetric. ReadJSON does not close r.
func ReadJSON(r io.Reader) (*Trace, error) {
	var t Trace
	if err := json.NewDecoder(r).Decode(&t); err != nil {
		return nil, fmt.Errorf("decode: %w", err)
	}
	for i, n := range t.Nodes {
		if n.Partner == -1 {
			continue
		}
		if n.Partner < 0 || n.Partner >= len(t.Nodes) {
			return nil, fmt.Errorf("node %d: partner %d out of range", i, n.Partner)
		}
		if t.Nodes[n.Partner].Partner != i {
			return nil, fmt.Errorf("node %d: partner %d does not point back", i, n.Partner)
		}
	}
	return &t, nil
}

// ImportJSON reads a trace from the JSON file at path.
func ImportJSON(path string) (*Trace, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", path, err)
	}
	defer f.Close()
	return ReadJSON(f)
}
