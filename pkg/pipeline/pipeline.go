// Package pipeline provides the read → format pipeline behind sexpfmt.
//
// This package implements the complete source-to-text pipeline that is used
// by the CLI and the HTTP server. By centralizing this logic, both entry
// points share the same defaults, caching and instrumentation.
//
// # Architecture
//
// The pipeline consists of two stages:
//
//  1. Read: parse every top-level form of the source with [sexp.Read]
//  2. Format: lay out each form with [pretty.Layout]
//
// Formatted forms are joined with a blank line and the output ends with a
// newline. The whole output is cached under a key derived from the source
// hash and every option that affects layout.
//
// # Usage
//
//	runner := pipeline.NewRunner(cache, nil, logger)
//	result, err := runner.Execute(ctx, src, pipeline.Options{Width: 100})
//	if err != nil {
//	    log.Fatal(err)
//	}
//	fmt.Print(result.Text)
package pipeline

import (
	"io"
	"slices"
	"time"

	"github.com/charmbracelet/log"

	"github.com/matzehuels/sexpfmt/pkg/cache"
	errs "github.com/matzehuels/sexpfmt/pkg/errors"
	"github.com/matzehuels/sexpfmt/pkg/pretty"
)

// =============================================================================
// Default Values - Single Source of Truth for CLI and Server
// =============================================================================

const (
	// DefaultWidth is the default maximum line width.
	DefaultWidth = pretty.DefaultWidth

	// DefaultMaxSourceBytes bounds the source accepted by the server.
	// The CLI does not set a limit.
	DefaultMaxSourceBytes = 1 << 20
)

// =============================================================================
// Options - Pipeline Configuration
// =============================================================================

// Options contains all configuration for the formatting pipeline.
// This struct supports JSON serialization for API requests.
type Options struct {
	Width             int      `json:"width,omitempty"`
	ReinterpretFloats []uint32 `json:"reinterpret_floats,omitempty"`
	Refresh           bool     `json:"refresh,omitempty"` // bypass the cache read

	// Runtime options (not serialized)
	Forms          *pretty.FormTable `json:"-"` // nil means pretty.DefaultForms
	MaxSourceBytes int64             `json:"-"` // zero means unlimited
	CacheTTL       time.Duration     `json:"-"` // zero means cache.TTLFormat
	Logger         *log.Logger       `json:"-"`

	// validated tracks whether ValidateAndSetDefaults has been called.
	validated bool
}

// Result contains the outputs of a pipeline run.
type Result struct {
	// Text is the formatted source.
	Text string

	// Forms is the number of top-level forms.
	Forms int

	// SourceHash is the content hash of the input.
	SourceHash string

	// Stats contains timing and size information.
	Stats Stats

	// CacheHit reports whether Text came from the cache.
	CacheHit bool
}

// Stats contains pipeline execution statistics.
type Stats struct {
	Lines      int
	Overlong   int // lines that exceed the width
	Splits     int // lists split to meet the width
	Retired    int // lines that could not be brought under the width
	ReadTime   time.Duration
	FormatTime time.Duration
}

// =============================================================================
// Options Methods
// =============================================================================

// ValidateAndSetDefaults checks option values and applies defaults.
// This method is idempotent - calling it multiple times has the same effect as calling it once.
func (o *Options) ValidateAndSetDefaults() error {
	if o.validated {
		return nil
	}
	if o.Width == 0 {
		o.Width = DefaultWidth
	}
	if err := errs.ValidateWidth(o.Width); err != nil {
		return err
	}
	if o.Forms == nil {
		o.Forms = pretty.DefaultForms()
	}
	if o.CacheTTL <= 0 {
		o.CacheTTL = cache.TTLFormat
	}
	if o.Logger == nil {
		o.Logger = log.NewWithOptions(io.Discard, log.Options{})
	}
	o.validated = true
	return nil
}

// PrettyOptions returns the layout engine options.
func (o *Options) PrettyOptions() pretty.Options {
	var floats map[uint32]bool
	if len(o.ReinterpretFloats) > 0 {
		floats = make(map[uint32]bool, len(o.ReinterpretFloats))
		for _, bits := range o.ReinterpretFloats {
			floats[bits] = true
		}
	}
	return pretty.Options{
		Width:             o.Width,
		ReinterpretFloats: floats,
		Forms:             o.Forms,
	}
}

// FormatKeyOpts returns cache key options for formatted output.
func (o *Options) FormatKeyOpts() cache.FormatKeyOpts {
	floats := slices.Clone(o.ReinterpretFloats)
	slices.Sort(floats)
	floats = slices.Compact(floats)
	return cache.FormatKeyOpts{
		Width:             o.Width,
		Forms:             o.Forms.Fingerprint(),
		ReinterpretFloats: floats,
	}
}
