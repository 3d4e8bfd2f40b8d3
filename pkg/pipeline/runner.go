package pipeline

import (
	"context"
	"encoding/json"
	"fmt"
	"runtime"
	"strings"
	"time"

	"github.com/charmbracelet/log"
	"github.com/mattn/go-runewidth"
	"golang.org/x/sync/errgroup"

	"github.com/matzehuels/sexpfmt/pkg/cache"
	errs "github.com/matzehuels/sexpfmt/pkg/errors"
	"github.com/matzehuels/sexpfmt/pkg/observability"
	"github.com/matzehuels/sexpfmt/pkg/pretty"
	"github.com/matzehuels/sexpfmt/pkg/sexp"
)

// Runner encapsulates pipeline execution with caching.
// Both CLI and server use this to avoid duplicating caching logic.
//
// The Runner is stateless except for the cache and logger - it doesn't
// store pipeline results. Multiple goroutines can safely use the same
// Runner with different options.
type Runner struct {
	Cache  cache.Cache
	Keyer  cache.Keyer
	Logger *log.Logger
}

// NewRunner creates a runner with the given cache and keyer.
// If keyer is nil, a DefaultKeyer is used.
// If cache is nil, a NullCache is used (caching disabled).
func NewRunner(c cache.Cache, keyer cache.Keyer, logger *log.Logger) *Runner {
	if keyer == nil {
		keyer = cache.NewDefaultKeyer()
	}
	if c == nil {
		c = cache.NewNullCache()
	}
	if logger == nil {
		logger = log.Default()
	}
	return &Runner{
		Cache:  c,
		Keyer:  keyer,
		Logger: logger,
	}
}

// cachedOutput is the cache representation of a formatted source.
type cachedOutput struct {
	Text     string `json:"text"`
	Forms    int    `json:"forms"`
	Lines    int    `json:"lines"`
	Overlong int    `json:"overlong"`
}

// Execute reads src and formats every top-level form, using the cache when
// the same source was formatted with the same options before.
func (r *Runner) Execute(ctx context.Context, src []byte, opts Options) (*Result, error) {
	r.applyLogger(&opts)
	if err := opts.ValidateAndSetDefaults(); err != nil {
		return nil, err
	}
	if err := errs.ValidateSourceSize(int64(len(src)), opts.MaxSourceBytes); err != nil {
		return nil, err
	}

	result := &Result{SourceHash: cache.Hash(src)}
	cacheKey := r.Keyer.FormatKey(result.SourceHash, opts.FormatKeyOpts())

	// Try cache first (unless refresh requested)
	if !opts.Refresh {
		data, hit, err := r.Cache.Get(ctx, cacheKey)
		if err != nil {
			opts.Logger.Warn("cache read failed", "err", err)
		}
		var cached cachedOutput
		if err == nil && hit && json.Unmarshal(data, &cached) == nil {
			observability.Cache().OnCacheHit(ctx, "format")
			result.Text = cached.Text
			result.Forms = cached.Forms
			result.Stats.Lines = cached.Lines
			result.Stats.Overlong = cached.Overlong
			result.CacheHit = true
			opts.Logger.Debug("cache hit", "hash", result.SourceHash[:12])
			return result, nil
		}
		observability.Cache().OnCacheMiss(ctx, "format")
	}

	// Stage 1: Read
	readStart := time.Now()
	forms, err := r.Read(ctx, src)
	if err != nil {
		return nil, fmt.Errorf("read: %w", err)
	}
	result.Forms = len(forms)
	result.Stats.ReadTime = time.Since(readStart)

	opts.Logger.Debug("read source",
		"bytes", len(src),
		"forms", len(forms),
		"duration", result.Stats.ReadTime)

	// Stage 2: Format
	formatStart := time.Now()
	text, stats, err := r.Format(ctx, forms, opts)
	if err != nil {
		return nil, fmt.Errorf("format: %w", err)
	}
	result.Text = text
	stats.ReadTime = result.Stats.ReadTime
	stats.FormatTime = time.Since(formatStart)
	result.Stats = stats

	opts.Logger.Debug("formatted source",
		"lines", stats.Lines,
		"overlong", stats.Overlong,
		"splits", stats.Splits,
		"duration", stats.FormatTime)

	// Cache the result
	data, err := json.Marshal(cachedOutput{
		Text:     result.Text,
		Forms:    result.Forms,
		Lines:    stats.Lines,
		Overlong: stats.Overlong,
	})
	if err == nil {
		if err := r.Cache.Set(ctx, cacheKey, data, opts.CacheTTL); err != nil {
			opts.Logger.Warn("cache write failed", "err", err)
		} else {
			observability.Cache().OnCacheSet(ctx, "format", len(data))
		}
	}

	return result, nil
}

// Read parses every top-level form in src.
func (r *Runner) Read(ctx context.Context, src []byte) ([]sexp.Object, error) {
	hooks := observability.Pipeline()
	hooks.OnReadStart(ctx, len(src))
	start := time.Now()
	forms, err := sexp.Read(string(src))
	hooks.OnReadComplete(ctx, len(forms), time.Since(start), err)
	return forms, err
}

// Format lays out forms and joins them with blank lines. Forms are laid out
// concurrently; the output order follows the input order. When ctx is done
// the remaining layouts stop and the error has code ErrCodeTimeout.
func (r *Runner) Format(ctx context.Context, forms []sexp.Object, opts Options) (string, Stats, error) {
	r.applyLogger(&opts)
	if err := opts.ValidateAndSetDefaults(); err != nil {
		return "", Stats{}, err
	}
	hooks := observability.Pipeline()
	hooks.OnFormatStart(ctx, len(forms), opts.Width)
	start := time.Now()

	popts := opts.PrettyOptions()
	layouts := make([]*pretty.Result, len(forms))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(runtime.GOMAXPROCS(0))
	for i, form := range forms {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return errs.Wrap(errs.ErrCodeTimeout, err, "form %d not started", i+1)
			}
			res, err := pretty.LayoutContext(gctx, form, popts)
			if err != nil {
				return fmt.Errorf("form %d: %w", i+1, err)
			}
			layouts[i] = res
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		hooks.OnFormatComplete(ctx, 0, 0, time.Since(start), err)
		return "", Stats{}, err
	}

	var (
		b     strings.Builder
		stats Stats
	)
	for i, res := range layouts {
		if i > 0 {
			b.WriteString("\n\n")
		}
		b.WriteString(res.Text)
		stats.Lines += res.Lines
		stats.Overlong += res.Overlong
		stats.Splits += res.Stats.Splits
		stats.Retired += res.Stats.Retired
	}
	if len(layouts) > 0 {
		b.WriteByte('\n')
		stats.Lines += len(layouts) - 1 // blank separators
	}
	hooks.OnFormatComplete(ctx, stats.Lines, stats.Overlong, time.Since(start), nil)
	return b.String(), stats, nil
}

// OverlongLine is an output line wider than the requested width.
type OverlongLine struct {
	Number int    // 1-based
	Width  int    // display columns
	Text   string // the line without its newline
}

// CheckResult reports whether a source is already formatted.
type CheckResult struct {
	*Result

	// Formatted is true when the source equals its formatted text.
	Formatted bool

	// FirstDiff is the first 1-based line where source and output differ,
	// or 0 when they are equal.
	FirstDiff int

	// Overlong lists output lines that exceed the width.
	Overlong []OverlongLine
}

// Check formats src and compares the output with the input.
func (r *Runner) Check(ctx context.Context, src []byte, opts Options) (*CheckResult, error) {
	res, err := r.Execute(ctx, src, opts)
	if err != nil {
		return nil, err
	}
	// Execute validated a copy, so apply the same defaults here.
	if err := opts.ValidateAndSetDefaults(); err != nil {
		return nil, err
	}

	cr := &CheckResult{Result: res, Formatted: string(src) == res.Text}
	if !cr.Formatted {
		cr.FirstDiff = firstDiffLine(string(src), res.Text)
	}
	for i, line := range strings.Split(strings.TrimSuffix(res.Text, "\n"), "\n") {
		if w := runewidth.StringWidth(line); w > opts.Width {
			cr.Overlong = append(cr.Overlong, OverlongLine{Number: i + 1, Width: w, Text: line})
		}
	}
	return cr, nil
}

// firstDiffLine returns the 1-based number of the first line where a and b
// differ.
func firstDiffLine(a, b string) int {
	al, bl := strings.Split(a, "\n"), strings.Split(b, "\n")
	for i := 0; i < len(al) && i < len(bl); i++ {
		if al[i] != bl[i] {
			return i + 1
		}
	}
	return min(len(al), len(bl)) + 1
}

// Close releases resources held by the runner (primarily the cache).
func (r *Runner) Close() error {
	if r.Cache != nil {
		return r.Cache.Close()
	}
	return nil
}

// applyLogger sets the runner's logger on options if not already set.
func (r *Runner) applyLogger(opts *Options) {
	if opts.Logger == nil {
		opts.Logger = r.Logger
	}
}
