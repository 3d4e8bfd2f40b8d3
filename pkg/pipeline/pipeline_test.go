package pipeline

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/charmbracelet/log"

	"github.com/matzehuels/sexpfmt/pkg/cache"
	errs "github.com/matzehuels/sexpfmt/pkg/errors"
	"github.com/matzehuels/sexpfmt/pkg/observability"
	"github.com/matzehuels/sexpfmt/pkg/pretty"
)

func TestValidateAndSetDefaults(t *testing.T) {
	tests := []struct {
		name      string
		width     int
		wantWidth int
		wantErr   errs.Code
	}{
		{"default", 0, DefaultWidth, ""},
		{"explicit", 40, 40, ""},
		{"negative", -1, 0, errs.ErrCodeInvalidWidth},
		{"too wide", errs.MaxWidth + 1, 0, errs.ErrCodeInvalidWidth},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			opts := Options{Width: tt.width}
			err := opts.ValidateAndSetDefaults()
			if tt.wantErr != "" {
				if !errs.Is(err, tt.wantErr) {
					t.Fatalf("error = %v, want %s", err, tt.wantErr)
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if opts.Width != tt.wantWidth {
				t.Errorf("Width = %d, want %d", opts.Width, tt.wantWidth)
			}
			if opts.Forms == nil || opts.Logger == nil {
				t.Error("Forms and Logger should be defaulted")
			}
		})
	}
}

func TestValidateAndSetDefaultsIdempotent(t *testing.T) {
	opts := Options{}
	if err := opts.ValidateAndSetDefaults(); err != nil {
		t.Fatal(err)
	}
	forms := opts.Forms
	if err := opts.ValidateAndSetDefaults(); err != nil {
		t.Fatal(err)
	}
	if opts.Forms != forms {
		t.Error("second call should not replace the form table")
	}
}

func TestFormatKeyOpts(t *testing.T) {
	opts := Options{ReinterpretFloats: []uint32{3, 1, 3, 2}}
	if err := opts.ValidateAndSetDefaults(); err != nil {
		t.Fatal(err)
	}
	k := opts.FormatKeyOpts()
	if got := k.ReinterpretFloats; len(got) != 3 || got[0] != 1 || got[1] != 2 || got[2] != 3 {
		t.Errorf("ReinterpretFloats = %v, want [1 2 3]", got)
	}
	if opts.ReinterpretFloats[0] != 3 {
		t.Error("FormatKeyOpts must not reorder the caller's slice")
	}
	if k.Width != DefaultWidth {
		t.Errorf("Width = %d, want %d", k.Width, DefaultWidth)
	}
	if k.Forms != pretty.DefaultForms().Fingerprint() {
		t.Error("Forms fingerprint should match the default table")
	}
}

func TestPrettyOptions(t *testing.T) {
	opts := Options{Width: 30, ReinterpretFloats: []uint32{0x3f000000}}
	if err := opts.ValidateAndSetDefaults(); err != nil {
		t.Fatal(err)
	}
	p := opts.PrettyOptions()
	if p.Width != 30 || !p.ReinterpretFloats[0x3f000000] || p.Forms != opts.Forms {
		t.Errorf("PrettyOptions = %+v", p)
	}
	if (&Options{}).PrettyOptions().ReinterpretFloats != nil {
		t.Error("no floats should give a nil set")
	}
}

func TestExecute(t *testing.T) {
	tests := []struct {
		name      string
		src       string
		width     int
		want      string
		wantForms int
	}{
		{"empty", "", 0, "", 0},
		{"whitespace only", "  \n ; comment\n", 0, "", 0},
		{"single form", "(foo 1 2)", 0, "(foo 1 2)\n", 1},
		{"two forms", "(foo 1 2)\n(bar)", 0, "(foo 1 2)\n\n(bar)\n", 2},
		{"atoms", "a b", 0, "a\n\nb\n", 2},
		{"definition", "(defun foo () 1)", 0, "(defun foo ()\n  1\n  )\n", 1},
		{"narrow", "(begin (a) (b) (c))", 10, "(begin\n  (a)\n  (b)\n  (c)\n  )\n", 1},
	}

	r := NewRunner(nil, nil, nil)
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res, err := r.Execute(context.Background(), []byte(tt.src), Options{Width: tt.width})
			if err != nil {
				t.Fatalf("Execute: %v", err)
			}
			if res.Text != tt.want {
				t.Errorf("Text = %q, want %q", res.Text, tt.want)
			}
			if res.Forms != tt.wantForms {
				t.Errorf("Forms = %d, want %d", res.Forms, tt.wantForms)
			}
			if res.CacheHit {
				t.Error("null cache should never hit")
			}
			if res.SourceHash != cache.Hash([]byte(tt.src)) {
				t.Error("SourceHash mismatch")
			}
		})
	}
}

func TestExecuteStats(t *testing.T) {
	r := NewRunner(nil, nil, nil)
	res, err := r.Execute(context.Background(), []byte("(begin (a) (b) (c))\n(x)"), Options{Width: 10})
	if err != nil {
		t.Fatal(err)
	}
	// Five lines for the block, one blank separator, one for (x).
	if res.Stats.Lines != 7 {
		t.Errorf("Lines = %d, want 7", res.Stats.Lines)
	}
	if res.Stats.Overlong != 0 {
		t.Errorf("Overlong = %d, want 0", res.Stats.Overlong)
	}
}

func TestExecuteErrors(t *testing.T) {
	tests := []struct {
		name string
		src  string
		opts Options
		want errs.Code
	}{
		{"unbalanced", "(foo", Options{}, errs.ErrCodeParse},
		{"stray close", ")", Options{}, errs.ErrCodeParse},
		{"bad width", "(foo)", Options{Width: -5}, errs.ErrCodeInvalidWidth},
		{"too large", "(foo bar baz)", Options{MaxSourceBytes: 4}, errs.ErrCodeTooLarge},
	}

	r := NewRunner(nil, nil, nil)
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := r.Execute(context.Background(), []byte(tt.src), tt.opts)
			if !errs.Is(err, tt.want) {
				t.Errorf("error = %v, want %s", err, tt.want)
			}
			if !errs.IsUserError(err) {
				t.Errorf("%v should be a user error", err)
			}
		})
	}
}

func TestExecuteCache(t *testing.T) {
	fc, err := cache.NewFileCache(t.TempDir())
	if err != nil {
		t.Fatal(err)
	}
	r := NewRunner(fc, nil, nil)
	defer r.Close()

	ctx := context.Background()
	src := []byte("(let ((a 1) (b 2)) (foo a b))")

	first, err := r.Execute(ctx, src, Options{})
	if err != nil {
		t.Fatal(err)
	}
	if first.CacheHit {
		t.Fatal("first run should miss")
	}

	second, err := r.Execute(ctx, src, Options{})
	if err != nil {
		t.Fatal(err)
	}
	if !second.CacheHit {
		t.Error("second run should hit")
	}
	if second.Text != first.Text || second.Forms != first.Forms || second.Stats.Lines != first.Stats.Lines {
		t.Errorf("cached result differs: %+v vs %+v", second, first)
	}

	refreshed, err := r.Execute(ctx, src, Options{Refresh: true})
	if err != nil {
		t.Fatal(err)
	}
	if refreshed.CacheHit {
		t.Error("refresh should bypass the cache")
	}

	narrow, err := r.Execute(ctx, src, Options{Width: 12})
	if err != nil {
		t.Fatal(err)
	}
	if narrow.CacheHit {
		t.Error("a different width should not reuse the cached output")
	}

	custom := pretty.DefaultForms()
	custom.Delete("let")
	other, err := r.Execute(ctx, src, Options{Forms: custom})
	if err != nil {
		t.Fatal(err)
	}
	if other.CacheHit {
		t.Error("a different form table should not reuse the cached output")
	}
}

func TestExecuteCorruptCacheEntry(t *testing.T) {
	fc, err := cache.NewFileCache(t.TempDir())
	if err != nil {
		t.Fatal(err)
	}
	r := NewRunner(fc, nil, nil)
	ctx := context.Background()
	src := []byte("(foo)")

	opts := Options{}
	if err := opts.ValidateAndSetDefaults(); err != nil {
		t.Fatal(err)
	}
	key := r.Keyer.FormatKey(cache.Hash(src), opts.FormatKeyOpts())
	if err := fc.Set(ctx, key, []byte("not json"), time.Hour); err != nil {
		t.Fatal(err)
	}

	res, err := r.Execute(ctx, src, Options{})
	if err != nil {
		t.Fatal(err)
	}
	if res.CacheHit || res.Text != "(foo)\n" {
		t.Errorf("corrupt entry should be ignored, got %+v", res)
	}
}

func TestFormatPreservesOrder(t *testing.T) {
	var b strings.Builder
	var want []string
	for i := range 50 {
		form := fmt.Sprintf("(f%d %s)", i, strings.Repeat("y", i+1))
		b.WriteString(form)
		b.WriteByte('\n')
		want = append(want, form)
	}

	r := NewRunner(nil, nil, nil)
	forms, err := r.Read(context.Background(), []byte(b.String()))
	if err != nil {
		t.Fatal(err)
	}
	text, _, err := r.Format(context.Background(), forms, Options{Width: 200})
	if err != nil {
		t.Fatal(err)
	}
	if got := strings.Join(want, "\n\n") + "\n"; text != got {
		t.Errorf("Format reordered forms:\n%s", text)
	}
}

func TestFormatCanceled(t *testing.T) {
	r := NewRunner(nil, nil, nil)
	forms, err := r.Read(context.Background(), []byte("(a) (b) (c)"))
	if err != nil {
		t.Fatal(err)
	}
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, _, err = r.Format(ctx, forms, Options{})
	if !errs.Is(err, errs.ErrCodeTimeout) {
		t.Errorf("error = %v, want %s", err, errs.ErrCodeTimeout)
	}
	if !errors.Is(err, context.Canceled) {
		t.Errorf("error = %v, want it to wrap context.Canceled", err)
	}
}

func TestExecuteDeadline(t *testing.T) {
	// Deeply nested lists keep the resolver busy for many passes.
	src := strings.Repeat("(a ", 2000) + strings.Repeat(")", 2000)
	ctx, cancel := context.WithDeadline(context.Background(), time.Now().Add(-time.Second))
	defer cancel()

	r := NewRunner(nil, nil, nil)
	_, err := r.Execute(ctx, []byte(src), Options{Width: 20})
	if !errs.Is(err, errs.ErrCodeTimeout) {
		t.Errorf("error = %v, want %s", err, errs.ErrCodeTimeout)
	}
	if !errors.Is(err, context.DeadlineExceeded) {
		t.Errorf("error = %v, want it to wrap context.DeadlineExceeded", err)
	}
}

func TestExecuteUsesRunnerLogger(t *testing.T) {
	var buf bytes.Buffer
	logger := log.NewWithOptions(&buf, log.Options{Level: log.DebugLevel})
	r := NewRunner(nil, nil, logger)

	if _, err := r.Execute(context.Background(), []byte("(foo 1)"), Options{}); err != nil {
		t.Fatal(err)
	}
	for _, want := range []string{"read source", "formatted source"} {
		if !strings.Contains(buf.String(), want) {
			t.Errorf("runner logger missing %q:\n%s", want, buf.String())
		}
	}

	buf.Reset()
	own := log.NewWithOptions(io.Discard, log.Options{})
	if _, err := r.Execute(context.Background(), []byte("(foo 1)"), Options{Logger: own}); err != nil {
		t.Fatal(err)
	}
	if buf.Len() != 0 {
		t.Errorf("options logger should take precedence, runner logger got:\n%s", buf.String())
	}
}

func TestCheck(t *testing.T) {
	long := "(foo " + strings.Repeat("x", 60) + ")"
	tests := []struct {
		name          string
		src           string
		width         int
		wantFormatted bool
		wantDiff      int
		wantOverlong  int
	}{
		{"formatted", "(foo 1 2)\n", 0, true, 0, 0},
		{"missing newline", "(foo 1 2)", 0, false, 2, 0},
		{"extra spaces", "(foo  1 2)\n", 0, false, 1, 0},
		{"second form", "(a)\n\n(b  c)\n", 0, false, 3, 0},
		{"overlong atom", long, 40, false, 1, 1},
		{"empty", "", 0, true, 0, 0},
	}

	r := NewRunner(nil, nil, nil)
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cr, err := r.Check(context.Background(), []byte(tt.src), Options{Width: tt.width})
			if err != nil {
				t.Fatalf("Check: %v", err)
			}
			if cr.Formatted != tt.wantFormatted {
				t.Errorf("Formatted = %v, want %v", cr.Formatted, tt.wantFormatted)
			}
			if cr.FirstDiff != tt.wantDiff {
				t.Errorf("FirstDiff = %d, want %d", cr.FirstDiff, tt.wantDiff)
			}
			if len(cr.Overlong) != tt.wantOverlong {
				t.Errorf("Overlong = %v, want %d lines", cr.Overlong, tt.wantOverlong)
			}
		})
	}
}

func TestCheckOverlongDetails(t *testing.T) {
	atom := strings.Repeat("x", 60)
	r := NewRunner(nil, nil, nil)
	cr, err := r.Check(context.Background(), []byte("(foo "+atom+")"), Options{Width: 40})
	if err != nil {
		t.Fatal(err)
	}
	if len(cr.Overlong) != 1 {
		t.Fatalf("Overlong = %v, want one line", cr.Overlong)
	}
	line := cr.Overlong[0]
	if line.Number != 2 || line.Width != 62 || strings.TrimSpace(line.Text) != atom {
		t.Errorf("Overlong[0] = %+v", line)
	}
}

func TestFirstDiffLine(t *testing.T) {
	tests := []struct {
		a, b string
		want int
	}{
		{"a\nb", "a\nc", 2},
		{"x", "y", 1},
		{"a", "a\n", 2},
		{"a\nb\nc", "a\nb", 3},
	}
	for _, tt := range tests {
		if got := firstDiffLine(tt.a, tt.b); got != tt.want {
			t.Errorf("firstDiffLine(%q, %q) = %d, want %d", tt.a, tt.b, got, tt.want)
		}
	}
}

type recordingHooks struct {
	observability.NoopPipelineHooks
	mu     sync.Mutex
	events []string
}

func (h *recordingHooks) OnReadStart(context.Context, int) {
	h.record("read-start")
}

func (h *recordingHooks) OnReadComplete(_ context.Context, _ int, _ time.Duration, err error) {
	if err != nil {
		h.record("read-error")
		return
	}
	h.record("read-complete")
}

func (h *recordingHooks) OnFormatStart(context.Context, int, int) {
	h.record("format-start")
}

func (h *recordingHooks) OnFormatComplete(context.Context, int, int, time.Duration, error) {
	h.record("format-complete")
}

func (h *recordingHooks) record(e string) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.events = append(h.events, e)
}

func TestPipelineHooks(t *testing.T) {
	hooks := &recordingHooks{}
	observability.SetPipelineHooks(hooks)
	defer observability.Reset()

	r := NewRunner(nil, nil, nil)
	if _, err := r.Execute(context.Background(), []byte("(a b)"), Options{}); err != nil {
		t.Fatal(err)
	}
	if _, err := r.Execute(context.Background(), []byte("(a"), Options{}); err == nil {
		t.Fatal("expected parse error")
	}

	want := []string{"read-start", "read-complete", "format-start", "format-complete", "read-start", "read-error"}
	if strings.Join(hooks.events, ",") != strings.Join(want, ",") {
		t.Errorf("events = %v, want %v", hooks.events, want)
	}
}
