package cli

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/matzehuels/sexpfmt/pkg/cache"
	errs "github.com/matzehuels/sexpfmt/pkg/errors"
	"github.com/matzehuels/sexpfmt/pkg/pipeline"
	"github.com/matzehuels/sexpfmt/pkg/pretty"
	"github.com/matzehuels/sexpfmt/pkg/sexp"
)

// runCLI executes the root command with args and stdin and returns what
// was written to stdout.
func runCLI(t *testing.T, stdin string, args ...string) (string, error) {
	t.Helper()
	out, err := runCLICapture(t, stdin, args...)
	return out.stdout.String(), err
}

// cliOutput holds everything one command run wrote.
type cliOutput struct {
	stdout bytes.Buffer
	status bytes.Buffer // statusOut: messages and the spinner
	log    bytes.Buffer
}

// runCLICapture is runCLI keeping the status and log streams as well.
func runCLICapture(t *testing.T, stdin string, args ...string) (*cliOutput, error) {
	t.Helper()
	t.Setenv("XDG_CACHE_HOME", t.TempDir())
	t.Setenv("XDG_CONFIG_HOME", t.TempDir())
	return execCLI(t, stdin, args...)
}

// execCLI runs the root command in the current environment.
func execCLI(t *testing.T, stdin string, args ...string) (*cliOutput, error) {
	t.Helper()
	out := &cliOutput{}
	old := statusOut
	statusOut = &out.status
	t.Cleanup(func() { statusOut = old })

	c := New(&out.log, LogInfo)
	root := c.RootCommand()
	root.SetIn(strings.NewReader(stdin))
	root.SetOut(&out.stdout)
	root.SetErr(io.Discard)
	root.SetArgs(args)
	err := root.ExecuteContext(context.Background())
	return out, err
}

func writeTemp(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestRootCommandRegistersSubcommands(t *testing.T) {
	root := New(io.Discard, LogInfo).RootCommand()
	want := []string{"format", "check", "graph", "preview", "forms", "serve", "cache", "completion"}
	for _, name := range want {
		cmd, _, err := root.Find([]string{name})
		if err != nil || cmd.Name() != name {
			t.Errorf("subcommand %q not registered", name)
		}
	}
}

func TestFormatCommand(t *testing.T) {
	tests := []struct {
		name  string
		stdin string
		args  []string
		want  string
	}{
		{"stdin", "(foo   1\n 2)", []string{"format", "--no-cache"}, "(foo 1 2)\n"},
		{"narrow width", "(begin (a) (b) (c))", []string{"format", "--no-cache", "--width", "10"}, "(begin\n  (a)\n  (b)\n  (c)\n  )\n"},
		{"cached", "(foo 1 2)", []string{"format"}, "(foo 1 2)\n"},
		{"empty", "", []string{"format", "--no-cache"}, ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := runCLI(t, tt.stdin, tt.args...)
			if err != nil {
				t.Fatalf("format: %v", err)
			}
			if got != tt.want {
				t.Errorf("output = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestFormatWrite(t *testing.T) {
	messy := writeTemp(t, "messy.gc", "(foo   1 2)")
	clean := writeTemp(t, "clean.gc", "(bar 3)\n")

	out, err := runCLI(t, "", "format", "--no-cache", "-w", messy, clean)
	if err != nil {
		t.Fatalf("format -w: %v", err)
	}
	if out != "" {
		t.Errorf("format -w wrote to stdout: %q", out)
	}
	for path, want := range map[string]string{messy: "(foo 1 2)\n", clean: "(bar 3)\n"} {
		data, err := os.ReadFile(path)
		if err != nil {
			t.Fatal(err)
		}
		if string(data) != want {
			t.Errorf("%s = %q, want %q", filepath.Base(path), data, want)
		}
	}
}

func TestFormatWriteRefusesLossyRewrite(t *testing.T) {
	const src = ";; important license header\n(defun f () 'x #xff) ; trailing note"
	path := writeTemp(t, "header.gc", src)

	_, err := runCLI(t, "", "format", "--no-cache", "-w", path)
	if !errs.Is(err, errs.ErrCodeInvalidInput) {
		t.Fatalf("format -w error = %v, want %s", err, errs.ErrCodeInvalidInput)
	}
	if !strings.Contains(err.Error(), "2 comments") || !strings.Contains(err.Error(), "--force") {
		t.Errorf("error should count the comments and name --force: %v", err)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	if string(data) != src {
		t.Errorf("refused rewrite still changed the file: %q", data)
	}

	out, err := runCLICapture(t, "", "format", "--no-cache", "-w", "--force", path)
	if err != nil {
		t.Fatalf("format -w --force: %v", err)
	}
	if !strings.Contains(out.status.String(), "dropped 2 comments, expanded 2 shorthands") {
		t.Errorf("--force should warn about the loss:\n%s", out.status.String())
	}
	data, err = os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	if want := "(defun f ()\n  (quote x)\n  255\n  )\n"; string(data) != want {
		t.Errorf("forced rewrite = %q, want %q", data, want)
	}
}

func TestFormatStdoutKeepsCommentedSource(t *testing.T) {
	path := writeTemp(t, "commented.gc", "; note\n(foo   1)")
	out, err := runCLI(t, "", "format", "--no-cache", path)
	if err != nil {
		t.Fatalf("format: %v", err)
	}
	if out != "(foo 1)\n" {
		t.Errorf("output = %q", out)
	}
}

func TestFormatWriteManyFiles(t *testing.T) {
	var paths []string
	for i := 0; i < spinnerMinSources+2; i++ {
		paths = append(paths, writeTemp(t, fmt.Sprintf("f%d.gc", i), fmt.Sprintf("(foo   %d)", i)))
	}

	out, err := runCLICapture(t, "", append([]string{"format", "--no-cache", "-w"}, paths...)...)
	if err != nil {
		t.Fatalf("format -w: %v", err)
	}
	for i, path := range paths {
		data, err := os.ReadFile(path)
		if err != nil {
			t.Fatal(err)
		}
		if want := fmt.Sprintf("(foo %d)\n", i); string(data) != want {
			t.Errorf("%s = %q, want %q", filepath.Base(path), data, want)
		}
	}
	status := out.status.String()
	if want := fmt.Sprintf("Formatted %d of %d files", len(paths), len(paths)); !strings.Contains(status, want) {
		t.Errorf("status missing %q:\n%s", want, status)
	}
	if !strings.Contains(out.log.String(), fmt.Sprintf("sources=%d", len(paths))) {
		t.Errorf("log missing the source tally:\n%s", out.log.String())
	}
}

func TestFormatList(t *testing.T) {
	messy := writeTemp(t, "messy.gc", "(foo   1 2)")
	clean := writeTemp(t, "clean.gc", "(bar 3)\n")

	out, err := runCLI(t, "", "format", "--no-cache", "-l", messy, clean)
	if err != nil {
		t.Fatalf("format -l: %v", err)
	}
	if out != messy+"\n" {
		t.Errorf("format -l = %q, want only %q", out, messy)
	}
}

func TestFormatErrors(t *testing.T) {
	tests := []struct {
		name  string
		stdin string
		args  []string
	}{
		{"write and list", "", []string{"format", "-w", "-l", "x.gc"}},
		{"write without files", "", []string{"format", "-w"}},
		{"force without write", "(foo)", []string{"format", "--force"}},
		{"missing file", "", []string{"format", "--no-cache", filepath.Join(t.TempDir(), "nope.gc")}},
		{"unbalanced", "(foo", []string{"format", "--no-cache"}},
		{"bad width", "(foo)", []string{"format", "--no-cache", "--width", "-3"}},
		{"bad float", "(foo)", []string{"format", "--no-cache", "--reinterpret-float", "zz"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := runCLI(t, tt.stdin, tt.args...); err == nil {
				t.Error("expected error")
			}
		})
	}
}

func TestConfigFlag(t *testing.T) {
	cfg := writeTemp(t, "sexpfmt.toml", "width = 10\n")
	got, err := runCLI(t, "(begin (a) (b) (c))", "--config", cfg, "format", "--no-cache")
	if err != nil {
		t.Fatalf("format: %v", err)
	}
	if want := "(begin\n  (a)\n  (b)\n  (c)\n  )\n"; got != want {
		t.Errorf("output = %q, want %q", got, want)
	}

	// The flag wins over the file.
	got, err = runCLI(t, "(begin (a) (b) (c))", "--config", cfg, "format", "--no-cache", "--width", "80")
	if err != nil {
		t.Fatalf("format: %v", err)
	}
	if want := "(begin (a) (b) (c))\n"; got != want {
		t.Errorf("output = %q, want %q", got, want)
	}
}

func TestCheckCommand(t *testing.T) {
	clean := writeTemp(t, "clean.gc", "(bar 3)\n")
	messy := writeTemp(t, "messy.gc", "(foo   1 2)")

	out, err := runCLI(t, "", "check", "--no-cache", clean)
	if err != nil {
		t.Fatalf("check clean: %v", err)
	}
	if !strings.Contains(out, clean) {
		t.Errorf("report does not name %s:\n%s", clean, out)
	}

	out, err = runCLI(t, "", "check", "--no-cache", clean, messy)
	if err == nil {
		t.Fatal("check should fail for an unformatted file")
	}
	if !strings.Contains(err.Error(), "1 of 2") {
		t.Errorf("error = %v, want count of failing sources", err)
	}
	if !strings.Contains(out, "differs") {
		t.Errorf("report does not flag the difference:\n%s", out)
	}
}

func TestRenderCheckTable(t *testing.T) {
	rows := []checkRow{
		{path: "a.gc", formatted: true},
		{path: "b.gc", formatted: false, firstDiff: 3},
		{path: "c.gc", formatted: true, overlong: []pipeline.OverlongLine{{Number: 7, Width: 90}}},
	}
	got := renderCheckTable(rows, true)
	for _, want := range []string{"a.gc", "b.gc", "c.gc", "line 3", "first at line 7", "overlong", "differs"} {
		if !strings.Contains(got, want) {
			t.Errorf("table missing %q:\n%s", want, got)
		}
	}
	if rows[2].ok(false) != true || rows[2].ok(true) != false {
		t.Error("overlong rows should only fail in strict mode")
	}
}

func TestGraphJSON(t *testing.T) {
	out, err := runCLI(t, "(foo 1)\n(bar 2)", "graph", "--format", "json", "--form", "2")
	if err != nil {
		t.Fatalf("graph: %v", err)
	}
	for _, want := range []string{`"nodes"`, `"bar"`} {
		if !strings.Contains(out, want) {
			t.Errorf("trace missing %s:\n%s", want, out)
		}
	}

	if _, err := runCLI(t, "(foo 1)", "graph", "--format", "json", "--form", "2"); err == nil {
		t.Error("expected error for out-of-range form")
	}
	if _, err := runCLI(t, "(foo 1)", "graph", "--format", "gif"); err == nil {
		t.Error("expected error for unknown format")
	}
}

func TestGraphDOT(t *testing.T) {
	out, err := runCLI(t, "(foo 1)", "graph", "--format", "dot")
	if err != nil {
		t.Fatalf("graph: %v", err)
	}
	if !strings.HasPrefix(strings.TrimSpace(out), "digraph") {
		t.Errorf("not a DOT graph:\n%s", out)
	}
}

func TestRenderFormsTable(t *testing.T) {
	forms := pretty.DefaultForms()
	forms.Set("my-def", pretty.FormRule{Strategy: pretty.StrategyDefinition, IndentDelta: 2})
	got := renderFormsTable(forms)
	for _, want := range []string{"defun", "definition", "cond", "multi_clause", "my-def", "+2"} {
		if !strings.Contains(got, want) {
			t.Errorf("table missing %q:\n%s", want, got)
		}
	}
}

func TestCachePath(t *testing.T) {
	cfg := writeTemp(t, "sexpfmt.toml", "[cache]\nbackend = \"none\"\n")
	out, err := runCLI(t, "", "--config", cfg, "cache", "path")
	if err != nil {
		t.Fatalf("cache path: %v", err)
	}
	if strings.TrimSpace(out) != "caching disabled" {
		t.Errorf("cache path = %q", out)
	}
}

func TestCacheClear(t *testing.T) {
	t.Setenv("XDG_CACHE_HOME", t.TempDir())
	dir, err := cacheDir()
	if err != nil {
		t.Fatal(err)
	}
	fc, err := cache.NewFileCache(dir)
	if err != nil {
		t.Fatal(err)
	}
	if err := fc.Set(context.Background(), "k", []byte("v"), 0); err != nil {
		t.Fatal(err)
	}

	old := statusOut
	statusOut = io.Discard
	t.Cleanup(func() { statusOut = old })
	t.Setenv("XDG_CONFIG_HOME", t.TempDir())

	root := New(io.Discard, LogInfo).RootCommand()
	root.SetArgs([]string{"cache", "clear"})
	root.SetOut(io.Discard)
	if err := root.Execute(); err != nil {
		t.Fatalf("cache clear: %v", err)
	}
	if _, ok, _ := fc.Get(context.Background(), "k"); ok {
		t.Error("entry survived cache clear")
	}
}

func TestCompletion(t *testing.T) {
	for _, shell := range []string{"bash", "zsh", "fish", "powershell"} {
		out, err := runCLI(t, "", "completion", shell)
		if err != nil {
			t.Fatalf("completion %s: %v", shell, err)
		}
		if !strings.Contains(out, appName) {
			t.Errorf("completion %s does not mention %s", shell, appName)
		}
	}
	if _, err := runCLI(t, "", "completion", "tcsh"); err == nil {
		t.Error("expected error for unsupported shell")
	}
}

func TestPreviewModel(t *testing.T) {
	forms, err := sexp.Read("(begin (a) (b) (c))")
	if err != nil {
		t.Fatal(err)
	}
	runner := pipeline.NewRunner(nil, nil, nil)
	m := newPreviewModel(context.Background(), runner, forms, pipeline.Options{Width: 30}, "x.gc")
	if len(m.lines) != 1 {
		t.Fatalf("lines at width 30 = %q", m.lines)
	}

	press := func(m previewModel, key tea.KeyMsg) previewModel {
		next, _ := m.Update(key)
		return next.(previewModel)
	}
	m = press(m, tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune("[")})
	m = press(m, tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune("[")})
	if m.opts.Width != 10 {
		t.Fatalf("width = %d, want 10", m.opts.Width)
	}
	if len(m.lines) != 5 {
		t.Errorf("lines at width 10 = %q", m.lines)
	}
	m = press(m, tea.KeyMsg{Type: tea.KeyRight})
	if m.opts.Width != 11 {
		t.Errorf("width after right = %d, want 11", m.opts.Width)
	}
	for range 20 {
		m = press(m, tea.KeyMsg{Type: tea.KeyLeft})
	}
	if m.opts.Width != 1 {
		t.Errorf("width clamps at %d, want 1", m.opts.Width)
	}
	if m.err != nil {
		t.Errorf("layout error: %v", m.err)
	}

	view := m.View()
	if !strings.Contains(view, "width 1") {
		t.Errorf("view does not show the width:\n%s", view)
	}

	_, cmd := m.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune("q")})
	if cmd == nil {
		t.Error("q should quit")
	}
}

func TestPreviewScroll(t *testing.T) {
	forms, err := sexp.Read("(begin (a) (b) (c))")
	if err != nil {
		t.Fatal(err)
	}
	m := newPreviewModel(context.Background(), pipeline.NewRunner(nil, nil, nil), forms, pipeline.Options{Width: 10}, "x.gc")
	next, _ := m.Update(tea.WindowSizeMsg{Width: 80, Height: 8})
	m = next.(previewModel)
	if m.height != 5 {
		t.Fatalf("height = %d, want 5", m.height)
	}
	next, _ = m.Update(tea.KeyMsg{Type: tea.KeyDown})
	m = next.(previewModel)
	if m.offset != 0 {
		t.Errorf("offset = %d, want 0 when every line fits", m.offset)
	}
}

func TestRuler(t *testing.T) {
	tests := []struct {
		width int
		want  string
	}{
		{1, "|"},
		{5, "----|"},
		{12, "---------+-|"},
	}
	for _, tt := range tests {
		if got := ruler(tt.width); got != tt.want {
			t.Errorf("ruler(%d) = %q, want %q", tt.width, got, tt.want)
		}
	}
}

func TestFormatExample(t *testing.T) {
	cfg := filepath.Join("..", "..", "examples", ".sexpfmt.toml")
	sample := filepath.Join("..", "..", "examples", "sample.gc")
	out, err := runCLI(t, "", "--config", cfg, "format", "--no-cache", sample)
	if err != nil {
		t.Fatalf("format: %v", err)
	}
	if !strings.HasPrefix(out, "(deftype point") {
		t.Errorf("output starts with %q", out[:min(len(out), 40)])
	}
	again, err := runCLI(t, out, "--config", cfg, "format", "--no-cache")
	if err != nil {
		t.Fatalf("reformat: %v", err)
	}
	if again != out {
		t.Error("formatting the output changed it")
	}
}
