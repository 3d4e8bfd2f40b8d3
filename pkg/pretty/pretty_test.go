package pretty

import (
	"context"
	"errors"
	"math"
	"strings"
	"testing"

	errs "github.com/matzehuels/sexpfmt/pkg/errors"
	"github.com/matzehuels/sexpfmt/pkg/sexp"
)

func mustRead(t *testing.T, src string) sexp.Object {
	t.Helper()
	o, err := sexp.ReadOne(src)
	if err != nil {
		t.Fatalf("ReadOne(%q): %v", src, err)
	}
	return o
}

func mustFormat(t *testing.T, o sexp.Object, opts Options) string {
	t.Helper()
	out, err := Format(o, opts)
	if err != nil {
		t.Fatalf("Format: %v", err)
	}
	return out
}

func TestFormat(t *testing.T) {
	tests := []struct {
		name  string
		src   string
		width int
		want  string
	}{
		{"call", "(foo 1 2)", 80, "(foo 1 2)"},
		{"empty list", "()", 80, "()"},
		{"empty list narrow", "()", 1, "()"},
		{"atom", "foo", 80, "foo"},
		{"dotted", "(a . b)", 80, "(a . b)"},
		{"dotted narrow", "(foo . bar)", 6, "(foo\n  .\n  bar\n  )"},
		{
			"dotted tail too long",
			"(a . a-rather-long-symbol-name)", 20,
			"(a\n  .\n  a-rather-long-symbol-name\n  )",
		},
		{"nested empty", "(f () ())", 80, "(f () ())"},
		{
			"block",
			"(begin (a) (b) (c))", 10,
			"(begin\n  (a)\n  (b)\n  (c)\n  )",
		},
		{
			"multi clause fits but still broken",
			"(cond ((a) b) ((c) d))", 200,
			"(cond\n  ((a)\n   b\n   )\n  ((c)\n   d\n   )\n  )",
		},
		{
			"definition with empty params",
			"(defun foo () 1)", 80,
			"(defun foo ()\n  1\n  )",
		},
		{
			"definition with params",
			"(defun foo ((a int) (b int)) (+ a b) a)", 80,
			"(defun foo ((a int) (b int))\n  (+ a b)\n  a\n  )",
		},
		{
			"control flow",
			"(if (a) (b) (c))", 200,
			"(if (a)\n  (b)\n  (c)\n  )",
		},
		{
			"control flow without body",
			"(when)", 80,
			"(when)",
		},
		{
			"control flow own line",
			"(foo (if a b))", 80,
			"(foo\n  (if a\n   b\n   )\n  )",
		},
		{
			"single binding",
			"(let ((a 1)) (foo a))", 80,
			"(let ((a 1))\n  (foo a)\n  )",
		},
		{
			"several bindings",
			"(let ((a 1) (b 2)) (foo a b))", 80,
			"(let ((a 1)\n     (b 2)\n     )\n  (foo a b)\n  )",
		},
		{
			"empty bindings",
			"(let () 1)", 80,
			"(let ()\n  1\n  )",
		},
		{
			"type declaration",
			"(deftype point (structure) ((x float) (y float)))", 80,
			"(deftype point (structure)\n  ((x float) (y float))\n  )",
		},
		{
			"form name not at head",
			"(foo begin (a) (b))", 80,
			"(foo begin (a) (b))",
		},
		{
			"width split",
			"(foo (bar 1 2 3) (baz 4 5 6))", 20,
			"(foo\n  (bar 1 2 3)\n  (baz 4 5 6)\n  )",
		},
		{
			"width split nested",
			"(foo (bar aaaaaaaa bbbbbbbb cccccccc))", 20,
			"(foo\n  (bar\n   aaaaaaaa\n   bbbbbbbb\n   cccccccc\n   )\n  )",
		},
		{
			"string atom",
			`(format #t "~D~%" x)`, 80,
			`(format #t "~D~%" x)`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := mustFormat(t, mustRead(t, tt.src), Options{Width: tt.width})
			if got != tt.want {
				t.Errorf("Format(%s, %d) =\n%s\nwant\n%s", tt.src, tt.width, got, tt.want)
			}
		})
	}
}

// Reading a layout back and laying it out again must reproduce it exactly.
func TestFormat_Golden(t *testing.T) {
	golden := []string{
		"(begin\n" +
			"  (let ((s5-0 (new (quote stack) (quote matrix))))\n" +
			"   (set! (-> s5-0 vector 0 quad) (the-as uint128 0))\n" +
			"   (set! (-> s5-0 vector 1 quad) (the-as uint128 0))\n" +
			"   (set! (-> s5-0 vector 2 quad) (the-as uint128 0))\n" +
			"   (set! (-> s5-0 vector 3 quad) (the-as uint128 0))\n" +
			"   (quaternion->matrix s5-0 arg1)\n" +
			"   (set! (-> arg0 vec quad) (-> (the-as (pointer uint128) (-> s5-0 data)) 0))\n" +
			"   )\n" +
			"  arg0\n" +
			"  )",

		"(let* ((v1-0 (-> arg0 period))\n" +
			"      (f1-0 (the float v1-0))\n" +
			"      (f0-1 0.0)\n" +
			"      (f2-2\n" +
			"       (+\n" +
			"        (the float (mod (-> *display* base-frame-counter) v1-0))\n" +
			"        (-> arg0 offset)\n" +
			"        )\n" +
			"       )\n" +
			"      (f0-2\n" +
			"       (* f0-1 (/ (- f2-2 (* (the float (the int (/ f2-2 f1-0))) f1-0)) f1-0))\n" +
			"       )\n" +
			"      (f1-3 (- 0.0 (* 0.0 (-> arg0 pause-after-in))))\n" +
			"      (f2-7 (- 0.0 (* 0.0 (-> arg0 pause-after-out))))\n" +
			"      )\n" +
			"  (cond\n" +
			"   ((>= f0-2 (+ 0.0 f1-3))\n" +
			"    0.0\n" +
			"    )\n" +
			"   ((< 0.0 f0-2)\n" +
			"    (- 0.0 (/ (+ 0.0 f0-2) f1-3))\n" +
			"    )\n" +
			"   ((>= f0-2 f2-7)\n" +
			"    0.0\n" +
			"    )\n" +
			"   (else\n" +
			"    (/ f0-2 f2-7)\n" +
			"    )\n" +
			"   )\n" +
			"  )",

		"(let ((s4-0 (or (nonzero? (logand (-> arg0 mask) 256)) (arg1 arg0))))\n" +
			"  (cond\n" +
			"   ((= s4-0 (quote dead))\n" +
			"    )\n" +
			"   (else\n" +
			"    (let ((v1-4 (-> arg0 child)))\n" +
			"     (while v1-4\n" +
			"      (let ((s3-1 (-> v1-4 0 brother)))\n" +
			"       (iterate-process-tree (-> v1-4 0) arg1 arg2)\n" +
			"       (set! v1-4 s3-1)\n" +
			"       )\n" +
			"      )\n" +
			"     )\n" +
			"    )\n" +
			"   )\n" +
			"  s4-0\n" +
			"  )",

		"(begin\n" +
			"  (format #t \"[~8x] ~A~%\" arg0 (quote handle))\n" +
			"  (format #t \"~Tprocess: #x~X~%\" (-> arg0 process))\n" +
			"  (format #t \"~Tpid: ~D~%\" (-> arg0 pid))\n" +
			"  arg0\n" +
			"  )",
	}

	for i, want := range golden {
		got := mustFormat(t, mustRead(t, want), Options{Width: 80})
		if got != want {
			t.Errorf("golden %d:\ngot\n%s\nwant\n%s", i, got, want)
		}
	}
}

func TestFormat_UnbreakableAtom(t *testing.T) {
	long := strings.Repeat("x", 200)
	obj := mustRead(t, "(a (b (c (d "+long+"))))")

	res, err := Layout(obj, Options{Width: 40})
	if err != nil {
		t.Fatalf("Layout: %v", err)
	}
	if res.Overlong != 1 {
		t.Errorf("Overlong = %d, want 1\n%s", res.Overlong, res.Text)
	}
	if res.Stats.Retired == 0 {
		t.Error("expected the resolver to retire the unbreakable line")
	}
	for _, line := range strings.Split(res.Text, "\n") {
		if len(line) > 40 && strings.TrimSpace(line) != long {
			t.Errorf("unexpected overlong line %q", line)
		}
	}
}

func TestFormat_Floats(t *testing.T) {
	bits := math.Float32bits(1.5)

	tests := []struct {
		name        string
		obj         sexp.Object
		reinterpret map[uint32]bool
		want        string
	}{
		{"decimal", sexp.Float(1.5), nil, "1.5"},
		{"integral", sexp.Float(2), nil, "2.0"},
		{"escaped", sexp.Float(1.5), map[uint32]bool{bits: true}, "(the-as float #x3fc00000)"},
		{"other pattern", sexp.Float(2.5), map[uint32]bool{bits: true}, "2.5"},
		{
			"escaped in call",
			sexp.List(sexp.Symbol("set!"), sexp.Symbol("x"), sexp.Float(1.5)),
			map[uint32]bool{bits: true},
			"(set! x (the-as float #x3fc00000))",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := mustFormat(t, tt.obj, Options{Width: 80, ReinterpretFloats: tt.reinterpret})
			if got != tt.want {
				t.Errorf("Format = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestFormat_Errors(t *testing.T) {
	tests := []struct {
		name  string
		obj   sexp.Object
		width int
		code  errs.Code
	}{
		{"lambda", &sexp.Lambda{}, 80, errs.ErrCodeUnsupportedKind},
		{"nested macro", sexp.List(sexp.Symbol("f"), &sexp.Macro{}), 80, errs.ErrCodeUnsupportedKind},
		{"environment in tail", sexp.Cons(sexp.Symbol("f"), &sexp.Environment{Name: "global"}), 80, errs.ErrCodeUnsupportedKind},
		{"array", &sexp.Array{}, 80, errs.ErrCodeUnsupportedKind},
		{"nil", nil, 80, errs.ErrCodeUnsupportedKind},
		{"zero width", sexp.Symbol("a"), 0, errs.ErrCodeInvalidWidth},
		{"negative width", sexp.Symbol("a"), -1, errs.ErrCodeInvalidWidth},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Format(tt.obj, Options{Width: tt.width})
			if err == nil {
				t.Fatal("expected error")
			}
			if !errs.Is(err, tt.code) {
				t.Errorf("code = %v, want %v (%v)", errs.GetCode(err), tt.code, err)
			}
		})
	}
}

func TestLayoutContext(t *testing.T) {
	obj := mustRead(t, "(begin (a) (b) (c))")

	res, err := LayoutContext(context.Background(), obj, Options{Width: 10})
	if err != nil {
		t.Fatalf("LayoutContext: %v", err)
	}
	if want := mustFormat(t, obj, Options{Width: 10}); res.Text != want {
		t.Errorf("Text = %q, want %q", res.Text, want)
	}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err = LayoutContext(ctx, obj, Options{Width: 10})
	if !errs.Is(err, errs.ErrCodeTimeout) {
		t.Errorf("error = %v, want %s", err, errs.ErrCodeTimeout)
	}
	if !errors.Is(err, context.Canceled) {
		t.Errorf("error = %v, want it to wrap context.Canceled", err)
	}
}

func TestFormat_CustomForms(t *testing.T) {
	obj := mustRead(t, "(begin (a) (b))")

	t.Run("empty table", func(t *testing.T) {
		got := mustFormat(t, obj, Options{Width: 80, Forms: NewFormTable()})
		if want := "(begin (a) (b))"; got != want {
			t.Errorf("got %q, want %q", got, want)
		}
	})

	t.Run("indent delta", func(t *testing.T) {
		forms := DefaultForms()
		forms.Set("begin", FormRule{Strategy: StrategyBlock, IndentDelta: 2})
		got := mustFormat(t, obj, Options{Width: 80, Forms: forms})
		if want := "(begin\n    (a)\n    (b)\n    )"; got != want {
			t.Errorf("got %q, want %q", got, want)
		}
	})

	t.Run("new name", func(t *testing.T) {
		forms := DefaultForms()
		forms.Set("progn", FormRule{Strategy: StrategyBlock})
		got := mustFormat(t, mustRead(t, "(progn (a) (b))"), Options{Width: 80, Forms: forms})
		if want := "(progn\n  (a)\n  (b)\n  )"; got != want {
			t.Errorf("got %q, want %q", got, want)
		}
	})
}

func TestLayout_Trace(t *testing.T) {
	res, err := Layout(mustRead(t, "(a)"), Options{Width: 80, Trace: true})
	if err != nil {
		t.Fatalf("Layout: %v", err)
	}
	if len(res.Nodes) != 3 {
		t.Fatalf("len(Nodes) = %d, want 3", len(res.Nodes))
	}
	if res.Nodes[0].Partner != 2 || res.Nodes[2].Partner != 0 {
		t.Errorf("partners = %d, %d, want 2, 0", res.Nodes[0].Partner, res.Nodes[2].Partner)
	}
	if res.Nodes[1].Kind != "atom" || res.Nodes[1].Text != "a" {
		t.Errorf("Nodes[1] = %+v", res.Nodes[1])
	}
	if res.Lines != 1 || res.Stats.Tokens != 3 || res.Stats.Breaks != 0 {
		t.Errorf("Lines = %d, Stats = %+v", res.Lines, res.Stats)
	}

	res, err = Layout(mustRead(t, "(begin (a))"), Options{Width: 80, Trace: true})
	if err != nil {
		t.Fatalf("Layout: %v", err)
	}
	seps := 0
	for _, n := range res.Nodes {
		if n.Separator {
			seps++
		}
	}
	if seps != res.Stats.Breaks || res.Lines != seps+1 {
		t.Errorf("separators = %d, Breaks = %d, Lines = %d", seps, res.Stats.Breaks, res.Lines)
	}
}

func TestRenderNodes(t *testing.T) {
	srcs := []string{
		"(a)",
		"(begin (a) (b) (c))",
		"(let ((a 1) (b 2)) (foo a b))",
		"(foo (bar aaaaaaaa bbbbbbbb cccccccc))",
	}
	for _, src := range srcs {
		res, err := Layout(mustRead(t, src), Options{Width: 20, Trace: true})
		if err != nil {
			t.Fatalf("Layout(%s): %v", src, err)
		}
		if got := RenderNodes(res.Nodes); got != res.Text {
			t.Errorf("RenderNodes(%s) =\n%s\nwant\n%s", src, got, res.Text)
		}
	}
}

func TestFormat_Concurrent(t *testing.T) {
	obj := mustRead(t, "(defun f (a) (let ((b 1) (c 2)) (if a (+ b c) (cond ((a) b) (else c)))))")
	want := mustFormat(t, obj, Options{Width: 30})

	done := make(chan string)
	for i := 0; i < 8; i++ {
		go func() {
			out, _ := Format(obj, Options{Width: 30})
			done <- out
		}()
	}
	for i := 0; i < 8; i++ {
		if got := <-done; got != want {
			t.Errorf("concurrent Format differs:\n%s\nwant\n%s", got, want)
		}
	}
}
