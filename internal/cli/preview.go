package cli

import (
	"context"
	"fmt"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/mattn/go-runewidth"
	"github.com/spf13/cobra"

	errs "github.com/matzehuels/sexpfmt/pkg/errors"
	pkgio "github.com/matzehuels/sexpfmt/pkg/io"
	"github.com/matzehuels/sexpfmt/pkg/pipeline"
	"github.com/matzehuels/sexpfmt/pkg/sexp"
)

// Preview styles
var (
	previewRulerStyle    = lipgloss.NewStyle().Foreground(colorDim)
	previewOverlongStyle = lipgloss.NewStyle().Foreground(colorRed)
	previewGutterStyle   = lipgloss.NewStyle().Foreground(colorDim)
	previewHelpStyle     = lipgloss.NewStyle().Foreground(colorDim)
)

// previewCommand creates the preview command, an interactive view that
// lays the source out again whenever the width changes.
func (c *CLI) previewCommand() *cobra.Command {
	var opts layoutFlags

	cmd := &cobra.Command{
		Use:   "preview [file]",
		Short: "Interactively preview the layout at different widths",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			path := pkgio.StdinPath
			if len(args) == 1 {
				path = args[0]
			}
			if path == pkgio.StdinPath {
				return fmt.Errorf("preview needs a file argument; stdin is used by the terminal")
			}
			popts, err := c.pipelineOptions(cmd, &opts)
			if err != nil {
				return err
			}
			src, err := pkgio.ReadSource(path, nil)
			if err != nil {
				return err
			}

			runner, err := c.newRunner(cmd.Context(), true)
			if err != nil {
				return err
			}
			defer runner.Close()

			forms, err := runner.Read(cmd.Context(), src)
			if err != nil {
				return err
			}
			m := newPreviewModel(cmd.Context(), runner, forms, popts, path)
			_, err = tea.NewProgram(m, tea.WithAltScreen(), tea.WithContext(cmd.Context())).Run()
			return err
		},
	}

	opts.register(cmd)
	return cmd
}

// =============================================================================
// PreviewModel - interactive width preview
// =============================================================================

// previewModel is the bubbletea model for the preview command.
type previewModel struct {
	ctx    context.Context
	runner *pipeline.Runner
	forms  []sexp.Object
	opts   pipeline.Options // never validated; Width changes between layouts
	name   string

	lines []string
	stats pipeline.Stats
	err   error

	offset int // first visible line
	height int // visible lines
}

func newPreviewModel(ctx context.Context, runner *pipeline.Runner, forms []sexp.Object, opts pipeline.Options, name string) previewModel {
	if opts.Width == 0 {
		opts.Width = pipeline.DefaultWidth
	}
	m := previewModel{
		ctx:    ctx,
		runner: runner,
		forms:  forms,
		opts:   opts,
		name:   name,
		height: 20,
	}
	m.relayout()
	return m
}

// relayout formats the forms at the current width.
func (m *previewModel) relayout() {
	text, stats, err := m.runner.Format(m.ctx, m.forms, m.opts)
	m.err = err
	if err != nil {
		return
	}
	m.stats = stats
	m.lines = strings.Split(strings.TrimSuffix(text, "\n"), "\n")
	m.clampOffset()
}

// setWidth changes the width within the accepted range and lays out again.
func (m *previewModel) setWidth(w int) {
	w = max(1, min(w, errs.MaxWidth))
	if w == m.opts.Width {
		return
	}
	m.opts.Width = w
	m.relayout()
}

func (m *previewModel) clampOffset() {
	maxOffset := max(0, len(m.lines)-m.height)
	m.offset = max(0, min(m.offset, maxOffset))
}

func (m previewModel) Init() tea.Cmd {
	return nil
}

func (m previewModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "q", "ctrl+c", "esc":
			return m, tea.Quit
		case "left", "h":
			m.setWidth(m.opts.Width - 1)
		case "right", "l":
			m.setWidth(m.opts.Width + 1)
		case "[":
			m.setWidth(m.opts.Width - 10)
		case "]":
			m.setWidth(m.opts.Width + 10)
		case "up", "k":
			m.offset--
			m.clampOffset()
		case "down", "j":
			m.offset++
			m.clampOffset()
		case "pgup":
			m.offset -= m.height
			m.clampOffset()
		case "pgdown", " ":
			m.offset += m.height
			m.clampOffset()
		}
	case tea.WindowSizeMsg:
		m.height = max(5, msg.Height-6)
		m.clampOffset()
	}
	return m, nil
}

func (m previewModel) View() string {
	var b strings.Builder

	b.WriteString(StyleTitle.Render("Preview " + m.name))
	b.WriteString("  ")
	b.WriteString(StyleDim.Render(fmt.Sprintf("width %d · %d lines", m.opts.Width, m.stats.Lines)))
	if m.stats.Overlong > 0 {
		b.WriteString(StyleDim.Render(" · "))
		b.WriteString(StyleWarning.Render(fmt.Sprintf("%d overlong", m.stats.Overlong)))
	}
	b.WriteString("\n")
	b.WriteString(previewHelpStyle.Render("←/→ width ±1  [/] ±10  ↑/↓ scroll  q quit"))
	b.WriteString("\n")

	if m.err != nil {
		b.WriteString(StyleError.Render(m.err.Error()))
		b.WriteString("\n")
		return b.String()
	}

	gutter := len(fmt.Sprint(len(m.lines)))
	b.WriteString(strings.Repeat(" ", gutter+1))
	b.WriteString(previewRulerStyle.Render(ruler(m.opts.Width)))
	b.WriteString("\n")

	end := min(m.offset+m.height, len(m.lines))
	for i := m.offset; i < end; i++ {
		line := m.lines[i]
		b.WriteString(previewGutterStyle.Render(fmt.Sprintf("%*d ", gutter, i+1)))
		if runewidth.StringWidth(line) > m.opts.Width {
			b.WriteString(previewOverlongStyle.Render(line))
		} else {
			b.WriteString(line)
		}
		b.WriteString("\n")
	}
	return b.String()
}

// ruler marks every tenth column up to width and ends with a bar at the
// last allowed column.
func ruler(width int) string {
	var b strings.Builder
	for col := 1; col < width; col++ {
		if col%10 == 0 {
			b.WriteByte('+')
		} else {
			b.WriteByte('-')
		}
	}
	b.WriteByte('|')
	return b.String()
}
