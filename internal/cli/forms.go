package cli

import (
	"fmt"
	"strconv"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
	"github.com/spf13/cobra"

	"github.com/matzehuels/sexpfmt/pkg/pretty"
)

// formsCommand creates the forms command, which prints the special-form
// table after the configuration file has been applied.
func (c *CLI) formsCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "forms",
		Short: "List the special forms and how they are laid out",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			forms, err := c.Config.FormTable()
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), renderFormsTable(forms))
			if c.Config.Path != "" {
				printDetail("Config: %s", c.Config.Path)
			}
			return nil
		},
	}
}

// renderFormsTable draws one row per form name in sorted order.
func renderFormsTable(forms *pretty.FormTable) string {
	names := forms.Names()
	rows := make([][]string, 0, len(names))
	for _, name := range names {
		rule, _ := forms.Lookup(name)
		indent := "—"
		if rule.IndentDelta > 0 {
			indent = "+" + strconv.Itoa(rule.IndentDelta)
		}
		rows = append(rows, []string{name, rule.Strategy.String(), indent})
	}

	headerStyle := lipgloss.NewStyle().Foreground(colorGray).Bold(true)
	t := table.New().
		Border(lipgloss.RoundedBorder()).
		BorderStyle(lipgloss.NewStyle().Foreground(colorDim)).
		Headers("Form", "Strategy", "Indent").
		Rows(rows...).
		StyleFunc(func(row, col int) lipgloss.Style {
			if row == -1 {
				return headerStyle.Padding(0, 1)
			}
			base := lipgloss.NewStyle().Padding(0, 1)
			if col == 0 {
				return base.Foreground(colorCyan)
			}
			return base
		})
	return t.Render()
}
