package cli

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"
)

// completionCommand creates the completion command for generating shell completions.
func (c *CLI) completionCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "completion [bash|zsh|fish|powershell]",
		Short: "Generate shell completion scripts",
		Long: `Generate shell completion scripts for sexpfmt.

To load completions:

Bash:
  $ source <(sexpfmt completion bash)

  # To load completions for each session, execute once:
  # Linux:
  $ sexpfmt completion bash > /etc/bash_completion.d/sexpfmt
  # macOS:
  $ sexpfmt completion bash > $(brew --prefix)/etc/bash_completion.d/sexpfmt

Zsh:
  # If shell completion is not already enabled in your environment,
  # you will need to enable it. You can execute the following once:
  $ echo "autoload -U compinit; compinit" >> ~/.zshrc

  # To load completions for each session, execute once:
  $ sexpfmt completion zsh > "${fpath[1]}/_sexpfmt"

  # You will need to start a new shell for this setup to take effect.

Fish:
  $ sexpfmt completion fish | source

  # To load completions for each session, execute once:
  $ sexpfmt completion fish > ~/.config/fish/completions/sexpfmt.fish

PowerShell:
  PS> sexpfmt completion powershell | Out-String | Invoke-Expression

  # To load completions for every new session, run:
  PS> sexpfmt completion powershell > sexpfmt.ps1
  # and source this file from your PowerShell profile.
`,
		DisableFlagsInUseLine: true,
		ValidArgs:             []string{"bash", "zsh", "fish", "powershell"},
		Args:                  cobra.MatchAll(cobra.ExactArgs(1), cobra.OnlyValidArgs),
		RunE: func(cmd *cobra.Command, args []string) error {
			return writeCompletion(cmd.Root(), args[0], cmd.OutOrStdout())
		},
	}

	return cmd
}

// writeCompletion writes the completion script for shell to w.
func writeCompletion(root *cobra.Command, shell string, w io.Writer) error {
	switch shell {
	case "bash":
		return root.GenBashCompletion(w)
	case "zsh":
		return root.GenZshCompletion(w)
	case "fish":
		return root.GenFishCompletion(w, true)
	case "powershell":
		return root.GenPowerShellCompletionWithDesc(w)
	}
	return fmt.Errorf("unsupported shell %q", shell)
}
