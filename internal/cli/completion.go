package cli

import (
	"maps"
	"slices"

	"github.com/spf13/cobra"
)

// completionCommand creates the completion command for generating shell completions.
func (c *CLI) completionCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "completion [bash|zsh|fish|powershell]",
		Short: "Generate shell completion scripts",
		Long: `Generate shell completion scripts for viewgrid.

Group and view names complete from the config file.

  $ source <(viewgrid completion bash)
  $ viewgrid completion zsh > "${fpath[1]}/_viewgrid"
  $ viewgrid completion fish | source
  PS> viewgrid completion powershell | Out-String | Invoke-Expression
`,
		DisableFlagsInUseLine: true,
		ValidArgs:             []string{"bash", "zsh", "fish", "powershell"},
		Args:                  cobra.MatchAll(cobra.ExactArgs(1), cobra.OnlyValidArgs),
		RunE: func(cmd *cobra.Command, args []string) error {
			out := cmd.OutOrStdout()
			switch args[0] {
			case "bash":
				return cmd.Root().GenBashCompletionV2(out, true)
			case "zsh":
				return cmd.Root().GenZshCompletion(out)
			case "fish":
				return cmd.Root().GenFishCompletion(out, true)
			case "powershell":
				return cmd.Root().GenPowerShellCompletionWithDesc(out)
			}
			return nil
		},
	}

	return cmd
}

// groupNames returns the group names of the config file.
func (c *CLI) groupNames() []string {
	cfg, err := c.loadConfig()
	if err != nil {
		return nil
	}
	names := make([]string, 0, len(cfg.Groups))
	for _, g := range cfg.Groups {
		names = append(names, g.Name)
	}
	return names
}

// viewNames returns the sorted view names of the config file.
func (c *CLI) viewNames() []string {
	cfg, err := c.loadConfig()
	if err != nil {
		return nil
	}
	return slices.Sorted(maps.Keys(cfg.Views))
}

func (c *CLI) completeGroupFlag(cmd *cobra.Command, _ []string, _ string) ([]string, cobra.ShellCompDirective) {
	return c.groupNames(), cobra.ShellCompDirectiveNoFileComp
}

// completeGroupThenViews completes a group as first argument and views
// after it, up to maxViews (negative for unbounded).
func (c *CLI) completeGroupThenViews(maxViews int) func(*cobra.Command, []string, string) ([]string, cobra.ShellCompDirective) {
	return func(cmd *cobra.Command, args []string, _ string) ([]string, cobra.ShellCompDirective) {
		switch {
		case len(args) == 0:
			return c.groupNames(), cobra.ShellCompDirectiveNoFileComp
		case maxViews < 0 || len(args) <= maxViews:
			return c.viewNames(), cobra.ShellCompDirectiveNoFileComp
		}
		return nil, cobra.ShellCompDirectiveNoFileComp
	}
}
