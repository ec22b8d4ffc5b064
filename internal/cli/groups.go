package cli

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
	"github.com/spf13/cobra"

	verrors "github.com/matzehuels/viewgrid/pkg/errors"
	"github.com/matzehuels/viewgrid/pkg/view"
)

// groupsCommand creates the groups command for editing the persisted view
// groups without a running grid.
func (c *CLI) groupsCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "groups",
		Short: "List and edit view groups",
		Long: `List and edit the view groups saved in the configured group store.

Until a grid saves its groups for the first time, the groups of the config
file are shown. Edits are saved to the store and picked up the next time a
grid starts.`,
	}

	cmd.AddCommand(c.groupsListCommand())
	cmd.AddCommand(c.groupsShowCommand())
	cmd.AddCommand(c.groupsSetCommand())
	cmd.AddCommand(c.groupsAddCommand())
	cmd.AddCommand(c.groupsRemoveCommand())
	cmd.AddCommand(c.groupsResetCommand())

	return cmd
}

// groupEdit loads the groups, lets fn edit them and saves the result.
// fn returning save=false leaves the store untouched.
func (c *CLI) groupEdit(ctx context.Context, fn func(b *backends, g *view.Groups) (save bool, err error)) error {
	b, err := c.openBackends(ctx)
	if err != nil {
		return err
	}
	defer b.Close()

	saved, err := b.store.Load(ctx)
	if err != nil {
		return err
	}
	entries := saved
	if len(entries) == 0 {
		entries = b.cfg.Groups
	}
	groups := view.NewGroups(entries...)

	save, err := fn(b, groups)
	if err != nil || !save {
		return err
	}
	if err := b.store.Save(ctx, groups.Entries()); err != nil {
		return fmt.Errorf("save view groups: %w", err)
	}
	return nil
}

// checkViews validates view names and warns about names the config does
// not define.
func checkViews(b *backends, names ...string) error {
	for _, name := range names {
		if err := verrors.ValidateViewName(name); err != nil {
			return err
		}
		if _, ok := b.cfg.Views[name]; !ok {
			printWarning("View %s is not defined in the config", name)
		}
	}
	return nil
}

func (c *CLI) groupsListCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List all view groups",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.groupEdit(cmd.Context(), func(b *backends, g *view.Groups) (bool, error) {
				if g.Len() == 0 {
					printInfo("No view groups")
					return false, nil
				}
				fmt.Println(groupTable(g.Entries(), b.cfg.DefaultGroup))
				return false, nil
			})
		},
	}
}

func (c *CLI) groupsShowCommand() *cobra.Command {
	return &cobra.Command{
		Use:               "show GROUP",
		Short:             "Show the views of a group with their positions",
		Args:              cobra.ExactArgs(1),
		ValidArgsFunction: c.completeGroupThenViews(0),
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.groupEdit(cmd.Context(), func(b *backends, g *view.Groups) (bool, error) {
				views, ok := g.Get(args[0])
				if !ok {
					return false, verrors.New(verrors.ErrCodeGroupNotFound, "unknown group %q", args[0])
				}
				fmt.Println(StyleTitle.Render(args[0]))
				for i, name := range views {
					desc := b.cfg.Views[name].Description
					printKeyValue(strconv.Itoa(i), name+"  "+StyleDim.Render(desc))
				}
				return false, nil
			})
		},
	}
}

func (c *CLI) groupsSetCommand() *cobra.Command {
	return &cobra.Command{
		Use:               "set GROUP VIEW...",
		Short:             "Create a group or replace its views",
		Args:              cobra.MinimumNArgs(2),
		ValidArgsFunction: c.completeGroupThenViews(-1),
		RunE: func(cmd *cobra.Command, args []string) error {
			name, views := args[0], args[1:]
			return c.groupEdit(cmd.Context(), func(b *backends, g *view.Groups) (bool, error) {
				if err := verrors.ValidateViewName(name); err != nil {
					return false, err
				}
				if err := checkViews(b, views...); err != nil {
					return false, err
				}
				g.Set(name, views)
				printSuccess("Group %s: %s", StyleHighlight.Render(name), strings.Join(views, ", "))
				return true, nil
			})
		},
	}
}

func (c *CLI) groupsAddCommand() *cobra.Command {
	position := -1
	cmd := &cobra.Command{
		Use:               "add GROUP VIEW",
		Short:             "Insert a view into a group",
		Args:              cobra.ExactArgs(2),
		ValidArgsFunction: c.completeGroupThenViews(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			name, v := args[0], args[1]
			return c.groupEdit(cmd.Context(), func(b *backends, g *view.Groups) (bool, error) {
				if err := checkViews(b, v); err != nil {
					return false, err
				}
				if !g.Insert(name, position, v) {
					return false, verrors.New(verrors.ErrCodeGroupNotFound, "unknown group %q", name)
				}
				printSuccess("Added %s to %s", StyleHighlight.Render(v), StyleHighlight.Render(name))
				return true, nil
			})
		},
	}
	cmd.Flags().IntVarP(&position, "position", "p", position, "insert position (default: append)")
	return cmd
}

func (c *CLI) groupsRemoveCommand() *cobra.Command {
	return &cobra.Command{
		Use:               "remove GROUP POSITION",
		Short:             "Remove the view at a position from a group",
		Args:              cobra.ExactArgs(2),
		ValidArgsFunction: c.completeGroupThenViews(0),
		RunE: func(cmd *cobra.Command, args []string) error {
			name := args[0]
			position, err := strconv.Atoi(args[1])
			if err != nil {
				return verrors.New(verrors.ErrCodeInvalidInput, "invalid position %q", args[1])
			}
			return c.groupEdit(cmd.Context(), func(b *backends, g *view.Groups) (bool, error) {
				views, ok := g.Get(name)
				if !ok {
					return false, verrors.New(verrors.ErrCodeGroupNotFound, "unknown group %q", name)
				}
				if len(views) == 1 {
					return false, verrors.New(verrors.ErrCodeInvalidInput, "cannot remove the last view of %q", name)
				}
				if !g.Remove(name, position) {
					return false, verrors.New(verrors.ErrCodeInvalidInput, "position %d out of range (0-%d)", position, len(views)-1)
				}
				printSuccess("Removed %s from %s", StyleHighlight.Render(views[position]), StyleHighlight.Render(name))
				return true, nil
			})
		},
	}
}

func (c *CLI) groupsResetCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "reset",
		Short: "Replace the saved groups with those of the config file",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.groupEdit(cmd.Context(), func(b *backends, g *view.Groups) (bool, error) {
				*g = *view.NewGroups(b.cfg.Groups...)
				printSuccess("Reset to %d groups from the config", g.Len())
				return true, nil
			})
		},
	}
}

// groupTable renders groups as a table, marking the default group.
func groupTable(groups []view.Group, defaultGroup string) string {
	headerStyle := lipgloss.NewStyle().Foreground(colorGray).Bold(true)

	rows := make([][]string, 0, len(groups))
	for _, g := range groups {
		mark := ""
		if g.Name == defaultGroup {
			mark = "*"
		}
		rows = append(rows, []string{mark, g.Name, strconv.Itoa(len(g.Views)), strings.Join(g.Views, ", ")})
	}

	t := table.New().
		Border(lipgloss.RoundedBorder()).
		BorderStyle(lipgloss.NewStyle().Foreground(colorDim)).
		Headers("", "Group", "Views", "Order").
		Rows(rows...).
		StyleFunc(func(row, col int) lipgloss.Style {
			if row == -1 {
				return headerStyle
			}
			if row < len(groups) && groups[row].Name == defaultGroup {
				return lipgloss.NewStyle().Foreground(colorGreen)
			}
			if col == 3 {
				return lipgloss.NewStyle().Foreground(colorDim)
			}
			return lipgloss.NewStyle()
		})

	return t.Render()
}
