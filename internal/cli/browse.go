package cli

import (
	"context"
	"fmt"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"

	"github.com/matzehuels/viewgrid/pkg/pipeline"
	"github.com/matzehuels/viewgrid/pkg/session"
	"github.com/matzehuels/viewgrid/pkg/viewer"
)

// browseCommand creates the browse command: an interactive grid in the
// terminal.
func (c *CLI) browseCommand() *cobra.Command {
	var location, group string

	cmd := &cobra.Command{
		Use:   "browse [image-id|last]",
		Short: "Browse the views of an image interactively",
		Long: `Browse the views of one subject image in an interactive terminal grid.

Switch groups, add, remove and replace views, adjust contrast windows and
pan or zoom every image view at once. Group edits are saved like in serve.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.runBrowse(cmd.Context(), args[0], location, group)
		},
	}

	cmd.Flags().StringVarP(&location, "location", "l", "", "subject location as lat~lon")
	cmd.Flags().StringVarP(&group, "group", "g", "", "group to show first")
	_ = cmd.RegisterFlagCompletionFunc("group", c.completeGroupFlag)

	return cmd
}

func (c *CLI) runBrowse(ctx context.Context, imageID, location, group string) error {
	sessions, err := newSessionStore()
	if err != nil {
		return err
	}
	sess, err := resolveSession(ctx, sessions, imageID, location)
	if err != nil {
		return err
	}

	b, err := c.openBackends(ctx)
	if err != nil {
		return err
	}
	defer b.Close()

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	notes := make(chan string, 8)
	opts := pipeline.ManagerOptions(b.cfg, pipeline.NewFetcher(b.cfg, b.cache, c.Logger), b.store, c.Logger)
	opts.Notifier = viewer.NotifierFunc(func(msg string) {
		select {
		case notes <- msg:
		default:
		}
	})

	loop := viewer.NewLoop(256)
	m := viewer.New(loop, opts)
	defer m.Sources().Close()
	go loop.Run(ctx)

	if err := loop.Do(ctx, func() error {
		if err := m.LoadGroups(ctx); err != nil {
			c.Logger.Warn("restoring view groups failed", "err", err)
		}
		m.SetImage(sess.ImageID, sess.Location)
		return m.ShowGroup(group)
	}); err != nil {
		return fmt.Errorf("show group: %w", err)
	}

	if err := sessions.Set(ctx, session.LastID, sess); err != nil {
		c.Logger.Warn("saving session failed", "err", err)
	}

	p := tea.NewProgram(NewGridModel(ctx, m, notes), tea.WithAltScreen(), tea.WithContext(ctx))
	_, err = p.Run()
	_ = loop.Do(ctx, func() error { m.Clear(); return nil })
	if err != nil && ctx.Err() == nil {
		return fmt.Errorf("browse: %w", err)
	}
	return nil
}
