package cli

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/matzehuels/viewgrid/internal/server"
	"github.com/matzehuels/viewgrid/pkg/config"
	"github.com/matzehuels/viewgrid/pkg/observability"
	"github.com/matzehuels/viewgrid/pkg/pipeline"
	"github.com/matzehuels/viewgrid/pkg/session"
	"github.com/matzehuels/viewgrid/pkg/viewer"
)

// serveOpts holds the command-line flags for the serve command.
type serveOpts struct {
	addr     string
	imageID  string
	location string
	group    string
	watch    bool
}

// serveCommand creates the serve command which runs the HTTP control API.
func (c *CLI) serveCommand() *cobra.Command {
	opts := serveOpts{watch: true}

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the view grid over an HTTP control API",
		Long: `Serve a live view grid over HTTP.

The grid state is available at /api/state and the composite at
/composite.png. Views and groups are edited through /api; every grid
rebuild saves the groups to the configured store. Views are reloaded when
the config file changes.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.runServe(cmd.Context(), opts)
		},
	}

	cmd.Flags().StringVar(&opts.addr, "addr", "", "listen address (default from config)")
	cmd.Flags().StringVar(&opts.imageID, "image", "", "subject image to bind at startup")
	cmd.Flags().StringVarP(&opts.location, "location", "l", "", "subject location as lat~lon")
	cmd.Flags().StringVarP(&opts.group, "group", "g", "", "group to show at startup")
	_ = cmd.RegisterFlagCompletionFunc("group", c.completeGroupFlag)
	cmd.Flags().BoolVar(&opts.watch, "watch", opts.watch, "reload views when the config file changes")

	return cmd
}

// runServe builds the manager, then runs its loop, the server and the
// config watcher until ctx is done.
func (c *CLI) runServe(ctx context.Context, opts serveOpts) error {
	var sess *session.Session
	if opts.imageID != "" {
		s, err := resolveSession(ctx, session.NewMemoryStore(), opts.imageID, opts.location)
		if err != nil {
			return err
		}
		sess = s
	}

	b, err := c.openBackends(ctx)
	if err != nil {
		return err
	}
	defer b.Close()

	hooks := observability.NewLogHooks(c.Logger)
	observability.SetGridHooks(hooks)
	observability.SetFetchHooks(hooks)
	observability.SetCacheHooks(hooks)
	defer observability.Reset()

	fetcher := pipeline.NewFetcher(b.cfg, b.cache, c.Logger)
	loop := viewer.NewLoop(256)
	hub := server.NewHub()
	mopts := pipeline.ManagerOptions(b.cfg, fetcher, b.store, c.Logger)
	logNotes := viewer.LogNotifier{Logger: c.Logger}
	mopts.Notifier = viewer.NotifierFunc(func(msg string) {
		logNotes.Notify(msg)
		hub.Notify(msg)
	})
	m := viewer.New(loop, mopts)
	defer m.Sources().Close()

	addr := opts.addr
	if addr == "" {
		addr = b.cfg.Server.Addr
	}
	srv := server.New(m, c.Logger, server.WithHub(hub))

	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error { return ignoreCanceled(loop.Run(ctx)) })

	if err := loop.Do(ctx, func() error {
		if err := m.LoadGroups(ctx); err != nil {
			c.Logger.Warn("restoring view groups failed", "err", err)
		}
		if sess != nil {
			m.SetImage(sess.ImageID, sess.Location)
		}
		return m.ShowGroup(opts.group)
	}); err != nil {
		return fmt.Errorf("show initial group: %w", err)
	}

	g.Go(func() error { return srv.ListenAndServe(ctx, addr) })

	if opts.watch {
		path, err := c.configFile()
		if err != nil {
			return err
		}
		g.Go(func() error {
			err := config.Watch(ctx, path, c.Logger, func(cfg *config.Config) {
				if err := srv.Reload(ctx, cfg.Views); err != nil {
					c.Logger.Warn("reloading views failed", "err", err)
					return
				}
				printInfo("Reloaded %d views from %s", len(cfg.Views), path)
			})
			if err != nil {
				c.Logger.Warn("config watcher disabled", "path", path, "err", err)
			}
			return nil
		})
	}

	printSuccess("Serving %s on %s", StyleHighlight.Render(subjectLabel(sess)), StyleLink.Render(displayAddr(addr)))
	printNextStep("Composite", "curl "+displayAddr(addr)+"/composite.png")
	printNextStep("Events", "websocat ws"+strings.TrimPrefix(displayAddr(addr), "http")+"/api/events")

	err = g.Wait()
	// The loop has stopped, so the manager is safe to touch here.
	m.Clear()
	return ignoreCanceled(err)
}

// displayAddr turns a listen address into a URL.
func displayAddr(addr string) string {
	if len(addr) > 0 && addr[0] == ':' {
		return "http://localhost" + addr
	}
	return "http://" + addr
}

func ignoreCanceled(err error) error {
	if errors.Is(err, context.Canceled) {
		return nil
	}
	return err
}
