package cli

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/dgallion1/notedex/internal/api"
	"github.com/dgallion1/notedex/internal/index"
	"github.com/dgallion1/notedex/internal/pipeline"
	"github.com/dgallion1/notedex/internal/store"
	"github.com/dgallion1/notedex/internal/watch"
)

func serveCmd(a *app) *cobra.Command {
	var follow bool

	c := &cobra.Command{
		Use:   "serve [paths...]",
		Short: "Serve the index over HTTP; with paths, load them first",
		RunE: func(cmd *cobra.Command, args []string) error {
			if follow && len(args) == 0 {
				return errors.New("--watch needs paths to follow")
			}
			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			st, err := a.openStore()
			if err != nil {
				return err
			}
			defer st.Close()

			holder := &index.Holder{}
			srv := api.NewServer(holder, a.loader(st, args), a.log, a.cfg)

			if _, err := srv.Reload(ctx); err != nil {
				var ee *exitError
				if !errors.As(err, &ee) {
					return err
				}
				// Nothing persisted yet; serve empty until a reload.
				a.log.Warn("starting with an empty index", "reason", err)
			}

			if follow {
				w, err := watch.New(args, func(ctx context.Context, changes []watch.Change) {
					a.log.Info("notes changed", "files", len(changes), "first", changes[0].Path)
					if _, err := srv.Reload(ctx); err != nil {
						a.log.Error("reload after change failed", "error", err)
					}
				}, watch.Options{Debounce: a.cfg.WatchDebounce}, a.log)
				if err != nil {
					return fmt.Errorf("watch: %w", err)
				}
				if err := w.Start(ctx); err != nil {
					return fmt.Errorf("watch: %w", err)
				}
				defer w.Stop()
			}

			httpServer := &http.Server{
				Addr:         ":" + a.cfg.Port,
				Handler:      srv,
				ReadTimeout:  30 * time.Second,
				WriteTimeout: 120 * time.Second,
				IdleTimeout:  60 * time.Second,
			}

			// Graceful shutdown.
			go func() {
				<-ctx.Done()
				a.log.Info("shutting down...")
				shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
				defer cancel()
				httpServer.Shutdown(shutdownCtx)
			}()

			a.log.Info("starting notedex", "port", a.cfg.Port, "paths", args, "watch", follow)
			if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
				return fmt.Errorf("server: %w", err)
			}
			return nil
		},
	}

	c.Flags().BoolVar(&follow, "watch", false, "Reload when files under the given paths change")
	return c
}

// loader re-reads paths and persists the result, or with no paths restores
// whatever the last `load` saved.
func (a *app) loader(st *store.Store, paths []string) api.Loader {
	if len(paths) == 0 {
		return func(ctx context.Context) (*index.Snapshot, *pipeline.Report, error) {
			snap, meta, err := a.restore(ctx, st, 0)
			if err != nil {
				return nil, nil, err
			}
			return snap, meta.Report, nil
		}
	}
	return func(ctx context.Context) (*index.Snapshot, *pipeline.Report, error) {
		snap, report, err := a.pipeline().LoadPaths(ctx, paths)
		if err != nil {
			return nil, nil, err
		}
		meta := store.Meta{Generation: snap.Generation, Threshold: a.cfg.SimilarityThreshold, Report: report}
		if err := st.Save(ctx, snap.Documents, meta); err != nil {
			return nil, nil, fmt.Errorf("save load: %w", err)
		}
		if report.HasFailures() {
			a.log.Warn("some documents failed to load", "failed", len(report.Documents)-report.Loaded())
		}
		return snap, report, nil
	}
}
