package main

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/dgnsrekt/mdfeed/internal/capture"
	"github.com/dgnsrekt/mdfeed/internal/config"
	"github.com/dgnsrekt/mdfeed/internal/feed"
	"github.com/dgnsrekt/mdfeed/internal/gap"
	"github.com/dgnsrekt/mdfeed/internal/notify"
	"github.com/dgnsrekt/mdfeed/internal/replay"
	"github.com/dgnsrekt/mdfeed/internal/server"
	"github.com/dgnsrekt/mdfeed/internal/session"
	"github.com/dgnsrekt/mdfeed/internal/worker"
	"github.com/dgnsrekt/mdfeed/internal/ws"
)

const shutdownTimeout = 10 * time.Second

func runCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "run",
		Short: "Run the feed handler for every configured channel",
		Long: `Join the incremental and snapshot feeds of every configured channel and
keep each one in sequence, recovering gaps through TCP replay or the
snapshot loop.

Examples:
  # Run with configs/default.yaml
  mdfeed run

  # Run with a specific config and debug logging
  mdfeed run -c /etc/mdfeed/prod.yaml -v`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runFeeds(cmd.Context(), cfg, logger)
		},
	}
}

func runFeeds(ctx context.Context, cfg *config.Config, logger *zap.Logger) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	if cfg.Session.Enabled {
		guard, err := newSessionGuard(cfg.Session, logger)
		if err != nil {
			return err
		}
		interval := cfg.Session.SessionInterval()
		if err := guard.WaitOpen(ctx, interval); err != nil {
			logger.Info("stopped before session open")
			return nil
		}
		go func() {
			if guard.WaitClose(ctx, interval) == nil {
				cancel()
			}
		}()
	}

	pool := worker.NewPool(cfg.Workers.Count, cfg.Workers.QueueSize, logger)
	pool.Start(ctx)
	defer pool.Stop()

	history := replay.NewMemoryStore(cfg.History.Depth)

	var listeners []gap.StateListener
	var hub *ws.Hub
	if cfg.Admin.Enabled && cfg.Admin.WSEnabled {
		hub = ws.NewHub(logger)
		go hub.Run(ctx)
		listeners = append(listeners, hub)
	}
	if cfg.Notify.Enabled {
		ncfg := notify.Config(cfg.Notify)
		alerter := notify.NewAlerter(notify.New(&ncfg, logger), logger)
		go alerter.Run(ctx)
		listeners = append(listeners, alerter)
	}

	channels := make([]*feed.Channel, 0, len(cfg.Channels))
	admin := make([]server.Channel, 0, len(cfg.Channels))
	for _, chCfg := range cfg.Channels {
		deps := feed.Deps{
			Executor:  pool,
			History:   history,
			Listeners: listeners,
		}
		if cfg.Capture.Enabled {
			rec, err := capture.NewRecorder(cfg.Capture.Directory, chCfg.ID, logger)
			if err != nil {
				return fmt.Errorf("starting capture for channel %s: %w", chCfg.ID, err)
			}
			defer func() {
				if err := rec.Close(); err != nil {
					logger.Error("closing capture", zap.String("channel", chCfg.ID), zap.Error(err))
				}
			}()
			deps.Recorder = rec
		}
		ch := feed.NewChannel(chCfg.FeedConfig(), deps, logger)
		channels = append(channels, ch)
		admin = append(admin, ch)
	}

	var router http.Handler
	if cfg.Admin.Enabled {
		var err error
		router, err = server.NewRouter(server.NewServer(admin, logger), hub, logger)
		if err != nil {
			return fmt.Errorf("creating admin router: %w", err)
		}
	}

	var replayLn net.Listener
	if cfg.ReplayServer.Enabled {
		var err error
		replayLn, err = net.Listen("tcp", cfg.ReplayServer.Addr)
		if err != nil {
			return fmt.Errorf("listening for replay requests: %w", err)
		}
	}

	g, gctx := errgroup.WithContext(ctx)
	for _, ch := range channels {
		g.Go(func() error {
			return ch.Run(gctx)
		})
	}

	if replayLn != nil {
		srv := replay.NewServer(history, cfg.ReplayServer.MaxWindow, logger)
		g.Go(func() error {
			return srv.Serve(gctx, replayLn)
		})
	}

	if cfg.Admin.Enabled {
		httpServer := &http.Server{
			Addr:              cfg.Admin.Addr,
			Handler:           router,
			ReadHeaderTimeout: 10 * time.Second,
		}
		g.Go(func() error {
			logger.Info("starting admin server", zap.String("addr", httpServer.Addr))
			if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				return fmt.Errorf("admin server: %w", err)
			}
			return nil
		})
		g.Go(func() error {
			<-gctx.Done()
			shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), shutdownTimeout)
			defer shutdownCancel()
			return httpServer.Shutdown(shutdownCtx)
		})
	}

	logger.Info("mdfeed running", zap.Int("channels", len(channels)), zap.Int("workers", cfg.Workers.Count))
	err := g.Wait()

	logger.Info("shutting down...")
	for _, ch := range channels {
		ch.Shutdown()
	}
	return err
}

func newSessionGuard(s config.SessionConfig, logger *zap.Logger) (*session.Guard, error) {
	open, err := config.ParseClock(s.Open)
	if err != nil {
		return nil, err
	}
	closeAt, err := config.ParseClock(s.Close)
	if err != nil {
		return nil, err
	}
	return session.NewGuard(s.Timezone, open, closeAt, logger)
}
