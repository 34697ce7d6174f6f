package main

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	mcpserver "github.com/mark3labs/mcp-go/server"
	"github.com/spf13/cobra"
	"go.uber.org/multierr"
	"golang.org/x/sync/errgroup"
	"tailscale.com/tsnet"

	"github.com/claude/reptrack/internal/capture"
	"github.com/claude/reptrack/internal/config"
	"github.com/claude/reptrack/internal/logging"
	reptrackmcp "github.com/claude/reptrack/internal/mcp"
	"github.com/claude/reptrack/internal/metrics"
	"github.com/claude/reptrack/internal/pose"
	"github.com/claude/reptrack/internal/schedule"
	"github.com/claude/reptrack/internal/server"
	"github.com/claude/reptrack/internal/session"
	"github.com/claude/reptrack/internal/stream"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the tracker HTTP server",
	Args:  cobra.NoArgs,
	RunE:  runServe,
}

func init() {
	rootCmd.AddCommand(serveCmd)
}

func runServe(cmd *cobra.Command, _ []string) (err error) {
	cfg, err := config.Load(configPath)
	if err != nil {
		return err
	}
	if err := cfg.RequireStream(); err != nil {
		return fmt.Errorf("config validation: %w", err)
	}

	log, closer := logging.New(cfg.Log)
	defer closer.Close()
	log.Info("reptrack starting", "version", Version)

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	store, collectors, err := openStore(ctx, cfg, log)
	if err != nil {
		return err
	}
	defer func() { err = multierr.Append(err, store.Close()) }()

	reg := metrics.SetupPrometheus(collectors...)
	m := metrics.NewManager("reptrack", "main", reg)

	loc := cfg.Workouts.Location()
	sessions := session.NewManager(store, log, m, session.Options{
		Location:        loc,
		StrictExercises: cfg.Workouts.StrictExercises,
	})
	open := capture.Opener(cfg.Capture.Source, capture.Options{
		Loop:     cfg.Capture.Loop,
		Interval: cfg.Capture.Interval,
	})
	estimator := pose.NewHTTPEstimator(cfg.Pose.Endpoint, cfg.Pose.Timeout)
	loop := stream.NewLoop(sessions, open, estimator, cfg.Pose.MinVisibility, log, m)
	sched := schedule.NewService(store, loc, nil, log)

	mcpSrv := reptrackmcp.New(&reptrackmcp.Local{Service: sched, Sessions: sessions, Exercises: store}, Version, log)
	mcpHTTP := mcpserver.NewStreamableHTTPServer(mcpSrv,
		mcpserver.WithHTTPContextFunc(func(ctx context.Context, r *http.Request) context.Context {
			return reptrackmcp.WithUserID(ctx, server.UserIDFromRequest(r))
		}),
	)

	deps := server.Deps{
		Store:       store,
		Sessions:    sessions,
		Loop:        loop,
		Schedule:    sched,
		Metrics:     m,
		MCP:         mcpHTTP,
		JPEGQuality: cfg.Capture.JPEGQuality,
	}
	if cfg.Metrics.Enabled {
		deps.Gatherer = reg
	}
	srv := server.New(deps, log)

	// Listen on the tailnet or on plain TCP.
	var listener net.Listener
	if cfg.Tailscale.Enabled {
		tsServer := &tsnet.Server{
			Hostname: cfg.Tailscale.Hostname,
			Dir:      cfg.Tailscale.StateDir,
		}
		if err := tsServer.Start(); err != nil {
			return fmt.Errorf("tsnet start: %w", err)
		}
		defer func() { err = multierr.Append(err, tsServer.Close()) }()

		lc, err := tsServer.LocalClient()
		if err != nil {
			return fmt.Errorf("tsnet local client: %w", err)
		}
		srv.SetTailscale(lc)

		listener, err = tsServer.Listen("tcp", ":80")
		if err != nil {
			return fmt.Errorf("tsnet listen: %w", err)
		}
		log.Info("tsnet server starting", "hostname", cfg.Tailscale.Hostname)
	} else {
		addr := fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port)
		listener, err = net.Listen("tcp", addr)
		if err != nil {
			return fmt.Errorf("listen on %s: %w", addr, err)
		}
		log.Info("server starting", "addr", addr, "mode", "dev (no tailscale)")
	}

	httpSrv := &http.Server{
		Handler:           srv,
		ReadHeaderTimeout: 10 * time.Second,
		// Request contexts end with the process so open feeds stop on shutdown.
		BaseContext: func(net.Listener) context.Context { return ctx },
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		if err := httpSrv.Serve(listener); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("serving http: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		log.Info("shutting down")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return httpSrv.Shutdown(shutdownCtx)
	})
	err = g.Wait()

	// Credit reps of a session still running at shutdown.
	if _, ok := sessions.Snapshot(); ok {
		flushCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		sum, endErr := sessions.End(flushCtx)
		cancel()
		if endErr != nil {
			err = multierr.Append(err, fmt.Errorf("ending active session: %w", endErr))
		} else {
			log.Info("active session ended at shutdown", "exercise", sum.Session.ExerciseName, "reps", sum.Reps)
		}
	}

	log.Info("server stopped")
	return err
}
