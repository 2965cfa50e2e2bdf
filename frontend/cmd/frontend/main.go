package main

import (
	"context"
	"errors"
	"flag"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/itchan-dev/foro/frontend/internal/router"
	"github.com/itchan-dev/foro/frontend/internal/setup"
	"github.com/itchan-dev/foro/shared/config"
	"github.com/itchan-dev/foro/shared/logger"
)

const (
	readTimeout     = 5 * time.Second
	idleTimeout     = 60 * time.Second
	shutdownTimeout = 10 * time.Second
	janitorInterval = 10 * time.Minute
)

func main() {
	var configFolder string
	flag.StringVar(&configFolder, "config_folder", "config", "path to folder with configs")
	flag.Parse()

	cfg := config.MustLoad(configFolder)
	logger.Initialize(cfg.Public.Log.Level, cfg.Public.Log.JSON)

	deps, err := setup.SetupDependencies(cfg)
	if err != nil {
		logger.Log.Error("failed to set up dependencies", "error", err)
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	g, ctx := errgroup.WithContext(ctx)
	server := newServer(ctx, ":"+cfg.Public.Server.Port, router.New(deps))
	g.Go(func() error {
		logger.Log.Info("starting frontend", "addr", server.Addr, "gateway", cfg.Public.Gateway.BaseURL)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		logger.Log.Info("shutting down frontend")
		return server.Shutdown(shutdownCtx)
	})
	if deps.Realtime != nil {
		g.Go(func() error {
			return deps.Realtime.Run(ctx)
		})
	} else {
		logger.Log.Warn("no realtime url configured, reply updates stay within this process")
	}
	deps.ReplyLimiter.StartJanitor(ctx, janitorInterval)

	if err := g.Wait(); err != nil {
		logger.Log.Error("frontend stopped", "error", err)
		os.Exit(1)
	}
}

// newServer builds the HTTP server. Request contexts derive from ctx, so
// cancelling it ends the reply streams that Shutdown would otherwise wait on.
func newServer(ctx context.Context, addr string, handler http.Handler) *http.Server {
	return &http.Server{
		Addr:        addr,
		Handler:     handler,
		ReadTimeout: readTimeout,
		IdleTimeout: idleTimeout,
		// no WriteTimeout: reply streams stay open for the life of the page
		BaseContext: func(net.Listener) context.Context { return ctx },
	}
}
