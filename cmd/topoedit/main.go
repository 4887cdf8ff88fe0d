// Command topoedit serves topology editing sessions to browsers over HTTP and
// websockets, and to tooling over gRPC.
package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"golang.org/x/sync/errgroup"
	"google.golang.org/grpc"

	"github.com/psidex/topoedit/internal/lib"
	"github.com/psidex/topoedit/internal/metrics"
	"github.com/psidex/topoedit/internal/persona"
	"github.com/psidex/topoedit/internal/rpc"
	"github.com/psidex/topoedit/internal/session"
	"github.com/psidex/topoedit/internal/webserver"
)

const shutdownTimeout = 10 * time.Second

func main() {
	cfg, err := parseConfig(os.Args[1:], os.Getenv)
	if err != nil {
		fmt.Fprintln(os.Stderr, "topoedit:", err)
		os.Exit(2)
	}

	level, _ := lib.ParseSLogLevel(cfg.LogLevel)
	logger, err := lib.NewLogger(os.Stderr, level, cfg.LogFormat)
	if err != nil {
		fmt.Fprintln(os.Stderr, "topoedit:", err)
		os.Exit(2)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg, logger); err != nil {
		logger.Error("Exiting", "err", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, cfg Config, logger *slog.Logger) error {
	catalog := persona.NewCatalog()
	if cfg.PersonaDir != "" {
		if _, err := catalog.LoadDir(cfg.PersonaDir, logger); err != nil {
			return fmt.Errorf("load personas: %w", err)
		}
	}

	promRegistry := prometheus.NewRegistry()
	promRegistry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	m := metrics.New(promRegistry)

	registry := session.NewRegistry(logger)
	m.Watch(registry)

	web := webserver.NewServer(logger, registry, catalog,
		webserver.WithMetrics(m, promRegistry),
		webserver.WithAllowedOrigins(cfg.AllowedOrigins...),
		webserver.WithClientBuffer(cfg.ClientBuffer),
		webserver.WithStaticDir(cfg.StaticDir),
	)
	httpServer := &http.Server{
		Addr:              cfg.HTTPAddress,
		Handler:           web.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	var (
		grpcServer *grpc.Server
		lis        net.Listener
	)
	if cfg.GRPCAddress != "" {
		var err error
		if lis, err = net.Listen("tcp", cfg.GRPCAddress); err != nil {
			return fmt.Errorf("grpc listen: %w", err)
		}
		grpcServer = grpc.NewServer(grpc.ChainUnaryInterceptor(rpc.UnaryLogger(logger)))
		rpc.RegisterSessionServer(grpcServer, rpc.NewServer(logger, registry, catalog))
	}

	g, ctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		registry.Run(ctx, cfg.ReapInterval.Duration, cfg.SessionIdle.Duration)
		return nil
	})

	g.Go(func() error {
		logger.Info("Serving HTTP", "address", cfg.HTTPAddress)
		if err := httpServer.ListenAndServe(); !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("http: %w", err)
		}
		return nil
	})
	if grpcServer != nil {
		g.Go(func() error {
			logger.Info("Serving gRPC", "address", cfg.GRPCAddress)
			return grpcServer.Serve(lis)
		})
	}

	g.Go(func() error {
		<-ctx.Done()
		// Deleting sessions ends attached websockets and gRPC watchers, which
		// GracefulStop would otherwise wait on forever.
		for _, id := range registry.List() {
			_ = registry.Delete(id)
		}
		if grpcServer != nil {
			grpcServer.GracefulStop()
		}
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		return httpServer.Shutdown(shutdownCtx)
	})

	return g.Wait()
}
