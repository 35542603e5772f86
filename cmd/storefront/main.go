package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"log/slog"
	"net/http"
	_ "net/http/pprof"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/phajay/storefront/internal/app"
	"github.com/phajay/storefront/internal/config"
	"github.com/phajay/storefront/internal/storage"
	pkgconfig "github.com/phajay/storefront/pkg/config"
	"github.com/phajay/storefront/pkg/configloader"
	"github.com/phajay/storefront/pkg/logger"
	"github.com/phajay/storefront/pkg/messaging"
	"github.com/phajay/storefront/pkg/nats"
	"golang.org/x/sync/errgroup"
)

const appName = "storefront"

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx); err != nil {
		log.Printf("application run failed: %v", err)
		os.Exit(1)
	}
	log.Println("application stopped gracefully")
}

// run initializes the application, opens the persistence backend, and starts
// the HTTP and pprof servers.
func run(ctx context.Context) error {
	cfg, cfgErr := configloader.Load[*config.Config](appName)
	if cfgErr != nil {
		return fmt.Errorf("failed to load configuration: %w", cfgErr)
	}
	log.Printf("Configuration loaded: %v", cfg)

	slogger := logger.New(cfg.Log.Level)
	slog.SetDefault(slogger)

	st, err := newStorage(ctx, cfg, slogger)
	if err != nil {
		return fmt.Errorf("failed to open storage backend: %w", err)
	}
	defer func() {
		if err := st.Close(); err != nil {
			slogger.Error("Failed to close storage backend", slog.String("error", err.Error()))
		}
	}()

	publisher, cleanup, err := newPublisher(cfg, slogger)
	if err != nil {
		return fmt.Errorf("failed to set up event publisher: %w", err)
	}
	defer cleanup()

	deps := app.SetupDependencies(ctx, st, publisher, cfg, slogger)
	httpServer := app.SetupHttpServer(deps, cfg)
	pprofServer := &http.Server{
		Addr: cfg.PProf.Addr,
	}

	g, gCtx := errgroup.WithContext(ctx)

	// Start the HTTP server
	g.Go(func() error {
		slogger.Info("HTTP server listening", slog.String("addr", httpServer.Addr))
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("http server failed: %w", err)
		}
		return nil
	})
	// gracefully shutdown HTTP server on context cancellation
	g.Go(func() error {
		<-gCtx.Done()
		slogger.Info("Shutting down HTTP server...")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Shutdown.Timeout)
		defer cancel()
		return httpServer.Shutdown(shutdownCtx)
	})

	// Start the pprof server if enabled
	if cfg.PProf.Enabled {
		g.Go(func() error {
			slogger.Info("Pprof server listening", slog.String("addr", pprofServer.Addr))
			if err := pprofServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				return fmt.Errorf("pprof server failed: %w", err)
			}
			return nil
		})
		// gracefully shutdown pprof server on context cancellation
		g.Go(func() error {
			<-gCtx.Done()
			slogger.Info("Shutting down pprof server...")
			shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Shutdown.Timeout)
			defer cancel()
			return pprofServer.Shutdown(shutdownCtx)
		})
	}
	if err := g.Wait(); err != nil && !errors.Is(err, context.Canceled) {
		return fmt.Errorf("errgroup encountered an error: %w", err)
	}
	return nil
}

// newStorage opens the persistence backend selected by configuration.
func newStorage(ctx context.Context, cfg *config.Config, slogger *slog.Logger) (storage.Store, error) {
	switch cfg.Storage.Backend {
	case pkgconfig.BackendMemory:
		slogger.Warn("Using in-memory storage, orders will not survive a restart")
		return storage.NewMemoryStore(cfg.Storage.Quota), nil
	case pkgconfig.BackendBolt:
		return storage.NewBoltStore(cfg.Storage.Path)
	case pkgconfig.BackendPostgres:
		dbPool, err := newDbPool(ctx, cfg.Storage.URL)
		if err != nil {
			return nil, err
		}
		st, err := storage.NewPgStore(ctx, dbPool)
		if err != nil {
			dbPool.Close()
			return nil, err
		}
		slogger.Info("Successfully connected to the database!")
		return st, nil
	default:
		return nil, fmt.Errorf("unknown storage backend: %q", cfg.Storage.Backend)
	}
}

// newPublisher connects to NATS when enabled; otherwise events are discarded.
func newPublisher(cfg *config.Config, slogger *slog.Logger) (messaging.Publisher, func(), error) {
	if !cfg.Nats.Enabled {
		return messaging.NoopPublisher{}, func() {}, nil
	}

	nc, err := nats.NewClient(cfg.Nats.Url, cfg.Nats.Timeout)
	if err != nil {
		return nil, nil, err
	}
	js, err := nats.NewJetStreamContext(nc)
	if err != nil {
		return nil, nil, err
	}
	cleanup := func() {
		nc.Close()
		slogger.Info("NATS connection closed")
	}
	return nats.NewPublisher(js), cleanup, nil
}

// newDbPool creates a new database connection pool with the provided context and configuration,
func newDbPool(ctx context.Context, url string) (*pgxpool.Pool, error) {
	// Create context with timeout for database connection
	poolCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	dbPool, errPool := pgxpool.New(poolCtx, url)
	if errPool != nil {
		return nil, fmt.Errorf("failed to create database connection pool: %w", errPool)
	}
	// Ping the database to ensure the connection is established (fail early if not)
	if err := dbPool.Ping(poolCtx); err != nil {
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}
	return dbPool, nil
}
