package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"task-tracker/internal/config"
	router "task-tracker/internal/http"
	"task-tracker/internal/http/handlers"
	"task-tracker/internal/store"
	"task-tracker/internal/store/memory"
	"task-tracker/internal/store/sqlstore"
	"time"

	"golang.org/x/sync/errgroup"
)

func main() {
	cfg, err := config.Parse(os.Args[1:])
	if err != nil {
		fmt.Fprintf(os.Stderr, "task-tracker: %v\n", err)
		os.Exit(2)
	}

	logger := cfg.Logger(os.Stdout)
	slog.SetDefault(logger)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg, logger); err != nil {
		logger.Error("server failed", slog.Any("error", err))
		os.Exit(1)
	}

	logger.Info("shut down gracefully")
}

func run(ctx context.Context, cfg config.Config, logger *slog.Logger) error {
	backend, err := openBackend(ctx, cfg)
	if err != nil {
		return fmt.Errorf("open %s store: %w", cfg.DBDriver, err)
	}
	defer backend.Close()

	if err := backend.EnsureSchema(ctx); err != nil {
		return err
	}

	handler := handlers.New(backend, logger)
	health := handlers.NewHealth(backend, logger)

	server := &http.Server{
		Addr:              cfg.HTTPPort,
		Handler:           router.New(handler, health, logger),
		ReadHeaderTimeout: 5 * time.Second,
	}

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		logger.Info("listening",
			slog.String("addr", cfg.HTTPPort),
			slog.String("driver", cfg.DBDriver),
		)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})

	g.Go(func() error {
		<-gctx.Done()
		logger.Info("shut down signal received...")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
		defer cancel()

		return server.Shutdown(shutdownCtx)
	})

	return g.Wait()
}

func openBackend(ctx context.Context, cfg config.Config) (store.Backend, error) {
	if cfg.DBDriver == "memory" {
		return memory.New(), nil
	}

	db, err := sqlstore.Open(ctx, cfg.DBDriver, cfg.DBDSN)
	if err != nil {
		return nil, err
	}
	return db, nil
}
