package main

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/go-chi/chi/v5"
	_ "github.com/lib/pq"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"breachnotice/internal/access"
	"breachnotice/internal/notice/store"
	"breachnotice/internal/platform/config"
	"breachnotice/internal/platform/httpserver"
	"breachnotice/internal/platform/logger"
	"breachnotice/internal/platform/metrics"
	"breachnotice/internal/platform/middleware"
	"breachnotice/internal/refdata"
	"breachnotice/internal/render"
	"breachnotice/internal/wizard/handler"
	"breachnotice/internal/wizard/service"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func run() error {
	cfg := config.FromEnv()
	log := logger.New()

	documents, cleanup, err := newDocumentStore(cfg)
	if err != nil {
		return err
	}
	defer cleanup()

	gateway := refdata.NewStubGateway()
	gate := access.NewGate(gateway, log)
	m := metrics.New()
	svc := service.New(documents, gateway, gate, log, m)

	router := chi.NewRouter()
	router.Use(middleware.RequestID)
	router.Use(middleware.Username)
	router.Use(middleware.Recovery(log))
	router.Use(middleware.Logger(log))
	router.Get("/health", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
	router.Handle("/metrics", promhttp.Handler())
	handler.NewHandler(svc, render.NewJSON(log), log, cfg.SignOutURL).Register(router)

	server := httpserver.New(cfg.Addr, router)

	errCh := make(chan error, 1)
	go func() {
		log.Info("server starting", "addr", cfg.Addr, "store", cfg.StoreBackend)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)

	select {
	case err := <-errCh:
		return fmt.Errorf("server failed: %w", err)
	case sig := <-stop:
		log.Info("shutting down", "signal", sig.String())
	}

	ctx, cancel := context.WithTimeout(context.Background(), config.ShutdownTimeout)
	defer cancel()
	if err := server.Shutdown(ctx); err != nil {
		return fmt.Errorf("shutdown: %w", err)
	}
	return nil
}

func newDocumentStore(cfg config.Server) (store.DocumentStore, func(), error) {
	switch cfg.StoreBackend {
	case "postgres":
		db, err := sql.Open("postgres", cfg.PostgresDSN)
		if err != nil {
			return nil, nil, fmt.Errorf("open postgres: %w", err)
		}
		if err := db.Ping(); err != nil {
			return nil, nil, fmt.Errorf("ping postgres: %w", err)
		}
		return store.NewPostgres(db), func() { _ = db.Close() }, nil
	case "memory":
		return store.NewMemoryStore(), func() {}, nil
	default:
		return nil, nil, fmt.Errorf("unknown store backend %q", cfg.StoreBackend)
	}
}
