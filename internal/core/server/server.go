package server

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/sogis/landreg-extract/internal/core/config"
	"github.com/sogis/landreg-extract/internal/core/health"
	middleware "github.com/sogis/landreg-extract/internal/core/middleware"
	"github.com/sogis/landreg-extract/internal/core/router"
)

// Deps are the request handlers and readiness checks the server exposes.
type Deps struct {
	Print     router.PrintHandler
	Templates router.TemplateLister
	Ready     map[string]health.Check
}

// sets up http and starts serving
func Run(ctx context.Context, cfg config.Config, logger *slog.Logger, deps Deps) error {
	r := chi.NewRouter()
	r.Use(middleware.Recover())
	r.Use(middleware.Logging(logger))
	r.Use(middleware.CORS())

	defaults := router.Defaults{DPI: cfg.DefaultDPI, SRS: cfg.DefaultSRS}

	r.Get("/healthz", health.Liveness())
	r.Get("/readyz", health.Readiness(deps.Ready))
	r.Get("/metrics", promhttp.Handler().ServeHTTP)
	r.Get("/templates", router.HandleTemplates(logger, deps.Templates))
	r.Post("/print", router.HandlePrint(logger, defaults, cfg.Project, deps.Print))

	srv := &http.Server{
		Addr:              cfg.Addr,
		Handler:           r,
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       15 * time.Second,
		// print renders are slow; the write timeout must outlast the upstream timeout
		WriteTimeout: cfg.PrintTimeout + 30*time.Second,
		IdleTimeout:  60 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("http listen", "addr", cfg.Addr)
		if err := srv.ListenAndServe(); !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		_ = srv.Shutdown(shutdownCtx)
		return nil
	case err := <-errCh:
		return err
	}
}
