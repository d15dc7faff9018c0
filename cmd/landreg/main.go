package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"syscall"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/sogis/landreg-extract/internal/capcache"
	"github.com/sogis/landreg-extract/internal/core/config"
	"github.com/sogis/landreg-extract/internal/core/health"
	"github.com/sogis/landreg-extract/internal/core/httpclient"
	"github.com/sogis/landreg-extract/internal/core/observability"
	"github.com/sogis/landreg-extract/internal/core/server"
	"github.com/sogis/landreg-extract/internal/events"
	"github.com/sogis/landreg-extract/internal/extract"
	"github.com/sogis/landreg-extract/internal/layout"
	"github.com/sogis/landreg-extract/internal/logger"
	"github.com/sogis/landreg-extract/internal/metadata"
	"github.com/sogis/landreg-extract/internal/metrics"
	"github.com/sogis/landreg-extract/internal/printclient"
	"github.com/sogis/landreg-extract/internal/printreq"
	"github.com/sogis/landreg-extract/internal/validate"
)

var Version = "dev"

func main() {
	os.Exit(run())
}

func run() int {
	cfg := config.FromEnv()

	zl := logger.Build(logger.Config{
		Level:     cfg.LogLevel,
		Console:   strings.ToLower(os.Getenv("LOG_CONSOLE")) == "true",
		SampleN:   sampleN(),
		Component: "landreg",
	}, os.Stdout)

	appLog := logger.NewSlog(&zl)

	observability.ExposeBuildInfo(Version)
	appLog.Info("starting landreg extract service",
		"addr", cfg.Addr,
		"version", Version,
		"mapserver", cfg.MapServerURL,
		"project", cfg.Project)

	// broken template bindings must fail startup, not the first request
	if err := printreq.ValidateBindings(cfg.Templates); err != nil {
		appLog.Error("template binding validation failed", "err", err)
		return 1
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	pool, err := pgxpool.New(ctx, cfg.DatabaseURL)
	if err != nil {
		appLog.Error("failed to create database pool", "err", err)
		return 1
	}
	defer pool.Close()

	capStore, err := capcache.New(ctx, cfg.CapCacheDriver, cfg.RedisAddr, cfg.CapCacheTTL)
	if err != nil {
		appLog.Error("failed to initialize capabilities cache", "err", err)
		return 1
	}

	var auditor extract.Auditor
	if cfg.Audit.Enabled {
		pub, err := events.NewPublisher(strings.Split(cfg.Audit.Brokers, ","), cfg.Audit.Topic, cfg.Audit.Queue)
		if err != nil {
			appLog.Error("failed to initialize audit publisher", "err", err)
			return 1
		}
		defer func() { _ = pub.Close() }()
		auditor = pub
	}

	httpClient := httpclient.NewOutbound()
	endpoint := printreq.ProjectEndpoint(cfg.MapServerURL, cfg.Project)

	resolver := metadata.NewPG(pool, cfg.PrintInfoTable)
	layouts := layout.NewResolver(cfg.DefaultTemplate, cfg.Templates, cfg.PrintLayers, cfg.PrintStyles)
	client := printclient.New(appLog, httpClient, endpoint, cfg.PrintTimeout)
	validator := validate.New(cfg.MinDocumentBytes)
	svc := extract.New(appLog, resolver, layouts, client, validator, auditor, cfg.PrintMaxConcurrent)
	capClient := layout.NewCapabilitiesClient(appLog, httpClient, cfg.MapServerURL, cfg.Project, cfg.DefaultTemplate, capStore)

	ready := map[string]health.Check{
		"database": func(ctx context.Context) error {
			return pool.Ping(ctx)
		},
		"mapserver": func(ctx context.Context) error {
			req, err := http.NewRequestWithContext(ctx, http.MethodGet, cfg.MapServerURL, nil)
			if err != nil {
				return err
			}
			resp, err := httpClient.Do(req)
			if err != nil {
				return err
			}
			_ = resp.Body.Close()
			return nil
		},
	}

	if os.Getenv("METRICS_ENABLED") == "true" {
		startMetricsListener(ctx)
	}

	deps := server.Deps{Print: svc, Templates: capClient, Ready: ready}
	if err := server.Run(ctx, cfg, appLog, deps); err != nil {
		appLog.Error("server exited with error", "err", err)
		return 1
	}
	appLog.Info("server stopped")
	return 0
}

func sampleN() int {
	if v := os.Getenv("LOG_SAMPLE_N"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return 0
}

// startMetricsListener serves a dedicated registry with process collectors on
// its own port, next to the default-registry /metrics on the main listener.
func startMetricsListener(ctx context.Context) {
	addr := os.Getenv("METRICS_ADDR")
	if addr == "" {
		addr = ":9090"
	}
	path := os.Getenv("METRICS_PATH")
	if path == "" {
		path = "/metrics"
	}

	p := metrics.Init(metrics.Config{
		Addr: addr,
		Path: path,
		Build: metrics.BuildInfo{
			Version:  Version,
			Revision: os.Getenv("BUILD_REVISION"),
		},
	})

	mux := http.NewServeMux()
	mux.Handle(path, p.Handler())

	srv := &http.Server{
		Addr:              addr,
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       10 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       120 * time.Second,
	}

	go func() {
		log.Printf("metrics: listening on %s%s", addr, path)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Printf("metrics server exited: %v", err)
		}
	}()

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			log.Printf("metrics: shutdown error: %v", err)
		}
	}()
}
