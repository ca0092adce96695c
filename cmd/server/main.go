// Package main is the entry point for the pmsstatus server.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/randytsao24/pmsstatus/internal/api"
	"github.com/randytsao24/pmsstatus/internal/config"
	"github.com/randytsao24/pmsstatus/internal/pms"
	"github.com/randytsao24/pmsstatus/internal/render"
	"github.com/randytsao24/pmsstatus/internal/session"
	"github.com/randytsao24/pmsstatus/internal/status"
)

func main() {
	snapshotPath := flag.String("snapshot", "", "render the station table once to this PNG file and exit")
	query := flag.String("query", "", "station name filter for -snapshot")
	flag.Parse()

	cfg, err := config.Load()
	if err != nil {
		log.Fatal("Configuration error: ", err)
	}
	if err := cfg.Validate(); err != nil {
		log.Fatal("Configuration error: ", err)
	}

	logger := newLogger(cfg)
	slog.SetDefault(logger)

	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)

	svc, err := newService(cfg, logger, reg)
	if err != nil {
		log.Fatal("Startup error: ", err)
	}
	defer svc.Close()

	if *snapshotPath != "" {
		err = writeSnapshot(svc, cfg, *snapshotPath, *query)
	} else {
		err = serve(cfg, svc, promhttp.HandlerFor(reg, promhttp.HandlerOpts{}))
	}
	if err != nil {
		logger.Error("exiting", "error", err)
		svc.Close()
		os.Exit(1)
	}
}

func newLogger(cfg *config.Config) *slog.Logger {
	opts := &slog.HandlerOptions{Level: cfg.SlogLevel()}
	if cfg.IsDevelopment() {
		return slog.New(slog.NewTextHandler(os.Stderr, opts))
	}
	return slog.New(slog.NewJSONHandler(os.Stderr, opts))
}

func newService(cfg *config.Config, logger *slog.Logger, reg prometheus.Registerer) (*status.Service, error) {
	renderer := render.NewTableRenderer(nil)
	if cfg.RenderFontPath != "" {
		face, err := render.LoadFontFace(cfg.RenderFontPath, cfg.RenderFontSize)
		if err != nil {
			return nil, err
		}
		renderer = render.NewTableRenderer(face)
	}

	client := pms.NewClient(cfg.PMSBaseURL, cfg.HTTPTimeout, logger)
	sessions := session.NewManager(client, logger)

	return status.NewService(sessions, client, renderer, status.Options{
		TTL:            cfg.CacheTTL,
		RefreshTimeout: cfg.RefreshTimeout,
		Layout:         render.Layout{Width: cfg.RenderWidth, RowHeight: cfg.RenderRowHeight},
		Logger:         logger,
		Metrics:        status.NewMetrics(reg),
	}), nil
}

func serve(cfg *config.Config, svc *status.Service, metrics http.Handler) error {
	server := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      api.NewRouter(cfg, svc, metrics),
		ReadTimeout:  15 * time.Second,
		WriteTimeout: cfg.RefreshTimeout + 30*time.Second,
		IdleTimeout:  60 * time.Second,
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	errc := make(chan error, 1)
	go func() {
		slog.Info("pmsstatus server starting",
			"port", cfg.Port,
			"env", cfg.Env,
			"upstream", cfg.PMSBaseURL,
		)
		errc <- server.ListenAndServe()
	}()

	select {
	case err := <-errc:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return fmt.Errorf("server failed: %w", err)
	case <-ctx.Done():
	}

	slog.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	return server.Shutdown(shutdownCtx)
}

func writeSnapshot(svc *status.Service, cfg *config.Config, path, query string) error {
	ctx, cancel := context.WithTimeout(context.Background(), cfg.RefreshTimeout)
	defer cancel()

	var (
		img []byte
		err error
	)
	if query == "" {
		img, err = svc.AllStationsImage(ctx)
	} else {
		img, err = svc.StationsMatchingImage(ctx, query)
	}
	if err != nil {
		return err
	}

	if err := os.WriteFile(path, img, 0o644); err != nil {
		return fmt.Errorf("writing snapshot: %w", err)
	}
	slog.Info("snapshot written", "path", path, "bytes", len(img))
	return nil
}
