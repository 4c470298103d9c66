// Package server wires the HTTP surface: routing, middlewares, lifecycle.
package server

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/urbanfabric/building-explorer/internal/config"
	"github.com/urbanfabric/building-explorer/internal/health"
	"github.com/urbanfabric/building-explorer/internal/middleware"
	"github.com/urbanfabric/building-explorer/internal/observability"
)

// Run sets up http and serves until ctx is canceled.
func Run(ctx context.Context, cfg config.Config, logger *slog.Logger, h *Handlers) error {
	r := chi.NewRouter()
	r.Use(middleware.Recover(logger))
	r.Use(middleware.Logging(logger))
	r.Use(middleware.CORS(cfg.CORSOrigins))

	r.Get("/healthz", health.Liveness())
	r.Get("/metrics", promhttp.Handler().ServeHTTP)

	r.Get("/api/buildings", instrument("/api/buildings", h.Buildings))
	r.Get("/api/buildings-with-land-use", instrument("/api/buildings-with-land-use", h.BuildingsWithLandUse))
	r.Post("/api/filter-buildings", instrument("/api/filter-buildings", h.FilterBuildings))
	r.Get("/api/land-use", instrument("/api/land-use", h.LandUseAt))
	r.Post("/api/filters/save", instrument("/api/filters/save", h.SaveFilters))
	r.Get("/api/filters/load", instrument("/api/filters/load", h.LoadFilters))
	r.Delete("/api/filters/delete", instrument("/api/filters/delete", h.DeleteFilters))
	r.Get("/api/filters/list", instrument("/api/filters/list", h.ListFilters))
	r.Post("/api/cache/clear", instrument("/api/cache/clear", h.CacheClear))
	r.Get("/api/cache/status", instrument("/api/cache/status", h.CacheStatus))

	srv := &http.Server{
		Addr:              cfg.Addr,
		Handler:           r,
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       15 * time.Second,
		WriteTimeout:      120 * time.Second,
		IdleTimeout:       60 * time.Second,
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

// wraps a handler to record request metrics per route
func instrument(route string, next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		sw := &statusWriter{ResponseWriter: w, code: http.StatusOK}
		next(sw, r)
		observability.ObserveHTTP(r.Method, route, sw.code, time.Since(start).Seconds())
	}
}

type statusWriter struct {
	http.ResponseWriter
	code int
}

func (w *statusWriter) WriteHeader(code int) {
	w.code = code
	w.ResponseWriter.WriteHeader(code)
}
