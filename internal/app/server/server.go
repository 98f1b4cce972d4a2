package server

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"net/http/pprof"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/lidofinance/lightclient-gateway/internal/connectors/metrics"
	"github.com/lidofinance/lightclient-gateway/internal/env"
	"github.com/lidofinance/lightclient-gateway/internal/http/handlers/block"
	"github.com/lidofinance/lightclient-gateway/internal/http/handlers/health"
	"github.com/lidofinance/lightclient-gateway/internal/http/handlers/rpc"
	"github.com/lidofinance/lightclient-gateway/internal/http/handlers/start"
)

const (
	defaultReadTimeout     = 10 * time.Second
	defaultWriteTimeout    = 30 * time.Second
	defaultIdleTimeout     = 60 * time.Second
	defaultShutdownTimeout = 10 * time.Second
)

type App struct {
	env      *env.AppConfig
	Logger   *slog.Logger
	Metrics  *metrics.Store
	Services *Services
}

func New(config *env.AppConfig, logger *slog.Logger, promStore *metrics.Store, services *Services) *App {
	return &App{
		env:      config,
		Logger:   logger,
		Metrics:  promStore,
		Services: services,
	}
}

func (a *App) RunHTTPServer(ctx context.Context, g *errgroup.Group, appPort uint, router http.Handler) {
	server := &http.Server{
		Addr:           fmt.Sprintf(`:%d`, appPort),
		Handler:        router,
		ReadTimeout:    defaultReadTimeout,
		WriteTimeout:   defaultWriteTimeout,
		IdleTimeout:    defaultIdleTimeout,
		MaxHeaderBytes: http.DefaultMaxHeaderBytes,
	}

	g.Go(func() error {
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})

	g.Go(func() error {
		<-ctx.Done()

		shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), defaultShutdownTimeout)
		defer cancel()
		return server.Shutdown(shutdownCtx)
	})
}

func (a *App) RegisterRoutes(r chi.Router) {
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)

	rpcH := rpc.New(a.Logger, a.Services.Dispatcher)
	r.Post("/", rpcH.Handler)
	r.Post("/rpc", rpcH.Handler)

	r.Post("/start", start.New(a.Services.Manager).Handler)
	r.Get("/block/latest", block.New(a.Services.Dispatcher).Handler)

	r.Get("/health", health.New(a.Services.Manager).Handler)
	r.Get("/metrics", promhttp.HandlerFor(a.Metrics.Prometheus, promhttp.HandlerOpts{}).ServeHTTP)

	r.HandleFunc("/debug/pprof/", pprof.Index)
	r.HandleFunc("/debug/pprof/cmdline", pprof.Cmdline)
	r.HandleFunc("/debug/pprof/profile", pprof.Profile)
	r.HandleFunc("/debug/pprof/symbol", pprof.Symbol)
	r.HandleFunc("/debug/pprof/trace", pprof.Trace)
	r.HandleFunc("/debug/pprof/{action}", pprof.Index)
}
