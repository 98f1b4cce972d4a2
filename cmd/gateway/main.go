package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/nats-io/nats.go/jetstream"
	"github.com/prometheus/client_golang/prometheus"
	"golang.org/x/sync/errgroup"

	"github.com/lidofinance/lightclient-gateway/internal/app/feeder"
	"github.com/lidofinance/lightclient-gateway/internal/app/server"
	"github.com/lidofinance/lightclient-gateway/internal/connectors/logger"
	"github.com/lidofinance/lightclient-gateway/internal/connectors/metrics"
	nc "github.com/lidofinance/lightclient-gateway/internal/connectors/nats"
	"github.com/lidofinance/lightclient-gateway/internal/env"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM, syscall.SIGINT)
	defer stop()
	g, gCtx := errgroup.WithContext(ctx)

	cfg, envErr := env.Read("")
	if envErr != nil {
		fmt.Println("Read env error:", envErr.Error())
		return
	}

	log, sentryClient, logErr := logger.New(&cfg.AppConfig)
	if logErr != nil {
		fmt.Println("Logger error:", logErr.Error())
		return
	}
	if sentryClient != nil {
		defer sentryClient.Flush(2 * time.Second)
	}

	r := chi.NewRouter()
	metricsStore := metrics.New(prometheus.NewRegistry(), cfg.AppConfig.MetricsPrefix, cfg.AppConfig.Name, cfg.AppConfig.Env)

	services, servicesErr := server.NewServices(&cfg.AppConfig, log, metricsStore)
	if servicesErr != nil {
		log.Error(fmt.Sprintf(`Could not create services: %v`, servicesErr))
		return
	}
	defer func() {
		if closeErr := services.Manager.Close(); closeErr != nil {
			log.Error(fmt.Sprintf(`Could not close light client: %v`, closeErr))
		}
	}()

	app := server.New(&cfg.AppConfig, log, metricsStore, services)

	app.Metrics.BuildInfo.Inc()
	app.RegisterRoutes(r)
	app.RunHTTPServer(gCtx, g, cfg.AppConfig.Port, r)

	if cfg.AppConfig.FeedEnabled() {
		natsClient, natsErr := nc.New(&cfg.AppConfig, log)
		if natsErr != nil {
			log.Error(fmt.Sprintf(`Could not connect to nats error: %v`, natsErr))
			return
		}
		defer natsClient.Close()
		log.Info("Nats connected")

		js, jetStreamErr := jetstream.New(natsClient)
		if jetStreamErr != nil {
			log.Error(fmt.Sprintf(`Could not connect to jetStream error: %v`, jetStreamErr))
			return
		}

		subject := nc.BlockSubject(cfg.AppConfig.NatsStreamName, cfg.AppConfig.Network)
		if streamErr := nc.EnsureStream(ctx, js, cfg.AppConfig.NatsStreamName, subject); streamErr != nil {
			log.Error(streamErr.Error())
			return
		}
		log.Info("Nats jetStream connected", slog.String("subject", subject))

		feeder.New(log, services.Manager, js, metricsStore, subject, cfg.AppConfig.FeedInterval).Run(gCtx, g)
	}

	if cfg.AppConfig.AutoStart {
		g.Go(func() error {
			if initErr := services.Manager.Initialize(gCtx); initErr != nil {
				log.Error(fmt.Sprintf(`Auto start failed: %v`, initErr))
			}
			return nil
		})
	}

	log.Info(fmt.Sprintf(`Started %s on port %d`, cfg.AppConfig.Name, cfg.AppConfig.Port))

	if err := g.Wait(); err != nil {
		log.Error(err.Error())
	}

	fmt.Println(`Main done`)
}
