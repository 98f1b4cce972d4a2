package server

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/lidofinance/lightclient-gateway/internal/connectors/metrics"
	"github.com/lidofinance/lightclient-gateway/internal/env"
	"github.com/lidofinance/lightclient-gateway/internal/pkg/chain"
	"github.com/lidofinance/lightclient-gateway/internal/pkg/jsonrpc"
	"github.com/lidofinance/lightclient-gateway/internal/pkg/lifecycle"
)

type Services struct {
	Manager    *lifecycle.Manager
	Dispatcher *jsonrpc.Dispatcher
}

func NewServices(cfg *env.AppConfig, log *slog.Logger, metricsStore *metrics.Store) (*Services, error) {
	clientCfg, err := cfg.ClientConfig()
	if err != nil {
		return nil, err
	}

	transport := &http.Transport{
		MaxIdleConns:          30,
		MaxIdleConnsPerHost:   5,
		IdleConnTimeout:       90 * time.Second,
		TLSHandshakeTimeout:   10 * time.Second,
		ExpectContinueTimeout: 1 * time.Second,
	}

	httpClient := &http.Client{
		Transport: transport,
		Timeout:   10 * time.Second,
	}

	return newServices(log, metricsStore, chain.NewBuilder(httpClient, metricsStore, log), clientCfg, lifecycle.Options{
		StartTimeout: cfg.StartTimeout,
		SyncTimeout:  cfg.SyncTimeout,
	}), nil
}

func newServices(log *slog.Logger, metricsStore *metrics.Store, build chain.Builder, clientCfg chain.Config, opts lifecycle.Options) *Services {
	manager := lifecycle.New(log, metricsStore, build, clientCfg, opts)

	return &Services{
		Manager:    manager,
		Dispatcher: jsonrpc.NewDispatcher(log, metricsStore, manager),
	}
}
