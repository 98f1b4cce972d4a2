package env

import (
	"errors"
	"fmt"
	"os"
	"sync"
	"time"

	"github.com/spf13/viper"

	"github.com/lidofinance/lightclient-gateway/internal/pkg/chain"
)

type Config struct {
	AppConfig AppConfig
}

type AppConfig struct {
	Name          string
	Env           string
	Port          uint
	LogFormat     string
	LogLevel      string
	SentryDSN     string
	Source        string
	MetricsPrefix string

	Network          string
	ExecutionRPCURL  string
	ConsensusRPCURL  string
	DataDir          string
	StartTimeout     time.Duration
	SyncTimeout      time.Duration
	SyncPollInterval time.Duration
	AutoStart        bool

	NatsURL        string
	NatsStreamName string
	FeedInterval   time.Duration
}

var (
	cfg Config

	onceDefaultClient sync.Once
)

// Read loads configuration from the .env file at configPath (or ./.env) and
// the process environment. The environment takes precedence.
func Read(configPath string) (*Config, error) {
	var err error

	onceDefaultClient.Do(func() {
		var loaded *Config
		loaded, err = load(viper.GetViper(), configPath)
		if err == nil {
			cfg = *loaded
		}
	})

	return &cfg, err
}

func load(v *viper.Viper, configPath string) (*Config, error) {
	v.SetConfigType("env")

	if len(configPath) != 0 {
		v.SetConfigFile(configPath)
	} else {
		v.AddConfigPath(".")
		v.SetConfigFile(".env")
	}

	setDefaults(v)

	v.AutomaticEnv()
	if viperErr := v.ReadInConfig(); viperErr != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(viperErr, &notFound) && !errors.Is(viperErr, os.ErrNotExist) {
			return nil, fmt.Errorf("could not read config: %w", viperErr)
		}
	}

	return &Config{
		AppConfig: AppConfig{
			Name:          v.GetString("APP_NAME"),
			Env:           v.GetString("ENV"),
			Port:          v.GetUint("PORT"),
			LogFormat:     v.GetString("LOG_FORMAT"),
			LogLevel:      v.GetString("LOG_LEVEL"),
			SentryDSN:     v.GetString("SENTRY_DSN"),
			Source:        v.GetString("SOURCE"),
			MetricsPrefix: v.GetString("METRICS_PREFIX"),

			Network:          v.GetString("NETWORK"),
			ExecutionRPCURL:  v.GetString("EXECUTION_RPC_URL"),
			ConsensusRPCURL:  v.GetString("CONSENSUS_RPC_URL"),
			DataDir:          v.GetString("DATA_DIR"),
			StartTimeout:     v.GetDuration("START_TIMEOUT"),
			SyncTimeout:      v.GetDuration("SYNC_TIMEOUT"),
			SyncPollInterval: v.GetDuration("SYNC_POLL_INTERVAL"),
			AutoStart:        v.GetBool("AUTO_START"),

			NatsURL:        v.GetString("NATS_URL"),
			NatsStreamName: v.GetString("NATS_STREAM_NAME"),
			FeedInterval:   v.GetDuration("FEED_INTERVAL"),
		},
	}, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("APP_NAME", "lightclient-gateway")
	v.SetDefault("ENV", "local")
	v.SetDefault("PORT", 8080)
	v.SetDefault("LOG_FORMAT", "text")
	v.SetDefault("LOG_LEVEL", "info")
	v.SetDefault("METRICS_PREFIX", "lightclient_gateway")
	v.SetDefault("NETWORK", string(chain.Mainnet))
	v.SetDefault("START_TIMEOUT", 30*time.Second)
	v.SetDefault("SYNC_TIMEOUT", time.Duration(0))
	v.SetDefault("SYNC_POLL_INTERVAL", chain.DefaultSyncPollPeriod)
	v.SetDefault("AUTO_START", false)
	v.SetDefault("NATS_STREAM_NAME", "BLOCKS")
	v.SetDefault("FEED_INTERVAL", 6*time.Second)
}

// ClientConfig derives the light client configuration.
func (c *AppConfig) ClientConfig() (chain.Config, error) {
	network, err := chain.ParseNetwork(c.Network)
	if err != nil {
		return chain.Config{}, err
	}
	if c.ExecutionRPCURL == "" {
		return chain.Config{}, errors.New("EXECUTION_RPC_URL is required")
	}

	return chain.Config{
		Network:        network,
		ExecutionRPC:   c.ExecutionRPCURL,
		ConsensusRPC:   c.ConsensusRPCURL,
		DataDir:        c.DataDir,
		SyncPollPeriod: c.SyncPollInterval,
	}, nil
}

// FeedEnabled reports whether blocks should be published to NATS.
func (c *AppConfig) FeedEnabled() bool {
	return c.NatsURL != ""
}
