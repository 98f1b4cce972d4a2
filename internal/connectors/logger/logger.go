package logger

import (
	"io"
	"log/slog"
	"os"
	"strings"

	"github.com/getsentry/sentry-go"
	slogmulti "github.com/samber/slog-multi"
	slogsentry "github.com/samber/slog-sentry/v2"

	"github.com/lidofinance/lightclient-gateway/internal/env"
)

// New builds the process logger. Outside the local environment errors are
// also reported to Sentry; the returned client is nil otherwise.
func New(cfg *env.AppConfig) (*slog.Logger, *sentry.Client, error) {
	slogHandler := newHandler(os.Stdout, cfg.LogFormat, parseLevel(cfg.LogLevel))

	if cfg.Env == `local` || cfg.SentryDSN == "" {
		return slog.New(slogHandler), nil, nil
	}

	hub := sentry.CurrentHub()
	client, sentryErr := sentry.NewClient(sentry.ClientOptions{
		Dsn:           cfg.SentryDSN,
		EnableTracing: false,
		Environment:   cfg.Env,
		ServerName:    cfg.Source,
	})
	if sentryErr != nil {
		return nil, nil, sentryErr
	}

	hub.BindClient(client)
	return slog.New(
		slogmulti.Fanout(
			slogHandler,
			slogsentry.Option{
				Level: slog.LevelError,
				Hub:   hub,
			}.NewSentryHandler(),
		),
	), client, nil
}

func newHandler(w io.Writer, format string, level slog.Level) slog.Handler {
	if strings.EqualFold(format, "json") {
		return slog.NewJSONHandler(w, &slog.HandlerOptions{Level: level})
	}
	return slog.NewTextHandler(w, &slog.HandlerOptions{Level: level})
}

func parseLevel(level string) slog.Level {
	switch strings.ToUpper(level) {
	case "DEBUG":
		return slog.LevelDebug
	case "WARN":
		return slog.LevelWarn
	case "ERROR":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}
