package infra

import (
	"time"

	"github.com/getsentry/sentry-go"
)

// InitSentry configures the global Sentry client when a DSN is present and
// returns a flush function to defer. Without a DSN it is a no-op.
func InitSentry(cfg *Config, logger Logger) func() {
	if cfg == nil || cfg.SentryDSN == "" {
		return func() {}
	}
	if err := sentry.Init(sentry.ClientOptions{
		Dsn:         cfg.SentryDSN,
		Environment: cfg.AppEnv,
	}); err != nil {
		logger.Warn().Err(err).Msg("sentry init failed")
		return func() {}
	}
	logger.Info().Msg("sentry error reporting enabled")
	return func() { sentry.Flush(2 * time.Second) }
}

// ErrorReporter is the subset of *sentry.Hub used to report failures.
type ErrorReporter interface {
	CaptureException(exception error) *sentry.EventID
}
