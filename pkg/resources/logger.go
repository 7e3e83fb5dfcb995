package resources

import (
	"context"
	"fmt"
	"io"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

// SetupLogger installs the global zerolog logger and returns ctx carrying it.
func SetupLogger(ctx context.Context, out io.Writer, cfg *Config) (context.Context, error) {
	level, err := zerolog.ParseLevel(cfg.LogLevel)
	if err != nil {
		return ctx, fmt.Errorf("invalid log level %q: %w", cfg.LogLevel, err)
	}

	if level == zerolog.NoLevel {
		level = zerolog.InfoLevel
	}

	zerolog.SetGlobalLevel(level)
	zerolog.TimeFieldFormat = time.RFC3339Nano

	log.Logger = zerolog.New(out).With().Timestamp().
		Str("service", cfg.Name).
		Str("version", cfg.Version).
		Logger()
	zerolog.DefaultContextLogger = &log.Logger

	return log.Logger.WithContext(ctx), nil
}

// BridgeLogger forwards every log entry to the OpenTelemetry log provider as
// well as to the configured writer.
func BridgeLogger(ctx context.Context, cfg *Config) context.Context {
	log.Logger = log.Logger.Hook(NewZerologHook(cfg.Name, cfg.Version))
	zerolog.DefaultContextLogger = &log.Logger

	return log.Logger.WithContext(ctx)
}
