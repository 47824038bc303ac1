package logger

import (
	"os"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"teleclinic/consult-api/internal/config"
)

var (
	globalLogger zerolog.Logger
	once         sync.Once
)

// GetLogger returns the global logger instance.
func GetLogger() zerolog.Logger {
	once.Do(func() {
		consoleWriter := zerolog.ConsoleWriter{
			Out:        os.Stdout,
			TimeFormat: time.RFC3339,
		}
		globalLogger = zerolog.New(consoleWriter).With().Timestamp().Logger().Level(zerolog.InfoLevel)
		zerolog.SetGlobalLevel(zerolog.InfoLevel)
	})
	return globalLogger
}

// New constructs a zerolog logger from the service configuration.
// Unknown levels and formats fall back to info/console rather than failing
// startup.
func New(cfg *config.Config) zerolog.Logger {
	lvl, err := zerolog.ParseLevel(strings.ToLower(cfg.LogLevel))
	if err != nil {
		lvl = zerolog.InfoLevel
	}

	var log zerolog.Logger
	switch strings.ToLower(cfg.LogFormat) {
	case "json":
		log = zerolog.New(os.Stdout).With().Timestamp().Logger()
	default:
		consoleWriter := zerolog.ConsoleWriter{
			Out:        os.Stdout,
			TimeFormat: time.RFC3339,
		}
		log = zerolog.New(consoleWriter).With().Timestamp().Logger()
	}

	log = log.Level(lvl).With().Str("service", cfg.ServiceName).Logger()
	zerolog.SetGlobalLevel(lvl)

	globalLogger = log

	return log
}
