package logger

import (
	"io"
	"os"
	"time"

	"github.com/rs/zerolog"
)

// Config controls how the service logger is built.
type Config struct {
	Level  string `env:"LOG_LEVEL"  envDefault:"info"`
	Pretty bool   `env:"LOG_PRETTY" envDefault:"false"`
}

// New creates a zerolog logger tagged with the service name.
func New(serviceName string, cfg Config) *zerolog.Logger {
	return NewWithWriter(os.Stdout, serviceName, cfg)
}

// NewWithWriter is New with an explicit output, used by tests.
func NewWithWriter(w io.Writer, serviceName string, cfg Config) *zerolog.Logger {
	level, err := zerolog.ParseLevel(cfg.Level)
	if err != nil || cfg.Level == "" {
		level = zerolog.InfoLevel
	}

	if cfg.Pretty {
		w = zerolog.ConsoleWriter{Out: w, TimeFormat: time.RFC3339}
	}

	logger := zerolog.New(w).
		Level(level).
		With().
		Timestamp().
		Str("service", serviceName).
		Logger()

	return &logger
}

// Nop returns a disabled logger.
func Nop() *zerolog.Logger {
	logger := zerolog.Nop()
	return &logger
}
