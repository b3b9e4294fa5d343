package app

import (
	"fmt"
	"io"
	"os"
	"time"

	"github.com/rs/zerolog"

	"github.com/TWRT/board-sync/internal/config"
)

// NewLogger builds the process logger for env: JSON on stdout for dev and
// prod, a console writer with trace level for local runs.
func NewLogger(env string) (zerolog.Logger, error) {
	zerolog.TimestampFieldName = "timestamp"

	w := io.Writer(os.Stdout)
	level := zerolog.InfoLevel
	switch env {
	case config.EnvDev:
		level = zerolog.DebugLevel
	case config.EnvProd:
		level = zerolog.InfoLevel
	case config.EnvLocal:
		level = zerolog.TraceLevel

		consoleWriter := zerolog.NewConsoleWriter()
		consoleWriter.TimeFormat = time.DateTime
		consoleWriter.Out = os.Stderr
		w = consoleWriter
	default:
		return zerolog.Nop(), fmt.Errorf("unknown env: %s", env)
	}

	logger := zerolog.New(w).
		Level(level).
		With().
		Timestamp().
		Int("pid", os.Getpid()).
		Logger()
	return logger, nil
}
