package observability

import (
	"io"
	"os"
	"time"

	"github.com/rs/zerolog"
)

// NewLogger builds the process logger. In dev it writes colored console lines at
// debug level; elsewhere JSON at info level. Every line carries the service name.
func NewLogger(env, service string) zerolog.Logger {
	return newLogger(os.Stdout, env, service)
}

func newLogger(out io.Writer, env, service string) zerolog.Logger {
	level := zerolog.InfoLevel
	if isDev(env) {
		out = zerolog.ConsoleWriter{Out: out, TimeFormat: time.RFC3339}
		level = zerolog.DebugLevel
	}
	return zerolog.New(out).Level(level).With().Timestamp().Str("service", service).Logger()
}

func isDev(env string) bool {
	switch env {
	case "dev", "development", "local":
		return true
	}
	return false
}
