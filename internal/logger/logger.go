package logger

import (
	"fmt"
	"io"

	"github.com/sirupsen/logrus"
)

// TimestampFormat is the millisecond RFC 3339 layout used in JSON output.
const TimestampFormat = "2006-01-02T15:04:05.000Z07:00"

// New returns a logger writing to out at the given level.
// format is "json" or "text".
func New(out io.Writer, level, format string) (*logrus.Logger, error) {
	log := logrus.New()
	log.SetOutput(out)

	switch format {
	case "", "json":
		log.SetFormatter(&logrus.JSONFormatter{
			TimestampFormat: TimestampFormat,
		})
	case "text":
		log.SetFormatter(&logrus.TextFormatter{
			FullTimestamp:   true,
			TimestampFormat: TimestampFormat,
		})
	default:
		return nil, fmt.Errorf("unknown log format %q (want json or text)", format)
	}

	lvl := logrus.InfoLevel
	if level != "" {
		parsed, err := logrus.ParseLevel(level)
		if err != nil {
			return nil, fmt.Errorf("invalid log level: %w", err)
		}
		lvl = parsed
	}
	log.SetLevel(lvl)

	return log, nil
}

// Discard returns a logger that drops everything. Used by tests and by
// commands that print their own output.
func Discard() *logrus.Logger {
	log := logrus.New()
	log.SetOutput(io.Discard)
	return log
}
