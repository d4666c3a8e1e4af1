// Package logging provides the kernel's structured logger: a logrus
// instance with intelligent stream routing (errors to stderr, everything
// else to stdout), grounded on the teacher's common/logging.go
// OutputSplitter. The kernel service layer logs change-log append failures
// through here (fields entity and id) and cmd/kerneld logs its startup and
// shutdown; other service and adapter calls do not log, and internal/retry
// writes its backoff warnings to the logrus standard logger, not to Logger.
package logging

import (
	"bytes"
	"os"

	"github.com/sirupsen/logrus"
)

// outputSplitter routes formatted log lines to stderr when they carry
// "level=error" and to stdout otherwise, so container log collectors can
// treat the two streams with different urgency.
type outputSplitter struct{}

func (outputSplitter) Write(p []byte) (int, error) {
	if bytes.Contains(p, []byte("level=error")) {
		return os.Stderr.Write(p)
	}
	return os.Stdout.Write(p)
}

// Logger is the package-global structured logger used throughout the
// kernel module.
var Logger = newLogger()

func newLogger() *logrus.Logger {
	l := logrus.New()
	l.SetOutput(outputSplitter{})
	l.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})
	l.SetLevel(logrus.InfoLevel)
	return l
}

// SetLevel parses and applies a level name (e.g. from configuration),
// falling back to Info on an unrecognised value.
func SetLevel(name string) {
	lvl, err := logrus.ParseLevel(name)
	if err != nil {
		lvl = logrus.InfoLevel
	}
	Logger.SetLevel(lvl)
}

// SetJSON switches the formatter to JSON, for log-aggregator consumption.
func SetJSON(enabled bool) {
	if enabled {
		Logger.SetFormatter(&logrus.JSONFormatter{})
		return
	}
	Logger.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})
}

// WithFields is a small convenience wrapper so callers don't need to
// import logrus directly.
func WithFields(fields map[string]any) *logrus.Entry {
	return Logger.WithFields(logrus.Fields(fields))
}
