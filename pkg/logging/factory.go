package logging

import (
	"context"
	"io"
	"strings"
	"sync"

	"github.com/sirupsen/logrus"
)

type LoggerFactory interface {
	CreateLogger(ctx context.Context) Logger
}

var (
	loggerFactoryMu sync.RWMutex
	loggerFactory   LoggerFactory
)

func SetLoggerFactory(factory LoggerFactory) {
	loggerFactoryMu.Lock()
	defer loggerFactoryMu.Unlock()

	loggerFactory = factory
}

func GetLoggerFactory() LoggerFactory {
	loggerFactoryMu.RLock()
	defer loggerFactoryMu.RUnlock()

	return loggerFactory
}

// LogrusFactory shares one configured logrus.Logger across every request logger.
type LogrusFactory struct {
	base *logrus.Logger
}

// NewLogrusFactory builds a factory from a level name ("debug", "info", ...) and a format ("text" or "json").
// Unknown levels fall back to info.
func NewLogrusFactory(out io.Writer, level string, format string) *LogrusFactory {
	base := logrus.New()
	if out != nil {
		base.SetOutput(out)
	}

	parsed, err := logrus.ParseLevel(strings.TrimSpace(level))
	if err != nil {
		parsed = logrus.InfoLevel
	}
	base.SetLevel(parsed)

	if strings.EqualFold(strings.TrimSpace(format), "json") {
		base.SetFormatter(&logrus.JSONFormatter{})
	} else {
		base.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})
	}

	return &LogrusFactory{base: base}
}

func (f *LogrusFactory) CreateLogger(ctx context.Context) Logger {
	return newLogrusLogger(ctx, f.base)
}
