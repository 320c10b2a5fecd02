package logger

import (
	"io"
	"os"
	"sync"
	"time"

	"github.com/rs/zerolog"
)

// Logger represents a structured logger
type Logger struct {
	logger zerolog.Logger
}

// Fields represents log fields
type Fields map[string]interface{}

var (
	// Default is the default logger instance
	Default *Logger

	initOnce sync.Once
)

// Init initializes the default logger writing to stdout
func Init() {
	initOnce.Do(func() {
		Default = New(zerolog.ConsoleWriter{
			Out:        os.Stdout,
			TimeFormat: time.RFC3339,
		}, getLogLevel())

		Default.Info().
			Str("level", Default.logger.GetLevel().String()).
			Msg("Logger initialized")
	})
}

// New creates a logger writing to out at the given level
func New(out io.Writer, level zerolog.Level) *Logger {
	zerolog.TimeFieldFormat = time.RFC3339
	return &Logger{logger: zerolog.New(out).Level(level).With().Timestamp().Logger()}
}

// getLogLevel returns the log level from environment variable
func getLogLevel() zerolog.Level {
	levelStr := os.Getenv("LOG_LEVEL")
	if levelStr == "" {
		if os.Getenv("MONITOR_ENVIRONMENT") == "production" {
			return zerolog.InfoLevel
		}
		return zerolog.DebugLevel
	}

	level, err := zerolog.ParseLevel(levelStr)
	if err != nil {
		return zerolog.InfoLevel
	}
	return level
}

// WithFields creates a new logger with fields
func (l *Logger) WithFields(fields Fields) *Logger {
	newLogger := l.logger.With()
	for k, v := range fields {
		newLogger = newLogger.Interface(k, v)
	}
	return &Logger{logger: newLogger.Logger()}
}

// WithField creates a new logger with a single field
func (l *Logger) WithField(key string, value interface{}) *Logger {
	return &Logger{logger: l.logger.With().Interface(key, value).Logger()}
}

// WithError adds an error to the logger
func (l *Logger) WithError(err error) *Logger {
	return &Logger{logger: l.logger.With().Err(err).Logger()}
}

// Debug returns a debug event
func (l *Logger) Debug() *zerolog.Event {
	return l.logger.Debug()
}

// Info returns an info event
func (l *Logger) Info() *zerolog.Event {
	return l.logger.Info()
}

// Warn returns a warn event
func (l *Logger) Warn() *zerolog.Event {
	return l.logger.Warn()
}

// Error returns an error event
func (l *Logger) Error() *zerolog.Event {
	return l.logger.Error()
}

// Fatal returns a fatal event
func (l *Logger) Fatal() *zerolog.Event {
	return l.logger.Fatal()
}

// LogError implements helpers.LoggerInterface
func (l *Logger) LogError(component string, err error) {
	l.logger.Error().Str("component", component).Err(err).Send()
}

// LogInfo implements helpers.LoggerInterface
func (l *Logger) LogInfo(format string, args ...interface{}) {
	l.logger.Info().Msgf(format, args...)
}

// Global functions for printf-style call sites

// Info logs an info message
func Info(format string, v ...interface{}) {
	Init()
	Default.Info().Msgf(format, v...)
}

// ForCrawler creates a logger for the page crawler
func ForCrawler(source string) *Logger {
	Init()
	return Default.WithFields(Fields{"component": "crawler", "source": source})
}

// ForMonitor creates a logger for the staleness-gated product cache
func ForMonitor() *Logger {
	Init()
	return Default.WithField("component", "monitor")
}

// ForServer creates a logger for the HTTP server
func ForServer() *Logger {
	Init()
	return Default.WithField("component", "server")
}

// ForWorker creates a logger for the refresh worker
func ForWorker() *Logger {
	Init()
	return Default.WithField("component", "worker")
}

// ForPublisher creates a logger for the publisher
func ForPublisher() *Logger {
	Init()
	return Default.WithField("component", "publisher")
}

