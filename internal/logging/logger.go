package logging

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/sirupsen/logrus"
)

// LogLevel represents the severity of a log message
type LogLevel int

const (
	DEBUG LogLevel = iota
	INFO
	WARN
	ERROR
)

// Config holds logger configuration
type Config struct {
	Level      LogLevel
	OutputFile string    // Path to log file (empty = stderr only)
	JSONFormat bool      // Use JSON format
	AddSource  bool      // Add source file and line number
	Output     io.Writer // Primary writer, defaults to os.Stderr
}

// Logger owns the slog handler and the logrus logger built from one Config
// so both layers of the process share level, format and destination.
type Logger struct {
	slog   *slog.Logger
	logrus *logrus.Logger
	config Config
	file   *os.File
	mu     sync.Mutex
}

var (
	globalLogger *Logger
	once         sync.Once
)

// ParseLevel maps "debug", "info", "warn", "error" to a LogLevel; unknown
// values fall back to INFO.
func ParseLevel(s string) LogLevel {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "debug":
		return DEBUG
	case "warn", "warning":
		return WARN
	case "error":
		return ERROR
	default:
		return INFO
	}
}

// Initialize creates the global logger and installs it as slog.Default.
// Only the first call has an effect.
func Initialize(config Config) (*Logger, error) {
	var initErr error
	once.Do(func() {
		logger, err := NewLogger(config)
		if err != nil {
			initErr = fmt.Errorf("failed to initialize logger: %w", err)
			return
		}
		globalLogger = logger
		slog.SetDefault(logger.slog)
	})
	return globalLogger, initErr
}

// NewLogger creates a new logger instance with the given configuration
func NewLogger(config Config) (*Logger, error) {
	logger := &Logger{config: config}

	out := config.Output
	if out == nil {
		out = os.Stderr
	}
	writers := []io.Writer{out}

	if config.OutputFile != "" {
		if err := os.MkdirAll(filepath.Dir(config.OutputFile), 0755); err != nil {
			return nil, fmt.Errorf("failed to create log directory: %w", err)
		}
		file, err := os.OpenFile(config.OutputFile, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0644)
		if err != nil {
			return nil, fmt.Errorf("failed to open log file %s: %w", config.OutputFile, err)
		}
		logger.file = file
		writers = append(writers, file)
	}
	multiWriter := io.MultiWriter(writers...)

	opts := &slog.HandlerOptions{
		Level:     toSlogLevel(config.Level),
		AddSource: config.AddSource,
	}
	var handler slog.Handler
	if config.JSONFormat {
		handler = slog.NewJSONHandler(multiWriter, opts)
	} else {
		handler = slog.NewTextHandler(multiWriter, opts)
	}
	logger.slog = slog.New(handler)

	lr := logrus.New()
	lr.SetOutput(multiWriter)
	lr.SetLevel(toLogrusLevel(config.Level))
	lr.SetReportCaller(config.AddSource)
	if config.JSONFormat {
		lr.SetFormatter(&logrus.JSONFormatter{})
	} else {
		lr.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})
	}
	logger.logrus = lr

	return logger, nil
}

func toSlogLevel(level LogLevel) slog.Level {
	switch level {
	case DEBUG:
		return slog.LevelDebug
	case WARN:
		return slog.LevelWarn
	case ERROR:
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

func toLogrusLevel(level LogLevel) logrus.Level {
	switch level {
	case DEBUG:
		return logrus.DebugLevel
	case WARN:
		return logrus.WarnLevel
	case ERROR:
		return logrus.ErrorLevel
	default:
		return logrus.InfoLevel
	}
}

// Slog returns the structured logger used by the model layer
func (l *Logger) Slog() *slog.Logger {
	return l.slog
}

// Logrus returns the logger used by orchestration, transport and commands
func (l *Logger) Logrus() *logrus.Logger {
	return l.logrus
}

// Close closes the log file if one is open
func (l *Logger) Close() error {
	l.mu.Lock()
	defer l.mu.Unlock()

	if l.file != nil {
		err := l.file.Close()
		l.file = nil
		return err
	}
	return nil
}

// Discard returns a logrus logger that drops everything, for tests
func Discard() *logrus.Logger {
	lr := logrus.New()
	lr.SetOutput(io.Discard)
	return lr
}
