package config

import (
	"fmt"
	"io"
	"path/filepath"
	"strings"
	"sync"
	"time"

	rotatelogs "github.com/lestrrat-go/file-rotatelogs"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/verox-wallet/verox/internal/fileutil"
)

// LogLevel represents logging verbosity levels.
type LogLevel int

// Log level constants.
const (
	LogLevelOff LogLevel = iota
	LogLevelError
	LogLevelInfo
	LogLevelDebug
)

// ParseLogLevel parses a log level string. Unknown values mean error.
func ParseLogLevel(s string) LogLevel {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "off", "none":
		return LogLevelOff
	case "info":
		return LogLevelInfo
	case "debug":
		return LogLevelDebug
	default:
		return LogLevelError
	}
}

// String returns the string representation of a log level.
func (l LogLevel) String() string {
	switch l {
	case LogLevelOff:
		return "off"
	case LogLevelInfo:
		return "info"
	case LogLevelDebug:
		return "debug"
	default:
		return "error"
	}
}

func (l LogLevel) zapLevel() zapcore.Level {
	switch l {
	case LogLevelDebug:
		return zapcore.DebugLevel
	case LogLevelInfo:
		return zapcore.InfoLevel
	default:
		return zapcore.ErrorLevel
	}
}

// RotationOptions controls log file rotation.
type RotationOptions struct {
	MaxAge       time.Duration
	RotationTime time.Duration
}

// Logger writes structured JSON log lines. Messages are printf-style; never
// pass secrets as arguments.
type Logger struct {
	mu     sync.Mutex
	level  LogLevel
	nop    bool
	atom   zap.AtomicLevel
	sugar  *zap.SugaredLogger
	closer io.Closer
}

// NewLogger creates a logger writing to a daily-rotated file at filePath.
// Level off or an empty path yields a logger that discards everything.
func NewLogger(level LogLevel, filePath string, rot RotationOptions) (*Logger, error) {
	if level == LogLevelOff || filePath == "" {
		return NullLogger(), nil
	}

	filePath = ExpandHome(filePath)
	if err := fileutil.EnsureDir(filepath.Dir(filePath)); err != nil {
		return nil, err
	}
	if rot.MaxAge <= 0 {
		rot.MaxAge = 7 * 24 * time.Hour
	}
	if rot.RotationTime <= 0 {
		rot.RotationTime = 24 * time.Hour
	}

	rotator, err := rotatelogs.New(
		filePath+".%Y%m%d",
		rotatelogs.WithLinkName(filePath),
		rotatelogs.WithMaxAge(rot.MaxAge),
		rotatelogs.WithRotationTime(rot.RotationTime),
	)
	if err != nil {
		return nil, fmt.Errorf("opening log file: %w", err)
	}

	l := newLogger(level, rotator)
	l.closer = rotator
	return l, nil
}

// NewWriterLogger creates a logger writing to w.
func NewWriterLogger(level LogLevel, w io.Writer) *Logger {
	if level == LogLevelOff {
		return NullLogger()
	}
	return newLogger(level, w)
}

func newLogger(level LogLevel, w io.Writer) *Logger {
	encCfg := zapcore.EncoderConfig{
		TimeKey:        "date",
		LevelKey:       "level",
		MessageKey:     "msg",
		LineEnding:     zapcore.DefaultLineEnding,
		EncodeLevel:    zapcore.CapitalLevelEncoder,
		EncodeTime:     zapcore.ISO8601TimeEncoder,
		EncodeDuration: zapcore.StringDurationEncoder,
	}
	atom := zap.NewAtomicLevelAt(level.zapLevel())
	core := zapcore.NewCore(zapcore.NewJSONEncoder(encCfg), zapcore.AddSync(w), atom)
	return &Logger{
		level: level,
		atom:  atom,
		sugar: zap.New(core).Sugar(),
	}
}

// NullLogger returns a logger that discards all output.
func NullLogger() *Logger {
	return &Logger{level: LogLevelOff, nop: true, sugar: zap.NewNop().Sugar()}
}

// Close flushes and closes the log file.
func (l *Logger) Close() error {
	l.mu.Lock()
	defer l.mu.Unlock()

	_ = l.sugar.Sync()
	if l.closer != nil {
		err := l.closer.Close()
		l.closer = nil
		return err
	}
	return nil
}

// SetLevel changes the log level. A logger created at off stays silent.
func (l *Logger) SetLevel(level LogLevel) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.level = level
	if l.nop {
		return
	}
	if level == LogLevelOff {
		l.atom.SetLevel(zapcore.FatalLevel)
		return
	}
	l.atom.SetLevel(level.zapLevel())
}

// Level returns the current log level.
func (l *Logger) Level() LogLevel {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.level
}

// Debug logs a debug message.
func (l *Logger) Debug(format string, args ...any) {
	l.sugar.Debugf(format, args...)
}

// Info logs an informational message.
func (l *Logger) Info(format string, args ...any) {
	l.sugar.Infof(format, args...)
}

// Error logs an error message.
func (l *Logger) Error(format string, args ...any) {
	l.sugar.Errorf(format, args...)
}
