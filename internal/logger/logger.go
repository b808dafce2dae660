// Package logger provides process-wide leveled logging backed by zap.
//
// The package-level functions take printf-style arguments so call sites stay
// short:
//
//	logger.Info("Configured %d file share paths", n)
//
// Until Init is called a console logger at INFO level writing to stderr is used.
package logger

import (
	"fmt"
	"strings"
	"sync"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Config controls logger construction.
type Config struct {
	// Level is the minimum level: DEBUG, INFO, WARN or ERROR (case-insensitive)
	Level string

	// Format is "text" (console encoder) or "json"
	Format string

	// Output is "stdout", "stderr" or a file path
	Output string
}

var (
	mu     sync.RWMutex
	level  = zap.NewAtomicLevelAt(zapcore.InfoLevel)
	sugar  *zap.SugaredLogger
	closer func() error
)

func init() {
	l, err := build(Config{Format: "text", Output: "stderr"})
	if err != nil {
		l = zap.NewNop()
	}
	sugar = l.Sugar()
}

// Init replaces the global logger according to cfg.
//
// Safe to call more than once; the previous logger is synced before it is
// replaced.
func Init(cfg Config) error {
	if cfg.Level != "" {
		SetLevel(cfg.Level)
	}

	l, err := build(cfg)
	if err != nil {
		return fmt.Errorf("failed to build logger: %w", err)
	}

	mu.Lock()
	prev := sugar
	sugar = l.Sugar()
	closer = l.Sync
	mu.Unlock()

	_ = prev.Sync()
	return nil
}

func build(cfg Config) (*zap.Logger, error) {
	var zc zap.Config
	if strings.EqualFold(cfg.Format, "json") {
		zc = zap.NewProductionConfig()
		zc.EncoderConfig.TimeKey = "time"
		zc.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder
	} else {
		zc = zap.NewDevelopmentConfig()
		zc.EncoderConfig.EncodeTime = zapcore.TimeEncoderOfLayout("2006-01-02 15:04:05")
		zc.EncoderConfig.EncodeLevel = zapcore.CapitalLevelEncoder
		zc.DisableStacktrace = true
	}
	zc.Level = level
	zc.Sampling = nil

	output := cfg.Output
	if output == "" {
		output = "stderr"
	}
	zc.OutputPaths = []string{output}
	zc.ErrorOutputPaths = []string{"stderr"}

	return zc.Build(zap.AddCallerSkip(2))
}

// SetLevel changes the minimum level at runtime. Unknown levels are ignored.
func SetLevel(lvl string) {
	switch strings.ToUpper(lvl) {
	case "DEBUG":
		level.SetLevel(zapcore.DebugLevel)
	case "INFO":
		level.SetLevel(zapcore.InfoLevel)
	case "WARN":
		level.SetLevel(zapcore.WarnLevel)
	case "ERROR":
		level.SetLevel(zapcore.ErrorLevel)
	}
}

// Enabled reports whether messages at lvl would be written.
func Enabled(lvl string) bool {
	var zl zapcore.Level
	if err := zl.UnmarshalText([]byte(strings.ToLower(lvl))); err != nil {
		return false
	}
	return level.Enabled(zl)
}

// Sync flushes buffered log entries.
func Sync() error {
	mu.RLock()
	defer mu.RUnlock()
	if closer == nil {
		return nil
	}
	return closer()
}

func current() *zap.SugaredLogger {
	mu.RLock()
	defer mu.RUnlock()
	return sugar
}

func log(lvl zapcore.Level, format string, v ...any) {
	if !level.Enabled(lvl) {
		return
	}
	s := current()
	switch lvl {
	case zapcore.DebugLevel:
		s.Debugf(format, v...)
	case zapcore.InfoLevel:
		s.Infof(format, v...)
	case zapcore.WarnLevel:
		s.Warnf(format, v...)
	default:
		s.Errorf(format, v...)
	}
}

func Debug(format string, v ...any) {
	log(zapcore.DebugLevel, format, v...)
}

func Info(format string, v ...any) {
	log(zapcore.InfoLevel, format, v...)
}

func Warn(format string, v ...any) {
	log(zapcore.WarnLevel, format, v...)
}

func Error(format string, v ...any) {
	log(zapcore.ErrorLevel, format, v...)
}
