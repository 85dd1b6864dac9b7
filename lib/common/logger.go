package common

import (
	"fmt"
	"io"
	"os"
	"strings"
	"sync"
	"time"

	"github.com/lni/dragonboat/v4/logger"
)

// --------------------------------------------------------------------------
// Package logger (implements dragonboats logger.ILogger)
// --------------------------------------------------------------------------

// levelLabels are the fixed width labels written in front of each line
var levelLabels = map[logger.LogLevel]string{
	logger.CRITICAL: "CRIT",
	logger.ERROR:    "ERROR",
	logger.WARNING:  "WARN",
	logger.INFO:     "INFO",
	logger.DEBUG:    "DEBUG",
}

var (
	// logOutput receives every log line. Command results go to stdout, so logs use stderr.
	logOutput io.Writer = os.Stderr
	// logClock stamps log lines
	logClock = time.Now

	// writeMu keeps lines of concurrent loggers from interleaving
	writeMu sync.Mutex
)

// pkgLogger writes "time LEVEL | package | message" lines for one package
type pkgLogger struct {
	pkg string

	mu    sync.RWMutex
	level logger.LogLevel
}

func (l *pkgLogger) SetLevel(level logger.LogLevel) {
	l.mu.Lock()
	l.level = level
	l.mu.Unlock()
}

func (l *pkgLogger) enabled(level logger.LogLevel) bool {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.level >= level
}

func (l *pkgLogger) Debugf(format string, args ...interface{})   { l.emit(logger.DEBUG, format, args) }
func (l *pkgLogger) Infof(format string, args ...interface{})    { l.emit(logger.INFO, format, args) }
func (l *pkgLogger) Warningf(format string, args ...interface{}) { l.emit(logger.WARNING, format, args) }
func (l *pkgLogger) Errorf(format string, args ...interface{})   { l.emit(logger.ERROR, format, args) }

// Panicf always panics, the message is logged first if CRITICAL is enabled
func (l *pkgLogger) Panicf(format string, args ...interface{}) {
	l.emit(logger.CRITICAL, format, args)
	panic(fmt.Sprintf(format, args...))
}

func (l *pkgLogger) emit(level logger.LogLevel, format string, args []interface{}) {
	if !l.enabled(level) {
		return
	}
	line := fmt.Sprintf("%s %-5s | %-8s | %s\n",
		logClock().Format("2006/01/02 15:04:05"), levelLabels[level], l.pkg, fmt.Sprintf(format, args...))

	writeMu.Lock()
	defer writeMu.Unlock()
	_, _ = io.WriteString(logOutput, line)
}

// CreateLogger implements dragonboats logger.Factory. New loggers start at WARNING.
func CreateLogger(pkgName string) logger.ILogger {
	return &pkgLogger{pkg: pkgName, level: logger.WARNING}
}

// --------------------------------------------------------------------------
// Levels and initialization
// --------------------------------------------------------------------------

// LogLevels are the accepted values for the log-level setting
var LogLevels = []string{"debug", "info", "warn", "error"}

// ParseLogLevel converts a log-level setting to a logger.LogLevel
func ParseLogLevel(level string) (logger.LogLevel, error) {
	switch strings.ToLower(strings.TrimSpace(level)) {
	case "debug":
		return logger.DEBUG, nil
	case "info":
		return logger.INFO, nil
	case "warning", "warn":
		return logger.WARNING, nil
	case "error":
		return logger.ERROR, nil
	}
	return 0, fmt.Errorf("invalid log level: %s. must be one of %s", level, strings.Join(LogLevels, ", "))
}

// loggerNames lists every package logger of the module
var loggerNames = []string{"session", "catalog", "cart", "fstore", "market", "cmd"}

// InitLoggers installs CreateLogger as dragonboats factory and applies level to all package loggers.
// Package level logger vars obtained earlier are switched over by dragonboat.
func InitLoggers(level string) error {
	lvl, err := ParseLogLevel(level)
	if err != nil {
		return err
	}

	logger.SetLoggerFactory(CreateLogger)
	for _, name := range loggerNames {
		logger.GetLogger(name).SetLevel(lvl)
	}
	return nil
}
