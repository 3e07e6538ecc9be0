// Package logger holds habitual's process-wide log. Records go to a rotating
// file under <config dir>/logs, and debug runs mirror them to stderr.
// Long-running surfaces log through For so each line names its component.
package logger

import (
	"io"
	"os"
	"path/filepath"
	"time"

	"github.com/charmbracelet/log"
	"gopkg.in/natefinch/lumberjack.v2"

	"github.com/julianstephens/habitual/internal/constants"
)

// Components with their own prefix.
const (
	ComponentServer = "server"
	ComponentSSH    = "ssh"
	ComponentTUI    = "tui"
)

var (
	// Logger is the root logger. It is nil until Init runs, and every helper
	// in this package is a no-op until then.
	Logger *log.Logger
)

type Config struct {
	Debug     bool
	ConfigDir string
}

// Path returns the active log file for a config directory.
func Path(configDir string) string {
	return filepath.Join(configDir, constants.LogDirName, constants.LogFileName)
}

// Init points the root logger at the rotating log file for cfg.ConfigDir.
func Init(cfg Config) error {
	path := Path(cfg.ConfigDir)
	if err := os.MkdirAll(filepath.Dir(path), 0700); err != nil {
		return err
	}

	rotator := &lumberjack.Logger{
		Filename:   path,
		MaxSize:    constants.LogMaxSizeMB,
		MaxBackups: constants.LogMaxBackups,
		MaxAge:     constants.LogMaxAgeDays,
		Compress:   true,
	}

	opts := log.Options{
		ReportTimestamp: true,
		TimeFormat:      time.RFC3339,
		Level:           log.InfoLevel,
		Prefix:          constants.AppName,
	}
	var w io.Writer = rotator
	if cfg.Debug {
		w = io.MultiWriter(os.Stderr, rotator)
		opts.Level = log.DebugLevel
		opts.ReportCaller = true
	}

	Logger = log.NewWithOptions(w, opts)
	return nil
}

// For returns a child of the root logger prefixed "habitual/<component>".
// Before Init it returns a logger that discards everything.
func For(component string) *log.Logger {
	prefix := constants.AppName + "/" + component
	if Logger == nil {
		return log.NewWithOptions(io.Discard, log.Options{Prefix: prefix})
	}
	return Logger.WithPrefix(prefix)
}

func Debug(msg string, keyvals ...interface{}) {
	if Logger != nil {
		Logger.Helper()
		Logger.Debug(msg, keyvals...)
	}
}

func Info(msg string, keyvals ...interface{}) {
	if Logger != nil {
		Logger.Helper()
		Logger.Info(msg, keyvals...)
	}
}

func Warn(msg string, keyvals ...interface{}) {
	if Logger != nil {
		Logger.Helper()
		Logger.Warn(msg, keyvals...)
	}
}

func Error(msg string, keyvals ...interface{}) {
	if Logger != nil {
		Logger.Helper()
		Logger.Error(msg, keyvals...)
	}
}

// Fatal logs msg and exits with status 1 whether or not Init has run.
func Fatal(msg string, keyvals ...interface{}) {
	if Logger != nil {
		Logger.Helper()
		Logger.Fatal(msg, keyvals...)
	}
	os.Exit(1)
}
