// Package logger configures the structured logger shared by EduForge.
// The terminal belongs to the TUI, so logs go to a file (or are discarded)
// instead of stderr once the program starts.
package logger

import (
	"io"
	"os"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/log"
)

// Logger is the process-wide logger.
var Logger *log.Logger

var output io.Writer = io.Discard

func init() {
	Logger = log.New(output)
	Logger.SetLevel(log.InfoLevel)
}

// Configure points the logger at logFile (discarding output when empty) and
// applies the level. EDUFORGE_LOG_LEVEL is consulted when level is empty.
func Configure(level, logFile string) error {
	if level == "" {
		level = strings.ToLower(os.Getenv("EDUFORGE_LOG_LEVEL"))
	}
	var out io.Writer = io.Discard
	if logFile != "" {
		file, err := os.OpenFile(logFile, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o600)
		if err != nil {
			return err
		}
		out = file
	}
	output = out
	Logger = log.NewWithOptions(out, log.Options{
		ReportTimestamp: true,
		TimeFormat:      "2006-01-02 15:04:05",
		Level:           ParseLevel(level),
	})
	return nil
}

// ParseLevel maps a level name to a log.Level, defaulting to info.
func ParseLevel(level string) log.Level {
	switch strings.ToLower(strings.TrimSpace(level)) {
	case "debug":
		return log.DebugLevel
	case "warn", "warning":
		return log.WarnLevel
	case "error":
		return log.ErrorLevel
	case "fatal":
		return log.FatalLevel
	default:
		return log.InfoLevel
	}
}

func Debug(msg interface{}, keyvals ...interface{}) { Logger.Debug(msg, keyvals...) }
func Info(msg interface{}, keyvals ...interface{})  { Logger.Info(msg, keyvals...) }
func Warn(msg interface{}, keyvals ...interface{})  { Logger.Warn(msg, keyvals...) }
func Error(msg interface{}, keyvals ...interface{}) { Logger.Error(msg, keyvals...) }

// NewStyledLogger returns a component logger sharing the configured output
// and level, prefixed with the component name.
func NewStyledLogger(prefix string) *log.Logger {
	styles := log.DefaultStyles()
	styles.Keys["thread"] = lipgloss.NewStyle().Foreground(lipgloss.Color("39"))
	styles.Keys["route"] = lipgloss.NewStyle().Foreground(lipgloss.Color("46"))
	styles.Keys["err"] = lipgloss.NewStyle().Foreground(lipgloss.Color("196"))
	styles.Values["err"] = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("196"))

	component := log.NewWithOptions(output, log.Options{
		Prefix:          prefix,
		ReportTimestamp: true,
		TimeFormat:      "2006-01-02 15:04:05",
	})
	component.SetStyles(styles)
	component.SetLevel(Logger.GetLevel())
	return component
}
