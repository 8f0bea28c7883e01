package util

import (
	"fmt"
	"io"
	"os"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/log"
	"github.com/muesli/termenv"
)

// Logger is shared by the resolvers, the downloader and the orchestrator.
// It stays nil until InitLogger runs, and every helper below is a no-op
// until then, so library code can log from tests without setup.
var Logger *log.Logger

var prefixStyle = lipgloss.NewStyle().
	Foreground(lipgloss.Color("#FFFFFF")).
	Background(lipgloss.Color("#2563EB")).
	Bold(true).
	Padding(0, 1).
	MarginRight(1)

// InitLogger sends batch logs to stderr so stdout stays free for prompts
func InitLogger() {
	InitLoggerTo(os.Stderr)
}

// InitLoggerTo points the logger at w. Debug mode adds caller locations
// and enables the per-request resty and handshake messages.
func InitLoggerTo(w io.Writer) {
	Logger = log.NewWithOptions(w, log.Options{
		ReportCaller:    IsDebug,
		ReportTimestamp: true,
		TimeFormat:      "15:04:05",
		Prefix:          prefixStyle.Render("Sdarot"),
	})
	Logger.SetColorProfile(termenv.TrueColor)

	level := log.InfoLevel
	if IsDebug {
		level = log.DebugLevel
	}
	Logger.SetLevel(level)
	Logger.Debug("Debug logging enabled")
}

// With returns a logger tagged with batch, series or episode fields.
// Before InitLogger it discards everything.
func With(keyvals ...interface{}) *log.Logger {
	if Logger == nil {
		return log.New(io.Discard)
	}
	return Logger.With(keyvals...)
}

func logAt(level log.Level, msg interface{}, keyvals ...interface{}) {
	if Logger == nil {
		return
	}
	Logger.Log(level, fmt.Sprint(msg), keyvals...)
}

// Debug is shown only with --debug
func Debug(msg interface{}, keyvals ...interface{}) { logAt(log.DebugLevel, msg, keyvals...) }

func Info(msg interface{}, keyvals ...interface{}) { logAt(log.InfoLevel, msg, keyvals...) }

func Warn(msg interface{}, keyvals ...interface{}) { logAt(log.WarnLevel, msg, keyvals...) }

func Error(msg interface{}, keyvals ...interface{}) { logAt(log.ErrorLevel, msg, keyvals...) }

func Debugf(format string, args ...interface{}) { logAt(log.DebugLevel, fmt.Sprintf(format, args...)) }

func Infof(format string, args ...interface{}) { logAt(log.InfoLevel, fmt.Sprintf(format, args...)) }

func Warnf(format string, args ...interface{}) { logAt(log.WarnLevel, fmt.Sprintf(format, args...)) }

func Errorf(format string, args ...interface{}) { logAt(log.ErrorLevel, fmt.Sprintf(format, args...)) }

// RestyLogger routes resty's retry and transport warnings into the batch log
type RestyLogger struct{}

func (RestyLogger) Errorf(format string, v ...interface{}) { Errorf(format, v...) }
func (RestyLogger) Warnf(format string, v ...interface{})  { Warnf(format, v...) }
func (RestyLogger) Debugf(format string, v ...interface{}) { Debugf(format, v...) }
