package app

import (
	"io"

	"github.com/charmbracelet/log"
)

// newLogger creates a diagnostics logger writing to w. It does not set the
// default logger, so each Run gets an isolated instance. Unknown levels fall
// back to info and unknown formats to text.
func newLogger(levelStr, formatStr string, w io.Writer) *log.Logger {
	level, err := log.ParseLevel(levelStr)
	if err != nil {
		level = log.InfoLevel
	}

	var formatter log.Formatter
	switch formatStr {
	case "json":
		formatter = log.JSONFormatter
	case "logfmt":
		formatter = log.LogfmtFormatter
	default:
		formatter = log.TextFormatter
	}

	return log.NewWithOptions(w, log.Options{
		Level:           level,
		Formatter:       formatter,
		ReportTimestamp: true,
		Prefix:          "lookout",
	})
}
