// Package logging configures the process-wide logrus logger.
package logging

import (
	"io"
	"strings"

	log "github.com/sirupsen/logrus"
)

// ParseLevel maps a config level name onto a logrus level. Unknown names
// fall back to info.
func ParseLevel(level string) log.Level {
	switch strings.ToLower(strings.TrimSpace(level)) {
	case "debug", "verbose":
		return log.DebugLevel
	case "warn", "warning":
		return log.WarnLevel
	case "error":
		return log.ErrorLevel
	case "quiet", "silent":
		return log.FatalLevel
	default:
		return log.InfoLevel
	}
}

// SetLogLevel applies level to the standard logger.
func SetLogLevel(level string) {
	log.SetLevel(ParseLevel(level))
}

// Setup points the standard logger at out with the given level and format
// ("json" or "text").
func Setup(out io.Writer, level, format string) {
	log.SetOutput(out)
	SetLogLevel(level)

	if strings.EqualFold(strings.TrimSpace(format), "json") {
		log.SetFormatter(&log.JSONFormatter{})
		return
	}
	log.SetFormatter(&log.TextFormatter{FullTimestamp: true})
}
