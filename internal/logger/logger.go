package logger

import (
	"os"
	"strings"

	log "github.com/sirupsen/logrus"
)

// Setup configures the standard logrus logger. Unknown levels fall back to
// info; format is "text" or "json".
func Setup(level, format string) {
	log.SetOutput(os.Stderr)

	lvl, err := log.ParseLevel(level)
	if err != nil {
		lvl = log.InfoLevel
	}
	log.SetLevel(lvl)

	if strings.EqualFold(format, "json") {
		log.SetFormatter(&log.JSONFormatter{})
		return
	}
	log.SetFormatter(&log.TextFormatter{FullTimestamp: true})
}
