package logging

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/labstack/gommon/log"
)

// DefaultHeader is the line prefix used by every tablescope logger.
const DefaultHeader = "${time_rfc3339} ${level} ${prefix}"

// ParseLevel maps a level name (debug, info, warn, error, off) to a gommon level.
func ParseLevel(s string) (log.Lvl, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "debug", "trace":
		return log.DEBUG, nil
	case "", "info":
		return log.INFO, nil
	case "warn", "warning":
		return log.WARN, nil
	case "error":
		return log.ERROR, nil
	case "off", "none":
		return log.OFF, nil
	}
	return log.INFO, fmt.Errorf("invalid log level %q (use debug, info, warn, error or off)", s)
}

// New builds a leveled logger writing to w (stderr when nil).
func New(prefix, level string, w io.Writer) (*log.Logger, error) {
	lvl, err := ParseLevel(level)
	if err != nil {
		return nil, err
	}
	if w == nil {
		w = os.Stderr
	}
	l := log.New(prefix)
	l.SetOutput(w)
	l.SetLevel(lvl)
	l.SetHeader(DefaultHeader)
	return l, nil
}

// Discard returns a logger that drops everything, for tests and quiet runs.
func Discard() *log.Logger {
	l := log.New("")
	l.SetOutput(io.Discard)
	l.SetLevel(log.OFF)
	return l
}
