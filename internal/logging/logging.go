// Package logging builds the slog loggers used by the command line tools.
package logging

import (
	"fmt"
	"io"
	"log/slog"
	"strings"

	"github.com/golang-cz/devslog"
)

// Formats accepted by New.
const (
	FormatDev  = "dev"
	FormatText = "text"
	FormatJSON = "json"
)

// New returns a logger writing to w in the given format. verbose lowers the
// level to debug, which also logs every dropped datagram.
func New(w io.Writer, format string, verbose bool) (*slog.Logger, error) {
	opts := &slog.HandlerOptions{Level: slog.LevelInfo}
	if verbose {
		opts.Level = slog.LevelDebug
	}

	var h slog.Handler
	switch strings.ToLower(format) {
	case FormatDev:
		h = devslog.NewHandler(w, &devslog.Options{HandlerOptions: opts})
	case FormatText, "":
		h = slog.NewTextHandler(w, opts)
	case FormatJSON:
		h = slog.NewJSONHandler(w, opts)
	default:
		return nil, fmt.Errorf("unknown log format %q (want %s, %s or %s)", format, FormatDev, FormatText, FormatJSON)
	}

	return slog.New(h), nil
}
