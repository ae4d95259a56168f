// Package logging sets up the structured logger. Records are written as JSON
// to a size-rotated file so that they never interleave with command output.
package logging

import (
	"io"
	"log/slog"
	"os"
	"path/filepath"

	"gopkg.in/natefinch/lumberjack.v2"

	"github.com/ayoisaiah/steadfast/internal/osutil"
)

// Config captures options for configuring the logger.
type Config struct {
	// Output overrides the rotated log file.
	Output     io.Writer
	Path       string
	Level      slog.Level
	MaxSizeMB  int
	MaxBackups int
	MaxAgeDays int
}

// New returns a JSON logger and the closer for its output. Callers close the
// returned closer on exit.
func New(cfg Config) (*slog.Logger, io.Closer, error) {
	w := cfg.Output

	var closer io.Closer = nopCloser{}

	if w == nil {
		err := os.MkdirAll(filepath.Dir(cfg.Path), osutil.DirPermission)
		if err != nil {
			return nil, nil, err
		}

		lj := &lumberjack.Logger{
			Filename:   cfg.Path,
			MaxSize:    cfg.MaxSizeMB,
			MaxBackups: cfg.MaxBackups,
			MaxAge:     cfg.MaxAgeDays,
			LocalTime:  true,
		}

		w, closer = lj, lj
	}

	handler := slog.NewJSONHandler(w, &slog.HandlerOptions{
		Level: cfg.Level,
	})

	return slog.New(handler), closer, nil
}

// WithComponent returns a child logger annotated with the component name.
func WithComponent(l *slog.Logger, component string) *slog.Logger {
	return l.With(slog.String("component", component))
}

type nopCloser struct{}

func (nopCloser) Close() error { return nil }
