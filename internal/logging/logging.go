// Package logging builds the slog loggers used by the store and the CLI.
package logging

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"
)

// Output formats.
const (
	FormatText = "text"
	FormatJSON = "json"
)

// ErrUnknownFormat is returned for a format other than text or json.
var ErrUnknownFormat = errors.New("unknown log format")

// Config selects the level, format and destination of log output.
type Config struct {
	Level     string `json:"level,omitempty" yaml:"level,omitempty" mapstructure:"level"`
	Format    string `json:"format,omitempty" yaml:"format,omitempty" mapstructure:"format"`
	File      string `json:"file,omitempty" yaml:"file,omitempty" mapstructure:"file"`
	MaxSizeMB int    `json:"max_size_mb,omitempty" yaml:"max_size_mb,omitempty" mapstructure:"max_size_mb"`
	MaxFiles  int    `json:"max_files,omitempty" yaml:"max_files,omitempty" mapstructure:"max_files"`

	// Redact replaces bound statement arguments with a placeholder.
	Redact bool `json:"redact,omitempty" yaml:"redact,omitempty" mapstructure:"redact"`
}

// ParseLevel maps debug, info, warn and error to a slog level. The empty
// string is info.
func ParseLevel(s string) (slog.Level, error) {
	var level slog.Level
	if strings.TrimSpace(s) == "" {
		return slog.LevelInfo, nil
	}
	if err := level.UnmarshalText([]byte(strings.TrimSpace(s))); err != nil {
		return slog.LevelInfo, fmt.Errorf("parse log level %q: %w", s, err)
	}
	return level, nil
}

// New returns a logger for cfg writing to stderr, or to a rotating file when
// cfg.File is set. The returned closer releases the file and is never nil.
func New(cfg Config) (*slog.Logger, io.Closer, error) {
	var (
		w      io.Writer = os.Stderr
		closer io.Closer = nopCloser{}
	)
	if cfg.File != "" {
		rw, err := NewRotatingWriter(RotationConfig{
			File:      cfg.File,
			MaxSizeMB: cfg.MaxSizeMB,
			MaxFiles:  cfg.MaxFiles,
		})
		if err != nil {
			return nil, nil, err
		}
		w, closer = rw, rw
	}

	logger, err := NewWithWriter(cfg, w)
	if err != nil {
		closer.Close()
		return nil, nil, err
	}
	return logger, closer, nil
}

// NewWithWriter returns a logger for cfg writing to w. cfg.File is ignored.
func NewWithWriter(cfg Config, w io.Writer) (*slog.Logger, error) {
	level, err := ParseLevel(cfg.Level)
	if err != nil {
		return nil, err
	}
	opts := &slog.HandlerOptions{Level: level}

	var h slog.Handler
	switch strings.ToLower(cfg.Format) {
	case "", FormatText:
		h = slog.NewTextHandler(w, opts)
	case FormatJSON:
		h = slog.NewJSONHandler(w, opts)
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownFormat, cfg.Format)
	}

	if cfg.Redact {
		h = NewRedactingHandler(h)
	}
	return slog.New(h), nil
}

type nopCloser struct{}

func (nopCloser) Close() error { return nil }
