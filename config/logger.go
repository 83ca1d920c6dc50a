package config

import (
	"errors"
	"fmt"
	"io"
	"path/filepath"
	"strings"
	"time"

	rotatelogs "github.com/lestrrat-go/file-rotatelogs"
	"github.com/rs/zerolog"
)

const (
	FormatConsole = "console"
	FormatJSON    = "json"
)

var errNoPattern = errors.New("no log file pattern")

// Validate checks the level and format and the file settings if a path is set.
func (lc *LogConfig) Validate() error {
	if _, err := zerolog.ParseLevel(strings.ToLower(lc.Level)); err != nil {
		return fmt.Errorf("level %q: %w", lc.Level, err)
	}
	switch strings.ToLower(lc.Format) {
	case FormatConsole, FormatJSON:
	default:
		return fmt.Errorf("unknown format %q", lc.Format)
	}
	if lc.Path == "" {
		return nil
	}
	if strings.TrimSpace(lc.Pattern) == "" {
		return errNoPattern
	}
	if lc.RotationTime <= 0 || lc.MaxAge <= 0 {
		return fmt.Errorf("rotation time %s and max age %s must be positive", lc.RotationTime, lc.MaxAge)
	}
	return nil
}

type nopCloser struct{}

func (nopCloser) Close() error { return nil }

// Logger builds a logger writing to out in the configured format.
// When a path is configured JSON lines are also written to rotated files there.
// The returned closer releases the log file and must be called when done.
func (lc *LogConfig) Logger(out io.Writer) (zerolog.Logger, io.Closer, error) {
	if err := lc.Validate(); err != nil {
		return zerolog.Nop(), nopCloser{}, err
	}

	level, _ := zerolog.ParseLevel(strings.ToLower(lc.Level))

	var writer io.Writer = out
	if strings.ToLower(lc.Format) == FormatConsole {
		writer = zerolog.ConsoleWriter{Out: out, TimeFormat: time.RFC3339}
	}

	var closer io.Closer = nopCloser{}
	if lc.Path != "" {
		files, err := rotatelogs.New(
			filepath.Join(lc.Path, lc.Pattern),
			rotatelogs.WithRotationTime(lc.RotationTime),
			rotatelogs.WithMaxAge(lc.MaxAge),
		)
		if err != nil {
			return zerolog.Nop(), nopCloser{}, fmt.Errorf("configure log files: %w", err)
		}
		writer = zerolog.MultiLevelWriter(writer, files)
		closer = files
	}

	logger := zerolog.New(writer).Level(level).With().Timestamp().Logger()
	return logger, closer, nil
}
