package logx

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

// Setup installs the global logger used by every package. Console output is
// human readable with short caller names; otherwise each line is a JSON
// object.
func Setup(level string, console bool) error {
	logger, err := NewLogger(os.Stderr, level, console)
	if err != nil {
		return err
	}
	if console {
		zerolog.CallerMarshalFunc = shortCaller
	}
	log.Logger = logger
	return nil
}

func shortCaller(_ uintptr, file string, line int) string {
	return fmt.Sprintf("%-24s", fmt.Sprintf("%s:%d", filepath.Base(file), line))
}

// NewLogger returns a logger writing to out at the given level. It leaves
// zerolog's package settings alone.
func NewLogger(out io.Writer, level string, console bool) (zerolog.Logger, error) {
	lvl := zerolog.InfoLevel
	if level != "" {
		parsed, err := zerolog.ParseLevel(strings.ToLower(level))
		if err != nil {
			return zerolog.Nop(), fmt.Errorf("failed to parse log level %q: %w", level, err)
		}
		lvl = parsed
	}

	if console {
		out = zerolog.ConsoleWriter{
			Out:        out,
			TimeFormat: time.RFC3339,
		}
	}
	return zerolog.New(out).Level(lvl).With().Timestamp().Caller().Logger(), nil
}
