package app

import (
	"fmt"
	"io"

	"cosmossdk.io/log"
	"github.com/rs/zerolog"
)

const (
	LogFormatPlain = "plain"
	LogFormatJSON  = "json"
)

// NewLogger returns a zerolog backed logger writing to w at level, in plain
// or json format.
func NewLogger(w io.Writer, level, format string) (log.Logger, error) {
	lvl, err := zerolog.ParseLevel(level)
	if err != nil {
		return nil, fmt.Errorf("invalid log level %q: %w", level, err)
	}

	opts := []log.Option{log.LevelOption(lvl)}
	switch format {
	case "", LogFormatPlain:
		opts = append(opts, log.ColorOption(false))
	case LogFormatJSON:
		opts = append(opts, log.OutputJSONOption())
	default:
		return nil, fmt.Errorf("invalid log format %q", format)
	}
	return log.NewLogger(w, opts...), nil
}
