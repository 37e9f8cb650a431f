package config

import (
	"io"
	"strings"

	"github.com/cockroachdb/errors"
	"github.com/go-kit/log"
	"github.com/go-kit/log/level"
)

func parseLevel(s string) (level.Option, error) {
	switch strings.ToLower(s) {
	case "debug":
		return level.AllowDebug(), nil
	case "info":
		return level.AllowInfo(), nil
	case "warn":
		return level.AllowWarn(), nil
	case "error":
		return level.AllowError(), nil
	}
	return nil, errors.Newf("log.level must be debug, info, warn or error, got %q", s)
}

// NewLogger returns a logger writing to w in the configured format, dropping
// records below the configured level.
func NewLogger(w io.Writer, cfg LogConfig) (log.Logger, error) {
	allow, err := parseLevel(cfg.Level)
	if err != nil {
		return nil, err
	}
	var logger log.Logger
	switch cfg.Format {
	case "json":
		logger = log.NewJSONLogger(log.NewSyncWriter(w))
	case "logfmt", "":
		logger = log.NewLogfmtLogger(log.NewSyncWriter(w))
	default:
		return nil, errors.Newf("unknown log format %q", cfg.Format)
	}
	logger = log.With(logger, "ts", log.DefaultTimestampUTC)
	return level.NewFilter(logger, allow), nil
}
