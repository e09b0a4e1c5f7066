package main

import (
	"strings"

	"github.com/goliatone/go-errors"
	"github.com/goliatone/go-logger/glog"
	"github.com/goliatone/go-reviews/config"
)

// newLogger builds the root logger. Components get named children
// through GetLogger.
func newLogger(cfg config.Logging) *glog.BaseLogger {
	level := glog.Info
	switch strings.ToLower(strings.TrimSpace(cfg.Level)) {
	case "trace":
		level = glog.Trace
	case "debug":
		level = glog.Debug
	case "warn", "warning":
		level = glog.Warn
	case "error":
		level = glog.Error
	}

	if strings.EqualFold(cfg.Format, "json") {
		return glog.NewLogger(
			glog.WithLevel(level),
			glog.WithName("app"),
			glog.WithAddSource(false),
			glog.WithRichErrorHandler(errors.ToSlogAttributes),
		)
	}

	return glog.NewLogger(
		glog.WithLoggerTypePretty(),
		glog.WithLevel(level),
		glog.WithName("app"),
		glog.WithAddSource(false),
		glog.WithRichErrorHandler(errors.ToSlogAttributes),
	)
}
