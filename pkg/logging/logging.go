// Package logging builds the process logger. Ecto log messages are routed
// through a zap core so output is structured JSON in production, or
// human-readable console output when pretty logging is enabled.
package logging

import (
	"encoding/json"
	"strings"

	"github.com/Gobusters/ectologger"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// New returns the configured logger and a flush function for shutdown.
func New(level string, pretty bool) (ectologger.Logger, func()) {
	cfg := zap.NewProductionConfig()
	if pretty {
		cfg = zap.NewDevelopmentConfig()
	}
	cfg.Level = zap.NewAtomicLevelAt(parseLevel(level))
	cfg.DisableStacktrace = true

	zlog, err := cfg.Build(zap.WithCaller(false))
	if err != nil {
		zlog = zap.NewNop()
	}

	logger := ectologger.NewEctoLogger(func(msg ectologger.EctoLogMessage) {
		entry := map[string]any{}
		if b, merr := json.Marshal(msg); merr == nil {
			_ = json.Unmarshal(b, &entry)
		}
		text := takeString(entry, "message", "Message", "msg")
		lvl := takeString(entry, "level", "Level")

		fields := make([]zap.Field, 0, len(entry))
		for k, v := range entry {
			if v == nil {
				continue
			}
			fields = append(fields, zap.Any(k, v))
		}
		zlog.Log(parseLevel(lvl), text, fields...)
	})

	return logger, func() { _ = zlog.Sync() }
}

func takeString(entry map[string]any, keys ...string) string {
	for _, k := range keys {
		if v, ok := entry[k].(string); ok {
			delete(entry, k)
			return v
		}
	}
	return ""
}

func parseLevel(level string) zapcore.Level {
	switch strings.ToLower(strings.TrimSpace(level)) {
	case "debug":
		return zapcore.DebugLevel
	case "warn", "warning":
		return zapcore.WarnLevel
	case "error":
		return zapcore.ErrorLevel
	default:
		return zapcore.InfoLevel
	}
}
