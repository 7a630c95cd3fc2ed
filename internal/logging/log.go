// Package logging builds the zap loggers used by the page cache service and
// its demo. JSON output is meant for log shippers, console output for a
// person watching a terminal; both use the same field keys.
package logging

import (
	"os"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// NewLogger returns a logger that writes to stdout, dropping entries below level.
func NewLogger(json bool, level zapcore.Level) *zap.Logger {
	return NewLoggerWithOutput(json, level, os.Stdout)
}

func NewLoggerWithOutput(json bool, level zapcore.Level, out zapcore.WriteSyncer) *zap.Logger {
	conf := zap.NewProductionEncoderConfig()
	conf.TimeKey = "time"
	conf.EncodeTime = zapcore.ISO8601TimeEncoder
	conf.EncodeDuration = zapcore.StringDurationEncoder

	var enc zapcore.Encoder
	if json {
		enc = zapcore.NewJSONEncoder(conf)
	} else {
		// Sweeps and cache hits are read live, the date is noise.
		conf.EncodeTime = zapcore.TimeEncoderOfLayout("15:04:05")
		conf.EncodeLevel = zapcore.CapitalColorLevelEncoder
		enc = zapcore.NewConsoleEncoder(conf)
	}

	return zap.New(zapcore.NewCore(enc, out, level))
}
