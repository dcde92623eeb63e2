// Package logger initializes the shared zap logger used across the
// chat-relay service.
package logger

import (
	"os"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Log is the process-wide logger instance. It defaults to a no-op
// logger so packages can log safely before Init runs (tests, mostly).
var Log = zap.NewNop()

// Init builds the production logger and installs it as the package
// global. Debug mode switches to the console encoder with debug-level
// output enabled.
func Init(debug bool) *zap.Logger {
	level := zap.InfoLevel
	encoderCfg := zap.NewProductionEncoderConfig()
	encoder := zapcore.NewJSONEncoder(encoderCfg)

	if debug {
		level = zap.DebugLevel
		encoderCfg = zap.NewDevelopmentEncoderConfig()
		encoder = zapcore.NewConsoleEncoder(encoderCfg)
	}

	core := zapcore.NewCore(encoder, zapcore.AddSync(os.Stdout), level)
	Log = zap.New(core, zap.AddCaller())
	return Log
}

// Sync flushes any buffered log entries. Called on shutdown.
func Sync() {
	_ = Log.Sync()
}
