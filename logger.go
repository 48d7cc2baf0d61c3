package main

import (
	"fmt"
	"os"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// newLogger builds the console logger. Level is one of none, normal or
// debug. Everything goes to stderr, stdout carries command output only.
func newLogger(level string) (*zap.Logger, error) {
	var lowest zapcore.Level
	switch level {
	case "none":
		return zap.NewNop(), nil
	case "normal", "":
		lowest = zapcore.InfoLevel
	case "debug":
		lowest = zapcore.DebugLevel
	default:
		return nil, fmt.Errorf("unknown logging level %q", level)
	}

	ec := zap.NewDevelopmentEncoderConfig()
	ec.EncodeCaller = nil
	ec.EncodeLevel = zapcore.CapitalLevelEncoder

	core := zapcore.NewCore(zapcore.NewConsoleEncoder(ec), zapcore.Lock(os.Stderr),
		zap.LevelEnablerFunc(func(lvl zapcore.Level) bool {
			return lvl >= lowest
		}))
	return zap.New(core), nil
}
