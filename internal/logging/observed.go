package logging

import (
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

// NewObserved creates a logger that records every entry at or above level
// in memory, for assertions in tests.
func NewObserved(level Level) (*Logger, *observer.ObservedLogs) {
	core, logs := observer.New(level.zapLevel())
	return &Logger{zap: zap.New(core), level: zap.NewAtomicLevelAt(level.zapLevel())}, logs
}

// ObservedLevel converts a Level for comparison with observed entries.
func ObservedLevel(level Level) zapcore.Level {
	return level.zapLevel()
}
