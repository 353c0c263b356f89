// Package utils holds small helpers shared across the engine.
package utils

import (
	"go.uber.org/zap"
)

// LogError logs the error with the given message and fields. Nil errors and
// nil loggers are tolerated so call sites stay unconditional.
func LogError(logger *zap.Logger, err error, msg string, fields ...zap.Field) {
	if logger == nil || err == nil {
		return
	}
	fields = append(fields, zap.Error(err))
	logger.Error(msg, fields...)
}

// Recover logs a recovered panic. Intended as `defer utils.Recover(logger)`
// at goroutine boundaries.
func Recover(logger *zap.Logger) {
	if r := recover(); r != nil {
		if logger != nil {
			logger.Error("recovered from panic", zap.Any("panic", r))
		}
	}
}
