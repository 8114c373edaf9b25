// Package logger builds the process-wide zap logger.
package logger

import "go.uber.org/zap"

// New returns a console logger at debug level when env is "development" and
// a JSON production logger otherwise.
func New(env string) (*zap.Logger, error) {
	if env == "development" {
		return zap.NewDevelopment()
	}
	return zap.NewProduction()
}

// OrNop returns l, or a no-op logger when l is nil.
func OrNop(l *zap.Logger) *zap.Logger {
	if l == nil {
		return zap.NewNop()
	}
	return l
}
