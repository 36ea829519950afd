package utils

import "go.uber.org/zap"

// NewProductionLogger builds a JSON logger at info level for server use.
func NewProductionLogger() (*zap.Logger, error) {
	return zap.NewProductionConfig().Build()
}

// NewLogger builds the process-wide logger. Debug mode emits human-readable
// console output at debug level; otherwise output is JSON at info level.
func NewLogger(debug bool) (*zap.Logger, error) {
	cfg := zap.NewProductionConfig()
	if debug {
		cfg = zap.NewDevelopmentConfig()
	}
	return cfg.Build()
}
