// Package logging builds the application's zap loggers.
package logging

import (
	"fmt"

	"go.uber.org/zap"
)

// New creates a logger for the given level. The debug level selects the
// human-friendly development configuration, everything else the JSON
// production configuration.
func New(logLevel string) (*zap.Logger, error) {
	var logger *zap.Logger
	var err error

	switch logLevel {
	case "debug":
		logger, err = zap.NewDevelopment()
	default:
		logger, err = zap.NewProduction()
	}
	if err != nil {
		return nil, fmt.Errorf("creating logger: %w", err)
	}
	return logger, nil
}
