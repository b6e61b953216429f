package logging

import (
	"os"

	"github.com/rs/zerolog"
)

const (
	logLevelEnvVar = "FORGE_FLOW_LOG_LEVEL"
)

// getLogLevel resolves the level from the explicit input first, then from FORGE_FLOW_LOG_LEVEL.
// An empty or unparsable value on both falls back to InfoLevel.
func getLogLevel(logLevelInput string) (zerolog.Level, error) {
	if logLevelInput != "" {
		return zerolog.ParseLevel(logLevelInput)
	}

	if envLogLevel := os.Getenv(logLevelEnvVar); envLogLevel != "" {
		if level, err := zerolog.ParseLevel(envLogLevel); err == nil {
			return level, nil
		}
	}

	return zerolog.InfoLevel, nil
}
