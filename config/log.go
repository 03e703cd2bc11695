package config

import (
	"os"

	"github.com/sirupsen/logrus"
)

// LogLevelEnv sets the log level when no explicit level is passed.
const LogLevelEnv = "CHAINKIT_LOG_LEVEL"

// ConfigureLogger sets the process-wide logrus level.  Libraries never call
// this; it is for the CLI and other program entry points.
func ConfigureLogger(levelMaybe ...string) {
	level := os.Getenv(LogLevelEnv)
	if len(levelMaybe) > 0 && levelMaybe[0] != "" {
		level = levelMaybe[0]
	}
	parsed, err := logrus.ParseLevel(level)
	if err != nil {
		parsed = logrus.InfoLevel
	}
	logrus.SetLevel(parsed)
}
