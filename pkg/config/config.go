// Package config holds setup shared by the executables.
package config

import (
	"github.com/retroenv/retrogolib/log"
)

// CreateLogger creates a logger for the -debug and -q flags. Debug wins when
// both are set.
func CreateLogger(debug, quiet bool) *log.Logger {
	cfg := log.DefaultConfig()
	if debug {
		cfg.Level = log.DebugLevel
	} else if quiet {
		cfg.Level = log.ErrorLevel
	}
	return log.NewWithConfig(cfg)
}
