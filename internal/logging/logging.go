// Package logging constructs the zap.Logger instances threaded explicitly
// through the simulator's components (no package-level logger singleton).
package logging

import (
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Config selects the logging mode and minimum level.
type Config struct {
	Development bool
	Level       string // debug, info, warn, error
}

// New builds a zap.Logger from cfg. An unrecognised Level falls back to info.
func New(cfg Config) (*zap.Logger, error) {
	var level zapcore.Level
	if err := level.UnmarshalText([]byte(cfg.Level)); err != nil {
		level = zapcore.InfoLevel
	}

	var zcfg zap.Config
	if cfg.Development {
		zcfg = zap.NewDevelopmentConfig()
	} else {
		zcfg = zap.NewProductionConfig()
	}
	zcfg.Level = zap.NewAtomicLevelAt(level)

	return zcfg.Build()
}
