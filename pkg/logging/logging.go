// Package logging builds the *logrus.Logger that cmd/coinscript logs
// through, configured from pkg/config.
package logging

import (
	"os"

	"github.com/sirupsen/logrus"

	"coinscript/pkg/config"
)

// New builds a logger from cfg.Logging, defaulting to info/text if cfg is nil
// or leaves either field blank.
func New(cfg *config.Config) *logrus.Logger {
	log := logrus.New()
	log.SetOutput(os.Stderr)

	level := "info"
	format := "text"
	if cfg != nil {
		if cfg.Logging.Level != "" {
			level = cfg.Logging.Level
		}
		if cfg.Logging.Format != "" {
			format = cfg.Logging.Format
		}
	}

	lv, err := logrus.ParseLevel(level)
	if err != nil {
		lv = logrus.InfoLevel
	}
	log.SetLevel(lv)

	if format == "json" {
		log.SetFormatter(&logrus.JSONFormatter{})
	} else {
		log.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})
	}
	return log
}

// Default is the package-wide logger used by code that has no cfg/logger of
// its own to thread through (mirrors the CLI middleware's package-level
// logrus.SetLevel convention).
var Default = New(nil)
