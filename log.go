package main

import (
	"github.com/dgnsrekt/mordoo/internal/config"
	"github.com/dgnsrekt/mordoo/internal/logging"
)

func setupLog(cfg config.Config) (func() error, error) {
	return logging.Setup(logging.Options{
		Level: cfg.Log.Level,
		File:  cfg.Log.File,
	})
}
