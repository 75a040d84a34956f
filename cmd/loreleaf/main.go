package main

import (
	"context"
	"fmt"

	"github.com/loreleaf/loreleaf/internal/app"
	"github.com/loreleaf/loreleaf/internal/config"
	"github.com/loreleaf/loreleaf/internal/logger"
)

var (
	buildVersion string
	buildDate    string
	buildCommit  string
)

func main() {
	printBuildInfo()

	cfg, err := config.GetConfig()
	if err != nil {
		logger.NewLogger("loreleaf").Fatal().Err(err).Msg("error getting configs")
	}

	log := newLogger(cfg)
	log.Debug().Any("config", cfg).Msg("received configs")

	application, err := app.NewApp(cfg, buildVersion, log)
	if err != nil {
		log.Fatal().Err(err).Msg("error assembling application")
	}

	if err = application.Run(context.Background()); err != nil {
		log.Fatal().Err(err).Msg("application run error")
	}
}

func newLogger(cfg *config.StructuredConfig) *logger.Logger {
	if cfg.Log.FilePath != "" {
		return logger.NewFileLogger("loreleaf", cfg.Log.FilePath)
	}
	return logger.NewLogger("loreleaf")
}

func printBuildInfo() {
	if buildVersion == "" {
		buildVersion = "N/A"
	}
	if buildDate == "" {
		buildDate = "N/A"
	}
	if buildCommit == "" {
		buildCommit = "N/A"
	}

	fmt.Printf("Build version: %s\n", buildVersion)
	fmt.Printf("Build date: %s\n", buildDate)
	fmt.Printf("Build commit: %s\n", buildCommit)
}
