package main

import (
	"log"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"github.com/pi11/podcaster/internal/classify"
	"github.com/pi11/podcaster/internal/config"
	"github.com/pi11/podcaster/internal/db"
	"github.com/pi11/podcaster/internal/ffmpeg"
	"github.com/pi11/podcaster/internal/pipeline"
	"github.com/pi11/podcaster/internal/ytdlp"
)

func newRootCommand() *cobra.Command {
	root := &cobra.Command{
		Use:           "podcaster",
		Short:         "Episode lifecycle pipeline for YouTube-to-Telegram podcasts",
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	root.AddCommand(
		newDiscoverCommand(),
		newDownloadCommand(),
		newProcessCommand(),
		newCategorizeCommand(),
		newScheduleCommand(),
		newCleanupCommand(),
		newStatusCommand(),
	)
	return root
}

// setup loads the environment, connects the database, and builds a
// pipeline with its real collaborators.
func setup() (*config.Config, *pipeline.Pipeline) {
	if err := godotenv.Load(); err != nil {
		log.Println("Error loading .env file")
	}

	cfg := config.Load()
	db.InitDB(cfg.DatabaseURL)
	p := pipeline.New(cfg, ytdlp.New(cfg.AudioQuality), ffmpeg.New(), classify.New(cfg.ClassifierURL))
	return cfg, p
}
