package main

import (
	"log"
	"time"

	"github.com/hibiken/asynq"
	"github.com/joho/godotenv"

	"github.com/pi11/podcaster/internal/classify"
	"github.com/pi11/podcaster/internal/config"
	"github.com/pi11/podcaster/internal/db"
	"github.com/pi11/podcaster/internal/ffmpeg"
	"github.com/pi11/podcaster/internal/pipeline"
	"github.com/pi11/podcaster/internal/worker"
	"github.com/pi11/podcaster/internal/ytdlp"
	"github.com/pi11/podcaster/pkg/tasks"
)

// CommitSHA is set at build time via ldflags
var CommitSHA = "unknown"

func main() {
	err := godotenv.Load()
	if err != nil {
		log.Println("Error loading .env file")
	}

	cfg := config.Load()
	db.InitDB(cfg.DatabaseURL)

	client := asynq.NewClient(asynq.RedisClientOpt{Addr: cfg.RedisAddr})
	defer client.Close()

	srv := asynq.NewServer(
		asynq.RedisClientOpt{Addr: cfg.RedisAddr},
		asynq.Config{
			Concurrency: 1, // Process one task at a time to be gentle with YouTube
			Queues: map[string]int{
				"high":    2,
				"default": 1,
			},
			// Custom retry delay function for exponential backoff
			RetryDelayFunc: func(n int, err error, task *asynq.Task) time.Duration {
				delay := 5 * time.Minute
				maxDelay := 24 * time.Hour

				// Exponential backoff: 5min, 10min, 20min, 40min, 80min, etc.
				for i := 0; i < n; i++ {
					delay *= 2
					if delay > maxDelay {
						delay = maxDelay
						break
					}
				}

				log.Printf("Task %s failed %d times, retrying in %v", task.Type(), n+1, delay)
				return delay
			},
		},
	)

	p := pipeline.New(cfg, ytdlp.New(cfg.AudioQuality), ffmpeg.New(), classify.New(cfg.ClassifierURL))
	taskHandler := worker.NewTaskHandler(client, p)

	mux := asynq.NewServeMux()
	mux.HandleFunc(tasks.TypeDiscoverAll, taskHandler.HandleDiscoverAllTask)
	mux.HandleFunc(tasks.TypeDiscoverSource, taskHandler.HandleDiscoverSourceTask)
	mux.HandleFunc(tasks.TypeDownload, taskHandler.HandleDownloadTask)
	mux.HandleFunc(tasks.TypeProcessPass, taskHandler.HandleProcessPassTask)
	mux.HandleFunc(tasks.TypeCategorizePass, taskHandler.HandleCategorizePassTask)
	mux.HandleFunc(tasks.TypeSchedulePass, taskHandler.HandleSchedulePassTask)
	mux.HandleFunc(tasks.TypeCleanup, taskHandler.HandleCleanupTask)

	log.Printf("Worker starting (commit: %s)", CommitSHA)
	if err := srv.Run(mux); err != nil {
		log.Fatalf("could not run server: %v", err)
	}
}
