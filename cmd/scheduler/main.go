package main

import (
	"log"

	"github.com/hibiken/asynq"
	"github.com/joho/godotenv"

	"github.com/pi11/podcaster/internal/config"
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

	scheduler := asynq.NewScheduler(
		asynq.RedisClientOpt{Addr: cfg.RedisAddr},
		&asynq.SchedulerOpts{},
	)

	register := func(spec string, task *asynq.Task, err error) {
		if err != nil {
			log.Fatalf("could not create task: %v", err)
		}
		if _, err := scheduler.Register(spec, task); err != nil {
			log.Fatalf("could not register task: %v", err)
		}
	}

	discoverTask, err := tasks.NewDiscoverAllTask()
	register("@every 1h", discoverTask, err)

	// The processing watch: a safe-to-repeat pass over unprocessed
	// downloads.
	processTask, err := tasks.NewProcessPassTask()
	register("@every 1m", processTask, err)

	categorizeTask, err := tasks.NewCategorizePassTask()
	register("@every 10m", categorizeTask, err)

	scheduleTask, err := tasks.NewSchedulePassTask()
	register("@every 10m", scheduleTask, err)

	cleanupTask, err := tasks.NewCleanupTask(false)
	register("@every 24h", cleanupTask, err)

	log.Printf("Scheduler starting (commit: %s)", CommitSHA)
	if err := scheduler.Run(); err != nil {
		log.Fatalf("could not run scheduler: %v", err)
	}
}
