package worker

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"time"

	"github.com/hibiken/asynq"

	"github.com/pi11/podcaster/internal/db"
	"github.com/pi11/podcaster/internal/pipeline"
	"github.com/pi11/podcaster/pkg/tasks"
)

// TaskHandler wires the pipeline stages into asynq tasks. Each handler runs
// one batch pass; the claim discipline inside the passes keeps overlapping
// workers safe.
type TaskHandler struct {
	asynqClient tasks.TaskEnqueuer
	pipeline    *pipeline.Pipeline
}

func NewTaskHandler(client tasks.TaskEnqueuer, p *pipeline.Pipeline) *TaskHandler {
	return &TaskHandler{asynqClient: client, pipeline: p}
}

// HandleDiscoverAllTask fans discovery out into per-source tasks so one
// broken source cannot starve the others.
func (h *TaskHandler) HandleDiscoverAllTask(ctx context.Context, t *asynq.Task) error {
	sources, err := db.GetActiveSources()
	if err != nil {
		return fmt.Errorf("failed to get active sources: %w", err)
	}

	for _, src := range sources {
		task, err := tasks.NewDiscoverSourceTask(src.ID)
		if err != nil {
			log.Printf("failed to create discover task for source %d: %v", src.ID, err)
			continue
		}
		if _, err := h.asynqClient.Enqueue(task); err != nil {
			log.Printf("failed to enqueue discover task for source %d: %v", src.ID, err)
			continue
		}
	}
	return nil
}

// HandleDiscoverSourceTask discovers one source and enqueues a download
// task for every episode it created.
func (h *TaskHandler) HandleDiscoverSourceTask(ctx context.Context, t *asynq.Task) error {
	var p tasks.DiscoverSourceTaskPayload
	if err := json.Unmarshal(t.Payload(), &p); err != nil {
		return fmt.Errorf("failed to unmarshal task payload: %w", err)
	}

	src, err := db.GetSourceByID(p.SourceID)
	if err != nil {
		return fmt.Errorf("failed to get source by id: %w", err)
	}

	snap, err := pipeline.LoadSnapshot()
	if err != nil {
		return fmt.Errorf("failed to load snapshot: %w", err)
	}

	rep := pipeline.NewReport()
	created, err := h.pipeline.DiscoverSource(ctx, src, snap, rep)
	if err != nil {
		return fmt.Errorf("discovery failed for source %d: %w", p.SourceID, err)
	}

	for _, ep := range created {
		task, err := tasks.NewDownloadTask(ep.ID)
		if err != nil {
			log.Printf("failed to create download task for episode %d: %v", ep.ID, err)
			continue
		}
		if _, err := h.asynqClient.Enqueue(task); err != nil {
			log.Printf("failed to enqueue download task for episode %d: %v", ep.ID, err)
			continue
		}
	}

	log.Printf("Discovered %d new episodes from source %s", len(created), src.Name)
	return nil
}

func (h *TaskHandler) HandleDownloadTask(ctx context.Context, t *asynq.Task) error {
	var p tasks.DownloadTaskPayload
	if err := json.Unmarshal(t.Payload(), &p); err != nil {
		return fmt.Errorf("failed to unmarshal task payload: %w", err)
	}

	ep, err := db.GetEpisodeByID(p.EpisodeID)
	if err != nil {
		return fmt.Errorf("failed to get episode by id: %w", err)
	}
	if ep.IsDownloaded || !ep.IsActive {
		return nil
	}

	rep := pipeline.NewReport()
	h.pipeline.DownloadEpisode(ctx, ep, rep)
	if len(rep.Failures) > 0 {
		// Returning the failure lets asynq's backoff drive the retry.
		return fmt.Errorf("download failed: %s", rep.Failures[0].Error)
	}
	return nil
}

func (h *TaskHandler) HandleProcessPassTask(ctx context.Context, t *asynq.Task) error {
	snap, err := pipeline.LoadSnapshot()
	if err != nil {
		return fmt.Errorf("failed to load snapshot: %w", err)
	}
	rep := pipeline.NewReport()
	if err := h.pipeline.Process(ctx, snap, rep); err != nil {
		return err
	}
	logReport("process", rep)
	return nil
}

func (h *TaskHandler) HandleCategorizePassTask(ctx context.Context, t *asynq.Task) error {
	snap, err := pipeline.LoadSnapshot()
	if err != nil {
		return fmt.Errorf("failed to load snapshot: %w", err)
	}
	rep := pipeline.NewReport()
	if err := h.pipeline.Categorize(ctx, snap, rep, false); err != nil {
		return err
	}
	logReport("categorize", rep)
	return nil
}

func (h *TaskHandler) HandleSchedulePassTask(ctx context.Context, t *asynq.Task) error {
	rep := pipeline.NewReport()
	if err := h.pipeline.Schedule(ctx, time.Now(), rep); err != nil {
		return err
	}
	logReport("schedule", rep)
	return nil
}

func (h *TaskHandler) HandleCleanupTask(ctx context.Context, t *asynq.Task) error {
	var p tasks.CleanupTaskPayload
	if len(t.Payload()) > 0 {
		if err := json.Unmarshal(t.Payload(), &p); err != nil {
			return fmt.Errorf("failed to unmarshal task payload: %w", err)
		}
	}

	rep := pipeline.NewReport()
	result, err := h.pipeline.Cleanup(ctx, p.DryRun, rep)
	if err != nil {
		return err
	}
	log.Printf("Cleanup (dry-run=%v): %d files, %d bytes", p.DryRun, len(result.Files), result.TotalSize)
	return nil
}

func logReport(stage string, rep *pipeline.Report) {
	rep.Finish()
	for _, f := range rep.Failures {
		log.Printf("[%s] %s failure for %s: %s", rep.RunID, f.Kind, f.Subject, f.Error)
	}
	log.Printf("[%s] %s pass complete: %d failures", rep.RunID, stage, len(rep.Failures))
}
