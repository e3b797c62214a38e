package tasks

import (
	"encoding/json"

	"github.com/hibiken/asynq"
)

const (
	TypeDiscoverAll    = "sources:discover"
	TypeDiscoverSource = "source:discover"
	TypeDownload       = "episode:download"
	TypeProcessPass    = "episodes:process"
	TypeCategorizePass = "episodes:categorize"
	TypeSchedulePass   = "episodes:schedule"
	TypeCleanup        = "episodes:cleanup"
)

type DiscoverSourceTaskPayload struct {
	SourceID int
}

func NewDiscoverSourceTask(sourceID int) (*asynq.Task, error) {
	payload, err := json.Marshal(DiscoverSourceTaskPayload{SourceID: sourceID})
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(TypeDiscoverSource, payload), nil
}

type DownloadTaskPayload struct {
	EpisodeID int
}

func NewDownloadTask(episodeID int) (*asynq.Task, error) {
	payload, err := json.Marshal(DownloadTaskPayload{EpisodeID: episodeID})
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(TypeDownload, payload), nil
}

type CleanupTaskPayload struct {
	DryRun bool
}

func NewCleanupTask(dryRun bool) (*asynq.Task, error) {
	payload, err := json.Marshal(CleanupTaskPayload{DryRun: dryRun})
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(TypeCleanup, payload), nil
}

func NewDiscoverAllTask() (*asynq.Task, error) {
	return asynq.NewTask(TypeDiscoverAll, nil), nil
}

func NewProcessPassTask() (*asynq.Task, error) {
	return asynq.NewTask(TypeProcessPass, nil), nil
}

func NewCategorizePassTask() (*asynq.Task, error) {
	return asynq.NewTask(TypeCategorizePass, nil), nil
}

func NewSchedulePassTask() (*asynq.Task, error) {
	return asynq.NewTask(TypeSchedulePass, nil), nil
}
