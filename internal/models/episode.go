package models

import (
	"time"

	"github.com/lib/pq"
)

// Episode is one video's tracked record through the lifecycle pipeline.
// Each stage owns exactly one of the lifecycle flags; Stage() derives the
// current position from them.
type Episode struct {
	ID              int            `db:"id" json:"id"`
	SourceID        int            `db:"source_id" json:"source_id"`
	YoutubeID       string         `db:"yt_id" json:"yt_id"`
	URL             string         `db:"url" json:"url"`
	Name            string         `db:"name" json:"name"`
	Description     string         `db:"description" json:"description"`
	DurationSeconds int            `db:"duration_seconds" json:"duration_seconds"`
	File            *string        `db:"file" json:"file,omitempty"`
	Filesize        int64          `db:"filesize" json:"filesize"`
	ThumbnailURL    *string        `db:"thumbnail_url" json:"thumbnail_url,omitempty"`
	Thumbnail       *string        `db:"thumbnail" json:"thumbnail,omitempty"`
	Tags            pq.StringArray `db:"tags" json:"tags"`
	PublicationDate *time.Time     `db:"publication_date" json:"publication_date,omitempty"`
	CategorizedAt   *time.Time     `db:"categorized_at" json:"categorized_at,omitempty"`
	IsActive        bool           `db:"is_active" json:"is_active"`
	IsDownloaded    bool           `db:"is_downloaded" json:"is_downloaded"`
	IsProcessed     bool           `db:"is_processed" json:"is_processed"`
	IsPosted        bool           `db:"is_posted" json:"is_posted"`
	Oversized       bool           `db:"oversized" json:"oversized"`
	Status          string         `db:"status" json:"status"`
	FailedTimes     int            `db:"failed_times" json:"failed_times"`
	CreatedAt       time.Time      `db:"created_at" json:"created_at"`
	UpdatedAt       time.Time      `db:"updated_at" json:"updated_at"`
}
