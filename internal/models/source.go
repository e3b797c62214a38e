package models

import "time"

// Source is a monitored YouTube channel with its filter configuration.
// Sources are written by the administration surface; the pipeline only
// reads them.
type Source struct {
	ID          int       `db:"id" json:"id"`
	URL         string    `db:"url" json:"url"`
	Name        string    `db:"name" json:"name"`
	MinDuration int       `db:"min_duration" json:"min_duration"` // seconds, 0 = unbounded
	MaxDuration int       `db:"max_duration" json:"max_duration"` // seconds, 0 = unbounded
	OnlyRelated bool      `db:"only_related" json:"only_related"`
	ExtractTags bool      `db:"extract_tags" json:"extract_tags"`
	MaxVideos   int       `db:"max_videos_per_channel" json:"max_videos_per_channel"`
	ChannelID   int       `db:"channel_id" json:"channel_id"`
	IsActive    bool      `db:"is_active" json:"is_active"`
	CreatedAt   time.Time `db:"created_at" json:"created_at"`
}
