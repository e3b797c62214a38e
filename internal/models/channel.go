package models

import "time"

// Channel is a destination Telegram channel. AutoPost gates whether the
// publisher may act on scheduled episodes for it.
type Channel struct {
	ID                int       `db:"id" json:"id"`
	TgID              int64     `db:"tg_id" json:"tg_id"`
	Name              string    `db:"name" json:"name"`
	AutoPost          bool      `db:"auto_post" json:"auto_post"`
	PostIntervalHours int       `db:"post_interval_hours" json:"post_interval_hours"`
	CreatedAt         time.Time `db:"created_at" json:"created_at"`
}

// PostInterval returns the posting cadence, defaulting to 24h.
func (c *Channel) PostInterval() time.Duration {
	if c.PostIntervalHours <= 0 {
		return 24 * time.Hour
	}
	return time.Duration(c.PostIntervalHours) * time.Hour
}
