package db

import (
	"time"

	"github.com/lib/pq"

	"github.com/pi11/podcaster/internal/models"
)

// Claim states. A stage claims an episode by moving its status into the
// matching in-flight value; a second concurrent pass observes the claim and
// skips the episode. The lifecycle flags, not the status, drive re-entrancy.
const (
	StatusPending     = "PENDING"
	StatusDownloading = "DOWNLOADING"
	StatusProcessing  = "PROCESSING"
	StatusCompleted   = "COMPLETED"
	StatusFailed      = "FAILED"
)

func CreateEpisode(e models.Episode) (models.Episode, error) {
	episode := models.Episode{}
	err := DB.Get(&episode, `
		INSERT INTO episodes (source_id, yt_id, url, name, description, duration_seconds, thumbnail_url)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING *`,
		e.SourceID, e.YoutubeID, e.URL, e.Name, e.Description, e.DurationSeconds, e.ThumbnailURL)
	return episode, err
}

func GetEpisodeByID(id int) (models.Episode, error) {
	episode := models.Episode{}
	err := DB.Get(&episode, "SELECT * FROM episodes WHERE id = $1", id)
	return episode, err
}

// GetEpisodeByYoutubeID looks an episode up by its per-source identity key.
func GetEpisodeByYoutubeID(sourceID int, ytID string) (models.Episode, error) {
	episode := models.Episode{}
	err := DB.Get(&episode, "SELECT * FROM episodes WHERE source_id = $1 AND yt_id = $2", sourceID, ytID)
	return episode, err
}

// ClaimEpisode marks an episode as being worked on. It returns false when
// another pass already holds a claim, in which case the caller must skip
// the episode. A claim older than an hour is considered abandoned (the
// holder crashed before releasing) and may be taken over.
func ClaimEpisode(id int, status string) (bool, error) {
	res, err := DB.Exec(`
		UPDATE episodes SET status = $2, updated_at = NOW()
		WHERE id = $1 AND (status NOT IN ($3, $4) OR updated_at < NOW() - interval '1 hour')`,
		id, status, StatusDownloading, StatusProcessing)
	if err != nil {
		return false, err
	}
	n, err := res.RowsAffected()
	return n > 0, err
}

// ReleaseEpisode drops a claim, recording how the attempt ended.
func ReleaseEpisode(id int, status string) error {
	_, err := DB.Exec("UPDATE episodes SET status = $2, updated_at = NOW() WHERE id = $1", id, status)
	return err
}

func EpisodesForDownload() ([]models.Episode, error) {
	var episodes []models.Episode
	err := DB.Select(&episodes, `
		SELECT * FROM episodes
		WHERE is_active = true AND is_downloaded = false
		ORDER BY id`)
	return episodes, err
}

func EpisodesForProcessing() ([]models.Episode, error) {
	var episodes []models.Episode
	err := DB.Select(&episodes, `
		SELECT * FROM episodes
		WHERE is_active = true AND is_downloaded = true AND is_processed = false AND is_posted = false
		ORDER BY id`)
	return episodes, err
}

// EpisodesForCategorization returns processed episodes the categorizer has
// not seen yet, or every processed episode when force is set. The
// categorized_at marker remembers a legitimately empty result, so such
// episodes do not re-enter the pass on every run.
func EpisodesForCategorization(force bool) ([]models.Episode, error) {
	var episodes []models.Episode
	query := `
		SELECT e.* FROM episodes e
		WHERE e.is_active = true AND e.is_processed = true
		AND e.categorized_at IS NULL
		ORDER BY e.id`
	if force {
		query = `
		SELECT e.* FROM episodes e
		WHERE e.is_active = true AND e.is_processed = true
		ORDER BY e.id`
	}
	err := DB.Select(&episodes, query)
	return episodes, err
}

// EpisodesForScheduling returns unscheduled ready episodes for one
// destination channel, in discovery order.
func EpisodesForScheduling(channelID int) ([]models.Episode, error) {
	var episodes []models.Episode
	err := DB.Select(&episodes, `
		SELECT e.* FROM episodes e
		JOIN sources s ON s.id = e.source_id
		WHERE e.is_active = true AND e.is_processed = true AND e.is_posted = false
		AND e.publication_date IS NULL AND s.channel_id = $1
		ORDER BY e.id`, channelID)
	return episodes, err
}

func EpisodesForCleanup() ([]models.Episode, error) {
	var episodes []models.Episode
	err := DB.Select(&episodes, `
		SELECT * FROM episodes
		WHERE is_active = false AND is_downloaded = true
		ORDER BY id`)
	return episodes, err
}

// LastScheduledSlot returns the latest publication slot already assigned to
// a not-yet-posted episode of the channel, or nil when there is none.
func LastScheduledSlot(channelID int) (*time.Time, error) {
	var slot *time.Time
	err := DB.Get(&slot, `
		SELECT MAX(e.publication_date) FROM episodes e
		JOIN sources s ON s.id = e.source_id
		WHERE e.is_active = true AND e.is_posted = false
		AND e.publication_date IS NOT NULL AND s.channel_id = $1`, channelID)
	return slot, err
}

func MarkDownloaded(id int, file string, size int64, duration int, thumbnail *string) error {
	_, err := DB.Exec(`
		UPDATE episodes
		SET is_downloaded = true, file = $2, filesize = $3, duration_seconds = $4,
		    thumbnail = $5, status = $6, updated_at = NOW()
		WHERE id = $1`,
		id, file, size, duration, thumbnail, StatusPending)
	return err
}

func MarkProcessed(id int, file string, size int64, oversized bool, tags []string) error {
	_, err := DB.Exec(`
		UPDATE episodes
		SET is_processed = true, file = $2, filesize = $3, oversized = $4,
		    tags = $5, status = $6, updated_at = NOW()
		WHERE id = $1`,
		id, file, size, oversized, pq.StringArray(tags), StatusCompleted)
	return err
}

func MarkPosted(id int) error {
	_, err := DB.Exec(`
		UPDATE episodes
		SET is_posted = true, publication_date = NOW(), updated_at = NOW()
		WHERE id = $1`, id)
	return err
}

func DeactivateEpisode(id int) error {
	_, err := DB.Exec("UPDATE episodes SET is_active = false, updated_at = NOW() WHERE id = $1", id)
	return err
}

func SetPublicationDate(id int, t time.Time) error {
	_, err := DB.Exec("UPDATE episodes SET publication_date = $2, updated_at = NOW() WHERE id = $1", id, t)
	return err
}

// ClearEpisodeFile resets the storage fields after cleanup. History flags
// are deliberately untouched.
func ClearEpisodeFile(id int) error {
	_, err := DB.Exec(`
		UPDATE episodes
		SET file = NULL, filesize = 0, thumbnail = NULL, is_downloaded = false, updated_at = NOW()
		WHERE id = $1`, id)
	return err
}

// NextEpisodeToPost returns the oldest-scheduled episode due for posting on
// an auto-post channel, with the channel it goes to.
func NextEpisodeToPost(now time.Time) (models.Episode, models.Channel, error) {
	var row struct {
		models.Episode
		Channel models.Channel `db:"ch"`
	}
	err := DB.Get(&row, `
		SELECT e.*,
		       c.id AS "ch.id", c.tg_id AS "ch.tg_id", c.name AS "ch.name",
		       c.auto_post AS "ch.auto_post", c.post_interval_hours AS "ch.post_interval_hours",
		       c.created_at AS "ch.created_at"
		FROM episodes e
		JOIN sources s ON s.id = e.source_id
		JOIN channels c ON c.id = s.channel_id
		WHERE e.is_active = true AND e.is_processed = true AND e.is_posted = false
		AND e.publication_date IS NOT NULL AND e.publication_date <= $1
		AND c.auto_post = true
		ORDER BY e.publication_date
		LIMIT 1`, now)
	return row.Episode, row.Channel, err
}

func IncrementFailedTimes(id int) (int, error) {
	var n int
	err := DB.Get(&n, `
		UPDATE episodes SET failed_times = failed_times + 1, updated_at = NOW()
		WHERE id = $1 RETURNING failed_times`, id)
	return n, err
}

// EpisodeCounts summarizes the stored set for reporting.
type EpisodeCounts struct {
	Total      int `db:"total" json:"total"`
	Active     int `db:"active" json:"active"`
	Downloaded int `db:"downloaded" json:"downloaded"`
	Processed  int `db:"processed" json:"processed"`
	Scheduled  int `db:"scheduled" json:"scheduled"`
	Posted     int `db:"posted" json:"posted"`
	Oversized  int `db:"oversized" json:"oversized"`
}

func CountEpisodes() (EpisodeCounts, error) {
	counts := EpisodeCounts{}
	err := DB.Get(&counts, `
		SELECT COUNT(*) AS total,
		       COUNT(*) FILTER (WHERE is_active) AS active,
		       COUNT(*) FILTER (WHERE is_downloaded) AS downloaded,
		       COUNT(*) FILTER (WHERE is_processed) AS processed,
		       COUNT(*) FILTER (WHERE publication_date IS NOT NULL AND NOT is_posted) AS scheduled,
		       COUNT(*) FILTER (WHERE is_posted) AS posted,
		       COUNT(*) FILTER (WHERE oversized) AS oversized
		FROM episodes`)
	return counts, err
}

func RecentEpisodes(limit int) ([]models.Episode, error) {
	var episodes []models.Episode
	err := DB.Select(&episodes, "SELECT * FROM episodes ORDER BY id DESC LIMIT $1", limit)
	return episodes, err
}

// PostedEpisodesByChannel returns posted episodes for a channel, newest
// first, for the RSS feed.
func PostedEpisodesByChannel(channelID, limit int) ([]models.Episode, error) {
	var episodes []models.Episode
	err := DB.Select(&episodes, `
		SELECT e.* FROM episodes e
		JOIN sources s ON s.id = e.source_id
		WHERE e.is_posted = true AND s.channel_id = $1
		ORDER BY e.publication_date DESC
		LIMIT $2`, channelID, limit)
	return episodes, err
}
