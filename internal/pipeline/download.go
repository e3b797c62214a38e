package pipeline

import (
	"context"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"strings"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/pi11/podcaster/internal/db"
	"github.com/pi11/podcaster/internal/models"
)

// Download runs the download pass over every pending episode. Distinct
// episodes download concurrently; the claim keeps two passes off the same
// one.
func (p *Pipeline) Download(ctx context.Context, snap *Snapshot, rep *Report) error {
	episodes, err := db.EpisodesForDownload()
	if err != nil {
		return fmt.Errorf("failed to list episodes for download: %w", err)
	}

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(p.Cfg.Concurrency)
	for _, ep := range episodes {
		ep := ep
		g.Go(func() error {
			p.DownloadEpisode(ctx, ep, rep)
			return nil
		})
	}
	return g.Wait()
}

// DownloadEpisode materializes the audio for one episode. Fetch errors are
// retried a bounded number of times with backoff; exhausted retries leave
// the episode eligible for a later run.
func (p *Pipeline) DownloadEpisode(ctx context.Context, ep models.Episode, rep *Report) {
	subject := episodeSubject(ep.ID, ep.YoutubeID)

	claimed, err := db.ClaimEpisode(ep.ID, db.StatusDownloading)
	if err != nil {
		rep.Fail("download", FailureIntegrity, subject, err)
		return
	}
	if !claimed {
		log.Printf("Skipping %s: already claimed", subject)
		return
	}

	src, err := db.GetSourceByID(ep.SourceID)
	if err != nil {
		rep.Fail("download", FailureConfiguration, subject, fmt.Errorf("missing source %d: %w", ep.SourceID, err))
		db.ReleaseEpisode(ep.ID, db.StatusFailed)
		return
	}

	dir := p.sourceDir(src)
	var path string
	var info downloadInfo
	err = withRetries(ctx, p.Cfg.Retries, p.Cfg.RetryDelay, func() error {
		var err error
		path, info, err = p.downloadOnce(ctx, ep, dir)
		return err
	})
	if err != nil {
		log.Printf("Download failed for %s: %v", subject, err)
		rep.Fail("download", FailureTransient, subject, err)
		db.ReleaseEpisode(ep.ID, db.StatusFailed)
		return
	}

	// Provider metadata may carry an approximate duration; the downloaded
	// file is authoritative. An episode that falls outside the bounds now
	// is deactivated instead of downloaded.
	if info.duration > 0 && !durationWithinBounds(src, info.duration) {
		log.Printf("Deactivating %s: actual duration %ds outside source bounds", subject, info.duration)
		rep.Fail("download", FailureValidation, subject,
			fmt.Errorf("actual duration %ds outside [%d, %d]", info.duration, src.MinDuration, src.MaxDuration))
		db.DeactivateEpisode(ep.ID)
		db.ReleaseEpisode(ep.ID, db.StatusPending)
		return
	}

	var thumbnail *string
	if ep.ThumbnailURL != nil && *ep.ThumbnailURL != "" {
		thumbPath := path + "-thumb.jpg"
		if err := p.Provider.DownloadThumbnail(ctx, *ep.ThumbnailURL, thumbPath); err != nil {
			// Artwork is best effort; the episode still counts as
			// downloaded without it.
			log.Printf("Thumbnail fetch failed for %s: %v", subject, err)
		} else {
			thumbnail = &thumbPath
		}
	}

	duration := info.duration
	if duration == 0 {
		duration = ep.DurationSeconds
	}
	if err := db.MarkDownloaded(ep.ID, path, info.size, duration, thumbnail); err != nil {
		rep.Fail("download", FailureIntegrity, subject, err)
		db.ReleaseEpisode(ep.ID, db.StatusFailed)
		return
	}
	rep.Add("download", subject)
	log.Printf("Downloaded %s (%d bytes)", subject, info.size)
}

type downloadInfo struct {
	size     int64
	duration int
}

// downloadOnce performs a single fetch attempt and verifies a non-empty
// file landed at the identity-keyed path.
func (p *Pipeline) downloadOnce(ctx context.Context, ep models.Episode, dir string) (string, downloadInfo, error) {
	path, video, err := p.Provider.DownloadAudio(ctx, ep.YoutubeID, dir)
	if err != nil {
		return "", downloadInfo{}, err
	}

	fi, err := os.Stat(path)
	if err != nil {
		return "", downloadInfo{}, fmt.Errorf("failed to stat downloaded file: %w", err)
	}
	if fi.Size() == 0 {
		return "", downloadInfo{}, fmt.Errorf("downloaded file is empty: %s", path)
	}
	return path, downloadInfo{size: fi.Size(), duration: int(video.Duration)}, nil
}

// sourceDir is the per-source media directory, e.g. media/3_Channel_Name.
func (p *Pipeline) sourceDir(src models.Source) string {
	name := strings.ReplaceAll(src.Name, " ", "_")
	return filepath.Join(p.Cfg.MediaDir, fmt.Sprintf("%d_%s", src.ID, name))
}

// withRetries runs fn up to retries+1 times with linear backoff, stopping
// early when the context is done.
func withRetries(ctx context.Context, retries int, delay time.Duration, fn func() error) error {
	var err error
	for attempt := 0; ; attempt++ {
		if err = fn(); err == nil {
			return nil
		}
		if attempt >= retries {
			return err
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(delay * time.Duration(attempt+1)):
		}
	}
}
