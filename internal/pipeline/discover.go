package pipeline

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log"

	"github.com/pi11/podcaster/internal/db"
	"github.com/pi11/podcaster/internal/models"
)

// Discover runs the discovery pass over every active source. A provider
// error for one source is recorded and does not abort the others.
func (p *Pipeline) Discover(ctx context.Context, snap *Snapshot, rep *Report) error {
	for _, src := range snap.Sources {
		if _, err := p.DiscoverSource(ctx, src, snap, rep); err != nil {
			log.Printf("Discovery failed for source %s: %v", src.Name, err)
			rep.Fail("discover", FailureTransient, fmt.Sprintf("source %d (%s)", src.ID, src.Name), err)
		}
	}
	return nil
}

// DiscoverSource fetches candidates for one source, applies the filters in
// order, and persists the survivors as new episodes with flags unset. It
// returns the episodes it created.
func (p *Pipeline) DiscoverSource(ctx context.Context, src models.Source, snap *Snapshot, rep *Report) ([]models.Episode, error) {
	videos, err := p.Provider.ListChannel(ctx, src.URL, src.MaxVideos)
	if err != nil {
		return nil, fmt.Errorf("failed to list channel: %w", err)
	}
	log.Printf("Found %d candidates from %s", len(videos), src.Name)

	var created []models.Episode
	for _, v := range videos {
		// Identity filter: re-running discovery over an unchanged result
		// set must not create duplicates.
		_, err := db.GetEpisodeByYoutubeID(src.ID, v.ID)
		if err == nil {
			continue
		}
		if !errors.Is(err, sql.ErrNoRows) {
			rep.Fail("discover", FailureIntegrity, "video "+v.ID, err)
			continue
		}

		// The flat playlist listing omits duration and description; fetch
		// full metadata before the remaining filters.
		info, err := p.Provider.VideoInfo(ctx, v.ID)
		if err != nil {
			rep.Fail("discover", FailureTransient, "video "+v.ID, err)
			continue
		}

		if !durationWithinBounds(src, int(info.Duration)) {
			log.Printf("Skipping %s: duration %ds outside [%d, %d]",
				info.ID, int(info.Duration), src.MinDuration, src.MaxDuration)
			continue
		}

		if src.OnlyRelated {
			related, err := p.Related(ctx, snap, src, info.Title, info.Description)
			if err != nil {
				rep.Fail("discover", FailureTransient, "video "+v.ID, err)
				continue
			}
			if !related {
				log.Printf("Skipping %s: not related to source themes", info.ID)
				continue
			}
		}

		if word, found := containsBannedWord(snap.BannedWords, info.Title+"\n"+info.Description); found {
			log.Printf("Skipping %s: banned word %q", info.ID, word)
			continue
		}

		thumb := info.Thumbnail
		episode, err := db.CreateEpisode(models.Episode{
			SourceID:        src.ID,
			YoutubeID:       info.ID,
			URL:             info.URL(),
			Name:            info.Title,
			Description:     info.Description,
			DurationSeconds: int(info.Duration),
			ThumbnailURL:    &thumb,
		})
		if err != nil {
			rep.Fail("discover", FailureIntegrity, "video "+v.ID, err)
			continue
		}

		created = append(created, episode)
		rep.Add("discover", episodeSubject(episode.ID, episode.YoutubeID))
	}
	return created, nil
}
