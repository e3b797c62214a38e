package pipeline

import (
	"context"
	"fmt"
	"log"
	"os"
	"strings"

	"github.com/samber/lo"

	"github.com/pi11/podcaster/internal/db"
	"github.com/pi11/podcaster/internal/models"
)

// CleanupResult is the exact set of files a cleanup pass would remove (or
// removed), with their aggregate size.
type CleanupResult struct {
	Files     []string `json:"files"`
	TotalSize int64    `json:"total_size"`
	Episodes  []int    `json:"episodes"`
}

// Cleanup reclaims storage for deactivated episodes. In dry-run mode it
// reports what would be removed without touching files or flags. History
// flags (posted, processed) are never altered.
func (p *Pipeline) Cleanup(ctx context.Context, dryRun bool, rep *Report) (*CleanupResult, error) {
	episodes, err := db.EpisodesForCleanup()
	if err != nil {
		return nil, fmt.Errorf("failed to list episodes for cleanup: %w", err)
	}

	result := &CleanupResult{}
	for _, ep := range episodes {
		if err := ctx.Err(); err != nil {
			return result, err
		}
		subject := episodeSubject(ep.ID, ep.YoutubeID)

		for _, path := range episodeFiles(ep) {
			fi, err := os.Stat(path)
			if err != nil {
				// Already absent: cleanup is idempotent.
				continue
			}
			result.Files = append(result.Files, path)
			result.TotalSize += fi.Size()
			if dryRun {
				continue
			}
			if err := os.Remove(path); err != nil {
				log.Printf("Failed to remove %s: %v", path, err)
				rep.Fail("cleanup", FailureIntegrity, subject, err)
				continue
			}
			log.Printf("Removed %s", path)
		}

		if dryRun {
			continue
		}
		if err := db.ClearEpisodeFile(ep.ID); err != nil {
			rep.Fail("cleanup", FailureIntegrity, subject, err)
			continue
		}
		result.Episodes = append(result.Episodes, ep.ID)
		rep.Add("cleanup", subject)
	}
	return result, nil
}

// episodeFiles lists every on-disk artifact an episode may own: the
// original download, the converted variant, and the thumbnail.
func episodeFiles(ep models.Episode) []string {
	if ep.File == nil {
		return nil
	}
	base := strings.TrimSuffix(*ep.File, "-conv.mp3")
	candidates := []string{
		base,
		base + "-conv.mp3",
		base + "-thumb.jpg",
	}
	if ep.Thumbnail != nil {
		candidates = append(candidates, *ep.Thumbnail)
	}
	return lo.Uniq(candidates)
}
