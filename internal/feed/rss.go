package feed

import (
	"fmt"
	"net/http"
	"os"
	"time"

	"github.com/eduncan911/podcast"

	"github.com/pi11/podcaster/internal/models"
)

func getBaseURL(r *http.Request) string {
	if baseURL := os.Getenv("BASE_URL"); baseURL != "" {
		return baseURL
	}

	scheme := r.URL.Scheme
	if scheme == "" {
		scheme = "https"
		if r.Header.Get("X-Forwarded-Proto") != "" {
			scheme = r.Header.Get("X-Forwarded-Proto")
		}
	}

	return fmt.Sprintf("%s://%s", scheme, r.Host)
}

// GenerateRSS renders the posted episodes of one destination channel as a
// podcast feed.
func GenerateRSS(channel *models.Channel, episodes []models.Episode, r *http.Request) (string, error) {
	baseURL := getBaseURL(r)

	p := podcast.New(
		channel.Name,
		fmt.Sprintf("%s/rss/%d", baseURL, channel.ID),
		fmt.Sprintf("Audio episodes published to %s.", channel.Name),
		&time.Time{}, &time.Time{},
	)

	for _, episode := range episodes {
		item := podcast.Item{
			Title:       episode.Name,
			Description: episode.Description,
			PubDate:     episode.PublicationDate,
		}
		item.AddEnclosure(
			fmt.Sprintf("%s/audio/%d/%s.mp3", baseURL, episode.SourceID, episode.YoutubeID),
			podcast.MP3,
			episode.Filesize,
		)
		if _, err := p.AddItem(item); err != nil {
			return "", err
		}
	}

	return p.String(), nil
}
