// Package pipeline implements the episode lifecycle: discovery, download,
// processing, categorization, scheduling, and cleanup. Every stage is an
// idempotent batch pass that claims episodes before working on them, so
// passes are safe to re-run partially or concurrently.
package pipeline

import (
	"context"
	"strings"

	"github.com/pi11/podcaster/internal/config"
	"github.com/pi11/podcaster/internal/db"
	"github.com/pi11/podcaster/internal/models"
	"github.com/pi11/podcaster/internal/ytdlp"
)

// Provider supplies candidate metadata and audio streams. Implemented by
// ytdlp.Client; faked in tests.
type Provider interface {
	ListChannel(ctx context.Context, channelURL string, limit int) ([]ytdlp.Video, error)
	VideoInfo(ctx context.Context, videoID string) (ytdlp.Video, error)
	DownloadAudio(ctx context.Context, videoID, dir string) (string, ytdlp.Video, error)
	DownloadThumbnail(ctx context.Context, url, path string) error
}

// Transcoder re-encodes an input file at a target bitrate.
type Transcoder interface {
	Encode(ctx context.Context, input, output string, bitrateKbps int) error
}

// Classifier suggests category names for a text. Failures are never fatal.
type Classifier interface {
	Suggest(ctx context.Context, text string) ([]string, error)
}

// RelatednessFunc judges whether a candidate matches a source's topical
// signal. It is a collaborator-supplied predicate.
type RelatednessFunc func(ctx context.Context, snap *Snapshot, src models.Source, title, description string) (bool, error)

// Pipeline bundles the configuration snapshot and the external
// collaborators the stages talk to.
type Pipeline struct {
	Cfg        *config.Config
	Provider   Provider
	Transcoder Transcoder
	Classifier Classifier
	Related    RelatednessFunc
}

func New(cfg *config.Config, provider Provider, transcoder Transcoder, classifier Classifier) *Pipeline {
	p := &Pipeline{
		Cfg:        cfg,
		Provider:   provider,
		Transcoder: transcoder,
		Classifier: classifier,
	}
	p.Related = p.classifierRelatedness
	return p
}

// Snapshot is the read-only reference data a pass works against. Taking it
// up front keeps concurrent passes from racing on the shared lists.
type Snapshot struct {
	Sources     []models.Source
	Categories  []models.Category
	BannedWords []string
}

// LoadSnapshot reads the current reference data from the database.
func LoadSnapshot() (*Snapshot, error) {
	sources, err := db.GetActiveSources()
	if err != nil {
		return nil, err
	}
	categories, err := db.GetAllCategories()
	if err != nil {
		return nil, err
	}
	words, err := db.GetBannedWords()
	if err != nil {
		return nil, err
	}
	return &Snapshot{Sources: sources, Categories: categories, BannedWords: words}, nil
}

// CategoryByName resolves a classifier suggestion to a known category.
func (s *Snapshot) CategoryByName(name string) (models.Category, bool) {
	for _, c := range s.Categories {
		if strings.EqualFold(c.Name, name) {
			return c, true
		}
	}
	return models.Category{}, false
}

// Vocabulary is the controlled tag vocabulary: every category keyword plus
// the category names themselves.
func (s *Snapshot) Vocabulary() []string {
	var vocab []string
	for _, c := range s.Categories {
		vocab = append(vocab, c.Name)
		vocab = append(vocab, c.Keywords...)
	}
	return vocab
}

// classifierRelatedness is the default relatedness predicate: a candidate
// is related when its text matches a category keyword, or when the external
// classifier maps it onto a known category.
func (p *Pipeline) classifierRelatedness(ctx context.Context, snap *Snapshot, src models.Source, title, description string) (bool, error) {
	text := title + "\n" + description
	for _, c := range snap.Categories {
		if matchesKeywords(c, text) {
			return true, nil
		}
	}

	suggestions, err := p.Classifier.Suggest(ctx, text)
	if err != nil {
		// Classifier failure means no suggestion, not rejection of the
		// candidate.
		return false, nil
	}
	for _, name := range suggestions {
		if _, ok := snap.CategoryByName(name); ok {
			return true, nil
		}
	}
	return false, nil
}
