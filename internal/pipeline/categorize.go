package pipeline

import (
	"context"
	"fmt"
	"log"

	"github.com/pi11/podcaster/internal/db"
	"github.com/pi11/podcaster/internal/models"
)

// Categorize assigns categories to processed episodes: keyword matches in
// category definition order, then classifier-only suggestions restricted to
// known categories. A banned word surfacing here deactivates the episode,
// since this is the last gate before scheduling.
func (p *Pipeline) Categorize(ctx context.Context, snap *Snapshot, rep *Report, force bool) error {
	episodes, err := db.EpisodesForCategorization(force)
	if err != nil {
		return fmt.Errorf("failed to list episodes for categorization: %w", err)
	}

	for _, ep := range episodes {
		if err := ctx.Err(); err != nil {
			return err
		}
		p.CategorizeEpisode(ctx, snap, ep, rep)
	}
	return nil
}

func (p *Pipeline) CategorizeEpisode(ctx context.Context, snap *Snapshot, ep models.Episode, rep *Report) {
	subject := episodeSubject(ep.ID, ep.YoutubeID)
	text := ep.Name + "\n" + ep.Description

	if word, found := containsBannedWord(snap.BannedWords, text); found {
		log.Printf("Deactivating %s: banned word %q", subject, word)
		rep.Fail("categorize", FailureValidation, subject, fmt.Errorf("banned word %q", word))
		if err := db.DeactivateEpisode(ep.ID); err != nil {
			rep.Fail("categorize", FailureIntegrity, subject, err)
		}
		return
	}

	ids := CategoryIDs(ctx, snap, p.Classifier, text)
	if err := db.AssignCategories(ep.ID, ids); err != nil {
		rep.Fail("categorize", FailureIntegrity, subject, err)
		return
	}
	rep.Add("categorize", subject)
	log.Printf("Categorized %s: %d categories", subject, len(ids))
}

// CategoryIDs combines the two signals: rule-based keyword matches first,
// then classifier suggestions that name known categories. Classifier
// failure degrades to no suggestion.
func CategoryIDs(ctx context.Context, snap *Snapshot, classifier Classifier, text string) []int {
	var ids []int
	seen := map[int]bool{}

	for _, c := range snap.Categories {
		if matchesKeywords(c, text) {
			ids = append(ids, c.ID)
			seen[c.ID] = true
		}
	}

	suggestions, err := classifier.Suggest(ctx, text)
	if err != nil {
		log.Printf("Classifier failed, continuing without suggestions: %v", err)
		return ids
	}
	for _, name := range suggestions {
		c, ok := snap.CategoryByName(name)
		if !ok || seen[c.ID] {
			continue
		}
		ids = append(ids, c.ID)
		seen[c.ID] = true
	}
	return ids
}
