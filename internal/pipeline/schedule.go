package pipeline

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/pi11/podcaster/internal/db"
)

// Schedule assigns publication slots to ready episodes, per destination
// channel, in discovery order. Already-scheduled episodes never move.
func (p *Pipeline) Schedule(ctx context.Context, now time.Time, rep *Report) error {
	channels, err := db.GetAllChannels()
	if err != nil {
		return fmt.Errorf("failed to list channels: %w", err)
	}

	for _, ch := range channels {
		if err := ctx.Err(); err != nil {
			return err
		}

		episodes, err := db.EpisodesForScheduling(ch.ID)
		if err != nil {
			rep.Fail("schedule", FailureIntegrity, fmt.Sprintf("channel %d", ch.ID), err)
			continue
		}
		if len(episodes) == 0 {
			continue
		}

		last, err := db.LastScheduledSlot(ch.ID)
		if err != nil {
			rep.Fail("schedule", FailureIntegrity, fmt.Sprintf("channel %d", ch.ID), err)
			continue
		}

		slots := nextSlots(last, now, ch.PostInterval(), len(episodes))
		for i, ep := range episodes {
			subject := episodeSubject(ep.ID, ep.YoutubeID)
			if err := db.SetPublicationDate(ep.ID, slots[i]); err != nil {
				rep.Fail("schedule", FailureIntegrity, subject, err)
				continue
			}
			rep.Add("schedule", subject)
			log.Printf("Scheduled %s for %s on channel %s", subject, slots[i].Format(time.RFC3339), ch.Name)
		}
	}
	return nil
}

// nextSlots computes n publication slots with a fixed cadence: the first
// follows the last already-assigned slot, or starts at now when the channel
// has none pending. Slots are strictly increasing.
func nextSlots(last *time.Time, now time.Time, interval time.Duration, n int) []time.Time {
	next := now
	if last != nil {
		next = last.Add(interval)
	}
	slots := make([]time.Time, n)
	for i := range slots {
		slots[i] = next
		next = next.Add(interval)
	}
	return slots
}
