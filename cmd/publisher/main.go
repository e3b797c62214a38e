// The publisher is the external collaborator that consumes scheduled
// episodes: it polls for processed, active, unposted episodes whose slot
// has arrived, posts them to their destination Telegram channel when the
// channel allows auto-posting, and is the sole writer of is_posted.
package main

import (
	"database/sql"
	"errors"
	"log"
	"os"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/joho/godotenv"

	"github.com/pi11/podcaster/internal/config"
	"github.com/pi11/podcaster/internal/db"
)

const (
	pollInterval = 30 * time.Second
	maxFailures  = 3
)

func main() {
	err := godotenv.Load()
	if err != nil {
		log.Println("Error loading .env file")
	}

	cfg := config.Load()
	db.InitDB(cfg.DatabaseURL)

	bot, err := tgbotapi.NewBotAPI(cfg.TelegramToken)
	if err != nil {
		log.Panic(err)
	}
	log.Printf("Authorized on account %s", bot.Self.UserName)

	for {
		postNext(bot)
		time.Sleep(pollInterval)
	}
}

// postNext posts the next due episode, if any.
func postNext(bot *tgbotapi.BotAPI) {
	episode, channel, err := db.NextEpisodeToPost(time.Now())
	if errors.Is(err, sql.ErrNoRows) {
		return
	}
	if err != nil {
		log.Printf("Failed to find episode to post: %v", err)
		return
	}
	if episode.File == nil {
		log.Printf("Episode %d is marked processed but has no file", episode.ID)
		return
	}

	source, err := db.GetSourceByID(episode.SourceID)
	if err != nil {
		log.Printf("Failed to get source %d: %v", episode.SourceID, err)
		return
	}

	categories, err := db.EpisodeCategories(episode.ID)
	if err != nil {
		log.Printf("Failed to get categories for episode %d: %v", episode.ID, err)
	}
	var categoryNames []string
	for _, c := range categories {
		categoryNames = append(categoryNames, c.Name)
	}

	audio := tgbotapi.NewAudio(channel.TgID, tgbotapi.FilePath(*episode.File))
	audio.Caption = BuildCaption(episode.Name, episode.URL, source.Name, categoryNames, episode.Tags)
	audio.Title = episode.Name
	if episode.Thumbnail != nil {
		if _, err := os.Stat(*episode.Thumbnail); err == nil {
			audio.Thumb = tgbotapi.FilePath(*episode.Thumbnail)
		}
	}

	if _, err := bot.Send(audio); err != nil {
		log.Printf("Failed to post episode %d: %v", episode.ID, err)
		failures, ierr := db.IncrementFailedTimes(episode.ID)
		if ierr != nil {
			log.Printf("Failed to record failure for episode %d: %v", episode.ID, ierr)
			return
		}
		if failures > maxFailures {
			log.Printf("Episode %d failed %d times, deactivating", episode.ID, failures)
			db.DeactivateEpisode(episode.ID)
		}
		return
	}

	if err := db.MarkPosted(episode.ID); err != nil {
		log.Printf("Failed to mark episode %d posted: %v", episode.ID, err)
		return
	}
	log.Printf("Posted episode %d (%s) to %s", episode.ID, episode.Name, channel.Name)
}
