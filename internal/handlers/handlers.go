// Package handlers is the read-only reporting surface: per-run and stored
// set summaries in record-oriented JSON, plus a podcast feed per channel.
package handlers

import (
	"encoding/json"
	"log"
	"net/http"
	"strconv"

	"github.com/gorilla/mux"

	"github.com/pi11/podcaster/internal/db"
	"github.com/pi11/podcaster/internal/feed"
)

type Handlers struct{}

func New() *Handlers {
	return &Handlers{}
}

func writeJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Printf("Failed to encode response: %v", err)
	}
}

// StatusHandler returns counts over the stored episode set.
func (h *Handlers) StatusHandler(w http.ResponseWriter, r *http.Request) {
	counts, err := db.CountEpisodes()
	if err != nil {
		http.Error(w, "Failed to count episodes", http.StatusInternalServerError)
		return
	}
	writeJSON(w, counts)
}

// EpisodesHandler lists recent episodes with their lifecycle state.
func (h *Handlers) EpisodesHandler(w http.ResponseWriter, r *http.Request) {
	limit := 50
	if v := r.URL.Query().Get("limit"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 && n <= 500 {
			limit = n
		}
	}

	episodes, err := db.RecentEpisodes(limit)
	if err != nil {
		http.Error(w, "Failed to list episodes", http.StatusInternalServerError)
		return
	}

	type episodeView struct {
		ID    int    `json:"id"`
		YtID  string `json:"yt_id"`
		Name  string `json:"name"`
		Stage string `json:"stage"`
	}
	views := make([]episodeView, 0, len(episodes))
	for i := range episodes {
		ep := &episodes[i]
		views = append(views, episodeView{
			ID:    ep.ID,
			YtID:  ep.YoutubeID,
			Name:  ep.Name,
			Stage: ep.Stage().String(),
		})
	}
	writeJSON(w, views)
}

// FeedHandler serves the RSS feed of posted episodes for one channel.
func (h *Handlers) FeedHandler(w http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)
	channelID, err := strconv.Atoi(vars["channelID"])
	if err != nil {
		http.Error(w, "Invalid channel ID", http.StatusBadRequest)
		return
	}

	channel, err := db.GetChannelByID(channelID)
	if err != nil {
		http.Error(w, "Channel not found", http.StatusNotFound)
		return
	}

	episodes, err := db.PostedEpisodesByChannel(channelID, 50)
	if err != nil {
		http.Error(w, "Failed to list episodes", http.StatusInternalServerError)
		return
	}

	rss, err := feed.GenerateRSS(&channel, episodes, r)
	if err != nil {
		http.Error(w, "Failed to generate feed", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/rss+xml")
	w.Write([]byte(rss))
}

// Router wires the reporting routes.
func (h *Handlers) Router() *mux.Router {
	r := mux.NewRouter()
	r.HandleFunc("/api/status", h.StatusHandler).Methods(http.MethodGet)
	r.HandleFunc("/api/episodes", h.EpisodesHandler).Methods(http.MethodGet)
	r.HandleFunc("/rss/{channelID}", h.FeedHandler).Methods(http.MethodGet)
	return r
}
