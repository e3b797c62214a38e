// Package ytdlp wraps the yt-dlp binary: channel listings, per-video
// metadata, and audio downloads. It is the pipeline's video-info/fetch
// provider.
package ytdlp

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"os/exec"
	"path/filepath"
	"strconv"
	"strings"

	"golang.org/x/time/rate"
)

var execCommandContext = exec.CommandContext

// Video is candidate metadata returned by yt-dlp.
type Video struct {
	ID          string  `json:"id"`
	Title       string  `json:"title"`
	Description string  `json:"description"`
	Duration    float64 `json:"duration"`
	UploadDate  string  `json:"upload_date"`
	Thumbnail   string  `json:"thumbnail"`
	Channel     string  `json:"channel"`
	Filename    string  `json:"_filename"`
}

// URL returns the canonical watch URL for the video.
func (v Video) URL() string {
	return "https://www.youtube.com/watch?v=" + v.ID
}

// Client shells out to yt-dlp. A shared rate limiter keeps the pipeline
// gentle with YouTube even when passes run concurrently.
type Client struct {
	quality    string
	limiter    *rate.Limiter
	httpClient *http.Client
}

func New(quality string) *Client {
	return &Client{
		quality:    quality,
		limiter:    rate.NewLimiter(rate.Limit(0.5), 1),
		httpClient: http.DefaultClient,
	}
}

// ListChannel returns up to limit newest-first candidates for a channel URL.
func (c *Client) ListChannel(ctx context.Context, channelURL string, limit int) ([]Video, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return nil, err
	}

	cmd := execCommandContext(ctx, "yt-dlp",
		"--dump-json",
		"--flat-playlist",
		"--playlist-end", strconv.Itoa(limit),
		channelURL,
	)
	output, err := cmd.Output()
	if err != nil {
		return nil, fmt.Errorf("failed to list channel %s: %w", channelURL, err)
	}

	// One JSON object per line.
	var videos []Video
	for _, line := range strings.Split(strings.TrimSpace(string(output)), "\n") {
		if line == "" {
			continue
		}
		var v Video
		if err := json.Unmarshal([]byte(line), &v); err != nil {
			return nil, fmt.Errorf("failed to unmarshal playlist entry: %w", err)
		}
		videos = append(videos, v)
	}
	return videos, nil
}

// VideoInfo fetches full metadata for one video without downloading it.
func (c *Client) VideoInfo(ctx context.Context, videoID string) (Video, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return Video{}, err
	}

	cmd := execCommandContext(ctx, "yt-dlp",
		"--dump-json",
		"--no-playlist",
		"https://www.youtube.com/watch?v="+videoID,
	)
	output, err := cmd.Output()
	if err != nil {
		return Video{}, fmt.Errorf("failed to get info for %s: %w", videoID, err)
	}

	var v Video
	if err := json.Unmarshal(output, &v); err != nil {
		return Video{}, fmt.Errorf("failed to unmarshal video info: %w", err)
	}
	return v, nil
}

// DownloadAudio extracts the audio stream as MP3 into dir, keyed by the
// video id so a re-invocation overwrites rather than duplicates. It returns
// the output path and the metadata yt-dlp reported for the download.
func (c *Client) DownloadAudio(ctx context.Context, videoID, dir string) (string, Video, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return "", Video{}, err
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", Video{}, fmt.Errorf("failed to create media dir: %w", err)
	}

	cmd := execCommandContext(ctx, "yt-dlp",
		"-f", "bestaudio",
		"--extract-audio",
		"--audio-format", "mp3",
		"--audio-quality", c.quality,
		"--no-playlist",
		"--print-json",
		"-o", filepath.Join(dir, "%(id)s.%(ext)s"),
		"https://www.youtube.com/watch?v="+videoID,
	)
	output, err := cmd.CombinedOutput()
	if err != nil {
		return "", Video{}, fmt.Errorf("failed to download %s: %w, output: %s", videoID, err, string(output))
	}

	// yt-dlp sometimes prints other things before the JSON.
	jsonStart := strings.Index(string(output), "{")
	if jsonStart == -1 {
		return "", Video{}, fmt.Errorf("no JSON found in yt-dlp output for %s", videoID)
	}
	var v Video
	if err := json.Unmarshal(output[jsonStart:], &v); err != nil {
		return "", Video{}, fmt.Errorf("failed to unmarshal yt-dlp output: %w", err)
	}

	path := filepath.Join(dir, videoID+".mp3")
	if _, err := os.Stat(path); err != nil {
		return "", Video{}, fmt.Errorf("download succeeded but file not found: %s", path)
	}
	return path, v, nil
}

// DownloadThumbnail stores the episode artwork beside the audio file.
func (c *Client) DownloadThumbnail(ctx context.Context, url, path string) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return err
	}
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("failed to fetch thumbnail: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("thumbnail fetch returned status %d", resp.StatusCode)
	}

	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()

	if _, err := io.Copy(f, resp.Body); err != nil {
		return fmt.Errorf("failed to write thumbnail: %w", err)
	}
	return nil
}
