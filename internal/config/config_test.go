package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestLoadDefaults(t *testing.T) {
	t.Setenv("MEDIA_DIR", "")
	t.Setenv("MAX_AUDIO_SIZE", "")
	t.Setenv("BITRATE_LADDER", "")

	cfg := Load()

	assert.Equal(t, "media", cfg.MediaDir)
	assert.Equal(t, int64(50_000_000), cfg.MaxAudioSize)
	assert.Equal(t, []int{96, 64}, cfg.BitrateLadder)
	assert.Equal(t, 8, cfg.MaxTags)
	assert.Equal(t, 3, cfg.Retries)
	assert.Equal(t, 5*time.Second, cfg.RetryDelay)
}

func TestLoadBitrateLadder(t *testing.T) {
	t.Setenv("BITRATE_LADDER", "128, 96,64")
	assert.Equal(t, []int{128, 96, 64}, Load().BitrateLadder)

	t.Setenv("BITRATE_LADDER", "128,notanumber")
	assert.Equal(t, []int{96, 64}, Load().BitrateLadder)
}

func TestLoadOverrides(t *testing.T) {
	t.Setenv("MAX_AUDIO_SIZE", "25000000")
	t.Setenv("DOWNLOAD_RETRIES", "1")

	cfg := Load()

	assert.Equal(t, int64(25_000_000), cfg.MaxAudioSize)
	assert.Equal(t, 1, cfg.Retries)
}
