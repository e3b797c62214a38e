package config

import (
	"os"
	"strconv"
	"strings"
	"time"
)

// Config is a read-only snapshot of the environment taken at startup.
// Pipeline passes receive it explicitly instead of consulting ambient state.
type Config struct {
	DatabaseURL   string
	RedisAddr     string
	MediaDir      string
	MaxAudioSize  int64 // publishing size ceiling in bytes
	BitrateLadder []int // descending re-encode targets in kbps
	AudioQuality  string
	MaxTags       int
	Retries       int
	RetryDelay    time.Duration
	Concurrency   int
	ClassifierURL string
	TelegramToken string
	Port          string
	BaseURL       string
}

// Load reads configuration from the environment, applying defaults for
// anything unset. It never fails: a missing DATABASE_URL is caught by
// db.InitDB, which is the first thing every binary does with it.
func Load() *Config {
	return &Config{
		DatabaseURL:   os.Getenv("DATABASE_URL"),
		RedisAddr:     getEnv("REDIS_ADDR", "127.0.0.1:6379"),
		MediaDir:      getEnv("MEDIA_DIR", "media"),
		MaxAudioSize:  getEnvInt64("MAX_AUDIO_SIZE", 50*1000*1000),
		BitrateLadder: getEnvInts("BITRATE_LADDER", []int{96, 64}),
		AudioQuality:  getEnv("AUDIO_QUALITY", "64"),
		MaxTags:       getEnvInt("MAX_TAGS", 8),
		Retries:       getEnvInt("DOWNLOAD_RETRIES", 3),
		RetryDelay:    time.Duration(getEnvInt("RETRY_DELAY_SECONDS", 5)) * time.Second,
		Concurrency:   getEnvInt("PIPELINE_CONCURRENCY", 2),
		ClassifierURL: os.Getenv("CLASSIFIER_URL"),
		TelegramToken: os.Getenv("TELEGRAM_BOT_TOKEN"),
		Port:          getEnv("PORT", "8080"),
		BaseURL:       os.Getenv("BASE_URL"),
	}
}

func getEnv(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func getEnvInt(key string, def int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return def
}

func getEnvInt64(key string, def int64) int64 {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.ParseInt(v, 10, 64); err == nil {
			return n
		}
	}
	return def
}

// getEnvInts parses a comma-separated list, e.g. BITRATE_LADDER=96,64.
func getEnvInts(key string, def []int) []int {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	var out []int
	for _, part := range strings.Split(v, ",") {
		n, err := strconv.Atoi(strings.TrimSpace(part))
		if err != nil {
			return def
		}
		out = append(out, n)
	}
	if len(out) == 0 {
		return def
	}
	return out
}
