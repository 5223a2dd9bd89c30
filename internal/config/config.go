// Package config loads configuration from the environment for the
// Music League Strategist.
package config

import (
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

// Provider identifies a chat-completion backend.
type Provider string

const (
	ProviderAnthropic Provider = "anthropic"
	ProviderOpenAI    Provider = "openai"
)

// Defaults applied when the environment leaves a value unset.
const (
	DefaultAddr        = "127.0.0.1:8080"
	DefaultSearchDelay = 350 * time.Millisecond
)

// Config holds everything the strategist needs to run.
type Config struct {
	Addr        string
	DatabaseURL string

	// Chat provider
	LLMProvider     Provider
	LLMModel        string
	AnthropicAPIKey string
	OpenAIAPIKey    string

	// Spotify integration
	SpotifyID           string
	SpotifySecret       string
	SpotifyRefreshToken string

	// YouTube integration
	YouTubeClientID     string
	YouTubeClientSecret string
	YouTubeRefreshToken string

	// Fixed delay between external search calls.
	SearchDelay time.Duration
}

func init() {
	_ = godotenv.Load()
}

// Load reads configuration from the environment.
func Load() Config {
	provider := Provider(os.Getenv("LLM_PROVIDER"))
	if provider == "" {
		provider = ProviderAnthropic
	}

	delay := DefaultSearchDelay
	if ms, err := strconv.Atoi(os.Getenv("SEARCH_DELAY_MS")); err == nil && ms > 0 {
		delay = time.Duration(ms) * time.Millisecond
	}

	return Config{
		Addr:        firstNonEmpty(os.Getenv("STRATEGIST_ADDR"), DefaultAddr),
		DatabaseURL: os.Getenv("DATABASE_URL"),

		LLMProvider:     provider,
		LLMModel:        os.Getenv("LLM_MODEL"),
		AnthropicAPIKey: os.Getenv("ANTHROPIC_API_KEY"),
		OpenAIAPIKey:    os.Getenv("OPENAI_API_KEY"),

		SpotifyID:           os.Getenv("SPOTIFY_ID"),
		SpotifySecret:       os.Getenv("SPOTIFY_SECRET"),
		SpotifyRefreshToken: os.Getenv("SPOTIFY_REFRESH_TOKEN"),

		YouTubeClientID:     os.Getenv("YOUTUBE_CLIENT_ID"),
		YouTubeClientSecret: os.Getenv("YOUTUBE_CLIENT_SECRET"),
		YouTubeRefreshToken: os.Getenv("YOUTUBE_REFRESH_TOKEN"),

		SearchDelay: delay,
	}
}

// ChatAPIKey returns the API key for the configured chat provider.
func (c Config) ChatAPIKey() string {
	switch c.LLMProvider {
	case ProviderOpenAI:
		return c.OpenAIAPIKey
	default:
		return c.AnthropicAPIKey
	}
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}
