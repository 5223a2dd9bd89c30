// Command strategist runs the Music League Strategist API server.
package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"time"

	"github.com/loydmilligan/mashboard-strategist/internal/config"
	"github.com/loydmilligan/mashboard-strategist/internal/db"
	"github.com/loydmilligan/mashboard-strategist/internal/league"
	"github.com/loydmilligan/mashboard-strategist/internal/llm"
	"github.com/loydmilligan/mashboard-strategist/internal/playlist"
	"github.com/loydmilligan/mashboard-strategist/internal/spotify"
	"github.com/loydmilligan/mashboard-strategist/internal/web"
	"github.com/loydmilligan/mashboard-strategist/internal/youtube"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	cfg := config.Load()

	sessions, profiles, closeStores, err := buildStores(cfg)
	if err != nil {
		return err
	}
	defer closeStores()

	chat, err := buildChatProvider(cfg)
	if err != nil {
		return err
	}

	orchestrator := playlist.NewOrchestrator(
		[]playlist.PlatformService{
			spotify.NewService(spotify.Credentials{
				ClientID:     cfg.SpotifyID,
				ClientSecret: cfg.SpotifySecret,
				RefreshToken: cfg.SpotifyRefreshToken,
			}),
			youtube.NewService(youtube.Credentials{
				ClientID:     cfg.YouTubeClientID,
				ClientSecret: cfg.YouTubeClientSecret,
				RefreshToken: cfg.YouTubeRefreshToken,
			}),
		},
		playlist.WithSearchDelay(cfg.SearchDelay),
	)

	engine := league.NewEngine(sessions, profiles, chat, orchestrator,
		league.WithModel(cfg.LLMModel),
	)

	server, err := web.NewServer(web.ServerConfig{
		Addr:   cfg.Addr,
		Engine: engine,
	})
	if err != nil {
		return fmt.Errorf("creating server: %w", err)
	}

	return server.Run()
}

// buildStores selects PostgreSQL when DATABASE_URL is set and falls back
// to in-memory stores otherwise.
func buildStores(cfg config.Config) (league.SessionStore, league.ProfileStore, func(), error) {
	if cfg.DatabaseURL == "" {
		log.Println("DATABASE_URL not set, sessions are kept in memory")
		return league.NewMemorySessionStore(), league.NewMemoryProfileStore(), func() {}, nil
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	database, err := db.New(ctx, cfg.DatabaseURL)
	if err != nil {
		return nil, nil, nil, fmt.Errorf("connecting to database: %w", err)
	}
	if err := database.Migrate(ctx); err != nil {
		database.Close()
		return nil, nil, nil, err
	}
	return database.Sessions(), database.Profiles(), database.Close, nil
}

// buildChatProvider wires the configured chat backend. A missing API key
// is not fatal here; turns then fail with a configuration error.
func buildChatProvider(cfg config.Config) (llm.ChatProvider, error) {
	var provider llm.ChatProvider
	var err error

	switch cfg.LLMProvider {
	case config.ProviderOpenAI:
		provider, err = llm.NewOpenAIProvider(cfg.OpenAIAPIKey)
	case config.ProviderAnthropic:
		provider, err = llm.NewAnthropicProvider(cfg.AnthropicAPIKey)
	default:
		return nil, fmt.Errorf("unknown LLM_PROVIDER %q", cfg.LLMProvider)
	}

	if err != nil {
		log.Printf("Chat provider %s unavailable: %v", cfg.LLMProvider, err)
		return nil, nil
	}
	return provider, nil
}
