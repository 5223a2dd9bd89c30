// Package spotify provides the Spotify playlist platform service,
// wrapping the Spotify Web API.
package spotify

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"sync"
	"time"

	"github.com/zmb3/spotify/v2"
	spotifyauth "github.com/zmb3/spotify/v2/auth"
	"golang.org/x/oauth2"

	"github.com/loydmilligan/mashboard-strategist/internal/playlist"
)

// ErrMissingCredentials is returned when the Spotify integration is not
// fully configured.
var ErrMissingCredentials = errors.New("missing SPOTIFY_ID, SPOTIFY_SECRET, or SPOTIFY_REFRESH_TOKEN")

// Credentials configure the refresh-token OAuth flow.
type Credentials struct {
	ClientID     string
	ClientSecret string
	RefreshToken string
}

func (c Credentials) complete() bool {
	return c.ClientID != "" && c.ClientSecret != "" && c.RefreshToken != ""
}

// Service implements playlist.PlatformService for Spotify. The API
// client and user ID are resolved lazily on first use; the oauth2 layer
// exchanges the refresh token for access tokens as needed.
type Service struct {
	creds Credentials

	mu     sync.Mutex
	api    *spotify.Client
	userID string
}

// NewService creates a Spotify service from credentials. Construction
// never fails; an incomplete configuration surfaces through
// CheckConfiguration and the degradation path instead.
func NewService(creds Credentials) *Service {
	return &Service{creds: creds}
}

// Name identifies the platform.
func (s *Service) Name() string { return "spotify" }

// CheckConfiguration reports whether playlist creation can proceed.
func (s *Service) CheckConfiguration(_ context.Context) playlist.Configuration {
	if !s.creds.complete() {
		return playlist.Configuration{Reason: ErrMissingCredentials.Error()}
	}
	return playlist.Configuration{Configured: true}
}

// client returns the authenticated API client, building it on first use.
func (s *Service) client(ctx context.Context) (*spotify.Client, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.api != nil {
		return s.api, nil
	}
	if !s.creds.complete() {
		return nil, ErrMissingCredentials
	}

	auth := spotifyauth.New(
		spotifyauth.WithClientID(s.creds.ClientID),
		spotifyauth.WithClientSecret(s.creds.ClientSecret),
		spotifyauth.WithScopes(
			spotifyauth.ScopePlaylistModifyPublic,
			spotifyauth.ScopePlaylistModifyPrivate,
		),
	)

	// An already-expired token forces an immediate refresh exchange.
	token := &oauth2.Token{
		RefreshToken: s.creds.RefreshToken,
		Expiry:       time.Now().Add(-time.Hour),
	}

	s.api = spotify.New(auth.Client(ctx, token), spotify.WithRetry(true))
	return s.api, nil
}

// currentUserID resolves and caches the owning user's Spotify ID.
func (s *Service) currentUserID(ctx context.Context, api *spotify.Client) (string, error) {
	s.mu.Lock()
	cached := s.userID
	s.mu.Unlock()
	if cached != "" {
		return cached, nil
	}

	user, err := api.CurrentUser(ctx)
	if err != nil {
		return "", fmt.Errorf("getting current user: %w", err)
	}

	s.mu.Lock()
	s.userID = user.ID
	s.mu.Unlock()
	return user.ID, nil
}

// SearchURL builds the public search page URL used by the degraded
// fallback path.
func (s *Service) SearchURL(title, artist string) string {
	return "https://open.spotify.com/search/" + url.PathEscape(title+" "+artist)
}

var _ playlist.PlatformService = (*Service)(nil)
