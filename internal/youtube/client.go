// Package youtube provides the YouTube Music playlist platform service
// over the YouTube Data API v3.
package youtube

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"golang.org/x/oauth2"

	"github.com/loydmilligan/mashboard-strategist/internal/playlist"
)

const (
	defaultBaseURL = "https://www.googleapis.com/youtube/v3"
	tokenURL       = "https://oauth2.googleapis.com/token"
)

// ErrMissingCredentials is returned when the YouTube integration is not
// fully configured.
var ErrMissingCredentials = errors.New("missing YOUTUBE_CLIENT_ID, YOUTUBE_CLIENT_SECRET, or YOUTUBE_REFRESH_TOKEN")

// Credentials configure the refresh-token OAuth flow.
type Credentials struct {
	ClientID     string
	ClientSecret string
	RefreshToken string
}

func (c Credentials) complete() bool {
	return c.ClientID != "" && c.ClientSecret != "" && c.RefreshToken != ""
}

// Service implements playlist.PlatformService for YouTube.
type Service struct {
	creds      Credentials
	httpClient *http.Client
	baseURL    string
}

// NewService creates a YouTube service from credentials. The HTTP
// client exchanges the refresh token for access tokens transparently.
func NewService(creds Credentials) *Service {
	s := &Service{
		creds:   creds,
		baseURL: defaultBaseURL,
	}
	if creds.complete() {
		cfg := &oauth2.Config{
			ClientID:     creds.ClientID,
			ClientSecret: creds.ClientSecret,
			Endpoint:     oauth2.Endpoint{TokenURL: tokenURL},
		}
		token := &oauth2.Token{
			RefreshToken: creds.RefreshToken,
			Expiry:       time.Now().Add(-time.Hour),
		}
		s.httpClient = cfg.Client(context.Background(), token)
		s.httpClient.Timeout = 15 * time.Second
	} else {
		s.httpClient = &http.Client{Timeout: 15 * time.Second}
	}
	return s
}

// Name identifies the platform.
func (s *Service) Name() string { return "youtube" }

// CheckConfiguration reports whether playlist creation can proceed.
func (s *Service) CheckConfiguration(_ context.Context) playlist.Configuration {
	if !s.creds.complete() {
		return playlist.Configuration{Reason: ErrMissingCredentials.Error()}
	}
	return playlist.Configuration{Configured: true}
}

// SearchURL builds the public search page URL used by the degraded
// fallback path.
func (s *Service) SearchURL(title, artist string) string {
	q := url.Values{"search_query": {title + " " + artist}}
	return "https://music.youtube.com/search?" + q.Encode()
}

// SearchTrack looks up candidate videos by title and artist.
func (s *Service) SearchTrack(ctx context.Context, title, artist string) ([]playlist.TrackRef, error) {
	params := url.Values{
		"part":       {"snippet"},
		"type":       {"video"},
		"maxResults": {"5"},
		"q":          {title + " " + artist},
	}

	var resp searchResponse
	if err := s.get(ctx, "/search", params, &resp); err != nil {
		return nil, fmt.Errorf("searching video: %w", err)
	}

	refs := make([]playlist.TrackRef, 0, len(resp.Items))
	for _, item := range resp.Items {
		if item.ID.VideoID == "" {
			continue
		}
		refs = append(refs, playlist.TrackRef{
			VideoID: item.ID.VideoID,
			Title:   item.Snippet.Title,
			Artist:  item.Snippet.ChannelTitle,
			URL:     "https://music.youtube.com/watch?v=" + item.ID.VideoID,
		})
	}
	return refs, nil
}

// CreatePlaylist creates a private playlist and inserts the resolved
// videos. The Data API has no batch insert, so items go in one by one;
// this loop is the platform's "batch" step.
func (s *Service) CreatePlaylist(ctx context.Context, title, description string, tracks []playlist.TrackRef) (*playlist.CreatedPlaylist, error) {
	body := map[string]any{
		"snippet": map[string]any{
			"title":       title,
			"description": description,
		},
		"status": map[string]any{"privacyStatus": "private"},
	}

	var created playlistResponse
	if err := s.post(ctx, "/playlists", url.Values{"part": {"snippet,status"}}, body, &created); err != nil {
		return nil, fmt.Errorf("creating playlist: %w", err)
	}

	for _, t := range tracks {
		if t.VideoID == "" {
			continue
		}
		item := map[string]any{
			"snippet": map[string]any{
				"playlistId": created.ID,
				"resourceId": map[string]any{
					"kind":    "youtube#video",
					"videoId": t.VideoID,
				},
			},
		}
		if err := s.post(ctx, "/playlistItems", url.Values{"part": {"snippet"}}, item, nil); err != nil {
			return nil, fmt.Errorf("adding video %s: %w", t.VideoID, err)
		}
	}

	return &playlist.CreatedPlaylist{
		ID:  created.ID,
		URL: "https://music.youtube.com/playlist?list=" + created.ID,
	}, nil
}

func (s *Service) get(ctx context.Context, path string, params url.Values, out any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, s.baseURL+path+"?"+params.Encode(), nil)
	if err != nil {
		return fmt.Errorf("creating request: %w", err)
	}
	return s.do(req, out)
}

func (s *Service) post(ctx context.Context, path string, params url.Values, body, out any) error {
	buf, err := json.Marshal(body)
	if err != nil {
		return fmt.Errorf("encoding request body: %w", err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.baseURL+path+"?"+params.Encode(), bytes.NewReader(buf))
	if err != nil {
		return fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	return s.do(req, out)
}

func (s *Service) do(req *http.Request, out any) error {
	resp, err := s.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("executing request: %w", err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("reading response body: %w", err)
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return apiErrorFrom(resp.StatusCode, data)
	}
	if out == nil {
		return nil
	}
	if err := json.Unmarshal(data, out); err != nil {
		return fmt.Errorf("parsing response: %w", err)
	}
	return nil
}

func apiErrorFrom(status int, data []byte) error {
	var e apiError
	if err := json.Unmarshal(data, &e); err == nil && e.Error.Message != "" {
		return fmt.Errorf("API error %d: %s", status, e.Error.Message)
	}
	return fmt.Errorf("API error %d", status)
}

var _ playlist.PlatformService = (*Service)(nil)
