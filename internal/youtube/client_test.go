package youtube

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/loydmilligan/mashboard-strategist/internal/playlist"
)

func newTestService(t *testing.T, handler http.Handler) *Service {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)
	return &Service{
		creds:      Credentials{ClientID: "id", ClientSecret: "secret", RefreshToken: "rt"},
		httpClient: &http.Client{Timeout: 5 * time.Second},
		baseURL:    server.URL,
	}
}

func TestCheckConfiguration(t *testing.T) {
	incomplete := NewService(Credentials{ClientID: "id"})
	if cfg := incomplete.CheckConfiguration(context.Background()); cfg.Configured {
		t.Error("incomplete credentials reported as configured")
	} else if cfg.Reason == "" {
		t.Error("missing configuration reason")
	}

	complete := NewService(Credentials{ClientID: "id", ClientSecret: "s", RefreshToken: "rt"})
	if cfg := complete.CheckConfiguration(context.Background()); !cfg.Configured {
		t.Error("complete credentials reported as unconfigured")
	}
}

func TestSearchTrack(t *testing.T) {
	svc := newTestService(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/search" {
			t.Errorf("path = %q", r.URL.Path)
		}
		if got := r.URL.Query().Get("q"); got != "Take On Me a-ha" {
			t.Errorf("q = %q", got)
		}
		if got := r.URL.Query().Get("type"); got != "video" {
			t.Errorf("type = %q", got)
		}
		json.NewEncoder(w).Encode(searchResponse{Items: []searchItem{
			{ID: searchItemID{VideoID: "abc123"}, Snippet: snippet{Title: "Take On Me", ChannelTitle: "a-ha"}},
			{ID: searchItemID{}, Snippet: snippet{Title: "playlist result, no video"}},
		}})
	}))

	refs, err := svc.SearchTrack(context.Background(), "Take On Me", "a-ha")
	if err != nil {
		t.Fatalf("SearchTrack: %v", err)
	}
	if len(refs) != 1 {
		t.Fatalf("refs length = %d, want videoless item dropped", len(refs))
	}
	want := playlist.TrackRef{
		VideoID: "abc123",
		Title:   "Take On Me",
		Artist:  "a-ha",
		URL:     "https://music.youtube.com/watch?v=abc123",
	}
	if refs[0] != want {
		t.Errorf("refs[0] = %+v, want %+v", refs[0], want)
	}
}

func TestSearchTrackAPIError(t *testing.T) {
	svc := newTestService(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusForbidden)
		json.NewEncoder(w).Encode(map[string]any{
			"error": map[string]any{"code": 403, "message": "quotaExceeded"},
		})
	}))

	_, err := svc.SearchTrack(context.Background(), "x", "y")
	if err == nil || !strings.Contains(err.Error(), "quotaExceeded") {
		t.Fatalf("err = %v, want API message surfaced", err)
	}
}

func TestCreatePlaylist(t *testing.T) {
	var itemInserts []string
	svc := newTestService(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/playlists":
			var body struct {
				Snippet struct {
					Title       string `json:"title"`
					Description string `json:"description"`
				} `json:"snippet"`
				Status struct {
					PrivacyStatus string `json:"privacyStatus"`
				} `json:"status"`
			}
			if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
				t.Fatal(err)
			}
			if body.Snippet.Title != "80s Bangers" {
				t.Errorf("title = %q", body.Snippet.Title)
			}
			if body.Status.PrivacyStatus != "private" {
				t.Errorf("privacyStatus = %q", body.Status.PrivacyStatus)
			}
			json.NewEncoder(w).Encode(playlistResponse{ID: "PL9"})
		case "/playlistItems":
			var body struct {
				Snippet struct {
					PlaylistID string `json:"playlistId"`
					ResourceID struct {
						VideoID string `json:"videoId"`
					} `json:"resourceId"`
				} `json:"snippet"`
			}
			if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
				t.Fatal(err)
			}
			if body.Snippet.PlaylistID != "PL9" {
				t.Errorf("playlistId = %q", body.Snippet.PlaylistID)
			}
			itemInserts = append(itemInserts, body.Snippet.ResourceID.VideoID)
			w.Write([]byte("{}"))
		default:
			t.Errorf("unexpected path %q", r.URL.Path)
		}
	}))

	created, err := svc.CreatePlaylist(context.Background(), "80s Bangers", "an upbeat set", []playlist.TrackRef{
		{VideoID: "v1"},
		{Title: "no video id, skipped"},
		{VideoID: "v2"},
	})
	if err != nil {
		t.Fatalf("CreatePlaylist: %v", err)
	}
	if created.ID != "PL9" {
		t.Errorf("ID = %q", created.ID)
	}
	if created.URL != "https://music.youtube.com/playlist?list=PL9" {
		t.Errorf("URL = %q", created.URL)
	}
	if len(itemInserts) != 2 || itemInserts[0] != "v1" || itemInserts[1] != "v2" {
		t.Errorf("item inserts = %v", itemInserts)
	}
}

func TestSearchURL(t *testing.T) {
	svc := NewService(Credentials{})
	got := svc.SearchURL("Blue Monday", "New Order")
	if !strings.HasPrefix(got, "https://music.youtube.com/search?") {
		t.Fatalf("SearchURL = %q", got)
	}
	if !strings.Contains(got, "Blue+Monday+New+Order") {
		t.Errorf("SearchURL = %q, want encoded query", got)
	}
}
