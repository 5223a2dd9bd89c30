package playlist

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/loydmilligan/mashboard-strategist/internal/songs"
)

// fakePlatform is a scriptable PlatformService.
type fakePlatform struct {
	name          string
	configured    bool
	reason        string
	searchResults map[string][]TrackRef
	searchErr     error
	searchCalls   int
	created       *CreatedPlaylist
	createErr     error
	createCalls   int
	gotTracks     []TrackRef
	gotTitle      string
	gotDesc       string
}

func (f *fakePlatform) Name() string { return f.name }

func (f *fakePlatform) CheckConfiguration(_ context.Context) Configuration {
	return Configuration{Configured: f.configured, Reason: f.reason}
}

func (f *fakePlatform) SearchTrack(_ context.Context, title, artist string) ([]TrackRef, error) {
	f.searchCalls++
	if f.searchErr != nil {
		return nil, f.searchErr
	}
	return f.searchResults[title+"|"+artist], nil
}

func (f *fakePlatform) CreatePlaylist(_ context.Context, title, description string, tracks []TrackRef) (*CreatedPlaylist, error) {
	f.createCalls++
	f.gotTitle = title
	f.gotDesc = description
	f.gotTracks = tracks
	if f.createErr != nil {
		return nil, f.createErr
	}
	return f.created, nil
}

func (f *fakePlatform) SearchURL(title, artist string) string {
	return fmt.Sprintf("https://%s.example/search?q=%s+%s", f.name, title, artist)
}

func newTestOrchestrator(svc PlatformService) *Orchestrator {
	return NewOrchestrator(
		[]PlatformService{svc},
		WithSearchDelay(time.Microsecond),
		WithLogger(func(string, ...any) {}),
	)
}

func TestCreateUnknownPlatform(t *testing.T) {
	o := newTestOrchestrator(&fakePlatform{name: "spotify"})
	_, err := o.Create(context.Background(), "tidal", "t", "d", nil)
	if err == nil || !strings.Contains(err.Error(), "tidal") {
		t.Fatalf("err = %v, want unknown platform error", err)
	}
}

func TestCreateDegradesWhenUnconfigured(t *testing.T) {
	svc := &fakePlatform{name: "spotify", reason: "missing SPOTIFY_ID"}
	o := newTestOrchestrator(svc)

	candidates := []songs.Song{
		{Title: "Take On Me", Artist: "a-ha"},
		{Title: "Tainted Love", Artist: "Soft Cell"},
	}
	outcome, err := o.Create(context.Background(), "spotify", "80s", "", candidates)
	if err != nil {
		t.Fatalf("Create: %v", err)
	}

	if !outcome.Degraded {
		t.Fatal("outcome not degraded")
	}
	if svc.createCalls != 0 {
		t.Errorf("CreatePlaylist calls = %d, want 0", svc.createCalls)
	}
	if svc.searchCalls != 0 {
		t.Errorf("SearchTrack calls = %d, want 0", svc.searchCalls)
	}
	if len(outcome.SearchLinks) != 2 {
		t.Fatalf("SearchLinks length = %d, want 2", len(outcome.SearchLinks))
	}
	if outcome.SearchLinks[0].OpenAfter != 0 {
		t.Errorf("SearchLinks[0].OpenAfter = %v, want 0", outcome.SearchLinks[0].OpenAfter)
	}
	if outcome.SearchLinks[1].OpenAfter != linkStagger {
		t.Errorf("SearchLinks[1].OpenAfter = %v, want %v", outcome.SearchLinks[1].OpenAfter, linkStagger)
	}
	if !strings.Contains(outcome.Message, "missing SPOTIFY_ID") {
		t.Errorf("Message = %q, want configuration reason included", outcome.Message)
	}
}

func TestCreateResolvesAndCreates(t *testing.T) {
	svc := &fakePlatform{
		name:       "spotify",
		configured: true,
		searchResults: map[string][]TrackRef{
			"Take On Me|a-ha": {
				{ID: "wrong", Title: "Take On Me (Karaoke Version)", Artist: "Karaoke Legends"},
				{ID: "right", Title: "Take On Me", Artist: "a-ha"},
			},
		},
		created: &CreatedPlaylist{ID: "pl1", URL: "https://open.spotify.com/playlist/pl1"},
	}
	o := newTestOrchestrator(svc)

	candidates := []songs.Song{
		{Title: "Take On Me", Artist: "a-ha"},
		{Title: "Preset", Artist: "Band", TrackID: "preset-id", TrackURI: "spotify:track:preset-id"},
		{Title: "Unfindable", Artist: "Ghost"},
	}
	outcome, err := o.Create(context.Background(), "spotify", "80s bangers", "an upbeat set", candidates)
	if err != nil {
		t.Fatalf("Create: %v", err)
	}

	if outcome.Degraded {
		t.Fatal("outcome degraded unexpectedly")
	}
	if outcome.Record == nil || outcome.Record.ID != "pl1" {
		t.Fatalf("Record = %+v", outcome.Record)
	}

	// Preset references skip the search; unresolvable candidates are
	// skipped, not fatal.
	if svc.searchCalls != 2 {
		t.Errorf("SearchTrack calls = %d, want 2", svc.searchCalls)
	}
	if len(svc.gotTracks) != 2 {
		t.Fatalf("tracks added = %d, want 2", len(svc.gotTracks))
	}
	if svc.gotTracks[0].ID != "right" {
		t.Errorf("best match ID = %q, want %q", svc.gotTracks[0].ID, "right")
	}
	if svc.gotTracks[1].ID != "preset-id" {
		t.Errorf("preset ID = %q, want preset-id", svc.gotTracks[1].ID)
	}
	if !strings.Contains(outcome.Message, "1 candidate(s) could not be resolved") {
		t.Errorf("Message = %q, want skipped note", outcome.Message)
	}
}

func TestCreateSearchErrorSkips(t *testing.T) {
	svc := &fakePlatform{
		name:       "spotify",
		configured: true,
		searchErr:  errors.New("api down"),
		created:    &CreatedPlaylist{ID: "pl1", URL: "u"},
	}
	o := newTestOrchestrator(svc)

	outcome, err := o.Create(context.Background(), "spotify", "t", "", []songs.Song{
		{Title: "A", Artist: "One"},
	})
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	if len(svc.gotTracks) != 0 {
		t.Errorf("tracks added = %d, want 0", len(svc.gotTracks))
	}
	if outcome.Record == nil {
		t.Fatal("playlist still created with zero resolvable tracks")
	}
}

func TestCreatePlaylistError(t *testing.T) {
	svc := &fakePlatform{
		name:       "spotify",
		configured: true,
		createErr:  errors.New("quota exceeded"),
	}
	o := newTestOrchestrator(svc)

	_, err := o.Create(context.Background(), "spotify", "t", "", []songs.Song{
		{Title: "A", Artist: "One", TrackID: "x"},
	})
	if err == nil || !strings.Contains(err.Error(), "quota exceeded") {
		t.Fatalf("err = %v, want creation error surfaced", err)
	}
}

func TestBestMatchThreshold(t *testing.T) {
	song := songs.Song{Title: "Blue Monday", Artist: "New Order"}

	_, ok := bestMatch(song, []TrackRef{
		{Title: "Completely Different Song", Artist: "Someone Else"},
	})
	if ok {
		t.Error("bestMatch accepted a far-off result")
	}

	got, ok := bestMatch(song, []TrackRef{
		{ID: "x", Title: "Blue Monday - 2016 Remaster", Artist: "New Order"},
	})
	if !ok {
		t.Fatal("bestMatch rejected a close result")
	}
	if got.ID != "x" {
		t.Errorf("ID = %q", got.ID)
	}
}

func TestSanitizeTitle(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{"plain", "80s Bangers", "80s Bangers"},
		{"first line only", "80s Bangers\nwith a subtitle", "80s Bangers"},
		{"strips specials", "Songs <script>about|rain#", "Songs scriptaboutrain"},
		{"keeps punctuation", "Don't Stop Me Now - Vol. 2!", "Don't Stop Me Now - Vol. 2!"},
		{"empty falls back", "###", "Music League Round"},
		{"caps length", strings.Repeat("a", 150), strings.Repeat("a", 100)},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := SanitizeTitle(tt.in); got != tt.want {
				t.Errorf("SanitizeTitle(%q) = %q, want %q", tt.in, got, tt.want)
			}
		})
	}
}

func TestSanitizeDescription(t *testing.T) {
	in := "line one\nline two\t\tand   more"
	want := "line one line two and more"
	if got := SanitizeDescription(in); got != want {
		t.Errorf("SanitizeDescription = %q, want %q", got, want)
	}

	long := strings.Repeat("b", 400)
	if got := SanitizeDescription(long); len(got) != 300 {
		t.Errorf("len = %d, want 300", len(got))
	}
}
