package league

import (
	"context"
	"testing"
	"time"

	"github.com/loydmilligan/mashboard-strategist/internal/songs"
)

func storedSession(id string) *Session {
	now := time.Now()
	return &Session{
		ID:        id,
		CreatedAt: now,
		UpdatedAt: now,
		Phase:     PhaseConversation,
		Candidates: []songs.Song{
			{Title: "Blue Monday", Artist: "New Order"},
		},
		Transcript: []TranscriptEntry{
			{Role: RoleUser, Content: "songs about rain", Timestamp: now},
		},
	}
}

func TestMemorySessionStoreGetReturnsCopy(t *testing.T) {
	ctx := context.Background()
	store := NewMemorySessionStore()
	if err := store.Save(ctx, storedSession("s1")); err != nil {
		t.Fatal(err)
	}

	first, err := store.Get(ctx, "s1")
	if err != nil {
		t.Fatal(err)
	}
	first.Phase = PhaseComplete
	first.Candidates[0].Title = "mutated"
	first.Transcript = append(first.Transcript, TranscriptEntry{Role: RoleAssistant, Content: "extra"})

	second, err := store.Get(ctx, "s1")
	if err != nil {
		t.Fatal(err)
	}
	if second.Phase != PhaseConversation {
		t.Errorf("Phase = %q, want caller mutation isolated", second.Phase)
	}
	if second.Candidates[0].Title != "Blue Monday" {
		t.Errorf("Candidates[0].Title = %q, want caller mutation isolated", second.Candidates[0].Title)
	}
	if len(second.Transcript) != 1 {
		t.Errorf("Transcript length = %d, want 1", len(second.Transcript))
	}
}

func TestMemorySessionStoreSaveDetachesInput(t *testing.T) {
	ctx := context.Background()
	store := NewMemorySessionStore()
	session := storedSession("s1")
	if err := store.Save(ctx, session); err != nil {
		t.Fatal(err)
	}

	// Mutating the saved aggregate afterwards must not bleed into the
	// stored copy.
	session.Candidates[0].Artist = "mutated"
	session.Transcript[0].Content = "mutated"

	got, err := store.Get(ctx, "s1")
	if err != nil {
		t.Fatal(err)
	}
	if got.Candidates[0].Artist != "New Order" {
		t.Errorf("Candidates[0].Artist = %q, want stored copy untouched", got.Candidates[0].Artist)
	}
	if got.Transcript[0].Content != "songs about rain" {
		t.Errorf("Transcript[0].Content = %q, want stored copy untouched", got.Transcript[0].Content)
	}
}

func TestMemorySessionStoreListReturnsCopies(t *testing.T) {
	ctx := context.Background()
	store := NewMemorySessionStore()
	if err := store.Save(ctx, storedSession("s1")); err != nil {
		t.Fatal(err)
	}

	listed, err := store.List(ctx)
	if err != nil {
		t.Fatal(err)
	}
	listed[0].Candidates[0].Title = "mutated"

	got, err := store.Get(ctx, "s1")
	if err != nil {
		t.Fatal(err)
	}
	if got.Candidates[0].Title != "Blue Monday" {
		t.Errorf("Candidates[0].Title = %q, want list mutation isolated", got.Candidates[0].Title)
	}
}

func TestMemoryProfileStoreCopies(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryProfileStore()
	profile := &UserProfile{
		Summary: "likes synthpop",
		Tags:    map[string][]string{"genre": {"synthpop"}},
		Preferences: []LongTermPreference{
			{Statement: "prefers vocal tracks"},
		},
	}
	if err := store.Save(ctx, profile); err != nil {
		t.Fatal(err)
	}
	profile.Tags["genre"][0] = "mutated"

	loaded, err := store.Load(ctx)
	if err != nil {
		t.Fatal(err)
	}
	loaded.Summary = "mutated"
	loaded.Preferences[0].Statement = "mutated"

	again, err := store.Load(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if again.Tags["genre"][0] != "synthpop" {
		t.Errorf("Tags = %v, want save input detached", again.Tags)
	}
	if again.Summary != "likes synthpop" || again.Preferences[0].Statement != "prefers vocal tracks" {
		t.Errorf("profile = %+v, want load result detached", again)
	}
}
