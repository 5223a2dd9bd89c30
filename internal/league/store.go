package league

import (
	"context"
	"errors"
	"sort"
	"sync"

	"github.com/loydmilligan/mashboard-strategist/internal/songs"
)

// ErrNotFound is returned by stores when a session or profile is absent.
var ErrNotFound = errors.New("not found")

// SessionStore persists session aggregates. Save is an upsert; the
// engine snapshots after every mutating operation.
type SessionStore interface {
	Get(ctx context.Context, id string) (*Session, error)
	Save(ctx context.Context, session *Session) error
	Delete(ctx context.Context, id string) error
	List(ctx context.Context) ([]*Session, error)
}

// ProfileStore persists the per-user profile singleton.
type ProfileStore interface {
	Load(ctx context.Context) (*UserProfile, error)
	Save(ctx context.Context, profile *UserProfile) error
}

// ============================================================================
// In-Memory Stores (development and testing)
// ============================================================================

// MemorySessionStore keeps sessions in memory. Reads and writes copy
// the aggregate so callers never share a pointer with the store; the
// engine may mutate a session while a handler encodes another read.
type MemorySessionStore struct {
	mu       sync.RWMutex
	sessions map[string]*Session
}

func cloneSession(s *Session) *Session {
	out := *s
	out.Candidates = append([]songs.Song(nil), s.Candidates...)
	out.Finalists = append([]songs.Song(nil), s.Finalists...)
	out.Rejected = append([]RejectedSong(nil), s.Rejected...)
	out.Preferences = append([]SessionPreference(nil), s.Preferences...)
	out.Transcript = append([]TranscriptEntry(nil), s.Transcript...)
	out.SearchLinks = append([]SearchLink(nil), s.SearchLinks...)
	if s.Playlist != nil {
		record := *s.Playlist
		out.Playlist = &record
	}
	if s.FinalPick != nil {
		pick := *s.FinalPick
		out.FinalPick = &pick
	}
	return &out
}

func cloneProfile(p *UserProfile) *UserProfile {
	out := *p
	if p.Tags != nil {
		out.Tags = make(map[string][]string, len(p.Tags))
		for tag, values := range p.Tags {
			out.Tags[tag] = append([]string(nil), values...)
		}
	}
	out.Preferences = append([]LongTermPreference(nil), p.Preferences...)
	return &out
}

// NewMemorySessionStore creates an empty in-memory session store.
func NewMemorySessionStore() *MemorySessionStore {
	return &MemorySessionStore{sessions: make(map[string]*Session)}
}

// Get retrieves a session by ID.
func (m *MemorySessionStore) Get(_ context.Context, id string) (*Session, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	session, ok := m.sessions[id]
	if !ok {
		return nil, ErrNotFound
	}
	return cloneSession(session), nil
}

// Save upserts a session.
func (m *MemorySessionStore) Save(_ context.Context, session *Session) error {
	m.mu.Lock()
	m.sessions[session.ID] = cloneSession(session)
	m.mu.Unlock()
	return nil
}

// Delete removes a session by ID.
func (m *MemorySessionStore) Delete(_ context.Context, id string) error {
	m.mu.Lock()
	delete(m.sessions, id)
	m.mu.Unlock()
	return nil
}

// List returns all sessions, newest first.
func (m *MemorySessionStore) List(_ context.Context) ([]*Session, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]*Session, 0, len(m.sessions))
	for _, s := range m.sessions {
		out = append(out, cloneSession(s))
	}
	sort.Slice(out, func(i, j int) bool {
		return out[i].CreatedAt.After(out[j].CreatedAt)
	})
	return out, nil
}

// MemoryProfileStore keeps the profile singleton in memory.
type MemoryProfileStore struct {
	mu      sync.RWMutex
	profile *UserProfile
}

// NewMemoryProfileStore creates an empty in-memory profile store.
func NewMemoryProfileStore() *MemoryProfileStore {
	return &MemoryProfileStore{}
}

// Load returns the profile singleton.
func (m *MemoryProfileStore) Load(_ context.Context) (*UserProfile, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if m.profile == nil {
		return nil, ErrNotFound
	}
	return cloneProfile(m.profile), nil
}

// Save stores the profile singleton.
func (m *MemoryProfileStore) Save(_ context.Context, profile *UserProfile) error {
	m.mu.Lock()
	m.profile = cloneProfile(profile)
	m.mu.Unlock()
	return nil
}

// Ensure the in-memory stores implement the store interfaces.
var (
	_ SessionStore = (*MemorySessionStore)(nil)
	_ ProfileStore = (*MemoryProfileStore)(nil)
)
