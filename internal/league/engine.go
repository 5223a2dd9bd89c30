package league

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/loydmilligan/mashboard-strategist/internal/llm"
	"github.com/loydmilligan/mashboard-strategist/internal/songs"
)

// Engine errors surfaced to callers before any state mutation.
var (
	// ErrChatNotConfigured is returned when no chat provider is wired.
	ErrChatNotConfigured = errors.New("chat provider is not configured")

	// ErrTurnInFlight is returned when a turn is already being
	// processed for the session.
	ErrTurnInFlight = errors.New("a turn is already in flight for this session")

	// ErrNoCandidates is returned when playlist creation is requested
	// with nothing to put on it.
	ErrNoCandidates = errors.New("session has no candidates for a playlist")

	// ErrPlaylistsNotConfigured is returned when no playlist creator
	// is wired.
	ErrPlaylistsNotConfigured = errors.New("playlist creation is not configured")
)

// SearchLink is a degraded-mode fallback: a platform search URL the
// client should open, staggered by OpenAfter to dodge popup blocking.
type SearchLink struct {
	URL       string        `json:"url"`
	OpenAfter time.Duration `json:"openAfter"`
}

// PlaylistOutcome is what the playlist orchestrator reports back.
type PlaylistOutcome struct {
	// Record is set on real playlist creation, nil when degraded.
	Record *PlaylistRecord
	// Degraded marks the search-link fallback path.
	Degraded bool
	// Message is appended to the transcript: celebratory on success,
	// explanatory on degradation.
	Message string
	// SearchLinks carry the fallback URLs in degraded mode.
	SearchLinks []SearchLink
}

// PlaylistCreator is implemented by the playlist orchestrator.
type PlaylistCreator interface {
	Create(ctx context.Context, platform, title, description string, candidates []songs.Song) (*PlaylistOutcome, error)
}

// Engine owns session lifecycle and phase transitions. It is the only
// writer of session state: one turn at a time per session, guarded by
// an in-flight flag checked and set before each turn and cleared on
// every exit path.
type Engine struct {
	sessions SessionStore
	profiles ProfileStore
	chat     llm.ChatProvider
	playlist PlaylistCreator

	model           string
	defaultPlatform string

	mu       sync.Mutex
	inFlight map[string]bool

	now  func() time.Time
	logf func(format string, args ...any)
}

// Option configures an Engine.
type Option func(*Engine)

// WithModel sets the chat model identifier passed to the provider.
func WithModel(model string) Option {
	return func(e *Engine) { e.model = model }
}

// WithDefaultPlatform sets the platform used when the reply's action
// requests playlist creation without naming one.
func WithDefaultPlatform(platform string) Option {
	return func(e *Engine) {
		if platform != "" {
			e.defaultPlatform = platform
		}
	}
}

// WithClock overrides the time source (tests).
func WithClock(now func() time.Time) Option {
	return func(e *Engine) { e.now = now }
}

// WithLogger overrides the log sink.
func WithLogger(logf func(format string, args ...any)) Option {
	return func(e *Engine) { e.logf = logf }
}

// NewEngine wires an engine. chat and playlist may be nil; the
// corresponding operations then fail with configuration errors before
// touching session state.
func NewEngine(sessions SessionStore, profiles ProfileStore, chat llm.ChatProvider, playlist PlaylistCreator, opts ...Option) *Engine {
	e := &Engine{
		sessions:        sessions,
		profiles:        profiles,
		chat:            chat,
		playlist:        playlist,
		defaultPlatform: "spotify",
		inFlight:        make(map[string]bool),
		now:             time.Now,
		logf:            log.Printf,
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// CreateSession starts a new session in the conversation phase.
func (e *Engine) CreateSession(ctx context.Context) (*Session, error) {
	now := e.now()
	session := &Session{
		ID:        uuid.NewString(),
		CreatedAt: now,
		UpdatedAt: now,
		Phase:     PhaseConversation,
	}
	if err := e.sessions.Save(ctx, session); err != nil {
		return nil, fmt.Errorf("saving new session: %w", err)
	}
	return session, nil
}

// GetSession retrieves a session by ID.
func (e *Engine) GetSession(ctx context.Context, id string) (*Session, error) {
	return e.sessions.Get(ctx, id)
}

// ListSessions returns all sessions, newest first.
func (e *Engine) ListSessions(ctx context.Context) ([]*Session, error) {
	return e.sessions.List(ctx)
}

// DeleteSession removes a session. Deletion is always an explicit user
// action; sessions are never auto-deleted.
func (e *Engine) DeleteSession(ctx context.Context, id string) error {
	return e.sessions.Delete(ctx, id)
}

// GetProfile returns the user profile, or ErrNotFound before the first
// long-term promotion has created it.
func (e *Engine) GetProfile(ctx context.Context) (*UserProfile, error) {
	return e.profiles.Load(ctx)
}

// beginTurn acquires the per-session in-flight flag.
func (e *Engine) beginTurn(id string) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.inFlight[id] {
		return ErrTurnInFlight
	}
	e.inFlight[id] = true
	return nil
}

// endTurn releases the in-flight flag. Called on every exit path.
func (e *Engine) endTurn(id string) {
	e.mu.Lock()
	delete(e.inFlight, id)
	e.mu.Unlock()
}

// ProcessTurn runs one conversation turn: build the phase prompt from
// session state, call the chat provider, recover the structured reply,
// and apply its mutations. The returned session reflects the turn's
// outcome even when err is non-nil (provider failures are recorded on
// the transcript as system entries).
func (e *Engine) ProcessTurn(ctx context.Context, sessionID, userText string) (*Session, error) {
	// Local rejections: no external call, no state mutation.
	if e.chat == nil {
		return nil, ErrChatNotConfigured
	}
	session, err := e.sessions.Get(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	if err := e.beginTurn(sessionID); err != nil {
		return nil, err
	}
	defer e.endTurn(sessionID)

	now := e.now()
	session.Transcript = append(session.Transcript, TranscriptEntry{
		Role: RoleUser, Content: userText, Timestamp: now,
	})
	if session.Theme.Raw == "" {
		session.Theme.Raw = userText
	}

	profile := e.loadProfile(ctx)
	req := llm.Request{
		System:      buildSystemPrompt(session, profile),
		Messages:    transcriptMessages(session.Transcript),
		Model:       e.model,
		MaxTokens:   4096,
		Temperature: 0.7,
	}

	raw, err := e.chat.Complete(ctx, req)
	if err != nil {
		// Transport/provider error: transcript audit entry, no
		// iteration increment, error surfaced to the caller.
		session.Transcript = append(session.Transcript, TranscriptEntry{
			Role:      RoleSystem,
			Content:   fmt.Sprintf("Chat provider error: %v", err),
			Timestamp: e.now(),
		})
		session.UpdatedAt = e.now()
		e.snapshot(ctx, session)
		return session, err
	}

	reply, ok := decodeReply(raw)
	if !ok {
		// Parse exhaustion is degraded but non-fatal: show the raw
		// assistant text instead of failing the turn.
		session.Transcript = append(session.Transcript, TranscriptEntry{
			Role: RoleAssistant, Content: raw, Timestamp: e.now(),
		})
		session.Iterations++
		session.UpdatedAt = e.now()
		e.snapshot(ctx, session)
		return session, nil
	}

	e.applyReply(ctx, session, reply)

	session.Iterations++
	session.UpdatedAt = e.now()
	e.snapshot(ctx, session)
	return session, nil
}

// applyReply folds a recovered reply into session state and dispatches
// its action through the phase transition rules.
func (e *Engine) applyReply(ctx context.Context, session *Session, reply *Reply) {
	now := e.now()

	// Final-pick resolution runs against the candidate list as it
	// stood before this reply replaced it.
	prior := session.Candidates

	if len(reply.Candidates) > 0 {
		session.Candidates = reply.Candidates
	}
	if reply.Interpretation != "" {
		session.Theme.Interpretation = reply.Interpretation
	}
	if reply.Angle != "" {
		session.Theme.Angle = reply.Angle
	}
	for _, pref := range reply.Preferences {
		session.addPreference(pref.Statement, pref.Confidence, lastUserMessage(session.Transcript), now)
	}
	for _, rej := range reply.Rejections {
		session.rejectSong(rej.Title, rej.Artist, rej.Reason, now)
	}

	switch reply.Action {
	case ActionEnterFinalists:
		if session.Phase == PhaseConversation {
			// Copy candidates into finalists atomically with the flip.
			session.Finalists = append([]songs.Song(nil), session.Candidates...)
			session.Phase = PhaseFinalists
		}
	case ActionFinalizePick:
		if session.Phase == PhaseConversation || session.Phase == PhaseFinalists {
			if pick := resolveFinalPick(prior, session.Finalists, reply); pick != nil {
				session.FinalPick = pick
			}
			session.Phase = PhaseComplete
			// Best-effort: promotion failure must not fail the turn.
			if err := e.promoteLongTerm(ctx, session); err != nil {
				e.logf("long-term preference promotion failed: %v", err)
			}
		}
	case ActionCreatePlaylist:
		// No phase transition; playlist failures degrade to a
		// transcript note rather than failing the turn.
		if err := e.applyPlaylist(ctx, session, e.defaultPlatform); err != nil {
			e.logf("playlist creation from reply action failed: %v", err)
		}
	}

	if reply.Message != "" {
		session.Transcript = append(session.Transcript, TranscriptEntry{
			Role: RoleAssistant, Content: reply.Message, Timestamp: e.now(),
		})
	}
}

// resolveFinalPick implements the finalize-pick resolution order:
// reply's first candidate matched against existing candidates, then the
// first finalist, then the first remaining candidate, else unset.
func resolveFinalPick(candidates, finalists []songs.Song, reply *Reply) *songs.Song {
	if len(reply.Candidates) > 0 {
		want := songKey(reply.Candidates[0].Title, reply.Candidates[0].Artist)
		for i := range candidates {
			if songKey(candidates[i].Title, candidates[i].Artist) == want {
				pick := candidates[i]
				return &pick
			}
		}
	}
	if len(finalists) > 0 {
		pick := finalists[0]
		return &pick
	}
	if len(candidates) > 0 {
		pick := candidates[0]
		return &pick
	}
	return nil
}

// CreatePlaylist resolves track references for the session's finalized
// candidates and creates a playlist on the target platform, degrading
// to search links when the platform is unconfigured.
func (e *Engine) CreatePlaylist(ctx context.Context, sessionID, platform string) (*Session, error) {
	session, err := e.sessions.Get(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	if err := e.beginTurn(sessionID); err != nil {
		return nil, err
	}
	defer e.endTurn(sessionID)

	if platform == "" {
		platform = e.defaultPlatform
	}
	if err := e.applyPlaylist(ctx, session, platform); err != nil {
		session.UpdatedAt = e.now()
		e.snapshot(ctx, session)
		return session, err
	}
	session.UpdatedAt = e.now()
	e.snapshot(ctx, session)
	return session, nil
}

func (e *Engine) applyPlaylist(ctx context.Context, session *Session, platform string) error {
	if e.playlist == nil {
		return ErrPlaylistsNotConfigured
	}

	candidates := session.Finalists
	if len(candidates) == 0 {
		candidates = session.Candidates
	}
	if len(candidates) == 0 {
		return ErrNoCandidates
	}

	title := session.Theme.Raw
	if title == "" {
		title = "Music League Round"
	}
	description := session.Theme.Interpretation

	outcome, err := e.playlist.Create(ctx, platform, title, description, candidates)
	if err != nil {
		session.Transcript = append(session.Transcript, TranscriptEntry{
			Role:      RoleSystem,
			Content:   fmt.Sprintf("Playlist creation on %s failed: %v", platform, err),
			Timestamp: e.now(),
		})
		return err
	}

	if outcome.Record != nil {
		session.Playlist = outcome.Record
	}
	// Degraded outcomes replace any earlier fallback links; a real
	// playlist clears them.
	session.SearchLinks = outcome.SearchLinks
	if outcome.Message != "" {
		role := RoleAssistant
		if outcome.Degraded {
			role = RoleSystem
		}
		session.Transcript = append(session.Transcript, TranscriptEntry{
			Role: role, Content: outcome.Message, Timestamp: e.now(),
		})
	}
	return nil
}

// promoteLongTerm merges this session's preferences into the durable
// profile, creating it lazily on first promotion.
func (e *Engine) promoteLongTerm(ctx context.Context, session *Session) error {
	if len(session.Preferences) == 0 {
		return nil
	}
	profile, err := e.profiles.Load(ctx)
	if err != nil {
		if !errors.Is(err, ErrNotFound) {
			return fmt.Errorf("loading profile: %w", err)
		}
		profile = &UserProfile{}
	}
	if profile.Promote(session.Preferences, e.now()) == 0 {
		return nil
	}
	if err := e.profiles.Save(ctx, profile); err != nil {
		return fmt.Errorf("saving profile: %w", err)
	}
	return nil
}

// loadProfile fetches the profile for prompt rendering; absence is
// normal before the first promotion.
func (e *Engine) loadProfile(ctx context.Context) *UserProfile {
	profile, err := e.profiles.Load(ctx)
	if err != nil {
		return nil
	}
	return profile
}

// snapshot persists the session; persistence is eventually durable, so
// failures are logged rather than surfaced.
func (e *Engine) snapshot(ctx context.Context, session *Session) {
	if err := e.sessions.Save(ctx, session); err != nil {
		e.logf("session snapshot failed for %s: %v", session.ID, err)
	}
}

// transcriptMessages converts the transcript for the chat provider.
func transcriptMessages(transcript []TranscriptEntry) []llm.Message {
	out := make([]llm.Message, 0, len(transcript))
	for _, entry := range transcript {
		role := llm.RoleUser
		switch entry.Role {
		case RoleAssistant:
			role = llm.RoleAssistant
		case RoleSystem:
			role = llm.RoleSystem
		}
		out = append(out, llm.Message{Role: role, Content: entry.Content})
	}
	return out
}

// lastUserMessage finds the utterance that evidenced a preference.
func lastUserMessage(transcript []TranscriptEntry) string {
	for i := len(transcript) - 1; i >= 0; i-- {
		if transcript[i].Role == RoleUser {
			return strings.TrimSpace(transcript[i].Content)
		}
	}
	return ""
}
