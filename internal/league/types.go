// Package league implements the Music League Strategist core: the
// session data model, the preference ledger, and the phase-based
// conversation engine that negotiates a song pick with a chat provider.
package league

import (
	"time"

	"github.com/loydmilligan/mashboard-strategist/internal/songs"
)

// Phase is the conversation state machine state. Phases only move
// forward; a new session is the only way back to PhaseConversation.
type Phase string

const (
	// PhaseIdle means no session exists yet.
	PhaseIdle Phase = "idle"
	// PhaseConversation is the default working phase where candidates
	// are proposed and refined.
	PhaseConversation Phase = "conversation"
	// PhaseFinalists is the narrowed comparative-analysis phase.
	PhaseFinalists Phase = "finalists"
	// PhaseComplete means a final pick has been recorded.
	PhaseComplete Phase = "complete"
)

// Valid reports whether p is a known phase.
func (p Phase) Valid() bool {
	switch p {
	case PhaseIdle, PhaseConversation, PhaseFinalists, PhaseComplete:
		return true
	}
	return false
}

// Action is a structured-reply directive from the chat provider.
type Action string

const (
	ActionNone           Action = ""
	ActionEnterFinalists Action = "enter_finalists"
	ActionFinalizePick   Action = "finalize_pick"
	ActionCreatePlaylist Action = "create_playlist"
)

// ParseAction normalizes a free-form action string from the reply
// payload into the closed Action set. Unknown values map to ActionNone
// so a hallucinated action is silently ignored rather than dispatched.
func ParseAction(raw string) Action {
	switch normalizeToken(raw) {
	case "enter_finalists", "finalists":
		return ActionEnterFinalists
	case "finalize_pick", "finalize":
		return ActionFinalizePick
	case "create_playlist":
		return ActionCreatePlaylist
	}
	return ActionNone
}

// Role identifies the author of a transcript entry.
type Role string

const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
	RoleSystem    Role = "system"
)

// TranscriptEntry is one append-only conversation record.
type TranscriptEntry struct {
	Role      Role      `json:"role"`
	Content   string    `json:"content"`
	Timestamp time.Time `json:"timestamp"`
}

// Confidence grades a session preference statement.
type Confidence string

const (
	ConfidenceHigh   Confidence = "high"
	ConfidenceMedium Confidence = "medium"
	ConfidenceLow    Confidence = "low"
)

// ParseConfidence defaults unknown grades to medium.
func ParseConfidence(raw string) Confidence {
	switch Confidence(normalizeToken(raw)) {
	case ConfidenceHigh:
		return ConfidenceHigh
	case ConfidenceLow:
		return ConfidenceLow
	}
	return ConfidenceMedium
}

// Specificity classifies a long-term preference. General preferences
// outrank specific ones in any prioritized ordering.
type Specificity string

const (
	SpecificityGeneral  Specificity = "general"
	SpecificitySpecific Specificity = "specific"
)

// RejectedSong records a song the user turned down. Once present, the
// (title, artist) pair must never be re-proposed.
type RejectedSong struct {
	Title      string    `json:"title"`
	Artist     string    `json:"artist"`
	Reason     string    `json:"reason"`
	RejectedAt time.Time `json:"rejectedAt"`
}

// SessionPreference is a preference statement scoped to one session.
// Created during a turn, never mutated, cleared only by session reset.
type SessionPreference struct {
	Statement  string     `json:"statement"`
	Confidence Confidence `json:"confidence"`
	Evidence   string     `json:"evidence"`
	NotedAt    time.Time  `json:"notedAt"`
}

// LongTermPreference is a durable preference promoted from session
// preferences. Weight is in [0,1].
type LongTermPreference struct {
	Statement   string      `json:"statement"`
	Specificity Specificity `json:"specificity"`
	Weight      float64     `json:"weight"`
	AddedAt     time.Time   `json:"addedAt"`
	ConfirmedAt time.Time   `json:"confirmedAt"`
}

// ThemeContext is the round's theme, set once per session from the
// first user message unless explicitly replaced.
type ThemeContext struct {
	Raw            string `json:"raw"`
	Interpretation string `json:"interpretation,omitempty"`
	Angle          string `json:"angle,omitempty"`
}

// PlaylistRecord notes a successful external playlist creation.
type PlaylistRecord struct {
	Platform  string    `json:"platform"`
	ID        string    `json:"id"`
	URL       string    `json:"url"`
	CreatedAt time.Time `json:"createdAt"`
}

// Session is the aggregate root. All mutation happens through the
// Engine's operations; external code treats it as read-only.
type Session struct {
	ID        string    `json:"id"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`

	Phase       Phase               `json:"phase"`
	Theme       ThemeContext        `json:"theme"`
	Candidates  []songs.Song        `json:"candidates"`
	Finalists   []songs.Song        `json:"finalists"`
	Rejected    []RejectedSong      `json:"rejected"`
	Preferences []SessionPreference `json:"preferences"`
	Transcript  []TranscriptEntry   `json:"transcript"`
	Playlist    *PlaylistRecord     `json:"playlist,omitempty"`
	SearchLinks []SearchLink        `json:"searchLinks,omitempty"`
	Iterations  int                 `json:"iterations"`
	FinalPick   *songs.Song         `json:"finalPick,omitempty"`
}

// UserProfile is the per-user singleton holding durable taste data.
// Created lazily on the first long-term promotion, updated additively.
type UserProfile struct {
	Summary       string               `json:"summary,omitempty"`
	Tags          map[string][]string  `json:"tags,omitempty"`
	Preferences   []LongTermPreference `json:"preferences"`
	EvidenceCount int                  `json:"evidenceCount"`
	Confidence    float64              `json:"confidence"`
	UpdatedAt     time.Time            `json:"updatedAt"`
}
