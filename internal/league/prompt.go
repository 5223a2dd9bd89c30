package league

import (
	"fmt"
	"strings"

	"github.com/loydmilligan/mashboard-strategist/internal/songs"
)

// Reply payload contract the chat provider is instructed to follow.
const replyFormatInstructions = `Respond with a single JSON object and nothing else. Keys:
  "candidates": array of 5-8 songs, each {"title", "artist", "album"?, "year", "genre", "reason", "question"}
  "message": string, your conversational reply to the user
  "interpretation": string, your reading of the theme (optional)
  "angle": string, the strategic angle you are pursuing (optional)
  "action": one of "enter_finalists", "finalize_pick", "create_playlist", or null
  "extractedPreferences": array of {"statement", "confidence"} the user's words evidence (optional)
  "songsToReject": array of {"title", "artist", "reason"} the user turned down this turn (optional)
Do not wrap the JSON in markdown fences. Never re-propose a rejected song.`

const conversationRole = `You are the Music League Strategist, helping the user pick one song for a themed playlist round. Propose strong candidates, probe with questions, and refine based on feedback. Set "action" to "enter_finalists" when the user wants to narrow down to a short list.`

const finalistsRole = `You are the Music League Strategist in the finalists phase. Compare the finalists head to head against the theme and the user's preferences; do not introduce brand-new candidates unless asked. Set "action" to "finalize_pick" when the user commits to one song, putting that song first in "candidates".`

// buildSystemPrompt interpolates the session and profile state into the
// phase-appropriate system prompt.
func buildSystemPrompt(s *Session, profile *UserProfile) string {
	var b strings.Builder

	if s.Phase == PhaseFinalists {
		b.WriteString(finalistsRole)
	} else {
		b.WriteString(conversationRole)
	}
	b.WriteString("\n\n")

	if s.Theme.Raw != "" {
		fmt.Fprintf(&b, "Round theme: %s\n", s.Theme.Raw)
		if s.Theme.Interpretation != "" {
			fmt.Fprintf(&b, "Your interpretation so far: %s\n", s.Theme.Interpretation)
		}
		if s.Theme.Angle != "" {
			fmt.Fprintf(&b, "Chosen strategic angle: %s\n", s.Theme.Angle)
		}
		b.WriteString("\n")
	}

	if s.Phase == PhaseFinalists && len(s.Finalists) > 0 {
		b.WriteString("Finalists:\n")
		writeSongList(&b, s.Finalists)
	} else if len(s.Candidates) > 0 {
		b.WriteString("Current candidates:\n")
		writeSongList(&b, s.Candidates)
	}

	if len(s.Rejected) > 0 {
		b.WriteString("Rejected songs (never propose these again):\n")
		for _, r := range s.Rejected {
			fmt.Fprintf(&b, "- %s - %s", r.Title, r.Artist)
			if r.Reason != "" {
				fmt.Fprintf(&b, " (%s)", r.Reason)
			}
			b.WriteString("\n")
		}
		b.WriteString("\n")
	}

	if len(s.Preferences) > 0 {
		b.WriteString("Preferences stated this session:\n")
		for _, p := range s.Preferences {
			fmt.Fprintf(&b, "- %s (confidence: %s)\n", p.Statement, p.Confidence)
		}
		b.WriteString("\n")
	}

	if profile != nil {
		if profile.Summary != "" {
			fmt.Fprintf(&b, "What you know about this user: %s\n", profile.Summary)
		}
		if prefs := profile.PrioritizedPreferences(); len(prefs) > 0 {
			b.WriteString("Long-term preferences (highest priority first):\n")
			for _, p := range prefs {
				fmt.Fprintf(&b, "- %s\n", p.Statement)
			}
			b.WriteString("\n")
		}
	}

	if s.Playlist != nil {
		fmt.Fprintf(&b, "A playlist was already created on %s: %s\n\n", s.Playlist.Platform, s.Playlist.URL)
	}

	b.WriteString(replyFormatInstructions)
	return b.String()
}

// writeSongList renders songs one per line for prompt interpolation,
// in insertion order.
func writeSongList(b *strings.Builder, list []songs.Song) {
	for _, s := range list {
		fmt.Fprintf(b, "- %s - %s", s.Title, s.Artist)
		if s.Year > 0 {
			fmt.Fprintf(b, " (%d)", s.Year)
		}
		if s.Reason != "" && s.Reason != songs.DefaultReason {
			fmt.Fprintf(b, ": %s", s.Reason)
		}
		b.WriteString("\n")
	}
	b.WriteString("\n")
}
