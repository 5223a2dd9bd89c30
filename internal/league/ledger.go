package league

import (
	"sort"
	"strings"
	"time"
)

// normalizeToken lowercases and collapses separators so "Enter Finalists"
// and "enter_finalists" compare equal.
func normalizeToken(s string) string {
	s = strings.ToLower(strings.TrimSpace(s))
	s = strings.ReplaceAll(s, "-", "_")
	s = strings.ReplaceAll(s, " ", "_")
	return s
}

// songKey builds the case-insensitive, whitespace-trimmed identity used
// for rejection matching. Matching is exact string equality, not fuzzy.
func songKey(title, artist string) string {
	return strings.ToLower(strings.TrimSpace(title)) + ":::" + strings.ToLower(strings.TrimSpace(artist))
}

// IsRejected reports whether the (title, artist) pair is on the
// session's rejected list. This is an advisory constraint: it feeds the
// prompt's rejection list rather than filtering provider output.
func (s *Session) IsRejected(title, artist string) bool {
	key := songKey(title, artist)
	for _, r := range s.Rejected {
		if songKey(r.Title, r.Artist) == key {
			return true
		}
	}
	return false
}

// rejectSong appends to the rejected list, skipping pairs already there.
func (s *Session) rejectSong(title, artist, reason string, now time.Time) {
	title = strings.TrimSpace(title)
	artist = strings.TrimSpace(artist)
	if title == "" || artist == "" || s.IsRejected(title, artist) {
		return
	}
	s.Rejected = append(s.Rejected, RejectedSong{
		Title:      title,
		Artist:     artist,
		Reason:     strings.TrimSpace(reason),
		RejectedAt: now,
	})
}

// addPreference appends a session-scoped preference statement.
func (s *Session) addPreference(statement string, confidence Confidence, evidence string, now time.Time) {
	statement = strings.TrimSpace(statement)
	if statement == "" {
		return
	}
	s.Preferences = append(s.Preferences, SessionPreference{
		Statement:  statement,
		Confidence: confidence,
		Evidence:   evidence,
		NotedAt:    now,
	})
}

// confidenceWeight maps a session confidence grade to a long-term weight.
func confidenceWeight(c Confidence) float64 {
	switch c {
	case ConfidenceHigh:
		return 0.9
	case ConfidenceLow:
		return 0.5
	default:
		return 0.7
	}
}

// Promote merges session preferences into the profile. Statements are
// deduplicated case-insensitively against existing long-term entries;
// only genuinely new statements are appended, and the evidence counter
// increments by the number added, not the number considered. Statements
// already present get their ConfirmedAt refreshed.
func (p *UserProfile) Promote(prefs []SessionPreference, now time.Time) int {
	existing := make(map[string]int, len(p.Preferences))
	for i, ltp := range p.Preferences {
		existing[strings.ToLower(strings.TrimSpace(ltp.Statement))] = i
	}

	added := 0
	for _, pref := range prefs {
		statement := strings.TrimSpace(pref.Statement)
		if statement == "" {
			continue
		}
		key := strings.ToLower(statement)
		if i, ok := existing[key]; ok {
			p.Preferences[i].ConfirmedAt = now
			continue
		}
		p.Preferences = append(p.Preferences, LongTermPreference{
			Statement:   statement,
			Specificity: SpecificityGeneral,
			Weight:      confidenceWeight(pref.Confidence),
			AddedAt:     now,
			ConfirmedAt: now,
		})
		existing[key] = len(p.Preferences) - 1
		added++
	}

	if added > 0 {
		p.EvidenceCount += added
		p.UpdatedAt = now
	}
	return added
}

// PrioritizedPreferences returns long-term preferences ordered for
// prompt rendering: general before specific, ties broken by descending
// weight. The sort is stable so equal entries keep insertion order.
func (p *UserProfile) PrioritizedPreferences() []LongTermPreference {
	out := make([]LongTermPreference, len(p.Preferences))
	copy(out, p.Preferences)
	sort.SliceStable(out, func(i, j int) bool {
		if out[i].Specificity != out[j].Specificity {
			return out[i].Specificity == SpecificityGeneral
		}
		return out[i].Weight > out[j].Weight
	})
	return out
}
