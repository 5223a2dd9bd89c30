// Package songs defines the Song entity and normalizes raw parsed records
// from LLM replies into strongly-typed values.
package songs

import (
	"math"
	"strconv"
	"strings"

	"github.com/google/uuid"

	"github.com/loydmilligan/mashboard-strategist/internal/jsonrepair"
)

// DefaultReason fills in for replies that omit a justification.
const DefaultReason = "No rationale provided"

// Song is a candidate or finalist track.
type Song struct {
	ID         string `json:"id"`
	Title      string `json:"title"`
	Artist     string `json:"artist"`
	Album      string `json:"album,omitempty"`
	Year       int    `json:"year,omitempty"`
	Genre      string `json:"genre,omitempty"`
	Reason     string `json:"reason"`
	Question   string `json:"question,omitempty"`
	Favorite   bool   `json:"favorite,omitempty"`
	Eliminated bool   `json:"eliminated,omitempty"`

	// External track references, resolved lazily by the playlist layer.
	VideoID  string `json:"videoId,omitempty"`
	TrackID  string `json:"trackId,omitempty"`
	TrackURI string `json:"trackUri,omitempty"`
}

// Alternate key spellings accepted for the required fields.
var (
	titleKeys  = []string{"title", "song", "track"}
	artistKeys = []string{"artist", "artistName", "band"}
	reasonKeys = []string{"reason", "rationale", "why", "notes"}
)

// FromValue converts one parsed record into a Song. ok is false when the
// record is not an object or when title or artist resolve to empty after
// trimming. Any id in the input is ignored; every song gets a fresh one.
func FromValue(v any) (Song, bool) {
	record, ok := v.(map[string]any)
	if !ok {
		return Song{}, false
	}

	title := firstString(record, titleKeys)
	artist := firstString(record, artistKeys)
	if title == "" || artist == "" {
		return Song{}, false
	}

	reason := firstString(record, reasonKeys)
	if reason == "" {
		reason = DefaultReason
	}

	s := Song{
		ID:         uuid.NewString(),
		Title:      title,
		Artist:     artist,
		Album:      stringField(record, "album"),
		Genre:      stringField(record, "genre"),
		Reason:     reason,
		Question:   stringField(record, "question"),
		Favorite:   boolField(record, "favorite"),
		Eliminated: boolField(record, "eliminated"),
		VideoID:    stringField(record, "videoId"),
		TrackID:    stringField(record, "trackId"),
		TrackURI:   stringField(record, "trackUri"),
	}

	if year, ok := yearField(record["year"]); ok {
		s.Year = year
	}

	return s, true
}

// FromValues converts an array of parsed records, dropping anything
// unusable.
func FromValues(values []any) []Song {
	out := make([]Song, 0, len(values))
	for _, v := range values {
		if s, ok := FromValue(v); ok {
			out = append(out, s)
		}
	}
	return out
}

// ParseSongsPayload recovers songs from raw LLM text. Array-shaped
// payloads are tried first, then an object payload carrying a "songs" or
// "tracks" array property.
func ParseSongsPayload(raw string) []Song {
	if arr := jsonrepair.ParseArray(raw); len(arr) > 0 {
		if out := FromValues(arr); len(out) > 0 {
			return out
		}
	}

	if obj, ok := jsonrepair.ParseObject(raw); ok {
		for _, key := range []string{"songs", "tracks"} {
			if arr, ok := obj[key].([]any); ok {
				if out := FromValues(arr); len(out) > 0 {
					return out
				}
			}
		}
	}

	return []Song{}
}

// firstString picks the first populated alternative among keys.
func firstString(record map[string]any, keys []string) string {
	for _, key := range keys {
		if s := stringField(record, key); s != "" {
			return s
		}
	}
	return ""
}

// stringField returns the trimmed string at key, or "" if the value is
// missing or not a non-empty string.
func stringField(record map[string]any, key string) string {
	s, ok := record[key].(string)
	if !ok {
		return ""
	}
	return strings.TrimSpace(s)
}

func boolField(record map[string]any, key string) bool {
	b, ok := record[key].(bool)
	return ok && b
}

// yearField coerces a year to a finite positive integer.
func yearField(v any) (int, bool) {
	switch year := v.(type) {
	case float64:
		if math.IsNaN(year) || math.IsInf(year, 0) || year <= 0 {
			return 0, false
		}
		return int(year), true
	case string:
		n, err := strconv.Atoi(strings.TrimSpace(year))
		if err != nil || n <= 0 {
			return 0, false
		}
		return n, true
	default:
		return 0, false
	}
}
