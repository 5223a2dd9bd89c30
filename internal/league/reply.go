package league

import (
	"strings"

	"github.com/loydmilligan/mashboard-strategist/internal/jsonrepair"
	"github.com/loydmilligan/mashboard-strategist/internal/songs"
)

// Reply is the structured payload recovered from a chat completion. The
// provider emits it under prompt instruction only, so every field is
// optional and type-guarded during decoding.
type Reply struct {
	Candidates     []songs.Song
	Message        string
	Interpretation string
	Angle          string
	Action         Action
	Preferences    []replyPreference
	Rejections     []replyRejection
}

type replyPreference struct {
	Statement  string
	Confidence Confidence
}

type replyRejection struct {
	Title  string
	Artist string
	Reason string
}

// decodeReply recovers a Reply from raw completion text. ok is false
// when no structured payload could be extracted at all; callers then
// fall back to showing the raw text.
func decodeReply(raw string) (*Reply, bool) {
	obj, ok := jsonrepair.ParseObject(raw)
	if !ok || !hasReplyKeys(obj) {
		// Some replies are a bare song array with no envelope; object
		// extraction then finds a lone song instead of the reply shape.
		// Anything else without reply keys is not a usable reply, and
		// the caller falls back to the raw text.
		if list := songs.ParseSongsPayload(raw); len(list) > 0 {
			return &Reply{Candidates: list}, true
		}
		return nil, false
	}

	reply := &Reply{
		Message:        asString(obj["message"]),
		Interpretation: asString(obj["interpretation"]),
		Angle:          asString(obj["angle"]),
		Action:         ParseAction(asString(obj["action"])),
	}

	if arr, ok := obj["candidates"].([]any); ok {
		reply.Candidates = songs.FromValues(arr)
	}

	if arr, ok := obj["extractedPreferences"].([]any); ok {
		for _, v := range arr {
			record, ok := v.(map[string]any)
			if !ok {
				continue
			}
			statement := strings.TrimSpace(asString(record["statement"]))
			if statement == "" {
				continue
			}
			reply.Preferences = append(reply.Preferences, replyPreference{
				Statement:  statement,
				Confidence: ParseConfidence(asString(record["confidence"])),
			})
		}
	}

	if arr, ok := obj["songsToReject"].([]any); ok {
		for _, v := range arr {
			record, ok := v.(map[string]any)
			if !ok {
				continue
			}
			title := strings.TrimSpace(asString(record["title"]))
			artist := strings.TrimSpace(asString(record["artist"]))
			if title == "" || artist == "" {
				continue
			}
			reply.Rejections = append(reply.Rejections, replyRejection{
				Title:  title,
				Artist: artist,
				Reason: strings.TrimSpace(asString(record["reason"])),
			})
		}
	}

	return reply, true
}

// hasReplyKeys reports whether obj carries any key of the reply shape,
// distinguishing a real envelope from a stray extracted object.
func hasReplyKeys(obj map[string]any) bool {
	for _, key := range []string{"candidates", "message", "interpretation", "angle", "action", "extractedPreferences", "songsToReject"} {
		if _, ok := obj[key]; ok {
			return true
		}
	}
	return false
}

// asString is a type guard: non-strings (including null) become "".
func asString(v any) string {
	s, _ := v.(string)
	return s
}
