package league

import "testing"

func TestDecodeReplyFull(t *testing.T) {
	raw := "Some preamble.\n```json\n" + `{
		"candidates": [{"title": "Heroes", "artist": "David Bowie", "reason": "anthemic"}],
		"message": "How about this?",
		"interpretation": "songs about resilience",
		"action": "enter_finalists",
		"extractedPreferences": [{"statement": "likes anthems", "confidence": "high"}],
		"songsToReject": [{"title": "Roar", "artist": "Katy Perry", "reason": "too literal"}]
	}` + "\n```"

	reply, ok := decodeReply(raw)
	if !ok {
		t.Fatal("decodeReply failed")
	}
	if len(reply.Candidates) != 1 || reply.Candidates[0].Title != "Heroes" {
		t.Errorf("Candidates = %+v", reply.Candidates)
	}
	if reply.Message != "How about this?" {
		t.Errorf("Message = %q", reply.Message)
	}
	if reply.Action != ActionEnterFinalists {
		t.Errorf("Action = %q", reply.Action)
	}
	if len(reply.Preferences) != 1 || reply.Preferences[0].Confidence != ConfidenceHigh {
		t.Errorf("Preferences = %+v", reply.Preferences)
	}
	if len(reply.Rejections) != 1 || reply.Rejections[0].Artist != "Katy Perry" {
		t.Errorf("Rejections = %+v", reply.Rejections)
	}
}

func TestDecodeReplyTypeGuards(t *testing.T) {
	raw := `{"message": 42, "action": null, "candidates": "not a list", "extractedPreferences": [17, {"statement": ""}], "songsToReject": [{"title": "X"}]}`

	reply, ok := decodeReply(raw)
	if !ok {
		t.Fatal("decodeReply failed")
	}
	if reply.Message != "" {
		t.Errorf("Message = %q, want empty for non-string", reply.Message)
	}
	if reply.Action != ActionNone {
		t.Errorf("Action = %q, want none", reply.Action)
	}
	if reply.Candidates != nil {
		t.Errorf("Candidates = %+v, want nil", reply.Candidates)
	}
	if len(reply.Preferences) != 0 {
		t.Errorf("Preferences = %+v, want none", reply.Preferences)
	}
	if len(reply.Rejections) != 0 {
		t.Errorf("Rejections = %+v, want artist-less entry dropped", reply.Rejections)
	}
}

func TestDecodeReplyBareSongArray(t *testing.T) {
	raw := `[{"title": "Heroes", "artist": "David Bowie"}, {"title": "Alive", "artist": "Pearl Jam"}]`

	reply, ok := decodeReply(raw)
	if !ok {
		t.Fatal("decodeReply failed on bare array")
	}
	if len(reply.Candidates) != 2 {
		t.Fatalf("Candidates length = %d, want 2", len(reply.Candidates))
	}
	if reply.Message != "" || reply.Action != ActionNone {
		t.Errorf("envelope fields populated from bare array: %+v", reply)
	}
}

func TestDecodeReplyNoPayload(t *testing.T) {
	if _, ok := decodeReply("plain prose with no structure at all"); ok {
		t.Fatal("decodeReply succeeded on plain prose")
	}
}

func TestDecodeReplyShapelessObject(t *testing.T) {
	// A balanced object with none of the reply keys and no songs is not
	// a reply; the turn must degrade to showing the raw text instead.
	raw := `I think {"note": "great theme, give me a second"} covers it.`
	if reply, ok := decodeReply(raw); ok {
		t.Fatalf("decodeReply = %+v, want no value for shapeless object", reply)
	}
}
