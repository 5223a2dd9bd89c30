// Package jsonrepair recovers JSON values from unreliable LLM output.
//
// Model replies frequently wrap JSON in markdown fences, use typographic
// quotes, leave trailing commas, forget to quote string values, or get
// truncated mid-stream. This package applies a fixed sequence of
// extraction, sanitization, and repair strategies and reports a sentinel
// "no value" result instead of an error when everything fails.
package jsonrepair

import (
	"encoding/json"
	"regexp"
	"strings"
)

// bareScalarRE matches values that are valid unquoted JSON scalars. The
// numeric arm is a heuristic: it will classify strings like "3.5" as
// numbers, which is an accepted approximation.
var bareScalarRE = regexp.MustCompile(`^(true|false|null|-?\d+(\.\d+)?([eE][+-]?\d+)?)$`)

var fenceLineRE = regexp.MustCompile("(?m)^\\s*```[a-zA-Z]*\\s*$")

var trailingCommaRE = regexp.MustCompile(`,(\s*[}\]])`)

var smartQuoteReplacer = strings.NewReplacer(
	"“", `"`, // left double
	"”", `"`, // right double
	"„", `"`, // low double
	"‟", `"`, // reversed double
	"‘", "'", // left single
	"’", "'", // right single
	"‚", "'", // low single
	"‛", "'", // reversed single
)

// ParseObject extracts one JSON object from raw text. The boolean reports
// whether a usable object was recovered; it is false for arrays, scalars,
// and unrecoverable input. It never panics or returns an error.
func ParseObject(raw string) (map[string]any, bool) {
	input := raw
	if span, ok := extractSpan(raw, '{', '}'); ok {
		input = span
	}

	v, ok := parseWithRepairs(sanitize(input))
	if !ok {
		return nil, false
	}
	obj, ok := v.(map[string]any)
	if !ok {
		return nil, false
	}
	return obj, true
}

// ParseArray extracts one JSON array from raw text. It always returns a
// non-nil slice; an empty slice means nothing usable was recovered and
// callers must not treat that as an error.
func ParseArray(raw string) []any {
	input := raw
	if span, ok := extractSpan(raw, '[', ']'); ok {
		input = span
	}

	if v, ok := parseWithRepairs(sanitize(input)); ok {
		if arr, ok := v.([]any); ok {
			return arr
		}
	}

	return recoverArrayLines(sanitize(raw))
}

// extractSpan scans raw once, tracking string-literal state and a depth
// counter for the requested delimiter pair, and returns the first
// top-level balanced region. ok is false if depth never returns to zero.
func extractSpan(raw string, open, close byte) (string, bool) {
	depth := 0
	start := -1
	inString := false
	escaped := false

	for i := 0; i < len(raw); i++ {
		c := raw[i]

		if inString {
			switch {
			case escaped:
				escaped = false
			case c == '\\':
				escaped = true
			case c == '"':
				inString = false
			}
			continue
		}

		switch c {
		case '"':
			// Only meaningful once a region has begun; quotes in
			// surrounding prose are harmless either way.
			if depth > 0 {
				inString = true
			}
		case open:
			if depth == 0 {
				start = i
			}
			depth++
		case close:
			if depth == 0 {
				continue
			}
			depth--
			if depth == 0 {
				return raw[start : i+1], true
			}
		}
	}
	return "", false
}

// sanitize applies the unconditional cleanup pass: code fences, smart
// quotes, trailing commas, and unquoted scalar values after a colon.
func sanitize(s string) string {
	s = stripFences(s)
	s = smartQuoteReplacer.Replace(s)
	s = trailingCommaRE.ReplaceAllString(s, "$1")
	s = quoteBareValues(s)
	return strings.TrimSpace(s)
}

func stripFences(s string) string {
	s = fenceLineRE.ReplaceAllString(s, "")
	// Inline fences that share a line with content.
	s = strings.ReplaceAll(s, "```json", "")
	s = strings.ReplaceAll(s, "```", "")
	return s
}

// quoteBareValues coerces unquoted scalar values after a colon into quoted
// strings unless they parse as a boolean, null, or bare number. It walks
// the input tracking string-literal state so colons inside strings are
// left alone.
func quoteBareValues(s string) string {
	var b strings.Builder
	b.Grow(len(s) + 16)

	inString := false
	escaped := false

	for i := 0; i < len(s); i++ {
		c := s[i]

		if inString {
			b.WriteByte(c)
			switch {
			case escaped:
				escaped = false
			case c == '\\':
				escaped = true
			case c == '"':
				inString = false
			}
			continue
		}

		switch c {
		case '"':
			inString = true
			b.WriteByte(c)
		case ':':
			b.WriteByte(c)
			j := i + 1
			for j < len(s) && (s[j] == ' ' || s[j] == '\t') {
				j++
			}
			if j >= len(s) || s[j] == '"' || s[j] == '{' || s[j] == '[' ||
				s[j] == ',' || s[j] == '}' || s[j] == ']' || s[j] == '\n' || s[j] == '\r' {
				break
			}
			// Capture the bare value up to the next delimiter.
			end := j
			for end < len(s) && !strings.ContainsRune(",}]\n\r", rune(s[end])) {
				end++
			}
			value := strings.TrimSpace(s[j:end])
			b.WriteString(s[i+1 : j])
			if bareScalarRE.MatchString(value) {
				b.WriteString(value)
			} else {
				b.WriteByte('"')
				b.WriteString(strings.ReplaceAll(value, `"`, `\"`))
				b.WriteByte('"')
			}
			i = end - 1
		default:
			b.WriteByte(c)
		}
	}
	return b.String()
}

// parseWithRepairs strict-parses text, then climbs the repair ladder on
// failure: unmodified, fences stripped, smart quotes fixed, trailing
// commas removed, and raw control characters inside string literals
// escaped. The first rung that parses wins.
func parseWithRepairs(text string) (any, bool) {
	repairs := []func(string) string{
		func(s string) string { return s },
		stripFences,
		smartQuoteReplacer.Replace,
		func(s string) string { return trailingCommaRE.ReplaceAllString(s, "$1") },
		escapeControlChars,
		quoteBareKeys,
	}

	current := text
	for _, repair := range repairs {
		current = repair(current)
		if v, ok := strictParse(current); ok {
			return v, true
		}
	}
	return nil, false
}

func strictParse(s string) (any, bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil, false
	}
	var v any
	if err := json.Unmarshal([]byte(s), &v); err != nil {
		return nil, false
	}
	return v, true
}

// escapeControlChars escapes raw newlines and tabs that appear inside
// string literals, which strict JSON forbids.
func escapeControlChars(s string) string {
	var b strings.Builder
	b.Grow(len(s))

	inString := false
	escaped := false

	for i := 0; i < len(s); i++ {
		c := s[i]

		if inString {
			switch {
			case escaped:
				escaped = false
				b.WriteByte(c)
			case c == '\\':
				escaped = true
				b.WriteByte(c)
			case c == '"':
				inString = false
				b.WriteByte(c)
			case c == '\n':
				b.WriteString(`\n`)
			case c == '\t':
				b.WriteString(`\t`)
			case c == '\r':
				b.WriteString(`\r`)
			default:
				b.WriteByte(c)
			}
			continue
		}

		if c == '"' {
			inString = true
		}
		b.WriteByte(c)
	}
	return b.String()
}

// quoteBareKeys wraps identifier-style object keys in quotes. Models
// sometimes emit JavaScript-literal objects where keys are bare words.
func quoteBareKeys(s string) string {
	var b strings.Builder
	b.Grow(len(s) + 16)

	inString := false
	escaped := false
	prev := byte(0) // last significant character outside strings

	for i := 0; i < len(s); i++ {
		c := s[i]

		if inString {
			b.WriteByte(c)
			switch {
			case escaped:
				escaped = false
			case c == '\\':
				escaped = true
			case c == '"':
				inString = false
			}
			continue
		}

		if c == '"' {
			inString = true
			b.WriteByte(c)
			prev = c
			continue
		}

		if (prev == '{' || prev == ',') && isIdentStart(c) {
			j := i
			for j < len(s) && isIdentChar(s[j]) {
				j++
			}
			k := j
			for k < len(s) && (s[k] == ' ' || s[k] == '\t') {
				k++
			}
			if k < len(s) && s[k] == ':' {
				b.WriteByte('"')
				b.WriteString(s[i:j])
				b.WriteByte('"')
				i = j - 1
				prev = '"'
				continue
			}
		}

		b.WriteByte(c)
		switch c {
		case ' ', '\t', '\n', '\r':
		default:
			prev = c
		}
	}
	return b.String()
}

func isIdentStart(c byte) bool {
	return c == '_' || (c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z')
}

func isIdentChar(c byte) bool {
	return isIdentStart(c) || (c >= '0' && c <= '9')
}

// recoverArrayLines is the last-resort array strategy: keep lines that
// mention a title or artist key, extract a balanced object span from each
// independently, and parse the survivors joined as a synthetic array.
func recoverArrayLines(raw string) []any {
	var objects []string
	for _, line := range strings.Split(raw, "\n") {
		if !strings.Contains(line, `"title"`) && !strings.Contains(line, `"artist"`) {
			continue
		}
		span, ok := extractSpan(line, '{', '}')
		if !ok {
			continue
		}
		if _, ok := strictParse(span); ok {
			objects = append(objects, span)
		}
	}
	if len(objects) == 0 {
		return []any{}
	}

	if v, ok := strictParse("[" + strings.Join(objects, ",") + "]"); ok {
		if arr, ok := v.([]any); ok {
			return arr
		}
	}
	return []any{}
}
