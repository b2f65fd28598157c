package store

import (
	"encoding/json"
	"strings"
)

// StatusPayload is a cleaned-up, partially-typed view of a raw status
// response: the well-known top-level fields are pulled out into their own
// struct fields, and everything else the server included is preserved
// verbatim in Extra so it can still be persisted even though this module
// doesn't understand it.
type StatusPayload struct {
	Description        string
	RawDescription     json.RawMessage
	Players            Players
	Version            Version
	EnforcesSecureChat *bool
	Favicon            *string
	Extra              json.RawMessage
}

// ParseStatusJSON cleans and parses a raw status response body, extracting
// the fields this module persists explicitly and folding the remainder
// into Extra. It reports ok=false when the body isn't valid JSON at all
// (after NUL-stripping); the caller must not persist a server row for
// such a probe.
func ParseStatusJSON(raw string) (payload StatusPayload, ok bool) {
	cleaned := stripNUL(raw)

	var fields map[string]json.RawMessage
	if err := json.Unmarshal([]byte(cleaned), &fields); err != nil {
		return StatusPayload{}, false
	}

	var out StatusPayload

	if raw, ok := fields["description"]; ok {
		out.RawDescription = raw
		out.Description = extractText(raw)
		delete(fields, "description")
	}
	if raw, ok := fields["players"]; ok {
		_ = json.Unmarshal(raw, &out.Players)
		delete(fields, "players")
	}
	if raw, ok := fields["version"]; ok {
		_ = json.Unmarshal(raw, &out.Version)
		delete(fields, "version")
	}
	if raw, ok := fields["enforcesSecureChat"]; ok {
		var b bool
		if json.Unmarshal(raw, &b) == nil {
			out.EnforcesSecureChat = &b
		}
		delete(fields, "enforcesSecureChat")
	}
	if raw, ok := fields["favicon"]; ok {
		var s string
		if json.Unmarshal(raw, &s) == nil {
			out.Favicon = &s
		}
		delete(fields, "favicon")
	}

	if len(fields) > 0 {
		if b, err := json.Marshal(fields); err == nil {
			out.Extra = b
		}
	}
	return out, true
}

// stripNUL removes both the literal six-character escape sequence that
// some servers emit inside their MOTD and any real embedded NUL byte.
// Both break strict JSON decoding in ways worth tolerating rather than
// rejecting the whole payload over.
func stripNUL(s string) string {
	s = strings.ReplaceAll(s, "\\u0000", "")
	return strings.ReplaceAll(s, "\x00", "")
}

// extractText renders a Minecraft chat component into plain text. A
// component is either a bare JSON string, or an object carrying its own
// "text" plus a nested "extra" array of child components, or an array of
// components concatenated in order. Any other or malformed shape renders
// as "".
func extractText(raw json.RawMessage) string {
	var asString string
	if json.Unmarshal(raw, &asString) == nil {
		return asString
	}

	var asArray []json.RawMessage
	if json.Unmarshal(raw, &asArray) == nil {
		var b strings.Builder
		for _, c := range asArray {
			b.WriteString(extractText(c))
		}
		return b.String()
	}

	var asObject struct {
		Text  string            `json:"text"`
		Extra []json.RawMessage `json:"extra"`
	}
	if json.Unmarshal(raw, &asObject) == nil {
		var b strings.Builder
		b.WriteString(asObject.Text)
		for _, c := range asObject.Extra {
			b.WriteString(extractText(c))
		}
		return b.String()
	}

	return ""
}
