package store

import "testing"

func TestParseStatusJSONExtractsKnownFields(t *testing.T) {
	raw := `{
		"description": {"text": "A ", "extra": [{"text": "Server"}]},
		"players": {"max": 20, "online": 2, "sample": [{"name": "Alice", "id": "uuid-1"}]},
		"version": {"name": "1.20.1", "protocol": 763},
		"enforcesSecureChat": true,
		"favicon": "data:image/png;base64,abcd",
		"modinfo": {"type": "FML"}
	}`

	p, ok := ParseStatusJSON(raw)
	if !ok {
		t.Fatal("expected ok=true for well-formed JSON")
	}
	if p.Description != "A Server" {
		t.Errorf("Description = %q, want %q", p.Description, "A Server")
	}
	if p.Players.Max == nil || *p.Players.Max != 20 {
		t.Errorf("Players.Max = %v, want 20", p.Players.Max)
	}
	if p.Version.Name == nil || *p.Version.Name != "1.20.1" {
		t.Errorf("Version.Name = %v, want 1.20.1", p.Version.Name)
	}
	if p.EnforcesSecureChat == nil || !*p.EnforcesSecureChat {
		t.Error("EnforcesSecureChat not extracted")
	}
	if p.Favicon == nil || *p.Favicon == "" {
		t.Error("Favicon not extracted")
	}
	if p.Extra == nil {
		t.Fatal("Extra should retain modinfo")
	}
}

func TestParseStatusJSONStringDescription(t *testing.T) {
	p, ok := ParseStatusJSON(`{"description": "A Minecraft Server"}`)
	if !ok {
		t.Fatal("expected ok=true")
	}
	if p.Description != "A Minecraft Server" {
		t.Errorf("Description = %q, want %q", p.Description, "A Minecraft Server")
	}
}

func TestParseStatusJSONArrayDescription(t *testing.T) {
	p, ok := ParseStatusJSON(`{"description": [{"text": "Hello, "}, {"text": "world"}]}`)
	if !ok {
		t.Fatal("expected ok=true")
	}
	if p.Description != "Hello, world" {
		t.Errorf("Description = %q, want %q", p.Description, "Hello, world")
	}
}

func TestParseStatusJSONStripsEscapedNUL(t *testing.T) {
	p, ok := ParseStatusJSON("{\"description\": \"hi\\u0000there\"}")
	if !ok {
		t.Fatal("expected ok=true")
	}
	if p.Description != "hithere" {
		t.Errorf("Description = %q, want %q", p.Description, "hithere")
	}
}

func TestParseStatusJSONStripsRealNUL(t *testing.T) {
	p, ok := ParseStatusJSON("{\"description\": \"hi\x00there\"}")
	if !ok {
		t.Fatal("expected ok=true")
	}
	if p.Description != "hithere" {
		t.Errorf("Description = %q, want %q", p.Description, "hithere")
	}
}

func TestParseStatusJSONMalformedReportsNotOK(t *testing.T) {
	p, ok := ParseStatusJSON(`not json at all`)
	if ok {
		t.Fatal("expected ok=false for malformed input")
	}
	if p.Description != "" || p.Extra != nil {
		t.Errorf("payload = %+v, want zero value", p)
	}
}
