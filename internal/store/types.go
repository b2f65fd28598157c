// Package store implements the server-state upsert and player-delta
// recorder: it turns a raw Minecraft status JSON payload into persisted
// servers/player_list/player_actions rows.
package store

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
)

// Player is one entry in a status response's player sample.
type Player struct {
	Name *string `json:"name,omitempty"`
	ID   *string `json:"id,omitempty"`
}

// Players is the status response's "players" object.
type Players struct {
	Max    *int32   `json:"max,omitempty"`
	Online *int32   `json:"online,omitempty"`
	Sample []Player `json:"sample,omitempty"`
}

// Equal reports whether p and other have identical Max, Online, and Sample
// (Sample compared as the unordered set of (name,id) pairs ExtractPlayers
// keeps, so entries it filters out do not affect the result).
func (p Players) Equal(other Players) bool {
	if !int32PtrEqual(p.Max, other.Max) || !int32PtrEqual(p.Online, other.Online) {
		return false
	}
	return samplesEqual(p.Sample, other.Sample)
}

func int32PtrEqual(a, b *int32) bool {
	if a == nil || b == nil {
		return a == b
	}
	return *a == *b
}

func samplesEqual(a, b []Player) bool {
	sa := ExtractPlayers(Players{Sample: a})
	sb := ExtractPlayers(Players{Sample: b})
	if len(sa) != len(sb) {
		return false
	}
	for k := range sa {
		if !sb[k] {
			return false
		}
	}
	return true
}

// Version is the status response's "version" object.
type Version struct {
	Name     *string `json:"name,omitempty"`
	Protocol *int32  `json:"protocol,omitempty"`
}

// Value implements driver.Valuer. The players/version/player composite
// types the schema contract describes are persisted as JSONB columns
// rather than hand-rolled Postgres composite-literal encodings: schema
// creation is explicitly out of scope for this module (the columns are an
// external collaborator's responsibility), and JSONB round-trips through
// lib/pq with no custom wire codec, matching how raw_description and extra
// are already stored.
func (p Players) Value() (driver.Value, error) {
	b, err := json.Marshal(p)
	if err != nil {
		return nil, fmt.Errorf("marshal players: %w", err)
	}
	return b, nil
}

// Scan implements sql.Scanner.
func (p *Players) Scan(src any) error {
	return scanJSON(src, p)
}

// Value implements driver.Valuer; see Players.Value for the JSONB choice.
func (v Version) Value() (driver.Value, error) {
	b, err := json.Marshal(v)
	if err != nil {
		return nil, fmt.Errorf("marshal version: %w", err)
	}
	return b, nil
}

// Scan implements sql.Scanner.
func (v *Version) Scan(src any) error {
	return scanJSON(src, v)
}

func scanJSON(src any, dst any) error {
	if src == nil {
		return nil
	}
	var b []byte
	switch v := src.(type) {
	case []byte:
		b = v
	case string:
		b = []byte(v)
	default:
		return fmt.Errorf("store: unsupported scan source type %T", src)
	}
	if len(b) == 0 {
		return nil
	}
	return json.Unmarshal(b, dst)
}
