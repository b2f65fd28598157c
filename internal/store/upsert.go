package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"net/netip"
	"strconv"
	"strings"

	"github.com/kybe236/mc-scanner/pkg/offlineuuid"
	"github.com/lib/pq"
)

// uniqueViolation is Postgres error code 23505.
const uniqueViolation = "23505"

// DefaultPort is the port a server row's "ip:port" address defaults to when
// the port half is missing or unparseable.
const DefaultPort = 25565

func isUniqueViolation(err error) bool {
	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		return pqErr.Code == uniqueViolation
	}
	return false
}

// AddrPortKey formats addr as the "ip:port" text the servers table keys on.
func AddrPortKey(addr netip.Addr, port uint16) string {
	return fmt.Sprintf("%s:%d", addr, port)
}

// ParseAddrPortKey tolerantly parses a "ip:port" server key, defaulting the
// port to DefaultPort when it's missing or unparseable. Reports ok=false
// only when the ip half itself doesn't parse as an IPv4 address.
func ParseAddrPortKey(key string) (addr netip.Addr, port uint16, ok bool) {
	ipPart, portPart, _ := strings.Cut(key, ":")
	a, err := netip.ParseAddr(ipPart)
	if err != nil || !a.Is4() {
		return netip.Addr{}, 0, false
	}
	p, err := strconv.ParseUint(portPart, 10, 16)
	if err != nil {
		return a, DefaultPort, true
	}
	return a, uint16(p), true
}

// UpsertServer records a probe result for the "ip:port" key, returning the
// server's row id and the player sample that was on file before this probe
// (the zero value if this is the server's first recorded probe).
//
// Two goroutines probing the same address concurrently (a rescan overlapping
// a fresh discovery, say) can both miss the SELECT and both attempt the
// INSERT; the loser gets a unique-constraint violation on ip rather than a
// lost update, so on that error this re-runs the SELECT and falls through to
// the UPDATE path instead of failing the probe outright.
func (db *DB) UpsertServer(ctx context.Context, key string, payload StatusPayload) (serverID int64, previous Players, err error) {
	id, prev, found, err := db.selectServer(ctx, key)
	if err != nil {
		return 0, Players{}, fmt.Errorf("store: select server: %w", err)
	}

	if found {
		if err := db.updateServer(ctx, id, payload); err != nil {
			return 0, Players{}, fmt.Errorf("store: update server: %w", err)
		}
		return id, prev, nil
	}

	id, err = db.insertServer(ctx, key, payload)
	if err == nil {
		return id, Players{}, nil
	}
	if !isUniqueViolation(err) {
		return 0, Players{}, fmt.Errorf("store: insert server: %w", err)
	}

	id, prev, found, selErr := db.selectServer(ctx, key)
	if selErr != nil {
		return 0, Players{}, fmt.Errorf("store: select server after race: %w", selErr)
	}
	if !found {
		return 0, Players{}, fmt.Errorf("store: server vanished after unique violation: %w", err)
	}
	if err := db.updateServer(ctx, id, payload); err != nil {
		return 0, Players{}, fmt.Errorf("store: update server after race: %w", err)
	}
	return id, prev, nil
}

func (db *DB) selectServer(ctx context.Context, key string) (id int64, players Players, found bool, err error) {
	var row struct {
		ID      int64   `db:"id"`
		Players Players `db:"players"`
	}
	err = db.x.GetContext(ctx, &row, `
		SELECT id, players FROM servers
		WHERE ip = $1
		ORDER BY id DESC LIMIT 1
	`, key)
	if errors.Is(err, sql.ErrNoRows) {
		return 0, Players{}, false, nil
	}
	if err != nil {
		return 0, Players{}, false, err
	}
	return row.ID, row.Players, true, nil
}

func (db *DB) insertServer(ctx context.Context, key string, payload StatusPayload) (int64, error) {
	var id int64
	err := db.x.GetContext(ctx, &id, `
		INSERT INTO servers
			(ip, last_pinged, description, raw_description,
			 players, version, enforces_secure_chat, favicon, extra)
		VALUES
			($1, now(), $2, $3, $4, $5, $6, $7, $8)
		RETURNING id
	`, key, payload.Description, rawOrNil(payload.RawDescription),
		payload.Players, payload.Version, payload.EnforcesSecureChat,
		payload.Favicon, rawOrNil(payload.Extra))
	return id, err
}

func (db *DB) updateServer(ctx context.Context, id int64, payload StatusPayload) error {
	_, err := db.x.ExecContext(ctx, `
		UPDATE servers SET
			last_pinged = now(),
			description = $2,
			raw_description = $3,
			players = $4,
			version = $5,
			enforces_secure_chat = $6,
			favicon = $7,
			extra = $8
		WHERE id = $1
	`, id, payload.Description, rawOrNil(payload.RawDescription),
		payload.Players, payload.Version, payload.EnforcesSecureChat,
		payload.Favicon, rawOrNil(payload.Extra))
	return err
}

func rawOrNil(b []byte) any {
	if len(b) == 0 {
		return nil
	}
	return []byte(b)
}

// upsertPlayerListID returns the player_list row id for (uuid, name),
// inserting a new row if one doesn't already exist. Conflicting concurrent
// inserts are resolved with ON CONFLICT DO NOTHING followed by a re-select,
// rather than relying on the insert's own RETURNING (which yields no row on
// a no-op conflict).
func (db *DB) upsertPlayerListID(ctx context.Context, uuid, name string, cracked bool) (int64, error) {
	var id int64
	err := db.x.GetContext(ctx, &id, `
		INSERT INTO player_list (name, uuid, cracked)
		VALUES ($1, $2, $3)
		ON CONFLICT (uuid, name) DO NOTHING
		RETURNING id
	`, name, uuid, cracked)
	if err == nil {
		return id, nil
	}
	if !errors.Is(err, sql.ErrNoRows) {
		return 0, err
	}

	err = db.x.GetContext(ctx, &id, `
		SELECT id FROM player_list WHERE uuid = $1 AND name = $2
	`, uuid, name)
	return id, err
}

// RecordEvents persists JOINED/LEFT events against serverID, upserting a
// player_list row for each distinct player referenced.
func (db *DB) RecordEvents(ctx context.Context, serverID int64, events []PlayerEvent) error {
	for _, ev := range events {
		cracked := offlineuuid.Is(ev.Player.Name, ev.Player.ID)
		playerListID, err := db.upsertPlayerListID(ctx, ev.Player.ID, ev.Player.Name, cracked)
		if err != nil {
			return fmt.Errorf("store: upsert player_list: %w", err)
		}
		if _, err := db.x.ExecContext(ctx, `
			INSERT INTO player_actions (user_id, server_id, action)
			VALUES ($1, $2, $3)
		`, playerListID, serverID, string(ev.Action)); err != nil {
			return fmt.Errorf("store: insert player_actions: %w", err)
		}
	}
	return nil
}

// RecordStatus is the top-level entry point the probe pipeline calls after
// a successful probe: it upserts the server row and records the resulting
// player join/leave deltas, returning the events it recorded.
func (db *DB) RecordStatus(ctx context.Context, addr netip.Addr, port uint16, payload StatusPayload) ([]PlayerEvent, error) {
	key := AddrPortKey(addr, port)
	serverID, previous, err := db.UpsertServer(ctx, key, payload)
	if err != nil {
		return nil, err
	}
	events := DiffPlayers(previous, payload.Players)
	if len(events) == 0 {
		return nil, nil
	}
	if err := db.RecordEvents(ctx, serverID, events); err != nil {
		return nil, err
	}
	return events, nil
}
