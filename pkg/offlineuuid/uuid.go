// Package offlineuuid derives the UUID Minecraft assigns to a player
// connecting to an offline-mode ("cracked") server, used to detect whether
// a server-reported player UUID matches that derivation.
package offlineuuid

import (
	"crypto/md5"
	"fmt"
)

// Of returns the canonical, hyphenated, lowercase-hex UUIDv3 derived from
// "OfflinePlayer:<name>", matching the value Minecraft itself assigns to a
// player joining an offline-mode server under that name.
func Of(name string) string {
	sum := md5.Sum([]byte("OfflinePlayer:" + name))
	sum[6] = 0x30 | (sum[6] & 0x0F) // version 3
	sum[8] = 0x80 | (sum[8] & 0x3F) // variant RFC 4122
	return fmt.Sprintf("%x-%x-%x-%x-%x", sum[0:4], sum[4:6], sum[6:8], sum[8:10], sum[10:16])
}

// Is reports whether uuid is the offline-mode UUID for name, i.e. whether
// a player list entry with this (name, uuid) pair should be marked
// "cracked".
func Is(name, uuid string) bool {
	return Of(name) == uuid
}
