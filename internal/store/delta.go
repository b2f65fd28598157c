package store

import "strings"

// ActionType is the player_actions.action column's enum.
type ActionType string

const (
	ActionJoined ActionType = "JOINED"
	ActionLeft   ActionType = "LEFT"
)

// PlayerKey is the (name, id) identity used to diff two player samples.
type PlayerKey struct {
	Name string
	ID   string
}

// PlayerEvent is one JOINED or LEFT delta produced by DiffPlayers.
type PlayerEvent struct {
	Player PlayerKey
	Action ActionType
}

// ExtractPlayers reduces a status response's player sample to the set of
// (name, id) pairs eligible to be recorded: both fields must be present
// and, once trimmed, neither may be empty or contain a space, a section
// sign ('§', Minecraft's formatting-code marker), or a '.' (names and
// ids carrying these are never genuine player identities and would corrupt
// the join/leave history if recorded).
func ExtractPlayers(p Players) map[PlayerKey]bool {
	out := make(map[PlayerKey]bool, len(p.Sample))
	for _, entry := range p.Sample {
		if entry.Name == nil || entry.ID == nil {
			continue
		}
		name := strings.TrimSpace(*entry.Name)
		id := strings.TrimSpace(*entry.ID)
		if !validPlayerField(name) || !validPlayerField(id) {
			continue
		}
		out[PlayerKey{Name: name, ID: id}] = true
	}
	return out
}

func validPlayerField(s string) bool {
	if s == "" {
		return false
	}
	return !strings.ContainsAny(s, " §.")
}

// DiffPlayers compares the previously recorded sample against the newly
// observed one and returns the JOINED/LEFT events between them. Players
// present in both samples produce no event.
func DiffPlayers(previous, current Players) []PlayerEvent {
	oldSet := ExtractPlayers(previous)
	newSet := ExtractPlayers(current)

	var events []PlayerEvent
	for k := range newSet {
		if !oldSet[k] {
			events = append(events, PlayerEvent{Player: k, Action: ActionJoined})
		}
	}
	for k := range oldSet {
		if !newSet[k] {
			events = append(events, PlayerEvent{Player: k, Action: ActionLeft})
		}
	}
	return events
}
