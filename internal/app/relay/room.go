/*
Package relay contains the core logic of the signaling relay: room membership,
presence events, and point-to-point forwarding of opaque negotiation payloads.

This file defines the Room struct, the membership set for one named rendezvous
point, with a display-name index for constant-time target lookup.
*/
package relay

// Room holds the current members of one named rendezvous point.
//
// A Room only exists while it has at least one member: the Hub inserts it into
// the registry when the first join commits and removes it the moment the last
// member leaves. All access goes through the Hub and is guarded by its mutex.
type Room struct {
	// ID is the caller-supplied room identifier.
	ID string

	// members maps connection ID to the member's client.
	members map[string]*Client

	// byName maps display name to the member's client.
	// Display names are unique within a room at all times.
	byName map[string]*Client
}

func newRoom(id string) *Room {
	return &Room{
		ID:      id,
		members: make(map[string]*Client),
		byName:  make(map[string]*Client),
	}
}

// memberNames returns the display names of all current members except the
// connection identified by excludeID.
func (r *Room) memberNames(excludeID string) []string {
	names := make([]string, 0, len(r.members))

	for id, member := range r.members {
		if id == excludeID {
			continue
		}
		names = append(names, member.name)
	}

	return names
}

// empty reports whether the room has no members left.
func (r *Room) empty() bool {
	return len(r.members) == 0
}
