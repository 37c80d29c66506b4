/*
Package relay contains the core logic of the signaling relay: room membership,
presence events, and point-to-point forwarding of opaque negotiation payloads.

This file defines the Hub struct, the process-wide registry of rooms and the
single owner of membership state. It implements join/leave semantics, presence
fan-out, and routing of addressed signaling frames.
*/
package relay

import (
	"encoding/json"
	"sync"

	"github.com/rs/zerolog"

	"sigrelay/internal/pkg/errs"
	"sigrelay/internal/pkg/logx"
)

// Hub coordinates all active rooms and routes signaling traffic between their
// members. It is constructed once at process start and shared by reference;
// there is no ambient global registry.
type Hub struct {
	// rooms stores all live Room instances, keyed by room ID. A room is
	// present if and only if it has at least one member.
	rooms map[string]*Room

	// mu serializes membership mutation. Join and Leave hold the write lock
	// across the registry commit, the requester's ack, and the presence
	// broadcast, so no reader can observe a half-applied membership change
	// or an empty-but-present room. Relay and the status surface take the
	// read lock only.
	mu sync.RWMutex

	// structured logger with Hub context.
	logger zerolog.Logger
}

// NewHub constructs and returns an empty Hub.
func NewHub() *Hub {
	hubLogger := logx.Logger().With().Str("component", "Hub").Logger()

	return &Hub{
		rooms:  make(map[string]*Room),
		logger: hubLogger,
	}
}

// Join registers the client in the given room under the requested display
// name, creating the room on first use.
//
// On success the client's joinResult ack, carrying the snapshot of the other
// members as of the commit, is queued before the userJoined broadcast reaches
// any peer. Both happen inside the critical section that commits the
// membership, so a peer can never observe userJoined for a member that a
// subsequent snapshot would not contain.
func (h *Hub) Join(c *Client, roomID, username string) *errs.CustomError {
	if roomID == "" || username == "" {
		return errs.NewError(errs.ErrInvalidRequest)
	}

	h.mu.Lock()
	defer h.mu.Unlock()

	if c.roomID != "" {
		h.logger.Warn().
			Str("conn_id", c.id).
			Str("joined_room", c.roomID).
			Str("requested_room", roomID).
			Msg("Join rejected: connection is already in a room.")
		return errs.NewError(errs.ErrInvalidRequest)
	}

	room, ok := h.rooms[roomID]
	if ok {
		if _, taken := room.byName[username]; taken {
			h.logger.Info().
				Str("room_id", roomID).
				Str("username", username).
				Msg("Join rejected: display name already taken.")
			return errs.NewError(errs.ErrNameTaken)
		}
	} else {
		// The room is only inserted once the join is certain to commit,
		// keeping the no-empty-room invariant on every failure path.
		room = newRoom(roomID)
		h.rooms[roomID] = room
		h.logger.Info().Str("room_id", roomID).Msg("Room created.")
	}

	others := room.memberNames(c.id)

	room.members[c.id] = c
	room.byName[username] = c
	c.roomID = roomID
	c.name = username

	c.sendMessage(NewMessage(TypeJoinResult, JoinResult{OK: true, Others: others}))

	h.broadcast(room, c.id, NewMessage(TypeUserJoined, PresenceEvent{Username: username}))

	h.logger.Info().
		Str("room_id", roomID).
		Str("conn_id", c.id).
		Str("username", username).
		Int("members", len(room.members)).
		Msg("Client joined room.")

	return nil
}

// Leave removes the client from its current room and clears the handle's
// membership fields, then either garbage-collects the now-empty room or
// broadcasts userLeft to the remaining members.
//
// Safe to call for a connection that never joined, and idempotent: the second
// call for the same connection is a no-op.
func (h *Hub) Leave(c *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if c.roomID == "" {
		return
	}

	room, ok := h.rooms[c.roomID]
	if !ok {
		// Handle and registry are mutated together under mu; a joined
		// connection without a live room means the invariant broke elsewhere.
		h.logger.Error().
			Str("conn_id", c.id).
			Str("room_id", c.roomID).
			Msg("Leave found no room for a joined connection.")
		c.roomID = ""
		c.name = ""
		return
	}

	username := c.name

	delete(room.members, c.id)
	delete(room.byName, username)
	c.roomID = ""
	c.name = ""

	if room.empty() {
		delete(h.rooms, room.ID)
		h.logger.Info().Str("room_id", room.ID).Msg("Room removed (last member left).")
		return
	}

	h.broadcast(room, c.id, NewMessage(TypeUserLeft, PresenceEvent{Username: username}))

	h.logger.Info().
		Str("room_id", room.ID).
		Str("conn_id", c.id).
		Str("username", username).
		Int("members", len(room.members)).
		Msg("Client left room.")
}

// Relay forwards an opaque signal payload from sender to the member holding
// the target display name in the sender's room.
//
// Delivery is fire-and-forget at-most-once: the frame is queued on the
// target's transport and never retried. A target whose queue cannot accept
// the frame is reported to the sender as not found, since from the sender's
// point of view the peer is unreachable.
func (h *Hub) Relay(sender *Client, target string, signal json.RawMessage) *errs.CustomError {
	if target == "" {
		return errs.NewError(errs.ErrInvalidRequest)
	}

	h.mu.RLock()
	defer h.mu.RUnlock()

	if sender.roomID == "" {
		return errs.NewError(errs.ErrNoRoom)
	}

	room, ok := h.rooms[sender.roomID]
	if !ok {
		return errs.NewError(errs.ErrNoRoom)
	}

	targetClient, ok := room.byName[target]
	if !ok {
		return errs.NewError(errs.ErrTargetNotFound)
	}

	delivery := NewMessage(TypeReceiveSignal, SignalDelivery{SenderID: sender.id, Signal: signal})

	if err := targetClient.enqueue(delivery); err != nil {
		h.logger.Warn().
			Str("room_id", room.ID).
			Str("target", target).
			Err(err).
			Msg("Signal hand-off failed: target queue unavailable.")
		return errs.NewError(errs.ErrTargetNotFound)
	}

	return nil
}

// broadcast queues msg for every member of room except the connection
// identified by excludeID. Callers must hold mu. Enqueueing is non-blocking:
// a member with a saturated queue misses the event rather than stalling the
// critical section.
func (h *Hub) broadcast(room *Room, excludeID string, msg Message) {
	for id, member := range room.members {
		if id == excludeID {
			continue
		}

		if err := member.enqueue(msg); err != nil {
			h.logger.Warn().
				Str("room_id", room.ID).
				Str("conn_id", id).
				Str("msg_type", string(msg.Type)).
				Err(err).
				Msg("Dropping broadcast for member with unavailable queue.")
		}
	}
}

// RoomIDs returns the identifiers of all currently active rooms.
func (h *Hub) RoomIDs() []string {
	h.mu.RLock()
	defer h.mu.RUnlock()

	ids := make([]string, 0, len(h.rooms))
	for id := range h.rooms {
		ids = append(ids, id)
	}

	return ids
}

// RoomMembers returns the display names of the members of every active room,
// keyed by room ID. Used by the read-only status surface.
func (h *Hub) RoomMembers() map[string][]string {
	h.mu.RLock()
	defer h.mu.RUnlock()

	rooms := make(map[string][]string, len(h.rooms))
	for id, room := range h.rooms {
		rooms[id] = room.memberNames("")
	}

	return rooms
}

// Occupancy returns the number of active rooms and the total number of
// participants across them.
func (h *Hub) Occupancy() (rooms int, participants int) {
	h.mu.RLock()
	defer h.mu.RUnlock()

	for _, room := range h.rooms {
		participants += len(room.members)
	}

	return len(h.rooms), participants
}

// Shutdown disconnects every member and clears the registry. Called during
// graceful process shutdown, after the HTTP server has stopped accepting
// upgrades.
func (h *Hub) Shutdown() {
	h.mu.Lock()
	defer h.mu.Unlock()

	for _, room := range h.rooms {
		for _, member := range room.members {
			member.closeSend()
			member.roomID = ""
			member.name = ""
		}
	}
	h.rooms = make(map[string]*Room)

	h.logger.Info().Msg("Hub shutdown complete.")
}
