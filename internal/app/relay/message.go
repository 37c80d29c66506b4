/*
Package relay contains the core logic of the signaling relay: room membership,
presence events, and point-to-point forwarding of opaque negotiation payloads.

This file defines the wire message envelope and the payload structures exchanged
with clients over the WebSocket transport.
*/
package relay

import (
	"encoding/json"
	"time"

	"sigrelay/internal/pkg/randx"
)

// MessageType identifies the semantic kind of a wire frame.
type MessageType string

// Client-to-server request types.
const (
	TypeJoinRoom   MessageType = "joinRoom"
	TypeSendSignal MessageType = "sendSignal"
	TypeLeaveRoom  MessageType = "leaveRoom"
)

// Server-to-client response and event types.
const (
	TypeJoinResult    MessageType = "joinResult"
	TypeSignalResult  MessageType = "signalResult"
	TypeLeaveResult   MessageType = "leaveResult"
	TypeUserJoined    MessageType = "userJoined"
	TypeUserLeft      MessageType = "userLeft"
	TypeReceiveSignal MessageType = "receiveSignal"
	TypeError         MessageType = "error"
)

// Message is the envelope for every frame sent to a client.
type Message struct {
	// ID is a unique identifier for the frame.
	ID string `json:"id"`

	// Type identifies the kind of frame; see the MessageType constants.
	Type MessageType `json:"type"`

	// Timestamp is the server-side creation time in Unix milliseconds.
	Timestamp int64 `json:"timestamp"`

	// Payload carries the type-specific body of the frame.
	Payload any `json:"payload,omitempty"`
}

// NewMessage constructs an outbound Message with a fresh ID and timestamp.
func NewMessage(msgType MessageType, payload any) Message {
	return Message{
		ID:        randx.MessageID(),
		Type:      msgType,
		Timestamp: time.Now().UnixMilli(),
		Payload:   payload,
	}
}

// JoinRequest is the payload of a joinRoom request.
type JoinRequest struct {
	RoomID   string `json:"roomId"`
	Username string `json:"username"`
}

// SignalRequest is the payload of a sendSignal request. Signal is forwarded
// opaquely; the relay never inspects or validates its contents.
type SignalRequest struct {
	Target string          `json:"target"`
	Signal json.RawMessage `json:"signal"`
}

// JoinResult acknowledges a joinRoom request. On success Others lists the
// display names of the members that were already present at the moment the
// join was committed.
type JoinResult struct {
	OK     bool     `json:"ok"`
	Others []string `json:"others"`
	Error  string   `json:"error,omitempty"`
}

// Result acknowledges a sendSignal or leaveRoom request.
type Result struct {
	OK    bool   `json:"ok"`
	Error string `json:"error,omitempty"`
}

// PresenceEvent is the payload of userJoined and userLeft broadcasts.
type PresenceEvent struct {
	Username string `json:"username"`
}

// SignalDelivery is the payload of a receiveSignal event. SenderID is the
// connection identity of the sending peer.
type SignalDelivery struct {
	SenderID string          `json:"senderId"`
	Signal   json.RawMessage `json:"signal"`
}

// ErrorEvent is the payload of an error frame, used for requests that cannot
// be matched to an operation result (malformed JSON, unknown frame type).
type ErrorEvent struct {
	Code  int    `json:"code"`
	Error string `json:"error"`
}
