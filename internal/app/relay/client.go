/*
Package relay contains the core logic of the signaling relay: room membership,
presence events, and point-to-point forwarding of opaque negotiation payloads.

This file defines the Client struct, representing one live WebSocket session.
It manages the connection's lifecycle, the message pumps (ReadPump and
WritePump), and the dispatch of inbound requests to the Hub.
*/
package relay

import (
	"encoding/json"
	"errors"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"

	"sigrelay/internal/pkg/errs"
	"sigrelay/internal/pkg/logx"
	"sigrelay/internal/pkg/randx"
)

const (
	// timeout duration for writing to the WebSocket connection.
	writeWait = 10 * time.Second

	// maximum time allowed for the server to wait for a Pong message from the client.
	pongWait = 60 * time.Second

	// frequency at which the server sends a Ping message.
	pingPeriod = (pongWait * 9) / 10

	// maximum allowed size (in bytes) of a frame sent by the client.
	// Signaling payloads (SDP offers/answers, ICE candidates) stay well below this.
	maxMessageSize = 16384

	// sendQueueSize is the capacity of the per-connection outbound queue.
	sendQueueSize = 256
)

// Client represents one live WebSocket session: the connection handle of the
// relay. The identity is assigned by the server at connect time and is
// immutable; the display name and room association are set by a committed
// join and cleared by leave or disconnect, always under the Hub's mutex.
type Client struct {
	// the Hub owning all membership state.
	hub *Hub

	// underlying WebSocket connection object.
	conn *websocket.Conn

	// id is the opaque connection identity, assigned at connect time.
	id string

	// name is the display name held in the current room. Guarded by hub.mu.
	name string

	// roomID identifies the currently joined room, empty when unjoined.
	// Guarded by hub.mu.
	roomID string

	// send is the buffered outbound frame queue drained by WritePump.
	send chan []byte

	// sendMu guards sendClosed so frames are never queued on a closed channel.
	sendMu     sync.Mutex
	sendClosed bool

	// structured logger with connection context.
	logger zerolog.Logger
}

// NewClient constructs a Client for an accepted WebSocket connection and
// assigns it a fresh connection identity.
func NewClient(hub *Hub, wsConn *websocket.Conn) *Client {
	id := randx.ConnectionID()

	clientLogger := logx.Logger().With().
		Str("conn_id", id).
		Logger()

	return &Client{
		hub:    hub,
		conn:   wsConn,
		id:     id,
		send:   make(chan []byte, sendQueueSize),
		logger: clientLogger,
	}
}

// ID returns the opaque connection identity.
func (c *Client) ID() string {
	return c.id
}

// ReadPump reads frames from the WebSocket connection until it closes.
// It handles heartbeats (Pong) and dispatches requests, then performs the
// disconnect cleanup exactly once when the loop exits.
func (c *Client) ReadPump() {
	defer c.cleanupOnDisconnect()

	c.conn.SetReadLimit(maxMessageSize)

	if err := c.conn.SetReadDeadline(time.Now().Add(pongWait)); err != nil {
		c.logger.Error().Err(err).Msg("Failed to set read deadline")
		return
	}

	c.conn.SetPongHandler(func(string) error {
		return c.conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		_, messageBytes, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				c.logger.Info().Err(err).Msg("Error reading message (client close/going away)")
			}
			break
		}

		c.processInboundMessage(messageBytes)
	}
}

// cleanupOnDisconnect runs the terminal transition for the connection: it
// applies leave semantics through the Hub (a no-op if the connection never
// joined), closes the outbound queue, and closes the socket.
func (c *Client) cleanupOnDisconnect() {
	c.logger.Info().Msg("Connection cleanup starting.")

	c.hub.Leave(c)

	c.closeSend()

	if err := c.conn.Close(); err != nil {
		c.logger.Debug().Err(err).Msg("Connection close error during cleanup")
	}
}

// processInboundMessage handles one raw frame received from the client.
// Malformed input is answered with a structured error frame; it never
// terminates the connection.
func (c *Client) processInboundMessage(messageBytes []byte) {
	var inboundMsg struct {
		Type    MessageType     `json:"type"`
		Payload json.RawMessage `json:"payload,omitempty"`
	}

	if err := json.Unmarshal(messageBytes, &inboundMsg); err != nil {
		c.logger.Warn().Err(err).Msg("Client sent invalid JSON")
		c.SendError(errs.NewError(errs.ErrInvalidRequest))
		return
	}

	switch inboundMsg.Type {
	case TypeJoinRoom:
		c.handleJoin(inboundMsg.Payload)

	case TypeSendSignal:
		c.handleSignal(inboundMsg.Payload)

	case TypeLeaveRoom:
		c.handleLeave()

	default:
		c.logger.Warn().Str("msg_type", string(inboundMsg.Type)).Msg("Client sent unsupported message type")
		c.SendError(errs.NewError(errs.ErrInvalidRequest))
	}
}

// handleJoin processes a joinRoom request. The success ack is queued by the
// Hub inside the join critical section; only failures are answered here.
func (c *Client) handleJoin(payloadBytes json.RawMessage) {
	var joinReq JoinRequest
	if err := json.Unmarshal(payloadBytes, &joinReq); err != nil {
		c.logger.Warn().Err(err).Msg("Client sent invalid joinRoom payload")
		c.sendMessage(NewMessage(TypeJoinResult, JoinResult{Others: []string{}, Error: errs.NewError(errs.ErrInvalidRequest).Reason}))
		return
	}

	if customErr := c.hub.Join(c, joinReq.RoomID, joinReq.Username); customErr != nil {
		c.sendMessage(NewMessage(TypeJoinResult, JoinResult{Others: []string{}, Error: customErr.Reason}))
	}
}

// handleSignal processes a sendSignal request and acknowledges the hand-off.
func (c *Client) handleSignal(payloadBytes json.RawMessage) {
	var sigReq SignalRequest
	if err := json.Unmarshal(payloadBytes, &sigReq); err != nil {
		c.logger.Warn().Err(err).Msg("Client sent invalid sendSignal payload")
		c.sendMessage(NewMessage(TypeSignalResult, Result{Error: errs.NewError(errs.ErrInvalidRequest).Reason}))
		return
	}

	if customErr := c.hub.Relay(c, sigReq.Target, sigReq.Signal); customErr != nil {
		c.sendMessage(NewMessage(TypeSignalResult, Result{Error: customErr.Reason}))
		return
	}

	c.sendMessage(NewMessage(TypeSignalResult, Result{OK: true}))
}

// handleLeave processes an explicit leaveRoom request. The connection stays
// open and may join again afterwards.
func (c *Client) handleLeave() {
	c.hub.Leave(c)
	c.sendMessage(NewMessage(TypeLeaveResult, Result{OK: true}))
}

// WritePump drains the outbound queue onto the WebSocket connection and
// maintains the heartbeat.
func (c *Client) WritePump() {
	ticker := time.NewTicker(pingPeriod)

	defer func() {
		ticker.Stop()

		// ensure the connection is closed on exit
		if err := c.conn.Close(); err != nil {
			c.logger.Debug().Err(err).Msg("Connection close error in WritePump")
		}
	}()

	for {
		select {
		case message, ok := <-c.send:
			if !c.writeQueuedMessage(message, ok) {
				return
			}

		case <-ticker.C:
			if !c.writePingMessage() {
				return
			}
		}
	}
}

// writeQueuedMessage writes one frame pulled from the send queue.
// Returns true if the WritePump loop should continue, false if it should terminate.
func (c *Client) writeQueuedMessage(message []byte, ok bool) bool {
	if err := c.conn.SetWriteDeadline(time.Now().Add(writeWait)); err != nil {
		c.logger.Error().Err(err).Msg("Failed to set write deadline")
		return false
	}

	if !ok {
		if err := c.conn.WriteMessage(websocket.CloseMessage, []byte{}); err != nil {
			c.logger.Debug().Err(err).Msg("Error writing close message")
		}
		return false
	}

	if err := c.conn.WriteMessage(websocket.TextMessage, message); err != nil {
		c.logger.Error().Err(err).Msg("Error writing message")
		return false
	}

	return true
}

// writePingMessage sends a periodic WebSocket Ping to maintain the heartbeat.
// Returns false if the WritePump loop should terminate due to write failure.
func (c *Client) writePingMessage() bool {
	if err := c.conn.SetWriteDeadline(time.Now().Add(writeWait)); err != nil {
		c.logger.Error().Err(err).Msg("Failed to set write deadline on ping")
		return false
	}

	if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
		c.logger.Debug().Err(err).Msg("Error writing ping")
		return false
	}

	return true
}

// sendMessage queues a frame for the write pump, logging on failure.
func (c *Client) sendMessage(msg Message) {
	if err := c.enqueue(msg); err != nil {
		c.logger.Warn().
			Str("msg_type", string(msg.Type)).
			Err(err).
			Msg("Failed to queue message for client")
	}
}

// SendError queues an error frame for requests that cannot be matched to an
// operation result.
func (c *Client) SendError(customErr *errs.CustomError) {
	c.sendMessage(NewMessage(TypeError, ErrorEvent{Code: customErr.Code, Error: customErr.Reason}))
}

// enqueue marshals the frame and performs a non-blocking hand-off to the
// outbound queue. It returns an error if the frame cannot be marshaled or the
// queue is full or already closed.
func (c *Client) enqueue(msg Message) error {
	messageBytes, err := json.Marshal(msg)
	if err != nil {
		c.logger.Error().Err(err).Msg("Error marshaling frame for client")
		return err
	}

	c.sendMu.Lock()
	defer c.sendMu.Unlock()

	if c.sendClosed {
		return errors.New("client send queue closed")
	}

	select {
	case c.send <- messageBytes:
		return nil
	default:
		c.logger.Warn().Int("queue_len", len(c.send)).Msg("Client send queue full, dropping frame")
		return errors.New("client send queue full")
	}
}

// closeSend closes the outbound queue exactly once, terminating WritePump.
func (c *Client) closeSend() {
	c.sendMu.Lock()
	defer c.sendMu.Unlock()

	if !c.sendClosed {
		c.sendClosed = true
		close(c.send)
	}
}
