package handler

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"

	"sigrelay/internal/app/relay"
	"sigrelay/internal/configs"
)

const frameReadTimeout = 3 * time.Second

type wsFrame struct {
	ID        string            `json:"id"`
	Type      relay.MessageType `json:"type"`
	Timestamp int64             `json:"timestamp"`
	Payload   json.RawMessage   `json:"payload"`
}

func newTestServer(t *testing.T) (*httptest.Server, *relay.Hub) {
	t.Helper()

	hub := relay.NewHub()
	deps := &AppDeps{
		Hub: hub,
		Config: &configs.AppConfig{
			Environment:    "development",
			Port:           8080,
			AllowedOrigins: []string{},
		},
	}

	ts := httptest.NewServer(Router(deps))
	t.Cleanup(ts.Close)

	return ts, hub
}

func dialWS(t *testing.T, ts *httptest.Server) *websocket.Conn {
	t.Helper()

	wsURL := "ws" + strings.TrimPrefix(ts.URL, "http") + "/ws"
	conn, _, err := websocket.DefaultDialer.Dial(wsURL, nil)
	if err != nil {
		t.Fatalf("websocket dial failed: %v", err)
	}
	t.Cleanup(func() { conn.Close() })

	return conn
}

func sendRequest(t *testing.T, conn *websocket.Conn, msgType relay.MessageType, payload any) {
	t.Helper()

	req := map[string]any{"type": msgType}
	if payload != nil {
		req["payload"] = payload
	}
	if err := conn.WriteJSON(req); err != nil {
		t.Fatalf("failed to send %s request: %v", msgType, err)
	}
}

func readFrame(t *testing.T, conn *websocket.Conn) wsFrame {
	t.Helper()

	if err := conn.SetReadDeadline(time.Now().Add(frameReadTimeout)); err != nil {
		t.Fatalf("failed to set read deadline: %v", err)
	}

	var f wsFrame
	if err := conn.ReadJSON(&f); err != nil {
		t.Fatalf("failed to read frame: %v", err)
	}
	return f
}

func readJoinResult(t *testing.T, conn *websocket.Conn) relay.JoinResult {
	t.Helper()

	f := readFrame(t, conn)
	if f.Type != relay.TypeJoinResult {
		t.Fatalf("expected joinResult frame, got %s", f.Type)
	}
	var res relay.JoinResult
	if err := json.Unmarshal(f.Payload, &res); err != nil {
		t.Fatalf("failed to decode joinResult: %v", err)
	}
	return res
}

func fetchStatus(t *testing.T, ts *httptest.Server) map[string][]string {
	t.Helper()

	res, err := http.Get(ts.URL + "/status")
	if err != nil {
		t.Fatalf("status request failed: %v", err)
	}
	defer res.Body.Close()

	var body struct {
		Data struct {
			Rooms map[string][]string `json:"rooms"`
		} `json:"data"`
	}
	if err := json.NewDecoder(res.Body).Decode(&body); err != nil {
		t.Fatalf("failed to decode status response: %v", err)
	}
	return body.Data.Rooms
}

// TestSignalingScenario walks two clients through the full exchange: join with
// a name collision, presence events, a targeted offer, and disconnect cleanup.
func TestSignalingScenario(t *testing.T) {
	ts, hub := newTestServer(t)

	alice := dialWS(t, ts)
	sendRequest(t, alice, relay.TypeJoinRoom, relay.JoinRequest{RoomID: "r1", Username: "alice"})

	res := readJoinResult(t, alice)
	if !res.OK || len(res.Others) != 0 {
		t.Fatalf("expected clean first join, got %+v", res)
	}

	bob := dialWS(t, ts)
	sendRequest(t, bob, relay.TypeJoinRoom, relay.JoinRequest{RoomID: "r1", Username: "alice"})

	res = readJoinResult(t, bob)
	if res.OK || res.Error != "NameTaken" {
		t.Fatalf("expected NameTaken for duplicate name, got %+v", res)
	}

	sendRequest(t, bob, relay.TypeJoinRoom, relay.JoinRequest{RoomID: "r1", Username: "bob"})

	res = readJoinResult(t, bob)
	if !res.OK || len(res.Others) != 1 || res.Others[0] != "alice" {
		t.Fatalf("expected join with others [alice], got %+v", res)
	}

	f := readFrame(t, alice)
	if f.Type != relay.TypeUserJoined {
		t.Fatalf("expected userJoined at alice, got %s", f.Type)
	}
	var joined relay.PresenceEvent
	if err := json.Unmarshal(f.Payload, &joined); err != nil {
		t.Fatalf("failed to decode userJoined: %v", err)
	}
	if joined.Username != "bob" {
		t.Fatalf("expected userJoined for bob, got %q", joined.Username)
	}

	sendRequest(t, bob, relay.TypeSendSignal, map[string]any{
		"target": "alice",
		"signal": map[string]string{"type": "offer"},
	})

	f = readFrame(t, bob)
	if f.Type != relay.TypeSignalResult {
		t.Fatalf("expected signalResult at bob, got %s", f.Type)
	}
	var ack relay.Result
	if err := json.Unmarshal(f.Payload, &ack); err != nil {
		t.Fatalf("failed to decode signalResult: %v", err)
	}
	if !ack.OK {
		t.Fatalf("expected signal hand-off ack, got %+v", ack)
	}

	f = readFrame(t, alice)
	if f.Type != relay.TypeReceiveSignal {
		t.Fatalf("expected receiveSignal at alice, got %s", f.Type)
	}
	var delivery relay.SignalDelivery
	if err := json.Unmarshal(f.Payload, &delivery); err != nil {
		t.Fatalf("failed to decode receiveSignal: %v", err)
	}
	if delivery.SenderID == "" {
		t.Fatal("expected the sender's connection identity in the delivery")
	}
	if string(delivery.Signal) != `{"type":"offer"}` {
		t.Fatalf("signal not forwarded opaquely: %s", delivery.Signal)
	}

	rooms := fetchStatus(t, ts)
	if len(rooms["r1"]) != 2 {
		t.Fatalf("status should list both members of r1, got %v", rooms)
	}

	// abrupt disconnect of alice must surface as userLeft at bob
	alice.Close()

	f = readFrame(t, bob)
	if f.Type != relay.TypeUserLeft {
		t.Fatalf("expected userLeft at bob, got %s", f.Type)
	}
	var left relay.PresenceEvent
	if err := json.Unmarshal(f.Payload, &left); err != nil {
		t.Fatalf("failed to decode userLeft: %v", err)
	}
	if left.Username != "alice" {
		t.Fatalf("expected userLeft for alice, got %q", left.Username)
	}

	// the departed peer is no longer addressable
	sendRequest(t, bob, relay.TypeSendSignal, map[string]any{
		"target": "alice",
		"signal": map[string]string{"type": "offer"},
	})

	f = readFrame(t, bob)
	if err := json.Unmarshal(f.Payload, &ack); err != nil {
		t.Fatalf("failed to decode signalResult: %v", err)
	}
	if ack.OK || ack.Error != "TargetNotFound" {
		t.Fatalf("expected TargetNotFound after disconnect, got %+v", ack)
	}

	// last member out: the room must disappear from the registry
	bob.Close()

	deadline := time.Now().Add(frameReadTimeout)
	for {
		roomCount, participants := hub.Occupancy()
		if roomCount == 0 && participants == 0 {
			break
		}
		if time.Now().After(deadline) {
			t.Fatalf("registry not empty after all disconnects: %d rooms, %d participants", roomCount, participants)
		}
		time.Sleep(10 * time.Millisecond)
	}
}

func TestExplicitLeaveAndRejoin(t *testing.T) {
	ts, _ := newTestServer(t)

	conn := dialWS(t, ts)
	sendRequest(t, conn, relay.TypeJoinRoom, relay.JoinRequest{RoomID: "r1", Username: "alice"})
	if res := readJoinResult(t, conn); !res.OK {
		t.Fatalf("join failed: %+v", res)
	}

	sendRequest(t, conn, relay.TypeLeaveRoom, nil)

	f := readFrame(t, conn)
	if f.Type != relay.TypeLeaveResult {
		t.Fatalf("expected leaveResult, got %s", f.Type)
	}

	if rooms := fetchStatus(t, ts); len(rooms) != 0 {
		t.Fatalf("room should be gone after explicit leave, got %v", rooms)
	}

	// the connection stays usable and may join again
	sendRequest(t, conn, relay.TypeJoinRoom, relay.JoinRequest{RoomID: "r2", Username: "alice"})
	if res := readJoinResult(t, conn); !res.OK {
		t.Fatalf("rejoin after leave failed: %+v", res)
	}
}

func TestMalformedRequestsAreAnswered(t *testing.T) {
	ts, _ := newTestServer(t)

	conn := dialWS(t, ts)

	if err := conn.WriteMessage(websocket.TextMessage, []byte("not json")); err != nil {
		t.Fatalf("write failed: %v", err)
	}

	f := readFrame(t, conn)
	if f.Type != relay.TypeError {
		t.Fatalf("expected error frame for invalid JSON, got %s", f.Type)
	}

	sendRequest(t, conn, "makeCoffee", nil)

	f = readFrame(t, conn)
	if f.Type != relay.TypeError {
		t.Fatalf("expected error frame for unknown type, got %s", f.Type)
	}

	// signaling before join is a structured failure, not a dropped connection
	sendRequest(t, conn, relay.TypeSendSignal, map[string]any{"target": "bob", "signal": map[string]string{}})

	f = readFrame(t, conn)
	if f.Type != relay.TypeSignalResult {
		t.Fatalf("expected signalResult, got %s", f.Type)
	}
	var ack relay.Result
	if err := json.Unmarshal(f.Payload, &ack); err != nil {
		t.Fatalf("failed to decode signalResult: %v", err)
	}
	if ack.OK || ack.Error != "NoRoom" {
		t.Fatalf("expected NoRoom before join, got %+v", ack)
	}
}

func TestWebSocketConnectRateLimit(t *testing.T) {
	ts, _ := newTestServer(t)

	wsURL := "ws" + strings.TrimPrefix(ts.URL, "http") + "/ws"

	for i := 0; i < ConnectBurst; i++ {
		conn, _, err := websocket.DefaultDialer.Dial(wsURL, nil)
		if err != nil {
			t.Fatalf("dial %d within burst failed: %v", i+1, err)
		}
		defer conn.Close()
	}

	_, res, err := websocket.DefaultDialer.Dial(wsURL, nil)
	if !errors.Is(err, websocket.ErrBadHandshake) {
		t.Fatalf("expected handshake rejection over burst, got %v", err)
	}
	if res == nil || res.StatusCode != http.StatusTooManyRequests {
		t.Fatalf("expected 429 over burst, got %+v", res)
	}
	if res.Body != nil {
		res.Body.Close()
	}
}

func TestHealthEndpoint(t *testing.T) {
	ts, _ := newTestServer(t)

	res, err := http.Get(ts.URL + "/health")
	if err != nil {
		t.Fatalf("health request failed: %v", err)
	}
	defer res.Body.Close()

	if res.StatusCode != http.StatusOK {
		t.Fatalf("expected 200, got %d", res.StatusCode)
	}

	var body struct {
		Code int `json:"code"`
		Data struct {
			Status       string `json:"status"`
			Rooms        int    `json:"rooms"`
			Participants int    `json:"participants"`
		} `json:"data"`
	}
	if err := json.NewDecoder(res.Body).Decode(&body); err != nil {
		t.Fatalf("failed to decode health response: %v", err)
	}

	if body.Code != 0 || body.Data.Status != "ok" {
		t.Fatalf("unexpected health payload: %+v", body)
	}
}
