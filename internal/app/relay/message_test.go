package relay

import (
	"encoding/json"
	"strings"
	"testing"
)

func TestNewMessageEnvelope(t *testing.T) {
	msg := NewMessage(TypeUserJoined, PresenceEvent{Username: "alice"})

	if msg.ID == "" {
		t.Error("expected a generated frame ID")
	}
	if msg.Timestamp == 0 {
		t.Error("expected a populated timestamp")
	}
	if msg.Type != TypeUserJoined {
		t.Errorf("expected type %s, got %s", TypeUserJoined, msg.Type)
	}
}

func TestJoinResultMarshalsEmptyOthers(t *testing.T) {
	raw, err := json.Marshal(JoinResult{OK: true, Others: []string{}})
	if err != nil {
		t.Fatalf("marshal failed: %v", err)
	}

	// an empty snapshot must serialize as [], not null or absent
	if !strings.Contains(string(raw), `"others":[]`) {
		t.Errorf("expected empty others array in %s", raw)
	}
	if strings.Contains(string(raw), `"error"`) {
		t.Errorf("error field must be omitted on success, got %s", raw)
	}
}

func TestSignalRequestKeepsPayloadOpaque(t *testing.T) {
	in := []byte(`{"target":"bob","signal":{"type":"offer","nested":{"a":[1,2,3]}}}`)

	var req SignalRequest
	if err := json.Unmarshal(in, &req); err != nil {
		t.Fatalf("unmarshal failed: %v", err)
	}

	if req.Target != "bob" {
		t.Errorf("expected target bob, got %q", req.Target)
	}
	if string(req.Signal) != `{"type":"offer","nested":{"a":[1,2,3]}}` {
		t.Errorf("signal must be kept byte-for-byte, got %s", req.Signal)
	}
}
