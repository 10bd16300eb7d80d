package server

import "encoding/json"

// MessageType enumerates the sync protocol's message kinds.
type MessageType string

const (
	// Client -> Server
	MsgJoinRoom    MessageType = "JOIN_ROOM"
	MsgLeaveRoom   MessageType = "LEAVE_ROOM"
	MsgStateUpdate MessageType = "STATE_UPDATE"

	// Server -> Client
	MsgFullState    MessageType = "FULL_STATE"
	MsgDeltaUpdate  MessageType = "DELTA_UPDATE"
	MsgPlayerJoined MessageType = "PLAYER_JOINED"
	MsgPlayerLeft   MessageType = "PLAYER_LEFT"
	MsgError        MessageType = "ERROR"
)

// Message is the one JSON object carried by every WebSocket text frame.
// Unknown fields on input are ignored by encoding/json's default decode
// behavior; nil fields are omitted on output via `omitempty`.
type Message struct {
	Type      MessageType    `json:"type"`
	RoomID    string         `json:"roomId,omitempty"`
	PlayerID  string         `json:"playerId,omitempty"`
	Payload   map[string]any `json:"payload,omitempty"`
	Version   *int64         `json:"version,omitempty"`
	Timestamp *int64         `json:"timestamp,omitempty"`
}

// encodeMessage serializes m to its canonical textual JSON encoding.
// encoding/json's Marshal is stateless and safe for concurrent callers
// sharing no mutable state, so no dedicated encoder instance is needed.
func encodeMessage(m Message) ([]byte, error) {
	return json.Marshal(m)
}

// decodeMessage parses a single inbound text frame into a Message.
func decodeMessage(raw []byte) (Message, error) {
	var m Message
	err := json.Unmarshal(raw, &m)
	return m, err
}

func int64Ptr(v int64) *int64 { return &v }

// payloadString extracts a string field from an inbound payload, returning
// ok=false if absent or not a string.
func payloadString(payload map[string]any, key string) (string, bool) {
	if payload == nil {
		return "", false
	}
	v, ok := payload[key]
	if !ok {
		return "", false
	}
	s, ok := v.(string)
	return s, ok
}

// payloadFloat extracts a numeric field from an inbound payload.
// encoding/json decodes JSON numbers as float64 when the target is
// map[string]any, so no further conversion is required.
func payloadFloat(payload map[string]any, key string) (float64, bool) {
	if payload == nil {
		return 0, false
	}
	v, ok := payload[key]
	if !ok {
		return 0, false
	}
	f, ok := v.(float64)
	return f, ok
}
