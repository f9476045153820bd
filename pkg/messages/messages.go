package messages

import "encoding/json"

// Message types
const (
	MessageTypeClientSubscribe   = "sub"
	MessageTypeClientUnsubscribe = "unsub"
	MessageTypeServerAck         = "ack"
	MessageTypeServerEvent       = "evt"
	MessageTypeServerError       = "err"
)

// Message represents a generic message for serialization/deserialization
type Message struct {
	Type    string          `json:"type"`
	Payload json.RawMessage `json:"payload,omitempty"`
}

// ClientSubscribe asks the server to deliver events for a game and/or
// for the authenticated player. At least one field must be set, and
// playerID may only name the caller's own identity.
type ClientSubscribe struct {
	GameID   string `json:"gameID,omitempty"`
	PlayerID string `json:"playerID,omitempty"`
}

// ClientUnsubscribe removes a previously registered subscription with
// the same fields.
type ClientUnsubscribe struct {
	GameID   string `json:"gameID,omitempty"`
	PlayerID string `json:"playerID,omitempty"`
}

// ServerError reports a rejected client message.
type ServerError struct {
	Message string `json:"message"`
}
