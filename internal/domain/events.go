package domain

import "encoding/json"

const (
	CaptionTypeSign   = "sign"
	CaptionTypeSpeech = "speech"

	DefaultSenderName = "User"
)

// Outbound events. Field names follow the wire protocol used by the web client.

type ConnectedEvent struct {
	Kind   Kind   `json:"kind"`
	ConnID string `json:"conn_id"`
}

type UserJoinedEvent struct {
	Kind   Kind   `json:"kind"`
	Room   RoomID `json:"room"`
	UserID UserID `json:"user_id"`
	ConnID string `json:"conn_id"`
}

type UserLeftEvent struct {
	Kind   Kind   `json:"kind"`
	Room   RoomID `json:"room"`
	UserID UserID `json:"user_id"`
}

// SignalEvent carries an offer, answer or ICE candidate exactly as the sender produced it.
type SignalEvent struct {
	Kind       Kind            `json:"kind"`
	Room       RoomID          `json:"room"`
	SenderID   UserID          `json:"sender_id"`
	SenderConn string          `json:"sender_conn"`
	Offer      json.RawMessage `json:"offer,omitempty"`
	Answer     json.RawMessage `json:"answer,omitempty"`
	Candidate  json.RawMessage `json:"candidate,omitempty"`
}

type CaptionEvent struct {
	Kind       Kind            `json:"kind"`
	ID         string          `json:"id"`
	Room       RoomID          `json:"room"`
	Caption    string          `json:"caption"`
	Type       string          `json:"type"`
	SenderID   UserID          `json:"sender_id"`
	SenderName string          `json:"sender_name"`
	Timestamp  json.RawMessage `json:"timestamp"`
}

type OnlineUsersEvent struct {
	Kind  Kind            `json:"kind"`
	Users []PresenceEntry `json:"users"`
}

type PongEvent struct {
	Kind Kind `json:"kind"`
}
