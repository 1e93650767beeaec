package domain

import (
	"encoding/json"
	"errors"
	"fmt"
)

type Kind string

// Inbound kinds.
const (
	KindIdentify       Kind = "identify"
	KindJoinRoom       Kind = "join_room"
	KindLeaveRoom      Kind = "leave_room"
	KindOffer          Kind = "offer"
	KindAnswer         Kind = "answer"
	KindIceCandidate   Kind = "ice_candidate"
	KindCaption        Kind = "caption"
	KindVideoFrame     Kind = "video_frame"
	KindGetOnlineUsers Kind = "get_online_users"
	KindPing           Kind = "ping"
)

// Outbound kinds. Signaling relays reuse KindOffer, KindAnswer and KindIceCandidate.
const (
	KindConnected   Kind = "connected"
	KindUserJoined  Kind = "user_joined"
	KindUserLeft    Kind = "user_left"
	KindOnlineUsers Kind = "online_users_updated"
	KindPong        Kind = "pong"
)

// kindAliases maps event names used by older web clients.
var kindAliases = map[Kind]Kind{
	"user_online":          KindIdentify,
	"webrtc_offer":         KindOffer,
	"webrtc_answer":        KindAnswer,
	"webrtc_ice_candidate": KindIceCandidate,
	"send_caption":         KindCaption,
}

// Canonical resolves legacy aliases.
func (k Kind) Canonical() Kind {
	if c, ok := kindAliases[k]; ok {
		return c
	}
	return k
}

// IsSignaling reports whether k is an offer, answer or candidate relayed between peers.
func (k Kind) IsSignaling() bool {
	return k == KindOffer || k == KindAnswer || k == KindIceCandidate
}

var (
	ErrUnknownKind     = errors.New("unknown kind")
	ErrMissingKind     = errors.New("missing kind")
	ErrMissingRoom     = errors.New("missing room")
	ErrMissingUser     = errors.New("missing user_id")
	ErrMissingPayload  = errors.New("missing payload")
	ErrMissingCaption  = errors.New("missing caption")
	ErrMissingFrame    = errors.New("missing frame")
	ErrMalformedFields = errors.New("malformed envelope")
)

// Envelope is one inbound message. Only the fields relevant to Kind are set.
type Envelope struct {
	Kind        Kind            `json:"kind"`
	Room        RoomID          `json:"room,omitempty"`
	UserID      UserID          `json:"user_id,omitempty"`
	SenderID    UserID          `json:"sender_id,omitempty"`
	SenderName  string          `json:"sender_name,omitempty"`
	Offer       json.RawMessage `json:"offer,omitempty"`
	Answer      json.RawMessage `json:"answer,omitempty"`
	Candidate   json.RawMessage `json:"candidate,omitempty"`
	Caption     string          `json:"caption,omitempty"`
	CaptionType string          `json:"type,omitempty"`
	Frame       string          `json:"frame,omitempty"`
	Timestamp   json.RawMessage `json:"timestamp,omitempty"`
}

// ParseEnvelope decodes and validates an inbound text frame.
func ParseEnvelope(data []byte) (Envelope, error) {
	var env Envelope
	if err := json.Unmarshal(data, &env); err != nil {
		return Envelope{}, fmt.Errorf("%w: %v", ErrMalformedFields, err)
	}
	env.Kind = env.Kind.Canonical()
	if err := env.Validate(); err != nil {
		return Envelope{}, err
	}
	return env, nil
}

// Payload returns the opaque signaling body for offer, answer and candidate kinds.
func (e Envelope) Payload() json.RawMessage {
	switch e.Kind {
	case KindOffer:
		return e.Offer
	case KindAnswer:
		return e.Answer
	case KindIceCandidate:
		return e.Candidate
	}
	return nil
}

func (e Envelope) Validate() error {
	switch e.Kind {
	case "":
		return ErrMissingKind
	case KindIdentify:
		if e.UserID == "" {
			return ErrMissingUser
		}
		if _, err := NewUserID(string(e.UserID)); err != nil {
			return err
		}
	case KindJoinRoom, KindLeaveRoom:
		if _, err := NewRoomID(string(e.Room)); err != nil {
			return err
		}
	case KindOffer, KindAnswer, KindIceCandidate:
		if _, err := NewRoomID(string(e.Room)); err != nil {
			return err
		}
		if p := e.Payload(); len(p) == 0 || string(p) == "null" {
			return ErrMissingPayload
		}
	case KindCaption:
		if _, err := NewRoomID(string(e.Room)); err != nil {
			return err
		}
		if e.Caption == "" {
			return ErrMissingCaption
		}
	case KindVideoFrame:
		if _, err := NewRoomID(string(e.Room)); err != nil {
			return err
		}
		if e.Frame == "" {
			return ErrMissingFrame
		}
	case KindGetOnlineUsers, KindPing:
	default:
		return fmt.Errorf("%w: %q", ErrUnknownKind, e.Kind)
	}
	return nil
}
