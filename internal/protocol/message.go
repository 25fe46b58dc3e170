// Package protocol defines the wire catalog of the signaling relay.
//
// Every frame is a JSON object with a "type" discriminator. Negotiation
// payloads (sdp, candidate) are opaque to the relay and pass through
// untouched.
package protocol

import (
	"encoding/json"
	"errors"
)

// Kind is the "type" discriminator of a frame.
type Kind string

const (
	KindJoin         Kind = "join"
	KindJoinRoom     Kind = "join-room"
	KindMessage      Kind = "message"
	KindLeave        Kind = "leave"
	KindOffer        Kind = "offer"
	KindAnswer       Kind = "answer"
	KindICECandidate Kind = "ice-candidate"

	// Server-emitted only.
	KindUserJoined Kind = "user-joined"
	KindEvicted    Kind = "evicted"
)

var ErrNoKind = errors.New("protocol: frame has no type")

// Sniff extracts the kind without decoding the rest of the frame.
func Sniff(data []byte) (Kind, error) {
	var env struct {
		Type Kind `json:"type"`
	}
	if err := json.Unmarshal(data, &env); err != nil {
		return "", err
	}
	if env.Type == "" {
		return "", ErrNoKind
	}
	return env.Type, nil
}

// Inbound payloads.

type JoinPayload struct {
	Email  string `json:"email"`
	RoomID string `json:"roomId"`
}

type JoinRoomPayload struct {
	RoomID string `json:"roomId"`
}

type MessagePayload struct {
	Email   string `json:"email"`
	RoomID  string `json:"roomId"`
	Message string `json:"message"`
}

type LeavePayload struct {
	Email  string `json:"email"`
	RoomID string `json:"roomId"`
}

// DescriptionPayload carries an offer or answer. SDP is opaque.
type DescriptionPayload struct {
	To   string `json:"to"`
	From string `json:"from"`
	SDP  string `json:"sdp"`
}

// CandidatePayload carries an ICE candidate. The candidate may be a string
// or a structured init object depending on the client; either way it is
// relayed verbatim.
type CandidatePayload struct {
	To        string          `json:"to"`
	From      string          `json:"from,omitempty"`
	Candidate json.RawMessage `json:"candidate"`
}

// Outbound events.

// JoinAck confirms an identified join to the joiner only.
type JoinAck struct {
	Type     Kind   `json:"type"`
	Email    string `json:"email"`
	SocketID string `json:"socketId"`
	RoomID   string `json:"roomId"`
}

// UserJoined notifies existing room members of an anonymous joiner.
type UserJoined struct {
	Type     Kind   `json:"type"`
	SocketID string `json:"socketId"`
}

// MessageEvent is the room-wide chat broadcast.
type MessageEvent struct {
	Type    Kind   `json:"type"`
	Email   string `json:"email"`
	Message string `json:"message"`
}

// LeaveEvent notifies remaining room members that a member left.
type LeaveEvent struct {
	Type     Kind   `json:"type"`
	Email    string `json:"email,omitempty"`
	SocketID string `json:"socketId"`
}

// DescriptionEvent is a relayed offer or answer. From is always the
// sender's connection id, rewritten by the relay.
type DescriptionEvent struct {
	Type Kind   `json:"type"`
	From string `json:"from"`
	SDP  string `json:"sdp"`
}

// CandidateEvent is a relayed ICE candidate.
type CandidateEvent struct {
	Type      Kind            `json:"type"`
	From      string          `json:"from"`
	Candidate json.RawMessage `json:"candidate"`
}

// Evicted tells a connection its identity was claimed by a newer join.
// Only emitted under the evict duplicate-identity policy.
type Evicted struct {
	Type  Kind   `json:"type"`
	Email string `json:"email"`
}
