// Package domain contains entities without logic, just meta-data.
package domain

type (
	// ConnID is a server-assigned id, unique for the process lifetime.
	ConnID string
	// RoomID is a caller-chosen room name.
	RoomID string
	// Email is a client-supplied identity. Never verified.
	Email string
)

// ConnState is the lifecycle of a connection as seen by the router.
type ConnState int

const (
	StateUnidentified ConnState = iota
	StateIdentified
	StateClosed
)

func (s ConnState) String() string {
	switch s {
	case StateUnidentified:
		return "unidentified"
	case StateIdentified:
		return "identified"
	case StateClosed:
		return "closed"
	}
	return "unknown"
}
