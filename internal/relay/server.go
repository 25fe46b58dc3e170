package relay

import (
	"sync"

	"github.com/rs/zerolog/log"

	"github.com/ritikkashyap720/web-rtc-calling/internal/domain"
)

// DuplicatePolicy decides what happens when a join claims an email that is
// already bound to a live connection.
type DuplicatePolicy string

const (
	// PolicyOverwrite is last-write-wins: the old binding is replaced and
	// the old connection is neither notified nor disconnected. This is the
	// historical behavior and the default.
	PolicyOverwrite DuplicatePolicy = "overwrite"
	// PolicyReject drops the new join silently.
	PolicyReject DuplicatePolicy = "reject"
	// PolicyEvict notifies the old connection and disconnects it before
	// binding the new one.
	PolicyEvict DuplicatePolicy = "evict"
)

// session is the router-side view of one connection.
type session struct {
	state domain.ConnState
	email domain.Email
	room  domain.RoomID
}

// Server is the composition root: it owns the three tables and serializes
// every state mutation through one mutex, so one inbound event always runs
// to completion before the next. A connection's presence and room
// membership can never be observed in a contradictory state. Per-connection
// ordering comes from the transport read loop.
type Server struct {
	mu       sync.Mutex
	registry *Registry
	presence *Presence
	rooms    *Rooms
	sessions map[domain.ConnID]*session
	policy   DuplicatePolicy
}

func NewServer(policy DuplicatePolicy) *Server {
	if policy == "" {
		policy = PolicyOverwrite
	}
	registry := NewRegistry()
	return &Server{
		registry: registry,
		presence: NewPresence(),
		rooms:    NewRooms(registry),
		sessions: make(map[domain.ConnID]*session),
		policy:   policy,
	}
}

// Connect registers a new transport endpoint and returns its id.
func (s *Server) Connect(sender Sender) domain.ConnID {
	s.mu.Lock()
	defer s.mu.Unlock()
	id := s.registry.Register(sender)
	s.sessions[id] = &session{state: domain.StateUnidentified}
	return id
}

// Disconnect runs the close cascade. Idempotent: a second call for the same
// id finds no session and does nothing.
func (s *Server) Disconnect(id domain.ConnID) {
	s.mu.Lock()
	defer s.mu.Unlock()
	sess, ok := s.sessions[id]
	if !ok {
		return
	}
	s.teardown(id, sess)
	sess.state = domain.StateClosed
	delete(s.sessions, id)
	s.registry.Unregister(id)
	log.Info().Str("module", "relay.server").Str("conn", string(id)).Msg("disconnected")
}

// teardown removes the connection from presence and its room, broadcasting
// leave to the remaining members if it had joined. Caller holds s.mu.
func (s *Server) teardown(id domain.ConnID, sess *session) {
	email, _ := s.presence.UnbindConn(id)
	if sess.state == domain.StateIdentified && sess.room != "" {
		s.rooms.Leave(sess.room, id)
		s.broadcastLeave(sess.room, email, id)
	}
	sess.email = ""
	sess.room = ""
}

// Registry exposes the connection table for transports and introspection.
func (s *Server) Registry() *Registry { return s.registry }

// Presence exposes the identity table for introspection.
func (s *Server) Presence() *Presence { return s.presence }

// Rooms exposes the room table for introspection.
func (s *Server) Rooms() *Rooms { return s.rooms }
