package relay

import (
	"encoding/json"

	"github.com/rs/zerolog/log"

	"github.com/ritikkashyap720/web-rtc-calling/internal/domain"
	"github.com/ritikkashyap720/web-rtc-calling/internal/protocol"
)

// HandleFrame decodes one inbound frame and dispatches it through the state
// machine. Malformed frames and events that make no sense in the current
// state are dropped silently; nothing here ever errors back to the client.
func (s *Server) HandleFrame(id domain.ConnID, data []byte) {
	kind, err := protocol.Sniff(data)
	if err != nil {
		log.Warn().Err(err).Str("module", "relay.router").Str("conn", string(id)).Msg("bad frame")
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	sess, ok := s.sessions[id]
	if !ok {
		return
	}

	switch kind {
	case protocol.KindJoin:
		s.handleJoin(id, sess, data)
	case protocol.KindJoinRoom:
		s.handleJoinRoom(id, sess, data)
	case protocol.KindMessage:
		s.handleMessage(id, sess, data)
	case protocol.KindLeave:
		s.handleLeave(id, sess)
	case protocol.KindOffer, protocol.KindAnswer:
		s.relayDescription(id, sess, kind, data)
	case protocol.KindICECandidate:
		s.relayCandidate(id, sess, data)
	default:
		log.Warn().Str("module", "relay.router").Str("kind", string(kind)).Msg("unknown signal")
	}
}

// handleJoin is the identified flow: bind presence, enter the room, ack the
// joiner only. A connection already in a room leaves it first.
func (s *Server) handleJoin(id domain.ConnID, sess *session, data []byte) {
	var p protocol.JoinPayload
	if err := json.Unmarshal(data, &p); err != nil || p.Email == "" || p.RoomID == "" {
		log.Warn().Str("module", "relay.router").Str("conn", string(id)).Msg("bad join payload")
		return
	}
	email := domain.Email(p.Email)
	roomID := domain.RoomID(p.RoomID)

	if prev, ok := s.presence.Lookup(email); ok && prev != id {
		switch s.policy {
		case PolicyReject:
			log.Warn().Str("module", "relay.router").Str("email", p.Email).Msg("join rejected, identity taken")
			return
		case PolicyEvict:
			s.evict(prev, email)
		}
	}

	// Re-join moves the connection: the old room sees a leave first.
	if sess.state == domain.StateIdentified {
		s.teardown(id, sess)
	}

	s.presence.Bind(email, id)
	s.rooms.Join(roomID, id)
	sess.state = domain.StateIdentified
	sess.email = email
	sess.room = roomID

	s.registry.Send(id, protocol.JoinAck{
		Type:     protocol.KindJoin,
		Email:    p.Email,
		SocketID: string(id),
		RoomID:   p.RoomID,
	})
	log.Info().Str("module", "relay.router").Str("conn", string(id)).Str("email", p.Email).Str("room", p.RoomID).Msg("join")
}

// handleJoinRoom is the anonymous flow: no identity, no ack; the existing
// members (and only they) learn the newcomer's connection id.
func (s *Server) handleJoinRoom(id domain.ConnID, sess *session, data []byte) {
	var p protocol.JoinRoomPayload
	if err := json.Unmarshal(data, &p); err != nil || p.RoomID == "" {
		log.Warn().Str("module", "relay.router").Str("conn", string(id)).Msg("bad join-room payload")
		return
	}
	roomID := domain.RoomID(p.RoomID)

	if sess.state == domain.StateIdentified {
		s.teardown(id, sess)
	}

	s.rooms.Join(roomID, id)
	sess.state = domain.StateIdentified
	sess.room = roomID

	s.rooms.Broadcast(roomID, protocol.UserJoined{
		Type:     protocol.KindUserJoined,
		SocketID: string(id),
	}, id)
	log.Info().Str("module", "relay.router").Str("conn", string(id)).Str("room", p.RoomID).Msg("join-room")
}

// handleMessage broadcasts chat to the whole room, sender included.
func (s *Server) handleMessage(id domain.ConnID, sess *session, data []byte) {
	if sess.state != domain.StateIdentified || sess.room == "" {
		return
	}
	var p protocol.MessagePayload
	if err := json.Unmarshal(data, &p); err != nil || p.Email == "" || p.RoomID == "" {
		log.Warn().Str("module", "relay.router").Str("conn", string(id)).Msg("bad message payload")
		return
	}
	s.rooms.Broadcast(sess.room, protocol.MessageEvent{
		Type:    protocol.KindMessage,
		Email:   p.Email,
		Message: p.Message,
	})
}

// handleLeave drops the connection out of its room and identity but keeps
// the transport open; the connection can join again.
func (s *Server) handleLeave(id domain.ConnID, sess *session) {
	if sess.state != domain.StateIdentified {
		return
	}
	room := sess.room
	email := sess.email
	s.presence.UnbindConn(id)
	if room != "" {
		s.rooms.Leave(room, id)
		s.broadcastLeave(room, email, id)
	}
	sess.state = domain.StateUnidentified
	sess.email = ""
	sess.room = ""
	log.Info().Str("module", "relay.router").Str("conn", string(id)).Str("room", string(room)).Msg("leave")
}

// relayDescription unicasts an offer or answer. From is rewritten with the
// sender's id so a client cannot impersonate another connection; the sdp is
// relayed untouched. Unknown targets are a silent no-op.
func (s *Server) relayDescription(id domain.ConnID, sess *session, kind protocol.Kind, data []byte) {
	if sess.state != domain.StateIdentified {
		return
	}
	var p protocol.DescriptionPayload
	if err := json.Unmarshal(data, &p); err != nil || p.To == "" {
		log.Warn().Str("module", "relay.router").Str("conn", string(id)).Str("kind", string(kind)).Msg("bad payload")
		return
	}
	s.registry.Send(domain.ConnID(p.To), protocol.DescriptionEvent{
		Type: kind,
		From: string(id),
		SDP:  p.SDP,
	})
}

func (s *Server) relayCandidate(id domain.ConnID, sess *session, data []byte) {
	if sess.state != domain.StateIdentified {
		return
	}
	var p protocol.CandidatePayload
	if err := json.Unmarshal(data, &p); err != nil || p.To == "" || len(p.Candidate) == 0 {
		log.Warn().Str("module", "relay.router").Str("conn", string(id)).Msg("bad candidate payload")
		return
	}
	s.registry.Send(domain.ConnID(p.To), protocol.CandidateEvent{
		Type:      protocol.KindICECandidate,
		From:      string(id),
		Candidate: p.Candidate,
	})
}

// evict displaces the previous holder of an identity. Caller holds s.mu.
func (s *Server) evict(prev domain.ConnID, email domain.Email) {
	s.registry.Send(prev, protocol.Evicted{
		Type:  protocol.KindEvicted,
		Email: string(email),
	})
	if sess, ok := s.sessions[prev]; ok {
		s.teardown(prev, sess)
		sess.state = domain.StateClosed
		delete(s.sessions, prev)
	}
	s.registry.Drop(prev)
	log.Info().Str("module", "relay.router").Str("conn", string(prev)).Str("email", string(email)).Msg("evicted")
}

func (s *Server) broadcastLeave(room domain.RoomID, email domain.Email, id domain.ConnID) {
	s.rooms.Broadcast(room, protocol.LeaveEvent{
		Type:     protocol.KindLeave,
		Email:    string(email),
		SocketID: string(id),
	})
}
