package relay

import (
	"encoding/json"
	"sync"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"github.com/ritikkashyap720/web-rtc-calling/internal/domain"
)

// Sender is one live transport endpoint. Implemented by the websocket
// adapter; tests use fakes.
type Sender interface {
	// TrySend queues one frame without blocking. Failure means the
	// connection is too slow or gone; the relay never retries.
	TrySend(data []byte) error
	Close()
}

// Registry tracks every live connection. It owns the id space; presence and
// rooms only ever reference connections through ids handed out here.
type Registry struct {
	mu    sync.RWMutex
	conns map[domain.ConnID]Sender
}

func NewRegistry() *Registry {
	return &Registry{conns: make(map[domain.ConnID]Sender)}
}

// Register assigns a fresh id to the endpoint and starts tracking it.
func (r *Registry) Register(s Sender) domain.ConnID {
	id := domain.ConnID(uuid.NewString())
	r.mu.Lock()
	r.conns[id] = s
	r.mu.Unlock()
	log.Info().Str("module", "relay.registry").Str("conn", string(id)).Msg("connection registered")
	return id
}

// Unregister stops tracking the connection. Calling it twice is a no-op.
func (r *Registry) Unregister(id domain.ConnID) {
	r.mu.Lock()
	_, ok := r.conns[id]
	delete(r.conns, id)
	r.mu.Unlock()
	if ok {
		log.Info().Str("module", "relay.registry").Str("conn", string(id)).Msg("connection unregistered")
	}
}

// Drop unregisters the connection and closes its endpoint. Used when the
// relay itself decides a connection must go (eviction), as opposed to the
// transport noticing a close.
func (r *Registry) Drop(id domain.ConnID) {
	r.mu.Lock()
	s, ok := r.conns[id]
	delete(r.conns, id)
	r.mu.Unlock()
	if ok {
		s.Close()
		log.Info().Str("module", "relay.registry").Str("conn", string(id)).Msg("connection dropped")
	}
}

// Send marshals v and delivers it to exactly one connection, best effort.
// Unknown ids and delivery failures are swallowed: an unknown target never
// errors the caller.
func (r *Registry) Send(id domain.ConnID, v any) {
	r.mu.RLock()
	s, ok := r.conns[id]
	r.mu.RUnlock()
	if !ok {
		return
	}
	b, err := json.Marshal(v)
	if err != nil {
		log.Error().Err(err).Str("module", "relay.registry").Msg("marshal outbound")
		return
	}
	if err := s.TrySend(b); err != nil {
		log.Debug().Err(err).Str("module", "relay.registry").Str("conn", string(id)).Msg("send dropped")
	}
}

func (r *Registry) IsAlive(id domain.ConnID) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	_, ok := r.conns[id]
	return ok
}

func (r *Registry) Count() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.conns)
}
