package relay

import (
	"sync"

	"github.com/rs/zerolog/log"

	"github.com/ritikkashyap720/web-rtc-calling/internal/domain"
)

// Presence maps a client-supplied email to its current connection. The
// reverse index makes connection teardown O(1) instead of a table scan.
//
// Presence is mechanism only: Bind always overwrites. The duplicate-identity
// policy (reject, evict) is the router's job.
type Presence struct {
	mu      sync.RWMutex
	byEmail map[domain.Email]domain.ConnID
	byConn  map[domain.ConnID]domain.Email
}

func NewPresence() *Presence {
	return &Presence{
		byEmail: make(map[domain.Email]domain.ConnID),
		byConn:  make(map[domain.ConnID]domain.Email),
	}
}

// Bind points email at id, returning the previously bound connection if
// there was one. The previous connection is left untouched.
func (p *Presence) Bind(email domain.Email, id domain.ConnID) (prev domain.ConnID, hadPrev bool) {
	p.mu.Lock()
	defer p.mu.Unlock()
	prev, hadPrev = p.byEmail[email]
	if hadPrev {
		delete(p.byConn, prev)
	}
	p.byEmail[email] = id
	p.byConn[id] = email
	log.Info().Str("module", "relay.presence").Str("email", string(email)).Str("conn", string(id)).Msg("presence bound")
	return prev, hadPrev
}

// Unbind removes the mapping for email if present.
func (p *Presence) Unbind(email domain.Email) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if id, ok := p.byEmail[email]; ok {
		delete(p.byEmail, email)
		delete(p.byConn, id)
	}
}

func (p *Presence) Lookup(email domain.Email) (domain.ConnID, bool) {
	p.mu.RLock()
	defer p.mu.RUnlock()
	id, ok := p.byEmail[email]
	return id, ok
}

// UnbindConn removes whatever entry currently points at id. Used during
// connection teardown.
func (p *Presence) UnbindConn(id domain.ConnID) (domain.Email, bool) {
	p.mu.Lock()
	defer p.mu.Unlock()
	email, ok := p.byConn[id]
	if !ok {
		return "", false
	}
	delete(p.byConn, id)
	delete(p.byEmail, email)
	return email, true
}

func (p *Presence) Count() int {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return len(p.byEmail)
}
