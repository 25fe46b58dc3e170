package relay

import (
	"sync"

	"github.com/rs/zerolog/log"

	"github.com/ritikkashyap720/web-rtc-calling/internal/domain"
)

// Rooms maps room ids to member connections. Rooms are created lazily on
// first join and deleted when the last member leaves, so an absent room and
// an empty room are the same thing.
type Rooms struct {
	mu       sync.RWMutex
	registry *Registry
	rooms    map[domain.RoomID]map[domain.ConnID]struct{}
}

// RoomInfo is a read-only snapshot for introspection.
type RoomInfo struct {
	ID          domain.RoomID `json:"roomId"`
	MemberCount int           `json:"memberCount"`
}

func NewRooms(registry *Registry) *Rooms {
	return &Rooms{
		registry: registry,
		rooms:    make(map[domain.RoomID]map[domain.ConnID]struct{}),
	}
}

func (r *Rooms) Join(roomID domain.RoomID, id domain.ConnID) {
	r.mu.Lock()
	defer r.mu.Unlock()
	room, ok := r.rooms[roomID]
	if !ok {
		room = make(map[domain.ConnID]struct{})
		r.rooms[roomID] = room
		log.Info().Str("module", "relay.rooms").Str("room", string(roomID)).Msg("room created")
	}
	room[id] = struct{}{}
	log.Info().Str("module", "relay.rooms").Str("room", string(roomID)).Str("conn", string(id)).Int("members", len(room)).Msg("joined room")
}

func (r *Rooms) Leave(roomID domain.RoomID, id domain.ConnID) {
	r.mu.Lock()
	defer r.mu.Unlock()
	room, ok := r.rooms[roomID]
	if !ok {
		return
	}
	delete(room, id)
	log.Info().Str("module", "relay.rooms").Str("room", string(roomID)).Str("conn", string(id)).Int("members", len(room)).Msg("left room")
	if len(room) == 0 {
		delete(r.rooms, roomID)
		log.Info().Str("module", "relay.rooms").Str("room", string(roomID)).Msg("room deleted")
	}
}

// Broadcast delivers v to every current member except those in exclude.
// Delivery is best effort; order across members is unspecified.
func (r *Rooms) Broadcast(roomID domain.RoomID, v any, exclude ...domain.ConnID) {
	r.mu.RLock()
	room := r.rooms[roomID]
	members := make([]domain.ConnID, 0, len(room))
	for id := range room {
		members = append(members, id)
	}
	r.mu.RUnlock()

	for _, id := range members {
		skip := false
		for _, ex := range exclude {
			if id == ex {
				skip = true
				break
			}
		}
		if !skip {
			r.registry.Send(id, v)
		}
	}
}

// Members returns a snapshot of the room's membership, nil if absent.
func (r *Rooms) Members(roomID domain.RoomID) []domain.ConnID {
	r.mu.RLock()
	defer r.mu.RUnlock()
	room, ok := r.rooms[roomID]
	if !ok {
		return nil
	}
	out := make([]domain.ConnID, 0, len(room))
	for id := range room {
		out = append(out, id)
	}
	return out
}

func (r *Rooms) List() []RoomInfo {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]RoomInfo, 0, len(r.rooms))
	for id, room := range r.rooms {
		out = append(out, RoomInfo{ID: id, MemberCount: len(room)})
	}
	return out
}
