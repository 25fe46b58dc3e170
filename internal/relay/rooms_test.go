package relay

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ritikkashyap720/web-rtc-calling/internal/domain"
)

func TestRooms_Broadcast(t *testing.T) {
	tests := []struct {
		name     string
		setup    func(r *Registry, rooms *Rooms) (senders map[string]*fakeSender, exclude []domain.ConnID)
		room     domain.RoomID
		wantRecv map[string]int
	}{
		{
			name: "all members receive",
			setup: func(r *Registry, rooms *Rooms) (map[string]*fakeSender, []domain.ConnID) {
				senders := map[string]*fakeSender{"a": {}, "b": {}, "c": {}}
				for _, k := range []string{"a", "b", "c"} {
					rooms.Join("r1", r.Register(senders[k]))
				}
				return senders, nil
			},
			room:     "r1",
			wantRecv: map[string]int{"a": 1, "b": 1, "c": 1},
		},
		{
			name: "excluded member skipped",
			setup: func(r *Registry, rooms *Rooms) (map[string]*fakeSender, []domain.ConnID) {
				senders := map[string]*fakeSender{"a": {}, "b": {}}
				idA := r.Register(senders["a"])
				rooms.Join("r1", idA)
				rooms.Join("r1", r.Register(senders["b"]))
				return senders, []domain.ConnID{idA}
			},
			room:     "r1",
			wantRecv: map[string]int{"a": 0, "b": 1},
		},
		{
			name: "no cross-room delivery",
			setup: func(r *Registry, rooms *Rooms) (map[string]*fakeSender, []domain.ConnID) {
				senders := map[string]*fakeSender{"a": {}, "b": {}}
				rooms.Join("r1", r.Register(senders["a"]))
				rooms.Join("r2", r.Register(senders["b"]))
				return senders, nil
			},
			room:     "r1",
			wantRecv: map[string]int{"a": 1, "b": 0},
		},
		{
			name: "absent room is a no-op",
			setup: func(r *Registry, rooms *Rooms) (map[string]*fakeSender, []domain.ConnID) {
				return map[string]*fakeSender{}, nil
			},
			room:     "ghost",
			wantRecv: map[string]int{},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			registry := NewRegistry()
			rooms := NewRooms(registry)
			senders, exclude := tt.setup(registry, rooms)

			rooms.Broadcast(tt.room, map[string]string{"type": "test"}, exclude...)

			for name, s := range senders {
				assert.Len(t, s.events(t), tt.wantRecv[name], "sender %s", name)
			}
		})
	}
}

func TestRooms_LeaveDeletesEmptyRoom(t *testing.T) {
	registry := NewRegistry()
	rooms := NewRooms(registry)

	idA := registry.Register(&fakeSender{})
	idB := registry.Register(&fakeSender{})
	rooms.Join("r1", idA)
	rooms.Join("r1", idB)
	require.Len(t, rooms.Members("r1"), 2)

	rooms.Leave("r1", idA)
	assert.Len(t, rooms.Members("r1"), 1)

	rooms.Leave("r1", idB)
	assert.Nil(t, rooms.Members("r1"))
	assert.Empty(t, rooms.List())
}

func TestRooms_LeaveUnknownRoomIsNoop(t *testing.T) {
	rooms := NewRooms(NewRegistry())
	assert.NotPanics(t, func() { rooms.Leave("ghost", "conn-1") })
}

func TestRooms_List(t *testing.T) {
	registry := NewRegistry()
	rooms := NewRooms(registry)

	rooms.Join("r1", registry.Register(&fakeSender{}))
	rooms.Join("r1", registry.Register(&fakeSender{}))
	rooms.Join("r2", registry.Register(&fakeSender{}))

	list := rooms.List()
	require.Len(t, list, 2)
	counts := map[domain.RoomID]int{}
	for _, info := range list {
		counts[info.ID] = info.MemberCount
	}
	assert.Equal(t, map[domain.RoomID]int{"r1": 2, "r2": 1}, counts)
}
