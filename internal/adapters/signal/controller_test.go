package signal

import (
	"encoding/json"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ritikkashyap720/web-rtc-calling/internal/config"
	"github.com/ritikkashyap720/web-rtc-calling/internal/relay"
)

func testConfig() *config.Config {
	return &config.Config{
		Mode:           "test",
		AllowedOrigins: []string{"*"},
		ReadLimit:      32768,
		PingPeriod:     54 * time.Second,
	}
}

func newTestServer(t *testing.T, srv *relay.Server) *httptest.Server {
	t.Helper()
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.GET("/ws", NewController(testConfig(), srv).HandleSignal)
	ts := httptest.NewServer(r)
	t.Cleanup(ts.Close)
	return ts
}

func dial(t *testing.T, ts *httptest.Server) *websocket.Conn {
	t.Helper()
	url := "ws" + strings.TrimPrefix(ts.URL, "http") + "/ws"
	ws, _, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	t.Cleanup(func() { ws.Close() })
	return ws
}

func readEvent(t *testing.T, ws *websocket.Conn) map[string]any {
	t.Helper()
	require.NoError(t, ws.SetReadDeadline(time.Now().Add(2*time.Second)))
	_, data, err := ws.ReadMessage()
	require.NoError(t, err)
	var m map[string]any
	require.NoError(t, json.Unmarshal(data, &m))
	return m
}

func TestController_JoinOverWebSocket(t *testing.T) {
	srv := relay.NewServer(relay.PolicyOverwrite)
	ts := newTestServer(t, srv)

	ws := dial(t, ts)
	require.NoError(t, ws.WriteJSON(map[string]string{
		"type": "join", "email": "a@x", "roomId": "r1",
	}))

	ack := readEvent(t, ws)
	assert.Equal(t, "join", ack["type"])
	assert.Equal(t, "a@x", ack["email"])
	assert.Equal(t, "r1", ack["roomId"])
	assert.NotEmpty(t, ack["socketId"])

	id, ok := srv.Presence().Lookup("a@x")
	require.True(t, ok)
	assert.Equal(t, string(id), ack["socketId"])
}

func TestController_UserJoinedFanout(t *testing.T) {
	srv := relay.NewServer(relay.PolicyOverwrite)
	ts := newTestServer(t, srv)

	first := dial(t, ts)
	require.NoError(t, first.WriteJSON(map[string]string{"type": "join-room", "roomId": "r1"}))

	// Wait until the first member is actually in the room before the second
	// one joins; otherwise the fan-out has nobody to reach.
	require.Eventually(t, func() bool {
		return len(srv.Rooms().Members("r1")) == 1
	}, 2*time.Second, 10*time.Millisecond)

	second := dial(t, ts)
	require.NoError(t, second.WriteJSON(map[string]string{"type": "join-room", "roomId": "r1"}))

	ev := readEvent(t, first)
	assert.Equal(t, "user-joined", ev["type"])
	assert.NotEmpty(t, ev["socketId"])
}

func TestController_DisconnectRunsCascade(t *testing.T) {
	srv := relay.NewServer(relay.PolicyOverwrite)
	ts := newTestServer(t, srv)

	ws := dial(t, ts)
	require.NoError(t, ws.WriteJSON(map[string]string{
		"type": "join", "email": "a@x", "roomId": "r1",
	}))
	readEvent(t, ws) // ack

	require.NoError(t, ws.Close())

	require.Eventually(t, func() bool {
		_, bound := srv.Presence().Lookup("a@x")
		return !bound && srv.Rooms().Members("r1") == nil
	}, 2*time.Second, 10*time.Millisecond, "close cascade must clear presence and room")
	assert.Equal(t, 0, srv.Registry().Count())
}

func TestOriginAllowed(t *testing.T) {
	tests := []struct {
		name    string
		allowed []string
		origin  string
		want    bool
	}{
		{name: "wildcard", allowed: []string{"*"}, origin: "http://evil.example", want: true},
		{name: "exact match", allowed: []string{"http://localhost:5173"}, origin: "http://localhost:5173", want: true},
		{name: "mismatch", allowed: []string{"http://localhost:5173"}, origin: "http://other.example", want: false},
		{name: "no origin header", allowed: []string{"http://localhost:5173"}, origin: "", want: true},
		{name: "empty allow list", allowed: nil, origin: "http://other.example", want: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, originAllowed(tt.allowed, tt.origin))
		})
	}
}
