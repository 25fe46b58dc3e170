// Package signal is the websocket transport for the relay: it upgrades the
// HTTP request, pumps frames both ways, and reports connection loss so the
// relay can run its close cascade.
package signal

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"github.com/rs/zerolog/log"

	"github.com/ritikkashyap720/web-rtc-calling/internal/config"
	"github.com/ritikkashyap720/web-rtc-calling/internal/domain"
	"github.com/ritikkashyap720/web-rtc-calling/internal/relay"
)

const writeWait = 5 * time.Second

type Controller struct {
	cfg      *config.Config
	srv      *relay.Server
	upgrader websocket.Upgrader
}

func NewController(cfg *config.Config, srv *relay.Server) *Controller {
	return &Controller{
		cfg: cfg,
		srv: srv,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin: func(r *http.Request) bool {
				return originAllowed(cfg.AllowedOrigins, r.Header.Get("Origin"))
			},
		},
	}
}

func originAllowed(allowed []string, origin string) bool {
	// Non-browser clients send no Origin header.
	if origin == "" {
		return true
	}
	for _, a := range allowed {
		if a == "*" || a == origin {
			return true
		}
	}
	return false
}

// HandleSignal upgrades the request and runs the read loop on the handler
// goroutine. Frames from one connection therefore reach the relay in the
// order the transport delivered them.
func (ctl *Controller) HandleSignal(c *gin.Context) {
	ws, err := ctl.upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		log.Error().Err(err).Str("module", "signal").Msg("ws upgrade")
		return
	}

	conn := newWSConn(ws)
	id := ctl.srv.Connect(conn)
	log.Info().Str("module", "signal").Str("conn", string(id)).Msg("new WS connection")

	go ctl.writePump(conn)
	ctl.readPump(id, conn)
}

func (ctl *Controller) readPump(id domain.ConnID, c *wsConn) {
	defer func() {
		ctl.srv.Disconnect(id)
		c.Close()
	}()

	readWait := ctl.cfg.PingPeriod * 10 / 9
	c.conn.SetReadLimit(ctl.cfg.ReadLimit)
	_ = c.conn.SetReadDeadline(time.Now().Add(readWait))
	c.conn.SetPongHandler(func(string) error {
		return c.conn.SetReadDeadline(time.Now().Add(readWait))
	})

	for {
		_, data, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				log.Warn().Err(err).Str("module", "signal").Str("conn", string(id)).Msg("read error")
			}
			return
		}
		ctl.srv.HandleFrame(id, data)
	}
}

func (ctl *Controller) writePump(c *wsConn) {
	ticker := time.NewTicker(ctl.cfg.PingPeriod)
	defer func() {
		ticker.Stop()
		_ = c.conn.Close()
	}()

	for {
		select {
		case data, ok := <-c.send:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				_ = c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := c.conn.WriteMessage(websocket.TextMessage, data); err != nil {
				return
			}
		case <-ticker.C:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}
