// Package ws serves the browser game client over a websocket, translating its
// message protocol to match operations and engine events back to messages.
package ws

import (
	"context"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"github.com/mcoot/seabattle/internal/dependencies/clock"
	"github.com/mcoot/seabattle/internal/model"
	"github.com/mcoot/seabattle/internal/monitor"
	"github.com/mcoot/seabattle/internal/notify"
	"github.com/mcoot/seabattle/internal/services/auth"
	"github.com/mcoot/seabattle/internal/services/bot"
	"github.com/mcoot/seabattle/internal/services/lobby"
	"github.com/mcoot/seabattle/internal/services/match"
)

const (
	// Time allowed to write a message to the peer
	writeWait = 10 * time.Second

	// Time allowed to read the next pong message from the peer
	pongWait = 60 * time.Second

	// Send pings to peer with this period. Must be less than pongWait.
	pingPeriod = (pongWait * 9) / 10

	// Maximum message size allowed from peer
	maxMessageSize = 16 * 1024

	// Outgoing frames buffered per connection
	sendBufferSize = 256
)

// Gateway upgrades HTTP requests to websocket connections and serves one player per connection
type Gateway struct {
	auth    *auth.Service
	match   match.ControllerInterface
	bots    bot.ServiceInterface
	lobby   lobby.ServiceInterface
	hub     *notify.Hub
	metrics *monitor.Metrics
	clock   clock.Clock
	logger  *slog.Logger

	upgrader websocket.Upgrader
}

// NewGateway creates a new Gateway
func NewGateway(
	authService *auth.Service,
	matchController match.ControllerInterface,
	botService bot.ServiceInterface,
	lobbyService lobby.ServiceInterface,
	hub *notify.Hub,
	metrics *monitor.Metrics,
	clk clock.Clock,
	logger *slog.Logger,
) *Gateway {
	return &Gateway{
		auth:    authService,
		match:   matchController,
		bots:    botService,
		lobby:   lobbyService,
		hub:     hub,
		metrics: metrics,
		clock:   clk,
		logger:  logger.With(slog.String("component", "ws")),
		upgrader: websocket.Upgrader{
			ReadBufferSize:  4096,
			WriteBufferSize: 4096,
			CheckOrigin: func(r *http.Request) bool {
				return true // The game client may be served from anywhere
			},
		},
	}
}

// conn is the server side of one client connection
type conn struct {
	gw   *Gateway
	ws   *websocket.Conn
	send chan []byte
	done chan struct{}

	// Set once reg succeeds; only touched by the read loop
	session *auth.Session
	sub     *notify.Subscription

	closeOnce sync.Once
	logger    *slog.Logger
}

// ServeHTTP handles the websocket upgrade and blocks until the connection ends
func (g *Gateway) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	ws, err := g.upgrader.Upgrade(w, r, nil)
	if err != nil {
		g.logger.Warn("websocket upgrade failed", slog.String("error", err.Error()))
		return
	}

	c := &conn{
		gw:     g,
		ws:     ws,
		send:   make(chan []byte, sendBufferSize),
		done:   make(chan struct{}),
		logger: g.logger.With(slog.String("remote_addr", r.RemoteAddr)),
	}
	c.logger.Info("websocket connected")

	go c.writePump()
	c.readPump(context.WithoutCancel(r.Context()))
}

// readPump handles inbound messages until the peer goes away, then releases the player
func (c *conn) readPump(ctx context.Context) {
	defer c.close(ctx)

	c.ws.SetReadLimit(maxMessageSize)
	_ = c.ws.SetReadDeadline(time.Now().Add(pongWait))
	c.ws.SetPongHandler(func(string) error {
		return c.ws.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		_, raw, err := c.ws.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				c.logger.Warn("websocket read failed", slog.String("error", err.Error()))
			}
			return
		}

		start := c.gw.clock.Now()
		c.handle(ctx, raw)
		if c.gw.metrics != nil {
			c.gw.metrics.ObserveMessage(c.gw.clock.Now().Sub(start))
		}
	}
}

// writePump is the only writer on the socket
func (c *conn) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		_ = c.ws.Close()
	}()

	for {
		select {
		case msg := <-c.send:
			_ = c.ws.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.ws.WriteMessage(websocket.TextMessage, msg); err != nil {
				return
			}

		case <-ticker.C:
			_ = c.ws.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.ws.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}

		case <-c.done:
			_ = c.ws.SetWriteDeadline(time.Now().Add(writeWait))
			_ = c.ws.WriteMessage(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
			return
		}
	}
}

// forward relays hub events for this player to the socket until the subscription closes
func (c *conn) forward(sub *notify.Subscription) {
	for event := range sub.Events() {
		for _, f := range translate(event) {
			c.write(f.msgType, f.payload)
		}
	}
}

// write queues one message. Messages for a connection that is closing are discarded.
func (c *conn) write(msgType string, payload any) {
	msg, err := Encode(msgType, payload)
	if err != nil {
		c.logger.Error("failed to encode message", slog.String("type", msgType), slog.String("error", err.Error()))
		return
	}
	select {
	case c.send <- msg:
	case <-c.done:
	default:
		c.logger.Warn("message dropped - send buffer full", slog.String("type", msgType))
	}
}

// close releases everything the connection holds. Leaving forfeits any open match.
func (c *conn) close(ctx context.Context) {
	c.closeOnce.Do(func() {
		close(c.done)
		if c.session == nil {
			c.logger.Info("websocket disconnected")
			return
		}

		playerID := c.session.PlayerID
		c.gw.hub.Unsubscribe(c.sub)
		err := c.gw.match.LeaveAndRemove(ctx, playerID, func(ctx context.Context) error {
			return c.gw.auth.Unregister(ctx, playerID)
		})
		if err != nil {
			c.logger.Error("failed to release player on disconnect", slog.String("error", err.Error()))
		}
		c.gw.lobby.PublishUpdate(ctx)
		if c.gw.metrics != nil {
			c.gw.metrics.PlayerDisconnected()
		}
		c.logger.Info("player disconnected", slog.Int64("player_id", int64(playerID)))
	})
}

// playerID returns the registered player, or 0 before reg
func (c *conn) playerID() model.PlayerID {
	if c.session == nil {
		return 0
	}
	return c.session.PlayerID
}
