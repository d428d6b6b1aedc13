package bridge

import (
	"context"
	"log/slog"
	"net/http"
	"net/url"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/mahaj/harmonium/pkg/auth"
	"github.com/mahaj/harmonium/pkg/model"
)

const (
	// Time allowed to write a message to the peer.
	writeWait = 10 * time.Second

	// Time allowed to read the next pong message from the peer.
	pongWait = 60 * time.Second

	// Send pings to peer with this period. Must be less than pongWait.
	pingPeriod = (pongWait * 9) / 10

	// Maximum command size allowed from peer.
	maxMessageSize = 4096

	// Command handling deadline.
	commandTimeout = 5 * time.Second
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin:     sameOrigin,
}

// sameOrigin accepts non-browser clients (no Origin header) and pages served
// by the shell itself.
func sameOrigin(r *http.Request) bool {
	origin := r.Header.Get("Origin")
	if origin == "" {
		return true
	}
	u, err := url.Parse(origin)
	if err != nil {
		return false
	}
	return u.Host == r.Host
}

// Client is a middleman between one UI websocket and the hub.
type Client struct {
	hub  *Hub
	conn *websocket.Conn
	log  *slog.Logger

	// Buffered channel of outbound frames. Only the hub closes it.
	send chan []byte

	// ID names this connection; SessionID comes from the token.
	ID        string
	SessionID string
}

// readPump turns inbound frames into commands until the connection ends.
func (c *Client) readPump() {
	defer func() {
		c.hub.detach(c)
		c.conn.Close()
	}()
	c.conn.SetReadLimit(maxMessageSize)
	c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error { c.conn.SetReadDeadline(time.Now().Add(pongWait)); return nil })
	for {
		_, frame, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				c.log.Warn("Unexpected websocket close", "conn_id", c.ID, "error", err)
			}
			return
		}

		ctx, cancel := context.WithTimeout(context.Background(), commandTimeout)
		err = dispatch(ctx, c.hub.commands, frame)
		cancel()
		if err != nil {
			c.log.Info("Command rejected", "conn_id", c.ID, "error", err)
			evt, buildErr := model.NewEvent(model.EventError, model.ErrorPayload{Message: err.Error()})
			if buildErr == nil {
				c.hub.reply(c, evt)
			}
		}
	}
}

// writePump writes one websocket frame per event and keeps the connection
// alive with pings.
func (c *Client) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.conn.Close()
	}()
	for {
		select {
		case payload, ok := <-c.send:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				// The hub closed the channel.
				c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := c.conn.WriteMessage(websocket.TextMessage, payload); err != nil {
				return
			}
		case <-ticker.C:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

// ServeWs authenticates the UI and attaches it to the hub.
func (h *Hub) ServeWs(signer *auth.Signer) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		tokenString := r.Header.Get("Authorization")
		if tokenString == "" {
			// Browsers cannot set headers on a websocket handshake.
			tokenString = r.URL.Query().Get("token")
		}
		if tokenString == "" {
			http.Error(w, "Unauthorized", http.StatusUnauthorized)
			return
		}

		claims, err := signer.ValidateToken(tokenString)
		if err != nil {
			h.log.Info("Rejected UI attach", "error", err)
			http.Error(w, "Unauthorized", http.StatusUnauthorized)
			return
		}

		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			h.log.Warn("Websocket upgrade failed", "error", err)
			return
		}

		client := &Client{
			hub:       h,
			conn:      conn,
			log:       h.log,
			send:      make(chan []byte, 512),
			ID:        uuid.NewString(),
			SessionID: claims.SessionID,
		}
		if !client.hub.attach(client) {
			conn.WriteMessage(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.CloseGoingAway, "shutting down"))
			conn.Close()
			return
		}

		go client.writePump()
		go client.readPump()
	}
}
