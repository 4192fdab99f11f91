package server

import (
	"context"
	"net/http"
	"sync"
	"time"

	"github.com/coder/websocket"
)

const (
	// Time allowed to write a message to the peer.
	writeWait = 10 * time.Second

	// Send pings to peers with this period.
	pingPeriod = 30 * time.Second
)

type client struct {
	conn      *websocket.Conn
	send      chan []byte
	closeOnce sync.Once
}

func (s *LiveReloadServer) handleWebSocket(w http.ResponseWriter, r *http.Request) {
	conn, err := websocket.Accept(w, r, &websocket.AcceptOptions{
		// The server binds to a caller-chosen address (often 0.0.0.0 on a
		// LAN), so same-host origin checking would reject legitimate
		// browsers. The endpoint only ever pushes "reload".
		InsecureSkipVerify: true,
	})
	if err != nil {
		s.log.Warn(r.Context(), err, "websocket upgrade failed")
		return
	}

	c := &client{
		conn: conn,
		send: make(chan []byte, 16),
	}

	select {
	case s.register <- c:
	case <-s.hubDone:
		c.closeConn(websocket.StatusGoingAway, "server shutting down")
		return
	}

	// The pumps outlive this handler: net/http cancels r.Context() as soon
	// as it returns, even for hijacked connections, so they must not run
	// on the request context.
	go c.writePump(s)
	go c.readPump(s)
}

// writePump forwards hub messages to the peer. It exits when the hub
// closes c.send or a write fails.
func (c *client) writePump(s *LiveReloadServer) {
	for message := range c.send {
		writeCtx, cancel := context.WithTimeout(context.Background(), writeWait)
		err := c.conn.Write(writeCtx, websocket.MessageText, message)
		cancel()
		if err != nil {
			c.drop(s)
			return
		}
	}
}

// readPump drains the connection so close frames and pongs are processed;
// the client never sends application data.
func (c *client) readPump(s *LiveReloadServer) {
	c.conn.SetReadLimit(512)
	for {
		if _, _, err := c.conn.Read(context.Background()); err != nil {
			c.drop(s)
			return
		}
	}
}

// drop hands the client back to the hub for removal. The hub alone closes
// c.send; when it is already gone its shutdown sweep has closed the
// connection, so there is nothing left to do.
func (c *client) drop(s *LiveReloadServer) {
	select {
	case s.unregister <- c:
	case <-s.hubDone:
	}
}

func (c *client) ping(ctx context.Context) {
	pingCtx, cancel := context.WithTimeout(ctx, writeWait)
	defer cancel()
	_ = c.conn.Ping(pingCtx)
}

// closeConn closes the websocket connection. It never touches c.send:
// that channel is owned and closed by the hub exclusively.
func (c *client) closeConn(code websocket.StatusCode, reason string) {
	c.closeOnce.Do(func() {
		_ = c.conn.Close(code, reason)
	})
}
