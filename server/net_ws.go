package server

import (
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"
)

const (
	WSPath            = "/sync"
	maxFrameSize      = 65536
	readIdleTimeout   = 60 * time.Second
	writeDeadline     = 10 * time.Second
	pingPeriod        = readIdleTimeout * 9 / 10
	handshakeTimeout  = 10 * time.Second
	outboundQueueSize = 256
)

var upgrader = websocket.Upgrader{
	HandshakeTimeout:  handshakeTimeout,
	ReadBufferSize:    1024,
	WriteBufferSize:   1024,
	EnableCompression: true,
	CheckOrigin: func(r *http.Request) bool {
		// demo-grade: accept every origin; a production deployment would
		// restrict this.
		return true
	},
}

// Conn is the Transport Adapter's per-connection wrapper. It implements
// outboundSink so a Session can submit bytes without blocking, and serves
// as the registry's connection-handle identity.
//
// send is never closed: closing a channel that a concurrent Send may still
// be selecting on is a send-on-closed-channel panic waiting to happen, and
// ordinary client disconnects must never crash the process. Shutdown is
// instead signaled via done, closed exactly once under closeOnce.
type Conn struct {
	ws   *websocket.Conn
	send chan []byte
	done chan struct{}

	closeOnce sync.Once
}

func newConn(ws *websocket.Conn) *Conn {
	return &Conn{
		ws:   ws,
		send: make(chan []byte, outboundQueueSize),
		done: make(chan struct{}),
	}
}

// Send enqueues payload for transmission. Non-blocking: if the outbound
// queue is saturated, the frame is dropped for this recipient per the
// spec's best-effort backpressure policy. A no-op once the connection is
// closed.
func (c *Conn) Send(payload []byte) {
	select {
	case <-c.done:
		return
	default:
	}
	select {
	case c.send <- payload:
	case <-c.done:
	default:
		globalTransportMetrics.outboundFramesDropped.Add(1)
		Log.Warnw("outbound queue saturated, dropping frame")
	}
}

// Close tears down the underlying WebSocket connection and signals
// writePump to exit. Safe to call more than once or concurrently.
func (c *Conn) Close() {
	c.closeOnce.Do(func() {
		close(c.done)
		_ = c.ws.Close()
	})
}

// writePump drains the outbound queue onto the wire and keeps the
// connection alive with periodic pings. Write-idle (no outbound traffic)
// is tolerated indefinitely between pings; only a failed write or a Close
// ends the connection.
func (c *Conn) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.Close()
	}()

	for {
		select {
		case <-c.done:
			return
		case msg := <-c.send:
			c.ws.SetWriteDeadline(time.Now().Add(writeDeadline))
			if err := c.ws.WriteMessage(websocket.TextMessage, msg); err != nil {
				return
			}
		case <-ticker.C:
			c.ws.SetWriteDeadline(time.Now().Add(writeDeadline))
			if err := c.ws.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

// readPump delivers each inbound text frame to the Handler in arrival
// order. Per-connection serialization is implicit: this goroutine is the
// only reader of c.ws, so at most one frame from this connection is ever
// in flight through the Handler at a time.
func (c *Conn) readPump(handler *Handler, sessions *SessionRegistry, session *Session) {
	defer func() {
		handler.HandleDisconnect(session)
		sessions.Remove(c)
		c.Close()
	}()

	c.ws.SetReadLimit(maxFrameSize)
	c.ws.SetReadDeadline(time.Now().Add(readIdleTimeout))
	c.ws.SetPongHandler(func(string) error {
		c.ws.SetReadDeadline(time.Now().Add(readIdleTimeout))
		return nil
	})

	for {
		messageType, payload, err := c.ws.ReadMessage()
		if err != nil {
			return
		}
		c.ws.SetReadDeadline(time.Now().Add(readIdleTimeout))
		if messageType != websocket.TextMessage {
			Log.Debugw("unsupported frame type, closing", "type", messageType)
			return
		}
		handler.HandleFrame(session, payload)
	}
}

// HandleWS upgrades the connection at /sync, registers a Session, and
// starts its read/write pumps. It never blocks: both pumps run on their
// own goroutines.
func HandleWS(sessions *SessionRegistry, handler *Handler) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ws, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			Log.Warnw("handshake failed", "error", err)
			return
		}

		conn := newConn(ws)
		session := sessions.Create(conn, conn)

		go conn.writePump()
		go conn.readPump(handler, sessions, session)
	}
}
