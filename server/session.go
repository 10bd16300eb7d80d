package server

import (
	"sync"
	"sync/atomic"
	"time"
)

// outboundSink is the capability a Session exposes to submit bytes for
// transmission without blocking the caller. The Transport Adapter's *Conn
// implements it; tests use a simple slice-backed fake.
type outboundSink interface {
	Send(b []byte)
	Close()
}

// Session is the server-side handle for one live client connection. Session
// id doubles as player id inside whatever room the session currently
// occupies; see assertSessionIsPlayerID.
type Session struct {
	ID          string
	ConnectedAt time.Time

	sink   outboundSink
	closed atomic.Bool

	mu            sync.Mutex
	currentRoomID string
	playerName    string
	playerColor   string
}

// newSession mints a fresh session wrapping the given outbound sink.
func newSession(sink outboundSink) *Session {
	return &Session{
		ID:          newSessionID(),
		ConnectedAt: time.Now(),
		sink:        sink,
	}
}

// Send submits payload for transmission. Non-blocking; the underlying sink
// is responsible for its own backpressure policy (best-effort delivery).
func (s *Session) Send(payload []byte) {
	if s.IsActive() {
		s.sink.Send(payload)
	}
}

// IsActive reports whether the connection is still considered live.
func (s *Session) IsActive() bool {
	return !s.closed.Load()
}

// markClosed flags the session inactive. Idempotent.
func (s *Session) markClosed() {
	s.closed.Store(true)
}

// Close tears down the underlying connection. Used during server shutdown
// to drain active sessions; the resulting read error on each connection's
// readPump triggers the normal disconnect cleanup path.
func (s *Session) Close() {
	s.sink.Close()
}

// CurrentRoomID returns the room this session currently occupies, or "" if
// none.
func (s *Session) CurrentRoomID() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.currentRoomID
}

// SetCurrentRoomID updates the session's room membership.
func (s *Session) SetCurrentRoomID(roomID string) {
	s.mu.Lock()
	s.currentRoomID = roomID
	s.mu.Unlock()
}

// PlayerName returns the display name set at join time.
func (s *Session) PlayerName() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.playerName
}

// PlayerColor returns the color set at join time.
func (s *Session) PlayerColor() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.playerColor
}

// SetPlayerInfo records the display name and color chosen at join time.
func (s *Session) SetPlayerInfo(name, color string) {
	s.mu.Lock()
	s.playerName = name
	s.playerColor = color
	s.mu.Unlock()
}

// SessionRegistry tracks every live connection as a Session, indexed both
// by connection handle and by session id. Both indexes are sync.Map: reads
// (the hot path on every inbound frame and every broadcast fan-out) never
// block a writer and vice versa.
type SessionRegistry struct {
	byConn sync.Map // any (connection handle) -> *Session
	byID   sync.Map // string -> *Session
	count  atomic.Int64
}

// NewSessionRegistry returns an empty registry.
func NewSessionRegistry() *SessionRegistry {
	return &SessionRegistry{}
}

// Create mints a Session for connHandle and registers it under both
// indexes. The caller (the Transport Adapter) guarantees one Create per
// accepted connection.
func (r *SessionRegistry) Create(connHandle any, sink outboundSink) *Session {
	s := newSession(sink)
	r.byConn.Store(connHandle, s)
	r.byID.Store(s.ID, s)
	r.count.Add(1)
	return s
}

// Remove removes the Session registered under connHandle from both
// indexes, marks it closed, and returns it (or nil if not found).
func (r *SessionRegistry) Remove(connHandle any) *Session {
	v, ok := r.byConn.LoadAndDelete(connHandle)
	if !ok {
		return nil
	}
	s := v.(*Session)
	r.byID.Delete(s.ID)
	s.markClosed()
	r.count.Add(-1)
	return s
}

// GetByConn returns the Session for connHandle, if any.
func (r *SessionRegistry) GetByConn(connHandle any) *Session {
	v, ok := r.byConn.Load(connHandle)
	if !ok {
		return nil
	}
	return v.(*Session)
}

// GetByID returns the Session for sessionID, if any.
func (r *SessionRegistry) GetByID(sessionID string) *Session {
	v, ok := r.byID.Load(sessionID)
	if !ok {
		return nil
	}
	return v.(*Session)
}

// Count returns the number of currently registered sessions.
func (r *SessionRegistry) Count() int {
	return int(r.count.Load())
}

// CloseAll closes every currently registered session's connection. Used
// during server shutdown to drain existing connections; each closed
// connection's own readPump runs the normal disconnect cleanup.
func (r *SessionRegistry) CloseAll() {
	r.byID.Range(func(_, v any) bool {
		v.(*Session).Close()
		return true
	})
}
