package server

import (
	"fmt"
)

// Handler parses inbound messages, mutates state through a Room, constructs
// outbound messages, and performs broadcast fan-out. It depends only on the
// Session Registry and Room Registry, and knows nothing about the
// transport that delivered the frame or will carry the reply.
type Handler struct {
	sessions *SessionRegistry
	rooms    *RoomRegistry
}

// NewHandler wires a Handler to its two registries.
func NewHandler(sessions *SessionRegistry, rooms *RoomRegistry) *Handler {
	return &Handler{sessions: sessions, rooms: rooms}
}

// HandleFrame routes one inbound text frame for session. It never returns
// an error to the caller: every failure mode is recovered locally and, where
// the protocol calls for it, reported back to the sender as an ERROR
// message.
func (h *Handler) HandleFrame(session *Session, raw []byte) {
	msg, err := decodeMessage(raw)
	if err != nil {
		globalTransportMetrics.malformedMessages.Add(1)
		Log.Debugw("malformed message", "session", session.ID, "error", err)
		h.sendError(session, "invalid message format")
		return
	}

	switch msg.Type {
	case MsgJoinRoom:
		h.handleJoinRoom(session, msg)
	case MsgLeaveRoom:
		h.handleLeaveRoom(session)
	case MsgStateUpdate:
		h.handleStateUpdate(session, msg)
	default:
		globalTransportMetrics.unknownMessageTypes.Add(1)
		Log.Debugw("unknown message type", "session", session.ID, "type", msg.Type)
		h.sendError(session, fmt.Sprintf("unknown message type: %s", msg.Type))
	}
}

// HandleDisconnect runs the same cleanup LEAVE_ROOM would for session's
// current room, if any. It does not remove the session from the Session
// Registry; the transport adapter's readPump does that after this returns.
// Safe to call after an explicit LEAVE_ROOM: leaveCurrentRoom is a no-op once
// currentRoomID is already empty.
func (h *Handler) HandleDisconnect(session *Session) {
	h.leaveCurrentRoom(session)
}

func (h *Handler) handleJoinRoom(session *Session, msg Message) {
	roomID := msg.RoomID
	if roomID == "" {
		h.sendError(session, "room id is required")
		return
	}

	if session.CurrentRoomID() != "" {
		h.leaveCurrentRoom(session)
	}

	room := h.rooms.GetOrCreate(roomID)

	playerName, ok := payloadString(msg.Payload, "playerName")
	if !ok || playerName == "" {
		playerName = "Player-" + shortID(session.ID)
	}
	color, ok := payloadString(msg.Payload, "color")
	if !ok || color == "" {
		color = room.NextColor()
	}
	x, y := room.NextPosition()

	playerState := NewPlayerState(session.ID, playerName, color, x, y)

	session.SetPlayerInfo(playerName, color)
	session.SetCurrentRoomID(roomID)

	version := room.AddPlayer(session.ID, playerState)
	room.Metrics().IncJoins()

	h.sendFullState(session, room, version)
	h.broadcastPlayerJoined(room, session.ID, playerState, version)
}

func (h *Handler) handleLeaveRoom(session *Session) {
	h.leaveCurrentRoom(session)
}

// leaveCurrentRoom removes session from whatever room it currently occupies
// and notifies the remaining residents. A no-op (no broadcast) if the
// session is not presently in a room.
func (h *Handler) leaveCurrentRoom(session *Session) {
	roomID := session.CurrentRoomID()
	if roomID == "" {
		return
	}

	room := h.rooms.Get(roomID)
	if room != nil {
		if player, ok := room.GetPlayer(session.ID); ok {
			// session.ID is the session's own identity; player.PlayerID is
			// read back from the room's stored state. These are genuinely
			// independent values that happen to be equal by construction;
			// assert it rather than relying on that silently.
			assertSessionIsPlayerID(session.ID, player.PlayerID)
		}
		room.RemovePlayer(session.ID, session.ID)
		room.Metrics().IncLeaves()
		h.broadcastPlayerLeft(room, session.ID, session.PlayerName(), room.Version())
		h.rooms.RemoveIfEmpty(roomID)
	}

	session.SetCurrentRoomID("")
}

func (h *Handler) handleStateUpdate(session *Session, msg Message) {
	roomID := session.CurrentRoomID()
	if roomID == "" {
		h.sendError(session, "not in a room")
		return
	}

	room := h.rooms.Get(roomID)
	if room == nil {
		h.sendError(session, "room not found")
		return
	}

	current, ok := room.GetPlayer(session.ID)
	if !ok {
		// AbsentEntity: benign race after disconnect, silently ignored.
		return
	}

	newX, ok := payloadFloat(msg.Payload, "x")
	if !ok {
		newX = current.X
	}
	newY, ok := payloadFloat(msg.Payload, "y")
	if !ok {
		newY = current.Y
	}

	newState := current.WithPosition(newX, newY)
	delta := room.UpdatePlayerState(session.ID, newState)
	if delta == nil {
		return
	}
	if delta.IsEmpty() {
		room.Metrics().IncEmptyDeltasSuppressed()
		return
	}
	room.Metrics().IncStateUpdatesAccepted()
	h.broadcastDelta(room, session.ID, delta)
}

// === Outbound message construction & fan-out ===

func (h *Handler) sendFullState(session *Session, room *Room, version int64) {
	players := make(map[string]any)
	for id, p := range room.GetAllPlayers() {
		players[id] = playerStateWireFields(p)
	}

	msg := Message{
		Type:     MsgFullState,
		RoomID:   room.ID,
		PlayerID: session.ID,
		Payload:  map[string]any{"players": players},
		Version:  int64Ptr(version),
	}
	h.sendTo(session, msg)
}

func (h *Handler) broadcastPlayerJoined(room *Room, joinedSessionID string, playerState PlayerState, version int64) {
	msg := Message{
		Type:    MsgPlayerJoined,
		RoomID:  room.ID,
		Payload: playerStateWireFields(playerState),
		Version: int64Ptr(version),
	}
	h.broadcastToRoom(room, joinedSessionID, msg)
}

func (h *Handler) broadcastPlayerLeft(room *Room, leftSessionID, playerName string, version int64) {
	msg := Message{
		Type:   MsgPlayerLeft,
		RoomID: room.ID,
		Payload: map[string]any{
			"playerId":   leftSessionID,
			"playerName": playerName,
		},
		Version: int64Ptr(version),
	}
	h.broadcastToRoom(room, leftSessionID, msg)
}

func (h *Handler) broadcastDelta(room *Room, excludeSessionID string, delta *Delta) {
	msg := Message{
		Type:   MsgDeltaUpdate,
		RoomID: room.ID,
		Payload: map[string]any{
			"players": map[string]any{
				delta.PlayerID: delta.Changes,
			},
		},
		Version: int64Ptr(delta.Version),
	}
	h.broadcastToRoom(room, excludeSessionID, msg)
}

func (h *Handler) sendError(session *Session, message string) {
	msg := Message{
		Type:    MsgError,
		Payload: map[string]any{"message": message},
	}
	h.sendTo(session, msg)
}

// broadcastToRoom snapshots the room's session ids, resolves each through
// the Session Registry, skips any absent or inactive session, and submits
// the serialized message to each remaining one. A send failure (or missing
// session) for one recipient never aborts the fan-out to the rest.
func (h *Handler) broadcastToRoom(room *Room, excludeSessionID string, msg Message) {
	raw, err := encodeMessage(msg)
	if err != nil {
		Log.Warnw("failed to encode broadcast message", "room", room.ID, "error", err)
		return
	}
	for _, sessionID := range room.GetSessionIDs() {
		if sessionID == excludeSessionID {
			continue
		}
		target := h.sessions.GetByID(sessionID)
		if target == nil || !target.IsActive() {
			continue
		}
		target.Send(raw)
	}
}

func (h *Handler) sendTo(session *Session, msg Message) {
	raw, err := encodeMessage(msg)
	if err != nil {
		Log.Warnw("failed to encode message", "session", session.ID, "error", err)
		return
	}
	session.Send(raw)
}

func playerStateWireFields(p PlayerState) map[string]any {
	return map[string]any{
		"playerId":   p.PlayerID,
		"playerName": p.PlayerName,
		"color":      p.Color,
		"x":          p.X,
		"y":          p.Y,
	}
}

func shortID(id string) string {
	if len(id) <= 8 {
		return id
	}
	return id[:8]
}
