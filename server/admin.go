package server

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"
)

// NewAdminRouter builds the read-only operator-facing HTTP surface:
// liveness, per-room metrics, and a room listing. None of it mutates
// synchronization state. Config/hot-reload (the teacher's
// /admin/config) has no equivalent here, since there is no per-tick
// engine config left to hot-reload; see DESIGN.md.
func NewAdminRouter(sessions *SessionRegistry, rooms *RoomRegistry) chi.Router {
	r := chi.NewRouter()

	r.Get("/healthz", func(w http.ResponseWriter, req *http.Request) {
		_, _ = w.Write([]byte("ok"))
	})

	r.Get("/metrics", func(w http.ResponseWriter, req *http.Request) {
		roomID := req.URL.Query().Get("room")
		if roomID == "" {
			writeJSON(w, http.StatusBadRequest, map[string]any{"error": "room query parameter is required"})
			return
		}
		room := rooms.Get(roomID)
		if room == nil {
			writeJSON(w, http.StatusNotFound, map[string]any{"error": "room not found"})
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{
			"room":          roomID,
			"version":       room.Version(),
			"player_count":  room.PlayerCount(),
			"metrics":       room.Metrics().Snapshot(),
			"transport":     globalTransportMetrics.Snapshot(),
			"session_count": sessions.Count(),
		})
	})

	r.Get("/admin/rooms", func(w http.ResponseWriter, req *http.Request) {
		type roomSummary struct {
			ID          string `json:"id"`
			Version     int64  `json:"version"`
			PlayerCount int    `json:"playerCount"`
		}
		summaries := []roomSummary{}
		for id, room := range rooms.snapshot() {
			summaries = append(summaries, roomSummary{
				ID:          id,
				Version:     room.Version(),
				PlayerCount: room.PlayerCount(),
			})
		}
		writeJSON(w, http.StatusOK, map[string]any{
			"rooms":         summaries,
			"session_count": sessions.Count(),
		})
	})

	return r
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}
