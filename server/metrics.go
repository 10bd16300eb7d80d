package server

import "sync/atomic"

// RoomMetrics records the operational counters for one Room: how many
// membership events it has processed and how its hot path (state updates)
// has behaved. Exposed read-only via the admin/metrics HTTP surface.
type RoomMetrics struct {
	joins                 atomic.Int64
	leaves                atomic.Int64
	stateUpdatesAccepted  atomic.Int64
	emptyDeltasSuppressed atomic.Int64
}

func (m *RoomMetrics) IncJoins()                { m.joins.Add(1) }
func (m *RoomMetrics) IncLeaves()               { m.leaves.Add(1) }
func (m *RoomMetrics) IncStateUpdatesAccepted() { m.stateUpdatesAccepted.Add(1) }
func (m *RoomMetrics) IncEmptyDeltasSuppressed() {
	m.emptyDeltasSuppressed.Add(1)
}

// Snapshot returns a read-only copy suitable for JSON encoding.
func (m *RoomMetrics) Snapshot() map[string]any {
	return map[string]any{
		"joins":                   m.joins.Load(),
		"leaves":                  m.leaves.Load(),
		"state_updates_accepted":  m.stateUpdatesAccepted.Load(),
		"empty_deltas_suppressed": m.emptyDeltasSuppressed.Load(),
	}
}

// transportMetrics tracks process-wide, connection-level counters that
// don't belong to any single room: frames dropped to backpressure,
// malformed input, and unrecognized message types.
type transportMetrics struct {
	outboundFramesDropped atomic.Int64
	malformedMessages     atomic.Int64
	unknownMessageTypes   atomic.Int64
}

var globalTransportMetrics transportMetrics

func (m *transportMetrics) Snapshot() map[string]any {
	return map[string]any{
		"outbound_frames_dropped": m.outboundFramesDropped.Load(),
		"malformed_messages":      m.malformedMessages.Load(),
		"unknown_message_types":   m.unknownMessageTypes.Load(),
	}
}
