package hub

import (
	"fmt"
	"log/slog"

	"scrum-poker-relay/domain"
)

// Snapshot returns the public view of a room.
func (h *Hub) Snapshot(roomID string) (domain.Room, error) {
	h.mu.Lock()
	defer h.mu.Unlock()

	r, ok := h.rooms[roomID]
	if !ok {
		return domain.Room{}, fmt.Errorf("snapshot %s: %w", roomID, domain.ErrNotFound)
	}
	return r.snapshot(), nil
}

// Broadcast pushes a fresh room_update to the room's host and every bound
// participant channel.
func (h *Hub) Broadcast(roomID string) error {
	h.mu.Lock()
	defer h.mu.Unlock()

	r, ok := h.rooms[roomID]
	if !ok {
		return fmt.Errorf("broadcast %s: %w", roomID, domain.ErrNotFound)
	}
	h.broadcastLocked(r)
	return nil
}

// broadcastLocked serializes the snapshot once and hands the same bytes to
// every target. Channels that refuse the frame are skipped; their own
// close runs the usual cleanup.
func (h *Hub) broadcastLocked(r *room) {
	data, err := domain.Encode(domain.NewRoomUpdate(r.snapshot()))
	if err != nil {
		slog.Error("encode room update", "roomId", r.id, "error", err)
		return
	}

	targets := h.participantBindingsLocked(r.id)
	if host, ok := h.conns[r.host]; ok && r.host != "" {
		targets = append(targets, host)
	}

	for _, b := range targets {
		if err := b.conn.Send(data); err != nil {
			slog.Debug("skipping unavailable channel", "roomId", r.id, "connId", b.conn.ID(), "error", err)
		}
	}
	slog.Debug("room update broadcast", "roomId", r.id, "targets", len(targets))
}

// sendLocked delivers one frame to one channel, best effort.
func (h *Hub) sendLocked(b *binding, frame any) {
	if b == nil {
		return
	}
	data, err := domain.Encode(frame)
	if err != nil {
		slog.Error("encode frame", "connId", b.conn.ID(), "error", err)
		return
	}
	if err := b.conn.Send(data); err != nil {
		slog.Debug("dropping frame for unavailable channel", "connId", b.conn.ID(),
			"error", fmt.Errorf("%w: %v", domain.ErrChannelUnavailable, err))
	}
}
