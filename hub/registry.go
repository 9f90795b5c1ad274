package hub

import (
	"fmt"
	"log/slog"

	"scrum-poker-relay/domain"
)

// binding is the transport-level record for one open channel. Room
// membership in the domain sense lives in room.participants; the router
// keeps the two in step.
type binding struct {
	conn          domain.Connection
	role          domain.Role
	roomID        string
	participantID string
}

func (b *binding) bound() bool {
	return b.roomID != ""
}

func (b *binding) unbind() {
	b.roomID = ""
	b.participantID = ""
}

// Register starts tracking a freshly opened channel. It behaves as a
// participant channel until it registers as a host.
func (h *Hub) Register(conn domain.Connection) {
	h.mu.Lock()
	defer h.mu.Unlock()

	h.conns[conn.ID()] = &binding{conn: conn, role: domain.RoleParticipant}
	slog.Info("client connected", "connId", conn.ID(), "connections", len(h.conns))
}

// Unregister runs disconnect cleanup for a closed channel and forgets it.
// Calling it again for the same channel does nothing.
func (h *Hub) Unregister(conn domain.Connection) {
	h.mu.Lock()
	defer h.mu.Unlock()

	b, ok := h.conns[conn.ID()]
	if !ok {
		return
	}
	delete(h.conns, conn.ID())

	switch b.role {
	case domain.RoleHost:
		h.detachHostLocked(conn.ID())
	default:
		if b.bound() {
			h.leaveLocked(b.roomID, b.participantID)
		}
	}

	slog.Info("client disconnected", "connId", conn.ID(), "role", b.role, "connections", len(h.conns))
}

// RegisterHost promotes the channel to host for the rest of its life and
// replies with the rooms it currently owns. A channel already bound as a
// participant leaves that room first.
func (h *Hub) RegisterHost(connID string) ([]domain.Room, error) {
	h.mu.Lock()
	defer h.mu.Unlock()

	b, ok := h.conns[connID]
	if !ok {
		return nil, fmt.Errorf("register host %s: %w", connID, domain.ErrUnknownConnection)
	}
	if b.role != domain.RoleHost && b.bound() {
		roomID, participantID := b.roomID, b.participantID
		b.unbind()
		h.leaveLocked(roomID, participantID)
	}
	b.role = domain.RoleHost

	owned := make([]domain.Room, 0)
	for _, r := range h.rooms {
		if r.host == connID {
			owned = append(owned, r.snapshot())
		}
	}
	sortRooms(owned)

	h.sendLocked(b, domain.NewHostRegistered(owned, h.relayURL))
	slog.Info("host registered", "connId", connID, "rooms", len(owned))
	return owned, nil
}

// Role reports the current role of a registered channel.
func (h *Hub) Role(connID string) (domain.Role, bool) {
	h.mu.Lock()
	defer h.mu.Unlock()

	b, ok := h.conns[connID]
	if !ok {
		return "", false
	}
	return b.role, true
}

func (h *Hub) hostBindingLocked(connID string) (*binding, error) {
	b, ok := h.conns[connID]
	if !ok {
		return nil, domain.ErrUnknownConnection
	}
	if b.role != domain.RoleHost {
		return nil, domain.ErrNotHost
	}
	return b, nil
}

// participantBindingsLocked returns every participant channel bound to roomID.
func (h *Hub) participantBindingsLocked(roomID string) []*binding {
	var out []*binding
	for _, b := range h.conns {
		if b.role == domain.RoleParticipant && b.roomID == roomID {
			out = append(out, b)
		}
	}
	return out
}

func (h *Hub) bindingForParticipantLocked(roomID, participantID string) *binding {
	for _, b := range h.conns {
		if b.roomID == roomID && b.participantID == participantID {
			return b
		}
	}
	return nil
}

// detachHostLocked clears the host reference on every room the channel
// owns. Rooms and their participants are left untouched.
func (h *Hub) detachHostLocked(connID string) {
	for _, r := range h.rooms {
		if r.host == connID {
			r.host = ""
			slog.Info("host detached", "roomId", r.id, "connId", connID)
		}
	}
}
