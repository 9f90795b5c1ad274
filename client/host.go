package client

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"sync"

	"scrum-poker-relay/domain"
)

// Host drives the rooms of one host channel and keeps a local copy of
// every room the relay reports.
type Host struct {
	url  string
	opts Options

	mu       sync.Mutex
	link     *link
	rooms    []domain.Room
	relayURL string
	onUpdate func(domain.Room)
}

// DialHost connects to the relay at url and registers as host.
func DialHost(ctx context.Context, url string, opts Options) (*Host, error) {
	h := &Host{url: url, opts: opts.withDefaults()}
	if err := h.connect(ctx); err != nil {
		return nil, err
	}
	return h, nil
}

// Reconnect opens a fresh channel, registers again and claims every
// cached room so participants can keep using the same invite.
func (h *Host) Reconnect(ctx context.Context) error {
	h.mu.Lock()
	if h.link != nil {
		h.link.close()
	}
	h.mu.Unlock()

	if err := h.connect(ctx); err != nil {
		return err
	}
	for _, r := range h.Rooms() {
		if err := h.SyncRoom(r); err != nil {
			return err
		}
	}
	return nil
}

func (h *Host) connect(ctx context.Context) error {
	l, err := dial(ctx, h.url, h.opts)
	if err != nil {
		return fmt.Errorf("dial relay: %w", err)
	}
	if err := l.send(domain.HostRegister{}); err != nil {
		l.close()
		return fmt.Errorf("register host: %w", err)
	}

	h.mu.Lock()
	h.link = l
	h.mu.Unlock()

	go l.read(h.handle)
	go l.keepAlive(h.opts.KeepAlive)
	slog.Info("host connected", "url", h.url)
	return nil
}

// OnRoomUpdate sets the callback run for every room_created, room_synced
// and room_update frame. It runs on the read goroutine.
func (h *Host) OnRoomUpdate(f func(domain.Room)) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.onUpdate = f
}

// Connected reports whether the current channel is still open.
func (h *Host) Connected() bool {
	h.mu.Lock()
	l := h.link
	h.mu.Unlock()
	if l == nil {
		return false
	}
	select {
	case <-l.closed():
		return false
	default:
		return true
	}
}

// RelayURL is the public base URL announced by the relay on registration.
func (h *Host) RelayURL() string {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.relayURL
}

// Rooms returns a copy of the cached rooms.
func (h *Host) Rooms() []domain.Room {
	h.mu.Lock()
	defer h.mu.Unlock()
	return append([]domain.Room(nil), h.rooms...)
}

func (h *Host) Room(id string) (domain.Room, bool) {
	h.mu.Lock()
	defer h.mu.Unlock()
	for _, r := range h.rooms {
		if r.ID == id {
			return r, true
		}
	}
	return domain.Room{}, false
}

func (h *Host) CreateRoom(name string) error {
	return h.send(domain.HostCreateRoom{Name: name})
}

func (h *Host) SyncRoom(room domain.Room) error {
	return h.send(domain.HostSyncRoom{Room: room})
}

func (h *Host) DeleteRoom(roomID string) error {
	return h.send(domain.HostDeleteRoom{RoomID: roomID})
}

func (h *Host) RevealVotes(roomID string) error {
	return h.send(domain.HostRevealVotes{RoomID: roomID})
}

func (h *Host) HideVotes(roomID string) error {
	return h.send(domain.HostHideVotes{RoomID: roomID})
}

func (h *Host) ResetVotes(roomID string) error {
	return h.send(domain.HostResetVotes{RoomID: roomID})
}

func (h *Host) Kick(roomID, participantID string) error {
	return h.send(domain.HostKickParticipant{RoomID: roomID, ParticipantID: participantID})
}

func (h *Host) SetTicket(roomID string, ticket domain.Ticket) error {
	return h.send(domain.HostSetTicket{RoomID: roomID, Ticket: ticket})
}

func (h *Host) ClearTicket(roomID string) error {
	return h.send(domain.HostClearTicket{RoomID: roomID})
}

// Close shuts the channel down. The relay detaches the host from its rooms
// but keeps them alive.
func (h *Host) Close() error {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.link != nil {
		h.link.close()
	}
	return nil
}

func (h *Host) send(frame domain.Inbound) error {
	h.mu.Lock()
	l := h.link
	h.mu.Unlock()
	if l == nil {
		return domain.ErrChannelUnavailable
	}
	if err := l.send(frame); err != nil {
		return fmt.Errorf("send %s: %w", frame.Kind(), err)
	}
	return nil
}

func (h *Host) handle(frameType domain.FrameType, data []byte) {
	switch frameType {
	case domain.TypeHostRegistered:
		var msg domain.HostRegistered
		if !unmarshal(frameType, data, &msg) {
			return
		}
		h.mu.Lock()
		h.rooms = mergeRooms(h.rooms, msg.Rooms)
		h.relayURL = msg.RelayURL
		h.mu.Unlock()
		slog.Info("host registered", "rooms", len(msg.Rooms), "relayUrl", msg.RelayURL)

	case domain.TypeRoomCreated, domain.TypeRoomSynced, domain.TypeRoomUpdate:
		var msg domain.RoomFrame
		if !unmarshal(frameType, data, &msg) {
			return
		}
		h.mu.Lock()
		h.rooms = upsertRoom(h.rooms, msg.Room, frameType != domain.TypeRoomUpdate)
		cb := h.onUpdate
		h.mu.Unlock()
		if cb != nil {
			cb(msg.Room)
		}

	case domain.TypeRoomDeleted:
		var msg domain.RoomDeleted
		if !unmarshal(frameType, data, &msg) {
			return
		}
		h.mu.Lock()
		h.rooms = removeRoom(h.rooms, msg.RoomID)
		h.mu.Unlock()

	case domain.TypeError:
		var msg domain.ErrorFrame
		if unmarshal(frameType, data, &msg) {
			slog.Warn("relay error", "message", msg.Message)
		}

	case domain.TypePong:
	default:
		slog.Debug("ignoring relay frame", "type", frameType)
	}
}

func unmarshal(frameType domain.FrameType, data []byte, v any) bool {
	if err := json.Unmarshal(data, v); err != nil {
		slog.Warn("malformed relay frame", "type", frameType, "error", err)
		return false
	}
	return true
}

// upsertRoom replaces the cached room with the same id. Unknown rooms are
// appended only when insert is set, so a stray update cannot resurrect a
// deleted room.
func upsertRoom(rooms []domain.Room, room domain.Room, insert bool) []domain.Room {
	for i := range rooms {
		if rooms[i].ID == room.ID {
			rooms[i] = room
			return rooms
		}
	}
	if insert {
		rooms = append(rooms, room)
	}
	return rooms
}

func mergeRooms(cached, reported []domain.Room) []domain.Room {
	for _, r := range reported {
		cached = upsertRoom(cached, r, true)
	}
	return cached
}

func removeRoom(rooms []domain.Room, id string) []domain.Room {
	for i := range rooms {
		if rooms[i].ID == id {
			return append(rooms[:i], rooms[i+1:]...)
		}
	}
	return rooms
}
