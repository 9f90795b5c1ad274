package protocol

import (
	"errors"
	"log/slog"

	"scrum-poker-relay/domain"
)

const roomNotFoundMessage = "Room not found"

type Handler struct {
	relay domain.Relay
}

func NewHandler(r domain.Relay) *Handler {
	return &Handler{relay: r}
}

// Handle decodes one inbound frame and applies it. Frames that are invalid
// for the caller's state are dropped without a reply; only a join that
// misses its room is answered with an error frame.
func (h *Handler) Handle(conn domain.Connection, data []byte) {
	frame, err := Decode(data)
	if err != nil {
		if errors.Is(err, domain.ErrUnknownFrame) {
			slog.Debug("ignoring unknown frame", "connId", conn.ID(), "error", err)
		} else {
			slog.Warn("invalid message", "connId", conn.ID(), "error", err)
		}
		return
	}

	if err := h.dispatch(conn, frame); err != nil {
		h.reject(conn, frame, err)
	}
}

func (h *Handler) dispatch(conn domain.Connection, frame domain.Inbound) error {
	id := conn.ID()

	switch f := frame.(type) {
	case *domain.Ping:
		reply(conn, domain.NewPong())
		return nil
	case *domain.HostRegister:
		_, err := h.relay.RegisterHost(id)
		return err
	case *domain.HostCreateRoom:
		_, err := h.relay.CreateRoom(id, f.Name)
		return err
	case *domain.HostSyncRoom:
		_, err := h.relay.SyncRoom(id, f.Room)
		return err
	case *domain.HostDeleteRoom:
		return h.relay.DeleteRoom(id, f.RoomID)
	case *domain.HostRevealVotes:
		return h.relay.SetVotesRevealed(id, f.RoomID, true)
	case *domain.HostHideVotes:
		return h.relay.SetVotesRevealed(id, f.RoomID, false)
	case *domain.HostResetVotes:
		return h.relay.ResetVotes(id, f.RoomID)
	case *domain.HostKickParticipant:
		return h.relay.KickParticipant(id, f.RoomID, f.ParticipantID)
	case *domain.HostSetTicket:
		ticket := f.Ticket
		return h.relay.SetTicket(id, f.RoomID, &ticket)
	case *domain.HostClearTicket:
		return h.relay.SetTicket(id, f.RoomID, nil)
	case *domain.Join:
		_, _, err := h.relay.Join(id, f.RoomID, f.Name)
		return err
	case *domain.Vote:
		return h.relay.Vote(id, f.Vote)
	}
	return nil
}

func (h *Handler) reject(conn domain.Connection, frame domain.Inbound, err error) {
	if frame.Kind() == domain.TypeJoin && errors.Is(err, domain.ErrNotFound) {
		reply(conn, domain.NewError(roomNotFoundMessage))
		return
	}
	slog.Debug("dropping frame", "connId", conn.ID(), "type", frame.Kind(), "error", err)
}

func reply(conn domain.Connection, frame any) {
	data, err := domain.Encode(frame)
	if err != nil {
		slog.Warn("marshal error", "connId", conn.ID(), "error", err)
		return
	}
	if err := conn.Send(data); err != nil {
		slog.Debug("reply dropped", "connId", conn.ID(), "error", err)
	}
}
