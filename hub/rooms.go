package hub

import (
	"fmt"
	"log/slog"
	"strings"

	"scrum-poker-relay/domain"
	"scrum-poker-relay/invite"
)

type room struct {
	id            string
	name          string
	inviteCode    string
	createdAt     int64
	participants  []domain.Participant
	votesRevealed bool
	ticket        *domain.Ticket
	host          string // connection id, empty while no host is attached
}

func (r *room) snapshot() domain.Room {
	participants := make([]domain.Participant, len(r.participants))
	for i, p := range r.participants {
		participants[i] = p
		participants[i].Vote = copyString(p.Vote)
	}
	return domain.Room{
		ID:            r.id,
		Name:          r.name,
		Participants:  participants,
		VotesRevealed: r.votesRevealed,
		CreatedAt:     r.createdAt,
		InviteCode:    r.inviteCode,
		CurrentTicket: copyTicket(r.ticket),
	}
}

func (r *room) participantIndex(id string) int {
	for i, p := range r.participants {
		if p.ID == id {
			return i
		}
	}
	return -1
}

func (r *room) removeParticipant(id string) bool {
	i := r.participantIndex(id)
	if i < 0 {
		return false
	}
	r.participants = append(r.participants[:i], r.participants[i+1:]...)
	return true
}

// CreateRoom creates a room owned by the calling host channel and replies
// with room_created.
func (h *Hub) CreateRoom(connID, name string) (domain.Room, error) {
	h.mu.Lock()
	defer h.mu.Unlock()

	b, err := h.hostBindingLocked(connID)
	if err != nil {
		return domain.Room{}, fmt.Errorf("create room: %w", err)
	}

	r := &room{
		id:           h.uniqueRoomIDLocked(),
		name:         strings.TrimSpace(name),
		inviteCode:   h.uniquePhraseLocked(),
		createdAt:    h.now().Unix(),
		participants: []domain.Participant{},
		host:         connID,
	}
	h.insertLocked(r)

	snap := r.snapshot()
	h.sendLocked(b, domain.NewRoomCreated(snap))
	slog.Info("room created", "roomId", r.id, "name", r.name, "inviteCode", r.inviteCode, "connId", connID)
	return snap, nil
}

// SyncRoom lets a host claim a room it holds locally. An existing room is
// re-attached when it has no live host or already belongs to the caller;
// an unknown room is recreated with its id, name, ticket and, if still
// free, its invite phrase. Participants are never carried over since
// they have no channels on this relay.
func (h *Hub) SyncRoom(connID string, local domain.Room) (domain.Room, error) {
	h.mu.Lock()
	defer h.mu.Unlock()

	b, err := h.hostBindingLocked(connID)
	if err != nil {
		return domain.Room{}, fmt.Errorf("sync room: %w", err)
	}

	r, ok := h.rooms[local.ID]
	if ok {
		if r.host != "" && r.host != connID {
			if _, live := h.conns[r.host]; live {
				return domain.Room{}, fmt.Errorf("sync room %s: %w", local.ID, domain.ErrUnauthorized)
			}
		}
		r.host = connID
	} else {
		r = &room{
			id:           local.ID,
			name:         strings.TrimSpace(local.Name),
			createdAt:    local.CreatedAt,
			participants: []domain.Participant{},
			ticket:       copyTicket(local.CurrentTicket),
			host:         connID,
		}
		if r.id == "" || h.idTakenLocked(r.id) {
			r.id = h.uniqueRoomIDLocked()
		}
		if r.createdAt == 0 {
			r.createdAt = h.now().Unix()
		}
		code := invite.Normalize(local.InviteCode)
		if _, taken := h.invites[code]; code == "" || taken {
			code = h.uniquePhraseLocked()
		}
		r.inviteCode = code
		h.insertLocked(r)
	}

	snap := r.snapshot()
	h.sendLocked(b, domain.NewRoomSynced(snap))
	slog.Info("room synced", "roomId", r.id, "connId", connID)
	return snap, nil
}

// DeleteRoom removes a room owned by the caller. Every participant channel
// bound to it receives kicked and is unbound; the invite phrase is freed.
func (h *Hub) DeleteRoom(connID, roomID string) error {
	h.mu.Lock()
	defer h.mu.Unlock()

	r, err := h.ownedLocked(connID, roomID)
	if err != nil {
		return fmt.Errorf("delete room: %w", err)
	}

	for _, b := range h.participantBindingsLocked(roomID) {
		h.sendLocked(b, domain.NewKicked())
		b.unbind()
	}
	delete(h.rooms, roomID)
	delete(h.invites, r.inviteCode)

	h.sendLocked(h.conns[connID], domain.NewRoomDeleted(roomID))
	slog.Info("room deleted", "roomId", roomID, "connId", connID)
	return nil
}

// SetVotesRevealed shows or hides the votes of a room owned by the caller.
func (h *Hub) SetVotesRevealed(connID, roomID string, show bool) error {
	h.mu.Lock()
	defer h.mu.Unlock()

	r, err := h.ownedLocked(connID, roomID)
	if err != nil {
		return fmt.Errorf("set votes revealed: %w", err)
	}
	r.votesRevealed = show
	h.broadcastLocked(r)
	return nil
}

// ResetVotes clears every vote and hides the result.
func (h *Hub) ResetVotes(connID, roomID string) error {
	h.mu.Lock()
	defer h.mu.Unlock()

	r, err := h.ownedLocked(connID, roomID)
	if err != nil {
		return fmt.Errorf("reset votes: %w", err)
	}
	for i := range r.participants {
		r.participants[i].Vote = nil
	}
	r.votesRevealed = false
	h.broadcastLocked(r)
	return nil
}

// SetTicket replaces the current ticket. A nil ticket clears it.
func (h *Hub) SetTicket(connID, roomID string, ticket *domain.Ticket) error {
	h.mu.Lock()
	defer h.mu.Unlock()

	r, err := h.ownedLocked(connID, roomID)
	if err != nil {
		return fmt.Errorf("set ticket: %w", err)
	}
	r.ticket = copyTicket(ticket)
	h.broadcastLocked(r)
	return nil
}

// KickParticipant removes a participant, signals its channel and unbinds it.
func (h *Hub) KickParticipant(connID, roomID, participantID string) error {
	h.mu.Lock()
	defer h.mu.Unlock()

	r, err := h.ownedLocked(connID, roomID)
	if err != nil {
		return fmt.Errorf("kick participant: %w", err)
	}
	if !r.removeParticipant(participantID) {
		return fmt.Errorf("kick participant %s: %w", participantID, domain.ErrUnknownParticipant)
	}
	if b := h.bindingForParticipantLocked(roomID, participantID); b != nil {
		h.sendLocked(b, domain.NewKicked())
		b.unbind()
	}

	slog.Info("participant kicked", "roomId", roomID, "participantId", participantID)
	h.broadcastLocked(r)
	return nil
}

// Join resolves idOrCode, adds a participant named name and binds the
// channel to it. The caller receives joined before the room broadcast.
func (h *Hub) Join(connID, idOrCode, name string) (string, domain.Room, error) {
	h.mu.Lock()
	defer h.mu.Unlock()

	b, ok := h.conns[connID]
	switch {
	case !ok:
		return "", domain.Room{}, fmt.Errorf("join: %w", domain.ErrUnknownConnection)
	case b.role == domain.RoleHost:
		return "", domain.Room{}, fmt.Errorf("join: %w", domain.ErrHostCannotJoin)
	case b.bound():
		return "", domain.Room{}, fmt.Errorf("join: %w", domain.ErrAlreadyJoined)
	}

	r, err := h.resolveLocked(idOrCode)
	if err != nil {
		return "", domain.Room{}, fmt.Errorf("join %q: %w", idOrCode, err)
	}

	p := domain.Participant{ID: h.newParticipantID(), Name: strings.TrimSpace(name)}
	r.participants = append(r.participants, p)
	b.roomID = r.id
	b.participantID = p.ID

	snap := r.snapshot()
	h.sendLocked(b, domain.NewJoined(p.ID, snap))
	slog.Info("participant joined", "roomId", r.id, "participantId", p.ID, "connId", connID)
	h.broadcastLocked(r)
	return p.ID, snap, nil
}

// Vote records the bound participant's vote. A nil vote withdraws it.
func (h *Hub) Vote(connID string, vote *string) error {
	h.mu.Lock()
	defer h.mu.Unlock()

	b, ok := h.conns[connID]
	if !ok || b.role != domain.RoleParticipant || !b.bound() {
		return fmt.Errorf("vote: %w", domain.ErrNotJoined)
	}
	r, ok := h.rooms[b.roomID]
	if !ok {
		return fmt.Errorf("vote: %w", domain.ErrNotFound)
	}
	i := r.participantIndex(b.participantID)
	if i < 0 {
		return fmt.Errorf("vote: %w", domain.ErrUnknownParticipant)
	}
	r.participants[i].Vote = copyString(vote)
	h.broadcastLocked(r)
	return nil
}

// Resolve looks a room up by id, then by invite phrase.
func (h *Hub) Resolve(idOrCode string) (domain.Room, error) {
	h.mu.Lock()
	defer h.mu.Unlock()

	r, err := h.resolveLocked(idOrCode)
	if err != nil {
		return domain.Room{}, err
	}
	return r.snapshot(), nil
}

// ResolveInvite looks a room up by invite phrase only.
func (h *Hub) ResolveInvite(code string) (domain.Room, error) {
	h.mu.Lock()
	defer h.mu.Unlock()

	id, ok := h.invites[invite.Normalize(code)]
	if !ok {
		return domain.Room{}, domain.ErrNotFound
	}
	return h.rooms[id].snapshot(), nil
}

// HostAttached reports whether a live host channel owns the room.
func (h *Hub) HostAttached(roomID string) bool {
	h.mu.Lock()
	defer h.mu.Unlock()

	r, ok := h.rooms[roomID]
	if !ok || r.host == "" {
		return false
	}
	_, live := h.conns[r.host]
	return live
}

func (h *Hub) resolveLocked(idOrCode string) (*room, error) {
	if r, ok := h.rooms[idOrCode]; ok {
		return r, nil
	}
	if id, ok := h.invites[invite.Normalize(idOrCode)]; ok {
		return h.rooms[id], nil
	}
	return nil, domain.ErrNotFound
}

func (h *Hub) ownedLocked(connID, roomID string) (*room, error) {
	r, ok := h.rooms[roomID]
	if !ok {
		return nil, domain.ErrNotFound
	}
	if r.host == "" || r.host != connID {
		return nil, domain.ErrUnauthorized
	}
	return r, nil
}

// leaveLocked drops a participant after its channel went away and tells
// the remaining viewers.
func (h *Hub) leaveLocked(roomID, participantID string) {
	r, ok := h.rooms[roomID]
	if !ok {
		return
	}
	if r.removeParticipant(participantID) {
		slog.Info("participant left", "roomId", roomID, "participantId", participantID)
		h.broadcastLocked(r)
	}
}

func (h *Hub) insertLocked(r *room) {
	h.rooms[r.id] = r
	h.invites[r.inviteCode] = r.id
}

func (h *Hub) idTakenLocked(id string) bool {
	if _, ok := h.rooms[id]; ok {
		return true
	}
	_, ok := h.invites[invite.Normalize(id)]
	return ok
}

func (h *Hub) uniqueRoomIDLocked() string {
	for {
		id := h.newRoomID()
		if !h.idTakenLocked(id) {
			return id
		}
	}
}

func (h *Hub) uniquePhraseLocked() string {
	for {
		code := invite.Normalize(h.newPhrase())
		if _, taken := h.invites[code]; taken {
			continue
		}
		if _, clash := h.rooms[code]; clash {
			continue
		}
		return code
	}
}

func copyString(s *string) *string {
	if s == nil {
		return nil
	}
	v := *s
	return &v
}

func copyTicket(t *domain.Ticket) *domain.Ticket {
	if t == nil {
		return nil
	}
	c := *t
	c.Description = copyString(t.Description)
	c.IssueType = copyString(t.IssueType)
	c.Status = copyString(t.Status)
	return &c
}
