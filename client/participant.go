package client

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"scrum-poker-relay/domain"
)

type EventKind string

const (
	EventJoined          EventKind = "joined"
	EventRoomUpdate      EventKind = "room_update"
	EventError           EventKind = "error"
	EventKicked          EventKind = "kicked"
	EventDisconnected    EventKind = "disconnected"
	EventReconnecting    EventKind = "reconnecting"
	EventReconnectFailed EventKind = "reconnect_failed"
)

// Event is what a Participant reports to its owner. Room is set for
// joined and room_update, Message for error.
type Event struct {
	Kind          EventKind
	ParticipantID string
	Room          domain.Room
	Message       string
}

const eventBuffer = 64

// Participant is one voter's channel. When the channel drops while the
// participant is still in the lobby it waits ReconnectDelay, dials once
// more and joins again under a fresh participant id.
type Participant struct {
	url    string
	target string
	name   string
	opts   Options
	events chan Event

	mu            sync.Mutex
	link          *link
	participantID string
	room          domain.Room
	inLobby       bool
	kicked        bool
	closed        bool
}

// JoinRoom dials the relay and asks to join target, a room id or invite
// phrase. The outcome arrives on Events as joined or error.
func JoinRoom(ctx context.Context, url, target, name string, opts Options) (*Participant, error) {
	p := &Participant{
		url:    url,
		target: target,
		name:   name,
		opts:   opts.withDefaults(),
		events: make(chan Event, eventBuffer),
	}
	if err := p.connect(ctx); err != nil {
		return nil, err
	}
	return p, nil
}

func (p *Participant) connect(ctx context.Context) error {
	l, err := dial(ctx, p.url, p.opts)
	if err != nil {
		return fmt.Errorf("dial relay: %w", err)
	}
	if err := l.send(domain.Join{RoomID: p.target, Name: p.name}); err != nil {
		l.close()
		return fmt.Errorf("join %s: %w", p.target, err)
	}

	p.mu.Lock()
	p.link = l
	p.mu.Unlock()

	go func() {
		l.read(p.handle)
		p.disconnected(l)
	}()
	go l.keepAlive(p.opts.KeepAlive)
	return nil
}

// Events streams what happens to the participant. Events are dropped when
// nobody drains the channel.
func (p *Participant) Events() <-chan Event {
	return p.events
}

func (p *Participant) ParticipantID() string {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.participantID
}

// Room returns the last room snapshot received.
func (p *Participant) Room() domain.Room {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.room
}

// Vote casts a vote. A nil vote withdraws it.
func (p *Participant) Vote(vote *string) error {
	return p.send(domain.Vote{Vote: vote})
}

// Close leaves the room for good. No reconnect follows.
func (p *Participant) Close() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.closed = true
	p.inLobby = false
	if p.link != nil {
		p.link.close()
	}
	return nil
}

func (p *Participant) send(frame domain.Inbound) error {
	p.mu.Lock()
	l := p.link
	p.mu.Unlock()
	if l == nil {
		return domain.ErrChannelUnavailable
	}
	if err := l.send(frame); err != nil {
		return fmt.Errorf("send %s: %w", frame.Kind(), err)
	}
	return nil
}

func (p *Participant) handle(frameType domain.FrameType, data []byte) {
	switch frameType {
	case domain.TypeJoined:
		var msg domain.Joined
		if !unmarshal(frameType, data, &msg) {
			return
		}
		p.mu.Lock()
		p.participantID = msg.ParticipantID
		p.room = msg.Room
		p.inLobby = true
		p.mu.Unlock()
		p.emit(Event{Kind: EventJoined, ParticipantID: msg.ParticipantID, Room: msg.Room})

	case domain.TypeRoomUpdate:
		var msg domain.RoomFrame
		if !unmarshal(frameType, data, &msg) {
			return
		}
		p.mu.Lock()
		p.room = msg.Room
		id := p.participantID
		p.mu.Unlock()
		p.emit(Event{Kind: EventRoomUpdate, ParticipantID: id, Room: msg.Room})

	case domain.TypeError:
		var msg domain.ErrorFrame
		if !unmarshal(frameType, data, &msg) {
			return
		}
		p.emit(Event{Kind: EventError, Message: msg.Message})

	case domain.TypeKicked:
		p.mu.Lock()
		p.kicked = true
		p.inLobby = false
		id := p.participantID
		l := p.link
		p.mu.Unlock()
		slog.Info("kicked from room", "participantId", id)
		p.emit(Event{Kind: EventKicked, ParticipantID: id})
		if l != nil {
			l.close()
		}

	case domain.TypePong:
	default:
		slog.Debug("ignoring relay frame", "type", frameType)
	}
}

// disconnected runs once per link after its read loop ends.
func (p *Participant) disconnected(l *link) {
	p.mu.Lock()
	current := p.link == l
	retry := current && p.inLobby && !p.kicked && !p.closed
	p.inLobby = false
	p.mu.Unlock()

	if !current {
		return
	}
	p.emit(Event{Kind: EventDisconnected})
	if !retry {
		return
	}

	p.emit(Event{Kind: EventReconnecting})
	time.AfterFunc(p.opts.ReconnectDelay, func() {
		p.mu.Lock()
		closed := p.closed
		p.mu.Unlock()
		if closed {
			return
		}

		ctx, cancel := context.WithTimeout(context.Background(), writeWait)
		defer cancel()
		if err := p.connect(ctx); err != nil {
			slog.Warn("reconnect failed", "target", p.target, "error", err)
			p.emit(Event{Kind: EventReconnectFailed, Message: err.Error()})
		}
	})
}

func (p *Participant) emit(ev Event) {
	select {
	case p.events <- ev:
	default:
		slog.Debug("dropping participant event", "kind", ev.Kind)
	}
}
