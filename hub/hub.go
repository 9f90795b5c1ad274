// Package hub owns every room, the invite index and the connection
// registry. All state sits behind one mutex so callbacks from concurrent
// connection goroutines are applied one at a time.
package hub

import (
	"log/slog"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
	gonanoid "github.com/matoous/go-nanoid/v2"

	"scrum-poker-relay/domain"
	"scrum-poker-relay/invite"
)

const (
	roomIDAlphabet = "abcdefghijkmnpqrstuvwxyz23456789"
	roomIDLength   = 10
)

type Hub struct {
	mu      sync.Mutex
	conns   map[string]*binding
	rooms   map[string]*room
	invites map[string]string // normalized phrase -> room id

	relayURL         string
	newRoomID        func() string
	newParticipantID func() string
	newPhrase        func() string
	now              func() time.Time
}

type Option func(*Hub)

// WithRelayURL sets the externally reachable base URL reported to hosts.
func WithRelayURL(url string) Option {
	return func(h *Hub) { h.relayURL = url }
}

func WithPhraseGenerator(f func() string) Option {
	return func(h *Hub) { h.newPhrase = f }
}

func WithRoomIDGenerator(f func() string) Option {
	return func(h *Hub) { h.newRoomID = f }
}

func WithParticipantIDGenerator(f func() string) Option {
	return func(h *Hub) { h.newParticipantID = f }
}

func WithClock(now func() time.Time) Option {
	return func(h *Hub) { h.now = now }
}

func New(opts ...Option) *Hub {
	h := &Hub{
		conns:            make(map[string]*binding),
		rooms:            make(map[string]*room),
		invites:          make(map[string]string),
		newRoomID:        generateRoomID,
		newParticipantID: uuid.NewString,
		newPhrase:        invite.Generate,
		now:              time.Now,
	}
	for _, opt := range opts {
		opt(h)
	}
	return h
}

func generateRoomID() string {
	id, err := gonanoid.Generate(roomIDAlphabet, roomIDLength)
	if err != nil {
		slog.Warn("nanoid generation failed, falling back to uuid", "error", err)
		return uuid.NewString()
	}
	return id
}

// Stats reports the number of live rooms and open connections.
func (h *Hub) Stats() (rooms, connections int) {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.rooms), len(h.conns)
}

// RelayURL returns the base URL reported in host_registered frames.
func (h *Hub) RelayURL() string {
	return h.relayURL
}

func sortRooms(rooms []domain.Room) {
	sort.Slice(rooms, func(i, j int) bool {
		if rooms[i].CreatedAt != rooms[j].CreatedAt {
			return rooms[i].CreatedAt < rooms[j].CreatedAt
		}
		return rooms[i].ID < rooms[j].ID
	})
}
