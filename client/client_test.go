package client

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"scrum-poker-relay/domain"
	"scrum-poker-relay/hub"
	"scrum-poker-relay/protocol"
	ws "scrum-poker-relay/websocket"
)

var testOptions = Options{KeepAlive: time.Hour, ReconnectDelay: 10 * time.Millisecond}

func wsURL(srv *httptest.Server) string {
	return "ws" + strings.TrimPrefix(srv.URL, "http")
}

func newRelay(t *testing.T) (*hub.Hub, string) {
	t.Helper()
	h := hub.New(hub.WithRelayURL("https://relay.example"))
	srv := httptest.NewServer(ws.Handler(h, protocol.NewHandler(h), ws.ServerOptions{}))
	t.Cleanup(srv.Close)
	return h, wsURL(srv)
}

// fakeRelay runs serve for every accepted channel. n counts channels from 1.
func fakeRelay(t *testing.T, serve func(n int32, conn *websocket.Conn)) (string, *atomic.Int32) {
	t.Helper()
	var count atomic.Int32
	upgrader := websocket.Upgrader{}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			return
		}
		defer conn.Close()
		serve(count.Add(1), conn)
	}))
	t.Cleanup(srv.Close)
	return wsURL(srv), &count
}

func readFrame(t *testing.T, conn *websocket.Conn) domain.Inbound {
	t.Helper()
	_, data, err := conn.ReadMessage()
	require.NoError(t, err)
	frame, err := protocol.Decode(data)
	require.NoError(t, err)
	return frame
}

func writeFrame(t *testing.T, conn *websocket.Conn, frame any) {
	t.Helper()
	require.NoError(t, conn.WriteJSON(frame))
}

func drain(conn *websocket.Conn) {
	for {
		if _, _, err := conn.ReadMessage(); err != nil {
			return
		}
	}
}

func nextEvent(t *testing.T, p *Participant, kind EventKind) Event {
	t.Helper()
	timeout := time.After(2 * time.Second)
	for {
		select {
		case ev := <-p.Events():
			if ev.Kind == kind {
				return ev
			}
		case <-timeout:
			t.Fatalf("no %s event", kind)
			return Event{}
		}
	}
}

func dialHost(t *testing.T, url string) *Host {
	t.Helper()
	host, err := DialHost(context.Background(), url, testOptions)
	require.NoError(t, err)
	t.Cleanup(func() { host.Close() })
	require.Eventually(t, func() bool { return host.RelayURL() != "" }, 2*time.Second, 10*time.Millisecond)
	return host
}

func joinRoom(t *testing.T, url, target, name string) *Participant {
	t.Helper()
	p, err := JoinRoom(context.Background(), url, target, name, testOptions)
	require.NoError(t, err)
	t.Cleanup(func() { p.Close() })
	return p
}

func TestPlanningRound(t *testing.T) {
	_, url := newRelay(t)
	host := dialHost(t, url)
	assert.Equal(t, "https://relay.example", host.RelayURL())

	updates := make(chan domain.Room, 32)
	host.OnRoomUpdate(func(r domain.Room) {
		select {
		case updates <- r:
		default:
		}
	})

	require.NoError(t, host.CreateRoom("Sprint 12"))
	require.Eventually(t, func() bool { return len(host.Rooms()) == 1 }, 2*time.Second, 10*time.Millisecond)
	room := host.Rooms()[0]
	assert.Equal(t, "Sprint 12", room.Name)

	alice := joinRoom(t, url, strings.ReplaceAll(strings.ToUpper(room.InviteCode), " ", "-"), "Alice")
	joined := nextEvent(t, alice, EventJoined)
	assert.Equal(t, room.ID, joined.Room.ID)
	assert.NotEmpty(t, joined.ParticipantID)
	assert.Equal(t, joined.ParticipantID, alice.ParticipantID())

	require.NoError(t, host.SetTicket(room.ID, domain.Ticket{Key: "POKER-7", Summary: "Login page"}))
	require.Eventually(t, func() bool {
		ticket := alice.Room().CurrentTicket
		return ticket != nil && ticket.Key == "POKER-7"
	}, 2*time.Second, 10*time.Millisecond)

	five := "5"
	require.NoError(t, alice.Vote(&five))
	require.NoError(t, host.RevealVotes(room.ID))

	require.Eventually(t, func() bool {
		r, ok := host.Room(room.ID)
		return ok && r.VotesRevealed && len(r.Participants) == 1 &&
			r.Participants[0].Vote != nil && *r.Participants[0].Vote == "5"
	}, 2*time.Second, 10*time.Millisecond)
	assert.NotEmpty(t, updates)

	require.NoError(t, host.ResetVotes(room.ID))
	require.Eventually(t, func() bool {
		r := alice.Room()
		return !r.VotesRevealed && len(r.Participants) == 1 && r.Participants[0].Vote == nil
	}, 2*time.Second, 10*time.Millisecond)

	require.NoError(t, host.Kick(room.ID, joined.ParticipantID))
	nextEvent(t, alice, EventKicked)
	nextEvent(t, alice, EventDisconnected)
	require.Eventually(t, func() bool {
		r, _ := host.Room(room.ID)
		return len(r.Participants) == 0
	}, 2*time.Second, 10*time.Millisecond)

	require.NoError(t, host.DeleteRoom(room.ID))
	require.Eventually(t, func() bool { return len(host.Rooms()) == 0 }, 2*time.Second, 10*time.Millisecond)
}

func TestJoinUnknownRoom(t *testing.T) {
	_, url := newRelay(t)

	p := joinRoom(t, url, "no such room", "Bob")
	ev := nextEvent(t, p, EventError)
	assert.Equal(t, "Room not found", ev.Message)
	assert.Empty(t, p.ParticipantID())
}

func TestHostReconnectReclaimsRooms(t *testing.T) {
	h, url := newRelay(t)
	host := dialHost(t, url)

	require.NoError(t, host.CreateRoom("Sprint 12"))
	require.Eventually(t, func() bool { return len(host.Rooms()) == 1 }, 2*time.Second, 10*time.Millisecond)
	roomID := host.Rooms()[0].ID
	require.True(t, h.HostAttached(roomID))

	require.NoError(t, host.Close())
	require.Eventually(t, func() bool { return !h.HostAttached(roomID) }, 2*time.Second, 10*time.Millisecond)
	assert.False(t, host.Connected())

	require.NoError(t, host.Reconnect(context.Background()))
	assert.True(t, host.Connected())
	require.Eventually(t, func() bool { return h.HostAttached(roomID) }, 2*time.Second, 10*time.Millisecond)
	assert.Len(t, host.Rooms(), 1)
}

func TestParticipantReconnectsOnce(t *testing.T) {
	url, count := fakeRelay(t, func(n int32, conn *websocket.Conn) {
		join, ok := readFrame(t, conn).(*domain.Join)
		if !assert.True(t, ok) {
			return
		}
		assert.Equal(t, "Alice", join.Name)
		assert.Equal(t, "r1", join.RoomID)

		writeFrame(t, conn, domain.NewJoined(fmt.Sprintf("p%d", n), domain.Room{ID: "r1", Participants: []domain.Participant{}}))
		if n == 1 {
			return
		}
		drain(conn)
	})

	p := joinRoom(t, url, "r1", "Alice")
	assert.Equal(t, "p1", nextEvent(t, p, EventJoined).ParticipantID)
	nextEvent(t, p, EventDisconnected)
	nextEvent(t, p, EventReconnecting)
	assert.Equal(t, "p2", nextEvent(t, p, EventJoined).ParticipantID)

	assert.Equal(t, "p2", p.ParticipantID())
	assert.Equal(t, int32(2), count.Load())
}

func TestParticipantStaysOutWhenKicked(t *testing.T) {
	url, count := fakeRelay(t, func(n int32, conn *websocket.Conn) {
		readFrame(t, conn)
		writeFrame(t, conn, domain.NewJoined("p1", domain.Room{ID: "r1", Participants: []domain.Participant{}}))
		writeFrame(t, conn, domain.NewKicked())
		drain(conn)
	})

	p := joinRoom(t, url, "r1", "Alice")
	nextEvent(t, p, EventJoined)
	nextEvent(t, p, EventKicked)
	nextEvent(t, p, EventDisconnected)

	assert.Never(t, func() bool { return count.Load() > 1 }, 100*time.Millisecond, 10*time.Millisecond)
}

func TestParticipantCloseDoesNotReconnect(t *testing.T) {
	url, count := fakeRelay(t, func(n int32, conn *websocket.Conn) {
		readFrame(t, conn)
		writeFrame(t, conn, domain.NewJoined("p1", domain.Room{ID: "r1", Participants: []domain.Participant{}}))
		drain(conn)
	})

	p := joinRoom(t, url, "r1", "Alice")
	nextEvent(t, p, EventJoined)
	require.NoError(t, p.Close())
	nextEvent(t, p, EventDisconnected)

	assert.Never(t, func() bool { return count.Load() > 1 }, 100*time.Millisecond, 10*time.Millisecond)
	assert.Error(t, p.Vote(nil))
}

func TestKeepAlivePings(t *testing.T) {
	var pings atomic.Int32
	url, _ := fakeRelay(t, func(n int32, conn *websocket.Conn) {
		for {
			_, data, err := conn.ReadMessage()
			if err != nil {
				return
			}
			frame, err := protocol.Decode(data)
			if err == nil && frame.Kind() == domain.TypePing {
				pings.Add(1)
				conn.WriteJSON(domain.NewPong())
			}
		}
	})

	p, err := JoinRoom(context.Background(), url, "r1", "Alice", Options{KeepAlive: 20 * time.Millisecond})
	require.NoError(t, err)
	t.Cleanup(func() { p.Close() })

	require.Eventually(t, func() bool { return pings.Load() >= 2 }, 2*time.Second, 10*time.Millisecond)
}

func TestRoomCache(t *testing.T) {
	rooms := []domain.Room{{ID: "a", Name: "A"}, {ID: "b", Name: "B"}}

	rooms = upsertRoom(rooms, domain.Room{ID: "a", Name: "A2"}, false)
	assert.Equal(t, "A2", rooms[0].Name)

	rooms = upsertRoom(rooms, domain.Room{ID: "c"}, false)
	assert.Len(t, rooms, 2)

	rooms = upsertRoom(rooms, domain.Room{ID: "c"}, true)
	assert.Len(t, rooms, 3)

	rooms = removeRoom(rooms, "b")
	assert.Equal(t, []string{"a", "c"}, []string{rooms[0].ID, rooms[1].ID})

	rooms = mergeRooms(rooms, []domain.Room{{ID: "a", Name: "A3"}, {ID: "d"}})
	require.Len(t, rooms, 3)
	assert.Equal(t, "A3", rooms[0].Name)
	assert.Equal(t, "d", rooms[2].ID)
}
