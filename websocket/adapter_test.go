package websocket

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"scrum-poker-relay/domain"
	"scrum-poker-relay/hub"
	"scrum-poker-relay/protocol"
)

func newRelayServer(t *testing.T, opts ServerOptions) (*hub.Hub, *httptest.Server) {
	t.Helper()
	h := hub.New()
	srv := httptest.NewServer(Handler(h, protocol.NewHandler(h), opts))
	t.Cleanup(srv.Close)
	return h, srv
}

func dial(t *testing.T, srv *httptest.Server) *websocket.Conn {
	t.Helper()
	url := "ws" + strings.TrimPrefix(srv.URL, "http")
	ws, _, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	t.Cleanup(func() { ws.Close() })
	return ws
}

func writeJSON(t *testing.T, ws *websocket.Conn, v any) {
	t.Helper()
	require.NoError(t, ws.WriteJSON(v))
}

func readFrame(t *testing.T, ws *websocket.Conn) (domain.FrameType, []byte) {
	t.Helper()
	require.NoError(t, ws.SetReadDeadline(time.Now().Add(5*time.Second)))
	_, data, err := ws.ReadMessage()
	require.NoError(t, err)
	var env struct {
		Type domain.FrameType `json:"type"`
	}
	require.NoError(t, json.Unmarshal(data, &env))
	return env.Type, data
}

func readUntil(t *testing.T, ws *websocket.Conn, want domain.FrameType) []byte {
	t.Helper()
	for {
		typ, data := readFrame(t, ws)
		if typ == want {
			return data
		}
	}
}

func TestConn_RoundTrip(t *testing.T) {
	h, srv := newRelayServer(t, ServerOptions{})
	host := dial(t, srv)
	alice := dial(t, srv)

	writeJSON(t, host, map[string]string{"type": "ping"})
	typ, _ := readFrame(t, host)
	assert.Equal(t, domain.TypePong, typ)

	writeJSON(t, host, map[string]string{"type": "host_register"})
	readUntil(t, host, domain.TypeHostRegistered)

	writeJSON(t, host, map[string]string{"type": "host_create_room", "name": "Sprint 1"})
	var created domain.RoomFrame
	require.NoError(t, json.Unmarshal(readUntil(t, host, domain.TypeRoomCreated), &created))

	writeJSON(t, alice, map[string]string{"type": "join", "room_id": created.Room.InviteCode, "name": "Alice"})
	var joined domain.Joined
	require.NoError(t, json.Unmarshal(readUntil(t, alice, domain.TypeJoined), &joined))
	assert.Equal(t, created.Room.ID, joined.Room.ID)

	var update domain.RoomFrame
	require.NoError(t, json.Unmarshal(readUntil(t, host, domain.TypeRoomUpdate), &update))
	require.Len(t, update.Room.Participants, 1)

	// closing the participant socket removes it from the room
	require.NoError(t, alice.Close())
	require.NoError(t, json.Unmarshal(readUntil(t, host, domain.TypeRoomUpdate), &update))
	assert.Empty(t, update.Room.Participants)

	require.Eventually(t, func() bool {
		_, conns := h.Stats()
		return conns == 1
	}, 2*time.Second, 10*time.Millisecond)
}

func TestConn_MalformedFrameKeepsConnection(t *testing.T) {
	_, srv := newRelayServer(t, ServerOptions{})
	ws := dial(t, srv)

	require.NoError(t, ws.WriteMessage(websocket.TextMessage, []byte("garbage")))
	writeJSON(t, ws, map[string]string{"type": "ping"})

	typ, _ := readFrame(t, ws)
	assert.Equal(t, domain.TypePong, typ)
}

func TestConn_SendAfterClose(t *testing.T) {
	c := &Conn{id: "c", send: make(chan []byte, 1), done: make(chan struct{})}

	require.NoError(t, c.Send([]byte("a")))
	assert.ErrorIs(t, c.Send([]byte("b")), domain.ErrChannelUnavailable, "queue full")

	c.markDone()
	c.markDone()
	<-c.send
	assert.ErrorIs(t, c.Send([]byte("c")), domain.ErrChannelUnavailable)
}

func TestOriginChecker(t *testing.T) {
	tests := []struct {
		name    string
		allowed []string
		origin  string
		want    bool
	}{
		{name: "no list", origin: "https://evil.example", want: true},
		{name: "wildcard", allowed: []string{"*"}, origin: "https://evil.example", want: true},
		{name: "host match", allowed: []string{"poker.example"}, origin: "https://poker.example", want: true},
		{name: "full origin match", allowed: []string{"https://poker.example"}, origin: "https://poker.example", want: true},
		{name: "mismatch", allowed: []string{"poker.example"}, origin: "https://evil.example", want: false},
		{name: "no origin header", allowed: []string{"poker.example"}, want: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := httptest.NewRequest(http.MethodGet, "/ws", nil)
			if tt.origin != "" {
				r.Header.Set("Origin", tt.origin)
			}
			assert.Equal(t, tt.want, originChecker(tt.allowed)(r))
		})
	}
}
