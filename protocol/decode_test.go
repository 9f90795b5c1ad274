package protocol

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"scrum-poker-relay/domain"
)

func TestDecode(t *testing.T) {
	tests := []struct {
		name string
		data string
		want domain.Inbound
	}{
		{name: "ping", data: `{"type":"ping"}`, want: &domain.Ping{}},
		{name: "host register", data: `{"type":"host_register"}`, want: &domain.HostRegister{}},
		{name: "create room", data: `{"type":"host_create_room","name":"Sprint 1"}`, want: &domain.HostCreateRoom{Name: "Sprint 1"}},
		{name: "delete room", data: `{"type":"host_delete_room","room_id":"r1"}`, want: &domain.HostDeleteRoom{RoomID: "r1"}},
		{name: "reveal", data: `{"type":"host_reveal_votes","room_id":"r1"}`, want: &domain.HostRevealVotes{RoomID: "r1"}},
		{name: "hide", data: `{"type":"host_hide_votes","room_id":"r1"}`, want: &domain.HostHideVotes{RoomID: "r1"}},
		{name: "reset", data: `{"type":"host_reset_votes","room_id":"r1"}`, want: &domain.HostResetVotes{RoomID: "r1"}},
		{
			name: "kick",
			data: `{"type":"host_kick_participant","room_id":"r1","participant_id":"p1"}`,
			want: &domain.HostKickParticipant{RoomID: "r1", ParticipantID: "p1"},
		},
		{
			name: "set ticket",
			data: `{"type":"host_set_ticket","room_id":"r1","ticket":{"key":"K-1","summary":"s","url":"u"}}`,
			want: &domain.HostSetTicket{RoomID: "r1", Ticket: domain.Ticket{Key: "K-1", Summary: "s", URL: "u"}},
		},
		{name: "clear ticket", data: `{"type":"host_clear_ticket","room_id":"r1"}`, want: &domain.HostClearTicket{RoomID: "r1"}},
		{name: "join", data: `{"type":"join","room_id":"alpha beta gamma","name":"Alice"}`, want: &domain.Join{RoomID: "alpha beta gamma", Name: "Alice"}},
		{name: "vote", data: `{"type":"vote","vote":"5"}`, want: &domain.Vote{Vote: strPtr("5")}},
		{name: "vote null", data: `{"type":"vote","vote":null}`, want: &domain.Vote{}},
		{name: "vote missing", data: `{"type":"vote"}`, want: &domain.Vote{}},
		{
			name: "sync room",
			data: `{"type":"host_sync_room","room":{"id":"r1","name":"N","invite_code":"a b c"}}`,
			want: &domain.HostSyncRoom{Room: domain.Room{ID: "r1", Name: "N", InviteCode: "a b c"}},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Decode([]byte(tt.data))
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestDecode_Errors(t *testing.T) {
	tests := []struct {
		name    string
		data    string
		wantErr error
	}{
		{name: "not json", data: "not json", wantErr: domain.ErrMalformedFrame},
		{name: "wrong field type", data: `{"type":"join","room_id":7}`, wantErr: domain.ErrMalformedFrame},
		{name: "type not a string", data: `{"type":3}`, wantErr: domain.ErrMalformedFrame},
		{name: "unknown type", data: `{"type":"launch_rockets"}`, wantErr: domain.ErrUnknownFrame},
		{name: "outbound type", data: `{"type":"room_update"}`, wantErr: domain.ErrUnknownFrame},
		{name: "missing type", data: `{}`, wantErr: domain.ErrUnknownFrame},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Decode([]byte(tt.data))
			assert.ErrorIs(t, err, tt.wantErr)
		})
	}
}

func strPtr(s string) *string { return &s }

func TestEncode(t *testing.T) {
	tests := []struct {
		name  string
		frame domain.Inbound
		want  string
	}{
		{name: "no fields", frame: domain.Ping{}, want: `{"type":"ping"}`},
		{name: "pointer frame", frame: &domain.HostRegister{}, want: `{"type":"host_register"}`},
		{name: "with fields", frame: domain.Join{RoomID: "r1", Name: "Alice"}, want: `{"type":"join","room_id":"r1","name":"Alice"}`},
		{name: "null vote", frame: domain.Vote{}, want: `{"type":"vote","vote":null}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			data, err := Encode(tt.frame)
			require.NoError(t, err)
			assert.JSONEq(t, tt.want, string(data))

			decoded, err := Decode(data)
			require.NoError(t, err)
			assert.Equal(t, tt.frame.Kind(), decoded.Kind())
		})
	}
}
