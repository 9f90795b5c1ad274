package domain

import "encoding/json"

type FrameType string

// Inbound frame types.
const (
	TypeHostRegister        FrameType = "host_register"
	TypeHostCreateRoom      FrameType = "host_create_room"
	TypeHostSyncRoom        FrameType = "host_sync_room"
	TypeHostDeleteRoom      FrameType = "host_delete_room"
	TypeHostRevealVotes     FrameType = "host_reveal_votes"
	TypeHostHideVotes       FrameType = "host_hide_votes"
	TypeHostResetVotes      FrameType = "host_reset_votes"
	TypeHostKickParticipant FrameType = "host_kick_participant"
	TypeHostSetTicket       FrameType = "host_set_ticket"
	TypeHostClearTicket     FrameType = "host_clear_ticket"
	TypeJoin                FrameType = "join"
	TypeVote                FrameType = "vote"
	TypePing                FrameType = "ping"
)

// Outbound frame types.
const (
	TypeHostRegistered FrameType = "host_registered"
	TypeRoomCreated    FrameType = "room_created"
	TypeRoomSynced     FrameType = "room_synced"
	TypeRoomDeleted    FrameType = "room_deleted"
	TypeRoomUpdate     FrameType = "room_update"
	TypeJoined         FrameType = "joined"
	TypeError          FrameType = "error"
	TypeKicked         FrameType = "kicked"
	TypePong           FrameType = "pong"
)

// Inbound is the closed set of frames a channel may send to the relay.
type Inbound interface {
	Kind() FrameType
}

type HostRegister struct{}

type HostCreateRoom struct {
	Name string `json:"name"`
}

type HostSyncRoom struct {
	Room Room `json:"room"`
}

type HostDeleteRoom struct {
	RoomID string `json:"room_id"`
}

type HostRevealVotes struct {
	RoomID string `json:"room_id"`
}

type HostHideVotes struct {
	RoomID string `json:"room_id"`
}

type HostResetVotes struct {
	RoomID string `json:"room_id"`
}

type HostKickParticipant struct {
	RoomID        string `json:"room_id"`
	ParticipantID string `json:"participant_id"`
}

type HostSetTicket struct {
	RoomID string `json:"room_id"`
	Ticket Ticket `json:"ticket"`
}

type HostClearTicket struct {
	RoomID string `json:"room_id"`
}

type Join struct {
	RoomID string `json:"room_id"`
	Name   string `json:"name"`
}

type Vote struct {
	Vote *string `json:"vote"`
}

type Ping struct{}

func (HostRegister) Kind() FrameType        { return TypeHostRegister }
func (HostCreateRoom) Kind() FrameType      { return TypeHostCreateRoom }
func (HostSyncRoom) Kind() FrameType        { return TypeHostSyncRoom }
func (HostDeleteRoom) Kind() FrameType      { return TypeHostDeleteRoom }
func (HostRevealVotes) Kind() FrameType     { return TypeHostRevealVotes }
func (HostHideVotes) Kind() FrameType       { return TypeHostHideVotes }
func (HostResetVotes) Kind() FrameType      { return TypeHostResetVotes }
func (HostKickParticipant) Kind() FrameType { return TypeHostKickParticipant }
func (HostSetTicket) Kind() FrameType       { return TypeHostSetTicket }
func (HostClearTicket) Kind() FrameType     { return TypeHostClearTicket }
func (Join) Kind() FrameType                { return TypeJoin }
func (Vote) Kind() FrameType                { return TypeVote }
func (Ping) Kind() FrameType                { return TypePing }

// Outbound frames. Construct them with the New* functions so the type tag
// is always set.

type HostRegistered struct {
	Type     FrameType `json:"type"`
	Rooms    []Room    `json:"rooms"`
	RelayURL string    `json:"relay_url"`
}

type RoomFrame struct {
	Type FrameType `json:"type"`
	Room Room      `json:"room"`
}

type RoomDeleted struct {
	Type   FrameType `json:"type"`
	RoomID string    `json:"room_id"`
}

type Joined struct {
	Type          FrameType `json:"type"`
	ParticipantID string    `json:"participant_id"`
	Room          Room      `json:"room"`
}

type ErrorFrame struct {
	Type    FrameType `json:"type"`
	Message string    `json:"message"`
}

type Signal struct {
	Type FrameType `json:"type"`
}

func NewHostRegistered(rooms []Room, relayURL string) HostRegistered {
	if rooms == nil {
		rooms = []Room{}
	}
	return HostRegistered{Type: TypeHostRegistered, Rooms: rooms, RelayURL: relayURL}
}

func NewRoomCreated(r Room) RoomFrame { return RoomFrame{Type: TypeRoomCreated, Room: r} }
func NewRoomSynced(r Room) RoomFrame  { return RoomFrame{Type: TypeRoomSynced, Room: r} }
func NewRoomUpdate(r Room) RoomFrame  { return RoomFrame{Type: TypeRoomUpdate, Room: r} }

func NewRoomDeleted(roomID string) RoomDeleted {
	return RoomDeleted{Type: TypeRoomDeleted, RoomID: roomID}
}

func NewJoined(participantID string, r Room) Joined {
	return Joined{Type: TypeJoined, ParticipantID: participantID, Room: r}
}

func NewError(message string) ErrorFrame {
	return ErrorFrame{Type: TypeError, Message: message}
}

func NewKicked() Signal { return Signal{Type: TypeKicked} }
func NewPong() Signal   { return Signal{Type: TypePong} }

// Encode serializes an outbound frame.
func Encode(frame any) ([]byte, error) {
	return json.Marshal(frame)
}
