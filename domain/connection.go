package domain

type Role string

const (
	RoleParticipant Role = "participant"
	RoleHost        Role = "host"
)

// Connection is one open duplex channel. Send must not block.
type Connection interface {
	ID() string
	Send(data []byte) error
	Close() error
}

type MessageHandler interface {
	Handle(conn Connection, data []byte)
}

// Lifecycle is notified when a channel opens and when it closes.
type Lifecycle interface {
	Register(conn Connection)
	Unregister(conn Connection)
}

// Relay is the room and registry aggregate the message router drives.
type Relay interface {
	RegisterHost(connID string) ([]Room, error)
	CreateRoom(connID, name string) (Room, error)
	SyncRoom(connID string, room Room) (Room, error)
	DeleteRoom(connID, roomID string) error
	SetVotesRevealed(connID, roomID string, show bool) error
	ResetVotes(connID, roomID string) error
	SetTicket(connID, roomID string, ticket *Ticket) error
	KickParticipant(connID, roomID, participantID string) error
	Join(connID, idOrCode, name string) (string, Room, error)
	Vote(connID string, vote *string) error
}
