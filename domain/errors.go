package domain

import "errors"

var (
	ErrNotFound           = errors.New("room not found")
	ErrUnauthorized       = errors.New("caller does not own room")
	ErrNotHost            = errors.New("connection is not a host")
	ErrHostCannotJoin     = errors.New("host connections cannot join a room")
	ErrAlreadyJoined      = errors.New("connection already joined a room")
	ErrNotJoined          = errors.New("connection has not joined a room")
	ErrUnknownConnection  = errors.New("connection is not registered")
	ErrUnknownParticipant = errors.New("participant not in room")
	ErrMalformedFrame     = errors.New("malformed frame")
	ErrUnknownFrame       = errors.New("unknown frame type")
	ErrChannelUnavailable = errors.New("channel unavailable")
)
