package protocol

import (
	"encoding/json"
	"fmt"

	"scrum-poker-relay/domain"
)

var inboundKinds = map[domain.FrameType]func() domain.Inbound{
	domain.TypeHostRegister:        func() domain.Inbound { return &domain.HostRegister{} },
	domain.TypeHostCreateRoom:      func() domain.Inbound { return &domain.HostCreateRoom{} },
	domain.TypeHostSyncRoom:        func() domain.Inbound { return &domain.HostSyncRoom{} },
	domain.TypeHostDeleteRoom:      func() domain.Inbound { return &domain.HostDeleteRoom{} },
	domain.TypeHostRevealVotes:     func() domain.Inbound { return &domain.HostRevealVotes{} },
	domain.TypeHostHideVotes:       func() domain.Inbound { return &domain.HostHideVotes{} },
	domain.TypeHostResetVotes:      func() domain.Inbound { return &domain.HostResetVotes{} },
	domain.TypeHostKickParticipant: func() domain.Inbound { return &domain.HostKickParticipant{} },
	domain.TypeHostSetTicket:       func() domain.Inbound { return &domain.HostSetTicket{} },
	domain.TypeHostClearTicket:     func() domain.Inbound { return &domain.HostClearTicket{} },
	domain.TypeJoin:                func() domain.Inbound { return &domain.Join{} },
	domain.TypeVote:                func() domain.Inbound { return &domain.Vote{} },
	domain.TypePing:                func() domain.Inbound { return &domain.Ping{} },
}

// Decode parses one inbound frame into its concrete type. Frames whose
// type is outside the known set fail with domain.ErrUnknownFrame.
func Decode(data []byte) (domain.Inbound, error) {
	var env struct {
		Type domain.FrameType `json:"type"`
	}
	if err := json.Unmarshal(data, &env); err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrMalformedFrame, err)
	}

	factory, ok := inboundKinds[env.Type]
	if !ok {
		return nil, fmt.Errorf("%w: %q", domain.ErrUnknownFrame, env.Type)
	}

	frame := factory()
	if err := json.Unmarshal(data, frame); err != nil {
		return nil, fmt.Errorf("%w: %s: %v", domain.ErrMalformedFrame, env.Type, err)
	}
	return frame, nil
}
