package domain

import "strconv"

// StoryPoints is the fixed set of vote values offered to participants.
// "☕" is the break marker.
var StoryPoints = []string{"?", "☕", "0", "0.5", "1", "2", "3", "5", "8", "13", "20", "40", "100"}

type Ticket struct {
	Key         string  `json:"key"`
	Summary     string  `json:"summary"`
	Description *string `json:"description"`
	IssueType   *string `json:"issue_type"`
	Status      *string `json:"status"`
	URL         string  `json:"url"`
}

type Participant struct {
	ID     string  `json:"id"`
	Name   string  `json:"name"`
	Vote   *string `json:"vote"`
	IsHost bool    `json:"is_host"`
}

// Room is the public view of a room, sent on every broadcast.
type Room struct {
	ID            string        `json:"id"`
	Name          string        `json:"name"`
	Participants  []Participant `json:"participants"`
	VotesRevealed bool          `json:"votes_revealed"`
	CreatedAt     int64         `json:"created_at"`
	InviteCode    string        `json:"invite_code"`
	CurrentTicket *Ticket       `json:"current_ticket"`
}

type VoteSummary struct {
	TotalVoters int      `json:"total_voters"`
	VotedCount  int      `json:"voted_count"`
	Average     *float64 `json:"average"`
}

// Summary counts cast votes and averages the numeric ones. Non-numeric
// votes such as "?" count as voted but are left out of the average.
func (r Room) Summary() VoteSummary {
	s := VoteSummary{TotalVoters: len(r.Participants)}

	var sum float64
	var numeric int
	for _, p := range r.Participants {
		if p.Vote == nil {
			continue
		}
		s.VotedCount++
		if v, err := strconv.ParseFloat(*p.Vote, 64); err == nil {
			sum += v
			numeric++
		}
	}

	if numeric > 0 {
		avg := sum / float64(numeric)
		s.Average = &avg
	}
	return s
}

// Participant returns the participant with the given id.
func (r Room) Participant(id string) (Participant, bool) {
	for _, p := range r.Participants {
		if p.ID == id {
			return p, true
		}
	}
	return Participant{}, false
}

func IsStoryPoint(v string) bool {
	for _, sp := range StoryPoints {
		if sp == v {
			return true
		}
	}
	return false
}
