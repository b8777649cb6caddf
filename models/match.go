package models

import "time"

type MatchState string

const (
	MatchStateScheduled MatchState = "scheduled"
	MatchStateWalkOver  MatchState = "walk_over"
	MatchStateDone      MatchState = "done"
)

// ParticipantKind tells a seeded fighter apart from the two placeholder kinds.
type ParticipantKind string

const (
	ParticipantSeeded ParticipantKind = "seeded"
	// ParticipantTBD is the winner of an earlier match, not known yet.
	ParticipantTBD ParticipantKind = "tbd"
	// ParticipantBye is an empty round-1 slot.
	ParticipantBye ParticipantKind = "bye"
)

type Participant struct {
	Kind        ParticipantKind `json:"kind"`
	FighterID   *int            `json:"fighter_id,omitempty"`
	DisplayName string          `json:"display_name,omitempty"`
	IsWinner    bool            `json:"is_winner"`
	ResultText  *string         `json:"result_text,omitempty"`
}

func SeededParticipant(fighterID int, displayName string) Participant {
	id := fighterID
	return Participant{Kind: ParticipantSeeded, FighterID: &id, DisplayName: displayName}
}

func ByeParticipant() Participant {
	return Participant{Kind: ParticipantBye, DisplayName: "BYE"}
}

func TBDParticipant() Participant {
	return Participant{Kind: ParticipantTBD, DisplayName: "TBD"}
}

func (p Participant) IsSeeded() bool {
	return p.Kind == ParticipantSeeded && p.FighterID != nil
}

// Match is one node of a single-elimination tree. ID is dense within its
// bracket (1..N); NextMatchID is nil only for the final.
type Match struct {
	ID           int           `json:"id" db:"id"`
	BracketID    int           `json:"bracket_id,omitempty" db:"bracket_id"`
	Name         string        `json:"name" db:"name"`
	Round        int           `json:"round" db:"round"`
	NextMatchID  *int          `json:"next_match_id" db:"next_match_id"`
	Participants []Participant `json:"participants" db:"participants"`
	State        MatchState    `json:"state" db:"state"`
	StartTime    *time.Time    `json:"start_time,omitempty" db:"start_time"`
}
