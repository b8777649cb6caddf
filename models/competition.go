package models

import "time"

// CompetitionStatus mirrors the competition_status ENUM in the database.
type CompetitionStatus string

const (
	CompetitionDraft        CompetitionStatus = "draft"
	CompetitionRegistration CompetitionStatus = "registration"
	CompetitionClosed       CompetitionStatus = "closed"
	CompetitionBracketed    CompetitionStatus = "bracketed"
	CompetitionCompleted    CompetitionStatus = "completed"
)

// Registration puts a fighter on a competition roster. Discipline overrides
// the fighter's own discipline when it is not empty.
type Registration struct {
	FighterID  int    `json:"fighter_id" db:"fighter_id"`
	Discipline string `json:"discipline,omitempty" db:"discipline"`
}

type Competition struct {
	ID            int               `json:"id" db:"id"`
	Name          string            `json:"name" db:"name"`
	Date          time.Time         `json:"date" db:"date"`
	Location      *string           `json:"location,omitempty" db:"location"`
	Status        CompetitionStatus `json:"status" db:"status"`
	CreatedAt     time.Time         `json:"created_at" db:"created_at"`
	Registrations []Registration    `json:"registrations" db:"-"`
}

// FighterIDs returns the roster in registration order.
func (c *Competition) FighterIDs() []int {
	ids := make([]int, 0, len(c.Registrations))
	for _, r := range c.Registrations {
		ids = append(ids, r.FighterID)
	}
	return ids
}

func (c *Competition) HasFighter(fighterID int) bool {
	for _, r := range c.Registrations {
		if r.FighterID == fighterID {
			return true
		}
	}
	return false
}

// CompetitionPatch carries the fields of a partial update. Nil fields are left
// untouched; a non-nil Registrations replaces the whole roster.
type CompetitionPatch struct {
	Name          *string
	Status        *CompetitionStatus
	Registrations []Registration
}
