package models

import "time"

type SeedMethod string

const (
	SeedRandom  SeedMethod = "random"
	SeedRanking SeedMethod = "ranking"
	SeedManual  SeedMethod = "manual"
)

func (m SeedMethod) Valid() bool {
	switch m {
	case SeedRandom, SeedRanking, SeedManual:
		return true
	}
	return false
}

type BracketStatus string

const (
	BracketDraft     BracketStatus = "draft"
	BracketPublished BracketStatus = "published"
)

type Bracket struct {
	ID            int           `json:"id" db:"id"`
	CompetitionID int           `json:"competition_id" db:"competition_id"`
	Division      string        `json:"division" db:"division"`
	FighterIDs    []int         `json:"fighter_ids" db:"fighter_ids"`
	SeedMethod    SeedMethod    `json:"seed_method" db:"seed_method"`
	Status        BracketStatus `json:"status" db:"status"`
	CreatedAt     time.Time     `json:"created_at" db:"created_at"`

	Matches []Match `json:"matches,omitempty" db:"-"`
}
