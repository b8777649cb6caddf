package brackets

import (
	"errors"
	"time"

	"github.com/Dosada05/fightclub-brackets/models"
)

var (
	ErrInvalidFighterID   = errors.New("fighter ids must be positive")
	ErrDuplicateFighterID = errors.New("fighter ids must be distinct")
	ErrInvalidSeedMethod  = errors.New("unknown seed method")
)

type GenerateBracketParams struct {
	FighterIDs   []int
	FighterNames map[int]string
	SeedMethod   models.SeedMethod
	// RandomSeed makes SeedRandom reproducible; empty means time-seeded.
	RandomSeed string
	StartTime  *time.Time
	// BracketSize is a lower bound for the slot count. It is rounded up to a
	// power of two and never goes below the fighter count.
	BracketSize int
	// AdvanceByes moves a fighter facing a bye straight into round 2.
	AdvanceByes bool
}

// Topology summarises a generated bracket.
type Topology struct {
	TotalMatches     int `json:"total_matches"`
	TotalRounds      int `json:"total_rounds"`
	ParticipantSlots int `json:"participant_slots"`
	ByeCount         int `json:"bye_count"`
}

type GeneratedBracket struct {
	Matches  []models.Match `json:"matches"`
	Topology Topology       `json:"topology"`
}

type BracketGenerator interface {
	GenerateBracket(params GenerateBracketParams) (*GeneratedBracket, error)

	GetName() string
}
