package services

import (
	"fmt"
	"sort"
	"time"

	"github.com/Dosada05/fightclub-brackets/brackets"
	"github.com/Dosada05/fightclub-brackets/config"
	"github.com/Dosada05/fightclub-brackets/models"
)

type BackfillStrategy string

const (
	BackfillClubDistributed BackfillStrategy = "club-distributed"
	BackfillBalanced        BackfillStrategy = "balanced"
	BackfillRandom          BackfillStrategy = "random"
)

func (s BackfillStrategy) Valid() bool {
	switch s {
	case BackfillClubDistributed, BackfillBalanced, BackfillRandom:
		return true
	}
	return false
}

type SynthesisConfig struct {
	MinFightersPerBracket int              `json:"min_fighters_per_bracket"`
	AutoBackfillFighters  bool             `json:"auto_backfill_fighters"`
	BackfillStrategy      BackfillStrategy `json:"backfill_strategy"`
	PreferredBracketSizes []int            `json:"preferred_bracket_sizes"`
	// MaxBracketsPerCompetition of 0 means no limit.
	MaxBracketsPerCompetition int    `json:"max_brackets_per_competition"`
	DeterministicSeed         string `json:"deterministic_seed"`
	// AllowedDivisions is a whitelist; empty allows every division.
	AllowedDivisions []models.DivisionKey `json:"allowed_divisions,omitempty"`
	AdvanceByes      bool                 `json:"advance_byes"`
	StartTime        *time.Time           `json:"start_time,omitempty"`
}

// NewSynthesisConfig turns the environment defaults into a run config.
func NewSynthesisConfig(d config.SynthesisDefaults) SynthesisConfig {
	sizes := make([]int, len(d.PreferredSizes))
	copy(sizes, d.PreferredSizes)
	return SynthesisConfig{
		MinFightersPerBracket:     d.MinFighters,
		AutoBackfillFighters:      d.AutoBackfill,
		BackfillStrategy:          BackfillStrategy(d.BackfillStrategy),
		PreferredBracketSizes:     sizes,
		MaxBracketsPerCompetition: d.MaxBrackets,
		DeterministicSeed:         d.Seed,
	}
}

func (c SynthesisConfig) Validate() error {
	if c.MinFightersPerBracket < 1 {
		return fmt.Errorf("%w: min_fighters_per_bracket must be at least 1", ErrInvalidSynthesisConfig)
	}
	if c.AutoBackfillFighters && !c.BackfillStrategy.Valid() {
		return fmt.Errorf("%w: unknown backfill strategy %q", ErrInvalidSynthesisConfig, c.BackfillStrategy)
	}
	if c.MaxBracketsPerCompetition < 0 {
		return fmt.Errorf("%w: max_brackets_per_competition must not be negative", ErrInvalidSynthesisConfig)
	}
	for _, size := range c.PreferredBracketSizes {
		if size < 2 {
			return fmt.Errorf("%w: preferred bracket size %d is below 2", ErrInvalidSynthesisConfig, size)
		}
	}
	return nil
}

// BracketSizeFor picks the smallest preferred size that fits count fighters,
// falling back to the next power of two. The generator still rounds the
// result up to a power of two.
func (c SynthesisConfig) BracketSizeFor(count int) int {
	sizes := make([]int, len(c.PreferredBracketSizes))
	copy(sizes, c.PreferredBracketSizes)
	sort.Ints(sizes)
	for _, size := range sizes {
		if size >= count {
			return size
		}
	}
	return brackets.NextPowerOfTwo(count)
}
