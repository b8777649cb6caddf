package services

import (
	"github.com/Dosada05/fightclub-brackets/brackets"
	"github.com/Dosada05/fightclub-brackets/models"
)

// clubPicker chooses the club of each synthesized fighter. One picker lives
// for a whole competition run, so club-distributed keeps rotating across
// divisions and balanced sees the fighters created earlier in the run.
type clubPicker struct {
	strategy BackfillStrategy
	clubs    []*models.Club
	counts   map[int]int
	next     int
	rng      *brackets.RNG
}

// newClubPicker takes clubs in a stable order and the current fighter count of
// each club. counts may be nil for strategies that ignore it.
func newClubPicker(strategy BackfillStrategy, clubs []*models.Club, counts map[int]int, rng *brackets.RNG) *clubPicker {
	c := make(map[int]int, len(clubs))
	for _, club := range clubs {
		c[club.ID] = counts[club.ID]
	}
	return &clubPicker{strategy: strategy, clubs: clubs, counts: c, rng: rng}
}

// Pick returns the next club, or nil when there are no clubs.
func (p *clubPicker) Pick() *models.Club {
	if len(p.clubs) == 0 {
		return nil
	}
	switch p.strategy {
	case BackfillBalanced:
		best := p.clubs[0]
		for _, club := range p.clubs[1:] {
			if p.counts[club.ID] < p.counts[best.ID] {
				best = club
			}
		}
		return best
	case BackfillRandom:
		return brackets.Pick(p.rng, p.clubs)
	default:
		club := p.clubs[p.next%len(p.clubs)]
		p.next++
		return club
	}
}

// Record counts a fighter created for the club.
func (p *clubPicker) Record(clubID int) {
	p.counts[clubID]++
}

// fighterCountsByClub counts fighters per club.
func fighterCountsByClub(fighters []*models.Fighter) map[int]int {
	counts := make(map[int]int)
	for _, f := range fighters {
		counts[f.ClubID]++
	}
	return counts
}
