package brackets

import (
	"fmt"

	"github.com/Dosada05/fightclub-brackets/models"
)

type SingleEliminationGenerator struct{}

func NewSingleEliminationGenerator() BracketGenerator {
	return &SingleEliminationGenerator{}
}

func (g *SingleEliminationGenerator) GetName() string {
	return "SingleElimination"
}

// GenerateBracket builds the empty skeleton of a single-elimination bracket.
// Match ids are dense and allocated round by round, so round 1 holds ids
// 1..size/2 and the final carries the largest id.
func (g *SingleEliminationGenerator) GenerateBracket(params GenerateBracketParams) (*GeneratedBracket, error) {
	if err := validateParams(params); err != nil {
		return nil, err
	}

	n := len(params.FighterIDs)
	switch n {
	case 0:
		return &GeneratedBracket{Matches: []models.Match{}}, nil
	case 1:
		return singleFighterBracket(params), nil
	}

	ordered := orderFighters(params)

	size := NextPowerOfTwo(n)
	if params.BracketSize > size {
		size = NextPowerOfTwo(params.BracketSize)
	}
	numRounds := log2(size)

	slots := make([]*int, size)
	for slot, seed := range SeedOrder(size) {
		if seed <= n {
			id := ordered[seed-1]
			slots[slot] = &id
		}
	}

	// ids[r][i] is the id of the i-th match of round r+1.
	ids := make([][]int, numRounds)
	nextID := 1
	for r := 0; r < numRounds; r++ {
		count := size >> (r + 1)
		ids[r] = make([]int, count)
		for i := range ids[r] {
			ids[r][i] = nextID
			nextID++
		}
	}

	matches := make([]models.Match, 0, size-1)
	for r := 0; r < numRounds; r++ {
		round := r + 1
		for i, id := range ids[r] {
			m := models.Match{
				ID:        id,
				Name:      matchName(round, numRounds, i, len(ids[r])),
				Round:     round,
				State:     models.MatchStateScheduled,
				StartTime: params.StartTime,
			}
			if r+1 < numRounds {
				next := ids[r+1][i/2]
				m.NextMatchID = &next
			}
			if round == 1 {
				m.Participants = []models.Participant{
					slotParticipant(slots[2*i], params.FighterNames),
					slotParticipant(slots[2*i+1], params.FighterNames),
				}
			} else {
				m.Participants = []models.Participant{models.TBDParticipant(), models.TBDParticipant()}
			}
			matches = append(matches, m)
		}
	}

	if params.AdvanceByes && numRounds > 1 {
		advanceByes(matches, ids)
	}

	return &GeneratedBracket{
		Matches: matches,
		Topology: Topology{
			TotalMatches:     len(matches),
			TotalRounds:      numRounds,
			ParticipantSlots: size,
			ByeCount:         size - n,
		},
	}, nil
}

func validateParams(params GenerateBracketParams) error {
	if !params.SeedMethod.Valid() {
		return fmt.Errorf("%w: %q", ErrInvalidSeedMethod, params.SeedMethod)
	}
	seen := make(map[int]struct{}, len(params.FighterIDs))
	for _, id := range params.FighterIDs {
		if id <= 0 {
			return fmt.Errorf("%w: got %d", ErrInvalidFighterID, id)
		}
		if _, dup := seen[id]; dup {
			return fmt.Errorf("%w: %d appears twice", ErrDuplicateFighterID, id)
		}
		seen[id] = struct{}{}
	}
	return nil
}

// orderFighters applies the seed method. Ranking and manual keep the caller's
// order; the caller sorts by ranking beforehand.
func orderFighters(params GenerateBracketParams) []int {
	if params.SeedMethod != models.SeedRandom {
		out := make([]int, len(params.FighterIDs))
		copy(out, params.FighterIDs)
		return out
	}
	var rng *RNG
	if params.RandomSeed != "" {
		rng = NewRNG(params.RandomSeed)
	} else {
		rng = NewTimeSeededRNG()
	}
	return Shuffle(rng, params.FighterIDs)
}

func singleFighterBracket(params GenerateBracketParams) *GeneratedBracket {
	winner := fighterParticipant(params.FighterIDs[0], params.FighterNames)
	winner.IsWinner = true
	final := models.Match{
		ID:           1,
		Name:         roundName(1, 1),
		Round:        1,
		Participants: []models.Participant{winner, models.ByeParticipant()},
		State:        models.MatchStateWalkOver,
		StartTime:    params.StartTime,
	}
	return &GeneratedBracket{
		Matches: []models.Match{final},
		Topology: Topology{
			TotalMatches:     1,
			TotalRounds:      1,
			ParticipantSlots: 2,
			ByeCount:         1,
		},
	}
}

func slotParticipant(fighterID *int, names map[int]string) models.Participant {
	if fighterID == nil {
		return models.ByeParticipant()
	}
	return fighterParticipant(*fighterID, names)
}

func fighterParticipant(id int, names map[int]string) models.Participant {
	name, ok := names[id]
	if !ok || name == "" {
		name = fmt.Sprintf("Fighter #%d", id)
	}
	return models.SeededParticipant(id, name)
}

// advanceByes resolves round-1 matches with exactly one fighter as walk-overs
// and copies that fighter into the slot of the round-2 match it feeds.
func advanceByes(matches []models.Match, ids [][]int) {
	byID := make(map[int]*models.Match, len(matches))
	for i := range matches {
		byID[matches[i].ID] = &matches[i]
	}
	for i, id := range ids[0] {
		m := byID[id]
		p1, p2 := m.Participants[0], m.Participants[1]
		var advancing int
		switch {
		case p1.IsSeeded() && p2.Kind == models.ParticipantBye:
			advancing = 0
		case p2.IsSeeded() && p1.Kind == models.ParticipantBye:
			advancing = 1
		default:
			continue
		}
		m.Participants[advancing].IsWinner = true
		m.State = models.MatchStateWalkOver

		next := byID[ids[1][i/2]]
		fighter := m.Participants[advancing]
		fighter.IsWinner = false
		next.Participants[i%2] = fighter
	}
}

func matchName(round, totalRounds, index, matchesInRound int) string {
	name := roundName(round, totalRounds)
	if matchesInRound > 1 {
		return fmt.Sprintf("%s - Match %d", name, index+1)
	}
	return name
}

func roundName(round, totalRounds int) string {
	switch totalRounds - round {
	case 0:
		return "Final"
	case 1:
		return "Semifinal"
	case 2:
		return "Quarterfinal"
	default:
		return fmt.Sprintf("Round %d", round)
	}
}
