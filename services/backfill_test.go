package services

import (
	"testing"

	"github.com/Dosada05/fightclub-brackets/brackets"
	"github.com/Dosada05/fightclub-brackets/models"
	"github.com/stretchr/testify/assert"
)

func threeClubs() []*models.Club {
	return []*models.Club{{ID: 1, Name: "A"}, {ID: 2, Name: "B"}, {ID: 3, Name: "C"}}
}

func pickIDs(p *clubPicker, n int) []int {
	ids := make([]int, 0, n)
	for i := 0; i < n; i++ {
		club := p.Pick()
		p.Record(club.ID)
		ids = append(ids, club.ID)
	}
	return ids
}

func TestClubPickerClubDistributed(t *testing.T) {
	p := newClubPicker(BackfillClubDistributed, threeClubs(), nil, brackets.NewRNG("x"))
	assert.Equal(t, []int{1, 2, 3, 1, 2}, pickIDs(p, 5))
}

func TestClubPickerBalanced(t *testing.T) {
	p := newClubPicker(BackfillBalanced, threeClubs(), map[int]int{1: 3, 2: 1, 3: 2}, brackets.NewRNG("x"))
	// 2 is the emptiest; once it ties with 3 the earlier club wins.
	assert.Equal(t, []int{2, 2, 3, 1, 2}, pickIDs(p, 5))
}

func TestClubPickerRandomIsSeeded(t *testing.T) {
	a := pickIDs(newClubPicker(BackfillRandom, threeClubs(), nil, brackets.NewRNG("seed")), 10)
	b := pickIDs(newClubPicker(BackfillRandom, threeClubs(), nil, brackets.NewRNG("seed")), 10)
	assert.Equal(t, a, b)
	for _, id := range a {
		assert.Contains(t, []int{1, 2, 3}, id)
	}
}

func TestClubPickerWithoutClubs(t *testing.T) {
	for _, strategy := range []BackfillStrategy{BackfillClubDistributed, BackfillBalanced, BackfillRandom} {
		assert.Nil(t, newClubPicker(strategy, nil, nil, brackets.NewRNG("x")).Pick())
	}
}

func TestFighterCountsByClub(t *testing.T) {
	counts := fighterCountsByClub([]*models.Fighter{{ClubID: 1}, {ClubID: 2}, {ClubID: 1}})
	assert.Equal(t, map[int]int{1: 2, 2: 1}, counts)
}
