package models

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDivisionKeyRoundTrip(t *testing.T) {
	key := DivisionKey{AgeGroup: "Adult", Discipline: "judo", WeightClass: "-73kg", Gender: GenderMale}
	assert.Equal(t, "Adult|judo|-73kg|male", key.String())

	parsed, err := ParseDivisionKey(key.String())
	require.NoError(t, err)
	assert.Equal(t, key, parsed)
}

func TestParseDivisionKeyRejectsMalformed(t *testing.T) {
	for _, s := range []string{"", "Adult|judo|-73kg", "Adult|judo|-73kg|male|extra", "Adult||-73kg|male"} {
		_, err := ParseDivisionKey(s)
		assert.ErrorIs(t, err, ErrInvalidDivisionKey, "%q", s)
	}
}

func TestCompetitionRoster(t *testing.T) {
	c := &Competition{Registrations: []Registration{{FighterID: 3}, {FighterID: 1, Discipline: "sambo"}}}
	assert.Equal(t, []int{3, 1}, c.FighterIDs())
	assert.True(t, c.HasFighter(1))
	assert.False(t, c.HasFighter(2))
}

func TestFighterDisplayName(t *testing.T) {
	assert.Equal(t, "Ivan Petrov", (&Fighter{FirstName: "Ivan", LastName: "Petrov"}).DisplayName())
	assert.Equal(t, "Fighter #4", (&Fighter{ID: 4}).DisplayName())
}

func TestParticipantConstructors(t *testing.T) {
	p := SeededParticipant(5, "Anna")
	assert.True(t, p.IsSeeded())
	assert.Equal(t, 5, *p.FighterID)

	assert.False(t, ByeParticipant().IsSeeded())
	assert.Equal(t, ParticipantTBD, TBDParticipant().Kind)
	assert.True(t, SeedRanking.Valid())
	assert.False(t, SeedMethod("snake").Valid())
}
