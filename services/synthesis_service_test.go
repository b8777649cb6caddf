package services

import (
	"context"
	"encoding/json"
	"strings"
	"testing"

	"github.com/Dosada05/fightclub-brackets/brackets"
	"github.com/Dosada05/fightclub-brackets/divisions"
	"github.com/Dosada05/fightclub-brackets/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var oneClub = []*models.Club{{ID: 1, Name: "Red Corner"}}

func adultJudoMale(id int) *models.Fighter {
	return fighterAt(id, 25, 75, models.GenderMale, "judo", 1)
}

func TestSynthesizeBackfillsShortDivision(t *testing.T) {
	f1, f2 := adultJudoMale(1), adultJudoMale(2)
	fx := newSynthesisFixture(oneClub, []*models.Competition{competitionWith(10, f1, f2)}, f1, f2)

	result, err := fx.service.SynthesizeForCompetition(context.Background(), 10, baseConfig())
	require.NoError(t, err)

	assert.Equal(t, 1, result.BracketsCreated)
	assert.Equal(t, 1, result.BracketsAttempted)
	require.Len(t, result.Divisions, 1)

	outcome := result.Divisions[0]
	assert.Equal(t, DivisionCreated, outcome.Status)
	assert.Equal(t, "Adult|judo|-81kg|male", outcome.Division)
	assert.Equal(t, 2, outcome.Backfilled)
	assert.Equal(t, 4, outcome.FighterCount)
	assert.Equal(t, 4, outcome.BracketSize)
	assert.Contains(t, outcome.Messages, "Backfilled 2 fighters")
	require.NotNil(t, outcome.BracketID)

	matches, err := fx.brackets.GetMatches(context.Background(), 10, *outcome.BracketID)
	require.NoError(t, err)
	assert.Len(t, matches, 3)
	assert.True(t, brackets.VerifyChain(matches).OK)

	stored, _ := fx.competitions.GetByID(context.Background(), 10)
	require.Len(t, stored.Registrations, 4)
	for _, reg := range stored.Registrations[2:] {
		assert.Equal(t, "judo", reg.Discipline)
		created, ok := fx.fighters.fighters[reg.FighterID]
		require.True(t, ok)
		assert.Equal(t, 1, created.ClubID)
		key, err := divisions.KeyFor(created, reg.Discipline, refDate)
		require.NoError(t, err)
		assert.Equal(t, outcome.Key, key)
	}
}

func TestSynthesizeBackfillDisabled(t *testing.T) {
	f1, f2 := adultJudoMale(1), adultJudoMale(2)
	fx := newSynthesisFixture(oneClub, []*models.Competition{competitionWith(10, f1, f2)}, f1, f2)
	cfg := baseConfig()
	cfg.AutoBackfillFighters = false

	result, err := fx.service.SynthesizeForCompetition(context.Background(), 10, cfg)
	require.NoError(t, err)

	assert.Zero(t, result.BracketsCreated)
	require.Len(t, result.Divisions, 1)
	assert.Equal(t, ReasonInsufficientFighters, result.Divisions[0].Reason)
	assert.Contains(t, strings.Join(result.Divisions[0].Messages, " "), "auto-backfill disabled")
	assert.Zero(t, fx.brackets.count())
}

func TestSynthesizeWithoutClubsCannotBackfill(t *testing.T) {
	f1 := adultJudoMale(1)
	fx := newSynthesisFixture(nil, []*models.Competition{competitionWith(10, f1)}, f1)

	result, err := fx.service.SynthesizeForCompetition(context.Background(), 10, baseConfig())
	require.NoError(t, err)

	require.Len(t, result.Divisions, 1)
	assert.Equal(t, DivisionFailed, result.Divisions[0].Status)
	assert.Equal(t, ReasonInsufficientFighters, result.Divisions[0].Reason)
	assert.Zero(t, fx.competitions.updates)
}

func TestSynthesizeReportsGeneratedBracketSize(t *testing.T) {
	roster := []*models.Fighter{adultJudoMale(1), adultJudoMale(2), adultJudoMale(3), adultJudoMale(4), adultJudoMale(5)}
	fx := newSynthesisFixture(oneClub, []*models.Competition{competitionWith(10, roster...)}, roster...)
	cfg := baseConfig()
	cfg.PreferredBracketSizes = []int{6}

	result, err := fx.service.SynthesizeForCompetition(context.Background(), 10, cfg)
	require.NoError(t, err)
	require.Len(t, result.Divisions, 1)

	outcome := result.Divisions[0]
	require.Equal(t, DivisionCreated, outcome.Status)
	assert.Equal(t, 8, outcome.BracketSize, "a preferred size of 6 is rounded up by the generator")

	matches, err := fx.brackets.GetMatches(context.Background(), 10, *outcome.BracketID)
	require.NoError(t, err)
	assert.Len(t, matches, 7)
}

func TestSynthesizeBalancedBackfillFavoursSmallerClub(t *testing.T) {
	clubs := []*models.Club{{ID: 1, Name: "Red Corner"}, {ID: 2, Name: "Blue Corner"}}
	registered := adultJudoMale(1)
	// Club 1 holds three fighters and club 2 one. Only fighter 1 is registered.
	others := []*models.Fighter{
		adultJudoMale(2),
		adultJudoMale(3),
		fighterAt(4, 25, 75, models.GenderMale, "judo", 2),
	}
	fx := newSynthesisFixture(clubs, []*models.Competition{competitionWith(10, registered)}, append(others, registered)...)
	cfg := baseConfig()
	cfg.BackfillStrategy = BackfillBalanced

	result, err := fx.service.SynthesizeForCompetition(context.Background(), 10, cfg)
	require.NoError(t, err)
	require.Len(t, result.Divisions, 1)
	require.Equal(t, DivisionCreated, result.Divisions[0].Status)
	assert.Equal(t, 3, result.Divisions[0].Backfilled)

	all, err := fx.fighters.GetAll(context.Background())
	require.NoError(t, err)
	var backfilledClubs []int
	for _, f := range all {
		if f.ID > 1000 {
			backfilledClubs = append(backfilledClubs, f.ClubID)
		}
	}
	// Club 2 catches up to three before ties go to the lower club id.
	assert.Equal(t, []int{2, 2, 1}, backfilledClubs)
}

func TestSynthesizeRespectsMaxBrackets(t *testing.T) {
	roster := make([]*models.Fighter, 0)
	for i := 1; i <= 4; i++ {
		roster = append(roster, adultJudoMale(i))
		roster = append(roster, fighterAt(10+i, 25, 55, models.GenderFemale, "judo", 1))
		roster = append(roster, fighterAt(20+i, 13, 45, models.GenderMale, "sambo", 1))
	}
	fx := newSynthesisFixture(oneClub, []*models.Competition{competitionWith(10, roster...)}, roster...)
	cfg := baseConfig()
	cfg.MaxBracketsPerCompetition = 2

	result, err := fx.service.SynthesizeForCompetition(context.Background(), 10, cfg)
	require.NoError(t, err)

	assert.Equal(t, 2, result.BracketsCreated)
	assert.Equal(t, 2, result.BracketsAttempted)
	require.Len(t, result.Divisions, 3)
	assert.Equal(t, ReasonMaxBracketsReached, result.Divisions[2].Reason)
	assert.Equal(t, DivisionSkipped, result.Divisions[2].Status)

	for i := 1; i < len(result.Divisions); i++ {
		assert.Less(t, result.Divisions[i-1].Division, result.Divisions[i].Division)
	}
}

func TestSynthesizeWhitelist(t *testing.T) {
	m := []*models.Fighter{adultJudoMale(1), adultJudoMale(2), adultJudoMale(3), adultJudoMale(4)}
	w := fighterAt(9, 25, 55, models.GenderFemale, "judo", 1)
	roster := append(m, w)
	fx := newSynthesisFixture(oneClub, []*models.Competition{competitionWith(10, roster...)}, roster...)
	cfg := baseConfig()
	cfg.AllowedDivisions = []models.DivisionKey{{AgeGroup: "Adult", Discipline: "judo", WeightClass: "-81kg", Gender: models.GenderMale}}

	result, err := fx.service.SynthesizeForCompetition(context.Background(), 10, cfg)
	require.NoError(t, err)

	require.Len(t, result.Divisions, 1)
	assert.Equal(t, 1, result.BracketsCreated)
	assert.Contains(t, result.Notes, "1 registered fighters are outside the allowed divisions")
}

func TestSynthesizeIsDeterministic(t *testing.T) {
	run := func() []models.Match {
		roster := []*models.Fighter{adultJudoMale(1), adultJudoMale(2), adultJudoMale(3), adultJudoMale(4), adultJudoMale(5)}
		fx := newSynthesisFixture(oneClub, []*models.Competition{competitionWith(10, roster...)}, roster...)
		result, err := fx.service.SynthesizeForCompetition(context.Background(), 10, baseConfig())
		require.NoError(t, err)
		require.Equal(t, 1, result.BracketsCreated)
		matches, err := fx.brackets.GetMatches(context.Background(), 10, *result.Divisions[0].BracketID)
		require.NoError(t, err)
		return matches
	}
	first, second := run(), run()
	assert.Len(t, first, 7)
	assert.Equal(t, first, second)
}

func TestSynthesizeCatchesPersistenceFailures(t *testing.T) {
	roster := make([]*models.Fighter, 0)
	for i := 1; i <= 4; i++ {
		roster = append(roster, adultJudoMale(i), fighterAt(10+i, 25, 55, models.GenderFemale, "judo", 1))
	}
	fx := newSynthesisFixture(oneClub, []*models.Competition{competitionWith(10, roster...)}, roster...)
	fx.brackets.panicOn = "Adult|judo|-57kg|female"

	result, err := fx.service.SynthesizeForCompetition(context.Background(), 10, baseConfig())
	require.NoError(t, err)

	require.Len(t, result.Divisions, 2)
	byDivision := map[string]DivisionOutcome{}
	for _, d := range result.Divisions {
		byDivision[d.Division] = d
	}
	failed := byDivision["Adult|judo|-57kg|female"]
	assert.Equal(t, DivisionFailed, failed.Status)
	assert.Equal(t, ReasonPersistenceFailed, failed.Reason)
	assert.Equal(t, DivisionCreated, byDivision["Adult|judo|-81kg|male"].Status)
	assert.Equal(t, 1, result.BracketsCreated)
}

func TestSynthesizeReportsRepositoryErrors(t *testing.T) {
	roster := []*models.Fighter{adultJudoMale(1), adultJudoMale(2), adultJudoMale(3), adultJudoMale(4)}
	fx := newSynthesisFixture(oneClub, []*models.Competition{competitionWith(10, roster...)}, roster...)
	fx.brackets.createErr = errStorageDown

	result, err := fx.service.SynthesizeForCompetition(context.Background(), 10, baseConfig())
	require.NoError(t, err)
	require.Len(t, result.Divisions, 1)
	assert.Equal(t, ReasonPersistenceFailed, result.Divisions[0].Reason)
	assert.Contains(t, result.Divisions[0].Messages, "storage down")
}

func TestSynthesizeNotifiesAndArchives(t *testing.T) {
	roster := []*models.Fighter{adultJudoMale(1), adultJudoMale(2), adultJudoMale(3), adultJudoMale(4)}
	fx := newSynthesisFixture(oneClub, []*models.Competition{competitionWith(10, roster...)}, roster...)

	result, err := fx.service.SynthesizeForCompetition(context.Background(), 10, baseConfig())
	require.NoError(t, err)

	require.Len(t, fx.notifier.events, 2)
	assert.Equal(t, "competition_10", fx.notifier.events[0].Room)
	assert.Equal(t, brackets.EventBracketCreated, fx.notifier.events[0].Message.(brackets.WebSocketMessage).Type)
	assert.Equal(t, brackets.EventSynthesisCompleted, fx.notifier.events[1].Message.(brackets.WebSocketMessage).Type)

	key := "synthesis/spring-cup/" + result.RunID.String() + ".json"
	assert.Equal(t, "https://reports.example.com/"+key, result.ReportURL)
	require.Contains(t, fx.uploader.objects, key)

	var archived SynthesisResult
	require.NoError(t, json.Unmarshal(fx.uploader.objects[key], &archived))
	assert.Equal(t, result.RunID, archived.RunID)
	assert.Equal(t, 1, archived.BracketsCreated)
}

func TestSynthesizeSurvivesArchiveFailure(t *testing.T) {
	roster := []*models.Fighter{adultJudoMale(1), adultJudoMale(2), adultJudoMale(3), adultJudoMale(4)}
	fx := newSynthesisFixture(oneClub, []*models.Competition{competitionWith(10, roster...)}, roster...)
	fx.uploader.err = errStorageDown

	result, err := fx.service.SynthesizeForCompetition(context.Background(), 10, baseConfig())
	require.NoError(t, err)
	assert.Empty(t, result.ReportURL)
	assert.Equal(t, 1, result.BracketsCreated)
}

func TestSynthesizeUnknownCompetition(t *testing.T) {
	fx := newSynthesisFixture(oneClub, nil)
	_, err := fx.service.SynthesizeForCompetition(context.Background(), 99, baseConfig())
	assert.ErrorIs(t, err, ErrCompetitionNotFound)
}

func TestSynthesizeRejectsInvalidConfig(t *testing.T) {
	fx := newSynthesisFixture(oneClub, nil)
	cfg := baseConfig()
	cfg.MinFightersPerBracket = 0
	_, err := fx.service.SynthesizeForCompetition(context.Background(), 10, cfg)
	assert.ErrorIs(t, err, ErrInvalidSynthesisConfig)
}

func TestSynthesizeBatchKeepsInputOrder(t *testing.T) {
	a := []*models.Fighter{adultJudoMale(1), adultJudoMale(2), adultJudoMale(3), adultJudoMale(4)}
	b := []*models.Fighter{adultJudoMale(5), adultJudoMale(6)}
	all := append(append([]*models.Fighter{}, a...), b...)
	fx := newSynthesisFixture(oneClub, []*models.Competition{competitionWith(1, a...), competitionWith(2, b...)}, all...)

	results := fx.service.SynthesizeBatch(context.Background(), []int{2, 404, 1}, baseConfig())

	require.Len(t, results, 3)
	assert.Equal(t, 2, results[0].CompetitionID)
	require.NotNil(t, results[0].Result)
	assert.Equal(t, 1, results[0].Result.BracketsCreated)

	assert.Equal(t, 404, results[1].CompetitionID)
	assert.Nil(t, results[1].Result)
	assert.Contains(t, results[1].Error, "competition not found")

	assert.Equal(t, 1, results[2].CompetitionID)
	require.NotNil(t, results[2].Result)
	assert.Equal(t, 1, results[2].Result.BracketsCreated)
}
