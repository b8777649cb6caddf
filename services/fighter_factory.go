package services

import (
	"context"
	"fmt"
	"math"
	"time"

	"github.com/Dosada05/fightclub-brackets/brackets"
	"github.com/Dosada05/fightclub-brackets/divisions"
	"github.com/Dosada05/fightclub-brackets/models"
	"github.com/Dosada05/fightclub-brackets/repositories"
)

// FighterSpec describes a fighter to synthesize. The created fighter derives
// to Key at ReferenceDate.
type FighterSpec struct {
	Key           models.DivisionKey
	ClubID        int
	ReferenceDate time.Time
}

type FighterFactory interface {
	CreateForDivision(ctx context.Context, spec FighterSpec, rng *brackets.RNG) (*models.Fighter, error)
}

type fighterFactory struct {
	fighterRepo repositories.FighterRepository
}

func NewFighterFactory(fighterRepo repositories.FighterRepository) FighterFactory {
	return &fighterFactory{fighterRepo: fighterRepo}
}

var (
	maleFirstNames   = []string{"Aleksandr", "Dmitry", "Ivan", "Mikhail", "Nikita", "Artem", "Sergey", "Pavel", "Roman", "Timur"}
	femaleFirstNames = []string{"Anna", "Maria", "Elena", "Daria", "Polina", "Sofia", "Irina", "Olga", "Alina", "Vera"}
	lastNames        = []string{"Ivanov", "Petrov", "Smirnov", "Kuznetsov", "Popov", "Volkov", "Sokolov", "Morozov", "Novikov", "Orlov"}
)

func (f *fighterFactory) CreateForDivision(ctx context.Context, spec FighterSpec, rng *brackets.RNG) (*models.Fighter, error) {
	fighter, err := BuildFighter(spec, rng)
	if err != nil {
		return nil, err
	}
	if err := f.fighterRepo.Create(ctx, fighter); err != nil {
		return nil, fmt.Errorf("failed to persist synthesized fighter for %s: %w", spec.Key, err)
	}
	return fighter, nil
}

// BuildFighter draws a fighter for spec without persisting it.
func BuildFighter(spec FighterSpec, rng *brackets.RNG) (*models.Fighter, error) {
	key := spec.Key
	if !key.Gender.Valid() {
		return nil, fmt.Errorf("%w: %q", divisions.ErrInvalidGender, key.Gender)
	}
	ageGroup, err := divisions.LookupAgeGroup(key.AgeGroup)
	if err != nil {
		return nil, err
	}
	weightClass, err := divisions.LookupWeightClass(key.Gender, key.WeightClass)
	if err != nil {
		return nil, err
	}

	earliest, latest := divisions.BirthDateRange(ageGroup, spec.ReferenceDate)
	days := int(latest.Sub(earliest).Hours() / 24)
	birthDate := earliest.AddDate(0, 0, rng.Int(0, days))

	minWeight, maxWeight := divisions.WeightRange(weightClass)
	weight := math.Round((minWeight+rng.Next()*(maxWeight-minWeight))*10) / 10

	firstNames := maleFirstNames
	lastName := brackets.Pick(rng, lastNames)
	if key.Gender == models.GenderFemale {
		firstNames = femaleFirstNames
		lastName += "a"
	}

	fighter := &models.Fighter{
		FirstName:  brackets.Pick(rng, firstNames),
		LastName:   lastName,
		BirthDate:  birthDate,
		Discipline: key.Discipline,
		WeightKg:   weight,
		Gender:     key.Gender,
		ClubID:     spec.ClubID,
	}

	derived, err := divisions.KeyFor(fighter, "", spec.ReferenceDate)
	if err != nil {
		return nil, err
	}
	if derived != key {
		return nil, fmt.Errorf("%w: synthesized fighter derives to %s instead of %s", ErrInvalidDivision, derived, key)
	}
	return fighter, nil
}
