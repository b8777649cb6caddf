// Package divisions derives the bracket category of a fighter and groups a
// competition roster by it.
package divisions

import (
	"errors"
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/Dosada05/fightclub-brackets/models"
)

var (
	ErrUnknownAgeGroup    = errors.New("unknown age group")
	ErrUnknownWeightClass = errors.New("unknown weight class")
	ErrInvalidGender      = errors.New("invalid gender")
	ErrInvalidDiscipline  = errors.New("invalid discipline")
)

// AgeGroup covers ages in [MinAge, MaxAge], in whole years at the
// competition date. MaxAge 0 means open-ended. Fighters younger than the first
// group's MinAge still land in the first group.
type AgeGroup struct {
	Name   string
	MinAge int
	MaxAge int
}

var AgeGroups = []AgeGroup{
	{Name: "U12", MinAge: 6, MaxAge: 11},
	{Name: "U15", MinAge: 12, MaxAge: 14},
	{Name: "U18", MinAge: 15, MaxAge: 17},
	{Name: "Adult", MinAge: 18, MaxAge: 34},
	{Name: "Masters", MinAge: 35, MaxAge: 0},
}

// WeightClass covers weights in (Above, UpTo]. UpTo 0 marks the open class.
type WeightClass struct {
	Name  string
	Above float64
	UpTo  float64
}

var WeightClasses = map[models.Gender][]WeightClass{
	models.GenderMale:   buildClasses([]float64{60, 66, 73, 81, 90, 100}),
	models.GenderFemale: buildClasses([]float64{48, 52, 57, 63, 70, 78}),
}

func buildClasses(limits []float64) []WeightClass {
	classes := make([]WeightClass, 0, len(limits)+1)
	above := 0.0
	for _, limit := range limits {
		classes = append(classes, WeightClass{Name: fmt.Sprintf("-%gkg", limit), Above: above, UpTo: limit})
		above = limit
	}
	return append(classes, WeightClass{Name: fmt.Sprintf("+%gkg", above), Above: above})
}

// AgeAt returns the age in completed years on the given date.
func AgeAt(birthDate, on time.Time) int {
	by, bm, bd := birthDate.Date()
	oy, om, od := on.Date()
	age := oy - by
	if om < bm || (om == bm && od < bd) {
		age--
	}
	return age
}

func AgeGroupFor(age int) AgeGroup {
	for _, g := range AgeGroups {
		if age >= g.MinAge && (g.MaxAge == 0 || age <= g.MaxAge) {
			return g
		}
	}
	return AgeGroups[0]
}

func LookupAgeGroup(name string) (AgeGroup, error) {
	for _, g := range AgeGroups {
		if g.Name == name {
			return g, nil
		}
	}
	return AgeGroup{}, fmt.Errorf("%w: %q", ErrUnknownAgeGroup, name)
}

func WeightClassFor(gender models.Gender, weightKg float64) (WeightClass, error) {
	classes, ok := WeightClasses[gender]
	if !ok {
		return WeightClass{}, fmt.Errorf("%w: %q", ErrInvalidGender, gender)
	}
	for _, c := range classes {
		if weightKg > c.Above && (c.UpTo == 0 || weightKg <= c.UpTo) {
			return c, nil
		}
	}
	return classes[0], nil
}

func LookupWeightClass(gender models.Gender, name string) (WeightClass, error) {
	classes, ok := WeightClasses[gender]
	if !ok {
		return WeightClass{}, fmt.Errorf("%w: %q", ErrInvalidGender, gender)
	}
	for _, c := range classes {
		if c.Name == name {
			return c, nil
		}
	}
	return WeightClass{}, fmt.Errorf("%w: %q for %s", ErrUnknownWeightClass, name, gender)
}

// KeyFor derives the division of a fighter at the competition date. The
// registration discipline wins over the fighter's own when set.
func KeyFor(f *models.Fighter, discipline string, on time.Time) (models.DivisionKey, error) {
	if discipline == "" {
		discipline = f.Discipline
	}
	discipline = strings.TrimSpace(discipline)
	if discipline == "" || strings.Contains(discipline, "|") {
		return models.DivisionKey{}, fmt.Errorf("%w: %q for fighter %d", ErrInvalidDiscipline, discipline, f.ID)
	}
	wc, err := WeightClassFor(f.Gender, f.WeightKg)
	if err != nil {
		return models.DivisionKey{}, fmt.Errorf("fighter %d: %w", f.ID, err)
	}
	return models.DivisionKey{
		AgeGroup:    AgeGroupFor(AgeAt(f.BirthDate, on)).Name,
		Discipline:  discipline,
		WeightClass: wc.Name,
		Gender:      f.Gender,
	}, nil
}

// BirthDateRange returns the inclusive range of birth dates that put a fighter
// in the age group on the given date.
func BirthDateRange(g AgeGroup, on time.Time) (earliest, latest time.Time) {
	on = time.Date(on.Year(), on.Month(), on.Day(), 0, 0, 0, 0, time.UTC)
	latest = on.AddDate(-g.MinAge, 0, 0)
	if latest.Day() != on.Day() {
		// Feb 29 rolled over into March in a non-leap year.
		latest = latest.AddDate(0, 0, -latest.Day())
	}
	maxAge := g.MaxAge
	if maxAge == 0 {
		maxAge = g.MinAge + 20
	}
	earliest = on.AddDate(-(maxAge + 1), 0, 1)
	return earliest, latest
}

// WeightRange returns realistic weights that fall inside the class, kept a
// little off its bounds so rounding never moves a fighter across a limit.
func WeightRange(c WeightClass) (min, max float64) {
	min = c.Above + 0.5
	if c.Above == 0 {
		min = math.Max(min, c.UpTo-12)
	}
	if c.UpTo == 0 {
		return min, c.Above + 25
	}
	return min, math.Max(min, c.UpTo-0.1)
}
