package divisions

import (
	"fmt"
	"sort"
	"time"

	"github.com/Dosada05/fightclub-brackets/models"
)

// Grouping is the roster of one competition split by division. Order lists
// the keys sorted by their string form so processing is deterministic.
type Grouping struct {
	Groups     map[models.DivisionKey][]int
	Order      []models.DivisionKey
	Registered int
	Ineligible int
	Skipped    []string
}

func (g *Grouping) Append(key models.DivisionKey, fighterIDs ...int) {
	if _, ok := g.Groups[key]; !ok {
		g.Order = append(g.Order, key)
		sortKeys(g.Order)
	}
	g.Groups[key] = append(g.Groups[key], fighterIDs...)
}

// Allowed reports whether key is on the whitelist. An empty whitelist allows
// every division.
func Allowed(whitelist []models.DivisionKey, key models.DivisionKey) bool {
	if len(whitelist) == 0 {
		return true
	}
	for _, k := range whitelist {
		if k == key {
			return true
		}
	}
	return false
}

// GroupRoster assigns each registered fighter to its division. Fighters whose
// division is not whitelisted count as ineligible; registrations that cannot be
// classified (unknown fighter, bad gender or discipline) are reported in
// Skipped. Divisions without fighters never appear.
func GroupRoster(comp *models.Competition, fighters map[int]*models.Fighter, whitelist []models.DivisionKey) *Grouping {
	g := &Grouping{Groups: make(map[models.DivisionKey][]int)}
	for _, reg := range comp.Registrations {
		g.Registered++
		f, ok := fighters[reg.FighterID]
		if !ok {
			g.Skipped = append(g.Skipped, fmt.Sprintf("fighter %d is registered but does not exist", reg.FighterID))
			continue
		}
		key, err := KeyFor(f, reg.Discipline, comp.Date)
		if err != nil {
			g.Skipped = append(g.Skipped, err.Error())
			continue
		}
		if !Allowed(whitelist, key) {
			g.Ineligible++
			continue
		}
		g.Append(key, f.ID)
	}
	return g
}

func sortKeys(keys []models.DivisionKey) {
	sort.Slice(keys, func(i, j int) bool { return keys[i].String() < keys[j].String() })
}

// DescribeRanges is a human readable summary of a division's bounds, used in
// diagnostics.
func DescribeRanges(key models.DivisionKey, on time.Time) string {
	ag, err := LookupAgeGroup(key.AgeGroup)
	if err != nil {
		return key.String()
	}
	wc, err := LookupWeightClass(key.Gender, key.WeightClass)
	if err != nil {
		return key.String()
	}
	earliest, latest := BirthDateRange(ag, on)
	min, max := WeightRange(wc)
	return fmt.Sprintf("%s (born %s..%s, %.1f-%.1fkg)", key.String(), earliest.Format(time.DateOnly), latest.Format(time.DateOnly), min, max)
}
