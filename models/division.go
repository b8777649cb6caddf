package models

import (
	"errors"
	"fmt"
	"strings"
)

const divisionKeySeparator = "|"

var ErrInvalidDivisionKey = errors.New("invalid division key")

// DivisionKey identifies a bracket category. It is comparable, so it is used
// directly as a map key; String/ParseDivisionKey exist for storage.
type DivisionKey struct {
	AgeGroup    string `json:"age_group"`
	Discipline  string `json:"discipline"`
	WeightClass string `json:"weight_class"`
	Gender      Gender `json:"gender"`
}

func (k DivisionKey) String() string {
	return strings.Join([]string{k.AgeGroup, k.Discipline, k.WeightClass, string(k.Gender)}, divisionKeySeparator)
}

func ParseDivisionKey(s string) (DivisionKey, error) {
	parts := strings.Split(s, divisionKeySeparator)
	if len(parts) != 4 {
		return DivisionKey{}, fmt.Errorf("%w: %q has %d components, want 4", ErrInvalidDivisionKey, s, len(parts))
	}
	for i, p := range parts {
		if p == "" {
			return DivisionKey{}, fmt.Errorf("%w: %q has an empty component at position %d", ErrInvalidDivisionKey, s, i)
		}
	}
	return DivisionKey{
		AgeGroup:    parts[0],
		Discipline:  parts[1],
		WeightClass: parts[2],
		Gender:      Gender(parts[3]),
	}, nil
}
