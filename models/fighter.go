package models

import (
	"strconv"
	"strings"
	"time"
)

type Gender string

const (
	GenderMale   Gender = "male"
	GenderFemale Gender = "female"
)

func (g Gender) Valid() bool {
	return g == GenderMale || g == GenderFemale
}

// Fighter is a registered athlete. The bracket engine only reads it.
type Fighter struct {
	ID         int       `json:"id" db:"id"`
	FirstName  string    `json:"first_name" db:"first_name"`
	LastName   string    `json:"last_name" db:"last_name"`
	BirthDate  time.Time `json:"birth_date" db:"birth_date"`
	Discipline string    `json:"discipline" db:"discipline"`
	WeightKg   float64   `json:"weight_kg" db:"weight_kg"`
	Gender     Gender    `json:"gender" db:"gender"`
	ClubID     int       `json:"club_id" db:"club_id"`
	CreatedAt  time.Time `json:"created_at" db:"created_at"`
}

func (f *Fighter) DisplayName() string {
	name := strings.TrimSpace(f.FirstName + " " + f.LastName)
	if name == "" {
		return "Fighter #" + strconv.Itoa(f.ID)
	}
	return name
}
