package services

import "errors"

var (
	ErrValidationFailed = errors.New("validation failed")

	ErrCompetitionNotFound = errors.New("competition not found")
	ErrBracketNotFound     = errors.New("bracket not found")
	ErrFighterNotFound     = errors.New("fighter not found")

	ErrInvalidSynthesisConfig = errors.New("invalid synthesis config")
	ErrNoFighters             = errors.New("at least one fighter is required")
	ErrFighterNotRegistered   = errors.New("fighter is not registered for this competition")
	ErrMixedDivisions         = errors.New("fighters belong to different divisions")
	ErrInvalidDivision        = errors.New("invalid division")
	ErrInvalidBracket         = errors.New("generated bracket failed chain validation")
	ErrNoClubs                = errors.New("no clubs available")

	ErrBracketConflict = errors.New("competition already has a bracket for this division")
)
