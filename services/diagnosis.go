package services

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/Dosada05/fightclub-brackets/divisions"
	"github.com/Dosada05/fightclub-brackets/models"
)

type DiagnosisReason struct {
	Code    ReasonCode `json:"code"`
	Details []string   `json:"details"`
}

// DiagnoseEmptyCompetition explains why a competition ended up without
// brackets. It only reads; nothing is created or repaired.
func (s *synthesisService) DiagnoseEmptyCompetition(ctx context.Context, competitionID int, cfg SynthesisConfig) ([]DiagnosisReason, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	competition, fighters, err := s.loadRoster(ctx, competitionID)
	if err != nil {
		return nil, err
	}

	reasons := make([]DiagnosisReason, 0)

	existing, err := s.bracketRepo.ListByCompetition(ctx, competitionID)
	if err != nil {
		return nil, fmt.Errorf("failed to list brackets of competition %d: %w", competitionID, mapRepositoryError(err))
	}
	conflicts := make([]string, 0)
	populated := 0
	for _, b := range existing {
		matches, err := s.bracketRepo.GetMatches(ctx, competitionID, b.ID)
		if err != nil {
			return nil, fmt.Errorf("failed to load matches of bracket %d: %w", b.ID, mapRepositoryError(err))
		}
		if len(matches) == 0 {
			conflicts = append(conflicts, fmt.Sprintf("bracket %d (%s) exists but has no matches", b.ID, b.Division))
			continue
		}
		populated++
	}
	if len(conflicts) > 0 {
		reasons = append(reasons, DiagnosisReason{Code: ReasonPersistenceConflict, Details: conflicts})
	}

	groups := divisions.GroupRoster(competition, fighters, cfg.AllowedDivisions)
	if len(groups.Groups) == 0 {
		details := make([]string, 0)
		switch {
		case groups.Registered == 0:
			details = append(details, "competition has no registered fighters")
		default:
			details = append(details, fmt.Sprintf("none of %d registered fighters falls into an allowed division", groups.Registered))
			if groups.Ineligible > 0 {
				details = append(details, fmt.Sprintf("%d fighters are outside the allowed divisions", groups.Ineligible))
			}
		}
		details = append(details, groups.Skipped...)
		reasons = append(reasons, DiagnosisReason{Code: ReasonNoEligibleDivisions, Details: details})
	} else {
		if short := s.shortDivisions(ctx, groups, competition, cfg); len(short) > 0 {
			reasons = append(reasons, DiagnosisReason{Code: ReasonInsufficientFighters, Details: short})
		}
	}

	if len(reasons) == 0 {
		detail := "no known cause found"
		if populated > 0 {
			detail = fmt.Sprintf("competition already has %d brackets with matches", populated)
		}
		reasons = append(reasons, DiagnosisReason{Code: ReasonUnknown, Details: []string{detail}})
	}
	return reasons, nil
}

func (s *synthesisService) shortDivisions(ctx context.Context, groups *divisions.Grouping, competition *models.Competition, cfg SynthesisConfig) []string {
	short := make([]string, 0)
	clubsChecked, clubCount := false, 0
	for _, key := range groups.Order {
		count := len(groups.Groups[key])
		if count >= cfg.MinFightersPerBracket {
			continue
		}
		detail := fmt.Sprintf("division %s has %d of %d fighters", divisions.DescribeRanges(key, competition.Date), count, cfg.MinFightersPerBracket)
		if !cfg.AutoBackfillFighters {
			short = append(short, detail+", auto-backfill disabled")
			continue
		}
		if !clubsChecked {
			clubsChecked = true
			clubs, err := s.clubRepo.GetAll(ctx)
			if err != nil {
				s.logger.Warn("diagnosis could not load clubs", slog.Int("competition_id", competition.ID), slog.Any("error", err))
				clubCount = -1
			} else {
				clubCount = len(clubs)
			}
		}
		switch clubCount {
		case 0:
			short = append(short, detail+", no clubs available for backfill")
		case -1:
			short = append(short, detail+", clubs could not be loaded")
		}
	}
	return short
}
