package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"strings"
	"time"

	"github.com/Dosada05/fightclub-brackets/brackets"
	"github.com/Dosada05/fightclub-brackets/divisions"
	"github.com/Dosada05/fightclub-brackets/models"
	"github.com/Dosada05/fightclub-brackets/repositories"
	"golang.org/x/sync/errgroup"
)

type GenerateInput struct {
	FighterIDs  []int             `json:"fighter_ids"`
	SeedMethod  models.SeedMethod `json:"seed_method"`
	RandomSeed  string            `json:"random_seed,omitempty"`
	StartTime   *time.Time        `json:"start_time,omitempty"`
	BracketSize int               `json:"bracket_size,omitempty"`
	AdvanceByes bool              `json:"advance_byes,omitempty"`
}

type PreviewResult struct {
	Matches  []models.Match    `json:"matches"`
	Topology brackets.Topology `json:"topology"`
	Report   brackets.Report   `json:"report"`
}

// CreateBracketInput describes a manually assembled bracket. An empty
// Division is derived from the fighters, who must then share one division.
type CreateBracketInput struct {
	GenerateInput
	Division string `json:"division,omitempty"`
}

type BracketService interface {
	Preview(ctx context.Context, input GenerateInput) (*PreviewResult, error)
	Verify(links []brackets.ChainLink) brackets.Report
	Create(ctx context.Context, competitionID int, input CreateBracketInput) (*models.Bracket, error)
	Regenerate(ctx context.Context, competitionID, bracketID int, input CreateBracketInput) (*models.Bracket, error)
	List(ctx context.Context, competitionID int) ([]*models.Bracket, error)
	Matches(ctx context.Context, competitionID, bracketID int) ([]models.Match, error)
	Delete(ctx context.Context, competitionID, bracketID int) error
}

type bracketService struct {
	fighterRepo     repositories.FighterRepository
	competitionRepo repositories.CompetitionRepository
	bracketRepo     repositories.BracketRepository
	generator       brackets.BracketGenerator
	notifier        Notifier
	logger          *slog.Logger
}

func NewBracketService(
	fighterRepo repositories.FighterRepository,
	competitionRepo repositories.CompetitionRepository,
	bracketRepo repositories.BracketRepository,
	notifier Notifier,
	logger *slog.Logger,
) BracketService {
	if logger == nil {
		logger = slog.Default()
	}
	return &bracketService{
		fighterRepo:     fighterRepo,
		competitionRepo: competitionRepo,
		bracketRepo:     bracketRepo,
		generator:       brackets.NewSingleEliminationGenerator(),
		notifier:        notifier,
		logger:          logger,
	}
}

func (s *bracketService) Preview(ctx context.Context, input GenerateInput) (*PreviewResult, error) {
	fighters, err := s.loadFighters(ctx, input.FighterIDs)
	if err != nil {
		return nil, err
	}
	return s.generate(input, fighters)
}

func (s *bracketService) Verify(links []brackets.ChainLink) brackets.Report {
	return brackets.VerifyChainLinks(links)
}

func (s *bracketService) Create(ctx context.Context, competitionID int, input CreateBracketInput) (*models.Bracket, error) {
	bracket, matches, err := s.prepare(ctx, competitionID, input)
	if err != nil {
		return nil, err
	}
	stored, err := s.bracketRepo.Create(ctx, competitionID, bracket, matches)
	if err != nil {
		return nil, mapRepositoryError(err)
	}
	s.logger.Info("bracket created",
		slog.Int("competition_id", competitionID),
		slog.Int("bracket_id", stored.ID),
		slog.String("division", stored.Division),
		slog.Int("matches", len(stored.Matches)),
	)
	notify(s.notifier, competitionID, brackets.EventBracketCreated, stored)
	return stored, nil
}

// Regenerate replaces a bracket with one built from a new selection or seed
// method. The new bracket is validated first and swapped in atomically, so any
// failure leaves the stored bracket untouched.
func (s *bracketService) Regenerate(ctx context.Context, competitionID, bracketID int, input CreateBracketInput) (*models.Bracket, error) {
	current, err := s.find(ctx, competitionID, bracketID)
	if err != nil {
		return nil, err
	}
	if input.Division == "" {
		input.Division = current.Division
	}

	bracket, matches, err := s.prepare(ctx, competitionID, input)
	if err != nil {
		return nil, err
	}
	stored, err := s.bracketRepo.Replace(ctx, competitionID, bracketID, bracket, matches)
	if err != nil {
		return nil, mapRepositoryError(err)
	}
	s.logger.Info("bracket regenerated",
		slog.Int("competition_id", competitionID),
		slog.Int("old_bracket_id", bracketID),
		slog.Int("bracket_id", stored.ID),
	)
	notify(s.notifier, competitionID, brackets.EventBracketRegenerated, map[string]interface{}{
		"previous_bracket_id": bracketID,
		"bracket":             stored,
	})
	return stored, nil
}

// List returns the competition's brackets with their matches loaded.
func (s *bracketService) List(ctx context.Context, competitionID int) ([]*models.Bracket, error) {
	if _, err := s.competitionRepo.GetByID(ctx, competitionID); err != nil {
		return nil, mapRepositoryError(err)
	}
	list, err := s.bracketRepo.ListByCompetition(ctx, competitionID)
	if err != nil {
		return nil, mapRepositoryError(err)
	}

	g, gCtx := errgroup.WithContext(ctx)
	g.SetLimit(4)
	for _, b := range list {
		b := b // per-iteration copy; go directive is 1.21
		g.Go(func() error {
			matches, err := s.bracketRepo.GetMatches(gCtx, competitionID, b.ID)
			if err != nil {
				return fmt.Errorf("failed to load matches of bracket %d: %w", b.ID, mapRepositoryError(err))
			}
			b.Matches = matches
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return list, nil
}

func (s *bracketService) Matches(ctx context.Context, competitionID, bracketID int) ([]models.Match, error) {
	matches, err := s.bracketRepo.GetMatches(ctx, competitionID, bracketID)
	if err != nil {
		return nil, mapRepositoryError(err)
	}
	return matches, nil
}

func (s *bracketService) Delete(ctx context.Context, competitionID, bracketID int) error {
	if err := s.bracketRepo.Delete(ctx, competitionID, bracketID); err != nil {
		return mapRepositoryError(err)
	}
	s.logger.Info("bracket deleted", slog.Int("competition_id", competitionID), slog.Int("bracket_id", bracketID))
	notify(s.notifier, competitionID, brackets.EventBracketDeleted, map[string]int{"bracket_id": bracketID})
	return nil
}

func (s *bracketService) find(ctx context.Context, competitionID, bracketID int) (*models.Bracket, error) {
	list, err := s.bracketRepo.ListByCompetition(ctx, competitionID)
	if err != nil {
		return nil, mapRepositoryError(err)
	}
	for _, b := range list {
		if b.ID == bracketID {
			return b, nil
		}
	}
	return nil, ErrBracketNotFound
}

// prepare checks the selection against the competition roster, generates the
// bracket and validates it. Nothing is written.
func (s *bracketService) prepare(ctx context.Context, competitionID int, input CreateBracketInput) (*models.Bracket, []models.Match, error) {
	if len(input.FighterIDs) == 0 {
		return nil, nil, ErrNoFighters
	}
	competition, err := s.competitionRepo.GetByID(ctx, competitionID)
	if err != nil {
		return nil, nil, mapRepositoryError(err)
	}
	for _, id := range input.FighterIDs {
		if !competition.HasFighter(id) {
			return nil, nil, fmt.Errorf("%w: fighter %d", ErrFighterNotRegistered, id)
		}
	}
	fighters, err := s.loadFighters(ctx, input.FighterIDs)
	if err != nil {
		return nil, nil, err
	}

	division, err := resolveDivision(input.Division, competition, fighters)
	if err != nil {
		return nil, nil, err
	}

	preview, err := s.generate(input.GenerateInput, fighters)
	if err != nil {
		return nil, nil, err
	}
	if !preview.Report.OK {
		return nil, nil, fmt.Errorf("%w: %s", ErrInvalidBracket, strings.Join(preview.Report.Errors, "; "))
	}

	return &models.Bracket{
		Division:   division,
		FighterIDs: input.FighterIDs,
		SeedMethod: input.SeedMethod,
		Status:     models.BracketPublished,
	}, preview.Matches, nil
}

func (s *bracketService) generate(input GenerateInput, fighters map[int]*models.Fighter) (*PreviewResult, error) {
	names := make(map[int]string, len(fighters))
	for id, f := range fighters {
		names[id] = f.DisplayName()
	}
	generated, err := s.generator.GenerateBracket(brackets.GenerateBracketParams{
		FighterIDs:   input.FighterIDs,
		FighterNames: names,
		SeedMethod:   input.SeedMethod,
		RandomSeed:   input.RandomSeed,
		StartTime:    input.StartTime,
		BracketSize:  input.BracketSize,
		AdvanceByes:  input.AdvanceByes,
	})
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrValidationFailed, err)
	}
	return &PreviewResult{
		Matches:  generated.Matches,
		Topology: generated.Topology,
		Report:   brackets.VerifyChain(generated.Matches),
	}, nil
}

func (s *bracketService) loadFighters(ctx context.Context, ids []int) (map[int]*models.Fighter, error) {
	list, err := s.fighterRepo.GetByIDs(ctx, ids)
	if err != nil {
		return nil, mapRepositoryError(err)
	}
	fighters := make(map[int]*models.Fighter, len(list))
	for _, f := range list {
		fighters[f.ID] = f
	}
	for _, id := range ids {
		if _, ok := fighters[id]; !ok && id > 0 {
			return nil, fmt.Errorf("%w: %d", ErrFighterNotFound, id)
		}
	}
	return fighters, nil
}

// resolveDivision returns the division every selected fighter derives to. A
// requested division must match that key; it never overrides it.
func resolveDivision(requested string, competition *models.Competition, fighters map[int]*models.Fighter) (string, error) {
	var want *models.DivisionKey
	if requested != "" {
		key, err := models.ParseDivisionKey(requested)
		if err != nil {
			return "", fmt.Errorf("%w: %v", ErrInvalidDivision, err)
		}
		want = &key
	}

	disciplines := make(map[int]string, len(competition.Registrations))
	for _, r := range competition.Registrations {
		disciplines[r.FighterID] = r.Discipline
	}
	ids := make([]int, 0, len(fighters))
	for id := range fighters {
		ids = append(ids, id)
	}
	sort.Ints(ids)

	derived := want
	for _, id := range ids {
		key, err := divisions.KeyFor(fighters[id], disciplines[id], competition.Date)
		if err != nil {
			return "", errors.Join(ErrInvalidDivision, err)
		}
		if derived == nil {
			derived = &key
			continue
		}
		if *derived == key {
			continue
		}
		if want != nil {
			return "", fmt.Errorf("%w: fighter %d belongs to %s, not %s", ErrInvalidDivision, id, key, *want)
		}
		return "", fmt.Errorf("%w: %s and %s", ErrMixedDivisions, *derived, key)
	}
	return derived.String(), nil
}
