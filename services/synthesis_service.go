package services

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"strings"
	"time"

	"github.com/Dosada05/fightclub-brackets/brackets"
	"github.com/Dosada05/fightclub-brackets/divisions"
	"github.com/Dosada05/fightclub-brackets/models"
	"github.com/Dosada05/fightclub-brackets/repositories"
	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"
)

// ReasonCode classifies why a division or a whole competition produced no
// bracket.
type ReasonCode string

const (
	ReasonInsufficientFighters ReasonCode = "INSUFFICIENT_FIGHTERS"
	ReasonNoEligibleDivisions  ReasonCode = "NO_ELIGIBLE_DIVISIONS"
	ReasonPersistenceConflict  ReasonCode = "PERSISTENCE_CONFLICT"
	ReasonUnknown              ReasonCode = "UNKNOWN"
	ReasonMaxBracketsReached   ReasonCode = "MAX_BRACKETS_REACHED"
	ReasonValidationFailed     ReasonCode = "VALIDATION_FAILED"
	ReasonPersistenceFailed    ReasonCode = "PERSISTENCE_FAILED"
)

type DivisionStatus string

const (
	DivisionCreated DivisionStatus = "created"
	DivisionFailed  DivisionStatus = "failed"
	DivisionSkipped DivisionStatus = "skipped"
)

// DivisionOutcome is the diagnostic of one division in a synthesis run.
type DivisionOutcome struct {
	Division     string             `json:"division"`
	Key          models.DivisionKey `json:"key"`
	Status       DivisionStatus     `json:"status"`
	Reason       ReasonCode         `json:"reason,omitempty"`
	FighterCount int                `json:"fighter_count"`
	Backfilled   int                `json:"backfilled"`
	BracketSize  int                `json:"bracket_size,omitempty"`
	BracketID    *int               `json:"bracket_id,omitempty"`
	Messages     []string           `json:"messages"`
}

type SynthesisResult struct {
	RunID             uuid.UUID         `json:"run_id"`
	CompetitionID     int               `json:"competition_id"`
	BracketsCreated   int               `json:"brackets_created"`
	BracketsAttempted int               `json:"brackets_attempted"`
	Divisions         []DivisionOutcome `json:"divisions"`
	// Notes carries roster problems found while grouping.
	Notes      []string  `json:"notes"`
	StartedAt  time.Time `json:"started_at"`
	FinishedAt time.Time `json:"finished_at"`
	ReportURL  string    `json:"report_url,omitempty"`
}

type BatchResult struct {
	CompetitionID int              `json:"competition_id"`
	Result        *SynthesisResult `json:"result,omitempty"`
	Error         string           `json:"error,omitempty"`
}

// Notifier receives fire-and-forget events. *brackets.Hub implements it.
type Notifier interface {
	BroadcastToRoom(roomID string, message interface{})
}

type SynthesisService interface {
	SynthesizeForCompetition(ctx context.Context, competitionID int, cfg SynthesisConfig) (*SynthesisResult, error)
	SynthesizeBatch(ctx context.Context, competitionIDs []int, cfg SynthesisConfig) []BatchResult
	DiagnoseEmptyCompetition(ctx context.Context, competitionID int, cfg SynthesisConfig) ([]DiagnosisReason, error)
}

type synthesisService struct {
	fighterRepo      repositories.FighterRepository
	clubRepo         repositories.ClubRepository
	competitionRepo  repositories.CompetitionRepository
	bracketRepo      repositories.BracketRepository
	factory          FighterFactory
	generator        brackets.BracketGenerator
	notifier         Notifier
	archiver         ReportArchiver
	logger           *slog.Logger
	batchConcurrency int
}

// NewSynthesisService wires the synthesizer. notifier and archiver may be nil.
func NewSynthesisService(
	fighterRepo repositories.FighterRepository,
	clubRepo repositories.ClubRepository,
	competitionRepo repositories.CompetitionRepository,
	bracketRepo repositories.BracketRepository,
	factory FighterFactory,
	notifier Notifier,
	archiver ReportArchiver,
	logger *slog.Logger,
	batchConcurrency int,
) SynthesisService {
	if logger == nil {
		logger = slog.Default()
	}
	if batchConcurrency < 1 {
		batchConcurrency = 1
	}
	return &synthesisService{
		fighterRepo:      fighterRepo,
		clubRepo:         clubRepo,
		competitionRepo:  competitionRepo,
		bracketRepo:      bracketRepo,
		factory:          factory,
		generator:        brackets.NewSingleEliminationGenerator(),
		notifier:         notifier,
		archiver:         archiver,
		logger:           logger,
		batchConcurrency: batchConcurrency,
	}
}

// synthesisRun is the state of one competition run. Divisions are processed
// one after another against it.
type synthesisRun struct {
	cfg         SynthesisConfig
	competition *models.Competition
	fighters    map[int]*models.Fighter
	groups      *divisions.Grouping
	picker      *clubPicker
	backfillRNG *brackets.RNG
	result      *SynthesisResult
}

func (s *synthesisService) SynthesizeForCompetition(ctx context.Context, competitionID int, cfg SynthesisConfig) (*SynthesisResult, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	result := &SynthesisResult{
		RunID:         uuid.New(),
		CompetitionID: competitionID,
		Divisions:     make([]DivisionOutcome, 0),
		Notes:         make([]string, 0),
		StartedAt:     time.Now().UTC(),
	}
	log := s.logger.With(slog.Int("competition_id", competitionID), slog.String("run_id", result.RunID.String()))

	competition, fighters, err := s.loadRoster(ctx, competitionID)
	if err != nil {
		return nil, err
	}

	run := &synthesisRun{
		cfg:         cfg,
		competition: competition,
		fighters:    fighters,
		groups:      divisions.GroupRoster(competition, fighters, cfg.AllowedDivisions),
		backfillRNG: brackets.NewRNG(fmt.Sprintf("%s-%d-backfill", cfg.DeterministicSeed, competitionID)),
		result:      result,
	}
	result.Notes = append(result.Notes, run.groups.Skipped...)
	if run.groups.Ineligible > 0 {
		result.Notes = append(result.Notes, fmt.Sprintf("%d registered fighters are outside the allowed divisions", run.groups.Ineligible))
	}

	log.Info("synthesis started",
		slog.Int("registered", run.groups.Registered),
		slog.Int("divisions", len(run.groups.Order)),
	)

	for _, key := range run.groups.Order {
		if cfg.MaxBracketsPerCompetition > 0 && result.BracketsCreated >= cfg.MaxBracketsPerCompetition {
			result.Divisions = append(result.Divisions, DivisionOutcome{
				Division:     key.String(),
				Key:          key,
				Status:       DivisionSkipped,
				Reason:       ReasonMaxBracketsReached,
				FighterCount: len(run.groups.Groups[key]),
				Messages:     []string{fmt.Sprintf("limit of %d brackets per competition reached", cfg.MaxBracketsPerCompetition)},
			})
			continue
		}

		result.BracketsAttempted++
		outcome := s.synthesizeDivisionSafely(ctx, run, key)
		if outcome.Status == DivisionCreated {
			result.BracketsCreated++
		} else {
			log.Warn("division synthesis failed",
				slog.String("division", outcome.Division),
				slog.String("reason", string(outcome.Reason)),
				slog.String("messages", strings.Join(outcome.Messages, "; ")),
			)
		}
		result.Divisions = append(result.Divisions, outcome)
	}

	result.FinishedAt = time.Now().UTC()

	if s.archiver != nil {
		url, err := s.archiver.Archive(ctx, competition, result)
		if err != nil {
			log.Error("failed to archive synthesis report", slog.Any("error", err))
		} else {
			result.ReportURL = url
		}
	}

	notify(s.notifier, competitionID, brackets.EventSynthesisCompleted, map[string]interface{}{
		"run_id":             result.RunID,
		"brackets_created":   result.BracketsCreated,
		"brackets_attempted": result.BracketsAttempted,
	})

	log.Info("synthesis finished",
		slog.Int("brackets_created", result.BracketsCreated),
		slog.Int("brackets_attempted", result.BracketsAttempted),
		slog.Duration("took", result.FinishedAt.Sub(result.StartedAt)),
	)
	return result, nil
}

// SynthesizeBatch runs several competitions concurrently. A failing
// competition is reported in its own entry and never stops the others.
func (s *synthesisService) SynthesizeBatch(ctx context.Context, competitionIDs []int, cfg SynthesisConfig) []BatchResult {
	results := make([]BatchResult, len(competitionIDs))

	g, gCtx := errgroup.WithContext(ctx)
	g.SetLimit(s.batchConcurrency)
	for i, id := range competitionIDs {
		i, id := i, id // per-iteration copy; go directive is 1.21
		g.Go(func() error {
			results[i].CompetitionID = id
			res, err := s.SynthesizeForCompetition(gCtx, id, cfg)
			if err != nil {
				s.logger.Error("batch synthesis failed for competition", slog.Int("competition_id", id), slog.Any("error", err))
				results[i].Error = err.Error()
				return nil
			}
			results[i].Result = res
			return nil
		})
	}
	_ = g.Wait()
	return results
}

func (s *synthesisService) loadRoster(ctx context.Context, competitionID int) (*models.Competition, map[int]*models.Fighter, error) {
	competition, err := s.competitionRepo.GetByID(ctx, competitionID)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to load competition %d: %w", competitionID, mapRepositoryError(err))
	}
	list, err := s.fighterRepo.GetByIDs(ctx, competition.FighterIDs())
	if err != nil {
		return nil, nil, fmt.Errorf("failed to load roster of competition %d: %w", competitionID, mapRepositoryError(err))
	}
	fighters := make(map[int]*models.Fighter, len(list))
	for _, f := range list {
		fighters[f.ID] = f
	}
	return competition, fighters, nil
}

// synthesizeDivisionSafely turns a panic inside one division into a failed
// outcome so the remaining divisions still run.
func (s *synthesisService) synthesizeDivisionSafely(ctx context.Context, run *synthesisRun, key models.DivisionKey) (outcome DivisionOutcome) {
	defer func() {
		if p := recover(); p != nil {
			s.logger.Error("panic during division synthesis",
				slog.Int("competition_id", run.competition.ID),
				slog.String("division", key.String()),
				slog.Any("panic", p),
			)
			outcome.Division = key.String()
			outcome.Key = key
			outcome.Status = DivisionFailed
			outcome.Reason = ReasonPersistenceFailed
			outcome.Messages = append(outcome.Messages, fmt.Sprintf("unexpected failure: %v", p))
		}
	}()
	return s.synthesizeDivision(ctx, run, key)
}

func (s *synthesisService) synthesizeDivision(ctx context.Context, run *synthesisRun, key models.DivisionKey) DivisionOutcome {
	cfg := run.cfg
	fighterIDs := run.groups.Groups[key]
	outcome := DivisionOutcome{
		Division:     key.String(),
		Key:          key,
		FighterCount: len(fighterIDs),
		Messages:     make([]string, 0),
	}
	fail := func(reason ReasonCode, messages ...string) DivisionOutcome {
		outcome.Status = DivisionFailed
		outcome.Reason = reason
		outcome.Messages = append(outcome.Messages, messages...)
		return outcome
	}

	if len(fighterIDs) < cfg.MinFightersPerBracket {
		short := cfg.MinFightersPerBracket - len(fighterIDs)
		if !cfg.AutoBackfillFighters {
			return fail(ReasonInsufficientFighters, fmt.Sprintf("%d of %d fighters, auto-backfill disabled", len(fighterIDs), cfg.MinFightersPerBracket))
		}
		created, err := s.backfill(ctx, run, key, short)
		if len(created) > 0 {
			ids := make([]int, len(created))
			regs := make([]models.Registration, len(created))
			for i, f := range created {
				ids[i] = f.ID
				regs[i] = models.Registration{FighterID: f.ID, Discipline: key.Discipline}
				run.fighters[f.ID] = f
			}
			run.groups.Append(key, ids...)
			fighterIDs = run.groups.Groups[key]
			outcome.FighterCount = len(fighterIDs)
			outcome.Backfilled = len(created)

			// Registrations is a full replacement, so send the whole roster.
			roster := append(append([]models.Registration{}, run.competition.Registrations...), regs...)
			if uerr := s.competitionRepo.Update(ctx, run.competition.ID, models.CompetitionPatch{Registrations: roster}); uerr != nil {
				return fail(ReasonPersistenceFailed, fmt.Sprintf("failed to register backfilled fighters: %v", uerr))
			}
			run.competition.Registrations = roster
			outcome.Messages = append(outcome.Messages, fmt.Sprintf("Backfilled %d fighters", len(created)))
		}
		if err != nil {
			if len(created) == 0 {
				return fail(ReasonInsufficientFighters, fmt.Sprintf("backfill produced no fighters: %v", err))
			}
			outcome.Messages = append(outcome.Messages, fmt.Sprintf("backfill stopped early: %v", err))
		}
	}

	generated, err := s.generator.GenerateBracket(brackets.GenerateBracketParams{
		FighterIDs:   fighterIDs,
		FighterNames: run.names(fighterIDs),
		SeedMethod:   models.SeedRandom,
		RandomSeed:   fmt.Sprintf("%s-%d-%s", cfg.DeterministicSeed, run.competition.ID, key),
		StartTime:    cfg.StartTime,
		BracketSize:  cfg.BracketSizeFor(len(fighterIDs)),
		AdvanceByes:  cfg.AdvanceByes,
	})
	if err != nil {
		return fail(ReasonValidationFailed, err.Error())
	}
	outcome.BracketSize = generated.Topology.ParticipantSlots

	report := brackets.VerifyChain(generated.Matches)
	if !report.OK {
		return fail(ReasonValidationFailed, report.Errors...)
	}

	stored, err := s.bracketRepo.Create(ctx, run.competition.ID, &models.Bracket{
		Division:   key.String(),
		FighterIDs: fighterIDs,
		SeedMethod: models.SeedRandom,
		Status:     models.BracketPublished,
	}, generated.Matches)
	if err != nil {
		return fail(ReasonPersistenceFailed, mapRepositoryError(err).Error())
	}

	outcome.Status = DivisionCreated
	outcome.BracketID = &stored.ID
	notify(s.notifier, run.competition.ID, brackets.EventBracketCreated, stored)
	return outcome
}

// backfill creates up to count fighters for the division. It returns what it
// managed to create together with the error that stopped it, if any.
func (s *synthesisService) backfill(ctx context.Context, run *synthesisRun, key models.DivisionKey, count int) ([]*models.Fighter, error) {
	if run.picker == nil {
		picker, err := s.newClubPicker(ctx, run)
		if err != nil {
			return nil, err
		}
		run.picker = picker
	}

	created := make([]*models.Fighter, 0, count)
	for i := 0; i < count; i++ {
		club := run.picker.Pick()
		if club == nil {
			return created, ErrNoClubs
		}
		f, err := s.factory.CreateForDivision(ctx, FighterSpec{
			Key:           key,
			ClubID:        club.ID,
			ReferenceDate: run.competition.Date,
		}, run.backfillRNG)
		if err != nil {
			return created, err
		}
		run.picker.Record(club.ID)
		created = append(created, f)
	}
	return created, nil
}

func (s *synthesisService) newClubPicker(ctx context.Context, run *synthesisRun) (*clubPicker, error) {
	clubs, err := s.clubRepo.GetAll(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to load clubs: %w", err)
	}
	sort.Slice(clubs, func(i, j int) bool { return clubs[i].ID < clubs[j].ID })

	var counts map[int]int
	if run.cfg.BackfillStrategy == BackfillBalanced {
		all, err := s.fighterRepo.GetAll(ctx)
		if err != nil {
			return nil, fmt.Errorf("failed to count fighters per club: %w", err)
		}
		counts = fighterCountsByClub(all)
	}
	return newClubPicker(run.cfg.BackfillStrategy, clubs, counts, run.backfillRNG), nil
}

func (r *synthesisRun) names(ids []int) map[int]string {
	names := make(map[int]string, len(ids))
	for _, id := range ids {
		if f, ok := r.fighters[id]; ok {
			names[id] = f.DisplayName()
		}
	}
	return names
}
