package services

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/Dosada05/fightclub-brackets/models"
	"github.com/Dosada05/fightclub-brackets/repositories"
	"github.com/go-co-op/gocron/v2"
	"github.com/google/uuid"
)

// SynthesisScheduler periodically synthesizes brackets for competitions whose
// registration is closed, moving them to bracketed once they have a bracket.
// Competitions that stay empty keep only the report of their latest run.
type SynthesisScheduler struct {
	scheduler       gocron.Scheduler
	synthesis       SynthesisService
	competitionRepo repositories.CompetitionRepository
	archiver        ReportArchiver
	cfg             SynthesisConfig
	logger          *slog.Logger

	mu        sync.Mutex
	emptyRuns map[int]uuid.UUID
}

func NewSynthesisScheduler(
	interval time.Duration,
	synthesis SynthesisService,
	competitionRepo repositories.CompetitionRepository,
	archiver ReportArchiver,
	cfg SynthesisConfig,
	logger *slog.Logger,
) (*SynthesisScheduler, error) {
	if interval <= 0 {
		return nil, fmt.Errorf("%w: schedule interval must be positive", ErrInvalidSynthesisConfig)
	}
	if logger == nil {
		logger = slog.Default()
	}
	sched, err := gocron.NewScheduler()
	if err != nil {
		return nil, fmt.Errorf("failed to create scheduler: %w", err)
	}

	s := &SynthesisScheduler{
		scheduler:       sched,
		synthesis:       synthesis,
		competitionRepo: competitionRepo,
		archiver:        archiver,
		cfg:             cfg,
		logger:          logger,
		emptyRuns:       make(map[int]uuid.UUID),
	}

	_, err = sched.NewJob(
		gocron.DurationJob(interval),
		gocron.NewTask(func() {
			ctx, cancel := context.WithTimeout(context.Background(), interval)
			defer cancel()
			if _, err := s.RunOnce(ctx); err != nil {
				s.logger.Error("scheduled synthesis failed", slog.Any("error", err))
			}
		}),
		gocron.WithSingletonMode(gocron.LimitModeReschedule),
	)
	if err != nil {
		_ = sched.Shutdown()
		return nil, fmt.Errorf("failed to register synthesis job: %w", err)
	}
	return s, nil
}

func (s *SynthesisScheduler) Start() {
	s.scheduler.Start()
}

func (s *SynthesisScheduler) Shutdown() error {
	return s.scheduler.Shutdown()
}

// RunOnce synthesizes every closed competition and returns how many were moved
// to bracketed.
func (s *SynthesisScheduler) RunOnce(ctx context.Context) (int, error) {
	closed, err := s.competitionRepo.ListByStatus(ctx, models.CompetitionClosed)
	if err != nil {
		return 0, fmt.Errorf("failed to list closed competitions: %w", err)
	}
	if len(closed) == 0 {
		return 0, nil
	}

	ids := make([]int, len(closed))
	byID := make(map[int]*models.Competition, len(closed))
	for i, c := range closed {
		ids[i] = c.ID
		byID[c.ID] = c
	}

	bracketed := models.CompetitionBracketed
	moved := 0
	for _, item := range s.synthesis.SynthesizeBatch(ctx, ids, s.cfg) {
		s.rotateReport(ctx, byID[item.CompetitionID], item.Result)
		if item.Result == nil || item.Result.BracketsCreated == 0 {
			s.logger.Warn("competition left without brackets",
				slog.Int("competition_id", item.CompetitionID),
				slog.String("error", item.Error),
			)
			continue
		}
		if err := s.competitionRepo.Update(ctx, item.CompetitionID, models.CompetitionPatch{Status: &bracketed}); err != nil {
			s.logger.Error("failed to mark competition bracketed", slog.Int("competition_id", item.CompetitionID), slog.Any("error", err))
			continue
		}
		moved++
	}
	s.logger.Info("scheduled synthesis finished", slog.Int("competitions", len(ids)), slog.Int("bracketed", moved))
	return moved, nil
}

// rotateReport discards the report of the previous empty run once a newer
// report exists, and remembers the new run while the competition stays empty.
func (s *SynthesisScheduler) rotateReport(ctx context.Context, competition *models.Competition, result *SynthesisResult) {
	if s.archiver == nil || competition == nil || result == nil || result.ReportURL == "" {
		return
	}

	s.mu.Lock()
	previous, stale := s.emptyRuns[competition.ID]
	if result.BracketsCreated == 0 {
		s.emptyRuns[competition.ID] = result.RunID
	} else {
		delete(s.emptyRuns, competition.ID)
	}
	s.mu.Unlock()

	if !stale {
		return
	}
	if err := s.archiver.Discard(ctx, competition, previous); err != nil {
		s.logger.Warn("failed to discard stale synthesis report",
			slog.Int("competition_id", competition.ID),
			slog.String("run_id", previous.String()),
			slog.Any("error", err),
		)
	}
}
