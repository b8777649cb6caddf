package repositories

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/Dosada05/fightclub-brackets/models"
	"github.com/lib/pq"
)

var (
	ErrCompetitionNotFound        = errors.New("competition not found")
	ErrRegistrationConflict       = errors.New("fighter is already registered for this competition")
	ErrRegistrationFighterUnknown = errors.New("registration references an unknown fighter")
)

type CompetitionRepository interface {
	GetByID(ctx context.Context, id int) (*models.Competition, error)
	ListByStatus(ctx context.Context, status models.CompetitionStatus) ([]*models.Competition, error)
	Update(ctx context.Context, id int, patch models.CompetitionPatch) error
}

type postgresCompetitionRepository struct {
	db *sql.DB
}

func NewPostgresCompetitionRepository(db *sql.DB) CompetitionRepository {
	return &postgresCompetitionRepository{db: db}
}

func (r *postgresCompetitionRepository) GetByID(ctx context.Context, id int) (*models.Competition, error) {
	c := &models.Competition{}
	err := r.db.QueryRowContext(ctx,
		`SELECT id, name, date, location, status, created_at FROM competitions WHERE id = $1`, id,
	).Scan(&c.ID, &c.Name, &c.Date, &c.Location, &c.Status, &c.CreatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrCompetitionNotFound
		}
		return nil, fmt.Errorf("failed to scan competition by id %d: %w", id, err)
	}

	regs, err := r.listRegistrations(ctx, r.db, id)
	if err != nil {
		return nil, err
	}
	c.Registrations = regs
	return c, nil
}

func (r *postgresCompetitionRepository) ListByStatus(ctx context.Context, status models.CompetitionStatus) ([]*models.Competition, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT id, name, date, location, status, created_at FROM competitions WHERE status = $1 ORDER BY date ASC, id ASC`,
		status,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to query competitions with status %s: %w", status, err)
	}
	defer rows.Close()

	competitions := make([]*models.Competition, 0)
	for rows.Next() {
		var c models.Competition
		if err := rows.Scan(&c.ID, &c.Name, &c.Date, &c.Location, &c.Status, &c.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan competition row: %w", err)
		}
		competitions = append(competitions, &c)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error during competition rows iteration: %w", err)
	}
	return competitions, nil
}

// Update applies a partial update. A non-nil Registrations replaces the roster,
// keeping the given order as registration order.
func (r *postgresCompetitionRepository) Update(ctx context.Context, id int, patch models.CompetitionPatch) error {
	return withTx(ctx, r.db, func(tx *sql.Tx) error {
		sets := make([]string, 0, 2)
		args := make([]interface{}, 0, 3)
		if patch.Name != nil {
			args = append(args, *patch.Name)
			sets = append(sets, fmt.Sprintf("name = $%d", len(args)))
		}
		if patch.Status != nil {
			args = append(args, *patch.Status)
			sets = append(sets, fmt.Sprintf("status = $%d", len(args)))
		}

		if len(sets) > 0 {
			args = append(args, id)
			query := fmt.Sprintf("UPDATE competitions SET %s WHERE id = $%d", strings.Join(sets, ", "), len(args))
			result, err := tx.ExecContext(ctx, query, args...)
			if err != nil {
				return fmt.Errorf("failed to update competition %d: %w", id, err)
			}
			if err := checkAffectedRows(result, ErrCompetitionNotFound); err != nil {
				return err
			}
		} else {
			var exists bool
			if err := tx.QueryRowContext(ctx, `SELECT EXISTS (SELECT 1 FROM competitions WHERE id = $1)`, id).Scan(&exists); err != nil {
				return fmt.Errorf("failed to check competition %d: %w", id, err)
			}
			if !exists {
				return ErrCompetitionNotFound
			}
		}

		if patch.Registrations == nil {
			return nil
		}
		if _, err := tx.ExecContext(ctx, `DELETE FROM competition_registrations WHERE competition_id = $1`, id); err != nil {
			return fmt.Errorf("failed to clear roster of competition %d: %w", id, err)
		}
		for pos, reg := range patch.Registrations {
			_, err := tx.ExecContext(ctx,
				`INSERT INTO competition_registrations (competition_id, fighter_id, discipline, position) VALUES ($1, $2, $3, $4)`,
				id, reg.FighterID, reg.Discipline, pos,
			)
			if err != nil {
				return r.handleRegistrationError(err)
			}
		}
		return nil
	})
}

func (r *postgresCompetitionRepository) listRegistrations(ctx context.Context, exec SQLExecutor, competitionID int) ([]models.Registration, error) {
	rows, err := exec.QueryContext(ctx,
		`SELECT fighter_id, discipline FROM competition_registrations WHERE competition_id = $1 ORDER BY position ASC`,
		competitionID,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to query roster of competition %d: %w", competitionID, err)
	}
	defer rows.Close()

	regs := make([]models.Registration, 0)
	for rows.Next() {
		var reg models.Registration
		if err := rows.Scan(&reg.FighterID, &reg.Discipline); err != nil {
			return nil, fmt.Errorf("failed to scan registration row: %w", err)
		}
		regs = append(regs, reg)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error during registration rows iteration: %w", err)
	}
	return regs, nil
}

func (r *postgresCompetitionRepository) handleRegistrationError(err error) error {
	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		switch pqErr.Code {
		case pqUniqueViolation:
			return ErrRegistrationConflict
		case pqForeignKeyViolation:
			if pqErr.Constraint == "competition_registrations_competition_id_fkey" {
				return ErrCompetitionNotFound
			}
			return ErrRegistrationFighterUnknown
		}
	}
	return fmt.Errorf("failed to insert registration: %w", err)
}
