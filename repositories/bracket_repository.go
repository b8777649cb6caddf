package repositories

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/Dosada05/fightclub-brackets/models"
	"github.com/lib/pq"
)

var (
	ErrBracketNotFound         = errors.New("bracket not found")
	ErrBracketDivisionConflict = errors.New("competition already has a bracket for this division")
	ErrBracketCompetitionFK    = errors.New("bracket references an unknown competition")
)

type BracketRepository interface {
	// Create stores the bracket and its matches atomically and returns the
	// stored bracket with ids and matches filled in.
	Create(ctx context.Context, competitionID int, bracket *models.Bracket, matches []models.Match) (*models.Bracket, error)
	ListByCompetition(ctx context.Context, competitionID int) ([]*models.Bracket, error)
	GetMatches(ctx context.Context, competitionID, bracketID int) ([]models.Match, error)
	Delete(ctx context.Context, competitionID, bracketID int) error
	// Replace swaps bracketID for a new bracket atomically.
	Replace(ctx context.Context, competitionID, bracketID int, bracket *models.Bracket, matches []models.Match) (*models.Bracket, error)
}

type postgresBracketRepository struct {
	db *sql.DB
}

func NewPostgresBracketRepository(db *sql.DB) BracketRepository {
	return &postgresBracketRepository{db: db}
}

func (r *postgresBracketRepository) Create(ctx context.Context, competitionID int, bracket *models.Bracket, matches []models.Match) (*models.Bracket, error) {
	var stored *models.Bracket
	err := withTx(ctx, r.db, func(tx *sql.Tx) error {
		var err error
		stored, err = r.insertBracket(ctx, tx, competitionID, bracket, matches)
		return err
	})
	if err != nil {
		return nil, err
	}
	return stored, nil
}

// Replace deletes bracketID and stores bracket in its place in one
// transaction. On any error the old bracket stays as it was.
func (r *postgresBracketRepository) Replace(ctx context.Context, competitionID, bracketID int, bracket *models.Bracket, matches []models.Match) (*models.Bracket, error) {
	var stored *models.Bracket
	err := withTx(ctx, r.db, func(tx *sql.Tx) error {
		result, err := tx.ExecContext(ctx,
			`DELETE FROM brackets WHERE id = $1 AND competition_id = $2`, bracketID, competitionID)
		if err != nil {
			return fmt.Errorf("failed to delete bracket %d: %w", bracketID, err)
		}
		if err := checkAffectedRows(result, ErrBracketNotFound); err != nil {
			return err
		}
		stored, err = r.insertBracket(ctx, tx, competitionID, bracket, matches)
		return err
	})
	if err != nil {
		return nil, err
	}
	return stored, nil
}

func (r *postgresBracketRepository) insertBracket(ctx context.Context, exec SQLExecutor, competitionID int, bracket *models.Bracket, matches []models.Match) (*models.Bracket, error) {
	stored := *bracket
	stored.CompetitionID = competitionID

	ids := make([]int64, len(stored.FighterIDs))
	for i, id := range stored.FighterIDs {
		ids[i] = int64(id)
	}
	err := exec.QueryRowContext(ctx, `
		INSERT INTO brackets (competition_id, division, fighter_ids, seed_method, status)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING id, created_at`,
		competitionID, stored.Division, pq.Array(ids), stored.SeedMethod, stored.Status,
	).Scan(&stored.ID, &stored.CreatedAt)
	if err != nil {
		return nil, r.handleBracketError(err)
	}

	stored.Matches = make([]models.Match, 0, len(matches))
	for _, m := range matches {
		m.BracketID = stored.ID
		if err := insertMatch(ctx, exec, m); err != nil {
			return nil, err
		}
		stored.Matches = append(stored.Matches, m)
	}
	return &stored, nil
}

func insertMatch(ctx context.Context, exec SQLExecutor, m models.Match) error {
	participants, err := json.Marshal(m.Participants)
	if err != nil {
		return fmt.Errorf("failed to encode participants of match %d: %w", m.ID, err)
	}
	_, err = exec.ExecContext(ctx, `
		INSERT INTO matches (bracket_id, id, name, round, next_match_id, participants, state, start_time)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`,
		m.BracketID, m.ID, m.Name, m.Round, m.NextMatchID, participants, m.State, m.StartTime,
	)
	if err != nil {
		return fmt.Errorf("failed to insert match %d of bracket %d: %w", m.ID, m.BracketID, err)
	}
	return nil
}

func (r *postgresBracketRepository) ListByCompetition(ctx context.Context, competitionID int) ([]*models.Bracket, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT id, competition_id, division, fighter_ids, seed_method, status, created_at
		FROM brackets WHERE competition_id = $1 ORDER BY id ASC`,
		competitionID,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to query brackets of competition %d: %w", competitionID, err)
	}
	defer rows.Close()

	brackets := make([]*models.Bracket, 0)
	for rows.Next() {
		var (
			b   models.Bracket
			ids pq.Int64Array
		)
		if err := rows.Scan(&b.ID, &b.CompetitionID, &b.Division, &ids, &b.SeedMethod, &b.Status, &b.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan bracket row: %w", err)
		}
		b.FighterIDs = make([]int, len(ids))
		for i, id := range ids {
			b.FighterIDs[i] = int(id)
		}
		brackets = append(brackets, &b)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error during bracket rows iteration: %w", err)
	}
	return brackets, nil
}

func (r *postgresBracketRepository) GetMatches(ctx context.Context, competitionID, bracketID int) ([]models.Match, error) {
	if err := r.ensureBracket(ctx, competitionID, bracketID); err != nil {
		return nil, err
	}

	rows, err := r.db.QueryContext(ctx, `
		SELECT bracket_id, id, name, round, next_match_id, participants, state, start_time
		FROM matches WHERE bracket_id = $1 ORDER BY id ASC`,
		bracketID,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to query matches of bracket %d: %w", bracketID, err)
	}
	defer rows.Close()

	matches := make([]models.Match, 0)
	for rows.Next() {
		var (
			m            models.Match
			next         sql.NullInt64
			participants []byte
			start        sql.NullTime
		)
		if err := rows.Scan(&m.BracketID, &m.ID, &m.Name, &m.Round, &next, &participants, &m.State, &start); err != nil {
			return nil, fmt.Errorf("failed to scan match row: %w", err)
		}
		if next.Valid {
			n := int(next.Int64)
			m.NextMatchID = &n
		}
		if start.Valid {
			t := start.Time
			m.StartTime = &t
		}
		if err := json.Unmarshal(participants, &m.Participants); err != nil {
			return nil, fmt.Errorf("failed to decode participants of match %d: %w", m.ID, err)
		}
		matches = append(matches, m)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error during match rows iteration: %w", err)
	}
	return matches, nil
}

// Delete removes the bracket; its matches go with it through ON DELETE CASCADE.
func (r *postgresBracketRepository) Delete(ctx context.Context, competitionID, bracketID int) error {
	result, err := r.db.ExecContext(ctx,
		`DELETE FROM brackets WHERE id = $1 AND competition_id = $2`, bracketID, competitionID)
	if err != nil {
		return fmt.Errorf("failed to delete bracket %d: %w", bracketID, err)
	}
	return checkAffectedRows(result, ErrBracketNotFound)
}

func (r *postgresBracketRepository) ensureBracket(ctx context.Context, competitionID, bracketID int) error {
	var exists bool
	err := r.db.QueryRowContext(ctx,
		`SELECT EXISTS (SELECT 1 FROM brackets WHERE id = $1 AND competition_id = $2)`,
		bracketID, competitionID,
	).Scan(&exists)
	if err != nil {
		return fmt.Errorf("failed to check bracket %d: %w", bracketID, err)
	}
	if !exists {
		return ErrBracketNotFound
	}
	return nil
}

func (r *postgresBracketRepository) handleBracketError(err error) error {
	var pqErr *pq.Error
	if errors.As(err, &pqErr) && pqErr.Code == pqUniqueViolation {
		return ErrBracketDivisionConflict
	}
	return mapConstraintError(err, map[string]error{
		"brackets_competition_id_fkey": ErrBracketCompetitionFK,
	})
}
