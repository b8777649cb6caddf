package repositories

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/Dosada05/fightclub-brackets/models"
	"github.com/lib/pq"
)

var (
	ErrFighterNotFound    = errors.New("fighter not found")
	ErrFighterClubInvalid = errors.New("fighter club reference is invalid")
)

type FighterRepository interface {
	GetAll(ctx context.Context) ([]*models.Fighter, error)
	GetByIDs(ctx context.Context, ids []int) ([]*models.Fighter, error)
	Create(ctx context.Context, fighter *models.Fighter) error
}

type postgresFighterRepository struct {
	db *sql.DB
}

func NewPostgresFighterRepository(db *sql.DB) FighterRepository {
	return &postgresFighterRepository{db: db}
}

const fighterColumns = `id, first_name, last_name, birth_date, discipline, weight_kg, gender, club_id, created_at`

func (r *postgresFighterRepository) GetAll(ctx context.Context) ([]*models.Fighter, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT `+fighterColumns+` FROM fighters ORDER BY id ASC`)
	if err != nil {
		return nil, fmt.Errorf("failed to query fighters: %w", err)
	}
	return scanFighters(rows)
}

func (r *postgresFighterRepository) GetByIDs(ctx context.Context, ids []int) ([]*models.Fighter, error) {
	if len(ids) == 0 {
		return []*models.Fighter{}, nil
	}
	ids64 := make([]int64, len(ids))
	for i, id := range ids {
		ids64[i] = int64(id)
	}
	rows, err := r.db.QueryContext(ctx,
		`SELECT `+fighterColumns+` FROM fighters WHERE id = ANY($1) ORDER BY id ASC`,
		pq.Array(ids64),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to query fighters by ids: %w", err)
	}
	return scanFighters(rows)
}

func (r *postgresFighterRepository) Create(ctx context.Context, f *models.Fighter) error {
	query := `
		INSERT INTO fighters (first_name, last_name, birth_date, discipline, weight_kg, gender, club_id)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING id, created_at`

	err := r.db.QueryRowContext(ctx, query,
		f.FirstName, f.LastName, f.BirthDate, f.Discipline, f.WeightKg, f.Gender, f.ClubID,
	).Scan(&f.ID, &f.CreatedAt)

	return mapConstraintError(err, map[string]error{
		"fighters_club_id_fkey": ErrFighterClubInvalid,
	})
}

func scanFighters(rows *sql.Rows) ([]*models.Fighter, error) {
	defer rows.Close()

	fighters := make([]*models.Fighter, 0)
	for rows.Next() {
		var f models.Fighter
		if err := rows.Scan(
			&f.ID, &f.FirstName, &f.LastName, &f.BirthDate, &f.Discipline,
			&f.WeightKg, &f.Gender, &f.ClubID, &f.CreatedAt,
		); err != nil {
			return nil, fmt.Errorf("failed to scan fighter row: %w", err)
		}
		fighters = append(fighters, &f)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error during fighter rows iteration: %w", err)
	}
	return fighters, nil
}
