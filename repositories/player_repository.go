package repositories

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/bracket-of-death/backend/models"
	"github.com/lib/pq"
)

var (
	ErrPlayerNotFound     = errors.New("player not found")
	ErrPlayerNameConflict = errors.New("player name already exists")
	ErrPlayerInUse        = errors.New("player is referenced by tournament results")
)

type ListPlayersFilter struct {
	IsActive *bool
	Gender   *models.Gender
	Limit    int
	Offset   int
}

// LeaderboardRow is one line of the career leaderboard aggregate.
type LeaderboardRow struct {
	PlayerID           int     `json:"player_id"`
	Name               string  `json:"name"`
	BodsPlayed         int     `json:"bods_played"`
	WinningPercentage  float64 `json:"winning_percentage"`
	TotalChampionships int     `json:"total_championships"`
	BestResult         float64 `json:"best_result"`
	AvgFinish          float64 `json:"avg_finish"`
}

type PlayerRepository interface {
	Create(ctx context.Context, player *models.Player) error
	GetByID(ctx context.Context, id int) (*models.Player, error)
	GetByIDs(ctx context.Context, ids []int) ([]*models.Player, error)
	List(ctx context.Context, filter ListPlayersFilter) ([]models.Player, error)
	Update(ctx context.Context, player *models.Player) error
	UpdateStats(ctx context.Context, exec SQLExecutor, playerID int, stats models.PlayerStatsSnapshot) error
	Leaderboard(ctx context.Context, minBodsPlayed, limit int) ([]LeaderboardRow, error)
	Delete(ctx context.Context, id int) error
}

type postgresPlayerRepository struct {
	db *sql.DB
}

func NewPostgresPlayerRepository(db *sql.DB) PlayerRepository {
	return &postgresPlayerRepository{db: db}
}

func (r *postgresPlayerRepository) getExecutor(exec SQLExecutor) SQLExecutor {
	if exec != nil {
		return exec
	}
	return r.db
}

const playerColumns = `
	id, name, email, gender, bracket_preference, is_active,
	bods_played, best_result, avg_finish, games_played, games_won,
	winning_percentage, individual_championships, division_championships,
	total_championships, created_at`

func scanPlayer(scanner interface{ Scan(...interface{}) error }) (*models.Player, error) {
	p := &models.Player{}
	err := scanner.Scan(
		&p.ID, &p.Name, &p.Email, &p.Gender, &p.BracketPreference, &p.IsActive,
		&p.BodsPlayed, &p.BestResult, &p.AvgFinish, &p.GamesPlayed, &p.GamesWon,
		&p.WinningPercentage, &p.IndividualChampionships, &p.DivisionChampionships,
		&p.TotalChampionships, &p.CreatedAt,
	)
	if err != nil {
		return nil, err
	}
	return p, nil
}

func (r *postgresPlayerRepository) Create(ctx context.Context, p *models.Player) error {
	query := `
		INSERT INTO players (name, email, gender, bracket_preference, is_active)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING id, created_at`

	err := r.db.QueryRowContext(ctx, query,
		p.Name, p.Email, p.Gender, p.BracketPreference, p.IsActive,
	).Scan(&p.ID, &p.CreatedAt)

	return r.handlePlayerError(err)
}

func (r *postgresPlayerRepository) GetByID(ctx context.Context, id int) (*models.Player, error) {
	query := `SELECT` + playerColumns + ` FROM players WHERE id = $1`

	p, err := scanPlayer(r.db.QueryRowContext(ctx, query, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrPlayerNotFound
		}
		return nil, err
	}
	return p, nil
}

// GetByIDs returns the players for the given ids in no particular order.
// Callers needing input order (seeding) re-index by id.
func (r *postgresPlayerRepository) GetByIDs(ctx context.Context, ids []int) ([]*models.Player, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	query := `SELECT` + playerColumns + ` FROM players WHERE id = ANY($1)`

	rows, err := r.db.QueryContext(ctx, query, pq.Array(ids))
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	players := make([]*models.Player, 0, len(ids))
	for rows.Next() {
		p, scanErr := scanPlayer(rows)
		if scanErr != nil {
			return nil, scanErr
		}
		players = append(players, p)
	}
	return players, rows.Err()
}

func (r *postgresPlayerRepository) List(ctx context.Context, filter ListPlayersFilter) ([]models.Player, error) {
	query := `SELECT` + playerColumns + ` FROM players WHERE 1=1`

	args := []interface{}{}
	argID := 1

	if filter.IsActive != nil {
		query += fmt.Sprintf(" AND is_active = $%d", argID)
		args = append(args, *filter.IsActive)
		argID++
	}
	if filter.Gender != nil {
		query += fmt.Sprintf(" AND gender = $%d", argID)
		args = append(args, *filter.Gender)
		argID++
	}

	query += " ORDER BY name ASC"

	if filter.Limit > 0 {
		query += fmt.Sprintf(" LIMIT $%d", argID)
		args = append(args, filter.Limit)
		argID++
	}
	if filter.Offset > 0 {
		query += fmt.Sprintf(" OFFSET $%d", argID)
		args = append(args, filter.Offset)
	}

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	players := make([]models.Player, 0)
	for rows.Next() {
		p, scanErr := scanPlayer(rows)
		if scanErr != nil {
			return nil, scanErr
		}
		players = append(players, *p)
	}
	return players, rows.Err()
}

func (r *postgresPlayerRepository) Update(ctx context.Context, p *models.Player) error {
	query := `
		UPDATE players SET
			name = $1,
			email = $2,
			gender = $3,
			bracket_preference = $4,
			is_active = $5
		WHERE id = $6`

	result, err := r.db.ExecContext(ctx, query,
		p.Name, p.Email, p.Gender, p.BracketPreference, p.IsActive, p.ID,
	)
	if err != nil {
		return r.handlePlayerError(err)
	}
	return checkAffectedRows(result, ErrPlayerNotFound)
}

// UpdateStats overwrites the full career snapshot; statistical fields on a
// player are never patched individually.
func (r *postgresPlayerRepository) UpdateStats(ctx context.Context, exec SQLExecutor, playerID int, stats models.PlayerStatsSnapshot) error {
	executor := r.getExecutor(exec)
	query := `
		UPDATE players SET
			bods_played = $1,
			best_result = $2,
			avg_finish = $3,
			games_played = $4,
			games_won = $5,
			winning_percentage = $6,
			individual_championships = $7,
			division_championships = $8,
			total_championships = $9
		WHERE id = $10`

	result, err := executor.ExecContext(ctx, query,
		stats.BodsPlayed, stats.BestResult, stats.AvgFinish,
		stats.GamesPlayed, stats.GamesWon, stats.WinningPercentage,
		stats.IndividualChampionships, stats.DivisionChampionships,
		stats.TotalChampionships, playerID,
	)
	if err != nil {
		return err
	}
	return checkAffectedRows(result, ErrPlayerNotFound)
}

func (r *postgresPlayerRepository) Leaderboard(ctx context.Context, minBodsPlayed, limit int) ([]LeaderboardRow, error) {
	query := `
		SELECT id, name, bods_played, winning_percentage, total_championships, best_result, avg_finish
		FROM players
		WHERE is_active = TRUE AND bods_played >= $1
		ORDER BY winning_percentage DESC, total_championships DESC, avg_finish ASC
		LIMIT $2`

	rows, err := r.db.QueryContext(ctx, query, minBodsPlayed, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	leaderboard := make([]LeaderboardRow, 0)
	for rows.Next() {
		var row LeaderboardRow
		if scanErr := rows.Scan(
			&row.PlayerID, &row.Name, &row.BodsPlayed, &row.WinningPercentage,
			&row.TotalChampionships, &row.BestResult, &row.AvgFinish,
		); scanErr != nil {
			return nil, scanErr
		}
		leaderboard = append(leaderboard, row)
	}
	return leaderboard, rows.Err()
}

func (r *postgresPlayerRepository) Delete(ctx context.Context, id int) error {
	query := `DELETE FROM players WHERE id = $1`
	result, err := r.db.ExecContext(ctx, query, id)
	if err != nil {
		return r.handlePlayerError(err)
	}
	return checkAffectedRows(result, ErrPlayerNotFound)
}

func (r *postgresPlayerRepository) handlePlayerError(err error) error {
	if err == nil {
		return nil
	}
	if pqErr, ok := err.(*pq.Error); ok {
		switch pqErr.Code {
		case "23505":
			return ErrPlayerNameConflict
		case "23503":
			return ErrPlayerInUse
		}
	}
	return err
}
