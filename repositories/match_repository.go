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
	ErrMatchNotFound       = errors.New("match not found")
	ErrMatchNumberConflict = errors.New("match number already exists for this tournament")
)

type MatchRepository interface {
	CreateBatch(ctx context.Context, exec SQLExecutor, matches []*models.Match) error
	GetByID(ctx context.Context, id int) (*models.Match, error)
	GetByNumber(ctx context.Context, tournamentID, matchNumber int) (*models.Match, error)
	ListByTournament(ctx context.Context, tournamentID int, status *models.MatchStatus) ([]*models.Match, error)
	CountByTournament(ctx context.Context, tournamentID int) (int, error)
	CountIncomplete(ctx context.Context, tournamentID int) (int, error)
	UpdateResult(ctx context.Context, exec SQLExecutor, match *models.Match) error
	UpdateTeamSlot(ctx context.Context, exec SQLExecutor, tournamentID, matchNumber, slot int, team models.MatchTeam) error
	DeleteByTournament(ctx context.Context, exec SQLExecutor, tournamentID int) (int64, error)
}

type postgresMatchRepository struct {
	db *sql.DB
}

func NewPostgresMatchRepository(db *sql.DB) MatchRepository {
	return &postgresMatchRepository{db: db}
}

func (r *postgresMatchRepository) getExecutor(exec SQLExecutor) SQLExecutor {
	if exec != nil {
		return exec
	}
	return r.db
}

const matchColumns = `
	id, tournament_id, match_number, round, round_number,
	team1_player_ids, team1_player_names, team1_seed, team1_score,
	team2_player_ids, team2_player_names, team2_seed, team2_score,
	winner, status, next_match_number, next_slot,
	override_reason, override_authorized_by, override_at,
	scheduled_date, completed_date, created_at`

func scanMatch(scanner interface{ Scan(...interface{}) error }) (*models.Match, error) {
	m := &models.Match{}
	var t1IDs, t2IDs pq.Int64Array
	var t1Names, t2Names pq.StringArray
	var winner sql.NullString
	var overrideReason, overrideBy sql.NullString
	var overrideAt sql.NullTime

	err := scanner.Scan(
		&m.ID, &m.TournamentID, &m.MatchNumber, &m.Round, &m.RoundNumber,
		&t1IDs, &t1Names, &m.Team1.Seed, &m.Team1.Score,
		&t2IDs, &t2Names, &m.Team2.Seed, &m.Team2.Score,
		&winner, &m.Status, &m.NextMatchNumber, &m.NextSlot,
		&overrideReason, &overrideBy, &overrideAt,
		&m.ScheduledDate, &m.CompletedDate, &m.CreatedAt,
	)
	if err != nil {
		return nil, err
	}

	m.Team1.PlayerIDs = int64ArrayToInts(t1IDs)
	m.Team1.PlayerNames = t1Names
	m.Team2.PlayerIDs = int64ArrayToInts(t2IDs)
	m.Team2.PlayerNames = t2Names

	if winner.Valid {
		w := models.MatchWinner(winner.String)
		m.Winner = &w
	}
	if overrideReason.Valid && overrideBy.Valid {
		m.AdminOverride = &models.AdminOverride{
			Reason:       overrideReason.String,
			AuthorizedBy: overrideBy.String,
			Timestamp:    overrideAt.Time,
		}
	}
	return m, nil
}

func (r *postgresMatchRepository) CreateBatch(ctx context.Context, exec SQLExecutor, matches []*models.Match) error {
	executor := r.getExecutor(exec)
	query := `
		INSERT INTO matches (
			tournament_id, match_number, round, round_number,
			team1_player_ids, team1_player_names, team1_seed, team1_score,
			team2_player_ids, team2_player_names, team2_seed, team2_score,
			status, next_match_number, next_slot, scheduled_date
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16)
		RETURNING id, created_at`

	for _, m := range matches {
		err := executor.QueryRowContext(ctx, query,
			m.TournamentID, m.MatchNumber, m.Round, m.RoundNumber,
			intsToInt64Array(m.Team1.PlayerIDs), pq.StringArray(m.Team1.PlayerNames), m.Team1.Seed, m.Team1.Score,
			intsToInt64Array(m.Team2.PlayerIDs), pq.StringArray(m.Team2.PlayerNames), m.Team2.Seed, m.Team2.Score,
			m.Status, m.NextMatchNumber, m.NextSlot, m.ScheduledDate,
		).Scan(&m.ID, &m.CreatedAt)
		if err != nil {
			return r.handleMatchError(fmt.Errorf("failed to insert match %d: %w", m.MatchNumber, err))
		}
	}
	return nil
}

func (r *postgresMatchRepository) GetByID(ctx context.Context, id int) (*models.Match, error) {
	query := `SELECT` + matchColumns + ` FROM matches WHERE id = $1`

	m, err := scanMatch(r.db.QueryRowContext(ctx, query, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrMatchNotFound
		}
		return nil, err
	}
	return m, nil
}

func (r *postgresMatchRepository) GetByNumber(ctx context.Context, tournamentID, matchNumber int) (*models.Match, error) {
	query := `SELECT` + matchColumns + ` FROM matches WHERE tournament_id = $1 AND match_number = $2`

	m, err := scanMatch(r.db.QueryRowContext(ctx, query, tournamentID, matchNumber))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrMatchNotFound
		}
		return nil, err
	}
	return m, nil
}

func (r *postgresMatchRepository) ListByTournament(ctx context.Context, tournamentID int, status *models.MatchStatus) ([]*models.Match, error) {
	query := `SELECT` + matchColumns + ` FROM matches WHERE tournament_id = $1`
	args := []interface{}{tournamentID}

	if status != nil {
		query += ` AND status = $2`
		args = append(args, *status)
	}
	query += ` ORDER BY match_number ASC`

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	matches := make([]*models.Match, 0)
	for rows.Next() {
		m, scanErr := scanMatch(rows)
		if scanErr != nil {
			return nil, scanErr
		}
		matches = append(matches, m)
	}
	return matches, rows.Err()
}

func (r *postgresMatchRepository) CountByTournament(ctx context.Context, tournamentID int) (int, error) {
	var count int
	query := `SELECT COUNT(*) FROM matches WHERE tournament_id = $1`
	err := r.db.QueryRowContext(ctx, query, tournamentID).Scan(&count)
	return count, err
}

func (r *postgresMatchRepository) CountIncomplete(ctx context.Context, tournamentID int) (int, error) {
	var count int
	query := `
		SELECT COUNT(*) FROM matches
		WHERE tournament_id = $1 AND status NOT IN ($2, $3)`
	err := r.db.QueryRowContext(ctx, query, tournamentID,
		models.MatchStatusCompleted, models.MatchStatusCancelled).Scan(&count)
	return count, err
}

func (r *postgresMatchRepository) UpdateResult(ctx context.Context, exec SQLExecutor, m *models.Match) error {
	executor := r.getExecutor(exec)
	query := `
		UPDATE matches SET
			team1_score = $1,
			team2_score = $2,
			winner = $3,
			status = $4,
			override_reason = $5,
			override_authorized_by = $6,
			override_at = $7,
			completed_date = $8
		WHERE id = $9`

	var winner *string
	if m.Winner != nil {
		w := string(*m.Winner)
		winner = &w
	}
	var overrideReason, overrideBy *string
	var overrideAt interface{}
	if m.AdminOverride != nil {
		overrideReason = &m.AdminOverride.Reason
		overrideBy = &m.AdminOverride.AuthorizedBy
		overrideAt = m.AdminOverride.Timestamp
	}

	result, err := executor.ExecContext(ctx, query,
		m.Team1.Score, m.Team2.Score, winner, m.Status,
		overrideReason, overrideBy, overrideAt, m.CompletedDate, m.ID,
	)
	if err != nil {
		return err
	}
	return checkAffectedRows(result, ErrMatchNotFound)
}

// UpdateTeamSlot fills one side of a downstream match with the advancing team.
func (r *postgresMatchRepository) UpdateTeamSlot(ctx context.Context, exec SQLExecutor, tournamentID, matchNumber, slot int, team models.MatchTeam) error {
	executor := r.getExecutor(exec)

	var query string
	switch slot {
	case 1:
		query = `
			UPDATE matches SET team1_player_ids = $1, team1_player_names = $2, team1_seed = $3
			WHERE tournament_id = $4 AND match_number = $5`
	case 2:
		query = `
			UPDATE matches SET team2_player_ids = $1, team2_player_names = $2, team2_seed = $3
			WHERE tournament_id = $4 AND match_number = $5`
	default:
		return fmt.Errorf("invalid team slot %d", slot)
	}

	result, err := executor.ExecContext(ctx, query,
		intsToInt64Array(team.PlayerIDs), pq.StringArray(team.PlayerNames), team.Seed,
		tournamentID, matchNumber,
	)
	if err != nil {
		return err
	}
	return checkAffectedRows(result, ErrMatchNotFound)
}

func (r *postgresMatchRepository) DeleteByTournament(ctx context.Context, exec SQLExecutor, tournamentID int) (int64, error) {
	executor := r.getExecutor(exec)
	result, err := executor.ExecContext(ctx, `DELETE FROM matches WHERE tournament_id = $1`, tournamentID)
	if err != nil {
		return 0, err
	}
	return result.RowsAffected()
}

func (r *postgresMatchRepository) handleMatchError(err error) error {
	var pqErr *pq.Error
	if errors.As(err, &pqErr) && pqErr.Code == "23505" {
		return ErrMatchNumberConflict
	}
	return err
}
