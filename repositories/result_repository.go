package repositories

import (
	"context"
	"database/sql"
	"errors"

	"github.com/bracket-of-death/backend/models"
	"github.com/lib/pq"
)

var (
	ErrResultNotFound = errors.New("tournament result not found")
	ErrResultConflict = errors.New("result already exists for this player set")
)

type ResultRepository interface {
	Create(ctx context.Context, exec SQLExecutor, result *models.TournamentResult) error
	GetByID(ctx context.Context, id int) (*models.TournamentResult, error)
	// FindByPlayerSet looks up the result keyed by the canonical sorted
	// player-id set. Returns (nil, nil) when no result exists yet.
	FindByPlayerSet(ctx context.Context, exec SQLExecutor, tournamentID int, playerIDs []int) (*models.TournamentResult, error)
	ListByTournament(ctx context.Context, tournamentID int) ([]*models.TournamentResult, error)
	Update(ctx context.Context, exec SQLExecutor, result *models.TournamentResult) error
	// AggregatePlayerStats folds every result the player appears in into a
	// career snapshot. Placements come from bod_finish, falling back to
	// final_rank; rows with neither contribute to games but not finishes.
	AggregatePlayerStats(ctx context.Context, playerID int) (*models.PlayerStatsSnapshot, error)
	DistinctPlayerIDsByTournament(ctx context.Context, tournamentID int) ([]int, error)
	DeleteByTournament(ctx context.Context, exec SQLExecutor, tournamentID int) (int64, error)
}

type postgresResultRepository struct {
	db *sql.DB
}

func NewPostgresResultRepository(db *sql.DB) ResultRepository {
	return &postgresResultRepository{db: db}
}

func (r *postgresResultRepository) getExecutor(exec SQLExecutor) SQLExecutor {
	if exec != nil {
		return exec
	}
	return r.db
}

const resultColumns = `
	id, tournament_id, player_ids, division, seed,
	rr_won, rr_lost, rr_played, rr_win_percentage, rr_rank,
	bracket_won, bracket_lost, bracket_played,
	total_won, total_lost, total_played, win_percentage,
	final_rank, bod_finish, created_at, updated_at`

func scanResult(scanner interface{ Scan(...interface{}) error }) (*models.TournamentResult, error) {
	res := &models.TournamentResult{}
	var ids pq.Int64Array
	var rrWon, rrLost, rrPlayed, rrRank sql.NullInt64
	var rrWinPct sql.NullFloat64

	err := scanner.Scan(
		&res.ID, &res.TournamentID, &ids, &res.Division, &res.Seed,
		&rrWon, &rrLost, &rrPlayed, &rrWinPct, &rrRank,
		&res.BracketScores.BracketWon, &res.BracketScores.BracketLost, &res.BracketScores.BracketPlayed,
		&res.TotalStats.TotalWon, &res.TotalStats.TotalLost, &res.TotalStats.TotalPlayed, &res.TotalStats.WinPercentage,
		&res.TotalStats.FinalRank, &res.TotalStats.BodFinish,
		&res.CreatedAt, &res.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	res.PlayerIDs = int64ArrayToInts(ids)
	if rrPlayed.Valid {
		res.RoundRobinScores = &models.RoundRobinScores{
			RRWon:           int(rrWon.Int64),
			RRLost:          int(rrLost.Int64),
			RRPlayed:        int(rrPlayed.Int64),
			RRWinPercentage: rrWinPct.Float64,
			RRRank:          int(rrRank.Int64),
		}
	}
	return res, nil
}

func (r *postgresResultRepository) Create(ctx context.Context, exec SQLExecutor, res *models.TournamentResult) error {
	executor := r.getExecutor(exec)
	query := `
		INSERT INTO tournament_results (
			tournament_id, player_ids, division, seed,
			rr_won, rr_lost, rr_played, rr_win_percentage, rr_rank,
			bracket_won, bracket_lost, bracket_played,
			total_won, total_lost, total_played, win_percentage,
			final_rank, bod_finish
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17, $18)
		RETURNING id, created_at, updated_at`

	var rrWon, rrLost, rrPlayed, rrRank interface{}
	var rrWinPct interface{}
	if res.RoundRobinScores != nil {
		rrWon = res.RoundRobinScores.RRWon
		rrLost = res.RoundRobinScores.RRLost
		rrPlayed = res.RoundRobinScores.RRPlayed
		rrWinPct = res.RoundRobinScores.RRWinPercentage
		rrRank = res.RoundRobinScores.RRRank
	}

	err := executor.QueryRowContext(ctx, query,
		res.TournamentID, intsToInt64Array(models.CanonicalPlayerSet(res.PlayerIDs)), res.Division, res.Seed,
		rrWon, rrLost, rrPlayed, rrWinPct, rrRank,
		res.BracketScores.BracketWon, res.BracketScores.BracketLost, res.BracketScores.BracketPlayed,
		res.TotalStats.TotalWon, res.TotalStats.TotalLost, res.TotalStats.TotalPlayed, res.TotalStats.WinPercentage,
		res.TotalStats.FinalRank, res.TotalStats.BodFinish,
	).Scan(&res.ID, &res.CreatedAt, &res.UpdatedAt)
	if err != nil {
		return r.handleResultError(err)
	}
	return nil
}

func (r *postgresResultRepository) GetByID(ctx context.Context, id int) (*models.TournamentResult, error) {
	query := `SELECT` + resultColumns + ` FROM tournament_results WHERE id = $1`

	res, err := scanResult(r.db.QueryRowContext(ctx, query, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrResultNotFound
		}
		return nil, err
	}
	return res, nil
}

func (r *postgresResultRepository) FindByPlayerSet(ctx context.Context, exec SQLExecutor, tournamentID int, playerIDs []int) (*models.TournamentResult, error) {
	executor := r.getExecutor(exec)
	query := `SELECT` + resultColumns + ` FROM tournament_results WHERE tournament_id = $1 AND player_ids = $2`

	canonical := intsToInt64Array(models.CanonicalPlayerSet(playerIDs))
	res, err := scanResult(executor.QueryRowContext(ctx, query, tournamentID, canonical))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	return res, nil
}

func (r *postgresResultRepository) ListByTournament(ctx context.Context, tournamentID int) ([]*models.TournamentResult, error) {
	query := `SELECT` + resultColumns + ` FROM tournament_results WHERE tournament_id = $1 ORDER BY seed ASC, id ASC`

	rows, err := r.db.QueryContext(ctx, query, tournamentID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	results := make([]*models.TournamentResult, 0)
	for rows.Next() {
		res, scanErr := scanResult(rows)
		if scanErr != nil {
			return nil, scanErr
		}
		results = append(results, res)
	}
	return results, rows.Err()
}

func (r *postgresResultRepository) Update(ctx context.Context, exec SQLExecutor, res *models.TournamentResult) error {
	executor := r.getExecutor(exec)
	query := `
		UPDATE tournament_results SET
			seed = $1,
			rr_won = $2, rr_lost = $3, rr_played = $4, rr_win_percentage = $5, rr_rank = $6,
			bracket_won = $7, bracket_lost = $8, bracket_played = $9,
			total_won = $10, total_lost = $11, total_played = $12, win_percentage = $13,
			final_rank = $14, bod_finish = $15,
			updated_at = NOW()
		WHERE id = $16`

	var rrWon, rrLost, rrPlayed, rrRank interface{}
	var rrWinPct interface{}
	if res.RoundRobinScores != nil {
		rrWon = res.RoundRobinScores.RRWon
		rrLost = res.RoundRobinScores.RRLost
		rrPlayed = res.RoundRobinScores.RRPlayed
		rrWinPct = res.RoundRobinScores.RRWinPercentage
		rrRank = res.RoundRobinScores.RRRank
	}

	result, err := executor.ExecContext(ctx, query,
		res.Seed,
		rrWon, rrLost, rrPlayed, rrWinPct, rrRank,
		res.BracketScores.BracketWon, res.BracketScores.BracketLost, res.BracketScores.BracketPlayed,
		res.TotalStats.TotalWon, res.TotalStats.TotalLost, res.TotalStats.TotalPlayed, res.TotalStats.WinPercentage,
		res.TotalStats.FinalRank, res.TotalStats.BodFinish,
		res.ID,
	)
	if err != nil {
		return err
	}
	return checkAffectedRows(result, ErrResultNotFound)
}

func (r *postgresResultRepository) AggregatePlayerStats(ctx context.Context, playerID int) (*models.PlayerStatsSnapshot, error) {
	query := `
		SELECT
			COUNT(DISTINCT tr.tournament_id) AS bods_played,
			COALESCE(SUM(tr.total_played), 0) AS games_played,
			COALESCE(SUM(tr.total_won), 0) AS games_won,
			COALESCE(MIN(COALESCE(tr.bod_finish, tr.final_rank)), 0) AS best_result,
			COALESCE(AVG(COALESCE(tr.bod_finish, tr.final_rank)), 0) AS avg_finish,
			COALESCE(SUM(CASE WHEN COALESCE(tr.bod_finish, tr.final_rank) = 1 AND t.format IN ('M', 'W') THEN 1 ELSE 0 END), 0) AS division_championships,
			COALESCE(SUM(CASE WHEN COALESCE(tr.bod_finish, tr.final_rank) = 1 AND t.format NOT IN ('M', 'W') THEN 1 ELSE 0 END), 0) AS individual_championships
		FROM tournament_results tr
		JOIN tournaments t ON t.id = tr.tournament_id
		WHERE $1 = ANY(tr.player_ids)`

	snapshot := &models.PlayerStatsSnapshot{}
	err := r.db.QueryRowContext(ctx, query, playerID).Scan(
		&snapshot.BodsPlayed,
		&snapshot.GamesPlayed,
		&snapshot.GamesWon,
		&snapshot.BestResult,
		&snapshot.AvgFinish,
		&snapshot.DivisionChampionships,
		&snapshot.IndividualChampionships,
	)
	if err != nil {
		return nil, err
	}
	snapshot.Normalize()
	return snapshot, nil
}

func (r *postgresResultRepository) DistinctPlayerIDsByTournament(ctx context.Context, tournamentID int) ([]int, error) {
	query := `
		SELECT DISTINCT unnest(player_ids)
		FROM tournament_results
		WHERE tournament_id = $1
		ORDER BY 1`

	rows, err := r.db.QueryContext(ctx, query, tournamentID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	ids := make([]int, 0)
	for rows.Next() {
		var id int
		if scanErr := rows.Scan(&id); scanErr != nil {
			return nil, scanErr
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}

func (r *postgresResultRepository) DeleteByTournament(ctx context.Context, exec SQLExecutor, tournamentID int) (int64, error) {
	executor := r.getExecutor(exec)
	result, err := executor.ExecContext(ctx, `DELETE FROM tournament_results WHERE tournament_id = $1`, tournamentID)
	if err != nil {
		return 0, err
	}
	return result.RowsAffected()
}

func (r *postgresResultRepository) handleResultError(err error) error {
	var pqErr *pq.Error
	if errors.As(err, &pqErr) && pqErr.Code == "23505" {
		return ErrResultConflict
	}
	return err
}
