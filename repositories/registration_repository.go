package repositories

import (
	"context"
	"database/sql"
	"errors"

	"github.com/bracket-of-death/backend/models"
	"github.com/lib/pq"
)

var (
	ErrRegistrationNotFound = errors.New("registration entry not found")
	ErrAlreadyRegistered    = errors.New("player already registered or waitlisted for this tournament")
)

// RegistrationRepository stores the ordered registered/waitlist entries of
// each tournament. Ordering is insertion order (registered_at, then id), so
// waitlist promotion is FIFO by construction.
type RegistrationRepository interface {
	ListByTournament(ctx context.Context, tournamentID int) ([]models.RegistrationEntry, error)
	Find(ctx context.Context, tournamentID, playerID int) (*models.RegistrationEntry, error)
	CountByList(ctx context.Context, tournamentID int, list models.RegistrationList) (int, error)
	// InsertIfCapacity appends the player to the registered list only while
	// the registered count is below capacity, in a single statement. It
	// reports whether the row was inserted.
	InsertIfCapacity(ctx context.Context, tournamentID, playerID, capacity int) (bool, error)
	Insert(ctx context.Context, tournamentID, playerID int, list models.RegistrationList) error
	Remove(ctx context.Context, exec SQLExecutor, tournamentID, playerID int) (*models.RegistrationEntry, error)
	// PromoteEarliestWaitlisted moves the oldest waitlist entry to the
	// registered list, returning nil when the waitlist is empty.
	PromoteEarliestWaitlisted(ctx context.Context, exec SQLExecutor, tournamentID int) (*models.RegistrationEntry, error)
	DeleteByTournament(ctx context.Context, exec SQLExecutor, tournamentID int) (int64, error)
}

type postgresRegistrationRepository struct {
	db *sql.DB
}

func NewPostgresRegistrationRepository(db *sql.DB) RegistrationRepository {
	return &postgresRegistrationRepository{db: db}
}

func (r *postgresRegistrationRepository) getExecutor(exec SQLExecutor) SQLExecutor {
	if exec != nil {
		return exec
	}
	return r.db
}

func (r *postgresRegistrationRepository) ListByTournament(ctx context.Context, tournamentID int) ([]models.RegistrationEntry, error) {
	query := `
		SELECT id, tournament_id, player_id, list, registered_at
		FROM tournament_registrations
		WHERE tournament_id = $1
		ORDER BY registered_at ASC, id ASC`

	rows, err := r.db.QueryContext(ctx, query, tournamentID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	entries := make([]models.RegistrationEntry, 0)
	for rows.Next() {
		var e models.RegistrationEntry
		if scanErr := rows.Scan(&e.ID, &e.TournamentID, &e.PlayerID, &e.List, &e.RegisteredAt); scanErr != nil {
			return nil, scanErr
		}
		entries = append(entries, e)
	}
	return entries, rows.Err()
}

func (r *postgresRegistrationRepository) Find(ctx context.Context, tournamentID, playerID int) (*models.RegistrationEntry, error) {
	query := `
		SELECT id, tournament_id, player_id, list, registered_at
		FROM tournament_registrations
		WHERE tournament_id = $1 AND player_id = $2`

	var e models.RegistrationEntry
	err := r.db.QueryRowContext(ctx, query, tournamentID, playerID).
		Scan(&e.ID, &e.TournamentID, &e.PlayerID, &e.List, &e.RegisteredAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	return &e, nil
}

func (r *postgresRegistrationRepository) CountByList(ctx context.Context, tournamentID int, list models.RegistrationList) (int, error) {
	var count int
	query := `SELECT COUNT(*) FROM tournament_registrations WHERE tournament_id = $1 AND list = $2`
	err := r.db.QueryRowContext(ctx, query, tournamentID, list).Scan(&count)
	return count, err
}

func (r *postgresRegistrationRepository) InsertIfCapacity(ctx context.Context, tournamentID, playerID, capacity int) (bool, error) {
	query := `
		INSERT INTO tournament_registrations (tournament_id, player_id, list)
		SELECT $1, $2, $3
		WHERE (
			SELECT COUNT(*) FROM tournament_registrations
			WHERE tournament_id = $1 AND list = $3
		) < $4`

	result, err := r.db.ExecContext(ctx, query, tournamentID, playerID, models.ListRegistered, capacity)
	if err != nil {
		return false, r.handleRegistrationError(err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return false, err
	}
	return affected > 0, nil
}

func (r *postgresRegistrationRepository) Insert(ctx context.Context, tournamentID, playerID int, list models.RegistrationList) error {
	query := `
		INSERT INTO tournament_registrations (tournament_id, player_id, list)
		VALUES ($1, $2, $3)`

	_, err := r.db.ExecContext(ctx, query, tournamentID, playerID, list)
	return r.handleRegistrationError(err)
}

func (r *postgresRegistrationRepository) Remove(ctx context.Context, exec SQLExecutor, tournamentID, playerID int) (*models.RegistrationEntry, error) {
	executor := r.getExecutor(exec)
	query := `
		DELETE FROM tournament_registrations
		WHERE tournament_id = $1 AND player_id = $2
		RETURNING id, tournament_id, player_id, list, registered_at`

	var e models.RegistrationEntry
	err := executor.QueryRowContext(ctx, query, tournamentID, playerID).
		Scan(&e.ID, &e.TournamentID, &e.PlayerID, &e.List, &e.RegisteredAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrRegistrationNotFound
		}
		return nil, err
	}
	return &e, nil
}

func (r *postgresRegistrationRepository) PromoteEarliestWaitlisted(ctx context.Context, exec SQLExecutor, tournamentID int) (*models.RegistrationEntry, error) {
	executor := r.getExecutor(exec)
	query := `
		UPDATE tournament_registrations SET list = $1
		WHERE id = (
			SELECT id FROM tournament_registrations
			WHERE tournament_id = $2 AND list = $3
			ORDER BY registered_at ASC, id ASC
			LIMIT 1
		)
		RETURNING id, tournament_id, player_id, list, registered_at`

	var e models.RegistrationEntry
	err := executor.QueryRowContext(ctx, query, models.ListRegistered, tournamentID, models.ListWaitlist).
		Scan(&e.ID, &e.TournamentID, &e.PlayerID, &e.List, &e.RegisteredAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	return &e, nil
}

func (r *postgresRegistrationRepository) DeleteByTournament(ctx context.Context, exec SQLExecutor, tournamentID int) (int64, error) {
	executor := r.getExecutor(exec)
	result, err := executor.ExecContext(ctx,
		`DELETE FROM tournament_registrations WHERE tournament_id = $1`, tournamentID)
	if err != nil {
		return 0, err
	}
	return result.RowsAffected()
}

func (r *postgresRegistrationRepository) handleRegistrationError(err error) error {
	if err == nil {
		return nil
	}
	if pqErr, ok := err.(*pq.Error); ok && pqErr.Code == "23505" {
		return ErrAlreadyRegistered
	}
	return err
}
