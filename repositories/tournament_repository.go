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
	ErrTournamentNotFound    = errors.New("tournament not found")
	ErrBodNumberConflict     = errors.New("BOD number already in use")
	ErrTournamentInUse       = errors.New("tournament is in use (matches/results exist)")
	ErrChampionResultInvalid = errors.New("invalid champion result reference")
)

type ListTournamentsFilter struct {
	Status *models.TournamentStatus
	Format *models.TournamentFormat
	Year   *int
	Limit  int
	Offset int
}

type TournamentRepository interface {
	Create(ctx context.Context, tournament *models.Tournament) error
	GetByID(ctx context.Context, id int) (*models.Tournament, error)
	List(ctx context.Context, filter ListTournamentsFilter) ([]models.Tournament, error)
	Update(ctx context.Context, tournament *models.Tournament) error
	UpdateStatus(ctx context.Context, exec SQLExecutor, id int, status models.TournamentStatus) error
	UpdatePlayers(ctx context.Context, exec SQLExecutor, id int, playerIDs []int) error
	UpdateChampion(ctx context.Context, exec SQLExecutor, id int, champion *models.Champion) error
	UpdatePhotoAlbums(ctx context.Context, id int, url *string) error
	NextBodNumber(ctx context.Context) (int, error)
	Delete(ctx context.Context, exec SQLExecutor, id int) error
}

type postgresTournamentRepository struct {
	db *sql.DB
}

func NewPostgresTournamentRepository(db *sql.DB) TournamentRepository {
	return &postgresTournamentRepository{db: db}
}

func (r *postgresTournamentRepository) getExecutor(exec SQLExecutor) SQLExecutor {
	if exec != nil {
		return exec
	}
	return r.db
}

const tournamentColumns = `
	id, date, bod_number, format, location, status, max_players,
	registration_type, allow_self_registration, registration_opens_at,
	registration_deadline, player_ids, photo_albums, notes,
	champion_player_ids, champion_player_names, champion_result_id, created_at`

func scanTournament(scanner interface{ Scan(...interface{}) error }) (*models.Tournament, error) {
	t := &models.Tournament{}
	var playerIDs pq.Int64Array
	var champIDs pq.Int64Array
	var champNames pq.StringArray
	var champResultID sql.NullInt64

	err := scanner.Scan(
		&t.ID, &t.Date, &t.BodNumber, &t.Format, &t.Location, &t.Status, &t.MaxPlayers,
		&t.RegistrationType, &t.AllowSelfRegistration, &t.RegistrationOpensAt,
		&t.RegistrationDeadline, &playerIDs, &t.PhotoAlbums, &t.Notes,
		&champIDs, &champNames, &champResultID, &t.CreatedAt,
	)
	if err != nil {
		return nil, err
	}

	t.PlayerIDs = int64ArrayToInts(playerIDs)
	if len(champIDs) > 0 {
		champion := &models.Champion{
			PlayerIDs:   int64ArrayToInts(champIDs),
			PlayerNames: champNames,
		}
		if champResultID.Valid {
			id := int(champResultID.Int64)
			champion.ResultID = &id
		}
		t.Champion = champion
	}
	return t, nil
}

func int64ArrayToInts(arr pq.Int64Array) []int {
	out := make([]int, len(arr))
	for i, v := range arr {
		out[i] = int(v)
	}
	return out
}

func intsToInt64Array(ids []int) pq.Int64Array {
	out := make(pq.Int64Array, len(ids))
	for i, v := range ids {
		out[i] = int64(v)
	}
	return out
}

func (r *postgresTournamentRepository) Create(ctx context.Context, t *models.Tournament) error {
	query := `
		INSERT INTO tournaments (
			date, bod_number, format, location, status, max_players,
			registration_type, allow_self_registration, registration_opens_at,
			registration_deadline, player_ids, photo_albums, notes
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)
		RETURNING id, created_at`

	err := r.db.QueryRowContext(ctx, query,
		t.Date, t.BodNumber, t.Format, t.Location, t.Status, t.MaxPlayers,
		t.RegistrationType, t.AllowSelfRegistration, t.RegistrationOpensAt,
		t.RegistrationDeadline, intsToInt64Array(t.PlayerIDs), t.PhotoAlbums, t.Notes,
	).Scan(&t.ID, &t.CreatedAt)

	return r.handleTournamentError(err)
}

func (r *postgresTournamentRepository) GetByID(ctx context.Context, id int) (*models.Tournament, error) {
	query := `SELECT` + tournamentColumns + ` FROM tournaments WHERE id = $1`

	t, err := scanTournament(r.db.QueryRowContext(ctx, query, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrTournamentNotFound
		}
		return nil, err
	}
	return t, nil
}

func (r *postgresTournamentRepository) List(ctx context.Context, filter ListTournamentsFilter) ([]models.Tournament, error) {
	query := `SELECT` + tournamentColumns + ` FROM tournaments WHERE 1=1`

	args := []interface{}{}
	argID := 1

	if filter.Status != nil {
		query += fmt.Sprintf(" AND status = $%d", argID)
		args = append(args, *filter.Status)
		argID++
	}
	if filter.Format != nil {
		query += fmt.Sprintf(" AND format = $%d", argID)
		args = append(args, *filter.Format)
		argID++
	}
	if filter.Year != nil {
		query += fmt.Sprintf(" AND EXTRACT(YEAR FROM date) = $%d", argID)
		args = append(args, *filter.Year)
		argID++
	}

	query += " ORDER BY date DESC, bod_number DESC"

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

	tournaments := make([]models.Tournament, 0)
	for rows.Next() {
		t, scanErr := scanTournament(rows)
		if scanErr != nil {
			return nil, scanErr
		}
		tournaments = append(tournaments, *t)
	}
	return tournaments, rows.Err()
}

// Update writes the editable fields. Status, players, champion and BOD
// number are updated through their dedicated methods; bod_number in
// particular is immutable once assigned.
func (r *postgresTournamentRepository) Update(ctx context.Context, t *models.Tournament) error {
	query := `
		UPDATE tournaments SET
			date = $1,
			format = $2,
			location = $3,
			max_players = $4,
			registration_type = $5,
			allow_self_registration = $6,
			registration_opens_at = $7,
			registration_deadline = $8,
			notes = $9
		WHERE id = $10`

	result, err := r.db.ExecContext(ctx, query,
		t.Date, t.Format, t.Location, t.MaxPlayers,
		t.RegistrationType, t.AllowSelfRegistration,
		t.RegistrationOpensAt, t.RegistrationDeadline, t.Notes,
		t.ID,
	)
	if err != nil {
		return r.handleTournamentError(err)
	}
	return checkAffectedRows(result, ErrTournamentNotFound)
}

func (r *postgresTournamentRepository) UpdateStatus(ctx context.Context, exec SQLExecutor, id int, status models.TournamentStatus) error {
	executor := r.getExecutor(exec)
	query := `UPDATE tournaments SET status = $1 WHERE id = $2`
	result, err := executor.ExecContext(ctx, query, status, id)
	if err != nil {
		return r.handleTournamentError(err)
	}
	return checkAffectedRows(result, ErrTournamentNotFound)
}

func (r *postgresTournamentRepository) UpdatePlayers(ctx context.Context, exec SQLExecutor, id int, playerIDs []int) error {
	executor := r.getExecutor(exec)
	query := `UPDATE tournaments SET player_ids = $1 WHERE id = $2`
	result, err := executor.ExecContext(ctx, query, intsToInt64Array(playerIDs), id)
	if err != nil {
		return r.handleTournamentError(err)
	}
	return checkAffectedRows(result, ErrTournamentNotFound)
}

func (r *postgresTournamentRepository) UpdateChampion(ctx context.Context, exec SQLExecutor, id int, champion *models.Champion) error {
	executor := r.getExecutor(exec)
	query := `
		UPDATE tournaments SET
			champion_player_ids = $1,
			champion_player_names = $2,
			champion_result_id = $3
		WHERE id = $4`

	var ids pq.Int64Array
	var names pq.StringArray
	var resultID *int
	if champion != nil {
		ids = intsToInt64Array(champion.PlayerIDs)
		names = champion.PlayerNames
		resultID = champion.ResultID
	}

	result, err := executor.ExecContext(ctx, query, ids, names, resultID, id)
	if err != nil {
		return r.handleTournamentError(err)
	}
	return checkAffectedRows(result, ErrTournamentNotFound)
}

func (r *postgresTournamentRepository) UpdatePhotoAlbums(ctx context.Context, id int, url *string) error {
	query := `UPDATE tournaments SET photo_albums = $1 WHERE id = $2`
	result, err := r.db.ExecContext(ctx, query, url, id)
	if err != nil {
		return fmt.Errorf("failed to update tournament photo albums: %w", err)
	}
	return checkAffectedRows(result, ErrTournamentNotFound)
}

// NextBodNumber returns the next sequential BOD number.
func (r *postgresTournamentRepository) NextBodNumber(ctx context.Context) (int, error) {
	var next int
	query := `SELECT COALESCE(MAX(bod_number), 0) + 1 FROM tournaments`
	if err := r.db.QueryRowContext(ctx, query).Scan(&next); err != nil {
		return 0, fmt.Errorf("failed to compute next BOD number: %w", err)
	}
	return next, nil
}

func (r *postgresTournamentRepository) Delete(ctx context.Context, exec SQLExecutor, id int) error {
	executor := r.getExecutor(exec)
	query := `DELETE FROM tournaments WHERE id = $1`
	result, err := executor.ExecContext(ctx, query, id)
	if err != nil {
		return r.handleTournamentError(err)
	}
	return checkAffectedRows(result, ErrTournamentNotFound)
}

func (r *postgresTournamentRepository) handleTournamentError(err error) error {
	if err == nil {
		return nil
	}
	if pqErr, ok := err.(*pq.Error); ok {
		switch pqErr.Code {
		case "23505":
			if pqErr.Constraint == "tournaments_bod_number_key" {
				return ErrBodNumberConflict
			}
		case "23503":
			if pqErr.Constraint == "fk_tournaments_champion_result" {
				return ErrChampionResultInvalid
			}
			return ErrTournamentInUse
		}
	}
	return err
}
