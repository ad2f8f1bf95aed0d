package services

import (
	"context"
	"database/sql"
	"database/sql/driver"
	"errors"
	"io"
	"log/slog"
	"sync"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/bracket-of-death/backend/models"
	"github.com/bracket-of-death/backend/repositories"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// noopDriver backs a *sql.DB whose transactions begin and commit without a
// server. Services hand the transaction straight to repository fakes, so no
// statement ever reaches the driver.
type noopDriver struct{}

func (noopDriver) Open(string) (driver.Conn, error) { return noopConn{}, nil }

type noopConn struct{}

func (noopConn) Prepare(string) (driver.Stmt, error) { return nil, errors.New("not supported") }
func (noopConn) Close() error                        { return nil }
func (noopConn) Begin() (driver.Tx, error)           { return noopTx{}, nil }

type noopTx struct{}

func (noopTx) Commit() error   { return nil }
func (noopTx) Rollback() error { return nil }

var registerNoopDriver sync.Once

func testDB(t *testing.T) *sql.DB {
	t.Helper()
	registerNoopDriver.Do(func() { sql.Register("svc-noop", noopDriver{}) })
	db, err := sql.Open("svc-noop", "")
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return db
}

// Fakes override only the methods a test exercises; calling anything else
// panics through the nil embedded interface, which flags the gap.

type fakePlayerRepo struct {
	repositories.PlayerRepository
	getByIDFn     func(ctx context.Context, id int) (*models.Player, error)
	getByIDsFn    func(ctx context.Context, ids []int) ([]*models.Player, error)
	updateStatsFn func(ctx context.Context, exec repositories.SQLExecutor, playerID int, stats models.PlayerStatsSnapshot) error
}

func (f *fakePlayerRepo) GetByID(ctx context.Context, id int) (*models.Player, error) {
	return f.getByIDFn(ctx, id)
}

func (f *fakePlayerRepo) GetByIDs(ctx context.Context, ids []int) ([]*models.Player, error) {
	return f.getByIDsFn(ctx, ids)
}

func (f *fakePlayerRepo) UpdateStats(ctx context.Context, exec repositories.SQLExecutor, playerID int, stats models.PlayerStatsSnapshot) error {
	return f.updateStatsFn(ctx, exec, playerID, stats)
}

type fakeTournamentRepo struct {
	repositories.TournamentRepository
	getByIDFn       func(ctx context.Context, id int) (*models.Tournament, error)
	createFn        func(ctx context.Context, tournament *models.Tournament) error
	updateStatusFn  func(ctx context.Context, exec repositories.SQLExecutor, id int, status models.TournamentStatus) error
	nextBodNumberFn func(ctx context.Context) (int, error)
	updatePlayersFn func(ctx context.Context, exec repositories.SQLExecutor, id int, playerIDs []int) error
}

func (f *fakeTournamentRepo) GetByID(ctx context.Context, id int) (*models.Tournament, error) {
	return f.getByIDFn(ctx, id)
}

func (f *fakeTournamentRepo) Create(ctx context.Context, tournament *models.Tournament) error {
	return f.createFn(ctx, tournament)
}

func (f *fakeTournamentRepo) UpdateStatus(ctx context.Context, exec repositories.SQLExecutor, id int, status models.TournamentStatus) error {
	return f.updateStatusFn(ctx, exec, id, status)
}

func (f *fakeTournamentRepo) NextBodNumber(ctx context.Context) (int, error) {
	return f.nextBodNumberFn(ctx)
}

func (f *fakeTournamentRepo) UpdatePlayers(ctx context.Context, exec repositories.SQLExecutor, id int, playerIDs []int) error {
	return f.updatePlayersFn(ctx, exec, id, playerIDs)
}

type fakeRegistrationRepo struct {
	repositories.RegistrationRepository
	listByTournamentFn          func(ctx context.Context, tournamentID int) ([]models.RegistrationEntry, error)
	findFn                      func(ctx context.Context, tournamentID, playerID int) (*models.RegistrationEntry, error)
	insertIfCapacityFn          func(ctx context.Context, tournamentID, playerID, capacity int) (bool, error)
	insertFn                    func(ctx context.Context, tournamentID, playerID int, list models.RegistrationList) error
	removeFn                    func(ctx context.Context, exec repositories.SQLExecutor, tournamentID, playerID int) (*models.RegistrationEntry, error)
	promoteEarliestWaitlistedFn func(ctx context.Context, exec repositories.SQLExecutor, tournamentID int) (*models.RegistrationEntry, error)
}

func (f *fakeRegistrationRepo) ListByTournament(ctx context.Context, tournamentID int) ([]models.RegistrationEntry, error) {
	return f.listByTournamentFn(ctx, tournamentID)
}

func (f *fakeRegistrationRepo) Find(ctx context.Context, tournamentID, playerID int) (*models.RegistrationEntry, error) {
	return f.findFn(ctx, tournamentID, playerID)
}

func (f *fakeRegistrationRepo) InsertIfCapacity(ctx context.Context, tournamentID, playerID, capacity int) (bool, error) {
	return f.insertIfCapacityFn(ctx, tournamentID, playerID, capacity)
}

func (f *fakeRegistrationRepo) Insert(ctx context.Context, tournamentID, playerID int, list models.RegistrationList) error {
	return f.insertFn(ctx, tournamentID, playerID, list)
}

func (f *fakeRegistrationRepo) Remove(ctx context.Context, exec repositories.SQLExecutor, tournamentID, playerID int) (*models.RegistrationEntry, error) {
	return f.removeFn(ctx, exec, tournamentID, playerID)
}

func (f *fakeRegistrationRepo) PromoteEarliestWaitlisted(ctx context.Context, exec repositories.SQLExecutor, tournamentID int) (*models.RegistrationEntry, error) {
	return f.promoteEarliestWaitlistedFn(ctx, exec, tournamentID)
}

type fakeMatchRepo struct {
	repositories.MatchRepository
	getByNumberFn       func(ctx context.Context, tournamentID, matchNumber int) (*models.Match, error)
	countByTournamentFn func(ctx context.Context, tournamentID int) (int, error)
	countIncompleteFn   func(ctx context.Context, tournamentID int) (int, error)
	updateResultFn      func(ctx context.Context, exec repositories.SQLExecutor, match *models.Match) error
	updateTeamSlotFn    func(ctx context.Context, exec repositories.SQLExecutor, tournamentID, matchNumber, slot int, team models.MatchTeam) error
}

func (f *fakeMatchRepo) GetByNumber(ctx context.Context, tournamentID, matchNumber int) (*models.Match, error) {
	return f.getByNumberFn(ctx, tournamentID, matchNumber)
}

func (f *fakeMatchRepo) CountByTournament(ctx context.Context, tournamentID int) (int, error) {
	return f.countByTournamentFn(ctx, tournamentID)
}

func (f *fakeMatchRepo) CountIncomplete(ctx context.Context, tournamentID int) (int, error) {
	return f.countIncompleteFn(ctx, tournamentID)
}

func (f *fakeMatchRepo) UpdateResult(ctx context.Context, exec repositories.SQLExecutor, match *models.Match) error {
	return f.updateResultFn(ctx, exec, match)
}

func (f *fakeMatchRepo) UpdateTeamSlot(ctx context.Context, exec repositories.SQLExecutor, tournamentID, matchNumber, slot int, team models.MatchTeam) error {
	return f.updateTeamSlotFn(ctx, exec, tournamentID, matchNumber, slot, team)
}

type fakeResultRepo struct {
	repositories.ResultRepository
	aggregatePlayerStatsFn          func(ctx context.Context, playerID int) (*models.PlayerStatsSnapshot, error)
	distinctPlayerIDsByTournamentFn func(ctx context.Context, tournamentID int) ([]int, error)
	findByPlayerSetFn               func(ctx context.Context, exec repositories.SQLExecutor, tournamentID int, playerIDs []int) (*models.TournamentResult, error)
	createFn                        func(ctx context.Context, exec repositories.SQLExecutor, result *models.TournamentResult) error
	updateFn                        func(ctx context.Context, exec repositories.SQLExecutor, result *models.TournamentResult) error
}

func (f *fakeResultRepo) AggregatePlayerStats(ctx context.Context, playerID int) (*models.PlayerStatsSnapshot, error) {
	return f.aggregatePlayerStatsFn(ctx, playerID)
}

func (f *fakeResultRepo) DistinctPlayerIDsByTournament(ctx context.Context, tournamentID int) ([]int, error) {
	return f.distinctPlayerIDsByTournamentFn(ctx, tournamentID)
}

func (f *fakeResultRepo) FindByPlayerSet(ctx context.Context, exec repositories.SQLExecutor, tournamentID int, playerIDs []int) (*models.TournamentResult, error) {
	return f.findByPlayerSetFn(ctx, exec, tournamentID, playerIDs)
}

func (f *fakeResultRepo) Create(ctx context.Context, exec repositories.SQLExecutor, result *models.TournamentResult) error {
	return f.createFn(ctx, exec, result)
}

func (f *fakeResultRepo) Update(ctx context.Context, exec repositories.SQLExecutor, result *models.TournamentResult) error {
	return f.updateFn(ctx, exec, result)
}
