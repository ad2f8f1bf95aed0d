package services

import (
	"context"
	"testing"
	"time"

	"github.com/bracket-of-death/backend/models"
	"github.com/bracket-of-death/backend/repositories"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func openTournament(maxPlayers int) *models.Tournament {
	return &models.Tournament{
		ID:                    1,
		Status:                models.StatusOpen,
		MaxPlayers:            maxPlayers,
		AllowSelfRegistration: true,
	}
}

func tournamentRepoReturning(t *models.Tournament) *fakeTournamentRepo {
	return &fakeTournamentRepo{
		getByIDFn: func(ctx context.Context, id int) (*models.Tournament, error) {
			return t, nil
		},
	}
}

func playerRepoWithPlayer(id int) *fakePlayerRepo {
	return &fakePlayerRepo{
		getByIDFn: func(ctx context.Context, playerID int) (*models.Player, error) {
			return &models.Player{ID: playerID, Name: "Someone"}, nil
		},
	}
}

func TestRegister_GetsSpotWhenCapacityLeft(t *testing.T) {
	entry := &models.RegistrationEntry{TournamentID: 1, PlayerID: 7, List: models.ListRegistered}
	regRepo := &fakeRegistrationRepo{
		insertIfCapacityFn: func(ctx context.Context, tournamentID, playerID, capacity int) (bool, error) {
			assert.Equal(t, 2, capacity)
			return true, nil
		},
		findFn: func(ctx context.Context, tournamentID, playerID int) (*models.RegistrationEntry, error) {
			return entry, nil
		},
	}

	svc := NewRegistrationService(nil, regRepo, tournamentRepoReturning(openTournament(2)), playerRepoWithPlayer(7), testLogger())

	got, err := svc.Register(context.Background(), 1, 7, true)
	require.NoError(t, err)
	assert.Equal(t, models.ListRegistered, got.List)
}

func TestRegister_WaitlistsWhenFull(t *testing.T) {
	inserted := models.RegistrationList("")
	regRepo := &fakeRegistrationRepo{
		insertIfCapacityFn: func(ctx context.Context, tournamentID, playerID, capacity int) (bool, error) {
			return false, nil
		},
		insertFn: func(ctx context.Context, tournamentID, playerID int, list models.RegistrationList) error {
			inserted = list
			return nil
		},
		findFn: func(ctx context.Context, tournamentID, playerID int) (*models.RegistrationEntry, error) {
			return &models.RegistrationEntry{TournamentID: 1, PlayerID: 8, List: models.ListWaitlist}, nil
		},
	}

	svc := NewRegistrationService(nil, regRepo, tournamentRepoReturning(openTournament(2)), playerRepoWithPlayer(8), testLogger())

	got, err := svc.Register(context.Background(), 1, 8, true)
	require.NoError(t, err)
	assert.Equal(t, models.ListWaitlist, inserted)
	assert.Equal(t, models.ListWaitlist, got.List)
}

func TestRegister_RejectsWhenNotOpen(t *testing.T) {
	tournament := openTournament(2)
	tournament.Status = models.StatusActive

	svc := NewRegistrationService(nil, &fakeRegistrationRepo{}, tournamentRepoReturning(tournament), playerRepoWithPlayer(7), testLogger())

	_, err := svc.Register(context.Background(), 1, 7, true)
	assert.ErrorIs(t, err, ErrTournamentNotOpen)
}

func TestRegister_RejectsSelfRegistrationWhenDisabled(t *testing.T) {
	tournament := openTournament(2)
	tournament.AllowSelfRegistration = false

	svc := NewRegistrationService(nil, &fakeRegistrationRepo{}, tournamentRepoReturning(tournament), playerRepoWithPlayer(7), testLogger())

	_, err := svc.Register(context.Background(), 1, 7, true)
	assert.ErrorIs(t, err, ErrSelfRegistrationOff)
}

func TestRegister_RejectsOutsideWindow(t *testing.T) {
	deadline := time.Date(2026, 5, 1, 0, 0, 0, 0, time.UTC)
	tournament := openTournament(2)
	tournament.RegistrationDeadline = &deadline

	svc := NewRegistrationService(nil, &fakeRegistrationRepo{}, tournamentRepoReturning(tournament), playerRepoWithPlayer(7), testLogger())
	svc.now = func() time.Time { return deadline.Add(time.Hour) }

	_, err := svc.Register(context.Background(), 1, 7, true)
	assert.ErrorIs(t, err, ErrRegistrationWindow)
}

func TestRegister_AdminBypassesWindowAndSelfRegistration(t *testing.T) {
	deadline := time.Date(2026, 5, 1, 0, 0, 0, 0, time.UTC)
	tournament := openTournament(2)
	tournament.AllowSelfRegistration = false
	tournament.RegistrationDeadline = &deadline

	regRepo := &fakeRegistrationRepo{
		insertIfCapacityFn: func(ctx context.Context, tournamentID, playerID, capacity int) (bool, error) {
			return true, nil
		},
		findFn: func(ctx context.Context, tournamentID, playerID int) (*models.RegistrationEntry, error) {
			return &models.RegistrationEntry{TournamentID: 1, PlayerID: 7, List: models.ListRegistered}, nil
		},
	}

	svc := NewRegistrationService(nil, regRepo, tournamentRepoReturning(tournament), playerRepoWithPlayer(7), testLogger())
	svc.now = func() time.Time { return deadline.Add(time.Hour) }

	_, err := svc.Register(context.Background(), 1, 7, false)
	assert.NoError(t, err)
}

func TestGetRegistrationInfo_SplitsLists(t *testing.T) {
	entries := []models.RegistrationEntry{
		{PlayerID: 1, List: models.ListRegistered},
		{PlayerID: 2, List: models.ListRegistered},
		{PlayerID: 3, List: models.ListWaitlist},
	}
	regRepo := &fakeRegistrationRepo{
		listByTournamentFn: func(ctx context.Context, tournamentID int) ([]models.RegistrationEntry, error) {
			return entries, nil
		},
	}

	svc := NewRegistrationService(nil, regRepo, tournamentRepoReturning(openTournament(4)), playerRepoWithPlayer(1), testLogger())

	info, err := svc.GetRegistrationInfo(context.Background(), 1)
	require.NoError(t, err)
	assert.Equal(t, 2, info.RegisteredCount)
	assert.Equal(t, 1, info.WaitlistCount)
	assert.Equal(t, 2, info.SpotsRemaining)
	assert.Equal(t, 4, info.MaxPlayers)
}

func TestFinalizeRoster_CopiesRegisteredPlayersOnly(t *testing.T) {
	regRepo := &fakeRegistrationRepo{
		listByTournamentFn: func(ctx context.Context, tournamentID int) ([]models.RegistrationEntry, error) {
			return []models.RegistrationEntry{
				{PlayerID: 7, List: models.ListRegistered},
				{PlayerID: 8, List: models.ListWaitlist},
				{PlayerID: 9, List: models.ListRegistered},
			}, nil
		},
	}
	tournamentRepo := tournamentRepoReturning(openTournament(4))
	var saved []int
	tournamentRepo.updatePlayersFn = func(ctx context.Context, exec repositories.SQLExecutor, id int, playerIDs []int) error {
		saved = playerIDs
		return nil
	}

	svc := NewRegistrationService(nil, regRepo, tournamentRepo, playerRepoWithPlayer(7), testLogger())

	roster, err := svc.FinalizeRoster(context.Background(), 1)
	require.NoError(t, err)
	assert.Equal(t, []int{7, 9}, roster)
	assert.Equal(t, []int{7, 9}, saved)
}

func TestFinalizeRoster_RequiresOpenTournament(t *testing.T) {
	active := openTournament(4)
	active.Status = models.StatusActive

	svc := NewRegistrationService(nil, &fakeRegistrationRepo{}, tournamentRepoReturning(active), playerRepoWithPlayer(7), testLogger())

	_, err := svc.FinalizeRoster(context.Background(), 1)
	assert.ErrorIs(t, err, ErrTournamentNotOpen)
}

func TestFinalizeRoster_RequiresTwoRegisteredPlayers(t *testing.T) {
	regRepo := &fakeRegistrationRepo{
		listByTournamentFn: func(ctx context.Context, tournamentID int) ([]models.RegistrationEntry, error) {
			return []models.RegistrationEntry{{PlayerID: 7, List: models.ListRegistered}}, nil
		},
	}

	svc := NewRegistrationService(nil, regRepo, tournamentRepoReturning(openTournament(4)), playerRepoWithPlayer(7), testLogger())

	_, err := svc.FinalizeRoster(context.Background(), 1)
	assert.ErrorIs(t, err, ErrInsufficientPlayers)
}

func TestUnregister_PromotesEarliestWaitlisted(t *testing.T) {
	promoted := &models.RegistrationEntry{TournamentID: 1, PlayerID: 9, List: models.ListRegistered}
	promoteCalls := 0
	regRepo := &fakeRegistrationRepo{
		removeFn: func(ctx context.Context, exec repositories.SQLExecutor, tournamentID, playerID int) (*models.RegistrationEntry, error) {
			return &models.RegistrationEntry{TournamentID: tournamentID, PlayerID: playerID, List: models.ListRegistered}, nil
		},
		promoteEarliestWaitlistedFn: func(ctx context.Context, exec repositories.SQLExecutor, tournamentID int) (*models.RegistrationEntry, error) {
			promoteCalls++
			return promoted, nil
		},
	}

	svc := NewRegistrationService(testDB(t), regRepo, tournamentRepoReturning(openTournament(2)), playerRepoWithPlayer(7), testLogger())

	got, err := svc.Unregister(context.Background(), 1, 7)
	require.NoError(t, err)
	assert.Equal(t, 1, promoteCalls)
	assert.Equal(t, promoted, got)
}

func TestUnregister_WaitlistedLeaverPromotesNobody(t *testing.T) {
	regRepo := &fakeRegistrationRepo{
		removeFn: func(ctx context.Context, exec repositories.SQLExecutor, tournamentID, playerID int) (*models.RegistrationEntry, error) {
			return &models.RegistrationEntry{TournamentID: tournamentID, PlayerID: playerID, List: models.ListWaitlist}, nil
		},
		promoteEarliestWaitlistedFn: func(ctx context.Context, exec repositories.SQLExecutor, tournamentID int) (*models.RegistrationEntry, error) {
			t.Fatal("waitlist leaver must not trigger a promotion")
			return nil, nil
		},
	}

	svc := NewRegistrationService(testDB(t), regRepo, tournamentRepoReturning(openTournament(2)), playerRepoWithPlayer(8), testLogger())

	got, err := svc.Unregister(context.Background(), 1, 8)
	require.NoError(t, err)
	assert.Nil(t, got)
}

func TestUnregister_RejectsActiveTournament(t *testing.T) {
	active := openTournament(2)
	active.Status = models.StatusActive

	svc := NewRegistrationService(nil, &fakeRegistrationRepo{}, tournamentRepoReturning(active), playerRepoWithPlayer(7), testLogger())

	_, err := svc.Unregister(context.Background(), 1, 7)
	assert.ErrorIs(t, err, ErrTournamentNotOpen)
}

func TestUnregister_AllowedForCancelledTournament(t *testing.T) {
	cancelled := openTournament(2)
	cancelled.Status = models.StatusCancelled

	regRepo := &fakeRegistrationRepo{
		removeFn: func(ctx context.Context, exec repositories.SQLExecutor, tournamentID, playerID int) (*models.RegistrationEntry, error) {
			return &models.RegistrationEntry{TournamentID: tournamentID, PlayerID: playerID, List: models.ListWaitlist}, nil
		},
	}

	svc := NewRegistrationService(testDB(t), regRepo, tournamentRepoReturning(cancelled), playerRepoWithPlayer(7), testLogger())

	_, err := svc.Unregister(context.Background(), 1, 7)
	assert.NoError(t, err)
}
