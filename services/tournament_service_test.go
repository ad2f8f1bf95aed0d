package services

import (
	"context"
	"testing"
	"time"

	"github.com/bracket-of-death/backend/brackets"
	"github.com/bracket-of-death/backend/models"
	"github.com/bracket-of-death/backend/repositories"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTournamentServiceForTest(tournamentRepo *fakeTournamentRepo, matchRepo *fakeMatchRepo) *TournamentService {
	return NewTournamentService(
		nil, tournamentRepo, matchRepo, &fakeResultRepo{}, &fakePlayerRepo{}, &fakeRegistrationRepo{},
		nil, brackets.NewHub(testLogger()), testLogger(),
	)
}

func TestCreateTournament_AssignsNextBodNumber(t *testing.T) {
	var created *models.Tournament
	repo := &fakeTournamentRepo{
		nextBodNumberFn: func(ctx context.Context) (int, error) { return 42, nil },
		createFn: func(ctx context.Context, tournament *models.Tournament) error {
			tournament.ID = 1
			created = tournament
			return nil
		},
	}
	svc := newTournamentServiceForTest(repo, &fakeMatchRepo{})

	tournament, err := svc.Create(context.Background(), CreateTournamentParams{
		Date:   time.Date(2026, 9, 12, 9, 0, 0, 0, time.UTC),
		Format: models.FormatMensDoubles,
	})
	require.NoError(t, err)
	require.NotNil(t, created)

	assert.Equal(t, 42, tournament.BodNumber)
	assert.Equal(t, models.StatusScheduled, tournament.Status)
	assert.Equal(t, models.DefaultMaxPlayers, tournament.MaxPlayers)
	assert.Equal(t, models.RegistrationOpen, tournament.RegistrationType)
}

func TestCreateTournament_KeepsExplicitBodNumber(t *testing.T) {
	repo := &fakeTournamentRepo{
		createFn: func(ctx context.Context, tournament *models.Tournament) error { return nil },
	}
	svc := newTournamentServiceForTest(repo, &fakeMatchRepo{})

	tournament, err := svc.Create(context.Background(), CreateTournamentParams{
		Date:      time.Date(2026, 9, 12, 9, 0, 0, 0, time.UTC),
		BodNumber: 7,
		Format:    models.FormatWomensSingles,
	})
	require.NoError(t, err)
	assert.Equal(t, 7, tournament.BodNumber)
}

func TestCreateTournament_Validation(t *testing.T) {
	svc := newTournamentServiceForTest(&fakeTournamentRepo{}, &fakeMatchRepo{})
	date := time.Date(2026, 9, 12, 9, 0, 0, 0, time.UTC)

	_, err := svc.Create(context.Background(), CreateTournamentParams{Date: date, Format: "XX"})
	assert.ErrorIs(t, err, ErrValidation)

	_, err = svc.Create(context.Background(), CreateTournamentParams{Format: models.FormatMensSingles})
	assert.ErrorIs(t, err, ErrValidation)

	_, err = svc.Create(context.Background(), CreateTournamentParams{
		Date: date, Format: models.FormatMensSingles, MaxPlayers: 12,
	})
	assert.ErrorIs(t, err, ErrMaxPlayersNotPowerOfTwo)
}

func TestUpdateStatus_FollowsTransitionGraph(t *testing.T) {
	current := models.StatusScheduled
	repo := &fakeTournamentRepo{
		getByIDFn: func(ctx context.Context, id int) (*models.Tournament, error) {
			return &models.Tournament{ID: id, Status: current}, nil
		},
		updateStatusFn: func(ctx context.Context, exec repositories.SQLExecutor, id int, status models.TournamentStatus) error {
			current = status
			return nil
		},
	}
	svc := newTournamentServiceForTest(repo, &fakeMatchRepo{})

	tournament, err := svc.UpdateStatus(context.Background(), 1, models.StatusOpen)
	require.NoError(t, err)
	assert.Equal(t, models.StatusOpen, tournament.Status)

	// open -> completed skips active and must fail.
	_, err = svc.UpdateStatus(context.Background(), 1, models.StatusCompleted)
	assert.ErrorIs(t, err, ErrInvalidStatusTransition)

	_, err = svc.UpdateStatus(context.Background(), 1, "bogus")
	assert.ErrorIs(t, err, ErrValidation)
}

func TestComplete_RequiresActiveTournament(t *testing.T) {
	repo := &fakeTournamentRepo{
		getByIDFn: func(ctx context.Context, id int) (*models.Tournament, error) {
			return &models.Tournament{ID: id, Status: models.StatusOpen}, nil
		},
	}
	svc := newTournamentServiceForTest(repo, &fakeMatchRepo{})

	_, err := svc.Complete(context.Background(), 1)
	assert.ErrorIs(t, err, ErrTournamentNotActive)
}

func TestComplete_RequiresAllMatchesResolved(t *testing.T) {
	repo := &fakeTournamentRepo{
		getByIDFn: func(ctx context.Context, id int) (*models.Tournament, error) {
			return &models.Tournament{ID: id, Status: models.StatusActive}, nil
		},
	}
	matchRepo := &fakeMatchRepo{
		countIncompleteFn: func(ctx context.Context, tournamentID int) (int, error) { return 2, nil },
	}
	svc := newTournamentServiceForTest(repo, matchRepo)

	_, err := svc.Complete(context.Background(), 1)
	assert.ErrorIs(t, err, ErrIncompleteMatches)
}

func TestGenerateBracket_RequiresOpenTournament(t *testing.T) {
	repo := &fakeTournamentRepo{
		getByIDFn: func(ctx context.Context, id int) (*models.Tournament, error) {
			return &models.Tournament{ID: id, Status: models.StatusScheduled}, nil
		},
	}
	svc := NewBracketService(
		nil, repo, &fakeMatchRepo{}, nil,
		brackets.NewSeededSingleEliminationGenerator(), brackets.NewHub(testLogger()), testLogger(),
	)

	_, err := svc.GenerateAndSaveBracket(context.Background(), 1)
	assert.ErrorIs(t, err, ErrTournamentNotOpen)
}

func TestGenerateBracket_RejectsExistingBracket(t *testing.T) {
	repo := &fakeTournamentRepo{
		getByIDFn: func(ctx context.Context, id int) (*models.Tournament, error) {
			return &models.Tournament{ID: id, Status: models.StatusOpen, PlayerIDs: []int{1, 2, 3, 4}}, nil
		},
	}
	matchRepo := &fakeMatchRepo{
		countByTournamentFn: func(ctx context.Context, tournamentID int) (int, error) { return 7, nil },
	}
	svc := NewBracketService(
		nil, repo, matchRepo, nil,
		brackets.NewSeededSingleEliminationGenerator(), brackets.NewHub(testLogger()), testLogger(),
	)

	_, err := svc.GenerateAndSaveBracket(context.Background(), 1)
	assert.ErrorIs(t, err, ErrBracketExists)
}
