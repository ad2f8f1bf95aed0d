package services

import (
	"context"
	"testing"

	"github.com/bracket-of-death/backend/brackets"
	"github.com/bracket-of-death/backend/models"
	"github.com/bracket-of-death/backend/repositories"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func activeTournamentRepo() *fakeTournamentRepo {
	return &fakeTournamentRepo{
		getByIDFn: func(ctx context.Context, id int) (*models.Tournament, error) {
			return &models.Tournament{ID: id, Status: models.StatusActive, Format: models.FormatMensSingles}, nil
		},
	}
}

func matchRepoReturning(m *models.Match) *fakeMatchRepo {
	return &fakeMatchRepo{
		getByNumberFn: func(ctx context.Context, tournamentID, matchNumber int) (*models.Match, error) {
			return m, nil
		},
	}
}

func scheduledMatch() *models.Match {
	return &models.Match{
		ID:           10,
		TournamentID: 1,
		MatchNumber:  1,
		Round:        models.Quarterfinal,
		Status:       models.MatchStatusScheduled,
		Team1:        models.MatchTeam{PlayerIDs: []int{1}, PlayerNames: []string{"Ada"}, Seed: 1},
		Team2:        models.MatchTeam{PlayerIDs: []int{2}, PlayerNames: []string{"Ben"}, Seed: 2},
	}
}

func newMatchServiceForTest(tournamentRepo *fakeTournamentRepo, matchRepo *fakeMatchRepo) *MatchService {
	return NewMatchService(nil, matchRepo, tournamentRepo, &fakeResultRepo{}, brackets.NewHub(testLogger()), testLogger())
}

func TestSubmitScore_RejectsInactiveTournament(t *testing.T) {
	repo := &fakeTournamentRepo{
		getByIDFn: func(ctx context.Context, id int) (*models.Tournament, error) {
			return &models.Tournament{ID: id, Status: models.StatusOpen}, nil
		},
	}
	svc := newMatchServiceForTest(repo, matchRepoReturning(scheduledMatch()))

	_, err := svc.SubmitScore(context.Background(), SubmitScoreParams{
		TournamentID: 1, MatchNumber: 1, Team1Score: 11, Team2Score: 5,
	})
	assert.ErrorIs(t, err, ErrTournamentNotActive)
}

func TestSubmitScore_RejectsCompletedMatch(t *testing.T) {
	m := scheduledMatch()
	m.Status = models.MatchStatusCompleted
	svc := newMatchServiceForTest(activeTournamentRepo(), matchRepoReturning(m))

	_, err := svc.SubmitScore(context.Background(), SubmitScoreParams{
		TournamentID: 1, MatchNumber: 1, Team1Score: 11, Team2Score: 5,
	})
	assert.ErrorIs(t, err, ErrMatchCompleted)
}

func TestSubmitScore_RejectsUndeterminedTeams(t *testing.T) {
	m := scheduledMatch()
	m.Team2 = models.MatchTeam{}
	svc := newMatchServiceForTest(activeTournamentRepo(), matchRepoReturning(m))

	_, err := svc.SubmitScore(context.Background(), SubmitScoreParams{
		TournamentID: 1, MatchNumber: 1, Team1Score: 11, Team2Score: 5,
	})
	assert.ErrorIs(t, err, ErrMatchTeamsIncomplete)
}

func TestSubmitScore_RejectsTies(t *testing.T) {
	svc := newMatchServiceForTest(activeTournamentRepo(), matchRepoReturning(scheduledMatch()))

	_, err := svc.SubmitScore(context.Background(), SubmitScoreParams{
		TournamentID: 1, MatchNumber: 1, Team1Score: 10, Team2Score: 10,
	})
	assert.ErrorIs(t, err, ErrTieScore)
}

func TestSubmitScore_NonStandardScoreNeedsOverride(t *testing.T) {
	svc := newMatchServiceForTest(activeTournamentRepo(), matchRepoReturning(scheduledMatch()))

	_, err := svc.SubmitScore(context.Background(), SubmitScoreParams{
		TournamentID: 1, MatchNumber: 1, Team1Score: 9, Team2Score: 7,
	})
	assert.ErrorIs(t, err, ErrScoreNotStandard)
}

func TestSubmitScore_OverrideNeedsReasonAndAuthorizer(t *testing.T) {
	svc := newMatchServiceForTest(activeTournamentRepo(), matchRepoReturning(scheduledMatch()))

	_, err := svc.SubmitScore(context.Background(), SubmitScoreParams{
		TournamentID: 1, MatchNumber: 1, Team1Score: 9, Team2Score: 7,
		Override: &models.AdminOverride{Reason: "rain delay"},
	})
	assert.ErrorIs(t, err, ErrValidation)
}

func TestFinishForRound(t *testing.T) {
	winner, loser := finishForRound(models.Final)
	assert.Equal(t, 1.0, *winner)
	assert.Equal(t, 2.0, *loser)

	winner, loser = finishForRound(models.Semifinal)
	assert.Equal(t, 2.0, *winner)
	assert.Equal(t, 3.0, *loser)

	winner, loser = finishForRound(models.Quarterfinal)
	assert.Nil(t, winner)
	assert.Nil(t, loser)
}

func TestSubmitScore_CompletesMatchAndAdvancesWinner(t *testing.T) {
	m := scheduledMatch()
	next, slot := 3, 1
	m.NextMatchNumber = &next
	m.NextSlot = &slot

	var savedMatch *models.Match
	var advancedMatch, advancedSlot int
	var advancedTeam models.MatchTeam
	matchRepo := matchRepoReturning(m)
	matchRepo.updateResultFn = func(ctx context.Context, exec repositories.SQLExecutor, match *models.Match) error {
		savedMatch = match
		return nil
	}
	matchRepo.updateTeamSlotFn = func(ctx context.Context, exec repositories.SQLExecutor, tournamentID, matchNumber, slot int, team models.MatchTeam) error {
		advancedMatch, advancedSlot, advancedTeam = matchNumber, slot, team
		return nil
	}

	created := make(map[int]*models.TournamentResult)
	resultRepo := &fakeResultRepo{
		findByPlayerSetFn: func(ctx context.Context, exec repositories.SQLExecutor, tournamentID int, playerIDs []int) (*models.TournamentResult, error) {
			return nil, nil
		},
		createFn: func(ctx context.Context, exec repositories.SQLExecutor, result *models.TournamentResult) error {
			created[result.PlayerIDs[0]] = result
			return nil
		},
	}

	svc := NewMatchService(testDB(t), matchRepo, activeTournamentRepo(), resultRepo, brackets.NewHub(testLogger()), testLogger())

	got, err := svc.SubmitScore(context.Background(), SubmitScoreParams{
		TournamentID: 1, MatchNumber: 1, Team1Score: 11, Team2Score: 7,
	})
	require.NoError(t, err)

	require.NotNil(t, got.Winner)
	assert.Equal(t, models.WinnerTeam1, *got.Winner)
	assert.Equal(t, models.MatchStatusCompleted, got.Status)
	assert.Equal(t, 11, got.Team1.Score)
	assert.Equal(t, 7, got.Team2.Score)
	assert.NotNil(t, got.CompletedDate)
	assert.Same(t, m, savedMatch)

	// The winning side moves into its linked slot.
	assert.Equal(t, 3, advancedMatch)
	assert.Equal(t, 1, advancedSlot)
	assert.Equal(t, []int{1}, advancedTeam.PlayerIDs)

	// Both teams get a fresh tournament result with the outcome folded in.
	require.Len(t, created, 2)
	winner := created[1]
	require.NotNil(t, winner)
	assert.Equal(t, 1, winner.BracketScores.BracketPlayed)
	assert.Equal(t, 1, winner.BracketScores.BracketWon)
	assert.Equal(t, 0, winner.BracketScores.BracketLost)
	assert.Equal(t, 1, winner.TotalStats.TotalWon)
	assert.Equal(t, 1, winner.TotalStats.TotalPlayed)
	assert.Equal(t, 1.0, winner.TotalStats.WinPercentage)
	assert.Nil(t, winner.TotalStats.BodFinish) // quarterfinal sets no placement

	loser := created[2]
	require.NotNil(t, loser)
	assert.Equal(t, 1, loser.BracketScores.BracketPlayed)
	assert.Equal(t, 1, loser.BracketScores.BracketLost)
	assert.Equal(t, 0, loser.TotalStats.TotalWon)
}

func TestSubmitScore_FinalRecordsPlacements(t *testing.T) {
	m := scheduledMatch()
	m.Round = models.Final

	matchRepo := matchRepoReturning(m)
	matchRepo.updateResultFn = func(ctx context.Context, exec repositories.SQLExecutor, match *models.Match) error {
		return nil
	}

	// Both teams already carry results from earlier rounds.
	existing := map[int]*models.TournamentResult{
		1: {TournamentID: 1, PlayerIDs: []int{1}, BracketScores: models.BracketScores{BracketWon: 2, BracketPlayed: 2}},
		2: {TournamentID: 1, PlayerIDs: []int{2}, BracketScores: models.BracketScores{BracketWon: 2, BracketPlayed: 2}},
	}
	var updated []*models.TournamentResult
	resultRepo := &fakeResultRepo{
		findByPlayerSetFn: func(ctx context.Context, exec repositories.SQLExecutor, tournamentID int, playerIDs []int) (*models.TournamentResult, error) {
			return existing[playerIDs[0]], nil
		},
		updateFn: func(ctx context.Context, exec repositories.SQLExecutor, result *models.TournamentResult) error {
			updated = append(updated, result)
			return nil
		},
	}

	svc := NewMatchService(testDB(t), matchRepo, activeTournamentRepo(), resultRepo, brackets.NewHub(testLogger()), testLogger())

	got, err := svc.SubmitScore(context.Background(), SubmitScoreParams{
		TournamentID: 1, MatchNumber: 1, Team1Score: 5, Team2Score: 7,
		Override: &models.AdminOverride{Reason: "rain shortened", AuthorizedBy: "director"},
	})
	require.NoError(t, err)
	require.Len(t, updated, 2)

	require.NotNil(t, got.AdminOverride)
	assert.Equal(t, "director", got.AdminOverride.AuthorizedBy)
	assert.False(t, got.AdminOverride.Timestamp.IsZero())

	champion := existing[2]
	require.NotNil(t, champion.TotalStats.BodFinish)
	assert.Equal(t, 1.0, *champion.TotalStats.BodFinish)
	assert.Equal(t, 3, champion.BracketScores.BracketWon)
	assert.Equal(t, 3, champion.BracketScores.BracketPlayed)

	runnerUp := existing[1]
	require.NotNil(t, runnerUp.TotalStats.BodFinish)
	assert.Equal(t, 2.0, *runnerUp.TotalStats.BodFinish)
	assert.Equal(t, 1, runnerUp.BracketScores.BracketLost)
}
