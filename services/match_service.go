package services

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"strconv"
	"time"

	"github.com/bracket-of-death/backend/brackets"
	"github.com/bracket-of-death/backend/models"
	"github.com/bracket-of-death/backend/repositories"
	"github.com/bracket-of-death/backend/utils"
)

// SubmitScoreParams carries one reported final score. Override must be set
// to accept a score outside the standard patterns.
type SubmitScoreParams struct {
	TournamentID int
	MatchNumber  int
	Team1Score   int
	Team2Score   int
	Override     *models.AdminOverride
}

type MatchService struct {
	db             *sql.DB
	matchRepo      repositories.MatchRepository
	tournamentRepo repositories.TournamentRepository
	resultRepo     repositories.ResultRepository
	hub            *brackets.Hub
	logger         *slog.Logger
	now            func() time.Time
}

func NewMatchService(
	db *sql.DB,
	matchRepo repositories.MatchRepository,
	tournamentRepo repositories.TournamentRepository,
	resultRepo repositories.ResultRepository,
	hub *brackets.Hub,
	logger *slog.Logger,
) *MatchService {
	return &MatchService{
		db:             db,
		matchRepo:      matchRepo,
		tournamentRepo: tournamentRepo,
		resultRepo:     resultRepo,
		hub:            hub,
		logger:         logger,
		now:            time.Now,
	}
}

func (s *MatchService) GetMatch(ctx context.Context, tournamentID, matchNumber int) (*models.Match, error) {
	return s.matchRepo.GetByNumber(ctx, tournamentID, matchNumber)
}

func (s *MatchService) ListMatches(ctx context.Context, tournamentID int, status *models.MatchStatus) ([]*models.Match, error) {
	return s.matchRepo.ListByTournament(ctx, tournamentID, status)
}

// SubmitScore records a final score, completes the match, advances the
// winner into its next slot, and folds the outcome into both teams'
// tournament results, all in one transaction. A completed match cannot be
// scored again, which keeps the result aggregation exactly-once.
func (s *MatchService) SubmitScore(ctx context.Context, params SubmitScoreParams) (*models.Match, error) {
	tournament, err := s.tournamentRepo.GetByID(ctx, params.TournamentID)
	if err != nil {
		return nil, err
	}
	if tournament.Status != models.StatusActive {
		return nil, ErrTournamentNotActive
	}

	match, err := s.matchRepo.GetByNumber(ctx, params.TournamentID, params.MatchNumber)
	if err != nil {
		return nil, err
	}
	if match.Status == models.MatchStatusCompleted {
		return nil, ErrMatchCompleted
	}
	if match.Team1.IsTBD() || match.Team2.IsTBD() {
		return nil, ErrMatchTeamsIncomplete
	}

	if params.Team1Score == params.Team2Score {
		return nil, ErrTieScore
	}
	if validation := utils.ValidateTennisScore(params.Team1Score, params.Team2Score); !validation.IsValid {
		if params.Override == nil {
			return nil, fmt.Errorf("%w: %s", ErrScoreNotStandard, validation.Reason)
		}
		if params.Override.Reason == "" || params.Override.AuthorizedBy == "" {
			return nil, fmt.Errorf("%w: override needs a reason and an authorizer", ErrValidation)
		}
		match.AdminOverride = &models.AdminOverride{
			Reason:       params.Override.Reason,
			AuthorizedBy: params.Override.AuthorizedBy,
			Timestamp:    s.now(),
		}
	}

	match.Team1.Score = params.Team1Score
	match.Team2.Score = params.Team2Score
	winner := models.WinnerTeam1
	if params.Team2Score > params.Team1Score {
		winner = models.WinnerTeam2
	}
	match.Winner = &winner
	match.Status = models.MatchStatusCompleted
	completedAt := s.now()
	match.CompletedDate = &completedAt

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	if err := s.matchRepo.UpdateResult(ctx, tx, match); err != nil {
		return nil, err
	}

	winningTeam, losingTeam, _ := match.WinningTeam()
	if match.NextMatchNumber != nil && match.NextSlot != nil {
		err := s.matchRepo.UpdateTeamSlot(ctx, tx, match.TournamentID, *match.NextMatchNumber, *match.NextSlot, *winningTeam)
		if err != nil {
			return nil, fmt.Errorf("failed to advance winner to match %d: %w", *match.NextMatchNumber, err)
		}
	}

	winnerFinish, loserFinish := finishForRound(match.Round)
	if err := s.recordOutcome(ctx, tx, tournament, *winningTeam, true, winnerFinish); err != nil {
		return nil, err
	}
	if err := s.recordOutcome(ctx, tx, tournament, *losingTeam, false, loserFinish); err != nil {
		return nil, err
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("failed to commit transaction: %w", err)
	}

	s.logger.Info("match completed",
		"tournament_id", match.TournamentID,
		"match_number", match.MatchNumber,
		"round", match.Round,
		"score", fmt.Sprintf("%d-%d", params.Team1Score, params.Team2Score),
		"override", match.AdminOverride != nil,
	)
	s.hub.BroadcastToRoom(strconv.Itoa(match.TournamentID), brackets.LiveMessage{
		Type:    brackets.EventMatchUpdated,
		Payload: match,
	})

	return match, nil
}

// finishForRound maps the last two rounds onto placements. The semifinal
// winner gets a provisional 2 that the final overwrites for the champion.
func finishForRound(round models.MatchRound) (winner, loser *float64) {
	f := func(v float64) *float64 { return &v }
	switch round {
	case models.Final:
		return f(1), f(2)
	case models.Semifinal:
		return f(2), f(3)
	}
	return nil, nil
}

// recordOutcome folds one completed match into a team's tournament result,
// creating the result lazily on the team's first recorded score.
func (s *MatchService) recordOutcome(ctx context.Context, tx *sql.Tx, tournament *models.Tournament, team models.MatchTeam, won bool, finish *float64) error {
	result, err := s.resultRepo.FindByPlayerSet(ctx, tx, tournament.ID, team.PlayerIDs)
	if err != nil {
		return err
	}

	created := false
	if result == nil {
		created = true
		result = &models.TournamentResult{
			TournamentID: tournament.ID,
			PlayerIDs:    models.CanonicalPlayerSet(team.PlayerIDs),
			Division:     tournament.Format,
			Seed:         team.Seed,
		}
	}

	result.BracketScores.BracketPlayed++
	if won {
		result.BracketScores.BracketWon++
	} else {
		result.BracketScores.BracketLost++
	}
	if finish != nil {
		result.TotalStats.BodFinish = finish
	}
	result.RecomputeTotals()

	if created {
		return s.resultRepo.Create(ctx, tx, result)
	}
	return s.resultRepo.Update(ctx, tx, result)
}
