package services

import (
	"context"
	"log/slog"

	"github.com/bracket-of-death/backend/models"
	"github.com/bracket-of-death/backend/repositories"
)

// RecalcSummary reports how a tournament-wide stats recalculation went.
type RecalcSummary struct {
	PlayersUpdated   int   `json:"players_updated"`
	ResultsProcessed int   `json:"results_processed"`
	PlayersFailed    int   `json:"players_failed"`
	FailedIDs        []int `json:"failed_ids,omitempty"`
}

type StatsService struct {
	playerRepo repositories.PlayerRepository
	resultRepo repositories.ResultRepository
	logger     *slog.Logger
}

func NewStatsService(
	playerRepo repositories.PlayerRepository,
	resultRepo repositories.ResultRepository,
	logger *slog.Logger,
) *StatsService {
	return &StatsService{
		playerRepo: playerRepo,
		resultRepo: resultRepo,
		logger:     logger,
	}
}

// RecalculateForPlayer rebuilds one player's career snapshot from every
// tournament result they appear in and overwrites the stored fields. A full
// recompute rather than a delta, so running it twice is harmless.
func (s *StatsService) RecalculateForPlayer(ctx context.Context, playerID int) (*models.PlayerStatsSnapshot, error) {
	if _, err := s.playerRepo.GetByID(ctx, playerID); err != nil {
		return nil, err
	}

	snapshot, err := s.resultRepo.AggregatePlayerStats(ctx, playerID)
	if err != nil {
		return nil, err
	}
	if err := s.playerRepo.UpdateStats(ctx, nil, playerID, *snapshot); err != nil {
		return nil, err
	}

	s.logger.Debug("player stats recalculated",
		"player_id", playerID,
		"bods_played", snapshot.BodsPlayed,
	)
	return snapshot, nil
}

// RecalculateForTournament refreshes every player who has a result in the
// given tournament. One failing player does not stop the rest.
func (s *StatsService) RecalculateForTournament(ctx context.Context, tournamentID int) (*RecalcSummary, error) {
	playerIDs, err := s.resultRepo.DistinctPlayerIDsByTournament(ctx, tournamentID)
	if err != nil {
		return nil, err
	}

	summary := &RecalcSummary{}
	for _, id := range playerIDs {
		snapshot, err := s.RecalculateForPlayer(ctx, id)
		if err != nil {
			s.logger.Error("failed to recalculate player stats",
				"tournament_id", tournamentID,
				"player_id", id,
				"error", err,
			)
			summary.PlayersFailed++
			summary.FailedIDs = append(summary.FailedIDs, id)
			continue
		}
		summary.PlayersUpdated++
		summary.ResultsProcessed += snapshot.BodsPlayed
	}

	s.logger.Info("tournament stats recalculated",
		"tournament_id", tournamentID,
		"updated", summary.PlayersUpdated,
		"failed", summary.PlayersFailed,
	)
	return summary, nil
}
