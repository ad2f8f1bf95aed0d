package services

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"

	"github.com/bracket-of-death/backend/repositories"
	"github.com/google/uuid"
)

// DeletionReport records what a cascading tournament delete removed.
type DeletionReport struct {
	OperationID   string `json:"operation_id"`
	TournamentID  int    `json:"tournament_id"`
	Matches       int64  `json:"matches_deleted"`
	Results       int64  `json:"results_deleted"`
	Registrations int64  `json:"registrations_deleted"`
}

// DeletionService removes a tournament and everything hanging off it in one
// transaction. Every run gets a correlation id so the steps can be tied
// together in the logs.
type DeletionService struct {
	db             *sql.DB
	tournamentRepo repositories.TournamentRepository
	matchRepo      repositories.MatchRepository
	resultRepo     repositories.ResultRepository
	regRepo        repositories.RegistrationRepository
	statsService   *StatsService
	logger         *slog.Logger
}

func NewDeletionService(
	db *sql.DB,
	tournamentRepo repositories.TournamentRepository,
	matchRepo repositories.MatchRepository,
	resultRepo repositories.ResultRepository,
	regRepo repositories.RegistrationRepository,
	statsService *StatsService,
	logger *slog.Logger,
) *DeletionService {
	return &DeletionService{
		db:             db,
		tournamentRepo: tournamentRepo,
		matchRepo:      matchRepo,
		resultRepo:     resultRepo,
		regRepo:        regRepo,
		statsService:   statsService,
		logger:         logger,
	}
}

// DeleteTournament removes the tournament's matches, results, and
// registrations before the tournament row itself, then rebuilds career
// stats for the players whose results disappeared.
func (s *DeletionService) DeleteTournament(ctx context.Context, tournamentID int) (*DeletionReport, error) {
	operationID := uuid.New().String()
	log := s.logger.With("operation_id", operationID, "tournament_id", tournamentID)

	if _, err := s.tournamentRepo.GetByID(ctx, tournamentID); err != nil {
		return nil, err
	}

	// Captured before the delete so stats can be rebuilt afterwards.
	affectedPlayers, err := s.resultRepo.DistinctPlayerIDsByTournament(ctx, tournamentID)
	if err != nil {
		return nil, err
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	report := &DeletionReport{OperationID: operationID, TournamentID: tournamentID}

	report.Matches, err = s.matchRepo.DeleteByTournament(ctx, tx, tournamentID)
	if err != nil {
		return nil, fmt.Errorf("failed to delete matches: %w", err)
	}
	log.Info("matches deleted", "count", report.Matches)

	report.Results, err = s.resultRepo.DeleteByTournament(ctx, tx, tournamentID)
	if err != nil {
		return nil, fmt.Errorf("failed to delete results: %w", err)
	}
	log.Info("results deleted", "count", report.Results)

	report.Registrations, err = s.regRepo.DeleteByTournament(ctx, tx, tournamentID)
	if err != nil {
		return nil, fmt.Errorf("failed to delete registrations: %w", err)
	}
	log.Info("registrations deleted", "count", report.Registrations)

	if err := s.tournamentRepo.Delete(ctx, tx, tournamentID); err != nil {
		return nil, fmt.Errorf("failed to delete tournament: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("failed to commit transaction: %w", err)
	}

	for _, playerID := range affectedPlayers {
		if _, err := s.statsService.RecalculateForPlayer(ctx, playerID); err != nil {
			log.Error("failed to refresh player stats after deletion",
				"player_id", playerID,
				"error", err,
			)
		}
	}

	log.Info("tournament deleted", "players_refreshed", len(affectedPlayers))
	return report, nil
}
