package services

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/bracket-of-death/backend/models"
	"github.com/bracket-of-death/backend/repositories"
)

type PlayerService struct {
	playerRepo repositories.PlayerRepository
	logger     *slog.Logger
}

func NewPlayerService(playerRepo repositories.PlayerRepository, logger *slog.Logger) *PlayerService {
	return &PlayerService{
		playerRepo: playerRepo,
		logger:     logger,
	}
}

func (s *PlayerService) Create(ctx context.Context, player *models.Player) error {
	player.Name = strings.TrimSpace(player.Name)
	if player.Name == "" {
		return fmt.Errorf("%w: name is required", ErrValidation)
	}
	if player.Gender != models.GenderMale && player.Gender != models.GenderFemale {
		return fmt.Errorf("%w: unknown gender %q", ErrValidation, player.Gender)
	}
	player.IsActive = true

	if err := s.playerRepo.Create(ctx, player); err != nil {
		return err
	}
	s.logger.Info("player created", "player_id", player.ID, "name", player.Name)
	return nil
}

func (s *PlayerService) Get(ctx context.Context, id int) (*models.Player, error) {
	return s.playerRepo.GetByID(ctx, id)
}

func (s *PlayerService) List(ctx context.Context, filter repositories.ListPlayersFilter) ([]models.Player, error) {
	return s.playerRepo.List(ctx, filter)
}

func (s *PlayerService) Update(ctx context.Context, player *models.Player) error {
	player.Name = strings.TrimSpace(player.Name)
	if player.Name == "" {
		return fmt.Errorf("%w: name is required", ErrValidation)
	}
	return s.playerRepo.Update(ctx, player)
}

func (s *PlayerService) Delete(ctx context.Context, id int) error {
	if err := s.playerRepo.Delete(ctx, id); err != nil {
		return err
	}
	s.logger.Info("player deleted", "player_id", id)
	return nil
}

// Leaderboard returns career standings for players with enough history to
// rank meaningfully.
func (s *PlayerService) Leaderboard(ctx context.Context, minBodsPlayed, limit int) ([]repositories.LeaderboardRow, error) {
	if minBodsPlayed <= 0 {
		minBodsPlayed = 3
	}
	if limit <= 0 || limit > 100 {
		limit = 50
	}
	return s.playerRepo.Leaderboard(ctx, minBodsPlayed, limit)
}
