package services

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"time"

	"github.com/bracket-of-death/backend/models"
	"github.com/bracket-of-death/backend/repositories"
)

// RegistrationInfo is the registration view of one tournament.
type RegistrationInfo struct {
	TournamentID    int                        `json:"tournament_id"`
	MaxPlayers      int                        `json:"max_players"`
	RegisteredCount int                        `json:"registered_count"`
	WaitlistCount   int                        `json:"waitlist_count"`
	SpotsRemaining  int                        `json:"spots_remaining"`
	Registered      []models.RegistrationEntry `json:"registered"`
	Waitlist        []models.RegistrationEntry `json:"waitlist"`
}

type RegistrationService struct {
	db             *sql.DB
	regRepo        repositories.RegistrationRepository
	tournamentRepo repositories.TournamentRepository
	playerRepo     repositories.PlayerRepository
	logger         *slog.Logger
	now            func() time.Time
}

func NewRegistrationService(
	db *sql.DB,
	regRepo repositories.RegistrationRepository,
	tournamentRepo repositories.TournamentRepository,
	playerRepo repositories.PlayerRepository,
	logger *slog.Logger,
) *RegistrationService {
	return &RegistrationService{
		db:             db,
		regRepo:        regRepo,
		tournamentRepo: tournamentRepo,
		playerRepo:     playerRepo,
		logger:         logger,
		now:            time.Now,
	}
}

// Register places a player on the registered list, or on the waitlist when
// the tournament is at capacity. Capacity is enforced by a conditional
// insert so two concurrent registrations can never both claim the last
// spot. asSelf marks player-initiated signups, which honor the tournament's
// self-registration switch; admin-initiated ones bypass it.
func (s *RegistrationService) Register(ctx context.Context, tournamentID, playerID int, asSelf bool) (*models.RegistrationEntry, error) {
	tournament, err := s.tournamentRepo.GetByID(ctx, tournamentID)
	if err != nil {
		return nil, err
	}
	if tournament.Status != models.StatusOpen {
		return nil, ErrTournamentNotOpen
	}
	if asSelf {
		if !tournament.AllowSelfRegistration {
			return nil, ErrSelfRegistrationOff
		}
		if !tournament.RegistrationWindowOpen(s.now()) {
			return nil, ErrRegistrationWindow
		}
	}

	if _, err := s.playerRepo.GetByID(ctx, playerID); err != nil {
		return nil, err
	}

	inserted, err := s.regRepo.InsertIfCapacity(ctx, tournamentID, playerID, tournament.EffectiveMaxPlayers())
	if err != nil {
		return nil, err
	}
	list := models.ListRegistered
	if !inserted {
		list = models.ListWaitlist
		if err := s.regRepo.Insert(ctx, tournamentID, playerID, list); err != nil {
			return nil, err
		}
	}

	entry, err := s.regRepo.Find(ctx, tournamentID, playerID)
	if err != nil {
		return nil, err
	}
	if entry == nil {
		return nil, repositories.ErrRegistrationNotFound
	}

	s.logger.Info("player registered",
		"tournament_id", tournamentID,
		"player_id", playerID,
		"list", entry.List,
	)
	return entry, nil
}

// Unregister removes a player from either list. When a registered player
// leaves, the earliest waitlisted player is promoted in the same
// transaction so the freed spot cannot be lost. Leaving a cancelled
// tournament is allowed as cleanup; only a running or finished bracket
// locks the lists.
func (s *RegistrationService) Unregister(ctx context.Context, tournamentID, playerID int) (*models.RegistrationEntry, error) {
	tournament, err := s.tournamentRepo.GetByID(ctx, tournamentID)
	if err != nil {
		return nil, err
	}
	if tournament.Status == models.StatusActive || tournament.Status == models.StatusCompleted {
		return nil, ErrTournamentNotOpen
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	removed, err := s.regRepo.Remove(ctx, tx, tournamentID, playerID)
	if err != nil {
		return nil, err
	}

	var promoted *models.RegistrationEntry
	if removed.List == models.ListRegistered {
		promoted, err = s.regRepo.PromoteEarliestWaitlisted(ctx, tx, tournamentID)
		if err != nil {
			return nil, err
		}
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("failed to commit transaction: %w", err)
	}

	if promoted != nil {
		s.logger.Info("waitlisted player promoted",
			"tournament_id", tournamentID,
			"player_id", promoted.PlayerID,
		)
	}
	return promoted, nil
}

// GetRegistrationInfo returns both lists in FIFO order plus capacity counts.
func (s *RegistrationService) GetRegistrationInfo(ctx context.Context, tournamentID int) (*RegistrationInfo, error) {
	tournament, err := s.tournamentRepo.GetByID(ctx, tournamentID)
	if err != nil {
		return nil, err
	}

	entries, err := s.regRepo.ListByTournament(ctx, tournamentID)
	if err != nil {
		return nil, err
	}

	info := &RegistrationInfo{
		TournamentID: tournamentID,
		MaxPlayers:   tournament.EffectiveMaxPlayers(),
		Registered:   make([]models.RegistrationEntry, 0),
		Waitlist:     make([]models.RegistrationEntry, 0),
	}
	for _, e := range entries {
		if e.List == models.ListRegistered {
			info.Registered = append(info.Registered, e)
		} else {
			info.Waitlist = append(info.Waitlist, e)
		}
	}
	info.RegisteredCount = len(info.Registered)
	info.WaitlistCount = len(info.Waitlist)
	info.SpotsRemaining = info.MaxPlayers - info.RegisteredCount
	if info.SpotsRemaining < 0 {
		info.SpotsRemaining = 0
	}
	return info, nil
}

// FinalizeRoster copies the registered list onto the tournament's player
// roster. Called when registration closes, before bracket generation.
func (s *RegistrationService) FinalizeRoster(ctx context.Context, tournamentID int) ([]int, error) {
	tournament, err := s.tournamentRepo.GetByID(ctx, tournamentID)
	if err != nil {
		return nil, err
	}
	if tournament.Status != models.StatusOpen {
		return nil, ErrTournamentNotOpen
	}

	entries, err := s.regRepo.ListByTournament(ctx, tournamentID)
	if err != nil {
		return nil, err
	}

	playerIDs := make([]int, 0, len(entries))
	for _, e := range entries {
		if e.List == models.ListRegistered {
			playerIDs = append(playerIDs, e.PlayerID)
		}
	}
	if len(playerIDs) < 2 {
		return nil, ErrInsufficientPlayers
	}
	if err := s.tournamentRepo.UpdatePlayers(ctx, nil, tournamentID, playerIDs); err != nil {
		return nil, err
	}

	s.logger.Info("roster finalized", "tournament_id", tournamentID, "players", len(playerIDs))
	return playerIDs, nil
}
