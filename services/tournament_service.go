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
	"golang.org/x/sync/errgroup"
)

// CreateTournamentParams is the admin-facing creation payload. BodNumber
// zero means "assign the next one".
type CreateTournamentParams struct {
	Date                  time.Time
	BodNumber             int
	Format                models.TournamentFormat
	Location              *string
	MaxPlayers            int
	RegistrationType      models.RegistrationType
	AllowSelfRegistration bool
	RegistrationOpensAt   *time.Time
	RegistrationDeadline  *time.Time
	Notes                 *string
}

// CompletionReport is the outcome of finalizing a tournament.
type CompletionReport struct {
	Tournament *models.Tournament `json:"tournament"`
	Champion   *models.Champion   `json:"champion,omitempty"`
	Stats      *RecalcSummary     `json:"stats"`
}

type TournamentService struct {
	db             *sql.DB
	tournamentRepo repositories.TournamentRepository
	matchRepo      repositories.MatchRepository
	resultRepo     repositories.ResultRepository
	playerRepo     repositories.PlayerRepository
	regRepo        repositories.RegistrationRepository
	statsService   *StatsService
	hub            *brackets.Hub
	logger         *slog.Logger
}

func NewTournamentService(
	db *sql.DB,
	tournamentRepo repositories.TournamentRepository,
	matchRepo repositories.MatchRepository,
	resultRepo repositories.ResultRepository,
	playerRepo repositories.PlayerRepository,
	regRepo repositories.RegistrationRepository,
	statsService *StatsService,
	hub *brackets.Hub,
	logger *slog.Logger,
) *TournamentService {
	return &TournamentService{
		db:             db,
		tournamentRepo: tournamentRepo,
		matchRepo:      matchRepo,
		resultRepo:     resultRepo,
		playerRepo:     playerRepo,
		regRepo:        regRepo,
		statsService:   statsService,
		hub:            hub,
		logger:         logger,
	}
}

// Create validates and stores a new tournament in the scheduled state.
// Capacity must be a power of two so the bracket fills without structural
// byes beyond the first round.
func (s *TournamentService) Create(ctx context.Context, params CreateTournamentParams) (*models.Tournament, error) {
	switch params.Format {
	case models.FormatMensSingles, models.FormatWomensSingles,
		models.FormatMensDoubles, models.FormatWomensDoubles, models.FormatMixedDoubles:
	default:
		return nil, fmt.Errorf("%w: unknown format %q", ErrValidation, params.Format)
	}
	if params.Date.IsZero() {
		return nil, fmt.Errorf("%w: date is required", ErrValidation)
	}

	maxPlayers := params.MaxPlayers
	if maxPlayers == 0 {
		maxPlayers = models.DefaultMaxPlayers
	}
	if !models.IsPowerOfTwo(maxPlayers) {
		return nil, ErrMaxPlayersNotPowerOfTwo
	}

	bodNumber := params.BodNumber
	if bodNumber == 0 {
		next, err := s.tournamentRepo.NextBodNumber(ctx)
		if err != nil {
			return nil, fmt.Errorf("failed to assign bod number: %w", err)
		}
		bodNumber = next
	}

	registrationType := params.RegistrationType
	if registrationType == "" {
		registrationType = models.RegistrationOpen
	}

	tournament := &models.Tournament{
		Date:                  params.Date,
		BodNumber:             bodNumber,
		Format:                params.Format,
		Location:              params.Location,
		Status:                models.StatusScheduled,
		MaxPlayers:            maxPlayers,
		RegistrationType:      registrationType,
		AllowSelfRegistration: params.AllowSelfRegistration,
		RegistrationOpensAt:   params.RegistrationOpensAt,
		RegistrationDeadline:  params.RegistrationDeadline,
		PlayerIDs:             []int{},
		Notes:                 params.Notes,
	}
	if err := s.tournamentRepo.Create(ctx, tournament); err != nil {
		return nil, err
	}

	s.logger.Info("tournament created",
		"tournament_id", tournament.ID,
		"bod_number", tournament.BodNumber,
		"format", tournament.Format,
	)
	return tournament, nil
}

func (s *TournamentService) Get(ctx context.Context, id int) (*models.Tournament, error) {
	return s.tournamentRepo.GetByID(ctx, id)
}

// GetWithDetails loads a tournament plus its registrations and matches
// concurrently.
func (s *TournamentService) GetWithDetails(ctx context.Context, id int) (*models.Tournament, error) {
	tournament, err := s.tournamentRepo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	g, gCtx := errgroup.WithContext(ctx)

	var entries []models.RegistrationEntry
	var matches []*models.Match

	g.Go(func() error {
		var err error
		entries, err = s.regRepo.ListByTournament(gCtx, id)
		return err
	})
	g.Go(func() error {
		var err error
		matches, err = s.matchRepo.ListByTournament(gCtx, id, nil)
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}

	tournament.RegisteredPlayers = make([]models.RegistrationEntry, 0)
	tournament.WaitlistPlayers = make([]models.RegistrationEntry, 0)
	for _, e := range entries {
		if e.List == models.ListRegistered {
			tournament.RegisteredPlayers = append(tournament.RegisteredPlayers, e)
		} else {
			tournament.WaitlistPlayers = append(tournament.WaitlistPlayers, e)
		}
	}
	tournament.Matches = make([]models.Match, 0, len(matches))
	for _, m := range matches {
		tournament.Matches = append(tournament.Matches, *m)
	}
	return tournament, nil
}

func (s *TournamentService) List(ctx context.Context, filter repositories.ListTournamentsFilter) ([]models.Tournament, error) {
	return s.tournamentRepo.List(ctx, filter)
}

// Update edits schedule and registration settings. Status and bod number
// are immutable here; status moves only through UpdateStatus.
func (s *TournamentService) Update(ctx context.Context, tournament *models.Tournament) error {
	if tournament.MaxPlayers != 0 && !models.IsPowerOfTwo(tournament.MaxPlayers) {
		return ErrMaxPlayersNotPowerOfTwo
	}
	return s.tournamentRepo.Update(ctx, tournament)
}

// UpdateStatus moves a tournament through its lifecycle, rejecting
// transitions the status graph does not allow.
func (s *TournamentService) UpdateStatus(ctx context.Context, id int, next models.TournamentStatus) (*models.Tournament, error) {
	if !next.IsValid() {
		return nil, fmt.Errorf("%w: unknown status %q", ErrValidation, next)
	}

	tournament, err := s.tournamentRepo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if !tournament.Status.CanTransitionTo(next) {
		return nil, fmt.Errorf("%w: %s -> %s", ErrInvalidStatusTransition, tournament.Status, next)
	}

	if err := s.tournamentRepo.UpdateStatus(ctx, nil, id, next); err != nil {
		return nil, err
	}
	previous := tournament.Status
	tournament.Status = next

	s.logger.Info("tournament status changed",
		"tournament_id", id,
		"from", previous,
		"to", next,
	)
	s.hub.BroadcastToRoom(strconv.Itoa(id), brackets.LiveMessage{
		Type:    brackets.EventTournamentUpdated,
		Payload: tournament,
	})
	return tournament, nil
}

// Complete finalizes an active tournament: every match must be resolved,
// the champion is read from the final's result and denormalized onto the
// tournament, and affected players get their career stats rebuilt.
func (s *TournamentService) Complete(ctx context.Context, id int) (*CompletionReport, error) {
	tournament, err := s.tournamentRepo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if tournament.Status != models.StatusActive {
		return nil, ErrTournamentNotActive
	}

	incomplete, err := s.matchRepo.CountIncomplete(ctx, id)
	if err != nil {
		return nil, err
	}
	if incomplete > 0 {
		return nil, fmt.Errorf("%w: %d remaining", ErrIncompleteMatches, incomplete)
	}

	champion, err := s.findChampion(ctx, id)
	if err != nil {
		return nil, err
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	if champion != nil {
		if err := s.tournamentRepo.UpdateChampion(ctx, tx, id, champion); err != nil {
			return nil, err
		}
	}
	if err := s.tournamentRepo.UpdateStatus(ctx, tx, id, models.StatusCompleted); err != nil {
		return nil, err
	}
	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("failed to commit transaction: %w", err)
	}
	tournament.Status = models.StatusCompleted
	tournament.Champion = champion

	stats, err := s.statsService.RecalculateForTournament(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("tournament completed but stats recalculation failed: %w", err)
	}

	s.logger.Info("tournament completed",
		"tournament_id", id,
		"bod_number", tournament.BodNumber,
		"players_updated", stats.PlayersUpdated,
	)
	s.hub.BroadcastToRoom(strconv.Itoa(id), brackets.LiveMessage{
		Type:    brackets.EventTournamentUpdated,
		Payload: tournament,
	})

	return &CompletionReport{Tournament: tournament, Champion: champion, Stats: stats}, nil
}

// findChampion resolves the result holding first place and snapshots the
// winning side's ids and names.
func (s *TournamentService) findChampion(ctx context.Context, tournamentID int) (*models.Champion, error) {
	results, err := s.resultRepo.ListByTournament(ctx, tournamentID)
	if err != nil {
		return nil, err
	}

	for _, r := range results {
		finish, ok := r.FinishValue()
		if !ok || finish != 1 {
			continue
		}
		players, err := s.playerRepo.GetByIDs(ctx, r.PlayerIDs)
		if err != nil {
			return nil, err
		}
		names := make([]string, 0, len(players))
		for _, p := range players {
			names = append(names, p.Name)
		}
		resultID := r.ID
		return &models.Champion{
			PlayerIDs:   r.PlayerIDs,
			PlayerNames: names,
			ResultID:    &resultID,
		}, nil
	}
	return nil, nil
}
