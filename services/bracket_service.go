package services

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"sort"
	"strconv"

	"github.com/bracket-of-death/backend/brackets"
	"github.com/bracket-of-death/backend/models"
	"github.com/bracket-of-death/backend/repositories"
	"golang.org/x/sync/errgroup"
)

// FullBracket bundles a tournament with its ordered match list.
type FullBracket struct {
	Tournament *models.Tournament `json:"tournament"`
	Matches    []*models.Match    `json:"matches"`
}

type BracketService struct {
	db             *sql.DB
	tournamentRepo repositories.TournamentRepository
	matchRepo      repositories.MatchRepository
	seedingService *SeedingService
	generator      brackets.BracketGenerator
	hub            *brackets.Hub
	logger         *slog.Logger
}

func NewBracketService(
	db *sql.DB,
	tournamentRepo repositories.TournamentRepository,
	matchRepo repositories.MatchRepository,
	seedingService *SeedingService,
	generator brackets.BracketGenerator,
	hub *brackets.Hub,
	logger *slog.Logger,
) *BracketService {
	return &BracketService{
		db:             db,
		tournamentRepo: tournamentRepo,
		matchRepo:      matchRepo,
		seedingService: seedingService,
		generator:      generator,
		hub:            hub,
		logger:         logger,
	}
}

// GenerateAndSaveBracket seeds the tournament roster, builds the single
// elimination bracket, and persists it atomically together with the
// open -> active status transition. For doubles formats, adjacent seeds
// are paired into teams before generation.
func (s *BracketService) GenerateAndSaveBracket(ctx context.Context, tournamentID int) (*FullBracket, error) {
	tournament, err := s.tournamentRepo.GetByID(ctx, tournamentID)
	if err != nil {
		return nil, err
	}
	if tournament.Status != models.StatusOpen {
		return nil, ErrTournamentNotOpen
	}

	existing, err := s.matchRepo.CountByTournament(ctx, tournamentID)
	if err != nil {
		return nil, err
	}
	if existing > 0 {
		return nil, ErrBracketExists
	}

	entrants, err := s.buildEntrants(ctx, tournament)
	if err != nil {
		return nil, err
	}

	matches, err := s.generator.GenerateBracket(ctx, brackets.GenerateBracketParams{
		TournamentID: tournamentID,
		Entrants:     entrants,
	})
	if err != nil {
		return nil, fmt.Errorf("bracket generation failed: %w", err)
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	if err := s.matchRepo.CreateBatch(ctx, tx, matches); err != nil {
		return nil, err
	}
	if err := s.tournamentRepo.UpdateStatus(ctx, tx, tournamentID, models.StatusActive); err != nil {
		return nil, err
	}
	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("failed to commit transaction: %w", err)
	}
	tournament.Status = models.StatusActive

	s.logger.Info("bracket generated",
		"tournament_id", tournamentID,
		"entrants", len(entrants),
		"matches", len(matches),
	)
	s.hub.BroadcastToRoom(strconv.Itoa(tournamentID), brackets.LiveMessage{
		Type:    brackets.EventBracketGenerated,
		Payload: map[string]interface{}{"tournament_id": tournamentID, "matches": len(matches)},
	})

	return &FullBracket{Tournament: tournament, Matches: matches}, nil
}

// buildEntrants resolves the roster into seeded bracket entrants. Singles
// formats seed players directly; doubles formats pair adjacent seeds
// (1 with 2, 3 with 4, ...) so teams are competitively balanced, then
// re-seed the teams by combined score.
func (s *BracketService) buildEntrants(ctx context.Context, tournament *models.Tournament) ([]brackets.SeededEntrant, error) {
	if len(tournament.PlayerIDs) < 2 {
		return nil, ErrInsufficientPlayers
	}

	seeded, err := s.seedingService.CalculateSeeding(ctx, tournament.PlayerIDs, tournament.Format)
	if err != nil {
		return nil, err
	}

	if !tournament.Format.IsDoubles() {
		entrants := make([]brackets.SeededEntrant, 0, len(seeded))
		for _, sp := range seeded {
			entrants = append(entrants, brackets.SeededEntrant{
				PlayerIDs:   []int{sp.PlayerID},
				PlayerNames: []string{sp.PlayerName},
				Seed:        sp.Seed,
				Score:       int(sp.Score),
			})
		}
		return entrants, nil
	}

	if len(seeded)%2 != 0 {
		return nil, ErrOddPlayerCount
	}

	entrants := make([]brackets.SeededEntrant, 0, len(seeded)/2)
	for i := 0; i < len(seeded); i += 2 {
		a, b := seeded[i], seeded[i+1]
		entrants = append(entrants, brackets.SeededEntrant{
			PlayerIDs:   []int{a.PlayerID, b.PlayerID},
			PlayerNames: []string{a.PlayerName, b.PlayerName},
			Score:       int(a.Score + b.Score),
		})
	}
	sort.SliceStable(entrants, func(i, j int) bool {
		return entrants[i].Score > entrants[j].Score
	})
	for i := range entrants {
		entrants[i].Seed = i + 1
	}
	return entrants, nil
}

// GetFullBracket loads the tournament and its matches concurrently.
func (s *BracketService) GetFullBracket(ctx context.Context, tournamentID int) (*FullBracket, error) {
	g, gCtx := errgroup.WithContext(ctx)

	var tournament *models.Tournament
	var matches []*models.Match

	g.Go(func() error {
		var err error
		tournament, err = s.tournamentRepo.GetByID(gCtx, tournamentID)
		return err
	})
	g.Go(func() error {
		var err error
		matches, err = s.matchRepo.ListByTournament(gCtx, tournamentID, nil)
		return err
	})

	if err := g.Wait(); err != nil {
		return nil, err
	}
	return &FullBracket{Tournament: tournament, Matches: matches}, nil
}
