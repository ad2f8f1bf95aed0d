package services

import (
	"context"
	"fmt"
	"log/slog"
	"math"
	"sort"
	"strings"

	"github.com/bracket-of-death/backend/brackets"
	"github.com/bracket-of-death/backend/models"
	"github.com/bracket-of-death/backend/repositories"
)

const (
	// Players with fewer completed tournaments than this get a neutral
	// score instead of one derived from a near-empty record.
	minBodsForHistorySeeding = 2
	neutralSeedingScore      = 50
	maxExperienceBonus       = 50
)

// SeededPlayer is one row of a seeding calculation, ordered best first.
type SeededPlayer struct {
	PlayerID   int     `json:"player_id"`
	PlayerName string  `json:"player_name"`
	Seed       int     `json:"seed"`
	Score      float64 `json:"score"`
	Reasoning  string  `json:"reasoning"`
}

type SeedingService struct {
	playerRepo repositories.PlayerRepository
	logger     *slog.Logger
}

func NewSeedingService(playerRepo repositories.PlayerRepository, logger *slog.Logger) *SeedingService {
	return &SeedingService{
		playerRepo: playerRepo,
		logger:     logger,
	}
}

// CalculateSeeding ranks the given players by career record and assigns
// 1-based seeds. Equal scores keep their input order. The whole call fails
// if any id cannot be resolved, so a bracket is never seeded from a
// partial roster.
func (s *SeedingService) CalculateSeeding(ctx context.Context, playerIDs []int, format models.TournamentFormat) ([]*SeededPlayer, error) {
	if len(playerIDs) == 0 {
		return []*SeededPlayer{}, nil
	}

	players, err := s.playerRepo.GetByIDs(ctx, playerIDs)
	if err != nil {
		return nil, fmt.Errorf("failed to load players for seeding: %w", err)
	}
	if len(players) != len(playerIDs) {
		found := make(map[int]bool, len(players))
		for _, p := range players {
			found[p.ID] = true
		}
		missing := make([]int, 0)
		for _, id := range playerIDs {
			if !found[id] {
				missing = append(missing, id)
			}
		}
		return nil, fmt.Errorf("%w: %v", ErrPlayersMissing, missing)
	}

	byID := make(map[int]*models.Player, len(players))
	for _, p := range players {
		byID[p.ID] = p
	}

	seeded := make([]*SeededPlayer, 0, len(playerIDs))
	for _, id := range playerIDs {
		p := byID[id]
		score, reasoning := seedingScore(p, format)
		seeded = append(seeded, &SeededPlayer{
			PlayerID:   p.ID,
			PlayerName: p.Name,
			Score:      score,
			Reasoning:  reasoning,
		})
	}

	sort.SliceStable(seeded, func(i, j int) bool {
		return seeded[i].Score > seeded[j].Score
	})
	for i, sp := range seeded {
		sp.Seed = i + 1
	}

	s.logger.Debug("seeding calculated", "players", len(seeded))
	return seeded, nil
}

// SeedingPreview describes what a bracket built from the given roster
// would look like before anything is persisted.
type SeedingPreview struct {
	Players     []*SeededPlayer `json:"players"`
	BracketSize int             `json:"bracket_size"`
	ByeCount    int             `json:"bye_count"`
	NeedsByes   bool            `json:"needs_byes"`
}

// SeedingPairing is a suggested first-round meeting. Opponent is nil when
// the higher seed draws a bye.
type SeedingPairing struct {
	Player   *SeededPlayer `json:"player"`
	Opponent *SeededPlayer `json:"opponent,omitempty"`
	Bye      bool          `json:"bye"`
}

// PreviewSeeding runs a seeding calculation and reports the bracket size
// and bye count the roster would produce.
func (s *SeedingService) PreviewSeeding(ctx context.Context, playerIDs []int, format models.TournamentFormat) (*SeedingPreview, error) {
	seeded, err := s.CalculateSeeding(ctx, playerIDs, format)
	if err != nil {
		return nil, err
	}

	size := brackets.NextPowerOfTwo(len(seeded))
	return &SeedingPreview{
		Players:     seeded,
		BracketSize: size,
		ByeCount:    size - len(seeded),
		NeedsByes:   size != len(seeded),
	}, nil
}

// GenerateBracketPairings suggests first-round matchups from an already
// seeded list: seed 1 meets the lowest seed, seed 2 the next lowest, and
// so on. Seeds beyond the real roster become byes for the top seeds.
func GenerateBracketPairings(seeded []*SeededPlayer) []SeedingPairing {
	if len(seeded) == 0 {
		return nil
	}
	size := brackets.NextPowerOfTwo(len(seeded))
	pairings := make([]SeedingPairing, 0, size/2)
	for i := 0; i < size/2; i++ {
		p := SeedingPairing{Player: seeded[i]}
		if opp := size - 1 - i; opp < len(seeded) {
			p.Opponent = seeded[opp]
		} else {
			p.Bye = true
		}
		pairings = append(pairings, p)
	}
	return pairings
}

// seedingScore folds a player's career record into a single comparable
// number plus a human-readable explanation of the rank.
func seedingScore(p *models.Player, format models.TournamentFormat) (float64, string) {
	if p.BodsPlayed < minBodsForHistorySeeding {
		return neutralSeedingScore, "new player, seeded neutrally"
	}

	winComponent := p.WinningPercentage * 100
	champComponent := float64(p.TotalChampionships) * 25
	// AvgFinish 0 means no finishes recorded, which earns no bonus.
	finishComponent := 0.0
	if p.AvgFinish > 0 {
		finishComponent = math.Max(0, (10-p.AvgFinish)*5)
	}
	expComponent := math.Min(maxExperienceBonus, float64(p.BodsPlayed))

	score := winComponent + champComponent + finishComponent + expComponent
	score = math.Round(applyFormatAdjustments(score, p, format))

	reasons := make([]string, 0, 4)
	switch {
	case p.WinningPercentage > 0.7:
		reasons = append(reasons, fmt.Sprintf("strong win rate (%.0f%%)", p.WinningPercentage*100))
	case p.WinningPercentage > 0.5:
		reasons = append(reasons, fmt.Sprintf("winning record (%.0f%%)", p.WinningPercentage*100))
	case p.WinningPercentage > 0.3:
		reasons = append(reasons, fmt.Sprintf("competitive record (%.0f%%)", p.WinningPercentage*100))
	}
	if p.TotalChampionships > 0 {
		reasons = append(reasons, fmt.Sprintf("%d championship(s)", p.TotalChampionships))
	}
	switch {
	case p.AvgFinish > 0 && p.AvgFinish <= 3:
		reasons = append(reasons, fmt.Sprintf("consistently high finishes (avg %.1f)", p.AvgFinish))
	case p.AvgFinish > 0 && p.AvgFinish <= 6:
		reasons = append(reasons, fmt.Sprintf("solid finishes (avg %.1f)", p.AvgFinish))
	}
	switch {
	case p.BodsPlayed >= 10:
		reasons = append(reasons, fmt.Sprintf("veteran of %d tournaments", p.BodsPlayed))
	case p.BodsPlayed >= 5:
		reasons = append(reasons, fmt.Sprintf("experienced (%d tournaments)", p.BodsPlayed))
	}
	if len(reasons) == 0 {
		reasons = append(reasons, "limited track record")
	}

	return score, strings.Join(reasons, "; ")
}

// applyFormatAdjustments is the hook for per-format score tuning. Career
// stats are not yet tracked per format, so every format keeps the base
// score for now.
func applyFormatAdjustments(score float64, _ *models.Player, format models.TournamentFormat) float64 {
	switch format {
	case models.FormatMensSingles, models.FormatWomensSingles:
	case models.FormatMensDoubles, models.FormatWomensDoubles, models.FormatMixedDoubles:
	}
	return score
}
