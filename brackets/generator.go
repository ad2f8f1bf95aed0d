package brackets

import (
	"context"

	"github.com/bracket-of-death/backend/models"
)

// SeededEntrant is one seeded unit of a bracket: a single player or a
// two-player team, with its 1-based competitive rank.
type SeededEntrant struct {
	PlayerIDs   []int
	PlayerNames []string
	Seed        int
	Score       int
}

type GenerateBracketParams struct {
	TournamentID int
	Entrants     []SeededEntrant
}

type BracketGenerator interface {
	GenerateBracket(ctx context.Context, params GenerateBracketParams) ([]*models.Match, error)

	GetName() string
}
