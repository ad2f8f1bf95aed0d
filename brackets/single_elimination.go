package brackets

import (
	"context"
	"errors"
	"fmt"
	"sort"

	"github.com/bracket-of-death/backend/models"
)

// node is one slot of the current round: a known entrant, a bye, or a
// placeholder for the winner of an earlier match.
type node struct {
	entrant   *SeededEntrant
	fromMatch *int
	isBye     bool
}

type SeededSingleEliminationGenerator struct {
}

func NewSeededSingleEliminationGenerator() BracketGenerator {
	return &SeededSingleEliminationGenerator{}
}

func (g *SeededSingleEliminationGenerator) GetName() string {
	return "SeededSingleElimination"
}

// GenerateBracket lays out a complete single-elimination bracket for the
// given seeded entrants. Entrants are placed in standard seed order so the
// top two seeds cannot meet before the final and the top four cannot meet
// before the semifinal; byes fill the slots left over when the entrant
// count is not a power of two and go to the highest seeds.
func (g *SeededSingleEliminationGenerator) GenerateBracket(ctx context.Context, params GenerateBracketParams) ([]*models.Match, error) {
	entrants := params.Entrants
	n := len(entrants)

	if n < 2 {
		return nil, errors.New("not enough entrants to generate a single elimination bracket (minimum 2)")
	}

	seeded := make([]SeededEntrant, n)
	copy(seeded, entrants)
	sort.SliceStable(seeded, func(i, j int) bool {
		return seeded[i].Seed < seeded[j].Seed
	})

	bracketSize := NextPowerOfTwo(n)

	current := make([]*node, 0, bracketSize)
	for _, seed := range seedOrder(bracketSize) {
		if seed <= n {
			e := seeded[seed-1]
			current = append(current, &node{entrant: &e})
		} else {
			current = append(current, &node{isBye: true})
		}
	}

	matches := make([]*models.Match, 0, bracketSize-1)
	byNumber := make(map[int]*models.Match, bracketSize-1)

	matchNumber := 1
	roundNumber := 1

	for slots := bracketSize; slots > 1; slots /= 2 {
		roundName := models.RoundNameForSlots(slots)
		next := make([]*node, 0, slots/2)

		for i := 0; i < len(current); i += 2 {
			n1 := current[i]
			n2 := current[i+1]

			if n1.isBye && n2.isBye {
				return nil, fmt.Errorf("two byes paired in round %d: seeding produced an invalid layout", roundNumber)
			}
			if n1.isBye || n2.isBye {
				// Unopposed slot: the entrant advances without a match record.
				advancing := n1
				if n1.isBye {
					advancing = n2
				}
				next = append(next, advancing)
				continue
			}

			m := &models.Match{
				TournamentID: params.TournamentID,
				MatchNumber:  matchNumber,
				Round:        roundName,
				RoundNumber:  roundNumber,
				Team1:        teamFromNode(n1),
				Team2:        teamFromNode(n2),
				Status:       models.MatchStatusScheduled,
			}
			linkSource(byNumber, n1, m.MatchNumber, 1)
			linkSource(byNumber, n2, m.MatchNumber, 2)

			matches = append(matches, m)
			byNumber[m.MatchNumber] = m

			num := m.MatchNumber
			next = append(next, &node{fromMatch: &num})
			matchNumber++
		}

		current = next
		roundNumber++
	}

	return matches, nil
}

func teamFromNode(n *node) models.MatchTeam {
	if n.entrant == nil {
		// Winner of an earlier match, filled in as results come through.
		return models.MatchTeam{}
	}
	return models.MatchTeam{
		PlayerIDs:   n.entrant.PlayerIDs,
		PlayerNames: n.entrant.PlayerNames,
		Seed:        n.entrant.Seed,
	}
}

// linkSource records, on the match a node came from, where its winner goes.
func linkSource(byNumber map[int]*models.Match, n *node, nextMatch, slot int) {
	if n.fromMatch == nil {
		return
	}
	if src, ok := byNumber[*n.fromMatch]; ok {
		next := nextMatch
		s := slot
		src.NextMatchNumber = &next
		src.NextSlot = &s
	}
}

// seedOrder returns the bracket slot order for the given size, built by the
// classic mirrored fold: each seed is paired with its complement so that
// seeds 1 and 2 land in opposite halves, 1 and 4 / 2 and 3 in opposite
// quarters, and so on.
func seedOrder(size int) []int {
	order := []int{1}
	for len(order) < size {
		doubled := make([]int, 0, len(order)*2)
		for _, s := range order {
			doubled = append(doubled, s, len(order)*2+1-s)
		}
		order = doubled
	}
	return order
}

// NextPowerOfTwo returns the smallest power of two >= n.
func NextPowerOfTwo(n int) int {
	size := 1
	for size < n {
		size *= 2
	}
	return size
}

// ByeCount returns how many entrants advance unopposed out of the first
// round for the given entrant count.
func ByeCount(n int) int {
	return NextPowerOfTwo(n) - n
}
