package brackets

import (
	"context"
	"fmt"
	"testing"

	"github.com/bracket-of-death/backend/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func singlesEntrants(n int) []SeededEntrant {
	entrants := make([]SeededEntrant, 0, n)
	for i := 1; i <= n; i++ {
		entrants = append(entrants, SeededEntrant{
			PlayerIDs:   []int{i},
			PlayerNames: []string{fmt.Sprintf("Player %d", i)},
			Seed:        i,
		})
	}
	return entrants
}

func TestGenerateBracket_MatchCounts(t *testing.T) {
	tests := []struct {
		entrants    int
		wantMatches int
	}{
		{2, 1},
		{3, 2},
		{4, 3},
		{5, 4},
		{8, 7},
		{9, 8},
		{16, 15},
	}

	gen := NewSeededSingleEliminationGenerator()
	for _, tt := range tests {
		t.Run(fmt.Sprintf("%d_entrants", tt.entrants), func(t *testing.T) {
			matches, err := gen.GenerateBracket(context.Background(), GenerateBracketParams{
				TournamentID: 1,
				Entrants:     singlesEntrants(tt.entrants),
			})
			require.NoError(t, err)

			// Total matches equal bracket slots minus one, less the
			// first-round byes that produce no contest.
			want := NextPowerOfTwo(tt.entrants) - 1 - ByeCount(tt.entrants)
			assert.Equal(t, tt.wantMatches, want)
			assert.Len(t, matches, tt.wantMatches)
		})
	}
}

func TestGenerateBracket_RejectsTooFewEntrants(t *testing.T) {
	gen := NewSeededSingleEliminationGenerator()

	_, err := gen.GenerateBracket(context.Background(), GenerateBracketParams{
		TournamentID: 1,
		Entrants:     singlesEntrants(1),
	})
	assert.Error(t, err)
}

func TestGenerateBracket_EightEntrantLayout(t *testing.T) {
	gen := NewSeededSingleEliminationGenerator()

	matches, err := gen.GenerateBracket(context.Background(), GenerateBracketParams{
		TournamentID: 1,
		Entrants:     singlesEntrants(8),
	})
	require.NoError(t, err)
	require.Len(t, matches, 7)

	// First round pairings follow standard seed placement.
	wantPairs := [][2]int{{1, 8}, {4, 5}, {2, 7}, {3, 6}}
	for i, pair := range wantPairs {
		m := matches[i]
		assert.Equal(t, i+1, m.MatchNumber)
		assert.Equal(t, models.Quarterfinal, m.Round)
		assert.Equal(t, pair[0], m.Team1.Seed)
		assert.Equal(t, pair[1], m.Team2.Seed)
	}

	// Seeds 1 and 4 feed one semifinal, 2 and 3 the other, so the top
	// two seeds can only meet in the final.
	require.NotNil(t, matches[0].NextMatchNumber)
	require.NotNil(t, matches[1].NextMatchNumber)
	assert.Equal(t, *matches[0].NextMatchNumber, *matches[1].NextMatchNumber)

	require.NotNil(t, matches[2].NextMatchNumber)
	require.NotNil(t, matches[3].NextMatchNumber)
	assert.Equal(t, *matches[2].NextMatchNumber, *matches[3].NextMatchNumber)
	assert.NotEqual(t, *matches[0].NextMatchNumber, *matches[2].NextMatchNumber)

	semi1, semi2 := matches[4], matches[5]
	assert.Equal(t, models.Semifinal, semi1.Round)
	assert.Equal(t, models.Semifinal, semi2.Round)
	assert.True(t, semi1.Team1.IsTBD())
	assert.True(t, semi1.Team2.IsTBD())

	final := matches[6]
	assert.Equal(t, models.Final, final.Round)
	assert.Nil(t, final.NextMatchNumber)
	require.NotNil(t, semi1.NextMatchNumber)
	require.NotNil(t, semi2.NextMatchNumber)
	assert.Equal(t, final.MatchNumber, *semi1.NextMatchNumber)
	assert.Equal(t, final.MatchNumber, *semi2.NextMatchNumber)
	assert.Equal(t, 1, *semi1.NextSlot)
	assert.Equal(t, 2, *semi2.NextSlot)
}

func TestGenerateBracket_ByesGoToTopSeeds(t *testing.T) {
	gen := NewSeededSingleEliminationGenerator()

	matches, err := gen.GenerateBracket(context.Background(), GenerateBracketParams{
		TournamentID: 1,
		Entrants:     singlesEntrants(3),
	})
	require.NoError(t, err)
	require.Len(t, matches, 2)

	// Seed 1 sits out the only first-round match.
	opener := matches[0]
	assert.Equal(t, models.Semifinal, opener.Round)
	assert.Equal(t, 2, opener.Team1.Seed)
	assert.Equal(t, 3, opener.Team2.Seed)

	final := matches[1]
	assert.Equal(t, models.Final, final.Round)
	assert.Equal(t, 1, final.Team1.Seed)
	assert.True(t, final.Team2.IsTBD())

	require.NotNil(t, opener.NextMatchNumber)
	assert.Equal(t, final.MatchNumber, *opener.NextMatchNumber)
	assert.Equal(t, 2, *opener.NextSlot)
}

func TestGenerateBracket_NineEntrants(t *testing.T) {
	gen := NewSeededSingleEliminationGenerator()

	matches, err := gen.GenerateBracket(context.Background(), GenerateBracketParams{
		TournamentID: 1,
		Entrants:     singlesEntrants(9),
	})
	require.NoError(t, err)
	require.Len(t, matches, 8)

	// Only seeds 8 and 9 play in the opening round; everyone else has a bye.
	firstRound := 0
	for _, m := range matches {
		if m.RoundNumber == 1 {
			firstRound++
			assert.Equal(t, 8, m.Team1.Seed)
			assert.Equal(t, 9, m.Team2.Seed)
		}
	}
	assert.Equal(t, 1, firstRound)

	// The final exists and is the last match generated.
	final := matches[len(matches)-1]
	assert.Equal(t, models.Final, final.Round)
	assert.Nil(t, final.NextMatchNumber)
}

func TestSeedOrder(t *testing.T) {
	assert.Equal(t, []int{1, 2}, seedOrder(2))
	assert.Equal(t, []int{1, 4, 2, 3}, seedOrder(4))
	assert.Equal(t, []int{1, 8, 4, 5, 2, 7, 3, 6}, seedOrder(8))
}

func TestNextPowerOfTwo(t *testing.T) {
	assert.Equal(t, 1, NextPowerOfTwo(1))
	assert.Equal(t, 2, NextPowerOfTwo(2))
	assert.Equal(t, 4, NextPowerOfTwo(3))
	assert.Equal(t, 16, NextPowerOfTwo(9))
	assert.Equal(t, 64, NextPowerOfTwo(33))
}
