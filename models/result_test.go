package models

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestRecomputeTotals(t *testing.T) {
	r := &TournamentResult{
		BracketScores: BracketScores{BracketWon: 3, BracketLost: 1, BracketPlayed: 4},
	}
	r.RecomputeTotals()
	assert.Equal(t, 3, r.TotalStats.TotalWon)
	assert.Equal(t, 1, r.TotalStats.TotalLost)
	assert.Equal(t, 4, r.TotalStats.TotalPlayed)
	assert.InDelta(t, 0.75, r.TotalStats.WinPercentage, 1e-9)

	// Round robin games fold into the totals.
	r.RoundRobinScores = &RoundRobinScores{RRWon: 2, RRLost: 2, RRPlayed: 4}
	r.RecomputeTotals()
	assert.Equal(t, 5, r.TotalStats.TotalWon)
	assert.Equal(t, 3, r.TotalStats.TotalLost)
	assert.Equal(t, 8, r.TotalStats.TotalPlayed)
	assert.InDelta(t, 0.625, r.TotalStats.WinPercentage, 1e-9)
}

func TestRecomputeTotalsZeroGames(t *testing.T) {
	r := &TournamentResult{}
	r.RecomputeTotals()
	assert.Zero(t, r.TotalStats.TotalPlayed)
	assert.Zero(t, r.TotalStats.WinPercentage)
}

func TestFinishValue(t *testing.T) {
	f := func(v float64) *float64 { return &v }

	r := &TournamentResult{}
	_, ok := r.FinishValue()
	assert.False(t, ok)

	r.TotalStats.FinalRank = f(4)
	v, ok := r.FinishValue()
	assert.True(t, ok)
	assert.Equal(t, 4.0, v)

	// bodFinish takes precedence over finalRank.
	r.TotalStats.BodFinish = f(1)
	v, ok = r.FinishValue()
	assert.True(t, ok)
	assert.Equal(t, 1.0, v)
}

func TestCanonicalPlayerSet(t *testing.T) {
	original := []int{42, 7}
	canonical := CanonicalPlayerSet(original)
	assert.Equal(t, []int{7, 42}, canonical)
	assert.Equal(t, []int{42, 7}, original, "input must not be mutated")
}

func TestSnapshotNormalize(t *testing.T) {
	s := &PlayerStatsSnapshot{
		GamesPlayed:             10,
		GamesWon:                12,
		BestResult:              5,
		AvgFinish:               3,
		IndividualChampionships: 2,
		DivisionChampionships:   1,
	}
	s.Normalize()
	assert.Equal(t, 10, s.GamesWon)
	assert.InDelta(t, 1.0, s.WinningPercentage, 1e-9)
	assert.Equal(t, 3.0, s.BestResult)
	assert.Equal(t, 3, s.TotalChampionships)
}
