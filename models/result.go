package models

import (
	"sort"
	"time"
)

// RoundRobinScores is the optional pool-play sub-record of a result.
type RoundRobinScores struct {
	RRWon           int     `json:"rr_won"`
	RRLost          int     `json:"rr_lost"`
	RRPlayed        int     `json:"rr_played"`
	RRWinPercentage float64 `json:"rr_win_percentage"`
	RRRank          int     `json:"rr_rank"`
}

// BracketScores tracks elimination-round tallies for a result.
type BracketScores struct {
	BracketWon    int `json:"bracket_won"`
	BracketLost   int `json:"bracket_lost"`
	BracketPlayed int `json:"bracket_played"`
}

// TotalStats is the combined record across round robin and bracket play.
// TotalPlayed must always equal TotalWon + TotalLost.
type TotalStats struct {
	TotalWon      int      `json:"total_won"`
	TotalLost     int      `json:"total_lost"`
	TotalPlayed   int      `json:"total_played"`
	WinPercentage float64  `json:"win_percentage"`
	FinalRank     *float64 `json:"final_rank,omitempty"`
	BodFinish     *float64 `json:"bod_finish,omitempty"`
}

// TournamentResult is one entrant's performance record for one tournament,
// unique per (tournament, player set). Created lazily on the first recorded
// score and read in aggregate by the career stats recalculation.
type TournamentResult struct {
	ID               int               `json:"id" db:"id"`
	TournamentID     int               `json:"tournament_id" db:"tournament_id"`
	PlayerIDs        []int             `json:"player_ids" db:"player_ids"`
	Division         TournamentFormat  `json:"division" db:"division"`
	Seed             int               `json:"seed" db:"seed"`
	RoundRobinScores *RoundRobinScores `json:"round_robin_scores,omitempty" db:"-"`
	BracketScores    BracketScores     `json:"bracket_scores" db:"-"`
	TotalStats       TotalStats        `json:"total_stats" db:"-"`
	CreatedAt        time.Time         `json:"created_at" db:"created_at"`
	UpdatedAt        time.Time         `json:"updated_at" db:"updated_at"`
}

// FinishValue returns the placement used for career aggregation: bodFinish
// when present, else finalRank.
func (r *TournamentResult) FinishValue() (float64, bool) {
	if r.TotalStats.BodFinish != nil {
		return *r.TotalStats.BodFinish, true
	}
	if r.TotalStats.FinalRank != nil {
		return *r.TotalStats.FinalRank, true
	}
	return 0, false
}

// RecomputeTotals re-derives the combined record from the bracket and
// round-robin sub-records, keeping the totalPlayed invariant.
func (r *TournamentResult) RecomputeTotals() {
	rrWon, rrLost, rrPlayed := 0, 0, 0
	if r.RoundRobinScores != nil {
		rrWon = r.RoundRobinScores.RRWon
		rrLost = r.RoundRobinScores.RRLost
		rrPlayed = r.RoundRobinScores.RRPlayed
	}
	r.TotalStats.TotalWon = r.BracketScores.BracketWon + rrWon
	r.TotalStats.TotalLost = r.BracketScores.BracketLost + rrLost
	r.TotalStats.TotalPlayed = r.BracketScores.BracketPlayed + rrPlayed
	if r.TotalStats.TotalPlayed > 0 {
		r.TotalStats.WinPercentage = float64(r.TotalStats.TotalWon) / float64(r.TotalStats.TotalPlayed)
	} else {
		r.TotalStats.WinPercentage = 0
	}
}

// CanonicalPlayerSet returns a sorted copy of ids, the identity key of a
// team within a tournament.
func CanonicalPlayerSet(ids []int) []int {
	out := make([]int, len(ids))
	copy(out, ids)
	sort.Ints(out)
	return out
}
