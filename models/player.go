package models

import "time"

type Gender string

const (
	GenderMale   Gender = "male"
	GenderFemale Gender = "female"
)

// Player carries identity plus the career-aggregate snapshot that the
// stats recalculation overwrites after every tournament finalization.
type Player struct {
	ID                      int       `json:"id" db:"id"`
	Name                    string    `json:"name" db:"name"`
	Email                   *string   `json:"email,omitempty" db:"email"`
	Gender                  Gender    `json:"gender" db:"gender"`
	BracketPreference       *string   `json:"bracket_preference,omitempty" db:"bracket_preference"`
	IsActive                bool      `json:"is_active" db:"is_active"`
	BodsPlayed              int       `json:"bods_played" db:"bods_played"`
	BestResult              float64   `json:"best_result" db:"best_result"`
	AvgFinish               float64   `json:"avg_finish" db:"avg_finish"`
	GamesPlayed             int       `json:"games_played" db:"games_played"`
	GamesWon                int       `json:"games_won" db:"games_won"`
	WinningPercentage       float64   `json:"winning_percentage" db:"winning_percentage"`
	IndividualChampionships int       `json:"individual_championships" db:"individual_championships"`
	DivisionChampionships   int       `json:"division_championships" db:"division_championships"`
	TotalChampionships      int       `json:"total_championships" db:"total_championships"`
	CreatedAt               time.Time `json:"created_at" db:"created_at"`
}

// PlayerStatsSnapshot is the full set of derived career fields. The
// recalculation service writes it as a whole, never as a delta.
type PlayerStatsSnapshot struct {
	BodsPlayed              int
	BestResult              float64
	AvgFinish               float64
	GamesPlayed             int
	GamesWon                int
	WinningPercentage       float64
	IndividualChampionships int
	DivisionChampionships   int
	TotalChampionships      int
}

// Normalize re-derives the dependent fields so that a stored snapshot can
// never violate gamesWon <= gamesPlayed or bestResult <= avgFinish.
func (s *PlayerStatsSnapshot) Normalize() {
	if s.GamesWon > s.GamesPlayed {
		s.GamesWon = s.GamesPlayed
	}
	if s.GamesPlayed > 0 {
		s.WinningPercentage = float64(s.GamesWon) / float64(s.GamesPlayed)
	} else {
		s.WinningPercentage = 0
	}
	if s.BestResult > s.AvgFinish {
		s.BestResult = s.AvgFinish
	}
	s.TotalChampionships = s.IndividualChampionships + s.DivisionChampionships
}
