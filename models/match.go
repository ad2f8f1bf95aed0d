package models

import (
	"fmt"
	"time"
)

type MatchStatus string

const (
	MatchStatusScheduled  MatchStatus = "scheduled"
	MatchStatusInProgress MatchStatus = "in-progress"
	MatchStatusCompleted  MatchStatus = "completed"
	MatchStatusCancelled  MatchStatus = "cancelled"
	MatchStatusPostponed  MatchStatus = "postponed"
)

// MatchRound labels a round by the number of slots remaining when it is played.
type MatchRound string

const (
	RoundOf64    MatchRound = "round-of-64"
	RoundOf32    MatchRound = "round-of-32"
	RoundOf16    MatchRound = "round-of-16"
	Quarterfinal MatchRound = "quarterfinal"
	Semifinal    MatchRound = "semifinal"
	Final        MatchRound = "final"
)

// RoundNameForSlots maps remaining slot count to the round label. Slot
// counts beyond the named table get a derived round-of-N label.
func RoundNameForSlots(slots int) MatchRound {
	switch slots {
	case 64:
		return RoundOf64
	case 32:
		return RoundOf32
	case 16:
		return RoundOf16
	case 8:
		return Quarterfinal
	case 4:
		return Semifinal
	case 2:
		return Final
	}
	return MatchRound(fmt.Sprintf("round-of-%d", slots))
}

type MatchWinner string

const (
	WinnerTeam1 MatchWinner = "team1"
	WinnerTeam2 MatchWinner = "team2"
)

// MatchTeam is one side of a bracket contest: one player in singles, two in
// doubles. Empty player lists mean the slot is still waiting on an earlier
// match's winner.
type MatchTeam struct {
	PlayerIDs   []int    `json:"player_ids"`
	PlayerNames []string `json:"player_names"`
	Seed        int      `json:"seed"`
	Score       int      `json:"score"`
}

func (t MatchTeam) IsTBD() bool {
	return len(t.PlayerIDs) == 0
}

// AdminOverride records who authorized accepting a non-standard score.
type AdminOverride struct {
	Reason       string    `json:"reason"`
	AuthorizedBy string    `json:"authorized_by"`
	Timestamp    time.Time `json:"timestamp"`
}

// Match is one bracket contest. MatchNumber is unique per tournament and
// monotone in generation order. NextMatchNumber/NextSlot link a match to
// the slot its winner advances into.
type Match struct {
	ID              int            `json:"id" db:"id"`
	TournamentID    int            `json:"tournament_id" db:"tournament_id"`
	MatchNumber     int            `json:"match_number" db:"match_number"`
	Round           MatchRound     `json:"round" db:"round"`
	RoundNumber     int            `json:"round_number" db:"round_number"`
	Team1           MatchTeam      `json:"team1" db:"-"`
	Team2           MatchTeam      `json:"team2" db:"-"`
	Winner          *MatchWinner   `json:"winner,omitempty" db:"winner"`
	Status          MatchStatus    `json:"status" db:"status"`
	NextMatchNumber *int           `json:"next_match_number,omitempty" db:"next_match_number"`
	NextSlot        *int           `json:"next_slot,omitempty" db:"next_slot"`
	AdminOverride   *AdminOverride `json:"admin_override,omitempty" db:"-"`
	ScheduledDate   *time.Time     `json:"scheduled_date,omitempty" db:"scheduled_date"`
	CompletedDate   *time.Time     `json:"completed_date,omitempty" db:"completed_date"`
	CreatedAt       time.Time      `json:"created_at" db:"created_at"`
}

// WinningTeam returns the winning and losing sides once a winner is set.
func (m *Match) WinningTeam() (winner, loser *MatchTeam, ok bool) {
	if m.Winner == nil {
		return nil, nil, false
	}
	if *m.Winner == WinnerTeam1 {
		return &m.Team1, &m.Team2, true
	}
	return &m.Team2, &m.Team1, true
}
