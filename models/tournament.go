package models

import "time"

// TournamentStatus represents tournament lifecycle states, matching the ENUM in the DB.
type TournamentStatus string

const (
	StatusScheduled TournamentStatus = "scheduled"
	StatusOpen      TournamentStatus = "open"
	StatusActive    TournamentStatus = "active"
	StatusCompleted TournamentStatus = "completed"
	StatusCancelled TournamentStatus = "cancelled"
)

type TournamentFormat string

const (
	FormatMensSingles   TournamentFormat = "M"
	FormatWomensSingles TournamentFormat = "W"
	FormatMensDoubles   TournamentFormat = "MD"
	FormatWomensDoubles TournamentFormat = "WD"
	FormatMixedDoubles  TournamentFormat = "Mixed"
)

type RegistrationType string

const (
	RegistrationOpen   RegistrationType = "open"
	RegistrationInvite RegistrationType = "invite"
)

// DefaultMaxPlayers applies when a tournament has no explicit capacity.
const DefaultMaxPlayers = 32

// validStatusTransitions defines the legal tournament status graph.
// Completed is terminal; cancelled tournaments can be rescheduled.
var validStatusTransitions = map[TournamentStatus][]TournamentStatus{
	StatusScheduled: {StatusOpen, StatusCancelled},
	StatusOpen:      {StatusActive, StatusCancelled, StatusScheduled},
	StatusActive:    {StatusCompleted, StatusCancelled},
	StatusCompleted: {},
	StatusCancelled: {StatusScheduled, StatusOpen},
}

// CanTransitionTo reports whether a saved tournament may move from its
// current status to the given one. New tournaments bypass this check.
func (s TournamentStatus) CanTransitionTo(next TournamentStatus) bool {
	for _, allowed := range validStatusTransitions[s] {
		if allowed == next {
			return true
		}
	}
	return false
}

func (s TournamentStatus) IsValid() bool {
	switch s {
	case StatusScheduled, StatusOpen, StatusActive, StatusCompleted, StatusCancelled:
		return true
	}
	return false
}

// IsDoubles reports whether entrants are two-player teams for this format.
func (f TournamentFormat) IsDoubles() bool {
	switch f {
	case FormatMensDoubles, FormatWomensDoubles, FormatMixedDoubles:
		return true
	}
	return false
}

// IsDivision reports whether a championship in this format counts as a
// division championship rather than an individual one.
func (f TournamentFormat) IsDivision() bool {
	return f == FormatMensSingles || f == FormatWomensSingles
}

// Champion is the denormalized winner snapshot recorded at completion.
type Champion struct {
	PlayerIDs   []int    `json:"player_ids"`
	PlayerNames []string `json:"player_names"`
	ResultID    *int     `json:"result_id,omitempty"`
}

// Tournament represents one BOD event.
type Tournament struct {
	ID                    int              `json:"id" db:"id"`
	Date                  time.Time        `json:"date" db:"date"`
	BodNumber             int              `json:"bod_number" db:"bod_number"`
	Format                TournamentFormat `json:"format" db:"format"`
	Location              *string          `json:"location,omitempty" db:"location"`
	Status                TournamentStatus `json:"status" db:"status"`
	MaxPlayers            int              `json:"max_players" db:"max_players"`
	RegistrationType      RegistrationType `json:"registration_type" db:"registration_type"`
	AllowSelfRegistration bool             `json:"allow_self_registration" db:"allow_self_registration"`
	RegistrationOpensAt   *time.Time       `json:"registration_opens_at,omitempty" db:"registration_opens_at"`
	RegistrationDeadline  *time.Time       `json:"registration_deadline,omitempty" db:"registration_deadline"`
	PlayerIDs             []int            `json:"player_ids" db:"player_ids"`
	PhotoAlbums           *string          `json:"photo_albums,omitempty" db:"photo_albums"`
	Notes                 *string          `json:"notes,omitempty" db:"notes"`
	Champion              *Champion        `json:"champion,omitempty" db:"-"`
	CreatedAt             time.Time        `json:"created_at" db:"created_at"`

	// Optional related entities, loaded on demand.
	RegisteredPlayers []RegistrationEntry `json:"registered_players,omitempty" db:"-"`
	WaitlistPlayers   []RegistrationEntry `json:"waitlist_players,omitempty" db:"-"`
	Matches           []Match             `json:"matches,omitempty" db:"-"`
}

// EffectiveMaxPlayers returns the capacity used for waitlist overflow.
func (t *Tournament) EffectiveMaxPlayers() int {
	if t.MaxPlayers > 0 {
		return t.MaxPlayers
	}
	return DefaultMaxPlayers
}

// RegistrationWindowOpen reports whether now falls inside the configured
// registration window. Unset bounds do not constrain.
func (t *Tournament) RegistrationWindowOpen(now time.Time) bool {
	if t.RegistrationOpensAt != nil && now.Before(*t.RegistrationOpensAt) {
		return false
	}
	if t.RegistrationDeadline != nil && now.After(*t.RegistrationDeadline) {
		return false
	}
	return true
}

// RegistrationList identifies which list holds a registration entry.
type RegistrationList string

const (
	ListRegistered RegistrationList = "registered"
	ListWaitlist   RegistrationList = "waitlist"
)

// RegistrationEntry is one player's place in a tournament's registered or
// waitlist order.
type RegistrationEntry struct {
	ID           int              `json:"id" db:"id"`
	TournamentID int              `json:"tournament_id" db:"tournament_id"`
	PlayerID     int              `json:"player_id" db:"player_id"`
	List         RegistrationList `json:"list" db:"list"`
	RegisteredAt time.Time        `json:"registered_at" db:"registered_at"`
}

// IsPowerOfTwo reports whether n is a positive power of two. Tournament
// capacity must satisfy this for bracket play.
func IsPowerOfTwo(n int) bool {
	return n > 0 && n&(n-1) == 0
}
