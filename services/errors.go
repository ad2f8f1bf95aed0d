package services

import "errors"

var (
	ErrValidation              = errors.New("validation failed")
	ErrInvalidStatusTransition = errors.New("invalid tournament status transition")
	ErrTournamentNotOpen       = errors.New("tournament is not open for registration")
	ErrTournamentNotActive     = errors.New("tournament is not active")
	ErrRegistrationWindow      = errors.New("registration window is closed")
	ErrSelfRegistrationOff     = errors.New("self registration is disabled for this tournament")
	ErrNotRegistered           = errors.New("player is not registered for this tournament")
	ErrInsufficientPlayers     = errors.New("not enough players to generate a bracket")
	ErrOddPlayerCount          = errors.New("doubles bracket requires an even player count")
	ErrPlayersMissing          = errors.New("one or more players not found")
	ErrBracketExists           = errors.New("bracket already generated for this tournament")
	ErrMatchCompleted          = errors.New("match is already completed")
	ErrMatchTeamsIncomplete    = errors.New("match teams are not yet determined")
	ErrTieScore                = errors.New("tie scores are not allowed")
	ErrScoreNotStandard        = errors.New("non-standard score requires an admin override")
	ErrIncompleteMatches       = errors.New("tournament has incomplete matches")
	ErrMaxPlayersNotPowerOfTwo = errors.New("max players must be a power of two")
)
