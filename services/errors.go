package services

import "errors"

// Shared errors used across services and the HTTP error mapping.
var (
	// Not found
	ErrNotFound           = errors.New("requested resource not found")
	ErrTournamentNotFound = errors.New("tournament not found")
	ErrGroupNotFound      = errors.New("group not found")
	ErrMatchNotFound      = errors.New("match not found")
	ErrPlayerNotFound     = errors.New("player not found")

	// Validation and business rules
	ErrValidationFailed      = errors.New("validation failed")
	ErrNoPlayers             = errors.New("tournament has no registered players")
	ErrNotEnoughPlayers      = errors.New("tournament must have at least 2 players")
	ErrGroupTooSmall         = errors.New("group must have at least 2 players")
	ErrNegativeScore         = errors.New("scores must be non-negative")
	ErrSamePlayer            = errors.New("cannot create a match with the same player")
	ErrPlayerNotInTournament = errors.New("one or both players not found in tournament")
	ErrInvalidVoteSide       = errors.New("voted_for must be 'player1' or 'player2'")
	ErrVotingClosed          = errors.New("voting is only allowed for scheduled matches")
	ErrInvalidEmail          = errors.New("invalid email address")
	ErrInvalidFormat         = errors.New("invalid tournament format")
	ErrInvalidDateRange      = errors.New("registration must close before the tournament starts")
	ErrInvalidCapacity       = errors.New("tournament max players must not be negative")

	// State conflicts
	ErrGroupsAlreadyExist  = errors.New("groups already exist for this tournament")
	ErrGroupMatchesExist   = errors.New("matches already exist for this group")
	ErrBracketExists       = errors.New("knockout bracket already exists for this tournament")
	ErrNoBracket           = errors.New("no knockout matches found, create the bracket first")
	ErrRoundIncomplete     = errors.New("all matches in the current round must be completed before creating the next round")
	ErrNotEnoughWinners    = errors.New("need at least 2 winners to create next round")
	ErrAlreadyFinal        = errors.New("this is already the final round")
	ErrPlayerBusyInRound   = errors.New("one or both players are already in a match in this round")
	ErrPlayerRegistered    = errors.New("player is already registered for this tournament")
	ErrPlayerNotRegistered = errors.New("player is not registered for this tournament")
	ErrTournamentFull      = errors.New("tournament has reached maximum capacity")

	// Authentication
	ErrInvalidCredentials = errors.New("invalid email or password")
	ErrAccountInactive    = errors.New("account is inactive")
	ErrEmailTaken         = errors.New("email address is already in use")
	ErrPasswordTooShort   = errors.New("password is too short")
)
