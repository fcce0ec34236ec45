package engine

import "errors"

// Input validation failures. Recoverable: the caller can correct the
// request and resubmit.
var (
	ErrOptionCount   = errors.New("engine: market must have 2 or 3 options")
	ErrOptionLabel   = errors.New("engine: option labels must be non-empty and distinct")
	ErrOddsCount     = errors.New("engine: odds and options must have the same length")
	ErrDuration      = errors.New("engine: duration must be between 1 and 168 hours")
	ErrInvalidOption = errors.New("engine: invalid option index")
	ErrBelowMinimum  = errors.New("engine: bet amount below minimum stake")
)

// Lifecycle state failures. Recoverable only by choosing a different
// operation; retrying with the same arguments will fail again.
var (
	ErrMarketClosed   = errors.New("engine: market is closed for betting")
	ErrAlreadySettled = errors.New("engine: market already settled")
	ErrNotEnded       = errors.New("engine: market has not reached its end time")
	ErrNotSettled     = errors.New("engine: market not settled")
	ErrAlreadyClaimed = errors.New("engine: payout already claimed")
)

// ErrNotCreator is returned when anyone but the market creator attempts
// settlement. Terminal for the request.
var ErrNotCreator = errors.New("engine: only the market creator can settle")
