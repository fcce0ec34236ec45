// Package model defines the core domain types shared across the wager engine.
// All ledger amounts are int64 minimal currency units and all odds are
// decimal odds scaled by 100. Never float64 for money.
package model

import "time"

// Status is the lifecycle state of a market.
//
// Only StatusActive and StatusSettled are ever stored; StatusEnded is
// derived from the end time, so a market past its deadline reports "ended"
// without any stored transition.
type Status string

const (
	StatusActive  Status = "active"
	StatusEnded   Status = "ended"
	StatusSettled Status = "settled"
)

// Market is the authoritative record of one fixed-odds market.
// Options and Odds are immutable after creation; pools are mutated only
// by bet placement.
type Market struct {
	ID            int64     `json:"id" db:"id"`
	Title         string    `json:"title" db:"title"`
	Options       []string  `json:"options" db:"options"`
	Odds          []int64   `json:"odds" db:"odds"`                 // decimal odds x100, one per option
	OptionPools   []int64   `json:"option_pools" db:"option_pools"` // minimal units, one per option
	TotalPool     int64     `json:"total_pool" db:"total_pool"`     // == sum(OptionPools)
	EndTime       time.Time `json:"end_time" db:"end_time"`
	Status        Status    `json:"status" db:"status"`
	WinningOption int       `json:"winning_option" db:"winning_option"` // valid only when settled
	Creator       string    `json:"creator" db:"creator"`
	CreatedAt     time.Time `json:"created_at" db:"created_at"`
}

// StatusAt returns the effective lifecycle state at the given instant.
// A market past its end time that has not been settled reports StatusEnded.
func (m *Market) StatusAt(now time.Time) Status {
	if m.Status == StatusSettled {
		return StatusSettled
	}
	if !now.Before(m.EndTime) {
		return StatusEnded
	}
	return StatusActive
}

// Clone returns a deep copy. Stores hand out clones so callers can never
// mutate ledger state outside an engine operation.
func (m *Market) Clone() *Market {
	c := *m
	c.Options = append([]string(nil), m.Options...)
	c.Odds = append([]int64(nil), m.Odds...)
	c.OptionPools = append([]int64(nil), m.OptionPools...)
	return &c
}

// Position is one participant's aggregate stakes in one market.
// It exists only once the participant has placed at least one bet.
type Position struct {
	MarketID int64   `json:"market_id" db:"market_id"`
	UserID   string  `json:"user_id" db:"user_id"`
	Bets     []int64 `json:"bets" db:"bets"`           // minimal units, aligned with Market.Options
	TotalBet int64   `json:"total_bet" db:"total_bet"` // == sum(Bets)
	Claimed  bool    `json:"claimed" db:"claimed"`
}

// Clone returns a deep copy of the position.
func (p *Position) Clone() *Position {
	c := *p
	c.Bets = append([]int64(nil), p.Bets...)
	return &c
}

// Bet is an immutable record of one accepted stake.
// Once created, these are never modified or deleted. The odds value is the
// market odds frozen at creation, recorded here so payouts can be audited
// without re-reading the market.
type Bet struct {
	ID       string    `json:"id" db:"id"`
	MarketID int64     `json:"market_id" db:"market_id"`
	UserID   string    `json:"user_id" db:"user_id"`
	Option   int       `json:"option" db:"option"`
	Amount   int64     `json:"amount" db:"amount"` // minimal units
	Odds     int64     `json:"odds" db:"odds"`     // scaled odds locked at placement
	PlacedAt time.Time `json:"placed_at" db:"placed_at"`
}
