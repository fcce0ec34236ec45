// Package engine validates and applies market commands: create, bet,
// settle, claim. It owns the lifecycle and payout rules and serializes
// mutations per market; it performs no I/O of its own beyond the injected
// store, and never reads the clock: `now` is always a parameter, so the
// engine is deterministic and testable without real time.
package engine

import (
	"context"
	"errors"
	"fmt"
	"math"
	"time"

	"github.com/google/uuid"

	"github.com/oddslock/wager-engine/internal/model"
	"github.com/oddslock/wager-engine/internal/money"
	"github.com/oddslock/wager-engine/internal/store"
)

const (
	// MinBet is the minimum stake per bet: one whole currency unit.
	MinBet = money.Scale

	// CommissionPct is the platform commission charged on gross winnings.
	CommissionPct int64 = 5

	// MinDurationHours and MaxDurationHours bound the betting window.
	MinDurationHours int64 = 1
	MaxDurationHours int64 = 168
)

// Engine applies commands against the market ledger. Mutating operations
// on the same market are mutually exclusive; reads are served from store
// snapshots and never observe a partial write.
type Engine struct {
	store store.Store
	locks *marketLocks
}

// New creates an engine over the given store.
func New(st store.Store) *Engine {
	return &Engine{
		store: st,
		locks: newMarketLocks(),
	}
}

// CreateMarketParams carries the createMarket command. Odds are already
// scaled (decimal odds x100); conversion from decimal form happens at the
// boundary via the money package.
type CreateMarketParams struct {
	Creator       string
	Title         string
	Options       []string
	Odds          []int64
	DurationHours int64
	Now           time.Time
}

// CreateMarket validates and persists a new market. All pools start at
// zero and odds are fixed for the market's lifetime.
func (e *Engine) CreateMarket(ctx context.Context, p CreateMarketParams) (*model.Market, error) {
	if len(p.Options) < 2 || len(p.Options) > 3 {
		return nil, ErrOptionCount
	}
	seen := make(map[string]bool, len(p.Options))
	for _, opt := range p.Options {
		if opt == "" || seen[opt] {
			return nil, ErrOptionLabel
		}
		seen[opt] = true
	}
	if len(p.Odds) != len(p.Options) {
		return nil, ErrOddsCount
	}
	for i, odds := range p.Odds {
		if err := money.ValidateOdds(odds); err != nil {
			return nil, fmt.Errorf("option %d: %w", i, err)
		}
	}
	if p.DurationHours < MinDurationHours || p.DurationHours > MaxDurationHours {
		return nil, ErrDuration
	}

	m := &model.Market{
		Title:       p.Title,
		Options:     append([]string(nil), p.Options...),
		Odds:        append([]int64(nil), p.Odds...),
		OptionPools: make([]int64, len(p.Options)),
		TotalPool:   0,
		EndTime:     p.Now.Add(time.Duration(p.DurationHours) * time.Hour),
		Status:      model.StatusActive,
		Creator:     p.Creator,
		CreatedAt:   p.Now,
	}
	if err := e.store.CreateMarket(ctx, m); err != nil {
		return nil, err
	}
	return m, nil
}

// PlaceBet stakes `amount` minimal units on an option and returns the
// updated market, the bettor's position, and the immutable bet record.
// The market pools and the position update together or not at all.
// Preconditions are checked in order: market open, option valid, amount
// at least MinBet.
func (e *Engine) PlaceBet(ctx context.Context, marketID int64, userID string, option int, amount int64, now time.Time) (*model.Market, *model.Position, *model.Bet, error) {
	release := e.locks.acquire(marketID)
	defer release()

	m, err := e.store.GetMarket(ctx, marketID)
	if err != nil {
		return nil, nil, nil, err
	}

	if m.StatusAt(now) != model.StatusActive {
		return nil, nil, nil, ErrMarketClosed
	}
	if option < 0 || option >= len(m.Options) {
		return nil, nil, nil, ErrInvalidOption
	}
	if amount < MinBet {
		return nil, nil, nil, ErrBelowMinimum
	}
	if err := money.ValidateAmount(amount); err != nil {
		return nil, nil, nil, err
	}
	if amount > math.MaxInt64-m.TotalPool {
		return nil, nil, nil, money.ErrAmountRange
	}

	pos, err := e.store.GetPosition(ctx, marketID, userID)
	switch {
	case err == nil:
	case errors.Is(err, store.ErrNotFound):
		// First bet by this user on this market.
		pos = &model.Position{
			MarketID: marketID,
			UserID:   userID,
			Bets:     make([]int64, len(m.Options)),
		}
	default:
		return nil, nil, nil, err
	}

	m.OptionPools[option] += amount
	m.TotalPool += amount
	pos.Bets[option] += amount
	pos.TotalBet += amount

	bet := &model.Bet{
		ID:       uuid.New().String(),
		MarketID: marketID,
		UserID:   userID,
		Option:   option,
		Amount:   amount,
		Odds:     m.Odds[option],
		PlacedAt: now,
	}

	if err := e.store.ApplyBet(ctx, m, pos, bet); err != nil {
		return nil, nil, nil, err
	}
	return m, pos, bet, nil
}

// Settle irreversibly records the winning option. Only the creator may
// settle, only after the betting window has closed, and only once.
func (e *Engine) Settle(ctx context.Context, marketID int64, winningOption int, caller string, now time.Time) (*model.Market, error) {
	release := e.locks.acquire(marketID)
	defer release()

	m, err := e.store.GetMarket(ctx, marketID)
	if err != nil {
		return nil, err
	}

	if caller != m.Creator {
		return nil, ErrNotCreator
	}
	if m.Status == model.StatusSettled {
		return nil, ErrAlreadySettled
	}
	if now.Before(m.EndTime) {
		return nil, ErrNotEnded
	}
	if winningOption < 0 || winningOption >= len(m.Options) {
		return nil, ErrInvalidOption
	}

	if err := e.store.SettleMarket(ctx, marketID, winningOption); err != nil {
		return nil, err
	}
	m.Status = model.StatusSettled
	m.WinningOption = winningOption
	return m, nil
}

// Payout computes a participant's net payout for a settled market:
//
//	gross = stakeOnWinner * odds[winner] / 100   (floor)
//	net   = gross - floor(gross * 5 / 100)
//
// Pure and idempotent. A participant with no stake on the winning option
// is owed zero.
func Payout(m *model.Market, p *model.Position) (int64, error) {
	if m.Status != model.StatusSettled {
		return 0, ErrNotSettled
	}
	stake := p.Bets[m.WinningOption]
	if stake == 0 {
		return 0, nil
	}
	odds := m.Odds[m.WinningOption]
	if stake > math.MaxInt64/odds {
		return 0, money.ErrAmountRange
	}
	gross := stake * odds / money.OddsScale
	commission := gross * CommissionPct / 100
	return gross - commission, nil
}

// PreviewPayout computes the payout a user would receive, without mutating
// any state. Fails with ErrNotSettled before settlement.
func (e *Engine) PreviewPayout(ctx context.Context, marketID int64, userID string) (int64, error) {
	m, err := e.store.GetMarket(ctx, marketID)
	if err != nil {
		return 0, err
	}
	p, err := e.store.GetPosition(ctx, marketID, userID)
	if err != nil {
		return 0, err
	}
	return Payout(m, p)
}

// Claim authorizes a participant's payout exactly once and returns the
// amount in minimal units. The engine never moves funds itself; the
// caller's transfer layer disburses the returned amount.
func (e *Engine) Claim(ctx context.Context, marketID int64, userID string) (int64, error) {
	release := e.locks.acquire(marketID)
	defer release()

	m, err := e.store.GetMarket(ctx, marketID)
	if err != nil {
		return 0, err
	}
	p, err := e.store.GetPosition(ctx, marketID, userID)
	if err != nil {
		return 0, err
	}

	if p.Claimed {
		return 0, ErrAlreadyClaimed
	}
	amount, err := Payout(m, p)
	if err != nil {
		return 0, err
	}

	if err := e.store.MarkClaimed(ctx, marketID, userID); err != nil {
		return 0, err
	}
	return amount, nil
}
