// Package store defines the persistence interface for the wager engine.
// Implementations include PostgreSQL (source of truth), Redis (read-through
// cache), and in-memory (for testing).
package store

import (
	"context"
	"errors"

	"github.com/oddslock/wager-engine/internal/model"
)

// ErrNotFound is returned when a market or position does not exist.
var ErrNotFound = errors.New("store: not found")

// Store is the persistence interface. PostgreSQL is the source of truth;
// Redis provides a read-through cache layer. A successful mutating call
// means the result is durably recorded (commit then acknowledge).
type Store interface {
	// --- Market operations ---

	// CreateMarket persists a new market and assigns its integer ID.
	CreateMarket(ctx context.Context, m *model.Market) error

	// GetMarket retrieves a market by ID.
	GetMarket(ctx context.Context, id int64) (*model.Market, error)

	// ListMarkets returns all markets, newest first.
	ListMarkets(ctx context.Context) ([]model.Market, error)

	// ApplyBet atomically persists the updated market pools, the bettor's
	// updated position, and the immutable bet record. Either all three are
	// recorded or none is.
	ApplyBet(ctx context.Context, m *model.Market, p *model.Position, b *model.Bet) error

	// SettleMarket records the winning option and marks the market settled.
	SettleMarket(ctx context.Context, id int64, winningOption int) error

	// --- Positions ---

	// GetPosition retrieves the position for (market, user).
	// Returns ErrNotFound if the user has never bet on the market.
	GetPosition(ctx context.Context, marketID int64, userID string) (*model.Position, error)

	// ListPositionsByUser returns all positions held by a user.
	ListPositionsByUser(ctx context.Context, userID string) ([]model.Position, error)

	// MarkClaimed flips the position's claimed flag.
	MarkClaimed(ctx context.Context, marketID int64, userID string) error

	// --- Immutable bet ledger ---

	// ListBetsByMarket returns all bets for a market in placement order.
	ListBetsByMarket(ctx context.Context, marketID int64) ([]model.Bet, error)

	// ListBetsByUser returns all bets placed by a user in placement order.
	ListBetsByUser(ctx context.Context, userID string) ([]model.Bet, error)
}
