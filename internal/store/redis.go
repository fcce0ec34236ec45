package store

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/oddslock/wager-engine/internal/model"
)

// CachedStore wraps a primary Store (PostgreSQL) with a Redis read-through
// cache for markets and positions. Writes go to the primary store and
// invalidate the cache; reads check Redis first then fall back to the
// primary.
type CachedStore struct {
	primary Store
	rdb     *redis.Client
	ttl     time.Duration
}

// NewCachedStore creates a cached wrapper around a primary store.
func NewCachedStore(primary Store, rdb *redis.Client, ttl time.Duration) *CachedStore {
	return &CachedStore{
		primary: primary,
		rdb:     rdb,
		ttl:     ttl,
	}
}

// --- Write-through (write to primary, invalidate cache) ---

func (s *CachedStore) CreateMarket(ctx context.Context, m *model.Market) error {
	if err := s.primary.CreateMarket(ctx, m); err != nil {
		return err
	}
	s.cacheMarket(ctx, m)
	return nil
}

func (s *CachedStore) ApplyBet(ctx context.Context, m *model.Market, p *model.Position, b *model.Bet) error {
	if err := s.primary.ApplyBet(ctx, m, p, b); err != nil {
		return err
	}
	// Invalidate; next read re-populates from the primary.
	s.rdb.Del(ctx, marketKey(m.ID), positionKey(p.MarketID, p.UserID))
	return nil
}

func (s *CachedStore) SettleMarket(ctx context.Context, id int64, winningOption int) error {
	if err := s.primary.SettleMarket(ctx, id, winningOption); err != nil {
		return err
	}
	s.rdb.Del(ctx, marketKey(id))
	return nil
}

func (s *CachedStore) MarkClaimed(ctx context.Context, marketID int64, userID string) error {
	if err := s.primary.MarkClaimed(ctx, marketID, userID); err != nil {
		return err
	}
	s.rdb.Del(ctx, positionKey(marketID, userID))
	return nil
}

// --- Read-through (check cache first) ---

func (s *CachedStore) GetMarket(ctx context.Context, id int64) (*model.Market, error) {
	data, err := s.rdb.Get(ctx, marketKey(id)).Bytes()
	if err == nil {
		var m model.Market
		if json.Unmarshal(data, &m) == nil {
			return &m, nil
		}
	}

	m, err := s.primary.GetMarket(ctx, id)
	if err != nil {
		return nil, err
	}

	s.cacheMarket(ctx, m)
	return m, nil
}

func (s *CachedStore) GetPosition(ctx context.Context, marketID int64, userID string) (*model.Position, error) {
	data, err := s.rdb.Get(ctx, positionKey(marketID, userID)).Bytes()
	if err == nil {
		var p model.Position
		if json.Unmarshal(data, &p) == nil {
			return &p, nil
		}
	}

	p, err := s.primary.GetPosition(ctx, marketID, userID)
	if err != nil {
		return nil, err
	}

	if data, err := json.Marshal(p); err == nil {
		s.rdb.Set(ctx, positionKey(marketID, userID), data, s.ttl)
	}
	return p, nil
}

// --- Passthrough (not cached) ---

func (s *CachedStore) ListMarkets(ctx context.Context) ([]model.Market, error) {
	return s.primary.ListMarkets(ctx)
}

func (s *CachedStore) ListPositionsByUser(ctx context.Context, userID string) ([]model.Position, error) {
	return s.primary.ListPositionsByUser(ctx, userID)
}

func (s *CachedStore) ListBetsByMarket(ctx context.Context, marketID int64) ([]model.Bet, error) {
	return s.primary.ListBetsByMarket(ctx, marketID)
}

func (s *CachedStore) ListBetsByUser(ctx context.Context, userID string) ([]model.Bet, error) {
	return s.primary.ListBetsByUser(ctx, userID)
}

// --- Cache helpers ---

func (s *CachedStore) cacheMarket(ctx context.Context, m *model.Market) {
	if data, err := json.Marshal(m); err == nil {
		s.rdb.Set(ctx, marketKey(m.ID), data, s.ttl)
	}
}

func marketKey(id int64) string { return fmt.Sprintf("market:%d", id) }

func positionKey(marketID int64, userID string) string {
	return fmt.Sprintf("position:%d:%s", marketID, userID)
}
