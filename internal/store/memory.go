package store

import (
	"context"
	"sort"
	"sync"

	"github.com/oddslock/wager-engine/internal/model"
)

// MemoryStore implements Store with in-memory maps. Used for testing
// and development. Not suitable for production (no persistence).
type MemoryStore struct {
	mu        sync.RWMutex
	nextID    int64
	markets   map[int64]*model.Market
	positions map[int64]map[string]*model.Position
	bets      []model.Bet
}

// NewMemoryStore creates a new in-memory store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		markets:   make(map[int64]*model.Market),
		positions: make(map[int64]map[string]*model.Position),
	}
}

func (s *MemoryStore) CreateMarket(_ context.Context, m *model.Market) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.nextID++
	m.ID = s.nextID
	s.markets[m.ID] = m.Clone()
	return nil
}

func (s *MemoryStore) GetMarket(_ context.Context, id int64) (*model.Market, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	m, ok := s.markets[id]
	if !ok {
		return nil, ErrNotFound
	}
	return m.Clone(), nil
}

func (s *MemoryStore) ListMarkets(_ context.Context) ([]model.Market, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	markets := make([]model.Market, 0, len(s.markets))
	for _, m := range s.markets {
		markets = append(markets, *m.Clone())
	}
	sort.Slice(markets, func(i, j int) bool { return markets[i].ID > markets[j].ID })
	return markets, nil
}

func (s *MemoryStore) ApplyBet(_ context.Context, m *model.Market, p *model.Position, b *model.Bet) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.markets[m.ID]; !ok {
		return ErrNotFound
	}

	s.markets[m.ID] = m.Clone()
	byUser, ok := s.positions[m.ID]
	if !ok {
		byUser = make(map[string]*model.Position)
		s.positions[m.ID] = byUser
	}
	byUser[p.UserID] = p.Clone()
	s.bets = append(s.bets, *b)
	return nil
}

func (s *MemoryStore) SettleMarket(_ context.Context, id int64, winningOption int) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	m, ok := s.markets[id]
	if !ok {
		return ErrNotFound
	}
	m.Status = model.StatusSettled
	m.WinningOption = winningOption
	return nil
}

func (s *MemoryStore) GetPosition(_ context.Context, marketID int64, userID string) (*model.Position, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	p, ok := s.positions[marketID][userID]
	if !ok {
		return nil, ErrNotFound
	}
	return p.Clone(), nil
}

func (s *MemoryStore) ListPositionsByUser(_ context.Context, userID string) ([]model.Position, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var positions []model.Position
	for _, byUser := range s.positions {
		if p, ok := byUser[userID]; ok {
			positions = append(positions, *p.Clone())
		}
	}
	sort.Slice(positions, func(i, j int) bool { return positions[i].MarketID < positions[j].MarketID })
	return positions, nil
}

func (s *MemoryStore) MarkClaimed(_ context.Context, marketID int64, userID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	p, ok := s.positions[marketID][userID]
	if !ok {
		return ErrNotFound
	}
	p.Claimed = true
	return nil
}

func (s *MemoryStore) ListBetsByMarket(_ context.Context, marketID int64) ([]model.Bet, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var result []model.Bet
	for _, b := range s.bets {
		if b.MarketID == marketID {
			result = append(result, b)
		}
	}
	return result, nil
}

func (s *MemoryStore) ListBetsByUser(_ context.Context, userID string) ([]model.Bet, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var result []model.Bet
	for _, b := range s.bets {
		if b.UserID == userID {
			result = append(result, b)
		}
	}
	return result, nil
}
