package store_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/oddslock/wager-engine/internal/model"
	"github.com/oddslock/wager-engine/internal/store"
)

func testMarket() *model.Market {
	return &model.Market{
		Title:       "Home vs Away",
		Options:     []string{"Home", "Draw", "Away"},
		Odds:        []int64{180, 320, 220},
		OptionPools: make([]int64, 3),
		EndTime:     time.Now().UTC().Add(24 * time.Hour),
		Status:      model.StatusActive,
		Creator:     "creator",
		CreatedAt:   time.Now().UTC(),
	}
}

func TestMemoryStore_CreateAssignsSequentialIDs(t *testing.T) {
	ctx := context.Background()
	s := store.NewMemoryStore()

	first := testMarket()
	second := testMarket()
	if err := s.CreateMarket(ctx, first); err != nil {
		t.Fatalf("CreateMarket failed: %v", err)
	}
	if err := s.CreateMarket(ctx, second); err != nil {
		t.Fatalf("CreateMarket failed: %v", err)
	}

	if first.ID != 1 || second.ID != 2 {
		t.Errorf("expected ids 1 and 2, got %d and %d", first.ID, second.ID)
	}
}

func TestMemoryStore_GetMarketNotFound(t *testing.T) {
	s := store.NewMemoryStore()

	_, err := s.GetMarket(context.Background(), 42)
	if !errors.Is(err, store.ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
}

func TestMemoryStore_GetMarketReturnsCopy(t *testing.T) {
	ctx := context.Background()
	s := store.NewMemoryStore()

	m := testMarket()
	if err := s.CreateMarket(ctx, m); err != nil {
		t.Fatalf("CreateMarket failed: %v", err)
	}

	got, err := s.GetMarket(ctx, m.ID)
	if err != nil {
		t.Fatalf("GetMarket failed: %v", err)
	}

	// Mutating the returned snapshot must not touch stored state.
	got.OptionPools[0] = 999
	got.TotalPool = 999

	again, err := s.GetMarket(ctx, m.ID)
	if err != nil {
		t.Fatalf("GetMarket failed: %v", err)
	}
	if again.OptionPools[0] != 0 || again.TotalPool != 0 {
		t.Error("stored market was mutated through a returned snapshot")
	}
}

func TestMemoryStore_ApplyBetPersistsAll(t *testing.T) {
	ctx := context.Background()
	s := store.NewMemoryStore()

	m := testMarket()
	if err := s.CreateMarket(ctx, m); err != nil {
		t.Fatalf("CreateMarket failed: %v", err)
	}

	m.OptionPools[1] = 5_000_000
	m.TotalPool = 5_000_000
	pos := &model.Position{
		MarketID: m.ID,
		UserID:   "alice",
		Bets:     []int64{0, 5_000_000, 0},
		TotalBet: 5_000_000,
	}
	bet := &model.Bet{
		ID:       "bet-1",
		MarketID: m.ID,
		UserID:   "alice",
		Option:   1,
		Amount:   5_000_000,
		Odds:     320,
		PlacedAt: time.Now().UTC(),
	}
	if err := s.ApplyBet(ctx, m, pos, bet); err != nil {
		t.Fatalf("ApplyBet failed: %v", err)
	}

	gotM, err := s.GetMarket(ctx, m.ID)
	if err != nil {
		t.Fatalf("GetMarket failed: %v", err)
	}
	if gotM.TotalPool != 5_000_000 || gotM.OptionPools[1] != 5_000_000 {
		t.Errorf("market pools not persisted: %+v", gotM)
	}

	gotP, err := s.GetPosition(ctx, m.ID, "alice")
	if err != nil {
		t.Fatalf("GetPosition failed: %v", err)
	}
	if gotP.TotalBet != 5_000_000 {
		t.Errorf("position not persisted: %+v", gotP)
	}

	bets, err := s.ListBetsByMarket(ctx, m.ID)
	if err != nil {
		t.Fatalf("ListBetsByMarket failed: %v", err)
	}
	if len(bets) != 1 || bets[0].ID != "bet-1" || bets[0].Odds != 320 {
		t.Errorf("bet ledger not persisted: %+v", bets)
	}
}

func TestMemoryStore_ApplyBetUnknownMarket(t *testing.T) {
	s := store.NewMemoryStore()

	m := testMarket()
	m.ID = 7
	err := s.ApplyBet(context.Background(), m, &model.Position{MarketID: 7, UserID: "alice", Bets: make([]int64, 3)}, &model.Bet{ID: "x", MarketID: 7})
	if !errors.Is(err, store.ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
}

func TestMemoryStore_SettleMarket(t *testing.T) {
	ctx := context.Background()
	s := store.NewMemoryStore()

	m := testMarket()
	if err := s.CreateMarket(ctx, m); err != nil {
		t.Fatalf("CreateMarket failed: %v", err)
	}
	if err := s.SettleMarket(ctx, m.ID, 2); err != nil {
		t.Fatalf("SettleMarket failed: %v", err)
	}

	got, err := s.GetMarket(ctx, m.ID)
	if err != nil {
		t.Fatalf("GetMarket failed: %v", err)
	}
	if got.Status != model.StatusSettled || got.WinningOption != 2 {
		t.Errorf("settlement not persisted: %+v", got)
	}

	if err := s.SettleMarket(ctx, 99, 0); !errors.Is(err, store.ErrNotFound) {
		t.Errorf("expected ErrNotFound for unknown market, got %v", err)
	}
}

func TestMemoryStore_MarkClaimed(t *testing.T) {
	ctx := context.Background()
	s := store.NewMemoryStore()

	m := testMarket()
	if err := s.CreateMarket(ctx, m); err != nil {
		t.Fatalf("CreateMarket failed: %v", err)
	}
	pos := &model.Position{MarketID: m.ID, UserID: "alice", Bets: make([]int64, 3)}
	if err := s.ApplyBet(ctx, m, pos, &model.Bet{ID: "b", MarketID: m.ID, UserID: "alice"}); err != nil {
		t.Fatalf("ApplyBet failed: %v", err)
	}

	if err := s.MarkClaimed(ctx, m.ID, "alice"); err != nil {
		t.Fatalf("MarkClaimed failed: %v", err)
	}
	got, err := s.GetPosition(ctx, m.ID, "alice")
	if err != nil {
		t.Fatalf("GetPosition failed: %v", err)
	}
	if !got.Claimed {
		t.Error("expected position marked claimed")
	}

	if err := s.MarkClaimed(ctx, m.ID, "nobody"); !errors.Is(err, store.ErrNotFound) {
		t.Errorf("expected ErrNotFound for unknown position, got %v", err)
	}
}

func TestMemoryStore_ListMarketsNewestFirst(t *testing.T) {
	ctx := context.Background()
	s := store.NewMemoryStore()

	for i := 0; i < 3; i++ {
		if err := s.CreateMarket(ctx, testMarket()); err != nil {
			t.Fatalf("CreateMarket failed: %v", err)
		}
	}

	markets, err := s.ListMarkets(ctx)
	if err != nil {
		t.Fatalf("ListMarkets failed: %v", err)
	}
	if len(markets) != 3 {
		t.Fatalf("expected 3 markets, got %d", len(markets))
	}
	if markets[0].ID != 3 || markets[2].ID != 1 {
		t.Errorf("expected newest-first ordering, got ids %d..%d", markets[0].ID, markets[2].ID)
	}
}

func TestMemoryStore_UserQueries(t *testing.T) {
	ctx := context.Background()
	s := store.NewMemoryStore()

	m1 := testMarket()
	m2 := testMarket()
	s.CreateMarket(ctx, m1)
	s.CreateMarket(ctx, m2)

	for i, m := range []*model.Market{m1, m2} {
		pos := &model.Position{MarketID: m.ID, UserID: "alice", Bets: []int64{1_000_000, 0, 0}, TotalBet: 1_000_000}
		bet := &model.Bet{ID: string(rune('a' + i)), MarketID: m.ID, UserID: "alice", Amount: 1_000_000, Odds: 180}
		if err := s.ApplyBet(ctx, m, pos, bet); err != nil {
			t.Fatalf("ApplyBet failed: %v", err)
		}
	}

	positions, err := s.ListPositionsByUser(ctx, "alice")
	if err != nil {
		t.Fatalf("ListPositionsByUser failed: %v", err)
	}
	if len(positions) != 2 || positions[0].MarketID != m1.ID || positions[1].MarketID != m2.ID {
		t.Errorf("unexpected positions: %+v", positions)
	}

	bets, err := s.ListBetsByUser(ctx, "alice")
	if err != nil {
		t.Fatalf("ListBetsByUser failed: %v", err)
	}
	if len(bets) != 2 {
		t.Errorf("expected 2 bets, got %d", len(bets))
	}

	if bets, _ := s.ListBetsByUser(ctx, "bob"); len(bets) != 0 {
		t.Errorf("expected no bets for bob, got %d", len(bets))
	}
}
