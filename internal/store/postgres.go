package store

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/oddslock/wager-engine/internal/model"
)

// PostgresStore implements Store using PostgreSQL as the source of truth.
// Amounts and odds are stored as BIGINT; options, odds, and pools use
// array columns aligned by option index.
type PostgresStore struct {
	pool *pgxpool.Pool
}

// NewPostgresStore creates a new PostgreSQL-backed store.
func NewPostgresStore(pool *pgxpool.Pool) *PostgresStore {
	return &PostgresStore{pool: pool}
}

const marketColumns = `id, title, options, odds, option_pools, total_pool,
	end_time, status, winning_option, creator, created_at`

func (s *PostgresStore) CreateMarket(ctx context.Context, m *model.Market) error {
	return s.pool.QueryRow(ctx,
		`INSERT INTO markets (title, options, odds, option_pools, total_pool,
		                      end_time, status, winning_option, creator, created_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
		 RETURNING id`,
		m.Title, m.Options, m.Odds, m.OptionPools, m.TotalPool,
		m.EndTime, m.Status, m.WinningOption, m.Creator, m.CreatedAt,
	).Scan(&m.ID)
}

func (s *PostgresStore) GetMarket(ctx context.Context, id int64) (*model.Market, error) {
	row := s.pool.QueryRow(ctx,
		`SELECT `+marketColumns+` FROM markets WHERE id = $1`, id)

	m, err := scanMarket(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("get market %d: %w", id, err)
	}
	return m, nil
}

func (s *PostgresStore) ListMarkets(ctx context.Context) ([]model.Market, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT `+marketColumns+` FROM markets ORDER BY id DESC`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var markets []model.Market
	for rows.Next() {
		m, err := scanMarket(rows)
		if err != nil {
			return nil, err
		}
		markets = append(markets, *m)
	}
	return markets, rows.Err()
}

// ApplyBet runs the pool update, position upsert, and bet insert in one
// transaction. The engine computes the new state under its per-market lock;
// this method only persists it.
func (s *PostgresStore) ApplyBet(ctx context.Context, m *model.Market, p *model.Position, b *model.Bet) error {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx)

	if _, err := tx.Exec(ctx,
		`UPDATE markets SET option_pools = $2, total_pool = $3 WHERE id = $1`,
		m.ID, m.OptionPools, m.TotalPool,
	); err != nil {
		return fmt.Errorf("update market pools: %w", err)
	}

	if _, err := tx.Exec(ctx,
		`INSERT INTO positions (market_id, user_id, bets, total_bet, claimed)
		 VALUES ($1, $2, $3, $4, false)
		 ON CONFLICT (market_id, user_id)
		 DO UPDATE SET bets = EXCLUDED.bets, total_bet = EXCLUDED.total_bet`,
		p.MarketID, p.UserID, p.Bets, p.TotalBet,
	); err != nil {
		return fmt.Errorf("upsert position: %w", err)
	}

	if _, err := tx.Exec(ctx,
		`INSERT INTO bets (id, market_id, user_id, option, amount, odds, placed_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7)`,
		b.ID, b.MarketID, b.UserID, b.Option, b.Amount, b.Odds, b.PlacedAt,
	); err != nil {
		return fmt.Errorf("insert bet: %w", err)
	}

	return tx.Commit(ctx)
}

func (s *PostgresStore) SettleMarket(ctx context.Context, id int64, winningOption int) error {
	tag, err := s.pool.Exec(ctx,
		`UPDATE markets SET status = $2, winning_option = $3 WHERE id = $1`,
		id, model.StatusSettled, winningOption,
	)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *PostgresStore) GetPosition(ctx context.Context, marketID int64, userID string) (*model.Position, error) {
	var p model.Position
	err := s.pool.QueryRow(ctx,
		`SELECT market_id, user_id, bets, total_bet, claimed
		 FROM positions WHERE market_id = $1 AND user_id = $2`,
		marketID, userID,
	).Scan(&p.MarketID, &p.UserID, &p.Bets, &p.TotalBet, &p.Claimed)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("get position %d/%s: %w", marketID, userID, err)
	}
	return &p, nil
}

func (s *PostgresStore) ListPositionsByUser(ctx context.Context, userID string) ([]model.Position, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT market_id, user_id, bets, total_bet, claimed
		 FROM positions WHERE user_id = $1 ORDER BY market_id`, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var positions []model.Position
	for rows.Next() {
		var p model.Position
		if err := rows.Scan(&p.MarketID, &p.UserID, &p.Bets, &p.TotalBet, &p.Claimed); err != nil {
			return nil, err
		}
		positions = append(positions, p)
	}
	return positions, rows.Err()
}

func (s *PostgresStore) MarkClaimed(ctx context.Context, marketID int64, userID string) error {
	tag, err := s.pool.Exec(ctx,
		`UPDATE positions SET claimed = true WHERE market_id = $1 AND user_id = $2`,
		marketID, userID,
	)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *PostgresStore) ListBetsByMarket(ctx context.Context, marketID int64) ([]model.Bet, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT id, market_id, user_id, option, amount, odds, placed_at
		 FROM bets WHERE market_id = $1 ORDER BY placed_at`, marketID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	return scanBets(rows)
}

func (s *PostgresStore) ListBetsByUser(ctx context.Context, userID string) ([]model.Bet, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT id, market_id, user_id, option, amount, odds, placed_at
		 FROM bets WHERE user_id = $1 ORDER BY placed_at`, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	return scanBets(rows)
}

func scanMarket(row pgx.Row) (*model.Market, error) {
	var m model.Market
	err := row.Scan(&m.ID, &m.Title, &m.Options, &m.Odds, &m.OptionPools,
		&m.TotalPool, &m.EndTime, &m.Status, &m.WinningOption,
		&m.Creator, &m.CreatedAt)
	if err != nil {
		return nil, err
	}
	return &m, nil
}

func scanBets(rows pgx.Rows) ([]model.Bet, error) {
	var bets []model.Bet
	for rows.Next() {
		var b model.Bet
		if err := rows.Scan(&b.ID, &b.MarketID, &b.UserID, &b.Option,
			&b.Amount, &b.Odds, &b.PlacedAt); err != nil {
			return nil, err
		}
		bets = append(bets, b)
	}
	return bets, rows.Err()
}
