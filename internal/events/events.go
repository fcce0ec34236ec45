// Package events publishes ledger state transitions to Kafka so downstream
// consumers (escrow/transfer workers, audit pipelines) can react to them.
// Publishing is best-effort and strictly after the store commit: a lost
// event never means a lost ledger write.
package events

import (
	"context"
	"encoding/json"
	"time"

	"github.com/segmentio/kafka-go"
)

// Topic names.
const (
	TopicBetPlaced     = "bet_placed"
	TopicMarketSettled = "market_settled"
	TopicPayoutClaimed = "payout_claimed"
)

// BetPlaced is emitted after a bet is durably recorded.
type BetPlaced struct {
	BetID    string `json:"bet_id"`
	MarketID int64  `json:"market_id"`
	UserID   string `json:"user_id"`
	Option   int    `json:"option"`
	Amount   int64  `json:"amount"` // minimal units
	Odds     int64  `json:"odds"`   // scaled odds locked at placement
	TsUnixMs int64  `json:"ts_unix_ms"`
}

// MarketSettled is emitted after settlement is durably recorded.
type MarketSettled struct {
	MarketID      int64 `json:"market_id"`
	WinningOption int   `json:"winning_option"`
	TotalPool     int64 `json:"total_pool"` // minimal units
	TsUnixMs      int64 `json:"ts_unix_ms"`
}

// PayoutClaimed is emitted when a payout is authorized; the transfer layer
// consumes it to disburse funds.
type PayoutClaimed struct {
	MarketID int64  `json:"market_id"`
	UserID   string `json:"user_id"`
	Amount   int64  `json:"amount"` // minimal units
	TsUnixMs int64  `json:"ts_unix_ms"`
}

// Publisher writes ledger events to Kafka.
type Publisher struct {
	bets        *kafka.Writer
	settlements *kafka.Writer
	claims      *kafka.Writer
}

// NewPublisher creates a publisher against the given broker address.
func NewPublisher(brokers string) *Publisher {
	return &Publisher{
		bets:        newWriter(brokers, TopicBetPlaced),
		settlements: newWriter(brokers, TopicMarketSettled),
		claims:      newWriter(brokers, TopicPayoutClaimed),
	}
}

func newWriter(brokers, topic string) *kafka.Writer {
	return &kafka.Writer{
		Addr:                   kafka.TCP(brokers),
		Topic:                  topic,
		Balancer:               &kafka.LeastBytes{},
		AllowAutoTopicCreation: true,
	}
}

func (p *Publisher) PublishBetPlaced(ctx context.Context, e BetPlaced) error {
	e.TsUnixMs = time.Now().UnixMilli()
	return writeJSON(ctx, p.bets, e)
}

func (p *Publisher) PublishMarketSettled(ctx context.Context, e MarketSettled) error {
	e.TsUnixMs = time.Now().UnixMilli()
	return writeJSON(ctx, p.settlements, e)
}

func (p *Publisher) PublishPayoutClaimed(ctx context.Context, e PayoutClaimed) error {
	e.TsUnixMs = time.Now().UnixMilli()
	return writeJSON(ctx, p.claims, e)
}

// Close flushes and closes all writers.
func (p *Publisher) Close() error {
	for _, w := range []*kafka.Writer{p.bets, p.settlements, p.claims} {
		if err := w.Close(); err != nil {
			return err
		}
	}
	return nil
}

func writeJSON(ctx context.Context, w *kafka.Writer, payload any) error {
	b, err := json.Marshal(payload)
	if err != nil {
		return err
	}
	return w.WriteMessages(ctx, kafka.Message{Value: b, Time: time.Now()})
}
