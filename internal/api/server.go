// Package api exposes the wager engine over HTTP. The engine itself is
// transport-agnostic; this package translates JSON commands into engine
// calls, maps failure kinds onto status codes, and broadcasts accepted
// transitions over WebSocket and Kafka.
package api

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/shopspring/decimal"

	"github.com/oddslock/wager-engine/internal/engine"
	"github.com/oddslock/wager-engine/internal/events"
	"github.com/oddslock/wager-engine/internal/metrics"
	"github.com/oddslock/wager-engine/internal/model"
	"github.com/oddslock/wager-engine/internal/money"
	"github.com/oddslock/wager-engine/internal/store"
)

// Server handles market operations over HTTP.
// Pass nil for hub or publisher if broadcasting is not needed.
type Server struct {
	engine    *engine.Engine
	store     store.Store
	hub       *WSHub
	publisher *events.Publisher
	clock     func() time.Time
}

// NewServer creates an HTTP server over the engine.
func NewServer(e *engine.Engine, st store.Store, hub *WSHub, pub *events.Publisher) *Server {
	return &Server{
		engine:    e,
		store:     st,
		hub:       hub,
		publisher: pub,
		clock:     func() time.Time { return time.Now().UTC() },
	}
}

// --- Request/Response types ---

// CreateMarketRequest is the JSON body for market creation. Odds may be
// given pre-scaled (integers, decimal odds x100) or in decimal form; the
// decimal form is converted through the money codec.
type CreateMarketRequest struct {
	Creator       string            `json:"creator"`
	Title         string            `json:"title"`
	Options       []string          `json:"options"`
	Odds          []int64           `json:"odds,omitempty"`
	DecimalOdds   []decimal.Decimal `json:"decimal_odds,omitempty"`
	DurationHours int64             `json:"duration_hours"`
}

// PlaceBetRequest is the JSON body for bet placement. Amount is in minimal
// units; DisplayAmount is the whole-unit alternative for human-facing
// callers.
type PlaceBetRequest struct {
	UserID        string          `json:"user_id"`
	Option        int             `json:"option"`
	Amount        int64           `json:"amount,omitempty"`
	DisplayAmount decimal.Decimal `json:"display_amount,omitempty"`
}

// PlaceBetResponse returns the accepted bet record plus the post-bet
// market and position snapshots.
type PlaceBetResponse struct {
	Bet      *model.Bet      `json:"bet"`
	Market   marketView      `json:"market"`
	Position *model.Position `json:"position"`
}

// SettleRequest is the JSON body for settlement.
type SettleRequest struct {
	Caller        string `json:"caller"`
	WinningOption int    `json:"winning_option"`
}

// ClaimRequest is the JSON body for claiming a payout.
type ClaimRequest struct {
	UserID string `json:"user_id"`
}

// PayoutResponse carries an authorized or previewed payout in both minimal
// and display units.
type PayoutResponse struct {
	Amount        int64           `json:"amount"`
	DisplayAmount decimal.Decimal `json:"display_amount"`
}

// marketView augments a market snapshot with its effective status, so a
// market past its deadline reports "ended" even though only active/settled
// are stored.
type marketView struct {
	model.Market
	Status model.Status `json:"status"`
}

func (s *Server) view(m *model.Market) marketView {
	return marketView{Market: *m, Status: m.StatusAt(s.clock())}
}

// --- HTTP Handlers ---

// CreateMarket handles POST /api/v1/markets
func (s *Server) CreateMarket(w http.ResponseWriter, r *http.Request) {
	var req CreateMarketRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, "invalid request body", http.StatusBadRequest)
		return
	}

	odds := req.Odds
	if len(odds) == 0 && len(req.DecimalOdds) > 0 {
		odds = make([]int64, len(req.DecimalOdds))
		for i, dec := range req.DecimalOdds {
			scaled, err := money.ScaleOdds(dec)
			if err != nil {
				s.writeFailure(w, err)
				return
			}
			odds[i] = scaled
		}
	}

	market, err := s.engine.CreateMarket(r.Context(), engine.CreateMarketParams{
		Creator:       req.Creator,
		Title:         req.Title,
		Options:       req.Options,
		Odds:          odds,
		DurationHours: req.DurationHours,
		Now:           s.clock(),
	})
	if err != nil {
		s.writeFailure(w, err)
		return
	}
	metrics.MarketsCreated.Inc()

	slog.Info("market created",
		"id", market.ID,
		"title", market.Title,
		"options", len(market.Options),
		"creator", market.Creator,
		"end_time", market.EndTime,
	)

	writeJSON(w, http.StatusCreated, s.view(market))
}

// GetMarket handles GET /api/v1/markets/{marketID}
func (s *Server) GetMarket(w http.ResponseWriter, r *http.Request) {
	id, err := marketID(r)
	if err != nil {
		writeError(w, "invalid market id", http.StatusBadRequest)
		return
	}

	market, err := s.store.GetMarket(r.Context(), id)
	if err != nil {
		s.writeFailure(w, err)
		return
	}
	writeJSON(w, http.StatusOK, s.view(market))
}

// ListMarkets handles GET /api/v1/markets
func (s *Server) ListMarkets(w http.ResponseWriter, r *http.Request) {
	markets, err := s.store.ListMarkets(r.Context())
	if err != nil {
		s.writeFailure(w, err)
		return
	}

	views := make([]marketView, 0, len(markets))
	for i := range markets {
		views = append(views, s.view(&markets[i]))
	}
	writeJSON(w, http.StatusOK, views)
}

// PlaceBet handles POST /api/v1/markets/{marketID}/bets
func (s *Server) PlaceBet(w http.ResponseWriter, r *http.Request) {
	id, err := marketID(r)
	if err != nil {
		writeError(w, "invalid market id", http.StatusBadRequest)
		return
	}

	var req PlaceBetRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, "invalid request body", http.StatusBadRequest)
		return
	}
	if req.UserID == "" {
		writeError(w, "user_id is required", http.StatusBadRequest)
		return
	}

	amount := req.Amount
	if amount == 0 && !req.DisplayAmount.IsZero() {
		amount, err = money.ToMinimalUnits(req.DisplayAmount)
		if err != nil {
			s.writeFailure(w, err)
			return
		}
	}

	market, position, bet, err := s.engine.PlaceBet(r.Context(), id, req.UserID, req.Option, amount, s.clock())
	if err != nil {
		s.writeFailure(w, err)
		return
	}

	metrics.BetsTotal.WithLabelValues(strconv.Itoa(req.Option)).Inc()
	metrics.BetAmount.Observe(money.ToDisplayUnits(amount).InexactFloat64())

	slog.Info("bet placed",
		"market", market.ID,
		"user", req.UserID,
		"option", req.Option,
		"amount", amount,
		"total_pool", market.TotalPool,
	)

	s.broadcast(WSMessage{
		Type:      "bet_placed",
		MarketID:  market.ID,
		Option:    req.Option,
		Amount:    amount,
		TotalPool: market.TotalPool,
	})
	if s.publisher != nil {
		if err := s.publisher.PublishBetPlaced(r.Context(), events.BetPlaced{
			BetID:    bet.ID,
			MarketID: market.ID,
			UserID:   req.UserID,
			Option:   bet.Option,
			Amount:   bet.Amount,
			Odds:     bet.Odds,
		}); err != nil {
			slog.Warn("bet event publish failed", "err", err)
		}
	}

	writeJSON(w, http.StatusOK, PlaceBetResponse{
		Bet:      bet,
		Market:   s.view(market),
		Position: position,
	})
}

// Settle handles POST /api/v1/markets/{marketID}/settle
func (s *Server) Settle(w http.ResponseWriter, r *http.Request) {
	id, err := marketID(r)
	if err != nil {
		writeError(w, "invalid market id", http.StatusBadRequest)
		return
	}

	var req SettleRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, "invalid request body", http.StatusBadRequest)
		return
	}

	market, err := s.engine.Settle(r.Context(), id, req.WinningOption, req.Caller, s.clock())
	if err != nil {
		s.writeFailure(w, err)
		return
	}
	metrics.MarketsSettled.Inc()

	slog.Info("market settled",
		"market", market.ID,
		"winning_option", market.WinningOption,
		"total_pool", market.TotalPool,
	)

	s.broadcast(WSMessage{
		Type:          "market_settled",
		MarketID:      market.ID,
		WinningOption: market.WinningOption,
		TotalPool:     market.TotalPool,
	})
	if s.publisher != nil {
		if err := s.publisher.PublishMarketSettled(r.Context(), events.MarketSettled{
			MarketID:      market.ID,
			WinningOption: market.WinningOption,
			TotalPool:     market.TotalPool,
		}); err != nil {
			slog.Warn("settlement event publish failed", "err", err)
		}
	}

	writeJSON(w, http.StatusOK, s.view(market))
}

// Claim handles POST /api/v1/markets/{marketID}/claim
func (s *Server) Claim(w http.ResponseWriter, r *http.Request) {
	id, err := marketID(r)
	if err != nil {
		writeError(w, "invalid market id", http.StatusBadRequest)
		return
	}

	var req ClaimRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, "invalid request body", http.StatusBadRequest)
		return
	}
	if req.UserID == "" {
		writeError(w, "user_id is required", http.StatusBadRequest)
		return
	}

	amount, err := s.engine.Claim(r.Context(), id, req.UserID)
	if err != nil {
		s.writeFailure(w, err)
		return
	}
	metrics.ClaimsTotal.Inc()

	slog.Info("payout claimed", "market", id, "user", req.UserID, "amount", amount)

	if s.publisher != nil {
		if err := s.publisher.PublishPayoutClaimed(r.Context(), events.PayoutClaimed{
			MarketID: id,
			UserID:   req.UserID,
			Amount:   amount,
		}); err != nil {
			slog.Warn("claim event publish failed", "err", err)
		}
	}

	writeJSON(w, http.StatusOK, PayoutResponse{
		Amount:        amount,
		DisplayAmount: money.ToDisplayUnits(amount),
	})
}

// PreviewPayout handles GET /api/v1/markets/{marketID}/payout/{userID}
// Read-only: computes what a claim would authorize without mutating state.
func (s *Server) PreviewPayout(w http.ResponseWriter, r *http.Request) {
	id, err := marketID(r)
	if err != nil {
		writeError(w, "invalid market id", http.StatusBadRequest)
		return
	}
	userID := chi.URLParam(r, "userID")

	amount, err := s.engine.PreviewPayout(r.Context(), id, userID)
	if err != nil {
		s.writeFailure(w, err)
		return
	}
	writeJSON(w, http.StatusOK, PayoutResponse{
		Amount:        amount,
		DisplayAmount: money.ToDisplayUnits(amount),
	})
}

// GetPosition handles GET /api/v1/markets/{marketID}/positions/{userID}
func (s *Server) GetPosition(w http.ResponseWriter, r *http.Request) {
	id, err := marketID(r)
	if err != nil {
		writeError(w, "invalid market id", http.StatusBadRequest)
		return
	}

	position, err := s.store.GetPosition(r.Context(), id, chi.URLParam(r, "userID"))
	if err != nil {
		s.writeFailure(w, err)
		return
	}
	writeJSON(w, http.StatusOK, position)
}

// GetMarketBets handles GET /api/v1/markets/{marketID}/bets
// Returns the immutable bet ledger for a market.
func (s *Server) GetMarketBets(w http.ResponseWriter, r *http.Request) {
	id, err := marketID(r)
	if err != nil {
		writeError(w, "invalid market id", http.StatusBadRequest)
		return
	}

	bets, err := s.store.ListBetsByMarket(r.Context(), id)
	if err != nil {
		s.writeFailure(w, err)
		return
	}
	if bets == nil {
		bets = []model.Bet{}
	}
	writeJSON(w, http.StatusOK, bets)
}

// GetUserBets handles GET /api/v1/users/{userID}/bets
func (s *Server) GetUserBets(w http.ResponseWriter, r *http.Request) {
	bets, err := s.store.ListBetsByUser(r.Context(), chi.URLParam(r, "userID"))
	if err != nil {
		s.writeFailure(w, err)
		return
	}
	if bets == nil {
		bets = []model.Bet{}
	}
	writeJSON(w, http.StatusOK, bets)
}

// GetUserPositions handles GET /api/v1/users/{userID}/positions
func (s *Server) GetUserPositions(w http.ResponseWriter, r *http.Request) {
	positions, err := s.store.ListPositionsByUser(r.Context(), chi.URLParam(r, "userID"))
	if err != nil {
		s.writeFailure(w, err)
		return
	}
	if positions == nil {
		positions = []model.Position{}
	}
	writeJSON(w, http.StatusOK, positions)
}

// --- helpers ---

func (s *Server) broadcast(msg WSMessage) {
	if s.hub != nil {
		s.hub.Broadcast(msg)
	}
}

func marketID(r *http.Request) (int64, error) {
	return strconv.ParseInt(chi.URLParam(r, "marketID"), 10, 64)
}

// failureKind classifies an error into the taxonomy used for metrics and
// status mapping.
func failureKind(err error) string {
	switch {
	case errors.Is(err, store.ErrNotFound):
		return "not_found"
	case errors.Is(err, engine.ErrNotCreator):
		return "authorization"
	case errors.Is(err, engine.ErrMarketClosed),
		errors.Is(err, engine.ErrAlreadySettled),
		errors.Is(err, engine.ErrNotEnded),
		errors.Is(err, engine.ErrNotSettled),
		errors.Is(err, engine.ErrAlreadyClaimed):
		return "state"
	case errors.Is(err, money.ErrAmountRange),
		errors.Is(err, money.ErrOddsRange):
		return "range"
	case errors.Is(err, engine.ErrOptionCount),
		errors.Is(err, engine.ErrOptionLabel),
		errors.Is(err, engine.ErrOddsCount),
		errors.Is(err, engine.ErrDuration),
		errors.Is(err, engine.ErrInvalidOption),
		errors.Is(err, engine.ErrBelowMinimum):
		return "validation"
	default:
		return "internal"
	}
}

// writeFailure maps an engine/store error onto an HTTP status code and
// records the rejection.
func (s *Server) writeFailure(w http.ResponseWriter, err error) {
	kind := failureKind(err)
	metrics.RejectedTotal.WithLabelValues(kind).Inc()

	status := http.StatusBadRequest
	switch kind {
	case "not_found":
		status = http.StatusNotFound
	case "authorization":
		status = http.StatusForbidden
	case "state":
		status = http.StatusConflict
	case "internal":
		slog.Error("request failed", "err", err)
		writeError(w, "internal error", http.StatusInternalServerError)
		return
	}
	writeError(w, err.Error(), status)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

// writeError writes a JSON error response.
func writeError(w http.ResponseWriter, message string, status int) {
	writeJSON(w, status, map[string]string{"error": message})
}
