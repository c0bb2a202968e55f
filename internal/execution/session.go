package execution

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"strings"
	"sync"

	"stock_sim/internal/domain"
	"stock_sim/internal/infra"

	"github.com/shopspring/decimal"
)

// Session is a single trader: a cash account and a portfolio trading against
// the market's current prices.
type Session struct {
	mu sync.Mutex

	market    domain.PriceSource
	portfolio *domain.Portfolio
	cash      *domain.CashAccount
	journal   domain.TransactionJournal // optional

	initialEquity decimal.Decimal
	metrics       *infra.Metrics
}

// NewSession opens a session with startingCash and an empty portfolio.
// journal may be nil.
func NewSession(market domain.PriceSource, startingCash decimal.Decimal, journal domain.TransactionJournal) (*Session, error) {
	if market == nil {
		return nil, fmt.Errorf("%w: nil price source", domain.ErrInvalidArgument)
	}
	cash, err := domain.NewCashAccount("USD", startingCash)
	if err != nil {
		return nil, err
	}

	return &Session{
		market:        market,
		portfolio:     domain.NewPortfolio(),
		cash:          cash,
		journal:       journal,
		initialEquity: startingCash,
		metrics:       infra.GlobalMetrics,
	}, nil
}

// ExecuteOrder fills req at the current market price.
// A rejected order changes neither cash nor holdings.
func (s *Session) ExecuteOrder(ctx context.Context, req domain.TradeRequest) (domain.Transaction, error) {
	op := strings.ToLower(string(req.Side))
	if op == "" {
		op = "order"
	}

	if err := req.Validate(); err != nil {
		return domain.Transaction{}, s.reject(op, req.Symbol, err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	price, err := s.market.GetPrice(req.Symbol)
	if err != nil {
		return domain.Transaction{}, s.reject(op, req.Symbol, err)
	}
	total := price.Mul(decimal.NewFromInt(req.Quantity))

	var tx domain.Transaction
	switch req.Side {
	case domain.SideBuy:
		if !s.cash.CanAfford(total) {
			return domain.Transaction{}, s.reject(op, req.Symbol, fmt.Errorf("%w: need %s, have %s",
				domain.ErrInsufficientFunds, total.StringFixed(2), s.cash.Available().StringFixed(2)))
		}
		if tx, err = s.portfolio.Buy(req.Symbol, req.Quantity, price); err != nil {
			return domain.Transaction{}, s.reject(op, req.Symbol, err)
		}
		if err := s.cash.Debit(total); err != nil {
			// unreachable while the funds check and debit share s.mu
			slog.Error("Debit failed after buy", slog.String("tx", tx.ID), slog.Any("error", err))
		}

	case domain.SideSell:
		if tx, err = s.portfolio.Sell(req.Symbol, req.Quantity, price); err != nil {
			return domain.Transaction{}, s.reject(op, req.Symbol, err)
		}
		if err := s.cash.Credit(total); err != nil {
			slog.Error("Credit failed after sell", slog.String("tx", tx.ID), slog.Any("error", err))
		}
	}

	s.afterFill(ctx, tx)
	return tx, nil
}

// Buy is shorthand for a BUY order.
func (s *Session) Buy(ctx context.Context, symbol string, quantity int64) (domain.Transaction, error) {
	return s.ExecuteOrder(ctx, domain.TradeRequest{Symbol: symbol, Quantity: quantity, Side: domain.SideBuy})
}

// Sell is shorthand for a SELL order.
func (s *Session) Sell(ctx context.Context, symbol string, quantity int64) (domain.Transaction, error) {
	return s.ExecuteOrder(ctx, domain.TradeRequest{Symbol: symbol, Quantity: quantity, Side: domain.SideSell})
}

func (s *Session) reject(op, symbol string, err error) error {
	s.metrics.RecordRejection()
	slog.Warn("Order rejected",
		slog.String("op", op),
		slog.String("symbol", symbol),
		slog.Any("error", err),
	)
	return domain.NewTradeError(op, symbol, err)
}

// afterFill records volume, journals the fill and updates metrics.
// Failures here are logged; the trade itself stands.
func (s *Session) afterFill(ctx context.Context, tx domain.Transaction) {
	if err := s.cash.VerifyInvariant(); err != nil {
		slog.Error("Cash invariant violated", slog.String("tx", tx.ID), slog.Any("error", err))
	}

	if err := s.market.RecordTrade(tx.Symbol, tx.Shares); err != nil {
		slog.Warn("Failed to record volume", slog.String("symbol", tx.Symbol), slog.Any("error", err))
	}

	if s.journal != nil {
		if err := s.journal.RecordTransaction(ctx, tx); err != nil {
			s.metrics.RecordJournalError()
			slog.Error("Failed to journal transaction",
				slog.String("tx", tx.ID),
				slog.Any("error", err),
			)
		}
	}

	s.metrics.RecordTrade()
	slog.Info("Order executed",
		slog.String("tx", tx.ID),
		slog.String("side", string(tx.Side)),
		slog.String("symbol", tx.Symbol),
		slog.Int64("shares", tx.Shares),
		slog.String("price", tx.Price.StringFixed(domain.PricePrecision)),
	)
}

// Cash returns the available balance
func (s *Session) Cash() decimal.Decimal {
	return s.cash.Available()
}

// Portfolio returns the session's share ledger
func (s *Session) Portfolio() *domain.Portfolio {
	return s.portfolio
}

// InitialEquity returns the starting cash the session opened with
func (s *Session) InitialEquity() decimal.Decimal {
	return s.initialEquity
}

// Equity returns cash plus the portfolio valued at current prices.
func (s *Session) Equity() decimal.Decimal {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.equityLocked(s.market.Snapshot().Prices())
}

func (s *Session) equityLocked(prices map[string]decimal.Decimal) decimal.Decimal {
	return s.cash.Available().Add(s.portfolio.Valuate(prices))
}

// ProfitLoss returns equity minus initial equity
func (s *Session) ProfitLoss() decimal.Decimal {
	return s.Equity().Sub(s.initialEquity)
}

// ProfitLossPercent returns P/L relative to initial equity (0 when it is zero).
func (s *Session) ProfitLossPercent() decimal.Decimal {
	return percentOf(s.ProfitLoss(), s.initialEquity)
}

func percentOf(part, whole decimal.Decimal) decimal.Decimal {
	if whole.IsZero() {
		return decimal.Zero
	}
	return part.Div(whole).Mul(decimal.NewFromInt(100))
}

// Position is one holding valued at the current price
type Position struct {
	Symbol string          `json:"symbol"`
	Shares int64           `json:"shares"`
	Price  decimal.Decimal `json:"price"`
	Value  decimal.Decimal `json:"value"`
}

// Statement is a consistent view of the session at one point in time
type Statement struct {
	Cash              decimal.Decimal `json:"cash"`
	Positions         []Position      `json:"positions"`
	Equity            decimal.Decimal `json:"equity"`
	InitialEquity     decimal.Decimal `json:"initial_equity"`
	ProfitLoss        decimal.Decimal `json:"profit_loss"`
	ProfitLossPercent decimal.Decimal `json:"profit_loss_percent"`
}

// Statement values cash and every holding against one market snapshot.
func (s *Session) Statement() Statement {
	s.mu.Lock()
	defer s.mu.Unlock()

	prices := s.market.Snapshot().Prices()
	holdings := s.portfolio.HoldingsSnapshot()

	positions := make([]Position, 0, len(holdings))
	for symbol, shares := range holdings {
		price := prices[symbol]
		positions = append(positions, Position{
			Symbol: symbol,
			Shares: shares,
			Price:  price,
			Value:  price.Mul(decimal.NewFromInt(shares)),
		})
	}
	sort.Slice(positions, func(i, j int) bool {
		return positions[i].Symbol < positions[j].Symbol
	})

	equity := s.equityLocked(prices)
	pl := equity.Sub(s.initialEquity)
	return Statement{
		Cash:              s.cash.Available(),
		Positions:         positions,
		Equity:            equity,
		InitialEquity:     s.initialEquity,
		ProfitLoss:        pl,
		ProfitLossPercent: percentOf(pl, s.initialEquity),
	}
}
