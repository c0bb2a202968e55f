package service

import (
	"context"
	"log/slog"
	"sort"
	"sync"

	"stock_sim/internal/domain"
	"stock_sim/internal/infra"
)

// Quote is one row of the quote board
type Quote struct {
	domain.InstrumentSnapshot
	IsFavorite bool `json:"is_favorite"`
}

// PriceService keeps the latest market snapshot for readers that should not
// touch the engine directly (HTTP handlers, CLI output).
type PriceService struct {
	mu        sync.RWMutex
	latest    domain.Snapshot
	favorites map[string]bool
	snapChan  chan domain.Snapshot
	metrics   *infra.Metrics
}

// NewPriceService creates a new PriceService instance
func NewPriceService() *PriceService {
	return &PriceService{
		favorites: make(map[string]bool),
		snapChan:  make(chan domain.Snapshot, 64),
		metrics:   infra.GlobalMetrics,
	}
}

// OnSnapshot is the market observer. It never blocks the tick:
// when the buffer is full the snapshot is dropped.
func (s *PriceService) OnSnapshot(snap domain.Snapshot) {
	select {
	case s.snapChan <- snap:
	default:
		s.metrics.RecordDropped()
		slog.Warn("Price service buffer full, dropping snapshot", slog.Uint64("seq", snap.Seq()))
	}
}

// StartSnapshotProcessor starts a background goroutine to process snapshots from the channel
func (s *PriceService) StartSnapshotProcessor(ctx context.Context) {
	go func() {
		for {
			select {
			case <-ctx.Done():
				return
			case snap := <-s.snapChan:
				s.ProcessSnapshot(snap)
			}
		}
	}()
}

// ProcessSnapshot replaces the board unless snap is older than what it holds.
func (s *PriceService) ProcessSnapshot(snap domain.Snapshot) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.latest.Len() > 0 && snap.Seq() < s.latest.Seq() {
		return
	}
	s.latest = snap
}

// Latest returns the most recent snapshot
func (s *PriceService) Latest() domain.Snapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.latest
}

// GetAllData returns all quotes sorted by symbol
func (s *PriceService) GetAllData() []Quote {
	s.mu.RLock()
	defer s.mu.RUnlock()

	all := s.latest.All()
	result := make([]Quote, 0, len(all))
	for _, inst := range all {
		result = append(result, Quote{InstrumentSnapshot: inst, IsFavorite: s.favorites[inst.Symbol]})
	}
	return result
}

// GetFavorites returns only the watchlist quotes, sorted by symbol
func (s *PriceService) GetFavorites() []Quote {
	all := s.GetAllData()
	result := make([]Quote, 0, len(all))
	for _, q := range all {
		if q.IsFavorite {
			result = append(result, q)
		}
	}
	return result
}

// GetData returns the quote for a specific symbol
func (s *PriceService) GetData(symbol string) (Quote, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	inst, ok := s.latest.Get(symbol)
	if !ok {
		return Quote{}, false
	}
	return Quote{InstrumentSnapshot: inst, IsFavorite: s.favorites[symbol]}, true
}

// Summary aggregates the latest snapshot
func (s *PriceService) Summary() domain.MarketSummary {
	return s.Latest().Summary()
}

// SetFavorite sets the favorite status for a symbol.
// Symbols not yet quoted may be marked; they show up once the market lists them.
func (s *PriceService) SetFavorite(symbol string, isFavorite bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if isFavorite {
		s.favorites[symbol] = true
	} else {
		delete(s.favorites, symbol)
	}
}

// Favorites returns the watchlist symbols sorted
func (s *PriceService) Favorites() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()

	result := make([]string, 0, len(s.favorites))
	for symbol := range s.favorites {
		result = append(result, symbol)
	}
	sort.Strings(result)
	return result
}
