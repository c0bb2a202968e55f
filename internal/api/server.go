package api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"stock_sim/internal/domain"
	"stock_sim/internal/execution"
	"stock_sim/internal/infra"
	"stock_sim/internal/service"

	"github.com/gorilla/mux"
	"github.com/rs/cors"
)

// Server exposes the simulation read-only over HTTP and websocket
type Server struct {
	router  *mux.Router
	hub     *Hub
	prices  *service.PriceService
	alerts  *service.AlertService
	session *execution.Session
	metrics *infra.Metrics
}

// NewServer wires the handlers. alerts may be nil.
func NewServer(hub *Hub, prices *service.PriceService, session *execution.Session, alerts *service.AlertService) *Server {
	s := &Server{
		router:  mux.NewRouter(),
		hub:     hub,
		prices:  prices,
		alerts:  alerts,
		session: session,
		metrics: infra.GlobalMetrics,
	}

	s.setupRoutes()
	return s
}

func (s *Server) setupRoutes() {
	r := s.router
	r.MethodNotAllowedHandler = http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
		respondError(w, http.StatusMethodNotAllowed, "method not allowed", req.Method+" "+req.URL.Path)
	})

	// Market endpoints
	r.HandleFunc("/api/instruments", s.handleGetInstruments).Methods("GET")
	r.HandleFunc("/api/instruments/{symbol}", s.handleGetInstrument).Methods("GET")
	r.HandleFunc("/api/market/summary", s.handleGetSummary).Methods("GET")
	r.HandleFunc("/api/watchlist", s.handleGetWatchlist).Methods("GET")

	// Session endpoints
	r.HandleFunc("/api/portfolio", s.handleGetPortfolio).Methods("GET")
	r.HandleFunc("/api/transactions", s.handleGetTransactions).Methods("GET")
	r.HandleFunc("/api/alerts", s.handleGetAlerts).Methods("GET")

	r.HandleFunc("/api/metrics", s.handleGetMetrics).Methods("GET")

	// WebSocket endpoint
	r.HandleFunc("/ws", s.hub.ServeWS)

	// Health check
	r.HandleFunc("/health", s.handleHealth).Methods("GET")
}

// Handler returns the router wrapped with CORS
func (s *Server) Handler() http.Handler {
	c := cors.New(cors.Options{
		AllowedOrigins: []string{"*"},
		AllowedMethods: []string{"GET", "OPTIONS"},
		AllowedHeaders: []string{"Content-Type"},
	})
	return c.Handler(s.router)
}

// Run serves on addr until ctx is done, then shuts down gracefully.
func (s *Server) Run(ctx context.Context, addr string) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           s.Handler(),
		ReadHeaderTimeout: 5 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		slog.Info("API server starting", slog.String("addr", addr))
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return fmt.Errorf("api server: %w", err)
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("api shutdown: %w", err)
	}
	slog.Info("API server stopped")
	return nil
}

// ==============================
// REST Handlers
// ==============================

func (s *Server) handleGetInstruments(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, s.prices.GetAllData())
}

func (s *Server) handleGetWatchlist(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, s.prices.GetFavorites())
}

func (s *Server) handleGetInstrument(w http.ResponseWriter, r *http.Request) {
	symbol := mux.Vars(r)["symbol"]

	quote, ok := s.prices.GetData(symbol)
	if !ok {
		respondError(w, http.StatusNotFound, domain.ErrNotFound.Error(), symbol)
		return
	}
	respondJSON(w, quote)
}

func (s *Server) handleGetSummary(w http.ResponseWriter, r *http.Request) {
	snap := s.prices.Latest()
	respondJSON(w, MarketSummaryResponse{
		MarketSummary: snap.Summary(),
		Seq:           snap.Seq(),
		Time:          snap.Time(),
	})
}

func (s *Server) handleGetPortfolio(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, s.session.Statement())
}

func (s *Server) handleGetTransactions(w http.ResponseWriter, r *http.Request) {
	limit := 0
	if v := r.URL.Query().Get("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 0 {
			respondError(w, http.StatusBadRequest, domain.ErrInvalidArgument.Error(), "limit must be a non-negative integer")
			return
		}
		limit = n
	}

	history := s.session.Portfolio().TransactionHistory()
	result := make([]domain.Transaction, 0, len(history))
	for i := len(history) - 1; i >= 0; i-- {
		if limit > 0 && len(result) == limit {
			break
		}
		result = append(result, history[i])
	}

	respondJSON(w, TransactionsResponse{Count: len(result), Transactions: result})
}

func (s *Server) handleGetAlerts(w http.ResponseWriter, r *http.Request) {
	if s.alerts == nil {
		respondJSON(w, []domain.AlertConfig{})
		return
	}
	respondJSON(w, s.alerts.Alerts())
}

func (s *Server) handleGetMetrics(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, s.metrics.Snapshot())
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, map[string]string{"status": "ok"})
}

func respondJSON(w http.ResponseWriter, data any) {
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(data); err != nil {
		slog.Warn("Failed to encode response", slog.Any("error", err))
	}
}

func respondError(w http.ResponseWriter, status int, errMsg string, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(ErrorResponse{
		Error:   errMsg,
		Message: message,
	})
}
