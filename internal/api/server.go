package api

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/kirillm/hft-bot/internal/domain"
	"github.com/kirillm/hft-bot/internal/engine"
	"github.com/kirillm/hft-bot/internal/lifecycle"
	"github.com/kirillm/hft-bot/internal/observability"
	"github.com/kirillm/hft-bot/pkg/utils"
)

type Server struct {
	logger    *utils.Logger
	engine    *engine.Engine
	lifecycle *lifecycle.Lifecycle
	registry  *prometheus.Registry
	port      int

	httpServer *http.Server
}

type Response struct {
	Success bool        `json:"success"`
	Data    interface{} `json:"data,omitempty"`
	Error   string      `json:"error,omitempty"`
}

type ModeRequest struct {
	RealTradingEnabled bool `json:"real_trading_enabled"`
	DemoModeEnabled    bool `json:"demo_mode_enabled"`
}

type SymbolRequest struct {
	Symbol string `json:"symbol"`
}

func NewServer(
	logger *utils.Logger,
	engine *engine.Engine,
	lifecycle *lifecycle.Lifecycle,
	registry *prometheus.Registry,
	port int,
) *Server {
	return &Server{
		logger:    logger,
		engine:    engine,
		lifecycle: lifecycle,
		registry:  registry,
		port:      port,
	}
}

// Routes собирает mux контрольной поверхности
func (s *Server) Routes() *http.ServeMux {
	mux := http.NewServeMux()

	mux.HandleFunc("/health", s.handleHealth)
	mux.HandleFunc("/data", s.handleData)
	mux.HandleFunc("/settings", s.handleSettings)
	mux.HandleFunc("/mode", s.handleMode)
	mux.HandleFunc("/symbol", s.handleSymbol)
	mux.HandleFunc("/symbols", s.handleSymbols)
	mux.Handle("/metrics", observability.Handler(s.registry))

	return mux
}

func (s *Server) Start() error {
	addr := fmt.Sprintf(":%d", s.port)
	s.logger.Info("Starting HTTP server on %s", addr)

	s.httpServer = &http.Server{
		Addr:         addr,
		Handler:      s.Routes(),
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	return s.httpServer.ListenAndServe()
}

// Shutdown гасит сервер, дожидаясь активных запросов
func (s *Server) Shutdown(ctx context.Context) error {
	if s.httpServer == nil {
		return nil
	}
	return s.httpServer.Shutdown(ctx)
}

// handleHealth - health check endpoint
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		s.sendError(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	health := map[string]interface{}{
		"status":    "healthy",
		"symbol":    s.engine.Symbol(),
		"timestamp": time.Now().Unix(),
	}

	s.sendSuccess(w, health)
}

// handleData - current snapshot: price, confidence, events, trades
func (s *Server) handleData(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		s.sendError(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	snapshot := s.engine.Snapshot()

	data := map[string]interface{}{
		"symbol":         snapshot.Symbol,
		"last_price":     snapshot.LastPrice,
		"confidence_pct": snapshot.ConfidencePct,
		"recent_events":  snapshot.RecentEvents,
		"active_trades":  s.lifecycle.ActiveTrades(),
		"settings":       s.engine.Settings(),
		"timestamp":      time.Now().Unix(),
	}

	s.sendSuccess(w, data)
}

// handleSettings - read or partially update engine settings
func (s *Server) handleSettings(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet:
		s.sendSuccess(w, s.engine.Settings())

	case http.MethodPost:
		var update domain.SettingsUpdate
		if err := json.NewDecoder(r.Body).Decode(&update); err != nil {
			s.sendError(w, "Invalid request body", http.StatusBadRequest)
			return
		}

		settings, err := s.engine.UpdateSettings(r.Context(), update)
		if err != nil {
			s.sendError(w, fmt.Sprintf("Settings update rejected: %v", err), http.StatusBadRequest)
			return
		}

		s.sendSuccess(w, settings)

	default:
		s.sendError(w, "Method not allowed", http.StatusMethodNotAllowed)
	}
}

// handleMode - switch between real and demo trading
func (s *Server) handleMode(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		s.sendError(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	var req ModeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.sendError(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	settings, err := s.engine.SetMode(req.RealTradingEnabled, req.DemoModeEnabled)
	if err != nil {
		s.sendError(w, fmt.Sprintf("Mode switch rejected: %v", err), http.StatusConflict)
		return
	}

	s.sendSuccess(w, settings)
}

// handleSymbol - switch the tracked instrument
func (s *Server) handleSymbol(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		s.sendError(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	var req SymbolRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.sendError(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	if req.Symbol == "" {
		s.sendError(w, "Symbol is required", http.StatusBadRequest)
		return
	}

	if err := s.engine.SetSymbol(r.Context(), req.Symbol); err != nil {
		s.sendError(w, fmt.Sprintf("Symbol switch rejected: %v", err), http.StatusBadRequest)
		return
	}

	s.sendSuccess(w, map[string]interface{}{
		"symbol": s.engine.Symbol(),
	})
}

// handleSymbols - list instruments tradable on both venues
func (s *Server) handleSymbols(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		s.sendError(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	s.sendSuccess(w, map[string]interface{}{
		"symbols": s.engine.Symbols(),
	})
}

// Helper methods
func (s *Server) sendSuccess(w http.ResponseWriter, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	json.NewEncoder(w).Encode(Response{
		Success: true,
		Data:    data,
	})
}

func (s *Server) sendError(w http.ResponseWriter, message string, statusCode int) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	json.NewEncoder(w).Encode(Response{
		Success: false,
		Error:   message,
	})
}
