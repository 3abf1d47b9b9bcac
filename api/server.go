package api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"net/http"
	"strings"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"

	"github.com/zombar/optimizer"
	"github.com/zombar/optimizer/db"
	"github.com/zombar/optimizer/storage"
)

// Server represents the API server
type Server struct {
	db          *db.DB
	engine      *optimizer.Engine
	storage     *storage.Storage
	addr        string
	server      *http.Server
	mux         *http.ServeMux
	corsEnabled bool
}

// Config contains server configuration
type Config struct {
	Addr         string
	DBConfig     db.Config
	EngineConfig optimizer.Config
	StoragePath  string
	CORSEnabled  bool
}

// DefaultConfig returns default server configuration
func DefaultConfig() Config {
	return Config{
		Addr:         ":8080",
		EngineConfig: optimizer.DefaultConfig(),
		StoragePath:  "./reports",
		CORSEnabled:  true,
	}
}

// NewServer creates a new API server
func NewServer(config Config) (*Server, error) {
	// Initialize database
	database, err := db.New(config.DBConfig)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize database: %w", err)
	}

	// Initialize filesystem report storage
	storageInstance, err := storage.New(storage.Config{BasePath: config.StoragePath})
	if err != nil {
		return nil, fmt.Errorf("failed to initialize storage: %w", err)
	}

	// Initialize recommendation engine with database and storage
	engine := optimizer.New(config.EngineConfig, database, storageInstance)

	s := &Server{
		db:          database,
		engine:      engine,
		storage:     storageInstance,
		addr:        config.Addr,
		mux:         http.NewServeMux(),
		corsEnabled: config.CORSEnabled,
	}

	// Register routes
	s.registerRoutes()

	// Create HTTP server with tracing on the outer handler
	s.server = &http.Server{
		Addr:         config.Addr,
		Handler:      otelhttp.NewHandler(s.middleware(s.mux), "optimizer-api"),
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 5 * time.Minute, // Allow time for full-corpus scoring runs
		IdleTimeout:  120 * time.Second,
	}

	return s, nil
}

// registerRoutes sets up all API routes
func (s *Server) registerRoutes() {
	s.mux.HandleFunc("/health", s.handleHealth)
	s.mux.HandleFunc("/api/recommendations/generate", s.handleGenerate)
	s.mux.HandleFunc("/api/recommendations/today", s.handleToday)
	s.mux.HandleFunc("/api/recommendations", s.handleRecommendations)
	s.mux.HandleFunc("/api/scores", s.handleScores)
	s.mux.HandleFunc("/api/analyze/", s.handleAnalyze) // Handles /api/analyze/{id}
	s.mux.HandleFunc("/api/pages/", s.handlePage)      // Handles /api/pages/{id}/metrics
	s.mux.Handle("/metrics", promhttp.Handler())
}

// Start starts the API server
func (s *Server) Start() error {
	log.Printf("Starting API server on %s", s.addr)
	return s.server.ListenAndServe()
}

// Shutdown gracefully shuts down the server
func (s *Server) Shutdown(ctx context.Context) error {
	log.Println("Shutting down API server...")
	if err := s.server.Shutdown(ctx); err != nil {
		return err
	}
	return s.db.Close()
}

// middleware applies common middleware to all routes
func (s *Server) middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		// CORS headers
		if s.corsEnabled {
			w.Header().Set("Access-Control-Allow-Origin", "*")
			w.Header().Set("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
			w.Header().Set("Access-Control-Allow-Headers", "Content-Type")

			if r.Method == "OPTIONS" {
				w.WriteHeader(http.StatusOK)
				return
			}
		}

		// Logging (skip health and metrics scrapes to reduce noise)
		start := time.Now()
		quiet := r.URL.Path == "/health" || r.URL.Path == "/metrics"
		if !quiet {
			log.Printf("%s %s", r.Method, r.URL.Path)
		}

		next.ServeHTTP(w, r)

		if !quiet {
			log.Printf("%s %s - completed in %v", r.Method, r.URL.Path, time.Since(start))
		}
	})
}

// handleHealth returns server health status
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		respondError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}

	count, err := s.db.CountPages()
	if err != nil {
		respondError(w, http.StatusInternalServerError, "failed to get page count")
		return
	}

	respondJSON(w, http.StatusOK, map[string]interface{}{
		"status": "healthy",
		"pages":  count,
		"time":   time.Now(),
	})
}

// GenerateRequest represents a daily generation request
type GenerateRequest struct {
	Count int `json:"count"` // Number of recommendations; 0 means the configured default
}

// handleGenerate runs a daily generation pass over the whole corpus
func (s *Server) handleGenerate(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		respondError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}

	var req GenerateRequest
	if r.Body != nil && r.ContentLength != 0 {
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			respondError(w, http.StatusBadRequest, "invalid request body")
			return
		}
	}

	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Minute)
	defer cancel()

	recs, err := s.engine.RunDailyGeneration(ctx, req.Count)
	if err != nil {
		respondError(w, http.StatusInternalServerError, fmt.Sprintf("generation failed: %v", err))
		return
	}

	respondJSON(w, http.StatusOK, map[string]interface{}{
		"recommendations": recs,
		"count":           len(recs),
	})
}

// handleToday returns the recommendations generated for the current day
func (s *Server) handleToday(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		respondError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}

	recs, err := s.engine.GetTodaysRecommendations()
	if err != nil {
		respondError(w, http.StatusInternalServerError, "failed to load recommendations")
		return
	}

	respondJSON(w, http.StatusOK, map[string]interface{}{
		"recommendations": recs,
		"count":           len(recs),
	})
}

// handleRecommendations returns recommendations for a specific day (?date=YYYY-MM-DD)
func (s *Server) handleRecommendations(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		respondError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}

	dateStr := r.URL.Query().Get("date")
	if dateStr == "" {
		respondError(w, http.StatusBadRequest, "date query parameter is required (YYYY-MM-DD)")
		return
	}

	date, err := time.Parse("2006-01-02", dateStr)
	if err != nil {
		respondError(w, http.StatusBadRequest, "invalid date format, expected YYYY-MM-DD")
		return
	}

	recs, err := s.engine.GetRecommendationsForDate(date)
	if err != nil {
		respondError(w, http.StatusInternalServerError, "failed to load recommendations")
		return
	}

	respondJSON(w, http.StatusOK, map[string]interface{}{
		"date":            dateStr,
		"recommendations": recs,
		"count":           len(recs),
	})
}

// handleScores scores every page and returns the ranked list
func (s *Server) handleScores(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		respondError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Minute)
	defer cancel()

	scores, err := s.engine.ScoreAllPages(ctx)
	if err != nil {
		respondError(w, http.StatusInternalServerError, fmt.Sprintf("scoring failed: %v", err))
		return
	}

	respondJSON(w, http.StatusOK, map[string]interface{}{
		"scores": scores,
		"count":  len(scores),
	})
}

// handleAnalyze runs content analysis for a single page by ID
func (s *Server) handleAnalyze(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		respondError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}

	id := strings.TrimPrefix(r.URL.Path, "/api/analyze/")
	if id == "" {
		respondError(w, http.StatusBadRequest, "id is required")
		return
	}

	analysis, err := s.engine.AnalyzePage(id)
	if err != nil {
		if errors.Is(err, optimizer.ErrPageNotFound) {
			respondError(w, http.StatusNotFound, "page not found")
			return
		}
		respondError(w, http.StatusInternalServerError, fmt.Sprintf("analysis failed: %v", err))
		return
	}

	respondJSON(w, http.StatusOK, analysis)
}

// handlePage handles GET /api/pages/{id}/metrics
func (s *Server) handlePage(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		respondError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}

	path := strings.TrimPrefix(r.URL.Path, "/api/pages/")
	id := strings.TrimSuffix(path, "/metrics")
	if id == "" || id == path {
		respondError(w, http.StatusBadRequest, "expected /api/pages/{id}/metrics")
		return
	}

	metrics, err := s.db.GetMetrics(id)
	if err != nil {
		respondError(w, http.StatusInternalServerError, "database error")
		return
	}

	if metrics == nil {
		respondError(w, http.StatusNotFound, "metrics not found")
		return
	}

	respondJSON(w, http.StatusOK, metrics)
}

// respondJSON sends a JSON response
func respondJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

// respondError sends an error response
func respondError(w http.ResponseWriter, status int, message string) {
	respondJSON(w, status, map[string]string{
		"error": message,
	})
}
