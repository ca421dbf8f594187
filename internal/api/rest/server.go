package rest

import (
	"context"
	"fmt"
	"net/http"

	"github.com/gorilla/mux"

	"github.com/Swai-D/bet-bot-sub000/internal/cache"
	"github.com/Swai-D/bet-bot-sub000/internal/scheduler"
	"github.com/Swai-D/bet-bot-sub000/internal/store"
)

// Server represents the REST API server
type Server struct {
	port    string
	server  *http.Server
	handler *Handler
}

// NewServer creates a new REST API server
func NewServer(port string, db *store.Database, redisCache *cache.RedisCache, orchestrator *scheduler.Orchestrator) *Server {
	handler := NewHandler(db, redisCache, orchestrator)

	router := mux.NewRouter()

	// Apply middleware
	router.Use(RecoveryMiddleware)
	router.Use(LoggingMiddleware)
	router.Use(CORSMiddleware)

	// Health check
	router.HandleFunc("/health", handler.HealthCheck).Methods("GET")

	// API v1 routes
	api := router.PathPrefix("/api/v1").Subrouter()

	// Predictions
	api.HandleFunc("/predictions", handler.GetPredictionsByDate).Methods("GET")
	api.HandleFunc("/predictions/recent", handler.GetRecentPredictions).Methods("GET")
	api.HandleFunc("/predictions/{matchKey}", handler.GetPrediction).Methods("GET")
	api.HandleFunc("/predictions/{matchKey}/bets", handler.GetBetsForMatch).Methods("GET")

	// Runs
	api.HandleFunc("/runs/last", handler.GetLastRun).Methods("GET")
	api.HandleFunc("/runs/trigger", handler.TriggerRun).Methods("POST")

	// Automation switch
	api.HandleFunc("/automation", handler.GetAutomation).Methods("GET")
	api.HandleFunc("/automation", handler.SetAutomation).Methods("PUT")

	return &Server{
		port:    port,
		handler: handler,
		server: &http.Server{
			Addr:    fmt.Sprintf(":%s", port),
			Handler: router,
		},
	}
}

// Start starts the REST API server
func (s *Server) Start() error {
	return s.server.ListenAndServe()
}

// Shutdown gracefully shuts down the server
func (s *Server) Shutdown(ctx context.Context) error {
	if s.server != nil {
		return s.server.Shutdown(ctx)
	}
	return nil
}
