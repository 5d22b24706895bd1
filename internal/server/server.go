package server

import (
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"net/http"
	"time"

	"github.com/uplift-stats/uplift/internal/store"
)

type Server struct {
	store     *store.SQLiteStore
	port      int
	token     string
	router    *http.ServeMux
	startTime time.Time
}

func New(s *store.SQLiteStore, port int) *Server {
	srv := &Server{
		store:     s,
		port:      port,
		token:     generateToken(),
		router:    http.NewServeMux(),
		startTime: time.Now(),
	}

	srv.setupRoutes()
	return srv
}

func (s *Server) setupRoutes() {
	// Public endpoints
	s.router.HandleFunc("/health", s.handleHealth)
	s.router.HandleFunc("/api/observations", s.handleObservations)
	s.router.HandleFunc("/api/experiments", s.handleExperimentsAPI)

	// Dashboard endpoints (protected)
	s.router.Handle("/dashboard", s.authMiddleware(http.HandlerFunc(s.handleDashboard)))
	s.router.Handle("/dashboard/experiment/", s.authMiddleware(http.HandlerFunc(s.handleDashboardExperiment)))
	s.router.Handle("/dashboard/api/experiments", s.authMiddleware(http.HandlerFunc(s.handleDashboardAPI)))
}

func (s *Server) Start() error {
	addr := fmt.Sprintf(":%d", s.port)

	fmt.Println()
	fmt.Printf("uplift running on http://localhost:%d\n", s.port)
	fmt.Printf("Dashboard: http://localhost:%d/dashboard?token=%s\n", s.port, s.token)
	fmt.Println()
	fmt.Println("Press Ctrl+C to stop")

	return http.ListenAndServe(addr, s.router)
}

// Token returns the dashboard access token.
func (s *Server) Token() string {
	return s.token
}

// Handler exposes the router for tests.
func (s *Server) Handler() http.Handler {
	return s.router
}

func generateToken() string {
	b := make([]byte, 16)
	if _, err := rand.Read(b); err != nil {
		// crypto/rand failing means the host is in serious trouble;
		// fall back to something unguessable enough for a local tool.
		return fmt.Sprintf("%d", time.Now().UnixNano())
	}
	return hex.EncodeToString(b)
}
