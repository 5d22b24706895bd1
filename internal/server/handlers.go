package server

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/uplift-stats/uplift/internal/stats"
	"github.com/uplift-stats/uplift/internal/store"
)

type HealthResponse struct {
	Status           string `json:"status"`
	ExperimentsCount int    `json:"experiments_count"`
	DBSizeBytes      int64  `json:"db_size_bytes"`
	UptimeSeconds    int64  `json:"uptime_seconds"`
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	experiments, err := s.store.ListExperiments(r.Context())
	if err != nil {
		http.Error(w, "Internal server error", http.StatusInternalServerError)
		return
	}

	var dbSize int64
	row := s.store.DB().QueryRow("SELECT page_count * page_size FROM pragma_page_count(), pragma_page_size()")
	_ = row.Scan(&dbSize)

	response := HealthResponse{
		Status:           "ok",
		ExperimentsCount: len(experiments),
		DBSizeBytes:      dbSize,
		UptimeSeconds:    int64(time.Since(s.startTime).Seconds()),
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(response)
}

// ObservationRequest is an incoming observation row.
type ObservationRequest struct {
	Experiment  string  `json:"experiment"`
	Period      string  `json:"period"` // 2006-01-02
	Group       string  `json:"group"`
	Visitors    int     `json:"visitors"`
	Conversions int     `json:"conversions"`
	Revenue     float64 `json:"revenue"`
	Retained    int     `json:"retained"`
}

func (s *Server) handleObservations(w http.ResponseWriter, r *http.Request) {
	// CORS headers so ingest works from scripts on other origins
	w.Header().Set("Access-Control-Allow-Origin", "*")
	w.Header().Set("Access-Control-Allow-Methods", "POST, OPTIONS")
	w.Header().Set("Access-Control-Allow-Headers", "Content-Type")

	if r.Method == http.MethodOptions {
		w.WriteHeader(http.StatusNoContent)
		return
	}
	if r.Method != http.MethodPost {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	var req ObservationRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid JSON", http.StatusBadRequest)
		return
	}

	if req.Experiment == "" || req.Group == "" {
		http.Error(w, "Missing required fields", http.StatusBadRequest)
		return
	}

	period := time.Now().Truncate(24 * time.Hour)
	if req.Period != "" {
		parsed, err := time.Parse("2006-01-02", req.Period)
		if err != nil {
			http.Error(w, "Invalid period", http.StatusBadRequest)
			return
		}
		period = parsed
	}

	obs := stats.Observation{
		Period:      period,
		Group:       req.Group,
		Visitors:    req.Visitors,
		Conversions: req.Conversions,
		Revenue:     req.Revenue,
		Retained:    req.Retained,
	}

	ctx := r.Context()

	exp, err := s.store.GetExperiment(ctx, req.Experiment)
	if err != nil {
		if err == store.ErrNotFound {
			http.Error(w, "Experiment not found", http.StatusNotFound)
			return
		}
		http.Error(w, "Internal server error", http.StatusInternalServerError)
		return
	}
	if !exp.HasGroup(req.Group) {
		http.Error(w, "Unknown group", http.StatusBadRequest)
		return
	}

	if err := s.store.AddObservation(ctx, req.Experiment, obs); err != nil {
		if errors.Is(err, stats.ErrInvalidObservation) {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		http.Error(w, "Internal server error", http.StatusInternalServerError)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

type experimentListItem struct {
	Name        string   `json:"name"`
	State       string   `json:"state"`
	Groups      []string `json:"groups"`
	Baseline    string   `json:"baseline"`
	WinnerGroup *string  `json:"winner_group,omitempty"`
	Visitors    int      `json:"visitors"`
	Conversions int      `json:"conversions"`
	CreatedAt   string   `json:"created_at"`
}

func (s *Server) handleExperimentsAPI(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	ctx := r.Context()
	experiments, err := s.store.ListExperiments(ctx)
	if err != nil {
		http.Error(w, "Internal server error", http.StatusInternalServerError)
		return
	}

	items := make([]experimentListItem, 0, len(experiments))
	for _, exp := range experiments {
		totals, err := s.store.GetGroupTotals(ctx, exp.Name)
		if err != nil {
			http.Error(w, "Internal server error", http.StatusInternalServerError)
			return
		}

		item := experimentListItem{
			Name:        exp.Name,
			State:       string(exp.State),
			Groups:      exp.Groups,
			Baseline:    exp.Baseline,
			WinnerGroup: exp.WinnerGroup,
			CreatedAt:   exp.CreatedAt.Format(time.RFC3339),
		}
		for _, t := range totals {
			item.Visitors += t.Visitors
			item.Conversions += t.Conversions
		}
		items = append(items, item)
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]any{"experiments": items})
}

// handleDashboardAPI serves the full per-experiment statistics the
// dashboard detail view renders: summaries, comparisons against the
// baseline, bootstrap intervals and posterior parameters.
func (s *Server) handleDashboardAPI(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	name := r.URL.Query().Get("name")
	if name == "" {
		http.Error(w, "Missing name", http.StatusBadRequest)
		return
	}

	report, err := s.buildReport(r.Context(), name)
	if err != nil {
		if err == store.ErrNotFound {
			http.Error(w, "Experiment not found", http.StatusNotFound)
			return
		}
		http.Error(w, "Internal server error", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(report)
}
