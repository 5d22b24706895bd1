package store

import (
	"context"

	"github.com/uplift-stats/uplift/internal/stats"
)

// Store defines the interface for experiment storage operations
type Store interface {
	// Experiment operations
	CreateExperiment(ctx context.Context, name string, groups []string, baseline, description string) (*Experiment, error)
	GetExperiment(ctx context.Context, name string) (*Experiment, error)
	ListExperiments(ctx context.Context) ([]*Experiment, error)
	UpdateState(ctx context.Context, name string, state ExperimentState) error
	SetWinner(ctx context.Context, name string, group string) error
	DeleteExperiment(ctx context.Context, name string) error

	// Observation operations
	AddObservation(ctx context.Context, experiment string, obs stats.Observation) error
	AddObservations(ctx context.Context, experiment string, obs []stats.Observation) (batchID string, err error)
	GetObservations(ctx context.Context, experiment string) ([]stats.Observation, error)
	GetGroupTotals(ctx context.Context, experiment string) ([]GroupTotals, error)
	GetGroupRates(ctx context.Context, experiment string) (map[string][]float64, error)

	// Lifecycle
	Close() error
}
