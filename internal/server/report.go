package server

import (
	"context"
	"errors"
	"sort"
	"time"

	"github.com/uplift-stats/uplift/internal/stats"
	"github.com/uplift-stats/uplift/internal/store"
)

// dashboardSeed keeps the bootstrap interval stable across page
// refreshes; the CLI is the place for exploring other seeds.
const dashboardSeed = 1

const dashboardResamples = 2000

// Report is the full statistics payload for one experiment.
type Report struct {
	Name        string             `json:"name"`
	State       string             `json:"state"`
	Description string             `json:"description,omitempty"`
	Baseline    string             `json:"baseline"`
	WinnerGroup *string            `json:"winner_group,omitempty"`
	CreatedAt   string             `json:"created_at"`
	Groups      []GroupReport      `json:"groups"`
	Comparisons []ComparisonReport `json:"comparisons"`
}

type GroupReport struct {
	Name         string  `json:"name"`
	Observations int     `json:"observations"`
	Visitors     int     `json:"visitors"`
	Conversions  int     `json:"conversions"`
	Rate         float64 `json:"rate"`
	RateValid    bool    `json:"rate_valid"`
	CILower      float64 `json:"ci_lower"`
	CIUpper      float64 `json:"ci_upper"`
	RPV          float64 `json:"revenue_per_visitor"`
	Retention    float64 `json:"retention_rate"`
	RetValid     bool    `json:"retention_valid"`

	PosteriorAlpha float64 `json:"posterior_alpha,omitempty"`
	PosteriorBeta  float64 `json:"posterior_beta,omitempty"`
	PosteriorMean  float64 `json:"posterior_mean,omitempty"`
}

type ComparisonReport struct {
	Variant          string  `json:"variant"`
	RateDiff         float64 `json:"rate_diff"`
	StdErr           float64 `json:"std_err"`
	ZScore           float64 `json:"z_score"`
	PValue           float64 `json:"p_value"`
	CILower          float64 `json:"ci_lower"`
	CIUpper          float64 `json:"ci_upper"`
	BootLow          float64 `json:"bootstrap_ci_lower"`
	BootHigh         float64 `json:"bootstrap_ci_upper"`
	BootValid        bool    `json:"bootstrap_valid"`
	WinnerConfidence float64 `json:"winner_confidence"`
	Significant      bool    `json:"significant"`
	Error            string  `json:"error,omitempty"`
}

func (s *Server) buildReport(ctx context.Context, name string) (*Report, error) {
	exp, err := s.store.GetExperiment(ctx, name)
	if err != nil {
		return nil, err
	}

	observations, err := s.store.GetObservations(ctx, name)
	if err != nil {
		return nil, err
	}
	summaries, err := stats.Summarize(observations)
	if err != nil {
		return nil, err
	}
	rates, err := s.store.GetGroupRates(ctx, name)
	if err != nil {
		return nil, err
	}

	report := &Report{
		Name:        exp.Name,
		State:       string(exp.State),
		Description: exp.Description,
		Baseline:    exp.Baseline,
		WinnerGroup: exp.WinnerGroup,
		CreatedAt:   exp.CreatedAt.Format(time.RFC3339),
	}

	for _, group := range reportGroups(exp, summaries) {
		sum := summaries[group]
		gr := GroupReport{
			Name:         group,
			Observations: sum.Observations,
			Visitors:     sum.Visitors,
			Conversions:  sum.Conversions,
			Rate:         sum.Rate,
			RateValid:    sum.RateValid,
			CILower:      sum.CILower,
			CIUpper:      sum.CIUpper,
			RPV:          sum.RevenuePerVisitor,
			Retention:    sum.RetentionRate,
			RetValid:     sum.RetentionValid,
		}
		if posterior, err := stats.Posterior(sum); err == nil {
			gr.PosteriorAlpha = posterior.Alpha
			gr.PosteriorBeta = posterior.Beta
			gr.PosteriorMean = posterior.Mean()
		}
		report.Groups = append(report.Groups, gr)
	}

	base := summaries[exp.Baseline]
	for _, group := range reportGroups(exp, summaries) {
		if group == exp.Baseline {
			continue
		}
		variant := summaries[group]

		cr := ComparisonReport{Variant: group}
		result, err := stats.CompareRates(base, variant, 0.95)
		if err != nil {
			if errors.Is(err, stats.ErrDegenerateInput) {
				cr.Error = err.Error()
				report.Comparisons = append(report.Comparisons, cr)
				continue
			}
			return nil, err
		}

		cr.RateDiff = result.RateDiff
		cr.StdErr = result.StdErr
		cr.ZScore = result.ZScore
		cr.PValue = result.PValue
		cr.CILower = result.CILower
		cr.CIUpper = result.CIUpper
		cr.WinnerConfidence = stats.WinnerConfidence(base, variant)
		cr.Significant = result.Significant()

		if boot, err := stats.BootstrapUplift(rates[exp.Baseline], rates[group], dashboardResamples, dashboardSeed); err == nil {
			cr.BootLow = boot.Low
			cr.BootHigh = boot.High
			cr.BootValid = true
		}

		report.Comparisons = append(report.Comparisons, cr)
	}

	return report, nil
}

func reportGroups(exp *store.Experiment, summaries map[string]stats.GroupSummary) []string {
	seen := make(map[string]bool, len(exp.Groups))
	groups := make([]string, 0, len(summaries))
	for _, g := range exp.Groups {
		seen[g] = true
		groups = append(groups, g)
	}

	var extra []string
	for g := range summaries {
		if !seen[g] {
			extra = append(extra, g)
		}
	}
	sort.Strings(extra)
	return append(groups, extra...)
}
