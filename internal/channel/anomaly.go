package channel

import (
	"sort"
	"time"
)

// CostAlert flags a (date, channel) whose daily spend diverged from the
// channel's mean daily spend. Severity is cost / mean cost, so 1.0 is a
// perfectly average day and 3.0 means triple the usual spend.
type CostAlert struct {
	Date     time.Time
	Channel  string
	Cost     float64
	MeanCost float64
	Severity float64
}

// CostAnomalies sums cost per (date, channel), compares each day
// against the channel's mean daily cost, and returns the n most
// anomalous days by severity, descending. Channels with zero mean cost
// never alert.
func CostAnomalies(days []Day, n int) []CostAlert {
	type key struct {
		date    time.Time
		channel string
	}

	daily := make(map[key]float64)
	for _, d := range days {
		k := key{d.Date.Truncate(24 * time.Hour), d.Channel}
		daily[k] += d.Cost
	}

	sums := make(map[string]float64)
	counts := make(map[string]int)
	for k, cost := range daily {
		sums[k.channel] += cost
		counts[k.channel]++
	}

	var alerts []CostAlert
	for k, cost := range daily {
		mean := sums[k.channel] / float64(counts[k.channel])
		if mean == 0 {
			continue
		}
		alerts = append(alerts, CostAlert{
			Date:     k.date,
			Channel:  k.channel,
			Cost:     cost,
			MeanCost: mean,
			Severity: cost / mean,
		})
	}

	sort.Slice(alerts, func(i, j int) bool {
		if alerts[i].Severity != alerts[j].Severity {
			return alerts[i].Severity > alerts[j].Severity
		}
		if !alerts[i].Date.Equal(alerts[j].Date) {
			return alerts[i].Date.Before(alerts[j].Date)
		}
		return alerts[i].Channel < alerts[j].Channel
	})

	if n > 0 && len(alerts) > n {
		alerts = alerts[:n]
	}
	return alerts
}
