// Package simulate builds synthetic observation and channel-day tables
// from an explicit seed, for demos and for filling a fresh database
// with something worth looking at.
package simulate

import (
	"math/rand"
	"time"

	"github.com/uplift-stats/uplift/internal/channel"
	"github.com/uplift-stats/uplift/internal/stats"
)

// Generator produces randomized tables. The same seed always produces
// the same tables.
type Generator struct {
	rnd *rand.Rand
}

// New returns a Generator for the given seed.
func New(seed int64) *Generator {
	return &Generator{rnd: rand.New(rand.NewSource(seed))}
}

// Observations generates days of per-group observations starting at
// start. Group i converts at baseRate*(1+uplift*i), so the first group
// acts as the baseline and each later group gets a relative lift.
// Weekends see roughly 30% less traffic. All invariants hold by
// construction: conversions <= visitors, retained <= conversions.
func (g *Generator) Observations(groups []string, days int, start time.Time, baseRate, uplift float64) []stats.Observation {
	const (
		minVisitors   = 400
		visitorSpread = 400
		retentionRate = 0.6
		avgOrderValue = 25.0
	)

	var observations []stats.Observation
	for day := 0; day < days; day++ {
		period := start.AddDate(0, 0, day)
		weekend := period.Weekday() == time.Saturday || period.Weekday() == time.Sunday

		for i, group := range groups {
			visitors := minVisitors + g.rnd.Intn(visitorSpread)
			if weekend {
				visitors = visitors * 7 / 10
			}

			rate := baseRate * (1 + uplift*float64(i))
			conversions := g.binomial(visitors, rate)
			retained := g.binomial(conversions, retentionRate)
			revenue := float64(conversions) * avgOrderValue * (0.8 + 0.4*g.rnd.Float64())

			observations = append(observations, stats.Observation{
				Period:      period,
				Group:       group,
				Visitors:    visitors,
				Conversions: conversions,
				Revenue:     revenue,
				Retained:    retained,
			})
		}
	}
	return observations
}

// ChannelDays generates a channel daily data table: one row per
// (day, channel, product), with channel-specific traffic levels and a
// handful of spend spikes for the anomaly report to find.
func (g *Generator) ChannelDays(channels, products []string, days int, start time.Time) []channel.Day {
	var result []channel.Day
	for day := 0; day < days; day++ {
		date := start.AddDate(0, 0, day)
		for ci, ch := range channels {
			scale := 1.0 + 0.5*float64(ci)
			for pi, product := range products {
				uv := int(scale * float64(800+g.rnd.Intn(1200)))
				pv := uv * (2 + g.rnd.Intn(3))
				impressions := uv * (8 + g.rnd.Intn(8))
				clicks := g.binomial(impressions, 0.03+0.01*g.rnd.Float64())
				orders := g.binomial(clicks, 0.04+0.02*g.rnd.Float64())

				cost := scale * float64(200+g.rnd.Intn(300))
				if g.rnd.Float64() < 0.03 {
					// Occasional runaway spend day.
					cost *= 3 + 2*g.rnd.Float64()
				}
				gmv := float64(orders) * (30 + 20*g.rnd.Float64())

				result = append(result, channel.Day{
					Date:        date,
					Channel:     ch,
					ProductID:   productID(pi),
					ProductName: product,
					UV:          uv,
					PV:          pv,
					Impressions: impressions,
					Clicks:      clicks,
					Orders:      orders,
					GMV:         gmv,
					Cost:        cost,
					GrossProfit: gmv * 0.3,
				})
			}
		}
	}
	return result
}

func productID(i int) string {
	return "P" + string(rune('0'+i/10)) + string(rune('0'+i%10))
}

// binomial draws from Binomial(n, p) by direct simulation; n stays in
// the low thousands here, so the naive loop is fine.
func (g *Generator) binomial(n int, p float64) int {
	count := 0
	for i := 0; i < n; i++ {
		if g.rnd.Float64() < p {
			count++
		}
	}
	return count
}
