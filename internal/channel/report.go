// Package channel computes the channel-sales report: per-channel and
// per-product aggregates over daily marketing rows, with the ratio
// metrics (CVR, ROI, GMV share) the sales dashboard displays.
package channel

import (
	"sort"
	"strings"
	"time"
)

// Day is one daily row for one channel and product.
type Day struct {
	Date        time.Time
	Channel     string
	ProductID   string
	ProductName string
	UV          int
	PV          int
	Impressions int
	Clicks      int
	Orders      int
	GMV         float64
	Cost        float64
	GrossProfit float64
}

// Ratio is a division result that may be undefined (zero denominator).
// Consumers render undefined ratios as "n/a" instead of NaN.
type Ratio struct {
	Value float64
	Valid bool
}

func ratio(num, den float64) Ratio {
	if den == 0 {
		return Ratio{}
	}
	return Ratio{Value: num / den, Valid: true}
}

// Summary holds a channel's totals and derived metrics over the
// reported window.
type Summary struct {
	Channel     string
	UV          int
	PV          int
	Impressions int
	Clicks      int
	Orders      int
	GMV         float64
	Cost        float64
	GrossProfit float64

	CVR           Ratio // orders / clicks
	ROI           Ratio // gmv / cost
	FullFunnelROI Ratio // gmv / (cost + gross profit)
	GMVShare      float64
}

// SummarizeChannels aggregates days per channel and derives the ratio
// metrics. Results are sorted by GMV descending. GMV shares sum to 1
// when any channel has revenue; with zero total GMV every share is 0.
func SummarizeChannels(days []Day) []Summary {
	byChannel := make(map[string]*Summary)
	totalGMV := 0.0

	for _, d := range days {
		s := byChannel[d.Channel]
		if s == nil {
			s = &Summary{Channel: d.Channel}
			byChannel[d.Channel] = s
		}
		s.UV += d.UV
		s.PV += d.PV
		s.Impressions += d.Impressions
		s.Clicks += d.Clicks
		s.Orders += d.Orders
		s.GMV += d.GMV
		s.Cost += d.Cost
		s.GrossProfit += d.GrossProfit
		totalGMV += d.GMV
	}

	summaries := make([]Summary, 0, len(byChannel))
	for _, s := range byChannel {
		s.CVR = ratio(float64(s.Orders), float64(s.Clicks))
		s.ROI = ratio(s.GMV, s.Cost)
		s.FullFunnelROI = ratio(s.GMV, s.Cost+s.GrossProfit)
		if totalGMV > 0 {
			s.GMVShare = s.GMV / totalGMV
		}
		summaries = append(summaries, *s)
	}

	sort.Slice(summaries, func(i, j int) bool {
		if summaries[i].GMV != summaries[j].GMV {
			return summaries[i].GMV > summaries[j].GMV
		}
		return summaries[i].Channel < summaries[j].Channel
	})

	return summaries
}

// TrendPoint is one date on a channel's daily trend line.
type TrendPoint struct {
	Date time.Time
	UV   int
	GMV  float64
	Cost float64
	ROI  Ratio
}

// DailyTrend aggregates one channel's rows per date, sorted by date.
func DailyTrend(days []Day, channel string) []TrendPoint {
	byDate := make(map[time.Time]*TrendPoint)
	for _, d := range days {
		if d.Channel != channel {
			continue
		}
		date := d.Date.Truncate(24 * time.Hour)
		p := byDate[date]
		if p == nil {
			p = &TrendPoint{Date: date}
			byDate[date] = p
		}
		p.UV += d.UV
		p.GMV += d.GMV
		p.Cost += d.Cost
	}

	points := make([]TrendPoint, 0, len(byDate))
	for _, p := range byDate {
		p.ROI = ratio(p.GMV, p.Cost)
		points = append(points, *p)
	}
	sort.Slice(points, func(i, j int) bool { return points[i].Date.Before(points[j].Date) })
	return points
}

// SplitCategory extracts the category prefix from a "category_sku"
// style product name, or "Unknown" when there is no underscore.
func SplitCategory(productName string) string {
	if i := strings.Index(productName, "_"); i > 0 {
		return productName[:i]
	}
	return "Unknown"
}

// ComboROI is the ROI of one (channel, category) combination.
type ComboROI struct {
	Channel  string
	Category string
	GMV      float64
	Cost     float64
	ROI      Ratio
}

// ChannelCategoryROI aggregates GMV and cost per (channel, category)
// pair and sorts by ROI descending; undefined ROIs sink to the bottom.
func ChannelCategoryROI(days []Day) []ComboROI {
	type key struct{ channel, category string }
	byKey := make(map[key]*ComboROI)

	for _, d := range days {
		k := key{d.Channel, SplitCategory(d.ProductName)}
		c := byKey[k]
		if c == nil {
			c = &ComboROI{Channel: k.channel, Category: k.category}
			byKey[k] = c
		}
		c.GMV += d.GMV
		c.Cost += d.Cost
	}

	combos := make([]ComboROI, 0, len(byKey))
	for _, c := range byKey {
		c.ROI = ratio(c.GMV, c.Cost)
		combos = append(combos, *c)
	}

	sort.Slice(combos, func(i, j int) bool {
		a, b := combos[i], combos[j]
		if a.ROI.Valid != b.ROI.Valid {
			return a.ROI.Valid
		}
		if a.ROI.Value != b.ROI.Value {
			return a.ROI.Value > b.ROI.Value
		}
		if a.Channel != b.Channel {
			return a.Channel < b.Channel
		}
		return a.Category < b.Category
	})

	return combos
}
