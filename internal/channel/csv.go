package channel

import (
	"encoding/csv"
	"fmt"
	"io"
	"strconv"
	"time"
)

// csvHeader is the expected column order of a channel daily data file.
var csvHeader = []string{
	"date", "channel", "product_id", "product_name",
	"uv", "pv", "impressions", "clicks", "orders",
	"gmv", "cost", "gross_profit",
}

// ReadDays parses a channel daily data CSV. The header row is required
// and must match the canonical column order. Row errors name the line
// they occurred on.
func ReadDays(r io.Reader) ([]Day, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = len(csvHeader)

	header, err := cr.Read()
	if err != nil {
		return nil, fmt.Errorf("failed to read header: %w", err)
	}
	for i, want := range csvHeader {
		if header[i] != want {
			return nil, fmt.Errorf("unexpected header column %d: got %q, want %q", i, header[i], want)
		}
	}

	var days []Day
	line := 1
	for {
		record, err := cr.Read()
		if err == io.EOF {
			break
		}
		line++
		if err != nil {
			return nil, fmt.Errorf("line %d: %w", line, err)
		}

		day, err := parseDay(record)
		if err != nil {
			return nil, fmt.Errorf("line %d: %w", line, err)
		}
		days = append(days, day)
	}

	return days, nil
}

func parseDay(record []string) (Day, error) {
	date, err := time.Parse("2006-01-02", record[0])
	if err != nil {
		return Day{}, fmt.Errorf("bad date %q: %w", record[0], err)
	}

	d := Day{
		Date:        date,
		Channel:     record[1],
		ProductID:   record[2],
		ProductName: record[3],
	}

	ints := []struct {
		dst  *int
		name string
		val  string
	}{
		{&d.UV, "uv", record[4]},
		{&d.PV, "pv", record[5]},
		{&d.Impressions, "impressions", record[6]},
		{&d.Clicks, "clicks", record[7]},
		{&d.Orders, "orders", record[8]},
	}
	for _, f := range ints {
		v, err := strconv.Atoi(f.val)
		if err != nil {
			return Day{}, fmt.Errorf("bad %s %q: %w", f.name, f.val, err)
		}
		if v < 0 {
			return Day{}, fmt.Errorf("negative %s: %d", f.name, v)
		}
		*f.dst = v
	}

	floats := []struct {
		dst  *float64
		name string
		val  string
	}{
		{&d.GMV, "gmv", record[9]},
		{&d.Cost, "cost", record[10]},
		{&d.GrossProfit, "gross_profit", record[11]},
	}
	for _, f := range floats {
		v, err := strconv.ParseFloat(f.val, 64)
		if err != nil {
			return Day{}, fmt.Errorf("bad %s %q: %w", f.name, f.val, err)
		}
		if v < 0 {
			return Day{}, fmt.Errorf("negative %s: %f", f.name, v)
		}
		*f.dst = v
	}

	return d, nil
}
