package channel_test

import (
	"strings"
	"testing"

	"github.com/uplift-stats/uplift/internal/channel"
)

const validCSV = `date,channel,product_id,product_name,uv,pv,impressions,clicks,orders,gmv,cost,gross_profit
2026-08-01,search,P1,shoes_runner,1000,2500,9000,300,25,750.50,220.00,180.00
2026-08-02,social,P2,apparel_tee,800,1900,7000,150,10,300.00,120.00,60.00
`

func TestReadDays_Valid(t *testing.T) {
	days, err := channel.ReadDays(strings.NewReader(validCSV))
	if err != nil {
		t.Fatalf("ReadDays failed: %v", err)
	}

	if len(days) != 2 {
		t.Fatalf("expected 2 rows, got %d", len(days))
	}

	first := days[0]
	if first.Channel != "search" || first.UV != 1000 || first.Orders != 25 {
		t.Errorf("first row parsed wrong: %+v", first)
	}
	if first.GMV != 750.50 {
		t.Errorf("gmv %f, want 750.50", first.GMV)
	}
	if first.Date.Format("2006-01-02") != "2026-08-01" {
		t.Errorf("date parsed wrong: %s", first.Date)
	}
}

func TestReadDays_BadHeader(t *testing.T) {
	csv := "date,channel,product_id,product_name,uv,pv,impressions,clicks,orders,gmv,spend,gross_profit\n"
	_, err := channel.ReadDays(strings.NewReader(csv))
	if err == nil || !strings.Contains(err.Error(), "spend") {
		t.Fatalf("expected header error naming the bad column, got %v", err)
	}
}

func TestReadDays_BadRowNamesLine(t *testing.T) {
	csv := validCSV + "2026-08-03,search,P1,shoes_runner,oops,0,0,0,0,0,0,0\n"
	_, err := channel.ReadDays(strings.NewReader(csv))
	if err == nil || !strings.Contains(err.Error(), "line 4") {
		t.Fatalf("expected an error naming line 4, got %v", err)
	}
}

func TestReadDays_RejectsNegative(t *testing.T) {
	csv := "date,channel,product_id,product_name,uv,pv,impressions,clicks,orders,gmv,cost,gross_profit\n" +
		"2026-08-01,search,P1,x,100,200,300,40,5,-10,20,5\n"
	_, err := channel.ReadDays(strings.NewReader(csv))
	if err == nil || !strings.Contains(err.Error(), "negative") {
		t.Fatalf("expected negative-value error, got %v", err)
	}
}
