package server

import (
	"bytes"
	"fmt"
	"html/template"
	"net/http"
	"strings"

	"github.com/uplift-stats/uplift/internal/store"
)

type layoutData struct {
	Title   string
	CSS     template.CSS
	Content template.HTML
}

const dashboardCSS = `
body { font-family: -apple-system, sans-serif; margin: 2rem auto; max-width: 64rem; color: #1a1a1a; }
h1 { font-size: 1.4rem; } h2 { font-size: 1.1rem; margin-top: 2rem; }
table { border-collapse: collapse; width: 100%; margin-top: .5rem; }
th, td { text-align: left; padding: .4rem .8rem; border-bottom: 1px solid #ddd; }
th { font-size: .75rem; text-transform: uppercase; color: #666; }
.state { font-size: .75rem; padding: .1rem .5rem; border-radius: .5rem; background: #eee; }
.state.running { background: #d3f2d9; } .state.completed { background: #d6e4ff; }
.sig { color: #1a7f37; font-weight: 600; } .nosig { color: #666; }
.bar { height: .5rem; background: #eee; border-radius: .25rem; overflow: hidden; }
.bar > div { height: 100%; background: #4a7dcf; }
a { color: #2456a4; }
`

var layoutTemplate = template.Must(template.New("layout").Parse(`<!DOCTYPE html>
<html>
<head>
<meta charset="utf-8">
<title>{{.Title}}</title>
<style>{{.CSS}}</style>
</head>
<body>
{{.Content}}
</body>
</html>`))

var listTemplate = template.Must(template.New("list").Parse(`
<h1>Experiments</h1>
{{if not .Experiments}}<p>No experiments yet. Create one with <code>uplift create</code>.</p>{{end}}
<table>
<tr><th>Name</th><th>State</th><th>Groups</th><th>Visitors</th><th>Conversions</th><th>Created</th></tr>
{{range .Experiments}}
<tr>
<td><a href="/dashboard/experiment/{{.Name}}">{{.Name}}</a></td>
<td><span class="state {{.State}}">{{.State}}</span></td>
<td>{{.Groups}}</td>
<td>{{.Visitors}}</td>
<td>{{.Conversions}}</td>
<td>{{.CreatedAt}}</td>
</tr>
{{end}}
</table>`))

var detailTemplate = template.Must(template.New("detail").Parse(`
<p><a href="/dashboard">&larr; All experiments</a></p>
<h1>{{.Name}} <span class="state {{.State}}">{{.State}}</span></h1>
{{if .Description}}<p>{{.Description}}</p>{{end}}
{{if .Winner}}<p>Winner: <strong>{{.Winner}}</strong></p>{{end}}

<h2>Groups</h2>
<table>
<tr><th>Group</th><th>Visitors</th><th>Conversions</th><th>Rate</th><th>95% CI</th><th>RPV</th><th>Retention</th><th>Posterior mean</th></tr>
{{range .Groups}}
<tr>
<td>{{.Name}}{{if .IsBaseline}} (baseline){{end}}</td>
<td>{{.Visitors}}</td>
<td>{{.Conversions}}</td>
<td>{{.Rate}}</td>
<td>{{.CI}}</td>
<td>{{.RPV}}</td>
<td>{{.Retention}}</td>
<td>{{.PosteriorMean}}</td>
</tr>
{{end}}
</table>

<h2>Comparisons vs {{.Baseline}}</h2>
{{if not .Comparisons}}<p>No comparable groups yet.</p>{{end}}
{{range .Comparisons}}
{{if .Error}}
<p><strong>{{.Variant}}</strong>: not comparable ({{.Error}})</p>
{{else}}
<p>
<strong>{{.Variant}}</strong>: uplift {{.RateDiff}}, z={{.ZScore}}, p={{.PValue}}
{{if .Significant}}<span class="sig">significant</span>{{else}}<span class="nosig">not significant</span>{{end}}<br>
95% CI {{.CI}}{{if .Boot}}, bootstrap {{.Boot}}{{end}}
</p>
<div class="bar" title="confidence the variant leads"><div style="width: {{.ConfidencePct}}%"></div></div>
<p class="nosig">{{.ConfidencePct}}% confident {{.Variant}} beats {{$.Baseline}}</p>
{{end}}
{{end}}`))

type listPageExperiment struct {
	Name        string
	State       string
	Groups      string
	Visitors    int
	Conversions int
	CreatedAt   string
}

func (s *Server) handleDashboard(w http.ResponseWriter, r *http.Request) {
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

	var items []listPageExperiment
	for _, exp := range experiments {
		totals, err := s.store.GetGroupTotals(ctx, exp.Name)
		if err != nil {
			http.Error(w, "Internal server error", http.StatusInternalServerError)
			return
		}
		item := listPageExperiment{
			Name:      exp.Name,
			State:     string(exp.State),
			Groups:    strings.Join(exp.Groups, ", "),
			CreatedAt: exp.CreatedAt.Format("2006-01-02"),
		}
		for _, t := range totals {
			item.Visitors += t.Visitors
			item.Conversions += t.Conversions
		}
		items = append(items, item)
	}

	s.renderPage(w, "Uplift", listTemplate, map[string]any{"Experiments": items})
}

type detailPageGroup struct {
	Name          string
	IsBaseline    bool
	Visitors      int
	Conversions   int
	Rate          string
	CI            string
	RPV           string
	Retention     string
	PosteriorMean string
}

type detailPageComparison struct {
	Variant       string
	RateDiff      string
	ZScore        string
	PValue        string
	CI            string
	Boot          string
	Significant   bool
	ConfidencePct string
	Error         string
}

func (s *Server) handleDashboardExperiment(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	name := strings.TrimPrefix(r.URL.Path, "/dashboard/experiment/")
	if name == "" {
		http.Error(w, "Missing experiment name", http.StatusBadRequest)
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

	data := map[string]any{
		"Name":        report.Name,
		"State":       report.State,
		"Description": report.Description,
		"Baseline":    report.Baseline,
		"Winner":      "",
		"Groups":      formatDetailGroups(report),
		"Comparisons": formatDetailComparisons(report),
	}
	if report.WinnerGroup != nil {
		data["Winner"] = *report.WinnerGroup
	}

	s.renderPage(w, report.Name+" - Uplift", detailTemplate, data)
}

func formatDetailGroups(report *Report) []detailPageGroup {
	groups := make([]detailPageGroup, 0, len(report.Groups))
	for _, g := range report.Groups {
		pg := detailPageGroup{
			Name:          g.Name,
			IsBaseline:    g.Name == report.Baseline,
			Visitors:      g.Visitors,
			Conversions:   g.Conversions,
			Rate:          "N/A",
			CI:            "N/A",
			RPV:           "N/A",
			Retention:     "N/A",
			PosteriorMean: "N/A",
		}
		if g.RateValid {
			pg.Rate = fmt.Sprintf("%.2f%%", g.Rate*100)
			pg.CI = fmt.Sprintf("[%.1f%%, %.1f%%]", g.CILower*100, g.CIUpper*100)
			pg.RPV = fmt.Sprintf("%.2f", g.RPV)
			pg.PosteriorMean = fmt.Sprintf("%.2f%%", g.PosteriorMean*100)
		}
		if g.RetValid {
			pg.Retention = fmt.Sprintf("%.1f%%", g.Retention*100)
		}
		groups = append(groups, pg)
	}
	return groups
}

func formatDetailComparisons(report *Report) []detailPageComparison {
	comparisons := make([]detailPageComparison, 0, len(report.Comparisons))
	for _, c := range report.Comparisons {
		pc := detailPageComparison{
			Variant:     c.Variant,
			Error:       c.Error,
			Significant: c.Significant,
		}
		if c.Error == "" {
			pc.RateDiff = fmt.Sprintf("%+.2f pp", c.RateDiff*100)
			pc.ZScore = fmt.Sprintf("%.2f", c.ZScore)
			pc.PValue = fmt.Sprintf("%.3f", c.PValue)
			pc.CI = fmt.Sprintf("[%+.2f pp, %+.2f pp]", c.CILower*100, c.CIUpper*100)
			pc.ConfidencePct = fmt.Sprintf("%.1f", c.WinnerConfidence*100)
			if c.BootValid {
				pc.Boot = fmt.Sprintf("[%+.2f pp, %+.2f pp]", c.BootLow*100, c.BootHigh*100)
			}
		}
		comparisons = append(comparisons, pc)
	}
	return comparisons
}

func (s *Server) renderPage(w http.ResponseWriter, title string, content *template.Template, data any) {
	var buf bytes.Buffer
	if err := content.Execute(&buf, data); err != nil {
		http.Error(w, "Internal server error", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	layoutTemplate.Execute(w, layoutData{
		Title:   title,
		CSS:     template.CSS(dashboardCSS),
		Content: template.HTML(buf.String()),
	})
}
