package server

import (
	"bytes"
	"embed"
	"html/template"
	"net/http"
	"time"

	"sjsage522/wuweimonitor/internal/crawler"
	"sjsage522/wuweimonitor/internal/monitor"
)

//go:embed templates/dashboard.html
var templateFS embed.FS

var dashboardTemplate = template.Must(
	template.New("dashboard.html").
		Funcs(template.FuncMap{
			"highDiscount": crawler.IsHighDiscount,
			"fetchedAt": func(t time.Time, loc *time.Location) string {
				return t.In(loc).Format(crawler.TimeLayout)
			},
		}).
		ParseFS(templateFS, "templates/dashboard.html"),
)

type dashboardView struct {
	Products     []crawler.ProductRecord
	Summary      monitor.Summary
	LastUpdate   string
	OnlyTargets  bool
	Stale        bool
	Error        string
	PollMillis   int64
	Location     *time.Location
	DiscountRule float64
	PriceLimit   float64
}

func (s *Server) dashboard(w http.ResponseWriter, r *http.Request) {
	view := dashboardView{
		OnlyTargets:  onlyTargets(r),
		PollMillis:   s.PollInterval.Milliseconds(),
		Location:     s.Location,
		DiscountRule: crawler.TargetDiscountThreshold,
		PriceLimit:   crawler.TargetPriceLimit,
	}

	snap, stale, err := s.readSnapshot(r)
	if err != nil {
		view.Error = err.Error()
	}
	view.Stale = stale
	view.Summary = snap.Summary()
	view.LastUpdate = s.formatLastUpdate(snap)
	view.Products = snap.Products
	if view.OnlyTargets {
		view.Products = snap.Targets()
	}

	var buf bytes.Buffer
	if err := dashboardTemplate.Execute(&buf, view); err != nil {
		s.log.Error().Err(err).Msg("Render dashboard failed")
		http.Error(w, "render failed", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(buf.Bytes())
}
