package server

import (
	"context"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"sjsage522/wuweimonitor/internal/crawler"
	"sjsage522/wuweimonitor/internal/monitor"
	"sjsage522/wuweimonitor/logger"
)

const (
	// NotUpdated is shown as last update time before the first refresh
	NotUpdated = "未更新"

	refreshSucceeded = "数据刷新成功"
)

// ProductMonitor is the part of monitor.Monitor the server needs
type ProductMonitor interface {
	Read(ctx context.Context) (monitor.Snapshot, error)
	ForceRefresh(ctx context.Context) (monitor.Snapshot, error)
}

// Server exposes the product batch as JSON and as a dashboard page
type Server struct {
	Monitor      ProductMonitor
	Location     *time.Location
	PollInterval time.Duration

	// Registry enables /metrics and the request metrics middleware when set
	Registry *prometheus.Registry

	log *logger.Logger
}

// New creates a server
func New(mon ProductMonitor, loc *time.Location, pollInterval time.Duration, reg *prometheus.Registry) *Server {
	if loc == nil {
		loc = time.Local
	}
	return &Server{
		Monitor:      mon,
		Location:     loc,
		PollInterval: pollInterval,
		Registry:     reg,
		log:          logger.ForServer(),
	}
}

// ProductsData is the payload of GET /api/products
type ProductsData struct {
	Products []crawler.ProductRecord `json:"products"`
	monitor.Summary
	LastUpdate string `json:"last_update"`
	Stale      bool   `json:"stale,omitempty"`
}

// RefreshData is the payload of /api/refresh
type RefreshData struct {
	TotalCount  int    `json:"total_count"`
	TargetCount int    `json:"target_count"`
	LastUpdate  string `json:"last_update"`
}

// Routes builds the HTTP handler
func (s *Server) Routes() http.Handler {
	r := chi.NewRouter()

	r.Use(chimw.RequestID)
	r.Use(chimw.Recoverer)
	r.Use(requestLogger(s.log))

	if s.Registry != nil {
		metrics := NewMetrics(s.Registry)
		r.Use(metrics.Middleware)
		r.Handle("/metrics", promhttp.HandlerFor(s.Registry, promhttp.HandlerOpts{}))
	}

	r.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) { w.WriteHeader(http.StatusOK) })

	r.Get("/", s.dashboard)
	r.Get("/api/products", s.products)
	r.Get("/api/refresh", s.refresh)
	r.Post("/api/refresh", s.refresh)

	return r
}

func (s *Server) formatLastUpdate(snap monitor.Snapshot) string {
	if snap.IsZero() {
		return NotUpdated
	}
	return snap.LastUpdate.In(s.Location).Format(crawler.TimeLayout)
}

// onlyTargets reads the only_targets query flag
func onlyTargets(r *http.Request) bool {
	v, err := strconv.ParseBool(r.URL.Query().Get("only_targets"))
	return err == nil && v
}

// readSnapshot reads through the monitor. A failed refresh with older data
// available serves that data marked stale; without older data it fails.
func (s *Server) readSnapshot(r *http.Request) (monitor.Snapshot, bool, error) {
	snap, err := s.Monitor.Read(r.Context())
	if err == nil {
		return snap, false, nil
	}
	if snap.IsZero() {
		return snap, false, err
	}
	s.log.Warn().Err(err).Msg("Serving previous batch after failed refresh")
	return snap, true, nil
}

func (s *Server) products(w http.ResponseWriter, r *http.Request) {
	snap, stale, err := s.readSnapshot(r)
	if err != nil {
		s.log.Error().Err(err).Msg("Read products failed")
		writeFailure(w, err)
		return
	}

	products := snap.Products
	if onlyTargets(r) {
		products = snap.Targets()
	}
	if products == nil {
		products = []crawler.ProductRecord{}
	}

	writeJSON(w, http.StatusOK, Response{
		Success: true,
		Data: ProductsData{
			Products:   products,
			Summary:    snap.Summary(),
			LastUpdate: s.formatLastUpdate(snap),
			Stale:      stale,
		},
	})
}

func (s *Server) refresh(w http.ResponseWriter, r *http.Request) {
	snap, err := s.Monitor.ForceRefresh(r.Context())
	if err != nil {
		s.log.Error().Err(err).Msg("Manual refresh failed")
		writeFailure(w, err)
		return
	}

	summary := snap.Summary()
	writeJSON(w, http.StatusOK, Response{
		Success: true,
		Message: refreshSucceeded,
		Data: RefreshData{
			TotalCount:  summary.TotalCount,
			TargetCount: summary.TargetCount,
			LastUpdate:  s.formatLastUpdate(snap),
		},
	})
}
