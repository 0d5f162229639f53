package control

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"mevsearcher/mempool"
	"mevsearcher/risk"
	"mevsearcher/strategy"
)

// Server is the searcher daemon's admin HTTP plane: strategy toggles,
// Prometheus scrape endpoint, and a liveness/health snapshot.
type Server struct {
	router    chi.Router
	manager   *strategy.Manager
	ingestor  *mempool.Ingestor
	tracker   *risk.Tracker
	startedAt time.Time
}

// Config wires a Server's dependencies and optional bearer auth.
type Config struct {
	Manager       *strategy.Manager
	Ingestor      *mempool.Ingestor
	Tracker       *risk.Tracker
	Authenticator *Authenticator
}

// New builds the control-plane router. /healthz is always unauthenticated
// so orchestrators can probe liveness without a token.
func New(cfg Config) *Server {
	s := &Server{
		router:    chi.NewRouter(),
		manager:   cfg.Manager,
		ingestor:  cfg.Ingestor,
		tracker:   cfg.Tracker,
		startedAt: time.Now(),
	}

	r := s.router
	r.Get("/healthz", s.handleHealth)

	r.Group(func(gr chi.Router) {
		if cfg.Authenticator != nil {
			gr.Use(cfg.Authenticator.Middleware("control"))
		}
		gr.Get("/metrics", promhttp.Handler().ServeHTTP)
		gr.Get("/strategies", s.handleListStrategies)
		gr.Post("/strategies/{name}/enable", s.handleSetEnabled(true))
		gr.Post("/strategies/{name}/disable", s.handleSetEnabled(false))
	})

	return s
}

// Handler returns the assembled http.Handler for embedding in an http.Server.
func (s *Server) Handler() http.Handler { return s.router }

type healthResponse struct {
	Status     string                  `json:"status"`
	UptimeS    float64                 `json:"uptime_seconds"`
	QueueDepth int                     `json:"mempool_queue_depth,omitempty"`
	Strategies map[string]strategyView `json:"strategies"`
	Risk       *riskView               `json:"risk,omitempty"`
}

type strategyView struct {
	Enabled            bool    `json:"enabled"`
	TransactionsSeen   uint64  `json:"transactions_analyzed"`
	OpportunitiesFound uint64  `json:"opportunities_found"`
	LastObservedUnix   int64   `json:"last_observed_unix,omitempty"`
	RealizedProfitWei  string  `json:"realized_profit_wei,omitempty"`
	WinRate            float64 `json:"win_rate,omitempty"`
}

type riskView struct {
	TradesPerMinute float64 `json:"trades_per_minute"`
	SuccessRate     float64 `json:"success_rate"`
	WinRate         float64 `json:"win_rate"`
	SharpeProxy     float64 `json:"sharpe_proxy"`
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	resp := healthResponse{
		Status:     "ok",
		UptimeS:    time.Since(s.startedAt).Seconds(),
		Strategies: make(map[string]strategyView),
	}
	if s.ingestor != nil {
		resp.QueueDepth = s.ingestor.QueueDepth()
	}
	if s.manager != nil {
		for name, stat := range s.manager.Stats() {
			view := strategyView{
				Enabled:            stat.Enabled,
				TransactionsSeen:   stat.TransactionsAnalyzed,
				OpportunitiesFound: stat.OpportunitiesFound,
			}
			if !stat.LastObservedAt.IsZero() {
				view.LastObservedUnix = stat.LastObservedAt.Unix()
			}
			if stat.RealizedProfitWei != nil {
				view.RealizedProfitWei = stat.RealizedProfitWei.String()
			}
			if stat.BundlesExecuted+stat.BundlesFailed > 0 {
				view.WinRate = float64(stat.BundlesExecuted) / float64(stat.BundlesExecuted+stat.BundlesFailed)
			}
			resp.Strategies[name] = view
		}
	}
	if s.tracker != nil {
		resp.Risk = &riskView{
			TradesPerMinute: s.tracker.TradesPerMinute(),
			SuccessRate:     s.tracker.SuccessRate(),
			WinRate:         s.tracker.WinRate(),
			SharpeProxy:     s.tracker.SharpeProxy(),
		}
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleListStrategies(w http.ResponseWriter, r *http.Request) {
	if s.manager == nil {
		writeJSON(w, http.StatusOK, map[string]strategy.Stats{})
		return
	}
	writeJSON(w, http.StatusOK, s.manager.Stats())
}

func (s *Server) handleSetEnabled(enabled bool) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		name := chi.URLParam(r, "name")
		if s.manager == nil || name == "" {
			http.Error(w, "unknown strategy", http.StatusNotFound)
			return
		}
		s.manager.SetEnabled(name, enabled)
		writeJSON(w, http.StatusOK, map[string]bool{"enabled": enabled})
	}
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
