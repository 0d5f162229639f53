package strategy

import (
	"context"
	"math/big"
	"sync"
	"time"

	"mevsearcher/mempool"
	"mevsearcher/observability"
	"mevsearcher/opportunity"
)

// Stats is a strategy's running performance counters since daemon start.
type Stats struct {
	TransactionsAnalyzed uint64
	OpportunitiesFound   uint64
	TotalAnalyzeTime     time.Duration
	LastObservedAt       time.Time
	Enabled              bool
	RealizedProfitWei    *big.Int
	BundlesExecuted      uint64
	BundlesFailed        uint64
}

// AvgAnalyzeDuration returns the mean per-call analysis latency, or zero if
// no transactions have been analyzed yet.
func (s Stats) AvgAnalyzeDuration() time.Duration {
	if s.TransactionsAnalyzed == 0 {
		return 0
	}
	return s.TotalAnalyzeTime / time.Duration(s.TransactionsAnalyzed)
}

// Manager owns the registry of enabled detectors and fans a single
// incoming pending transaction out to every one of them concurrently.
type Manager struct {
	mu        sync.RWMutex
	detectors map[string]Detector
	enabled   map[string]bool
	stats     map[string]Stats
}

// NewManager constructs an empty Manager; detectors are added with Register.
func NewManager() *Manager {
	return &Manager{
		detectors: make(map[string]Detector),
		enabled:   make(map[string]bool),
		stats:     make(map[string]Stats),
	}
}

// Register adds a detector to the registry, enabled by default.
func (m *Manager) Register(d Detector) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.detectors[d.Name()] = d
	m.enabled[d.Name()] = true
	m.stats[d.Name()] = Stats{Enabled: true}
}

// SetEnabled toggles whether a registered detector participates in
// AnalyzeTx fan-out.
func (m *Manager) SetEnabled(name string, enabled bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.detectors[name]; !ok {
		return
	}
	m.enabled[name] = enabled
	s := m.stats[name]
	s.Enabled = enabled
	m.stats[name] = s
}

// Detector looks up a registered detector by name, regardless of whether
// it is currently enabled, so a caller holding an Opportunity can reach
// back to the detector that produced it (e.g. to build its bundle).
func (m *Manager) Detector(name string) (Detector, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	d, ok := m.detectors[name]
	return d, ok
}

// Stats returns a snapshot of every registered detector's running counters.
func (m *Manager) Stats() map[string]Stats {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make(map[string]Stats, len(m.stats))
	for name, s := range m.stats {
		out[name] = s
	}
	return out
}

// enabledDetectors returns a stable snapshot of the currently enabled
// detectors, so fan-out isn't racing Register/SetEnabled calls mid-pass.
func (m *Manager) enabledDetectors() []Detector {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]Detector, 0, len(m.detectors))
	for name, d := range m.detectors {
		if m.enabled[name] {
			out = append(out, d)
		}
	}
	return out
}

// RecordOutcome feeds a resolved bundle's realized profit back into the
// originating strategy's rolling stats, closing the loop between
// execution and detection so the manager's per-strategy view reflects
// actual outcomes, not just opportunities surfaced.
func (m *Manager) RecordOutcome(name string, profitWei *big.Int, success bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	s, ok := m.stats[name]
	if !ok {
		return
	}
	if s.RealizedProfitWei == nil {
		s.RealizedProfitWei = big.NewInt(0)
	}
	if profitWei != nil {
		s.RealizedProfitWei = new(big.Int).Add(s.RealizedProfitWei, profitWei)
	}
	if success {
		s.BundlesExecuted++
	} else {
		s.BundlesFailed++
	}
	m.stats[name] = s
}

func (m *Manager) recordPass(name string, opportunities int, d time.Duration) {
	m.mu.Lock()
	defer m.mu.Unlock()
	s := m.stats[name]
	s.TransactionsAnalyzed++
	s.OpportunitiesFound += uint64(opportunities)
	s.TotalAnalyzeTime += d
	s.LastObservedAt = time.Now()
	m.stats[name] = s
}

// AnalyzeTx fans tx out to every enabled detector concurrently, waits for
// all of them, and joins the resulting opportunities. A single detector's
// error is recorded but does not fail the overall pass.
func (m *Manager) AnalyzeTx(ctx context.Context, tx mempool.PendingTransaction, fields mempool.TxFields) []*opportunity.Opportunity {
	detectors := m.enabledDetectors()
	results := make([][]*opportunity.Opportunity, len(detectors))

	var wg sync.WaitGroup
	for i, d := range detectors {
		wg.Add(1)
		go func(i int, d Detector) {
			defer wg.Done()
			start := time.Now()
			opps, err := d.Analyze(ctx, tx, fields)
			elapsed := time.Since(start)
			m.recordPass(d.Name(), len(opps), elapsed)
			observability.Strategy().RecordOpportunity(d.Name(), elapsed)
			if err != nil {
				observability.Strategy().RecordRejected(d.Name(), "analyze_error")
				return
			}
			results[i] = opps
		}(i, d)
	}
	wg.Wait()

	var joined []*opportunity.Opportunity
	for _, opps := range results {
		joined = append(joined, opps...)
	}
	return joined
}
