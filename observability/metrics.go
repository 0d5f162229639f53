// Package observability exposes the searcher daemon's Prometheus collectors.
// Each subsystem gets its own lazily-initialised registry behind a
// sync.Once, following the module's convention of one singleton per
// concern rather than a single monolithic metrics struct.
package observability

import (
	"math"
	"math/big"
	"strings"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// MempoolMetrics tracks ingestion throughput and health of the mempool
// ingestor's connections.
type MempoolMetrics struct {
	transactionsSeen  *prometheus.CounterVec
	transactionsDup   prometheus.Counter
	decodeFailures    *prometheus.CounterVec
	queueDepth        prometheus.Gauge
	connectionRetries *prometheus.CounterVec
}

var (
	mempoolMetricsOnce sync.Once
	mempoolRegistry    *MempoolMetrics
)

// Mempool returns the singleton mempool metrics registry.
func Mempool() *MempoolMetrics {
	mempoolMetricsOnce.Do(func() {
		mempoolRegistry = &MempoolMetrics{
			transactionsSeen: prometheus.NewCounterVec(prometheus.CounterOpts{
				Namespace: "searcher",
				Subsystem: "mempool",
				Name:      "transactions_seen_total",
				Help:      "Count of pending transactions observed, segmented by ingestion source.",
			}, []string{"source"}),
			transactionsDup: prometheus.NewCounter(prometheus.CounterOpts{
				Namespace: "searcher",
				Subsystem: "mempool",
				Name:      "transactions_duplicate_total",
				Help:      "Count of pending transactions discarded as duplicates across sources.",
			}),
			decodeFailures: prometheus.NewCounterVec(prometheus.CounterOpts{
				Namespace: "searcher",
				Subsystem: "mempool",
				Name:      "decode_failures_total",
				Help:      "Count of pending transactions that failed calldata decoding, by reason.",
			}, []string{"reason"}),
			queueDepth: prometheus.NewGauge(prometheus.GaugeOpts{
				Namespace: "searcher",
				Subsystem: "mempool",
				Name:      "queue_depth",
				Help:      "Current number of transactions buffered awaiting strategy evaluation.",
			}),
			connectionRetries: prometheus.NewCounterVec(prometheus.CounterOpts{
				Namespace: "searcher",
				Subsystem: "mempool",
				Name:      "connection_retries_total",
				Help:      "Count of ingestion connection reconnect attempts, by source.",
			}, []string{"source"}),
		}
		prometheus.MustRegister(
			mempoolRegistry.transactionsSeen,
			mempoolRegistry.transactionsDup,
			mempoolRegistry.decodeFailures,
			mempoolRegistry.queueDepth,
			mempoolRegistry.connectionRetries,
		)
	})
	return mempoolRegistry
}

// RecordSeen increments the per-source transaction counter.
func (m *MempoolMetrics) RecordSeen(source string) {
	if m == nil {
		return
	}
	m.transactionsSeen.WithLabelValues(labelOrUnknown(source)).Inc()
}

// RecordDuplicate increments the cross-source duplicate counter.
func (m *MempoolMetrics) RecordDuplicate() {
	if m == nil {
		return
	}
	m.transactionsDup.Inc()
}

// RecordDecodeFailure increments the decode failure counter for a reason.
func (m *MempoolMetrics) RecordDecodeFailure(reason string) {
	if m == nil {
		return
	}
	m.decodeFailures.WithLabelValues(labelOrUnknown(reason)).Inc()
}

// SetQueueDepth updates the current backlog gauge.
func (m *MempoolMetrics) SetQueueDepth(n int) {
	if m == nil {
		return
	}
	m.queueDepth.Set(float64(n))
}

// RecordReconnect increments the reconnect counter for a source.
func (m *MempoolMetrics) RecordReconnect(source string) {
	if m == nil {
		return
	}
	m.connectionRetries.WithLabelValues(labelOrUnknown(source)).Inc()
}

// StrategyMetrics tracks opportunity detection and strategy outcomes.
type StrategyMetrics struct {
	opportunitiesFound *prometheus.CounterVec
	detectLatency      *prometheus.HistogramVec
	rejected           *prometheus.CounterVec
}

var (
	strategyMetricsOnce sync.Once
	strategyRegistry    *StrategyMetrics
)

// Strategy returns the singleton strategy metrics registry.
func Strategy() *StrategyMetrics {
	strategyMetricsOnce.Do(func() {
		strategyRegistry = &StrategyMetrics{
			opportunitiesFound: prometheus.NewCounterVec(prometheus.CounterOpts{
				Namespace: "searcher",
				Subsystem: "strategy",
				Name:      "opportunities_found_total",
				Help:      "Count of opportunities detected, segmented by strategy name.",
			}, []string{"strategy"}),
			detectLatency: prometheus.NewHistogramVec(prometheus.HistogramOpts{
				Namespace: "searcher",
				Subsystem: "strategy",
				Name:      "detect_duration_seconds",
				Help:      "Latency distribution of a strategy's per-transaction detection pass.",
				Buckets:   prometheus.DefBuckets,
			}, []string{"strategy"}),
			rejected: prometheus.NewCounterVec(prometheus.CounterOpts{
				Namespace: "searcher",
				Subsystem: "strategy",
				Name:      "opportunities_rejected_total",
				Help:      "Count of opportunities rejected before bundle submission, by reason.",
			}, []string{"strategy", "reason"}),
		}
		prometheus.MustRegister(
			strategyRegistry.opportunitiesFound,
			strategyRegistry.detectLatency,
			strategyRegistry.rejected,
		)
	})
	return strategyRegistry
}

// RecordOpportunity increments the detection counter and records latency.
func (m *StrategyMetrics) RecordOpportunity(strategy string, d time.Duration) {
	if m == nil {
		return
	}
	label := labelOrUnknown(strategy)
	m.opportunitiesFound.WithLabelValues(label).Inc()
	m.detectLatency.WithLabelValues(label).Observe(d.Seconds())
}

// RecordRejected increments the rejection counter for a strategy/reason pair.
func (m *StrategyMetrics) RecordRejected(strategy, reason string) {
	if m == nil {
		return
	}
	m.rejected.WithLabelValues(labelOrUnknown(strategy), labelOrUnknown(reason)).Inc()
}

// RelayMetrics tracks bundle submission and inclusion outcomes.
type RelayMetrics struct {
	submitted  *prometheus.CounterVec
	included   *prometheus.CounterVec
	rejected   *prometheus.CounterVec
	timedOut   prometheus.Counter
	profitWei  *prometheus.GaugeVec
	inclusionS *prometheus.HistogramVec
}

var (
	relayMetricsOnce sync.Once
	relayRegistry    *RelayMetrics
)

// Relay returns the singleton relay metrics registry.
func Relay() *RelayMetrics {
	relayMetricsOnce.Do(func() {
		relayRegistry = &RelayMetrics{
			submitted: prometheus.NewCounterVec(prometheus.CounterOpts{
				Namespace: "searcher",
				Subsystem: "relay",
				Name:      "bundles_submitted_total",
				Help:      "Count of bundles submitted, segmented by relay.",
			}, []string{"relay"}),
			included: prometheus.NewCounterVec(prometheus.CounterOpts{
				Namespace: "searcher",
				Subsystem: "relay",
				Name:      "bundles_included_total",
				Help:      "Count of bundles confirmed included on-chain, segmented by relay.",
			}, []string{"relay"}),
			rejected: prometheus.NewCounterVec(prometheus.CounterOpts{
				Namespace: "searcher",
				Subsystem: "relay",
				Name:      "bundles_rejected_total",
				Help:      "Count of bundles rejected by a relay, segmented by relay and reason.",
			}, []string{"relay", "reason"}),
			timedOut: prometheus.NewCounter(prometheus.CounterOpts{
				Namespace: "searcher",
				Subsystem: "relay",
				Name:      "bundles_timed_out_total",
				Help:      "Count of bundles that expired their target block window without inclusion.",
			}),
			profitWei: prometheus.NewGaugeVec(prometheus.GaugeOpts{
				Namespace: "searcher",
				Subsystem: "relay",
				Name:      "last_included_profit_wei",
				Help:      "Net profit in wei of the most recently included bundle, by strategy.",
			}, []string{"strategy"}),
			inclusionS: prometheus.NewHistogramVec(prometheus.HistogramOpts{
				Namespace: "searcher",
				Subsystem: "relay",
				Name:      "blocks_to_inclusion",
				Help:      "Number of blocks elapsed between submission and confirmed inclusion.",
				Buckets:   []float64{1, 2, 3, 5, 8, 13, 21},
			}, []string{"relay"}),
		}
		prometheus.MustRegister(
			relayRegistry.submitted,
			relayRegistry.included,
			relayRegistry.rejected,
			relayRegistry.timedOut,
			relayRegistry.profitWei,
			relayRegistry.inclusionS,
		)
	})
	return relayRegistry
}

// RecordSubmitted increments the per-relay submission counter.
func (m *RelayMetrics) RecordSubmitted(relay string) {
	if m == nil {
		return
	}
	m.submitted.WithLabelValues(labelOrUnknown(relay)).Inc()
}

// RecordIncluded increments the inclusion counter and records profit/blocks-to-inclusion.
func (m *RelayMetrics) RecordIncluded(relay, strategy string, profit *big.Int, blocksElapsed int) {
	if m == nil {
		return
	}
	m.included.WithLabelValues(labelOrUnknown(relay)).Inc()
	m.profitWei.WithLabelValues(labelOrUnknown(strategy)).Set(bigToFloat(profit))
	m.inclusionS.WithLabelValues(labelOrUnknown(relay)).Observe(float64(blocksElapsed))
}

// RecordRejected increments the rejection counter for a relay/reason pair.
func (m *RelayMetrics) RecordRejected(relay, reason string) {
	if m == nil {
		return
	}
	m.rejected.WithLabelValues(labelOrUnknown(relay), labelOrUnknown(reason)).Inc()
}

// RecordTimeout increments the expired-bundle counter.
func (m *RelayMetrics) RecordTimeout() {
	if m == nil {
		return
	}
	m.timedOut.Inc()
}

// RiskMetrics tracks exposure, PnL, and guard-rail activations.
type RiskMetrics struct {
	exposureWei  *prometheus.GaugeVec
	limitHits    *prometheus.CounterVec
	realizedPnL  prometheus.Gauge
	drawdownBps  prometheus.Gauge
	winRateRatio prometheus.Gauge
}

var (
	riskMetricsOnce sync.Once
	riskRegistry    *RiskMetrics
)

// Risk returns the singleton risk metrics registry.
func Risk() *RiskMetrics {
	riskMetricsOnce.Do(func() {
		riskRegistry = &RiskMetrics{
			exposureWei: prometheus.NewGaugeVec(prometheus.GaugeOpts{
				Namespace: "searcher",
				Subsystem: "risk",
				Name:      "exposure_wei",
				Help:      "Current capital at risk in wei, segmented by strategy.",
			}, []string{"strategy"}),
			limitHits: prometheus.NewCounterVec(prometheus.CounterOpts{
				Namespace: "searcher",
				Subsystem: "risk",
				Name:      "limit_exceeded_total",
				Help:      "Count of risk limit violations, segmented by limit name.",
			}, []string{"limit"}),
			realizedPnL: prometheus.NewGauge(prometheus.GaugeOpts{
				Namespace: "searcher",
				Subsystem: "risk",
				Name:      "realized_pnl_wei",
				Help:      "Realized profit and loss accumulated since the start of the current day.",
			}),
			drawdownBps: prometheus.NewGauge(prometheus.GaugeOpts{
				Namespace: "searcher",
				Subsystem: "risk",
				Name:      "drawdown_bps",
				Help:      "Current daily realized loss in units of 0.0001 ETH; zero while daily PnL is non-negative.",
			}),
			winRateRatio: prometheus.NewGauge(prometheus.GaugeOpts{
				Namespace: "searcher",
				Subsystem: "risk",
				Name:      "win_rate_ratio",
				Help:      "Fraction of rolling-window bundle outcomes that succeeded.",
			}),
		}
		prometheus.MustRegister(
			riskRegistry.exposureWei,
			riskRegistry.limitHits,
			riskRegistry.realizedPnL,
			riskRegistry.drawdownBps,
			riskRegistry.winRateRatio,
		)
	})
	return riskRegistry
}

// SetExposure updates the current at-risk capital gauge for a strategy.
func (m *RiskMetrics) SetExposure(strategy string, wei *big.Int) {
	if m == nil {
		return
	}
	m.exposureWei.WithLabelValues(labelOrUnknown(strategy)).Set(bigToFloat(wei))
}

// RecordLimitExceeded increments the limit violation counter.
func (m *RiskMetrics) RecordLimitExceeded(limit string) {
	if m == nil {
		return
	}
	m.limitHits.WithLabelValues(labelOrUnknown(limit)).Inc()
}

// SetPerformance updates the realized PnL, drawdown, and win-rate gauges together.
func (m *RiskMetrics) SetPerformance(realizedPnL *big.Int, drawdownBps int, winRate float64) {
	if m == nil {
		return
	}
	m.realizedPnL.Set(bigToFloat(realizedPnL))
	m.drawdownBps.Set(float64(drawdownBps))
	m.winRateRatio.Set(winRate)
}

func labelOrUnknown(label string) string {
	trimmed := strings.TrimSpace(label)
	if trimmed == "" {
		return "unknown"
	}
	return trimmed
}

func bigToFloat(value *big.Int) float64 {
	if value == nil {
		return 0
	}
	floatVal, acc := new(big.Float).SetInt(value).Float64()
	if acc != big.Exact {
		if math.IsNaN(floatVal) || math.IsInf(floatVal, 0) {
			return 0
		}
	}
	return floatVal
}
