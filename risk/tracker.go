// Package risk tracks the searcher's rolling execution performance and
// capital exposure, emitting advisory warnings when configured absolute
// bounds are exceeded. Hard kill-switches live in the strategy manager;
// this package only observes and reports.
package risk

import (
	"container/list"
	"math"
	"math/big"
	"sync"
	"time"

	"mevsearcher/observability"
)

// Outcome is one resolved bundle's execution result, fed back into the
// rolling window and the originating strategy's own stats.
type Outcome struct {
	Strategy  string
	ProfitWei *big.Int
	Latency   time.Duration
	Success   bool
	At        time.Time
}

const rollingWindow = 5 * time.Minute

// Limits are the absolute bounds that trigger an advisory warning when
// exceeded. They never block execution; the strategy manager owns hard
// kill-switches.
type Limits struct {
	MaxExposureWei    *big.Int
	MaxDailyLossWei   *big.Int
	MinWinRate        float64
}

// Warning is emitted when a tracked metric crosses a configured Limit.
type Warning struct {
	Limit   string
	Message string
	At      time.Time
}

// Tracker accumulates rolling-window outcomes and derives performance and
// exposure metrics from them.
type Tracker struct {
	mu      sync.Mutex
	limits  Limits
	outcomes *list.List // ordered oldest-to-newest []*Outcome

	exposureWei   *big.Int
	dailyPnLWei   *big.Int
	dailyResetAt  time.Time
	scanCount     uint64
	scanWindowStart time.Time

	onWarning func(Warning)
}

// NewTracker constructs a Tracker with the given advisory limits.
func NewTracker(limits Limits, onWarning func(Warning)) *Tracker {
	now := time.Now()
	return &Tracker{
		limits:          limits,
		outcomes:        list.New(),
		exposureWei:     big.NewInt(0),
		dailyPnLWei:     big.NewInt(0),
		dailyResetAt:    startOfDay(now),
		scanWindowStart: now,
		onWarning:       onWarning,
	}
}

func startOfDay(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, t.Location())
}

// RecordScan increments the pending-transaction scan counter used for
// ScanRate.
func (t *Tracker) RecordScan() {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.scanCount++
}

// RecordOutcome folds a resolved bundle's outcome into the rolling window,
// updates exposure and daily PnL, and emits an advisory Warning if a
// configured limit was crossed.
func (t *Tracker) RecordOutcome(o Outcome) {
	t.mu.Lock()
	defer t.mu.Unlock()

	if time.Now().After(t.dailyResetAt.Add(24 * time.Hour)) {
		t.dailyPnLWei = big.NewInt(0)
		t.dailyResetAt = startOfDay(time.Now())
	}

	o.At = time.Now()
	t.outcomes.PushBack(&o)
	t.evictOld()

	if o.ProfitWei != nil {
		t.dailyPnLWei.Add(t.dailyPnLWei, o.ProfitWei)
	}

	observability.Risk().SetPerformance(t.dailyPnLWei, t.drawdownBpsLocked(), t.winRateLocked())
	t.checkLimitsLocked()
}

// SetExposure updates the current at-risk capital for strategy.
func (t *Tracker) SetExposure(strategy string, wei *big.Int) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.exposureWei = wei
	observability.Risk().SetExposure(strategy, wei)
	t.checkLimitsLocked()
}

func (t *Tracker) evictOld() {
	cutoff := time.Now().Add(-rollingWindow)
	for {
		front := t.outcomes.Front()
		if front == nil {
			return
		}
		if front.Value.(*Outcome).At.After(cutoff) {
			return
		}
		t.outcomes.Remove(front)
	}
}

// TradesPerMinute reports the rolling window's trade rate.
func (t *Tracker) TradesPerMinute() float64 {
	t.mu.Lock()
	defer t.mu.Unlock()
	return float64(t.outcomes.Len()) / rollingWindow.Minutes()
}

// SuccessRate reports the fraction of rolling-window outcomes that succeeded.
func (t *Tracker) SuccessRate() float64 {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.successRateLocked()
}

func (t *Tracker) successRateLocked() float64 {
	if t.outcomes.Len() == 0 {
		return 0
	}
	success := 0
	for e := t.outcomes.Front(); e != nil; e = e.Next() {
		if e.Value.(*Outcome).Success {
			success++
		}
	}
	return float64(success) / float64(t.outcomes.Len())
}

// AvgLatency reports the rolling window's mean bundle resolution latency.
func (t *Tracker) AvgLatency() time.Duration {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.outcomes.Len() == 0 {
		return 0
	}
	var total time.Duration
	for e := t.outcomes.Front(); e != nil; e = e.Next() {
		total += e.Value.(*Outcome).Latency
	}
	return total / time.Duration(t.outcomes.Len())
}

// ScanRate reports the mean pending-transaction scan rate per second since
// the tracker was constructed or last reset.
func (t *Tracker) ScanRate() float64 {
	t.mu.Lock()
	defer t.mu.Unlock()
	elapsed := time.Since(t.scanWindowStart).Seconds()
	if elapsed <= 0 {
		return 0
	}
	return float64(t.scanCount) / elapsed
}

// WinRate is an alias of SuccessRate kept distinct so callers reading
// performance reports see the domain term they expect.
func (t *Tracker) WinRate() float64 { return t.SuccessRate() }

func (t *Tracker) winRateLocked() float64 { return t.successRateLocked() }

// SharpeProxy is a simplified Sharpe-ratio-like measure: mean outcome
// profit (in ETH) divided by its standard deviation over the rolling
// window, with zero variance treated as zero (rather than infinite) risk-
// adjusted return.
func (t *Tracker) SharpeProxy() float64 {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.outcomes.Len() == 0 {
		return 0
	}
	var returns []float64
	for e := t.outcomes.Front(); e != nil; e = e.Next() {
		returns = append(returns, weiToEth(e.Value.(*Outcome).ProfitWei))
	}
	mean := meanOf(returns)
	std := stddevOf(returns, mean)
	if std == 0 {
		return 0
	}
	return mean / std
}

func (t *Tracker) drawdownBpsLocked() int {
	if t.dailyPnLWei.Sign() >= 0 {
		return 0
	}
	abs := new(big.Int).Abs(t.dailyPnLWei)
	f := weiToEth(abs)
	return int(f * 10000)
}

func (t *Tracker) checkLimitsLocked() {
	if t.limits.MaxExposureWei != nil && t.exposureWei.Cmp(t.limits.MaxExposureWei) > 0 {
		t.emitWarningLocked("max_exposure", "current exposure exceeds configured bound")
	}
	if t.limits.MaxDailyLossWei != nil && t.dailyPnLWei.Sign() < 0 {
		loss := new(big.Int).Abs(t.dailyPnLWei)
		if loss.Cmp(t.limits.MaxDailyLossWei) > 0 {
			t.emitWarningLocked("max_daily_loss", "daily realized loss exceeds configured bound")
		}
	}
	if t.limits.MinWinRate > 0 && t.outcomes.Len() >= 5 && t.successRateLocked() < t.limits.MinWinRate {
		t.emitWarningLocked("min_win_rate", "rolling win rate below configured floor")
	}
}

func (t *Tracker) emitWarningLocked(limit, message string) {
	observability.Risk().RecordLimitExceeded(limit)
	if t.onWarning != nil {
		t.onWarning(Warning{Limit: limit, Message: message, At: time.Now()})
	}
}

func weiToEth(wei *big.Int) float64 {
	if wei == nil {
		return 0
	}
	f := new(big.Float).SetInt(wei)
	f.Quo(f, big.NewFloat(1e18))
	out, _ := f.Float64()
	return out
}

func meanOf(values []float64) float64 {
	if len(values) == 0 {
		return 0
	}
	var sum float64
	for _, v := range values {
		sum += v
	}
	return sum / float64(len(values))
}

func stddevOf(values []float64, mean float64) float64 {
	if len(values) == 0 {
		return 0
	}
	var sumSq float64
	for _, v := range values {
		d := v - mean
		sumSq += d * d
	}
	return math.Sqrt(sumSq / float64(len(values)))
}
