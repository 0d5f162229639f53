package risk

import (
	"math/big"
	"testing"
	"time"
)

func TestRecordOutcomeEvictsOutsideRollingWindow(t *testing.T) {
	tr := NewTracker(Limits{}, nil)

	stale := &Outcome{Strategy: "sandwich", Success: true, At: time.Now().Add(-10 * time.Minute)}
	tr.outcomes.PushBack(stale)

	tr.RecordOutcome(Outcome{Strategy: "sandwich", ProfitWei: big.NewInt(1), Success: true})

	if got := tr.outcomes.Len(); got != 1 {
		t.Fatalf("outcomes.Len() = %d, want 1 (stale entry should have been evicted)", got)
	}
}

func TestDailyPnLResetsAtCalendarBoundary(t *testing.T) {
	tr := NewTracker(Limits{}, nil)
	tr.RecordOutcome(Outcome{Strategy: "arb", ProfitWei: big.NewInt(5e18), Success: true})
	if tr.dailyPnLWei.Sign() <= 0 {
		t.Fatalf("expected positive daily PnL after first outcome")
	}

	// Force the reset boundary into the past so the next RecordOutcome call
	// sees a new calendar day and resets dailyPnLWei.
	tr.dailyResetAt = startOfDay(time.Now().Add(-48 * time.Hour))

	tr.RecordOutcome(Outcome{Strategy: "arb", ProfitWei: big.NewInt(2e18), Success: true})

	want := big.NewInt(2e18)
	if tr.dailyPnLWei.Cmp(want) != 0 {
		t.Fatalf("dailyPnLWei = %s, want %s (should have reset before folding in the new outcome)", tr.dailyPnLWei, want)
	}
}

func TestSharpeProxyZeroVarianceReturnsZero(t *testing.T) {
	tr := NewTracker(Limits{}, nil)
	for i := 0; i < 3; i++ {
		tr.RecordOutcome(Outcome{Strategy: "sandwich", ProfitWei: big.NewInt(1e18), Success: true})
	}
	if got := tr.SharpeProxy(); got != 0 {
		t.Fatalf("SharpeProxy() = %v, want 0 for identical (zero-variance) returns", got)
	}
}

func TestSharpeProxyRewardsPositiveMeanOverVariance(t *testing.T) {
	tr := NewTracker(Limits{}, nil)
	tr.RecordOutcome(Outcome{Strategy: "sandwich", ProfitWei: big.NewInt(1e18), Success: true})
	tr.RecordOutcome(Outcome{Strategy: "sandwich", ProfitWei: big.NewInt(3e18), Success: true})
	if got := tr.SharpeProxy(); got <= 0 {
		t.Fatalf("SharpeProxy() = %v, want > 0 for positive mean profit", got)
	}
}

func TestRecordOutcomeEmitsWarningOnMaxDailyLoss(t *testing.T) {
	var warnings []Warning
	tr := NewTracker(Limits{MaxDailyLossWei: big.NewInt(1e18)}, func(w Warning) {
		warnings = append(warnings, w)
	})

	tr.RecordOutcome(Outcome{Strategy: "liquidation", ProfitWei: big.NewInt(-2e18), Success: false})

	if len(warnings) == 0 {
		t.Fatalf("expected a max_daily_loss warning to be emitted")
	}
	if warnings[0].Limit != "max_daily_loss" {
		t.Fatalf("warning.Limit = %q, want %q", warnings[0].Limit, "max_daily_loss")
	}
}

func TestRecordOutcomeEmitsWarningOnMinWinRate(t *testing.T) {
	var warnings []Warning
	tr := NewTracker(Limits{MinWinRate: 0.9}, func(w Warning) {
		warnings = append(warnings, w)
	})

	for i := 0; i < 5; i++ {
		tr.RecordOutcome(Outcome{Strategy: "sandwich", ProfitWei: big.NewInt(0), Success: false})
	}

	found := false
	for _, w := range warnings {
		if w.Limit == "min_win_rate" {
			found = true
		}
	}
	if !found {
		t.Fatalf("expected a min_win_rate warning once the rolling window has enough samples")
	}
}

func TestSetExposureEmitsWarningAboveLimit(t *testing.T) {
	var warnings []Warning
	tr := NewTracker(Limits{MaxExposureWei: big.NewInt(1e18)}, func(w Warning) {
		warnings = append(warnings, w)
	})

	tr.SetExposure("sandwich", big.NewInt(2e18))

	if len(warnings) == 0 || warnings[0].Limit != "max_exposure" {
		t.Fatalf("expected a max_exposure warning, got %+v", warnings)
	}
}

type recordedOutcome struct {
	name    string
	profit  *big.Int
	success bool
}

type fakeStrategyRecorder struct {
	calls []recordedOutcome
}

func (f *fakeStrategyRecorder) RecordOutcome(name string, profitWei *big.Int, success bool) {
	f.calls = append(f.calls, recordedOutcome{name: name, profit: profitWei, success: success})
}

func TestFeedbackLoopRecordsIntoBothTrackerAndStrategy(t *testing.T) {
	tr := NewTracker(Limits{}, nil)
	fake := &fakeStrategyRecorder{}
	loop := NewFeedbackLoop(tr, fake)

	loop.Record(Outcome{Strategy: "sandwich", ProfitWei: big.NewInt(1e18), Success: true})

	if tr.outcomes.Len() != 1 {
		t.Fatalf("expected tracker to record the outcome, got %d entries", tr.outcomes.Len())
	}
	if len(fake.calls) != 1 || fake.calls[0].name != "sandwich" || !fake.calls[0].success {
		t.Fatalf("expected strategy recorder to receive the outcome, got %+v", fake.calls)
	}
}

func TestExporterFlushIsNoopWhenEmpty(t *testing.T) {
	e := NewExporter(t.TempDir(), time.Minute)
	if err := e.Flush(); err != nil {
		t.Fatalf("Flush() on empty buffer returned error: %v", err)
	}
}

func TestExporterFlushWritesParquetFile(t *testing.T) {
	dir := t.TempDir()
	e := NewExporter(dir, time.Minute)
	e.Buffer(Outcome{Strategy: "sandwich", ProfitWei: big.NewInt(1e18), Success: true, At: time.Now()})

	if err := e.Flush(); err != nil {
		t.Fatalf("Flush() returned error: %v", err)
	}
}
