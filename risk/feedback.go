package risk

import "math/big"

// strategyRecorder is the subset of strategy.Manager the feedback loop
// needs, kept local so this package doesn't import strategy (which would
// otherwise import risk back for its own metrics, if it ever needed to).
type strategyRecorder interface {
	RecordOutcome(name string, profitWei *big.Int, success bool)
}

// FeedbackLoop wraps a Tracker so every recorded Outcome is also folded
// back into the strategy manager's per-strategy stats, closing the loop
// between execution results and the detector that originated them.
type FeedbackLoop struct {
	tracker *Tracker
	manager strategyRecorder
}

// NewFeedbackLoop constructs a FeedbackLoop over an existing Tracker.
func NewFeedbackLoop(tracker *Tracker, manager strategyRecorder) *FeedbackLoop {
	return &FeedbackLoop{tracker: tracker, manager: manager}
}

// Record folds o into both the rolling-window tracker and the originating
// strategy's stats.
func (f *FeedbackLoop) Record(o Outcome) {
	f.tracker.RecordOutcome(o)
	if f.manager != nil {
		f.manager.RecordOutcome(o.Strategy, o.ProfitWei, o.Success)
	}
}
