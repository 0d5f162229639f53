package simulation

// Mode selects how thoroughly a bundle is simulated before submission.
type Mode string

const (
	// Accurate runs the bundle once against the current pending state.
	Accurate Mode = "accurate"
	// Fast skips per-transaction gas estimation, trading accuracy for
	// latency on the hot path between detection and submission.
	Fast Mode = "fast"
	// Stress re-simulates across a sweep of gas prices to characterize
	// sensitivity to a competitive gas auction.
	Stress Mode = "stress"
	// MultiBlock repeats the Accurate run once per entry in
	// multiBlockOffsets and reports the fraction of runs that succeeded.
	// Every run is made against the node's pending state; the offsets are
	// not applied to the block the node simulates at.
	MultiBlock Mode = "multi_block"
)

// stressGasPricesGwei is the fixed gas-price sweep used by Stress mode.
var stressGasPricesGwei = []int64{20, 50, 100, 200}

// multiBlockOffsets sets how many runs MultiBlock mode makes (one per
// entry); the engine does not use the offset values themselves.
var multiBlockOffsets = []uint64{0, 1, 2}
