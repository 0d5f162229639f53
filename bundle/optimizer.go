package bundle

import (
	"context"
	"math/big"
	"sync"
)

// MaxOptimizationRounds bounds the optimizer's gas-price search.
const MaxOptimizationRounds = 3

// Validator scores a candidate bundle (typically by delegating to the
// simulation engine); a higher score is better. The optimizer never
// imports the simulation package directly so the two stay decoupled.
type Validator func(ctx context.Context, b *Bundle) (score float64, err error)

// Optimize repeatedly perturbs a bundle's gas price and, each round,
// accepts the perturbation only if it strictly improves the validator's
// score, stopping early once a round fails to improve on the prior best.
// It never reorders the victim transaction in a sandwich bundle out of its
// fixed middle position.
func Optimize(ctx context.Context, b *Bundle, validate Validator) (*Bundle, error) {
	bestScore, err := validate(ctx, b)
	if err != nil {
		return nil, err
	}
	best := b

	for round := 0; round < MaxOptimizationRounds; round++ {
		candidate := bumpGas(best, round)
		score, err := validate(ctx, candidate)
		if err != nil {
			return best, err
		}
		if score <= bestScore {
			break
		}
		best = candidate
		bestScore = score
		best.OptimizationRounds = round + 1
	}
	return best, nil
}

// bumpGas produces a candidate bundle with each transaction's gas price
// nudged up by a small, round-dependent percentage, leaving ordering and
// the victim transaction untouched.
func bumpGas(b *Bundle, round int) *Bundle {
	bumpPct := int64(2 * (round + 1))
	txs := make([]Transaction, len(b.Transactions))
	for i, tx := range b.Transactions {
		if tx.Label == "victim" || tx.GasPrice == nil {
			txs[i] = tx
			continue
		}
		bumped := new(big.Int).Set(tx.GasPrice)
		bumped.Mul(bumped, big.NewInt(100+bumpPct))
		bumped.Div(bumped, big.NewInt(100))
		tx.GasPrice = bumped
		txs[i] = tx
	}
	clone := *b
	clone.Transactions = txs
	return &clone
}

// GasAdvisor tracks an exponential moving average of recent base fees and
// recommends a gas price with headroom for the next block's possible
// increase.
type GasAdvisor struct {
	mu    sync.Mutex
	ema   float64
	alpha float64
	seen  bool
}

// NewGasAdvisor constructs an advisor with the given smoothing factor
// (0,1]; smaller alpha weights history more heavily. 0.2 is a reasonable
// default.
func NewGasAdvisor(alpha float64) *GasAdvisor {
	if alpha <= 0 || alpha > 1 {
		alpha = 0.2
	}
	return &GasAdvisor{alpha: alpha}
}

// Observe folds a newly seen base fee (wei) into the moving average.
func (a *GasAdvisor) Observe(baseFeeWei *big.Int) {
	if baseFeeWei == nil {
		return
	}
	v, _ := new(big.Float).SetInt(baseFeeWei).Float64()
	a.mu.Lock()
	defer a.mu.Unlock()
	if !a.seen {
		a.ema = v
		a.seen = true
		return
	}
	a.ema = a.alpha*v + (1-a.alpha)*a.ema
}

// Recommend returns the moving average with 12.5% headroom, matching the
// protocol's one-block max base-fee increase.
func (a *GasAdvisor) Recommend() *big.Int {
	a.mu.Lock()
	defer a.mu.Unlock()
	if !a.seen {
		return big.NewInt(0)
	}
	withHeadroom := a.ema * 1.125
	out, _ := big.NewFloat(withHeadroom).Int(nil)
	return out
}
