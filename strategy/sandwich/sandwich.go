// Package sandwich detects DEX router swaps large enough to sandwich
// profitably and constructs the surrounding frontrun/backrun bundle.
package sandwich

import (
	"context"
	"math/big"

	"github.com/ethereum/go-ethereum/common"

	"mevsearcher/bundle"
	"mevsearcher/decode"
	"mevsearcher/mempool"
	"mevsearcher/opportunity"
	"mevsearcher/searcherr"
)

var oneGwei = big.NewInt(1_000_000_000)

// Config tunes the detector's gate, sizing, and acceptance thresholds.
type Config struct {
	Routers            map[common.Address]bool
	MinVictimValueWei   *big.Int
	MaxTargetGasPriceWei *big.Int
	MinProfitWei        *big.Int
	GasPriceMultiplier  float64 // applied to victim's gas price to derive the frontrun's
	// MinSuccessProbability is the success-probability floor below which a
	// candidate frontrun is discarded; operator-tunable, defaulting to 0.3.
	MinSuccessProbability float64
}

// DefaultConfig returns the documented defaults (0.3 success-probability
// floor, 1.2x victim-gas-price frontrun multiplier).
func DefaultConfig() Config {
	return Config{
		Routers:               make(map[common.Address]bool),
		MinVictimValueWei:     big.NewInt(0),
		GasPriceMultiplier:    1.2,
		MinSuccessProbability: 0.3,
	}
}

// PoolState is the AMM reserve pair the opportunity is sized against.
type PoolState struct {
	ReserveIn  *big.Int
	ReserveOut *big.Int
}

// Detail is the sandwich-specific parameters carried in
// opportunity.Opportunity.Details.
type Detail struct {
	Router       common.Address
	VictimHash   common.Hash
	FrontrunIn   *big.Int
	FrontrunGas  *big.Int
	BackrunGas   *big.Int
	SwapPath     []common.Address
}

// Detector implements strategy.Detector for sandwich opportunities.
type Detector struct {
	cfg        Config
	poolLookup func(path []common.Address) (PoolState, bool)
}

// NewDetector constructs a Detector. poolLookup resolves a swap path's
// current AMM reserves; callers typically back it with a subgraph or
// on-chain reserve-fetching adapter.
func NewDetector(cfg Config, poolLookup func(path []common.Address) (PoolState, bool)) *Detector {
	return &Detector{cfg: cfg, poolLookup: poolLookup}
}

func (d *Detector) Name() string { return "sandwich" }

// Analyze gates the pending transaction against the router/selector/value/
// gas-price conditions, then sizes and prices a frontrun/backrun pair.
func (d *Detector) Analyze(ctx context.Context, tx mempool.PendingTransaction, fields mempool.TxFields) ([]*opportunity.Opportunity, error) {
	if fields.To == nil || !d.cfg.Routers[*fields.To] {
		return nil, nil
	}
	if fields.Value == nil || d.cfg.MinVictimValueWei != nil && fields.Value.Cmp(d.cfg.MinVictimValueWei) < 0 {
		return nil, nil
	}
	if d.cfg.MaxTargetGasPriceWei != nil && fields.GasPrice != nil && fields.GasPrice.Cmp(d.cfg.MaxTargetGasPriceWei) > 0 {
		return nil, nil
	}

	intent, err := decode.Decode(*fields.To, fields.Calldata)
	if err != nil || intent.Kind != decode.IntentSwap || intent.Swap == nil {
		return nil, nil
	}

	pool, ok := d.poolLookup(intent.Swap.Path)
	if !ok {
		return nil, nil
	}

	frontrunIn := optimalFrontrunSize(pool, intent.Swap.AmountIn)
	profit := estimateNetProfit(pool, frontrunIn, intent.Swap.AmountIn)
	if profit.Sign() <= 0 {
		return nil, nil
	}
	minProfit := d.cfg.MinProfitWei
	if minProfit != nil && profit.Cmp(minProfit) < 0 {
		return nil, nil
	}

	frontrunGas := scaledGasPrice(fields.GasPrice, d.cfg.GasPriceMultiplier)
	backrunGas := saturatingSubGwei(fields.GasPrice, oneGwei)
	halfVictim := new(big.Int).Div(fields.GasPrice, big.NewInt(2))
	if fields.GasPrice != nil && backrunGas.Cmp(halfVictim) < 0 {
		backrunGas = halfVictim
	}

	successProb := successProbability(pool, frontrunIn)
	if successProb < d.cfg.MinSuccessProbability {
		return nil, nil
	}

	opp, err := opportunity.New(
		opportunity.Sandwich,
		d.Name(),
		profit,
		350_000,
		successProb,
		0, 1, // caller is expected to re-set block bounds once current/expiry block are known; 0/1 keeps New's invariant satisfied for detection-time construction.
		Detail{
			Router:      *fields.To,
			VictimHash:  tx.Hash,
			FrontrunIn:  frontrunIn,
			FrontrunGas: frontrunGas,
			BackrunGas:  backrunGas,
			SwapPath:    intent.Swap.Path,
		},
	)
	if err != nil {
		return nil, err
	}
	return []*opportunity.Opportunity{opp}, nil
}

// Validate re-checks the profit-after-gas and probability floor at
// execution time, just before bundling.
func (d *Detector) Validate(opp *opportunity.Opportunity) bool {
	detail, ok := opp.Details.(Detail)
	if !ok {
		return false
	}
	return opp.NetOfGas(detail.FrontrunGas).Sign() > 0 && opp.Confidence >= d.cfg.MinSuccessProbability
}

// BuildBundle is a thin adapter point: the actual Transaction payloads
// (signed RLP) must be supplied by the caller, since this package has no
// access to the searcher's signing key. Strategy callers typically wrap
// this with their own transaction-crafting step before handing the result
// to bundle.NewSandwichBundle.
func (d *Detector) BuildBundle(ctx context.Context, opp *opportunity.Opportunity, targetBlock uint64) (*bundle.Bundle, error) {
	return nil, searcherr.New(searcherr.InvalidInput, "sandwich bundle construction requires signed transactions supplied by the caller")
}

// optimalFrontrunSize performs a bounded search over candidate frontrun
// sizes (1 through 100 hundredths-of-a-percent of the pool's input
// reserve), picking the size that maximizes net profit without exceeding
// 1% of the pool.
func optimalFrontrunSize(pool PoolState, victimIn *big.Int) *big.Int {
	maxIn := new(big.Int).Div(pool.ReserveIn, big.NewInt(100)) // 1% pool fraction cap
	if maxIn.Sign() <= 0 {
		return big.NewInt(0)
	}

	best := big.NewInt(0)
	bestProfit := big.NewInt(0)
	for pct := 1; pct <= 100; pct++ {
		candidate := new(big.Int).Mul(maxIn, big.NewInt(int64(pct)))
		candidate.Div(candidate, big.NewInt(100))
		profit := estimateNetProfit(pool, candidate, victimIn)
		if profit.Cmp(bestProfit) > 0 {
			bestProfit = profit
			best = candidate
		}
	}
	return best
}

// ammOut computes the constant-product AMM output for amountIn against a
// pool's reserves, applying the standard 0.3% swap fee (997/1000).
func ammOut(reserveIn, reserveOut, amountIn *big.Int) *big.Int {
	if reserveIn == nil || reserveOut == nil || amountIn == nil || amountIn.Sign() <= 0 {
		return big.NewInt(0)
	}
	amountInWithFee := new(big.Int).Mul(amountIn, big.NewInt(997))
	numerator := new(big.Int).Mul(amountInWithFee, reserveOut)
	denominator := new(big.Int).Mul(reserveIn, big.NewInt(1000))
	denominator.Add(denominator, amountInWithFee)
	if denominator.Sign() == 0 {
		return big.NewInt(0)
	}
	return numerator.Div(numerator, denominator)
}

// estimateNetProfit simulates frontrun-in -> victim-in -> backrun-out
// against the pool to estimate the searcher's profit in the output token.
func estimateNetProfit(pool PoolState, frontrunIn, victimIn *big.Int) *big.Int {
	if frontrunIn.Sign() <= 0 {
		return big.NewInt(0)
	}
	frontrunOut := ammOut(pool.ReserveIn, pool.ReserveOut, frontrunIn)

	reserveInAfterFrontrun := new(big.Int).Add(pool.ReserveIn, frontrunIn)
	reserveOutAfterFrontrun := new(big.Int).Sub(pool.ReserveOut, frontrunOut)

	victimOut := ammOut(reserveInAfterFrontrun, reserveOutAfterFrontrun, victimIn)

	reserveInAfterVictim := new(big.Int).Add(reserveInAfterFrontrun, victimIn)
	reserveOutAfterVictim := new(big.Int).Sub(reserveOutAfterFrontrun, victimOut)

	backrunOut := ammOut(reserveOutAfterVictim, reserveInAfterVictim, frontrunOut)
	return new(big.Int).Sub(backrunOut, frontrunIn)
}

func scaledGasPrice(gasPrice *big.Int, multiplier float64) *big.Int {
	if gasPrice == nil {
		return big.NewInt(0)
	}
	scaled := new(big.Float).Mul(new(big.Float).SetInt(gasPrice), big.NewFloat(multiplier))
	out, _ := scaled.Int(nil)
	return out
}

// saturatingSubGwei subtracts delta from base without going negative.
func saturatingSubGwei(base, delta *big.Int) *big.Int {
	if base == nil {
		return big.NewInt(0)
	}
	out := new(big.Int).Sub(base, delta)
	if out.Sign() < 0 {
		return big.NewInt(0)
	}
	return out
}

// successProbability estimates the chance of favorable inclusion ordering
// as a simple function of how large the frontrun is relative to the pool —
// smaller relative size means less slippage risk and a higher chance the
// backrun clears profitably even under reordering.
func successProbability(pool PoolState, frontrunIn *big.Int) float64 {
	if pool.ReserveIn == nil || pool.ReserveIn.Sign() == 0 || frontrunIn.Sign() == 0 {
		return 0
	}
	ratio := new(big.Float).Quo(new(big.Float).SetInt(frontrunIn), new(big.Float).SetInt(pool.ReserveIn))
	r, _ := ratio.Float64()
	prob := 1 - r*20 // a frontrun at the 1% pool cap (r=0.01) costs 0.2 off the baseline of 1.0
	if prob < 0 {
		prob = 0
	}
	if prob > 1 {
		prob = 1
	}
	return prob
}
