package simulation

import (
	"context"
	"math/big"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"

	"mevsearcher/bundle"
	"mevsearcher/chain"
)

// TraceStep is one transaction's simulated outcome within a bundle run.
type TraceStep struct {
	TxHash     common.Hash
	GasUsed    uint64
	Reverted   bool
	ReturnData []byte
}

// DetailedResult is the engine's full simulation output for one mode run.
type DetailedResult struct {
	Mode            Mode
	Success         bool
	Traces          []TraceStep
	RiskFactors     RiskFactors
	RiskLevel       Level
	SuccessRate     float64
	ValidationScore float64
	SimulatedAt     time.Time
}

// Options parameterizes a single Simulate call.
type Options struct {
	Mode        Mode
	GasPriceWei *big.Int
	RiskFactors RiskFactors // caller-supplied non-gas risk inputs (competition, market, etc); Gas is derived internally.
}

// Engine runs bundles against a chain node's eth_call/eth_estimateGas
// surface and caches successful results.
type Engine struct {
	client *chain.Client
	cache  *resultCache
}

// NewEngine constructs an Engine with the package's default cache sizing.
func NewEngine(client *chain.Client) *Engine {
	return &Engine{client: client, cache: newResultCache(defaultCacheTTL, defaultCacheMaxSize)}
}

// Simulate runs b under opts.Mode, returning a cached result if one exists
// and has not expired.
func (e *Engine) Simulate(ctx context.Context, b *bundle.Bundle, opts Options) (*DetailedResult, error) {
	key := cacheKey(b, opts.Mode, b.TargetBlock)
	if cached, ok := e.cache.get(key); ok {
		return cached, nil
	}

	var result *DetailedResult
	var err error
	switch opts.Mode {
	case Stress:
		result, err = e.simulateStress(ctx, b, opts)
	case MultiBlock:
		result, err = e.simulateMultiBlock(ctx, b, opts)
	case Fast:
		result, err = e.simulateOnce(ctx, b, "pending", opts.GasPriceWei, true, opts)
	default:
		result, err = e.simulateOnce(ctx, b, "pending", opts.GasPriceWei, false, opts)
	}
	if err != nil {
		return criticalResult(opts.Mode), err
	}
	if result.Success {
		e.cache.put(key, result)
	}
	return result, nil
}

func (e *Engine) simulateOnce(ctx context.Context, b *bundle.Bundle, blockTag string, gasPriceWei *big.Int, fast bool, opts Options) (*DetailedResult, error) {
	traces := make([]TraceStep, 0, len(b.Transactions))
	allSucceeded := true

	for _, tx := range b.Transactions {
		msg := chain.CallMsg{From: tx.From, Value: (*hexutil.Big)(big.NewInt(0))}
		if gasPriceWei != nil {
			msg.GasPrice = (*hexutil.Big)(gasPriceWei)
		}

		var gasUsed uint64
		var reverted bool
		if !fast {
			estimated, err := e.client.EstimateGas(ctx, msg)
			if err != nil {
				reverted = true
			} else {
				gasUsed = estimated
			}
		}
		returnData, err := e.client.CallContract(ctx, msg, blockTag)
		if err != nil {
			reverted = true
		}
		if reverted {
			allSucceeded = false
		}
		traces = append(traces, TraceStep{TxHash: tx.Hash, GasUsed: gasUsed, Reverted: reverted, ReturnData: returnData})
	}

	return e.assemble(opts.Mode, traces, allSucceeded, opts.RiskFactors), nil
}

func (e *Engine) simulateStress(ctx context.Context, b *bundle.Bundle, opts Options) (*DetailedResult, error) {
	successes := 0
	var last *DetailedResult
	for _, gwei := range stressGasPricesGwei {
		price := new(big.Int).Mul(big.NewInt(gwei), big.NewInt(1_000_000_000))
		result, err := e.simulateOnce(ctx, b, "pending", price, false, opts)
		if err != nil {
			return nil, err
		}
		if result.Success {
			successes++
		}
		last = result
	}
	rate := float64(successes) / float64(len(stressGasPricesGwei))
	return finalizeRate(last, Stress, rate), nil
}

func (e *Engine) simulateMultiBlock(ctx context.Context, b *bundle.Bundle, opts Options) (*DetailedResult, error) {
	successes := 0
	var last *DetailedResult
	for range multiBlockOffsets {
		result, err := e.simulateOnce(ctx, b, "pending", opts.GasPriceWei, false, opts)
		if err != nil {
			return nil, err
		}
		if result.Success {
			successes++
		}
		last = result
	}
	rate := float64(successes) / float64(len(multiBlockOffsets))
	return finalizeRate(last, MultiBlock, rate), nil
}

func (e *Engine) assemble(mode Mode, traces []TraceStep, success bool, riskIn RiskFactors) *DetailedResult {
	factors := riskIn
	factors.Gas = gasRiskFromTraces(traces)
	if !success {
		factors = criticalRiskFactors
	}
	level := factors.Aggregate()

	successRate := 0.0
	if success {
		successRate = 1.0
		if len(traces) == 0 {
			// A bundle that "succeeded" with no trace data (every mode records
			// one trace per transaction, so only a bundle with no transactions)
			// gets the engine's neutral boundary rate rather than an
			// overconfident 1.0.
			successRate = 0.5
		}
	}

	return &DetailedResult{
		Mode:            mode,
		Success:         success,
		Traces:          traces,
		RiskFactors:     factors,
		RiskLevel:       level,
		SuccessRate:     successRate,
		ValidationScore: validationScore(successRate, level),
		SimulatedAt:     time.Now(),
	}
}

func finalizeRate(last *DetailedResult, mode Mode, rate float64) *DetailedResult {
	if last == nil {
		last = criticalResult(mode)
	}
	clone := *last
	clone.Mode = mode
	clone.SuccessRate = rate
	clone.Success = rate > 0
	clone.ValidationScore = validationScore(rate, clone.RiskLevel)
	clone.SimulatedAt = time.Now()
	return &clone
}

func criticalResult(mode Mode) *DetailedResult {
	return &DetailedResult{
		Mode:            mode,
		Success:         false,
		RiskFactors:     criticalRiskFactors,
		RiskLevel:       Critical,
		SuccessRate:     0,
		ValidationScore: 0,
		SimulatedAt:     time.Now(),
	}
}

func gasRiskFromTraces(traces []TraceStep) float64 {
	reverted := 0
	for _, t := range traces {
		if t.Reverted {
			reverted++
		}
	}
	if len(traces) == 0 {
		return 0
	}
	return float64(reverted) / float64(len(traces))
}
