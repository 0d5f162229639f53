// Package opportunity defines the searcher's core unit of work: a typed,
// quantified extraction opportunity that flows from a detector through
// validation into a bundle.
package opportunity

import (
	"math/big"
	"time"

	"github.com/google/uuid"

	"mevsearcher/searcherr"
)

// Kind tags the strategy family that produced an Opportunity.
type Kind string

const (
	Sandwich        Kind = "sandwich"
	Liquidation     Kind = "liquidation"
	Arbitrage       Kind = "arbitrage"
	MicroArbitrage  Kind = "micro_arbitrage"
)

// State is the lifecycle position of an Opportunity from detection through
// resolution.
type State string

const (
	Created   State = "created"
	Validated State = "validated"
	Executed  State = "executed"
	Expired   State = "expired"
	Rejected  State = "rejected"
)

// Opportunity is the core entity produced by a Detector. Exactly one of the
// Details fields in a richer strategy-owned wrapper carries the typed
// per-kind parameters; this struct holds only the fields every kind shares.
type Opportunity struct {
	ID             uuid.UUID
	Kind           Kind
	StrategyTag    string
	ExpectedProfit *big.Int
	GasEstimate    uint64
	Confidence     float64
	ExpiryBlock    uint64
	CreatedAt      time.Time
	State          State
	Details        any
}

// New constructs an Opportunity in the Created state, enforcing the
// creation-time invariants from the data model: positive expected profit,
// confidence in (0,1], and an expiry strictly ahead of the current block.
func New(kind Kind, strategyTag string, expectedProfit *big.Int, gasEstimate uint64, confidence float64, currentBlock, expiryBlock uint64, details any) (*Opportunity, error) {
	if expectedProfit == nil || expectedProfit.Sign() <= 0 {
		return nil, searcherr.New(searcherr.InvalidInput, "expected profit must be positive")
	}
	if confidence <= 0 || confidence > 1 {
		return nil, searcherr.New(searcherr.InvalidInput, "confidence must be in (0,1]")
	}
	if expiryBlock <= currentBlock {
		return nil, searcherr.New(searcherr.InvalidInput, "expiry block must be strictly ahead of current block")
	}
	return &Opportunity{
		ID:             uuid.New(),
		Kind:           kind,
		StrategyTag:    strategyTag,
		ExpectedProfit: expectedProfit,
		GasEstimate:    gasEstimate,
		Confidence:     confidence,
		ExpiryBlock:    expiryBlock,
		CreatedAt:      time.Now(),
		State:          Created,
		Details:        details,
	}, nil
}

// Transition moves the Opportunity to a new lifecycle state, rejecting
// transitions out of a terminal state (Executed, Expired, Rejected).
func (o *Opportunity) Transition(next State) error {
	switch o.State {
	case Executed, Expired, Rejected:
		return searcherr.New(searcherr.InvalidInput, "opportunity already in a terminal state")
	}
	o.State = next
	return nil
}

// IsExpired reports whether currentBlock has reached or passed ExpiryBlock.
func (o *Opportunity) IsExpired(currentBlock uint64) bool {
	return currentBlock >= o.ExpiryBlock
}

// NetOfGas returns ExpectedProfit minus the gas cost implied by GasEstimate
// at gasPriceWei, used by validation to enforce expected_profit > gas_cost.
func (o *Opportunity) NetOfGas(gasPriceWei *big.Int) *big.Int {
	gasCost := new(big.Int).Mul(new(big.Int).SetUint64(o.GasEstimate), gasPriceWei)
	return new(big.Int).Sub(o.ExpectedProfit, gasCost)
}
