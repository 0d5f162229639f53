// Package bundle constructs ordered transaction bundles from an
// opportunity, assigns monotonically increasing nonces, and iteratively
// optimizes gas/ordering/timing before handoff to the relay submitter.
package bundle

import (
	"encoding/binary"
	"math/big"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"lukechampine.com/blake3"

	"mevsearcher/opportunity"
	"mevsearcher/searcherr"
)

// Transaction is one signed transaction within a Bundle, carrying just
// enough metadata for ordering, nonce assignment, and relay submission —
// the actual signed RLP payload is opaque to this package.
type Transaction struct {
	Raw      []byte
	Hash     common.Hash
	From     common.Address
	Nonce    uint64
	GasPrice *big.Int
	Label    string // e.g. "frontrun", "victim", "backrun", "approve", "swap"
}

// Bundle is an ordered set of transactions targeting a single block, built
// from one Opportunity.
type Bundle struct {
	ID          common.Hash
	Kind        opportunity.Kind
	Opportunity *opportunity.Opportunity
	Transactions []Transaction
	TargetBlock uint64
	CreatedAt   time.Time
	OptimizationRounds int
}

// NewSandwichBundle orders [frontrun, victim, backrun] with the victim
// transaction carried through verbatim, unmodified from the mempool.
func NewSandwichBundle(opp *opportunity.Opportunity, frontrun, victim, backrun Transaction, targetBlock uint64) (*Bundle, error) {
	return newBundle(opp, []Transaction{frontrun, victim, backrun}, targetBlock)
}

// NewArbitrageBundle orders an arbitrage path's approval and swap legs as
// given; callers are responsible for supplying them in execution order.
func NewArbitrageBundle(opp *opportunity.Opportunity, legs []Transaction, targetBlock uint64) (*Bundle, error) {
	return newBundle(opp, legs, targetBlock)
}

// NewLiquidationBundle orders a liquidation's approval/call/sell (or
// flash-loan-wrapped) steps as given.
func NewLiquidationBundle(opp *opportunity.Opportunity, steps []Transaction, targetBlock uint64) (*Bundle, error) {
	return newBundle(opp, steps, targetBlock)
}

func newBundle(opp *opportunity.Opportunity, txs []Transaction, targetBlock uint64) (*Bundle, error) {
	if len(txs) == 0 {
		return nil, searcherr.New(searcherr.InvalidInput, "bundle must contain at least one transaction")
	}
	b := &Bundle{
		Kind:         opp.Kind,
		Opportunity:  opp,
		Transactions: txs,
		TargetBlock:  targetBlock,
		CreatedAt:    time.Now(),
	}
	b.ID = b.computeID()
	return b, nil
}

// computeID derives a deterministic bundle identifier from the ordered
// transaction hashes and target block, so re-deriving the same bundle
// content (e.g. across an optimizer round with unchanged ordering) yields
// the same ID.
func (b *Bundle) computeID() common.Hash {
	hasher := blake3.New(32, nil)
	for _, tx := range b.Transactions {
		hasher.Write(tx.Hash.Bytes())
	}
	var blockBytes [8]byte
	binary.BigEndian.PutUint64(blockBytes[:], b.TargetBlock)
	hasher.Write(blockBytes[:])
	return common.BytesToHash(hasher.Sum(nil))
}

// PriorityScore ranks bundles for submission ordering when capital or relay
// slots are constrained: a base priority adjusted up by expected profit and
// down by age.
func (b *Bundle) PriorityScore(basePriority float64) float64 {
	profitEth := weiToEth(b.Opportunity.ExpectedProfit)
	ageMinutes := time.Since(b.CreatedAt).Minutes()
	return basePriority + 0.1*profitEth - 0.01*ageMinutes
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
