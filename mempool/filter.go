package mempool

import (
	"math/big"

	"github.com/ethereum/go-ethereum/common"
)

// TxFields is the subset of a pending transaction's fields filters can
// condition on. Extracted once per transaction by the ingestor before
// evaluating the filter set, so a filter never needs to re-parse calldata.
type TxFields struct {
	To            *common.Address
	From          common.Address
	Value         *big.Int
	GasPrice      *big.Int
	GasLimit      uint64
	Calldata      []byte
	CalldataBytes int
	Nonce         uint64
	MethodSelector [4]byte
}

// Condition is a single predicate over TxFields. A Filter is a conjunction
// (logical AND) of Conditions.
type Condition func(TxFields) bool

// Filter names a conjunction of Conditions; a FilterMatch event is emitted
// under Name whenever every Condition in Conditions holds for a transaction.
type Filter struct {
	Name       string
	Conditions []Condition
}

// Matches reports whether every condition in the filter holds for fields.
// An empty condition set matches everything.
func (f Filter) Matches(fields TxFields) bool {
	for _, cond := range f.Conditions {
		if !cond(fields) {
			return false
		}
	}
	return true
}

// FilterMatch is emitted in addition to the raw transaction event when a
// named filter's conjunction holds.
type FilterMatch struct {
	Name string
	Tx   PendingTransaction
}

// ToAddress matches transactions sent to addr.
func ToAddress(addr common.Address) Condition {
	return func(f TxFields) bool { return f.To != nil && *f.To == addr }
}

// FromAddress matches transactions sent from addr.
func FromAddress(addr common.Address) Condition {
	return func(f TxFields) bool { return f.From == addr }
}

// MinValue matches transactions carrying at least minWei.
func MinValue(minWei *big.Int) Condition {
	return func(f TxFields) bool { return f.Value != nil && f.Value.Cmp(minWei) >= 0 }
}

// MaxGasPrice matches transactions priced at or below maxWei.
func MaxGasPrice(maxWei *big.Int) Condition {
	return func(f TxFields) bool { return f.GasPrice != nil && f.GasPrice.Cmp(maxWei) <= 0 }
}

// MinGasLimit matches transactions carrying at least minGas gas limit.
func MinGasLimit(minGas uint64) Condition {
	return func(f TxFields) bool { return f.GasLimit >= minGas }
}

// MinCalldataBytes matches transactions whose calldata is at least n bytes.
func MinCalldataBytes(n int) Condition {
	return func(f TxFields) bool { return f.CalldataBytes >= n }
}

// MethodSelector matches transactions whose first 4 calldata bytes equal selector.
func MethodSelector(selector [4]byte) Condition {
	return func(f TxFields) bool { return f.MethodSelector == selector }
}
