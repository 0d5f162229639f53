package bundle

import (
	"github.com/ethereum/go-ethereum/common"

	"mevsearcher/searcherr"
)

// journal is the subset of storage.Journal nonce assignment needs, kept
// local so this package doesn't need to import storage's gorm models.
type journal interface {
	NextNonce(address string, baseline uint64) (uint64, error)
}

// AssignNonces walks the bundle's transactions in order and assigns each
// one sent from sender a strictly increasing nonce, seeded at baseline
// (the chain's current nonce for sender). Transactions from other senders
// (e.g. a DEX router's own internal calls never appear here, but a
// multi-signer bundle composed upstream might) are left untouched.
func (b *Bundle) AssignNonces(j journal, sender common.Address, baseline uint64) error {
	last := baseline
	first := true
	for i := range b.Transactions {
		tx := &b.Transactions[i]
		if tx.From != sender {
			continue
		}
		next, err := j.NextNonce(sender.Hex(), baseline)
		if err != nil {
			return searcherr.Wrap(searcherr.NonceError, "assign bundle nonce", err)
		}
		if !first && next <= last {
			return searcherr.New(searcherr.NonceError, "nonce assignment did not strictly increase")
		}
		tx.Nonce = next
		last = next
		first = false
	}
	return nil
}
