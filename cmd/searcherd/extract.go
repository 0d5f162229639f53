package main

import (
	"encoding/json"
	"math/big"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"

	"mevsearcher/mempool"
)

// rawPendingTx mirrors the full-transaction-object shape eth_subscribe
// returns for "newPendingTransactions" when a node supports it (and what
// eth_getTransactionByHash always returns), the common wire format across
// node providers this daemon targets.
type rawPendingTx struct {
	Hash     common.Hash     `json:"hash"`
	To       *common.Address `json:"to"`
	From     common.Address  `json:"from"`
	Value    *hexutil.Big    `json:"value"`
	GasPrice *hexutil.Big    `json:"gasPrice"`
	Gas      hexutil.Uint64  `json:"gas"`
	Input    hexutil.Bytes   `json:"input"`
	Nonce    hexutil.Uint64  `json:"nonce"`
}

// extractFields decodes a node's raw pending-transaction notification into
// the field subset the mempool's filters and strategy detectors condition
// on. A malformed payload is reported as "fields unavailable" rather than
// an error, matching FieldsExtractor's contract.
func extractFields(raw json.RawMessage) (mempool.TxFields, bool) {
	var tx rawPendingTx
	if err := json.Unmarshal(raw, &tx); err != nil {
		return mempool.TxFields{}, false
	}
	fields := mempool.TxFields{
		To:            tx.To,
		From:          tx.From,
		Value:         (*big.Int)(tx.Value),
		GasPrice:      (*big.Int)(tx.GasPrice),
		GasLimit:      uint64(tx.Gas),
		Calldata:      []byte(tx.Input),
		CalldataBytes: len(tx.Input),
		Nonce:         uint64(tx.Nonce),
	}
	if len(tx.Input) >= 4 {
		copy(fields.MethodSelector[:], tx.Input[:4])
	}
	return fields, true
}
