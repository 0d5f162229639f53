// Package chain implements the searcher's uniform read/write adapter to a
// chain node: JSON-RPC over HTTP for request/response calls and a
// WebSocket subscription client for newHeads/newPendingTransactions/logs.
package chain

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"sync/atomic"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"

	"mevsearcher/searcherr"
)

// Client wraps a chain node's JSON-RPC-over-HTTP endpoint.
type Client struct {
	url        string
	httpClient *http.Client
	nextID     atomic.Int64
}

// NewClient constructs a Client targeting the node's HTTP JSON-RPC endpoint.
func NewClient(url string, timeout time.Duration) *Client {
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &Client{
		url:        strings.TrimSpace(url),
		httpClient: &http.Client{Timeout: timeout},
	}
}

type rpcRequest struct {
	JSONRPC string        `json:"jsonrpc"`
	ID      int64         `json:"id"`
	Method  string        `json:"method"`
	Params  []interface{} `json:"params"`
}

type rpcError struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
}

type rpcResponse struct {
	JSONRPC string          `json:"jsonrpc"`
	ID      int64           `json:"id"`
	Result  json.RawMessage `json:"result"`
	Error   *rpcError       `json:"error"`
}

// Call issues a single JSON-RPC request and decodes the result into out.
func (c *Client) Call(ctx context.Context, method string, params []interface{}, out interface{}) error {
	if c == nil || c.httpClient == nil {
		return searcherr.New(searcherr.Fatal, "chain client not configured")
	}
	id := c.nextID.Add(1)
	body, err := json.Marshal(rpcRequest{JSONRPC: "2.0", ID: id, Method: method, Params: params})
	if err != nil {
		return searcherr.Wrap(searcherr.InvalidInput, "marshal rpc request", err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.url, bytes.NewReader(body))
	if err != nil {
		return searcherr.Wrap(searcherr.ConnectionError, "build rpc request", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return searcherr.Wrap(searcherr.ConnectionError, fmt.Sprintf("call %s", method), err)
	}
	defer resp.Body.Close()

	var rpcResp rpcResponse
	if err := json.NewDecoder(resp.Body).Decode(&rpcResp); err != nil {
		return searcherr.Wrap(searcherr.DecodeError, "decode rpc response", err)
	}
	if rpcResp.Error != nil {
		return searcherr.New(searcherr.ConnectionError, fmt.Sprintf("%s: rpc error %d %s", method, rpcResp.Error.Code, rpcResp.Error.Message))
	}
	if resp.StatusCode >= 300 {
		return searcherr.New(searcherr.ConnectionError, fmt.Sprintf("%s: unexpected status %d", method, resp.StatusCode))
	}
	if out == nil {
		return nil
	}
	if len(rpcResp.Result) == 0 {
		return searcherr.New(searcherr.DecodeError, fmt.Sprintf("%s: empty result", method))
	}
	return json.Unmarshal(rpcResp.Result, out)
}

// BlockNumber returns the current block height.
func (c *Client) BlockNumber(ctx context.Context) (uint64, error) {
	var raw hexutil.Uint64
	if err := c.Call(ctx, "eth_blockNumber", nil, &raw); err != nil {
		return 0, err
	}
	return uint64(raw), nil
}

// ChainID returns the node's reported chain id.
func (c *Client) ChainID(ctx context.Context) (uint64, error) {
	var raw hexutil.Uint64
	if err := c.Call(ctx, "eth_chainId", nil, &raw); err != nil {
		return 0, err
	}
	return uint64(raw), nil
}

// GasPrice returns the node's suggested legacy gas price in wei.
func (c *Client) GasPrice(ctx context.Context) (*hexutil.Big, error) {
	var raw hexutil.Big
	if err := c.Call(ctx, "eth_gasPrice", nil, &raw); err != nil {
		return nil, err
	}
	return &raw, nil
}

// TransactionCount returns the nonce (transaction count) for an address at
// the given block tag ("latest" or "pending").
func (c *Client) TransactionCount(ctx context.Context, addr common.Address, blockTag string) (uint64, error) {
	if blockTag == "" {
		blockTag = "latest"
	}
	var raw hexutil.Uint64
	if err := c.Call(ctx, "eth_getTransactionCount", []interface{}{addr.Hex(), blockTag}, &raw); err != nil {
		return 0, err
	}
	return uint64(raw), nil
}

// Balance returns the wei balance of an address at the given block tag.
func (c *Client) Balance(ctx context.Context, addr common.Address, blockTag string) (*hexutil.Big, error) {
	if blockTag == "" {
		blockTag = "latest"
	}
	var raw hexutil.Big
	if err := c.Call(ctx, "eth_getBalance", []interface{}{addr.Hex(), blockTag}, &raw); err != nil {
		return nil, err
	}
	return &raw, nil
}

// Code returns the deployed bytecode at an address, used to distinguish EOAs
// from contracts (e.g. router/flash-loan-receiver detection).
func (c *Client) Code(ctx context.Context, addr common.Address, blockTag string) ([]byte, error) {
	if blockTag == "" {
		blockTag = "latest"
	}
	var raw hexutil.Bytes
	if err := c.Call(ctx, "eth_getCode", []interface{}{addr.Hex(), blockTag}, &raw); err != nil {
		return nil, err
	}
	return raw, nil
}

// CallMsg mirrors the eth_call/eth_estimateGas parameter object.
type CallMsg struct {
	From     common.Address  `json:"from,omitempty"`
	To       *common.Address `json:"to,omitempty"`
	Gas      hexutil.Uint64  `json:"gas,omitempty"`
	GasPrice *hexutil.Big    `json:"gasPrice,omitempty"`
	Value    *hexutil.Big    `json:"value,omitempty"`
	Data     hexutil.Bytes   `json:"data,omitempty"`
}

// CallContract executes a read-only eth_call against the given block tag.
func (c *Client) CallContract(ctx context.Context, msg CallMsg, blockTag string) ([]byte, error) {
	if blockTag == "" {
		blockTag = "latest"
	}
	var raw hexutil.Bytes
	if err := c.Call(ctx, "eth_call", []interface{}{msg, blockTag}, &raw); err != nil {
		return nil, err
	}
	return raw, nil
}

// EstimateGas estimates the gas required for msg to execute without reverting.
func (c *Client) EstimateGas(ctx context.Context, msg CallMsg) (uint64, error) {
	var raw hexutil.Uint64
	if err := c.Call(ctx, "eth_estimateGas", []interface{}{msg}, &raw); err != nil {
		return 0, err
	}
	return uint64(raw), nil
}

// Block is a minimal decoded representation of eth_getBlockBy{Number,Hash}.
type Block struct {
	Number       hexutil.Uint64   `json:"number"`
	Hash         common.Hash      `json:"hash"`
	ParentHash   common.Hash      `json:"parentHash"`
	Timestamp    hexutil.Uint64   `json:"timestamp"`
	GasUsed      hexutil.Uint64   `json:"gasUsed"`
	GasLimit     hexutil.Uint64   `json:"gasLimit"`
	BaseFee      *hexutil.Big     `json:"baseFeePerGas,omitempty"`
	Transactions []common.Hash    `json:"transactions"`
}

// BlockByNumber fetches a block by its height. "latest"/"pending" are
// accepted in addition to numeric heights.
func (c *Client) BlockByNumber(ctx context.Context, blockTag string) (*Block, error) {
	var blk Block
	if err := c.Call(ctx, "eth_getBlockByNumber", []interface{}{blockTag, false}, &blk); err != nil {
		return nil, err
	}
	return &blk, nil
}

// BlockByHash fetches a block by hash.
func (c *Client) BlockByHash(ctx context.Context, hash common.Hash) (*Block, error) {
	var blk Block
	if err := c.Call(ctx, "eth_getBlockByHash", []interface{}{hash.Hex(), false}, &blk); err != nil {
		return nil, err
	}
	return &blk, nil
}

// TransactionByHash fetches a transaction (pending or mined) by hash.
func (c *Client) TransactionByHash(ctx context.Context, hash common.Hash) (json.RawMessage, error) {
	var raw json.RawMessage
	if err := c.Call(ctx, "eth_getTransactionByHash", []interface{}{hash.Hex()}, &raw); err != nil {
		return nil, err
	}
	return raw, nil
}

// Receipt is the subset of a transaction receipt the searcher inspects.
type Receipt struct {
	TransactionHash common.Hash    `json:"transactionHash"`
	BlockNumber     hexutil.Uint64 `json:"blockNumber"`
	Status          hexutil.Uint64 `json:"status"`
	GasUsed         hexutil.Uint64 `json:"gasUsed"`
}

// TransactionReceipt fetches a mined transaction's receipt.
func (c *Client) TransactionReceipt(ctx context.Context, hash common.Hash) (*Receipt, error) {
	var rec Receipt
	if err := c.Call(ctx, "eth_getTransactionReceipt", []interface{}{hash.Hex()}, &rec); err != nil {
		return nil, err
	}
	return &rec, nil
}

// FilterQuery mirrors the eth_getLogs parameter object.
type FilterQuery struct {
	FromBlock string          `json:"fromBlock,omitempty"`
	ToBlock   string          `json:"toBlock,omitempty"`
	Address   []string        `json:"address,omitempty"`
	Topics    [][]common.Hash `json:"topics,omitempty"`
}

// Log is a decoded event log entry.
type Log struct {
	Address common.Address `json:"address"`
	Topics  []common.Hash  `json:"topics"`
	Data    hexutil.Bytes  `json:"data"`
	TxHash  common.Hash    `json:"transactionHash"`
}

// GetLogs queries historical logs matching q, used by the liquidation
// detector's event-log-scanning fallback path.
func (c *Client) GetLogs(ctx context.Context, q FilterQuery) ([]Log, error) {
	var logs []Log
	if err := c.Call(ctx, "eth_getLogs", []interface{}{q}, &logs); err != nil {
		return nil, err
	}
	return logs, nil
}
