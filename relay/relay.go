// Package relay submits bundles to Flashbots-style relay endpoints and
// tracks their inclusion outcome on-chain.
package relay

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/ethereum/go-ethereum/crypto"

	"mevsearcher/bundle"
	"mevsearcher/cryptoutil"
	"mevsearcher/searcherr"
)

// Endpoint is one relay's submission target.
type Endpoint struct {
	Name string
	URL  string
}

type bundleParams struct {
	Txs             []string `json:"txs"`
	BlockNumber     string   `json:"blockNumber"`
	ReplacementUUID string   `json:"replacementUuid,omitempty"`
}

type rpcEnvelope struct {
	JSONRPC string        `json:"jsonrpc"`
	ID      int           `json:"id"`
	Method  string        `json:"method"`
	Params  []interface{} `json:"params"`
}

type rpcReply struct {
	Result json.RawMessage `json:"result"`
	Error  *struct {
		Code    int    `json:"code"`
		Message string `json:"message"`
	} `json:"error"`
}

// Client submits signed bundle envelopes to a single relay endpoint,
// authenticating with the Flashbots searcher-identity header scheme.
type Client struct {
	endpoint   Endpoint
	signingKey *cryptoutil.PrivateKey
	httpClient *http.Client
}

// NewClient constructs a Client for one relay endpoint, signing every
// request with signingKey.
func NewClient(endpoint Endpoint, signingKey *cryptoutil.PrivateKey) *Client {
	return &Client{
		endpoint:   endpoint,
		signingKey: signingKey,
		httpClient: &http.Client{Timeout: 5 * time.Second},
	}
}

// SendBundle submits b for inclusion at its target block via eth_sendBundle.
func (c *Client) SendBundle(ctx context.Context, b *bundle.Bundle) error {
	return c.call(ctx, "eth_sendBundle", bundleParamsFrom(b, ""))
}

// CallBundle dry-runs b against the relay's simulation endpoint without
// submitting it for inclusion, via eth_callBundle.
func (c *Client) CallBundle(ctx context.Context, b *bundle.Bundle) (json.RawMessage, error) {
	return c.callRaw(ctx, "eth_callBundle", bundleParamsFrom(b, ""))
}

// Cancel submits an empty-transaction-list bundle carrying the same
// replacement UUID as the original submission, which Flashbots-compatible
// relays treat as a cancellation of the in-flight bundle.
func (c *Client) Cancel(ctx context.Context, targetBlock uint64, replacementUUID string) error {
	params := bundleParams{
		Txs:             nil,
		BlockNumber:     fmt.Sprintf("0x%x", targetBlock),
		ReplacementUUID: replacementUUID,
	}
	return c.call(ctx, "eth_sendBundle", params)
}

func bundleParamsFrom(b *bundle.Bundle, replacementUUID string) bundleParams {
	txs := make([]string, len(b.Transactions))
	for i, tx := range b.Transactions {
		txs[i] = "0x" + bytesToHex(tx.Raw)
	}
	return bundleParams{
		Txs:             txs,
		BlockNumber:     fmt.Sprintf("0x%x", b.TargetBlock),
		ReplacementUUID: replacementUUID,
	}
}

func bytesToHex(b []byte) string {
	const hexDigits = "0123456789abcdef"
	out := make([]byte, len(b)*2)
	for i, v := range b {
		out[i*2] = hexDigits[v>>4]
		out[i*2+1] = hexDigits[v&0x0f]
	}
	return string(out)
}

func (c *Client) call(ctx context.Context, method string, params bundleParams) error {
	_, err := c.callRaw(ctx, method, params)
	return err
}

func (c *Client) callRaw(ctx context.Context, method string, params bundleParams) (json.RawMessage, error) {
	envelope := rpcEnvelope{JSONRPC: "2.0", ID: 1, Method: method, Params: []interface{}{params}}
	body, err := json.Marshal(envelope)
	if err != nil {
		return nil, searcherr.Wrap(searcherr.InvalidInput, "marshal bundle envelope", err)
	}

	digest := crypto.Keccak256(body)
	sig, err := c.signingKey.Sign(digest)
	if err != nil {
		return nil, searcherr.Wrap(searcherr.Fatal, "sign relay request", err)
	}
	header := fmt.Sprintf("%s:0x%s", c.signingKey.PubKey().Address().Hex(), bytesToHex(sig))

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint.URL, bytes.NewReader(body))
	if err != nil {
		return nil, searcherr.Wrap(searcherr.ConnectionError, "build relay request", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("X-Flashbots-Signature", header)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, searcherr.Wrap(searcherr.ConnectionError, fmt.Sprintf("submit to relay %s", c.endpoint.Name), err)
	}
	defer resp.Body.Close()

	var reply rpcReply
	if err := json.NewDecoder(resp.Body).Decode(&reply); err != nil {
		return nil, searcherr.Wrap(searcherr.DecodeError, "decode relay reply", err)
	}
	if reply.Error != nil {
		return nil, searcherr.New(searcherr.RelayRejected, fmt.Sprintf("%s: %s", c.endpoint.Name, reply.Error.Message))
	}
	return reply.Result, nil
}
