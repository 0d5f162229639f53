package chain

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/ethereum/go-ethereum/common"
)

func jsonRPCServer(t *testing.T, handler func(method string, params json.RawMessage) (interface{}, *rpcError)) *httptest.Server {
	t.Helper()
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var req rpcRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			t.Fatalf("decode request: %v", err)
		}
		paramsRaw, _ := json.Marshal(req.Params)
		result, rpcErr := handler(req.Method, paramsRaw)
		resp := rpcResponse{JSONRPC: "2.0", ID: req.ID}
		if rpcErr != nil {
			resp.Error = rpcErr
		} else {
			encoded, err := json.Marshal(result)
			if err != nil {
				t.Fatalf("marshal result: %v", err)
			}
			resp.Result = encoded
		}
		_ = json.NewEncoder(w).Encode(resp)
	}))
}

func TestBlockNumber(t *testing.T) {
	server := jsonRPCServer(t, func(method string, _ json.RawMessage) (interface{}, *rpcError) {
		if method != "eth_blockNumber" {
			t.Fatalf("unexpected method: %s", method)
		}
		return "0x2a", nil
	})
	defer server.Close()

	client := NewClient(server.URL, 0)
	n, err := client.BlockNumber(context.Background())
	if err != nil {
		t.Fatalf("block number: %v", err)
	}
	if n != 42 {
		t.Fatalf("expected block 42, got %d", n)
	}
}

func TestCallPropagatesRPCError(t *testing.T) {
	server := jsonRPCServer(t, func(method string, _ json.RawMessage) (interface{}, *rpcError) {
		return nil, &rpcError{Code: -32000, Message: "execution reverted"}
	})
	defer server.Close()

	client := NewClient(server.URL, 0)
	_, err := client.GasPrice(context.Background())
	if err == nil {
		t.Fatalf("expected error")
	}
}

func TestTransactionCountUsesBlockTag(t *testing.T) {
	var capturedTag string
	server := jsonRPCServer(t, func(method string, params json.RawMessage) (interface{}, *rpcError) {
		var args []interface{}
		_ = json.Unmarshal(params, &args)
		if len(args) == 2 {
			capturedTag, _ = args[1].(string)
		}
		return "0x5", nil
	})
	defer server.Close()

	client := NewClient(server.URL, 0)
	n, err := client.TransactionCount(context.Background(), common.HexToAddress("0x1"), "pending")
	if err != nil {
		t.Fatalf("transaction count: %v", err)
	}
	if n != 5 {
		t.Fatalf("expected nonce 5, got %d", n)
	}
	if capturedTag != "pending" {
		t.Fatalf("expected pending block tag, got %s", capturedTag)
	}
}
