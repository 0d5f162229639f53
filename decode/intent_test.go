package decode

import (
	"math/big"
	"os"
	"path/filepath"
	"testing"

	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/crypto"
)

func TestDecodeRejectsShortCalldata(t *testing.T) {
	for _, calldata := range [][]byte{nil, {}, {0x01}, {0x01, 0x02, 0x03}} {
		_, err := Decode(common.Address{}, calldata)
		if err == nil {
			t.Fatalf("expected error decoding %d-byte calldata", len(calldata))
		}
	}
}

func TestDecodeUnknownSelectorYieldsUnknownNoError(t *testing.T) {
	garbage := []byte{0xde, 0xad, 0xbe, 0xef, 0x01, 0x02, 0x03}
	decoded, err := Decode(common.HexToAddress("0xaaaa"), garbage)
	if err != nil {
		t.Fatalf("unknown selector should not error: %v", err)
	}
	if decoded.Kind != Unknown {
		t.Fatalf("expected Unknown, got %v", decoded.Kind)
	}
}

func TestDecodeSwapExactTokensForTokens(t *testing.T) {
	router := common.HexToAddress("0x1111111111111111111111111111111111111111")
	tokenA := common.HexToAddress("0x2222222222222222222222222222222222222222")
	tokenB := common.HexToAddress("0x3333333333333333333333333333333333333333")
	recipient := common.HexToAddress("0x4444444444444444444444444444444444444444")

	calldata := append([]byte{}, selectorSwapExactTokensForTokens[:]...)
	packed, err := swapArgs.Pack(
		big.NewInt(1_000000),
		big.NewInt(990000),
		[]common.Address{tokenA, tokenB},
		recipient,
		big.NewInt(9999999999),
	)
	if err != nil {
		t.Fatalf("pack swap args: %v", err)
	}
	calldata = append(calldata, packed...)

	decoded, err := Decode(router, calldata)
	if err != nil {
		t.Fatalf("decode swap: %v", err)
	}
	if decoded.Kind != IntentSwap {
		t.Fatalf("expected IntentSwap, got %v", decoded.Kind)
	}
	if decoded.Swap.Router != router {
		t.Fatalf("router mismatch")
	}
	if len(decoded.Swap.Path) != 2 || decoded.Swap.Path[0] != tokenA || decoded.Swap.Path[1] != tokenB {
		t.Fatalf("path mismatch: %v", decoded.Swap.Path)
	}
	if decoded.Swap.AmountIn.Cmp(big.NewInt(1_000000)) != 0 {
		t.Fatalf("amountIn mismatch: %v", decoded.Swap.AmountIn)
	}
}

func TestDecodeAaveLiquidationCall(t *testing.T) {
	pool := common.HexToAddress("0x5555555555555555555555555555555555555555")
	collateral := common.HexToAddress("0x6666666666666666666666666666666666666666")
	debtAsset := common.HexToAddress("0x7777777777777777777777777777777777777777")
	borrower := common.HexToAddress("0x8888888888888888888888888888888888888888")

	calldata := append([]byte{}, selectorAaveLiquidationCall[:]...)
	packed, err := liquidationCallArgs.Pack(collateral, debtAsset, borrower, big.NewInt(42), false)
	if err != nil {
		t.Fatalf("pack liquidation args: %v", err)
	}
	calldata = append(calldata, packed...)

	decoded, err := Decode(pool, calldata)
	if err != nil {
		t.Fatalf("decode liquidation: %v", err)
	}
	if decoded.Kind != IntentLiquidation {
		t.Fatalf("expected IntentLiquidation, got %v", decoded.Kind)
	}
	if decoded.Liquidation.Protocol != "aave" {
		t.Fatalf("expected aave protocol, got %s", decoded.Liquidation.Protocol)
	}
	if decoded.Liquidation.Borrower != borrower {
		t.Fatalf("borrower mismatch")
	}
	if decoded.Liquidation.RepayAmount.Cmp(big.NewInt(42)) != 0 {
		t.Fatalf("repay amount mismatch")
	}
}

func TestDecodeTruncatedKnownSelectorReturnsDecodeErrorNotPanic(t *testing.T) {
	calldata := append([]byte{}, selectorAaveLiquidationCall[:]...)
	calldata = append(calldata, 0x01, 0x02, 0x03) // far too short to unpack 5 args

	defer func() {
		if r := recover(); r != nil {
			t.Fatalf("decode panicked on truncated known-selector calldata: %v", r)
		}
	}()

	decoded, err := Decode(common.Address{}, calldata)
	if err == nil {
		t.Fatalf("expected decode error for truncated payload")
	}
	if decoded.Kind != Unknown {
		t.Fatalf("expected Unknown on decode failure, got %v", decoded.Kind)
	}
}

func TestIdentifyKnownAndUnknownSelectors(t *testing.T) {
	if name, ok := Identify(selectorTransfer); !ok || name != "transfer" {
		t.Fatalf("expected transfer, got %q ok=%v", name, ok)
	}
	if _, ok := Identify([4]byte{0x00, 0x00, 0x00, 0x00}); ok {
		t.Fatalf("expected unknown selector to report not-ok")
	}
}

func TestLoadManifestRegistersNewSelectorAndDecodes(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "extra.yaml")
	manifestYAML := `
functions:
  - name: swapExactETHForTokens
    signature: "swapExactETHForTokens(uint256,address[],address,uint256)"
    kind: swap
`
	if err := os.WriteFile(path, []byte(manifestYAML), 0o644); err != nil {
		t.Fatalf("write manifest: %v", err)
	}
	if err := LoadManifest(path); err != nil {
		t.Fatalf("load manifest: %v", err)
	}

	router := common.HexToAddress("0x9999999999999999999999999999999999999999")
	tokenOut := common.HexToAddress("0xaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaa")
	recipient := common.HexToAddress("0xbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbb")

	addressTy, _ := abi.NewType("address", "", nil)
	addressArrTy, _ := abi.NewType("address[]", "", nil)
	uint256Ty, _ := abi.NewType("uint256", "", nil)
	args := abi.Arguments{
		{Type: uint256Ty},
		{Type: addressArrTy},
		{Type: addressTy},
		{Type: uint256Ty},
	}
	packed, err := args.Pack(big.NewInt(500), []common.Address{tokenOut}, recipient, big.NewInt(1))
	if err != nil {
		t.Fatalf("pack manifest args: %v", err)
	}

	sel := crypto.Keccak256([]byte("swapExactETHForTokens(uint256,address[],address,uint256)"))[:4]
	calldata := append(append([]byte{}, sel...), packed...)

	decoded, err := Decode(router, calldata)
	if err != nil {
		t.Fatalf("decode manifest-loaded swap: %v", err)
	}
	if decoded.Kind != IntentSwap {
		t.Fatalf("expected IntentSwap from manifest entry, got %v", decoded.Kind)
	}
}
