package decode

import (
	"fmt"
	"math/big"
	"os"
	"strings"
	"sync"

	gethabi "github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/crypto"
	"gopkg.in/yaml.v3"
)

// abiDocument is one entry of an on-disk manifest describing a contract
// function the static table doesn't cover. Selector is computed from
// Signature at load time rather than hand-copied into the manifest, so a
// typo'd selector can never silently diverge from the function it names.
type abiDocument struct {
	Name      string `yaml:"name"`
	Signature string `yaml:"signature"` // e.g. "swapExactETHForTokens(uint256,address[],address,uint256)"
	Kind      string `yaml:"kind"`      // "swap", "liquidation", "flash_loan"
	Protocol  string `yaml:"protocol,omitempty"`
}

type manifest struct {
	Functions []abiDocument `yaml:"functions"`
}

type abiEntry struct {
	name     string
	kind     IntentKind
	protocol string
	args     gethabi.Arguments
}

var (
	abiTableMu sync.RWMutex
	abiTable   = map[[4]byte]abiEntry{}
)

// LoadManifest reads a YAML document describing additional ABI functions and
// merges them into the process-wide loadable table, keyed by the 4-byte
// selector derived from each entry's signature. It never panics: a malformed
// signature is skipped and reported, not fatal to the rest of the manifest.
func LoadManifest(path string) error {
	raw, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("decode: read manifest %s: %w", path, err)
	}
	var doc manifest
	if err := yaml.Unmarshal(raw, &doc); err != nil {
		return fmt.Errorf("decode: parse manifest %s: %w", path, err)
	}

	abiTableMu.Lock()
	defer abiTableMu.Unlock()
	var errs []string
	for _, fn := range doc.Functions {
		entry, selector, err := buildEntry(fn)
		if err != nil {
			errs = append(errs, fmt.Sprintf("%s: %v", fn.Name, err))
			continue
		}
		abiTable[selector] = entry
	}
	if len(errs) > 0 {
		return fmt.Errorf("decode: manifest %s had %d invalid entries: %s", path, len(errs), strings.Join(errs, "; "))
	}
	return nil
}

func buildEntry(fn abiDocument) (abiEntry, [4]byte, error) {
	var zero [4]byte
	sig := strings.TrimSpace(fn.Signature)
	open := strings.Index(sig, "(")
	shut := strings.LastIndex(sig, ")")
	if open < 0 || shut <= open {
		return abiEntry{}, zero, fmt.Errorf("malformed signature %q", sig)
	}
	paramList := sig[open+1 : shut]
	args, err := parseArgTypes(paramList)
	if err != nil {
		return abiEntry{}, zero, err
	}

	selectorHash := crypto.Keccak256([]byte(sig))
	var selector [4]byte
	copy(selector[:], selectorHash[:4])

	var kind IntentKind
	switch fn.Kind {
	case "swap":
		kind = IntentSwap
	case "liquidation":
		kind = IntentLiquidation
	case "flash_loan":
		kind = IntentFlashLoan
	default:
		kind = Unknown
	}

	return abiEntry{name: fn.Name, kind: kind, protocol: fn.Protocol, args: args}, selector, nil
}

func parseArgTypes(paramList string) (gethabi.Arguments, error) {
	paramList = strings.TrimSpace(paramList)
	if paramList == "" {
		return gethabi.Arguments{}, nil
	}
	parts := strings.Split(paramList, ",")
	args := make(gethabi.Arguments, 0, len(parts))
	for _, p := range parts {
		typ, err := gethabi.NewType(strings.TrimSpace(p), "", nil)
		if err != nil {
			return nil, fmt.Errorf("type %q: %w", p, err)
		}
		args = append(args, gethabi.Argument{Type: typ})
	}
	return args, nil
}

// decodeFromABITable looks up selector in the loadable table populated by
// LoadManifest. handled reports whether the selector was recognized at all;
// when handled is true and err is non-nil the calldata failed to unpack
// against the registered signature.
func decodeFromABITable(selector [4]byte, to common.Address, calldata []byte) (DecodedIntent, bool, error) {
	abiTableMu.RLock()
	entry, ok := abiTable[selector]
	abiTableMu.RUnlock()
	if !ok {
		return DecodedIntent{}, false, nil
	}

	values, err := entry.args.Unpack(calldata[4:])
	if err != nil {
		return DecodedIntent{Kind: Unknown, MethodName: entry.name}, true,
			fmt.Errorf("decode: unpack %s: %w", entry.name, err)
	}

	switch entry.kind {
	case IntentSwap:
		return DecodedIntent{Kind: IntentSwap, MethodName: entry.name, Swap: swapFromValues(to, values)}, true, nil
	case IntentLiquidation:
		return DecodedIntent{Kind: IntentLiquidation, MethodName: entry.name, Liquidation: liquidationFromValues(entry.protocol, values)}, true, nil
	case IntentFlashLoan:
		return DecodedIntent{Kind: IntentFlashLoan, MethodName: entry.name, FlashLoan: flashLoanFromValues(values)}, true, nil
	default:
		return DecodedIntent{Kind: Unknown, MethodName: entry.name}, true, nil
	}
}

// swapFromValues makes a best-effort field assignment from positionally
// decoded values; manifests are expected to order parameters
// (amountIn, amountOutMin, path, to, deadline) to match, but a manifest that
// omits or reorders fields degrades gracefully rather than panicking.
func swapFromValues(router common.Address, values []interface{}) *SwapIntent {
	s := &SwapIntent{Router: router}
	for _, v := range values {
		if path, ok := v.([]common.Address); ok {
			s.Path = path
		}
	}
	assignBigInts(values, &s.AmountIn, &s.AmountOutMin, &s.Deadline)
	return s
}

func liquidationFromValues(protocol string, values []interface{}) *LiquidationIntent {
	l := &LiquidationIntent{Protocol: protocol}
	addrs := make([]common.Address, 0, 3)
	for _, v := range values {
		if addr, ok := v.(common.Address); ok {
			addrs = append(addrs, addr)
		}
	}
	if len(addrs) > 0 {
		l.CollateralAsset = addrs[0]
	}
	if len(addrs) > 1 {
		l.DebtAsset = addrs[1]
	}
	if len(addrs) > 2 {
		l.Borrower = addrs[2]
	}
	assignBigInts(values, &l.RepayAmount)
	return l
}

func flashLoanFromValues(values []interface{}) *FlashLoanIntent {
	f := &FlashLoanIntent{}
	addrs := make([]common.Address, 0, 2)
	for _, v := range values {
		switch val := v.(type) {
		case common.Address:
			addrs = append(addrs, val)
		case []byte:
			f.Params = val
		}
	}
	if len(addrs) > 0 {
		f.Receiver = addrs[0]
	}
	if len(addrs) > 1 {
		f.Asset = addrs[1]
	}
	assignBigInts(values, &f.Amount)
	return f
}

// assignBigInts fills dests in order from the *big.Int-typed values found
// in values, left to right. Manifests that decode fewer big integers than
// dests expects leave the remaining pointers nil rather than panicking.
func assignBigInts(values []interface{}, dests ...**big.Int) {
	i := 0
	for _, v := range values {
		if i >= len(dests) {
			return
		}
		if n, ok := v.(*big.Int); ok {
			*dests[i] = n
			i++
		}
	}
}
