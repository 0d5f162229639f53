// Package decode parses pending-transaction calldata into typed intents:
// DEX swaps, lending-protocol liquidation calls, and flash loans. Unknown
// selectors always decode to Unknown rather than causing an error — the
// decoder never fabricates a meaning it can't support.
package decode

import (
	"math/big"

	"github.com/ethereum/go-ethereum/common"

	"mevsearcher/searcherr"
)

// IntentKind tags the variant carried by a DecodedIntent.
type IntentKind int

const (
	Unknown IntentKind = iota
	IntentSwap
	IntentLiquidation
	IntentFlashLoan
)

func (k IntentKind) String() string {
	switch k {
	case IntentSwap:
		return "swap"
	case IntentLiquidation:
		return "liquidation"
	case IntentFlashLoan:
		return "flash_loan"
	default:
		return "unknown"
	}
}

// SwapIntent captures a decoded DEX router swap call.
type SwapIntent struct {
	Router       common.Address
	Path         []common.Address
	AmountIn     *big.Int
	AmountOutMin *big.Int
	Deadline     *big.Int
}

// LiquidationIntent captures a decoded lending-protocol liquidation call.
type LiquidationIntent struct {
	Protocol        string
	Borrower        common.Address
	CollateralAsset common.Address
	DebtAsset       common.Address
	RepayAmount     *big.Int
}

// FlashLoanIntent captures a decoded Aave-V3-style flashLoanSimple call.
type FlashLoanIntent struct {
	Receiver common.Address
	Asset    common.Address
	Amount   *big.Int
	Params   []byte
}

// DecodedIntent is the tagged result of decoding a transaction's calldata.
// Exactly one of the typed fields is populated, selected by Kind.
type DecodedIntent struct {
	Kind        IntentKind
	MethodName  string
	Swap        *SwapIntent
	Liquidation *LiquidationIntent
	FlashLoan   *FlashLoanIntent
}

// Identify returns the well-known method name for a 4-byte selector, if any.
func Identify(selector [4]byte) (string, bool) {
	name, ok := staticSelectors[selector]
	return name, ok
}

// Decode parses calldata into a DecodedIntent. It never panics: calldata
// shorter than 4 bytes or malformed relative to a matched function
// signature yields a searcherr.DecodeError, everything else that doesn't
// match a known selector yields Unknown with no error.
func Decode(to common.Address, calldata []byte) (DecodedIntent, error) {
	if len(calldata) < 4 {
		return DecodedIntent{Kind: Unknown}, searcherr.New(searcherr.DecodeError, "calldata shorter than 4 bytes")
	}
	var selector [4]byte
	copy(selector[:], calldata[:4])

	name, ok := staticSelectors[selector]
	if !ok {
		if decoded, handled, err := decodeFromABITable(selector, to, calldata); handled {
			if err != nil {
				return decoded, searcherr.Wrap(searcherr.DecodeError, "decode "+decoded.MethodName, err)
			}
			return decoded, nil
		}
		return DecodedIntent{Kind: Unknown}, nil
	}

	decoded, err := decodeStatic(selector, name, to, calldata)
	if err != nil {
		return DecodedIntent{Kind: Unknown}, searcherr.Wrap(searcherr.DecodeError, "decode "+name, err)
	}
	return decoded, nil
}
