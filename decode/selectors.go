package decode

import (
	"fmt"
	"math/big"

	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"
)

// Well-known 4-byte selectors. Values must remain bit-exact: they are
// derived from Keccak-256 of the canonical function signatures.
var (
	selectorTransfer               = [4]byte{0xa9, 0x05, 0x9c, 0xbb} // transfer(address,uint256)
	selectorApprove                = [4]byte{0x09, 0x5e, 0xa7, 0xb3} // approve(address,uint256)
	selectorSwapExactTokensForTokens = [4]byte{0x38, 0xed, 0x17, 0x39}
	selectorAaveLiquidationCall     = [4]byte{0xe8, 0xed, 0xa9, 0xdf}
	selectorCompoundLiquidateBorrow = [4]byte{0x4c, 0x0b, 0x5b, 0x3e}
	selectorMakerBark               = [4]byte{0x1d, 0x26, 0x3b, 0x3c} // shared with "bite"
	selectorFlashLoanSimple          = [4]byte{0x42, 0xb0, 0xb7, 0x7c}
)

var staticSelectors = map[[4]byte]string{
	selectorTransfer:                 "transfer",
	selectorApprove:                  "approve",
	selectorSwapExactTokensForTokens: "swapExactTokensForTokens",
	selectorAaveLiquidationCall:      "liquidationCall",
	selectorCompoundLiquidateBorrow:  "liquidateBorrow",
	selectorMakerBark:                "bark",
	selectorFlashLoanSimple:          "flashLoanSimple",
}

var (
	addressTy, _ = abi.NewType("address", "", nil)
	uint256Ty, _ = abi.NewType("uint256", "", nil)
	addressArrTy, _ = abi.NewType("address[]", "", nil)
	bytesTy, _   = abi.NewType("bytes", "", nil)
	uint16Ty, _  = abi.NewType("uint16", "", nil)

	swapArgs = abi.Arguments{
		{Type: uint256Ty}, // amountIn
		{Type: uint256Ty}, // amountOutMin
		{Type: addressArrTy},
		{Type: addressTy}, // to
		{Type: uint256Ty}, // deadline
	}
	liquidationCallArgs = abi.Arguments{
		{Type: addressTy}, // collateralAsset
		{Type: addressTy}, // debtAsset
		{Type: addressTy}, // user
		{Type: uint256Ty}, // debtToCover
		{Type: abi.Type{}},
	}
	flashLoanSimpleArgs = abi.Arguments{
		{Type: addressTy}, // receiverAddress
		{Type: addressTy}, // asset
		{Type: uint256Ty}, // amount
		{Type: bytesTy},   // params
		{Type: uint16Ty},  // referralCode
	}
)

func init() {
	boolTy, _ := abi.NewType("bool", "", nil)
	liquidationCallArgs[4] = abi.Argument{Type: boolTy}
}

func decodeStatic(selector [4]byte, name string, to common.Address, calldata []byte) (DecodedIntent, error) {
	payload := calldata[4:]
	switch selector {
	case selectorSwapExactTokensForTokens:
		values, err := swapArgs.Unpack(payload)
		if err != nil {
			return DecodedIntent{}, err
		}
		amountIn, _ := values[0].(*big.Int)
		amountOutMin, _ := values[1].(*big.Int)
		path, _ := values[2].([]common.Address)
		deadline, _ := values[4].(*big.Int)
		return DecodedIntent{
			Kind:       IntentSwap,
			MethodName: name,
			Swap: &SwapIntent{
				Router:       to,
				Path:         path,
				AmountIn:     amountIn,
				AmountOutMin: amountOutMin,
				Deadline:     deadline,
			},
		}, nil

	case selectorAaveLiquidationCall:
		values, err := liquidationCallArgs.Unpack(payload)
		if err != nil {
			return DecodedIntent{}, err
		}
		collateral, _ := values[0].(common.Address)
		debtAsset, _ := values[1].(common.Address)
		borrower, _ := values[2].(common.Address)
		repay, _ := values[3].(*big.Int)
		return DecodedIntent{
			Kind:       IntentLiquidation,
			MethodName: name,
			Liquidation: &LiquidationIntent{
				Protocol:        "aave",
				Borrower:        borrower,
				CollateralAsset: collateral,
				DebtAsset:       debtAsset,
				RepayAmount:     repay,
			},
		}, nil

	case selectorCompoundLiquidateBorrow:
		// liquidateBorrow(address borrower, uint256 repayAmount, address cTokenCollateral)
		args := abi.Arguments{{Type: addressTy}, {Type: uint256Ty}, {Type: addressTy}}
		values, err := args.Unpack(payload)
		if err != nil {
			return DecodedIntent{}, err
		}
		borrower, _ := values[0].(common.Address)
		repay, _ := values[1].(*big.Int)
		collateral, _ := values[2].(common.Address)
		return DecodedIntent{
			Kind:       IntentLiquidation,
			MethodName: name,
			Liquidation: &LiquidationIntent{
				Protocol:        "compound",
				Borrower:        borrower,
				CollateralAsset: collateral,
				DebtAsset:       common.Address{},
				RepayAmount:     repay,
			},
		}, nil

	case selectorMakerBark:
		// bark(bytes32 ilk, address urn) / bite(bytes32 ilk, address urn) share a
		// selector in this static table entry — decode the urn as the borrower.
		bytes32Ty, _ := abi.NewType("bytes32", "", nil)
		args := abi.Arguments{{Type: bytes32Ty}, {Type: addressTy}}
		values, err := args.Unpack(payload)
		if err != nil {
			return DecodedIntent{}, err
		}
		urn, _ := values[1].(common.Address)
		return DecodedIntent{
			Kind:       IntentLiquidation,
			MethodName: name,
			Liquidation: &LiquidationIntent{
				Protocol: "makerdao",
				Borrower: urn,
			},
		}, nil

	case selectorFlashLoanSimple:
		values, err := flashLoanSimpleArgs.Unpack(payload)
		if err != nil {
			return DecodedIntent{}, err
		}
		receiver, _ := values[0].(common.Address)
		asset, _ := values[1].(common.Address)
		amount, _ := values[2].(*big.Int)
		params, _ := values[3].([]byte)
		return DecodedIntent{
			Kind:       IntentFlashLoan,
			MethodName: name,
			FlashLoan: &FlashLoanIntent{
				Receiver: receiver,
				Asset:    asset,
				Amount:   amount,
				Params:   params,
			},
		}, nil

	case selectorTransfer, selectorApprove:
		return DecodedIntent{Kind: Unknown, MethodName: name}, nil

	default:
		return DecodedIntent{}, fmt.Errorf("decode: no static decoder registered for %s", name)
	}
}
