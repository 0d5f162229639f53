package main

import (
	"context"
	"math/big"

	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"

	"mevsearcher/chain"
	"mevsearcher/strategy/liquidation"
)

// getUserAccountData(address) selector — Aave V3's Pool interface. Returns
// (totalCollateralBase, totalDebtBase, availableBorrowsBase,
// currentLiquidationThreshold, ltv, healthFactor), all scaled 1e8 except
// healthFactor which is 1e18 (type(uint256).max when there is no debt).
var selectorGetUserAccountData = []byte{0xbf, 0x92, 0x85, 0x7c}

var accountDataOut = abi.Arguments{
	{Type: mustType("uint256")},
	{Type: mustType("uint256")},
	{Type: mustType("uint256")},
	{Type: mustType("uint256")},
	{Type: mustType("uint256")},
	{Type: mustType("uint256")},
}

var oneEth = new(big.Float).SetInt(big.NewInt(1_000_000_000_000_000_000))

// defaultLiquidationBonusBps is Aave V3's typical base liquidation bonus
// (5%) for major collateral assets; per-reserve bonuses vary and a full
// implementation would read them from the protocol data provider.
const defaultLiquidationBonusBps = 500

// aaveAccountScanner implements the liquidation detector's positionSource
// by polling getUserAccountData for a fixed borrower watchlist. A
// production deployment would instead subscribe to the protocol's subgraph
// or index Borrow/Supply/Repay events to discover the full borrower set;
// the watchlist keeps this wiring self-contained.
type aaveAccountScanner struct {
	client     *chain.Client
	pool       common.Address
	borrowers  []common.Address
	collateral common.Address
	debtAsset  common.Address
}

func newAaveAccountScanner(client *chain.Client, pool common.Address, borrowers []common.Address, collateral, debtAsset common.Address) *aaveAccountScanner {
	return &aaveAccountScanner{client: client, pool: pool, borrowers: borrowers, collateral: collateral, debtAsset: debtAsset}
}

// UnsafePositions implements liquidation.positionSource.
func (s *aaveAccountScanner) UnsafePositions(ctx context.Context, threshold float64) ([]liquidation.Position, error) {
	addressArgs := abi.Arguments{{Type: mustType("address")}}
	var out []liquidation.Position
	for _, borrower := range s.borrowers {
		payload, err := addressArgs.Pack(borrower)
		if err != nil {
			continue
		}
		calldata := append(append([]byte{}, selectorGetUserAccountData...), payload...)

		callCtx, cancel := context.WithTimeout(ctx, chainCallTimeout)
		raw, err := s.client.CallContract(callCtx, chain.CallMsg{To: &s.pool, Data: calldata}, "latest")
		cancel()
		if err != nil || len(raw) == 0 {
			continue
		}
		values, err := accountDataOut.UnpackValues(raw)
		if err != nil || len(values) < 6 {
			continue
		}
		totalCollateralBase, _ := values[0].(*big.Int)
		totalDebtBase, _ := values[1].(*big.Int)
		healthFactorRaw, _ := values[5].(*big.Int)
		if healthFactorRaw == nil {
			continue
		}
		healthFactor, _ := new(big.Float).Quo(new(big.Float).SetInt(healthFactorRaw), oneEth).Float64()
		if healthFactor >= threshold {
			continue
		}
		out = append(out, liquidation.Position{
			Protocol:            liquidation.AaveV3,
			Borrower:            borrower,
			HealthFactor:        healthFactor,
			CollateralAsset:     s.collateral,
			CollateralValue:     totalCollateralBase,
			DebtAsset:           s.debtAsset,
			DebtValue:           totalDebtBase,
			LiquidationBonusBps: defaultLiquidationBonusBps,
		})
	}
	return out, nil
}
