package liquidation

import (
	"math/big"
	"testing"
)

func TestEstimateProfitDeductsGasAndPremium(t *testing.T) {
	pos := Position{DebtValue: big.NewInt(1_000_000), LiquidationBonusBps: 500}
	profit := estimateProfit(pos, big.NewInt(1000), 9)

	bonus := big.NewInt(50_000)     // 1_000_000 * 500 / 10000
	premium := big.NewInt(900)      // 1_000_000 * 9 / 10000
	want := new(big.Int).Sub(bonus, big.NewInt(1000))
	want.Sub(want, premium)

	if profit.Cmp(want) != 0 {
		t.Fatalf("estimateProfit = %s, want %s", profit, want)
	}
}

func TestMinOutWithPremiumCoversFlashLoanRepayment(t *testing.T) {
	repay := big.NewInt(1_000_000)
	minOut := MinOutWithPremium(repay, 9)
	if minOut.Cmp(repay) <= 0 {
		t.Fatalf("expected min out %s to exceed repay amount %s", minOut, repay)
	}
}

func TestPriorityFeeIncreasesWithUrgencyAndCompetition(t *testing.T) {
	low := priorityFee(0, 0)
	high := priorityFee(1, 1)
	if high.Cmp(low) <= 0 {
		t.Fatalf("expected higher urgency/competition to raise priority fee: low=%s high=%s", low, high)
	}
}

func TestConfidenceForBoundedInRange(t *testing.T) {
	pos := Position{HealthFactor: 0.5}
	c := confidenceFor(pos)
	if c <= 0 || c > 1 {
		t.Fatalf("expected confidence in (0,1], got %v", c)
	}
}
