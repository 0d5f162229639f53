package arbitrage

import (
	"testing"
	"time"

	"mevsearcher/priceoracle"
)

func TestNetProfitPctDeductsFees(t *testing.T) {
	buy := priceoracle.OrderBook{Ask: 100, CapturedAt: time.Now()}
	sell := priceoracle.OrderBook{Bid: 101, CapturedAt: time.Now()}
	got := netProfitPct(buy, sell, 0.001, 0.001)
	want := (101.0-100.0)/100.0 - 0.002
	if diff := got - want; diff > 1e-9 || diff < -1e-9 {
		t.Fatalf("netProfitPct = %v, want %v", got, want)
	}
}

func TestPositionSizeUSDCapsAtRiskLimit(t *testing.T) {
	buy := priceoracle.OrderBook{Ask: 100, AskSize: 1000}
	sell := priceoracle.OrderBook{Bid: 100, BidSize: 1000}
	got := positionSizeUSD(buy, sell, 500)
	if got != 500 {
		t.Fatalf("expected size capped to risk limit 500, got %v", got)
	}
}

func TestMinOutWithSlippageBelowNotional(t *testing.T) {
	minOut := minOutWithSlippage(1000, 50)
	notional := usdToWeiApprox(1000)
	if minOut.Cmp(notional) >= 0 {
		t.Fatalf("expected slippage-adjusted min out below full notional")
	}
}
