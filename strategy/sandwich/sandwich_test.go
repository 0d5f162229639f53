package sandwich

import (
	"math/big"
	"testing"
)

func TestAmmOutMatchesConstantProductFormula(t *testing.T) {
	reserveIn := big.NewInt(1_000_000)
	reserveOut := big.NewInt(2_000_000)
	amountIn := big.NewInt(1000)

	got := ammOut(reserveIn, reserveOut, amountIn)

	amountInWithFee := new(big.Int).Mul(amountIn, big.NewInt(997))
	want := new(big.Int).Mul(amountInWithFee, reserveOut)
	denom := new(big.Int).Mul(reserveIn, big.NewInt(1000))
	denom.Add(denom, amountInWithFee)
	want.Div(want, denom)

	if got.Cmp(want) != 0 {
		t.Fatalf("ammOut = %s, want %s", got, want)
	}
}

func TestOptimalFrontrunSizeStaysWithinPoolCap(t *testing.T) {
	pool := PoolState{ReserveIn: big.NewInt(1_000_000), ReserveOut: big.NewInt(1_000_000)}
	size := optimalFrontrunSize(pool, big.NewInt(5000))

	poolCap := new(big.Int).Div(pool.ReserveIn, big.NewInt(100))
	if size.Cmp(poolCap) > 0 {
		t.Fatalf("expected frontrun size %s to stay within 1%% pool cap %s", size, poolCap)
	}
}

func TestSaturatingSubGweiNeverGoesNegative(t *testing.T) {
	got := saturatingSubGwei(big.NewInt(500_000_000), oneGwei)
	if got.Sign() < 0 {
		t.Fatalf("expected non-negative result, got %s", got)
	}
	if got.Sign() != 0 {
		t.Fatalf("expected saturation to zero when delta exceeds base, got %s", got)
	}
}

func TestSuccessProbabilityBounded(t *testing.T) {
	pool := PoolState{ReserveIn: big.NewInt(1_000_000), ReserveOut: big.NewInt(1_000_000)}
	p := successProbability(pool, big.NewInt(10_000))
	if p < 0 || p > 1 {
		t.Fatalf("expected probability in [0,1], got %v", p)
	}
}
