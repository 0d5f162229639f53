package opportunity

import (
	"math/big"
	"testing"
)

func TestNewRejectsNonPositiveProfit(t *testing.T) {
	if _, err := New(Sandwich, "sandwich-v2", big.NewInt(0), 21000, 0.5, 100, 110, nil); err == nil {
		t.Fatalf("expected error for zero expected profit")
	}
	if _, err := New(Sandwich, "sandwich-v2", big.NewInt(-1), 21000, 0.5, 100, 110, nil); err == nil {
		t.Fatalf("expected error for negative expected profit")
	}
}

func TestNewRejectsOutOfRangeConfidence(t *testing.T) {
	if _, err := New(Sandwich, "sandwich-v2", big.NewInt(1), 21000, 0, 100, 110, nil); err == nil {
		t.Fatalf("expected error for zero confidence")
	}
	if _, err := New(Sandwich, "sandwich-v2", big.NewInt(1), 21000, 1.5, 100, 110, nil); err == nil {
		t.Fatalf("expected error for confidence above 1")
	}
}

func TestNewRejectsExpiryNotAheadOfCurrentBlock(t *testing.T) {
	if _, err := New(Sandwich, "sandwich-v2", big.NewInt(1), 21000, 0.5, 100, 100, nil); err == nil {
		t.Fatalf("expected error for expiry == current block")
	}
	if _, err := New(Sandwich, "sandwich-v2", big.NewInt(1), 21000, 0.5, 100, 99, nil); err == nil {
		t.Fatalf("expected error for expiry behind current block")
	}
}

func TestLifecycleTerminalStatesRejectFurtherTransitions(t *testing.T) {
	opp, err := New(Liquidation, "liquidation-aave", big.NewInt(1), 21000, 0.9, 100, 110, nil)
	if err != nil {
		t.Fatalf("new: %v", err)
	}
	if err := opp.Transition(Validated); err != nil {
		t.Fatalf("transition to validated: %v", err)
	}
	if err := opp.Transition(Executed); err != nil {
		t.Fatalf("transition to executed: %v", err)
	}
	if err := opp.Transition(Validated); err == nil {
		t.Fatalf("expected error transitioning out of terminal state")
	}
}

func TestIsExpired(t *testing.T) {
	opp, err := New(Arbitrage, "arb-v2", big.NewInt(1), 21000, 0.5, 100, 110, nil)
	if err != nil {
		t.Fatalf("new: %v", err)
	}
	if opp.IsExpired(109) {
		t.Fatalf("should not be expired before expiry block")
	}
	if !opp.IsExpired(110) {
		t.Fatalf("should be expired at expiry block")
	}
}

func TestNetOfGas(t *testing.T) {
	opp, err := New(Sandwich, "sandwich-v2", big.NewInt(1_000_000), 50_000, 0.8, 100, 110, nil)
	if err != nil {
		t.Fatalf("new: %v", err)
	}
	net := opp.NetOfGas(big.NewInt(10))
	if net.Cmp(big.NewInt(500_000)) != 0 {
		t.Fatalf("expected 500000, got %s", net.String())
	}
}
