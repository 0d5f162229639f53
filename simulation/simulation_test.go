package simulation

import (
	"testing"
	"time"
)

func TestRiskFactorsAggregateLevels(t *testing.T) {
	cases := []struct {
		factors RiskFactors
		want    Level
	}{
		{RiskFactors{}, Low},
		{RiskFactors{Gas: 0.4, Slippage: 0.4, Competition: 0.4, Liquidation: 0.4, Market: 0.4, Execution: 0.4, Regulatory: 0.4}, Medium},
		{RiskFactors{Gas: 0.6, Slippage: 0.6, Competition: 0.6, Liquidation: 0.6, Market: 0.6, Execution: 0.6, Regulatory: 0.6}, High},
		{RiskFactors{Gas: 1, Slippage: 1, Competition: 1, Liquidation: 1, Market: 1, Execution: 1, Regulatory: 1}, Critical},
	}
	for _, c := range cases {
		if got := c.factors.Aggregate(); got != c.want {
			t.Fatalf("Aggregate(%+v) = %s, want %s", c.factors, got, c.want)
		}
	}
}

func TestValidationScorePenalizesByLevel(t *testing.T) {
	if got := validationScore(1.0, Low); got != 1.0 {
		t.Fatalf("expected no penalty at Low risk, got %v", got)
	}
	if got := validationScore(1.0, Critical); got != 0.5 {
		t.Fatalf("expected 0.5 penalty at Critical risk, got %v", got)
	}
	if got := validationScore(0.2, Critical); got != 0 {
		t.Fatalf("expected score clamped to 0, got %v", got)
	}
}

func TestResultCacheExpiresEntries(t *testing.T) {
	c := newResultCache(1, 10)
	c.put("k", &DetailedResult{Success: true})
	time.Sleep(time.Millisecond)
	if _, ok := c.get("k"); ok {
		t.Fatalf("expected entry past its TTL to be evicted")
	}
}

func TestResultCacheEvictsLeastRecentlyUsed(t *testing.T) {
	c := newResultCache(defaultCacheTTL, 2)
	c.put("a", &DetailedResult{})
	c.put("b", &DetailedResult{})
	c.get("a") // touch a, making b the LRU entry
	c.put("c", &DetailedResult{})

	if _, ok := c.get("b"); ok {
		t.Fatalf("expected least recently used entry to be evicted")
	}
	if _, ok := c.get("a"); !ok {
		t.Fatalf("expected recently touched entry to survive eviction")
	}
	if _, ok := c.get("c"); !ok {
		t.Fatalf("expected newly inserted entry to be present")
	}
}
