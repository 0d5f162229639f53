package bundle

import (
	"context"
	"math/big"
	"testing"

	"github.com/ethereum/go-ethereum/common"

	"mevsearcher/opportunity"
)

func newTestOpportunity(t *testing.T) *opportunity.Opportunity {
	t.Helper()
	opp, err := opportunity.New(opportunity.Sandwich, "sandwich-v1", big.NewInt(1_000_000), 200_000, 0.8, 100, 105, nil)
	if err != nil {
		t.Fatalf("unexpected error constructing opportunity: %v", err)
	}
	return opp
}

func TestSandwichBundlePreservesVictimOrder(t *testing.T) {
	opp := newTestOpportunity(t)
	front := Transaction{Hash: common.HexToHash("0x1"), Label: "frontrun"}
	victim := Transaction{Hash: common.HexToHash("0x2"), Label: "victim"}
	back := Transaction{Hash: common.HexToHash("0x3"), Label: "backrun"}

	b, err := NewSandwichBundle(opp, front, victim, back, 1000)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(b.Transactions) != 3 || b.Transactions[1].Label != "victim" {
		t.Fatalf("expected victim transaction in the middle position, got %+v", b.Transactions)
	}
}

func TestBundleIDDeterministic(t *testing.T) {
	opp := newTestOpportunity(t)
	txs := []Transaction{{Hash: common.HexToHash("0x1")}, {Hash: common.HexToHash("0x2")}}
	b1, _ := NewArbitrageBundle(opp, txs, 1000)
	b2, _ := NewArbitrageBundle(opp, txs, 1000)
	if b1.ID != b2.ID {
		t.Fatalf("expected identical transactions/target block to produce the same bundle ID")
	}
}

type fakeJournal struct {
	next uint64
}

func (j *fakeJournal) NextNonce(address string, baseline uint64) (uint64, error) {
	if j.next < baseline {
		j.next = baseline
	}
	j.next++
	return j.next, nil
}

func TestAssignNoncesStrictlyIncreasing(t *testing.T) {
	opp := newTestOpportunity(t)
	sender := common.HexToAddress("0xabc")
	txs := []Transaction{
		{Hash: common.HexToHash("0x1"), From: sender},
		{Hash: common.HexToHash("0x2"), From: sender},
	}
	b, _ := NewArbitrageBundle(opp, txs, 1000)

	j := &fakeJournal{}
	if err := b.AssignNonces(j, sender, 5); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if b.Transactions[0].Nonce >= b.Transactions[1].Nonce {
		t.Fatalf("expected strictly increasing nonces, got %d then %d", b.Transactions[0].Nonce, b.Transactions[1].Nonce)
	}
}

func TestOptimizeStopsWithoutImprovement(t *testing.T) {
	opp := newTestOpportunity(t)
	txs := []Transaction{{Hash: common.HexToHash("0x1"), GasPrice: big.NewInt(10)}}
	b, _ := NewArbitrageBundle(opp, txs, 1000)

	flat := func(ctx context.Context, cand *Bundle) (float64, error) { return 1.0, nil }
	best, err := Optimize(context.Background(), b, flat)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if best.OptimizationRounds != 0 {
		t.Fatalf("expected no rounds accepted when score never improves, got %d", best.OptimizationRounds)
	}
}

func TestGasAdvisorRecommendsWithHeadroom(t *testing.T) {
	adv := NewGasAdvisor(0.5)
	adv.Observe(big.NewInt(100))
	adv.Observe(big.NewInt(100))
	rec := adv.Recommend()
	if rec.Cmp(big.NewInt(100)) <= 0 {
		t.Fatalf("expected recommendation above observed base fee with headroom, got %s", rec)
	}
}
