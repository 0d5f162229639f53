package relay

import (
	"testing"

	"github.com/ethereum/go-ethereum/common"
)

func TestContainsContiguousSubsequenceMatchesInOrderRun(t *testing.T) {
	haystack := []common.Hash{
		common.HexToHash("0x1"),
		common.HexToHash("0x2"),
		common.HexToHash("0x3"),
		common.HexToHash("0x4"),
	}
	needle := []common.Hash{common.HexToHash("0x2"), common.HexToHash("0x3")}
	if !containsContiguousSubsequence(haystack, needle) {
		t.Fatalf("expected contiguous in-order run to match")
	}
}

func TestContainsContiguousSubsequenceRejectsOutOfOrder(t *testing.T) {
	haystack := []common.Hash{
		common.HexToHash("0x1"),
		common.HexToHash("0x3"),
		common.HexToHash("0x2"),
	}
	needle := []common.Hash{common.HexToHash("0x2"), common.HexToHash("0x3")}
	if containsContiguousSubsequence(haystack, needle) {
		t.Fatalf("expected out-of-order transactions to be rejected")
	}
}

func TestContainsContiguousSubsequenceRejectsNonAdjacent(t *testing.T) {
	haystack := []common.Hash{
		common.HexToHash("0x1"),
		common.HexToHash("0x2"),
		common.HexToHash("0x9"),
		common.HexToHash("0x3"),
	}
	needle := []common.Hash{common.HexToHash("0x2"), common.HexToHash("0x3")}
	if containsContiguousSubsequence(haystack, needle) {
		t.Fatalf("expected non-adjacent transactions to be rejected")
	}
}

func TestBytesToHexRoundTripsKnownValue(t *testing.T) {
	got := bytesToHex([]byte{0xde, 0xad, 0xbe, 0xef})
	if got != "deadbeef" {
		t.Fatalf("bytesToHex = %q, want %q", got, "deadbeef")
	}
}
