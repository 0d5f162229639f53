package storage

import (
	"path/filepath"
	"testing"
	"time"
)

func TestJournalNextNonceResumesAfterRestart(t *testing.T) {
	path := filepath.Join(t.TempDir(), "journal.db")

	j, err := OpenJournal(path)
	if err != nil {
		t.Fatalf("open journal: %v", err)
	}
	n, err := j.NextNonce("0xabc", 5)
	if err != nil {
		t.Fatalf("next nonce: %v", err)
	}
	if n != 5 {
		t.Fatalf("expected baseline nonce 5, got %d", n)
	}
	n, err = j.NextNonce("0xabc", 5)
	if err != nil {
		t.Fatalf("next nonce: %v", err)
	}
	if n != 6 {
		t.Fatalf("expected nonce to advance to 6, got %d", n)
	}
	if err := j.Close(); err != nil {
		t.Fatalf("close journal: %v", err)
	}

	reopened, err := OpenJournal(path)
	if err != nil {
		t.Fatalf("reopen journal: %v", err)
	}
	defer reopened.Close()

	n, err = reopened.NextNonce("0xabc", 5)
	if err != nil {
		t.Fatalf("next nonce after reopen: %v", err)
	}
	if n != 7 {
		t.Fatalf("expected nonce to resume at 7 after restart, got %d", n)
	}
}

func TestJournalBundleTracking(t *testing.T) {
	j, err := OpenJournal(filepath.Join(t.TempDir(), "journal.db"))
	if err != nil {
		t.Fatalf("open journal: %v", err)
	}
	defer j.Close()

	if err := j.TrackBundle("0xdead", 100, "pending"); err != nil {
		t.Fatalf("track bundle: %v", err)
	}
	inFlight, err := j.InFlightBundles()
	if err != nil {
		t.Fatalf("in flight bundles: %v", err)
	}
	if len(inFlight) != 1 || inFlight[0] != "0xdead" {
		t.Fatalf("unexpected in-flight bundles: %v", inFlight)
	}

	if err := j.UpdateBundleStatus("0xdead", "included"); err != nil {
		t.Fatalf("update status: %v", err)
	}
	inFlight, err = j.InFlightBundles()
	if err != nil {
		t.Fatalf("in flight bundles: %v", err)
	}
	if len(inFlight) != 0 {
		t.Fatalf("expected no in-flight bundles after resolution, got %v", inFlight)
	}
}

func TestJournalRecentlySeen(t *testing.T) {
	j, err := OpenJournal(filepath.Join(t.TempDir(), "journal.db"))
	if err != nil {
		t.Fatalf("open journal: %v", err)
	}
	defer j.Close()

	seen, err := j.RecentlySeen("user:protocol", time.Minute)
	if err != nil {
		t.Fatalf("recently seen: %v", err)
	}
	if seen {
		t.Fatalf("expected candidate not seen before MarkSeen")
	}

	if err := j.MarkSeen("user:protocol"); err != nil {
		t.Fatalf("mark seen: %v", err)
	}
	seen, err = j.RecentlySeen("user:protocol", time.Minute)
	if err != nil {
		t.Fatalf("recently seen: %v", err)
	}
	if !seen {
		t.Fatalf("expected candidate to be recently seen")
	}
}
