package relay

import (
	"context"
	"sync"

	"mevsearcher/bundle"
	"mevsearcher/observability"
	"mevsearcher/searcherr"
)

// Status is a submitted bundle's lifecycle position.
type Status string

const (
	Submitted Status = "submitted"
	Included  Status = "included"
	Timeout   Status = "timeout"
	Rejected  Status = "rejected"
)

// SubmitResult reports the outcome of fanning a bundle out to every
// configured relay.
type SubmitResult struct {
	Status       Status
	PerRelayErrs map[string]error
}

// Submitter fans bundle submissions out to every configured relay
// concurrently using a plain sync.WaitGroup (matching the module's
// hand-rolled concurrency style elsewhere, rather than an errgroup).
type Submitter struct {
	clients []*Client
}

// NewSubmitter constructs a Submitter over one Client per relay endpoint.
func NewSubmitter(clients []*Client) *Submitter {
	return &Submitter{clients: clients}
}

// Submit sends b to every relay concurrently. A bundle with zero
// transactions short-circuits without contacting any relay. The overall
// result is Submitted as long as at least one relay accepted the bundle;
// partial relay failures are recorded per-relay but do not themselves
// fail the submission.
func (s *Submitter) Submit(ctx context.Context, b *bundle.Bundle) (SubmitResult, error) {
	if len(b.Transactions) == 0 {
		return SubmitResult{Status: Rejected}, searcherr.New(searcherr.InvalidInput, "bundle has no transactions")
	}

	errs := make(map[string]error, len(s.clients))
	var mu sync.Mutex
	var wg sync.WaitGroup
	successCount := 0

	for _, client := range s.clients {
		wg.Add(1)
		go func(c *Client) {
			defer wg.Done()
			err := c.SendBundle(ctx, b)
			mu.Lock()
			defer mu.Unlock()
			if err != nil {
				errs[c.endpoint.Name] = err
				observability.Relay().RecordRejected(c.endpoint.Name, "submit_error")
				return
			}
			successCount++
			observability.Relay().RecordSubmitted(c.endpoint.Name)
		}(client)
	}
	wg.Wait()

	if successCount == 0 {
		return SubmitResult{Status: Rejected, PerRelayErrs: errs}, searcherr.New(searcherr.RelayRejected, "every relay rejected the bundle")
	}
	return SubmitResult{Status: Submitted, PerRelayErrs: errs}, nil
}

// Cancel sends a cancellation to every configured relay concurrently.
func (s *Submitter) Cancel(ctx context.Context, targetBlock uint64, replacementUUID string) {
	var wg sync.WaitGroup
	for _, client := range s.clients {
		wg.Add(1)
		go func(c *Client) {
			defer wg.Done()
			_ = c.Cancel(ctx, targetBlock, replacementUUID)
		}(client)
	}
	wg.Wait()
}
