package mempool

import (
	"context"
	"strings"
	"sync"
	"time"

	"github.com/miekg/dns"
)

// PeerList is a periodically refreshed set of P2P peer enode URLs, resolved
// from an EIP-1459-style DNS discovery tree (a root TXT record pointing at
// branch records, eventually terminating at leaf enode records).
type PeerList struct {
	mu    sync.RWMutex
	peers []string
}

// Peers returns a snapshot of the currently known peer list.
func (p *PeerList) Peers() []string {
	p.mu.RLock()
	defer p.mu.RUnlock()
	out := make([]string, len(p.peers))
	copy(out, p.peers)
	return out
}

func (p *PeerList) set(peers []string) {
	p.mu.Lock()
	p.peers = peers
	p.mu.Unlock()
}

// discoveryResolver is the subset of dns.Client's behavior discovery needs,
// so tests can substitute a fake resolver instead of issuing real queries.
type discoveryResolver interface {
	Exchange(m *dns.Msg, addr string) (*dns.Msg, time.Duration, error)
}

// RunDiscovery periodically resolves the TXT tree rooted at domain against
// resolverAddr (e.g. "8.8.8.8:53") and updates list, until ctx is done.
func RunDiscovery(ctx context.Context, resolver discoveryResolver, resolverAddr, domain string, interval time.Duration, list *PeerList) {
	if interval <= 0 {
		interval = 5 * time.Minute
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	refresh := func() {
		peers, err := resolveTree(resolver, resolverAddr, domain, 0)
		if err != nil {
			return
		}
		list.set(peers)
	}
	refresh()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			refresh()
		}
	}
}

const maxDiscoveryDepth = 5

// resolveTree walks an EIP-1459 DNS discovery tree: the root TXT record
// either lists child hashes to recurse into ("enrtree-branch:") or is itself
// a leaf enode record ("enode://..."). depth bounds recursion against a
// misconfigured or adversarial tree.
func resolveTree(resolver discoveryResolver, resolverAddr, name string, depth int) ([]string, error) {
	if depth > maxDiscoveryDepth {
		return nil, nil
	}

	m := new(dns.Msg)
	m.SetQuestion(dns.Fqdn(name), dns.TypeTXT)
	resp, _, err := resolver.Exchange(m, resolverAddr)
	if err != nil {
		return nil, err
	}

	var peers []string
	for _, rr := range resp.Answer {
		txt, ok := rr.(*dns.TXT)
		if !ok {
			continue
		}
		for _, record := range txt.Txt {
			switch {
			case strings.HasPrefix(record, "enode://"):
				peers = append(peers, record)
			case strings.HasPrefix(record, "enrtree-branch:"):
				children := strings.Split(strings.TrimPrefix(record, "enrtree-branch:"), ",")
				for _, child := range children {
					child = strings.TrimSpace(child)
					if child == "" {
						continue
					}
					childPeers, err := resolveTree(resolver, resolverAddr, child+"."+name, depth+1)
					if err == nil {
						peers = append(peers, childPeers...)
					}
				}
			}
		}
	}
	return peers, nil
}
