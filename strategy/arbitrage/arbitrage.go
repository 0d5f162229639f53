// Package arbitrage detects cross-venue (CEX/DEX) price divergence large
// enough, net of fees, to extract as a micro-arbitrage opportunity.
package arbitrage

import (
	"context"
	"math/big"
	"time"

	"mevsearcher/bundle"
	"mevsearcher/mempool"
	"mevsearcher/opportunity"
	"mevsearcher/priceoracle"
	"mevsearcher/searcherr"
)

const maxSnapshotAge = time.Second

// Config tunes the detector's acceptance thresholds and sizing limits.
type Config struct {
	MinProfitPct      float64
	MinProfitUSD      float64
	BuyFee            float64
	SellFee           float64
	RiskPerTradeUSD   float64
	SlippageBps       int64
}

// DefaultConfig returns conservative defaults: 0.3% minimum net edge, $5
// minimum absolute profit, 10bps fee assumption on each leg.
func DefaultConfig() Config {
	return Config{
		MinProfitPct:    0.003,
		MinProfitUSD:    5,
		BuyFee:          0.001,
		SellFee:         0.001,
		RiskPerTradeUSD: 1000,
		SlippageBps:     50,
	}
}

// Detail is the arbitrage-specific parameters carried in
// opportunity.Opportunity.Details.
type Detail struct {
	BuyVenue   string
	SellVenue  string
	Symbol     string
	SizeUSD    float64
	NetPct     float64
	MinOut     *big.Int
	FlashLoan  bool
}

// snapshotSource resolves the current top-of-book for a venue/symbol pair.
type snapshotSource interface {
	Snapshot(venue, symbol string) (priceoracle.OrderBook, bool)
}

// Detector implements strategy.Detector for cross-venue micro-arbitrage.
// Like liquidation, it is not driven by the pending transaction it's
// invoked with; it scans the current snapshot set each pass.
type Detector struct {
	cfg      Config
	snapshot snapshotSource
	venues   []string
	symbols  []string
}

// NewDetector constructs a Detector scanning the given venues/symbols.
func NewDetector(cfg Config, snapshot snapshotSource, venues, symbols []string) *Detector {
	return &Detector{cfg: cfg, snapshot: snapshot, venues: venues, symbols: symbols}
}

func (d *Detector) Name() string { return "arbitrage" }

// Analyze compares every venue pair for every tracked symbol and returns an
// opportunity per profitable pair found.
func (d *Detector) Analyze(ctx context.Context, tx mempool.PendingTransaction, fields mempool.TxFields) ([]*opportunity.Opportunity, error) {
	var out []*opportunity.Opportunity
	for _, symbol := range d.symbols {
		for _, buyVenue := range d.venues {
			buyBook, ok := d.snapshot.Snapshot(buyVenue, symbol)
			if !ok || time.Since(buyBook.CapturedAt) > maxSnapshotAge {
				continue
			}
			for _, sellVenue := range d.venues {
				if sellVenue == buyVenue {
					continue
				}
				sellBook, ok := d.snapshot.Snapshot(sellVenue, symbol)
				if !ok || time.Since(sellBook.CapturedAt) > maxSnapshotAge {
					continue
				}

				netPct := netProfitPct(buyBook, sellBook, d.cfg.BuyFee, d.cfg.SellFee)
				if netPct < d.cfg.MinProfitPct {
					continue
				}

				sizeUSD := positionSizeUSD(buyBook, sellBook, d.cfg.RiskPerTradeUSD)
				profitUSD := sizeUSD * netPct
				if profitUSD < d.cfg.MinProfitUSD {
					continue
				}

				minOut := minOutWithSlippage(sizeUSD, d.cfg.SlippageBps)
				opp, err := opportunity.New(
					opportunity.MicroArbitrage,
					d.Name(),
					usdToWeiApprox(profitUSD),
					250_000,
					0.75,
					0, 1,
					Detail{
						BuyVenue:  buyVenue,
						SellVenue: sellVenue,
						Symbol:    symbol,
						SizeUSD:   sizeUSD,
						NetPct:    netPct,
						MinOut:    minOut,
					},
				)
				if err != nil {
					continue
				}
				out = append(out, opp)
			}
		}
	}
	return out, nil
}

// Validate re-checks that the edge is still above threshold.
func (d *Detector) Validate(opp *opportunity.Opportunity) bool {
	detail, ok := opp.Details.(Detail)
	if !ok {
		return false
	}
	return detail.NetPct >= d.cfg.MinProfitPct
}

// BuildBundle is a thin adapter point: signed transaction payloads must be
// supplied by the caller.
func (d *Detector) BuildBundle(ctx context.Context, opp *opportunity.Opportunity, targetBlock uint64) (*bundle.Bundle, error) {
	return nil, searcherr.New(searcherr.InvalidInput, "arbitrage bundle construction requires signed transactions supplied by the caller")
}

// netProfitPct computes (sell.bid - buy.ask)/buy.ask minus both venues'
// trading fees.
func netProfitPct(buy, sell priceoracle.OrderBook, buyFee, sellFee float64) float64 {
	if buy.Ask <= 0 {
		return 0
	}
	rawEdge := sell.Bid - buy.Ask
	return rawEdge/buy.Ask - (buyFee + sellFee)
}

// positionSizeUSD sizes the trade to the smaller of both venues' available
// size and the configured risk-per-trade cap.
func positionSizeUSD(buy, sell priceoracle.OrderBook, riskCapUSD float64) float64 {
	buyUSD := buy.AskSize * buy.Ask
	sellUSD := sell.BidSize * sell.Bid
	size := buyUSD
	if sellUSD < size {
		size = sellUSD
	}
	if riskCapUSD > 0 && riskCapUSD < size {
		size = riskCapUSD
	}
	return size
}

// minOutWithSlippage applies a slippage-bps haircut to the expected
// notional, as the minimum acceptable output for the sell leg.
func minOutWithSlippage(sizeUSD float64, slippageBps int64) *big.Int {
	haircut := sizeUSD * (1 - float64(slippageBps)/10000)
	return usdToWeiApprox(haircut)
}

// usdToWeiApprox is a rough USD->wei conversion for comparability with the
// rest of the pipeline's wei-denominated profit fields; callers needing
// exact token-denominated amounts should convert using a live price quote
// instead.
func usdToWeiApprox(usd float64) *big.Int {
	scaled := usd * 1e18
	out, _ := big.NewFloat(scaled).Int(nil)
	if out.Sign() <= 0 {
		return big.NewInt(1)
	}
	return out
}
