// Package liquidation scans lending-protocol positions for an unsafe
// health factor and, when liquidating one is profitable net of gas and any
// flash-loan premium, builds the liquidation bundle.
package liquidation

import (
	"context"
	"math"
	"math/big"
	"time"

	"github.com/ethereum/go-ethereum/common"

	"mevsearcher/bundle"
	"mevsearcher/mempool"
	"mevsearcher/opportunity"
	"mevsearcher/searcherr"
)

// defaultFlashLoanPremiumBps matches Aave V3's documented 0.09% flash-loan
// premium; operator tunable via Config for protocols that charge differently.
const defaultFlashLoanPremiumBps = 9

// Protocol identifies which lending protocol a position belongs to.
type Protocol string

const (
	AaveV2    Protocol = "aave_v2"
	AaveV3    Protocol = "aave_v3"
	CompoundV3 Protocol = "compound_v3"
	MakerDAO  Protocol = "makerdao"
)

// Config tunes thresholds and the flash-loan premium assumption.
type Config struct {
	HealthFactorThreshold float64
	FlashLoanPremiumBps   int64
	MinProfitWei          *big.Int
	RecentlySeenWindow    time.Duration
}

// DefaultConfig returns the documented defaults: health factor below 1.0 is
// unsafe, Aave V3's 9bps flash-loan premium, a 10 minute re-scan cooldown.
func DefaultConfig() Config {
	return Config{
		HealthFactorThreshold: 1.0,
		FlashLoanPremiumBps:   defaultFlashLoanPremiumBps,
		MinProfitWei:          big.NewInt(0),
		RecentlySeenWindow:    10 * time.Minute,
	}
}

// Position is a borrower's account state at one protocol, as resolved by
// either the GraphQL index or the event-log scan fallback.
type Position struct {
	Protocol        Protocol
	Borrower        common.Address
	HealthFactor    float64
	CollateralAsset common.Address
	CollateralValue *big.Int
	DebtAsset       common.Address
	DebtValue       *big.Int
	LiquidationBonusBps int64
}

// seenCache is the subset of storage.Journal's recently-seen cache the
// detector needs, kept local to avoid importing storage's gorm models.
type seenCache interface {
	RecentlySeen(key string, window time.Duration) (bool, error)
	MarkSeen(key string) error
}

// positionSource resolves candidate unsafe positions, backed by a GraphQL
// index when available and an event-log scan otherwise.
type positionSource interface {
	UnsafePositions(ctx context.Context, threshold float64) ([]Position, error)
}

// Detail is the liquidation-specific parameters carried in
// opportunity.Opportunity.Details.
type Detail struct {
	Position      Position
	RepayAmount   *big.Int
	UseFlashLoan  bool
	PriorityFeeWei *big.Int
}

// Detector implements strategy.Detector for liquidation opportunities.
// Unlike sandwich/arbitrage, it is not driven by a single pending
// transaction's fields: Analyze ignores tx/fields and instead performs a
// full position scan, matching the detector interface's shape without
// needing the mempool event it's invoked on.
type Detector struct {
	cfg     Config
	source  positionSource
	seen    seenCache
	gasCost func(ctx context.Context) (*big.Int, error)
}

// NewDetector constructs a Detector.
func NewDetector(cfg Config, source positionSource, seen seenCache, gasCost func(ctx context.Context) (*big.Int, error)) *Detector {
	return &Detector{cfg: cfg, source: source, seen: seen, gasCost: gasCost}
}

func (d *Detector) Name() string { return "liquidation" }

// Analyze scans for unsafe positions, skipping any recently evaluated
// candidate, and emits an opportunity for the single best (collateral,
// debt) liquidation found.
func (d *Detector) Analyze(ctx context.Context, tx mempool.PendingTransaction, fields mempool.TxFields) ([]*opportunity.Opportunity, error) {
	positions, err := d.source.UnsafePositions(ctx, d.cfg.HealthFactorThreshold)
	if err != nil {
		return nil, err
	}

	gasCost, err := d.gasCost(ctx)
	if err != nil {
		gasCost = big.NewInt(0)
	}

	var best *Position
	var bestProfit *big.Int
	for i := range positions {
		pos := positions[i]
		key := pos.Protocol.key(pos.Borrower)
		if d.seen != nil {
			if seen, _ := d.seen.RecentlySeen(key, d.cfg.RecentlySeenWindow); seen {
				continue
			}
		}
		profit := estimateProfit(pos, gasCost, d.cfg.FlashLoanPremiumBps)
		if bestProfit == nil || profit.Cmp(bestProfit) > 0 {
			best = &pos
			bestProfit = profit
		}
	}
	if best == nil || bestProfit.Sign() <= 0 {
		return nil, nil
	}
	if d.cfg.MinProfitWei != nil && bestProfit.Cmp(d.cfg.MinProfitWei) < 0 {
		return nil, nil
	}
	if d.seen != nil {
		_ = d.seen.MarkSeen(best.Protocol.key(best.Borrower))
	}

	useFlashLoan := best.DebtValue.Cmp(big.NewInt(0)) > 0

	opp, err := opportunity.New(
		opportunity.Liquidation,
		d.Name(),
		bestProfit,
		450_000,
		confidenceFor(*best),
		0, 1,
		Detail{
			Position:     *best,
			RepayAmount:  best.DebtValue,
			UseFlashLoan: useFlashLoan,
			PriorityFeeWei: priorityFee(1, urgencyOf(*best)),
		},
	)
	if err != nil {
		return nil, err
	}
	return []*opportunity.Opportunity{opp}, nil
}

// Validate re-checks that the position is still unsafe enough to justify
// execution risk.
func (d *Detector) Validate(opp *opportunity.Opportunity) bool {
	detail, ok := opp.Details.(Detail)
	if !ok {
		return false
	}
	return detail.Position.HealthFactor < d.cfg.HealthFactorThreshold
}

// BuildBundle is a thin adapter point: signed transaction payloads must be
// supplied by the caller.
func (d *Detector) BuildBundle(ctx context.Context, opp *opportunity.Opportunity, targetBlock uint64) (*bundle.Bundle, error) {
	return nil, searcherr.New(searcherr.InvalidInput, "liquidation bundle construction requires signed transactions supplied by the caller")
}

func (p Protocol) key(borrower common.Address) string {
	return string(p) + ":" + borrower.Hex()
}

// estimateProfit computes debt_repaid * liquidation_bonus_bps / 10000,
// minus gas cost and (if a flash loan is used) the flash-loan premium on
// the repaid amount.
func estimateProfit(pos Position, gasCost *big.Int, flashLoanPremiumBps int64) *big.Int {
	if pos.DebtValue == nil {
		return big.NewInt(0)
	}
	bonus := new(big.Int).Mul(pos.DebtValue, big.NewInt(pos.LiquidationBonusBps))
	bonus.Div(bonus, big.NewInt(10000))

	premium := new(big.Int).Mul(pos.DebtValue, big.NewInt(flashLoanPremiumBps))
	premium.Div(premium, big.NewInt(10000))

	profit := new(big.Int).Sub(bonus, gasCost)
	profit.Sub(profit, premium)
	return profit
}

// MinOutWithPremium computes the minimum acceptable output of a
// flash-loan-wrapped liquidation's collateral sale: the repay amount plus
// the flash-loan premium, so the sale can never leave the bundle unable to
// close the loan.
func MinOutWithPremium(repayAmount *big.Int, flashLoanPremiumBps int64) *big.Int {
	premium := new(big.Int).Mul(repayAmount, big.NewInt(flashLoanPremiumBps))
	premium.Div(premium, big.NewInt(10000))
	return new(big.Int).Add(repayAmount, premium)
}

// priorityFee computes a competition-adjusted priority fee in gwei:
// round((1 + 0.6*urgency + 0.4*competition) * 3 gwei).
func priorityFee(competition, urgency float64) *big.Int {
	multiplier := 1 + 0.6*urgency + 0.4*competition
	gwei := math.Round(multiplier * 3)
	return new(big.Int).Mul(big.NewInt(int64(gwei)), big.NewInt(1_000_000_000))
}

// urgencyOf derives an urgency score from how far below the safety
// threshold a position's health factor has fallen.
func urgencyOf(pos Position) float64 {
	urgency := (1.0 - pos.HealthFactor)
	if urgency < 0 {
		urgency = 0
	}
	if urgency > 1 {
		urgency = 1
	}
	return urgency
}

// confidenceFor maps a position's health factor margin to a detection
// confidence, bounded to the (0,1] range New requires.
func confidenceFor(pos Position) float64 {
	c := 0.5 + urgencyOf(pos)*0.5
	if c > 1 {
		c = 1
	}
	if c <= 0 {
		c = 0.01
	}
	return c
}
