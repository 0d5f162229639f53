package simulation

// RiskFactors is the simulation engine's seven-scalar risk assessment,
// each normalized to [0,1] where 1 is maximally risky.
type RiskFactors struct {
	Gas          float64
	Slippage     float64
	Competition  float64
	Liquidation  float64
	Market       float64
	Execution    float64
	Regulatory   float64
}

// Level is the aggregated, human-facing risk tier derived from RiskFactors.
type Level string

const (
	Low      Level = "low"
	Medium   Level = "medium"
	High     Level = "high"
	Critical Level = "critical"
)

// Aggregate averages the seven factors and buckets the result into a Level.
func (f RiskFactors) Aggregate() Level {
	avg := (f.Gas + f.Slippage + f.Competition + f.Liquidation + f.Market + f.Execution + f.Regulatory) / 7
	switch {
	case avg < 0.25:
		return Low
	case avg < 0.5:
		return Medium
	case avg < 0.75:
		return High
	default:
		return Critical
	}
}

// criticalRiskFactors is the canonical all-risk result returned when a
// simulation itself fails (e.g. the node call errors), so downstream
// validation always has a well-formed risk assessment to penalize against.
var criticalRiskFactors = RiskFactors{
	Gas: 1, Slippage: 1, Competition: 1, Liquidation: 1, Market: 1, Execution: 1, Regulatory: 1,
}

// penaltyFor maps a risk Level to the validation-score deduction applied on
// top of the raw success rate.
func penaltyFor(level Level) float64 {
	switch level {
	case Low:
		return 0
	case Medium:
		return 0.1
	case High:
		return 0.3
	case Critical:
		return 0.5
	default:
		return 0.5
	}
}

// validationScore combines a raw success rate and risk level into the
// engine's single comparable score, clamped to [0,1].
func validationScore(successRate float64, level Level) float64 {
	score := successRate - penaltyFor(level)
	if score < 0 {
		score = 0
	}
	if score > 1 {
		score = 1
	}
	return score
}
