// Package risk scores a reconciled protocol into one of four tiers.
package risk

import "github.com/yourorg/protocol-risk/internal/model"

// Points accumulates the additive risk score of p. Each axis is scored
// independently; unreported changes score as zero.
func Points(p model.NormalizedProtocol) int {
	points := 0

	switch {
	case p.TVL > 5e9:
	case p.TVL > 1e9:
		points++
	case p.TVL > 200e6:
		points += 2
	default:
		points += 3
	}

	change1d := model.ValueOr(p.Change1d, 0)
	switch {
	case change1d < -10:
		points += 3
	case change1d < -5:
		points += 2
	case change1d < -2:
		points++
	}

	change7d := model.ValueOr(p.Change7d, 0)
	switch {
	case change7d < -15:
		points += 2
	case change7d < -5:
		points++
	}

	if len(p.Chains) == 1 {
		points++
	}
	return points
}

// Tier maps a point total onto a risk level.
func Tier(points int) model.RiskLevel {
	switch {
	case points <= 2:
		return model.RiskLow
	case points <= 4:
		return model.RiskMedium
	case points <= 6:
		return model.RiskHigh
	default:
		return model.RiskCritical
	}
}

// Score returns the risk level of p.
func Score(p model.NormalizedProtocol) model.RiskLevel {
	return Tier(Points(p))
}

// Assessment pairs a protocol with its derived risk.
type Assessment struct {
	model.NormalizedProtocol
	Risk      model.RiskLevel `json:"risk"`
	RiskLabel string          `json:"riskLabel"`
	Points    int             `json:"riskPoints"`
}

// Assess scores every protocol, preserving order.
func Assess(protocols []model.NormalizedProtocol) []Assessment {
	out := make([]Assessment, len(protocols))
	for i, p := range protocols {
		pts := Points(p)
		level := Tier(pts)
		out[i] = Assessment{NormalizedProtocol: p, Risk: level, RiskLabel: level.String(), Points: pts}
	}
	return out
}
