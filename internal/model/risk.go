package model

import "fmt"

// RiskLevel is the ordinal risk tier of a protocol. It is always derived
// from a NormalizedProtocol and never stored.
type RiskLevel int

const (
	RiskLow      RiskLevel = 1
	RiskMedium   RiskLevel = 2
	RiskHigh     RiskLevel = 3
	RiskCritical RiskLevel = 4
)

func (l RiskLevel) String() string {
	switch l {
	case RiskLow:
		return "Low"
	case RiskMedium:
		return "Medium"
	case RiskHigh:
		return "High"
	case RiskCritical:
		return "Critical"
	default:
		return fmt.Sprintf("RiskLevel(%d)", int(l))
	}
}

// AlertKind classifies an alert.
type AlertKind string

const (
	AlertTVLDrop  AlertKind = "tvl_drop"
	AlertTVLSurge AlertKind = "tvl_surge"
	AlertFeeSpike AlertKind = "fee_spike"
	AlertInfo     AlertKind = "info"
)

// Severity of an alert. Rank orders high before medium before low.
type Severity string

const (
	SeverityHigh   Severity = "high"
	SeverityMedium Severity = "medium"
	SeverityLow    Severity = "low"
)

// Rank returns the sort rank of s, lowest first.
func (s Severity) Rank() int {
	switch s {
	case SeverityHigh:
		return 0
	case SeverityMedium:
		return 1
	default:
		return 2
	}
}

// Alert is a threshold-crossing event. Alerts are recomputed on every pass.
type Alert struct {
	ProtocolSlug string    `json:"slug"`
	ProtocolName string    `json:"protocol"`
	Kind         AlertKind `json:"type"`
	Severity     Severity  `json:"severity"`
	Message      string    `json:"message"`
}
