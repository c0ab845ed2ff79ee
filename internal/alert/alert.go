// Package alert derives threshold-crossing events from reconciled protocols.
package alert

import (
	"fmt"
	"math"
	"sort"

	"github.com/yourorg/protocol-risk/internal/model"
)

// Thresholds in percent.
const (
	drop24hThreshold     = -5.0
	drop24hHighThreshold = -10.0
	surge24hThreshold    = 10.0
	drop7dThreshold      = -10.0
	drop7dHighThreshold  = -20.0
)

// Generate evaluates every rule against every protocol and returns the
// alerts ordered high, medium, low. Alerts of equal severity keep protocol
// order. Unreported changes never fire.
func Generate(protocols []model.NormalizedProtocol) []model.Alert {
	alerts := make([]model.Alert, 0)

	for _, p := range protocols {
		if p.Change1d != nil {
			c := *p.Change1d
			if c < drop24hThreshold {
				alerts = append(alerts, newAlert(p, model.AlertTVLDrop,
					severity(c < drop24hHighThreshold),
					fmt.Sprintf("TVL dropped %.1f%% in 24h", math.Abs(c))))
			}
			if c > surge24hThreshold {
				alerts = append(alerts, newAlert(p, model.AlertTVLSurge, model.SeverityLow,
					fmt.Sprintf("TVL surged %.1f%% in 24h", c)))
			}
		}

		if p.Change7d != nil {
			c := *p.Change7d
			if c < drop7dThreshold {
				alerts = append(alerts, newAlert(p, model.AlertTVLDrop,
					severity(c < drop7dHighThreshold),
					fmt.Sprintf("TVL dropped %.1f%% in 7d", math.Abs(c))))
			}
		}
	}

	Sort(alerts)
	return alerts
}

// Sort orders alerts by severity rank, keeping the relative order of
// alerts with equal severity.
func Sort(alerts []model.Alert) {
	sort.SliceStable(alerts, func(i, j int) bool {
		return alerts[i].Severity.Rank() < alerts[j].Severity.Rank()
	})
}

// CountBySeverity tallies alerts per severity.
func CountBySeverity(alerts []model.Alert) map[model.Severity]int {
	counts := map[model.Severity]int{
		model.SeverityHigh:   0,
		model.SeverityMedium: 0,
		model.SeverityLow:    0,
	}
	for _, a := range alerts {
		counts[a.Severity]++
	}
	return counts
}

func severity(high bool) model.Severity {
	if high {
		return model.SeverityHigh
	}
	return model.SeverityMedium
}

func newAlert(p model.NormalizedProtocol, kind model.AlertKind, sev model.Severity, msg string) model.Alert {
	return model.Alert{
		ProtocolSlug: p.Slug,
		ProtocolName: p.Name,
		Kind:         kind,
		Severity:     sev,
		Message:      msg,
	}
}
