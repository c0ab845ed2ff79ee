// Package format renders figures for display.
package format

import (
	"math"

	"github.com/shopspring/decimal"
)

// Missing is rendered for values the provider did not report.
const Missing = "—"

var (
	billion  = decimal.NewFromInt(1_000_000_000)
	million  = decimal.NewFromInt(1_000_000)
	thousand = decimal.NewFromInt(1_000)
)

// USD renders a dollar amount with a B, M or K suffix.
func USD(v *float64) string {
	if v == nil || math.IsNaN(*v) || math.IsInf(*v, 0) {
		return Missing
	}
	d := decimal.NewFromFloat(*v)
	switch {
	case d.GreaterThanOrEqual(billion):
		return "$" + d.Div(billion).StringFixed(2) + "B"
	case d.GreaterThanOrEqual(million):
		return "$" + d.Div(million).StringFixed(2) + "M"
	case d.GreaterThanOrEqual(thousand):
		return "$" + d.Div(thousand).StringFixed(1) + "K"
	default:
		return "$" + d.StringFixed(0)
	}
}

// Percent renders a signed percentage with two decimals.
func Percent(v *float64) string {
	if v == nil || math.IsNaN(*v) || math.IsInf(*v, 0) {
		return Missing
	}
	s := decimal.NewFromFloat(*v).StringFixed(2)
	if *v >= 0 {
		s = "+" + s
	}
	return s + "%"
}

// Trend classifies a change as "up", "down" or "flat". Unreported changes
// are flat.
func Trend(v *float64) string {
	switch {
	case v == nil || *v == 0 || math.IsNaN(*v):
		return "flat"
	case *v > 0:
		return "up"
	default:
		return "down"
	}
}
