// Package model defines the canonical data structures shared by the normalizers,
// the reconciler, the risk engine and the read API.
package model

import (
	"fmt"
	"strings"
)

// Category is the operator-assigned classification of a tracked protocol.
type Category string

// Known protocol categories
const (
	CategoryPerps   Category = "Perps"
	CategoryLending Category = "Lending"
	CategoryDEX     Category = "DEX"
)

// ParseCategory maps a configured category name onto the closed Category set.
func ParseCategory(s string) (Category, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "perps":
		return CategoryPerps, nil
	case "lending":
		return CategoryLending, nil
	case "dex":
		return CategoryDEX, nil
	default:
		return "", fmt.Errorf("unknown protocol category %q", s)
	}
}

// TrackedProtocolConfig is a static watchlist entry. It is loaded once at
// process start and never mutated afterwards.
type TrackedProtocolConfig struct {
	// Slug is the lowercase identity used to join provider records
	Slug string `json:"slug" yaml:"slug"`

	DisplayName string   `json:"name" yaml:"name"`
	Category    Category `json:"category" yaml:"category"`
	Description string   `json:"description" yaml:"description"`
	Website     string   `json:"website,omitempty" yaml:"website"`

	// Chains is the fallback chain list used when the provider reports none
	Chains []string `json:"chains" yaml:"chains"`

	// SnapshotSpace is the governance space id, empty when the protocol
	// does not vote on Snapshot
	SnapshotSpace string `json:"snapshot_space,omitempty" yaml:"snapshot_space"`
}

// NormalizedProtocol is the reconciled per-protocol record consumed by the
// risk engine, the alert generator and the read API.
//
// Nil pointer fields mean the provider did not report the value. They are
// serialized as JSON null and must not be read as zero.
type NormalizedProtocol struct {
	Slug     string  `json:"slug"`
	Name     string  `json:"name"`
	Category string  `json:"category"`
	TVL      float64 `json:"tvl"`

	// Percentage changes, roughly in [-100, +inf)
	Change1d *float64 `json:"change_1d"`
	Change7d *float64 `json:"change_7d"`

	Chains []string `json:"chains"`
	Logo   string   `json:"logo,omitempty"`

	Fees24h    *float64 `json:"fees24h"`
	Revenue24h *float64 `json:"revenue24h"`
	Volume24h  *float64 `json:"volume24h"`
}

// TVLPoint is a single sample of a protocol's TVL history.
type TVLPoint struct {
	Date int64   `json:"date"`
	TVL  float64 `json:"tvl"`
}

// ProtocolDetail extends NormalizedProtocol with the single-protocol view.
type ProtocolDetail struct {
	NormalizedProtocol

	Description string  `json:"description"`
	URL         string  `json:"url"`
	Twitter     *string `json:"twitter"`

	// ChainTVLs holds first-class chains only; derived buckets such as
	// "Ethereum-staking" are removed by the reconciler
	ChainTVLs map[string]float64 `json:"chainTvls"`

	Fees7d     *float64 `json:"fees7d"`
	Fees30d    *float64 `json:"fees30d"`
	Revenue30d *float64 `json:"revenue30d"`

	// TVLHistory is chronological and bounded to the trailing window
	TVLHistory []TVLPoint `json:"tvlHistory"`
}

// Float returns a pointer to v. Used to build optional fields.
func Float(v float64) *float64 {
	return &v
}

// ValueOr dereferences p, returning fallback when p is nil.
func ValueOr(p *float64, fallback float64) float64 {
	if p == nil {
		return fallback
	}
	return *p
}
