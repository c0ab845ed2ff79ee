package model

// DexVolumeEntity is the merged trading-venue volume record. Child deployments
// are folded into their parent before Dominance is derived.
type DexVolumeEntity struct {
	Slug   string   `json:"slug"`
	Name   string   `json:"name"`
	Chains []string `json:"chains"`

	Volume24h float64 `json:"volume24h"`
	Volume7d  float64 `json:"volume7d"`
	Volume30d float64 `json:"volume30d"`

	// Percentage changes are only taken from a top-level record
	Change1d *float64 `json:"change_1d"`
	Change7d *float64 `json:"change_7d"`
	Change1m *float64 `json:"change_1m"`

	// Dominance is the share of total post-merge 24h volume, in percent
	Dominance float64 `json:"dominance"`

	ChainBreakdown map[string]float64 `json:"chainBreakdown"`
}
