package reconcile

import (
	"fmt"
	"strings"

	"github.com/yourorg/protocol-risk/internal/fetch"
	"github.com/yourorg/protocol-risk/internal/model"
	"github.com/yourorg/protocol-risk/internal/validation"
)

// HistoryWindow is the number of trailing TVL samples kept in a detail view.
const HistoryWindow = 90

// derivedBuckets are chain-TVL keys that re-count TVL already attributed
// to a chain.
var derivedBuckets = map[string]struct{}{
	"staking":        {},
	"borrowed":       {},
	"pool2":          {},
	"vesting":        {},
	"doublecounted":  {},
	"liquidstaking":  {},
	"dcandlsoverlap": {},
	"offers":         {},
	"treasury":       {},
}

// IsDerivedChainKey reports whether a chain-TVL key is a derived sub-entry
// such as "Ethereum-staking" or a bare "borrowed" bucket.
func IsDerivedChainKey(key string) bool {
	if strings.Contains(key, "-") {
		return true
	}
	_, ok := derivedBuckets[strings.ToLower(key)]
	return ok
}

// Detail builds the single-protocol view. fees and revenue may be nil when
// those summaries were unavailable. A nil raw payload yields
// model.ErrNotFound.
func Detail(slug string, raw *fetch.LlamaProtocolDetail, fees, revenue *fetch.LlamaFeesSummary) (*model.ProtocolDetail, error) {
	if raw == nil {
		return nil, fmt.Errorf("protocol %s: %w", slug, model.ErrNotFound)
	}

	d := &model.ProtocolDetail{
		NormalizedProtocol: model.NormalizedProtocol{
			Slug:     slug,
			Name:     raw.Name,
			Category: raw.Category,
			Change1d: validation.Finite(raw.Change1d),
			Change7d: validation.Finite(raw.Change7d),
			Chains:   append([]string{}, raw.Chains...),
			Logo:     raw.Logo,
		},
		Description: raw.Description,
		URL:         raw.URL,
		ChainTVLs:   make(map[string]float64),
		TVLHistory:  []model.TVLPoint{},
	}
	if d.Name == "" {
		d.Name = slug
	}
	if raw.Twitter != nil && *raw.Twitter != "" {
		handle := *raw.Twitter
		d.Twitter = &handle
	}

	for chain, tvl := range raw.CurrentChainTvls {
		if IsDerivedChainKey(chain) {
			continue
		}
		d.ChainTVLs[chain] = validation.FiniteOr(tvl, 0)
	}

	history := raw.TVL
	if len(history) > HistoryWindow {
		history = history[len(history)-HistoryWindow:]
	}
	for _, point := range history {
		d.TVLHistory = append(d.TVLHistory, model.TVLPoint{
			Date: point.Date,
			TVL:  validation.FiniteOr(point.TotalLiquidityUSD, 0),
		})
	}
	if n := len(d.TVLHistory); n > 0 {
		d.TVL = max(d.TVLHistory[n-1].TVL, 0)
	}

	if fees != nil {
		d.Fees24h = validation.Finite(fees.Total24h)
		d.Fees7d = validation.Finite(fees.Total7d)
		d.Fees30d = validation.Finite(fees.Total30d)
	}
	if revenue != nil {
		d.Revenue24h = validation.Finite(revenue.Total24h)
		d.Revenue30d = validation.Finite(revenue.Total30d)
	}
	return d, nil
}
