// Package reconcile joins provider fragments into canonical protocol records.
// It is the only place where fragments from different providers meet.
package reconcile

import (
	"sort"

	"github.com/yourorg/protocol-risk/internal/model"
	"github.com/yourorg/protocol-risk/internal/normalize"
)

// Watchlist builds one record per tracked protocol, in roster order. A
// protocol the TVL provider does not know is still emitted with zero TVL and
// nil optional fields. Provider chains fall back to the configured chains.
func Watchlist(
	configs []model.TrackedProtocolConfig,
	protocols normalize.ProtocolIndex,
	fees normalize.FeeIndex,
	dex []model.DexVolumeEntity,
) ([]model.NormalizedProtocol, error) {
	if len(configs) == 0 {
		return nil, model.ErrEmptyWatchlist
	}

	volumes := make(map[string]float64, len(dex))
	for _, d := range dex {
		volumes[d.Slug] = d.Volume24h
	}

	out := make([]model.NormalizedProtocol, 0, len(configs))
	for _, cfg := range configs {
		p := model.NormalizedProtocol{
			Slug:     cfg.Slug,
			Name:     cfg.DisplayName,
			Category: string(cfg.Category),
		}

		if frag, ok := protocols.Resolve(cfg.Slug); ok {
			p.TVL = nonNegative(frag.TVL)
			p.Change1d = frag.Change1d
			p.Change7d = frag.Change7d
			p.Chains = append([]string(nil), frag.Chains...)
			p.Logo = frag.Logo
		}
		if len(p.Chains) == 0 {
			p.Chains = append([]string{}, cfg.Chains...)
		}

		if fee, ok := fees[cfg.Slug]; ok {
			p.Fees24h = fee.Fees24h
			p.Revenue24h = fee.Revenue24h
		}
		if v, ok := volumes[cfg.Slug]; ok {
			p.Volume24h = model.Float(v)
		}

		out = append(out, p)
	}
	return out, nil
}

// Top returns the n largest top-level protocols by TVL. Child deployments,
// records without TVL and records without a slug are skipped. Ties keep
// provider order. n <= 0 returns every eligible record.
func Top(protocols normalize.ProtocolIndex, fees normalize.FeeIndex, n int) []model.NormalizedProtocol {
	candidates := make([]normalize.ProtocolFragment, 0, len(protocols.Records))
	for _, frag := range protocols.Records {
		if frag.Parent != "" || frag.Slug == "" || frag.TVL == nil || *frag.TVL <= 0 {
			continue
		}
		candidates = append(candidates, frag)
	}

	sort.SliceStable(candidates, func(i, j int) bool {
		return *candidates[i].TVL > *candidates[j].TVL
	})
	if n > 0 && len(candidates) > n {
		candidates = candidates[:n]
	}

	out := make([]model.NormalizedProtocol, 0, len(candidates))
	for _, frag := range candidates {
		p := model.NormalizedProtocol{
			Slug:     frag.Slug,
			Name:     frag.Name,
			Category: frag.Category,
			TVL:      *frag.TVL,
			Change1d: frag.Change1d,
			Change7d: frag.Change7d,
			Chains:   append([]string{}, frag.Chains...),
			Logo:     frag.Logo,
		}
		if fee, ok := fees[frag.Slug]; ok {
			p.Fees24h = fee.Fees24h
			p.Revenue24h = fee.Revenue24h
		}
		out = append(out, p)
	}
	return out
}

// Dominance returns a copy of entities with each venue's share of total 24h
// volume, in percent, sorted by volume descending. A zero total yields zero
// dominance everywhere.
func Dominance(entities []model.DexVolumeEntity) []model.DexVolumeEntity {
	out := append([]model.DexVolumeEntity(nil), entities...)

	var total float64
	for _, e := range out {
		total += e.Volume24h
	}
	for i := range out {
		if total > 0 {
			out[i].Dominance = out[i].Volume24h / total * 100
		} else {
			out[i].Dominance = 0
		}
	}

	sort.SliceStable(out, func(i, j int) bool {
		return out[i].Volume24h > out[j].Volume24h
	})
	return out
}

func nonNegative(p *float64) float64 {
	if p == nil || *p < 0 {
		return 0
	}
	return *p
}
