package normalize

import (
	"github.com/sirupsen/logrus"

	"github.com/yourorg/protocol-risk/internal/fetch"
	"github.com/yourorg/protocol-risk/internal/model"
	"github.com/yourorg/protocol-risk/internal/validation"
)

// DexVolumes normalizes the DEX overview into one entity per venue. Records
// without positive 24h volume are dropped, and child deployments are folded
// into their parent. Entities come back in first-appearance order with zero
// dominance; the reconciler derives dominance over the merged set.
func DexVolumes(raw *fetch.LlamaDexOverview) []model.DexVolumeEntity {
	if raw == nil {
		return nil
	}

	var order []string
	buckets := make(map[string]*model.DexVolumeEntity)

	for _, p := range raw.Protocols {
		name := p.DisplayName
		if name == "" {
			name = p.Name
		}
		if !validation.Positive(p.Total24h, logrus.Fields{"dex": name}) {
			continue
		}

		parent := ParentSlug(p.ParentProtocol)
		key := parent
		if key == "" {
			key = p.Slug
		}
		if key == "" {
			key = FallbackSlug(p.Name)
		}
		if key == "" {
			continue
		}

		e, ok := buckets[key]
		if !ok {
			e = &model.DexVolumeEntity{
				Slug:           key,
				Name:           key,
				ChainBreakdown: make(map[string]float64),
			}
			buckets[key] = e
			order = append(order, key)
		}

		e.Volume24h += *p.Total24h
		e.Volume7d += validation.FiniteOr(model.ValueOr(p.Total7d, 0), 0)
		e.Volume30d += validation.FiniteOr(model.ValueOr(p.Total30d, 0), 0)
		e.Chains = union(e.Chains, p.Chains)

		for chain, subs := range p.Breakdown24h {
			for _, v := range subs {
				e.ChainBreakdown[chain] += validation.FiniteOr(v, 0)
			}
		}

		if parent == "" {
			e.Name = name
			e.Change1d = copyOptional(validation.Finite(p.Change1d))
			e.Change7d = copyOptional(validation.Finite(p.Change7d))
			e.Change1m = copyOptional(validation.Finite(p.Change1m))
		}
	}

	out := make([]model.DexVolumeEntity, 0, len(order))
	for _, key := range order {
		out = append(out, *buckets[key])
	}
	return out
}

// union appends the entries of add missing from base.
func union(base, add []string) []string {
	if len(add) == 0 {
		return base
	}
	seen := make(map[string]struct{}, len(base)+len(add))
	for _, s := range base {
		seen[s] = struct{}{}
	}
	for _, s := range add {
		if _, ok := seen[s]; ok || s == "" {
			continue
		}
		seen[s] = struct{}{}
		base = append(base, s)
	}
	return base
}

func copyOptional(p *float64) *float64 {
	if p == nil {
		return nil
	}
	v := *p
	return &v
}
