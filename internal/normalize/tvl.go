// Package normalize translates raw provider payloads into canonical
// fragments. Every function here is pure: missing optional numbers become
// nil, never zero, and nothing panics on partial input.
package normalize

import (
	"regexp"
	"strings"

	"github.com/sirupsen/logrus"

	"github.com/yourorg/protocol-risk/internal/fetch"
	"github.com/yourorg/protocol-risk/internal/validation"
)

const parentPrefix = "parent#"

var whitespaceRun = regexp.MustCompile(`\s+`)

// ParentSlug strips the provider's "parent#" prefix.
func ParentSlug(parent string) string {
	return strings.TrimPrefix(parent, parentPrefix)
}

// FallbackSlug derives an identity from a display name: lowercased, with
// whitespace runs replaced by "-".
func FallbackSlug(name string) string {
	return whitespaceRun.ReplaceAllString(strings.ToLower(strings.TrimSpace(name)), "-")
}

// ProtocolFragment is the TVL-provider view of one protocol record.
type ProtocolFragment struct {
	Slug     string
	Name     string
	Category string
	TVL      *float64
	Change1d *float64
	Change7d *float64
	Chains   []string
	Logo     string

	// Parent is the de-prefixed parent identity, empty for top-level records
	Parent string
}

// ProtocolIndex holds protocol fragments in provider order with slug lookup.
type ProtocolIndex struct {
	Records []ProtocolFragment

	bySlug     map[string]int
	firstChild map[string]int
}

// Protocols normalizes the provider protocol list.
func Protocols(raw []fetch.LlamaProtocol) ProtocolIndex {
	ix := ProtocolIndex{
		Records:    make([]ProtocolFragment, 0, len(raw)),
		bySlug:     make(map[string]int, len(raw)),
		firstChild: make(map[string]int),
	}

	for _, p := range raw {
		frag := ProtocolFragment{
			Slug:     p.Slug,
			Name:     p.Name,
			Category: p.Category,
			TVL:      validation.Finite(p.TVL),
			Change1d: validation.Finite(p.Change1d),
			Change7d: validation.Finite(p.Change7d),
			Chains:   dedupe(p.Chains),
			Logo:     p.Logo,
			Parent:   ParentSlug(p.ParentProtocol),
		}
		i := len(ix.Records)
		ix.Records = append(ix.Records, frag)

		if frag.Slug != "" {
			if _, dup := ix.bySlug[frag.Slug]; !dup {
				ix.bySlug[frag.Slug] = i
			}
		}
		if frag.Parent != "" {
			if _, seen := ix.firstChild[frag.Parent]; !seen {
				ix.firstChild[frag.Parent] = i
			}
		}
	}
	return ix
}

// Lookup returns the record whose own slug is slug.
func (ix ProtocolIndex) Lookup(slug string) (ProtocolFragment, bool) {
	i, ok := ix.bySlug[slug]
	if !ok {
		return ProtocolFragment{}, false
	}
	return ix.Records[i], true
}

// Resolve returns the record for slug, falling back to the first child
// deployment that names slug as its parent. The fallback is returned under
// the parent's slug.
func (ix ProtocolIndex) Resolve(slug string) (ProtocolFragment, bool) {
	if frag, ok := ix.Lookup(slug); ok {
		return frag, true
	}
	i, ok := ix.firstChild[slug]
	if !ok {
		return ProtocolFragment{}, false
	}
	frag := ix.Records[i]
	frag.Slug = slug
	frag.Parent = ""
	return frag, true
}

// FeeFragment carries 24h fees and revenue for one identity.
type FeeFragment struct {
	Fees24h    *float64
	Revenue24h *float64
}

// FeeIndex maps identity to its fee fragment. Parent identities hold the
// sum of their child deployments.
type FeeIndex map[string]FeeFragment

// Fees normalizes the fees overview. Each record is summed into its own
// bucket and, when it names a parent, also into the parent bucket. A parent
// bucket starts at zero, so it always carries a number.
func Fees(raw *fetch.LlamaFeesOverview) FeeIndex {
	ix := make(FeeIndex)
	if raw == nil {
		return ix
	}

	for _, p := range raw.Protocols {
		slug := p.Slug
		if slug == "" {
			slug = FallbackSlug(p.Name)
		}
		fees := validation.Finite(p.Total24h)
		revenue := validation.Finite(p.TotalRevenue24h)

		if slug == "" {
			logrus.WithField("parent", p.ParentProtocol).Debug("Skipping fee record without identity")
		} else {
			own := ix[slug]
			ix[slug] = FeeFragment{
				Fees24h:    addOptional(own.Fees24h, fees),
				Revenue24h: addOptional(own.Revenue24h, revenue),
			}
		}

		if parent := ParentSlug(p.ParentProtocol); parent != "" && parent != slug {
			bucket := ix[parent]
			ix[parent] = FeeFragment{
				Fees24h:    addOptional(zeroIfNil(bucket.Fees24h), fees),
				Revenue24h: addOptional(zeroIfNil(bucket.Revenue24h), revenue),
			}
		}
	}
	return ix
}

// addOptional sums two optional values. The result is nil only when both
// inputs are nil.
func addOptional(a, b *float64) *float64 {
	switch {
	case a == nil && b == nil:
		return nil
	case a == nil:
		v := *b
		return &v
	case b == nil:
		v := *a
		return &v
	default:
		v := *a + *b
		return &v
	}
}

func zeroIfNil(p *float64) *float64 {
	if p == nil {
		var zero float64
		return &zero
	}
	return p
}

// dedupe removes repeated and empty entries, keeping first-appearance order.
func dedupe(items []string) []string {
	if items == nil {
		return nil
	}
	seen := make(map[string]struct{}, len(items))
	out := make([]string, 0, len(items))
	for _, s := range items {
		if s == "" {
			continue
		}
		if _, ok := seen[s]; ok {
			continue
		}
		seen[s] = struct{}{}
		out = append(out, s)
	}
	return out
}
