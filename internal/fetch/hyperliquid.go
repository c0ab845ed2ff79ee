package fetch

import (
	"context"
	"encoding/json"
	"fmt"
)

// HLAsset is a perpetual listed in the exchange universe.
type HLAsset struct {
	Name        string `json:"name"`
	SzDecimals  int    `json:"szDecimals"`
	MaxLeverage int    `json:"maxLeverage"`
	IsDelisted  bool   `json:"isDelisted"`
}

// HLAssetCtx is the live context of an asset. Numbers arrive as decimal
// strings.
type HLAssetCtx struct {
	MarkPx       string  `json:"markPx"`
	OraclePx     string  `json:"oraclePx"`
	MidPx        *string `json:"midPx"`
	OpenInterest string  `json:"openInterest"`
	Funding      string  `json:"funding"`
	Premium      *string `json:"premium"`
	DayNtlVlm    string  `json:"dayNtlVlm"`
	DayBaseVlm   string  `json:"dayBaseVlm"`
	PrevDayPx    string  `json:"prevDayPx"`
}

// HLMetaAndAssetCtxs is the [meta, contexts] tuple. Contexts is parallel
// to Universe and may be shorter.
type HLMetaAndAssetCtxs struct {
	Universe []HLAsset
	Contexts []HLAssetCtx
}

// UnmarshalJSON decodes the two-element tuple form.
func (m *HLMetaAndAssetCtxs) UnmarshalJSON(data []byte) error {
	var parts []json.RawMessage
	if err := json.Unmarshal(data, &parts); err != nil {
		return err
	}
	if len(parts) < 2 {
		return fmt.Errorf("metaAndAssetCtxs: expected 2 elements, got %d", len(parts))
	}

	var meta struct {
		Universe []HLAsset `json:"universe"`
	}
	if err := json.Unmarshal(parts[0], &meta); err != nil {
		return fmt.Errorf("metaAndAssetCtxs meta: %w", err)
	}
	var ctxs []HLAssetCtx
	if err := json.Unmarshal(parts[1], &ctxs); err != nil {
		return fmt.Errorf("metaAndAssetCtxs contexts: %w", err)
	}

	m.Universe = meta.Universe
	m.Contexts = ctxs
	return nil
}

// HLFunding is a venue's predicted funding. FundingRate is a decimal string.
type HLFunding struct {
	FundingRate          string  `json:"fundingRate"`
	FundingIntervalHours float64 `json:"fundingIntervalHours"`
	NextFundingTime      int64   `json:"nextFundingTime"`
}

// HLVenueFunding pairs a venue identifier with its prediction, nil when the
// venue does not list the coin.
type HLVenueFunding struct {
	Venue   string
	Funding *HLFunding
}

// HLPredictedFunding is a [coin, [[venue, funding|null], ...]] tuple.
type HLPredictedFunding struct {
	Coin   string
	Venues []HLVenueFunding
}

// UnmarshalJSON decodes the tuple form.
func (p *HLPredictedFunding) UnmarshalJSON(data []byte) error {
	var tuple []json.RawMessage
	if err := json.Unmarshal(data, &tuple); err != nil {
		return err
	}
	if len(tuple) < 2 {
		return fmt.Errorf("predictedFundings: expected [coin, venues], got %d elements", len(tuple))
	}
	if err := json.Unmarshal(tuple[0], &p.Coin); err != nil {
		return fmt.Errorf("predictedFundings coin: %w", err)
	}

	var venues [][]json.RawMessage
	if err := json.Unmarshal(tuple[1], &venues); err != nil {
		return fmt.Errorf("predictedFundings %s venues: %w", p.Coin, err)
	}
	p.Venues = make([]HLVenueFunding, 0, len(venues))
	for _, v := range venues {
		if len(v) < 2 {
			continue
		}
		var entry HLVenueFunding
		if err := json.Unmarshal(v[0], &entry.Venue); err != nil {
			return fmt.Errorf("predictedFundings %s venue: %w", p.Coin, err)
		}
		if err := json.Unmarshal(v[1], &entry.Funding); err != nil {
			return fmt.Errorf("predictedFundings %s %s: %w", p.Coin, entry.Venue, err)
		}
		p.Venues = append(p.Venues, entry)
	}
	return nil
}

// HLHistoryPoint is a [timestampMillis, "value"] sample.
type HLHistoryPoint struct {
	Time  int64
	Value string
}

// UnmarshalJSON decodes the pair form.
func (h *HLHistoryPoint) UnmarshalJSON(data []byte) error {
	var pair []json.RawMessage
	if err := json.Unmarshal(data, &pair); err != nil {
		return err
	}
	if len(pair) < 2 {
		return fmt.Errorf("history point: expected 2 elements, got %d", len(pair))
	}
	if err := json.Unmarshal(pair[0], &h.Time); err != nil {
		return err
	}
	return json.Unmarshal(pair[1], &h.Value)
}

// HLPortfolioPeriod is one [period, {...}] entry of a vault portfolio.
type HLPortfolioPeriod struct {
	Period              string
	AccountValueHistory []HLHistoryPoint
	PnlHistory          []HLHistoryPoint
}

// UnmarshalJSON decodes the pair form.
func (p *HLPortfolioPeriod) UnmarshalJSON(data []byte) error {
	var pair []json.RawMessage
	if err := json.Unmarshal(data, &pair); err != nil {
		return err
	}
	if len(pair) < 2 {
		return fmt.Errorf("portfolio period: expected 2 elements, got %d", len(pair))
	}
	if err := json.Unmarshal(pair[0], &p.Period); err != nil {
		return err
	}
	var body struct {
		AccountValueHistory []HLHistoryPoint `json:"accountValueHistory"`
		PnlHistory          []HLHistoryPoint `json:"pnlHistory"`
	}
	if err := json.Unmarshal(pair[1], &body); err != nil {
		return fmt.Errorf("portfolio period %s: %w", p.Period, err)
	}
	p.AccountValueHistory = body.AccountValueHistory
	p.PnlHistory = body.PnlHistory
	return nil
}

// HLVaultDetails is the vault details payload.
type HLVaultDetails struct {
	Name         string              `json:"name"`
	VaultAddress string              `json:"vaultAddress"`
	Portfolio    []HLPortfolioPeriod `json:"portfolio"`
}

// Hyperliquid is the info API client. Every request is a POST command
// envelope to a single endpoint.
type Hyperliquid struct {
	client *Client
	url    string
}

// NewHyperliquid creates an info API client for the given endpoint.
func NewHyperliquid(infoURL string, client *Client) *Hyperliquid {
	return &Hyperliquid{client: client, url: infoURL}
}

// Client returns the underlying provider client.
func (h *Hyperliquid) Client() *Client {
	return h.client
}

// MetaAndAssetCtxs retrieves the perp universe with live contexts.
func (h *Hyperliquid) MetaAndAssetCtxs(ctx context.Context) (*HLMetaAndAssetCtxs, error) {
	var out HLMetaAndAssetCtxs
	if err := h.client.PostJSON(ctx, h.url, map[string]string{"type": "metaAndAssetCtxs"}, &out); err != nil {
		return nil, fmt.Errorf("fetch metaAndAssetCtxs: %w", err)
	}
	return &out, nil
}

// PredictedFundings retrieves cross-venue predicted funding rates.
func (h *Hyperliquid) PredictedFundings(ctx context.Context) ([]HLPredictedFunding, error) {
	var out []HLPredictedFunding
	if err := h.client.PostJSON(ctx, h.url, map[string]string{"type": "predictedFundings"}, &out); err != nil {
		return nil, fmt.Errorf("fetch predictedFundings: %w", err)
	}
	return out, nil
}

// VaultDetails retrieves the portfolio of the vault at address. The address
// is expected in validated lowercase form.
func (h *Hyperliquid) VaultDetails(ctx context.Context, address string) (*HLVaultDetails, error) {
	body := map[string]string{"type": "vaultDetails", "vaultAddress": address}
	var out HLVaultDetails
	if err := h.client.PostJSON(ctx, h.url, body, &out); err != nil {
		return nil, fmt.Errorf("fetch vaultDetails %s: %w", address, err)
	}
	return &out, nil
}
