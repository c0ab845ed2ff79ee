package fetch

import (
	"context"
	"fmt"
	"net/url"
	"strings"
)

const overviewQuery = "excludeTotalDataChart=true&excludeTotalDataChartBreakdown=true"

// LlamaProtocol is one entry of the DefiLlama protocol list.
type LlamaProtocol struct {
	Slug           string   `json:"slug"`
	Name           string   `json:"name"`
	Category       string   `json:"category"`
	TVL            *float64 `json:"tvl"`
	Change1d       *float64 `json:"change_1d"`
	Change7d       *float64 `json:"change_7d"`
	Chains         []string `json:"chains"`
	Logo           string   `json:"logo"`
	ParentProtocol string   `json:"parentProtocol"`
}

// LlamaFeesOverview is the cross-protocol fees overview.
type LlamaFeesOverview struct {
	Protocols []LlamaFeesProtocol `json:"protocols"`
}

// LlamaFeesProtocol is one fees overview entry.
type LlamaFeesProtocol struct {
	Name            string   `json:"name"`
	Slug            string   `json:"slug"`
	ParentProtocol  string   `json:"parentProtocol"`
	Total24h        *float64 `json:"total24h"`
	TotalRevenue24h *float64 `json:"totalRevenue24h"`
}

// LlamaDexOverview is the cross-venue DEX volume overview.
type LlamaDexOverview struct {
	Total24h  *float64           `json:"total24h"`
	Total7d   *float64           `json:"total7d"`
	Protocols []LlamaDexProtocol `json:"protocols"`
}

// LlamaDexProtocol is one DEX overview entry. Breakdown24h maps chain to
// sub-protocol to 24h volume.
type LlamaDexProtocol struct {
	Name           string                        `json:"name"`
	DisplayName    string                        `json:"displayName"`
	Slug           string                        `json:"slug"`
	ParentProtocol string                        `json:"parentProtocol"`
	Chains         []string                      `json:"chains"`
	Total24h       *float64                      `json:"total24h"`
	Total7d        *float64                      `json:"total7d"`
	Total30d       *float64                      `json:"total30d"`
	Change1d       *float64                      `json:"change_1d"`
	Change7d       *float64                      `json:"change_7d"`
	Change1m       *float64                      `json:"change_1m"`
	Breakdown24h   map[string]map[string]float64 `json:"breakdown24h"`
}

// LlamaProtocolDetail is the single-protocol payload.
type LlamaProtocolDetail struct {
	Name             string             `json:"name"`
	Category         string             `json:"category"`
	Description      string             `json:"description"`
	URL              string             `json:"url"`
	Twitter          *string            `json:"twitter"`
	Logo             string             `json:"logo"`
	Chains           []string           `json:"chains"`
	Change1d         *float64           `json:"change_1d"`
	Change7d         *float64           `json:"change_7d"`
	CurrentChainTvls map[string]float64 `json:"currentChainTvls"`
	TVL              []LlamaTVLPoint    `json:"tvl"`
}

// LlamaTVLPoint is a historical TVL sample.
type LlamaTVLPoint struct {
	Date              int64   `json:"date"`
	TotalLiquidityUSD float64 `json:"totalLiquidityUSD"`
}

// LlamaFeesSummary holds a protocol's fee or revenue totals, depending on
// the requested data type.
type LlamaFeesSummary struct {
	Total24h *float64 `json:"total24h"`
	Total7d  *float64 `json:"total7d"`
	Total30d *float64 `json:"total30d"`
}

// Fee summary data types.
const (
	DailyFees    = "dailyFees"
	DailyRevenue = "dailyRevenue"
)

// Llama is the DefiLlama client.
type Llama struct {
	client  *Client
	baseURL string
}

// NewLlama creates a DefiLlama client rooted at baseURL.
func NewLlama(baseURL string, client *Client) *Llama {
	return &Llama{client: client, baseURL: strings.TrimRight(baseURL, "/")}
}

// Client returns the underlying provider client.
func (l *Llama) Client() *Client {
	return l.client
}

// Protocols retrieves the full protocol list.
func (l *Llama) Protocols(ctx context.Context) ([]LlamaProtocol, error) {
	var out []LlamaProtocol
	if err := l.client.GetJSON(ctx, l.baseURL+"/protocols", &out); err != nil {
		return nil, fmt.Errorf("fetch protocols: %w", err)
	}
	return out, nil
}

// FeesOverview retrieves 24h fees and revenue for every protocol.
func (l *Llama) FeesOverview(ctx context.Context) (*LlamaFeesOverview, error) {
	var out LlamaFeesOverview
	if err := l.client.GetJSON(ctx, l.baseURL+"/overview/fees?"+overviewQuery, &out); err != nil {
		return nil, fmt.Errorf("fetch fees overview: %w", err)
	}
	return &out, nil
}

// DexOverview retrieves trading volume for every DEX.
func (l *Llama) DexOverview(ctx context.Context) (*LlamaDexOverview, error) {
	var out LlamaDexOverview
	if err := l.client.GetJSON(ctx, l.baseURL+"/overview/dexs?"+overviewQuery, &out); err != nil {
		return nil, fmt.Errorf("fetch dex overview: %w", err)
	}
	return &out, nil
}

// Protocol retrieves the detail payload for slug. An unknown slug yields an
// error wrapping model.ErrNotFound.
func (l *Llama) Protocol(ctx context.Context, slug string) (*LlamaProtocolDetail, error) {
	var out LlamaProtocolDetail
	if err := l.client.GetJSON(ctx, l.baseURL+"/protocol/"+url.PathEscape(slug), &out); err != nil {
		return nil, fmt.Errorf("fetch protocol %s: %w", slug, err)
	}
	return &out, nil
}

// FeesSummary retrieves fee totals for slug. dataType is DailyFees or
// DailyRevenue.
func (l *Llama) FeesSummary(ctx context.Context, slug, dataType string) (*LlamaFeesSummary, error) {
	u := fmt.Sprintf("%s/summary/fees/%s?dataType=%s", l.baseURL, url.PathEscape(slug), url.QueryEscape(dataType))
	var out LlamaFeesSummary
	if err := l.client.GetJSON(ctx, u, &out); err != nil {
		return nil, fmt.Errorf("fetch %s summary for %s: %w", dataType, slug, err)
	}
	return &out, nil
}
