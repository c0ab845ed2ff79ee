package model

import "fmt"

// PerpMarket is one listed perpetual market with derived figures.
type PerpMarket struct {
	Coin              string  `json:"coin"`
	MarkPx            float64 `json:"markPx"`
	OraclePx          float64 `json:"oraclePx"`
	OpenInterest      float64 `json:"openInterest"`
	OpenInterestUSD   float64 `json:"openInterestUsd"`
	Funding           float64 `json:"funding"`
	FundingAnnualized float64 `json:"fundingAnnualized"`
	Premium           float64 `json:"premium"`
	DayNtlVlm         float64 `json:"dayNtlVlm"`
	DayBaseVlm        float64 `json:"dayBaseVlm"`
	PrevDayPx         float64 `json:"prevDayPx"`
	PriceChange24h    float64 `json:"priceChange24h"`
	MaxLeverage       int     `json:"maxLeverage"`
}

// PerpOverview aggregates all listed markets, sorted by open interest.
type PerpOverview struct {
	Markets        []PerpMarket `json:"markets"`
	TotalOI        float64      `json:"totalOI"`
	TotalVolume24h float64      `json:"totalVolume24h"`
	MarketCount    int          `json:"marketCount"`
}

// Venue is a perpetuals exchange reported by the predicted-fundings command.
type Venue int

// Known venues. Anything else is dropped during normalization.
const (
	VenueUnknown Venue = iota
	VenueHyperliquid
	VenueBinance
	VenueBybit
)

// ParseVenue maps the provider's exchange identifier onto a Venue.
// The boolean is false for unrecognized identifiers.
func ParseVenue(id string) (Venue, bool) {
	switch id {
	case "HlPerp":
		return VenueHyperliquid, true
	case "BinPerp":
		return VenueBinance, true
	case "BybitPerp":
		return VenueBybit, true
	default:
		return VenueUnknown, false
	}
}

func (v Venue) String() string {
	switch v {
	case VenueHyperliquid:
		return "hyperliquid"
	case VenueBinance:
		return "binance"
	case VenueBybit:
		return "bybit"
	default:
		return fmt.Sprintf("venue(%d)", int(v))
	}
}

// FundingRate is a venue's predicted funding for one coin.
type FundingRate struct {
	Rate          float64 `json:"rate"`
	IntervalHours float64 `json:"interval"`
	// Annualized extrapolates Rate to a yearly percentage
	Annualized float64 `json:"annualized"`
}

// FundingComparison lines up predicted funding for a coin across venues.
// A nil venue means that venue does not list the coin.
type FundingComparison struct {
	Coin        string       `json:"coin"`
	Hyperliquid *FundingRate `json:"hyperliquid"`
	Binance     *FundingRate `json:"binance"`
	Bybit       *FundingRate `json:"bybit"`
}

// Set stores rate under venue. Unknown venues are ignored.
func (c *FundingComparison) Set(v Venue, rate FundingRate) {
	switch v {
	case VenueHyperliquid:
		c.Hyperliquid = &rate
	case VenueBinance:
		c.Binance = &rate
	case VenueBybit:
		c.Bybit = &rate
	}
}

// VaultSummary is the portfolio snapshot of a liquidity-provider vault.
type VaultSummary struct {
	Name       string  `json:"name"`
	AUM        float64 `json:"aum"`
	PnlDay     float64 `json:"pnlDay"`
	PnlWeek    float64 `json:"pnlWeek"`
	PnlAllTime float64 `json:"pnlAllTime"`
}
