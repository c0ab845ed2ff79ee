package normalize

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/yourorg/protocol-risk/internal/fetch"
	"github.com/yourorg/protocol-risk/internal/model"
)

func str(s string) *string { return &s }

func TestPerpMarkets(t *testing.T) {
	raw := &fetch.HLMetaAndAssetCtxs{
		Universe: []fetch.HLAsset{
			{Name: "ETH", MaxLeverage: 25},
			{Name: "BTC", MaxLeverage: 50},
			{Name: "OLD", IsDelisted: true},
			{Name: "NEW"},
		},
		Contexts: []fetch.HLAssetCtx{
			{MarkPx: "2000", OpenInterest: "1000", Funding: "0.00001", DayNtlVlm: "100", PrevDayPx: "2500", Premium: str("-0.0002"), DayBaseVlm: "0.05"},
			{MarkPx: "100000", OpenInterest: "50", Funding: "0.0001", DayNtlVlm: "300", PrevDayPx: "0"},
			{MarkPx: "1", OpenInterest: "1", DayNtlVlm: "1"},
		},
	}

	got := PerpMarkets(raw)
	require.Len(t, got.Markets, 2, "delisted and context-less assets are excluded")
	assert.Equal(t, 2, got.MarketCount)

	btc, eth := got.Markets[0], got.Markets[1]
	assert.Equal(t, "BTC", btc.Coin, "sorted by USD open interest")
	assert.Equal(t, 5_000_000.0, btc.OpenInterestUSD)
	assert.Zero(t, btc.PriceChange24h, "no previous price means no change")
	assert.Zero(t, btc.Premium)
	assert.Equal(t, 50, btc.MaxLeverage)

	assert.Equal(t, 2_000_000.0, eth.OpenInterestUSD)
	assert.InDelta(t, -20.0, eth.PriceChange24h, 1e-9)
	assert.InDelta(t, 8.76, eth.FundingAnnualized, 1e-9)
	assert.InDelta(t, -0.0002, eth.Premium, 1e-12)

	assert.Equal(t, 7_000_000.0, got.TotalOI)
	assert.Equal(t, 400.0, got.TotalVolume24h)
}

func TestPerpMarkets_MalformedNumbers(t *testing.T) {
	got := PerpMarkets(&fetch.HLMetaAndAssetCtxs{
		Universe: []fetch.HLAsset{{Name: "X"}},
		Contexts: []fetch.HLAssetCtx{{MarkPx: "n/a", OpenInterest: "10"}},
	})
	require.Len(t, got.Markets, 1)
	assert.Zero(t, got.Markets[0].OpenInterestUSD)
	assert.NotNil(t, PerpMarkets(nil).Markets)
}

func TestFundingComparisons(t *testing.T) {
	raw := []fetch.HLPredictedFunding{{
		Coin: "BTC",
		Venues: []fetch.HLVenueFunding{
			{Venue: "HlPerp", Funding: &fetch.HLFunding{FundingRate: "0.0000125", FundingIntervalHours: 1}},
			{Venue: "BinPerp", Funding: &fetch.HLFunding{FundingRate: "0.0001", FundingIntervalHours: 8}},
			{Venue: "BybitPerp"},
			{Venue: "OkxPerp", Funding: &fetch.HLFunding{FundingRate: "0.1", FundingIntervalHours: 8}},
		},
	}}

	got := FundingComparisons(raw)
	require.Len(t, got, 1)
	c := got[0]
	assert.Equal(t, "BTC", c.Coin)

	require.NotNil(t, c.Hyperliquid)
	assert.InDelta(t, 10.95, c.Hyperliquid.Annualized, 1e-9)
	require.NotNil(t, c.Binance)
	assert.Equal(t, 8.0, c.Binance.IntervalHours)
	assert.InDelta(t, 10.95, c.Binance.Annualized, 1e-9)
	assert.Nil(t, c.Bybit, "venue without a prediction stays empty")
}

func TestFundingRate_ZeroInterval(t *testing.T) {
	fr := fundingRate(&fetch.HLFunding{FundingRate: "0.01"})
	assert.Equal(t, 0.01, fr.Rate)
	assert.Zero(t, fr.Annualized)
}

func TestVault(t *testing.T) {
	raw := &fetch.HLVaultDetails{Portfolio: []fetch.HLPortfolioPeriod{
		{
			Period:              "day",
			AccountValueHistory: []fetch.HLHistoryPoint{{Time: 1, Value: "100"}, {Time: 2, Value: "150.5"}},
			PnlHistory:          []fetch.HLHistoryPoint{{Time: 1, Value: "1.5"}, {Time: 2, Value: "-0.5"}},
		},
		{Period: "week", PnlHistory: []fetch.HLHistoryPoint{{Value: "10"}, {Value: "5"}}},
		{Period: "allTime", PnlHistory: []fetch.HLHistoryPoint{{Value: "1000"}}},
		{Period: "month", PnlHistory: []fetch.HLHistoryPoint{{Value: "99"}}},
	}}

	got := Vault(raw)
	assert.Equal(t, model.VaultSummary{
		Name:       DefaultVaultName,
		AUM:        150.5,
		PnlDay:     1,
		PnlWeek:    15,
		PnlAllTime: 1000,
	}, got)

	assert.Equal(t, "HLP", Vault(&fetch.HLVaultDetails{Name: "HLP"}).Name)
	assert.Equal(t, DefaultVaultName, Vault(nil).Name)
}
