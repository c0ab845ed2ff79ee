package dashboard

import (
	"context"
	"errors"
	"fmt"
	"io"
	"sync"
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/yourorg/protocol-risk/internal/fetch"
	"github.com/yourorg/protocol-risk/internal/model"
)

var errUpstream = errors.New("upstream unavailable")

func f(v float64) *float64 { return model.Float(v) }

type fakeLlama struct {
	protocols    []fetch.LlamaProtocol
	fees         *fetch.LlamaFeesOverview
	dex          *fetch.LlamaDexOverview
	details      map[string]*fetch.LlamaProtocolDetail
	summaries    map[string]*fetch.LlamaFeesSummary
	failProtocol bool
	failFees     bool
	failDex      bool
}

func (l *fakeLlama) Protocols(ctx context.Context) ([]fetch.LlamaProtocol, error) {
	if l.failProtocol {
		return nil, errUpstream
	}
	return l.protocols, nil
}

func (l *fakeLlama) FeesOverview(ctx context.Context) (*fetch.LlamaFeesOverview, error) {
	if l.failFees {
		return nil, errUpstream
	}
	return l.fees, nil
}

func (l *fakeLlama) DexOverview(ctx context.Context) (*fetch.LlamaDexOverview, error) {
	if l.failDex {
		return nil, errUpstream
	}
	return l.dex, nil
}

func (l *fakeLlama) Protocol(ctx context.Context, slug string) (*fetch.LlamaProtocolDetail, error) {
	d, ok := l.details[slug]
	if !ok {
		return nil, fmt.Errorf("protocol %s: %w", slug, model.ErrNotFound)
	}
	return d, nil
}

func (l *fakeLlama) FeesSummary(ctx context.Context, slug, dataType string) (*fetch.LlamaFeesSummary, error) {
	s, ok := l.summaries[slug+"/"+dataType]
	if !ok {
		return nil, errUpstream
	}
	return s, nil
}

type fakePerps struct {
	meta      *fetch.HLMetaAndAssetCtxs
	fundings  []fetch.HLPredictedFunding
	vault     *fetch.HLVaultDetails
	vaultAddr string
	fail      bool
}

func (p *fakePerps) MetaAndAssetCtxs(ctx context.Context) (*fetch.HLMetaAndAssetCtxs, error) {
	if p.fail {
		return nil, errUpstream
	}
	return p.meta, nil
}

func (p *fakePerps) PredictedFundings(ctx context.Context) ([]fetch.HLPredictedFunding, error) {
	if p.fail {
		return nil, errUpstream
	}
	return p.fundings, nil
}

func (p *fakePerps) VaultDetails(ctx context.Context, address string) (*fetch.HLVaultDetails, error) {
	if p.fail {
		return nil, errUpstream
	}
	p.vaultAddr = address
	return p.vault, nil
}

type fakeGov struct {
	mu        sync.Mutex
	proposals []fetch.SnapshotProposal
	calls     [][]string
	lastState string
	lastFirst int
}

func (g *fakeGov) Proposals(ctx context.Context, spaces []string, first int, state string) ([]fetch.SnapshotProposal, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.calls = append(g.calls, spaces)
	g.lastState = state
	g.lastFirst = first
	return g.proposals, nil
}

func testRoster() []model.TrackedProtocolConfig {
	return []model.TrackedProtocolConfig{
		{Slug: "aave", DisplayName: "Aave", Category: model.CategoryLending, Chains: []string{"Ethereum", "Base"}, SnapshotSpace: "aave.eth", Website: "https://aave.com"},
		{Slug: "hyperliquid", DisplayName: "Hyperliquid", Category: model.CategoryPerps, Chains: []string{"Hyperliquid"}},
		{Slug: "uniswap", DisplayName: "Uniswap", Category: model.CategoryDEX, Chains: []string{"Ethereum"}, SnapshotSpace: "uniswapgovernance.eth"},
	}
}

func testLlama() *fakeLlama {
	return &fakeLlama{
		protocols: []fetch.LlamaProtocol{
			{Slug: "aave-v3", Name: "Aave V3", TVL: f(20e9), Change1d: f(-11), Change7d: f(-5), ParentProtocol: "parent#aave", Chains: []string{"Ethereum", "Base"}},
			{Slug: "hyperliquid", Name: "Hyperliquid", TVL: f(500e6), Change1d: f(12), Chains: []string{"Hyperliquid"}},
			{Slug: "lido", Name: "Lido", TVL: f(30e9), Category: "Liquid Staking", Chains: []string{"Ethereum"}},
		},
		fees: &fetch.LlamaFeesOverview{Protocols: []fetch.LlamaFeesProtocol{
			{Slug: "aave-v3", ParentProtocol: "parent#aave", Total24h: f(100)},
			{Slug: "aave-v2", ParentProtocol: "parent#aave", Total24h: f(100)},
			{Slug: "lido", Total24h: f(50)},
		}},
		dex: &fetch.LlamaDexOverview{Protocols: []fetch.LlamaDexProtocol{
			{Name: "Uniswap V3", Slug: "uniswap-v3", ParentProtocol: "parent#uniswap", Total24h: f(750), Total7d: f(5000)},
			{Name: "Curve DEX", Slug: "curve-dex", Total24h: f(250), Total7d: f(1000)},
		}},
		details: map[string]*fetch.LlamaProtocolDetail{
			"aave": {
				Name:             "Aave",
				CurrentChainTvls: map[string]float64{"Ethereum": 15e9, "Ethereum-borrowed": 9e9, "Base": 5e9},
				TVL:              []fetch.LlamaTVLPoint{{Date: 1, TotalLiquidityUSD: 19e9}, {Date: 2, TotalLiquidityUSD: 20e9}},
				Change1d:         f(-3),
			},
			"lido": {Name: "Lido", Description: "Liquid staking", TVL: []fetch.LlamaTVLPoint{{Date: 1, TotalLiquidityUSD: 30e9}}},
		},
		summaries: map[string]*fetch.LlamaFeesSummary{
			"aave/" + fetch.DailyFees:    {Total24h: f(200), Total7d: f(1400)},
			"aave/" + fetch.DailyRevenue: {Total24h: f(20)},
		},
	}
}

func newTestService(t *testing.T, llama *fakeLlama, perps *fakePerps, gov *fakeGov) *Service {
	t.Helper()
	logger := logrus.New()
	logger.SetOutput(io.Discard)

	svc, err := New(testRoster(), llama, perps, gov, Options{
		VaultAddress:  "0xdfc24b077bc1425ad1dea75bcb6f8158e10df303",
		TopLimit:      10,
		DexLimit:      10,
		ProposalLimit: 5,
		Logger:        logger,
	})
	require.NoError(t, err)
	return svc
}

func TestNew_RejectsEmptyWatchlist(t *testing.T) {
	_, err := New(nil, &fakeLlama{}, &fakePerps{}, &fakeGov{}, Options{})
	assert.True(t, errors.Is(err, model.ErrEmptyWatchlist))
}

func TestWatchlist(t *testing.T) {
	svc := newTestService(t, testLlama(), &fakePerps{}, &fakeGov{})

	view, err := svc.Watchlist(context.Background())
	require.NoError(t, err)
	require.Len(t, view.Protocols, 3)
	assert.Empty(t, view.Degraded)

	aave := view.Protocols[0]
	assert.Equal(t, "Aave", aave.Name)
	assert.Equal(t, 200.0, *aave.Fees24h)
	// 20B TVL: 0, -11% 1d: 3, -5% 7d: 0, two chains: 0
	assert.Equal(t, 3, aave.Points)
	assert.Equal(t, model.RiskMedium, aave.Risk)

	hl := view.Protocols[1]
	// 500M TVL: 2, single chain: 1
	assert.Equal(t, 3, hl.Points)

	uni := view.Protocols[2]
	assert.Zero(t, uni.TVL)
	assert.Equal(t, 750.0, *uni.Volume24h)
	assert.Equal(t, model.RiskMedium, uni.Risk)

	require.Len(t, view.Alerts, 2)
	assert.Equal(t, "aave", view.Alerts[0].ProtocolSlug)
	assert.Equal(t, model.SeverityHigh, view.Alerts[0].Severity)
	assert.Equal(t, model.AlertTVLSurge, view.Alerts[1].Kind)

	assert.Equal(t, 3, view.Summary.ProtocolCount)
	assert.Equal(t, 20.5e9, view.Summary.TotalTVL)
	assert.Equal(t, 200.0, view.Summary.TotalFees24h)
	assert.InDelta(t, 1.0/3.0, view.Summary.AvgChange1d, 1e-9)
	assert.Equal(t, "$20.50B", view.Summary.TotalTVLDisplay)
	assert.Equal(t, 1, view.Summary.AlertCounts[model.SeverityHigh])
}

func TestWatchlist_DegradesOnUpstreamFailure(t *testing.T) {
	llama := testLlama()
	llama.failFees = true
	llama.failDex = true
	svc := newTestService(t, llama, &fakePerps{}, &fakeGov{})

	view, err := svc.Watchlist(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []string{"fees", "dex"}, view.Degraded)
	for _, p := range view.Protocols {
		assert.Nil(t, p.Fees24h)
		assert.Nil(t, p.Volume24h)
	}
	assert.Equal(t, 20e9, view.Protocols[0].TVL, "TVL fragment is still used")
}

func TestWatchlist_AllUpstreamsDown(t *testing.T) {
	llama := &fakeLlama{failProtocol: true, failFees: true, failDex: true}
	svc := newTestService(t, llama, &fakePerps{}, &fakeGov{})

	view, err := svc.Watchlist(context.Background())
	require.NoError(t, err)
	require.Len(t, view.Protocols, 3)
	for _, p := range view.Protocols {
		assert.Zero(t, p.TVL)
		assert.NotEmpty(t, p.Chains)
	}
	assert.Empty(t, view.Alerts)
}

func TestTopProtocols(t *testing.T) {
	svc := newTestService(t, testLlama(), &fakePerps{}, &fakeGov{})

	view, err := svc.TopProtocols(context.Background(), 1)
	require.NoError(t, err)
	require.Len(t, view.Protocols, 1)
	assert.Equal(t, "lido", view.Protocols[0].Slug, "child deployments are excluded")
	assert.Equal(t, 50.0, *view.Protocols[0].Fees24h)

	all, err := svc.TopProtocols(context.Background(), 0)
	require.NoError(t, err)
	assert.Len(t, all.Protocols, 2)
}

func TestProtocolDetail_Tracked(t *testing.T) {
	gov := &fakeGov{proposals: []fetch.SnapshotProposal{
		{ID: "p1", State: "active", Choices: []string{"For"}, Space: fetch.SnapshotSpace{ID: "aave.eth"}},
	}}
	svc := newTestService(t, testLlama(), &fakePerps{}, gov)

	view, err := svc.ProtocolDetail(context.Background(), "aave")
	require.NoError(t, err)

	assert.True(t, view.Tracked)
	assert.Equal(t, "Lending", view.Category)
	assert.Equal(t, "https://aave.com", view.URL, "website falls back to the roster")
	assert.Equal(t, []string{"Ethereum", "Base"}, view.Chains)
	assert.Equal(t, map[string]float64{"Ethereum": 15e9, "Base": 5e9}, view.ChainTVLs)
	assert.Equal(t, 20e9, view.TVL)
	assert.Equal(t, 1400.0, *view.Fees7d)
	assert.Equal(t, 20.0, *view.Revenue24h)
	// 20B TVL: 0, -3% 1d: 1, roster chains: 0
	assert.Equal(t, model.RiskLow, view.Risk)
	assert.Empty(t, view.Alerts)
	require.Len(t, view.Proposals, 1)
	assert.Equal(t, "aave", view.Proposals[0].ProtocolSlug)
	assert.Equal(t, [][]string{{"aave.eth"}}, gov.calls)
}

func TestProtocolDetail_UntrackedAndMissing(t *testing.T) {
	gov := &fakeGov{}
	svc := newTestService(t, testLlama(), &fakePerps{}, gov)

	view, err := svc.ProtocolDetail(context.Background(), "lido")
	require.NoError(t, err)
	assert.False(t, view.Tracked)
	assert.Equal(t, "Lido", view.Name)
	assert.Nil(t, view.Fees24h, "missing fee summary stays nil")
	assert.Equal(t, []string{"fees_summary", "revenue_summary"}, view.Degraded)
	assert.Empty(t, view.Proposals)
	assert.Empty(t, gov.calls, "untracked protocols have no governance space")

	_, err = svc.ProtocolDetail(context.Background(), "ghost")
	assert.True(t, errors.Is(err, model.ErrNotFound))
}

func TestDexVolumes(t *testing.T) {
	svc := newTestService(t, testLlama(), &fakePerps{}, &fakeGov{})

	view, err := svc.DexVolumes(context.Background(), 1)
	require.NoError(t, err)
	assert.Equal(t, 2, view.VenueCount)
	require.Len(t, view.Venues, 1)
	assert.Equal(t, "uniswap", view.Venues[0].Slug)
	assert.Equal(t, 75.0, view.Venues[0].Dominance, "dominance is computed before truncation")
	assert.Equal(t, 1000.0, view.TotalVolume24)
	assert.Equal(t, 6000.0, view.TotalVolume7d)
	assert.Equal(t, 100.0, view.Top5Dominance)
}

func TestDexVolumes_Degraded(t *testing.T) {
	llama := testLlama()
	llama.failDex = true
	svc := newTestService(t, llama, &fakePerps{}, &fakeGov{})

	view, err := svc.DexVolumes(context.Background(), 0)
	require.NoError(t, err)
	assert.Empty(t, view.Venues)
	assert.Equal(t, []string{"dex"}, view.Degraded)
}

func TestPerpViews(t *testing.T) {
	perps := &fakePerps{
		meta: &fetch.HLMetaAndAssetCtxs{
			Universe: []fetch.HLAsset{{Name: "BTC", MaxLeverage: 40}},
			Contexts: []fetch.HLAssetCtx{{MarkPx: "100", OpenInterest: "2", DayNtlVlm: "10", PrevDayPx: "50"}},
		},
		fundings: []fetch.HLPredictedFunding{{Coin: "BTC", Venues: []fetch.HLVenueFunding{
			{Venue: "BybitPerp", Funding: &fetch.HLFunding{FundingRate: "0.0001", FundingIntervalHours: 8}},
		}}},
		vault: &fetch.HLVaultDetails{Portfolio: []fetch.HLPortfolioPeriod{
			{Period: "day", AccountValueHistory: []fetch.HLHistoryPoint{{Time: 1, Value: "1000"}}},
		}},
	}
	svc := newTestService(t, testLlama(), perps, &fakeGov{})
	ctx := context.Background()

	markets, err := svc.PerpMarkets(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, markets.MarketCount)
	assert.Equal(t, 200.0, markets.TotalOI)
	assert.Equal(t, 100.0, markets.Markets[0].PriceChange24h)

	funding, err := svc.FundingComparisons(ctx)
	require.NoError(t, err)
	require.Len(t, funding.Comparisons, 1)
	require.NotNil(t, funding.Comparisons[0].Bybit)
	assert.Nil(t, funding.Comparisons[0].Hyperliquid)

	vault, err := svc.Vault(ctx)
	require.NoError(t, err)
	require.NotNil(t, vault.Vault)
	assert.Equal(t, 1000.0, vault.Vault.AUM)
	assert.Equal(t, "0xdfc24b077bc1425ad1dea75bcb6f8158e10df303", perps.vaultAddr)
}

func TestPerpViews_Degraded(t *testing.T) {
	svc := newTestService(t, testLlama(), &fakePerps{fail: true}, &fakeGov{})
	ctx := context.Background()

	markets, err := svc.PerpMarkets(ctx)
	require.NoError(t, err)
	assert.Zero(t, markets.MarketCount)
	assert.NotNil(t, markets.Markets)
	assert.Equal(t, []string{"markets"}, markets.Degraded)

	vault, err := svc.Vault(ctx)
	require.NoError(t, err)
	assert.Nil(t, vault.Vault)
}

func TestProposals(t *testing.T) {
	gov := &fakeGov{proposals: []fetch.SnapshotProposal{
		{ID: "1", State: "closed", Space: fetch.SnapshotSpace{ID: "uniswapgovernance.eth"}},
	}}
	svc := newTestService(t, testLlama(), &fakePerps{}, gov)
	ctx := context.Background()

	view, err := svc.Proposals(ctx, "closed", 0)
	require.NoError(t, err)
	require.Len(t, view.Proposals, 1)
	assert.Equal(t, "uniswap", view.Proposals[0].ProtocolSlug)
	assert.Equal(t, []string{"aave.eth", "uniswapgovernance.eth"}, gov.calls[0])
	assert.Equal(t, "closed", gov.lastState)
	assert.Equal(t, 5, gov.lastFirst)

	_, err = svc.Proposals(ctx, "archived", 0)
	assert.True(t, errors.Is(err, ErrInvalidState))

	_, err = svc.ProtocolProposals(ctx, "compound", "", 3)
	assert.True(t, errors.Is(err, model.ErrUnknownProtocol))

	none, err := svc.ProtocolProposals(ctx, "hyperliquid", "", 3)
	require.NoError(t, err)
	assert.Empty(t, none.Proposals)
}
