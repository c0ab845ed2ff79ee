package dashboard

import (
	"context"
	"errors"
	"fmt"

	"github.com/yourorg/protocol-risk/internal/alert"
	"github.com/yourorg/protocol-risk/internal/fetch"
	"github.com/yourorg/protocol-risk/internal/format"
	"github.com/yourorg/protocol-risk/internal/metrics"
	"github.com/yourorg/protocol-risk/internal/model"
	"github.com/yourorg/protocol-risk/internal/normalize"
	"github.com/yourorg/protocol-risk/internal/reconcile"
	"github.com/yourorg/protocol-risk/internal/risk"
	"github.com/yourorg/protocol-risk/internal/telemetry"
)

// Summary totals the watchlist.
type Summary struct {
	ProtocolCount int                    `json:"protocolCount"`
	TotalTVL      float64                `json:"totalTvl"`
	TotalFees24h  float64                `json:"totalFees24h"`
	AvgChange1d   float64                `json:"avgChange1d"`
	AlertCounts   map[model.Severity]int `json:"alertCounts"`

	TotalTVLDisplay     string `json:"totalTvlDisplay"`
	TotalFees24hDisplay string `json:"totalFees24hDisplay"`
	AvgChange1dDisplay  string `json:"avgChange1dDisplay"`
}

// WatchlistView is the tracked-protocol dashboard.
type WatchlistView struct {
	Protocols []risk.Assessment `json:"protocols"`
	Alerts    []model.Alert     `json:"alerts"`
	Summary   Summary           `json:"summary"`
	Degraded  []string          `json:"degraded,omitempty"`
}

// Watchlist builds the tracked-protocol view with risk tiers and alerts.
func (s *Service) Watchlist(ctx context.Context) (*WatchlistView, error) {
	ctx, span := telemetry.Tracer().Start(ctx, "dashboard.Watchlist")
	defer span.End()

	var (
		rawProtocols []fetch.LlamaProtocol
		rawFees      *fetch.LlamaFeesOverview
		rawDex       *fetch.LlamaDexOverview
	)
	degraded := s.gather(ctx,
		call{ProviderLlama, "protocols", func(ctx context.Context) (err error) {
			rawProtocols, err = s.llama.Protocols(ctx)
			return err
		}},
		call{ProviderLlama, "fees", func(ctx context.Context) (err error) {
			rawFees, err = s.llama.FeesOverview(ctx)
			return err
		}},
		call{ProviderLlama, "dex", func(ctx context.Context) (err error) {
			rawDex, err = s.llama.DexOverview(ctx)
			return err
		}},
	)

	protocols, err := reconcile.Watchlist(
		s.watchlist,
		normalize.Protocols(rawProtocols),
		normalize.Fees(rawFees),
		normalize.DexVolumes(rawDex),
	)
	if err != nil {
		telemetry.RecordError(ctx, err)
		return nil, err
	}

	assessed := risk.Assess(protocols)
	alerts := alert.Generate(protocols)
	s.record(assessed, alerts)

	return &WatchlistView{
		Protocols: assessed,
		Alerts:    alerts,
		Summary:   summarize(protocols, alerts),
		Degraded:  degraded,
	}, nil
}

// Alerts returns the current alert list for the watchlist.
func (s *Service) Alerts(ctx context.Context) ([]model.Alert, error) {
	view, err := s.Watchlist(ctx)
	if err != nil {
		return nil, err
	}
	return view.Alerts, nil
}

func summarize(protocols []model.NormalizedProtocol, alerts []model.Alert) Summary {
	sum := Summary{
		ProtocolCount: len(protocols),
		AlertCounts:   alert.CountBySeverity(alerts),
	}
	var changeSum float64
	for _, p := range protocols {
		sum.TotalTVL += p.TVL
		sum.TotalFees24h += model.ValueOr(p.Fees24h, 0)
		changeSum += model.ValueOr(p.Change1d, 0)
	}
	if len(protocols) > 0 {
		sum.AvgChange1d = changeSum / float64(len(protocols))
	}

	sum.TotalTVLDisplay = format.USD(&sum.TotalTVL)
	sum.TotalFees24hDisplay = format.USD(&sum.TotalFees24h)
	sum.AvgChange1dDisplay = format.Percent(&sum.AvgChange1d)
	return sum
}

func (s *Service) record(assessed []risk.Assessment, alerts []model.Alert) {
	for _, a := range assessed {
		metrics.ProtocolRiskLevel.WithLabelValues(a.Slug).Set(float64(a.Risk))
		metrics.ProtocolTVL.WithLabelValues(a.Slug).Set(a.TVL)
	}
	for sev, n := range alert.CountBySeverity(alerts) {
		metrics.ActiveAlerts.WithLabelValues(string(sev)).Set(float64(n))
	}
}

// TopView lists the largest protocols across the provider.
type TopView struct {
	Protocols []risk.Assessment `json:"protocols"`
	Degraded  []string          `json:"degraded,omitempty"`
}

// TopProtocols returns the n largest top-level protocols by TVL, scored.
// n <= 0 uses the configured default.
func (s *Service) TopProtocols(ctx context.Context, n int) (*TopView, error) {
	ctx, span := telemetry.Tracer().Start(ctx, "dashboard.TopProtocols")
	defer span.End()

	if n <= 0 {
		n = s.opts.TopLimit
	}

	var (
		rawProtocols []fetch.LlamaProtocol
		rawFees      *fetch.LlamaFeesOverview
	)
	degraded := s.gather(ctx,
		call{ProviderLlama, "protocols", func(ctx context.Context) (err error) {
			rawProtocols, err = s.llama.Protocols(ctx)
			return err
		}},
		call{ProviderLlama, "fees", func(ctx context.Context) (err error) {
			rawFees, err = s.llama.FeesOverview(ctx)
			return err
		}},
	)

	top := reconcile.Top(normalize.Protocols(rawProtocols), normalize.Fees(rawFees), n)
	return &TopView{Protocols: risk.Assess(top), Degraded: degraded}, nil
}

// DetailView is the single-protocol view.
type DetailView struct {
	*model.ProtocolDetail
	Risk      model.RiskLevel            `json:"risk"`
	RiskLabel string                     `json:"riskLabel"`
	Alerts    []model.Alert              `json:"alerts"`
	Tracked   bool                       `json:"tracked"`
	Proposals []model.GovernanceProposal `json:"proposals"`
	Degraded  []string                   `json:"degraded,omitempty"`
}

// ProtocolDetail builds the detail view for any provider slug. Tracked
// protocols also get their roster metadata and governance proposals. A slug
// the provider does not know yields model.ErrNotFound.
func (s *Service) ProtocolDetail(ctx context.Context, slug string) (*DetailView, error) {
	ctx, span := telemetry.Tracer().Start(ctx, "dashboard.ProtocolDetail")
	defer span.End()

	cfg, tracked := s.bySlug[slug]

	var (
		rawDetail  *fetch.LlamaProtocolDetail
		detailErr  error
		rawFees    *fetch.LlamaFeesSummary
		rawRevenue *fetch.LlamaFeesSummary
		rawProps   []fetch.SnapshotProposal
	)
	calls := []call{
		{ProviderLlama, "protocol", func(ctx context.Context) error {
			rawDetail, detailErr = s.llama.Protocol(ctx, slug)
			return detailErr
		}},
		{ProviderLlama, "fees_summary", func(ctx context.Context) (err error) {
			rawFees, err = s.llama.FeesSummary(ctx, slug, fetch.DailyFees)
			return err
		}},
		{ProviderLlama, "revenue_summary", func(ctx context.Context) (err error) {
			rawRevenue, err = s.llama.FeesSummary(ctx, slug, fetch.DailyRevenue)
			return err
		}},
	}
	if tracked && cfg.SnapshotSpace != "" {
		calls = append(calls, call{ProviderSnapshot, "proposals", func(ctx context.Context) (err error) {
			rawProps, err = s.gov.Proposals(ctx, []string{cfg.SnapshotSpace}, 10, "")
			return err
		}})
	}
	degraded := s.gather(ctx, calls...)

	if detailErr != nil {
		telemetry.RecordError(ctx, detailErr)
		if errors.Is(detailErr, model.ErrNotFound) {
			return nil, fmt.Errorf("protocol %s: %w", slug, model.ErrNotFound)
		}
		return nil, fmt.Errorf("protocol %s: %w", slug, detailErr)
	}

	detail, err := reconcile.Detail(slug, rawDetail, rawFees, rawRevenue)
	if err != nil {
		return nil, err
	}
	if tracked {
		detail.Name = cfg.DisplayName
		detail.Category = string(cfg.Category)
		if detail.Description == "" {
			detail.Description = cfg.Description
		}
		if detail.URL == "" {
			detail.URL = cfg.Website
		}
		if len(detail.Chains) == 0 {
			detail.Chains = append([]string{}, cfg.Chains...)
		}
	}

	level := risk.Score(detail.NormalizedProtocol)
	return &DetailView{
		ProtocolDetail: detail,
		Risk:           level,
		RiskLabel:      level.String(),
		Alerts:         alert.Generate([]model.NormalizedProtocol{detail.NormalizedProtocol}),
		Tracked:        tracked,
		Proposals:      normalize.Proposals(rawProps, s.spaces),
		Degraded:       degraded,
	}, nil
}

// DexView ranks trading venues by 24h volume.
type DexView struct {
	Venues        []model.DexVolumeEntity `json:"venues"`
	VenueCount    int                     `json:"venueCount"`
	TotalVolume24 float64                 `json:"totalVolume24h"`
	TotalVolume7d float64                 `json:"totalVolume7d"`
	Top5Dominance float64                 `json:"top5Dominance"`
	Degraded      []string                `json:"degraded,omitempty"`
}

// DexVolumes returns the n largest venues. Dominance and totals are
// computed over every merged venue before truncation. n <= 0 uses the
// configured default.
func (s *Service) DexVolumes(ctx context.Context, n int) (*DexView, error) {
	ctx, span := telemetry.Tracer().Start(ctx, "dashboard.DexVolumes")
	defer span.End()

	if n <= 0 {
		n = s.opts.DexLimit
	}

	var raw *fetch.LlamaDexOverview
	degraded := s.gather(ctx, call{ProviderLlama, "dex", func(ctx context.Context) (err error) {
		raw, err = s.llama.DexOverview(ctx)
		return err
	}})

	venues := reconcile.Dominance(normalize.DexVolumes(raw))
	view := &DexView{VenueCount: len(venues), Degraded: degraded}
	for i, v := range venues {
		view.TotalVolume24 += v.Volume24h
		view.TotalVolume7d += v.Volume7d
		if i < 5 {
			view.Top5Dominance += v.Dominance
		}
	}
	if len(venues) > n {
		venues = venues[:n]
	}
	view.Venues = venues
	return view, nil
}

// PerpView is the perpetuals market overview.
type PerpView struct {
	model.PerpOverview
	Degraded []string `json:"degraded,omitempty"`
}

// PerpMarkets returns all listed perpetual markets.
func (s *Service) PerpMarkets(ctx context.Context) (*PerpView, error) {
	ctx, span := telemetry.Tracer().Start(ctx, "dashboard.PerpMarkets")
	defer span.End()

	var raw *fetch.HLMetaAndAssetCtxs
	degraded := s.gather(ctx, call{ProviderHyperliquid, "markets", func(ctx context.Context) (err error) {
		raw, err = s.perps.MetaAndAssetCtxs(ctx)
		return err
	}})
	return &PerpView{PerpOverview: normalize.PerpMarkets(raw), Degraded: degraded}, nil
}

// FundingView compares predicted funding across venues.
type FundingView struct {
	Comparisons []model.FundingComparison `json:"comparisons"`
	Degraded    []string                  `json:"degraded,omitempty"`
}

// FundingComparisons returns predicted funding per coin and venue.
func (s *Service) FundingComparisons(ctx context.Context) (*FundingView, error) {
	ctx, span := telemetry.Tracer().Start(ctx, "dashboard.FundingComparisons")
	defer span.End()

	var raw []fetch.HLPredictedFunding
	degraded := s.gather(ctx, call{ProviderHyperliquid, "funding", func(ctx context.Context) (err error) {
		raw, err = s.perps.PredictedFundings(ctx)
		return err
	}})
	return &FundingView{Comparisons: normalize.FundingComparisons(raw), Degraded: degraded}, nil
}

// VaultView summarizes the liquidity-provider vault. Vault is nil when the
// vault could not be fetched.
type VaultView struct {
	Address  string              `json:"address"`
	Vault    *model.VaultSummary `json:"vault"`
	Degraded []string            `json:"degraded,omitempty"`
}

// Vault returns the configured vault summary.
func (s *Service) Vault(ctx context.Context) (*VaultView, error) {
	ctx, span := telemetry.Tracer().Start(ctx, "dashboard.Vault")
	defer span.End()

	var raw *fetch.HLVaultDetails
	degraded := s.gather(ctx, call{ProviderHyperliquid, "vault", func(ctx context.Context) (err error) {
		raw, err = s.perps.VaultDetails(ctx, s.opts.VaultAddress)
		return err
	}})

	view := &VaultView{Address: s.opts.VaultAddress, Degraded: degraded}
	if raw != nil {
		summary := normalize.Vault(raw)
		view.Vault = &summary
	}
	return view, nil
}

// GovernanceView lists proposals for tracked protocols, newest first.
type GovernanceView struct {
	Proposals []model.GovernanceProposal `json:"proposals"`
	Degraded  []string                   `json:"degraded,omitempty"`
}

// Proposals returns up to limit proposals across every tracked governance
// space. An empty state matches all states; limit <= 0 uses the default.
func (s *Service) Proposals(ctx context.Context, state string, limit int) (*GovernanceView, error) {
	return s.proposals(ctx, s.spaceIDs, state, limit)
}

// ProtocolProposals returns proposals for one tracked protocol. Untracked
// slugs yield model.ErrUnknownProtocol.
func (s *Service) ProtocolProposals(ctx context.Context, slug, state string, limit int) (*GovernanceView, error) {
	cfg, err := s.Config(slug)
	if err != nil {
		return nil, err
	}
	if cfg.SnapshotSpace == "" {
		return &GovernanceView{Proposals: []model.GovernanceProposal{}}, nil
	}
	return s.proposals(ctx, []string{cfg.SnapshotSpace}, state, limit)
}

func (s *Service) proposals(ctx context.Context, spaces []string, state string, limit int) (*GovernanceView, error) {
	ctx, span := telemetry.Tracer().Start(ctx, "dashboard.Proposals")
	defer span.End()

	if state != "" {
		if _, ok := model.ParseProposalState(state); !ok {
			return nil, fmt.Errorf("%w: %q", ErrInvalidState, state)
		}
	}
	if limit <= 0 {
		limit = s.opts.ProposalLimit
	}

	var raw []fetch.SnapshotProposal
	degraded := s.gather(ctx, call{ProviderSnapshot, "proposals", func(ctx context.Context) (err error) {
		raw, err = s.gov.Proposals(ctx, spaces, limit, state)
		return err
	}})
	return &GovernanceView{Proposals: normalize.Proposals(raw, s.spaces), Degraded: degraded}, nil
}
