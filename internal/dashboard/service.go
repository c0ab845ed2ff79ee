// Package dashboard assembles the read views. Each view fetches its provider
// fragments concurrently, joins, then normalizes, reconciles, scores and
// alerts synchronously. A failed fetch degrades the view instead of failing
// it.
package dashboard

import (
	"context"
	"errors"
	"fmt"

	"github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"

	"github.com/yourorg/protocol-risk/internal/fetch"
	"github.com/yourorg/protocol-risk/internal/metrics"
	"github.com/yourorg/protocol-risk/internal/model"
	"github.com/yourorg/protocol-risk/internal/validation"
)

// ErrInvalidState is returned for a proposal state filter outside the known
// set.
var ErrInvalidState = errors.New("invalid proposal state")

// Provider names used in logs and metrics.
const (
	ProviderLlama       = "defillama"
	ProviderHyperliquid = "hyperliquid"
	ProviderSnapshot    = "snapshot"
)

// LlamaSource serves TVL, fees and DEX volume payloads.
type LlamaSource interface {
	Protocols(ctx context.Context) ([]fetch.LlamaProtocol, error)
	FeesOverview(ctx context.Context) (*fetch.LlamaFeesOverview, error)
	DexOverview(ctx context.Context) (*fetch.LlamaDexOverview, error)
	Protocol(ctx context.Context, slug string) (*fetch.LlamaProtocolDetail, error)
	FeesSummary(ctx context.Context, slug, dataType string) (*fetch.LlamaFeesSummary, error)
}

// PerpSource serves perpetuals market, funding and vault payloads.
type PerpSource interface {
	MetaAndAssetCtxs(ctx context.Context) (*fetch.HLMetaAndAssetCtxs, error)
	PredictedFundings(ctx context.Context) ([]fetch.HLPredictedFunding, error)
	VaultDetails(ctx context.Context, address string) (*fetch.HLVaultDetails, error)
}

// GovernanceSource serves governance proposals.
type GovernanceSource interface {
	Proposals(ctx context.Context, spaces []string, first int, state string) ([]fetch.SnapshotProposal, error)
}

// Options configures a Service.
type Options struct {
	VaultAddress  string
	TopLimit      int
	DexLimit      int
	ProposalLimit int
	Logger        logrus.FieldLogger
}

// Service builds dashboard views from the upstream sources.
type Service struct {
	llama LlamaSource
	perps PerpSource
	gov   GovernanceSource

	watchlist []model.TrackedProtocolConfig
	bySlug    map[string]model.TrackedProtocolConfig
	spaces    map[string]string
	spaceIDs  []string

	opts Options
	log  logrus.FieldLogger
}

// New creates a Service over a validated watchlist.
func New(watchlist []model.TrackedProtocolConfig, llama LlamaSource, perps PerpSource, gov GovernanceSource, opts Options) (*Service, error) {
	if err := validation.Watchlist(watchlist); err != nil {
		return nil, fmt.Errorf("dashboard: %w", err)
	}
	if opts.Logger == nil {
		opts.Logger = logrus.StandardLogger()
	}
	if opts.TopLimit <= 0 {
		opts.TopLimit = 100
	}
	if opts.DexLimit <= 0 {
		opts.DexLimit = 100
	}
	if opts.ProposalLimit <= 0 {
		opts.ProposalLimit = 20
	}

	s := &Service{
		llama:     llama,
		perps:     perps,
		gov:       gov,
		watchlist: append([]model.TrackedProtocolConfig(nil), watchlist...),
		bySlug:    make(map[string]model.TrackedProtocolConfig, len(watchlist)),
		spaces:    make(map[string]string),
		opts:      opts,
		log:       opts.Logger.WithField("component", "dashboard"),
	}
	for _, c := range watchlist {
		s.bySlug[c.Slug] = c
		if c.SnapshotSpace != "" {
			s.spaces[c.SnapshotSpace] = c.Slug
			s.spaceIDs = append(s.spaceIDs, c.SnapshotSpace)
		}
	}
	return s, nil
}

// Tracked returns the watchlist roster.
func (s *Service) Tracked() []model.TrackedProtocolConfig {
	return append([]model.TrackedProtocolConfig(nil), s.watchlist...)
}

// Config returns the roster entry for slug, or model.ErrUnknownProtocol.
func (s *Service) Config(slug string) (model.TrackedProtocolConfig, error) {
	cfg, ok := s.bySlug[slug]
	if !ok {
		return model.TrackedProtocolConfig{}, fmt.Errorf("%s: %w", slug, model.ErrUnknownProtocol)
	}
	return cfg, nil
}

// call is one upstream fetch of a view. run stores its result in a slot
// owned by the caller.
type call struct {
	provider  string
	operation string
	run       func(ctx context.Context) error
}

// gather runs calls concurrently and waits for all of them. Failures are
// logged and counted; they never cancel sibling calls. The operations that
// failed are returned in call order.
func (s *Service) gather(ctx context.Context, calls ...call) []string {
	failed := make([]bool, len(calls))

	var g errgroup.Group
	for i, c := range calls {
		g.Go(func() error {
			if err := c.run(ctx); err != nil {
				failed[i] = true
				metrics.UpstreamFailuresTotal.WithLabelValues(c.provider, c.operation).Inc()
				s.log.WithFields(logrus.Fields{
					"provider":  c.provider,
					"operation": c.operation,
				}).WithError(err).Warn("Upstream fetch failed, serving degraded view")
			}
			return nil
		})
	}
	_ = g.Wait()

	var degraded []string
	for i, f := range failed {
		if f {
			degraded = append(degraded, calls[i].operation)
		}
	}
	return degraded
}
