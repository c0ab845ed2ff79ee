package normalize

import (
	"sort"

	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"

	"github.com/yourorg/protocol-risk/internal/fetch"
	"github.com/yourorg/protocol-risk/internal/model"
)

// DefaultVaultName labels a vault whose payload carries no name.
const DefaultVaultName = "Hyperliquidity Provider (HLP)"

var (
	hundred      = decimal.NewFromInt(100)
	hoursPerYear = decimal.NewFromInt(24 * 365)
	hoursPerDay  = decimal.NewFromInt(24)
	daysPerYear  = decimal.NewFromInt(365)
)

// parseDecimal reads a provider decimal string. Malformed or empty input
// reads as zero.
func parseDecimal(s string) decimal.Decimal {
	if s == "" {
		return decimal.Zero
	}
	d, err := decimal.NewFromString(s)
	if err != nil {
		logrus.WithField("value", s).Debug("Unparseable decimal, using zero")
		return decimal.Zero
	}
	return d
}

func parseOptionalDecimal(s *string) decimal.Decimal {
	if s == nil {
		return decimal.Zero
	}
	return parseDecimal(*s)
}

// PerpMarkets normalizes the perp universe. Delisted assets and assets
// without a live context are excluded. Markets are sorted by USD open
// interest, largest first.
func PerpMarkets(raw *fetch.HLMetaAndAssetCtxs) model.PerpOverview {
	overview := model.PerpOverview{Markets: []model.PerpMarket{}}
	if raw == nil {
		return overview
	}

	totalOI := decimal.Zero
	totalVolume := decimal.Zero

	for i, asset := range raw.Universe {
		if asset.IsDelisted || i >= len(raw.Contexts) {
			continue
		}
		ctx := raw.Contexts[i]

		markPx := parseDecimal(ctx.MarkPx)
		oi := parseDecimal(ctx.OpenInterest)
		oiUSD := oi.Mul(markPx)
		funding := parseDecimal(ctx.Funding)
		dayNtlVlm := parseDecimal(ctx.DayNtlVlm)
		prevDayPx := parseDecimal(ctx.PrevDayPx)

		priceChange := decimal.Zero
		if prevDayPx.IsPositive() {
			priceChange = markPx.Sub(prevDayPx).Div(prevDayPx).Mul(hundred)
		}

		totalOI = totalOI.Add(oiUSD)
		totalVolume = totalVolume.Add(dayNtlVlm)

		overview.Markets = append(overview.Markets, model.PerpMarket{
			Coin:              asset.Name,
			MarkPx:            markPx.InexactFloat64(),
			OraclePx:          parseDecimal(ctx.OraclePx).InexactFloat64(),
			OpenInterest:      oi.InexactFloat64(),
			OpenInterestUSD:   oiUSD.InexactFloat64(),
			Funding:           funding.InexactFloat64(),
			FundingAnnualized: funding.Mul(hoursPerYear).Mul(hundred).InexactFloat64(),
			Premium:           parseOptionalDecimal(ctx.Premium).InexactFloat64(),
			DayNtlVlm:         dayNtlVlm.InexactFloat64(),
			DayBaseVlm:        parseDecimal(ctx.DayBaseVlm).InexactFloat64(),
			PrevDayPx:         prevDayPx.InexactFloat64(),
			PriceChange24h:    priceChange.InexactFloat64(),
			MaxLeverage:       asset.MaxLeverage,
		})
	}

	sort.SliceStable(overview.Markets, func(a, b int) bool {
		return overview.Markets[a].OpenInterestUSD > overview.Markets[b].OpenInterestUSD
	})

	overview.TotalOI = totalOI.InexactFloat64()
	overview.TotalVolume24h = totalVolume.InexactFloat64()
	overview.MarketCount = len(overview.Markets)
	return overview
}

// FundingComparisons lines up predicted funding per coin across the known
// venues. Unknown venues and venues without a prediction are dropped.
func FundingComparisons(raw []fetch.HLPredictedFunding) []model.FundingComparison {
	out := make([]model.FundingComparison, 0, len(raw))
	for _, p := range raw {
		comp := model.FundingComparison{Coin: p.Coin}
		for _, vf := range p.Venues {
			venue, ok := model.ParseVenue(vf.Venue)
			if !ok {
				logrus.WithFields(logrus.Fields{"coin": p.Coin, "venue": vf.Venue}).Debug("Dropping unknown funding venue")
				continue
			}
			if vf.Funding == nil || vf.Funding.FundingRate == "" {
				continue
			}
			comp.Set(venue, fundingRate(vf.Funding))
		}
		out = append(out, comp)
	}
	return out
}

// fundingRate annualizes a prediction as rate × periods per day × 365 in
// percent. A non-positive interval leaves the annualized figure at zero.
func fundingRate(f *fetch.HLFunding) model.FundingRate {
	rate := parseDecimal(f.FundingRate)
	fr := model.FundingRate{
		Rate:          rate.InexactFloat64(),
		IntervalHours: f.FundingIntervalHours,
	}
	if f.FundingIntervalHours > 0 {
		periodsPerDay := hoursPerDay.Div(decimal.NewFromFloat(f.FundingIntervalHours))
		fr.Annualized = rate.Mul(periodsPerDay).Mul(daysPerYear).Mul(hundred).InexactFloat64()
	}
	return fr
}

// Vault summarizes a vault portfolio. AUM is the latest account value of
// the "day" series; each period's PnL is the sum of its pnl history.
func Vault(raw *fetch.HLVaultDetails) model.VaultSummary {
	summary := model.VaultSummary{Name: DefaultVaultName}
	if raw == nil {
		return summary
	}
	if raw.Name != "" {
		summary.Name = raw.Name
	}

	for _, period := range raw.Portfolio {
		if period.Period == "day" && len(period.AccountValueHistory) > 0 {
			latest := period.AccountValueHistory[len(period.AccountValueHistory)-1]
			summary.AUM = parseDecimal(latest.Value).InexactFloat64()
		}

		if len(period.PnlHistory) == 0 {
			continue
		}
		total := decimal.Zero
		for _, point := range period.PnlHistory {
			total = total.Add(parseDecimal(point.Value))
		}
		switch period.Period {
		case "day":
			summary.PnlDay = total.InexactFloat64()
		case "week":
			summary.PnlWeek = total.InexactFloat64()
		case "allTime":
			summary.PnlAllTime = total.InexactFloat64()
		}
	}
	return summary
}
