// Package risk derives exposure aggregates from a bundle's sensitivity rows:
// net exposure, shock impact, natural hedge ratios, and the company-wide
// risk snapshot. Pure and stateless, like the rest of the metrics layer.
package risk

import (
	"fmt"

	"github.com/shopspring/decimal"

	"github.com/fxlens/fx-engine/internal/model"
)

var (
	hundred = decimal.NewFromInt(100)

	// Exposure grade thresholds in eok of absolute net exposure.
	highThreshold   = decimal.NewFromInt(500)
	mediumThreshold = decimal.NewFromInt(100)

	// snapshotTolerance bounds how far an authored snapshot may drift from
	// the derived one before ingest rejects the bundle.
	snapshotTolerance = decimal.NewFromFloat(0.05)
)

// NetExposure is the amount actually at risk to rate movements in one
// currency. The payable balance arrives signed negative, so this is a sum.
func NetExposure(recv, payable decimal.Decimal) decimal.Decimal {
	return recv.Add(payable)
}

// SensitivityImpact is the linear P&L impact of a rate shock on one
// currency's net exposure. shockPct is a fraction: 0.01 for a 1% move.
// Linear approximation only; no convexity.
func SensitivityImpact(item model.SensitivityRecord, shockPct decimal.Decimal) decimal.Decimal {
	return item.NetExposure.Mul(shockPct)
}

// Exposure is the aggregate position across all sensitivity rows.
type Exposure struct {
	TotalRecv    decimal.Decimal `json:"total_recv"`
	TotalPayable decimal.Decimal `json:"total_payable"`
	Net          decimal.Decimal `json:"net"`
	Ratio        decimal.Decimal `json:"ratio"`
}

// Aggregate sums the sensitivity rows into the company-wide exposure.
// TotalPayable is reported as a magnitude, so Net is recv minus payable.
// Ratio is net over total receivables as a percentage, zero when there are
// no receivables.
func Aggregate(items []model.SensitivityRecord) Exposure {
	var agg Exposure
	for _, it := range items {
		agg.TotalRecv = agg.TotalRecv.Add(it.RecvBalance)
		agg.TotalPayable = agg.TotalPayable.Add(it.PayableBalance.Abs())
	}
	agg.Net = agg.TotalRecv.Sub(agg.TotalPayable)
	if !agg.TotalRecv.IsZero() {
		agg.Ratio = agg.Net.Div(agg.TotalRecv).Mul(hundred)
	}
	return agg
}

// NaturalHedgeRatio measures how far payables in a currency offset
// receivables in the same currency, as a percentage of the larger side.
// Zero when both sides are zero.
func NaturalHedgeRatio(recv, payable decimal.Decimal) decimal.Decimal {
	p := payable.Abs()
	if recv.IsZero() && p.IsZero() {
		return decimal.Zero
	}
	smaller, larger := recv, p
	if smaller.GreaterThan(larger) {
		smaller, larger = larger, smaller
	}
	return smaller.Div(larger).Mul(hundred)
}

// Classify grades a net exposure by magnitude.
func Classify(netExposure decimal.Decimal) model.RiskLevel {
	abs := netExposure.Abs()
	switch {
	case abs.GreaterThanOrEqual(highThreshold):
		return model.RiskHigh
	case abs.GreaterThanOrEqual(mediumThreshold):
		return model.RiskMedium
	default:
		return model.RiskLow
	}
}

// DeriveSnapshot computes the aggregate risk snapshot from the sensitivity
// rows and volatility stats. Impact1PctAll is the total absolute swing if
// every rate moved 1% against the book.
func DeriveSnapshot(items []model.SensitivityRecord, volatility map[model.Currency]model.VolatilityStats) model.RiskSnapshot {
	agg := Aggregate(items)
	snap := model.RiskSnapshot{
		TotalRecvBalance:    agg.TotalRecv,
		TotalPayableBalance: agg.TotalPayable,
		NetExposure:         agg.Net,
		NetExposureRatio:    agg.Ratio,
	}
	onePct := decimal.NewFromFloat(0.01)
	for _, it := range items {
		snap.Impact1PctAll = snap.Impact1PctAll.Add(it.NetExposure.Abs().Mul(onePct))
		if it.NetExposure.Abs().GreaterThan(snap.MaxExposureAmount.Abs()) {
			snap.MaxExposureCurrency = it.Currency
			snap.MaxExposureAmount = it.NetExposure
		}
		if it.Currency == model.USD {
			snap.USDNaturalHedge = NaturalHedgeRatio(it.RecvBalance, it.PayableBalance)
		}
	}
	if v, ok := volatility[model.USD]; ok {
		snap.USDVolatility = v.Volatility
	}
	return snap
}

// VerifySnapshot checks an authored snapshot against the one derived from
// the same sensitivity rows. Authored snapshots ride along in bundles for
// audit purposes but are never served; ingest rejects them when they drift
// from the derived values.
func VerifySnapshot(authored model.RiskSnapshot, items []model.SensitivityRecord, volatility map[model.Currency]model.VolatilityStats) error {
	derived := DeriveSnapshot(items, volatility)
	checks := []struct {
		name             string
		authored, wanted decimal.Decimal
	}{
		{"total_recv_balance", authored.TotalRecvBalance, derived.TotalRecvBalance},
		{"total_payable_balance", authored.TotalPayableBalance, derived.TotalPayableBalance},
		{"net_exposure", authored.NetExposure, derived.NetExposure},
		{"net_exposure_ratio", authored.NetExposureRatio, derived.NetExposureRatio},
		{"usd_natural_hedge_ratio", authored.USDNaturalHedge, derived.USDNaturalHedge},
		{"impact_1pct_all", authored.Impact1PctAll, derived.Impact1PctAll},
		{"max_exposure_amount", authored.MaxExposureAmount, derived.MaxExposureAmount},
	}
	for _, c := range checks {
		if c.authored.Sub(c.wanted).Abs().GreaterThan(snapshotTolerance) {
			return fmt.Errorf("risk: authored %s %s drifts from derived %s",
				c.name, c.authored, c.wanted)
		}
	}
	if authored.MaxExposureCurrency != derived.MaxExposureCurrency {
		return fmt.Errorf("risk: authored max exposure currency %s, derived %s",
			authored.MaxExposureCurrency, derived.MaxExposureCurrency)
	}
	return nil
}
