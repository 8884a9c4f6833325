package model

import (
	"errors"
	"strings"
	"testing"

	"github.com/shopspring/decimal"

	"github.com/fxlens/fx-engine/internal/quarter"
)

func d(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

// validBundle builds a minimal two-quarter bundle satisfying every ingest
// invariant. Tests mutate copies of it to probe individual checks.
func validBundle() *QuarterBundle {
	q1 := quarter.MustParse("25.1Q")
	q2 := quarter.MustParse("25.2Q")

	comp := func(q quarter.Label, er, ep, tr, tp string) ComprehensiveRecord {
		erD, epD := d(er), d(ep)
		trD, tpD := d(tr), d(tp)
		return ComprehensiveRecord{
			Quarter:        q,
			Year:           2025,
			EvalRecvPL:     erD,
			EvalPayablePL:  epD,
			EvalNetPL:      erD.Add(epD),
			TradeRecvPL:    trD,
			TradePayablePL: tpD,
			TradeNetPL:     trD.Add(tpD),
			TotalNetPL:     erD.Add(epD).Add(trD).Add(tpD),
		}
	}

	pl := func(q quarter.Label, a CurrencyAmounts) CurrencyPLRecord {
		return CurrencyPLRecord{Quarter: q, Amounts: a}
	}

	return &QuarterBundle{
		BaseQuarter: q2,
		Quarterly: []ComprehensiveRecord{
			comp(q1, "1.0", "0", "3.0", "-0.5"),
			comp(q2, "2.0", "0", "4.0", "-1.0"),
		},
		Cumulative: []ComprehensiveRecord{
			comp(q1, "1.0", "0", "3.0", "-0.5"),
			comp(q2, "3.0", "0", "7.0", "-1.5"),
		},
		RecvEvalQuarterly: []CurrencyPLRecord{
			pl(q1, CurrencyAmounts{USD: d("1.0")}),
			pl(q2, CurrencyAmounts{USD: d("2.0")}),
		},
		RecvEvalCumulative: []CurrencyPLRecord{
			pl(q1, CurrencyAmounts{USD: d("1.0")}),
			pl(q2, CurrencyAmounts{USD: d("3.0")}),
		},
		PayEvalQuarterly:  []CurrencyPLRecord{pl(q1, CurrencyAmounts{}), pl(q2, CurrencyAmounts{})},
		PayEvalCumulative: []CurrencyPLRecord{pl(q1, CurrencyAmounts{}), pl(q2, CurrencyAmounts{})},
		RecvTradeQuarterly: []CurrencyPLRecord{
			pl(q1, CurrencyAmounts{CNY: d("3.0")}),
			pl(q2, CurrencyAmounts{CNY: d("4.0")}),
		},
		RecvTradeCumulative: []CurrencyPLRecord{
			pl(q1, CurrencyAmounts{CNY: d("3.0")}),
			pl(q2, CurrencyAmounts{CNY: d("7.0")}),
		},
		PayTradeQuarterly: []CurrencyPLRecord{
			pl(q1, CurrencyAmounts{USD: d("-0.5")}),
			pl(q2, CurrencyAmounts{USD: d("-1.0")}),
		},
		PayTradeCumulative: []CurrencyPLRecord{
			pl(q1, CurrencyAmounts{USD: d("-0.5")}),
			pl(q2, CurrencyAmounts{USD: d("-1.5")}),
		},
		Balances: []CurrencyBalanceRecord{
			{
				Quarter: q2,
				Recv:    CurrencyAmounts{USD: d("80.5"), CNY: d("577.3")},
				Payable: CurrencyAmounts{USD: d("-853.1")},
			},
		},
		Sensitivity: []SensitivityRecord{
			{
				Currency:       USD,
				RecvBalance:    d("80.5"),
				PayableBalance: d("-853.1"),
				NetExposure:    d("-772.6"),
				Change1Pct:     d("-7.7"),
				RiskLevel:      RiskHigh,
			},
			{
				Currency:    CNY,
				RecvBalance: d("577.3"),
				NetExposure: d("577.3"),
				Change1Pct:  d("5.8"),
				RiskLevel:   RiskHigh,
			},
		},
		Scenarios: []ScenarioRecord{
			{
				Scenario: "USD +10%",
				USD:      d("-77.3"),
				Total:    d("-77.3"),
			},
			{
				Scenario: "All rates +5%",
				USD:      d("-38.6"),
				CNY:      d("57.7"),
				HKD:      d("18.8"),
				Total:    d("37.9"),
			},
		},
	}
}

func wantViolation(t *testing.T, b *QuarterBundle, fragment string) {
	t.Helper()
	err := b.Validate()
	if err == nil {
		t.Fatalf("expected violation containing %q, got nil", fragment)
	}
	if !errors.Is(err, ErrInvalidBundle) {
		t.Errorf("error not wrapped in ErrInvalidBundle: %v", err)
	}
	if !strings.Contains(err.Error(), fragment) {
		t.Errorf("error %q does not mention %q", err, fragment)
	}
}

func TestValidateAccepts(t *testing.T) {
	if err := validBundle().Validate(); err != nil {
		t.Fatalf("valid bundle rejected: %v", err)
	}
}

func TestValidateBaseQuarter(t *testing.T) {
	b := validBundle()
	b.BaseQuarter = "2025-Q2"
	wantViolation(t, b, "not a valid label")

	b = validBundle()
	b.BaseQuarter = quarter.MustParse("25.4Q")
	wantViolation(t, b, "base quarter")
}

func TestValidateSeriesShape(t *testing.T) {
	b := validBundle()
	b.Cumulative = b.Cumulative[:1]
	wantViolation(t, b, "differ in length")

	b = validBundle()
	b.Cumulative[0].Quarter = quarter.MustParse("24.4Q")
	wantViolation(t, b, "quarter set mismatch")

	// A gap between consecutive quarters.
	b = validBundle()
	b.Quarterly[1].Quarter = quarter.MustParse("25.3Q")
	b.Cumulative[1].Quarter = quarter.MustParse("25.3Q")
	b.BaseQuarter = quarter.MustParse("25.3Q")
	wantViolation(t, b, "not gapless")
}

func TestValidateAdditiveIdentities(t *testing.T) {
	b := validBundle()
	b.Quarterly[1].EvalNetPL = b.Quarterly[1].EvalNetPL.Add(d("0.1"))
	wantViolation(t, b, "eval_net_pl")

	b = validBundle()
	b.Cumulative[1].TradeNetPL = b.Cumulative[1].TradeNetPL.Sub(d("0.1"))
	wantViolation(t, b, "trade_net_pl")

	b = validBundle()
	b.Quarterly[0].TotalNetPL = b.Quarterly[0].TotalNetPL.Add(d("1"))
	wantViolation(t, b, "total_net_pl")
}

func TestValidateYearBoundary(t *testing.T) {
	// 25.1Q is the first quarter of its year: cumulative must equal
	// quarterly. Shift both sides of the cumulative record consistently so
	// the additive identity still holds and only the boundary rule trips.
	b := validBundle()
	b.Cumulative[0].EvalRecvPL = b.Cumulative[0].EvalRecvPL.Add(d("1"))
	b.Cumulative[0].EvalNetPL = b.Cumulative[0].EvalNetPL.Add(d("1"))
	b.Cumulative[0].TotalNetPL = b.Cumulative[0].TotalNetPL.Add(d("1"))
	b.RecvEvalCumulative[0].Amounts.USD = b.RecvEvalCumulative[0].Amounts.USD.Add(d("1"))
	wantViolation(t, b, "first quarter")
}

func TestValidateReconciliation(t *testing.T) {
	b := validBundle()
	b.RecvEvalQuarterly[1].Amounts.USD = b.RecvEvalQuarterly[1].Amounts.USD.Add(d("0.2"))
	wantViolation(t, b, "does not reconcile")

	// Drift within one decimal place of eok is authoring rounding, not a
	// violation.
	b = validBundle()
	b.RecvEvalQuarterly[1].Amounts.USD = b.RecvEvalQuarterly[1].Amounts.USD.Add(d("0.03"))
	if err := b.Validate(); err != nil {
		t.Errorf("0.03 drift should be tolerated: %v", err)
	}

	b = validBundle()
	b.PayTradeQuarterly = b.PayTradeQuarterly[:1]
	wantViolation(t, b, "missing quarter")
}

func TestValidateBalanceSigns(t *testing.T) {
	b := validBundle()
	b.Balances[0].Recv.USD = d("-1")
	wantViolation(t, b, "negative receivable")

	b = validBundle()
	b.Balances[0].Payable.USD = d("1")
	wantViolation(t, b, "positive payable")
}

func TestValidateSensitivity(t *testing.T) {
	b := validBundle()
	b.Sensitivity[0].NetExposure = d("-770.0")
	wantViolation(t, b, "net_exposure")

	b = validBundle()
	b.Sensitivity[0].Change1Pct = d("-9.9")
	wantViolation(t, b, "change_1pct")

	b = validBundle()
	b.Sensitivity[0].RiskLevel = "extreme"
	wantViolation(t, b, "risk level")

	b = validBundle()
	b.Sensitivity[1].Currency = USD
	b.Sensitivity[1] = b.Sensitivity[0]
	wantViolation(t, b, "duplicate")

	b = validBundle()
	b.Sensitivity[0].Currency = "GBP"
	wantViolation(t, b, "unknown currency")
}

func TestValidateScenarios(t *testing.T) {
	b := validBundle()
	b.Scenarios[1].Total = d("40.0")
	wantViolation(t, b, "sum of currency impacts")
}
