package risk

import (
	"testing"

	"github.com/shopspring/decimal"

	"github.com/fxlens/fx-engine/internal/model"
)

func d(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func assertEqual(t *testing.T, got, want decimal.Decimal, what string) {
	t.Helper()
	if !got.Equal(want) {
		t.Errorf("%s = %s, want %s", what, got, want)
	}
}

func sensitivityFixture() []model.SensitivityRecord {
	return []model.SensitivityRecord{
		{
			Currency:       model.USD,
			RecvBalance:    d("80.5"),
			PayableBalance: d("-853.1"),
			NetExposure:    d("-772.6"),
			Change1Pct:     d("-7.7"),
		},
		{
			Currency:       model.CNY,
			RecvBalance:    d("577.3"),
			PayableBalance: d("0"),
			NetExposure:    d("577.3"),
			Change1Pct:     d("5.8"),
		},
		{
			Currency:       model.HKD,
			RecvBalance:    d("188.2"),
			PayableBalance: d("0"),
			NetExposure:    d("188.2"),
			Change1Pct:     d("1.9"),
		},
	}
}

func TestNetExposure(t *testing.T) {
	got := NetExposure(d("80.5"), d("-853.1"))
	assertEqual(t, got, d("-772.6"), "NetExposure")
}

func TestSensitivityImpact(t *testing.T) {
	item := sensitivityFixture()[0]
	impact := SensitivityImpact(item, d("0.01"))
	assertEqual(t, impact, d("-7.726"), "1% impact")

	// The authored change_1pct is the same formula rounded to one decimal
	// place of eok.
	if impact.Sub(item.Change1Pct).Abs().GreaterThan(d("0.05")) {
		t.Errorf("impact %s deviates from authored %s", impact, item.Change1Pct)
	}

	assertEqual(t, SensitivityImpact(item, d("0.1")), d("-77.26"), "10% impact")
}

func TestAggregate(t *testing.T) {
	agg := Aggregate(sensitivityFixture())
	assertEqual(t, agg.TotalRecv, d("846"), "total recv")
	assertEqual(t, agg.TotalPayable, d("853.1"), "total payable")
	assertEqual(t, agg.Net, d("-7.1"), "net")
	wantRatio := d("-7.1").Div(d("846")).Mul(d("100"))
	assertEqual(t, agg.Ratio, wantRatio, "ratio")
}

func TestAggregateEmpty(t *testing.T) {
	agg := Aggregate(nil)
	assertEqual(t, agg.Net, decimal.Zero, "net")
	assertEqual(t, agg.Ratio, decimal.Zero, "ratio with no receivables")
}

func TestNaturalHedgeRatio(t *testing.T) {
	cases := []struct {
		recv, payable, want string
	}{
		{"50", "-200", "25"},
		{"200", "-50", "25"},
		{"100", "-100", "100"},
		{"0", "-10", "0"},
		{"10", "0", "0"},
		{"0", "0", "0"},
	}
	for _, tc := range cases {
		got := NaturalHedgeRatio(d(tc.recv), d(tc.payable))
		assertEqual(t, got, d(tc.want), "NaturalHedgeRatio("+tc.recv+", "+tc.payable+")")
	}
}

func TestClassify(t *testing.T) {
	cases := []struct {
		net  string
		want model.RiskLevel
	}{
		{"-772.6", model.RiskHigh},
		{"500", model.RiskHigh},
		{"577.3", model.RiskHigh},
		{"188.2", model.RiskMedium},
		{"100", model.RiskMedium},
		{"-150", model.RiskMedium},
		{"99.9", model.RiskLow},
		{"0", model.RiskLow},
	}
	for _, tc := range cases {
		if got := Classify(d(tc.net)); got != tc.want {
			t.Errorf("Classify(%s) = %s, want %s", tc.net, got, tc.want)
		}
	}
}

func TestDeriveSnapshot(t *testing.T) {
	items := sensitivityFixture()
	vol := map[model.Currency]model.VolatilityStats{
		model.USD: {Volatility: d("8.2")},
	}
	snap := DeriveSnapshot(items, vol)

	assertEqual(t, snap.TotalRecvBalance, d("846"), "total recv")
	assertEqual(t, snap.TotalPayableBalance, d("853.1"), "total payable")
	assertEqual(t, snap.NetExposure, d("-7.1"), "net exposure")
	if snap.MaxExposureCurrency != model.USD {
		t.Errorf("max exposure currency = %s, want USD", snap.MaxExposureCurrency)
	}
	assertEqual(t, snap.MaxExposureAmount, d("-772.6"), "max exposure amount")
	// (772.6 + 577.3 + 188.2) * 0.01
	assertEqual(t, snap.Impact1PctAll, d("15.381"), "impact 1pct all")
	assertEqual(t, snap.USDVolatility, d("8.2"), "usd volatility")

	wantHedge := d("80.5").Div(d("853.1")).Mul(d("100"))
	assertEqual(t, snap.USDNaturalHedge, wantHedge, "usd natural hedge")
}

func TestVerifySnapshot(t *testing.T) {
	items := sensitivityFixture()
	derived := DeriveSnapshot(items, nil)

	if err := VerifySnapshot(derived, items, nil); err != nil {
		t.Errorf("derived snapshot should verify against itself: %v", err)
	}

	drifted := derived
	drifted.NetExposure = derived.NetExposure.Add(d("1.0"))
	if err := VerifySnapshot(drifted, items, nil); err == nil {
		t.Error("drifted net exposure should fail verification")
	}

	wrongCcy := derived
	wrongCcy.MaxExposureCurrency = model.CNY
	if err := VerifySnapshot(wrongCcy, items, nil); err == nil {
		t.Error("wrong max exposure currency should fail verification")
	}
}
