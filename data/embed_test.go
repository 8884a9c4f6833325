package data

import (
	"testing"

	"github.com/shopspring/decimal"

	"github.com/fxlens/fx-engine/internal/engine"
	"github.com/fxlens/fx-engine/internal/model"
	"github.com/fxlens/fx-engine/internal/quarter"
	"github.com/fxlens/fx-engine/internal/risk"
)

func TestSeedBundlesDecodeAndValidate(t *testing.T) {
	bundles, err := SeedBundles()
	if err != nil {
		t.Fatalf("SeedBundles: %v", err)
	}
	if len(bundles) != 2 {
		t.Fatalf("got %d bundles, want 2", len(bundles))
	}
	if string(bundles[0].BaseQuarter) != "25.3Q" || string(bundles[1].BaseQuarter) != "25.4Q" {
		t.Errorf("unexpected base quarters: %s, %s", bundles[0].BaseQuarter, bundles[1].BaseQuarter)
	}

	for _, b := range bundles {
		if b.RiskIndicators == nil {
			t.Errorf("%s: seed bundle should carry an authored risk snapshot", b.BaseQuarter)
			continue
		}
		if err := risk.VerifySnapshot(*b.RiskIndicators, b.Sensitivity, b.Volatility); err != nil {
			t.Errorf("%s: %v", b.BaseQuarter, err)
		}
	}
}

// The 25.3Q bundle carries the reference figures the dashboard displays:
// cumulative total 22.7 against a 24.3Q baseline of 20.0.
func TestSeedBundleReferenceFigures(t *testing.T) {
	bundles, err := SeedBundles()
	if err != nil {
		t.Fatalf("SeedBundles: %v", err)
	}
	b := bundles[0]

	series := engine.SelectSeries(b, model.ViewCumulative)
	current := series[len(series)-1]
	if !current.TotalNetPL.Equal(decimal.RequireFromString("22.7")) {
		t.Errorf("cumulative total = %s, want 22.7", current.TotalNetPL)
	}

	cmp := engine.ResolveComparison(series, b.BaseQuarter)
	if cmp.Degraded {
		t.Error("comparison should resolve by label")
	}
	if cmp.Label != quarter.MustParse("24.3Q") {
		t.Errorf("comparison label = %s, want 24.3Q", cmp.Label)
	}
	if !cmp.Record.TotalNetPL.Equal(decimal.RequireFromString("20.0")) {
		t.Errorf("comparison total = %s, want 20.0", cmp.Record.TotalNetPL)
	}

	yoy := engine.YoYPercent(current.TotalNetPL, cmp.Record.TotalNetPL)
	if !yoy.Equal(decimal.RequireFromString("13.5")) {
		t.Errorf("yoy percent = %s, want 13.5", yoy)
	}

	quarterly := engine.SelectSeries(b, model.ViewQuarterly)
	latest := quarterly[len(quarterly)-1]
	if !latest.EvalNetPL.Equal(decimal.RequireFromString("20.0")) {
		t.Errorf("quarterly eval net = %s, want 20.0", latest.EvalNetPL)
	}
	if !latest.TotalNetPL.Equal(decimal.RequireFromString("54.3")) {
		t.Errorf("quarterly total = %s, want 54.3", latest.TotalNetPL)
	}
}
