// Package engine computes the derived dashboard metrics for a quarter
// bundle: year-over-year comparisons, currency breakdowns, chart rows, and
// rate deltas. Every function is stateless and side-effect free; lookups
// that miss yield zero rather than an error, so a currency with no reported
// activity reads as zero activity instead of failing the whole view.
package engine

import (
	"sort"

	"github.com/shopspring/decimal"

	"github.com/fxlens/fx-engine/internal/model"
	"github.com/fxlens/fx-engine/internal/quarter"
)

var hundred = decimal.NewFromInt(100)

// SelectSeries returns the comprehensive P&L series for the view mode.
func SelectSeries(b *model.QuarterBundle, v model.ViewMode) []model.ComprehensiveRecord {
	if v == model.ViewQuarterly {
		return b.Quarterly
	}
	return b.Cumulative
}

// Comparison is the resolved year-over-year baseline for a base quarter.
// Degraded is set when the year-ago label was absent and the positional
// fallback (five records back from series end) supplied the record instead.
type Comparison struct {
	Record   model.ComprehensiveRecord
	Label    quarter.Label
	Degraded bool
}

// ResolveComparison finds the record to compare the base quarter against.
// The primary rule is the same quarter one year earlier; for cumulative
// figures that label is the prior year-end position of the year-to-date sum,
// so a single transform serves both view modes. When the label is missing
// from the series the positional fallback fires; when even that is out of
// range the comparison is a zero record, keeping downstream math total.
func ResolveComparison(series []model.ComprehensiveRecord, base quarter.Label) Comparison {
	target := base.YearAgo()
	for _, r := range series {
		if r.Quarter == target {
			return Comparison{Record: r, Label: target}
		}
	}
	if i := len(series) - 5; i >= 0 {
		return Comparison{Record: series[i], Label: series[i].Quarter, Degraded: true}
	}
	return Comparison{Label: target, Degraded: true}
}

// YoYPercent returns the year-over-year change as a percentage already
// multiplied by 100. A zero baseline yields zero. The denominator is the
// absolute value of the baseline so that recovery from a loss reads as a
// positive percentage instead of being inverted by a negative denominator.
func YoYPercent(current, previous decimal.Decimal) decimal.Decimal {
	if previous.IsZero() {
		return decimal.Zero
	}
	return current.Sub(previous).Div(previous.Abs()).Mul(hundred)
}

// YoYAmount returns the signed year-over-year delta in eok.
func YoYAmount(current, previous decimal.Decimal) decimal.Decimal {
	return current.Sub(previous)
}

// BreakdownRow is one currency's share of the latest period's P&L.
type BreakdownRow struct {
	Currency model.Currency  `json:"currency"`
	Eval     decimal.Decimal `json:"eval"`
	Trade    decimal.Decimal `json:"trade"`
	Total    decimal.Decimal `json:"total"`
	Value    decimal.Decimal `json:"value"`
	Ratio    decimal.Decimal `json:"ratio"`
}

// CurrencyBreakdown combines the latest period's evaluation and trade P&L
// per currency and normalizes each currency's absolute share to a ratio
// summing to 100. Rows sort descending by absolute value; the sort is
// stable, so currencies with equal magnitudes keep the breakdown-set order.
func CurrencyBreakdown(evalSeries, tradeSeries []model.CurrencyPLRecord) []BreakdownRow {
	var evalAmounts, tradeAmounts model.CurrencyAmounts
	if n := len(evalSeries); n > 0 {
		evalAmounts = evalSeries[n-1].Amounts
	}
	if n := len(tradeSeries); n > 0 {
		tradeAmounts = tradeSeries[n-1].Amounts
	}

	rows := make([]BreakdownRow, 0, len(model.BreakdownCurrencies))
	absSum := decimal.Zero
	for _, c := range model.BreakdownCurrencies {
		ev := evalAmounts.Get(c)
		tr := tradeAmounts.Get(c)
		total := ev.Add(tr)
		rows = append(rows, BreakdownRow{
			Currency: c,
			Eval:     ev,
			Trade:    tr,
			Total:    total,
			Value:    total,
		})
		absSum = absSum.Add(total.Abs())
	}
	if !absSum.IsZero() {
		for i := range rows {
			rows[i].Ratio = rows[i].Value.Abs().Div(absSum).Mul(hundred)
		}
	}
	sort.SliceStable(rows, func(i, j int) bool {
		return rows[i].Value.Abs().GreaterThan(rows[j].Value.Abs())
	})
	return rows
}

// PLChartRow is one period of the net P&L chart.
type PLChartRow struct {
	Quarter quarter.Label   `json:"quarter"`
	Eval    decimal.Decimal `json:"eval"`
	Trade   decimal.Decimal `json:"trade"`
	Total   decimal.Decimal `json:"total"`
}

// PLChartRows maps a comprehensive series to chart rows, dropping the first
// record: the leading period exists only as a comparison baseline and is not
// charted.
func PLChartRows(series []model.ComprehensiveRecord) []PLChartRow {
	if len(series) <= 1 {
		return []PLChartRow{}
	}
	rows := make([]PLChartRow, 0, len(series)-1)
	for _, r := range series[1:] {
		rows = append(rows, PLChartRow{
			Quarter: r.Quarter,
			Eval:    r.EvalNetPL,
			Trade:   r.TradeNetPL,
			Total:   r.TotalNetPL,
		})
	}
	return rows
}

// RecvPayableRow is one period of the receivable/payable P&L chart. The
// shape is identical whether it was built from the company-wide series or a
// single currency's tables; chart consumers never see which path produced it.
type RecvPayableRow struct {
	Quarter      quarter.Label   `json:"quarter"`
	RecvEval     decimal.Decimal `json:"recv_eval"`
	RecvTrade    decimal.Decimal `json:"recv_trade"`
	RecvTotal    decimal.Decimal `json:"recv_total"`
	PayableEval  decimal.Decimal `json:"payable_eval"`
	PayableTrade decimal.Decimal `json:"payable_trade"`
	PayableTotal decimal.Decimal `json:"payable_total"`
}

// RecvPayableRows builds the receivable/payable chart series. With ALL
// selected each comprehensive record maps directly; with a single currency
// selected the per-currency tables are joined by quarter label, missing
// lookups defaulting to zero. Both paths drop the leading baseline period.
func RecvPayableRows(b *model.QuarterBundle, v model.ViewMode, selected string) []RecvPayableRow {
	if selected == "ALL" {
		series := SelectSeries(b, v)
		if len(series) <= 1 {
			return []RecvPayableRow{}
		}
		rows := make([]RecvPayableRow, 0, len(series)-1)
		for _, r := range series[1:] {
			rows = append(rows, RecvPayableRow{
				Quarter:      r.Quarter,
				RecvEval:     r.EvalRecvPL,
				RecvTrade:    r.TradeRecvPL,
				RecvTotal:    r.EvalRecvPL.Add(r.TradeRecvPL),
				PayableEval:  r.EvalPayablePL,
				PayableTrade: r.TradePayablePL,
				PayableTotal: r.EvalPayablePL.Add(r.TradePayablePL),
			})
		}
		return rows
	}

	ccy := model.Currency(selected)
	evalSeries := b.EvalSeries(v)
	payEval := amountsByQuarter(b.PayEvalSeries(v))
	recvTrade := amountsByQuarter(b.TradeSeries(v))
	payTrade := amountsByQuarter(b.PayTradeSeries(v))

	if len(evalSeries) <= 1 {
		return []RecvPayableRow{}
	}
	rows := make([]RecvPayableRow, 0, len(evalSeries)-1)
	for _, rec := range evalSeries[1:] {
		re := rec.Amounts.Get(ccy)
		rt := recvTrade[rec.Quarter].Get(ccy)
		pe := payEval[rec.Quarter].Get(ccy)
		pt := payTrade[rec.Quarter].Get(ccy)
		rows = append(rows, RecvPayableRow{
			Quarter:      rec.Quarter,
			RecvEval:     re,
			RecvTrade:    rt,
			RecvTotal:    re.Add(rt),
			PayableEval:  pe,
			PayableTrade: pt,
			PayableTotal: pe.Add(pt),
		})
	}
	return rows
}

func amountsByQuarter(recs []model.CurrencyPLRecord) map[quarter.Label]model.CurrencyAmounts {
	m := make(map[quarter.Label]model.CurrencyAmounts, len(recs))
	for _, r := range recs {
		m[r.Quarter] = r.Amounts
	}
	return m
}

// CurrencyCombinedRow is one currency's latest-period P&L across all four
// tables.
type CurrencyCombinedRow struct {
	Currency  model.Currency  `json:"currency"`
	RecvEval  decimal.Decimal `json:"recv_eval"`
	PayEval   decimal.Decimal `json:"pay_eval"`
	RecvTrade decimal.Decimal `json:"recv_trade"`
	PayTrade  decimal.Decimal `json:"pay_trade"`
	Total     decimal.Decimal `json:"total"`
}

// CurrencyCombined joins the latest period of the four per-currency tables
// into one row per breakdown currency.
func CurrencyCombined(b *model.QuarterBundle, v model.ViewMode) []CurrencyCombinedRow {
	latest := func(recs []model.CurrencyPLRecord) model.CurrencyAmounts {
		if n := len(recs); n > 0 {
			return recs[n-1].Amounts
		}
		return model.CurrencyAmounts{}
	}
	recvEval := latest(b.EvalSeries(v))
	payEval := latest(b.PayEvalSeries(v))
	recvTrade := latest(b.TradeSeries(v))
	payTrade := latest(b.PayTradeSeries(v))

	rows := make([]CurrencyCombinedRow, 0, len(model.BreakdownCurrencies))
	for _, c := range model.BreakdownCurrencies {
		re, pe := recvEval.Get(c), payEval.Get(c)
		rt, pt := recvTrade.Get(c), payTrade.Get(c)
		rows = append(rows, CurrencyCombinedRow{
			Currency:  c,
			RecvEval:  re,
			PayEval:   pe,
			RecvTrade: rt,
			PayTrade:  pt,
			Total:     re.Add(pe).Add(rt).Add(pt),
		})
	}
	return rows
}

// LatestSettlement returns the most recent period's settled amounts per
// currency. An empty series yields zero amounts.
func LatestSettlement(series []model.CurrencySettlementRecord) model.CurrencyAmounts {
	if n := len(series); n > 0 {
		return series[n-1].Amounts
	}
	return model.CurrencyAmounts{}
}

// RateDelta is the movement of one currency's rate between two periods.
type RateDelta struct {
	Currency model.Currency  `json:"currency"`
	Current  decimal.Decimal `json:"current"`
	Previous decimal.Decimal `json:"previous"`
	Change   decimal.Decimal `json:"change"`
	Percent  decimal.Decimal `json:"percent"`
}

// RateChange returns the signed delta and percent change between two rates.
// A zero baseline yields a zero percentage.
func RateChange(current, previous decimal.Decimal) (change, percent decimal.Decimal) {
	change = current.Sub(previous)
	if previous.IsZero() {
		return change, decimal.Zero
	}
	return change, change.Div(previous.Abs()).Mul(hundred)
}

// LatestRate returns the bundle's most recent exchange rate record. An
// empty series yields a zero record.
func LatestRate(b *model.QuarterBundle) model.ExchangeRateRecord {
	if n := len(b.ExchangeRates); n > 0 {
		return b.ExchangeRates[n-1]
	}
	return model.ExchangeRateRecord{}
}

// CompareRate resolves the baseline rate record for the view mode:
// cumulative compares against the prior year-end label, quarterly against
// the immediately preceding record. Missing baselines yield a zero record.
func CompareRate(b *model.QuarterBundle, v model.ViewMode) model.ExchangeRateRecord {
	n := len(b.ExchangeRates)
	if n == 0 {
		return model.ExchangeRateRecord{}
	}
	if v == model.ViewQuarterly {
		if n < 2 {
			return model.ExchangeRateRecord{}
		}
		return b.ExchangeRates[n-2]
	}
	target := b.ExchangeRates[n-1].Quarter.YearAgo()
	for _, r := range b.ExchangeRates {
		if r.Quarter == target {
			return r
		}
	}
	if i := n - 5; i >= 0 {
		return b.ExchangeRates[i]
	}
	return model.ExchangeRateRecord{}
}

// RateChanges joins the latest and comparison rate records into one delta
// row per currency.
func RateChanges(b *model.QuarterBundle, v model.ViewMode) []RateDelta {
	cur := LatestRate(b)
	prev := CompareRate(b, v)
	rows := make([]RateDelta, 0, len(model.AllCurrencies))
	for _, c := range model.AllCurrencies {
		cr, pr := cur.Rates.Get(c), prev.Rates.Get(c)
		change, pct := RateChange(cr, pr)
		rows = append(rows, RateDelta{
			Currency: c,
			Current:  cr,
			Previous: pr,
			Change:   change,
			Percent:  pct,
		})
	}
	return rows
}
