package model

import (
	"errors"
	"fmt"

	"github.com/shopspring/decimal"

	"github.com/fxlens/fx-engine/internal/quarter"
)

// ErrInvalidBundle wraps every ingest validation failure.
var ErrInvalidBundle = errors.New("model: invalid bundle")

// reconTolerance absorbs authoring rounding in sums of independently rounded
// per-currency figures: one decimal place of eok, split either way.
var reconTolerance = decimal.NewFromFloat(0.05)

func violation(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrInvalidBundle, fmt.Sprintf(format, args...))
}

func within(a, b, tol decimal.Decimal) bool {
	return a.Sub(b).Abs().LessThanOrEqual(tol)
}

// Validate checks every cross-entity invariant a bundle must satisfy before
// it is accepted into the store. Simple additive identities must hold
// exactly; sums over independently rounded per-currency figures may drift by
// at most one decimal place of eok.
func (b *QuarterBundle) Validate() error {
	if !b.BaseQuarter.Valid() {
		return violation("base quarter %q is not a valid label", b.BaseQuarter)
	}
	if len(b.Quarterly) == 0 || len(b.Cumulative) == 0 {
		return violation("comprehensive series must be non-empty")
	}

	if err := b.validateSeriesShape(); err != nil {
		return err
	}
	if err := b.validateComprehensive(); err != nil {
		return err
	}
	if err := b.validateReconciliation(); err != nil {
		return err
	}
	if err := b.validateBalances(); err != nil {
		return err
	}
	if err := b.validateSensitivity(); err != nil {
		return err
	}
	if err := b.validateScenarios(); err != nil {
		return err
	}
	return nil
}

// validateSeriesShape enforces the join-key discipline: both comprehensive
// series end at the base quarter, cover identical quarter sets, and run in
// ascending chronological order without gaps.
func (b *QuarterBundle) validateSeriesShape() error {
	if len(b.Quarterly) != len(b.Cumulative) {
		return violation("quarterly and cumulative series differ in length (%d vs %d)",
			len(b.Quarterly), len(b.Cumulative))
	}
	for i := range b.Quarterly {
		ql, cl := b.Quarterly[i].Quarter, b.Cumulative[i].Quarter
		if ql != cl {
			return violation("quarter set mismatch at index %d: quarterly %q vs cumulative %q", i, ql, cl)
		}
		if !ql.Valid() {
			return violation("malformed quarter label %q at index %d", ql, i)
		}
		if i > 0 && b.Quarterly[i-1].Quarter != ql.Prev() {
			return violation("series not gapless ascending: %q follows %q",
				ql, b.Quarterly[i-1].Quarter)
		}
	}
	last := b.Quarterly[len(b.Quarterly)-1].Quarter
	if last != b.BaseQuarter {
		return violation("series ends at %q, base quarter is %q", last, b.BaseQuarter)
	}
	return nil
}

// validateComprehensive enforces the additive P&L identities on every record
// of both series, and the year-boundary rule: at a year's first quarter the
// cumulative record equals the quarterly one.
func (b *QuarterBundle) validateComprehensive() error {
	check := func(series string, r ComprehensiveRecord) error {
		if !r.EvalNetPL.Equal(r.EvalRecvPL.Add(r.EvalPayablePL)) {
			return violation("%s %s: eval_net_pl %s != eval_recv_pl + eval_payable_pl",
				series, r.Quarter, r.EvalNetPL)
		}
		if !r.TradeNetPL.Equal(r.TradeRecvPL.Add(r.TradePayablePL)) {
			return violation("%s %s: trade_net_pl %s != trade_recv_pl + trade_payable_pl",
				series, r.Quarter, r.TradeNetPL)
		}
		if !r.TotalNetPL.Equal(r.EvalNetPL.Add(r.TradeNetPL)) {
			return violation("%s %s: total_net_pl %s != eval_net_pl + trade_net_pl",
				series, r.Quarter, r.TotalNetPL)
		}
		return nil
	}
	for _, r := range b.Quarterly {
		if err := check("quarterly", r); err != nil {
			return err
		}
	}
	for _, r := range b.Cumulative {
		if err := check("cumulative", r); err != nil {
			return err
		}
	}
	for i := range b.Cumulative {
		c, q := b.Cumulative[i], b.Quarterly[i]
		if c.Quarter.Quarter() != 1 {
			continue
		}
		if !c.TotalNetPL.Equal(q.TotalNetPL) || !c.EvalNetPL.Equal(q.EvalNetPL) ||
			!c.TradeNetPL.Equal(q.TradeNetPL) {
			return violation("%s: cumulative must equal quarterly at a year's first quarter", c.Quarter)
		}
	}
	return nil
}

// validateReconciliation checks that each per-currency P&L table sums to the
// matching comprehensive field, quarter by quarter.
func (b *QuarterBundle) validateReconciliation() error {
	type binding struct {
		name   string
		table  []CurrencyPLRecord
		field  func(ComprehensiveRecord) decimal.Decimal
		series []ComprehensiveRecord
	}
	bindings := []binding{
		{"recv eval quarterly", b.RecvEvalQuarterly, func(r ComprehensiveRecord) decimal.Decimal { return r.EvalRecvPL }, b.Quarterly},
		{"recv eval cumulative", b.RecvEvalCumulative, func(r ComprehensiveRecord) decimal.Decimal { return r.EvalRecvPL }, b.Cumulative},
		{"payable eval quarterly", b.PayEvalQuarterly, func(r ComprehensiveRecord) decimal.Decimal { return r.EvalPayablePL }, b.Quarterly},
		{"payable eval cumulative", b.PayEvalCumulative, func(r ComprehensiveRecord) decimal.Decimal { return r.EvalPayablePL }, b.Cumulative},
		{"recv trade quarterly", b.RecvTradeQuarterly, func(r ComprehensiveRecord) decimal.Decimal { return r.TradeRecvPL }, b.Quarterly},
		{"recv trade cumulative", b.RecvTradeCumulative, func(r ComprehensiveRecord) decimal.Decimal { return r.TradeRecvPL }, b.Cumulative},
		{"payable trade quarterly", b.PayTradeQuarterly, func(r ComprehensiveRecord) decimal.Decimal { return r.TradePayablePL }, b.Quarterly},
		{"payable trade cumulative", b.PayTradeCumulative, func(r ComprehensiveRecord) decimal.Decimal { return r.TradePayablePL }, b.Cumulative},
	}
	for _, bind := range bindings {
		byQuarter := make(map[quarter.Label]CurrencyAmounts, len(bind.table))
		for _, rec := range bind.table {
			byQuarter[rec.Quarter] = rec.Amounts
		}
		for _, comp := range bind.series {
			amounts, ok := byQuarter[comp.Quarter]
			if !ok {
				return violation("%s table missing quarter %s", bind.name, comp.Quarter)
			}
			sum := amounts.Sum(AllCurrencies)
			want := bind.field(comp)
			if !within(sum, want, reconTolerance) {
				return violation("%s %s: currency sum %s does not reconcile to %s",
					bind.name, comp.Quarter, sum, want)
			}
		}
	}
	return nil
}

// validateBalances enforces the sign convention: receivable balances are
// non-negative, payable balances non-positive.
func (b *QuarterBundle) validateBalances() error {
	for _, rec := range b.Balances {
		for _, c := range AllCurrencies {
			if rec.Recv.Get(c).IsNegative() {
				return violation("balance %s: negative receivable for %s", rec.Quarter, c)
			}
			if rec.Payable.Get(c).IsPositive() {
				return violation("balance %s: positive payable for %s", rec.Quarter, c)
			}
		}
	}
	return nil
}

// validateSensitivity enforces the per-currency exposure identity and the
// linear sensitivity approximation on every sensitivity row.
func (b *QuarterBundle) validateSensitivity() error {
	seen := make(map[Currency]bool, len(b.Sensitivity))
	for _, item := range b.Sensitivity {
		if !ValidCurrency(string(item.Currency)) {
			return violation("sensitivity: unknown currency %q", item.Currency)
		}
		if seen[item.Currency] {
			return violation("sensitivity: duplicate currency %s", item.Currency)
		}
		seen[item.Currency] = true
		if !item.NetExposure.Equal(item.RecvBalance.Add(item.PayableBalance)) {
			return violation("sensitivity %s: net_exposure %s != recv_balance + payable_balance",
				item.Currency, item.NetExposure)
		}
		linear := item.NetExposure.Mul(decimal.NewFromFloat(0.01))
		if !within(item.Change1Pct, linear, reconTolerance) {
			return violation("sensitivity %s: change_1pct %s deviates from linear %s",
				item.Currency, item.Change1Pct, linear)
		}
		switch item.RiskLevel {
		case RiskHigh, RiskMedium, RiskLow:
		default:
			return violation("sensitivity %s: unknown risk level %q", item.Currency, item.RiskLevel)
		}
	}
	return nil
}

// validateScenarios enforces total additivity on every scenario row.
func (b *QuarterBundle) validateScenarios() error {
	for _, s := range b.Scenarios {
		sum := s.USD.Add(s.CNY).Add(s.HKD).Add(s.EUR)
		if !s.Total.Equal(sum) {
			return violation("scenario %q: total %s != sum of currency impacts %s",
				s.Scenario, s.Total, sum)
		}
	}
	return nil
}
