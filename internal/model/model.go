// Package model defines the core domain types shared across the FX engine.
// All monetary values use shopspring/decimal — never float64 for money.
// Amounts are denominated in eok (hundred-million KRW); percentages are
// stored already multiplied by 100.
package model

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/fxlens/fx-engine/internal/quarter"
)

// Currency is a supported foreign currency code.
type Currency string

const (
	USD Currency = "USD"
	CNY Currency = "CNY"
	HKD Currency = "HKD"
	EUR Currency = "EUR"
	JPY Currency = "JPY"
	TWD Currency = "TWD"
)

// AllCurrencies lists every currency the engine understands.
var AllCurrencies = []Currency{USD, CNY, HKD, EUR, JPY, TWD}

// BreakdownCurrencies is the fixed set used for P&L breakdowns. The order
// is also the tie-break order under a stable sort.
var BreakdownCurrencies = []Currency{CNY, HKD, USD, EUR, TWD}

// ValidCurrency reports whether code names a supported currency.
func ValidCurrency(code string) bool {
	for _, c := range AllCurrencies {
		if string(c) == code {
			return true
		}
	}
	return false
}

// ViewMode selects the quarterly (single-period flow) or cumulative
// (year-to-date, resetting at year boundaries) series of a bundle.
type ViewMode string

const (
	ViewQuarterly  ViewMode = "quarterly"
	ViewCumulative ViewMode = "cumulative"
)

// ValidViewMode reports whether v names a supported view mode.
func ValidViewMode(v string) bool {
	return v == string(ViewQuarterly) || v == string(ViewCumulative)
}

// CurrencyAmounts holds one amount per supported currency. A fixed-field
// struct instead of a string-keyed map: currencies absent from a series stay
// at decimal zero, preserving the missing-key-means-zero lookup policy
// without structural optionality.
type CurrencyAmounts struct {
	USD decimal.Decimal `json:"USD"`
	CNY decimal.Decimal `json:"CNY"`
	HKD decimal.Decimal `json:"HKD"`
	EUR decimal.Decimal `json:"EUR"`
	JPY decimal.Decimal `json:"JPY"`
	TWD decimal.Decimal `json:"TWD"`
}

// Get returns the amount for ccy. Unknown codes return zero.
func (a CurrencyAmounts) Get(ccy Currency) decimal.Decimal {
	switch ccy {
	case USD:
		return a.USD
	case CNY:
		return a.CNY
	case HKD:
		return a.HKD
	case EUR:
		return a.EUR
	case JPY:
		return a.JPY
	case TWD:
		return a.TWD
	default:
		return decimal.Zero
	}
}

// Sum returns the total across the given currencies.
func (a CurrencyAmounts) Sum(ccys []Currency) decimal.Decimal {
	total := decimal.Zero
	for _, c := range ccys {
		total = total.Add(a.Get(c))
	}
	return total
}

// ExchangeRateRecord is the period-end spot rate per currency, in KRW per
// one foreign-currency unit.
type ExchangeRateRecord struct {
	Quarter quarter.Label   `json:"quarter"`
	Rates   CurrencyAmounts `json:"rates"`
}

// ComprehensiveRecord is one period of the company-wide FX P&L series.
// Identities that must hold: EvalNetPL = EvalRecvPL + EvalPayablePL,
// TradeNetPL = TradeRecvPL + TradePayablePL, TotalNetPL = EvalNetPL +
// TradeNetPL. Payable balances are stored non-positive; the sign encodes
// direction.
type ComprehensiveRecord struct {
	Quarter           quarter.Label   `json:"quarter"`
	Year              int             `json:"year"`
	RecvBalance       decimal.Decimal `json:"recv_balance"`
	PayableBalance    decimal.Decimal `json:"payable_balance"`
	EvalRecvPL        decimal.Decimal `json:"eval_recv_pl"`
	EvalPayablePL     decimal.Decimal `json:"eval_payable_pl"`
	EvalNetPL         decimal.Decimal `json:"eval_net_pl"`
	TradeRecvPL       decimal.Decimal `json:"trade_recv_pl"`
	TradePayablePL    decimal.Decimal `json:"trade_payable_pl"`
	TradeNetPL        decimal.Decimal `json:"trade_net_pl"`
	SettlementRecv    decimal.Decimal `json:"settlement_recv"`
	SettlementPayable decimal.Decimal `json:"settlement_payable"`
	TotalNetPL        decimal.Decimal `json:"total_net_pl"`
}

// CurrencyPLRecord is one period of a per-currency P&L table (receivable
// evaluation, payable evaluation, receivable trade, or payable trade).
type CurrencyPLRecord struct {
	Quarter quarter.Label   `json:"quarter"`
	Amounts CurrencyAmounts `json:"amounts"`
}

// CurrencyBalanceRecord is the period-end notional balance per currency.
// Receivable balances are non-negative; payable balances non-positive.
type CurrencyBalanceRecord struct {
	Quarter quarter.Label   `json:"quarter"`
	Recv    CurrencyAmounts `json:"recv"`
	Payable CurrencyAmounts `json:"payable"`
}

// CurrencySettlementRecord is one period of settled (collected or paid)
// amounts per currency.
type CurrencySettlementRecord struct {
	Quarter quarter.Label   `json:"quarter"`
	Amounts CurrencyAmounts `json:"amounts"`
}

// RiskLevel grades a single currency's exposure.
type RiskLevel string

const (
	RiskHigh   RiskLevel = "high"
	RiskMedium RiskLevel = "medium"
	RiskLow    RiskLevel = "low"
)

// SensitivityRecord is one currency's exposure snapshot for the bundle's
// latest period. NetExposure = RecvBalance + PayableBalance (payable already
// signed negative); Change1Pct is the linear 1% rate-shock impact.
type SensitivityRecord struct {
	Currency       Currency        `json:"currency"`
	RecvBalance    decimal.Decimal `json:"recv_balance"`
	PayableBalance decimal.Decimal `json:"payable_balance"`
	NetExposure    decimal.Decimal `json:"net_exposure"`
	CurrentRate    decimal.Decimal `json:"current_rate"`
	Change1Pct     decimal.Decimal `json:"change_1pct"`
	Change10Won    decimal.Decimal `json:"change_10won"`
	RiskLevel      RiskLevel       `json:"risk_level"`
	HedgeRatio     decimal.Decimal `json:"hedge_ratio"`
}

// ScenarioRecord is one what-if rate scenario with per-currency impacts.
// Total = USD + CNY + HKD + EUR.
type ScenarioRecord struct {
	Scenario    string          `json:"scenario"`
	Description string          `json:"description"`
	USD         decimal.Decimal `json:"USD"`
	CNY         decimal.Decimal `json:"CNY"`
	HKD         decimal.Decimal `json:"HKD"`
	EUR         decimal.Decimal `json:"EUR"`
	Total       decimal.Decimal `json:"total"`
}

// VolatilityStats describes one currency's observed rate volatility.
type VolatilityStats struct {
	StdDev     decimal.Decimal `json:"std_dev"`
	Min        decimal.Decimal `json:"min"`
	Max        decimal.Decimal `json:"max"`
	Volatility decimal.Decimal `json:"volatility"` // percent
}

// RiskSnapshot is the aggregate exposure picture for a base quarter. The
// engine derives it from the sensitivity rows; an authored copy riding along
// in a bundle is cross-checked at ingest, never served.
type RiskSnapshot struct {
	TotalRecvBalance    decimal.Decimal `json:"total_recv_balance"`
	TotalPayableBalance decimal.Decimal `json:"total_payable_balance"`
	NetExposure         decimal.Decimal `json:"net_exposure"`
	NetExposureRatio    decimal.Decimal `json:"net_exposure_ratio"`
	USDNaturalHedge     decimal.Decimal `json:"usd_natural_hedge_ratio"`
	USDVolatility       decimal.Decimal `json:"usd_volatility"`
	MaxExposureCurrency Currency        `json:"max_exposure_currency"`
	MaxExposureAmount   decimal.Decimal `json:"max_exposure_amount"`
	Impact1PctAll       decimal.Decimal `json:"impact_1pct_all"`
}

// Recommendation is a hedging recommendation authored alongside a bundle.
type Recommendation struct {
	Currency    Currency `json:"currency"`
	Title       string   `json:"title"`
	Description string   `json:"description"`
	Priority    string   `json:"priority"`
	Actions     []string `json:"actions"`
}

// ActionPlan is one time-horizon entry of the hedging action plan.
type ActionPlan struct {
	Period   string   `json:"period"`
	Label    string   `json:"label"`
	Duration string   `json:"duration"`
	Actions  []string `json:"actions"`
}

// QuarterBundle is the full, immutable record-store bundle for one base
// quarter. Switching base quarter swaps the whole bundle atomically; nothing
// mutates a bundle after ingest.
type QuarterBundle struct {
	BaseQuarter quarter.Label `json:"base_quarter"`
	RevisionID  string        `json:"revision_id,omitempty"`
	LastUpdated time.Time     `json:"last_updated"`

	ExchangeRates []ExchangeRateRecord `json:"exchange_rates"`

	Quarterly  []ComprehensiveRecord `json:"quarterly"`
	Cumulative []ComprehensiveRecord `json:"cumulative"`

	RecvEvalQuarterly   []CurrencyPLRecord `json:"recv_eval_quarterly"`
	RecvEvalCumulative  []CurrencyPLRecord `json:"recv_eval_cumulative"`
	PayEvalQuarterly    []CurrencyPLRecord `json:"pay_eval_quarterly"`
	PayEvalCumulative   []CurrencyPLRecord `json:"pay_eval_cumulative"`
	RecvTradeQuarterly  []CurrencyPLRecord `json:"recv_trade_quarterly"`
	RecvTradeCumulative []CurrencyPLRecord `json:"recv_trade_cumulative"`
	PayTradeQuarterly   []CurrencyPLRecord `json:"pay_trade_quarterly"`
	PayTradeCumulative  []CurrencyPLRecord `json:"pay_trade_cumulative"`

	Balances []CurrencyBalanceRecord `json:"balances"`

	RecvSettlementQuarterly  []CurrencySettlementRecord `json:"recv_settlement_quarterly"`
	RecvSettlementCumulative []CurrencySettlementRecord `json:"recv_settlement_cumulative"`
	PaySettlementQuarterly   []CurrencySettlementRecord `json:"pay_settlement_quarterly"`
	PaySettlementCumulative  []CurrencySettlementRecord `json:"pay_settlement_cumulative"`

	Sensitivity []SensitivityRecord          `json:"sensitivity"`
	Scenarios   []ScenarioRecord             `json:"scenarios"`
	Volatility  map[Currency]VolatilityStats `json:"volatility,omitempty"`

	// Authored aggregate snapshot; optional.
	RiskIndicators *RiskSnapshot `json:"risk_indicators,omitempty"`

	Recommendations []Recommendation `json:"recommendations,omitempty"`
	ActionPlans     []ActionPlan     `json:"action_plans,omitempty"`
}

// EvalSeries returns the per-currency receivable evaluation P&L table for
// the given view mode.
func (b *QuarterBundle) EvalSeries(v ViewMode) []CurrencyPLRecord {
	if v == ViewQuarterly {
		return b.RecvEvalQuarterly
	}
	return b.RecvEvalCumulative
}

// PayEvalSeries returns the per-currency payable evaluation P&L table.
func (b *QuarterBundle) PayEvalSeries(v ViewMode) []CurrencyPLRecord {
	if v == ViewQuarterly {
		return b.PayEvalQuarterly
	}
	return b.PayEvalCumulative
}

// TradeSeries returns the per-currency receivable trade P&L table.
func (b *QuarterBundle) TradeSeries(v ViewMode) []CurrencyPLRecord {
	if v == ViewQuarterly {
		return b.RecvTradeQuarterly
	}
	return b.RecvTradeCumulative
}

// PayTradeSeries returns the per-currency payable trade P&L table.
func (b *QuarterBundle) PayTradeSeries(v ViewMode) []CurrencyPLRecord {
	if v == ViewQuarterly {
		return b.PayTradeQuarterly
	}
	return b.PayTradeCumulative
}

// RecvSettlementSeries returns the per-currency collection table.
func (b *QuarterBundle) RecvSettlementSeries(v ViewMode) []CurrencySettlementRecord {
	if v == ViewQuarterly {
		return b.RecvSettlementQuarterly
	}
	return b.RecvSettlementCumulative
}

// PaySettlementSeries returns the per-currency payment table.
func (b *QuarterBundle) PaySettlementSeries(v ViewMode) []CurrencySettlementRecord {
	if v == ViewQuarterly {
		return b.PaySettlementQuarterly
	}
	return b.PaySettlementCumulative
}
