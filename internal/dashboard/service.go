// Package dashboard provides the HTTP handlers serving derived FX metrics
// to the dashboard frontend: quarter listings, bundle ingest, and the
// computed overview/chart/risk views.
//
// All monetary values use shopspring/decimal — never float64 for money.
package dashboard

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/fxlens/fx-engine/internal/engine"
	"github.com/fxlens/fx-engine/internal/metrics"
	"github.com/fxlens/fx-engine/internal/model"
	"github.com/fxlens/fx-engine/internal/quarter"
	"github.com/fxlens/fx-engine/internal/risk"
	"github.com/fxlens/fx-engine/internal/store"
)

// Service handles dashboard queries and bundle ingest. All derived metrics
// are recomputed per request from the stored bundle; the bundle itself is
// immutable, so there is nothing to keep consistent between requests.
type Service struct {
	store store.Store
	wsHub *WSHub // optional WebSocket hub for bundle-update broadcasts
}

// NewService creates a new dashboard service.
// Pass nil for hub if WebSocket broadcasting is not needed.
func NewService(st store.Store, hub *WSHub) *Service {
	return &Service{store: st, wsHub: hub}
}

// Routes mounts every dashboard endpoint on the router.
func (s *Service) Routes(r chi.Router) {
	r.Get("/quarters", s.ListQuarters)
	r.Post("/quarters", s.IngestBundle)
	r.Get("/quarters/{quarter}/overview", s.GetOverview)
	r.Get("/quarters/{quarter}/charts/pl", s.GetPLChart)
	r.Get("/quarters/{quarter}/charts/recv-payable", s.GetRecvPayableChart)
	r.Get("/quarters/{quarter}/currencies", s.GetCurrencies)
	r.Get("/quarters/{quarter}/sensitivity", s.GetSensitivity)
	r.Get("/quarters/{quarter}/scenarios", s.GetScenarios)
	r.Get("/quarters/{quarter}/risk", s.GetRisk)
	r.Get("/quarters/{quarter}/advisories", s.GetAdvisories)
	if s.wsHub != nil {
		r.Get("/ws", s.wsHub.HandleWS)
	}
}

// --- Request/Response types ---

// QuartersResponse lists the stored base quarters.
type QuartersResponse struct {
	Quarters []quarter.Label `json:"quarters"`
	Latest   quarter.Label   `json:"latest,omitempty"`
}

// IngestResponse confirms an accepted bundle.
type IngestResponse struct {
	BaseQuarter quarter.Label `json:"base_quarter"`
	RevisionID  string        `json:"revision_id"`
	LastUpdated time.Time     `json:"last_updated"`
}

// PLComparison pairs a current value with its year-over-year baseline.
type PLComparison struct {
	Current    decimal.Decimal `json:"current"`
	Previous   decimal.Decimal `json:"previous"`
	YoYPercent decimal.Decimal `json:"yoy_percent"`
	YoYAmount  decimal.Decimal `json:"yoy_amount"`
}

// OverviewResponse is the KPI block for one base quarter and view mode.
type OverviewResponse struct {
	BaseQuarter    quarter.Label  `json:"base_quarter"`
	View           model.ViewMode `json:"view"`
	CompareQuarter quarter.Label  `json:"compare_quarter"`
	// Degraded is set when the year-ago quarter was absent and a
	// positional fallback supplied the baseline.
	Degraded bool `json:"degraded"`

	Total   PLComparison `json:"total"`
	Eval    PLComparison `json:"eval"`
	Trade   PLComparison `json:"trade"`
	Recv    PLComparison `json:"recv"`
	Payable PLComparison `json:"payable"`

	SettlementRecv    PLComparison `json:"settlement_recv"`
	SettlementPayable PLComparison `json:"settlement_payable"`

	// Period-end notional balances for the base quarter.
	RecvBalance    decimal.Decimal `json:"recv_balance"`
	PayableBalance decimal.Decimal `json:"payable_balance"`

	// Latest per-currency settled amounts for the view's most recent period.
	SettledRecv    model.CurrencyAmounts `json:"settled_recv"`
	SettledPayable model.CurrencyAmounts `json:"settled_payable"`

	Breakdown []engine.BreakdownRow `json:"breakdown"`
	Rates     []engine.RateDelta    `json:"rates"`

	LastUpdated time.Time `json:"last_updated"`
}

// ChartResponse wraps chart rows with their selectors.
type ChartResponse struct {
	BaseQuarter quarter.Label  `json:"base_quarter"`
	View        model.ViewMode `json:"view"`
	Currency    string         `json:"currency,omitempty"`
	Rows        any            `json:"rows"`
}

// SensitivityResponse pairs the per-currency rows with the aggregate
// exposure recomputed from them.
type SensitivityResponse struct {
	BaseQuarter quarter.Label             `json:"base_quarter"`
	Items       []model.SensitivityRecord `json:"items"`
	Exposure    risk.Exposure             `json:"exposure"`
}

// RiskResponse carries the snapshot derived from the sensitivity rows.
type RiskResponse struct {
	BaseQuarter quarter.Label      `json:"base_quarter"`
	Snapshot    model.RiskSnapshot `json:"snapshot"`
}

// AdvisoriesResponse carries the authored hedging guidance.
type AdvisoriesResponse struct {
	BaseQuarter     quarter.Label          `json:"base_quarter"`
	Recommendations []model.Recommendation `json:"recommendations"`
	ActionPlans     []model.ActionPlan     `json:"action_plans"`
}

// --- HTTP Handlers ---

// ListQuarters handles GET /api/v1/quarters
func (s *Service) ListQuarters(w http.ResponseWriter, r *http.Request) {
	labels, err := s.store.ListQuarters(r.Context())
	if err != nil {
		writeError(w, "failed to list quarters", http.StatusInternalServerError)
		return
	}
	if labels == nil {
		labels = []quarter.Label{}
	}
	resp := QuartersResponse{Quarters: labels}
	if len(labels) > 0 {
		resp.Latest = labels[len(labels)-1]
	}
	writeJSON(w, http.StatusOK, resp)
}

// IngestBundle handles POST /api/v1/quarters
// Validates every cross-entity invariant before the bundle is accepted;
// a bundle for an existing base quarter replaces it atomically.
func (s *Service) IngestBundle(w http.ResponseWriter, r *http.Request) {
	var b model.QuarterBundle
	if err := json.NewDecoder(r.Body).Decode(&b); err != nil {
		writeError(w, "invalid request body", http.StatusBadRequest)
		return
	}

	if err := b.Validate(); err != nil {
		metrics.BundlesIngested.WithLabelValues("rejected").Inc()
		writeError(w, err.Error(), http.StatusUnprocessableEntity)
		return
	}
	if b.RiskIndicators != nil {
		if err := risk.VerifySnapshot(*b.RiskIndicators, b.Sensitivity, b.Volatility); err != nil {
			metrics.BundlesIngested.WithLabelValues("rejected").Inc()
			writeError(w, err.Error(), http.StatusUnprocessableEntity)
			return
		}
	}

	b.RevisionID = uuid.New().String()
	b.LastUpdated = time.Now().UTC()

	ctx := r.Context()
	if err := s.store.SaveBundle(ctx, &b); err != nil {
		metrics.BundlesIngested.WithLabelValues("rejected").Inc()
		writeError(w, "failed to save bundle", http.StatusInternalServerError)
		return
	}
	metrics.BundlesIngested.WithLabelValues("accepted").Inc()
	if labels, err := s.store.ListQuarters(ctx); err == nil {
		metrics.StoredQuarters.Set(float64(len(labels)))
	}

	slog.Info("bundle ingested",
		"base_quarter", b.BaseQuarter,
		"revision_id", b.RevisionID,
		"quarters", len(b.Quarterly),
	)

	if s.wsHub != nil {
		s.wsHub.Broadcast(WSMessage{
			Type:        "bundle_updated",
			BaseQuarter: string(b.BaseQuarter),
			RevisionID:  b.RevisionID,
			LastUpdated: b.LastUpdated.Format(time.RFC3339),
		})
	}

	writeJSON(w, http.StatusCreated, IngestResponse{
		BaseQuarter: b.BaseQuarter,
		RevisionID:  b.RevisionID,
		LastUpdated: b.LastUpdated,
	})
}

// GetOverview handles GET /api/v1/quarters/{quarter}/overview?view=
func (s *Service) GetOverview(w http.ResponseWriter, r *http.Request) {
	b, ok := s.loadBundle(w, r)
	if !ok {
		return
	}
	view, ok := parseView(w, r)
	if !ok {
		return
	}

	series := engine.SelectSeries(b, view)
	var current model.ComprehensiveRecord
	if len(series) > 0 {
		current = series[len(series)-1]
	}
	cmp := engine.ResolveComparison(series, b.BaseQuarter)
	prev := cmp.Record

	compare := func(c, p decimal.Decimal) PLComparison {
		return PLComparison{
			Current:    c,
			Previous:   p,
			YoYPercent: engine.YoYPercent(c, p),
			YoYAmount:  engine.YoYAmount(c, p),
		}
	}

	resp := OverviewResponse{
		BaseQuarter:    b.BaseQuarter,
		View:           view,
		CompareQuarter: cmp.Label,
		Degraded:       cmp.Degraded,
		Total:          compare(current.TotalNetPL, prev.TotalNetPL),
		Eval:           compare(current.EvalNetPL, prev.EvalNetPL),
		Trade:          compare(current.TradeNetPL, prev.TradeNetPL),
		Recv: compare(
			current.EvalRecvPL.Add(current.TradeRecvPL),
			prev.EvalRecvPL.Add(prev.TradeRecvPL),
		),
		Payable: compare(
			current.EvalPayablePL.Add(current.TradePayablePL),
			prev.EvalPayablePL.Add(prev.TradePayablePL),
		),
		SettlementRecv:    compare(current.SettlementRecv, prev.SettlementRecv),
		SettlementPayable: compare(current.SettlementPayable, prev.SettlementPayable),
		RecvBalance:       current.RecvBalance,
		PayableBalance:    current.PayableBalance,
		SettledRecv:       engine.LatestSettlement(b.RecvSettlementSeries(view)),
		SettledPayable:    engine.LatestSettlement(b.PaySettlementSeries(view)),
		Breakdown:         engine.CurrencyBreakdown(b.EvalSeries(view), b.TradeSeries(view)),
		Rates:             engine.RateChanges(b, view),
		LastUpdated:       b.LastUpdated,
	}
	writeJSON(w, http.StatusOK, resp)
}

// GetPLChart handles GET /api/v1/quarters/{quarter}/charts/pl?view=
func (s *Service) GetPLChart(w http.ResponseWriter, r *http.Request) {
	b, ok := s.loadBundle(w, r)
	if !ok {
		return
	}
	view, ok := parseView(w, r)
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, ChartResponse{
		BaseQuarter: b.BaseQuarter,
		View:        view,
		Rows:        engine.PLChartRows(engine.SelectSeries(b, view)),
	})
}

// GetRecvPayableChart handles
// GET /api/v1/quarters/{quarter}/charts/recv-payable?view=&currency=
func (s *Service) GetRecvPayableChart(w http.ResponseWriter, r *http.Request) {
	b, ok := s.loadBundle(w, r)
	if !ok {
		return
	}
	view, ok := parseView(w, r)
	if !ok {
		return
	}
	ccy, ok := parseCurrency(w, r)
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, ChartResponse{
		BaseQuarter: b.BaseQuarter,
		View:        view,
		Currency:    ccy,
		Rows:        engine.RecvPayableRows(b, view, ccy),
	})
}

// GetCurrencies handles GET /api/v1/quarters/{quarter}/currencies?view=
func (s *Service) GetCurrencies(w http.ResponseWriter, r *http.Request) {
	b, ok := s.loadBundle(w, r)
	if !ok {
		return
	}
	view, ok := parseView(w, r)
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, ChartResponse{
		BaseQuarter: b.BaseQuarter,
		View:        view,
		Rows:        engine.CurrencyCombined(b, view),
	})
}

// GetSensitivity handles GET /api/v1/quarters/{quarter}/sensitivity
func (s *Service) GetSensitivity(w http.ResponseWriter, r *http.Request) {
	b, ok := s.loadBundle(w, r)
	if !ok {
		return
	}
	items := b.Sensitivity
	if items == nil {
		items = []model.SensitivityRecord{}
	}
	writeJSON(w, http.StatusOK, SensitivityResponse{
		BaseQuarter: b.BaseQuarter,
		Items:       items,
		Exposure:    risk.Aggregate(items),
	})
}

// GetScenarios handles GET /api/v1/quarters/{quarter}/scenarios
func (s *Service) GetScenarios(w http.ResponseWriter, r *http.Request) {
	b, ok := s.loadBundle(w, r)
	if !ok {
		return
	}
	scenarios := b.Scenarios
	if scenarios == nil {
		scenarios = []model.ScenarioRecord{}
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"base_quarter": b.BaseQuarter,
		"scenarios":    scenarios,
	})
}

// GetRisk handles GET /api/v1/quarters/{quarter}/risk
// The snapshot is always derived from the sensitivity rows; an authored
// snapshot inside the bundle is checked at ingest but never served.
func (s *Service) GetRisk(w http.ResponseWriter, r *http.Request) {
	b, ok := s.loadBundle(w, r)
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, RiskResponse{
		BaseQuarter: b.BaseQuarter,
		Snapshot:    risk.DeriveSnapshot(b.Sensitivity, b.Volatility),
	})
}

// GetAdvisories handles GET /api/v1/quarters/{quarter}/advisories
func (s *Service) GetAdvisories(w http.ResponseWriter, r *http.Request) {
	b, ok := s.loadBundle(w, r)
	if !ok {
		return
	}
	recs := b.Recommendations
	if recs == nil {
		recs = []model.Recommendation{}
	}
	plans := b.ActionPlans
	if plans == nil {
		plans = []model.ActionPlan{}
	}
	writeJSON(w, http.StatusOK, AdvisoriesResponse{
		BaseQuarter:     b.BaseQuarter,
		Recommendations: recs,
		ActionPlans:     plans,
	})
}

// --- Helpers ---

// loadBundle resolves the {quarter} URL parameter to a stored bundle,
// writing the error response itself when the lookup fails.
func (s *Service) loadBundle(w http.ResponseWriter, r *http.Request) (*model.QuarterBundle, bool) {
	label, err := quarter.Parse(chi.URLParam(r, "quarter"))
	if err != nil {
		writeError(w, err.Error(), http.StatusBadRequest)
		return nil, false
	}
	b, err := s.store.GetBundle(r.Context(), label)
	if errors.Is(err, store.ErrNotFound) {
		writeError(w, "no bundle for quarter "+string(label), http.StatusNotFound)
		return nil, false
	}
	if err != nil {
		writeError(w, "failed to load bundle", http.StatusInternalServerError)
		return nil, false
	}
	return b, true
}

// parseView reads the view selector, defaulting to cumulative.
func parseView(w http.ResponseWriter, r *http.Request) (model.ViewMode, bool) {
	v := r.URL.Query().Get("view")
	if v == "" {
		return model.ViewCumulative, true
	}
	if !model.ValidViewMode(v) {
		writeError(w, "view must be quarterly or cumulative", http.StatusBadRequest)
		return "", false
	}
	return model.ViewMode(v), true
}

// parseCurrency reads the currency selector, defaulting to ALL.
func parseCurrency(w http.ResponseWriter, r *http.Request) (string, bool) {
	c := r.URL.Query().Get("currency")
	if c == "" || c == "ALL" {
		return "ALL", true
	}
	if !model.ValidCurrency(c) {
		writeError(w, "unknown currency: "+c, http.StatusBadRequest)
		return "", false
	}
	return c, true
}

// writeJSON writes a JSON response with the given status.
func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

// writeError writes a JSON error response.
func writeError(w http.ResponseWriter, message string, status int) {
	writeJSON(w, status, map[string]string{"error": message})
}
