package http

import (
	"fmt"
	"net/http"
	"sync/atomic"

	"fondi/internal/core"
	"fondi/internal/log"
)

type ruleRequest struct {
	FundID   string `json:"fundId"`
	AssetID  string `json:"assetId"`
	Kind     string `json:"kind"`
	Value    int64  `json:"value"`
	Priority int    `json:"priority"`
}

// checkRuleTarget verifies the rule points at a live fund and one of its
// assets. Rules are also re-checked at distribution time; this check just
// catches typos at creation instead of at the next payday.
func (s *Server) checkRuleTarget(r *http.Request, rule core.DistributionRule) error {
	fund, err := s.store.GetFund(r.Context(), rule.FundID)
	if err != nil {
		return err
	}
	if fund.IsArchived() {
		return fmt.Errorf("fund %s: %w", fund.ID, core.ErrFundArchived)
	}
	if _, ok := fund.AssetByID(rule.AssetID); !ok {
		return fmt.Errorf("asset %s: %w", rule.AssetID, core.ErrUnknownAsset)
	}
	return nil
}

func (s *Server) handleCreateRule(w http.ResponseWriter, r *http.Request) {
	var req ruleRequest
	if err := decodeJSON(r, &req); err != nil {
		invalidBody(w, err)
		return
	}

	rule := core.DistributionRule{
		FundID:   req.FundID,
		AssetID:  req.AssetID,
		Kind:     core.RuleKind(req.Kind),
		Value:    req.Value,
		Priority: req.Priority,
	}
	if err := rule.Validate(); err != nil {
		s.respondError(w, r, err)
		return
	}
	if err := s.checkRuleTarget(r, rule); err != nil {
		s.respondError(w, r, err)
		return
	}

	created, err := s.store.CreateRule(r.Context(), rule)
	if err != nil {
		s.respondError(w, r, err)
		return
	}
	respondJSON(w, http.StatusCreated, ruleToPayload(created))
}

func (s *Server) handleListRules(w http.ResponseWriter, r *http.Request) {
	rules, err := s.store.ListRules(r.Context())
	if err != nil {
		s.respondError(w, r, err)
		return
	}

	out := make([]rulePayload, 0, len(rules))
	for _, rule := range rules {
		out = append(out, ruleToPayload(rule))
	}
	respondJSON(w, http.StatusOK, map[string]any{"rules": out})
}

// handleUpdateRule replaces the rule wholesale; PUT semantics, no partial
// merge.
func (s *Server) handleUpdateRule(w http.ResponseWriter, r *http.Request) {
	var req ruleRequest
	if err := decodeJSON(r, &req); err != nil {
		invalidBody(w, err)
		return
	}

	rule := core.DistributionRule{
		ID:       r.PathValue("id"),
		FundID:   req.FundID,
		AssetID:  req.AssetID,
		Kind:     core.RuleKind(req.Kind),
		Value:    req.Value,
		Priority: req.Priority,
	}
	if err := rule.Validate(); err != nil {
		s.respondError(w, r, err)
		return
	}
	if err := s.checkRuleTarget(r, rule); err != nil {
		s.respondError(w, r, err)
		return
	}

	updated, err := s.store.UpdateRule(r.Context(), rule)
	if err != nil {
		s.respondError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, ruleToPayload(updated))
}

func (s *Server) handleDeleteRule(w http.ResponseWriter, r *http.Request) {
	if err := s.store.DeleteRule(r.Context(), r.PathValue("id")); err != nil {
		s.respondError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

type incomeRequest struct {
	Date     core.Date  `json:"date"`
	Amount   core.Money `json:"amount"`
	Currency string     `json:"currency"`
	Source   string     `json:"source"`
	Note     string     `json:"note"`
}

// handleRecordIncome stores the income, runs the distribution rules, and
// answers with the full report: applied shares, skipped rules with reasons,
// and the undistributed remainder.
func (s *Server) handleRecordIncome(w http.ResponseWriter, r *http.Request) {
	var req incomeRequest
	if err := decodeJSON(r, &req); err != nil {
		invalidBody(w, err)
		return
	}

	in := core.Income{
		Date:     req.Date,
		Amount:   req.Amount,
		Currency: normalizeCurrency(req.Currency),
		Source:   sanitizeInput(req.Source),
		Note:     sanitizeInput(req.Note),
	}
	report, err := s.distribution.RecordIncome(r.Context(), in)
	if err != nil {
		s.respondError(w, r, err)
		return
	}

	atomic.AddInt64(&s.metrics.incomesRecorded, 1)
	s.invalidateOverviews()
	s.logger.InfoContext(r.Context(), "Income recorded",
		"income_id", report.Income.ID,
		log.FieldAmountCents, report.Income.Amount.Cents,
		"applied", len(report.Applied),
		"skipped", len(report.Skipped),
		"undistributed_cents", report.Undistributed.Cents)
	respondJSON(w, http.StatusCreated, reportToPayload(report))
}

func (s *Server) handleListIncomes(w http.ResponseWriter, r *http.Request) {
	year, month := parseYearMonth(r.URL.Query(), s.now())
	incomes, err := s.store.ListIncomes(r.Context(), year, month)
	if err != nil {
		s.respondError(w, r, err)
		return
	}

	out := make([]incomePayload, 0, len(incomes))
	for _, in := range incomes {
		out = append(out, incomeToPayload(in))
	}
	respondJSON(w, http.StatusOK, map[string]any{
		"incomes": out,
		"year":    year,
		"month":   month,
	})
}

type recurringIncomeRequest struct {
	Name      string     `json:"name"`
	Amount    core.Money `json:"amount"`
	Currency  string     `json:"currency"`
	Source    string     `json:"source"`
	Frequency string     `json:"frequency"`
	StartDate core.Date  `json:"startDate"`
}

func (s *Server) handleCreateRecurringIncome(w http.ResponseWriter, r *http.Request) {
	var req recurringIncomeRequest
	if err := decodeJSON(r, &req); err != nil {
		invalidBody(w, err)
		return
	}

	ri := core.RecurringIncome{
		Name:      sanitizeInput(req.Name),
		Amount:    req.Amount,
		Currency:  normalizeCurrency(req.Currency),
		Source:    sanitizeInput(req.Source),
		Frequency: core.Frequency(req.Frequency),
		StartDate: req.StartDate,
		Active:    true,
	}
	if err := ri.Validate(); err != nil {
		s.respondError(w, r, err)
		return
	}

	created, err := s.store.CreateRecurringIncome(r.Context(), ri)
	if err != nil {
		s.respondError(w, r, err)
		return
	}
	respondJSON(w, http.StatusCreated, recurringToPayload(created))
}

func (s *Server) handleListRecurringIncomes(w http.ResponseWriter, r *http.Request) {
	onlyActive := r.URL.Query().Get("active") == "true"
	incomes, err := s.store.ListRecurringIncomes(r.Context(), onlyActive)
	if err != nil {
		s.respondError(w, r, err)
		return
	}

	out := make([]recurringIncomePayload, 0, len(incomes))
	for _, ri := range incomes {
		out = append(out, recurringToPayload(ri))
	}
	respondJSON(w, http.StatusOK, map[string]any{"recurringIncomes": out})
}

func (s *Server) handleDeleteRecurringIncome(w http.ResponseWriter, r *http.Request) {
	if err := s.store.DeleteRecurringIncome(r.Context(), r.PathValue("id")); err != nil {
		s.respondError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
