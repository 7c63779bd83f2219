package http

import (
	"net/http"
	"sync/atomic"

	"fondi/internal/core"
	"fondi/internal/log"
)

type contributionRequest struct {
	Date        core.Date                 `json:"date"`
	TotalAmount core.Money                `json:"totalAmount"`
	Currency    string                    `json:"currency"`
	Allocations []pricedAllocationPayload `json:"allocations"`
	Note        string                    `json:"note"`
}

func (s *Server) handleCreateContribution(w http.ResponseWriter, r *http.Request) {
	var req contributionRequest
	if err := decodeJSON(r, &req); err != nil {
		invalidBody(w, err)
		return
	}

	c := core.Contribution{
		FundID:      r.PathValue("id"),
		Date:        req.Date,
		TotalAmount: req.TotalAmount,
		Currency:    normalizeCurrency(req.Currency),
		Allocations: toPricedAllocations(req.Allocations),
		Note:        sanitizeInput(req.Note),
	}
	created, err := s.ops.CreateContribution(r.Context(), c)
	if err != nil {
		s.respondError(w, r, err)
		return
	}

	atomic.AddInt64(&s.metrics.operationsCreated, 1)
	s.invalidateOverviews()
	s.logger.InfoContext(r.Context(), "Contribution created",
		log.FieldOperationID, created.ID,
		log.FieldFundID, created.FundID,
		log.FieldAmountCents, created.TotalAmount.Cents)
	respondJSON(w, http.StatusCreated, contributionToPayload(created))
}

func (s *Server) handleListContributions(w http.ResponseWriter, r *http.Request) {
	fundID := r.PathValue("id")
	if _, err := s.store.GetFund(r.Context(), fundID); err != nil {
		s.respondError(w, r, err)
		return
	}

	year, month := parseYearMonth(r.URL.Query(), s.now())
	contributions, err := s.store.ListContributions(r.Context(), fundID, year, month)
	if err != nil {
		s.respondError(w, r, err)
		return
	}

	out := make([]contributionPayload, 0, len(contributions))
	for _, c := range contributions {
		out = append(out, contributionToPayload(c))
	}
	respondJSON(w, http.StatusOK, map[string]any{
		"contributions": out,
		"year":          year,
		"month":         month,
	})
}

type withdrawalRequest struct {
	Date        core.Date           `json:"date"`
	TotalAmount core.Money          `json:"totalAmount"`
	Currency    string              `json:"currency"`
	Purpose     string              `json:"purpose"`
	Allocations []allocationPayload `json:"allocations"`
	Note        string              `json:"note"`
}

func (s *Server) handleCreateWithdrawal(w http.ResponseWriter, r *http.Request) {
	var req withdrawalRequest
	if err := decodeJSON(r, &req); err != nil {
		invalidBody(w, err)
		return
	}

	wd := core.Withdrawal{
		FundID:      r.PathValue("id"),
		Date:        req.Date,
		TotalAmount: req.TotalAmount,
		Currency:    normalizeCurrency(req.Currency),
		Purpose:     sanitizeInput(req.Purpose),
		Allocations: toAllocations(req.Allocations),
		Note:        sanitizeInput(req.Note),
	}
	created, err := s.ops.CreateWithdrawal(r.Context(), wd)
	if err != nil {
		s.respondError(w, r, err)
		return
	}

	atomic.AddInt64(&s.metrics.operationsCreated, 1)
	s.invalidateOverviews()
	s.logger.InfoContext(r.Context(), "Withdrawal created",
		log.FieldOperationID, created.ID,
		log.FieldFundID, created.FundID,
		log.FieldAmountCents, created.TotalAmount.Cents)
	respondJSON(w, http.StatusCreated, withdrawalToPayload(created))
}

func (s *Server) handleListWithdrawals(w http.ResponseWriter, r *http.Request) {
	fundID := r.PathValue("id")
	if _, err := s.store.GetFund(r.Context(), fundID); err != nil {
		s.respondError(w, r, err)
		return
	}

	year, month := parseYearMonth(r.URL.Query(), s.now())
	withdrawals, err := s.store.ListWithdrawals(r.Context(), fundID, year, month)
	if err != nil {
		s.respondError(w, r, err)
		return
	}

	out := make([]withdrawalPayload, 0, len(withdrawals))
	for _, wd := range withdrawals {
		out = append(out, withdrawalToPayload(wd))
	}
	respondJSON(w, http.StatusOK, map[string]any{
		"withdrawals": out,
		"year":        year,
		"month":       month,
	})
}

type fundTransferRequest struct {
	Date        core.Date           `json:"date"`
	FromFundID  string              `json:"fromFundId"`
	ToFundID    string              `json:"toFundId"`
	TotalAmount core.Money          `json:"totalAmount"`
	Allocations []allocationPayload `json:"allocations"`
	Note        string              `json:"note"`
}

// handleCreateFundTransfer moves allocations between two funds of the same
// currency. Allocation rows name source-fund assets.
func (s *Server) handleCreateFundTransfer(w http.ResponseWriter, r *http.Request) {
	var req fundTransferRequest
	if err := decodeJSON(r, &req); err != nil {
		invalidBody(w, err)
		return
	}

	t := core.FundTransfer{
		Date:        req.Date,
		FromFundID:  req.FromFundID,
		ToFundID:    req.ToFundID,
		TotalAmount: req.TotalAmount,
		Allocations: toAllocations(req.Allocations),
		Note:        sanitizeInput(req.Note),
	}
	created, err := s.ops.CreateFundTransfer(r.Context(), t)
	if err != nil {
		s.respondError(w, r, err)
		return
	}

	atomic.AddInt64(&s.metrics.operationsCreated, 1)
	s.invalidateOverviews()
	s.logger.InfoContext(r.Context(), "Fund transfer created",
		log.FieldOperationID, created.ID,
		"from_fund_id", created.FromFundID,
		"to_fund_id", created.ToFundID,
		log.FieldAmountCents, created.TotalAmount.Cents)
	respondJSON(w, http.StatusCreated, fundTransferToPayload(created))
}

func (s *Server) handleListFundTransfers(w http.ResponseWriter, r *http.Request) {
	year, month := parseYearMonth(r.URL.Query(), s.now())
	transfers, err := s.store.ListFundTransfers(r.Context(), year, month)
	if err != nil {
		s.respondError(w, r, err)
		return
	}

	out := make([]fundTransferPayload, 0, len(transfers))
	for _, t := range transfers {
		out = append(out, fundTransferToPayload(t))
	}
	respondJSON(w, http.StatusOK, map[string]any{
		"fundTransfers": out,
		"year":          year,
		"month":         month,
	})
}
