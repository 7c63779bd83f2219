package http

import (
	"errors"
	"io"
	"net/http"
	"strconv"

	"fondi/internal/core"
)

type installmentRequest struct {
	Sequence int        `json:"sequence"`
	DueDate  core.Date  `json:"dueDate"`
	Amount   core.Money `json:"amount"`
}

type createCreditRequest struct {
	Name         string               `json:"name"`
	Principal    core.Money           `json:"principal"`
	Currency     string               `json:"currency"`
	Note         string               `json:"note"`
	Installments []installmentRequest `json:"installments"`
}

// handleCreateCredit stores a credit with its full installment schedule.
// Sequence numbers may be omitted entirely; when every row is zero they are
// filled in from list order.
func (s *Server) handleCreateCredit(w http.ResponseWriter, r *http.Request) {
	var req createCreditRequest
	if err := decodeJSON(r, &req); err != nil {
		invalidBody(w, err)
		return
	}

	credit := core.Credit{
		Name:      sanitizeInput(req.Name),
		Principal: req.Principal,
		Currency:  normalizeCurrency(req.Currency),
		Note:      sanitizeInput(req.Note),
	}
	if err := credit.Validate(); err != nil {
		s.respondError(w, r, err)
		return
	}

	schedule := make([]core.Installment, 0, len(req.Installments))
	allZero := true
	for _, inst := range req.Installments {
		if inst.Sequence != 0 {
			allZero = false
		}
		schedule = append(schedule, core.Installment{
			Sequence: inst.Sequence,
			DueDate:  inst.DueDate,
			Amount:   inst.Amount,
		})
	}
	if allZero {
		for i := range schedule {
			schedule[i].Sequence = i + 1
		}
	}
	if err := core.ValidateSchedule(schedule); err != nil {
		s.respondError(w, r, err)
		return
	}

	created, err := s.store.CreateCredit(r.Context(), credit, schedule)
	if err != nil {
		s.respondError(w, r, err)
		return
	}
	summary, err := s.store.GetCredit(r.Context(), created.ID)
	if err != nil {
		s.respondError(w, r, err)
		return
	}
	s.logger.InfoContext(r.Context(), "Credit created",
		"credit_id", created.ID, "installments", len(schedule))
	respondJSON(w, http.StatusCreated, creditToPayload(summary))
}

func (s *Server) handleListCredits(w http.ResponseWriter, r *http.Request) {
	credits, err := s.store.ListCredits(r.Context())
	if err != nil {
		s.respondError(w, r, err)
		return
	}

	out := make([]creditPayload, 0, len(credits))
	for _, cs := range credits {
		out = append(out, creditToPayload(cs))
	}
	respondJSON(w, http.StatusOK, map[string]any{"credits": out})
}

func (s *Server) handleGetCredit(w http.ResponseWriter, r *http.Request) {
	summary, err := s.store.GetCredit(r.Context(), r.PathValue("id"))
	if err != nil {
		s.respondError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, creditToPayload(summary))
}

func (s *Server) handleListInstallments(w http.ResponseWriter, r *http.Request) {
	creditID := r.PathValue("id")
	limit, offset := parseLimitOffset(r.URL.Query())
	installments, total, err := s.store.ListInstallments(r.Context(), creditID, limit, offset)
	if err != nil {
		s.respondError(w, r, err)
		return
	}

	out := make([]installmentPayload, 0, len(installments))
	for _, inst := range installments {
		out = append(out, installmentToPayload(inst))
	}
	respondJSON(w, http.StatusOK, map[string]any{
		"installments": out,
		"total":        total,
		"limit":        limit,
		"offset":       offset,
	})
}

type payInstallmentRequest struct {
	PaidAt    core.Date `json:"paidAt"`
	AccountID string    `json:"accountId"`
}

// handlePayInstallment marks one installment paid. The body is optional:
// paidAt defaults to today, accountId to unknown.
func (s *Server) handlePayInstallment(w http.ResponseWriter, r *http.Request) {
	seq, err := strconv.Atoi(r.PathValue("seq"))
	if err != nil || seq < 1 {
		respondFieldError(w, "seq", "installment sequence must be a positive integer")
		return
	}

	var req payInstallmentRequest
	if err := decodeJSON(r, &req); err != nil && !errors.Is(err, io.EOF) {
		invalidBody(w, err)
		return
	}

	paidAt := req.PaidAt
	if paidAt.IsEmpty() {
		n := s.now()
		paidAt = core.NewDate(n.Year(), int(n.Month()), n.Day())
	}

	paid, err := s.store.PayInstallment(r.Context(), r.PathValue("id"), seq, paidAt, req.AccountID)
	if err != nil {
		s.respondError(w, r, err)
		return
	}
	s.logger.InfoContext(r.Context(), "Installment paid",
		"credit_id", paid.CreditID, "sequence", paid.Sequence)
	respondJSON(w, http.StatusOK, installmentToPayload(paid))
}
