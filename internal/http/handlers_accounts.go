package http

import (
	"net/http"

	"fondi/internal/core"
	"fondi/internal/log"
)

type createAccountRequest struct {
	Name     string `json:"name"`
	Bank     string `json:"bank"`
	Currency string `json:"currency"`
	// Balance seeds the opening balance; it may be negative.
	Balance core.Money `json:"balance"`
}

func (s *Server) handleCreateAccount(w http.ResponseWriter, r *http.Request) {
	var req createAccountRequest
	if err := decodeJSON(r, &req); err != nil {
		invalidBody(w, err)
		return
	}

	a := core.Account{
		Name:     sanitizeInput(req.Name),
		Bank:     sanitizeInput(req.Bank),
		Currency: normalizeCurrency(req.Currency),
		Balance:  req.Balance,
	}
	if err := a.Validate(); err != nil {
		s.respondError(w, r, err)
		return
	}

	created, err := s.store.CreateAccount(r.Context(), a)
	if err != nil {
		s.respondError(w, r, err)
		return
	}
	s.logger.InfoContext(r.Context(), "Account created",
		log.FieldAccountID, created.ID, "name", created.Name)
	respondJSON(w, http.StatusCreated, accountToPayload(created))
}

func (s *Server) handleListAccounts(w http.ResponseWriter, r *http.Request) {
	accounts, err := s.store.ListAccounts(r.Context())
	if err != nil {
		s.respondError(w, r, err)
		return
	}

	out := make([]accountPayload, 0, len(accounts))
	for _, a := range accounts {
		out = append(out, accountToPayload(a))
	}
	respondJSON(w, http.StatusOK, map[string]any{"accounts": out})
}

func (s *Server) handleGetAccount(w http.ResponseWriter, r *http.Request) {
	a, err := s.store.GetAccount(r.Context(), r.PathValue("id"))
	if err != nil {
		s.respondError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, accountToPayload(a))
}

func (s *Server) handleListTransactions(w http.ResponseWriter, r *http.Request) {
	accountID := r.PathValue("id")
	if _, err := s.store.GetAccount(r.Context(), accountID); err != nil {
		s.respondError(w, r, err)
		return
	}

	year, month := parseYearMonth(r.URL.Query(), s.now())
	txs, err := s.store.ListTransactions(r.Context(), accountID, year, month)
	if err != nil {
		s.respondError(w, r, err)
		return
	}

	out := make([]transactionPayload, 0, len(txs))
	for _, tx := range txs {
		out = append(out, transactionToPayload(tx))
	}
	respondJSON(w, http.StatusOK, map[string]any{
		"transactions": out,
		"year":         year,
		"month":        month,
	})
}

type transferRequest struct {
	Date          core.Date  `json:"date"`
	FromAccountID string     `json:"fromAccountId"`
	ToAccountID   string     `json:"toAccountId"`
	Amount        core.Money `json:"amount"`
	Note          string     `json:"note"`
}

func (s *Server) handleCreateTransfer(w http.ResponseWriter, r *http.Request) {
	var req transferRequest
	if err := decodeJSON(r, &req); err != nil {
		invalidBody(w, err)
		return
	}

	t := core.Transfer{
		Date:          req.Date,
		FromAccountID: req.FromAccountID,
		ToAccountID:   req.ToAccountID,
		Amount:        req.Amount,
		Note:          sanitizeInput(req.Note),
	}
	created, err := s.transfers.CreateTransfer(r.Context(), t)
	if err != nil {
		s.respondError(w, r, err)
		return
	}
	s.logger.InfoContext(r.Context(), "Transfer created",
		"from_account_id", created.FromAccountID,
		"to_account_id", created.ToAccountID,
		log.FieldAmountCents, created.Amount.Cents)
	respondJSON(w, http.StatusCreated, transferToPayload(created))
}

func (s *Server) handleListTransfers(w http.ResponseWriter, r *http.Request) {
	year, month := parseYearMonth(r.URL.Query(), s.now())
	transfers, err := s.store.ListTransfers(r.Context(), year, month)
	if err != nil {
		s.respondError(w, r, err)
		return
	}

	out := make([]transferPayload, 0, len(transfers))
	for _, t := range transfers {
		out = append(out, transferToPayload(t))
	}
	respondJSON(w, http.StatusOK, map[string]any{
		"transfers": out,
		"year":      year,
		"month":     month,
	})
}
