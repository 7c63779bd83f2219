package http

import (
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func seedCredit(t *testing.T, srv *Server, name string, installments int) creditPayload {
	t.Helper()
	rows := make([]map[string]any, 0, installments)
	for i := 0; i < installments; i++ {
		rows = append(rows, map[string]any{
			"dueDate": fmt.Sprintf("2025-%02d-15", 4+i),
			"amount":  "250",
		})
	}
	rec := doJSON(t, srv, http.MethodPost, "/api/credits", map[string]any{
		"name":         name,
		"principal":    fmt.Sprintf("%d", installments*250),
		"currency":     "EUR",
		"installments": rows,
	})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	return decodeBody[creditPayload](t, rec)
}

func TestCreateCreditAutofillsSequences(t *testing.T) {
	srv := newTestServer(t)

	credit := seedCredit(t, srv, "Car loan", 3)
	assert.NotEmpty(t, credit.ID)
	assert.Equal(t, 3, credit.InstallmentCount)
	assert.Equal(t, 0, credit.PaidCount)
	assert.Equal(t, int64(75000), credit.RemainingAmount.Cents)
	assert.Equal(t, "2025-04-15", credit.NextDueDate.String())

	rec := doJSON(t, srv, http.MethodGet, "/api/credits/"+credit.ID+"/installments", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	body := decodeBody[struct {
		Installments []installmentPayload `json:"installments"`
		Total        int                  `json:"total"`
	}](t, rec)
	require.Len(t, body.Installments, 3)
	for i, inst := range body.Installments {
		assert.Equal(t, i+1, inst.Sequence, "sequences are filled from list order")
		assert.Nil(t, inst.PaidAt)
	}
}

func TestCreateCreditScheduleValidation(t *testing.T) {
	srv := newTestServer(t)

	t.Run("empty schedule", func(t *testing.T) {
		rec := doJSON(t, srv, http.MethodPost, "/api/credits", map[string]any{
			"name": "Loan", "principal": "100", "currency": "EUR",
			"installments": []map[string]any{},
		})
		require.Equal(t, http.StatusBadRequest, rec.Code)
		body := decodeBody[errorBody](t, rec)
		require.Len(t, body.Fields, 1)
		assert.Equal(t, "installments", body.Fields[0].Field)
	})

	t.Run("broken explicit sequence", func(t *testing.T) {
		rec := doJSON(t, srv, http.MethodPost, "/api/credits", map[string]any{
			"name": "Loan", "principal": "500", "currency": "EUR",
			"installments": []map[string]any{
				{"sequence": 1, "dueDate": "2025-04-15", "amount": "250"},
				{"sequence": 3, "dueDate": "2025-05-15", "amount": "250"},
			},
		})
		require.Equal(t, http.StatusBadRequest, rec.Code)
		body := decodeBody[errorBody](t, rec)
		require.Len(t, body.Fields, 1)
		assert.Equal(t, "installments", body.Fields[0].Field)
	})
}

func TestInstallmentPagination(t *testing.T) {
	srv := newTestServer(t)
	credit := seedCredit(t, srv, "Mortgage", 5)

	rec := doJSON(t, srv, http.MethodGet, "/api/credits/"+credit.ID+"/installments?limit=2&offset=2", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	body := decodeBody[struct {
		Installments []installmentPayload `json:"installments"`
		Total        int                  `json:"total"`
		Limit        int                  `json:"limit"`
		Offset       int                  `json:"offset"`
	}](t, rec)
	assert.Equal(t, 5, body.Total)
	assert.Equal(t, 2, body.Limit)
	assert.Equal(t, 2, body.Offset)
	require.Len(t, body.Installments, 2)
	assert.Equal(t, 3, body.Installments[0].Sequence)
	assert.Equal(t, 4, body.Installments[1].Sequence)
}

func TestPayInstallment(t *testing.T) {
	srv := newTestServer(t)
	account := seedAccount(t, srv, "Checking", "10000")
	credit := seedCredit(t, srv, "Car loan", 2)

	rec := doJSON(t, srv, http.MethodPost,
		"/api/credits/"+credit.ID+"/installments/1/pay",
		map[string]any{"paidAt": "2025-04-14", "accountId": account.ID})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	paid := decodeBody[installmentPayload](t, rec)
	require.NotNil(t, paid.PaidAt)
	assert.Equal(t, "2025-04-14", paid.PaidAt.String())
	assert.Equal(t, account.ID, paid.AccountID)

	summary := decodeBody[creditPayload](t, doJSON(t, srv, http.MethodGet, "/api/credits/"+credit.ID, nil))
	assert.Equal(t, 1, summary.PaidCount)
	assert.Equal(t, int64(25000), summary.TotalPaid.Cents)
	assert.Equal(t, int64(25000), summary.RemainingAmount.Cents)
	assert.Equal(t, "2025-05-15", summary.NextDueDate.String())

	t.Run("already paid", func(t *testing.T) {
		rec := doJSON(t, srv, http.MethodPost,
			"/api/credits/"+credit.ID+"/installments/1/pay", nil)
		require.Equal(t, http.StatusUnprocessableEntity, rec.Code, rec.Body.String())
		body := decodeBody[errorBody](t, rec)
		assert.Contains(t, body.Error, "already paid")
	})
}

// An empty body is allowed: paidAt defaults to the server's today.
func TestPayInstallmentDefaultsToToday(t *testing.T) {
	srv := newTestServer(t)
	credit := seedCredit(t, srv, "Car loan", 1)

	rec := doJSON(t, srv, http.MethodPost,
		"/api/credits/"+credit.ID+"/installments/1/pay", nil)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	paid := decodeBody[installmentPayload](t, rec)
	require.NotNil(t, paid.PaidAt)
	assert.Equal(t, "2025-03-15", paid.PaidAt.String())
}

func TestPayInstallmentErrors(t *testing.T) {
	srv := newTestServer(t)
	credit := seedCredit(t, srv, "Car loan", 1)

	rec := doJSON(t, srv, http.MethodPost,
		"/api/credits/"+credit.ID+"/installments/abc/pay", nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = doJSON(t, srv, http.MethodPost,
		"/api/credits/"+credit.ID+"/installments/9/pay", nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec = doJSON(t, srv, http.MethodPost, "/api/credits/missing/installments/1/pay", nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestListCredits(t *testing.T) {
	srv := newTestServer(t)
	seedCredit(t, srv, "Car loan", 2)
	seedCredit(t, srv, "Sofa", 4)

	rec := doJSON(t, srv, http.MethodGet, "/api/credits", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	body := decodeBody[struct {
		Credits []creditPayload `json:"credits"`
	}](t, rec)
	require.Len(t, body.Credits, 2)

	rec = doJSON(t, srv, http.MethodGet, "/api/credits/missing", nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}
