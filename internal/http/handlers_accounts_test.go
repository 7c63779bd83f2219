package http

import (
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCreateAccount(t *testing.T) {
	srv := newTestServer(t)

	rec := doJSON(t, srv, http.MethodPost, "/api/accounts", map[string]any{
		"name":     "Checking",
		"bank":     "Intesa",
		"currency": "eur",
		"balance":  "1250.75",
	})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	a := decodeBody[accountPayload](t, rec)
	assert.NotEmpty(t, a.ID)
	assert.Equal(t, "Checking", a.Name)
	assert.Equal(t, "Intesa", a.Bank)
	assert.Equal(t, "EUR", a.Currency)
	assert.Equal(t, int64(125075), a.Balance.Cents)
}

func TestCreateAccountValidation(t *testing.T) {
	srv := newTestServer(t)

	rec := doJSON(t, srv, http.MethodPost, "/api/accounts", map[string]any{
		"name": "", "currency": "EUR",
	})
	require.Equal(t, http.StatusBadRequest, rec.Code)
	body := decodeBody[errorBody](t, rec)
	require.Len(t, body.Fields, 1)
	assert.Equal(t, "name", body.Fields[0].Field)
}

func TestAccountTransfer(t *testing.T) {
	srv := newTestServer(t)
	from := seedAccount(t, srv, "Checking", "1000")
	to := seedAccount(t, srv, "Savings", "0")

	rec := doJSON(t, srv, http.MethodPost, "/api/transfers", map[string]any{
		"date":          "2025-03-08",
		"fromAccountId": from.ID,
		"toAccountId":   to.ID,
		"amount":        "250.50",
		"note":          "monthly sweep",
	})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	tr := decodeBody[transferPayload](t, rec)
	assert.Equal(t, int64(25050), tr.Amount.Cents)

	rec = doJSON(t, srv, http.MethodGet, "/api/accounts/"+from.ID, nil)
	assert.Equal(t, int64(74950), decodeBody[accountPayload](t, rec).Balance.Cents)
	rec = doJSON(t, srv, http.MethodGet, "/api/accounts/"+to.ID, nil)
	assert.Equal(t, int64(25050), decodeBody[accountPayload](t, rec).Balance.Cents)

	rec = doJSON(t, srv, http.MethodGet, "/api/transfers?year=2025&month=3", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	list := decodeBody[struct {
		Transfers []transferPayload `json:"transfers"`
	}](t, rec)
	assert.Len(t, list.Transfers, 1)
}

func TestAccountTransferConflicts(t *testing.T) {
	srv := newTestServer(t)
	checking := seedAccount(t, srv, "Checking", "100")
	savings := seedAccount(t, srv, "Savings", "0")

	t.Run("same account", func(t *testing.T) {
		rec := doJSON(t, srv, http.MethodPost, "/api/transfers", map[string]any{
			"date":          "2025-03-08",
			"fromAccountId": checking.ID,
			"toAccountId":   checking.ID,
			"amount":        "50",
		})
		assert.Equal(t, http.StatusUnprocessableEntity, rec.Code, rec.Body.String())
	})

	t.Run("insufficient balance", func(t *testing.T) {
		rec := doJSON(t, srv, http.MethodPost, "/api/transfers", map[string]any{
			"date":          "2025-03-08",
			"fromAccountId": checking.ID,
			"toAccountId":   savings.ID,
			"amount":        "5000",
		})
		require.Equal(t, http.StatusUnprocessableEntity, rec.Code, rec.Body.String())
		body := decodeBody[errorBody](t, rec)
		assert.Contains(t, body.Error, "insufficient")
	})

	t.Run("unknown account", func(t *testing.T) {
		rec := doJSON(t, srv, http.MethodPost, "/api/transfers", map[string]any{
			"date":          "2025-03-08",
			"fromAccountId": checking.ID,
			"toAccountId":   "missing",
			"amount":        "10",
		})
		assert.Equal(t, http.StatusNotFound, rec.Code, rec.Body.String())
	})
}

func TestListAccounts(t *testing.T) {
	srv := newTestServer(t)
	seedAccount(t, srv, "Checking", "100")
	seedAccount(t, srv, "Savings", "200")

	rec := doJSON(t, srv, http.MethodGet, "/api/accounts", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	body := decodeBody[struct {
		Accounts []accountPayload `json:"accounts"`
	}](t, rec)
	assert.Len(t, body.Accounts, 2)
}

func TestListTransactionsUnknownAccount(t *testing.T) {
	srv := newTestServer(t)

	rec := doJSON(t, srv, http.MethodGet, "/api/accounts/missing/transactions", nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}
