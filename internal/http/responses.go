package http

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"fondi/internal/allocation"
	"fondi/internal/core"
	"fondi/internal/log"
)

type errorBody struct {
	Error  string       `json:"error"`
	Fields []fieldError `json:"fields,omitempty"`
}

type fieldError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

// mismatchBody mirrors the preview badge so an API client surfaces the same
// "+600" / "-200" indicator the interactive form shows.
type mismatchBody struct {
	Error     string     `json:"error"`
	Remaining core.Money `json:"remaining"`
	Badge     string     `json:"badge"`
}

func respondJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	if v == nil {
		return
	}
	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Error("Failed to encode response", log.FieldError, err.Error())
	}
}

// validationFields maps each validation sentinel to the request field it
// concerns. The wrapped message keeps any row or context prefix.
var validationFields = []struct {
	err   error
	field string
}{
	{core.ErrInvalidAmount, "amount"},
	{core.ErrInvalidDate, "date"},
	{core.ErrEmptyName, "name"},
	{core.ErrNameTooLong, "name"},
	{core.ErrEmptyCurrency, "currency"},
	{core.ErrEmptyAssetID, "assetId"},
	{core.ErrEmptyPurpose, "purpose"},
	{core.ErrEmptySource, "source"},
	{core.ErrEmptyPattern, "pattern"},
	{core.ErrInvalidRuleKind, "kind"},
	{core.ErrInvalidRuleValue, "value"},
	{core.ErrInvalidFrequency, "frequency"},
	{core.ErrNoInstallments, "installments"},
	{core.ErrBadSequence, "installments"},
	{core.ErrEmptyCSV, "csv"},
}

// conflictErrors are domain states that make a well-formed request
// unprocessable: the body parsed fine, the world said no.
var conflictErrors = []error{
	core.ErrInsufficientFunds,
	core.ErrCurrencyMismatch,
	core.ErrFundArchived,
	core.ErrUnknownAsset,
	core.ErrSameAccount,
	core.ErrSameFund,
	core.ErrInstallmentPaid,
	core.ErrBatchNotAnalyzed,
	core.ErrBatchConfirmed,
	core.ErrUnmappedEntries,
	core.ErrAllocationMismatch,
}

// respondError translates a domain error into the API's status taxonomy:
// 404 for missing resources, 422 for allocation mismatches and state
// conflicts, 400 for validation failures, 500 otherwise.
func (s *Server) respondError(w http.ResponseWriter, r *http.Request, err error) {
	var mismatch *allocation.MismatchError
	if errors.As(err, &mismatch) {
		respondJSON(w, http.StatusUnprocessableEntity, mismatchBody{
			Error:     "allocation mismatch",
			Remaining: mismatch.Remaining,
			Badge:     mismatch.Badge,
		})
		return
	}
	if errors.Is(err, core.ErrNotFound) {
		respondJSON(w, http.StatusNotFound, errorBody{Error: err.Error()})
		return
	}
	for _, conflict := range conflictErrors {
		if errors.Is(err, conflict) {
			respondJSON(w, http.StatusUnprocessableEntity, errorBody{Error: err.Error()})
			return
		}
	}
	for _, v := range validationFields {
		if errors.Is(err, v.err) {
			respondJSON(w, http.StatusBadRequest, errorBody{
				Error:  "validation failed",
				Fields: []fieldError{{Field: v.field, Message: err.Error()}},
			})
			return
		}
	}
	s.logger.ErrorContext(r.Context(), "Request failed",
		log.FieldMethod, r.Method,
		log.FieldPath, r.URL.Path,
		log.FieldError, err.Error())
	respondJSON(w, http.StatusInternalServerError, errorBody{Error: "internal error"})
}

// invalidBody reports a body that could not be decoded, with the decoder's
// reason so clients can see which field choked.
func invalidBody(w http.ResponseWriter, err error) {
	respondJSON(w, http.StatusBadRequest, errorBody{Error: "invalid request body: " + err.Error()})
}

// respondFieldError reports a single bad field detected in the handler
// itself, before any domain call.
func respondFieldError(w http.ResponseWriter, field, message string) {
	respondJSON(w, http.StatusBadRequest, errorBody{
		Error:  "validation failed",
		Fields: []fieldError{{Field: field, Message: message}},
	})
}
