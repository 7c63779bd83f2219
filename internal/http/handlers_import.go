package http

import (
	"net/http"
	"sync/atomic"

	"fondi/internal/core"
	"fondi/internal/log"
)

type createImportRequest struct {
	AccountID string `json:"accountId"`
	Filename  string `json:"filename"`
	CSV       string `json:"csv"`
}

// handleCreateImport accepts a statement upload and answers 202: analysis
// runs asynchronously, through the broker when one is configured, inline
// otherwise. Poll the batch until its status says analyzed.
func (s *Server) handleCreateImport(w http.ResponseWriter, r *http.Request) {
	var req createImportRequest
	if err := decodeJSONBody(r, &req, maxImportBytes); err != nil {
		invalidBody(w, err)
		return
	}

	batch, err := s.imports.CreateBatch(r.Context(), req.AccountID, sanitizeInput(req.Filename), req.CSV)
	if err != nil {
		s.respondError(w, r, err)
		return
	}

	atomic.AddInt64(&s.metrics.batchesCreated, 1)
	s.logger.InfoContext(r.Context(), "Import batch created",
		log.FieldBatchID, batch.ID,
		log.FieldAccountID, batch.AccountID,
		"filename", batch.Filename)
	respondJSON(w, http.StatusAccepted, batchToPayload(batch))
}

func (s *Server) handleGetImport(w http.ResponseWriter, r *http.Request) {
	batch, err := s.store.GetBatch(r.Context(), r.PathValue("id"))
	if err != nil {
		s.respondError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, batchToPayload(batch))
}

func (s *Server) handleListEntries(w http.ResponseWriter, r *http.Request) {
	batchID := r.PathValue("id")
	if _, err := s.store.GetBatch(r.Context(), batchID); err != nil {
		s.respondError(w, r, err)
		return
	}

	status := core.EntryStatus(r.URL.Query().Get("status"))
	switch status {
	case "", core.EntryNew, core.EntryDuplicate, core.EntryUnmapped:
	default:
		respondFieldError(w, "status", "must be one of new, duplicate, unmapped")
		return
	}

	limit, offset := parseLimitOffset(r.URL.Query())
	entries, total, err := s.store.ListEntries(r.Context(), batchID, status, limit, offset)
	if err != nil {
		s.respondError(w, r, err)
		return
	}

	out := make([]entryPayload, 0, len(entries))
	for _, e := range entries {
		out = append(out, entryToPayload(e))
	}
	respondJSON(w, http.StatusOK, map[string]any{
		"entries": out,
		"total":   total,
		"limit":   limit,
		"offset":  offset,
	})
}

// handleReanalyzeImport re-runs classification against the current mappings,
// typically after the user added one for a batch full of unmapped entries.
func (s *Server) handleReanalyzeImport(w http.ResponseWriter, r *http.Request) {
	batch, err := s.imports.Reanalyze(r.Context(), r.PathValue("id"))
	if err != nil {
		s.respondError(w, r, err)
		return
	}
	s.logger.InfoContext(r.Context(), "Import batch reanalysis requested",
		log.FieldBatchID, batch.ID)
	respondJSON(w, http.StatusAccepted, batchToPayload(batch))
}

type confirmImportRequest struct {
	From core.Date `json:"from"`
	To   core.Date `json:"to"`
}

// handleConfirmImport materializes the batch's new entries inside the date
// window as account transactions. Unmapped entries in the window block the
// whole confirmation.
func (s *Server) handleConfirmImport(w http.ResponseWriter, r *http.Request) {
	var req confirmImportRequest
	if err := decodeJSON(r, &req); err != nil {
		invalidBody(w, err)
		return
	}

	batch, imported, err := s.imports.Confirm(r.Context(), r.PathValue("id"), req.From, req.To)
	if err != nil {
		s.respondError(w, r, err)
		return
	}

	s.invalidateOverviews()
	s.logger.InfoContext(r.Context(), "Import batch confirmed",
		log.FieldBatchID, batch.ID, "imported", imported)
	respondJSON(w, http.StatusOK, map[string]any{
		"batch":    batchToPayload(batch),
		"imported": imported,
	})
}

type mappingRequest struct {
	Pattern  string `json:"pattern"`
	Category string `json:"category"`
	FundID   string `json:"fundId"`
}

func (s *Server) handleCreateMapping(w http.ResponseWriter, r *http.Request) {
	var req mappingRequest
	if err := decodeJSON(r, &req); err != nil {
		invalidBody(w, err)
		return
	}

	m := core.ImportMapping{
		Pattern:  sanitizeInput(req.Pattern),
		Category: sanitizeInput(req.Category),
		FundID:   req.FundID,
	}
	if err := m.Validate(); err != nil {
		s.respondError(w, r, err)
		return
	}
	if m.FundID != "" {
		if _, err := s.store.GetFund(r.Context(), m.FundID); err != nil {
			s.respondError(w, r, err)
			return
		}
	}

	created, err := s.store.CreateMapping(r.Context(), m)
	if err != nil {
		s.respondError(w, r, err)
		return
	}
	respondJSON(w, http.StatusCreated, mappingToPayload(created))
}

func (s *Server) handleListMappings(w http.ResponseWriter, r *http.Request) {
	mappings, err := s.store.ListMappings(r.Context())
	if err != nil {
		s.respondError(w, r, err)
		return
	}

	out := make([]mappingPayload, 0, len(mappings))
	for _, m := range mappings {
		out = append(out, mappingToPayload(m))
	}
	respondJSON(w, http.StatusOK, map[string]any{"mappings": out})
}

func (s *Server) handleDeleteMapping(w http.ResponseWriter, r *http.Request) {
	if err := s.store.DeleteMapping(r.Context(), r.PathValue("id")); err != nil {
		s.respondError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
