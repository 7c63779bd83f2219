package http

import (
	"net/http"

	"fondi/internal/core"
	"fondi/internal/log"
)

type createFundRequest struct {
	Name       string     `json:"name"`
	Currency   string     `json:"currency"`
	GoalAmount core.Money `json:"goalAmount"`
	// Assets optionally names initial holdings; each starts at zero balance.
	Assets []string `json:"assets"`
}

func (s *Server) handleCreateFund(w http.ResponseWriter, r *http.Request) {
	var req createFundRequest
	if err := decodeJSON(r, &req); err != nil {
		invalidBody(w, err)
		return
	}

	f := core.Fund{
		Name:       sanitizeInput(req.Name),
		Currency:   normalizeCurrency(req.Currency),
		GoalAmount: req.GoalAmount,
	}
	for _, name := range req.Assets {
		f.Assets = append(f.Assets, core.Asset{Name: sanitizeInput(name)})
	}
	if err := f.Validate(); err != nil {
		s.respondError(w, r, err)
		return
	}
	for _, a := range f.Assets {
		if err := a.Validate(); err != nil {
			s.respondError(w, r, err)
			return
		}
	}

	created, err := s.store.CreateFund(r.Context(), f)
	if err != nil {
		s.respondError(w, r, err)
		return
	}
	s.invalidateOverviews()
	s.logger.InfoContext(r.Context(), "Fund created",
		log.FieldFundID, created.ID, "name", created.Name)
	respondJSON(w, http.StatusCreated, fundToPayload(created))
}

func (s *Server) handleListFunds(w http.ResponseWriter, r *http.Request) {
	includeArchived := r.URL.Query().Get("includeArchived") == "true"
	funds, err := s.store.ListFunds(r.Context(), includeArchived)
	if err != nil {
		s.respondError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, map[string]any{"funds": fundsToPayload(funds)})
}

func (s *Server) handleGetFund(w http.ResponseWriter, r *http.Request) {
	f, err := s.store.GetFund(r.Context(), r.PathValue("id"))
	if err != nil {
		s.respondError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, fundToPayload(f))
}

type updateFundRequest struct {
	Name       *string     `json:"name"`
	GoalAmount *core.Money `json:"goalAmount"`
}

// handleUpdateFund applies a partial update: omitted fields keep their
// current value.
func (s *Server) handleUpdateFund(w http.ResponseWriter, r *http.Request) {
	var req updateFundRequest
	if err := decodeJSON(r, &req); err != nil {
		invalidBody(w, err)
		return
	}

	id := r.PathValue("id")
	current, err := s.store.GetFund(r.Context(), id)
	if err != nil {
		s.respondError(w, r, err)
		return
	}

	name := current.Name
	if req.Name != nil {
		name = sanitizeInput(*req.Name)
	}
	goal := current.GoalAmount
	if req.GoalAmount != nil {
		goal = *req.GoalAmount
	}

	probe := current
	probe.Name = name
	probe.GoalAmount = goal
	if err := probe.Validate(); err != nil {
		s.respondError(w, r, err)
		return
	}

	updated, err := s.store.UpdateFund(r.Context(), id, name, goal)
	if err != nil {
		s.respondError(w, r, err)
		return
	}
	s.invalidateOverviews()
	respondJSON(w, http.StatusOK, fundToPayload(updated))
}

// handleArchiveFund archives rather than deletes: history stays readable,
// the fund just stops accepting operations.
func (s *Server) handleArchiveFund(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	if err := s.store.ArchiveFund(r.Context(), id); err != nil {
		s.respondError(w, r, err)
		return
	}
	s.invalidateOverviews()
	s.logger.InfoContext(r.Context(), "Fund archived", log.FieldFundID, id)
	w.WriteHeader(http.StatusNoContent)
}

type addAssetRequest struct {
	Name string `json:"name"`
}

func (s *Server) handleAddAsset(w http.ResponseWriter, r *http.Request) {
	var req addAssetRequest
	if err := decodeJSON(r, &req); err != nil {
		invalidBody(w, err)
		return
	}

	probe := core.Asset{Name: sanitizeInput(req.Name)}
	if err := probe.Validate(); err != nil {
		s.respondError(w, r, err)
		return
	}

	created, err := s.store.AddAsset(r.Context(), r.PathValue("id"), probe.Name)
	if err != nil {
		s.respondError(w, r, err)
		return
	}
	respondJSON(w, http.StatusCreated, assetPayload{ID: created.ID, Name: created.Name, Balance: created.Balance})
}
