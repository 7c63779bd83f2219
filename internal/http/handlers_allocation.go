package http

import (
	"net/http"

	"fondi/internal/allocation"
	"fondi/internal/core"
)

type previewRowRequest struct {
	AssetID string   `json:"assetId"`
	Amount  jsonText `json:"amount"`
}

// previewRequest accepts amounts as JSON numbers or strings; the raw text
// reaches the form engine untouched so invalid input previews instead of
// failing to decode.
type previewRequest struct {
	TotalAmount jsonText            `json:"totalAmount"`
	Rows        []previewRowRequest `json:"rows"`
}

type previewRowPayload struct {
	AssetID string     `json:"assetId"`
	Amount  core.Money `json:"amount"`
	Raw     string     `json:"raw"`
	Valid   bool       `json:"valid"`
	Issues  []string   `json:"issues"`
}

type previewPayload struct {
	TotalAmount    core.Money          `json:"totalAmount"`
	TotalRaw       string              `json:"totalRaw"`
	TotalAllocated core.Money          `json:"totalAllocated"`
	Remaining      core.Money          `json:"remaining"`
	Badge          string              `json:"badge"`
	CanSubmit      bool                `json:"canSubmit"`
	Rows           []previewRowPayload `json:"rows"`
}

// handlePreviewAllocation runs the allocation form arithmetic without
// writing anything. It answers 200 even when the split is inconsistent;
// the mismatch is the payload, not an error. A request with no rows
// previews the fresh form state, which starts with one empty row.
func (s *Server) handlePreviewAllocation(w http.ResponseWriter, r *http.Request) {
	var req previewRequest
	if err := decodeJSON(r, &req); err != nil {
		invalidBody(w, err)
		return
	}

	set := allocation.NewSet()
	set.SetTotalAmount(string(req.TotalAmount))
	for i, row := range req.Rows {
		if i > 0 {
			set.AddRow()
		}
		set.SetAssetID(i, row.AssetID)
		set.SetAllocationAmount(i, string(row.Amount))
	}

	rows := set.Rows()
	payloadRows := make([]previewRowPayload, 0, len(rows))
	for _, row := range rows {
		issues := row.Issues()
		if issues == nil {
			issues = []string{}
		}
		payloadRows = append(payloadRows, previewRowPayload{
			AssetID: row.AssetID,
			Amount:  row.Amount,
			Raw:     row.Raw,
			Valid:   row.Valid,
			Issues:  issues,
		})
	}

	respondJSON(w, http.StatusOK, previewPayload{
		TotalAmount:    set.TotalAmount(),
		TotalRaw:       set.TotalAmountRaw(),
		TotalAllocated: set.TotalAllocated(),
		Remaining:      set.Remaining(),
		Badge:          set.Badge(),
		CanSubmit:      set.CanSubmit(),
		Rows:           payloadRows,
	})
}
