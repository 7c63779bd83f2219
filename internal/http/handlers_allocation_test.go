package http

import (
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPreviewBalancedSplit(t *testing.T) {
	srv := newTestServer(t)

	rec := doJSON(t, srv, http.MethodPost, "/api/allocations/preview", map[string]any{
		"totalAmount": 1000,
		"rows": []map[string]any{
			{"assetId": "a1", "amount": "400"},
			{"assetId": "a2", "amount": 600},
		},
	})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	p := decodeBody[previewPayload](t, rec)
	assert.Equal(t, int64(100000), p.TotalAmount.Cents)
	assert.Equal(t, int64(100000), p.TotalAllocated.Cents)
	assert.True(t, p.Remaining.IsZero())
	assert.Equal(t, "0", p.Badge)
	assert.True(t, p.CanSubmit)
	require.Len(t, p.Rows, 2)
	for _, row := range p.Rows {
		assert.True(t, row.Valid)
		assert.Empty(t, row.Issues)
	}
}

func TestPreviewUnderAllocated(t *testing.T) {
	srv := newTestServer(t)

	rec := doJSON(t, srv, http.MethodPost, "/api/allocations/preview", map[string]any{
		"totalAmount": "1000",
		"rows":        []map[string]any{{"assetId": "a1", "amount": "400"}},
	})
	require.Equal(t, http.StatusOK, rec.Code)

	p := decodeBody[previewPayload](t, rec)
	assert.Equal(t, int64(60000), p.Remaining.Cents)
	assert.Equal(t, "+600", p.Badge)
	assert.False(t, p.CanSubmit)
}

func TestPreviewOverAllocated(t *testing.T) {
	srv := newTestServer(t)

	rec := doJSON(t, srv, http.MethodPost, "/api/allocations/preview", map[string]any{
		"totalAmount": "1000",
		"rows": []map[string]any{
			{"assetId": "a1", "amount": "700"},
			{"assetId": "a2", "amount": "500"},
		},
	})
	require.Equal(t, http.StatusOK, rec.Code)

	p := decodeBody[previewPayload](t, rec)
	assert.Equal(t, int64(-20000), p.Remaining.Cents)
	assert.Equal(t, "-200", p.Badge)
	assert.False(t, p.CanSubmit)
}

// Invalid amount text previews as a zero-value row instead of a decode
// error, exactly like typing "abc" into the form.
func TestPreviewKeepsInvalidText(t *testing.T) {
	srv := newTestServer(t)

	rec := doJSON(t, srv, http.MethodPost, "/api/allocations/preview", map[string]any{
		"totalAmount": "600",
		"rows": []map[string]any{
			{"assetId": "a1", "amount": "abc"},
			{"assetId": "", "amount": "600"},
		},
	})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	p := decodeBody[previewPayload](t, rec)
	require.Len(t, p.Rows, 2)

	bad := p.Rows[0]
	assert.Equal(t, "abc", bad.Raw, "invalid text is echoed back")
	assert.True(t, bad.Amount.IsZero(), "invalid text aggregates as zero")
	assert.False(t, bad.Valid)

	unnamed := p.Rows[1]
	assert.True(t, unnamed.Valid)
	assert.Contains(t, unnamed.Issues, "asset is required")

	// 600 allocated against 600 total: the sum balances, the rows still
	// block submission.
	assert.True(t, p.Remaining.IsZero())
	assert.False(t, p.CanSubmit)
}

func TestPreviewCommaDecimalSeparator(t *testing.T) {
	srv := newTestServer(t)

	rec := doJSON(t, srv, http.MethodPost, "/api/allocations/preview", map[string]any{
		"totalAmount": "12,34",
		"rows":        []map[string]any{{"assetId": "a1", "amount": "12,34"}},
	})
	require.Equal(t, http.StatusOK, rec.Code)

	p := decodeBody[previewPayload](t, rec)
	assert.Equal(t, int64(1234), p.TotalAmount.Cents)
	assert.True(t, p.CanSubmit)
}

func TestPreviewInvalidTotal(t *testing.T) {
	srv := newTestServer(t)

	rec := doJSON(t, srv, http.MethodPost, "/api/allocations/preview", map[string]any{
		"totalAmount": "oops",
		"rows":        []map[string]any{{"assetId": "a1", "amount": "100"}},
	})
	require.Equal(t, http.StatusOK, rec.Code)

	p := decodeBody[previewPayload](t, rec)
	assert.Equal(t, "oops", p.TotalRaw)
	assert.True(t, p.TotalAmount.IsZero())
	assert.Equal(t, int64(-10000), p.Remaining.Cents, "zero total minus allocated")
	assert.False(t, p.CanSubmit)
}

func TestPreviewEmptyRequestIsFreshForm(t *testing.T) {
	srv := newTestServer(t)

	rec := doJSON(t, srv, http.MethodPost, "/api/allocations/preview", map[string]any{})
	require.Equal(t, http.StatusOK, rec.Code)

	p := decodeBody[previewPayload](t, rec)
	require.Len(t, p.Rows, 1, "the fresh form starts with one empty row")
	assert.False(t, p.CanSubmit)
	assert.NotEmpty(t, p.Rows[0].Issues)
}
