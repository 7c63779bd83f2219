package allocation

import (
	"errors"
	"testing"

	"fondi/internal/core"
)

func TestCheckExactSplit(t *testing.T) {
	err := Check(core.Money{Cents: 100000}, []core.OperationAllocation{
		{AssetID: "A", Amount: core.Money{Cents: 40000}},
		{AssetID: "B", Amount: core.Money{Cents: 60000}},
	})
	if err != nil {
		t.Fatalf("exact split should pass, got %v", err)
	}
}

func TestCheckMismatchCarriesBadge(t *testing.T) {
	err := Check(core.Money{Cents: 100000}, []core.OperationAllocation{
		{AssetID: "A", Amount: core.Money{Cents: 40000}},
	})
	if !errors.Is(err, core.ErrAllocationMismatch) {
		t.Fatalf("expected allocation mismatch, got %v", err)
	}
	var mismatch *MismatchError
	if !errors.As(err, &mismatch) {
		t.Fatalf("expected *MismatchError, got %T", err)
	}
	if mismatch.Badge != "+600" {
		t.Fatalf("badge expected +600, got %q", mismatch.Badge)
	}
	if mismatch.Remaining.Cents != 60000 {
		t.Fatalf("remaining expected 60000, got %d", mismatch.Remaining.Cents)
	}
}

func TestCheckOvershootBadge(t *testing.T) {
	err := Check(core.Money{Cents: 100000}, []core.OperationAllocation{
		{AssetID: "A", Amount: core.Money{Cents: 120000}},
	})
	var mismatch *MismatchError
	if !errors.As(err, &mismatch) {
		t.Fatalf("expected *MismatchError, got %v", err)
	}
	if mismatch.Badge != "-200" {
		t.Fatalf("badge expected -200, got %q", mismatch.Badge)
	}
}

func TestCheckRowValidation(t *testing.T) {
	tests := []struct {
		name   string
		total  core.Money
		allocs []core.OperationAllocation
		want   error
	}{
		{
			name:  "zero total",
			total: core.Money{},
			allocs: []core.OperationAllocation{
				{AssetID: "A", Amount: core.Money{Cents: 100}},
			},
			want: core.ErrInvalidAmount,
		},
		{
			name:   "no allocations",
			total:  core.Money{Cents: 100},
			allocs: nil,
			want:   core.ErrInvalidAmount,
		},
		{
			name:  "missing asset id",
			total: core.Money{Cents: 100},
			allocs: []core.OperationAllocation{
				{AssetID: "", Amount: core.Money{Cents: 100}},
			},
			want: core.ErrEmptyAssetID,
		},
		{
			name:  "non-positive row",
			total: core.Money{Cents: 100},
			allocs: []core.OperationAllocation{
				{AssetID: "A", Amount: core.Money{Cents: 100}},
				{AssetID: "B", Amount: core.Money{}},
			},
			want: core.ErrInvalidAmount,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := Check(tt.total, tt.allocs)
			if !errors.Is(err, tt.want) {
				t.Errorf("expected %v, got %v", tt.want, err)
			}
		})
	}
}
