package allocation

import (
	"fmt"

	"fondi/internal/core"
)

// MismatchError reports an inexact split: the rows do not sum to the
// declared total. Remaining carries the signed delta and Badge its rendered
// form, so API error payloads show the same indicator the preview does.
type MismatchError struct {
	Remaining core.Money
	Badge     string
}

func (e *MismatchError) Error() string {
	return fmt.Sprintf("allocation mismatch: remaining %s", e.Badge)
}

// Unwrap makes errors.Is(err, core.ErrAllocationMismatch) hold.
func (e *MismatchError) Unwrap() error { return core.ErrAllocationMismatch }

// Check validates already-parsed operation values with the same arithmetic
// the interactive form uses. Row-level problems are reported before the sum
// is considered; an inexact sum yields a *MismatchError.
func Check(total core.Money, allocs []core.OperationAllocation) error {
	if total.Cents <= 0 {
		return fmt.Errorf("total: %w", core.ErrInvalidAmount)
	}
	if len(allocs) == 0 {
		return fmt.Errorf("at least one allocation required: %w", core.ErrInvalidAmount)
	}
	for i, a := range allocs {
		if a.AssetID == "" {
			return fmt.Errorf("allocation %d: %w", i+1, core.ErrEmptyAssetID)
		}
		if a.Amount.Cents <= 0 {
			return fmt.Errorf("allocation %d: %w", i+1, core.ErrInvalidAmount)
		}
	}
	s := FromOperation(total, allocs)
	if s.Remaining().Cents != 0 {
		return &MismatchError{Remaining: s.Remaining(), Badge: s.Badge()}
	}
	return nil
}
