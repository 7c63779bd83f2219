// Package allocation implements the allocation-consistency engine shared by
// contributions, withdrawals, and fund transfers: split a declared total
// across asset rows and gate submission until the split is exact.
//
// Historically each of those three flows carried its own copy of this
// arithmetic; they now all validate through this one package.
package allocation

import (
	"fondi/internal/core"
)

// Row is one allocation line: a declared amount of a specific asset.
// Raw preserves the text exactly as entered so an invalid value can be
// redisplayed for correction; invalid or empty text aggregates as zero.
type Row struct {
	AssetID string
	Raw     string
	Amount  core.Money
	Valid   bool
}

// Issues lists what blocks this row from submission.
func (r Row) Issues() []string {
	var issues []string
	if r.AssetID == "" {
		issues = append(issues, "asset is required")
	}
	if r.Amount.Cents <= 0 {
		issues = append(issues, "amount must be positive")
	}
	return issues
}

// Set is the state of one allocation form: a total and its rows, with the
// allocated sum and remaining delta recomputed after every mutation.
// Derived values are never stored elsewhere; a Set lives for the duration
// of one request or dialog and is discarded afterwards.
type Set struct {
	totalRaw string
	total    core.Money
	rows     []Row

	totalAllocated core.Money
	remaining      core.Money
}

// NewSet returns the fresh form state: zero total, one empty row.
func NewSet() *Set {
	s := &Set{rows: []Row{{}}}
	s.Recompute()
	return s
}

// FromOperation builds a Set from already-parsed operation values, so the
// create paths validate with the same arithmetic the interactive preview
// uses.
func FromOperation(total core.Money, allocs []core.OperationAllocation) *Set {
	s := &Set{total: total, totalRaw: total.String()}
	if len(allocs) == 0 {
		s.rows = []Row{{}}
	} else {
		s.rows = make([]Row, len(allocs))
		for i, a := range allocs {
			s.rows[i] = Row{
				AssetID: a.AssetID,
				Raw:     a.Amount.String(),
				Amount:  a.Amount,
				Valid:   true,
			}
		}
	}
	s.Recompute()
	return s
}

// AddRow appends an empty allocation row. No upper bound.
func (s *Set) AddRow() {
	s.rows = append(s.rows, Row{})
	s.Recompute()
}

// RemoveRow removes the row at index. Removing the last remaining row is a
// no-op: the row count never drops below one. Out-of-range indexes are
// ignored.
func (s *Set) RemoveRow(index int) {
	if len(s.rows) <= 1 || index < 0 || index >= len(s.rows) {
		return
	}
	s.rows = append(s.rows[:index], s.rows[index+1:]...)
	s.Recompute()
}

// SetTotalAmount parses the entered total. Unparseable text counts as zero
// but is preserved as entered.
func (s *Set) SetTotalAmount(raw string) {
	s.totalRaw = raw
	if m, err := core.ParseAmount(raw); err == nil {
		s.total = m
	} else {
		s.total = core.Money{}
	}
	s.Recompute()
}

// SetAllocationAmount parses the entered amount for the row at index.
// Unparseable or empty text aggregates as zero; the raw text is kept
// as-entered for redisplay. Out-of-range indexes are ignored.
func (s *Set) SetAllocationAmount(index int, raw string) {
	if index < 0 || index >= len(s.rows) {
		return
	}
	r := &s.rows[index]
	r.Raw = raw
	if m, err := core.ParseAmount(raw); err == nil {
		r.Amount = m
		r.Valid = true
	} else {
		r.Amount = core.Money{}
		r.Valid = false
	}
	s.Recompute()
}

// SetAssetID assigns the asset for the row at index. Asset ids are not
// required to be unique across rows.
func (s *Set) SetAssetID(index int, assetID string) {
	if index < 0 || index >= len(s.rows) {
		return
	}
	s.rows[index].AssetID = assetID
	s.Recompute()
}

// Recompute derives totalAllocated and remaining from the current rows.
// It is idempotent: with unchanged inputs the derived values are identical
// on every call, since they are recomputed from scratch in exact cents.
func (s *Set) Recompute() {
	var sum int64
	for _, r := range s.rows {
		sum += r.Amount.Cents
	}
	s.totalAllocated = core.Money{Cents: sum}
	s.remaining = core.Money{Cents: s.total.Cents - sum}
}

// TotalAmount is the parsed declared total.
func (s *Set) TotalAmount() core.Money { return s.total }

// TotalAmountRaw is the total as entered.
func (s *Set) TotalAmountRaw() string { return s.totalRaw }

// TotalAllocated is the sum of all row amounts.
func (s *Set) TotalAllocated() core.Money { return s.totalAllocated }

// Remaining is totalAmount minus totalAllocated. Negative when the rows
// overshoot the total.
func (s *Set) Remaining() core.Money { return s.remaining }

// Rows returns a copy of the current rows in insertion order.
func (s *Set) Rows() []Row {
	out := make([]Row, len(s.rows))
	copy(out, s.rows)
	return out
}

// CanSubmit reports whether the split is exact and every row is complete:
// remaining is exactly zero and each row names an asset and carries a
// positive amount.
func (s *Set) CanSubmit() bool {
	if s.remaining.Cents != 0 {
		return false
	}
	for _, r := range s.rows {
		if len(r.Issues()) > 0 {
			return false
		}
	}
	return true
}

// Badge renders the remaining delta for the mismatch indicator: "+600"
// when 600 is still unallocated, "-200" when rows overshoot by 200, "0"
// when balanced. Negative badges get destructive styling downstream.
func (s *Set) Badge() string {
	if s.remaining.Cents > 0 {
		return "+" + s.remaining.String()
	}
	return s.remaining.String()
}
