package allocation

import (
	"testing"

	"fondi/internal/core"
)

func TestRemainingDerivation(t *testing.T) {
	s := NewSet()
	s.SetTotalAmount("1000")
	s.SetAssetID(0, "A")
	s.SetAllocationAmount(0, "400")
	s.AddRow()
	s.SetAssetID(1, "B")
	s.SetAllocationAmount(1, "250")

	if got := s.TotalAllocated().Cents; got != 65000 {
		t.Fatalf("totalAllocated expected 65000, got %d", got)
	}
	if got := s.Remaining().Cents; got != 35000 {
		t.Fatalf("remaining expected 35000, got %d", got)
	}

	// remaining tracks every mutation
	s.SetAllocationAmount(1, "600")
	if got := s.Remaining().Cents; got != 0 {
		t.Fatalf("remaining expected 0, got %d", got)
	}
	s.SetTotalAmount("1200")
	if got := s.Remaining().Cents; got != 20000 {
		t.Fatalf("remaining expected 20000, got %d", got)
	}
}

func TestExactSplitEnablesSubmit(t *testing.T) {
	s := NewSet()
	s.SetTotalAmount("1000")
	s.SetAssetID(0, "A")
	s.SetAllocationAmount(0, "400")
	s.AddRow()
	s.SetAssetID(1, "B")
	s.SetAllocationAmount(1, "600")

	if got := s.Remaining().Cents; got != 0 {
		t.Fatalf("remaining expected 0, got %d", got)
	}
	if !s.CanSubmit() {
		t.Fatal("exact split should enable submit")
	}
}

func TestUnderAllocationBlocksSubmit(t *testing.T) {
	s := NewSet()
	s.SetTotalAmount("1000")
	s.SetAssetID(0, "A")
	s.SetAllocationAmount(0, "400")

	if got := s.Remaining().Cents; got != 60000 {
		t.Fatalf("remaining expected 60000, got %d", got)
	}
	if s.CanSubmit() {
		t.Fatal("under-allocation should block submit")
	}
	if got := s.Badge(); got != "+600" {
		t.Fatalf("badge expected +600, got %q", got)
	}
}

func TestOverAllocationBlocksSubmit(t *testing.T) {
	s := NewSet()
	s.SetTotalAmount("1000")
	s.SetAssetID(0, "A")
	s.SetAllocationAmount(0, "700")
	s.AddRow()
	s.SetAssetID(1, "B")
	s.SetAllocationAmount(1, "500")

	if got := s.Remaining().Cents; got != -20000 {
		t.Fatalf("remaining expected -20000, got %d", got)
	}
	if s.CanSubmit() {
		t.Fatal("over-allocation should block submit")
	}
	if got := s.Badge(); got != "-200" {
		t.Fatalf("badge expected -200, got %q", got)
	}
}

func TestBalancedBadgeIsZero(t *testing.T) {
	s := NewSet()
	s.SetTotalAmount("100")
	s.SetAssetID(0, "A")
	s.SetAllocationAmount(0, "100")
	if got := s.Badge(); got != "0" {
		t.Fatalf("badge expected 0, got %q", got)
	}
}

func TestRemoveLastRowIsNoop(t *testing.T) {
	s := NewSet()
	s.SetAssetID(0, "A")
	s.SetAllocationAmount(0, "10")

	s.RemoveRow(0)
	rows := s.Rows()
	if len(rows) != 1 {
		t.Fatalf("row count expected 1, got %d", len(rows))
	}
	if rows[0].AssetID != "A" || rows[0].Amount.Cents != 1000 {
		t.Fatal("no-op removal must not clear the row")
	}

	// out-of-range indexes are ignored too
	s.AddRow()
	s.RemoveRow(5)
	s.RemoveRow(-1)
	if len(s.Rows()) != 2 {
		t.Fatalf("row count expected 2, got %d", len(s.Rows()))
	}
}

func TestRemoveRowRecomputes(t *testing.T) {
	s := NewSet()
	s.SetTotalAmount("1000")
	s.SetAssetID(0, "A")
	s.SetAllocationAmount(0, "400")
	s.AddRow()
	s.SetAssetID(1, "B")
	s.SetAllocationAmount(1, "600")

	s.RemoveRow(1)
	if got := s.Remaining().Cents; got != 60000 {
		t.Fatalf("remaining expected 60000 after removal, got %d", got)
	}
}

func TestInvalidTextAggregatesAsZero(t *testing.T) {
	s := NewSet()
	s.SetTotalAmount("1000")
	s.SetAssetID(0, "A")
	s.SetAllocationAmount(0, "abc")

	if got := s.Remaining().Cents; got != 100000 {
		t.Fatalf("remaining expected 100000, got %d", got)
	}
	rows := s.Rows()
	if rows[0].Raw != "abc" {
		t.Fatalf("raw text must be preserved as entered, got %q", rows[0].Raw)
	}
	if rows[0].Valid {
		t.Fatal("unparseable amount should not be valid")
	}

	// invalid total counts as zero as well
	s.SetTotalAmount("x")
	if got := s.Remaining().Cents; got != 0 {
		t.Fatalf("remaining expected 0 with invalid total, got %d", got)
	}
	if s.TotalAmountRaw() != "x" {
		t.Fatalf("total raw must be preserved, got %q", s.TotalAmountRaw())
	}
}

func TestMissingAssetBlocksSubmit(t *testing.T) {
	s := NewSet()
	s.SetTotalAmount("100")
	s.SetAllocationAmount(0, "100")

	if got := s.Remaining().Cents; got != 0 {
		t.Fatalf("remaining expected 0, got %d", got)
	}
	if s.CanSubmit() {
		t.Fatal("missing asset id should block submit even when sums match")
	}
	issues := s.Rows()[0].Issues()
	if len(issues) != 1 || issues[0] != "asset is required" {
		t.Fatalf("unexpected issues: %v", issues)
	}
}

func TestZeroAmountRowBlocksSubmit(t *testing.T) {
	s := NewSet()
	s.SetTotalAmount("100")
	s.SetAssetID(0, "A")
	s.SetAllocationAmount(0, "100")
	s.AddRow()
	s.SetAssetID(1, "B")
	s.SetAllocationAmount(1, "0")

	if got := s.Remaining().Cents; got != 0 {
		t.Fatalf("remaining expected 0, got %d", got)
	}
	if s.CanSubmit() {
		t.Fatal("zero-amount row should block submit")
	}
}

func TestDuplicateAssetIDsAllowed(t *testing.T) {
	s := NewSet()
	s.SetTotalAmount("300")
	s.SetAssetID(0, "A")
	s.SetAllocationAmount(0, "100")
	s.AddRow()
	s.SetAssetID(1, "A")
	s.SetAllocationAmount(1, "200")

	if !s.CanSubmit() {
		t.Fatal("duplicate asset ids are permitted")
	}
}

func TestRecomputeIdempotence(t *testing.T) {
	s := NewSet()
	s.SetTotalAmount("1000")
	s.SetAssetID(0, "A")
	s.SetAllocationAmount(0, "333.33")

	first := s.Remaining()
	for i := 0; i < 100; i++ {
		s.Recompute()
	}
	if s.Remaining() != first {
		t.Fatalf("remaining drifted: %v -> %v", first, s.Remaining())
	}
}

func TestFromOperation(t *testing.T) {
	allocs := []core.OperationAllocation{
		{AssetID: "A", Amount: core.Money{Cents: 40000}},
		{AssetID: "B", Amount: core.Money{Cents: 60000}},
	}
	s := FromOperation(core.Money{Cents: 100000}, allocs)
	if !s.CanSubmit() {
		t.Fatal("exact operation split should submit")
	}

	short := FromOperation(core.Money{Cents: 100000}, allocs[:1])
	if short.CanSubmit() {
		t.Fatal("short operation split should not submit")
	}
	if got := short.Badge(); got != "+600" {
		t.Fatalf("badge expected +600, got %q", got)
	}

	empty := FromOperation(core.Money{Cents: 100000}, nil)
	if len(empty.Rows()) != 1 {
		t.Fatal("empty operation still has the minimum row")
	}
}
