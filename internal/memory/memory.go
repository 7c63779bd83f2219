// Package memory is an in-memory backend used by tests and by local runs
// that do not want a database file. It mirrors the SQLite layer's behavior,
// including the balance-integrity errors, so the two are interchangeable
// behind backend.Backend.
package memory

import (
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"fondi/internal/core"
)

// Store holds everything behind one mutex. The dataset is a single
// household's finances; contention is not a concern, correctness under the
// race detector is.
type Store struct {
	mu sync.Mutex

	funds         []core.Fund
	contributions []core.Contribution
	withdrawals   []core.Withdrawal
	fundTransfers []core.FundTransfer

	accounts     []core.Account
	transfers    []core.Transfer
	transactions []core.Transaction

	rules     []core.DistributionRule
	incomes   []core.Income
	recurring []core.RecurringIncome

	credits      []core.Credit
	installments map[string][]core.Installment

	batches  []core.ImportBatch
	entries  map[string][]core.StatementEntry
	mappings []core.ImportMapping
}

func NewStore() *Store {
	return &Store{
		installments: make(map[string][]core.Installment),
		entries:      make(map[string][]core.StatementEntry),
	}
}

func newID() string {
	return uuid.NewString()
}

func inMonth(d core.Date, year, month int) bool {
	return d.Year() == year && d.Month() == month
}

// byDate sorts a copied result slice by date, keeping insertion order for
// same-day items. Matches the SQL "ORDER BY date, created_at".
func byDate[T any](items []T, date func(T) core.Date) {
	sort.SliceStable(items, func(i, j int) bool {
		return date(items[i]).Before(date(items[j]).Time)
	})
}

func cloneFund(f core.Fund) core.Fund {
	out := f
	out.Assets = append([]core.Asset(nil), f.Assets...)
	if f.ArchivedAt != nil {
		t := *f.ArchivedAt
		out.ArchivedAt = &t
	}
	return out
}

func cloneAllocations(in []core.OperationAllocation) []core.OperationAllocation {
	return append([]core.OperationAllocation(nil), in...)
}

func cloneContribution(c core.Contribution) core.Contribution {
	out := c
	out.Allocations = cloneAllocations(c.Allocations)
	return out
}

func cloneWithdrawal(w core.Withdrawal) core.Withdrawal {
	out := w
	out.Allocations = cloneAllocations(w.Allocations)
	return out
}

func cloneFundTransfer(t core.FundTransfer) core.FundTransfer {
	out := t
	out.Allocations = cloneAllocations(t.Allocations)
	return out
}

func cloneInstallment(i core.Installment) core.Installment {
	out := i
	if i.PaidAt != nil {
		d := *i.PaidAt
		out.PaidAt = &d
	}
	return out
}

func cloneBatch(b core.ImportBatch) core.ImportBatch {
	out := b
	out.ParseErrors = append([]string(nil), b.ParseErrors...)
	if b.AnalyzedAt != nil {
		t := *b.AnalyzedAt
		out.AnalyzedAt = &t
	}
	return out
}

func nowUTC() time.Time {
	return time.Now().UTC()
}
