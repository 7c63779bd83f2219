package memory

import (
	"context"
	"fmt"

	"fondi/internal/core"
)

func (s *Store) CreateCredit(_ context.Context, c core.Credit, schedule []core.Installment) (core.Credit, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	c.ID = newID()
	c.CreatedAt = nowUTC()
	s.credits = append(s.credits, c)

	insts := make([]core.Installment, len(schedule))
	for i, inst := range schedule {
		inst.CreditID = c.ID
		inst.PaidAt = nil
		insts[i] = inst
	}
	s.installments[c.ID] = insts
	return c, nil
}

// summarize expects the lock to be held.
func (s *Store) summarize(c core.Credit) core.CreditSummary {
	sum := core.CreditSummary{Credit: c}
	for _, inst := range s.installments[c.ID] {
		sum.InstallmentCount++
		if inst.IsPaid() {
			sum.PaidCount++
			sum.TotalPaid.Cents += inst.Amount.Cents
			continue
		}
		sum.RemainingAmount.Cents += inst.Amount.Cents
		if sum.NextDueDate.IsEmpty() || inst.DueDate.Before(sum.NextDueDate.Time) {
			sum.NextDueDate = inst.DueDate
		}
	}
	return sum
}

func (s *Store) GetCredit(_ context.Context, id string) (core.CreditSummary, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, c := range s.credits {
		if c.ID == id {
			return s.summarize(c), nil
		}
	}
	return core.CreditSummary{}, fmt.Errorf("credit %s: %w", id, core.ErrNotFound)
}

func (s *Store) ListCredits(_ context.Context) ([]core.CreditSummary, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var out []core.CreditSummary
	for _, c := range s.credits {
		out = append(out, s.summarize(c))
	}
	return out, nil
}

func (s *Store) ListInstallments(_ context.Context, creditID string, limit, offset int) ([]core.Installment, int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	insts, ok := s.installments[creditID]
	if !ok {
		return nil, 0, fmt.Errorf("credit %s: %w", creditID, core.ErrNotFound)
	}
	total := len(insts)
	if offset < 0 {
		offset = 0
	}
	if offset >= total {
		return nil, total, nil
	}
	end := total
	if limit > 0 && offset+limit < total {
		end = offset + limit
	}
	out := make([]core.Installment, 0, end-offset)
	for _, inst := range insts[offset:end] {
		out = append(out, cloneInstallment(inst))
	}
	return out, total, nil
}

func (s *Store) PayInstallment(_ context.Context, creditID string, sequence int, paidAt core.Date, accountID string) (core.Installment, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	insts, ok := s.installments[creditID]
	if !ok {
		return core.Installment{}, fmt.Errorf("installment %s/%d: %w", creditID, sequence, core.ErrNotFound)
	}
	for i := range insts {
		if insts[i].Sequence != sequence {
			continue
		}
		if insts[i].IsPaid() {
			return core.Installment{}, fmt.Errorf("installment %s/%d: %w", creditID, sequence, core.ErrInstallmentPaid)
		}
		insts[i].PaidAt = &paidAt
		insts[i].AccountID = accountID
		return cloneInstallment(insts[i]), nil
	}
	return core.Installment{}, fmt.Errorf("installment %s/%d: %w", creditID, sequence, core.ErrNotFound)
}
