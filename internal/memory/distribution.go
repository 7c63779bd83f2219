package memory

import (
	"context"
	"fmt"
	"sort"
	"time"

	"fondi/internal/core"
)

func (s *Store) CreateRule(_ context.Context, r core.DistributionRule) (core.DistributionRule, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	r.ID = newID()
	r.CreatedAt = nowUTC()
	s.rules = append(s.rules, r)
	return r, nil
}

func (s *Store) ListRules(_ context.Context) ([]core.DistributionRule, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := append([]core.DistributionRule(nil), s.rules...)
	sort.SliceStable(out, func(i, j int) bool { return out[i].Priority < out[j].Priority })
	return out, nil
}

func (s *Store) UpdateRule(_ context.Context, r core.DistributionRule) (core.DistributionRule, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for i := range s.rules {
		if s.rules[i].ID == r.ID {
			r.CreatedAt = s.rules[i].CreatedAt
			s.rules[i] = r
			return r, nil
		}
	}
	return core.DistributionRule{}, fmt.Errorf("rule %s: %w", r.ID, core.ErrNotFound)
}

func (s *Store) DeleteRule(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for i := range s.rules {
		if s.rules[i].ID == id {
			s.rules = append(s.rules[:i], s.rules[i+1:]...)
			return nil
		}
	}
	return fmt.Errorf("rule %s: %w", id, core.ErrNotFound)
}

func (s *Store) CreateIncome(_ context.Context, in core.Income) (core.Income, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	in.ID = newID()
	in.CreatedAt = nowUTC()
	s.incomes = append(s.incomes, in)
	return in, nil
}

func (s *Store) ListIncomes(_ context.Context, year, month int) ([]core.Income, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var out []core.Income
	for _, in := range s.incomes {
		if inMonth(in.Date, year, month) {
			out = append(out, in)
		}
	}
	byDate(out, func(in core.Income) core.Date { return in.Date })
	return out, nil
}

func (s *Store) CreateRecurringIncome(_ context.Context, ri core.RecurringIncome) (core.RecurringIncome, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	ri.ID = newID()
	ri.CreatedAt = nowUTC()
	ri.LastRunAt = time.Time{}
	s.recurring = append(s.recurring, ri)
	return ri, nil
}

func (s *Store) ListRecurringIncomes(_ context.Context, onlyActive bool) ([]core.RecurringIncome, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var out []core.RecurringIncome
	for _, ri := range s.recurring {
		if onlyActive && !ri.Active {
			continue
		}
		out = append(out, ri)
	}
	return out, nil
}

func (s *Store) DeleteRecurringIncome(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for i := range s.recurring {
		if s.recurring[i].ID == id {
			s.recurring = append(s.recurring[:i], s.recurring[i+1:]...)
			return nil
		}
	}
	return fmt.Errorf("recurring income %s: %w", id, core.ErrNotFound)
}

func (s *Store) MarkRecurringRun(_ context.Context, id string, at time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for i := range s.recurring {
		if s.recurring[i].ID == id {
			s.recurring[i].LastRunAt = at
			return nil
		}
	}
	return fmt.Errorf("recurring income %s: %w", id, core.ErrNotFound)
}
