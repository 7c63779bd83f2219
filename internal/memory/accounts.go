package memory

import (
	"context"
	"fmt"

	"fondi/internal/core"
)

func (s *Store) accountIndex(id string) int {
	for i := range s.accounts {
		if s.accounts[i].ID == id {
			return i
		}
	}
	return -1
}

func (s *Store) CreateAccount(_ context.Context, a core.Account) (core.Account, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	a.ID = newID()
	a.CreatedAt = nowUTC()
	s.accounts = append(s.accounts, a)
	return a, nil
}

func (s *Store) GetAccount(_ context.Context, id string) (core.Account, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	i := s.accountIndex(id)
	if i < 0 {
		return core.Account{}, fmt.Errorf("account %s: %w", id, core.ErrNotFound)
	}
	return s.accounts[i], nil
}

func (s *Store) ListAccounts(_ context.Context) ([]core.Account, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	return append([]core.Account(nil), s.accounts...), nil
}

func (s *Store) CreateTransfer(_ context.Context, t core.Transfer) (core.Transfer, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	t.ID = newID()
	t.CreatedAt = nowUTC()

	from := s.accountIndex(t.FromAccountID)
	if from < 0 {
		return core.Transfer{}, fmt.Errorf("account %s: %w", t.FromAccountID, core.ErrNotFound)
	}
	to := s.accountIndex(t.ToAccountID)
	if to < 0 {
		return core.Transfer{}, fmt.Errorf("account %s: %w", t.ToAccountID, core.ErrNotFound)
	}
	if s.accounts[from].Balance.Cents < t.Amount.Cents {
		return core.Transfer{}, fmt.Errorf("account %s: %w", t.FromAccountID, core.ErrInsufficientFunds)
	}
	s.accounts[from].Balance.Cents -= t.Amount.Cents
	s.accounts[to].Balance.Cents += t.Amount.Cents
	s.transfers = append(s.transfers, t)
	return t, nil
}

func (s *Store) ListTransfers(_ context.Context, year, month int) ([]core.Transfer, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var out []core.Transfer
	for _, t := range s.transfers {
		if inMonth(t.Date, year, month) {
			out = append(out, t)
		}
	}
	byDate(out, func(t core.Transfer) core.Date { return t.Date })
	return out, nil
}

func (s *Store) ListTransactions(_ context.Context, accountID string, year, month int) ([]core.Transaction, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var out []core.Transaction
	for _, tr := range s.transactions {
		if tr.AccountID == accountID && inMonth(tr.Date, year, month) {
			out = append(out, tr)
		}
	}
	byDate(out, func(tr core.Transaction) core.Date { return tr.Date })
	return out, nil
}
