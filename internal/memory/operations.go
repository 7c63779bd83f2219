package memory

import (
	"context"
	"fmt"

	"fondi/internal/core"
)

func (s *Store) CreateContribution(_ context.Context, c core.Contribution) (core.Contribution, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	c.ID = newID()
	c.CreatedAt = nowUTC()

	fi := s.fundIndex(c.FundID)
	if fi < 0 {
		return core.Contribution{}, fmt.Errorf("fund %s: %w", c.FundID, core.ErrNotFound)
	}
	backup := cloneFund(s.funds[fi])
	for _, a := range c.Allocations {
		if err := s.creditAsset(c.FundID, a.AssetID, a.Amount.Cents); err != nil {
			s.funds[fi] = backup
			return core.Contribution{}, err
		}
	}
	s.contributions = append(s.contributions, cloneContribution(c))
	return c, nil
}

func (s *Store) CreateWithdrawal(_ context.Context, w core.Withdrawal) (core.Withdrawal, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	w.ID = newID()
	w.CreatedAt = nowUTC()

	fi := s.fundIndex(w.FundID)
	if fi < 0 {
		return core.Withdrawal{}, fmt.Errorf("fund %s: %w", w.FundID, core.ErrNotFound)
	}
	backup := cloneFund(s.funds[fi])
	for _, a := range w.Allocations {
		if err := s.debitAsset(w.FundID, a.AssetID, a.Amount.Cents); err != nil {
			s.funds[fi] = backup
			return core.Withdrawal{}, err
		}
	}
	s.withdrawals = append(s.withdrawals, cloneWithdrawal(w))
	return w, nil
}

func (s *Store) CreateFundTransfer(_ context.Context, t core.FundTransfer) (core.FundTransfer, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	t.ID = newID()
	t.CreatedAt = nowUTC()

	fromIdx := s.fundIndex(t.FromFundID)
	toIdx := s.fundIndex(t.ToFundID)
	if fromIdx < 0 {
		return core.FundTransfer{}, fmt.Errorf("fund %s: %w", t.FromFundID, core.ErrNotFound)
	}
	if toIdx < 0 {
		return core.FundTransfer{}, fmt.Errorf("fund %s: %w", t.ToFundID, core.ErrNotFound)
	}

	fromBackup := cloneFund(s.funds[fromIdx])
	toBackup := cloneFund(s.funds[toIdx])
	rollback := func() {
		s.funds[fromIdx] = fromBackup
		s.funds[toIdx] = toBackup
	}

	for _, a := range t.Allocations {
		src, ok := s.funds[fromIdx].AssetByID(a.AssetID)
		if !ok {
			rollback()
			return core.FundTransfer{}, fmt.Errorf("asset %s: %w", a.AssetID, core.ErrUnknownAsset)
		}
		assetName := src.Name

		if err := s.debitAsset(t.FromFundID, a.AssetID, a.Amount.Cents); err != nil {
			rollback()
			return core.FundTransfer{}, err
		}

		// Destination assets are matched by name, created on first use.
		destID := ""
		for j := range s.funds[toIdx].Assets {
			if s.funds[toIdx].Assets[j].Name == assetName {
				destID = s.funds[toIdx].Assets[j].ID
				break
			}
		}
		if destID == "" {
			destID = newID()
			s.funds[toIdx].Assets = append(s.funds[toIdx].Assets,
				core.Asset{ID: destID, FundID: t.ToFundID, Name: assetName})
		}
		if err := s.creditAsset(t.ToFundID, destID, a.Amount.Cents); err != nil {
			rollback()
			return core.FundTransfer{}, err
		}
	}
	s.fundTransfers = append(s.fundTransfers, cloneFundTransfer(t))
	return t, nil
}

func (s *Store) GetContribution(_ context.Context, id string) (core.Contribution, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for i := range s.contributions {
		if s.contributions[i].ID == id {
			return cloneContribution(s.contributions[i]), nil
		}
	}
	return core.Contribution{}, fmt.Errorf("contribution %s: %w", id, core.ErrNotFound)
}

func (s *Store) GetWithdrawal(_ context.Context, id string) (core.Withdrawal, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for i := range s.withdrawals {
		if s.withdrawals[i].ID == id {
			return cloneWithdrawal(s.withdrawals[i]), nil
		}
	}
	return core.Withdrawal{}, fmt.Errorf("withdrawal %s: %w", id, core.ErrNotFound)
}

func (s *Store) ListContributions(_ context.Context, fundID string, year, month int) ([]core.Contribution, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var out []core.Contribution
	for i := range s.contributions {
		c := s.contributions[i]
		if c.FundID == fundID && inMonth(c.Date, year, month) {
			out = append(out, cloneContribution(c))
		}
	}
	byDate(out, func(c core.Contribution) core.Date { return c.Date })
	return out, nil
}

func (s *Store) ListWithdrawals(_ context.Context, fundID string, year, month int) ([]core.Withdrawal, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var out []core.Withdrawal
	for i := range s.withdrawals {
		w := s.withdrawals[i]
		if w.FundID == fundID && inMonth(w.Date, year, month) {
			out = append(out, cloneWithdrawal(w))
		}
	}
	byDate(out, func(w core.Withdrawal) core.Date { return w.Date })
	return out, nil
}

func (s *Store) ListFundTransfers(_ context.Context, year, month int) ([]core.FundTransfer, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var out []core.FundTransfer
	for i := range s.fundTransfers {
		t := s.fundTransfers[i]
		if inMonth(t.Date, year, month) {
			out = append(out, cloneFundTransfer(t))
		}
	}
	byDate(out, func(t core.FundTransfer) core.Date { return t.Date })
	return out, nil
}
