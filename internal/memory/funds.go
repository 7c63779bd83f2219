package memory

import (
	"context"
	"fmt"

	"fondi/internal/core"
)

func (s *Store) fundIndex(id string) int {
	for i := range s.funds {
		if s.funds[i].ID == id {
			return i
		}
	}
	return -1
}

func (s *Store) CreateFund(_ context.Context, f core.Fund) (core.Fund, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	f.ID = newID()
	f.CreatedAt = nowUTC()
	for i := range f.Assets {
		f.Assets[i].ID = newID()
		f.Assets[i].FundID = f.ID
	}
	s.funds = append(s.funds, cloneFund(f))
	return f, nil
}

func (s *Store) GetFund(_ context.Context, id string) (core.Fund, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	i := s.fundIndex(id)
	if i < 0 {
		return core.Fund{}, fmt.Errorf("fund %s: %w", id, core.ErrNotFound)
	}
	return cloneFund(s.funds[i]), nil
}

func (s *Store) ListFunds(_ context.Context, includeArchived bool) ([]core.Fund, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var out []core.Fund
	for i := range s.funds {
		if !includeArchived && s.funds[i].ArchivedAt != nil {
			continue
		}
		out = append(out, cloneFund(s.funds[i]))
	}
	return out, nil
}

func (s *Store) UpdateFund(_ context.Context, id string, name string, goal core.Money) (core.Fund, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	i := s.fundIndex(id)
	if i < 0 {
		return core.Fund{}, fmt.Errorf("fund %s: %w", id, core.ErrNotFound)
	}
	s.funds[i].Name = name
	s.funds[i].GoalAmount = goal
	return cloneFund(s.funds[i]), nil
}

func (s *Store) ArchiveFund(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	i := s.fundIndex(id)
	if i < 0 || s.funds[i].ArchivedAt != nil {
		return fmt.Errorf("fund %s: %w", id, core.ErrNotFound)
	}
	t := nowUTC()
	s.funds[i].ArchivedAt = &t
	return nil
}

func (s *Store) AddAsset(_ context.Context, fundID string, name string) (core.Asset, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	i := s.fundIndex(fundID)
	if i < 0 {
		return core.Asset{}, fmt.Errorf("fund %s: %w", fundID, core.ErrNotFound)
	}
	a := core.Asset{ID: newID(), FundID: fundID, Name: name}
	s.funds[i].Assets = append(s.funds[i].Assets, a)
	return a, nil
}

// creditAsset and debitAsset expect the lock to be held.

func (s *Store) creditAsset(fundID, assetID string, cents int64) error {
	i := s.fundIndex(fundID)
	if i < 0 {
		return fmt.Errorf("asset %s: %w", assetID, core.ErrUnknownAsset)
	}
	for j := range s.funds[i].Assets {
		if s.funds[i].Assets[j].ID == assetID {
			s.funds[i].Assets[j].Balance.Cents += cents
			return nil
		}
	}
	return fmt.Errorf("asset %s: %w", assetID, core.ErrUnknownAsset)
}

func (s *Store) debitAsset(fundID, assetID string, cents int64) error {
	i := s.fundIndex(fundID)
	if i < 0 {
		return fmt.Errorf("asset %s: %w", assetID, core.ErrUnknownAsset)
	}
	for j := range s.funds[i].Assets {
		if s.funds[i].Assets[j].ID == assetID {
			if s.funds[i].Assets[j].Balance.Cents < cents {
				return fmt.Errorf("asset %s: %w", assetID, core.ErrInsufficientFunds)
			}
			s.funds[i].Assets[j].Balance.Cents -= cents
			return nil
		}
	}
	return fmt.Errorf("asset %s: %w", assetID, core.ErrUnknownAsset)
}
