package services

import (
	"context"
	"fmt"

	"fondi/internal/backend"
	"fondi/internal/core"
)

// TransferService stores transfers between accounts.
type TransferService struct {
	store backend.Backend
}

func NewTransferService(store backend.Backend) *TransferService {
	return &TransferService{store: store}
}

// CreateTransfer moves money between two accounts of the same currency.
// The store applies both balance changes atomically and refuses a source
// balance going negative.
func (s *TransferService) CreateTransfer(ctx context.Context, t core.Transfer) (core.Transfer, error) {
	if err := t.Validate(); err != nil {
		return core.Transfer{}, err
	}
	from, err := s.store.GetAccount(ctx, t.FromAccountID)
	if err != nil {
		return core.Transfer{}, err
	}
	to, err := s.store.GetAccount(ctx, t.ToAccountID)
	if err != nil {
		return core.Transfer{}, err
	}
	if from.Currency != to.Currency {
		return core.Transfer{}, fmt.Errorf("%s to %s: %w", from.Currency, to.Currency, core.ErrCurrencyMismatch)
	}
	stored, err := s.store.CreateTransfer(ctx, t)
	if err != nil {
		return core.Transfer{}, fmt.Errorf("store transfer: %w", err)
	}
	return stored, nil
}
