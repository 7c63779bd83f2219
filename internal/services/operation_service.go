// Package services orchestrates domain workflows across the persistence
// backend, the message broker, and the export port. Writes persist first
// and treat publishing as best-effort: a dead broker never fails a request
// whose data already committed.
package services

import (
	"context"
	"fmt"
	"log/slog"

	"fondi/internal/allocation"
	"fondi/internal/backend"
	"fondi/internal/core"
)

// SyncPublisher emits export-sync messages for stored operations.
// *amqp.Client satisfies it; nil disables publishing.
type SyncPublisher interface {
	PublishOperationSync(ctx context.Context, operationID, kind string) error
}

// OperationService validates and stores fund operations.
type OperationService struct {
	store     backend.Backend
	publisher SyncPublisher
}

func NewOperationService(store backend.Backend, publisher SyncPublisher) *OperationService {
	return &OperationService{store: store, publisher: publisher}
}

// CreateContribution checks the allocation split against the fund, persists
// the contribution, and publishes a sync message.
func (s *OperationService) CreateContribution(ctx context.Context, c core.Contribution) (core.Contribution, error) {
	if err := c.Validate(); err != nil {
		return core.Contribution{}, err
	}
	if err := s.checkFund(ctx, c.FundID, c.Currency, c.TotalAmount, c.Allocations); err != nil {
		return core.Contribution{}, err
	}
	stored, err := s.store.CreateContribution(ctx, c)
	if err != nil {
		return core.Contribution{}, fmt.Errorf("store contribution: %w", err)
	}
	s.publishSync(ctx, stored.ID, string(core.KindContribution))
	return stored, nil
}

// CreateWithdrawal checks the allocation split against the fund, persists
// the withdrawal, and publishes a sync message. The store refuses any
// allocation that would drive an asset balance negative.
func (s *OperationService) CreateWithdrawal(ctx context.Context, w core.Withdrawal) (core.Withdrawal, error) {
	if err := w.Validate(); err != nil {
		return core.Withdrawal{}, err
	}
	if err := s.checkFund(ctx, w.FundID, w.Currency, w.TotalAmount, w.Allocations); err != nil {
		return core.Withdrawal{}, err
	}
	stored, err := s.store.CreateWithdrawal(ctx, w)
	if err != nil {
		return core.Withdrawal{}, fmt.Errorf("store withdrawal: %w", err)
	}
	s.publishSync(ctx, stored.ID, string(core.KindWithdrawal))
	return stored, nil
}

// CreateFundTransfer moves allocations from one fund to another of the same
// currency. The allocation rows name source-fund assets; destination assets
// are resolved by name inside the store. Transfers stay internal and are
// not published for export.
func (s *OperationService) CreateFundTransfer(ctx context.Context, t core.FundTransfer) (core.FundTransfer, error) {
	if err := t.Validate(); err != nil {
		return core.FundTransfer{}, err
	}
	from, err := s.store.GetFund(ctx, t.FromFundID)
	if err != nil {
		return core.FundTransfer{}, err
	}
	to, err := s.store.GetFund(ctx, t.ToFundID)
	if err != nil {
		return core.FundTransfer{}, err
	}
	if from.IsArchived() {
		return core.FundTransfer{}, fmt.Errorf("fund %s: %w", from.ID, core.ErrFundArchived)
	}
	if to.IsArchived() {
		return core.FundTransfer{}, fmt.Errorf("fund %s: %w", to.ID, core.ErrFundArchived)
	}
	if from.Currency != to.Currency {
		return core.FundTransfer{}, fmt.Errorf("%s to %s: %w", from.Currency, to.Currency, core.ErrCurrencyMismatch)
	}
	if err := allocation.Check(t.TotalAmount, t.Allocations); err != nil {
		return core.FundTransfer{}, err
	}
	for _, a := range t.Allocations {
		if _, ok := from.AssetByID(a.AssetID); !ok {
			return core.FundTransfer{}, fmt.Errorf("asset %s: %w", a.AssetID, core.ErrUnknownAsset)
		}
	}
	stored, err := s.store.CreateFundTransfer(ctx, t)
	if err != nil {
		return core.FundTransfer{}, fmt.Errorf("store fund transfer: %w", err)
	}
	return stored, nil
}

// checkFund verifies the target fund accepts the operation: it exists, is
// not archived, matches the operation currency, the split is exact, and
// every allocation names one of the fund's assets.
func (s *OperationService) checkFund(ctx context.Context, fundID, currency string, total core.Money, allocs []core.OperationAllocation) error {
	fund, err := s.store.GetFund(ctx, fundID)
	if err != nil {
		return err
	}
	if fund.IsArchived() {
		return fmt.Errorf("fund %s: %w", fundID, core.ErrFundArchived)
	}
	if fund.Currency != currency {
		return fmt.Errorf("fund is %s: %w", fund.Currency, core.ErrCurrencyMismatch)
	}
	if err := allocation.Check(total, allocs); err != nil {
		return err
	}
	for _, a := range allocs {
		if _, ok := fund.AssetByID(a.AssetID); !ok {
			return fmt.Errorf("asset %s: %w", a.AssetID, core.ErrUnknownAsset)
		}
	}
	return nil
}

// publishSync emits the export message. Failure is logged, never returned:
// the operation is already stored locally and the sheet catches up later.
func (s *OperationService) publishSync(ctx context.Context, id, kind string) {
	if s.publisher == nil {
		return
	}
	if err := s.publisher.PublishOperationSync(ctx, id, kind); err != nil {
		slog.ErrorContext(ctx, "Failed to publish sync message",
			"operation_id", id, "kind", kind, "error", err)
	}
}
