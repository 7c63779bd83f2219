package services

import (
	"context"
	"errors"
	"testing"

	"fondi/internal/allocation"
	"fondi/internal/core"
	"fondi/internal/memory"
)

type recordingPublisher struct {
	synced []string
}

func (r *recordingPublisher) PublishOperationSync(_ context.Context, id, kind string) error {
	r.synced = append(r.synced, kind)
	return nil
}

func seedFund(t *testing.T, store *memory.Store, name, currency string, assets ...string) core.Fund {
	t.Helper()
	f := core.Fund{Name: name, Currency: currency}
	for _, a := range assets {
		f.Assets = append(f.Assets, core.Asset{Name: a})
	}
	created, err := store.CreateFund(context.Background(), f)
	if err != nil {
		t.Fatalf("seed fund: %v", err)
	}
	return created
}

func contributionFor(fund core.Fund, cents int64) core.Contribution {
	return core.Contribution{
		FundID:      fund.ID,
		Date:        core.NewDate(2024, 1, 15),
		TotalAmount: core.Money{Cents: cents},
		Currency:    fund.Currency,
		Allocations: []core.OperationAllocation{
			{AssetID: fund.Assets[0].ID, Amount: core.Money{Cents: cents}},
		},
	}
}

func TestCreateContributionCreditsFundAndPublishes(t *testing.T) {
	store := memory.NewStore()
	pub := &recordingPublisher{}
	svc := NewOperationService(store, pub)
	fund := seedFund(t, store, "Emergency", "EUR", "Cash")

	stored, err := svc.CreateContribution(context.Background(), contributionFor(fund, 50000))
	if err != nil {
		t.Fatalf("CreateContribution: %v", err)
	}
	if stored.ID == "" {
		t.Fatal("stored contribution must have an id")
	}

	got, err := store.GetFund(context.Background(), fund.ID)
	if err != nil {
		t.Fatalf("GetFund: %v", err)
	}
	if got.Balance().Cents != 50000 {
		t.Fatalf("fund balance expected 50000, got %d", got.Balance().Cents)
	}
	if len(pub.synced) != 1 || pub.synced[0] != string(core.KindContribution) {
		t.Fatalf("expected one contribution sync, got %v", pub.synced)
	}
}

func TestCreateContributionMismatchCarriesBadge(t *testing.T) {
	store := memory.NewStore()
	svc := NewOperationService(store, nil)
	fund := seedFund(t, store, "Emergency", "EUR", "Cash")

	c := contributionFor(fund, 100000)
	c.Allocations[0].Amount = core.Money{Cents: 40000}

	_, err := svc.CreateContribution(context.Background(), c)
	if !errors.Is(err, core.ErrAllocationMismatch) {
		t.Fatalf("expected allocation mismatch, got %v", err)
	}
	var mismatch *allocation.MismatchError
	if !errors.As(err, &mismatch) {
		t.Fatalf("expected *allocation.MismatchError, got %T", err)
	}
	if mismatch.Badge != "+600" {
		t.Fatalf("badge expected +600, got %q", mismatch.Badge)
	}
}

func TestCreateContributionRejectsCurrencyMismatch(t *testing.T) {
	store := memory.NewStore()
	svc := NewOperationService(store, nil)
	fund := seedFund(t, store, "Emergency", "EUR", "Cash")

	c := contributionFor(fund, 1000)
	c.Currency = "USD"

	if _, err := svc.CreateContribution(context.Background(), c); !errors.Is(err, core.ErrCurrencyMismatch) {
		t.Fatalf("expected currency mismatch, got %v", err)
	}
}

func TestCreateContributionRejectsArchivedFund(t *testing.T) {
	store := memory.NewStore()
	svc := NewOperationService(store, nil)
	fund := seedFund(t, store, "Old", "EUR", "Cash")
	if err := store.ArchiveFund(context.Background(), fund.ID); err != nil {
		t.Fatalf("ArchiveFund: %v", err)
	}

	if _, err := svc.CreateContribution(context.Background(), contributionFor(fund, 1000)); !errors.Is(err, core.ErrFundArchived) {
		t.Fatalf("expected archived fund error, got %v", err)
	}
}

func TestCreateContributionRejectsForeignAsset(t *testing.T) {
	store := memory.NewStore()
	svc := NewOperationService(store, nil)
	fund := seedFund(t, store, "Emergency", "EUR", "Cash")
	other := seedFund(t, store, "Travel", "EUR", "Cash")

	c := contributionFor(fund, 1000)
	c.Allocations[0].AssetID = other.Assets[0].ID

	if _, err := svc.CreateContribution(context.Background(), c); !errors.Is(err, core.ErrUnknownAsset) {
		t.Fatalf("expected unknown asset, got %v", err)
	}
}

func TestCreateWithdrawalInsufficientFundsDoesNotPublish(t *testing.T) {
	store := memory.NewStore()
	pub := &recordingPublisher{}
	svc := NewOperationService(store, pub)
	fund := seedFund(t, store, "Emergency", "EUR", "Cash")

	if _, err := svc.CreateContribution(context.Background(), contributionFor(fund, 10000)); err != nil {
		t.Fatalf("seed contribution: %v", err)
	}
	pub.synced = nil

	w := core.Withdrawal{
		FundID:      fund.ID,
		Date:        core.NewDate(2024, 1, 20),
		TotalAmount: core.Money{Cents: 20000},
		Currency:    "EUR",
		Purpose:     "rent",
		Allocations: []core.OperationAllocation{
			{AssetID: fund.Assets[0].ID, Amount: core.Money{Cents: 20000}},
		},
	}
	if _, err := svc.CreateWithdrawal(context.Background(), w); !errors.Is(err, core.ErrInsufficientFunds) {
		t.Fatalf("expected insufficient funds, got %v", err)
	}
	if len(pub.synced) != 0 {
		t.Fatalf("failed withdrawal must not publish, got %v", pub.synced)
	}
}

func TestCreateWithdrawalPublishes(t *testing.T) {
	store := memory.NewStore()
	pub := &recordingPublisher{}
	svc := NewOperationService(store, pub)
	fund := seedFund(t, store, "Emergency", "EUR", "Cash")

	if _, err := svc.CreateContribution(context.Background(), contributionFor(fund, 10000)); err != nil {
		t.Fatalf("seed contribution: %v", err)
	}

	w := core.Withdrawal{
		FundID:      fund.ID,
		Date:        core.NewDate(2024, 1, 20),
		TotalAmount: core.Money{Cents: 4000},
		Currency:    "EUR",
		Purpose:     "groceries",
		Allocations: []core.OperationAllocation{
			{AssetID: fund.Assets[0].ID, Amount: core.Money{Cents: 4000}},
		},
	}
	if _, err := svc.CreateWithdrawal(context.Background(), w); err != nil {
		t.Fatalf("CreateWithdrawal: %v", err)
	}
	if len(pub.synced) != 2 || pub.synced[1] != string(core.KindWithdrawal) {
		t.Fatalf("expected contribution then withdrawal sync, got %v", pub.synced)
	}

	got, err := store.GetFund(context.Background(), fund.ID)
	if err != nil {
		t.Fatalf("GetFund: %v", err)
	}
	if got.Balance().Cents != 6000 {
		t.Fatalf("fund balance expected 6000, got %d", got.Balance().Cents)
	}
}

func TestCreateFundTransferStaysInternal(t *testing.T) {
	store := memory.NewStore()
	pub := &recordingPublisher{}
	svc := NewOperationService(store, pub)
	src := seedFund(t, store, "Emergency", "EUR", "Cash")
	dst := seedFund(t, store, "Travel", "EUR")

	if _, err := svc.CreateContribution(context.Background(), contributionFor(src, 30000)); err != nil {
		t.Fatalf("seed contribution: %v", err)
	}
	pub.synced = nil

	tr := core.FundTransfer{
		Date:        core.NewDate(2024, 2, 1),
		FromFundID:  src.ID,
		ToFundID:    dst.ID,
		TotalAmount: core.Money{Cents: 10000},
		Allocations: []core.OperationAllocation{
			{AssetID: src.Assets[0].ID, Amount: core.Money{Cents: 10000}},
		},
	}
	if _, err := svc.CreateFundTransfer(context.Background(), tr); err != nil {
		t.Fatalf("CreateFundTransfer: %v", err)
	}
	if len(pub.synced) != 0 {
		t.Fatalf("fund transfers must not publish sync messages, got %v", pub.synced)
	}

	gotDst, err := store.GetFund(context.Background(), dst.ID)
	if err != nil {
		t.Fatalf("GetFund: %v", err)
	}
	if gotDst.Balance().Cents != 10000 {
		t.Fatalf("destination balance expected 10000, got %d", gotDst.Balance().Cents)
	}
}

func TestCreateFundTransferRejectsCurrencyMismatch(t *testing.T) {
	store := memory.NewStore()
	svc := NewOperationService(store, nil)
	src := seedFund(t, store, "Emergency", "EUR", "Cash")
	dst := seedFund(t, store, "Vacation", "USD", "Cash")

	tr := core.FundTransfer{
		Date:        core.NewDate(2024, 2, 1),
		FromFundID:  src.ID,
		ToFundID:    dst.ID,
		TotalAmount: core.Money{Cents: 1000},
		Allocations: []core.OperationAllocation{
			{AssetID: src.Assets[0].ID, Amount: core.Money{Cents: 1000}},
		},
	}
	if _, err := svc.CreateFundTransfer(context.Background(), tr); !errors.Is(err, core.ErrCurrencyMismatch) {
		t.Fatalf("expected currency mismatch, got %v", err)
	}
}
