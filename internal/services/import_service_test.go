package services

import (
	"context"
	"errors"
	"testing"

	"fondi/internal/core"
	"fondi/internal/memory"
)

type recordingImportPublisher struct {
	batchIDs []string
}

func (r *recordingImportPublisher) PublishImportJob(_ context.Context, batchID string) error {
	r.batchIDs = append(r.batchIDs, batchID)
	return nil
}

func TestCreateBatchAnalyzesInlineWithoutBroker(t *testing.T) {
	store := memory.NewStore()
	account := seedAccount(t, store, "Checking", "EUR")
	seedMapping(t, store, "payroll", "salary")
	svc := NewImportService(store, nil)

	batch, err := svc.CreateBatch(context.Background(), account.ID, "jan.csv",
		"Date,Description,Amount\n2024-01-15,Payroll,2500.00\n")
	if err != nil {
		t.Fatalf("CreateBatch: %v", err)
	}
	if batch.Status != core.BatchAnalyzed {
		t.Fatalf("status expected analyzed after inline analysis, got %s", batch.Status)
	}
	if batch.NewCount != 1 {
		t.Fatalf("new count expected 1, got %d", batch.NewCount)
	}
}

func TestCreateBatchPublishesWithBroker(t *testing.T) {
	store := memory.NewStore()
	account := seedAccount(t, store, "Checking", "EUR")
	pub := &recordingImportPublisher{}
	svc := NewImportService(store, pub)

	batch, err := svc.CreateBatch(context.Background(), account.ID, "jan.csv",
		"Date,Description,Amount\n2024-01-15,Payroll,2500.00\n")
	if err != nil {
		t.Fatalf("CreateBatch: %v", err)
	}
	if batch.Status != core.BatchPending {
		t.Fatalf("status expected pending while the worker analyzes, got %s", batch.Status)
	}
	if len(pub.batchIDs) != 1 || pub.batchIDs[0] != batch.ID {
		t.Fatalf("expected one published job for %s, got %v", batch.ID, pub.batchIDs)
	}
}

func TestCreateBatchRejectsEmptyCSV(t *testing.T) {
	store := memory.NewStore()
	account := seedAccount(t, store, "Checking", "EUR")
	svc := NewImportService(store, nil)

	if _, err := svc.CreateBatch(context.Background(), account.ID, "empty.csv", "  \n"); !errors.Is(err, core.ErrEmptyCSV) {
		t.Fatalf("expected empty csv error, got %v", err)
	}
}

func TestCreateBatchRejectsUnknownAccount(t *testing.T) {
	store := memory.NewStore()
	svc := NewImportService(store, nil)

	if _, err := svc.CreateBatch(context.Background(), "nope", "jan.csv", "Date,Description,Amount\n"); !errors.Is(err, core.ErrNotFound) {
		t.Fatalf("expected not found, got %v", err)
	}
}

func TestConfirmMaterializesNewEntries(t *testing.T) {
	store := memory.NewStore()
	account := seedAccount(t, store, "Checking", "EUR")
	seedMapping(t, store, "payroll", "salary")
	seedMapping(t, store, "store", "groceries")
	svc := NewImportService(store, nil)

	batch, err := svc.CreateBatch(context.Background(), account.ID, "jan.csv",
		"Date,Description,Amount\n"+
			"2024-01-15,Payroll,2500.00\n"+
			"2024-01-16,Corner Store,-12.50\n"+
			"2024-01-16,Corner Store,-12.50\n") // duplicate, skipped on confirm
	if err != nil {
		t.Fatalf("CreateBatch: %v", err)
	}

	confirmed, n, err := svc.Confirm(context.Background(), batch.ID, core.Date{}, core.Date{})
	if err != nil {
		t.Fatalf("Confirm: %v", err)
	}
	if n != 2 {
		t.Fatalf("expected 2 materialized transactions, got %d", n)
	}
	if confirmed.Status != core.BatchConfirmed {
		t.Fatalf("status expected confirmed, got %s", confirmed.Status)
	}

	txs, err := store.ListTransactions(context.Background(), account.ID, 2024, 1)
	if err != nil {
		t.Fatalf("ListTransactions: %v", err)
	}
	if len(txs) != 2 {
		t.Fatalf("expected 2 transactions, got %d", len(txs))
	}
	if txs[0].Category != "salary" || txs[0].Amount.Cents != 250000 {
		t.Fatalf("unexpected first transaction: %+v", txs[0])
	}
}

func TestConfirmBlocksOnUnmappedInRange(t *testing.T) {
	store := memory.NewStore()
	account := seedAccount(t, store, "Checking", "EUR")
	svc := NewImportService(store, nil)

	batch, err := svc.CreateBatch(context.Background(), account.ID, "jan.csv",
		"Date,Description,Amount\n2024-01-16,Mystery Shop,-9.99\n")
	if err != nil {
		t.Fatalf("CreateBatch: %v", err)
	}

	_, _, err = svc.Confirm(context.Background(), batch.ID, core.Date{}, core.Date{})
	if !errors.Is(err, core.ErrUnmappedEntries) {
		t.Fatalf("expected unmapped entries error, got %v", err)
	}

	got, _ := store.GetBatch(context.Background(), batch.ID)
	if got.Status != core.BatchAnalyzed {
		t.Fatalf("blocked confirm must leave the batch analyzed, got %s", got.Status)
	}
}

func TestConfirmPeriodFiltersEntries(t *testing.T) {
	store := memory.NewStore()
	account := seedAccount(t, store, "Checking", "EUR")
	seedMapping(t, store, "payroll", "salary")
	svc := NewImportService(store, nil)

	// the unmapped line sits outside the confirmed period, so it cannot block
	batch, err := svc.CreateBatch(context.Background(), account.ID, "jan.csv",
		"Date,Description,Amount\n"+
			"2024-01-15,Payroll,2500.00\n"+
			"2024-02-02,Mystery Shop,-9.99\n")
	if err != nil {
		t.Fatalf("CreateBatch: %v", err)
	}

	_, n, err := svc.Confirm(context.Background(), batch.ID,
		core.NewDate(2024, 1, 1), core.NewDate(2024, 1, 31))
	if err != nil {
		t.Fatalf("Confirm: %v", err)
	}
	if n != 1 {
		t.Fatalf("expected 1 transaction inside the period, got %d", n)
	}
}

func TestConfirmRequiresAnalyzedBatch(t *testing.T) {
	store := memory.NewStore()
	account := seedAccount(t, store, "Checking", "EUR")
	pub := &recordingImportPublisher{}
	svc := NewImportService(store, pub)

	batch, err := svc.CreateBatch(context.Background(), account.ID, "jan.csv",
		"Date,Description,Amount\n2024-01-15,Payroll,2500.00\n")
	if err != nil {
		t.Fatalf("CreateBatch: %v", err)
	}

	// still pending: the worker has not analyzed it
	if _, _, err := svc.Confirm(context.Background(), batch.ID, core.Date{}, core.Date{}); !errors.Is(err, core.ErrBatchNotAnalyzed) {
		t.Fatalf("expected not analyzed error, got %v", err)
	}
}

func TestConfirmTwiceFails(t *testing.T) {
	store := memory.NewStore()
	account := seedAccount(t, store, "Checking", "EUR")
	seedMapping(t, store, "payroll", "salary")
	svc := NewImportService(store, nil)

	batch, err := svc.CreateBatch(context.Background(), account.ID, "jan.csv",
		"Date,Description,Amount\n2024-01-15,Payroll,2500.00\n")
	if err != nil {
		t.Fatalf("CreateBatch: %v", err)
	}
	if _, _, err := svc.Confirm(context.Background(), batch.ID, core.Date{}, core.Date{}); err != nil {
		t.Fatalf("first confirm: %v", err)
	}
	if _, _, err := svc.Confirm(context.Background(), batch.ID, core.Date{}, core.Date{}); !errors.Is(err, core.ErrBatchConfirmed) {
		t.Fatalf("expected already confirmed error, got %v", err)
	}
}

func TestReanalyzePicksUpNewMappings(t *testing.T) {
	store := memory.NewStore()
	account := seedAccount(t, store, "Checking", "EUR")
	svc := NewImportService(store, nil)

	batch, err := svc.CreateBatch(context.Background(), account.ID, "jan.csv",
		"Date,Description,Amount\n2024-01-16,Mystery Shop,-9.99\n")
	if err != nil {
		t.Fatalf("CreateBatch: %v", err)
	}
	if batch.UnmapCount != 1 {
		t.Fatalf("expected 1 unmapped before mapping, got %d", batch.UnmapCount)
	}

	seedMapping(t, store, "mystery", "misc")

	reanalyzed, err := svc.Reanalyze(context.Background(), batch.ID)
	if err != nil {
		t.Fatalf("Reanalyze: %v", err)
	}
	if reanalyzed.UnmapCount != 0 || reanalyzed.NewCount != 1 {
		t.Fatalf("expected remapped counts 0 unmapped / 1 new, got %d/%d",
			reanalyzed.UnmapCount, reanalyzed.NewCount)
	}
}

func TestReanalyzeConfirmedBatchFails(t *testing.T) {
	store := memory.NewStore()
	account := seedAccount(t, store, "Checking", "EUR")
	seedMapping(t, store, "payroll", "salary")
	svc := NewImportService(store, nil)

	batch, err := svc.CreateBatch(context.Background(), account.ID, "jan.csv",
		"Date,Description,Amount\n2024-01-15,Payroll,2500.00\n")
	if err != nil {
		t.Fatalf("CreateBatch: %v", err)
	}
	if _, _, err := svc.Confirm(context.Background(), batch.ID, core.Date{}, core.Date{}); err != nil {
		t.Fatalf("Confirm: %v", err)
	}

	if _, err := svc.Reanalyze(context.Background(), batch.ID); !errors.Is(err, core.ErrBatchConfirmed) {
		t.Fatalf("expected already confirmed error, got %v", err)
	}
}
