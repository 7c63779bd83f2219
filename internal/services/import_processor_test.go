package services

import (
	"context"
	"testing"

	"fondi/internal/core"
	"fondi/internal/memory"
)

func seedAccount(t *testing.T, store *memory.Store, name, currency string) core.Account {
	t.Helper()
	a, err := store.CreateAccount(context.Background(), core.Account{
		Name:     name,
		Bank:     "Test Bank",
		Currency: currency,
	})
	if err != nil {
		t.Fatalf("seed account: %v", err)
	}
	return a
}

func seedMapping(t *testing.T, store *memory.Store, pattern, category string) core.ImportMapping {
	t.Helper()
	m, err := store.CreateMapping(context.Background(), core.ImportMapping{
		Pattern:  pattern,
		Category: category,
	})
	if err != nil {
		t.Fatalf("seed mapping: %v", err)
	}
	return m
}

func seedBatch(t *testing.T, store *memory.Store, accountID, rawCSV string) core.ImportBatch {
	t.Helper()
	b, err := store.CreateBatch(context.Background(), core.ImportBatch{
		AccountID: accountID,
		Filename:  "statement.csv",
		RawCSV:    rawCSV,
		Status:    core.BatchPending,
	})
	if err != nil {
		t.Fatalf("seed batch: %v", err)
	}
	return b
}

func TestAnalyzeClassifiesEntries(t *testing.T) {
	store := memory.NewStore()
	account := seedAccount(t, store, "Checking", "EUR")
	seedMapping(t, store, "acme payroll", "salary")
	processor := NewImportProcessor(store)

	csvBody := "Date,Description,Amount\n" +
		"2024-01-15,ACME Payroll January,2500.00\n" +
		"2024-01-16,Corner Store,-12.50\n" +
		"2024-01-15,ACME Payroll January,2500.00\n" + // repeats line 2
		"not-a-date,Broken Row,1.00\n"
	batch := seedBatch(t, store, account.ID, csvBody)

	if err := processor.Analyze(context.Background(), batch.ID); err != nil {
		t.Fatalf("Analyze: %v", err)
	}

	got, err := store.GetBatch(context.Background(), batch.ID)
	if err != nil {
		t.Fatalf("GetBatch: %v", err)
	}
	if got.Status != core.BatchAnalyzed {
		t.Fatalf("status expected analyzed, got %s", got.Status)
	}
	if got.NewCount != 1 || got.DupCount != 1 || got.UnmapCount != 1 {
		t.Fatalf("counts expected 1/1/1, got %d/%d/%d", got.NewCount, got.DupCount, got.UnmapCount)
	}
	if len(got.ParseErrors) != 1 {
		t.Fatalf("expected 1 parse error, got %v", got.ParseErrors)
	}
	if got.AnalyzedAt == nil {
		t.Fatal("analyzed_at must be set")
	}

	entries, total, err := store.ListEntries(context.Background(), batch.ID, "", 0, 0)
	if err != nil {
		t.Fatalf("ListEntries: %v", err)
	}
	if total != 3 {
		t.Fatalf("expected 3 entries, got %d", total)
	}
	if entries[0].Status != core.EntryNew || entries[0].Category != "salary" {
		t.Fatalf("line 2 expected new/salary, got %s/%q", entries[0].Status, entries[0].Category)
	}
	if entries[0].Amount.Cents != 250000 {
		t.Fatalf("line 2 amount expected 250000, got %d", entries[0].Amount.Cents)
	}
	if entries[1].Status != core.EntryUnmapped {
		t.Fatalf("line 3 expected unmapped, got %s", entries[1].Status)
	}
	if entries[1].Amount.Cents != -1250 {
		t.Fatalf("line 3 amount expected -1250, got %d", entries[1].Amount.Cents)
	}
	if entries[2].Status != core.EntryDuplicate {
		t.Fatalf("line 4 expected duplicate, got %s", entries[2].Status)
	}
	if entries[0].Currency != "EUR" {
		t.Fatalf("currency should default to the account's, got %q", entries[0].Currency)
	}
}

func TestAnalyzeItalianHeaderAndComma(t *testing.T) {
	store := memory.NewStore()
	account := seedAccount(t, store, "Conto", "EUR")
	seedMapping(t, store, "stipendio", "salary")
	processor := NewImportProcessor(store)

	csvBody := "Data,Descrizione,Importo,Valuta\n" +
		"15/01/2024,Stipendio gennaio,\"2.500,00\",EUR\n" + // thousands dot breaks, collected per line
		"16/01/2024,Stipendio febbraio,\"1250,50\",EUR\n"
	batch := seedBatch(t, store, account.ID, csvBody)

	if err := processor.Analyze(context.Background(), batch.ID); err != nil {
		t.Fatalf("Analyze: %v", err)
	}

	got, _ := store.GetBatch(context.Background(), batch.ID)
	if got.Status != core.BatchAnalyzed {
		t.Fatalf("status expected analyzed, got %s", got.Status)
	}
	if len(got.ParseErrors) != 1 {
		t.Fatalf("expected 1 parse error for the thousands separator, got %v", got.ParseErrors)
	}

	entries, _, err := store.ListEntries(context.Background(), batch.ID, "", 0, 0)
	if err != nil {
		t.Fatalf("ListEntries: %v", err)
	}
	if len(entries) != 1 {
		t.Fatalf("expected 1 entry, got %d", len(entries))
	}
	if entries[0].Amount.Cents != 125050 {
		t.Fatalf("amount expected 125050, got %d", entries[0].Amount.Cents)
	}
	if entries[0].Date.String() != "2024-01-16" {
		t.Fatalf("date expected 2024-01-16, got %s", entries[0].Date)
	}
	if entries[0].Status != core.EntryNew {
		t.Fatalf("expected new, got %s", entries[0].Status)
	}
}

func TestAnalyzeUnreadableFileFailsBatch(t *testing.T) {
	store := memory.NewStore()
	account := seedAccount(t, store, "Checking", "EUR")
	processor := NewImportProcessor(store)

	batch := seedBatch(t, store, account.ID, "Date,Description\n2024-01-15,no amount column\n")

	// nil: retrying cannot fix the file
	if err := processor.Analyze(context.Background(), batch.ID); err != nil {
		t.Fatalf("Analyze should ack an unreadable file, got %v", err)
	}

	got, _ := store.GetBatch(context.Background(), batch.ID)
	if got.Status != core.BatchFailed {
		t.Fatalf("status expected failed, got %s", got.Status)
	}
	if len(got.ParseErrors) == 0 {
		t.Fatal("failure reason must be recorded on the batch")
	}
}

func TestAnalyzeMissingBatchIsAcked(t *testing.T) {
	store := memory.NewStore()
	processor := NewImportProcessor(store)

	if err := processor.Analyze(context.Background(), "no-such-batch"); err != nil {
		t.Fatalf("missing batch should be skipped, got %v", err)
	}
}

func TestAnalyzeDedupsAgainstConfirmedTransactions(t *testing.T) {
	store := memory.NewStore()
	account := seedAccount(t, store, "Checking", "EUR")
	seedMapping(t, store, "store", "groceries")
	processor := NewImportProcessor(store)
	svc := NewImportService(store, nil)

	csvBody := "Date,Description,Amount\n2024-01-16,Corner Store,-12.50\n"
	first, err := svc.CreateBatch(context.Background(), account.ID, "jan.csv", csvBody)
	if err != nil {
		t.Fatalf("CreateBatch: %v", err)
	}
	if _, n, err := svc.Confirm(context.Background(), first.ID, core.Date{}, core.Date{}); err != nil || n != 1 {
		t.Fatalf("Confirm: n=%d err=%v", n, err)
	}

	// same line uploaded again in a fresh batch
	second := seedBatch(t, store, account.ID, csvBody)
	if err := processor.Analyze(context.Background(), second.ID); err != nil {
		t.Fatalf("Analyze: %v", err)
	}
	entries, _, err := store.ListEntries(context.Background(), second.ID, "", 0, 0)
	if err != nil {
		t.Fatalf("ListEntries: %v", err)
	}
	if len(entries) != 1 || entries[0].Status != core.EntryDuplicate {
		t.Fatalf("expected a duplicate entry, got %+v", entries)
	}
}

func TestAnalyzeFirstMappingWins(t *testing.T) {
	store := memory.NewStore()
	account := seedAccount(t, store, "Checking", "EUR")
	seedMapping(t, store, "corner", "groceries")
	seedMapping(t, store, "corner store", "shopping")
	processor := NewImportProcessor(store)

	batch := seedBatch(t, store, account.ID,
		"Date,Description,Amount\n2024-01-16,Corner Store,-12.50\n")
	if err := processor.Analyze(context.Background(), batch.ID); err != nil {
		t.Fatalf("Analyze: %v", err)
	}

	entries, _, _ := store.ListEntries(context.Background(), batch.ID, "", 0, 0)
	if len(entries) != 1 || entries[0].Category != "groceries" {
		t.Fatalf("oldest mapping must win, got %+v", entries)
	}
}

func TestParseSignedAmount(t *testing.T) {
	tests := []struct {
		in      string
		want    int64
		wantErr bool
	}{
		{"12.34", 1234, false},
		{"12,34", 1234, false},
		{"-12.34", -1234, false},
		{"-12,34", -1234, false},
		{"+5", 500, false},
		{"2500.00", 250000, false},
		{"0", 0, false},
		{"", 0, true},
		{"abc", 0, true},
		{"1.234,56", 0, true}, // thousands separator is out of contract
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := parseSignedAmount(tt.in)
			if (err != nil) != tt.wantErr {
				t.Fatalf("parseSignedAmount(%q) error = %v, wantErr %v", tt.in, err, tt.wantErr)
			}
			if !tt.wantErr && got.Cents != tt.want {
				t.Errorf("parseSignedAmount(%q) = %d, want %d", tt.in, got.Cents, tt.want)
			}
		})
	}
}

func TestParseStatementCSVHeaderVariants(t *testing.T) {
	lines, parseErrs, err := parseStatementCSV("\uFEFFdate,DESCRIPTION,Amount\n2024-02-01,Test,1.00\n", "EUR")
	if err != nil {
		t.Fatalf("parseStatementCSV: %v", err)
	}
	if len(parseErrs) != 0 {
		t.Fatalf("unexpected parse errors: %v", parseErrs)
	}
	if len(lines) != 1 || lines[0].amount.Cents != 100 {
		t.Fatalf("unexpected lines: %+v", lines)
	}
}
