package services

import (
	"context"
	"testing"
	"time"

	"fondi/internal/core"
	"fondi/internal/memory"
)

func seedRecurring(t *testing.T, store *memory.Store, name string, freq core.Frequency, active bool) core.RecurringIncome {
	t.Helper()
	ri, err := store.CreateRecurringIncome(context.Background(), core.RecurringIncome{
		Name:      name,
		Amount:    core.Money{Cents: 150000},
		Currency:  "EUR",
		Source:    "employer",
		Frequency: freq,
		StartDate: core.NewDate(2024, 1, 1),
		Active:    active,
	})
	if err != nil {
		t.Fatalf("seed recurring income: %v", err)
	}
	return ri
}

func TestProcessDueRecordsAndStamps(t *testing.T) {
	store := memory.NewStore()
	fund := seedFund(t, store, "Savings", "EUR", "Cash")
	seedRule(t, store, fund, core.RulePercentage, 10000, 1)
	processor := NewRecurringProcessor(store, newDistributionService(store))

	seedRecurring(t, store, "Salary", core.Daily, true)
	now := time.Date(2024, 3, 5, 9, 0, 0, 0, time.UTC)

	processed, err := processor.ProcessDue(context.Background(), now)
	if err != nil {
		t.Fatalf("ProcessDue: %v", err)
	}
	if processed != 1 {
		t.Fatalf("expected 1 processed, got %d", processed)
	}

	incomes, err := store.ListIncomes(context.Background(), 2024, 3)
	if err != nil {
		t.Fatalf("ListIncomes: %v", err)
	}
	if len(incomes) != 1 {
		t.Fatalf("expected 1 income, got %d", len(incomes))
	}
	if incomes[0].Note != "recurring: Salary" {
		t.Fatalf("unexpected income note %q", incomes[0].Note)
	}

	got, _ := store.GetFund(context.Background(), fund.ID)
	if got.Balance().Cents != 150000 {
		t.Fatalf("fund balance expected 150000, got %d", got.Balance().Cents)
	}

	templates, err := store.ListRecurringIncomes(context.Background(), true)
	if err != nil {
		t.Fatalf("ListRecurringIncomes: %v", err)
	}
	if len(templates) != 1 || !templates[0].LastRunAt.Equal(now) {
		t.Fatalf("last run not stamped: %+v", templates)
	}

	// same tick again: the daily checker says it already ran today
	processed, err = processor.ProcessDue(context.Background(), now)
	if err != nil {
		t.Fatalf("ProcessDue second run: %v", err)
	}
	if processed != 0 {
		t.Fatalf("expected 0 processed on rerun, got %d", processed)
	}
}

func TestProcessDueIgnoresInactiveTemplates(t *testing.T) {
	store := memory.NewStore()
	processor := NewRecurringProcessor(store, newDistributionService(store))
	seedRecurring(t, store, "Paused", core.Daily, false)

	processed, err := processor.ProcessDue(context.Background(), time.Date(2024, 3, 5, 9, 0, 0, 0, time.UTC))
	if err != nil {
		t.Fatalf("ProcessDue: %v", err)
	}
	if processed != 0 {
		t.Fatalf("expected 0 processed, got %d", processed)
	}
	incomes, _ := store.ListIncomes(context.Background(), 2024, 3)
	if len(incomes) != 0 {
		t.Fatalf("inactive template must not record income, got %d", len(incomes))
	}
}

func TestProcessDueSkipsNotYetDue(t *testing.T) {
	store := memory.NewStore()
	processor := NewRecurringProcessor(store, newDistributionService(store))

	ri := seedRecurring(t, store, "Rent refund", core.Monthly, true)
	ran := time.Date(2024, 3, 1, 8, 0, 0, 0, time.UTC)
	if err := store.MarkRecurringRun(context.Background(), ri.ID, ran); err != nil {
		t.Fatalf("MarkRecurringRun: %v", err)
	}

	// later the same month: not due again
	processed, err := processor.ProcessDue(context.Background(), time.Date(2024, 3, 20, 8, 0, 0, 0, time.UTC))
	if err != nil {
		t.Fatalf("ProcessDue: %v", err)
	}
	if processed != 0 {
		t.Fatalf("expected 0 processed, got %d", processed)
	}
}
