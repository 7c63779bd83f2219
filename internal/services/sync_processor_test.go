package services

import (
	"context"
	"testing"

	"fondi/internal/amqp"
	"fondi/internal/core"
	exportmem "fondi/internal/export/memory"
	"fondi/internal/memory"
)

func TestHandleOperationSyncAppendsContribution(t *testing.T) {
	store := memory.NewStore()
	appender := exportmem.New()
	ops := NewOperationService(store, nil)
	processor := NewSyncProcessor(store, appender)
	fund := seedFund(t, store, "Emergency", "EUR", "Cash")

	c := contributionFor(fund, 50000)
	c.Note = "bonus"
	stored, err := ops.CreateContribution(context.Background(), c)
	if err != nil {
		t.Fatalf("CreateContribution: %v", err)
	}

	msg := amqp.NewOperationSyncMessage(stored.ID, string(core.KindContribution))
	if err := processor.HandleOperationSync(context.Background(), msg); err != nil {
		t.Fatalf("HandleOperationSync: %v", err)
	}

	rows := appender.Rows()
	if len(rows) != 1 {
		t.Fatalf("expected 1 appended row, got %d", len(rows))
	}
	row := rows[0]
	if row.Kind != core.KindContribution {
		t.Errorf("kind expected contribution, got %s", row.Kind)
	}
	if row.FundName != "Emergency" {
		t.Errorf("fund name expected Emergency, got %q", row.FundName)
	}
	if row.Amount.Cents != 50000 {
		t.Errorf("amount expected 50000, got %d", row.Amount.Cents)
	}
	if row.Detail != "bonus" {
		t.Errorf("detail expected bonus, got %q", row.Detail)
	}
}

func TestHandleOperationSyncWithdrawalUsesPurpose(t *testing.T) {
	store := memory.NewStore()
	appender := exportmem.New()
	ops := NewOperationService(store, nil)
	processor := NewSyncProcessor(store, appender)
	fund := seedFund(t, store, "Emergency", "EUR", "Cash")

	if _, err := ops.CreateContribution(context.Background(), contributionFor(fund, 50000)); err != nil {
		t.Fatalf("seed contribution: %v", err)
	}
	w, err := ops.CreateWithdrawal(context.Background(), core.Withdrawal{
		FundID:      fund.ID,
		Date:        core.NewDate(2024, 1, 20),
		TotalAmount: core.Money{Cents: 12000},
		Currency:    "EUR",
		Purpose:     "car repair",
		Allocations: []core.OperationAllocation{
			{AssetID: fund.Assets[0].ID, Amount: core.Money{Cents: 12000}},
		},
	})
	if err != nil {
		t.Fatalf("CreateWithdrawal: %v", err)
	}

	msg := amqp.NewOperationSyncMessage(w.ID, string(core.KindWithdrawal))
	if err := processor.HandleOperationSync(context.Background(), msg); err != nil {
		t.Fatalf("HandleOperationSync: %v", err)
	}

	rows := appender.Rows()
	if len(rows) != 1 || rows[0].Detail != "car repair" {
		t.Fatalf("expected withdrawal row with purpose, got %+v", rows)
	}
}

func TestHandleOperationSyncMissingOperationIsSkipped(t *testing.T) {
	store := memory.NewStore()
	appender := exportmem.New()
	processor := NewSyncProcessor(store, appender)

	msg := amqp.NewOperationSyncMessage("gone", string(core.KindContribution))
	if err := processor.HandleOperationSync(context.Background(), msg); err != nil {
		t.Fatalf("missing operation must ack, got %v", err)
	}
	if len(appender.Rows()) != 0 {
		t.Fatal("nothing should be appended for a missing operation")
	}
}

func TestHandleOperationSyncUnknownKindIsDropped(t *testing.T) {
	store := memory.NewStore()
	appender := exportmem.New()
	processor := NewSyncProcessor(store, appender)

	msg := amqp.NewOperationSyncMessage("id", "fund_transfer")
	if err := processor.HandleOperationSync(context.Background(), msg); err != nil {
		t.Fatalf("unknown kind must ack, got %v", err)
	}
	if len(appender.Rows()) != 0 {
		t.Fatal("nothing should be appended for an unknown kind")
	}
}
