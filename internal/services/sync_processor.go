package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"fondi/internal/amqp"
	"fondi/internal/core"
	"fondi/internal/export"
)

// SyncProcessor mirrors stored operations to the export sheet. The worker
// feeds it operation-sync messages; each becomes one appended row.
type SyncProcessor struct {
	source   export.OperationSource
	appender export.RowAppender
}

func NewSyncProcessor(source export.OperationSource, appender export.RowAppender) *SyncProcessor {
	return &SyncProcessor{source: source, appender: appender}
}

// HandleOperationSync loads the operation named by the message and appends
// it through the export port. Returning nil acks the message; that covers
// success, an operation deleted before the sync ran, and unknown kinds
// (requeueing cannot fix either). Append failures return non-nil so the
// message requeues.
func (p *SyncProcessor) HandleOperationSync(ctx context.Context, msg *amqp.OperationSyncMessage) error {
	var (
		row export.OperationRow
		err error
	)
	switch core.OperationKind(msg.Kind) {
	case core.KindContribution:
		row, err = p.contributionRow(ctx, msg.OperationID)
	case core.KindWithdrawal:
		row, err = p.withdrawalRow(ctx, msg.OperationID)
	default:
		slog.WarnContext(ctx, "Unknown operation kind, dropping",
			"operation_id", msg.OperationID, "kind", msg.Kind)
		return nil
	}
	if errors.Is(err, core.ErrNotFound) {
		slog.WarnContext(ctx, "Operation vanished before sync, skipping",
			"operation_id", msg.OperationID, "kind", msg.Kind)
		return nil
	}
	if err != nil {
		return err
	}

	ref, err := p.appender.AppendRow(ctx, row)
	if err != nil {
		return fmt.Errorf("append row for %s: %w", msg.OperationID, err)
	}
	slog.InfoContext(ctx, "Operation synced",
		"operation_id", msg.OperationID, "kind", msg.Kind, "row_ref", ref)
	return nil
}

func (p *SyncProcessor) contributionRow(ctx context.Context, id string) (export.OperationRow, error) {
	c, err := p.source.GetContribution(ctx, id)
	if err != nil {
		return export.OperationRow{}, err
	}
	return export.OperationRow{
		Date:     c.Date,
		Kind:     core.KindContribution,
		FundName: p.fundName(ctx, c.FundID),
		Amount:   c.TotalAmount,
		Currency: c.Currency,
		Detail:   c.Note,
	}, nil
}

func (p *SyncProcessor) withdrawalRow(ctx context.Context, id string) (export.OperationRow, error) {
	w, err := p.source.GetWithdrawal(ctx, id)
	if err != nil {
		return export.OperationRow{}, err
	}
	return export.OperationRow{
		Date:     w.Date,
		Kind:     core.KindWithdrawal,
		FundName: p.fundName(ctx, w.FundID),
		Amount:   w.TotalAmount,
		Currency: w.Currency,
		Detail:   w.Purpose,
	}, nil
}

// fundName resolves the fund's display name; the id stands in when the
// lookup fails so a sync never stalls on a missing fund.
func (p *SyncProcessor) fundName(ctx context.Context, fundID string) string {
	f, err := p.source.GetFund(ctx, fundID)
	if err != nil {
		return fundID
	}
	return f.Name
}
