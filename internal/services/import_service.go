package services

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"fondi/internal/backend"
	"fondi/internal/core"
)

// ImportPublisher queues statement analysis jobs for the worker.
// *amqp.Client satisfies it; nil means analysis runs inline.
type ImportPublisher interface {
	PublishImportJob(ctx context.Context, batchID string) error
}

// ImportService drives statement imports on the API side: upload, analyze,
// confirm. Analysis itself lives in ImportProcessor, which normally runs on
// the worker and doubles as the inline fallback when no broker is
// configured.
type ImportService struct {
	store     backend.Backend
	publisher ImportPublisher
	analyzer  *ImportProcessor
}

func NewImportService(store backend.Backend, publisher ImportPublisher) *ImportService {
	return &ImportService{
		store:     store,
		publisher: publisher,
		analyzer:  NewImportProcessor(store),
	}
}

// CreateBatch stores the uploaded statement and queues its analysis. The
// caller gets the stored batch either way and polls its status; analysis
// problems surface on the batch, not on this call.
func (s *ImportService) CreateBatch(ctx context.Context, accountID, filename, rawCSV string) (core.ImportBatch, error) {
	if _, err := s.store.GetAccount(ctx, accountID); err != nil {
		return core.ImportBatch{}, err
	}
	if strings.TrimSpace(rawCSV) == "" {
		return core.ImportBatch{}, core.ErrEmptyCSV
	}
	stored, err := s.store.CreateBatch(ctx, core.ImportBatch{
		AccountID: accountID,
		Filename:  filename,
		RawCSV:    rawCSV,
		Status:    core.BatchPending,
	})
	if err != nil {
		return core.ImportBatch{}, fmt.Errorf("store batch: %w", err)
	}
	s.dispatch(ctx, stored.ID)
	return s.store.GetBatch(ctx, stored.ID)
}

// Reanalyze re-runs analysis on a batch, picking up mapping changes. A
// confirmed batch is immutable.
func (s *ImportService) Reanalyze(ctx context.Context, batchID string) (core.ImportBatch, error) {
	b, err := s.store.GetBatch(ctx, batchID)
	if err != nil {
		return core.ImportBatch{}, err
	}
	if b.Status == core.BatchConfirmed {
		return core.ImportBatch{}, fmt.Errorf("batch %s: %w", batchID, core.ErrBatchConfirmed)
	}
	s.dispatch(ctx, batchID)
	return s.store.GetBatch(ctx, batchID)
}

// dispatch hands the batch to the worker, or analyzes inline when there is
// no broker or the publish failed. Dispatch failures are logged only: the
// batch stays pending and a later Reanalyze retries it.
func (s *ImportService) dispatch(ctx context.Context, batchID string) {
	if s.publisher != nil {
		err := s.publisher.PublishImportJob(ctx, batchID)
		if err == nil {
			return
		}
		slog.ErrorContext(ctx, "Failed to publish import job, analyzing inline",
			"batch_id", batchID, "error", err)
	}
	if err := s.analyzer.Analyze(ctx, batchID); err != nil {
		slog.ErrorContext(ctx, "Inline analysis failed",
			"batch_id", batchID, "error", err)
	}
}

// Confirm materializes the batch's new entries dated within [from, to] as
// account transactions and marks the batch confirmed. Zero dates leave that
// end unbounded. Duplicates are skipped; unmapped entries in range must be
// resolved (mapped then reanalyzed) first.
func (s *ImportService) Confirm(ctx context.Context, batchID string, from, to core.Date) (core.ImportBatch, int, error) {
	b, err := s.store.GetBatch(ctx, batchID)
	if err != nil {
		return core.ImportBatch{}, 0, err
	}
	switch b.Status {
	case core.BatchAnalyzed:
	case core.BatchConfirmed:
		return core.ImportBatch{}, 0, fmt.Errorf("batch %s: %w", batchID, core.ErrBatchConfirmed)
	default:
		return core.ImportBatch{}, 0, fmt.Errorf("batch %s is %s: %w", batchID, b.Status, core.ErrBatchNotAnalyzed)
	}

	entries, _, err := s.store.ListEntries(ctx, batchID, "", 0, 0)
	if err != nil {
		return core.ImportBatch{}, 0, fmt.Errorf("list entries: %w", err)
	}

	var txs []core.Transaction
	unmapped := 0
	for _, e := range entries {
		if !inPeriod(e.Date, from, to) {
			continue
		}
		switch e.Status {
		case core.EntryUnmapped:
			unmapped++
		case core.EntryNew:
			txs = append(txs, core.Transaction{
				AccountID:   b.AccountID,
				Date:        e.Date,
				Description: e.Description,
				Amount:      e.Amount,
				Currency:    e.Currency,
				Category:    e.Category,
				HashID:      e.HashID,
			})
		}
	}
	if unmapped > 0 {
		return core.ImportBatch{}, 0, fmt.Errorf("%d entries: %w", unmapped, core.ErrUnmappedEntries)
	}

	if err := s.store.ConfirmBatch(ctx, b, txs); err != nil {
		return core.ImportBatch{}, 0, fmt.Errorf("confirm batch: %w", err)
	}
	confirmed, err := s.store.GetBatch(ctx, batchID)
	if err != nil {
		return core.ImportBatch{}, 0, err
	}
	slog.InfoContext(ctx, "Import batch confirmed",
		"batch_id", batchID, "transactions", len(txs))
	return confirmed, len(txs), nil
}

// inPeriod reports whether d falls inside the inclusive [from, to] range;
// a zero date leaves that end open.
func inPeriod(d, from, to core.Date) bool {
	if !from.IsEmpty() && d.Time.Before(from.Time) {
		return false
	}
	if !to.IsEmpty() && d.Time.After(to.Time) {
		return false
	}
	return true
}
