package services

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"fondi/internal/backend"
	"fondi/internal/core"
)

// RecurringProcessor turns due recurring income templates into recorded,
// distributed incomes. The distribution worker invokes it on every cron
// tick.
type RecurringProcessor struct {
	store        backend.Backend
	distribution *DistributionService
}

func NewRecurringProcessor(store backend.Backend, distribution *DistributionService) *RecurringProcessor {
	return &RecurringProcessor{store: store, distribution: distribution}
}

// ProcessDue records every active template whose frequency says it should
// run at now. Failures on individual templates are logged and skipped so
// one broken template cannot stall the rest. Returns how many ran.
func (p *RecurringProcessor) ProcessDue(ctx context.Context, now time.Time) (int, error) {
	if p.store == nil || p.distribution == nil {
		return 0, fmt.Errorf("recurring processor not initialized")
	}

	actives, err := p.store.ListRecurringIncomes(ctx, true)
	if err != nil {
		return 0, fmt.Errorf("list recurring incomes: %w", err)
	}

	slog.InfoContext(ctx, "Processing recurring incomes",
		"total_active", len(actives),
		"processing_date", now.Format("2006-01-02"))

	processed := 0
	for _, ri := range actives {
		checker, err := GetDuenessChecker(ri.Frequency)
		if err != nil {
			slog.ErrorContext(ctx, "Unsupported frequency on template",
				"recurring_id", ri.ID, "frequency", ri.Frequency)
			continue
		}
		if !checker.IsDue(ri.LastRunAt, now, ri.StartDate) {
			continue
		}

		income := core.Income{
			Date:     core.NewDate(now.Year(), int(now.Month()), now.Day()),
			Amount:   ri.Amount,
			Currency: ri.Currency,
			Source:   ri.Source,
			Note:     "recurring: " + ri.Name,
		}
		report, err := p.distribution.RecordIncome(ctx, income)
		if err != nil {
			slog.ErrorContext(ctx, "Failed to record recurring income",
				"recurring_id", ri.ID, "name", ri.Name, "error", err)
			continue
		}

		if err := p.store.MarkRecurringRun(ctx, ri.ID, now); err != nil {
			// income is recorded; the next tick may run this template again
			slog.ErrorContext(ctx, "Failed to stamp last run",
				"recurring_id", ri.ID, "error", err)
		}

		processed++
		slog.InfoContext(ctx, "Recorded recurring income",
			"recurring_id", ri.ID,
			"name", ri.Name,
			"amount_cents", ri.Amount.Cents,
			"distributed_rules", len(report.Applied),
			"undistributed_cents", report.Undistributed.Cents)
	}

	slog.InfoContext(ctx, "Recurring income processing complete",
		"processed", processed, "total_checked", len(actives))
	return processed, nil
}
