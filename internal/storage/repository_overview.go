package storage

import (
	"context"
	"fmt"

	"fondi/internal/core"
)

// ReadMonthOverview builds the dashboard summary: current balances of the
// active funds plus the month's contribution and withdrawal totals.
func (r *Repository) ReadMonthOverview(ctx context.Context, year, month int) (core.MonthOverview, error) {
	ov := core.MonthOverview{Year: year, Month: month}

	funds, err := r.ListFunds(ctx, false)
	if err != nil {
		return core.MonthOverview{}, err
	}
	for _, f := range funds {
		p := core.NewFundProgress(f)
		ov.Funds = append(ov.Funds, p)
		ov.TotalBalance.Cents += p.Balance.Cents
	}

	from, to := monthRange(year, month)
	sumKind := func(kind string) (int64, error) {
		var total int64
		err := r.db.QueryRowContext(ctx,
			`SELECT COALESCE(SUM(amount_cents), 0) FROM operations WHERE kind = ? AND date >= ? AND date < ?`,
			kind, from, to).Scan(&total)
		if err != nil {
			return 0, fmt.Errorf("sum %s: %w", kind, err)
		}
		return total, nil
	}

	if ov.Contributions.Cents, err = sumKind("contribution"); err != nil {
		return core.MonthOverview{}, err
	}
	if ov.Withdrawals.Cents, err = sumKind("withdrawal"); err != nil {
		return core.MonthOverview{}, err
	}
	ov.Net = core.Money{Cents: ov.Contributions.Cents - ov.Withdrawals.Cents}
	return ov, nil
}
