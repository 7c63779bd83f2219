package memory

import (
	"context"

	"fondi/internal/core"
)

func (s *Store) ReadMonthOverview(_ context.Context, year, month int) (core.MonthOverview, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	ov := core.MonthOverview{Year: year, Month: month}
	for i := range s.funds {
		if s.funds[i].ArchivedAt != nil {
			continue
		}
		p := core.NewFundProgress(s.funds[i])
		ov.Funds = append(ov.Funds, p)
		ov.TotalBalance.Cents += p.Balance.Cents
	}
	for _, c := range s.contributions {
		if inMonth(c.Date, year, month) {
			ov.Contributions.Cents += c.TotalAmount.Cents
		}
	}
	for _, w := range s.withdrawals {
		if inMonth(w.Date, year, month) {
			ov.Withdrawals.Cents += w.TotalAmount.Cents
		}
	}
	ov.Net = core.Money{Cents: ov.Contributions.Cents - ov.Withdrawals.Cents}
	return ov, nil
}
