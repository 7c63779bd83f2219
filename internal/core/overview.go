package core

// FundProgress is one fund's line on the dashboard.
type FundProgress struct {
	FundID     string
	Name       string
	Balance    Money
	GoalAmount Money
	// Progress is balance/goal in hundredths of a percent; 0 without a goal.
	Progress int64
}

// MonthOverview is the dashboard summary for a specific year+month.
type MonthOverview struct {
	Year          int
	Month         int // 1-12
	TotalBalance  Money
	Funds         []FundProgress
	Contributions Money
	Withdrawals   Money
	Net           Money
}

// NewFundProgress derives the progress line for a fund.
func NewFundProgress(f Fund) FundProgress {
	p := FundProgress{
		FundID:     f.ID,
		Name:       f.Name,
		Balance:    f.Balance(),
		GoalAmount: f.GoalAmount,
	}
	if f.GoalAmount.Cents > 0 {
		p.Progress = p.Balance.Cents * 10000 / f.GoalAmount.Cents
	}
	return p
}
