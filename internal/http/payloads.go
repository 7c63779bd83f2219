package http

import (
	"time"

	"fondi/internal/core"
	"fondi/internal/services"
)

// Wire representations of the domain types. Core types carry no JSON tags;
// the shapes the API speaks live here.

type assetPayload struct {
	ID      string     `json:"id"`
	Name    string     `json:"name"`
	Balance core.Money `json:"balance"`
}

type fundPayload struct {
	ID         string         `json:"id"`
	Name       string         `json:"name"`
	Currency   string         `json:"currency"`
	GoalAmount core.Money     `json:"goalAmount"`
	Balance    core.Money     `json:"balance"`
	Archived   bool           `json:"archived"`
	Assets     []assetPayload `json:"assets"`
	CreatedAt  time.Time      `json:"createdAt"`
	ArchivedAt *time.Time     `json:"archivedAt,omitempty"`
}

func fundToPayload(f core.Fund) fundPayload {
	assets := make([]assetPayload, 0, len(f.Assets))
	for _, a := range f.Assets {
		assets = append(assets, assetPayload{ID: a.ID, Name: a.Name, Balance: a.Balance})
	}
	return fundPayload{
		ID:         f.ID,
		Name:       f.Name,
		Currency:   f.Currency,
		GoalAmount: f.GoalAmount,
		Balance:    f.Balance(),
		Archived:   f.IsArchived(),
		Assets:     assets,
		CreatedAt:  f.CreatedAt,
		ArchivedAt: f.ArchivedAt,
	}
}

func fundsToPayload(funds []core.Fund) []fundPayload {
	out := make([]fundPayload, 0, len(funds))
	for _, f := range funds {
		out = append(out, fundToPayload(f))
	}
	return out
}

// allocationPayload is an operation split row without a price, used by
// withdrawals and fund transfers.
type allocationPayload struct {
	AssetID string     `json:"assetId"`
	Amount  core.Money `json:"amount"`
}

// pricedAllocationPayload is a contribution split row; pricePerUnit is
// null when unknown.
type pricedAllocationPayload struct {
	AssetID      string     `json:"assetId"`
	Amount       core.Money `json:"amount"`
	PricePerUnit core.Price `json:"pricePerUnit"`
}

func toAllocations(rows []allocationPayload) []core.OperationAllocation {
	out := make([]core.OperationAllocation, 0, len(rows))
	for _, row := range rows {
		out = append(out, core.OperationAllocation{AssetID: row.AssetID, Amount: row.Amount})
	}
	return out
}

func toPricedAllocations(rows []pricedAllocationPayload) []core.OperationAllocation {
	out := make([]core.OperationAllocation, 0, len(rows))
	for _, row := range rows {
		out = append(out, core.OperationAllocation{
			AssetID:      row.AssetID,
			Amount:       row.Amount,
			PricePerUnit: row.PricePerUnit,
		})
	}
	return out
}

func allocationsToPayload(allocs []core.OperationAllocation) []allocationPayload {
	out := make([]allocationPayload, 0, len(allocs))
	for _, a := range allocs {
		out = append(out, allocationPayload{AssetID: a.AssetID, Amount: a.Amount})
	}
	return out
}

func allocationsToPricedPayload(allocs []core.OperationAllocation) []pricedAllocationPayload {
	out := make([]pricedAllocationPayload, 0, len(allocs))
	for _, a := range allocs {
		out = append(out, pricedAllocationPayload{
			AssetID:      a.AssetID,
			Amount:       a.Amount,
			PricePerUnit: a.PricePerUnit,
		})
	}
	return out
}

type contributionPayload struct {
	ID          string                    `json:"id"`
	FundID      string                    `json:"fundId"`
	Date        core.Date                 `json:"date"`
	TotalAmount core.Money                `json:"totalAmount"`
	Currency    string                    `json:"currency"`
	Allocations []pricedAllocationPayload `json:"allocations"`
	Note        string                    `json:"note,omitempty"`
	CreatedAt   time.Time                 `json:"createdAt"`
}

func contributionToPayload(c core.Contribution) contributionPayload {
	return contributionPayload{
		ID:          c.ID,
		FundID:      c.FundID,
		Date:        c.Date,
		TotalAmount: c.TotalAmount,
		Currency:    c.Currency,
		Allocations: allocationsToPricedPayload(c.Allocations),
		Note:        c.Note,
		CreatedAt:   c.CreatedAt,
	}
}

type withdrawalPayload struct {
	ID          string              `json:"id"`
	FundID      string              `json:"fundId"`
	Date        core.Date           `json:"date"`
	TotalAmount core.Money          `json:"totalAmount"`
	Currency    string              `json:"currency"`
	Purpose     string              `json:"purpose"`
	Allocations []allocationPayload `json:"allocations"`
	Note        string              `json:"note,omitempty"`
	CreatedAt   time.Time           `json:"createdAt"`
}

func withdrawalToPayload(wd core.Withdrawal) withdrawalPayload {
	return withdrawalPayload{
		ID:          wd.ID,
		FundID:      wd.FundID,
		Date:        wd.Date,
		TotalAmount: wd.TotalAmount,
		Currency:    wd.Currency,
		Purpose:     wd.Purpose,
		Allocations: allocationsToPayload(wd.Allocations),
		Note:        wd.Note,
		CreatedAt:   wd.CreatedAt,
	}
}

type fundTransferPayload struct {
	ID          string              `json:"id"`
	Date        core.Date           `json:"date"`
	FromFundID  string              `json:"fromFundId"`
	ToFundID    string              `json:"toFundId"`
	TotalAmount core.Money          `json:"totalAmount"`
	Allocations []allocationPayload `json:"allocations"`
	Note        string              `json:"note,omitempty"`
	CreatedAt   time.Time           `json:"createdAt"`
}

func fundTransferToPayload(t core.FundTransfer) fundTransferPayload {
	return fundTransferPayload{
		ID:          t.ID,
		Date:        t.Date,
		FromFundID:  t.FromFundID,
		ToFundID:    t.ToFundID,
		TotalAmount: t.TotalAmount,
		Allocations: allocationsToPayload(t.Allocations),
		Note:        t.Note,
		CreatedAt:   t.CreatedAt,
	}
}

type accountPayload struct {
	ID        string     `json:"id"`
	Name      string     `json:"name"`
	Bank      string     `json:"bank,omitempty"`
	Currency  string     `json:"currency"`
	Balance   core.Money `json:"balance"`
	CreatedAt time.Time  `json:"createdAt"`
}

func accountToPayload(a core.Account) accountPayload {
	return accountPayload{
		ID:        a.ID,
		Name:      a.Name,
		Bank:      a.Bank,
		Currency:  a.Currency,
		Balance:   a.Balance,
		CreatedAt: a.CreatedAt,
	}
}

type transferPayload struct {
	ID            string     `json:"id"`
	Date          core.Date  `json:"date"`
	FromAccountID string     `json:"fromAccountId"`
	ToAccountID   string     `json:"toAccountId"`
	Amount        core.Money `json:"amount"`
	Note          string     `json:"note,omitempty"`
	CreatedAt     time.Time  `json:"createdAt"`
}

func transferToPayload(t core.Transfer) transferPayload {
	return transferPayload{
		ID:            t.ID,
		Date:          t.Date,
		FromAccountID: t.FromAccountID,
		ToAccountID:   t.ToAccountID,
		Amount:        t.Amount,
		Note:          t.Note,
		CreatedAt:     t.CreatedAt,
	}
}

type transactionPayload struct {
	ID          string     `json:"id"`
	AccountID   string     `json:"accountId"`
	Date        core.Date  `json:"date"`
	Description string     `json:"description"`
	Amount      core.Money `json:"amount"`
	Currency    string     `json:"currency"`
	Category    string     `json:"category,omitempty"`
	ImportedAt  time.Time  `json:"importedAt"`
}

func transactionToPayload(tx core.Transaction) transactionPayload {
	return transactionPayload{
		ID:          tx.ID,
		AccountID:   tx.AccountID,
		Date:        tx.Date,
		Description: tx.Description,
		Amount:      tx.Amount,
		Currency:    tx.Currency,
		Category:    tx.Category,
		ImportedAt:  tx.ImportedAt,
	}
}

type rulePayload struct {
	ID        string    `json:"id"`
	FundID    string    `json:"fundId"`
	AssetID   string    `json:"assetId"`
	Kind      string    `json:"kind"`
	Value     int64     `json:"value"`
	Priority  int       `json:"priority"`
	CreatedAt time.Time `json:"createdAt"`
}

func ruleToPayload(r core.DistributionRule) rulePayload {
	return rulePayload{
		ID:        r.ID,
		FundID:    r.FundID,
		AssetID:   r.AssetID,
		Kind:      string(r.Kind),
		Value:     r.Value,
		Priority:  r.Priority,
		CreatedAt: r.CreatedAt,
	}
}

type incomePayload struct {
	ID        string     `json:"id"`
	Date      core.Date  `json:"date"`
	Amount    core.Money `json:"amount"`
	Currency  string     `json:"currency"`
	Source    string     `json:"source"`
	Note      string     `json:"note,omitempty"`
	CreatedAt time.Time  `json:"createdAt"`
}

func incomeToPayload(in core.Income) incomePayload {
	return incomePayload{
		ID:        in.ID,
		Date:      in.Date,
		Amount:    in.Amount,
		Currency:  in.Currency,
		Source:    in.Source,
		Note:      in.Note,
		CreatedAt: in.CreatedAt,
	}
}

type appliedRulePayload struct {
	RuleID         string     `json:"ruleId"`
	FundID         string     `json:"fundId"`
	AssetID        string     `json:"assetId"`
	Amount         core.Money `json:"amount"`
	ContributionID string     `json:"contributionId"`
}

type skippedRulePayload struct {
	RuleID string `json:"ruleId"`
	Reason string `json:"reason"`
}

type distributionReportPayload struct {
	Income        incomePayload        `json:"income"`
	Applied       []appliedRulePayload `json:"applied"`
	Skipped       []skippedRulePayload `json:"skipped"`
	Undistributed core.Money           `json:"undistributed"`
}

func reportToPayload(rep services.DistributionReport) distributionReportPayload {
	applied := make([]appliedRulePayload, 0, len(rep.Applied))
	for _, a := range rep.Applied {
		applied = append(applied, appliedRulePayload{
			RuleID:         a.Rule.ID,
			FundID:         a.Rule.FundID,
			AssetID:        a.Rule.AssetID,
			Amount:         a.Amount,
			ContributionID: a.ContributionID,
		})
	}
	skipped := make([]skippedRulePayload, 0, len(rep.Skipped))
	for _, sk := range rep.Skipped {
		skipped = append(skipped, skippedRulePayload{RuleID: sk.Rule.ID, Reason: sk.Reason})
	}
	return distributionReportPayload{
		Income:        incomeToPayload(rep.Income),
		Applied:       applied,
		Skipped:       skipped,
		Undistributed: rep.Undistributed,
	}
}

type recurringIncomePayload struct {
	ID        string     `json:"id"`
	Name      string     `json:"name"`
	Amount    core.Money `json:"amount"`
	Currency  string     `json:"currency"`
	Source    string     `json:"source"`
	Frequency string     `json:"frequency"`
	StartDate core.Date  `json:"startDate"`
	LastRunAt *time.Time `json:"lastRunAt,omitempty"`
	Active    bool       `json:"active"`
	CreatedAt time.Time  `json:"createdAt"`
}

func recurringToPayload(ri core.RecurringIncome) recurringIncomePayload {
	p := recurringIncomePayload{
		ID:        ri.ID,
		Name:      ri.Name,
		Amount:    ri.Amount,
		Currency:  ri.Currency,
		Source:    ri.Source,
		Frequency: string(ri.Frequency),
		StartDate: ri.StartDate,
		Active:    ri.Active,
		CreatedAt: ri.CreatedAt,
	}
	if !ri.LastRunAt.IsZero() {
		at := ri.LastRunAt
		p.LastRunAt = &at
	}
	return p
}

type creditPayload struct {
	ID               string     `json:"id"`
	Name             string     `json:"name"`
	Principal        core.Money `json:"principal"`
	Currency         string     `json:"currency"`
	Note             string     `json:"note,omitempty"`
	InstallmentCount int        `json:"installmentCount"`
	PaidCount        int        `json:"paidCount"`
	TotalPaid        core.Money `json:"totalPaid"`
	RemainingAmount  core.Money `json:"remainingAmount"`
	NextDueDate      core.Date  `json:"nextDueDate"`
	CreatedAt        time.Time  `json:"createdAt"`
}

func creditToPayload(cs core.CreditSummary) creditPayload {
	return creditPayload{
		ID:               cs.Credit.ID,
		Name:             cs.Credit.Name,
		Principal:        cs.Credit.Principal,
		Currency:         cs.Credit.Currency,
		Note:             cs.Credit.Note,
		InstallmentCount: cs.InstallmentCount,
		PaidCount:        cs.PaidCount,
		TotalPaid:        cs.TotalPaid,
		RemainingAmount:  cs.RemainingAmount,
		NextDueDate:      cs.NextDueDate,
		CreatedAt:        cs.Credit.CreatedAt,
	}
}

type installmentPayload struct {
	CreditID  string     `json:"creditId"`
	Sequence  int        `json:"sequence"`
	DueDate   core.Date  `json:"dueDate"`
	Amount    core.Money `json:"amount"`
	PaidAt    *core.Date `json:"paidAt,omitempty"`
	AccountID string     `json:"accountId,omitempty"`
}

func installmentToPayload(inst core.Installment) installmentPayload {
	return installmentPayload{
		CreditID:  inst.CreditID,
		Sequence:  inst.Sequence,
		DueDate:   inst.DueDate,
		Amount:    inst.Amount,
		PaidAt:    inst.PaidAt,
		AccountID: inst.AccountID,
	}
}

type batchPayload struct {
	ID          string     `json:"id"`
	AccountID   string     `json:"accountId"`
	Filename    string     `json:"filename"`
	Status      string     `json:"status"`
	NewCount    int        `json:"newCount"`
	DupCount    int        `json:"dupCount"`
	UnmapCount  int        `json:"unmapCount"`
	ParseErrors []string   `json:"parseErrors"`
	CreatedAt   time.Time  `json:"createdAt"`
	AnalyzedAt  *time.Time `json:"analyzedAt,omitempty"`
}

func batchToPayload(b core.ImportBatch) batchPayload {
	parseErrors := b.ParseErrors
	if parseErrors == nil {
		parseErrors = []string{}
	}
	return batchPayload{
		ID:          b.ID,
		AccountID:   b.AccountID,
		Filename:    b.Filename,
		Status:      string(b.Status),
		NewCount:    b.NewCount,
		DupCount:    b.DupCount,
		UnmapCount:  b.UnmapCount,
		ParseErrors: parseErrors,
		CreatedAt:   b.CreatedAt,
		AnalyzedAt:  b.AnalyzedAt,
	}
}

type entryPayload struct {
	ID          string     `json:"id"`
	LineNo      int        `json:"lineNo"`
	Date        core.Date  `json:"date"`
	Description string     `json:"description"`
	Amount      core.Money `json:"amount"`
	Currency    string     `json:"currency"`
	Status      string     `json:"status"`
	Category    string     `json:"category,omitempty"`
	FundID      string     `json:"fundId,omitempty"`
}

func entryToPayload(e core.StatementEntry) entryPayload {
	return entryPayload{
		ID:          e.ID,
		LineNo:      e.LineNo,
		Date:        e.Date,
		Description: e.Description,
		Amount:      e.Amount,
		Currency:    e.Currency,
		Status:      string(e.Status),
		Category:    e.Category,
		FundID:      e.FundID,
	}
}

type mappingPayload struct {
	ID        string    `json:"id"`
	Pattern   string    `json:"pattern"`
	Category  string    `json:"category"`
	FundID    string    `json:"fundId,omitempty"`
	CreatedAt time.Time `json:"createdAt"`
}

func mappingToPayload(m core.ImportMapping) mappingPayload {
	return mappingPayload{
		ID:        m.ID,
		Pattern:   m.Pattern,
		Category:  m.Category,
		FundID:    m.FundID,
		CreatedAt: m.CreatedAt,
	}
}

type fundProgressPayload struct {
	FundID     string     `json:"fundId"`
	Name       string     `json:"name"`
	Balance    core.Money `json:"balance"`
	GoalAmount core.Money `json:"goalAmount"`
	Progress   int64      `json:"progress"`
}

type overviewPayload struct {
	Year          int                   `json:"year"`
	Month         int                   `json:"month"`
	TotalBalance  core.Money            `json:"totalBalance"`
	Funds         []fundProgressPayload `json:"funds"`
	Contributions core.Money            `json:"contributions"`
	Withdrawals   core.Money            `json:"withdrawals"`
	Net           core.Money            `json:"net"`
}

func overviewToPayload(ov core.MonthOverview) overviewPayload {
	funds := make([]fundProgressPayload, 0, len(ov.Funds))
	for _, f := range ov.Funds {
		funds = append(funds, fundProgressPayload{
			FundID:     f.FundID,
			Name:       f.Name,
			Balance:    f.Balance,
			GoalAmount: f.GoalAmount,
			Progress:   f.Progress,
		})
	}
	return overviewPayload{
		Year:          ov.Year,
		Month:         ov.Month,
		TotalBalance:  ov.TotalBalance,
		Funds:         funds,
		Contributions: ov.Contributions,
		Withdrawals:   ov.Withdrawals,
		Net:           ov.Net,
	}
}
