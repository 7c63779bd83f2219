// Package backend defines the persistence ports the rest of fondi talks
// to, and a factory that builds a concrete backend from configuration.
package backend

import (
	"context"
	"time"

	"fondi/internal/core"
)

// FundStore persists funds and their assets. Create methods assign the ID
// and CreatedAt and return the stored value.
type FundStore interface {
	CreateFund(ctx context.Context, f core.Fund) (core.Fund, error)
	GetFund(ctx context.Context, id string) (core.Fund, error)
	ListFunds(ctx context.Context, includeArchived bool) ([]core.Fund, error)
	UpdateFund(ctx context.Context, id string, name string, goal core.Money) (core.Fund, error)
	ArchiveFund(ctx context.Context, id string) error
	AddAsset(ctx context.Context, fundID string, name string) (core.Asset, error)
}

// OperationStore persists fund-level operations. Each create applies the
// allocation deltas to the fund's asset balances in the same transaction;
// withdrawals and transfer sources fail with core.ErrInsufficientFunds
// when an asset balance would go negative.
type OperationStore interface {
	CreateContribution(ctx context.Context, c core.Contribution) (core.Contribution, error)
	CreateWithdrawal(ctx context.Context, w core.Withdrawal) (core.Withdrawal, error)
	CreateFundTransfer(ctx context.Context, t core.FundTransfer) (core.FundTransfer, error)
	GetContribution(ctx context.Context, id string) (core.Contribution, error)
	GetWithdrawal(ctx context.Context, id string) (core.Withdrawal, error)
	ListContributions(ctx context.Context, fundID string, year, month int) ([]core.Contribution, error)
	ListWithdrawals(ctx context.Context, fundID string, year, month int) ([]core.Withdrawal, error)
	ListFundTransfers(ctx context.Context, year, month int) ([]core.FundTransfer, error)
}

// AccountStore persists accounts, transfers between them, and the imported
// transaction history. CreateTransfer moves both balances atomically.
type AccountStore interface {
	CreateAccount(ctx context.Context, a core.Account) (core.Account, error)
	GetAccount(ctx context.Context, id string) (core.Account, error)
	ListAccounts(ctx context.Context) ([]core.Account, error)
	CreateTransfer(ctx context.Context, t core.Transfer) (core.Transfer, error)
	ListTransfers(ctx context.Context, year, month int) ([]core.Transfer, error)
	ListTransactions(ctx context.Context, accountID string, year, month int) ([]core.Transaction, error)
}

// DistributionStore persists distribution rules and income records.
type DistributionStore interface {
	CreateRule(ctx context.Context, r core.DistributionRule) (core.DistributionRule, error)
	ListRules(ctx context.Context) ([]core.DistributionRule, error)
	UpdateRule(ctx context.Context, r core.DistributionRule) (core.DistributionRule, error)
	DeleteRule(ctx context.Context, id string) error
	CreateIncome(ctx context.Context, in core.Income) (core.Income, error)
	ListIncomes(ctx context.Context, year, month int) ([]core.Income, error)
	CreateRecurringIncome(ctx context.Context, ri core.RecurringIncome) (core.RecurringIncome, error)
	ListRecurringIncomes(ctx context.Context, onlyActive bool) ([]core.RecurringIncome, error)
	DeleteRecurringIncome(ctx context.Context, id string) error
	MarkRecurringRun(ctx context.Context, id string, at time.Time) error
}

// CreditStore persists credits and their installment schedules.
// List methods return the page plus the unpaginated total; limit <= 0
// means no page bound.
type CreditStore interface {
	CreateCredit(ctx context.Context, c core.Credit, schedule []core.Installment) (core.Credit, error)
	GetCredit(ctx context.Context, id string) (core.CreditSummary, error)
	ListCredits(ctx context.Context) ([]core.CreditSummary, error)
	ListInstallments(ctx context.Context, creditID string, limit, offset int) ([]core.Installment, int, error)
	PayInstallment(ctx context.Context, creditID string, sequence int, paidAt core.Date, accountID string) (core.Installment, error)
}

// ImportStore persists statement import batches, their analyzed entries,
// and the description mappings. ConfirmBatch inserts the materialized
// transactions and marks the batch confirmed in one transaction.
// ListEntries returns the page plus the unpaginated total; limit <= 0
// means no page bound, and a zero status matches every entry.
type ImportStore interface {
	CreateBatch(ctx context.Context, b core.ImportBatch) (core.ImportBatch, error)
	GetBatch(ctx context.Context, id string) (core.ImportBatch, error)
	UpdateBatch(ctx context.Context, b core.ImportBatch) error
	ReplaceEntries(ctx context.Context, batchID string, entries []core.StatementEntry) error
	ListEntries(ctx context.Context, batchID string, status core.EntryStatus, limit, offset int) ([]core.StatementEntry, int, error)
	KnownHashes(ctx context.Context, accountID string, hashes []string) (map[string]bool, error)
	ConfirmBatch(ctx context.Context, b core.ImportBatch, txs []core.Transaction) error
	CreateMapping(ctx context.Context, m core.ImportMapping) (core.ImportMapping, error)
	ListMappings(ctx context.Context) ([]core.ImportMapping, error)
	DeleteMapping(ctx context.Context, id string) error
}

// OverviewReader serves the dashboard summary.
type OverviewReader interface {
	ReadMonthOverview(ctx context.Context, year, month int) (core.MonthOverview, error)
}

// Backend is the unified persistence surface handed to the HTTP server and
// the workers.
type Backend interface {
	FundStore
	OperationStore
	AccountStore
	DistributionStore
	CreditStore
	ImportStore
	OverviewReader
}

// CleanupFunc releases backend resources.
type CleanupFunc func() error

// BackendResult contains the backend instance and optional cleanup function.
type BackendResult struct {
	Backend Backend
	Cleanup CleanupFunc
}

// Factory creates backends based on configuration.
type Factory interface {
	CreateBackend(ctx context.Context, config Config) (*BackendResult, error)
}
