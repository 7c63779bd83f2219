// Package export defines the outbound ports for mirroring fund operations
// to an external sheet.
package export

import (
	"context"

	"fondi/internal/core"
)

// OperationRow is the flattened sheet line for one fund operation.
type OperationRow struct {
	Date     core.Date
	Kind     core.OperationKind
	FundName string
	Amount   core.Money
	Currency string
	Detail   string // withdrawal purpose, or the note
}

// RowAppender writes one operation row and returns a reference to where it
// landed (sheet range, memory slot, ...).
type RowAppender interface {
	AppendRow(ctx context.Context, row OperationRow) (rowRef string, err error)
}

// OperationSource loads the data the sync worker needs to build a row.
type OperationSource interface {
	GetContribution(ctx context.Context, id string) (core.Contribution, error)
	GetWithdrawal(ctx context.Context, id string) (core.Withdrawal, error)
	GetFund(ctx context.Context, id string) (core.Fund, error)
}
