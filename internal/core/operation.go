package core

import (
	"strings"
	"time"
)

// OperationKind distinguishes the two fund-level money movements.
type OperationKind string

const (
	KindContribution OperationKind = "contribution"
	KindWithdrawal   OperationKind = "withdrawal"
)

// OperationAllocation is one row of an operation split: a declared amount
// of a specific asset. PricePerUnit is only meaningful on contributions and
// is frequently unknown.
type OperationAllocation struct {
	AssetID      string
	Amount       Money
	PricePerUnit Price
}

// Contribution is a fund-level deposit, optionally split across several
// assets. The allocation rows must sum exactly to TotalAmount; that check
// lives in the allocation engine, not here.
type Contribution struct {
	ID          string
	FundID      string
	Date        Date
	TotalAmount Money
	Currency    string
	Allocations []OperationAllocation
	Note        string
	CreatedAt   time.Time
}

// Withdrawal is a fund-level outflow. Purpose is required: every withdrawal
// states what the money left the fund for.
type Withdrawal struct {
	ID          string
	FundID      string
	Date        Date
	TotalAmount Money
	Currency    string
	Purpose     string
	Allocations []OperationAllocation
	Note        string
	CreatedAt   time.Time
}

// FundTransfer moves money between two funds of the same currency, split
// across asset allocations like a contribution.
type FundTransfer struct {
	ID          string
	Date        Date
	FromFundID  string
	ToFundID    string
	TotalAmount Money
	Allocations []OperationAllocation
	Note        string
	CreatedAt   time.Time
}

func (c Contribution) Validate() error {
	if err := c.Date.Validate(); err != nil {
		return err
	}
	if strings.TrimSpace(c.Currency) == "" {
		return ErrEmptyCurrency
	}
	return c.TotalAmount.Validate()
}

func (w Withdrawal) Validate() error {
	if err := w.Date.Validate(); err != nil {
		return err
	}
	if strings.TrimSpace(w.Currency) == "" {
		return ErrEmptyCurrency
	}
	if strings.TrimSpace(w.Purpose) == "" {
		return ErrEmptyPurpose
	}
	return w.TotalAmount.Validate()
}

func (ft FundTransfer) Validate() error {
	if err := ft.Date.Validate(); err != nil {
		return err
	}
	if ft.FromFundID == "" || ft.ToFundID == "" {
		return ErrNotFound
	}
	if ft.FromFundID == ft.ToFundID {
		return ErrSameFund
	}
	return ft.TotalAmount.Validate()
}
