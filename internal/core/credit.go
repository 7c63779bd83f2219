package core

import (
	"strings"
	"time"
)

// Credit is a loan tracked by its installment schedule. The schedule is
// supplied in full when the credit is created; fondi never computes
// amortization, it only stores, lists, and marks installments paid.
type Credit struct {
	ID        string
	Name      string
	Principal Money
	Currency  string
	Note      string
	CreatedAt time.Time
}

// Installment is one scheduled payment of a credit.
type Installment struct {
	CreditID  string
	Sequence  int
	DueDate   Date
	Amount    Money
	PaidAt    *Date
	AccountID string // account the payment left from, when known
}

// CreditSummary is the list/detail view of a credit's progress.
type CreditSummary struct {
	Credit           Credit
	InstallmentCount int
	PaidCount        int
	TotalPaid        Money
	RemainingAmount  Money
	NextDueDate      Date // zero when fully paid
}

func (c Credit) Validate() error {
	if strings.TrimSpace(c.Name) == "" {
		return ErrEmptyName
	}
	if len(c.Name) > 120 {
		return ErrNameTooLong
	}
	if strings.TrimSpace(c.Currency) == "" {
		return ErrEmptyCurrency
	}
	return c.Principal.Validate()
}

// ValidateSchedule checks an installment schedule at creation time:
// non-empty, strictly increasing sequence numbers starting at 1, valid due
// dates, positive amounts.
func ValidateSchedule(installments []Installment) error {
	if len(installments) == 0 {
		return ErrNoInstallments
	}
	for i, inst := range installments {
		if inst.Sequence != i+1 {
			return ErrBadSequence
		}
		if err := inst.DueDate.Validate(); err != nil {
			return err
		}
		if err := inst.Amount.Validate(); err != nil {
			return err
		}
	}
	return nil
}

// IsPaid reports whether the installment has been settled.
func (i Installment) IsPaid() bool { return i.PaidAt != nil }
