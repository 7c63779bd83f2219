package core

import (
	"strings"
	"time"
)

// Account is a bank account tracked for transfers and statement imports.
type Account struct {
	ID        string
	Name      string
	Bank      string
	Currency  string
	Balance   Money // may be negative (overdraft)
	CreatedAt time.Time
}

// Transfer moves money between two accounts of the same currency.
type Transfer struct {
	ID            string
	Date          Date
	FromAccountID string
	ToAccountID   string
	Amount        Money
	Note          string
	CreatedAt     time.Time
}

func (a Account) Validate() error {
	if strings.TrimSpace(a.Name) == "" {
		return ErrEmptyName
	}
	if len(a.Name) > 120 {
		return ErrNameTooLong
	}
	if strings.TrimSpace(a.Currency) == "" {
		return ErrEmptyCurrency
	}
	return nil
}

func (t Transfer) Validate() error {
	if err := t.Date.Validate(); err != nil {
		return err
	}
	if t.FromAccountID == "" || t.ToAccountID == "" {
		return ErrNotFound
	}
	if t.FromAccountID == t.ToAccountID {
		return ErrSameAccount
	}
	return t.Amount.Validate()
}

// Transaction is a statement line materialized onto an account after an
// import is confirmed. It is history, not a balance mutation.
type Transaction struct {
	ID          string
	AccountID   string
	Date        Date
	Description string
	Amount      Money // negative for outflows
	Currency    string
	Category    string
	HashID      string
	ImportedAt  time.Time
}
