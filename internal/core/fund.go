package core

import (
	"strings"
	"time"
)

// Fund is a named bucket earmarking money toward a goal. A fund holds one
// or more assets, each with its own balance; the fund balance is the sum.
type Fund struct {
	ID         string
	Name       string
	Currency   string
	GoalAmount Money // zero means no goal
	Assets     []Asset
	CreatedAt  time.Time
	ArchivedAt *time.Time
}

// Asset is a holding inside a fund (cash, an ETF position, ...).
type Asset struct {
	ID      string
	FundID  string
	Name    string
	Balance Money
}

func (f Fund) Validate() error {
	if strings.TrimSpace(f.Name) == "" {
		return ErrEmptyName
	}
	if len(f.Name) > 120 {
		return ErrNameTooLong
	}
	if strings.TrimSpace(f.Currency) == "" {
		return ErrEmptyCurrency
	}
	if f.GoalAmount.Cents < 0 {
		return ErrInvalidAmount
	}
	return nil
}

func (a Asset) Validate() error {
	if strings.TrimSpace(a.Name) == "" {
		return ErrEmptyName
	}
	if len(a.Name) > 120 {
		return ErrNameTooLong
	}
	return nil
}

// Balance sums the asset balances.
func (f Fund) Balance() Money {
	var total int64
	for _, a := range f.Assets {
		total += a.Balance.Cents
	}
	return Money{Cents: total}
}

// AssetByID finds an asset of the fund; ok is false when the id does not
// belong to this fund.
func (f Fund) AssetByID(id string) (Asset, bool) {
	for _, a := range f.Assets {
		if a.ID == id {
			return a, true
		}
	}
	return Asset{}, false
}

// IsArchived reports whether the fund no longer accepts operations.
func (f Fund) IsArchived() bool { return f.ArchivedAt != nil }
