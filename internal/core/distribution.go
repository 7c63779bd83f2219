package core

import (
	"strings"
	"time"
)

// RuleKind selects how a distribution rule computes its share.
type RuleKind string

const (
	RulePercentage RuleKind = "percentage"
	RuleFixed      RuleKind = "fixed"
)

// Frequency is how often a recurring income repeats.
type Frequency string

const (
	Daily   Frequency = "daily"
	Weekly  Frequency = "weekly"
	Monthly Frequency = "monthly"
	Yearly  Frequency = "yearly"
)

// DistributionRule describes how incoming income is auto-split into a fund
// asset. Percentage values are stored in hundredths of a percent
// (12.5% -> 1250); fixed values are cents.
type DistributionRule struct {
	ID        string
	FundID    string
	AssetID   string
	Kind      RuleKind
	Value     int64
	Priority  int
	CreatedAt time.Time
}

// Income is a single incoming payment that was (or will be) distributed.
type Income struct {
	ID        string
	Date      Date
	Amount    Money
	Currency  string
	Source    string
	Note      string
	CreatedAt time.Time
}

// RecurringIncome is an income template processed automatically on its
// frequency, anchored at StartDate (day-of-month, or month+day for yearly).
type RecurringIncome struct {
	ID        string
	Name      string
	Amount    Money
	Currency  string
	Source    string
	Frequency Frequency
	StartDate Date
	LastRunAt time.Time // zero until first run
	Active    bool
	CreatedAt time.Time
}

const maxPercent = 100 * 100 // hundredths of a percent

func (r DistributionRule) Validate() error {
	if r.FundID == "" || r.AssetID == "" {
		return ErrNotFound
	}
	switch r.Kind {
	case RulePercentage:
		if r.Value <= 0 || r.Value > maxPercent {
			return ErrInvalidRuleValue
		}
	case RuleFixed:
		if r.Value <= 0 {
			return ErrInvalidRuleValue
		}
	default:
		return ErrInvalidRuleKind
	}
	return nil
}

func (in Income) Validate() error {
	if err := in.Date.Validate(); err != nil {
		return err
	}
	if strings.TrimSpace(in.Currency) == "" {
		return ErrEmptyCurrency
	}
	if strings.TrimSpace(in.Source) == "" {
		return ErrEmptySource
	}
	return in.Amount.Validate()
}

func (ri RecurringIncome) Validate() error {
	if strings.TrimSpace(ri.Name) == "" {
		return ErrEmptyName
	}
	if err := ri.StartDate.Validate(); err != nil {
		return err
	}
	if strings.TrimSpace(ri.Currency) == "" {
		return ErrEmptyCurrency
	}
	if strings.TrimSpace(ri.Source) == "" {
		return ErrEmptySource
	}
	switch ri.Frequency {
	case Daily, Weekly, Monthly, Yearly:
	default:
		return ErrInvalidFrequency
	}
	return ri.Amount.Validate()
}
