package core

import "errors"

// Sentinel errors for domain validation and state conflicts. Handlers map
// these to HTTP statuses with errors.Is, so wrap rather than replace them.
var (
	ErrInvalidAmount      = errors.New("invalid amount")
	ErrInvalidDate        = errors.New("invalid date")
	ErrEmptyName          = errors.New("empty name")
	ErrNameTooLong        = errors.New("name too long (max 120 characters)")
	ErrEmptyCurrency      = errors.New("empty currency")
	ErrEmptyAssetID       = errors.New("empty asset id")
	ErrEmptyPurpose       = errors.New("empty purpose")
	ErrEmptySource        = errors.New("empty source")
	ErrEmptyPattern       = errors.New("empty pattern")
	ErrCurrencyMismatch   = errors.New("currency mismatch")
	ErrInvalidRuleKind    = errors.New("invalid rule kind")
	ErrInvalidRuleValue   = errors.New("invalid rule value")
	ErrInvalidFrequency   = errors.New("invalid frequency")
	ErrInsufficientFunds  = errors.New("insufficient balance")
	ErrAllocationMismatch = errors.New("allocation mismatch")
	ErrUnknownAsset       = errors.New("asset does not belong to fund")
	ErrNotFound           = errors.New("not found")
	ErrFundArchived       = errors.New("fund is archived")
	ErrSameAccount        = errors.New("transfer endpoints must differ")
	ErrSameFund           = errors.New("fund transfer endpoints must differ")
	ErrNoInstallments     = errors.New("credit requires at least one installment")
	ErrBadSequence        = errors.New("installment sequence must start at 1 and increase by 1")
	ErrInstallmentPaid    = errors.New("installment already paid")
	ErrEmptyCSV           = errors.New("empty csv")
	ErrBatchNotAnalyzed   = errors.New("import batch not analyzed")
	ErrBatchConfirmed     = errors.New("import batch already confirmed")
	ErrUnmappedEntries    = errors.New("unmapped entries in period")
)
