package core

import (
	"crypto/sha256"
	"encoding/hex"
	"strconv"
	"strings"
	"time"
)

// BatchStatus is the lifecycle of an import batch.
type BatchStatus string

const (
	BatchPending   BatchStatus = "pending"
	BatchAnalyzing BatchStatus = "analyzing"
	BatchAnalyzed  BatchStatus = "analyzed"
	BatchConfirmed BatchStatus = "confirmed"
	BatchFailed    BatchStatus = "failed"
)

// EntryStatus classifies a statement entry after analysis.
type EntryStatus string

const (
	EntryNew       EntryStatus = "new"       // mapped, not seen before
	EntryDuplicate EntryStatus = "duplicate" // hash already known
	EntryUnmapped  EntryStatus = "unmapped"  // no mapping matched
)

// ImportBatch tracks one uploaded bank statement through analysis and
// confirmation. RawCSV is kept so a batch can be re-analyzed after the
// user edits mappings.
type ImportBatch struct {
	ID          string
	AccountID   string
	Filename    string
	RawCSV      string
	Status      BatchStatus
	NewCount    int
	DupCount    int
	UnmapCount  int
	ParseErrors []string
	CreatedAt   time.Time
	AnalyzedAt  *time.Time
}

// StatementEntry is one canonicalized statement line.
type StatementEntry struct {
	ID          string
	BatchID     string
	LineNo      int
	Date        Date
	Description string
	Amount      Money // negative for outflows
	Currency    string
	HashID      string
	Status      EntryStatus
	Category    string // from the matched mapping
	FundID      string // from the matched mapping, may be empty
}

// ImportMapping resolves statement descriptions to a category and an
// optional fund. Pattern matching is a case-insensitive substring test on
// the normalized description.
type ImportMapping struct {
	ID        string
	Pattern   string
	Category  string
	FundID    string
	CreatedAt time.Time
}

func (m ImportMapping) Validate() error {
	if strings.TrimSpace(m.Pattern) == "" {
		return ErrEmptyPattern
	}
	if strings.TrimSpace(m.Category) == "" {
		return ErrEmptyName
	}
	return nil
}

// Matches reports whether the mapping applies to a normalized description.
func (m ImportMapping) Matches(normalizedDescription string) bool {
	return strings.Contains(normalizedDescription, NormalizeDescription(m.Pattern))
}

// NormalizeDescription lowers the text and collapses runs of whitespace so
// hashing and mapping are stable across statement formatting quirks.
func NormalizeDescription(s string) string {
	return strings.Join(strings.Fields(strings.ToLower(s)), " ")
}

// EntryHash computes the duplicate-detection hash of a statement line.
// Two lines with the same account, date, amount, and normalized description
// are the same transaction no matter which file they arrived in.
func EntryHash(accountID string, date Date, amount Money, description string) string {
	h := sha256.New()
	h.Write([]byte(accountID))
	h.Write([]byte{'|'})
	h.Write([]byte(date.String()))
	h.Write([]byte{'|'})
	h.Write([]byte(strconv.FormatInt(amount.Cents, 10)))
	h.Write([]byte{'|'})
	h.Write([]byte(NormalizeDescription(description)))
	return hex.EncodeToString(h.Sum(nil))
}
