package services

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"fondi/internal/backend"
	"fondi/internal/core"
)

// ImportProcessor analyzes uploaded statements: parse, canonicalize, hash,
// dedup, map. It runs on the worker normally and inline when the API has
// no broker.
type ImportProcessor struct {
	store backend.Backend
}

func NewImportProcessor(store backend.Backend) *ImportProcessor {
	return &ImportProcessor{store: store}
}

// Analyze parses the batch's CSV and replaces its entries with the
// classified result. A nil return acks the job: that covers success, a
// vanished batch, and an unreadable file (recorded on the batch, retrying
// cannot fix the file). Store errors return non-nil so the job requeues.
func (p *ImportProcessor) Analyze(ctx context.Context, batchID string) error {
	batch, err := p.store.GetBatch(ctx, batchID)
	if err != nil {
		if errors.Is(err, core.ErrNotFound) {
			slog.WarnContext(ctx, "Import batch vanished, skipping", "batch_id", batchID)
			return nil
		}
		return fmt.Errorf("get batch: %w", err)
	}
	if batch.Status == core.BatchConfirmed {
		slog.WarnContext(ctx, "Batch already confirmed, skipping analysis", "batch_id", batchID)
		return nil
	}

	batch.Status = core.BatchAnalyzing
	if err := p.store.UpdateBatch(ctx, batch); err != nil {
		return fmt.Errorf("mark analyzing: %w", err)
	}

	account, err := p.store.GetAccount(ctx, batch.AccountID)
	if err != nil {
		return fmt.Errorf("get account: %w", err)
	}

	lines, parseErrs, err := parseStatementCSV(batch.RawCSV, account.Currency)
	if err != nil {
		return p.failBatch(ctx, batch, err)
	}

	mappings, err := p.store.ListMappings(ctx)
	if err != nil {
		return fmt.Errorf("list mappings: %w", err)
	}

	hashes := make([]string, len(lines))
	for i, ln := range lines {
		hashes[i] = core.EntryHash(batch.AccountID, ln.date, ln.amount, ln.description)
	}
	known, err := p.store.KnownHashes(ctx, batch.AccountID, hashes)
	if err != nil {
		return fmt.Errorf("known hashes: %w", err)
	}

	entries := classifyEntries(batch, lines, hashes, known, mappings)
	if err := p.store.ReplaceEntries(ctx, batch.ID, entries); err != nil {
		return fmt.Errorf("replace entries: %w", err)
	}

	batch.Status = core.BatchAnalyzed
	batch.NewCount, batch.DupCount, batch.UnmapCount = countStatuses(entries)
	batch.ParseErrors = parseErrs
	now := time.Now().UTC()
	batch.AnalyzedAt = &now
	if err := p.store.UpdateBatch(ctx, batch); err != nil {
		return fmt.Errorf("mark analyzed: %w", err)
	}

	slog.InfoContext(ctx, "Statement analyzed",
		"batch_id", batch.ID,
		"new", batch.NewCount,
		"duplicate", batch.DupCount,
		"unmapped", batch.UnmapCount,
		"parse_errors", len(parseErrs))
	return nil
}

// failBatch records an unreadable file on the batch. The returned error is
// nil on success so the job is acked, not retried.
func (p *ImportProcessor) failBatch(ctx context.Context, batch core.ImportBatch, cause error) error {
	batch.Status = core.BatchFailed
	batch.ParseErrors = []string{cause.Error()}
	batch.NewCount, batch.DupCount, batch.UnmapCount = 0, 0, 0
	now := time.Now().UTC()
	batch.AnalyzedAt = &now
	if err := p.store.UpdateBatch(ctx, batch); err != nil {
		return fmt.Errorf("mark failed: %w", err)
	}
	slog.ErrorContext(ctx, "Statement unreadable",
		"batch_id", batch.ID, "error", cause)
	return nil
}

// statementLine is one parsed CSV row before classification.
type statementLine struct {
	lineNo      int
	date        core.Date
	description string
	amount      core.Money
	currency    string
}

// statementColumns holds the resolved header positions; -1 means absent.
type statementColumns struct {
	date        int
	description int
	amount      int
	currency    int
}

var statementDateLayouts = []string{"2006-01-02", "02/01/2006"}

// parseStatementCSV parses a bank statement export. The header names the
// columns (English or Italian bank exports); row order is irrelevant. Rows
// that fail to parse are reported per line and skipped; only a missing or
// unusable header makes the whole file unreadable.
func parseStatementCSV(raw, defaultCurrency string) ([]statementLine, []string, error) {
	reader := csv.NewReader(strings.NewReader(raw))
	reader.TrimLeadingSpace = true
	// statement exports are ragged; field counts are checked per row
	reader.FieldsPerRecord = -1

	header, err := reader.Read()
	if err != nil {
		return nil, nil, fmt.Errorf("read header: %w", err)
	}
	cols, err := resolveColumns(header)
	if err != nil {
		return nil, nil, err
	}

	var (
		lines     []statementLine
		parseErrs []string
	)
	for lineNo := 2; ; lineNo++ {
		record, err := reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			parseErrs = append(parseErrs, fmt.Sprintf("line %d: %v", lineNo, err))
			continue
		}
		line, err := parseStatementRecord(record, cols, defaultCurrency)
		if err != nil {
			parseErrs = append(parseErrs, fmt.Sprintf("line %d: %v", lineNo, err))
			continue
		}
		line.lineNo = lineNo
		lines = append(lines, line)
	}
	return lines, parseErrs, nil
}

func resolveColumns(header []string) (statementColumns, error) {
	cols := statementColumns{date: -1, description: -1, amount: -1, currency: -1}
	for i, h := range header {
		switch {
		case headerIs(h, "date", "data"):
			cols.date = i
		case headerIs(h, "description", "descrizione"):
			cols.description = i
		case headerIs(h, "amount", "importo"):
			cols.amount = i
		case headerIs(h, "currency", "valuta"):
			cols.currency = i
		}
	}
	switch {
	case cols.date < 0:
		return cols, errors.New("missing date column")
	case cols.description < 0:
		return cols, errors.New("missing description column")
	case cols.amount < 0:
		return cols, errors.New("missing amount column")
	}
	return cols, nil
}

func headerIs(h string, names ...string) bool {
	h = strings.TrimPrefix(strings.TrimSpace(h), "\uFEFF") // exports often lead with a BOM
	for _, n := range names {
		if strings.EqualFold(h, n) {
			return true
		}
	}
	return false
}

func parseStatementRecord(record []string, cols statementColumns, defaultCurrency string) (statementLine, error) {
	var line statementLine
	if len(record) <= cols.date || len(record) <= cols.description || len(record) <= cols.amount {
		return line, errors.New("too few fields")
	}
	date, err := parseStatementDate(record[cols.date])
	if err != nil {
		return line, err
	}
	desc := strings.TrimSpace(record[cols.description])
	if desc == "" {
		return line, errors.New("empty description")
	}
	amount, err := parseSignedAmount(record[cols.amount])
	if err != nil {
		return line, err
	}
	line.date = date
	line.description = desc
	line.amount = amount
	line.currency = defaultCurrency
	if cols.currency >= 0 && len(record) > cols.currency {
		if c := strings.ToUpper(strings.TrimSpace(record[cols.currency])); c != "" {
			line.currency = c
		}
	}
	return line, nil
}

func parseStatementDate(s string) (core.Date, error) {
	s = strings.TrimSpace(s)
	for _, layout := range statementDateLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return core.Date{Time: t}, nil
		}
	}
	return core.Date{}, fmt.Errorf("unparseable date %q", s)
}

// parseSignedAmount converts a statement amount to cents. Unlike
// core.ParseAmount it accepts a sign, since outflows arrive negative. The
// decimal comma is normalized to a dot before parsing.
func parseSignedAmount(s string) (core.Money, error) {
	s = strings.ReplaceAll(strings.TrimSpace(s), ",", ".")
	if s == "" {
		return core.Money{}, errors.New("empty amount")
	}
	d, err := decimal.NewFromString(s)
	if err != nil {
		return core.Money{}, fmt.Errorf("unparseable amount %q", s)
	}
	return core.Money{Cents: d.Shift(2).Round(0).IntPart()}, nil
}

// classifyEntries canonicalizes parsed lines: dedup against the account's
// confirmed transactions and within the batch, then map descriptions.
// Duplicate beats unmapped: a line already imported needs no mapping.
// The oldest matching mapping wins.
func classifyEntries(batch core.ImportBatch, lines []statementLine, hashes []string, known map[string]bool, mappings []core.ImportMapping) []core.StatementEntry {
	entries := make([]core.StatementEntry, 0, len(lines))
	seen := make(map[string]bool, len(lines))
	for i, ln := range lines {
		hash := hashes[i]
		e := core.StatementEntry{
			BatchID:     batch.ID,
			LineNo:      ln.lineNo,
			Date:        ln.date,
			Description: ln.description,
			Amount:      ln.amount,
			Currency:    ln.currency,
			HashID:      hash,
		}
		if known[hash] || seen[hash] {
			e.Status = core.EntryDuplicate
		} else if m, ok := matchMapping(mappings, ln.description); ok {
			e.Status = core.EntryNew
			e.Category = m.Category
			e.FundID = m.FundID
		} else {
			e.Status = core.EntryUnmapped
		}
		seen[hash] = true
		entries = append(entries, e)
	}
	return entries
}

// matchMapping returns the first mapping whose pattern matches; mappings
// arrive ordered by creation.
func matchMapping(mappings []core.ImportMapping, description string) (core.ImportMapping, bool) {
	normalized := core.NormalizeDescription(description)
	for _, m := range mappings {
		if m.Matches(normalized) {
			return m, true
		}
	}
	return core.ImportMapping{}, false
}

func countStatuses(entries []core.StatementEntry) (newCount, dupCount, unmapCount int) {
	for _, e := range entries {
		switch e.Status {
		case core.EntryNew:
			newCount++
		case core.EntryDuplicate:
			dupCount++
		case core.EntryUnmapped:
			unmapCount++
		}
	}
	return
}
