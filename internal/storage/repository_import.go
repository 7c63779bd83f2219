package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"fondi/internal/core"
)

func (r *Repository) CreateBatch(ctx context.Context, b core.ImportBatch) (core.ImportBatch, error) {
	b.ID = newID()
	b.Status = core.BatchPending
	b.CreatedAt = time.Now().UTC()

	_, err := r.db.ExecContext(ctx,
		`INSERT INTO import_batches (id, account_id, filename, raw_csv, status, created_at) VALUES (?, ?, ?, ?, ?, ?)`,
		b.ID, b.AccountID, b.Filename, b.RawCSV, string(b.Status), b.CreatedAt.Unix())
	if err != nil {
		return core.ImportBatch{}, fmt.Errorf("insert import batch: %w", err)
	}
	return b, nil
}

func (r *Repository) GetBatch(ctx context.Context, id string) (core.ImportBatch, error) {
	var (
		b           core.ImportBatch
		status      string
		parseErrors string
		createdAt   int64
		analyzedAt  sql.NullInt64
	)
	err := r.db.QueryRowContext(ctx,
		`SELECT id, account_id, filename, raw_csv, status, new_count, dup_count, unmap_count, parse_errors, created_at, analyzed_at
		 FROM import_batches WHERE id = ?`, id).
		Scan(&b.ID, &b.AccountID, &b.Filename, &b.RawCSV, &status,
			&b.NewCount, &b.DupCount, &b.UnmapCount, &parseErrors, &createdAt, &analyzedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return core.ImportBatch{}, fmt.Errorf("import batch %s: %w", id, core.ErrNotFound)
	}
	if err != nil {
		return core.ImportBatch{}, fmt.Errorf("get import batch: %w", err)
	}
	b.Status = core.BatchStatus(status)
	if parseErrors != "" {
		b.ParseErrors = strings.Split(parseErrors, "\n")
	}
	b.CreatedAt = timeFromUnix(createdAt)
	if analyzedAt.Valid {
		t := timeFromUnix(analyzedAt.Int64)
		b.AnalyzedAt = &t
	}
	return b, nil
}

func (r *Repository) UpdateBatch(ctx context.Context, b core.ImportBatch) error {
	var analyzedAt sql.NullInt64
	if b.AnalyzedAt != nil {
		analyzedAt = sql.NullInt64{Int64: b.AnalyzedAt.Unix(), Valid: true}
	}
	res, err := r.db.ExecContext(ctx,
		`UPDATE import_batches
		 SET status = ?, new_count = ?, dup_count = ?, unmap_count = ?, parse_errors = ?, analyzed_at = ?
		 WHERE id = ?`,
		string(b.Status), b.NewCount, b.DupCount, b.UnmapCount,
		strings.Join(b.ParseErrors, "\n"), analyzedAt, b.ID)
	if err != nil {
		return fmt.Errorf("update import batch: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("update import batch: %w", err)
	}
	if n == 0 {
		return fmt.Errorf("import batch %s: %w", b.ID, core.ErrNotFound)
	}
	return nil
}

// ReplaceEntries swaps a batch's analyzed entries wholesale. Re-analysis
// regenerates every entry, so a delete-and-insert keeps the rows exactly in
// step with the latest run.
func (r *Repository) ReplaceEntries(ctx context.Context, batchID string, entries []core.StatementEntry) error {
	return r.inTx(ctx, func(tx *sql.Tx) error {
		if _, err := tx.ExecContext(ctx, `DELETE FROM statement_entries WHERE batch_id = ?`, batchID); err != nil {
			return fmt.Errorf("clear statement entries: %w", err)
		}
		for _, e := range entries {
			_, err := tx.ExecContext(ctx,
				`INSERT INTO statement_entries (id, batch_id, line_no, date, description, amount_cents, currency, hash_id, status, category, fund_id)
				 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
				newID(), batchID, e.LineNo, e.Date.String(), e.Description, e.Amount.Cents,
				e.Currency, e.HashID, string(e.Status), e.Category, e.FundID)
			if err != nil {
				return fmt.Errorf("insert statement entry line %d: %w", e.LineNo, err)
			}
		}
		return nil
	})
}

func (r *Repository) ListEntries(ctx context.Context, batchID string, status core.EntryStatus, limit, offset int) ([]core.StatementEntry, int, error) {
	countQuery := `SELECT COUNT(*) FROM statement_entries WHERE batch_id = ?`
	listQuery := `SELECT id, batch_id, line_no, date, description, amount_cents, currency, hash_id, status, category, fund_id
	 FROM statement_entries WHERE batch_id = ?`
	countArgs := []any{batchID}
	listArgs := []any{batchID}
	if status != "" {
		countQuery += ` AND status = ?`
		listQuery += ` AND status = ?`
		countArgs = append(countArgs, string(status))
		listArgs = append(listArgs, string(status))
	}
	// LIMIT -1 is SQLite for unbounded, used by confirm to walk every entry.
	if limit <= 0 {
		limit = -1
	}
	listQuery += ` ORDER BY line_no LIMIT ? OFFSET ?`
	listArgs = append(listArgs, limit, offset)

	var total int
	if err := r.db.QueryRowContext(ctx, countQuery, countArgs...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("count statement entries: %w", err)
	}

	rows, err := r.db.QueryContext(ctx, listQuery, listArgs...)
	if err != nil {
		return nil, 0, fmt.Errorf("list statement entries: %w", err)
	}
	defer rows.Close()

	var out []core.StatementEntry
	for rows.Next() {
		var (
			e       core.StatementEntry
			date    string
			eStatus string
		)
		err := rows.Scan(&e.ID, &e.BatchID, &e.LineNo, &date, &e.Description,
			&e.Amount.Cents, &e.Currency, &e.HashID, &eStatus, &e.Category, &e.FundID)
		if err != nil {
			return nil, 0, fmt.Errorf("scan statement entry: %w", err)
		}
		if e.Date, err = scanDate(date); err != nil {
			return nil, 0, err
		}
		e.Status = core.EntryStatus(eStatus)
		out = append(out, e)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("list statement entries: %w", err)
	}
	return out, total, nil
}

// KnownHashes reports which of the given hashes already exist as confirmed
// transactions on the account.
func (r *Repository) KnownHashes(ctx context.Context, accountID string, hashes []string) (map[string]bool, error) {
	known := make(map[string]bool, len(hashes))
	if len(hashes) == 0 {
		return known, nil
	}

	placeholders := strings.Repeat("?, ", len(hashes)-1) + "?"
	args := make([]any, 0, len(hashes)+1)
	args = append(args, accountID)
	for _, h := range hashes {
		args = append(args, h)
	}

	rows, err := r.db.QueryContext(ctx,
		`SELECT hash_id FROM transactions WHERE account_id = ? AND hash_id IN (`+placeholders+`)`, args...)
	if err != nil {
		return nil, fmt.Errorf("query known hashes: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var h string
		if err := rows.Scan(&h); err != nil {
			return nil, fmt.Errorf("scan hash: %w", err)
		}
		known[h] = true
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("query known hashes: %w", err)
	}
	return known, nil
}

// ConfirmBatch materializes the batch's new entries as transactions and
// marks the batch confirmed, atomically.
func (r *Repository) ConfirmBatch(ctx context.Context, b core.ImportBatch, txs []core.Transaction) error {
	now := time.Now().UTC()
	return r.inTx(ctx, func(tx *sql.Tx) error {
		for i := range txs {
			txs[i].ID = newID()
			txs[i].ImportedAt = now
			_, err := tx.ExecContext(ctx,
				`INSERT INTO transactions (id, account_id, date, description, amount_cents, currency, category, hash_id, imported_at)
				 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
				txs[i].ID, txs[i].AccountID, txs[i].Date.String(), txs[i].Description,
				txs[i].Amount.Cents, txs[i].Currency, txs[i].Category, txs[i].HashID, now.Unix())
			if err != nil {
				return fmt.Errorf("insert transaction: %w", err)
			}
		}
		res, err := tx.ExecContext(ctx,
			`UPDATE import_batches SET status = ? WHERE id = ?`, string(core.BatchConfirmed), b.ID)
		if err != nil {
			return fmt.Errorf("confirm import batch: %w", err)
		}
		n, err := res.RowsAffected()
		if err != nil {
			return fmt.Errorf("confirm import batch: %w", err)
		}
		if n == 0 {
			return fmt.Errorf("import batch %s: %w", b.ID, core.ErrNotFound)
		}
		return nil
	})
}

func (r *Repository) CreateMapping(ctx context.Context, m core.ImportMapping) (core.ImportMapping, error) {
	m.ID = newID()
	m.CreatedAt = time.Now().UTC()

	_, err := r.db.ExecContext(ctx,
		`INSERT INTO import_mappings (id, pattern, category, fund_id, created_at) VALUES (?, ?, ?, ?, ?)`,
		m.ID, m.Pattern, m.Category, m.FundID, m.CreatedAt.Unix())
	if err != nil {
		return core.ImportMapping{}, fmt.Errorf("insert import mapping: %w", err)
	}
	return m, nil
}

func (r *Repository) ListMappings(ctx context.Context) ([]core.ImportMapping, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT id, pattern, category, fund_id, created_at FROM import_mappings ORDER BY created_at, id`)
	if err != nil {
		return nil, fmt.Errorf("list import mappings: %w", err)
	}
	defer rows.Close()

	var out []core.ImportMapping
	for rows.Next() {
		var (
			m         core.ImportMapping
			createdAt int64
		)
		if err := rows.Scan(&m.ID, &m.Pattern, &m.Category, &m.FundID, &createdAt); err != nil {
			return nil, fmt.Errorf("scan import mapping: %w", err)
		}
		m.CreatedAt = timeFromUnix(createdAt)
		out = append(out, m)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list import mappings: %w", err)
	}
	return out, nil
}

func (r *Repository) DeleteMapping(ctx context.Context, id string) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM import_mappings WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("delete import mapping: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("delete import mapping: %w", err)
	}
	if n == 0 {
		return fmt.Errorf("import mapping %s: %w", id, core.ErrNotFound)
	}
	return nil
}
