package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"fondi/internal/core"
)

func (r *Repository) CreateCredit(ctx context.Context, c core.Credit, schedule []core.Installment) (core.Credit, error) {
	c.ID = newID()
	c.CreatedAt = time.Now().UTC()

	err := r.inTx(ctx, func(tx *sql.Tx) error {
		_, err := tx.ExecContext(ctx,
			`INSERT INTO credits (id, name, principal_cents, currency, note, created_at) VALUES (?, ?, ?, ?, ?, ?)`,
			c.ID, c.Name, c.Principal.Cents, c.Currency, c.Note, c.CreatedAt.Unix())
		if err != nil {
			return fmt.Errorf("insert credit: %w", err)
		}
		for _, inst := range schedule {
			_, err := tx.ExecContext(ctx,
				`INSERT INTO installments (credit_id, sequence, due_date, amount_cents) VALUES (?, ?, ?, ?)`,
				c.ID, inst.Sequence, inst.DueDate.String(), inst.Amount.Cents)
			if err != nil {
				return fmt.Errorf("insert installment %d: %w", inst.Sequence, err)
			}
		}
		return nil
	})
	if err != nil {
		return core.Credit{}, err
	}
	return c, nil
}

// creditSummaryQuery aggregates the installment schedule alongside each
// credit. COALESCE keeps the sums at zero for a credit whose schedule rows
// were all deleted, which cannot normally happen but costs nothing to guard.
const creditSummaryQuery = `
SELECT c.id, c.name, c.principal_cents, c.currency, c.note, c.created_at,
       COUNT(i.sequence),
       COALESCE(SUM(CASE WHEN i.paid_at IS NOT NULL THEN 1 ELSE 0 END), 0),
       COALESCE(SUM(CASE WHEN i.paid_at IS NOT NULL THEN i.amount_cents ELSE 0 END), 0),
       COALESCE(SUM(CASE WHEN i.paid_at IS NULL THEN i.amount_cents ELSE 0 END), 0),
       MIN(CASE WHEN i.paid_at IS NULL THEN i.due_date END)
FROM credits c
LEFT JOIN installments i ON i.credit_id = c.id`

func scanCreditSummary(row interface{ Scan(...any) error }) (core.CreditSummary, error) {
	var (
		s         core.CreditSummary
		createdAt int64
		nextDue   sql.NullString
	)
	err := row.Scan(
		&s.Credit.ID, &s.Credit.Name, &s.Credit.Principal.Cents, &s.Credit.Currency, &s.Credit.Note, &createdAt,
		&s.InstallmentCount, &s.PaidCount, &s.TotalPaid.Cents, &s.RemainingAmount.Cents, &nextDue)
	if err != nil {
		return core.CreditSummary{}, err
	}
	s.Credit.CreatedAt = timeFromUnix(createdAt)
	if nextDue.Valid {
		d, err := scanDate(nextDue.String)
		if err != nil {
			return core.CreditSummary{}, err
		}
		s.NextDueDate = d
	}
	return s, nil
}

func (r *Repository) GetCredit(ctx context.Context, id string) (core.CreditSummary, error) {
	row := r.db.QueryRowContext(ctx, creditSummaryQuery+` WHERE c.id = ? GROUP BY c.id`, id)
	s, err := scanCreditSummary(row)
	if errors.Is(err, sql.ErrNoRows) {
		return core.CreditSummary{}, fmt.Errorf("credit %s: %w", id, core.ErrNotFound)
	}
	if err != nil {
		return core.CreditSummary{}, fmt.Errorf("get credit: %w", err)
	}
	return s, nil
}

func (r *Repository) ListCredits(ctx context.Context) ([]core.CreditSummary, error) {
	rows, err := r.db.QueryContext(ctx, creditSummaryQuery+` GROUP BY c.id ORDER BY c.created_at, c.id`)
	if err != nil {
		return nil, fmt.Errorf("list credits: %w", err)
	}
	defer rows.Close()

	var out []core.CreditSummary
	for rows.Next() {
		s, err := scanCreditSummary(rows)
		if err != nil {
			return nil, fmt.Errorf("scan credit: %w", err)
		}
		out = append(out, s)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list credits: %w", err)
	}
	return out, nil
}

func (r *Repository) ListInstallments(ctx context.Context, creditID string, limit, offset int) ([]core.Installment, int, error) {
	var total int
	err := r.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM installments WHERE credit_id = ?`, creditID).Scan(&total)
	if err != nil {
		return nil, 0, fmt.Errorf("count installments: %w", err)
	}
	if total == 0 {
		// Distinguish an unknown credit from one with an empty page.
		var one int
		err := r.db.QueryRowContext(ctx, `SELECT 1 FROM credits WHERE id = ?`, creditID).Scan(&one)
		if errors.Is(err, sql.ErrNoRows) {
			return nil, 0, fmt.Errorf("credit %s: %w", creditID, core.ErrNotFound)
		}
		if err != nil {
			return nil, 0, fmt.Errorf("check credit: %w", err)
		}
		return nil, 0, nil
	}

	// LIMIT -1 is SQLite for unbounded.
	if limit <= 0 {
		limit = -1
	}
	rows, err := r.db.QueryContext(ctx,
		`SELECT credit_id, sequence, due_date, amount_cents, paid_at, account_id
		 FROM installments WHERE credit_id = ? ORDER BY sequence LIMIT ? OFFSET ?`,
		creditID, limit, offset)
	if err != nil {
		return nil, 0, fmt.Errorf("list installments: %w", err)
	}
	defer rows.Close()

	var out []core.Installment
	for rows.Next() {
		inst, err := scanInstallment(rows)
		if err != nil {
			return nil, 0, err
		}
		out = append(out, inst)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("list installments: %w", err)
	}
	return out, total, nil
}

func scanInstallment(row interface{ Scan(...any) error }) (core.Installment, error) {
	var (
		inst    core.Installment
		dueDate string
		paidAt  sql.NullString
	)
	err := row.Scan(&inst.CreditID, &inst.Sequence, &dueDate, &inst.Amount.Cents, &paidAt, &inst.AccountID)
	if err != nil {
		return core.Installment{}, fmt.Errorf("scan installment: %w", err)
	}
	if inst.DueDate, err = scanDate(dueDate); err != nil {
		return core.Installment{}, err
	}
	if paidAt.Valid {
		d, err := scanDate(paidAt.String)
		if err != nil {
			return core.Installment{}, err
		}
		inst.PaidAt = &d
	}
	return inst, nil
}

func (r *Repository) PayInstallment(ctx context.Context, creditID string, sequence int, paidAt core.Date, accountID string) (core.Installment, error) {
	res, err := r.db.ExecContext(ctx,
		`UPDATE installments SET paid_at = ?, account_id = ?
		 WHERE credit_id = ? AND sequence = ? AND paid_at IS NULL`,
		paidAt.String(), accountID, creditID, sequence)
	if err != nil {
		return core.Installment{}, fmt.Errorf("pay installment: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return core.Installment{}, fmt.Errorf("pay installment: %w", err)
	}
	if n == 0 {
		// Either the installment does not exist or it is already paid.
		var one int
		err := r.db.QueryRowContext(ctx,
			`SELECT 1 FROM installments WHERE credit_id = ? AND sequence = ?`, creditID, sequence).Scan(&one)
		if errors.Is(err, sql.ErrNoRows) {
			return core.Installment{}, fmt.Errorf("installment %s/%d: %w", creditID, sequence, core.ErrNotFound)
		}
		if err != nil {
			return core.Installment{}, fmt.Errorf("check installment: %w", err)
		}
		return core.Installment{}, fmt.Errorf("installment %s/%d: %w", creditID, sequence, core.ErrInstallmentPaid)
	}

	row := r.db.QueryRowContext(ctx,
		`SELECT credit_id, sequence, due_date, amount_cents, paid_at, account_id
		 FROM installments WHERE credit_id = ? AND sequence = ?`, creditID, sequence)
	return scanInstallment(row)
}
