package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"fondi/internal/core"
)

func (r *Repository) CreateAccount(ctx context.Context, a core.Account) (core.Account, error) {
	a.ID = newID()
	a.CreatedAt = time.Now().UTC()

	_, err := r.db.ExecContext(ctx,
		`INSERT INTO accounts (id, name, bank, currency, balance_cents, created_at) VALUES (?, ?, ?, ?, ?, ?)`,
		a.ID, a.Name, a.Bank, a.Currency, a.Balance.Cents, a.CreatedAt.Unix())
	if err != nil {
		return core.Account{}, fmt.Errorf("insert account: %w", err)
	}
	return a, nil
}

func (r *Repository) GetAccount(ctx context.Context, id string) (core.Account, error) {
	var (
		a         core.Account
		createdAt int64
	)
	err := r.db.QueryRowContext(ctx,
		`SELECT id, name, bank, currency, balance_cents, created_at FROM accounts WHERE id = ?`, id).
		Scan(&a.ID, &a.Name, &a.Bank, &a.Currency, &a.Balance.Cents, &createdAt)
	if errors.Is(err, sql.ErrNoRows) {
		return core.Account{}, fmt.Errorf("account %s: %w", id, core.ErrNotFound)
	}
	if err != nil {
		return core.Account{}, fmt.Errorf("get account: %w", err)
	}
	a.CreatedAt = timeFromUnix(createdAt)
	return a, nil
}

func (r *Repository) ListAccounts(ctx context.Context) ([]core.Account, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT id, name, bank, currency, balance_cents, created_at FROM accounts ORDER BY created_at, id`)
	if err != nil {
		return nil, fmt.Errorf("list accounts: %w", err)
	}
	defer rows.Close()

	var out []core.Account
	for rows.Next() {
		var (
			a         core.Account
			createdAt int64
		)
		if err := rows.Scan(&a.ID, &a.Name, &a.Bank, &a.Currency, &a.Balance.Cents, &createdAt); err != nil {
			return nil, fmt.Errorf("scan account: %w", err)
		}
		a.CreatedAt = timeFromUnix(createdAt)
		out = append(out, a)
	}
	return out, rows.Err()
}

// CreateTransfer moves the amount between the two account balances and
// records the transfer, all in one transaction. The source may not go
// negative.
func (r *Repository) CreateTransfer(ctx context.Context, t core.Transfer) (core.Transfer, error) {
	t.ID = newID()
	t.CreatedAt = time.Now().UTC()

	err := r.inTx(ctx, func(tx *sql.Tx) error {
		res, err := tx.ExecContext(ctx,
			`UPDATE accounts SET balance_cents = balance_cents - ?
			 WHERE id = ? AND balance_cents >= ?`,
			t.Amount.Cents, t.FromAccountID, t.Amount.Cents)
		if err != nil {
			return fmt.Errorf("debit account: %w", err)
		}
		n, err := res.RowsAffected()
		if err != nil {
			return fmt.Errorf("debit account: %w", err)
		}
		if n == 0 {
			var one int
			err := tx.QueryRowContext(ctx, `SELECT 1 FROM accounts WHERE id = ?`, t.FromAccountID).Scan(&one)
			if errors.Is(err, sql.ErrNoRows) {
				return fmt.Errorf("account %s: %w", t.FromAccountID, core.ErrNotFound)
			}
			if err != nil {
				return fmt.Errorf("debit account: %w", err)
			}
			return fmt.Errorf("account %s: %w", t.FromAccountID, core.ErrInsufficientFunds)
		}

		res, err = tx.ExecContext(ctx,
			`UPDATE accounts SET balance_cents = balance_cents + ? WHERE id = ?`,
			t.Amount.Cents, t.ToAccountID)
		if err != nil {
			return fmt.Errorf("credit account: %w", err)
		}
		n, err = res.RowsAffected()
		if err != nil {
			return fmt.Errorf("credit account: %w", err)
		}
		if n == 0 {
			return fmt.Errorf("account %s: %w", t.ToAccountID, core.ErrNotFound)
		}

		_, err = tx.ExecContext(ctx,
			`INSERT INTO transfers (id, date, from_account_id, to_account_id, amount_cents, note, created_at)
			 VALUES (?, ?, ?, ?, ?, ?, ?)`,
			t.ID, t.Date.String(), t.FromAccountID, t.ToAccountID, t.Amount.Cents, t.Note, t.CreatedAt.Unix())
		if err != nil {
			return fmt.Errorf("insert transfer: %w", err)
		}
		return nil
	})
	if err != nil {
		return core.Transfer{}, err
	}
	return t, nil
}

func (r *Repository) ListTransfers(ctx context.Context, year, month int) ([]core.Transfer, error) {
	from, to := monthRange(year, month)
	rows, err := r.db.QueryContext(ctx,
		`SELECT id, date, from_account_id, to_account_id, amount_cents, note, created_at
		 FROM transfers WHERE date >= ? AND date < ? ORDER BY date, created_at`, from, to)
	if err != nil {
		return nil, fmt.Errorf("list transfers: %w", err)
	}
	defer rows.Close()

	var out []core.Transfer
	for rows.Next() {
		var (
			t         core.Transfer
			date      string
			createdAt int64
		)
		if err := rows.Scan(&t.ID, &date, &t.FromAccountID, &t.ToAccountID, &t.Amount.Cents, &t.Note, &createdAt); err != nil {
			return nil, fmt.Errorf("scan transfer: %w", err)
		}
		if t.Date, err = scanDate(date); err != nil {
			return nil, err
		}
		t.CreatedAt = timeFromUnix(createdAt)
		out = append(out, t)
	}
	return out, rows.Err()
}

func (r *Repository) ListTransactions(ctx context.Context, accountID string, year, month int) ([]core.Transaction, error) {
	from, to := monthRange(year, month)
	rows, err := r.db.QueryContext(ctx,
		`SELECT id, account_id, date, description, amount_cents, currency, category, hash_id, imported_at
		 FROM transactions WHERE account_id = ? AND date >= ? AND date < ?
		 ORDER BY date, rowid`, accountID, from, to)
	if err != nil {
		return nil, fmt.Errorf("list transactions: %w", err)
	}
	defer rows.Close()

	var out []core.Transaction
	for rows.Next() {
		var (
			tr         core.Transaction
			date       string
			importedAt int64
		)
		if err := rows.Scan(&tr.ID, &tr.AccountID, &date, &tr.Description, &tr.Amount.Cents,
			&tr.Currency, &tr.Category, &tr.HashID, &importedAt); err != nil {
			return nil, fmt.Errorf("scan transaction: %w", err)
		}
		if tr.Date, err = scanDate(date); err != nil {
			return nil, err
		}
		tr.ImportedAt = timeFromUnix(importedAt)
		out = append(out, tr)
	}
	return out, rows.Err()
}
