package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	"fondi/internal/core"
)

// creditAssetTx adds cents to an asset balance. The asset must belong to
// the given fund.
func creditAssetTx(ctx context.Context, tx *sql.Tx, fundID, assetID string, cents int64) error {
	res, err := tx.ExecContext(ctx,
		`UPDATE assets SET balance_cents = balance_cents + ? WHERE id = ? AND fund_id = ?`,
		cents, assetID, fundID)
	if err != nil {
		return fmt.Errorf("credit asset: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("credit asset: %w", err)
	}
	if n == 0 {
		return fmt.Errorf("asset %s: %w", assetID, core.ErrUnknownAsset)
	}
	return nil
}

// debitAssetTx subtracts cents from an asset balance, refusing to let it go
// negative.
func debitAssetTx(ctx context.Context, tx *sql.Tx, fundID, assetID string, cents int64) error {
	res, err := tx.ExecContext(ctx,
		`UPDATE assets SET balance_cents = balance_cents - ?
		 WHERE id = ? AND fund_id = ? AND balance_cents >= ?`,
		cents, assetID, fundID, cents)
	if err != nil {
		return fmt.Errorf("debit asset: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("debit asset: %w", err)
	}
	if n > 0 {
		return nil
	}

	// Distinguish a missing asset from an insufficient balance.
	var one int
	err = tx.QueryRowContext(ctx,
		`SELECT 1 FROM assets WHERE id = ? AND fund_id = ?`, assetID, fundID).Scan(&one)
	if errors.Is(err, sql.ErrNoRows) {
		return fmt.Errorf("asset %s: %w", assetID, core.ErrUnknownAsset)
	}
	if err != nil {
		return fmt.Errorf("debit asset: %w", err)
	}
	return fmt.Errorf("asset %s: %w", assetID, core.ErrInsufficientFunds)
}

func priceToNull(p core.Price) sql.NullString {
	if v, ok := p.Value(); ok {
		return sql.NullString{String: v.String(), Valid: true}
	}
	return sql.NullString{}
}

func priceFromNull(ns sql.NullString) (core.Price, error) {
	if !ns.Valid {
		return core.UnknownPrice(), nil
	}
	v, err := decimal.NewFromString(ns.String)
	if err != nil {
		return core.Price{}, fmt.Errorf("stored price %q: %w", ns.String, err)
	}
	return core.KnownPrice(v), nil
}

func (r *Repository) CreateContribution(ctx context.Context, c core.Contribution) (core.Contribution, error) {
	c.ID = newID()
	c.CreatedAt = time.Now().UTC()

	err := r.inTx(ctx, func(tx *sql.Tx) error {
		_, err := tx.ExecContext(ctx,
			`INSERT INTO operations (id, kind, fund_id, date, total_amount_cents, currency, purpose, note, created_at)
			 VALUES (?, 'contribution', ?, ?, ?, ?, '', ?, ?)`,
			c.ID, c.FundID, c.Date.String(), c.TotalAmount.Cents, c.Currency, c.Note, c.CreatedAt.Unix())
		if err != nil {
			return fmt.Errorf("insert contribution: %w", err)
		}
		for i, a := range c.Allocations {
			_, err := tx.ExecContext(ctx,
				`INSERT INTO operation_allocations (operation_id, position, asset_id, amount_cents, price_per_unit)
				 VALUES (?, ?, ?, ?, ?)`,
				c.ID, i, a.AssetID, a.Amount.Cents, priceToNull(a.PricePerUnit))
			if err != nil {
				return fmt.Errorf("insert allocation: %w", err)
			}
			if err := creditAssetTx(ctx, tx, c.FundID, a.AssetID, a.Amount.Cents); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return core.Contribution{}, err
	}
	return c, nil
}

func (r *Repository) CreateWithdrawal(ctx context.Context, w core.Withdrawal) (core.Withdrawal, error) {
	w.ID = newID()
	w.CreatedAt = time.Now().UTC()

	err := r.inTx(ctx, func(tx *sql.Tx) error {
		_, err := tx.ExecContext(ctx,
			`INSERT INTO operations (id, kind, fund_id, date, total_amount_cents, currency, purpose, note, created_at)
			 VALUES (?, 'withdrawal', ?, ?, ?, ?, ?, ?, ?)`,
			w.ID, w.FundID, w.Date.String(), w.TotalAmount.Cents, w.Currency, w.Purpose, w.Note, w.CreatedAt.Unix())
		if err != nil {
			return fmt.Errorf("insert withdrawal: %w", err)
		}
		for i, a := range w.Allocations {
			_, err := tx.ExecContext(ctx,
				`INSERT INTO operation_allocations (operation_id, position, asset_id, amount_cents, price_per_unit)
				 VALUES (?, ?, ?, ?, NULL)`,
				w.ID, i, a.AssetID, a.Amount.Cents)
			if err != nil {
				return fmt.Errorf("insert allocation: %w", err)
			}
			if err := debitAssetTx(ctx, tx, w.FundID, a.AssetID, a.Amount.Cents); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return core.Withdrawal{}, err
	}
	return w, nil
}

func (r *Repository) CreateFundTransfer(ctx context.Context, t core.FundTransfer) (core.FundTransfer, error) {
	t.ID = newID()
	t.CreatedAt = time.Now().UTC()

	err := r.inTx(ctx, func(tx *sql.Tx) error {
		_, err := tx.ExecContext(ctx,
			`INSERT INTO fund_transfers (id, date, from_fund_id, to_fund_id, total_amount_cents, note, created_at)
			 VALUES (?, ?, ?, ?, ?, ?, ?)`,
			t.ID, t.Date.String(), t.FromFundID, t.ToFundID, t.TotalAmount.Cents, t.Note, t.CreatedAt.Unix())
		if err != nil {
			return fmt.Errorf("insert fund transfer: %w", err)
		}
		for i, a := range t.Allocations {
			_, err := tx.ExecContext(ctx,
				`INSERT INTO fund_transfer_allocations (transfer_id, position, asset_id, amount_cents)
				 VALUES (?, ?, ?, ?)`,
				t.ID, i, a.AssetID, a.Amount.Cents)
			if err != nil {
				return fmt.Errorf("insert transfer allocation: %w", err)
			}

			var assetName string
			err = tx.QueryRowContext(ctx,
				`SELECT name FROM assets WHERE id = ? AND fund_id = ?`, a.AssetID, t.FromFundID).Scan(&assetName)
			if errors.Is(err, sql.ErrNoRows) {
				return fmt.Errorf("asset %s: %w", a.AssetID, core.ErrUnknownAsset)
			}
			if err != nil {
				return fmt.Errorf("resolve source asset: %w", err)
			}

			if err := debitAssetTx(ctx, tx, t.FromFundID, a.AssetID, a.Amount.Cents); err != nil {
				return err
			}

			// The destination asset is matched by name and created on
			// first use, so a transfer can seed a new fund.
			var destID string
			err = tx.QueryRowContext(ctx,
				`SELECT id FROM assets WHERE fund_id = ? AND name = ?`, t.ToFundID, assetName).Scan(&destID)
			if errors.Is(err, sql.ErrNoRows) {
				destID = newID()
				if _, err := tx.ExecContext(ctx,
					`INSERT INTO assets (id, fund_id, name, balance_cents) VALUES (?, ?, ?, 0)`,
					destID, t.ToFundID, assetName); err != nil {
					return fmt.Errorf("create destination asset: %w", err)
				}
			} else if err != nil {
				return fmt.Errorf("resolve destination asset: %w", err)
			}

			if err := creditAssetTx(ctx, tx, t.ToFundID, destID, a.Amount.Cents); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return core.FundTransfer{}, err
	}
	return t, nil
}

func (r *Repository) allocationsForOperation(ctx context.Context, operationID string) ([]core.OperationAllocation, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT asset_id, amount_cents, price_per_unit FROM operation_allocations
		 WHERE operation_id = ? ORDER BY position`, operationID)
	if err != nil {
		return nil, fmt.Errorf("list allocations: %w", err)
	}
	defer rows.Close()

	var allocs []core.OperationAllocation
	for rows.Next() {
		var (
			a  core.OperationAllocation
			ns sql.NullString
		)
		if err := rows.Scan(&a.AssetID, &a.Amount.Cents, &ns); err != nil {
			return nil, fmt.Errorf("scan allocation: %w", err)
		}
		if a.PricePerUnit, err = priceFromNull(ns); err != nil {
			return nil, err
		}
		allocs = append(allocs, a)
	}
	return allocs, rows.Err()
}

func (r *Repository) GetContribution(ctx context.Context, id string) (core.Contribution, error) {
	var (
		c         core.Contribution
		date      string
		createdAt int64
	)
	err := r.db.QueryRowContext(ctx,
		`SELECT id, fund_id, date, total_amount_cents, currency, note, created_at
		 FROM operations WHERE id = ? AND kind = 'contribution'`, id).
		Scan(&c.ID, &c.FundID, &date, &c.TotalAmount.Cents, &c.Currency, &c.Note, &createdAt)
	if errors.Is(err, sql.ErrNoRows) {
		return core.Contribution{}, fmt.Errorf("contribution %s: %w", id, core.ErrNotFound)
	}
	if err != nil {
		return core.Contribution{}, fmt.Errorf("get contribution: %w", err)
	}
	if c.Date, err = scanDate(date); err != nil {
		return core.Contribution{}, err
	}
	c.CreatedAt = timeFromUnix(createdAt)
	if c.Allocations, err = r.allocationsForOperation(ctx, c.ID); err != nil {
		return core.Contribution{}, err
	}
	return c, nil
}

func (r *Repository) GetWithdrawal(ctx context.Context, id string) (core.Withdrawal, error) {
	var (
		w         core.Withdrawal
		date      string
		createdAt int64
	)
	err := r.db.QueryRowContext(ctx,
		`SELECT id, fund_id, date, total_amount_cents, currency, purpose, note, created_at
		 FROM operations WHERE id = ? AND kind = 'withdrawal'`, id).
		Scan(&w.ID, &w.FundID, &date, &w.TotalAmount.Cents, &w.Currency, &w.Purpose, &w.Note, &createdAt)
	if errors.Is(err, sql.ErrNoRows) {
		return core.Withdrawal{}, fmt.Errorf("withdrawal %s: %w", id, core.ErrNotFound)
	}
	if err != nil {
		return core.Withdrawal{}, fmt.Errorf("get withdrawal: %w", err)
	}
	if w.Date, err = scanDate(date); err != nil {
		return core.Withdrawal{}, err
	}
	w.CreatedAt = timeFromUnix(createdAt)
	if w.Allocations, err = r.allocationsForOperation(ctx, w.ID); err != nil {
		return core.Withdrawal{}, err
	}
	return w, nil
}

func (r *Repository) ListContributions(ctx context.Context, fundID string, year, month int) ([]core.Contribution, error) {
	from, to := monthRange(year, month)
	rows, err := r.db.QueryContext(ctx,
		`SELECT id, fund_id, date, total_amount_cents, currency, note, created_at
		 FROM operations
		 WHERE kind = 'contribution' AND fund_id = ? AND date >= ? AND date < ?
		 ORDER BY date, created_at`, fundID, from, to)
	if err != nil {
		return nil, fmt.Errorf("list contributions: %w", err)
	}
	defer rows.Close()

	var out []core.Contribution
	for rows.Next() {
		var (
			c         core.Contribution
			date      string
			createdAt int64
		)
		if err := rows.Scan(&c.ID, &c.FundID, &date, &c.TotalAmount.Cents, &c.Currency, &c.Note, &createdAt); err != nil {
			return nil, fmt.Errorf("scan contribution: %w", err)
		}
		if c.Date, err = scanDate(date); err != nil {
			return nil, err
		}
		c.CreatedAt = timeFromUnix(createdAt)
		out = append(out, c)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	for i := range out {
		if out[i].Allocations, err = r.allocationsForOperation(ctx, out[i].ID); err != nil {
			return nil, err
		}
	}
	return out, nil
}

func (r *Repository) ListWithdrawals(ctx context.Context, fundID string, year, month int) ([]core.Withdrawal, error) {
	from, to := monthRange(year, month)
	rows, err := r.db.QueryContext(ctx,
		`SELECT id, fund_id, date, total_amount_cents, currency, purpose, note, created_at
		 FROM operations
		 WHERE kind = 'withdrawal' AND fund_id = ? AND date >= ? AND date < ?
		 ORDER BY date, created_at`, fundID, from, to)
	if err != nil {
		return nil, fmt.Errorf("list withdrawals: %w", err)
	}
	defer rows.Close()

	var out []core.Withdrawal
	for rows.Next() {
		var (
			w         core.Withdrawal
			date      string
			createdAt int64
		)
		if err := rows.Scan(&w.ID, &w.FundID, &date, &w.TotalAmount.Cents, &w.Currency, &w.Purpose, &w.Note, &createdAt); err != nil {
			return nil, fmt.Errorf("scan withdrawal: %w", err)
		}
		if w.Date, err = scanDate(date); err != nil {
			return nil, err
		}
		w.CreatedAt = timeFromUnix(createdAt)
		out = append(out, w)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	for i := range out {
		if out[i].Allocations, err = r.allocationsForOperation(ctx, out[i].ID); err != nil {
			return nil, err
		}
	}
	return out, nil
}

func (r *Repository) ListFundTransfers(ctx context.Context, year, month int) ([]core.FundTransfer, error) {
	from, to := monthRange(year, month)
	rows, err := r.db.QueryContext(ctx,
		`SELECT id, date, from_fund_id, to_fund_id, total_amount_cents, note, created_at
		 FROM fund_transfers WHERE date >= ? AND date < ?
		 ORDER BY date, created_at`, from, to)
	if err != nil {
		return nil, fmt.Errorf("list fund transfers: %w", err)
	}
	defer rows.Close()

	var out []core.FundTransfer
	for rows.Next() {
		var (
			t         core.FundTransfer
			date      string
			createdAt int64
		)
		if err := rows.Scan(&t.ID, &date, &t.FromFundID, &t.ToFundID, &t.TotalAmount.Cents, &t.Note, &createdAt); err != nil {
			return nil, fmt.Errorf("scan fund transfer: %w", err)
		}
		if t.Date, err = scanDate(date); err != nil {
			return nil, err
		}
		t.CreatedAt = timeFromUnix(createdAt)
		out = append(out, t)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	for i := range out {
		allocRows, err := r.db.QueryContext(ctx,
			`SELECT asset_id, amount_cents FROM fund_transfer_allocations
			 WHERE transfer_id = ? ORDER BY position`, out[i].ID)
		if err != nil {
			return nil, fmt.Errorf("list transfer allocations: %w", err)
		}
		var allocs []core.OperationAllocation
		for allocRows.Next() {
			var a core.OperationAllocation
			if err := allocRows.Scan(&a.AssetID, &a.Amount.Cents); err != nil {
				allocRows.Close()
				return nil, fmt.Errorf("scan transfer allocation: %w", err)
			}
			allocs = append(allocs, a)
		}
		if err := allocRows.Err(); err != nil {
			allocRows.Close()
			return nil, err
		}
		allocRows.Close()
		out[i].Allocations = allocs
	}
	return out, nil
}
