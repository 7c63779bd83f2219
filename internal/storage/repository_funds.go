package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"fondi/internal/core"
)

func (r *Repository) CreateFund(ctx context.Context, f core.Fund) (core.Fund, error) {
	f.ID = newID()
	f.CreatedAt = time.Now().UTC()

	err := r.inTx(ctx, func(tx *sql.Tx) error {
		_, err := tx.ExecContext(ctx,
			`INSERT INTO funds (id, name, currency, goal_amount_cents, created_at) VALUES (?, ?, ?, ?, ?)`,
			f.ID, f.Name, f.Currency, f.GoalAmount.Cents, f.CreatedAt.Unix())
		if err != nil {
			return fmt.Errorf("insert fund: %w", err)
		}
		for i := range f.Assets {
			f.Assets[i].ID = newID()
			f.Assets[i].FundID = f.ID
			_, err := tx.ExecContext(ctx,
				`INSERT INTO assets (id, fund_id, name, balance_cents) VALUES (?, ?, ?, ?)`,
				f.Assets[i].ID, f.ID, f.Assets[i].Name, f.Assets[i].Balance.Cents)
			if err != nil {
				return fmt.Errorf("insert asset: %w", err)
			}
		}
		return nil
	})
	if err != nil {
		return core.Fund{}, err
	}
	return f, nil
}

func (r *Repository) GetFund(ctx context.Context, id string) (core.Fund, error) {
	var (
		f          core.Fund
		createdAt  int64
		archivedAt sql.NullInt64
	)
	err := r.db.QueryRowContext(ctx,
		`SELECT id, name, currency, goal_amount_cents, created_at, archived_at FROM funds WHERE id = ?`, id).
		Scan(&f.ID, &f.Name, &f.Currency, &f.GoalAmount.Cents, &createdAt, &archivedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return core.Fund{}, fmt.Errorf("fund %s: %w", id, core.ErrNotFound)
	}
	if err != nil {
		return core.Fund{}, fmt.Errorf("get fund: %w", err)
	}
	f.CreatedAt = timeFromUnix(createdAt)
	if archivedAt.Valid {
		t := timeFromUnix(archivedAt.Int64)
		f.ArchivedAt = &t
	}

	assets, err := r.assetsForFund(ctx, f.ID)
	if err != nil {
		return core.Fund{}, err
	}
	f.Assets = assets
	return f, nil
}

func (r *Repository) assetsForFund(ctx context.Context, fundID string) ([]core.Asset, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT id, fund_id, name, balance_cents FROM assets WHERE fund_id = ? ORDER BY rowid`, fundID)
	if err != nil {
		return nil, fmt.Errorf("list assets: %w", err)
	}
	defer rows.Close()

	var assets []core.Asset
	for rows.Next() {
		var a core.Asset
		if err := rows.Scan(&a.ID, &a.FundID, &a.Name, &a.Balance.Cents); err != nil {
			return nil, fmt.Errorf("scan asset: %w", err)
		}
		assets = append(assets, a)
	}
	return assets, rows.Err()
}

func (r *Repository) ListFunds(ctx context.Context, includeArchived bool) ([]core.Fund, error) {
	query := `SELECT id, name, currency, goal_amount_cents, created_at, archived_at FROM funds`
	if !includeArchived {
		query += ` WHERE archived_at IS NULL`
	}
	query += ` ORDER BY created_at, id`

	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("list funds: %w", err)
	}
	defer rows.Close()

	var funds []core.Fund
	for rows.Next() {
		var (
			f          core.Fund
			createdAt  int64
			archivedAt sql.NullInt64
		)
		if err := rows.Scan(&f.ID, &f.Name, &f.Currency, &f.GoalAmount.Cents, &createdAt, &archivedAt); err != nil {
			return nil, fmt.Errorf("scan fund: %w", err)
		}
		f.CreatedAt = timeFromUnix(createdAt)
		if archivedAt.Valid {
			t := timeFromUnix(archivedAt.Int64)
			f.ArchivedAt = &t
		}
		funds = append(funds, f)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	for i := range funds {
		assets, err := r.assetsForFund(ctx, funds[i].ID)
		if err != nil {
			return nil, err
		}
		funds[i].Assets = assets
	}
	return funds, nil
}

func (r *Repository) UpdateFund(ctx context.Context, id string, name string, goal core.Money) (core.Fund, error) {
	res, err := r.db.ExecContext(ctx,
		`UPDATE funds SET name = ?, goal_amount_cents = ? WHERE id = ?`,
		name, goal.Cents, id)
	if err != nil {
		return core.Fund{}, fmt.Errorf("update fund: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return core.Fund{}, fmt.Errorf("update fund: %w", err)
	}
	if n == 0 {
		return core.Fund{}, fmt.Errorf("fund %s: %w", id, core.ErrNotFound)
	}
	return r.GetFund(ctx, id)
}

func (r *Repository) ArchiveFund(ctx context.Context, id string) error {
	res, err := r.db.ExecContext(ctx,
		`UPDATE funds SET archived_at = ? WHERE id = ? AND archived_at IS NULL`,
		time.Now().UTC().Unix(), id)
	if err != nil {
		return fmt.Errorf("archive fund: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("archive fund: %w", err)
	}
	if n == 0 {
		return fmt.Errorf("fund %s: %w", id, core.ErrNotFound)
	}
	return nil
}

func (r *Repository) AddAsset(ctx context.Context, fundID string, name string) (core.Asset, error) {
	if _, err := r.GetFund(ctx, fundID); err != nil {
		return core.Asset{}, err
	}
	a := core.Asset{ID: newID(), FundID: fundID, Name: name}
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO assets (id, fund_id, name, balance_cents) VALUES (?, ?, ?, 0)`,
		a.ID, a.FundID, a.Name)
	if err != nil {
		return core.Asset{}, fmt.Errorf("insert asset: %w", err)
	}
	return a, nil
}
