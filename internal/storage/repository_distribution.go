package storage

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"fondi/internal/core"
)

func (r *Repository) CreateRule(ctx context.Context, rule core.DistributionRule) (core.DistributionRule, error) {
	rule.ID = newID()
	rule.CreatedAt = time.Now().UTC()

	_, err := r.db.ExecContext(ctx,
		`INSERT INTO distribution_rules (id, fund_id, asset_id, kind, value, priority, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?)`,
		rule.ID, rule.FundID, rule.AssetID, string(rule.Kind), rule.Value, rule.Priority, rule.CreatedAt.Unix())
	if err != nil {
		return core.DistributionRule{}, fmt.Errorf("insert rule: %w", err)
	}
	return rule, nil
}

func (r *Repository) ListRules(ctx context.Context) ([]core.DistributionRule, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT id, fund_id, asset_id, kind, value, priority, created_at
		 FROM distribution_rules ORDER BY priority, created_at`)
	if err != nil {
		return nil, fmt.Errorf("list rules: %w", err)
	}
	defer rows.Close()

	var out []core.DistributionRule
	for rows.Next() {
		var (
			rule      core.DistributionRule
			kind      string
			createdAt int64
		)
		if err := rows.Scan(&rule.ID, &rule.FundID, &rule.AssetID, &kind, &rule.Value, &rule.Priority, &createdAt); err != nil {
			return nil, fmt.Errorf("scan rule: %w", err)
		}
		rule.Kind = core.RuleKind(kind)
		rule.CreatedAt = timeFromUnix(createdAt)
		out = append(out, rule)
	}
	return out, rows.Err()
}

func (r *Repository) UpdateRule(ctx context.Context, rule core.DistributionRule) (core.DistributionRule, error) {
	res, err := r.db.ExecContext(ctx,
		`UPDATE distribution_rules SET fund_id = ?, asset_id = ?, kind = ?, value = ?, priority = ? WHERE id = ?`,
		rule.FundID, rule.AssetID, string(rule.Kind), rule.Value, rule.Priority, rule.ID)
	if err != nil {
		return core.DistributionRule{}, fmt.Errorf("update rule: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return core.DistributionRule{}, fmt.Errorf("update rule: %w", err)
	}
	if n == 0 {
		return core.DistributionRule{}, fmt.Errorf("rule %s: %w", rule.ID, core.ErrNotFound)
	}
	return rule, nil
}

func (r *Repository) DeleteRule(ctx context.Context, id string) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM distribution_rules WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("delete rule: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("delete rule: %w", err)
	}
	if n == 0 {
		return fmt.Errorf("rule %s: %w", id, core.ErrNotFound)
	}
	return nil
}

func (r *Repository) CreateIncome(ctx context.Context, in core.Income) (core.Income, error) {
	in.ID = newID()
	in.CreatedAt = time.Now().UTC()

	_, err := r.db.ExecContext(ctx,
		`INSERT INTO incomes (id, date, amount_cents, currency, source, note, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?)`,
		in.ID, in.Date.String(), in.Amount.Cents, in.Currency, in.Source, in.Note, in.CreatedAt.Unix())
	if err != nil {
		return core.Income{}, fmt.Errorf("insert income: %w", err)
	}
	return in, nil
}

func (r *Repository) ListIncomes(ctx context.Context, year, month int) ([]core.Income, error) {
	from, to := monthRange(year, month)
	rows, err := r.db.QueryContext(ctx,
		`SELECT id, date, amount_cents, currency, source, note, created_at
		 FROM incomes WHERE date >= ? AND date < ? ORDER BY date, created_at`, from, to)
	if err != nil {
		return nil, fmt.Errorf("list incomes: %w", err)
	}
	defer rows.Close()

	var out []core.Income
	for rows.Next() {
		var (
			in        core.Income
			date      string
			createdAt int64
		)
		if err := rows.Scan(&in.ID, &date, &in.Amount.Cents, &in.Currency, &in.Source, &in.Note, &createdAt); err != nil {
			return nil, fmt.Errorf("scan income: %w", err)
		}
		if in.Date, err = scanDate(date); err != nil {
			return nil, err
		}
		in.CreatedAt = timeFromUnix(createdAt)
		out = append(out, in)
	}
	return out, rows.Err()
}

func (r *Repository) CreateRecurringIncome(ctx context.Context, ri core.RecurringIncome) (core.RecurringIncome, error) {
	ri.ID = newID()
	ri.CreatedAt = time.Now().UTC()

	_, err := r.db.ExecContext(ctx,
		`INSERT INTO recurring_incomes (id, name, amount_cents, currency, source, frequency, start_date, last_run_at, active, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, NULL, ?, ?)`,
		ri.ID, ri.Name, ri.Amount.Cents, ri.Currency, ri.Source, string(ri.Frequency),
		ri.StartDate.String(), boolToInt(ri.Active), ri.CreatedAt.Unix())
	if err != nil {
		return core.RecurringIncome{}, fmt.Errorf("insert recurring income: %w", err)
	}
	return ri, nil
}

func (r *Repository) ListRecurringIncomes(ctx context.Context, onlyActive bool) ([]core.RecurringIncome, error) {
	query := `SELECT id, name, amount_cents, currency, source, frequency, start_date, last_run_at, active, created_at
	          FROM recurring_incomes`
	if onlyActive {
		query += ` WHERE active = 1`
	}
	query += ` ORDER BY created_at, id`

	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("list recurring incomes: %w", err)
	}
	defer rows.Close()

	var out []core.RecurringIncome
	for rows.Next() {
		var (
			ri        core.RecurringIncome
			frequency string
			startDate string
			lastRun   sql.NullInt64
			active    int
			createdAt int64
		)
		if err := rows.Scan(&ri.ID, &ri.Name, &ri.Amount.Cents, &ri.Currency, &ri.Source,
			&frequency, &startDate, &lastRun, &active, &createdAt); err != nil {
			return nil, fmt.Errorf("scan recurring income: %w", err)
		}
		ri.Frequency = core.Frequency(frequency)
		if ri.StartDate, err = scanDate(startDate); err != nil {
			return nil, err
		}
		if lastRun.Valid {
			ri.LastRunAt = timeFromUnix(lastRun.Int64)
		}
		ri.Active = active != 0
		ri.CreatedAt = timeFromUnix(createdAt)
		out = append(out, ri)
	}
	return out, rows.Err()
}

func (r *Repository) DeleteRecurringIncome(ctx context.Context, id string) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM recurring_incomes WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("delete recurring income: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("delete recurring income: %w", err)
	}
	if n == 0 {
		return fmt.Errorf("recurring income %s: %w", id, core.ErrNotFound)
	}
	return nil
}

func (r *Repository) MarkRecurringRun(ctx context.Context, id string, at time.Time) error {
	res, err := r.db.ExecContext(ctx,
		`UPDATE recurring_incomes SET last_run_at = ? WHERE id = ?`, at.Unix(), id)
	if err != nil {
		return fmt.Errorf("mark recurring run: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("mark recurring run: %w", err)
	}
	if n == 0 {
		return fmt.Errorf("recurring income %s: %w", id, core.ErrNotFound)
	}
	return nil
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
