package storage

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"

	"bilancio/internal/core"
)

const recurringColumns = `id, user_id, category_id, amount_cents, day_of_month, note, is_active, last_generated_at, created_at, updated_at`

func (r *SQLiteRepository) CreateRecurring(ctx context.Context, re core.RecurringExpense) (core.RecurringExpense, error) {
	if re.ID == uuid.Nil {
		re.ID = uuid.New()
	}
	now := time.Now().UTC()
	if re.CreatedAt.IsZero() {
		re.CreatedAt = now
	}
	re.UpdatedAt = now
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO recurring_expenses (`+recurringColumns+`) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		re.ID.String(), re.UserID.String(), re.CategoryID.String(),
		re.Amount.Cents, re.DayOfMonth, re.Note, re.IsActive,
		encodeNullTime(re.LastGeneratedAt), encodeTime(re.CreatedAt), encodeTime(re.UpdatedAt))
	if err != nil {
		return core.RecurringExpense{}, fmt.Errorf("create recurring expense: %w", err)
	}
	return re, nil
}

func (r *SQLiteRepository) GetRecurring(ctx context.Context, id uuid.UUID) (core.RecurringExpense, error) {
	row := r.db.QueryRowContext(ctx,
		`SELECT `+recurringColumns+` FROM recurring_expenses WHERE id = ?`, id.String())
	re, err := scanRecurring(row)
	if err != nil {
		return core.RecurringExpense{}, fmt.Errorf("get recurring expense: %w", mapNotFound(err))
	}
	return re, nil
}

func (r *SQLiteRepository) ListRecurring(ctx context.Context) ([]core.RecurringExpense, error) {
	return r.listRecurring(ctx,
		`SELECT `+recurringColumns+` FROM recurring_expenses ORDER BY day_of_month, created_at`)
}

func (r *SQLiteRepository) ListActiveRecurring(ctx context.Context) ([]core.RecurringExpense, error) {
	return r.listRecurring(ctx,
		`SELECT `+recurringColumns+` FROM recurring_expenses WHERE is_active = 1 ORDER BY day_of_month, created_at`)
}

func (r *SQLiteRepository) listRecurring(ctx context.Context, query string) ([]core.RecurringExpense, error) {
	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("list recurring expenses: %w", err)
	}
	defer rows.Close()

	var defs []core.RecurringExpense
	for rows.Next() {
		re, err := scanRecurring(rows)
		if err != nil {
			return nil, fmt.Errorf("scan recurring expense: %w", err)
		}
		defs = append(defs, re)
	}
	return defs, rows.Err()
}

func (r *SQLiteRepository) UpdateRecurring(ctx context.Context, re core.RecurringExpense) error {
	res, err := r.db.ExecContext(ctx,
		`UPDATE recurring_expenses
		 SET user_id = ?, category_id = ?, amount_cents = ?, day_of_month = ?, note = ?, is_active = ?, updated_at = ?
		 WHERE id = ?`,
		re.UserID.String(), re.CategoryID.String(), re.Amount.Cents, re.DayOfMonth, re.Note, re.IsActive,
		encodeTime(time.Now().UTC()), re.ID.String())
	if err != nil {
		return fmt.Errorf("update recurring expense: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return core.ErrNotFound
	}
	return nil
}

func (r *SQLiteRepository) MarkRecurringGenerated(ctx context.Context, id uuid.UUID, at time.Time) error {
	res, err := r.db.ExecContext(ctx,
		`UPDATE recurring_expenses SET last_generated_at = ?, updated_at = ? WHERE id = ?`,
		encodeTime(at), encodeTime(time.Now().UTC()), id.String())
	if err != nil {
		return fmt.Errorf("mark recurring generated: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return core.ErrNotFound
	}
	return nil
}

func (r *SQLiteRepository) DeleteRecurring(ctx context.Context, id uuid.UUID) error {
	res, err := r.db.ExecContext(ctx,
		`DELETE FROM recurring_expenses WHERE id = ?`, id.String())
	if err != nil {
		return fmt.Errorf("delete recurring expense: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return core.ErrNotFound
	}
	return nil
}

func scanRecurring(row rowScanner) (core.RecurringExpense, error) {
	var (
		re         core.RecurringExpense
		rawID      string
		rawUser    string
		rawCat     string
		rawLastGen sql.NullString
		rawCreated string
		rawUpdated string
	)
	if err := row.Scan(&rawID, &rawUser, &rawCat, &re.Amount.Cents, &re.DayOfMonth,
		&re.Note, &re.IsActive, &rawLastGen, &rawCreated, &rawUpdated); err != nil {
		return core.RecurringExpense{}, err
	}
	var err error
	if re.ID, err = uuid.Parse(rawID); err != nil {
		return core.RecurringExpense{}, fmt.Errorf("parse recurring id: %w", err)
	}
	if re.UserID, err = uuid.Parse(rawUser); err != nil {
		return core.RecurringExpense{}, fmt.Errorf("parse user id: %w", err)
	}
	if re.CategoryID, err = uuid.Parse(rawCat); err != nil {
		return core.RecurringExpense{}, fmt.Errorf("parse category id: %w", err)
	}
	if re.LastGeneratedAt, err = decodeNullTime(rawLastGen); err != nil {
		return core.RecurringExpense{}, err
	}
	if re.CreatedAt, err = decodeTime(rawCreated); err != nil {
		return core.RecurringExpense{}, err
	}
	if re.UpdatedAt, err = decodeTime(rawUpdated); err != nil {
		return core.RecurringExpense{}, err
	}
	return re, nil
}
