package storage

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"bilancio/internal/core"
)

const largeColumns = `id, user_id, category_id, total_amount_cents, monthly_amount_cents, day_of_month, note, is_active, created_at, updated_at`

func (r *SQLiteRepository) CreateLarge(ctx context.Context, le core.LargeExpense) (core.LargeExpense, error) {
	if le.ID == uuid.Nil {
		le.ID = uuid.New()
	}
	now := time.Now().UTC()
	if le.CreatedAt.IsZero() {
		le.CreatedAt = now
	}
	le.UpdatedAt = now
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO large_expenses (`+largeColumns+`) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		le.ID.String(), le.UserID.String(), le.CategoryID.String(),
		le.TotalAmount.Cents, le.MonthlyAmount.Cents, le.DayOfMonth, le.Note, le.IsActive,
		encodeTime(le.CreatedAt), encodeTime(le.UpdatedAt))
	if err != nil {
		return core.LargeExpense{}, fmt.Errorf("create large expense: %w", err)
	}
	return le, nil
}

func (r *SQLiteRepository) GetLarge(ctx context.Context, id uuid.UUID) (core.LargeExpense, error) {
	row := r.db.QueryRowContext(ctx,
		`SELECT `+largeColumns+` FROM large_expenses WHERE id = ?`, id.String())
	le, err := scanLarge(row)
	if err != nil {
		return core.LargeExpense{}, fmt.Errorf("get large expense: %w", mapNotFound(err))
	}
	return le, nil
}

func (r *SQLiteRepository) ListLarge(ctx context.Context) ([]core.LargeExpense, error) {
	return r.listLarge(ctx,
		`SELECT `+largeColumns+` FROM large_expenses ORDER BY day_of_month, created_at`)
}

func (r *SQLiteRepository) ListActiveLarge(ctx context.Context) ([]core.LargeExpense, error) {
	return r.listLarge(ctx,
		`SELECT `+largeColumns+` FROM large_expenses WHERE is_active = 1 ORDER BY day_of_month, created_at`)
}

func (r *SQLiteRepository) listLarge(ctx context.Context, query string) ([]core.LargeExpense, error) {
	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("list large expenses: %w", err)
	}
	defer rows.Close()

	var defs []core.LargeExpense
	for rows.Next() {
		le, err := scanLarge(rows)
		if err != nil {
			return nil, fmt.Errorf("scan large expense: %w", err)
		}
		defs = append(defs, le)
	}
	return defs, rows.Err()
}

func (r *SQLiteRepository) UpdateLarge(ctx context.Context, le core.LargeExpense) error {
	res, err := r.db.ExecContext(ctx,
		`UPDATE large_expenses
		 SET user_id = ?, category_id = ?, total_amount_cents = ?, monthly_amount_cents = ?,
		     day_of_month = ?, note = ?, is_active = ?, updated_at = ?
		 WHERE id = ?`,
		le.UserID.String(), le.CategoryID.String(), le.TotalAmount.Cents, le.MonthlyAmount.Cents,
		le.DayOfMonth, le.Note, le.IsActive, encodeTime(time.Now().UTC()), le.ID.String())
	if err != nil {
		return fmt.Errorf("update large expense: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return core.ErrNotFound
	}
	return nil
}

func (r *SQLiteRepository) DeactivateLarge(ctx context.Context, id uuid.UUID) error {
	res, err := r.db.ExecContext(ctx,
		`UPDATE large_expenses SET is_active = 0, updated_at = ? WHERE id = ?`,
		encodeTime(time.Now().UTC()), id.String())
	if err != nil {
		return fmt.Errorf("deactivate large expense: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return core.ErrNotFound
	}
	return nil
}

func (r *SQLiteRepository) DeleteLarge(ctx context.Context, id uuid.UUID) error {
	res, err := r.db.ExecContext(ctx,
		`DELETE FROM large_expenses WHERE id = ?`, id.String())
	if err != nil {
		return fmt.Errorf("delete large expense: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return core.ErrNotFound
	}
	return nil
}

func scanLarge(row rowScanner) (core.LargeExpense, error) {
	var (
		le         core.LargeExpense
		rawID      string
		rawUser    string
		rawCat     string
		rawCreated string
		rawUpdated string
	)
	if err := row.Scan(&rawID, &rawUser, &rawCat, &le.TotalAmount.Cents, &le.MonthlyAmount.Cents,
		&le.DayOfMonth, &le.Note, &le.IsActive, &rawCreated, &rawUpdated); err != nil {
		return core.LargeExpense{}, err
	}
	var err error
	if le.ID, err = uuid.Parse(rawID); err != nil {
		return core.LargeExpense{}, fmt.Errorf("parse large expense id: %w", err)
	}
	if le.UserID, err = uuid.Parse(rawUser); err != nil {
		return core.LargeExpense{}, fmt.Errorf("parse user id: %w", err)
	}
	if le.CategoryID, err = uuid.Parse(rawCat); err != nil {
		return core.LargeExpense{}, fmt.Errorf("parse category id: %w", err)
	}
	if le.CreatedAt, err = decodeTime(rawCreated); err != nil {
		return core.LargeExpense{}, err
	}
	if le.UpdatedAt, err = decodeTime(rawUpdated); err != nil {
		return core.LargeExpense{}, err
	}
	return le, nil
}
