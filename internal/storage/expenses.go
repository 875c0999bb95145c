package storage

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"

	"bilancio/internal/core"
)

const expenseColumns = `id, user_id, category_id, amount_cents, note, source_definition_id, created_at`

func (r *SQLiteRepository) CreateExpense(ctx context.Context, e core.Expense) (core.Expense, error) {
	if e.ID == uuid.Nil {
		e.ID = uuid.New()
	}
	if e.CreatedAt.IsZero() {
		e.CreatedAt = time.Now().UTC()
	}
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO expenses (`+expenseColumns+`) VALUES (?, ?, ?, ?, ?, ?, ?)`,
		e.ID.String(), e.UserID.String(), e.CategoryID.String(),
		e.Amount.Cents, e.Note, encodeNullID(e.SourceDefinitionID), encodeTime(e.CreatedAt))
	if err != nil {
		return core.Expense{}, fmt.Errorf("create expense: %w", err)
	}
	return e, nil
}

func (r *SQLiteRepository) GetExpense(ctx context.Context, id uuid.UUID) (core.Expense, error) {
	row := r.db.QueryRowContext(ctx,
		`SELECT `+expenseColumns+` FROM expenses WHERE id = ?`, id.String())
	e, err := scanExpense(row)
	if err != nil {
		return core.Expense{}, fmt.Errorf("get expense: %w", mapNotFound(err))
	}
	return e, nil
}

func (r *SQLiteRepository) ListExpensesByMonth(ctx context.Context, year int, month time.Month) ([]core.Expense, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT `+expenseColumns+` FROM expenses
		 WHERE strftime('%Y-%m', created_at) = ?
		 ORDER BY created_at DESC`,
		monthKey(year, month))
	if err != nil {
		return nil, fmt.Errorf("list expenses by month: %w", err)
	}
	return collectExpenses(rows)
}

func (r *SQLiteRepository) ListExpensesByYear(ctx context.Context, year int) ([]core.Expense, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT `+expenseColumns+` FROM expenses
		 WHERE strftime('%Y', created_at) = ?
		 ORDER BY created_at`,
		fmt.Sprintf("%04d", year))
	if err != nil {
		return nil, fmt.Errorf("list expenses by year: %w", err)
	}
	return collectExpenses(rows)
}

func (r *SQLiteRepository) DeleteExpense(ctx context.Context, id uuid.UUID) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM expenses WHERE id = ?`, id.String())
	if err != nil {
		return fmt.Errorf("delete expense: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return core.ErrNotFound
	}
	return nil
}

func (r *SQLiteRepository) HasInstallmentForMonth(ctx context.Context, definitionID uuid.UUID, year int, month time.Month) (bool, error) {
	var exists bool
	err := r.db.QueryRowContext(ctx,
		`SELECT EXISTS(
		    SELECT 1 FROM expenses
		    WHERE source_definition_id = ? AND strftime('%Y-%m', created_at) = ?)`,
		definitionID.String(), monthKey(year, month)).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("check installment for month: %w", err)
	}
	return exists, nil
}

func (r *SQLiteRepository) CountInstallments(ctx context.Context, definitionID uuid.UUID) (int, error) {
	var count int
	err := r.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM expenses WHERE source_definition_id = ?`,
		definitionID.String()).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("count installments: %w", err)
	}
	return count, nil
}

func (r *SQLiteRepository) DeleteBySourceDefinition(ctx context.Context, definitionID uuid.UUID) error {
	_, err := r.db.ExecContext(ctx,
		`DELETE FROM expenses WHERE source_definition_id = ?`, definitionID.String())
	if err != nil {
		return fmt.Errorf("delete installments: %w", err)
	}
	return nil
}

func collectExpenses(rows *sql.Rows) ([]core.Expense, error) {
	defer rows.Close()
	var expenses []core.Expense
	for rows.Next() {
		e, err := scanExpense(rows)
		if err != nil {
			return nil, fmt.Errorf("scan expense: %w", err)
		}
		expenses = append(expenses, e)
	}
	return expenses, rows.Err()
}

func scanExpense(row rowScanner) (core.Expense, error) {
	var (
		e          core.Expense
		rawID      string
		rawUser    string
		rawCat     string
		rawSource  sql.NullString
		rawCreated string
	)
	if err := row.Scan(&rawID, &rawUser, &rawCat, &e.Amount.Cents, &e.Note,
		&rawSource, &rawCreated); err != nil {
		return core.Expense{}, err
	}
	var err error
	if e.ID, err = uuid.Parse(rawID); err != nil {
		return core.Expense{}, fmt.Errorf("parse expense id: %w", err)
	}
	if e.UserID, err = uuid.Parse(rawUser); err != nil {
		return core.Expense{}, fmt.Errorf("parse user id: %w", err)
	}
	if e.CategoryID, err = uuid.Parse(rawCat); err != nil {
		return core.Expense{}, fmt.Errorf("parse category id: %w", err)
	}
	if e.SourceDefinitionID, err = decodeNullID(rawSource); err != nil {
		return core.Expense{}, err
	}
	if e.CreatedAt, err = decodeTime(rawCreated); err != nil {
		return core.Expense{}, err
	}
	return e, nil
}
