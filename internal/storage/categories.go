package storage

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/google/uuid"

	"bilancio/internal/core"
)

const categoryColumns = `id, name, color, monthly_budget_cents, recurring_only, large_only, linked_to_normal`

func (r *SQLiteRepository) CreateCategory(ctx context.Context, c core.Category) (core.Category, error) {
	if c.ID == uuid.Nil {
		c.ID = uuid.New()
	}
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO categories (`+categoryColumns+`) VALUES (?, ?, ?, ?, ?, ?, ?)`,
		c.ID.String(), c.Name, c.Color, encodeNullCents(c.MonthlyBudget),
		c.RecurringOnly, c.LargeOnly, c.LinkedToNormal)
	if err != nil {
		return core.Category{}, fmt.Errorf("create category: %w", err)
	}
	return c, nil
}

func (r *SQLiteRepository) GetCategory(ctx context.Context, id uuid.UUID) (core.Category, error) {
	row := r.db.QueryRowContext(ctx,
		`SELECT `+categoryColumns+` FROM categories WHERE id = ?`, id.String())
	c, err := scanCategory(row)
	if err != nil {
		return core.Category{}, fmt.Errorf("get category: %w", mapNotFound(err))
	}
	return c, nil
}

// GetCategoryByName relies on the NOCASE collation of categories.name, so
// "groceries" and "Groceries" resolve to the same row.
func (r *SQLiteRepository) GetCategoryByName(ctx context.Context, name string) (core.Category, error) {
	row := r.db.QueryRowContext(ctx,
		`SELECT `+categoryColumns+` FROM categories WHERE name = ?`, name)
	c, err := scanCategory(row)
	if err != nil {
		return core.Category{}, fmt.Errorf("get category by name: %w", mapNotFound(err))
	}
	return c, nil
}

func (r *SQLiteRepository) ListCategories(ctx context.Context) ([]core.Category, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT `+categoryColumns+` FROM categories ORDER BY name`)
	if err != nil {
		return nil, fmt.Errorf("list categories: %w", err)
	}
	defer rows.Close()

	var categories []core.Category
	for rows.Next() {
		c, err := scanCategory(rows)
		if err != nil {
			return nil, fmt.Errorf("scan category: %w", err)
		}
		categories = append(categories, c)
	}
	return categories, rows.Err()
}

func (r *SQLiteRepository) UpdateCategory(ctx context.Context, c core.Category) error {
	res, err := r.db.ExecContext(ctx,
		`UPDATE categories
		 SET name = ?, color = ?, monthly_budget_cents = ?,
		     recurring_only = ?, large_only = ?, linked_to_normal = ?
		 WHERE id = ?`,
		c.Name, c.Color, encodeNullCents(c.MonthlyBudget),
		c.RecurringOnly, c.LargeOnly, c.LinkedToNormal, c.ID.String())
	if err != nil {
		return fmt.Errorf("update category: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return core.ErrNotFound
	}
	return nil
}

func (r *SQLiteRepository) DeleteCategory(ctx context.Context, id uuid.UUID) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM categories WHERE id = ?`, id.String())
	if err != nil {
		return fmt.Errorf("delete category: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return core.ErrNotFound
	}
	return nil
}

func scanCategory(row rowScanner) (core.Category, error) {
	var (
		c      core.Category
		rawID  string
		budget sql.NullInt64
	)
	if err := row.Scan(&rawID, &c.Name, &c.Color, &budget,
		&c.RecurringOnly, &c.LargeOnly, &c.LinkedToNormal); err != nil {
		return core.Category{}, err
	}
	id, err := uuid.Parse(rawID)
	if err != nil {
		return core.Category{}, fmt.Errorf("parse category id: %w", err)
	}
	c.ID = id
	c.MonthlyBudget = decodeNullCents(budget)
	return c, nil
}
