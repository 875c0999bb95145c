package storage

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"

	"bilancio/internal/core"
)

const incomeColumns = `id, user_id, amount_cents, note, created_at`

func (r *SQLiteRepository) CreateIncome(ctx context.Context, i core.Income) (core.Income, error) {
	if i.ID == uuid.Nil {
		i.ID = uuid.New()
	}
	if i.CreatedAt.IsZero() {
		i.CreatedAt = time.Now().UTC()
	}
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO income (`+incomeColumns+`) VALUES (?, ?, ?, ?, ?)`,
		i.ID.String(), i.UserID.String(), i.Amount.Cents, i.Note, encodeTime(i.CreatedAt))
	if err != nil {
		return core.Income{}, fmt.Errorf("create income: %w", err)
	}
	return i, nil
}

func (r *SQLiteRepository) ListIncomeByMonth(ctx context.Context, year int, month time.Month) ([]core.Income, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT `+incomeColumns+` FROM income
		 WHERE strftime('%Y-%m', created_at) = ?
		 ORDER BY created_at DESC`,
		monthKey(year, month))
	if err != nil {
		return nil, fmt.Errorf("list income by month: %w", err)
	}
	return collectIncome(rows)
}

func (r *SQLiteRepository) LatestIncomePerUser(ctx context.Context) ([]core.Income, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT i.id, i.user_id, i.amount_cents, i.note, i.created_at
		 FROM income i
		 JOIN (SELECT user_id, MAX(created_at) AS latest FROM income GROUP BY user_id) m
		   ON i.user_id = m.user_id AND i.created_at = m.latest
		 ORDER BY i.user_id`)
	if err != nil {
		return nil, fmt.Errorf("latest income per user: %w", err)
	}
	return collectIncome(rows)
}

func (r *SQLiteRepository) DeleteIncome(ctx context.Context, id uuid.UUID) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM income WHERE id = ?`, id.String())
	if err != nil {
		return fmt.Errorf("delete income: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return core.ErrNotFound
	}
	return nil
}

func collectIncome(rows *sql.Rows) ([]core.Income, error) {
	defer rows.Close()
	var entries []core.Income
	for rows.Next() {
		var (
			i          core.Income
			rawID      string
			rawUser    string
			rawCreated string
		)
		if err := rows.Scan(&rawID, &rawUser, &i.Amount.Cents, &i.Note, &rawCreated); err != nil {
			return nil, fmt.Errorf("scan income: %w", err)
		}
		var err error
		if i.ID, err = uuid.Parse(rawID); err != nil {
			return nil, fmt.Errorf("parse income id: %w", err)
		}
		if i.UserID, err = uuid.Parse(rawUser); err != nil {
			return nil, fmt.Errorf("parse user id: %w", err)
		}
		if i.CreatedAt, err = decodeTime(rawCreated); err != nil {
			return nil, err
		}
		entries = append(entries, i)
	}
	return entries, rows.Err()
}
