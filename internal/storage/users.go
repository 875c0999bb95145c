package storage

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"bilancio/internal/core"
)

func (r *SQLiteRepository) CreateUser(ctx context.Context, u core.User) (core.User, error) {
	if u.ID == uuid.Nil {
		u.ID = uuid.New()
	}
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO users (id, name, color) VALUES (?, ?, ?)`,
		u.ID.String(), u.Name, u.Color)
	if err != nil {
		return core.User{}, fmt.Errorf("create user: %w", err)
	}
	return u, nil
}

func (r *SQLiteRepository) GetUser(ctx context.Context, id uuid.UUID) (core.User, error) {
	row := r.db.QueryRowContext(ctx,
		`SELECT id, name, color FROM users WHERE id = ?`, id.String())
	u, err := scanUser(row)
	if err != nil {
		return core.User{}, fmt.Errorf("get user: %w", mapNotFound(err))
	}
	return u, nil
}

func (r *SQLiteRepository) ListUsers(ctx context.Context) ([]core.User, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT id, name, color FROM users ORDER BY name`)
	if err != nil {
		return nil, fmt.Errorf("list users: %w", err)
	}
	defer rows.Close()

	var users []core.User
	for rows.Next() {
		u, err := scanUser(rows)
		if err != nil {
			return nil, fmt.Errorf("scan user: %w", err)
		}
		users = append(users, u)
	}
	return users, rows.Err()
}

func (r *SQLiteRepository) DeleteUser(ctx context.Context, id uuid.UUID) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM users WHERE id = ?`, id.String())
	if err != nil {
		return fmt.Errorf("delete user: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return core.ErrNotFound
	}
	return nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanUser(row rowScanner) (core.User, error) {
	var (
		u     core.User
		rawID string
	)
	if err := row.Scan(&rawID, &u.Name, &u.Color); err != nil {
		return core.User{}, err
	}
	id, err := uuid.Parse(rawID)
	if err != nil {
		return core.User{}, fmt.Errorf("parse user id: %w", err)
	}
	u.ID = id
	return u, nil
}
