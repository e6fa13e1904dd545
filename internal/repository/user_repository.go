package repository

import (
	"context"
	"database/sql"
	"errors"

	"github.com/iliyamo/car-marketplace/internal/database"
	"github.com/iliyamo/car-marketplace/internal/model"
)

// UserRepo is the credential store. Usernames are matched exactly,
// including case.
type UserRepo struct{ DB *database.DB }

func NewUserRepo(db *database.DB) *UserRepo { return &UserRepo{DB: db} }

// Create inserts a user with an already hashed password.
// A taken username yields ErrDuplicateKey.
func (r *UserRepo) Create(ctx context.Context, username, passwordHash string) error {
	_, err := r.DB.ExecContext(ctx,
		"INSERT INTO users (username, password_hash) VALUES (?, ?)",
		username, passwordHash)
	return translate(err)
}

// GetByUsername fetches a user. Missing users yield ErrNotFound.
func (r *UserRepo) GetByUsername(ctx context.Context, username string) (model.User, error) {
	var u model.User
	err := r.DB.QueryRowContext(ctx,
		"SELECT username, password_hash FROM users WHERE username = ?",
		username).Scan(&u.Username, &u.PasswordHash)
	if errors.Is(err, sql.ErrNoRows) {
		return model.User{}, ErrNotFound
	}
	return u, err
}

// Exists reports whether a user row is present.
func (r *UserRepo) Exists(ctx context.Context, username string) (bool, error) {
	var n int
	err := r.DB.QueryRowContext(ctx,
		"SELECT COUNT(1) FROM users WHERE username = ?", username).Scan(&n)
	return n > 0, err
}

// UpdatePassword stores a new hash. It returns ErrNotFound when no row
// matched.
func (r *UserRepo) UpdatePassword(ctx context.Context, username, passwordHash string) error {
	res, err := r.DB.ExecContext(ctx,
		"UPDATE users SET password_hash = ? WHERE username = ?",
		passwordHash, username)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		// MySQL reports 0 affected rows when the value is unchanged.
		ok, err := r.Exists(ctx, username)
		if err != nil {
			return err
		}
		if !ok {
			return ErrNotFound
		}
	}
	return nil
}

// Delete removes a user and everything that hangs off it: cart rows of the
// user, cart rows of other users pointing at the user's cars, the user's cars
// and finally the user row. All deletes share one transaction. Deleting a user
// that does not exist is a no-op; removed reports whether the user row was
// there.
func (r *UserRepo) Delete(ctx context.Context, username string) (removed bool, err error) {
	tx, err := r.DB.BeginTx(ctx, nil)
	if err != nil {
		return false, err
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		} else if err = tx.Commit(); err != nil {
			removed = false
		}
	}()

	if _, err = tx.ExecContext(ctx, `DELETE FROM cart WHERE username = ?`, username); err != nil {
		return false, err
	}
	if _, err = tx.ExecContext(ctx,
		`DELETE FROM cart WHERE car_id IN (SELECT id FROM cars WHERE owner_username = ?)`,
		username); err != nil {
		return false, err
	}
	if _, err = tx.ExecContext(ctx, `DELETE FROM cars WHERE owner_username = ?`, username); err != nil {
		return false, err
	}
	res, err := tx.ExecContext(ctx, `DELETE FROM users WHERE username = ?`, username)
	if err != nil {
		return false, err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	return n > 0, nil
}
