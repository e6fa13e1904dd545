// Package repository contains data access logic separated from HTTP handlers.
// This file holds the listing store: every car belongs to exactly one owner
// and only that owner may remove it.
package repository

import (
	"context"
	"database/sql"
	"errors"
	"math"
	"math/rand/v2"
	"strings"

	"github.com/iliyamo/car-marketplace/internal/database"
	"github.com/iliyamo/car-marketplace/internal/model"
)

const carColumns = "id, make, model, color, price, miles, description, owner_username"

// CarRepo encapsulates all database queries related to car listings.
type CarRepo struct {
	db *database.DB

	// afterOwnerCheck runs inside DeleteByIDAndOwner between the ownership
	// check and the DELETE. Nil outside tests.
	afterOwnerCheck func(ctx context.Context, tx *database.Tx)
}

// NewCarRepo constructs a CarRepo with the provided DB handle.
func NewCarRepo(db *database.DB) *CarRepo {
	return &CarRepo{db: db}
}

// ListAll returns every listing in a fresh random order on each call. When
// search is non-empty only cars whose make or model contains it
// (case-insensitively) are returned. The shuffle happens in Go so the query
// is the same for every dialect.
func (r *CarRepo) ListAll(ctx context.Context, search string) ([]model.Car, error) {
	q := "SELECT " + carColumns + " FROM cars"
	var args []any
	if s := strings.TrimSpace(search); s != "" {
		q += " WHERE LOWER(make) LIKE ? ESCAPE '!' OR LOWER(model) LIKE ? ESCAPE '!'"
		pat := "%" + likeEscaper.Replace(strings.ToLower(s)) + "%"
		args = append(args, pat, pat)
	}
	cars, err := r.query(ctx, q, args...)
	if err != nil {
		return nil, err
	}
	rand.Shuffle(len(cars), func(i, j int) { cars[i], cars[j] = cars[j], cars[i] })
	return cars, nil
}

// likeEscaper makes % and _ in a search term match literally. '!' is the
// escape character because a backslash needs extra quoting on MySQL.
var likeEscaper = strings.NewReplacer("!", "!!", "%", "!%", "_", "!_")

// ListByOwner returns the listings of one owner ordered by id.
func (r *CarRepo) ListByOwner(ctx context.Context, owner string) ([]model.Car, error) {
	return r.query(ctx,
		"SELECT "+carColumns+" FROM cars WHERE owner_username = ? ORDER BY id", owner)
}

// GetByID fetches a single listing or ErrNotFound.
func (r *CarRepo) GetByID(ctx context.Context, id uint64) (model.Car, error) {
	var c model.Car
	err := r.db.QueryRowContext(ctx, "SELECT "+carColumns+" FROM cars WHERE id = ?", id).
		Scan(&c.ID, &c.Make, &c.Model, &c.Color, &c.Price, &c.Miles, &c.Description, &c.OwnerUsername)
	if errors.Is(err, sql.ErrNoRows) {
		return model.Car{}, ErrNotFound
	}
	return c, err
}

// Create inserts a listing and fills in its generated ID. Make, model and a
// positive finite price are required, and miles must fit the 32-bit column.
// An owner that no longer exists yields ErrNotFound through the foreign key.
func (r *CarRepo) Create(ctx context.Context, c *model.Car) error {
	if strings.TrimSpace(c.Make) == "" || strings.TrimSpace(c.Model) == "" || !validPrice(c.Price) || c.Miles < 0 || c.Miles > math.MaxInt32 {
		return ErrInvalidInput
	}
	const qInsert = `INSERT INTO cars (make, model, color, price, miles, description, owner_username)
	                 VALUES (?, ?, ?, ?, ?, ?, ?)`
	args := []any{c.Make, c.Model, c.Color, c.Price, c.Miles, c.Description, c.OwnerUsername}

	if r.db.SupportsReturning() {
		var id int64
		if err := r.db.QueryRowContext(ctx, qInsert+" RETURNING id", args...).Scan(&id); err != nil {
			return translate(err)
		}
		c.ID = uint64(id)
		return nil
	}

	res, err := r.db.ExecContext(ctx, qInsert, args...)
	if err != nil {
		return translate(err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return err
	}
	c.ID = uint64(id)
	return nil
}

// validPrice rejects zero, negative and non-finite prices.
func validPrice(p float64) bool {
	return p > 0 && !math.IsNaN(p) && !math.IsInf(p, 0)
}

// DeleteByIDAndOwner removes a listing provided it belongs to owner. Cart rows
// referencing the car are removed in the same transaction. A listing that does
// not exist or belongs to someone else yields ErrNotFound. If a concurrent
// request deleted the row between the ownership check and the DELETE, the call
// succeeds as a no-op.
func (r *CarRepo) DeleteByIDAndOwner(ctx context.Context, id uint64, owner string) (err error) {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		} else {
			err = tx.Commit()
		}
	}()

	var dbOwner string
	if err = tx.QueryRowContext(ctx, `SELECT owner_username FROM cars WHERE id = ?`, id).Scan(&dbOwner); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return ErrNotFound
		}
		return err
	}
	if dbOwner != owner {
		return ErrNotFound
	}
	if r.afterOwnerCheck != nil {
		r.afterOwnerCheck(ctx, tx)
	}
	if _, err = tx.ExecContext(ctx, `DELETE FROM cart WHERE car_id = ?`, id); err != nil {
		return err
	}
	if _, err = tx.ExecContext(ctx, `DELETE FROM cars WHERE id = ? AND owner_username = ?`, id, owner); err != nil {
		return err
	}
	return nil
}

func (r *CarRepo) query(ctx context.Context, q string, args ...any) ([]model.Car, error) {
	rows, err := r.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanCars(rows)
}

func scanCars(rows *sql.Rows) ([]model.Car, error) {
	out := []model.Car{}
	for rows.Next() {
		var c model.Car
		if err := rows.Scan(&c.ID, &c.Make, &c.Model, &c.Color, &c.Price, &c.Miles, &c.Description, &c.OwnerUsername); err != nil {
			return nil, err
		}
		out = append(out, c)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return out, nil
}
