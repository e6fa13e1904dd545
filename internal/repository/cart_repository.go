package repository

import (
	"context"

	"github.com/iliyamo/car-marketplace/internal/database"
	"github.com/iliyamo/car-marketplace/internal/model"
)

// CartRepo persists (username, car_id) pairs. Adding the same car twice
// creates two rows.
type CartRepo struct{ db *database.DB }

func NewCartRepo(db *database.DB) *CartRepo { return &CartRepo{db: db} }

// Add puts a car in the user's cart. A car or user that does not exist
// yields ErrNotFound.
func (r *CartRepo) Add(ctx context.Context, username string, carID uint64) error {
	_, err := r.db.ExecContext(ctx,
		"INSERT INTO cart (car_id, username) VALUES (?, ?)", carID, username)
	return translate(err)
}

// Remove deletes every cart row for this user and car. Removing a car that
// is not in the cart is not an error.
func (r *CartRepo) Remove(ctx context.Context, username string, carID uint64) error {
	_, err := r.db.ExecContext(ctx,
		"DELETE FROM cart WHERE username = ? AND car_id = ?", username, carID)
	return err
}

// ListForUser returns the cars in the user's cart, one element per cart row.
func (r *CartRepo) ListForUser(ctx context.Context, username string) ([]model.Car, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT c.id, c.make, c.model, c.color, c.price, c.miles, c.description, c.owner_username
		  FROM cart ct
		  JOIN cars c ON c.id = ct.car_id
		 WHERE ct.username = ?
		 ORDER BY ct.id`, username)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanCars(rows)
}
