package model

// Car is a listing row from the `cars` table.
type Car struct {
	ID            uint64  `json:"id"`             // cars.id
	Make          string  `json:"make"`           // cars.make
	Model         string  `json:"model"`          // cars.model
	Color         string  `json:"color"`          // cars.color
	Price         float64 `json:"price"`          // cars.price
	Miles         int64   `json:"miles"`          // cars.miles
	Description   string  `json:"description"`    // cars.description
	OwnerUsername string  `json:"owner_username"` // cars.owner_username (references users.username)
}
