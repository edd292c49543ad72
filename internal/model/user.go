package model

import "time"

// User represents a shop account as stored in the `users` table.  The
// password hash never leaves the repository layer in a response.
type User struct {
	ID           uint64    `json:"id"`
	Email        string    `json:"email"`
	PasswordHash string    `json:"-"`
	ShopName     string    `json:"shop_name"`
	CreatedAt    time.Time `json:"created_at"`
}
