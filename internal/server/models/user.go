// Package models defines server-side data models persisted in the database.
package models

import "time"

// User is an account record. Password holds only the output of the one-way
// password hash; the plaintext is never stored.
type User struct {
	ID        int64
	Name      string
	Email     string
	Password  string
	CreatedAt time.Time
}
