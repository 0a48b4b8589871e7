package model

import "time"

// User roles stored in users.role and carried in the JWT "role" claim.
const (
	RoleAdmin = "ADMIN"
	RoleUser  = "USER"
)

// User is a registered account. Administrators manage events and seats;
// regular users book seats for themselves.
type User struct {
	ID           uint64    // users.id
	Name         string    // users.name
	Email        string    // users.email
	PasswordHash string    // users.password_hash
	Role         string    // ADMIN | USER
	CreatedAt    time.Time // users.created_at
	UpdatedAt    time.Time // users.updated_at
}
