package model

import (
	"time"

	"github.com/google/uuid"
)

// User is a customer account. Account management lives outside this service;
// the row exists so orders, carts and reviews have an owner.
type User struct {
	ID        uuid.UUID `json:"id" db:"id"`
	Email     string    `json:"email" db:"email"`
	FullName  string    `json:"fullName" db:"full_name"`
	CreatedAt time.Time `json:"createdAt" db:"created_at"`
}

// Address is a shipping address owned by a user.
type Address struct {
	ID         uuid.UUID `json:"id" db:"id"`
	UserID     uuid.UUID `json:"-" db:"user_id"`
	FullName   string    `json:"fullName" db:"full_name"`
	Line1      string    `json:"line1" db:"line1"`
	Line2      string    `json:"line2,omitempty" db:"line2"`
	City       string    `json:"city" db:"city"`
	State      string    `json:"state,omitempty" db:"state"`
	PostalCode string    `json:"postalCode" db:"postal_code"`
	Country    string    `json:"country" db:"country"`
	Phone      string    `json:"phone,omitempty" db:"phone"`
	CreatedAt  time.Time `json:"createdAt" db:"created_at"`
}
