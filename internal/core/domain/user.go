package domain

import (
	"strings"
	"time"
)

// User models a registered account. Memberships is a read projection of the
// roster; it is never written through the user record.
type User struct {
	ID           string       `json:"id"`
	Name         string       `json:"name"`
	Email        string       `json:"email"`
	PasswordHash string       `json:"-"`
	CreatedAt    time.Time    `json:"created_at"`
	Memberships  []Membership `json:"memberships,omitempty"`
}

// NormalizeEmail trims and lowercases an address. Every lookup and every
// stored email goes through it.
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
