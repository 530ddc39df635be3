package domain

import (
	"strings"
	"unicode"
)

// User constraints.
const (
	MaxEmailLength = 254
	MaxNameLength  = 256

	// KindUser is the entity kind recorded on user snapshots.
	KindUser = "user"
)

// Entity is anything with a stable identity that can be snapshotted.
type Entity interface {
	Identity() string
}

// User is the versioned entity. Email is its identity and never changes
// once the user exists; Name is freely mutable.
type User struct {
	Email string `json:"email"`
	Name  string `json:"name"`
}

// NewUser creates a user.
func NewUser(email, name string) *User {
	return &User{Email: email, Name: name}
}

// Identity returns the email.
func (u *User) Identity() string {
	return u.Email
}

// Validate checks the user for structural problems.
func (u *User) Validate() error {
	var violations []string

	switch {
	case u.Email == "":
		violations = append(violations, "email is required")
	case len(u.Email) > MaxEmailLength:
		violations = append(violations, "email exceeds 254 characters")
	case strings.IndexFunc(u.Email, unicode.IsSpace) >= 0:
		violations = append(violations, "email must not contain whitespace")
	}

	if len(u.Name) > MaxNameLength {
		violations = append(violations, "name exceeds 256 characters")
	}

	if len(violations) > 0 {
		return ErrUserValidation.WithDetails(strings.Join(violations, "; "))
	}

	return nil
}

// Clone creates a copy of the user.
func (u *User) Clone() *User {
	clone := *u
	return &clone
}
