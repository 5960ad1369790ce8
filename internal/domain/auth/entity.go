package auth

import (
	"errors"
	"strings"
	"time"
)

var (
	// ErrInvalidCredentials indicates a login failure. Unknown email and wrong
	// password both map here.
	ErrInvalidCredentials = errors.New("invalid credentials")
	// ErrEmailExists signals a duplicate email registration.
	ErrEmailExists = errors.New("email already registered")
	// ErrUserNotFound indicates missing user.
	ErrUserNotFound = errors.New("user not found")
	// ErrInvalidRole indicates the provided role is not supported.
	ErrInvalidRole = errors.New("invalid role")
	// ErrValidation marks malformed signup or login input.
	ErrValidation = errors.New("validation failed")
	// ErrEmptyPassword is returned when hashing an empty password.
	ErrEmptyPassword = errors.New("password cannot be empty")

	// ErrTokenInvalid means the token signature or claims did not verify.
	ErrTokenInvalid = errors.New("token invalid")
	// ErrTokenExpired means the token is past its expiration deadline.
	ErrTokenExpired = errors.New("token expired")
	// ErrTokenMalformed means the token could not be parsed at all.
	ErrTokenMalformed = errors.New("token malformed")

	// ErrConfiguration is a fatal server-side problem: a missing or weak
	// signing secret, a corrupt stored hash, a broken hashing backend.
	ErrConfiguration = errors.New("configuration error")
)

// Role identifies the privileges assigned to a user.
type Role string

const (
	RoleAdmin   Role = "Admin"
	RoleAnalyst Role = "Analyst"
	RoleManager Role = "Manager"
)

// Roles lists every supported role in display order.
func Roles() []Role {
	return []Role{RoleAdmin, RoleAnalyst, RoleManager}
}

// ParseRole maps raw input onto a canonical role, ignoring case and
// surrounding whitespace.
func ParseRole(raw string) (Role, error) {
	trimmed := strings.TrimSpace(raw)
	for _, role := range Roles() {
		if strings.EqualFold(trimmed, string(role)) {
			return role, nil
		}
	}
	return "", ErrInvalidRole
}

// Valid reports whether r is one of the supported roles.
func (r Role) Valid() bool {
	for _, role := range Roles() {
		if r == role {
			return true
		}
	}
	return false
}

func (r Role) String() string {
	return string(r)
}

// User models the authentication entity persisted in storage.
type User struct {
	ID           int64     `json:"id"`
	Name         string    `json:"name"`
	Email        string    `json:"email"`
	PasswordHash string    `json:"-"`
	Role         Role      `json:"role"`
	CreatedAt    time.Time `json:"created_at"`
}

// Credentials captures raw credential input for login.
type Credentials struct {
	Email    string
	Password string
}

// NormalizeEmail is the canonical form used as the natural key.
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
