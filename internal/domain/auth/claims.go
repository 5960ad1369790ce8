package auth

import "time"

// Claims is the identity asserted by a bearer token.
type Claims struct {
	ID        string
	Subject   string
	Role      Role
	IssuedAt  time.Time
	ExpiresAt time.Time
}

// TokenType is the OAuth-style token type returned on login.
const TokenType = "bearer"
