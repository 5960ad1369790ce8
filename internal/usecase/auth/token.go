package auth

import domain "authapi/backend/internal/domain/auth"

// TokenIssuer abstracts token issuance and verification.
type TokenIssuer interface {
	Issue(subject string, role domain.Role) (string, error)
	Validate(token string) (*domain.Claims, error)
}

// PasswordHasher abstracts the credential manager.
type PasswordHasher interface {
	Hash(password string) (string, error)
	Verify(password, hash string) (bool, error)
	NeedsRehash(hash string) bool
}
