package password

import (
	"errors"
	"fmt"
	"strings"

	domain "authapi/backend/internal/domain/auth"

	"golang.org/x/crypto/bcrypt"
)

const (
	bcryptPrefix    = "$2"
	bcryptMaxLength = 72
)

type bcryptHasher struct {
	cost int
}

func (h bcryptHasher) hash(password string) (string, error) {
	hashed, err := bcrypt.GenerateFromPassword([]byte(password), h.cost)
	if err != nil {
		if errors.Is(err, bcrypt.ErrPasswordTooLong) {
			return "", fmt.Errorf("%w: password must be at most %d bytes", domain.ErrValidation, bcryptMaxLength)
		}
		return "", configError("PASSWORD_HASH_FAILED", err)
	}
	return string(hashed), nil
}

// verify relies on bcrypt's own constant-time digest comparison. bcrypt
// ignores input past 72 bytes, so longer passwords never match: Hash refuses
// to produce a hash for them.
func (h bcryptHasher) verify(password, encoded string) (bool, error) {
	if len(password) > bcryptMaxLength {
		return false, nil
	}
	err := bcrypt.CompareHashAndPassword([]byte(encoded), []byte(password))
	switch {
	case err == nil:
		return true, nil
	case errors.Is(err, bcrypt.ErrMismatchedHashAndPassword):
		return false, nil
	default:
		return false, configError("PASSWORD_HASH_CORRUPT", err)
	}
}

func (h bcryptHasher) current(encoded string) bool {
	if !strings.HasPrefix(encoded, bcryptPrefix) {
		return false
	}
	cost, err := bcrypt.Cost([]byte(encoded))
	return err == nil && cost == h.cost
}
