// Package password hashes and verifies user passwords.
package password

import (
	"fmt"
	"strings"

	domain "authapi/backend/internal/domain/auth"

	"github.com/samber/oops"
	"golang.org/x/crypto/bcrypt"
)

// Algorithm names a supported password hashing scheme.
type Algorithm string

const (
	AlgorithmBcrypt   Algorithm = "bcrypt"
	AlgorithmArgon2id Algorithm = "argon2id"
)

// Options configures a Manager.
type Options struct {
	Algorithm  Algorithm
	BcryptCost int
	Argon2     Argon2Params
}

// Manager hashes new passwords with the configured algorithm and verifies
// hashes produced by any supported algorithm.
type Manager struct {
	algorithm Algorithm
	bcrypt    bcryptHasher
	argon2    argon2Hasher
}

// NewManager validates options and constructs a Manager.
func NewManager(opts Options) (*Manager, error) {
	if opts.Algorithm == "" {
		opts.Algorithm = AlgorithmBcrypt
	}
	if opts.BcryptCost == 0 {
		opts.BcryptCost = bcrypt.DefaultCost
	}
	if opts.Argon2 == (Argon2Params{}) {
		opts.Argon2 = DefaultArgon2Params()
	}

	switch opts.Algorithm {
	case AlgorithmBcrypt, AlgorithmArgon2id:
	default:
		return nil, configError("PASSWORD_UNKNOWN_ALGORITHM", fmt.Errorf("unsupported password algorithm %q", opts.Algorithm))
	}
	if opts.BcryptCost < bcrypt.MinCost || opts.BcryptCost > bcrypt.MaxCost {
		return nil, configError("PASSWORD_INVALID_COST", fmt.Errorf("bcrypt cost %d outside [%d, %d]", opts.BcryptCost, bcrypt.MinCost, bcrypt.MaxCost))
	}
	if err := opts.Argon2.validate(); err != nil {
		return nil, configError("PASSWORD_INVALID_ARGON2", err)
	}

	return &Manager{
		algorithm: opts.Algorithm,
		bcrypt:    bcryptHasher{cost: opts.BcryptCost},
		argon2:    argon2Hasher{params: opts.Argon2},
	}, nil
}

// Algorithm reports the scheme used for new hashes.
func (m *Manager) Algorithm() Algorithm {
	return m.algorithm
}

// Hash produces a salted hash that is safe to store.
func (m *Manager) Hash(password string) (string, error) {
	if password == "" {
		return "", domain.ErrEmptyPassword
	}
	if m.algorithm == AlgorithmArgon2id {
		return m.argon2.hash(password)
	}
	return m.bcrypt.hash(password)
}

// Verify reports whether password matches encoded. A mismatch is (false, nil);
// an error means the stored hash itself is unusable.
func (m *Manager) Verify(password, encoded string) (bool, error) {
	switch {
	case strings.HasPrefix(encoded, argon2Prefix):
		return m.argon2.verify(password, encoded)
	case strings.HasPrefix(encoded, bcryptPrefix):
		return m.bcrypt.verify(password, encoded)
	default:
		return false, configError("PASSWORD_HASH_CORRUPT", fmt.Errorf("unrecognized hash format"))
	}
}

// NeedsRehash reports whether encoded was produced with a different
// algorithm or different parameters than the ones currently configured.
func (m *Manager) NeedsRehash(encoded string) bool {
	if m.algorithm == AlgorithmArgon2id {
		return !m.argon2.current(encoded)
	}
	return !m.bcrypt.current(encoded)
}

func configError(code string, err error) error {
	return oops.Code(code).Wrap(fmt.Errorf("%w: %w", domain.ErrConfiguration, err))
}
