package password

import (
	"crypto/rand"
	"crypto/subtle"
	"encoding/base64"
	"fmt"
	"strings"

	"golang.org/x/crypto/argon2"
)

const (
	argon2Prefix     = "$argon2id$"
	argon2SaltLen    = 16
	argon2MinSaltLen = 8
	// argon2CostCeiling bounds stored time and memory at this multiple of the
	// larger of the configured and default values.
	argon2CostCeiling = 4
)

// Argon2Params are the argon2id cost parameters embedded in every hash.
type Argon2Params struct {
	Time    uint32
	Memory  uint32 // KiB
	Threads uint8
	KeyLen  uint32
}

// DefaultArgon2Params returns the OWASP baseline for argon2id.
func DefaultArgon2Params() Argon2Params {
	return Argon2Params{
		Time:    1,
		Memory:  64 * 1024,
		Threads: 4,
		KeyLen:  32,
	}
}

func (p Argon2Params) validate() error {
	if p.Time == 0 || p.Memory == 0 || p.Threads == 0 {
		return fmt.Errorf("argon2 time, memory and threads must be positive")
	}
	if p.KeyLen < 16 {
		return fmt.Errorf("argon2 key length %d below 16 bytes", p.KeyLen)
	}
	return nil
}

type argon2Hasher struct {
	params Argon2Params
}

// hash encodes as a PHC string: $argon2id$v=19$m=65536,t=1,p=4$<salt>$<key>
func (h argon2Hasher) hash(password string) (string, error) {
	salt := make([]byte, argon2SaltLen)
	if _, err := rand.Read(salt); err != nil {
		return "", configError("PASSWORD_SALT_FAILED", err)
	}

	p := h.params
	key := argon2.IDKey([]byte(password), salt, p.Time, p.Memory, p.Threads, p.KeyLen)

	return fmt.Sprintf(
		"$argon2id$v=%d$m=%d,t=%d,p=%d$%s$%s",
		argon2.Version,
		p.Memory,
		p.Time,
		p.Threads,
		base64.RawStdEncoding.EncodeToString(salt),
		base64.RawStdEncoding.EncodeToString(key),
	), nil
}

func (h argon2Hasher) verify(password, encoded string) (bool, error) {
	p, salt, expected, err := decodeArgon2(encoded)
	if err != nil {
		return false, configError("PASSWORD_HASH_CORRUPT", err)
	}
	if err := h.withinCeiling(p); err != nil {
		return false, configError("PASSWORD_HASH_CORRUPT", err)
	}

	computed := argon2.IDKey([]byte(password), salt, p.Time, p.Memory, p.Threads, p.KeyLen)
	return subtle.ConstantTimeCompare(computed, expected) == 1, nil
}

// withinCeiling rejects stored parameters that would make a single
// verification allocate or compute far beyond what this process is tuned for.
func (h argon2Hasher) withinCeiling(p Argon2Params) error {
	defaults := DefaultArgon2Params()
	maxMemory := uint64(max(h.params.Memory, defaults.Memory)) * argon2CostCeiling
	maxTime := uint64(max(h.params.Time, defaults.Time)) * argon2CostCeiling
	if uint64(p.Memory) > maxMemory {
		return fmt.Errorf("argon2 memory %d KiB exceeds limit %d KiB", p.Memory, maxMemory)
	}
	if uint64(p.Time) > maxTime {
		return fmt.Errorf("argon2 time %d exceeds limit %d", p.Time, maxTime)
	}
	return nil
}

func (h argon2Hasher) current(encoded string) bool {
	p, _, _, err := decodeArgon2(encoded)
	return err == nil && p == h.params
}

func decodeArgon2(encoded string) (Argon2Params, []byte, []byte, error) {
	var p Argon2Params

	parts := strings.Split(encoded, "$")
	if len(parts) != 6 {
		return p, nil, nil, fmt.Errorf("invalid argon2 hash format")
	}
	if parts[1] != "argon2id" {
		return p, nil, nil, fmt.Errorf("unsupported hash algorithm: %s", parts[1])
	}

	var version int
	if _, err := fmt.Sscanf(parts[2], "v=%d", &version); err != nil {
		return p, nil, nil, fmt.Errorf("parse argon2 version: %w", err)
	}
	if version != argon2.Version {
		return p, nil, nil, fmt.Errorf("unsupported argon2 version %d", version)
	}

	var threads uint32
	if _, err := fmt.Sscanf(parts[3], "m=%d,t=%d,p=%d", &p.Memory, &p.Time, &threads); err != nil {
		return p, nil, nil, fmt.Errorf("parse argon2 parameters: %w", err)
	}
	if threads == 0 || threads > 255 {
		return p, nil, nil, fmt.Errorf("argon2 threads value %d out of range", threads)
	}
	p.Threads = uint8(threads)
	if p.Time == 0 || p.Memory == 0 {
		return p, nil, nil, fmt.Errorf("argon2 time and memory must be positive")
	}

	salt, err := base64.RawStdEncoding.DecodeString(parts[4])
	if err != nil {
		return p, nil, nil, fmt.Errorf("decode argon2 salt: %w", err)
	}
	if len(salt) < argon2MinSaltLen {
		return p, nil, nil, fmt.Errorf("argon2 salt of %d bytes is shorter than %d", len(salt), argon2MinSaltLen)
	}
	key, err := base64.RawStdEncoding.DecodeString(parts[5])
	if err != nil {
		return p, nil, nil, fmt.Errorf("decode argon2 key: %w", err)
	}
	if len(key) == 0 || len(key) > 1<<10 {
		return p, nil, nil, fmt.Errorf("invalid argon2 key length %d", len(key))
	}
	p.KeyLen = uint32(len(key))

	return p, salt, key, nil
}
