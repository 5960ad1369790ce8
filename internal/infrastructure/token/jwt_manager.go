package token

import (
	"errors"
	"fmt"
	"strings"
	"time"

	domain "authapi/backend/internal/domain/auth"
	usecase "authapi/backend/internal/usecase/auth"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

// MinSecretLength is the shortest signing secret accepted for HS256.
const MinSecretLength = 32

// JWTManager issues and validates HS256 JWT bearer tokens.
type JWTManager struct {
	secret     []byte
	expiration time.Duration
	issuer     string
	nowFunc    func() time.Time
}

// NewJWTManager constructs a manager with the provided secret and expiration.
func NewJWTManager(secret string, expiration time.Duration, issuer string) (*JWTManager, error) {
	if len(secret) < MinSecretLength {
		return nil, fmt.Errorf("%w: signing secret must be at least %d bytes", domain.ErrConfiguration, MinSecretLength)
	}
	if expiration <= 0 {
		return nil, fmt.Errorf("%w: token lifetime must be positive, got %s", domain.ErrConfiguration, expiration)
	}
	return &JWTManager{
		secret:     []byte(secret),
		expiration: expiration,
		issuer:     issuer,
		nowFunc:    time.Now,
	}, nil
}

// Ensure JWTManager implements the TokenIssuer interface.
var _ usecase.TokenIssuer = (*JWTManager)(nil)

// Claims is the JWT wire form of domain.Claims.
type Claims struct {
	Role string `json:"role"`
	jwt.RegisteredClaims
}

// Lifetime returns the configured token lifetime.
func (m *JWTManager) Lifetime() time.Duration {
	return m.expiration
}

// Issue creates a signed JWT carrying the subject and role.
func (m *JWTManager) Issue(subject string, role domain.Role) (string, error) {
	if strings.TrimSpace(subject) == "" {
		return "", fmt.Errorf("%w: token subject is required", domain.ErrValidation)
	}
	if !role.Valid() {
		return "", domain.ErrInvalidRole
	}

	now := m.nowFunc().UTC()
	claims := Claims{
		Role: string(role),
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        uuid.NewString(),
			Issuer:    m.issuer,
			Subject:   subject,
			IssuedAt:  jwt.NewNumericDate(now),
			NotBefore: jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(m.expiration)),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString(m.secret)
	if err != nil {
		return "", fmt.Errorf("%w: sign token: %w", domain.ErrConfiguration, err)
	}
	return signed, nil
}

// Validate parses and verifies the token, returning its claims when valid.
func (m *JWTManager) Validate(tokenString string) (*domain.Claims, error) {
	opts := []jwt.ParserOption{
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithExpirationRequired(),
		jwt.WithIssuedAt(),
		jwt.WithTimeFunc(m.nowFunc),
		jwt.WithStrictDecoding(),
	}
	if m.issuer != "" {
		opts = append(opts, jwt.WithIssuer(m.issuer))
	}

	parser := jwt.NewParser(opts...)
	token, err := parser.ParseWithClaims(tokenString, &Claims{}, func(t *jwt.Token) (any, error) {
		return m.secret, nil
	})
	if err != nil {
		if errors.Is(err, jwt.ErrTokenMalformed) {
			// Header and claims decode, so only the signature segment is bad.
			if _, _, uerr := parser.ParseUnverified(tokenString, &Claims{}); uerr == nil {
				return nil, fmt.Errorf("%w: %w", domain.ErrTokenInvalid, err)
			}
		}
		return nil, classify(err)
	}

	claims, ok := token.Claims.(*Claims)
	if !ok || !token.Valid {
		return nil, domain.ErrTokenInvalid
	}
	role := domain.Role(claims.Role)
	if !role.Valid() || claims.Subject == "" {
		return nil, domain.ErrTokenInvalid
	}

	out := &domain.Claims{
		ID:        claims.ID,
		Subject:   claims.Subject,
		Role:      role,
		ExpiresAt: claims.ExpiresAt.Time,
	}
	if claims.IssuedAt != nil {
		out.IssuedAt = claims.IssuedAt.Time
	}
	return out, nil
}

// classify maps jwt parse errors onto the domain token errors. Expiry is
// only reported for tokens whose signature verified.
func classify(err error) error {
	switch {
	case errors.Is(err, jwt.ErrTokenMalformed):
		return fmt.Errorf("%w: %w", domain.ErrTokenMalformed, err)
	case errors.Is(err, jwt.ErrTokenSignatureInvalid), errors.Is(err, jwt.ErrTokenUnverifiable):
		return fmt.Errorf("%w: %w", domain.ErrTokenInvalid, err)
	case errors.Is(err, jwt.ErrTokenExpired):
		return fmt.Errorf("%w: %w", domain.ErrTokenExpired, err)
	default:
		return fmt.Errorf("%w: %w", domain.ErrTokenInvalid, err)
	}
}
