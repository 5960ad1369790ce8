package auth

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	domain "authapi/backend/internal/domain/auth"

	validation "github.com/go-ozzo/ozzo-validation"
	"github.com/go-ozzo/ozzo-validation/is"
)

// Service coordinates authentication workflows between domain and infrastructure.
type Service struct {
	users   domain.UserRepository
	hasher  PasswordHasher
	tokens  TokenIssuer
	logger  *slog.Logger
	nowFunc func() time.Time

	dummyOnce sync.Once
	dummyHash string
}

// NewService constructs an auth service.
func NewService(users domain.UserRepository, hasher PasswordHasher, tokens TokenIssuer, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{
		users:   users,
		hasher:  hasher,
		tokens:  tokens,
		logger:  logger,
		nowFunc: time.Now,
	}
}

// SignupInput is the payload required to register a user.
type SignupInput struct {
	Name     string `json:"name" yaml:"name"`
	Email    string `json:"email" yaml:"email"`
	Password string `json:"password" yaml:"password"`
	Role     string `json:"role" yaml:"role"`
}

// Validate runs the signup validation rules.
func (in SignupInput) Validate() error {
	return validation.ValidateStruct(&in,
		validation.Field(&in.Name, validation.Required, validation.Length(1, 200)),
		validation.Field(&in.Email, validation.Required, validation.Length(3, 254), is.Email),
		validation.Field(&in.Password, validation.Required),
		validation.Field(&in.Role, validation.Required, validation.By(func(value interface{}) error {
			raw, _ := value.(string)
			if _, err := domain.ParseRole(raw); err != nil {
				return fmt.Errorf("must be one of Admin, Analyst, Manager")
			}
			return nil
		})),
	)
}

// LoginResult is returned on successful login.
type LoginResult struct {
	AccessToken string      `json:"access_token"`
	TokenType   string      `json:"token_type"`
	Role        domain.Role `json:"role"`
}

// Signup validates the input, hashes the password and persists a new user.
// The returned user carries no password hash. No token is issued.
func (s *Service) Signup(ctx context.Context, in SignupInput) (*domain.User, error) {
	user, err := s.signup(ctx, in)
	RecordSignup(outcomeOf(err))
	return user, err
}

func (s *Service) signup(ctx context.Context, in SignupInput) (*domain.User, error) {
	in.Email = strings.TrimSpace(in.Email)
	in.Name = strings.TrimSpace(in.Name)
	if err := in.Validate(); err != nil {
		return nil, fmt.Errorf("%w: %w", domain.ErrValidation, err)
	}

	role, err := domain.ParseRole(in.Role)
	if err != nil {
		return nil, err
	}
	email := domain.NormalizeEmail(in.Email)

	if _, err := s.users.FindByEmail(ctx, email); err == nil {
		return nil, domain.ErrEmailExists
	} else if !errors.Is(err, domain.ErrUserNotFound) {
		return nil, err
	}

	hashed, err := s.hasher.Hash(in.Password)
	if err != nil {
		return nil, err
	}

	user := &domain.User{
		Name:         in.Name,
		Email:        email,
		PasswordHash: hashed,
		Role:         role,
		CreatedAt:    s.nowFunc().UTC(),
	}
	if err := s.users.Insert(ctx, user); err != nil {
		return nil, err
	}

	s.logger.InfoContext(ctx, "user signed up", "user_id", user.ID, "role", user.Role)
	return sanitizeUser(user), nil
}

// Login validates credentials and returns a bearer token. Unknown email and
// wrong password are indistinguishable to the caller.
func (s *Service) Login(ctx context.Context, creds domain.Credentials) (*LoginResult, error) {
	result, err := s.login(ctx, creds)
	RecordLogin(outcomeOf(err))
	return result, err
}

func (s *Service) login(ctx context.Context, creds domain.Credentials) (*LoginResult, error) {
	email := domain.NormalizeEmail(creds.Email)
	if email == "" || creds.Password == "" {
		return nil, domain.ErrInvalidCredentials
	}

	user, err := s.users.FindByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, domain.ErrUserNotFound) {
			s.burnVerify(creds.Password)
			return nil, domain.ErrInvalidCredentials
		}
		return nil, err
	}

	ok, err := s.hasher.Verify(creds.Password, user.PasswordHash)
	if err != nil {
		s.logger.ErrorContext(ctx, "stored password hash unusable", "user_id", user.ID, "error", err)
		return nil, err
	}
	if !ok {
		return nil, domain.ErrInvalidCredentials
	}
	if s.hasher.NeedsRehash(user.PasswordHash) {
		s.logger.InfoContext(ctx, "stored password hash uses outdated parameters", "user_id", user.ID)
	}

	token, err := s.tokens.Issue(user.Email, user.Role)
	if err != nil {
		return nil, err
	}

	return &LoginResult{
		AccessToken: token,
		TokenType:   domain.TokenType,
		Role:        user.Role,
	}, nil
}

// Authenticate validates a bearer token for protected routes.
func (s *Service) Authenticate(ctx context.Context, token string) (*domain.Claims, error) {
	token = strings.TrimSpace(token)
	if token == "" {
		RecordTokenValidation(OutcomeMalformed)
		return nil, domain.ErrTokenMalformed
	}
	claims, err := s.tokens.Validate(token)
	RecordTokenValidation(outcomeOf(err))
	if err != nil {
		s.logger.DebugContext(ctx, "token rejected", "error", err)
		return nil, err
	}
	return claims, nil
}

// burnVerify spends the same hashing work as a real verification so an
// unknown email takes as long as a wrong password.
func (s *Service) burnVerify(password string) {
	s.dummyOnce.Do(func() {
		hash, err := s.hasher.Hash("timing-equalisation-placeholder")
		if err != nil {
			s.logger.Warn("could not prepare placeholder hash", "error", err)
			return
		}
		s.dummyHash = hash
	})
	if s.dummyHash != "" {
		_, _ = s.hasher.Verify(password, s.dummyHash)
	}
}

func sanitizeUser(u *domain.User) *domain.User {
	if u == nil {
		return nil
	}
	copy := *u
	copy.PasswordHash = ""
	return &copy
}
