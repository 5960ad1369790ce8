package postgres

import (
	"context"
	"errors"

	domain "authapi/backend/internal/domain/auth"

	"github.com/jackc/pgerrcode"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/samber/oops"
)

// UserRepository persists users in PostgreSQL.
type UserRepository struct {
	db DBTX
}

// NewUserRepository constructs a repository.
func NewUserRepository(db DBTX) *UserRepository {
	return &UserRepository{db: db}
}

var _ domain.UserRepository = (*UserRepository)(nil)

// Insert stores a new user and assigns its id. Email uniqueness is enforced
// by the users_email_key index, so concurrent signups cannot both succeed.
func (r *UserRepository) Insert(ctx context.Context, user *domain.User) error {
	const query = `
INSERT INTO users (name, email, password_hash, role, created_at)
VALUES ($1, $2, $3, $4, $5)
RETURNING id
`
	err := r.db.QueryRow(ctx, query,
		user.Name,
		user.Email,
		user.PasswordHash,
		string(user.Role),
		user.CreatedAt,
	).Scan(&user.ID)
	if err != nil {
		if isUniqueViolation(err) {
			return domain.ErrEmailExists
		}
		return oops.Code("USER_INSERT_FAILED").
			With("operation", "insert user").
			Wrap(err)
	}
	return nil
}

// FindByEmail fetches a user by email.
func (r *UserRepository) FindByEmail(ctx context.Context, email string) (*domain.User, error) {
	const query = `
SELECT id, name, email, password_hash, role, created_at
FROM users WHERE lower(email) = lower($1)
`
	user, err := scanUser(r.db.QueryRow(ctx, query, email))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrUserNotFound
		}
		return nil, oops.Code("USER_FIND_FAILED").
			With("operation", "find user by email").
			Wrap(err)
	}
	return user, nil
}

func scanUser(row pgx.Row) (*domain.User, error) {
	var (
		u    domain.User
		role string
	)
	err := row.Scan(
		&u.ID,
		&u.Name,
		&u.Email,
		&u.PasswordHash,
		&role,
		&u.CreatedAt,
	)
	if err != nil {
		return nil, err
	}
	u.Role = domain.Role(role)
	return &u, nil
}

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == pgerrcode.UniqueViolation
}
