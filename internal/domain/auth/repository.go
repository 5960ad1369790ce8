package auth

import "context"

// UserRepository defines persistence operations for auth users.
//
// Insert must enforce email uniqueness atomically: two concurrent inserts of
// the same email must leave exactly one record and return ErrEmailExists to
// the loser.
type UserRepository interface {
	FindByEmail(ctx context.Context, email string) (*User, error)
	Insert(ctx context.Context, user *User) error
}
