// Package seed loads initial accounts from a YAML file.
package seed

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"

	domain "authapi/backend/internal/domain/auth"
	authusecase "authapi/backend/internal/usecase/auth"

	"gopkg.in/yaml.v3"
)

// File is the on-disk seed document.
type File struct {
	Users []authusecase.SignupInput `yaml:"users"`
}

// Signer registers a single user.
type Signer interface {
	Signup(ctx context.Context, in authusecase.SignupInput) (*domain.User, error)
}

// Result summarises a seed run.
type Result struct {
	Created int
	Skipped int
}

// Parse decodes a seed document. Unknown fields are rejected.
func Parse(r io.Reader) (*File, error) {
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)

	var f File
	if err := dec.Decode(&f); err != nil {
		if errors.Is(err, io.EOF) {
			return &f, nil
		}
		return nil, fmt.Errorf("decode seed file: %w", err)
	}
	return &f, nil
}

// LoadFile opens and parses the seed document at path.
func LoadFile(path string) (*File, error) {
	fh, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open seed file: %w", err)
	}
	defer fh.Close()
	return Parse(fh)
}

// Apply signs up every user in f. Accounts whose email is already registered
// are skipped; any other failure stops the run.
func Apply(ctx context.Context, signer Signer, f *File, logger *slog.Logger) (Result, error) {
	if logger == nil {
		logger = slog.Default()
	}
	var res Result
	for i, in := range f.Users {
		if err := ctx.Err(); err != nil {
			return res, err
		}
		user, err := signer.Signup(ctx, in)
		switch {
		case errors.Is(err, domain.ErrEmailExists):
			res.Skipped++
			logger.InfoContext(ctx, "seed user already exists", "index", i)
		case err != nil:
			return res, fmt.Errorf("seed user %d: %w", i, err)
		default:
			res.Created++
			logger.InfoContext(ctx, "seed user created", "user_id", user.ID, "role", user.Role)
		}
	}
	return res, nil
}
