package postgres

import (
	"context"
	_ "embed"
	"strings"

	"github.com/samber/oops"
)

//go:embed migrations/schema.sql
var schemaSQL string

// Migrate ensures the required tables exist.
func (db *Database) Migrate(ctx context.Context) error {
	return Migrate(ctx, db.Pool)
}

// Migrate applies the embedded schema statement by statement. Every
// statement is idempotent.
func Migrate(ctx context.Context, db DBTX) error {
	for _, stmt := range schemaStatements() {
		if _, err := db.Exec(ctx, stmt); err != nil {
			return oops.Code("DB_MIGRATE_FAILED").
				With("statement", firstLine(stmt)).
				Wrap(err)
		}
	}
	return nil
}

func schemaStatements() []string {
	var out []string
	for _, stmt := range strings.Split(schemaSQL, ";") {
		stmt = strings.TrimSpace(stmt)
		if stmt == "" {
			continue
		}
		out = append(out, stmt)
	}
	return out
}

func firstLine(stmt string) string {
	line, _, _ := strings.Cut(stmt, "\n")
	return line
}
