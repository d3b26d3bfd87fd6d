package users

import (
	"errors"
	"fmt"
	"testing"

	"github.com/jackc/pgx/v5/pgconn"
)

func TestIsUniqueViolation(t *testing.T) {
	dup := &pgconn.PgError{Code: pgUniqueViolation, ConstraintName: "users_email_key"}
	if !isUniqueViolation(dup) {
		t.Fatal("expected a 23505 PgError to be detected")
	}
	if !isUniqueViolation(fmt.Errorf("users: create: %w", dup)) {
		t.Fatal("expected a wrapped 23505 PgError to be detected")
	}
	if isUniqueViolation(&pgconn.PgError{Code: "23503"}) {
		t.Fatal("foreign key violations must not map to the email sentinel")
	}
	if isUniqueViolation(errors.New("connection reset")) {
		t.Fatal("plain errors must not map to the email sentinel")
	}
}
