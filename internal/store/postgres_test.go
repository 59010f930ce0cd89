package store

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/assert"

	"github.com/ayush/task-manager/backend/internal/apperr"
)

func TestPgError(t *testing.T) {
	assert.ErrorIs(t, pgError("get", pgx.ErrNoRows), apperr.ErrNotFound)
	assert.ErrorIs(t, pgError("get", fmt.Errorf("scan: %w", pgx.ErrNoRows)), apperr.ErrNotFound)

	dup := &pgconn.PgError{Code: "23505", ConstraintName: "users_email_key"}
	assert.ErrorIs(t, pgError("create", dup), apperr.ErrDuplicateEmail)

	other := errors.New("conn closed")
	err := pgError("create user", other)
	assert.ErrorIs(t, err, other)
	assert.EqualError(t, err, "create user: conn closed")
}

func TestPostgresUserStore_MalformedID(t *testing.T) {
	// The pool is never touched when the id cannot be a UUID.
	s := NewPostgresUserStore(nil)
	ctx := context.Background()

	_, err := s.GetUserByID(ctx, "65f000000000000000000000")
	assert.ErrorIs(t, err, apperr.ErrNotFound)
	_, err = s.UpdateProfile(ctx, "x", "Ann", "a@x.com")
	assert.ErrorIs(t, err, apperr.ErrNotFound)
	assert.ErrorIs(t, s.UpdatePassword(ctx, "x", "hash"), apperr.ErrNotFound)
}
