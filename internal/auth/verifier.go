// Package auth verifies operator credentials against the users table.
// The design goal is that a caller cannot learn whether a username
// exists: lookup misses substitute a real dummy hash so the expensive
// verification step always runs, and every failure path reports the
// same error.
package auth

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log"

	"github.com/google/uuid"
)

// ErrInvalidCredentials is returned for every authentication failure:
// unknown username, wrong password, malformed header upstream. The
// message is deliberately generic.
var ErrInvalidCredentials = errors.New("unknown username or invalid password")

// dummyPasswordHash is a valid argon2id hash of an unguessable
// throwaway password. It is verified whenever the username has no
// stored credentials, so response time does not reveal whether the
// user exists. No candidate password can match it.
const dummyPasswordHash = "$argon2id$v=19$m=15000,t=2,p=1$" +
	"gZiV/M1gPc22ElAH/Jh1Hw$CWOrkoo7oJBQ/iyh7uJ0LO2aLEfrHwTWllSAxT0zRno"

// Verifier authenticates usernames and passwords
type Verifier struct {
	db     *sql.DB
	pool   *VerifyPool
	logger *log.Logger
}

// NewVerifier creates a credential verifier backed by the given
// database and verify pool. The pool must be started by the caller.
func NewVerifier(db *sql.DB, pool *VerifyPool, logger *log.Logger) *Verifier {
	return &Verifier{db: db, pool: pool, logger: logger}
}

// ValidateCredentials checks a username/password pair and returns the
// user's id on success. The hash verification runs regardless of
// whether the username exists; never branch on user existence before
// that step.
func (v *Verifier) ValidateCredentials(ctx context.Context, username, password string) (uuid.UUID, error) {
	userID, expectedHash, err := v.storedCredentials(ctx, username)
	if err != nil {
		return uuid.Nil, fmt.Errorf("looking up stored credentials: %w", err)
	}
	if expectedHash == "" {
		expectedHash = dummyPasswordHash
	}

	if err := v.pool.Verify(ctx, expectedHash, password); err != nil {
		if errors.Is(err, errPasswordMismatch) {
			return uuid.Nil, ErrInvalidCredentials
		}
		return uuid.Nil, fmt.Errorf("verifying password hash: %w", err)
	}

	if userID == uuid.Nil {
		// The dummy hash cannot verify, but keep the guard: a nil id
		// must never authenticate.
		return uuid.Nil, ErrInvalidCredentials
	}
	return userID, nil
}

// storedCredentials returns the user id and password hash for a
// username, or zero values when the username is unknown.
func (v *Verifier) storedCredentials(ctx context.Context, username string) (uuid.UUID, string, error) {
	query := `SELECT user_id, password_hash FROM users WHERE username = $1`

	var userID uuid.UUID
	var passwordHash string
	err := v.db.QueryRowContext(ctx, query, username).Scan(&userID, &passwordHash)
	if err == sql.ErrNoRows {
		return uuid.Nil, "", nil
	}
	if err != nil {
		return uuid.Nil, "", err
	}
	return userID, passwordHash, nil
}
