package newsletter

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/pnadon/newsletter/internal/domain"
)

// Store provides database operations for subscribers and their
// confirmation tokens
type Store struct {
	db *sql.DB
}

// NewStore creates a new subscriber store
func NewStore(db *sql.DB) *Store {
	return &Store{db: db}
}

// CreateSubscriber inserts a pending subscriber together with a fresh
// confirmation token in one transaction: either both rows become
// visible or neither does. The token is generated only after the
// subscriber row exists, so a stored token always resolves to exactly
// the subscriber it was issued for.
func (s *Store) CreateSubscriber(ctx context.Context, sub domain.NewSubscriber) (uuid.UUID, string, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return uuid.Nil, "", fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback()

	subscriberID := uuid.New()
	_, err = tx.ExecContext(ctx,
		`INSERT INTO subscriptions (id, email, name, subscribed_at, status) VALUES ($1, $2, $3, $4, $5)`,
		subscriberID, sub.Email.String(), sub.Name.String(), time.Now().UTC(), StatusPendingConfirmation)
	if err != nil {
		return uuid.Nil, "", fmt.Errorf("inserting subscriber: %w", err)
	}

	token, err := generateSubscriptionToken()
	if err != nil {
		return uuid.Nil, "", fmt.Errorf("generating subscription token: %w", err)
	}

	_, err = tx.ExecContext(ctx,
		`INSERT INTO subscription_tokens (subscription_token, subscriber_id) VALUES ($1, $2)`,
		token, subscriberID)
	if err != nil {
		return uuid.Nil, "", fmt.Errorf("storing subscription token: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return uuid.Nil, "", fmt.Errorf("committing transaction: %w", err)
	}
	return subscriberID, token, nil
}

// SubscriberIDFromToken resolves a confirmation token to a subscriber
// id. Returns nil with no error when the token was never issued.
func (s *Store) SubscriberIDFromToken(ctx context.Context, token string) (*uuid.UUID, error) {
	var subscriberID uuid.UUID
	err := s.db.QueryRowContext(ctx,
		`SELECT subscriber_id FROM subscription_tokens WHERE subscription_token = $1`,
		token).Scan(&subscriberID)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("looking up subscription token: %w", err)
	}
	return &subscriberID, nil
}

// ConfirmSubscriber flips a subscriber to confirmed. Confirming an
// already-confirmed subscriber is a no-op, not an error.
func (s *Store) ConfirmSubscriber(ctx context.Context, subscriberID uuid.UUID) error {
	_, err := s.db.ExecContext(ctx,
		`UPDATE subscriptions SET status = $1 WHERE id = $2`,
		StatusConfirmed, subscriberID)
	if err != nil {
		return fmt.Errorf("confirming subscriber: %w", err)
	}
	return nil
}

// ConfirmedSubscriberEmails returns the stored email of every
// confirmed subscriber. Addresses are returned as stored; the caller
// re-validates them before sending.
func (s *Store) ConfirmedSubscriberEmails(ctx context.Context) ([]string, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT email FROM subscriptions WHERE status = $1`, StatusConfirmed)
	if err != nil {
		return nil, fmt.Errorf("querying confirmed subscribers: %w", err)
	}
	defer rows.Close()

	var emails []string
	for rows.Next() {
		var email string
		if err := rows.Scan(&email); err != nil {
			return nil, fmt.Errorf("scanning subscriber email: %w", err)
		}
		emails = append(emails, email)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating confirmed subscribers: %w", err)
	}
	return emails, nil
}
