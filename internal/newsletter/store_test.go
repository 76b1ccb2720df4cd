package newsletter

import (
	"context"
	"database/sql"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/google/uuid"

	"github.com/pnadon/newsletter/internal/domain"
)

const (
	insertSubscriberQuery = `INSERT INTO subscriptions (id, email, name, subscribed_at, status) VALUES ($1, $2, $3, $4, $5)`
	insertTokenQuery      = `INSERT INTO subscription_tokens (subscription_token, subscriber_id) VALUES ($1, $2)`
	tokenLookupQuery      = `SELECT subscriber_id FROM subscription_tokens WHERE subscription_token = $1`
	confirmQuery          = `UPDATE subscriptions SET status = $1 WHERE id = $2`
	confirmedEmailsQuery  = `SELECT email FROM subscriptions WHERE status = $1`
)

func setupStore(t *testing.T) (*Store, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherEqual))
	if err != nil {
		t.Fatalf("failed to create sqlmock: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	return NewStore(db), mock
}

func mustParseNewSubscriber(t *testing.T, name, email string) domain.NewSubscriber {
	t.Helper()
	sub, err := domain.ParseNewSubscriber(name, email)
	if err != nil {
		t.Fatalf("ParseNewSubscriber(%q, %q) = %v", name, email, err)
	}
	return sub
}

func TestCreateSubscriber(t *testing.T) {
	store, mock := setupStore(t)
	sub := mustParseNewSubscriber(t, "phil nadon", "phil@nadon.io")

	mock.ExpectBegin()
	mock.ExpectExec(insertSubscriberQuery).
		WithArgs(sqlmock.AnyArg(), "phil@nadon.io", "phil nadon", sqlmock.AnyArg(), StatusPendingConfirmation).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(insertTokenQuery).
		WithArgs(sqlmock.AnyArg(), sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	id, token, err := store.CreateSubscriber(context.Background(), sub)
	if err != nil {
		t.Fatalf("CreateSubscriber() error: %v", err)
	}
	if id == uuid.Nil {
		t.Error("CreateSubscriber() returned nil id")
	}
	if len(token) != tokenLength {
		t.Errorf("len(token) = %d, want %d", len(token), tokenLength)
	}

	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("unmet expectations: %v", err)
	}
}

// The subscriber insert failing must roll the transaction back; no
// token row is ever attempted.
func TestCreateSubscriberInsertFailureRollsBack(t *testing.T) {
	store, mock := setupStore(t)
	sub := mustParseNewSubscriber(t, "phil nadon", "phil@nadon.io")

	mock.ExpectBegin()
	mock.ExpectExec(insertSubscriberQuery).
		WithArgs(sqlmock.AnyArg(), "phil@nadon.io", "phil nadon", sqlmock.AnyArg(), StatusPendingConfirmation).
		WillReturnError(sql.ErrConnDone)
	mock.ExpectRollback()

	_, _, err := store.CreateSubscriber(context.Background(), sub)
	if err == nil {
		t.Fatal("CreateSubscriber() succeeded, want insert failure")
	}

	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("unmet expectations: %v", err)
	}
}

func TestCreateSubscriberTokenFailureRollsBack(t *testing.T) {
	store, mock := setupStore(t)
	sub := mustParseNewSubscriber(t, "phil nadon", "phil@nadon.io")

	mock.ExpectBegin()
	mock.ExpectExec(insertSubscriberQuery).
		WithArgs(sqlmock.AnyArg(), "phil@nadon.io", "phil nadon", sqlmock.AnyArg(), StatusPendingConfirmation).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(insertTokenQuery).
		WithArgs(sqlmock.AnyArg(), sqlmock.AnyArg()).
		WillReturnError(sql.ErrConnDone)
	mock.ExpectRollback()

	_, _, err := store.CreateSubscriber(context.Background(), sub)
	if err == nil {
		t.Fatal("CreateSubscriber() succeeded, want token insert failure")
	}

	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("unmet expectations: %v", err)
	}
}

func TestSubscriberIDFromToken(t *testing.T) {
	store, mock := setupStore(t)

	subscriberID := uuid.New()
	mock.ExpectQuery(tokenLookupQuery).
		WithArgs("sometoken").
		WillReturnRows(sqlmock.NewRows([]string{"subscriber_id"}).AddRow(subscriberID.String()))

	got, err := store.SubscriberIDFromToken(context.Background(), "sometoken")
	if err != nil {
		t.Fatalf("SubscriberIDFromToken() error: %v", err)
	}
	if got == nil || *got != subscriberID {
		t.Errorf("subscriber id = %v, want %s", got, subscriberID)
	}
}

func TestSubscriberIDFromTokenNotFound(t *testing.T) {
	store, mock := setupStore(t)

	mock.ExpectQuery(tokenLookupQuery).
		WithArgs("neverissued").
		WillReturnRows(sqlmock.NewRows([]string{"subscriber_id"}))

	got, err := store.SubscriberIDFromToken(context.Background(), "neverissued")
	if err != nil {
		t.Fatalf("SubscriberIDFromToken() error: %v", err)
	}
	if got != nil {
		t.Errorf("subscriber id = %v, want nil for unknown token", got)
	}
}

func TestConfirmSubscriber(t *testing.T) {
	store, mock := setupStore(t)

	subscriberID := uuid.New()
	mock.ExpectExec(confirmQuery).
		WithArgs(StatusConfirmed, subscriberID).
		WillReturnResult(sqlmock.NewResult(0, 1))

	if err := store.ConfirmSubscriber(context.Background(), subscriberID); err != nil {
		t.Fatalf("ConfirmSubscriber() error: %v", err)
	}
}

func TestConfirmedSubscriberEmails(t *testing.T) {
	store, mock := setupStore(t)

	mock.ExpectQuery(confirmedEmailsQuery).
		WithArgs(StatusConfirmed).
		WillReturnRows(sqlmock.NewRows([]string{"email"}).
			AddRow("phil@nadon.io").
			AddRow("ann@example.com"))

	emails, err := store.ConfirmedSubscriberEmails(context.Background())
	if err != nil {
		t.Fatalf("ConfirmedSubscriberEmails() error: %v", err)
	}
	if len(emails) != 2 {
		t.Fatalf("len(emails) = %d, want 2", len(emails))
	}
	if emails[0] != "phil@nadon.io" || emails[1] != "ann@example.com" {
		t.Errorf("emails = %v", emails)
	}
}

func TestConfirmedSubscriberEmailsQueryError(t *testing.T) {
	store, mock := setupStore(t)

	mock.ExpectQuery(confirmedEmailsQuery).
		WithArgs(StatusConfirmed).
		WillReturnError(sql.ErrConnDone)

	if _, err := store.ConfirmedSubscriberEmails(context.Background()); err == nil {
		t.Fatal("ConfirmedSubscriberEmails() succeeded, want query error")
	}
}
