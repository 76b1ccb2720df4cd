package newsletter

import (
	"context"
	"errors"
	"fmt"
	"log"

	"github.com/google/uuid"

	"github.com/pnadon/newsletter/internal/auth"
	"github.com/pnadon/newsletter/internal/domain"
	"github.com/pnadon/newsletter/internal/email"
)

// credentialVerifier authenticates an operator. Satisfied by
// *auth.Verifier.
type credentialVerifier interface {
	ValidateCredentials(ctx context.Context, username, password string) (uuid.UUID, error)
}

// Service runs the subscription, confirmation and broadcast workflows
type Service struct {
	store     *Store
	email     email.Client
	templates *email.Templates
	verifier  credentialVerifier
	baseURL   string
	logger    *log.Logger
}

// NewService wires the newsletter workflows
func NewService(store *Store, emailClient email.Client, templates *email.Templates, verifier credentialVerifier, baseURL string, logger *log.Logger) *Service {
	return &Service{
		store:     store,
		email:     emailClient,
		templates: templates,
		verifier:  verifier,
		baseURL:   baseURL,
		logger:    logger,
	}
}

// Subscribe registers a pending subscriber and sends the confirmation
// email. The subscriber row and its token are committed before any
// send is attempted; if the send then fails, the rows stay behind and
// the caller still gets an error.
//
// Returns *domain.ValidationError for bad input; any other non-nil
// error is unexpected.
func (s *Service) Subscribe(ctx context.Context, rawName, rawEmail string) error {
	sub, err := domain.ParseNewSubscriber(rawName, rawEmail)
	if err != nil {
		return err
	}

	subscriberID, token, err := s.store.CreateSubscriber(ctx, sub)
	if err != nil {
		return fmt.Errorf("persisting new subscriber: %w", err)
	}
	s.logger.Printf("[subscribe] stored pending subscriber %s", subscriberID)

	confirmationLink := fmt.Sprintf("%s/subscriptions/confirm?subscription_token=%s", s.baseURL, token)
	msg, err := s.templates.RenderConfirmation(sub.Name.String(), confirmationLink)
	if err != nil {
		return fmt.Errorf("rendering confirmation email: %w", err)
	}

	if err := s.email.Send(ctx, sub.Email.String(), msg.Subject, msg.HTMLBody, msg.TextBody); err != nil {
		// The transaction is already committed: the pending row and
		// token persist even though the caller sees a failure.
		return fmt.Errorf("sending confirmation email: %w", err)
	}
	return nil
}

// Confirm resolves a token and marks its subscriber confirmed.
// Re-confirming is a silent no-op. Returns ErrUnknownToken for tokens
// that were never issued.
func (s *Service) Confirm(ctx context.Context, token string) error {
	subscriberID, err := s.store.SubscriberIDFromToken(ctx, token)
	if err != nil {
		return fmt.Errorf("resolving subscription token: %w", err)
	}
	if subscriberID == nil {
		return ErrUnknownToken
	}

	if err := s.store.ConfirmSubscriber(ctx, *subscriberID); err != nil {
		return fmt.Errorf("updating subscriber status: %w", err)
	}
	s.logger.Printf("[confirm] subscriber %s confirmed", subscriberID)
	return nil
}

// Publish authenticates the caller and sends the issue to every
// confirmed subscriber. A delivery failure for one recipient is logged
// and never aborts the rest of the batch; the call succeeds once every
// recipient has been attempted.
//
// Returns auth.ErrInvalidCredentials for any authentication failure
// and *domain.ValidationError for a bad request body.
func (s *Service) Publish(ctx context.Context, authHeader string, req PublishRequest) error {
	creds, err := auth.ParseBasicAuth(authHeader)
	if err != nil {
		s.logger.Printf("[publish] rejected request: %s", FormatErrorChain(err))
		return auth.ErrInvalidCredentials
	}

	userID, err := s.verifier.ValidateCredentials(ctx, creds.Username, creds.Password)
	if err != nil {
		if errors.Is(err, auth.ErrInvalidCredentials) {
			return auth.ErrInvalidCredentials
		}
		return fmt.Errorf("validating credentials: %w", err)
	}
	s.logger.Printf("[publish] user %s publishing %q", userID, req.Title)

	if req.Title == "" {
		return &domain.ValidationError{Violations: []string{"title cannot be empty"}}
	}

	emails, err := s.store.ConfirmedSubscriberEmails(ctx)
	if err != nil {
		return fmt.Errorf("loading confirmed subscribers: %w", err)
	}

	sent := 0
	for _, stored := range emails {
		// Stored data may predate the current validation rules.
		recipient, err := domain.ParseEmail(stored)
		if err != nil {
			s.logger.Printf("[publish] skipping subscriber, stored email is invalid: %s", FormatErrorChain(err))
			continue
		}

		if err := s.email.Send(ctx, recipient.String(), req.Title, req.Content.HTML, req.Content.Text); err != nil {
			s.logger.Printf("[publish] failed to deliver to %s: %s", recipient, FormatErrorChain(err))
			continue
		}
		sent++
	}
	s.logger.Printf("[publish] issue %q delivered to %d/%d confirmed subscribers", req.Title, sent, len(emails))
	return nil
}
