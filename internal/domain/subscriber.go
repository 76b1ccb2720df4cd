// Package domain holds the validated value types for subscriber data.
// Values can only be obtained through the Parse functions, so any
// SubscriberName or SubscriberEmail in the rest of the codebase is
// known to be well-formed.
package domain

import (
	"errors"
	"net/url"
	"strings"

	"github.com/rivo/uniseg"
)

const maxNameGraphemes = 256

const forbiddenNameCharacters = `/()"<>\{}`

// ValidationError carries every rule a piece of client input violated,
// not just the first one, so a client can fix a whole submission in one
// round trip.
type ValidationError struct {
	Violations []string
}

func (e *ValidationError) Error() string {
	return strings.Join(e.Violations, ", ")
}

// SubscriberName is a display name that passed validation. The zero
// value is not a valid name; use ParseName.
type SubscriberName struct {
	value string
}

// ParseName validates a raw subscriber name. All rules are checked
// independently and every violation is reported.
func ParseName(raw string) (SubscriberName, error) {
	var violations []string

	if strings.TrimSpace(raw) == "" {
		violations = append(violations, "name cannot be empty")
	}
	if uniseg.GraphemeClusterCount(raw) > maxNameGraphemes {
		violations = append(violations, "name cannot be more than 256 characters")
	}
	if strings.ContainsAny(raw, forbiddenNameCharacters) {
		violations = append(violations, "name cannot contain special characters")
	}

	if len(violations) > 0 {
		return SubscriberName{}, &ValidationError{Violations: violations}
	}
	return SubscriberName{value: raw}, nil
}

// String returns the validated name unchanged.
func (n SubscriberName) String() string { return n.value }

// SubscriberEmail is an email address that passed validation.
type SubscriberEmail struct {
	value string
}

// ParseEmail validates a raw email address against a standard address
// grammar.
func ParseEmail(raw string) (SubscriberEmail, error) {
	if !validEmail(raw) {
		return SubscriberEmail{}, &ValidationError{
			Violations: []string{raw + " is not a valid subscriber email"},
		}
	}
	return SubscriberEmail{value: raw}, nil
}

// String returns the validated address unchanged.
func (e SubscriberEmail) String() string { return e.value }

func validEmail(email string) bool {
	if len(email) < 3 || len(email) > 254 {
		return false
	}

	parts := strings.Split(email, "@")
	if len(parts) != 2 {
		return false
	}

	local, domain := parts[0], parts[1]
	if len(local) == 0 || len(local) > 64 {
		return false
	}
	if len(domain) == 0 || len(domain) > 253 {
		return false
	}
	if !strings.Contains(domain, ".") {
		return false
	}
	if strings.ContainsAny(email, " \t\r\n") {
		return false
	}

	_, err := url.Parse("mailto:" + email)
	return err == nil
}

// NewSubscriber is the pair of validated fields required to register a
// subscription. Both sides must parse for the aggregate to exist.
type NewSubscriber struct {
	Name  SubscriberName
	Email SubscriberEmail
}

// ParseNewSubscriber runs both parses independently and merges the
// violations from whichever sides failed. It does not short-circuit:
// a request with a bad name and a bad email reports both.
func ParseNewSubscriber(rawName, rawEmail string) (NewSubscriber, error) {
	name, nameErr := ParseName(rawName)
	email, emailErr := ParseEmail(rawEmail)

	if nameErr == nil && emailErr == nil {
		return NewSubscriber{Name: name, Email: email}, nil
	}

	merged := &ValidationError{}
	for _, err := range []error{nameErr, emailErr} {
		var v *ValidationError
		if errors.As(err, &v) {
			merged.Violations = append(merged.Violations, v.Violations...)
		}
	}
	return NewSubscriber{}, merged
}
