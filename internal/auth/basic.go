package auth

import (
	"encoding/base64"
	"fmt"
	"strings"
)

// Credentials is a username/password pair extracted from a request
type Credentials struct {
	Username string
	Password string
}

// ParseBasicAuth extracts credentials from an Authorization header
// value using the Basic scheme. Any malformed header is an error; the
// caller treats all of them as an authentication failure.
func ParseBasicAuth(header string) (Credentials, error) {
	if header == "" {
		return Credentials{}, fmt.Errorf("authorization header is missing")
	}

	encoded, ok := strings.CutPrefix(header, "Basic ")
	if !ok {
		return Credentials{}, fmt.Errorf("authorization scheme is not Basic")
	}

	decoded, err := base64.StdEncoding.DecodeString(encoded)
	if err != nil {
		return Credentials{}, fmt.Errorf("decoding basic credentials: %w", err)
	}

	username, password, found := strings.Cut(string(decoded), ":")
	if !found {
		return Credentials{}, fmt.Errorf("basic credentials missing ':' separator")
	}

	return Credentials{Username: username, Password: password}, nil
}
