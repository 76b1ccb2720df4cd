package auth

import (
	"crypto/subtle"
	"encoding/base64"
	"fmt"
	"strconv"
	"strings"

	"golang.org/x/crypto/argon2"
)

// errPasswordMismatch marks a structurally valid hash that did not
// match the candidate password, as opposed to a hash we could not even
// parse. Only the former maps to an authentication failure.
var errPasswordMismatch = fmt.Errorf("password does not match stored hash")

// phcParams is an argon2id hash decoded from its PHC string form,
// e.g. $argon2id$v=19$m=15000,t=2,p=1$<salt>$<hash>.
type phcParams struct {
	memory  uint32
	time    uint32
	threads uint8
	salt    []byte
	hash    []byte
}

func parsePHC(encoded string) (*phcParams, error) {
	parts := strings.Split(encoded, "$")
	if len(parts) != 6 || parts[0] != "" {
		return nil, fmt.Errorf("malformed PHC string")
	}
	if parts[1] != "argon2id" {
		return nil, fmt.Errorf("unsupported hash function %q", parts[1])
	}

	var version int
	if _, err := fmt.Sscanf(parts[2], "v=%d", &version); err != nil {
		return nil, fmt.Errorf("malformed version field: %w", err)
	}
	if version != argon2.Version {
		return nil, fmt.Errorf("unsupported argon2 version %d", version)
	}

	p := &phcParams{}
	for _, kv := range strings.Split(parts[3], ",") {
		key, value, found := strings.Cut(kv, "=")
		if !found {
			return nil, fmt.Errorf("malformed parameter %q", kv)
		}
		n, err := strconv.ParseUint(value, 10, 32)
		if err != nil {
			return nil, fmt.Errorf("malformed parameter %q: %w", kv, err)
		}
		switch key {
		case "m":
			p.memory = uint32(n)
		case "t":
			p.time = uint32(n)
		case "p":
			p.threads = uint8(n)
		default:
			return nil, fmt.Errorf("unknown parameter %q", key)
		}
	}
	if p.memory == 0 || p.time == 0 || p.threads == 0 {
		return nil, fmt.Errorf("incomplete argon2 parameters")
	}

	var err error
	if p.salt, err = base64.RawStdEncoding.DecodeString(parts[4]); err != nil {
		return nil, fmt.Errorf("decoding salt: %w", err)
	}
	if p.hash, err = base64.RawStdEncoding.DecodeString(parts[5]); err != nil {
		return nil, fmt.Errorf("decoding hash: %w", err)
	}

	return p, nil
}

// verifyPasswordHash recomputes the argon2id hash of the candidate with
// the stored parameters and compares in constant time. This is the
// CPU- and memory-hard step; it always runs on the verify pool.
func verifyPasswordHash(encodedHash, candidate string) error {
	p, err := parsePHC(encodedHash)
	if err != nil {
		return fmt.Errorf("parsing stored password hash: %w", err)
	}

	computed := argon2.IDKey([]byte(candidate), p.salt, p.time, p.memory, p.threads, uint32(len(p.hash)))
	if subtle.ConstantTimeCompare(computed, p.hash) != 1 {
		return errPasswordMismatch
	}
	return nil
}
