package newsletter

import (
	"errors"
	"strings"
)

// ErrUnknownToken is returned when a confirmation token does not
// resolve to a subscriber. Callers cannot distinguish a forged token
// from one that was never issued.
var ErrUnknownToken = errors.New("unknown subscription token")

// FormatErrorChain renders an error and every wrapped cause, one level
// per line, for operator logs. User-facing responses never include it.
func FormatErrorChain(err error) string {
	if err == nil {
		return ""
	}
	var b strings.Builder
	b.WriteString(err.Error())
	for cause := errors.Unwrap(err); cause != nil; cause = errors.Unwrap(cause) {
		b.WriteString("\n  caused by: ")
		b.WriteString(cause.Error())
	}
	return b.String()
}
