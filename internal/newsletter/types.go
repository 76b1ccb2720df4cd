// Package newsletter implements the subscriber lifecycle and the
// authenticated broadcast pipeline: double opt-in subscription,
// token-based confirmation, and issue delivery to every confirmed
// subscriber.
package newsletter

// Subscriber status values. A subscriber is created pending and is
// only ever moved to confirmed; no transition leaves confirmed.
const (
	StatusPendingConfirmation = "pending_confirmation"
	StatusConfirmed           = "confirmed"
)

// PublishRequest is one newsletter issue to broadcast. It exists only
// for the duration of the publish call and is never persisted.
type PublishRequest struct {
	Title   string         `json:"title"`
	Content PublishContent `json:"content"`
}

// PublishContent carries the issue body in both renderings
type PublishContent struct {
	HTML string `json:"html"`
	Text string `json:"text"`
}
