// Package email sends transactional and broadcast mail through a
// configurable delivery provider. Callers see one operation: send a
// single message, get a success or an error. Retry policy for failed
// sends is deliberately left to the caller.
package email

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"

	"github.com/pnadon/newsletter/internal/config"
)

// Client delivers one email per call
type Client interface {
	Send(ctx context.Context, to, subject, htmlBody, textBody string) error
}

// New constructs the delivery client selected by the configuration
func New(ctx context.Context, cfg config.EmailConfig) (Client, error) {
	switch cfg.Provider {
	case "postmark":
		return NewPostmarkClient(cfg), nil
	case "ses":
		return NewSESClient(ctx, cfg)
	default:
		return nil, fmt.Errorf("unsupported email provider: %s", cfg.Provider)
	}
}

const postmarkServerTokenHeader = "X-Postmark-Server-Token"

// PostmarkClient is a Postmark transactional email API client
type PostmarkClient struct {
	baseURL     string
	serverToken string
	sender      string
	httpClient  *http.Client
}

// NewPostmarkClient creates a new Postmark API client
func NewPostmarkClient(cfg config.EmailConfig) *PostmarkClient {
	sender := cfg.SenderEmail
	if cfg.SenderName != "" {
		sender = fmt.Sprintf("%s <%s>", cfg.SenderName, cfg.SenderEmail)
	}
	return &PostmarkClient{
		baseURL:     cfg.BaseURL,
		serverToken: cfg.AuthToken,
		sender:      sender,
		httpClient: &http.Client{
			Timeout: cfg.Timeout(),
		},
	}
}

type postmarkSendRequest struct {
	From     string `json:"From"`
	To       string `json:"To"`
	Subject  string `json:"Subject"`
	HTMLBody string `json:"HtmlBody"`
	TextBody string `json:"TextBody"`
}

// Send delivers one email through the Postmark API
func (c *PostmarkClient) Send(ctx context.Context, to, subject, htmlBody, textBody string) error {
	payload := postmarkSendRequest{
		From:     c.sender,
		To:       to,
		Subject:  subject,
		HTMLBody: htmlBody,
		TextBody: textBody,
	}

	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("marshaling request body: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/email", bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set(postmarkServerTokenHeader, c.serverToken)
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("executing request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		respBody, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return fmt.Errorf("postmark error (status %d): %s", resp.StatusCode, string(respBody))
	}

	return nil
}
