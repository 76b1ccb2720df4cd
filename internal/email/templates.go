package email

import (
	"fmt"

	"github.com/osteele/liquid"
)

// Confirmation email bodies. Both variants embed the identical
// confirmation link; only the markup differs.
const (
	confirmationHTMLTemplate = `Welcome to our newsletter, {{ name }}!<br />` +
		`Click <a href="{{ confirmation_link }}">here</a> to confirm your subscription.`

	confirmationTextTemplate = `Welcome to our newsletter, {{ name }}!
Visit {{ confirmation_link }} to confirm your subscription.`
)

// ConfirmationEmail is a rendered double-opt-in message
type ConfirmationEmail struct {
	Subject  string
	HTMLBody string
	TextBody string
}

// Templates renders outbound email content
type Templates struct {
	engine *liquid.Engine
}

// NewTemplates creates the template renderer
func NewTemplates() *Templates {
	return &Templates{engine: liquid.NewEngine()}
}

// RenderConfirmation produces the confirmation email for a new
// subscriber. confirmationLink must already carry the subscription
// token.
func (t *Templates) RenderConfirmation(name, confirmationLink string) (*ConfirmationEmail, error) {
	bindings := map[string]interface{}{
		"name":              name,
		"confirmation_link": confirmationLink,
	}

	html, err := t.engine.ParseAndRenderString(confirmationHTMLTemplate, bindings)
	if err != nil {
		return nil, fmt.Errorf("rendering html body: %w", err)
	}
	text, err := t.engine.ParseAndRenderString(confirmationTextTemplate, bindings)
	if err != nil {
		return nil, fmt.Errorf("rendering text body: %w", err)
	}

	return &ConfirmationEmail{
		Subject:  fmt.Sprintf("Welcome %s!", name),
		HTMLBody: html,
		TextBody: text,
	}, nil
}
