package api

import (
	"context"
	"encoding/json"
	"errors"
	"log"
	"net/http"

	"github.com/pnadon/newsletter/internal/auth"
	"github.com/pnadon/newsletter/internal/domain"
	"github.com/pnadon/newsletter/internal/newsletter"
)

// newsletterService is the slice of newsletter.Service the handlers use.
type newsletterService interface {
	Subscribe(ctx context.Context, name, email string) error
	Confirm(ctx context.Context, token string) error
	Publish(ctx context.Context, authHeader string, req newsletter.PublishRequest) error
}

// Handlers contains all HTTP handlers
type Handlers struct {
	svc    newsletterService
	logger *log.Logger
}

// NewHandlers creates a new Handlers instance
func NewHandlers(svc newsletterService, logger *log.Logger) *Handlers {
	return &Handlers{svc: svc, logger: logger}
}

// HealthCheck confirms the server is up
func (h *Handlers) HealthCheck(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// HandleSubscribe accepts a form-encoded name and email and starts the
// double opt-in flow.
func (h *Handlers) HandleSubscribe(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		respondError(w, http.StatusBadRequest, "malformed form data")
		return
	}
	name := r.PostFormValue("name")
	email := r.PostFormValue("email")

	if err := h.svc.Subscribe(r.Context(), name, email); err != nil {
		var validation *domain.ValidationError
		if errors.As(err, &validation) {
			respondError(w, http.StatusBadRequest, validation.Error())
			return
		}
		h.logger.Printf("[subscribe] %s", newsletter.FormatErrorChain(err))
		respondError(w, http.StatusInternalServerError, "internal server error")
		return
	}

	respondJSON(w, http.StatusOK, map[string]string{"status": "pending_confirmation"})
}

// HandleConfirm activates a pending subscription from the token in the
// confirmation link.
func (h *Handlers) HandleConfirm(w http.ResponseWriter, r *http.Request) {
	token := r.URL.Query().Get("subscription_token")
	if token == "" {
		respondError(w, http.StatusBadRequest, "missing subscription_token parameter")
		return
	}

	if err := h.svc.Confirm(r.Context(), token); err != nil {
		if errors.Is(err, newsletter.ErrUnknownToken) {
			h.logger.Printf("[confirm] rejected unknown token")
			respondError(w, http.StatusUnauthorized, "unknown subscription token")
			return
		}
		h.logger.Printf("[confirm] %s", newsletter.FormatErrorChain(err))
		respondError(w, http.StatusInternalServerError, "internal server error")
		return
	}

	respondJSON(w, http.StatusOK, map[string]string{"status": "confirmed"})
}

// HandlePublish sends a newsletter issue to every confirmed subscriber.
// Requires HTTP Basic authentication.
func (h *Handlers) HandlePublish(w http.ResponseWriter, r *http.Request) {
	var req newsletter.PublishRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "malformed request body")
		return
	}

	if err := h.svc.Publish(r.Context(), r.Header.Get("Authorization"), req); err != nil {
		if errors.Is(err, auth.ErrInvalidCredentials) {
			w.Header().Set("WWW-Authenticate", `Basic realm="publish"`)
			respondError(w, http.StatusUnauthorized, "authentication required")
			return
		}
		var validation *domain.ValidationError
		if errors.As(err, &validation) {
			respondError(w, http.StatusBadRequest, validation.Error())
			return
		}
		h.logger.Printf("[publish] %s", newsletter.FormatErrorChain(err))
		respondError(w, http.StatusInternalServerError, "internal server error")
		return
	}

	respondJSON(w, http.StatusOK, map[string]string{"status": "published"})
}

func respondJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

func respondError(w http.ResponseWriter, status int, message string) {
	respondJSON(w, status, map[string]string{"error": message})
}
