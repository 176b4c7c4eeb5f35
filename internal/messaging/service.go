// Package messaging provides the outbound notification abstraction for
// MedConnect. It validates Kenyan phone numbers and delivers SMS through a
// pluggable transport.
package messaging

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"regexp"
	"strings"
	"sync"

	"github.com/brianmaseno/medtech/internal/twiliosms"
)

// ErrServiceStopped is returned when sends are attempted after Stop.
var ErrServiceStopped = errors.New("messaging service is stopped")

// kenyanPhoneRegex matches canonical Kenyan mobile numbers.
var kenyanPhoneRegex = regexp.MustCompile(`^\+254[17]\d{8}$`)

// phoneStripRegex removes separators users commonly type.
var phoneStripRegex = regexp.MustCompile(`[\s\-\(\)]`)

// Service defines a pluggable notification delivery abstraction.
type Service interface {
	// ValidateAndCanonicalizeRecipient validates and canonicalizes a
	// recipient phone number. Returns the canonicalized recipient and an
	// error if validation fails.
	ValidateAndCanonicalizeRecipient(recipient string) (string, error)

	// SendMessage sends a message to a recipient.
	SendMessage(ctx context.Context, to string, body string) error

	// Stop stops the service and releases resources.
	Stop() error
}

// CanonicalizePhone converts local Kenyan formats (07XXXXXXXX, 7XXXXXXXX,
// 1XXXXXXXX, 254...) to E.164 +254 form and validates the result.
func CanonicalizePhone(phone string) (string, error) {
	formatted := phoneStripRegex.ReplaceAllString(phone, "")
	if formatted == "" {
		return "", fmt.Errorf("phone number cannot be empty")
	}
	switch {
	case strings.HasPrefix(formatted, "0"):
		formatted = "+254" + formatted[1:]
	case strings.HasPrefix(formatted, "7") || strings.HasPrefix(formatted, "1"):
		formatted = "+254" + formatted
	case !strings.HasPrefix(formatted, "+"):
		formatted = "+" + formatted
	}
	if !kenyanPhoneRegex.MatchString(formatted) {
		return "", fmt.Errorf("invalid Kenyan phone number: %q", phone)
	}
	return formatted, nil
}

// TwilioService implements Service over a Twilio SMS sender.
type TwilioService struct {
	client  twiliosms.SMSSender
	mu      sync.RWMutex
	stopped bool
}

// NewTwilioService creates a notification service backed by the given sender.
func NewTwilioService(client twiliosms.SMSSender) *TwilioService {
	return &TwilioService{client: client}
}

// ValidateAndCanonicalizeRecipient validates and canonicalizes a Kenyan
// phone number.
func (s *TwilioService) ValidateAndCanonicalizeRecipient(recipient string) (string, error) {
	canonical, err := CanonicalizePhone(recipient)
	if err != nil {
		return "", err
	}
	if canonical != recipient {
		slog.Debug("TwilioService canonicalized recipient", "original", recipient, "canonical", canonical)
	}
	return canonical, nil
}

// SendMessage delivers an SMS to the recipient.
func (s *TwilioService) SendMessage(ctx context.Context, to string, body string) error {
	s.mu.RLock()
	if s.stopped {
		s.mu.RUnlock()
		return ErrServiceStopped
	}
	s.mu.RUnlock()

	canonical, err := s.ValidateAndCanonicalizeRecipient(to)
	if err != nil {
		slog.Error("TwilioService SendMessage validation error", "error", err, "to", to)
		return err
	}
	if err := s.client.SendSMS(ctx, canonical, body); err != nil {
		return err
	}
	slog.Debug("TwilioService SendMessage succeeded", "to", canonical, "body_len", len(body))
	return nil
}

// Stop marks the service stopped; further sends fail fast.
func (s *TwilioService) Stop() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.stopped = true
	return nil
}
