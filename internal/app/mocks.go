package app

import (
	"examportal/internal/email"
	"examportal/internal/logger"
)

// MockEmailProvider logs instead of sending. Used when SMTP is not
// configured, which keeps local development working without a relay.
type MockEmailProvider struct{}

func (m *MockEmailProvider) Send(e *email.Email) error {
	logger.Info("[MOCK EMAIL]", "to", e.To, "subject", e.Subject, "body", e.Body)
	return nil
}
