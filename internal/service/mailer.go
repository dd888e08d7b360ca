package service

import (
	"context"
	"log/slog"
)

// Mailer delivers account emails.
type Mailer interface {
	SendVerification(ctx context.Context, email, link string) error
}

// LogMailer writes verification links to the log instead of sending mail.
type LogMailer struct {
	Logger *slog.Logger
}

// SendVerification logs the link at info level.
func (m LogMailer) SendVerification(ctx context.Context, email, link string) error {
	logger := m.Logger
	if logger == nil {
		logger = slog.Default()
	}
	logger.InfoContext(ctx, "email verification link", "email", email, "link", link)
	return nil
}
