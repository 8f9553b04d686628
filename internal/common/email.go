package common

import "context"

// EmailSender delivers plain-text notifications, such as low stock alerts.
type EmailSender interface {
	Send(ctx context.Context, to, subject, body string) error
}

// NopEmailSender discards messages. Used until SMTP credentials are wired.
type NopEmailSender struct{}

// Send implements EmailSender.
func (NopEmailSender) Send(context.Context, string, string, string) error { return nil }
