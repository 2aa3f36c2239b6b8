// Package mailer abstracts outbound mail. Delivery transport is out of
// scope for this service, so the default implementation just logs.
package mailer

import (
	"context"

	"github.com/kasuwahq/kasuwa-backend/pkg/logger"
)

// Message is one outbound email.
type Message struct {
	To      string
	Subject string
	Body    string
}

// Sender delivers a message. Implementations must not block on retries;
// callers treat delivery as best-effort.
type Sender interface {
	Send(ctx context.Context, msg Message) error
}

// LogSender writes the message to the structured log instead of sending it.
type LogSender struct {
	logg *logger.Logger
}

func NewLogSender(logg *logger.Logger) *LogSender {
	return &LogSender{logg: logg}
}

func (s *LogSender) Send(ctx context.Context, msg Message) error {
	if s.logg != nil {
		ctx = s.logg.WithFields(ctx, map[string]any{
			"mail_to":      msg.To,
			"mail_subject": msg.Subject,
		})
		s.logg.Info(ctx, "outbound mail suppressed (log sender)")
	}
	return nil
}
