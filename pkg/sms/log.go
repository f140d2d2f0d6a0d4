package sms

import (
	"context"
	"log"
)

// LogSender writes messages to the application log instead of a gateway.
// Used in development, where codes are read from the server output the
// same way dev emails are read from Mailpit.
type LogSender struct{}

func NewLogSender() *LogSender { return &LogSender{} }

func (s *LogSender) SendSMS(_ context.Context, to, message string) error {
	log.Printf("📱 [dev SMS] to=%s: %s", to, message)
	return nil
}
