package noop

import (
	"context"
	"log"

	"vetscan/internal/port"
)

type noopSender struct{}

// NewNoopSender creates a no-op EmailSender that logs failure alerts to stdout.
func NewNoopSender() port.EmailSender {
	return &noopSender{}
}

func (s *noopSender) SendProcessingFailedEmail(_ context.Context, toEmail, documentID, errMsg string) error {
	log.Printf("[NOOP EMAIL] Processing failure alert for %s: document %s: %s", toEmail, documentID, errMsg)
	return nil
}
