package port

import "context"

// EmailSender defines the contract for sending operational emails.
type EmailSender interface {
	SendProcessingFailedEmail(ctx context.Context, toEmail, documentID, errMsg string) error
}
