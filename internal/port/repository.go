package port

import (
	"context"

	"github.com/google/uuid"

	"vetscan/internal/domain"
)

// ListDocumentsInput carries the filters for a paginated document listing.
// Cursor is the opaque identifier of the last document of the previous page;
// listing resumes strictly after it.
type ListDocumentsInput struct {
	OwnerID string
	Status  *domain.DocumentStatus
	Limit   int
	Cursor  string
}

// DocumentRepository defines the contract for document persistence.
//
// SaveResult and SaveFailure are the only ways to reach a terminal status;
// both set processed_at so readers never observe a terminal document without
// it. SaveResult applies every result field in a single update.
type DocumentRepository interface {
	Create(ctx context.Context, doc *domain.Document) error
	GetByID(ctx context.Context, docID uuid.UUID) (*domain.Document, error)
	List(ctx context.Context, input ListDocumentsInput) ([]domain.Document, string, error)
	MarkProcessing(ctx context.Context, docID uuid.UUID) error
	SaveResult(ctx context.Context, doc *domain.Document) error
	SaveFailure(ctx context.Context, docID uuid.UUID, errMsg string) error
	Delete(ctx context.Context, docID uuid.UUID) (bool, error)
}
