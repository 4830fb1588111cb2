package postgres

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"vetscan/internal/domain"
	"vetscan/internal/port"
)

type documentRepo struct {
	db *sqlx.DB
}

// NewDocumentRepo creates a new PostgreSQL-backed DocumentRepository.
func NewDocumentRepo(db *sqlx.DB) port.DocumentRepository {
	return &documentRepo{db: db}
}

// documentRow mirrors the documents table. JSONB columns stay raw here and
// are unmarshaled into typed structs on the way out.
type documentRow struct {
	ID            uuid.UUID       `db:"id"`
	OwnerID       string          `db:"owner_id"`
	Status        string          `db:"status"`
	ErrorMessage  string          `db:"error_message"`
	OriginalFile  json.RawMessage `db:"original_file"`
	ExtractedData json.RawMessage `db:"extracted_data"`
	Images        json.RawMessage `db:"images"`
	Confidence    *float64        `db:"confidence_score"`
	ProcessingMS  *int64          `db:"processing_time_ms"`
	CreatedAt     time.Time       `db:"created_at"`
	UpdatedAt     time.Time       `db:"updated_at"`
	ProcessedAt   *time.Time      `db:"processed_at"`
}

func (r documentRow) toDomain() (*domain.Document, error) {
	doc := &domain.Document{
		ID:           r.ID,
		OwnerID:      r.OwnerID,
		Status:       domain.DocumentStatus(r.Status),
		ErrorMessage: r.ErrorMessage,
		Confidence:   r.Confidence,
		ProcessingMS: r.ProcessingMS,
		CreatedAt:    r.CreatedAt,
		UpdatedAt:    r.UpdatedAt,
		ProcessedAt:  r.ProcessedAt,
	}
	if len(r.OriginalFile) > 0 {
		doc.OriginalFile = &domain.OriginalFile{}
		if err := json.Unmarshal(r.OriginalFile, doc.OriginalFile); err != nil {
			return nil, fmt.Errorf("unmarshaling original_file: %w", err)
		}
	}
	if len(r.ExtractedData) > 0 {
		doc.ExtractedData = &domain.ExtractedData{}
		if err := json.Unmarshal(r.ExtractedData, doc.ExtractedData); err != nil {
			return nil, fmt.Errorf("unmarshaling extracted_data: %w", err)
		}
	}
	if len(r.Images) > 0 {
		if err := json.Unmarshal(r.Images, &doc.Images); err != nil {
			return nil, fmt.Errorf("unmarshaling images: %w", err)
		}
	}
	return doc, nil
}

func (r *documentRepo) Create(ctx context.Context, doc *domain.Document) error {
	now := time.Now().UTC()
	doc.CreatedAt = now
	doc.UpdatedAt = now

	originalFile, err := json.Marshal(doc.OriginalFile)
	if err != nil {
		return fmt.Errorf("documentRepo.Create marshal: %w", err)
	}

	query := `INSERT INTO documents (
		id, owner_id, status, error_message, original_file,
		created_at, updated_at
	) VALUES ($1, $2, $3, $4, $5, $6, $7)`

	_, err = r.db.ExecContext(ctx, query,
		doc.ID, doc.OwnerID, doc.Status, doc.ErrorMessage, originalFile,
		doc.CreatedAt, doc.UpdatedAt)
	if err != nil {
		return fmt.Errorf("documentRepo.Create: %w", err)
	}
	return nil
}

func (r *documentRepo) GetByID(ctx context.Context, docID uuid.UUID) (*domain.Document, error) {
	var row documentRow
	err := r.db.GetContext(ctx, &row,
		"SELECT * FROM documents WHERE id = $1", docID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrDocumentNotFound
		}
		return nil, fmt.Errorf("documentRepo.GetByID: %w", err)
	}
	return row.toDomain()
}

// List pages through an owner's documents, newest first. The cursor is the id
// of the last document of the previous page; listing resumes strictly after
// it. One extra row is fetched to decide whether another page exists.
func (r *documentRepo) List(ctx context.Context, input port.ListDocumentsInput) ([]domain.Document, string, error) {
	conditions := []string{"owner_id = $1"}
	args := []interface{}{input.OwnerID}

	if input.Status != nil {
		args = append(args, string(*input.Status))
		conditions = append(conditions, "status = $"+strconv.Itoa(len(args)))
	}

	if input.Cursor != "" {
		cursorID, err := uuid.Parse(input.Cursor)
		if err != nil {
			return nil, "", fmt.Errorf("documentRepo.List: invalid cursor %q", input.Cursor)
		}
		var cursorCreatedAt time.Time
		err = r.db.GetContext(ctx, &cursorCreatedAt,
			"SELECT created_at FROM documents WHERE id = $1", cursorID)
		if err != nil {
			if errors.Is(err, sql.ErrNoRows) {
				return nil, "", fmt.Errorf("documentRepo.List: unknown cursor %q", input.Cursor)
			}
			return nil, "", fmt.Errorf("documentRepo.List cursor lookup: %w", err)
		}
		args = append(args, cursorCreatedAt)
		createdArg := len(args)
		args = append(args, cursorID)
		idArg := len(args)
		conditions = append(conditions, fmt.Sprintf(
			"(created_at, id) < ($%d, $%d)", createdArg, idArg))
	}

	args = append(args, input.Limit+1)
	query := fmt.Sprintf(
		`SELECT * FROM documents WHERE %s ORDER BY created_at DESC, id DESC LIMIT $%d`,
		strings.Join(conditions, " AND "), len(args))

	var rows []documentRow
	if err := r.db.SelectContext(ctx, &rows, query, args...); err != nil {
		return nil, "", fmt.Errorf("documentRepo.List: %w", err)
	}

	nextCursor := ""
	if len(rows) > input.Limit {
		rows = rows[:input.Limit]
		nextCursor = rows[len(rows)-1].ID.String()
	}

	docs := make([]domain.Document, 0, len(rows))
	for _, row := range rows {
		doc, err := row.toDomain()
		if err != nil {
			return nil, "", fmt.Errorf("documentRepo.List: %w", err)
		}
		docs = append(docs, *doc)
	}
	return docs, nextCursor, nil
}

// MarkProcessing advances a document out of the uploading state. The status
// guard keeps the transition one-way.
func (r *documentRepo) MarkProcessing(ctx context.Context, docID uuid.UUID) error {
	result, err := r.db.ExecContext(ctx,
		`UPDATE documents SET status = $1, updated_at = $2
		 WHERE id = $3 AND status = $4`,
		domain.StatusProcessing, time.Now().UTC(), docID, domain.StatusUploading)
	if err != nil {
		return fmt.Errorf("documentRepo.MarkProcessing: %w", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("documentRepo.MarkProcessing: %w", err)
	}
	if affected == 0 {
		return domain.ErrDocumentNotFound
	}
	return nil
}

// SaveResult writes every processing output and the completed status in one
// statement, so readers never observe a half-updated document.
func (r *documentRepo) SaveResult(ctx context.Context, doc *domain.Document) error {
	extractedData, err := json.Marshal(doc.ExtractedData)
	if err != nil {
		return fmt.Errorf("documentRepo.SaveResult marshal extracted_data: %w", err)
	}
	images, err := json.Marshal(doc.Images)
	if err != nil {
		return fmt.Errorf("documentRepo.SaveResult marshal images: %w", err)
	}

	now := time.Now().UTC()
	result, err := r.db.ExecContext(ctx,
		`UPDATE documents SET
			status = $1, extracted_data = $2, images = $3,
			confidence_score = $4, processing_time_ms = $5,
			processed_at = $6, updated_at = $6
		 WHERE id = $7 AND status = $8`,
		domain.StatusCompleted, extractedData, images,
		doc.Confidence, doc.ProcessingMS, now,
		doc.ID, domain.StatusProcessing)
	if err != nil {
		return fmt.Errorf("documentRepo.SaveResult: %w", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("documentRepo.SaveResult: %w", err)
	}
	if affected == 0 {
		return domain.ErrDocumentNotFound
	}
	return nil
}

// SaveFailure records the terminal failed state with the error message
// preserved verbatim.
func (r *documentRepo) SaveFailure(ctx context.Context, docID uuid.UUID, errMsg string) error {
	now := time.Now().UTC()
	result, err := r.db.ExecContext(ctx,
		`UPDATE documents SET status = $1, error_message = $2,
			processed_at = $3, updated_at = $3
		 WHERE id = $4 AND status = $5`,
		domain.StatusFailed, errMsg, now, docID, domain.StatusProcessing)
	if err != nil {
		return fmt.Errorf("documentRepo.SaveFailure: %w", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("documentRepo.SaveFailure: %w", err)
	}
	if affected == 0 {
		return domain.ErrDocumentNotFound
	}
	return nil
}

func (r *documentRepo) Delete(ctx context.Context, docID uuid.UUID) (bool, error) {
	result, err := r.db.ExecContext(ctx,
		"DELETE FROM documents WHERE id = $1", docID)
	if err != nil {
		return false, fmt.Errorf("documentRepo.Delete: %w", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("documentRepo.Delete: %w", err)
	}
	return affected > 0, nil
}
