package service

import (
	"bytes"
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"log"
	"path"
	"regexp"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"vetscan/internal/config"
	"vetscan/internal/domain"
	"vetscan/internal/extract"
	"vetscan/internal/pdf"
	"vetscan/internal/port"
)

const imageUploadConcurrency = 4

// UploadDocumentInput is the DTO for accepting a new report upload.
type UploadDocumentInput struct {
	OwnerID     string
	Filename    string
	ContentType string
	Content     []byte
}

// ListDocumentsQuery carries the listing filters from the API layer.
type ListDocumentsQuery struct {
	OwnerID string
	Status  *domain.DocumentStatus
	Limit   int
	Cursor  string
}

// DocumentList is one page of a document listing.
type DocumentList struct {
	Documents  []domain.Document
	NextCursor string
}

// DocumentService defines the report ingestion contract.
type DocumentService interface {
	Upload(ctx context.Context, input *UploadDocumentInput) (*domain.Document, error)
	GetByID(ctx context.Context, ownerID string, docID uuid.UUID) (*domain.Document, error)
	List(ctx context.Context, query *ListDocumentsQuery) (*DocumentList, error)
	GetImages(ctx context.Context, ownerID string, docID uuid.UUID) ([]domain.ImageMetadata, error)
	Delete(ctx context.Context, ownerID string, docID uuid.UUID) error
	ProcessDocument(ctx context.Context, job IngestJob)
}

type documentService struct {
	docRepo        port.DocumentRepository
	storage        port.ObjectStorage
	textExtractor  port.TextExtractor
	imageExtractor *pdf.ImageExtractor
	engine         *extract.Engine
	email          port.EmailSender
	queue          *IngestQueue
	s3cfg          *config.S3Config
	alertAddress   string
}

// NewDocumentService creates a new DocumentService implementation.
func NewDocumentService(
	docRepo port.DocumentRepository,
	storage port.ObjectStorage,
	textExtractor port.TextExtractor,
	imageExtractor *pdf.ImageExtractor,
	engine *extract.Engine,
	email port.EmailSender,
	queue *IngestQueue,
	s3cfg *config.S3Config,
	alertAddress string,
) DocumentService {
	return &documentService{
		docRepo:        docRepo,
		storage:        storage,
		textExtractor:  textExtractor,
		imageExtractor: imageExtractor,
		engine:         engine,
		email:          email,
		queue:          queue,
		s3cfg:          s3cfg,
		alertAddress:   alertAddress,
	}
}

func (s *documentService) Upload(ctx context.Context, input *UploadDocumentInput) (*domain.Document, error) {
	if !domain.AllowedContentTypes[input.ContentType] {
		return nil, domain.ErrUnsupportedFileType
	}

	maxBytes := s.s3cfg.MaxFileSizeMB * 1024 * 1024
	if int64(len(input.Content)) > maxBytes {
		return nil, domain.ErrFileTooLarge
	}

	if err := pdf.Validate(input.Content); err != nil {
		return nil, err
	}

	checksum := sha256.Sum256(input.Content)

	docID := uuid.New()
	filename := sanitizeFilename(input.Filename)
	key := fmt.Sprintf("%s/%s/%s", input.OwnerID, docID, filename)

	log.Printf("documentService.Upload: accepting %s (%d bytes) as document %s for owner %s",
		filename, len(input.Content), docID, input.OwnerID)

	_, err := s.storage.Upload(ctx, port.UploadInput{
		Bucket:      s.s3cfg.Bucket,
		Key:         key,
		Body:        bytes.NewReader(input.Content),
		ContentType: input.ContentType,
		Size:        int64(len(input.Content)),
	})
	if err != nil {
		log.Printf("documentService.Upload: S3 upload failed for document %s: %v", docID, err)
		return nil, domain.ErrUploadFailed
	}

	doc := &domain.Document{
		ID:      docID,
		OwnerID: input.OwnerID,
		Status:  domain.StatusUploading,
		OriginalFile: &domain.OriginalFile{
			StoragePath:    key,
			Filename:       filename,
			SizeBytes:      int64(len(input.Content)),
			MimeType:       input.ContentType,
			ChecksumSHA256: hex.EncodeToString(checksum[:]),
		},
	}

	if err := s.docRepo.Create(ctx, doc); err != nil {
		// The record is the source of truth; without it the stored object
		// is unreachable, so remove it again.
		if delErr := s.storage.Delete(ctx, s.s3cfg.Bucket, key); delErr != nil {
			log.Printf("documentService.Upload: orphan cleanup failed for %s: %v", key, delErr)
		}
		return nil, fmt.Errorf("creating document: %w", err)
	}

	if err := s.queue.Enqueue(IngestJob{DocumentID: docID, OwnerID: input.OwnerID}); err != nil {
		log.Printf("documentService.Upload: enqueue failed for document %s: %v", docID, err)
		if _, delErr := s.docRepo.Delete(ctx, docID); delErr != nil {
			log.Printf("documentService.Upload: record cleanup failed for %s: %v", docID, delErr)
		}
		if delErr := s.storage.Delete(ctx, s.s3cfg.Bucket, key); delErr != nil {
			log.Printf("documentService.Upload: orphan cleanup failed for %s: %v", key, delErr)
		}
		return nil, err
	}

	return doc, nil
}

// ProcessDocument runs the full ingestion pipeline for one queued document:
// download, text extraction, field extraction, image extraction, image
// uploads, result persistence. Any pipeline error ends the document in the
// failed state with the error message preserved.
func (s *documentService) ProcessDocument(ctx context.Context, job IngestJob) {
	start := time.Now()
	log.Printf("documentService.ProcessDocument: starting document %s", job.DocumentID)

	doc, err := s.docRepo.GetByID(ctx, job.DocumentID)
	if err != nil {
		log.Printf("documentService.ProcessDocument: failed to get document %s: %v", job.DocumentID, err)
		return
	}

	if err := s.docRepo.MarkProcessing(ctx, doc.ID); err != nil {
		log.Printf("documentService.ProcessDocument: failed to set processing status for %s: %v", doc.ID, err)
		return
	}

	content, err := s.storage.Download(ctx, s.s3cfg.Bucket, doc.OriginalFile.StoragePath)
	if err != nil {
		s.failProcessing(ctx, doc.ID, fmt.Sprintf("downloading file: %v", err))
		return
	}

	extraction, err := s.textExtractor.Process(ctx, content)
	if err != nil {
		s.failProcessing(ctx, doc.ID, err.Error())
		return
	}

	data, confidence := s.engine.Extract(extraction.Text, extraction.BlockConfidences)

	images, err := s.imageExtractor.ExtractImages(content)
	if err != nil {
		s.failProcessing(ctx, doc.ID, err.Error())
		return
	}

	metadata, err := s.uploadImages(ctx, job, images)
	if err != nil {
		s.failProcessing(ctx, doc.ID, fmt.Sprintf("uploading images: %v", err))
		return
	}

	processingMS := time.Since(start).Milliseconds()
	doc.ExtractedData = data
	doc.Images = metadata
	doc.Confidence = &confidence
	doc.ProcessingMS = &processingMS

	if err := s.docRepo.SaveResult(ctx, doc); err != nil {
		log.Printf("documentService.ProcessDocument: failed to save results for %s: %v", doc.ID, err)
		return
	}

	log.Printf("documentService.ProcessDocument: document %s completed (%d images, %d ms)",
		doc.ID, len(metadata), processingMS)
}

// uploadImages stores extracted images under the document's prefix, a few at
// a time. The metadata comes back in extraction order with storage paths
// filled in.
func (s *documentService) uploadImages(ctx context.Context, job IngestJob, images []pdf.ExtractedImage) ([]domain.ImageMetadata, error) {
	metadata := make([]domain.ImageMetadata, len(images))

	eg, gctx := errgroup.WithContext(ctx)
	eg.SetLimit(imageUploadConcurrency)

	for i := range images {
		eg.Go(func() error {
			img := images[i]
			key := fmt.Sprintf("%s/%s/%s.%s", job.OwnerID, job.DocumentID, img.Metadata.ID, img.Metadata.Format)
			_, err := s.storage.Upload(gctx, port.UploadInput{
				Bucket:      s.s3cfg.Bucket,
				Key:         key,
				Body:        bytes.NewReader(img.Content),
				ContentType: "image/" + img.Metadata.Format,
				Size:        int64(len(img.Content)),
			})
			if err != nil {
				return fmt.Errorf("image %s: %w", img.Metadata.ID, err)
			}
			img.Metadata.StoragePath = key
			metadata[i] = img.Metadata
			return nil
		})
	}
	if err := eg.Wait(); err != nil {
		return nil, err
	}
	return metadata, nil
}

// failProcessing records the terminal failure and raises an operator alert.
// It runs on its own deadline: the pipeline context may already be expired,
// and the failed status must still land.
func (s *documentService) failProcessing(_ context.Context, docID uuid.UUID, errMsg string) {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	log.Printf("documentService.failProcessing: document %s failed: %s", docID, errMsg)
	if err := s.docRepo.SaveFailure(ctx, docID, errMsg); err != nil {
		log.Printf("documentService.failProcessing: failed to update status for %s: %v", docID, err)
	}
	if s.email != nil && s.alertAddress != "" {
		if err := s.email.SendProcessingFailedEmail(ctx, s.alertAddress, docID.String(), errMsg); err != nil {
			log.Printf("documentService.failProcessing: alert email failed for %s: %v", docID, err)
		}
	}
}

func (s *documentService) GetByID(ctx context.Context, ownerID string, docID uuid.UUID) (*domain.Document, error) {
	doc, err := s.getOwned(ctx, ownerID, docID)
	if err != nil {
		return nil, err
	}
	s.signImageURLs(ctx, doc.Images)
	return doc, nil
}

func (s *documentService) List(ctx context.Context, query *ListDocumentsQuery) (*DocumentList, error) {
	limit := query.Limit
	if limit <= 0 {
		limit = 20
	}
	if limit > 100 {
		limit = 100
	}

	docs, nextCursor, err := s.docRepo.List(ctx, port.ListDocumentsInput{
		OwnerID: query.OwnerID,
		Status:  query.Status,
		Limit:   limit,
		Cursor:  query.Cursor,
	})
	if err != nil {
		return nil, err
	}
	return &DocumentList{Documents: docs, NextCursor: nextCursor}, nil
}

func (s *documentService) GetImages(ctx context.Context, ownerID string, docID uuid.UUID) ([]domain.ImageMetadata, error) {
	doc, err := s.getOwned(ctx, ownerID, docID)
	if err != nil {
		return nil, err
	}
	s.signImageURLs(ctx, doc.Images)
	return doc.Images, nil
}

func (s *documentService) Delete(ctx context.Context, ownerID string, docID uuid.UUID) error {
	doc, err := s.getOwned(ctx, ownerID, docID)
	if err != nil {
		return err
	}

	prefix := fmt.Sprintf("%s/%s/", ownerID, docID)
	if err := s.storage.DeletePrefix(ctx, s.s3cfg.Bucket, prefix); err != nil {
		return fmt.Errorf("deleting stored files: %w", err)
	}

	if _, err := s.docRepo.Delete(ctx, doc.ID); err != nil {
		return err
	}

	log.Printf("documentService.Delete: document %s deleted for owner %s", docID, ownerID)
	return nil
}

// getOwned fetches a document and hides other owners' documents behind
// not-found, so existence never leaks across accounts.
func (s *documentService) getOwned(ctx context.Context, ownerID string, docID uuid.UUID) (*domain.Document, error) {
	doc, err := s.docRepo.GetByID(ctx, docID)
	if err != nil {
		return nil, err
	}
	if doc.OwnerID != ownerID {
		return nil, domain.ErrDocumentNotFound
	}
	return doc, nil
}

// signImageURLs attaches a time-limited access URL to each image. A presign
// failure leaves that image's URL empty rather than failing the read.
func (s *documentService) signImageURLs(ctx context.Context, images []domain.ImageMetadata) {
	for i := range images {
		if images[i].StoragePath == "" {
			continue
		}
		url, err := s.storage.GetPresignedURL(ctx, s.s3cfg.Bucket, images[i].StoragePath, s.s3cfg.PresignExpiry)
		if err != nil {
			log.Printf("documentService.signImageURLs: presign failed for %s: %v", images[i].StoragePath, err)
			continue
		}
		images[i].SignedURL = url
	}
}

var unsafeFilenameChars = regexp.MustCompile(`[^A-Za-z0-9._-]`)

// sanitizeFilename strips directory components and characters that have no
// business in an object key.
func sanitizeFilename(name string) string {
	base := path.Base(name)
	safe := unsafeFilenameChars.ReplaceAllString(base, "_")
	if safe == "" || safe == "." || safe == ".." {
		return "document.pdf"
	}
	return safe
}
