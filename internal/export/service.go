package export

import (
	"context"
	"fmt"
	"log"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/xuri/excelize/v2"

	"vetscan/internal/domain"
	"vetscan/internal/port"
)

const exportPageSize = 100

// Service produces XLSX workbooks summarizing an owner's documents.
type Service struct {
	docRepo port.DocumentRepository
}

func NewService(docRepo port.DocumentRepository) *Service {
	return &Service{docRepo: docRepo}
}

// ExportDocumentsXLSX returns an XLSX workbook with one row per document,
// optionally filtered by status.
func (s *Service) ExportDocumentsXLSX(ctx context.Context, ownerID string, status *domain.DocumentStatus) ([]byte, error) {
	start := time.Now()

	f := excelize.NewFile()
	const sheet = "Documents"
	if index, _ := f.GetSheetIndex(sheet); index == -1 {
		if _, err := f.NewSheet(sheet); err != nil {
			return nil, err
		}
	}
	activeIndex, _ := f.GetSheetIndex(sheet)
	f.SetActiveSheet(activeIndex)

	headers := []string{
		"Document ID",
		"Filename",
		"Status",
		"Uploaded At",
		"Processed At",
		"Patient",
		"Species",
		"Primary Diagnosis",
		"Recommendations",
		"Confidence",
		"Images",
		"Error",
	}
	for i, h := range headers {
		cell, _ := excelize.CoordinatesToCellName(i+1, 1)
		_ = f.SetCellValue(sheet, cell, h)
	}

	row := 2
	cursor := ""
	total := 0
	for {
		docs, nextCursor, err := s.docRepo.List(ctx, port.ListDocumentsInput{
			OwnerID: ownerID,
			Status:  status,
			Limit:   exportPageSize,
			Cursor:  cursor,
		})
		if err != nil {
			return nil, fmt.Errorf("listing documents: %w", err)
		}

		for _, doc := range docs {
			writeDocumentRow(f, sheet, row, &doc)
			row++
		}
		total += len(docs)

		if nextCursor == "" {
			break
		}
		cursor = nextCursor
	}

	_ = f.SetColWidth(sheet, "A", "A", 38) // document id
	_ = f.SetColWidth(sheet, "B", "B", 28) // filename
	_ = f.SetColWidth(sheet, "C", "C", 12) // status
	_ = f.SetColWidth(sheet, "D", "E", 20) // timestamps
	_ = f.SetColWidth(sheet, "F", "G", 16) // patient, species
	_ = f.SetColWidth(sheet, "H", "H", 32) // diagnosis
	_ = f.SetColWidth(sheet, "I", "I", 48) // recommendations
	_ = f.SetColWidth(sheet, "L", "L", 48) // error

	buf, err := f.WriteToBuffer()
	if err != nil {
		return nil, fmt.Errorf("xlsx write: %w", err)
	}

	log.Printf("export.ExportDocumentsXLSX: owner %s, %d rows, %d ms",
		ownerID, total, time.Since(start).Milliseconds())
	return buf.Bytes(), nil
}

func writeDocumentRow(f *excelize.File, sheet string, row int, doc *domain.Document) {
	write := func(col int, v any) {
		cell, _ := excelize.CoordinatesToCellName(col, row)
		_ = f.SetCellValue(sheet, cell, v)
	}

	write(1, doc.ID.String())
	if doc.OriginalFile != nil {
		write(2, doc.OriginalFile.Filename)
	}
	write(3, string(doc.Status))
	write(4, doc.CreatedAt.Format("2006-01-02 15:04:05"))
	if doc.ProcessedAt != nil {
		write(5, doc.ProcessedAt.Format("2006-01-02 15:04:05"))
	}
	if doc.ExtractedData != nil {
		write(6, doc.ExtractedData.Patient.Name)
		write(7, doc.ExtractedData.Patient.Species)
		write(8, doc.ExtractedData.Diagnosis.Primary)
		write(9, joinRecommendations(doc.ExtractedData.Recommendations))
	}
	if doc.Confidence != nil {
		write(10, *doc.Confidence)
	}
	write(11, len(doc.Images))
	write(12, truncate(doc.ErrorMessage, 140))
}

func joinRecommendations(recs []domain.Recommendation) string {
	parts := make([]string, 0, len(recs))
	for _, rec := range recs {
		parts = append(parts, fmt.Sprintf("[%s] %s", rec.Type, rec.Description))
	}
	return truncate(strings.Join(parts, "; "), 500)
}

// truncate caps s at n runes. Cutting on rune boundaries keeps accented
// clinical text valid UTF-8.
func truncate(s string, n int) string {
	if n <= 0 || utf8.RuneCountInString(s) <= n {
		return s
	}
	runes := []rune(s)
	if n == 1 {
		return string(runes[:1])
	}
	return string(runes[:n-1]) + "…"
}
