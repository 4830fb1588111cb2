package ocr

import (
	"context"
	"fmt"
	"strings"

	"github.com/gen2brain/go-fitz"

	"vetscan/internal/port"
)

// FitzExtractor reads the text layer of a PDF with MuPDF. It runs fully
// in-process, so there is no remote OCR dependency to configure. Pages whose
// text layer is present report full confidence; pages without one (scanned
// images with no OCR layer) contribute nothing.
type FitzExtractor struct{}

func NewFitzExtractor() *FitzExtractor {
	return &FitzExtractor{}
}

var _ port.TextExtractor = (*FitzExtractor)(nil)

func (f *FitzExtractor) Process(ctx context.Context, content []byte) (*port.TextExtraction, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	doc, err := fitz.NewFromMemory(content)
	if err != nil {
		return nil, fmt.Errorf("FitzExtractor.Process: opening document: %w", err)
	}
	defer doc.Close()

	var (
		builder     strings.Builder
		confidences []float64
	)
	for n := 0; n < doc.NumPage(); n++ {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		text, err := doc.Text(n)
		if err != nil {
			return nil, fmt.Errorf("FitzExtractor.Process: reading page %d: %w", n+1, err)
		}
		if strings.TrimSpace(text) == "" {
			continue
		}
		builder.WriteString(text)
		builder.WriteString("\n")
		confidences = append(confidences, 1.0)
	}

	return &port.TextExtraction{
		Text:             builder.String(),
		BlockConfidences: confidences,
	}, nil
}
