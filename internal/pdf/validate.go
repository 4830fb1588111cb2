package pdf

import (
	"bytes"
	"fmt"

	"github.com/pdfcpu/pdfcpu/pkg/api"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu/model"

	"vetscan/internal/domain"
)

var pdfHeader = []byte("%PDF")

// Validate checks that content is a readable PDF with at least one page.
// Every failure wraps domain.ErrInvalidPDF so callers can branch on it.
func Validate(content []byte) error {
	if !bytes.HasPrefix(content, pdfHeader) {
		return fmt.Errorf("%w: missing PDF header", domain.ErrInvalidPDF)
	}

	conf := model.NewDefaultConfiguration()
	conf.ValidationMode = model.ValidationRelaxed

	pageCount, err := api.PageCount(bytes.NewReader(content), conf)
	if err != nil {
		return fmt.Errorf("%w: %v", domain.ErrInvalidPDF, err)
	}
	if pageCount == 0 {
		return fmt.Errorf("%w: no pages found", domain.ErrInvalidPDF)
	}
	return nil
}

// PageCount returns the number of pages, or 0 when the document is unreadable.
func PageCount(content []byte) int {
	conf := model.NewDefaultConfiguration()
	conf.ValidationMode = model.ValidationRelaxed
	n, err := api.PageCount(bytes.NewReader(content), conf)
	if err != nil {
		return 0
	}
	return n
}
