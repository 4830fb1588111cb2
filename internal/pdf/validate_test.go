package pdf

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"

	"vetscan/internal/domain"
)

func TestValidate_MissingHeader(t *testing.T) {
	err := Validate([]byte("this is not a pdf"))

	assert.True(t, errors.Is(err, domain.ErrInvalidPDF))
	assert.Contains(t, err.Error(), "missing PDF header")
}

func TestValidate_EmptyContent(t *testing.T) {
	err := Validate(nil)

	assert.True(t, errors.Is(err, domain.ErrInvalidPDF))
	assert.Contains(t, err.Error(), "missing PDF header")
}

func TestValidate_TruncatedBody(t *testing.T) {
	// Correct signature but no document structure behind it.
	err := Validate([]byte("%PDF-1.7\ngarbage"))

	assert.True(t, errors.Is(err, domain.ErrInvalidPDF))
}

func TestPageCount_Unreadable(t *testing.T) {
	assert.Zero(t, PageCount([]byte("%PDF-1.7\ngarbage")))
	assert.Zero(t, PageCount(nil))
}
