package export

import (
	"strings"
	"testing"
	"unicode/utf8"

	"github.com/stretchr/testify/assert"
)

func TestTruncate_RuneBoundaries(t *testing.T) {
	// Multibyte runes positioned so a byte-index cut would split them.
	s := "reevaluación ecográfica del bazo"

	got := truncate(s, 12)

	assert.True(t, utf8.ValidString(got))
	assert.Equal(t, "reevaluació…", got)
}

func TestTruncate_ShortStringsUntouched(t *testing.T) {
	assert.Equal(t, "señal", truncate("señal", 5))
	assert.Equal(t, "", truncate("", 10))
}

func TestTruncate_LimitOne(t *testing.T) {
	got := truncate("ñandú", 1)
	assert.Equal(t, "ñ", got)
	assert.True(t, utf8.ValidString(got))
}

func TestTruncate_LongASCII(t *testing.T) {
	got := truncate(strings.Repeat("a", 200), 140)
	assert.Equal(t, 140, utf8.RuneCountInString(got))
	assert.True(t, strings.HasSuffix(got, "…"))
}
