package pdf

import (
	"bytes"
	"image"
	"image/color"
	"image/png"
	"math/rand"
	"testing"

	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// encodePNG renders a width x height PNG. Noisy pixels keep the encoding
// large, flat pixels keep it small.
func encodePNG(t *testing.T, width, height int, noisy bool) []byte {
	t.Helper()

	rng := rand.New(rand.NewSource(42))
	img := image.NewRGBA(image.Rect(0, 0, width, height))
	for y := 0; y < height; y++ {
		for x := 0; x < width; x++ {
			c := color.RGBA{R: 200, G: 120, B: 40, A: 255}
			if noisy {
				c = color.RGBA{
					R: uint8(rng.Intn(256)),
					G: uint8(rng.Intn(256)),
					B: uint8(rng.Intn(256)),
					A: 255,
				}
			}
			img.SetRGBA(x, y, c)
		}
	}

	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, img))
	return buf.Bytes()
}

func rawImage(content []byte, pageNr int, fileType string) model.Image {
	return model.Image{
		Reader:   bytes.NewReader(content),
		PageNr:   pageNr,
		FileType: fileType,
	}
}

func TestSortedByObjNr_OrderStableAcrossCalls(t *testing.T) {
	first := rawImage(encodePNG(t, 120, 120, false), 1, "png")
	first.Name = "Im0"
	second := rawImage(encodePNG(t, 150, 150, false), 1, "png")
	second.Name = "Im1"
	byObjNr := map[int]model.Image{14: second, 9: first}

	// Repeat enough times that an iteration-order dependence would surface.
	for i := 0; i < 40; i++ {
		got := sortedByObjNr(byObjNr)
		require.Len(t, got, 2)
		assert.Equal(t, "Im0", got[0].Name)
		assert.Equal(t, "Im1", got[1].Name)
	}
}

func TestProcessImage_FiltersSmallImages(t *testing.T) {
	extractor := NewImageExtractor(100, DefaultMaxImageBytes)

	got, err := extractor.processImage(rawImage(encodePNG(t, 50, 50, false), 1, "png"))

	require.NoError(t, err)
	assert.Nil(t, got)
}

func TestProcessImage_FiltersOnEitherDimension(t *testing.T) {
	extractor := NewImageExtractor(100, DefaultMaxImageBytes)

	got, err := extractor.processImage(rawImage(encodePNG(t, 300, 50, false), 1, "png"))

	require.NoError(t, err)
	assert.Nil(t, got)
}

func TestProcessImage_KeepsLargeEnoughImage(t *testing.T) {
	extractor := NewImageExtractor(100, DefaultMaxImageBytes)
	content := encodePNG(t, 150, 120, false)

	got, err := extractor.processImage(rawImage(content, 3, "png"))

	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, content, got.Content)
	assert.Equal(t, 3, got.Metadata.PageNumber)
	assert.Equal(t, 150, got.Metadata.Width)
	assert.Equal(t, 120, got.Metadata.Height)
	assert.Equal(t, "png", got.Metadata.Format)
	assert.Equal(t, len(content), got.Metadata.SizeBytes)
	assert.NotEqual(t, got.Metadata.ID.String(), "00000000-0000-0000-0000-000000000000")
	assert.Empty(t, got.Metadata.StoragePath)
}

func TestProcessImage_RecompressesOversized(t *testing.T) {
	// A 1 KiB ceiling forces recompression of any realistic image.
	extractor := NewImageExtractor(100, 1024)
	content := encodePNG(t, 200, 200, true)
	require.Greater(t, len(content), 1024)

	got, err := extractor.processImage(rawImage(content, 1, "png"))

	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, "jpeg", got.Metadata.Format)
	assert.NotEqual(t, content, got.Content)
	assert.Equal(t, len(got.Content), got.Metadata.SizeBytes)
}

func TestProcessImage_UndecodableBytes(t *testing.T) {
	extractor := NewImageExtractor(100, DefaultMaxImageBytes)

	got, err := extractor.processImage(rawImage([]byte("not an image"), 1, "png"))

	require.Error(t, err)
	assert.Nil(t, got)
}

func TestRecompress_DownscalesOversizedDimensions(t *testing.T) {
	content := encodePNG(t, 2500, 1000, false)

	compressed, format, err := recompress(content)

	require.NoError(t, err)
	assert.Equal(t, "jpeg", format)

	width, height, err := decodeDimensions(compressed)
	require.NoError(t, err)
	assert.Equal(t, 2000, width)
	assert.Equal(t, 800, height)
}

func TestRecompress_KeepsDimensionsUnderLimit(t *testing.T) {
	content := encodePNG(t, 400, 300, false)

	compressed, format, err := recompress(content)

	require.NoError(t, err)
	assert.Equal(t, "jpeg", format)

	width, height, err := decodeDimensions(compressed)
	require.NoError(t, err)
	assert.Equal(t, 400, width)
	assert.Equal(t, 300, height)
}
