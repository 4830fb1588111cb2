package pdf

import (
	"bytes"
	"fmt"
	"image"
	"image/jpeg"
	_ "image/png"
	"io"
	"log"
	"sort"

	"github.com/google/uuid"
	"github.com/pdfcpu/pdfcpu/pkg/api"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu/model"
	"golang.org/x/image/draw"

	"vetscan/internal/domain"
)

const (
	// DefaultMinImageDim filters out icons and decorative artifacts.
	DefaultMinImageDim = 100

	// DefaultMaxImageBytes is the size ceiling above which an image gets
	// recompressed before upload.
	DefaultMaxImageBytes = 2 * 1024 * 1024

	jpegQuality  = 85
	maxDimension = 2000
)

// ExtractedImage pairs raw image bytes with their metadata. The storage path
// in the metadata stays empty until the caller uploads the bytes.
type ExtractedImage struct {
	Content  []byte
	Metadata domain.ImageMetadata
}

// ImageExtractor pulls embedded images out of PDF byte streams.
type ImageExtractor struct {
	minImageDim   int
	maxImageBytes int
	conf          *model.Configuration
}

func NewImageExtractor(minImageDim, maxImageBytes int) *ImageExtractor {
	if minImageDim <= 0 {
		minImageDim = DefaultMinImageDim
	}
	if maxImageBytes <= 0 {
		maxImageBytes = DefaultMaxImageBytes
	}
	conf := model.NewDefaultConfiguration()
	conf.ValidationMode = model.ValidationRelaxed
	return &ImageExtractor{
		minImageDim:   minImageDim,
		maxImageBytes: maxImageBytes,
		conf:          conf,
	}
}

// ExtractImages returns every embedded image that survives the size filters,
// in page order. A failure on a single image is logged and skipped; only a
// failure to read the document itself is returned as an error.
func (e *ImageExtractor) ExtractImages(pdfContent []byte) ([]ExtractedImage, error) {
	pageImages, err := api.ExtractImagesRaw(bytes.NewReader(pdfContent), nil, e.conf)
	if err != nil {
		return nil, fmt.Errorf("ImageExtractor.ExtractImages: reading document: %w", err)
	}

	var images []ExtractedImage
	for _, byObjNr := range pageImages {
		for _, img := range sortedByObjNr(byObjNr) {
			extracted, err := e.processImage(img)
			if err != nil {
				log.Printf("ImageExtractor.ExtractImages: skipping image on page %d: %v", img.PageNr, err)
				continue
			}
			if extracted == nil {
				continue
			}
			images = append(images, *extracted)
		}
	}

	log.Printf("ImageExtractor.ExtractImages: extracted %d images", len(images))
	return images, nil
}

// sortedByObjNr flattens one page's images in ascending object number, the
// order the writer embedded them. Map iteration order is random, so without
// the sort same-page images would come back shuffled.
func sortedByObjNr(byObjNr map[int]model.Image) []model.Image {
	objNrs := make([]int, 0, len(byObjNr))
	for objNr := range byObjNr {
		objNrs = append(objNrs, objNr)
	}
	sort.Ints(objNrs)

	imgs := make([]model.Image, 0, len(objNrs))
	for _, objNr := range objNrs {
		imgs = append(imgs, byObjNr[objNr])
	}
	return imgs
}

// processImage reads one raw image, applies the dimension filter and the
// recompression ceiling. A nil result with nil error means the image was
// filtered out.
func (e *ImageExtractor) processImage(img model.Image) (*ExtractedImage, error) {
	content, err := io.ReadAll(img)
	if err != nil {
		return nil, fmt.Errorf("reading image bytes: %w", err)
	}

	width, height, err := decodeDimensions(content)
	if err != nil {
		return nil, fmt.Errorf("decoding image header: %w", err)
	}
	if width < e.minImageDim || height < e.minImageDim {
		return nil, nil
	}

	format := img.FileType
	if len(content) > e.maxImageBytes {
		compressed, compressedFormat, err := recompress(content)
		if err != nil {
			// Keep the original bytes, the upload still proceeds.
			log.Printf("ImageExtractor.processImage: recompression failed on page %d, keeping original: %v", img.PageNr, err)
		} else {
			content = compressed
			format = compressedFormat
			width, height, _ = decodeDimensions(content)
		}
	}

	return &ExtractedImage{
		Content: content,
		Metadata: domain.ImageMetadata{
			ID:         uuid.New(),
			PageNumber: img.PageNr,
			Width:      width,
			Height:     height,
			Format:     format,
			SizeBytes:  len(content),
		},
	}, nil
}

func decodeDimensions(content []byte) (int, int, error) {
	cfg, _, err := image.DecodeConfig(bytes.NewReader(content))
	if err != nil {
		return 0, 0, err
	}
	return cfg.Width, cfg.Height, nil
}

// recompress re-encodes an image as JPEG, downscaling first when its longest
// side exceeds maxDimension.
func recompress(content []byte) ([]byte, string, error) {
	src, _, err := image.Decode(bytes.NewReader(content))
	if err != nil {
		return nil, "", fmt.Errorf("decoding image: %w", err)
	}

	bounds := src.Bounds()
	width, height := bounds.Dx(), bounds.Dy()
	if longest := max(width, height); longest > maxDimension {
		ratio := float64(maxDimension) / float64(longest)
		width = int(float64(width) * ratio)
		height = int(float64(height) * ratio)
		dst := image.NewRGBA(image.Rect(0, 0, width, height))
		draw.CatmullRom.Scale(dst, dst.Bounds(), src, bounds, draw.Over, nil)
		src = dst
	}

	var buf bytes.Buffer
	if err := jpeg.Encode(&buf, src, &jpeg.Options{Quality: jpegQuality}); err != nil {
		return nil, "", fmt.Errorf("encoding jpeg: %w", err)
	}
	return buf.Bytes(), "jpeg", nil
}
